package noise

import "testing"

func TestHeightmap_SameSeedIdentical(t *testing.T) {
	a := NewGenerator(12345, nil).Heightmap(64, 64)
	b := NewGenerator(12345, nil).Heightmap(64, 64)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("index %d: %v != %v with identical seed", i, a[i], b[i])
		}
	}
}

func TestHeightmap_DifferentSeedsDiffer(t *testing.T) {
	a := NewGenerator(12345, nil).Heightmap(64, 64)
	b := NewGenerator(22222, nil).Heightmap(64, 64)
	differ := 0
	for i := range a {
		if a[i] != b[i] {
			differ++
		}
	}
	if differ < len(a)/2 {
		t.Fatalf("only %d/%d heights differ between seeds", differ, len(a))
	}
}

func TestHeightmap_AmplitudeBound(t *testing.T) {
	var maxAmp float64
	for _, o := range DefaultOctaves {
		maxAmp += o.Amplitude
	}
	hm := NewGenerator(7, nil).Heightmap(32, 32)
	for i, h := range hm {
		if h > maxAmp || h < -maxAmp {
			t.Fatalf("index %d: height %v outside +-%v", i, h, maxAmp)
		}
	}
}

func TestHeightAt_CustomOctaves(t *testing.T) {
	g := NewGenerator(1, []Octave{{Frequency: 0.1, Amplitude: 5}})
	if got := g.HeightAt(3, 4); got > 5 || got < -5 {
		t.Fatalf("single octave out of amplitude range: %v", got)
	}
}
