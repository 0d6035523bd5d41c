// Package noise generates seeded terrain heightmaps from summed
// opensimplex octaves. The same seed always yields the same map.
package noise

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Octave is one noise layer: frequency in cells^-1 and its height
// contribution.
type Octave struct {
	Frequency float64
	Amplitude float64
}

// DefaultOctaves gives rolling terrain with fine surface detail.
var DefaultOctaves = []Octave{
	{Frequency: 1.0 / 128, Amplitude: 24},
	{Frequency: 1.0 / 48, Amplitude: 10},
	{Frequency: 1.0 / 16, Amplitude: 3},
	{Frequency: 1.0 / 6, Amplitude: 1},
}

// Generator sums seeded opensimplex octaves. Each octave gets its own
// noise instance derived from the base seed so the layers decorrelate.
type Generator struct {
	octaves []Octave
	noises  []opensimplex.Noise
}

// NewGenerator builds a generator for the given seed. Nil octaves take
// DefaultOctaves.
func NewGenerator(seed int64, octaves []Octave) *Generator {
	if len(octaves) == 0 {
		octaves = DefaultOctaves
	}
	g := &Generator{octaves: octaves}
	for i := range octaves {
		g.noises = append(g.noises, opensimplex.New(seed+int64(i)*0x9e3779b9))
	}
	return g
}

// HeightAt evaluates the summed octaves at a grid coordinate.
func (g *Generator) HeightAt(x, z float64) float64 {
	var h float64
	for i, o := range g.octaves {
		h += g.noises[i].Eval2(x*o.Frequency, z*o.Frequency) * o.Amplitude
	}
	return h
}

// Heightmap fills a width*depth row-major (z*width+x) slice of heights.
func (g *Generator) Heightmap(width, depth int) []float64 {
	out := make([]float64, width*depth)
	for z := 0; z < depth; z++ {
		for x := 0; x < width; x++ {
			out[z*width+x] = g.HeightAt(float64(x), float64(z))
		}
	}
	return out
}
