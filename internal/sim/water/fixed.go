package water

import "math"

// Fixed is a signed 16.16 fixed-point number. The solver does all of
// its arithmetic in this type: given the same call sequence the grid is
// bit-exact across platforms, which floats cannot promise.
type Fixed int32

const (
	// One is 1.0 in 16.16.
	One Fixed = 1 << 16
	// Half is 0.5 in 16.16.
	Half Fixed = 1 << 15
)

// FromInt converts a small integer to fixed point.
func FromInt(i int) Fixed { return Fixed(i) << 16 }

// FromFloat converts with round-to-nearest. Only for configuration and
// test setup; the step path never touches floats.
func FromFloat(f float64) Fixed {
	return Fixed(math.Round(f * 65536))
}

// Float converts back for reporting.
func (f Fixed) Float() float64 { return float64(f) / 65536 }

// Int truncates toward zero.
func (f Fixed) Int() int { return int(f >> 16) }

// Mul multiplies with round-to-nearest (ties away from zero).
func (f Fixed) Mul(o Fixed) Fixed {
	p := int64(f) * int64(o)
	if p >= 0 {
		return Fixed((p + 1<<15) >> 16)
	}
	return Fixed(-((-p + 1<<15) >> 16))
}

// Div divides with round-to-nearest (ties away from zero). Division by
// zero returns zero: the solver treats it as "no flow".
func (f Fixed) Div(o Fixed) Fixed {
	if o == 0 {
		return 0
	}
	n := int64(f) << 16
	d := int64(o)
	half := d / 2
	if half < 0 {
		half = -half
	}
	if (n < 0) != (d < 0) {
		return Fixed((n - half) / d)
	}
	return Fixed((n + half) / d)
}

// Abs returns the magnitude.
func (f Fixed) Abs() Fixed {
	if f < 0 {
		return -f
	}
	return f
}

func fixedMin(a, b Fixed) Fixed {
	if a < b {
		return a
	}
	return b
}
