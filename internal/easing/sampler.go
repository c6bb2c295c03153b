package easing

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Sample is one synthesized point of an interval.
type Sample struct {
	Time  float64
	Value r3.Vec
}

// Sampler produces the steps-1 interior samples of the interval [t0, t1]
// travelling from start to end.
type Sampler func(start, end r3.Vec, t0, t1 float64, steps int) []Sample

// progress returns the i-th evenly spaced interior parameter and its time.
func progress(i, steps int, t0, t1 float64) (t, at float64) {
	t = float64(i) / float64(steps)
	return t, t0 + (t1-t0)*t
}

// Ease applies f independently to each component of the start/end pair.
func Ease(start, end r3.Vec, t0, t1 float64, steps int, f Func) []Sample {
	if steps < 2 {
		return nil
	}
	delta := r3.Sub(end, start)
	samples := make([]Sample, 0, steps-1)
	for i := 1; i < steps; i++ {
		t, at := progress(i, steps, t0, t1)
		samples = append(samples, Sample{
			Time:  at,
			Value: r3.Add(start, r3.Scale(f(t), delta)),
		})
	}
	return samples
}

// FromFunc lifts a scalar curve into a Sampler.
func FromFunc(f Func) Sampler {
	return func(start, end r3.Vec, t0, t1 float64, steps int) []Sample {
		return Ease(start, end, t0, t1, steps, f)
	}
}

// QuadraticBezier evaluates the quadratic Bernstein polynomial through p0, p1, p2.
func QuadraticBezier(p0, p1, p2 r3.Vec, t0, t1 float64, steps int) []Sample {
	if steps < 2 {
		return nil
	}
	samples := make([]Sample, 0, steps-1)
	for i := 1; i < steps; i++ {
		t, at := progress(i, steps, t0, t1)
		u := 1 - t
		v := r3.Add(r3.Add(r3.Scale(u*u, p0), r3.Scale(2*u*t, p1)), r3.Scale(t*t, p2))
		samples = append(samples, Sample{Time: at, Value: v})
	}
	return samples
}

// CubicBezier evaluates the cubic Bernstein polynomial through p0..p3.
func CubicBezier(p0, p1, p2, p3 r3.Vec, t0, t1 float64, steps int) []Sample {
	if steps < 2 {
		return nil
	}
	samples := make([]Sample, 0, steps-1)
	for i := 1; i < steps; i++ {
		t, at := progress(i, steps, t0, t1)
		u := 1 - t
		v := r3.Add(
			r3.Add(r3.Scale(u*u*u, p0), r3.Scale(3*u*u*t, p1)),
			r3.Add(r3.Scale(3*u*t*t, p2), r3.Scale(t*t*t, p3)),
		)
		samples = append(samples, Sample{Time: at, Value: v})
	}
	return samples
}

// placeholderOffset is the control point offset used by the bezier tags.
// The source format carries no control points, so a third of the x-axis
// delta is applied to every component.
// TODO: read authored control points once the source schema exposes them.
func placeholderOffset(start, end r3.Vec) r3.Vec {
	d := (end.X - start.X) / 3
	return r3.Vec{X: d, Y: d, Z: d}
}

// QuadraticBezierTag samples the bezierquadratic tag with a derived control point.
func QuadraticBezierTag(start, end r3.Vec, t0, t1 float64, steps int) []Sample {
	p1 := r3.Add(start, placeholderOffset(start, end))
	return QuadraticBezier(start, p1, end, t0, t1, steps)
}

// CubicBezierTag samples the beziercubic tag with derived control points.
func CubicBezierTag(start, end r3.Vec, t0, t1 float64, steps int) []Sample {
	off := placeholderOffset(start, end)
	p1 := r3.Add(start, off)
	p2 := r3.Sub(end, off)
	return CubicBezier(start, p1, p2, end, t0, t1, steps)
}
