package easing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

const tolerance = 1e-9

func TestCurveEndpoints(t *testing.T) {
	for tag, f := range curves {
		t.Run(tag, func(t *testing.T) {
			assert.InDelta(t, 0, f(0), tolerance, "f(0)")
			assert.InDelta(t, 1, f(1), tolerance, "f(1)")
		})
	}
}

func TestCurveValues(t *testing.T) {
	tests := []struct {
		name string
		f    Func
		t    float64
		want float64
	}{
		{"InQuad", InQuad, 0.5, 0.25},
		{"OutQuad", OutQuad, 0.5, 0.75},
		{"InOutQuad low", InOutQuad, 0.25, 0.125},
		{"InOutQuad high", InOutQuad, 0.75, 0.875},
		{"InCubic", InCubic, 0.5, 0.125},
		{"OutCubic", OutCubic, 0.5, 0.875},
		{"InOutCubic mid", InOutCubic, 0.5, 0.5},
		{"InQuart", InQuart, 0.5, 0.0625},
		{"OutQuart", OutQuart, 0.5, 0.9375},
		{"InQuint", InQuint, 0.5, 0.03125},
		{"OutQuint", OutQuint, 0.5, 0.96875},
		{"InOutQuint mid", InOutQuint, 0.5, 0.5},
		{"InSine", InSine, 1.0 / 3, 1 - math.Cos(math.Pi/6)},
		{"OutSine", OutSine, 1.0 / 3, 0.5},
		{"InOutSine mid", InOutSine, 0.5, 0.5},
		{"InExpo", InExpo, 0.5, math.Pow(2, -5)},
		{"OutExpo", OutExpo, 0.5, 1 - math.Pow(2, -5)},
		{"InOutExpo mid", InOutExpo, 0.5, 0.5},
		{"InCirc", InCirc, 0.6, 0.2},
		{"OutCirc", OutCirc, 0.4, 0.8},
		{"InOutCirc mid", InOutCirc, 0.5, 0.5},
		{"InOutElastic mid", InOutElastic, 0.5, 0.5},
		{"InOutBack mid", InOutBack, 0.5, 0.5},
		{"OutBounce first arc", OutBounce, 0.2, bounceN1 * 0.04},
		{"OutBounce second arc", OutBounce, 0.5, bounceN1*math.Pow(0.5-1.5/bounceD1, 2) + 0.75},
		{"InOutBounce mid", InOutBounce, 0.5, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.f(tt.t), tolerance)
		})
	}
}

func TestBackOvershoots(t *testing.T) {
	assert.Less(t, InBack(0.2), 0.0, "ease-in-back dips below the start")
	assert.Greater(t, OutBack(0.8), 1.0, "ease-out-back overshoots the end")
}

func TestElasticOscillates(t *testing.T) {
	assert.Greater(t, OutElastic(0.1), 1.0)
	assert.Less(t, InElastic(0.9), 0.0)
}

func TestBounceKernelContinuous(t *testing.T) {
	for _, bp := range []float64{1 / bounceD1, 2 / bounceD1, 2.5 / bounceD1} {
		below := bounceOut(bp - 1e-12)
		above := bounceOut(bp)
		assert.InDelta(t, below, above, 1e-9, "breakpoint %v", bp)
	}
}

func TestEase(t *testing.T) {
	start := r3.Vec{X: 0, Y: 10, Z: -4}
	end := r3.Vec{X: 10, Y: 20, Z: 4}

	samples := Ease(start, end, 0.5, 1.0, 10, Linear)
	require.Len(t, samples, 9)

	for i, s := range samples {
		frac := float64(i+1) / 10
		assert.InDelta(t, 0.5+0.5*frac, s.Time, tolerance)
		assert.InDelta(t, 10*frac, s.Value.X, tolerance)
		assert.InDelta(t, 10+10*frac, s.Value.Y, tolerance)
		assert.InDelta(t, -4+8*frac, s.Value.Z, tolerance)
		assert.Greater(t, s.Time, 0.5)
		assert.Less(t, s.Time, 1.0)
	}
}

func TestEase_FewSteps(t *testing.T) {
	assert.Empty(t, Ease(r3.Vec{}, r3.Vec{X: 1}, 0, 1, 1, Linear))
	assert.Empty(t, Ease(r3.Vec{}, r3.Vec{X: 1}, 0, 1, 0, Linear))
	assert.Len(t, Ease(r3.Vec{}, r3.Vec{X: 1}, 0, 1, 2, Linear), 1)
}

func TestEase_OpenIntervalAndApproach(t *testing.T) {
	start := r3.Vec{X: 1, Y: 2, Z: 3}
	end := r3.Vec{X: 1.5, Y: 1.5, Z: 3.5}

	for _, tag := range Default().Names() {
		t.Run(tag, func(t *testing.T) {
			s, ok := Default().Lookup(tag)
			require.True(t, ok)

			coarse := s(start, end, 1, 2, 10)
			require.Len(t, coarse, 9)
			for _, smp := range coarse {
				assert.Greater(t, smp.Time, 1.0)
				assert.Less(t, smp.Time, 2.0)
			}

			// finer sampling moves the outer samples closer to the endpoints
			fine := s(start, end, 1, 2, 10000)
			first := fine[0].Value
			last := fine[len(fine)-1].Value
			assert.InDelta(t, 0, r3.Norm(r3.Sub(first, start)), 0.05)
			assert.InDelta(t, 0, r3.Norm(r3.Sub(last, end)), 0.05)
		})
	}
}

func TestQuadraticBezier(t *testing.T) {
	p0 := r3.Vec{}
	p1 := r3.Vec{X: 1, Y: 2}
	p2 := r3.Vec{X: 2}

	samples := QuadraticBezier(p0, p1, p2, 0, 1, 2)
	require.Len(t, samples, 1)
	// B(0.5) = 0.25*p0 + 0.5*p1 + 0.25*p2
	assert.InDelta(t, 1.0, samples[0].Value.X, tolerance)
	assert.InDelta(t, 1.0, samples[0].Value.Y, tolerance)
	assert.InDelta(t, 0.5, samples[0].Time, tolerance)
}

func TestCubicBezier(t *testing.T) {
	p0 := r3.Vec{}
	p1 := r3.Vec{Y: 3}
	p2 := r3.Vec{X: 3, Y: 3}
	p3 := r3.Vec{X: 3}

	samples := CubicBezier(p0, p1, p2, p3, 0, 1, 2)
	require.Len(t, samples, 1)
	// B(0.5) = 0.125*p0 + 0.375*p1 + 0.375*p2 + 0.125*p3
	assert.InDelta(t, 1.5, samples[0].Value.X, tolerance)
	assert.InDelta(t, 2.25, samples[0].Value.Y, tolerance)
}

func TestBezierTags_UseXAxisDelta(t *testing.T) {
	start := r3.Vec{X: 0, Y: 0, Z: 0}
	end := r3.Vec{X: 3, Y: 0, Z: 0}

	quad := QuadraticBezierTag(start, end, 0, 1, 2)
	require.Len(t, quad, 1)
	// p1 = start + 1 on every axis: B(0.5) = 0.5*p1 + 0.25*end
	assert.InDelta(t, 0.5+0.75, quad[0].Value.X, tolerance)
	assert.InDelta(t, 0.5, quad[0].Value.Y, tolerance)
	assert.InDelta(t, 0.5, quad[0].Value.Z, tolerance)

	cubic := CubicBezierTag(start, end, 0, 1, 2)
	require.Len(t, cubic, 1)
	// p1 = (1,1,1), p2 = (2,-1,-1): Y = 0.375*1 + 0.375*-1 = 0
	assert.InDelta(t, 1.5, cubic[0].Value.X, tolerance)
	assert.InDelta(t, 0, cubic[0].Value.Y, tolerance)
}

func TestLibrary_Default(t *testing.T) {
	lib := Default()
	assert.Equal(t, 32, lib.Len())
	assert.Same(t, lib, Default())

	_, ok := lib.Lookup("EaseInQuad")
	assert.True(t, ok, "lookup is case-insensitive")

	_, ok = lib.Lookup("instant")
	assert.False(t, ok, "instant is handled by the expander, not the library")

	_, ok = lib.Lookup("wobble")
	assert.False(t, ok)
}

func TestLibrary_Register(t *testing.T) {
	lib := NewLibrary()
	assert.Equal(t, 0, lib.Len())

	lib.Register("Linear", FromFunc(Linear))
	s, ok := lib.Lookup("linear")
	require.True(t, ok)
	assert.Len(t, s(r3.Vec{}, r3.Vec{X: 1}, 0, 1, 4), 3)
	assert.Equal(t, []string{"linear"}, lib.Names())
}
