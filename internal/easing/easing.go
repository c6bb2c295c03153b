// Package easing provides the curve library used to expand non-linear transitions.
//
// Every curve is a normalized function on [0, 1]. Samplers apply a curve to each
// component of a start/end vector pair and return the intermediate points of an
// interval, endpoints excluded.
package easing

import "math"

// Func maps interpolation progress t in [0, 1] to eased progress.
type Func func(t float64) float64

const (
	backC1    = 1.70158
	backC2    = backC1 * 1.525
	backC3    = backC1 + 1
	elasticC4 = (2 * math.Pi) / 3
	elasticC5 = (2 * math.Pi) / 4.5
	bounceN1  = 7.5625
	bounceD1  = 2.75
)

// Linear returns t unchanged.
func Linear(t float64) float64 { return t }

// Quadratic

func InQuad(t float64) float64  { return t * t }
func OutQuad(t float64) float64 { return 1 - (1-t)*(1-t) }
func InOutQuad(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - math.Pow(-2*t+2, 2)/2
}

// Cubic

func InCubic(t float64) float64  { return t * t * t }
func OutCubic(t float64) float64 { return 1 - math.Pow(1-t, 3) }
func InOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// Quartic

func InQuart(t float64) float64  { return t * t * t * t }
func OutQuart(t float64) float64 { return 1 - math.Pow(1-t, 4) }
func InOutQuart(t float64) float64 {
	if t < 0.5 {
		return 8 * t * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 4)/2
}

// Quintic

func InQuint(t float64) float64  { return t * t * t * t * t }
func OutQuint(t float64) float64 { return 1 + math.Pow(t-1, 5) }
func InOutQuint(t float64) float64 {
	if t < 0.5 {
		return 16 * t * t * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 5)/2
}

// Sine

func InSine(t float64) float64    { return 1 - math.Cos(t*math.Pi/2) }
func OutSine(t float64) float64   { return math.Sin(t * math.Pi / 2) }
func InOutSine(t float64) float64 { return (1 - math.Cos(math.Pi*t)) / 2 }

// Exponential. The boundaries are special-cased so 2^(-inf) is never evaluated.

func InExpo(t float64) float64 {
	if t == 0 {
		return 0
	}
	return math.Pow(2, 10*(t-1))
}

func OutExpo(t float64) float64 {
	if t == 1 {
		return 1
	}
	return 1 - math.Pow(2, -10*t)
}

func InOutExpo(t float64) float64 {
	switch {
	case t == 0:
		return 0
	case t == 1:
		return 1
	case t < 0.5:
		return math.Pow(2, 20*t-10) / 2
	default:
		return (2 - math.Pow(2, -20*t+10)) / 2
	}
}

// Circular

func InCirc(t float64) float64  { return 1 - math.Sqrt(1-math.Pow(t, 2)) }
func OutCirc(t float64) float64 { return math.Sqrt(1 - math.Pow(t-1, 2)) }
func InOutCirc(t float64) float64 {
	if t < 0.5 {
		return (1 - math.Sqrt(1-math.Pow(2*t, 2))) / 2
	}
	return (math.Sqrt(1-math.Pow(-2*t+2, 2)) + 1) / 2
}

// Elastic

func InElastic(t float64) float64 {
	switch t {
	case 0:
		return 0
	case 1:
		return 1
	}
	return -math.Pow(2, 10*t-10) * math.Sin((t*10-10.75)*elasticC4)
}

func OutElastic(t float64) float64 {
	switch t {
	case 0:
		return 0
	case 1:
		return 1
	}
	return math.Pow(2, -10*t)*math.Sin((t*10-0.75)*elasticC4) + 1
}

func InOutElastic(t float64) float64 {
	switch {
	case t == 0:
		return 0
	case t == 1:
		return 1
	case t < 0.5:
		return -(math.Pow(2, 20*t-10) * math.Sin((20*t-11.125)*elasticC5)) / 2
	default:
		return (math.Pow(2, -20*t+10)*math.Sin((20*t-11.125)*elasticC5))/2 + 1
	}
}

// Back

func InBack(t float64) float64 { return backC3*t*t*t - backC1*t*t }

func OutBack(t float64) float64 {
	return 1 + backC3*math.Pow(t-1, 3) + backC1*math.Pow(t-1, 2)
}

func InOutBack(t float64) float64 {
	if t < 0.5 {
		return (math.Pow(2*t, 2) * ((backC2+1)*2*t - backC2)) / 2
	}
	return (math.Pow(2*t-2, 2)*((backC2+1)*(t*2-2)+backC2) + 2) / 2
}

// Bounce

func InBounce(t float64) float64  { return 1 - OutBounce(1-t) }
func OutBounce(t float64) float64 { return bounceOut(t) }
func InOutBounce(t float64) float64 {
	if t < 0.5 {
		return (1 - bounceOut(1-2*t)) / 2
	}
	return (1 + bounceOut(2*t-1)) / 2
}

// bounceOut is the shared kernel: four parabolic arcs with breakpoints at
// 1/2.75, 2/2.75 and 2.5/2.75.
func bounceOut(n float64) float64 {
	switch {
	case n < 1/bounceD1:
		return bounceN1 * n * n
	case n < 2/bounceD1:
		n -= 1.5 / bounceD1
		return bounceN1*n*n + 0.75
	case n < 2.5/bounceD1:
		n -= 2.25 / bounceD1
		return bounceN1*n*n + 0.9375
	default:
		n -= 2.625 / bounceD1
		return bounceN1*n*n + 0.984375
	}
}
