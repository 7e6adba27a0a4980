package calibration

import (
	"fmt"
	"math"
)

// sample is a point reduced to the fit variables: x is the raw reading and y
// the reference value.
type sample struct {
	x, y float64
}

// samples checks that there are at least need points and that every one has
// an acceptable standard.
func samples(points []Point, need int) ([]sample, error) {
	if len(points) < need {
		return nil, fmt.Errorf("%w: need at least %d points, got %d", ErrInsufficientData, need, len(points))
	}

	out := make([]sample, len(points))
	for i, p := range points {
		v, ok := p.Standard.Value()
		if !ok {
			return nil, fmt.Errorf("%w: point %d has no reference value", ErrUnacceptableStandard, i)
		}
		out[i] = sample{x: p.Reading.Uncalibrated, y: v}
	}
	return out, nil
}

// FitLinear computes the ordinary least-squares line of standard value
// against raw reading and returns [intercept, slope].
func FitLinear(points []Point) (Coefficients, error) {
	s, err := samples(points, Linear.MinPoints())
	if err != nil {
		return nil, err
	}

	n := float64(len(s))
	var meanX, meanY float64
	for _, p := range s {
		meanX += p.x
		meanY += p.y
	}
	meanX /= n
	meanY /= n

	// Centre before summing so large raw offsets do not cancel out.
	var sxy, sxx float64
	for _, p := range s {
		dx := p.x - meanX
		sxy += dx * (p.y - meanY)
		sxx += dx * dx
	}

	if sxx == 0 {
		return nil, fmt.Errorf("%w: all %d readings equal %g", ErrSingularFit, len(s), meanX)
	}

	slope := sxy / sxx
	intercept := meanY - slope*meanX
	if !finite(slope) || !finite(intercept) {
		return nil, fmt.Errorf("%w: linear fit produced intercept %g, slope %g", ErrNumericOverflow, intercept, slope)
	}

	return Coefficients{intercept, slope}, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
