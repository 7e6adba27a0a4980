package calibration

import (
	"fmt"
	"math"
)

// Correct converts a raw reading into a calibrated value.
//
//	Linear:      [a, b]    -> a + b*raw
//	Exponential: [a, b, c] -> a*exp(b*raw) + c
func Correct(curve CurveType, coefficients Coefficients, raw float64) (float64, error) {
	if err := checkArity(curve, coefficients); err != nil {
		return 0, err
	}

	var v float64
	switch curve {
	case Linear:
		v = coefficients[0] + coefficients[1]*raw
	case Exponential:
		v = coefficients[0]*math.Exp(coefficients[1]*raw) + coefficients[2]
	}

	if !finite(v) {
		return 0, fmt.Errorf("%w: %s correction of %g with %v", ErrNumericOverflow, curve, raw, []float64(coefficients))
	}
	return v, nil
}

func checkArity(curve CurveType, coefficients Coefficients) error {
	if !curve.Valid() {
		return fmt.Errorf("invalid curve type %d", int(curve))
	}
	if len(coefficients) != curve.Arity() {
		return fmt.Errorf("%w: %s curve takes %d coefficients, got %d", ErrCoefficientArityMismatch, curve, curve.Arity(), len(coefficients))
	}
	return nil
}

// Corrector applies a fixed set of coefficients to many readings.
type Corrector struct {
	curve        CurveType
	coefficients Coefficients
}

// NewCorrector checks the coefficient count once so Correct only fails on
// overflow.
func NewCorrector(curve CurveType, coefficients Coefficients) (Corrector, error) {
	if err := checkArity(curve, coefficients); err != nil {
		return Corrector{}, err
	}
	c := make(Coefficients, len(coefficients))
	copy(c, coefficients)
	return Corrector{curve: curve, coefficients: c}, nil
}

// NewFittedCorrector builds a corrector from coefficients in the order Fit
// returns them. Exponential fits yield [p0, p1, p2] for p0 + p1*exp(p2*x),
// which Correct takes as [p1, p2, p0].
func NewFittedCorrector(curve CurveType, fitted Coefficients) (Corrector, error) {
	if err := checkArity(curve, fitted); err != nil {
		return Corrector{}, err
	}
	if curve == Exponential {
		return NewCorrector(curve, Coefficients{fitted[1], fitted[2], fitted[0]})
	}
	return NewCorrector(curve, fitted)
}

func (c Corrector) Correct(raw float64) (float64, error) {
	return Correct(c.curve, c.coefficients, raw)
}

func (c Corrector) CurveType() CurveType { return c.curve }
