package calibration

import "errors"

var (
	// ErrInsufficientData is returned when a fit has fewer points than the
	// curve type requires.
	ErrInsufficientData = errors.New("insufficient calibration data")

	// ErrUnacceptableStandard is returned when a point with an Unknown
	// standard reaches a fit.
	ErrUnacceptableStandard = errors.New("unacceptable standard")

	// ErrSingularFit is returned when all readings of a linear fit are equal.
	ErrSingularFit = errors.New("singular fit")

	// ErrNonConvergence is returned when the exponential solver could not
	// improve on its initial guess.
	ErrNonConvergence = errors.New("fit did not converge")

	// ErrNumericOverflow is returned when a curve evaluates to NaN or Inf.
	ErrNumericOverflow = errors.New("numeric overflow")

	// ErrCoefficientArityMismatch is returned when a coefficient vector has
	// the wrong length for its curve type.
	ErrCoefficientArityMismatch = errors.New("coefficient arity mismatch")
)
