package calibration

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// SolverConfig tunes the exponential least-squares solver.
type SolverConfig struct {
	// InitialGuess is the starting [p0, p1, p2]. The default is a seed for the
	// conductivity probe family and is not a universal starting point.
	InitialGuess [3]float64 `json:"initialGuess"`
	// GradientStep is the relative finite-difference step of the Jacobian.
	GradientStep float64 `json:"gradientStep"`
	// MaxIterations caps the number of trial steps, accepted or not.
	MaxIterations int `json:"maxIterations"`
	// Tolerance is the relative improvement of the summed squared residual
	// below which the fit is considered converged.
	Tolerance float64 `json:"tolerance"`
	// Damping is the initial Levenberg-Marquardt damping factor.
	Damping float64 `json:"damping"`
	// DampingScale multiplies the damping after a rejected step and divides
	// it after an accepted one.
	DampingScale float64 `json:"dampingScale"`
}

func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		InitialGuess:  [3]float64{1000.0, 1_500_000.0, -7.0},
		GradientStep:  1e-6,
		MaxIterations: 100,
		Tolerance:     1e-2,
		Damping:       1.5,
		DampingScale:  10,
	}
}

// Validate checks that every parameter is usable by the solver.
func (c SolverConfig) Validate() error {
	for i, g := range c.InitialGuess {
		if !finite(g) {
			return fmt.Errorf("initial guess p%d must be finite, got %g", i, g)
		}
	}
	if !(c.GradientStep > 0) || !finite(c.GradientStep) {
		return fmt.Errorf("gradient step must be positive, got %g", c.GradientStep)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max iterations must be positive, got %d", c.MaxIterations)
	}
	if !(c.Tolerance > 0) || !finite(c.Tolerance) {
		return fmt.Errorf("tolerance must be positive, got %g", c.Tolerance)
	}
	if !(c.Damping > 0) || !finite(c.Damping) {
		return fmt.Errorf("damping must be positive, got %g", c.Damping)
	}
	if !(c.DampingScale > 1) || !finite(c.DampingScale) {
		return fmt.Errorf("damping scale must be greater than 1, got %g", c.DampingScale)
	}
	return nil
}

func (c SolverConfig) LogrusFields() logrus.Fields {
	return logrus.Fields{
		"initialGuess":  c.InitialGuess,
		"gradientStep":  c.GradientStep,
		"maxIterations": c.MaxIterations,
		"tolerance":     c.Tolerance,
		"damping":       c.Damping,
		"dampingScale":  c.DampingScale,
	}
}

// Fit dispatches to the solver of the given curve type.
func Fit(curve CurveType, points []Point, cfg SolverConfig) (Coefficients, error) {
	switch curve {
	case Linear:
		return FitLinear(points)
	case Exponential:
		return FitExponential(points, cfg)
	default:
		return nil, fmt.Errorf("invalid curve type %d", int(curve))
	}
}
