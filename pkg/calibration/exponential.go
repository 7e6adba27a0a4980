package calibration

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

const (
	// Bounds keep the damping factor from collapsing to zero after a run of
	// good steps, and end the search once no step size helps.
	dampingFloor   = 1e-12
	dampingCeiling = 1e12
)

// expCurve evaluates y = p0 + p1*exp(p2*x).
func expCurve(p [3]float64, x float64) float64 {
	return p[0] + p[1]*math.Exp(p[2]*x)
}

// residuals stores y - f(x) for every sample in r and returns the summed
// square. ok is false if any evaluation is not finite.
func residuals(s []sample, p [3]float64, r *mat.VecDense) (sse float64, ok bool) {
	for i, v := range s {
		f := expCurve(p, v.x)
		if !finite(f) {
			return 0, false
		}
		d := v.y - f
		r.SetVec(i, d)
		sse += d * d
	}
	return sse, finite(sse)
}

// jacobian fills j with forward-difference partial derivatives of the curve
// with respect to each parameter.
func jacobian(s []sample, p [3]float64, step float64, j *mat.Dense) bool {
	for k := 0; k < 3; k++ {
		h := step * math.Max(math.Abs(p[k]), 1)
		shifted := p
		shifted[k] += h
		// Use the step actually representable in floating point.
		h = shifted[k] - p[k]
		for i, v := range s {
			d := (expCurve(shifted, v.x) - expCurve(p, v.x)) / h
			if !finite(d) {
				return false
			}
			j.Set(i, k, d)
		}
	}
	return true
}

// FitExponential fits y = p0 + p1*exp(p2*x) to the points with
// Levenberg-Marquardt and returns [p0, p1, p2].
//
// A step is accepted only if it lowers the summed squared residual, so the
// returned parameters are always the best seen. Hitting cfg.MaxIterations is
// not an error as long as the fit improved on cfg.InitialGuess.
func FitExponential(points []Point, cfg SolverConfig) (Coefficients, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid solver config: %w", err)
	}
	s, err := samples(points, Exponential.MinPoints())
	if err != nil {
		return nil, err
	}

	n := len(s)
	p := cfg.InitialGuess
	r := mat.NewVecDense(n, nil)
	sse, ok := residuals(s, p, r)
	if !ok {
		return nil, fmt.Errorf("%w: curve is not finite at initial guess %v", ErrNumericOverflow, p)
	}
	initial := sse

	var (
		j     = mat.NewDense(n, 3, nil)
		trial = mat.NewVecDense(n, nil)
		a     = mat.NewSymDense(3, nil)
		jtj   mat.SymDense
		g     mat.VecDense
		delta mat.VecDense
		chol  mat.Cholesky

		lambda     = cfg.Damping
		iterations int
		converged  = sse == 0
		improved   bool
		overflowed bool
		stale      = true
	)

	for ; !converged && iterations < cfg.MaxIterations; iterations++ {
		if stale {
			if !jacobian(s, p, cfg.GradientStep, j) {
				return nil, fmt.Errorf("%w: jacobian is not finite at %v", ErrNumericOverflow, p)
			}
			jtj.SymOuterK(1, j.T())
			g.MulVec(j.T(), r)
			stale = false
		}

		// Marquardt scaling: damp each parameter relative to its own
		// curvature so p1 in the millions and p2 near one are treated alike.
		for row := 0; row < 3; row++ {
			for col := row; col < 3; col++ {
				a.SetSym(row, col, jtj.At(row, col))
			}
			d := jtj.At(row, row)
			if d == 0 {
				d = 1
			}
			a.SetSym(row, row, jtj.At(row, row)+lambda*d)
		}

		if !chol.Factorize(a) {
			lambda = math.Min(lambda*cfg.DampingScale, dampingCeiling)
			continue
		}
		if err := chol.SolveVecTo(&delta, &g); err != nil {
			lambda = math.Min(lambda*cfg.DampingScale, dampingCeiling)
			continue
		}

		next := [3]float64{p[0] + delta.AtVec(0), p[1] + delta.AtVec(1), p[2] + delta.AtVec(2)}
		nextSSE, ok := residuals(s, next, trial)
		if !ok {
			overflowed = true
		}
		if !ok || nextSSE >= sse {
			if lambda >= dampingCeiling {
				break
			}
			lambda = math.Min(lambda*cfg.DampingScale, dampingCeiling)
			continue
		}

		gain := (sse - nextSSE) / sse
		p, sse = next, nextSSE
		r.CopyVec(trial)
		improved = true
		stale = true
		lambda = math.Max(lambda/cfg.DampingScale, dampingFloor)

		if gain < cfg.Tolerance || sse == 0 {
			converged = true
		}
	}

	fields := logrus.Fields{
		"iterations": iterations,
		"initialSSE": initial,
		"sse":        sse,
		"converged":  converged,
		"damping":    lambda,
	}

	if !converged && !improved {
		logrus.WithFields(fields).Debug("exponential fit made no progress")
		if overflowed {
			return nil, fmt.Errorf("%w: every trial step from %v evaluated to a non-finite curve", ErrNumericOverflow, cfg.InitialGuess)
		}
		return nil, fmt.Errorf("%w: residual %g not improved after %d iterations", ErrNonConvergence, sse, iterations)
	}

	for _, v := range p {
		if !finite(v) {
			return nil, fmt.Errorf("%w: fitted parameters %v", ErrNumericOverflow, p)
		}
	}

	logrus.WithFields(fields).Debug("exponential fit done")

	return Coefficients{p[0], p[1], p[2]}, nil
}
