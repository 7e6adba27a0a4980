package calibration

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Session accumulates the points of one calibration run. Its curve type is
// fixed at creation. Points are not validated until ComputeCoefficients.
type Session struct {
	id     uuid.UUID
	curve  CurveType
	solver SolverConfig
	points []Point
}

type SessionOption func(*Session)

// WithSolverConfig overrides DefaultSolverConfig for exponential fits.
func WithSolverConfig(cfg SolverConfig) SessionOption {
	return func(s *Session) {
		s.solver = cfg
	}
}

func NewSession(curve CurveType, opts ...SessionOption) *Session {
	s := &Session{
		id:     uuid.New(),
		curve:  curve,
		solver: DefaultSolverConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) ID() uuid.UUID        { return s.id }
func (s *Session) CurveType() CurveType { return s.curve }
func (s *Session) Len() int             { return len(s.points) }

// Append adds a point. Duplicates and Unknown standards are accepted here.
func (s *Session) Append(p Point) {
	s.points = append(s.points, p)
}

// Points returns a copy of the points in insertion order.
func (s *Session) Points() []Point {
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

// ComputeCoefficients fits the session's curve to all points appended so far.
// The result is recomputed on every call.
func (s *Session) ComputeCoefficients() (Coefficients, error) {
	entry := logrus.WithFields(logrus.Fields{
		"session": s.id.String(),
		"curve":   s.curve.String(),
		"points":  len(s.points),
	})

	if need := s.curve.MinPoints(); len(s.points) < need {
		return nil, fmt.Errorf("%w: %s curve needs at least %d points, session has %d", ErrInsufficientData, s.curve, need, len(s.points))
	}

	c, err := Fit(s.curve, s.points, s.solver)
	if err != nil {
		entry.WithError(err).Debug("fit failed")
		return nil, err
	}

	entry.WithField("coefficients", []float64(c)).Debug("fit done")
	return c, nil
}

// Snapshot computes the coefficients and bundles them with the points.
func (s *Session) Snapshot() (*Snapshot, error) {
	c, err := s.ComputeCoefficients()
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		CurveType:    s.curve,
		Points:       s.Points(),
		Coefficients: c,
	}, nil
}
