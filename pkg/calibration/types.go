package calibration

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StandardKind tells where the value of a Standard came from.
type StandardKind string

const (
	// KindFixed is a value baked into the sensor template that cannot change.
	KindFixed StandardKind = "fixed"
	// KindDefault is a template value the operator may override.
	KindDefault StandardKind = "default"
	// KindUser is a value entered by the operator.
	KindUser StandardKind = "user"
	// KindUnknown has no value yet and must be filled in before fitting.
	KindUnknown StandardKind = "unknown"
)

// Standard is a reference value used as ground truth during calibration.
// The zero value is an Unknown standard.
type Standard struct {
	kind  StandardKind
	value float64
}

func FixedStandard(v float64) Standard   { return Standard{kind: KindFixed, value: v} }
func DefaultStandard(v float64) Standard { return Standard{kind: KindDefault, value: v} }
func UserStandard(v float64) Standard    { return Standard{kind: KindUser, value: v} }
func UnknownStandard() Standard          { return Standard{kind: KindUnknown} }

// Kind returns the variant of s.
func (s Standard) Kind() StandardKind {
	if s.kind == "" {
		return KindUnknown
	}
	return s.kind
}

// Value returns the reference value and whether there is one.
func (s Standard) Value() (float64, bool) {
	switch s.Kind() {
	case KindFixed, KindDefault, KindUser:
		return s.value, true
	default:
		return 0, false
	}
}

// Acceptable reports whether s carries a known value and may be used in a fit.
func (s Standard) Acceptable() bool {
	_, ok := s.Value()
	return ok
}

func (s Standard) String() string {
	v, ok := s.Value()
	if !ok {
		return string(KindUnknown)
	}
	return fmt.Sprintf("%s(%g)", s.Kind(), v)
}

type rawStandard struct {
	Type  StandardKind `json:"type"`
	Value *float64     `json:"value,omitempty"`
}

func (s Standard) MarshalJSON() ([]byte, error) {
	raw := rawStandard{Type: s.Kind()}
	if v, ok := s.Value(); ok {
		raw.Value = &v
	}
	return json.Marshal(raw)
}

func (s *Standard) UnmarshalJSON(b []byte) error {
	var raw rawStandard
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	kind := StandardKind(strings.ToLower(string(raw.Type)))
	switch kind {
	case KindFixed, KindDefault, KindUser:
		if raw.Value == nil {
			return fmt.Errorf("%s standard requires a value", kind)
		}
		*s = Standard{kind: kind, value: *raw.Value}
	case KindUnknown, "":
		if raw.Value != nil {
			return fmt.Errorf("unknown standard must not carry a value")
		}
		*s = UnknownStandard()
	default:
		return fmt.Errorf("invalid standard type %q", raw.Type)
	}
	return nil
}

// SensorReading pairs a raw sensor output with its calibrated counterpart,
// when one is already known. Value is informational and never used in fits.
type SensorReading struct {
	Uncalibrated float64 `json:"uncalibrated"`
	Value        float64 `json:"value"`
}

// Point is one calibration observation.
type Point struct {
	Standard Standard      `json:"standard"`
	Reading  SensorReading `json:"reading"`
}

func NewPoint(standard Standard, reading SensorReading) Point {
	return Point{Standard: standard, Reading: reading}
}

// CurveType is the functional form assumed between raw reading and true value.
type CurveType int

const (
	Linear CurveType = iota
	Exponential
)

// ParseCurveType parses the text form of a CurveType.
func ParseCurveType(s string) (CurveType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear", "lin":
		return Linear, nil
	case "exponential", "exp":
		return Exponential, nil
	default:
		return 0, fmt.Errorf("invalid curve type %q", s)
	}
}

func (c CurveType) String() string {
	switch c {
	case Linear:
		return "linear"
	case Exponential:
		return "exponential"
	default:
		return fmt.Sprintf("CurveType(%d)", int(c))
	}
}

// Valid reports whether c is one of the known curve types.
func (c CurveType) Valid() bool {
	return c == Linear || c == Exponential
}

// Arity is the number of coefficients describing a curve of this type.
func (c CurveType) Arity() int {
	switch c {
	case Linear:
		return 2
	case Exponential:
		return 3
	default:
		return 0
	}
}

// MinPoints is the smallest number of points a fit of this type accepts.
func (c CurveType) MinPoints() int {
	return c.Arity()
}

func (c CurveType) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid curve type %d", int(c))
	}
	return []byte(c.String()), nil
}

func (c *CurveType) UnmarshalText(b []byte) error {
	parsed, err := ParseCurveType(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Coefficients is the fitted curve. Linear curves are [intercept, slope],
// exponential curves are [p0, p1, p2].
type Coefficients []float64

// Snapshot is the serialization-ready view of a Session.
type Snapshot struct {
	CurveType    CurveType
	Points       []Point
	Coefficients Coefficients
}
