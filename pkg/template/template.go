package template

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charlie0129/sensorcal/pkg/calibration"
)

// ErrUnknownTemplateKey is returned when no template is registered for a
// sensor module key.
var ErrUnknownTemplateKey = errors.New("unknown template key")

// Template describes how a sensor module is calibrated: the curve it follows
// and the reference standards, in the order they are measured.
type Template struct {
	Key         string                 `json:"key"`
	Kind        int32                  `json:"kind"`
	Curve       calibration.CurveType  `json:"curve"`
	Standards   []calibration.Standard `json:"standards"`
	Description string                 `json:"description,omitempty"`
}

// Validate checks that t can produce a fit on its own.
func (t Template) Validate() error {
	if normalizeKey(t.Key) == "" {
		return fmt.Errorf("template key must not be empty")
	}
	if !t.Curve.Valid() {
		return fmt.Errorf("template %s: invalid curve type %d", t.Key, int(t.Curve))
	}
	if need := t.Curve.MinPoints(); len(t.Standards) < need {
		return fmt.Errorf("template %s: %s curve needs at least %d standards, got %d", t.Key, t.Curve, need, len(t.Standards))
	}
	return nil
}

// NewSession starts a calibration session for this template's curve.
func (t Template) NewSession(opts ...calibration.SessionOption) *calibration.Session {
	return calibration.NewSession(t.Curve, opts...)
}

// WithStandards returns a copy of t whose leading standards are replaced by
// operator-entered values. Fixed standards cannot be replaced.
func (t Template) WithStandards(values []float64) (Template, error) {
	if len(values) > len(t.Standards) {
		return Template{}, fmt.Errorf("template %s has %d standards, got %d values", t.Key, len(t.Standards), len(values))
	}

	out := t
	out.Standards = make([]calibration.Standard, len(t.Standards))
	copy(out.Standards, t.Standards)
	for i, v := range values {
		if out.Standards[i].Kind() == calibration.KindFixed {
			if fixed, _ := out.Standards[i].Value(); fixed != v {
				return Template{}, fmt.Errorf("template %s: standard %d is fixed at %g", t.Key, i, fixed)
			}
			continue
		}
		out.Standards[i] = calibration.UserStandard(v)
	}
	return out, nil
}

// Registry maps sensor module keys to templates. Keys are case-insensitive.
type Registry struct {
	templates map[string]Template
}

func NewRegistry() *Registry {
	return &Registry{templates: make(map[string]Template)}
}

// Register adds or replaces the template under t.Key.
func (r *Registry) Register(t Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	t.Key = normalizeKey(t.Key)
	r.templates[t.Key] = t
	return nil
}

func (r *Registry) Lookup(key string) (Template, error) {
	t, ok := r.templates[normalizeKey(key)]
	if !ok {
		return Template{}, fmt.Errorf("%w: %q", ErrUnknownTemplateKey, key)
	}
	return t, nil
}

// Keys returns all registered keys in sorted order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.templates))
	for k := range r.templates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
