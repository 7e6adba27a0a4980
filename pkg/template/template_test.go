package template

import (
	"errors"
	"testing"

	"github.com/charlie0129/sensorcal/pkg/calibration"
)

func TestBuiltinLookup(t *testing.T) {
	r := Builtin()

	tests := []struct {
		key   string
		curve calibration.CurveType
		kind  int32
	}{
		{key: "ph", curve: calibration.Linear, kind: KindPH},
		{key: "PH", curve: calibration.Linear, kind: KindPH},
		{key: " orp ", curve: calibration.Linear, kind: KindORP},
		{key: "ec", curve: calibration.Exponential, kind: KindEC},
		{key: "turbidity", curve: calibration.Exponential, kind: KindTurbidity},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := r.Lookup(tt.key)
			if err != nil {
				t.Fatalf("Lookup(%q) error = %v", tt.key, err)
			}
			if got.Curve != tt.curve || got.Kind != tt.kind {
				t.Errorf("Lookup(%q) = %+v, want curve %v kind %d", tt.key, got, tt.curve, tt.kind)
			}
		})
	}

	if _, err := r.Lookup("salinity"); !errors.Is(err, ErrUnknownTemplateKey) {
		t.Errorf("Lookup(salinity) error = %v, want %v", err, ErrUnknownTemplateKey)
	}
}

func TestRegistryKeys(t *testing.T) {
	got := Builtin().Keys()
	want := []string{"ec", "orp", "ph", "turbidity"}
	if len(got) != len(want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Keys() = %v, want %v", got, want)
		}
	}
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name     string
		template Template
		wantErr  bool
	}{
		{
			name: "valid",
			template: Template{
				Key:       "custom",
				Curve:     calibration.Linear,
				Standards: []calibration.Standard{calibration.FixedStandard(1), calibration.FixedStandard(2)},
			},
		},
		{
			name:     "empty key",
			template: Template{Key: " ", Curve: calibration.Linear},
			wantErr:  true,
		},
		{
			name: "bad curve",
			template: Template{
				Key:       "custom",
				Curve:     calibration.CurveType(9),
				Standards: []calibration.Standard{calibration.FixedStandard(1), calibration.FixedStandard(2)},
			},
			wantErr: true,
		},
		{
			name: "too few standards",
			template: Template{
				Key:       "custom",
				Curve:     calibration.Exponential,
				Standards: []calibration.Standard{calibration.FixedStandard(1), calibration.FixedStandard(2)},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRegistry().Register(tt.template)
			if (err != nil) != tt.wantErr {
				t.Errorf("Register() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWithStandards(t *testing.T) {
	orp, err := Builtin().Lookup("orp")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}

	filled, err := orp.WithStandards([]float64{0, 225, 475})
	if err != nil {
		t.Fatalf("WithStandards() error = %v", err)
	}
	for i, s := range filled.Standards {
		if !s.Acceptable() {
			t.Errorf("standard %d = %v, want acceptable", i, s)
		}
	}
	if orp.Standards[2].Acceptable() {
		t.Errorf("WithStandards() modified the original template")
	}

	if _, err := orp.WithStandards([]float64{1, 2, 3, 4}); err == nil {
		t.Errorf("WithStandards() with too many values should fail")
	}

	ph, _ := Builtin().Lookup("ph")
	if _, err := ph.WithStandards([]float64{4.01}); err == nil {
		t.Errorf("WithStandards() overriding a fixed standard should fail")
	}
	if _, err := ph.WithStandards([]float64{4}); err != nil {
		t.Errorf("WithStandards() repeating a fixed standard error = %v", err)
	}
}

func TestTemplateSession(t *testing.T) {
	ph, _ := Builtin().Lookup("ph")
	s := ph.NewSession()
	for i, standard := range ph.Standards {
		s.Append(calibration.NewPoint(standard, calibration.SensorReading{Uncalibrated: float64(i + 1)}))
	}
	c, err := s.ComputeCoefficients()
	if err != nil {
		t.Fatalf("ComputeCoefficients() error = %v", err)
	}
	if len(c) != 2 || c[0] != 1 || c[1] != 3 {
		t.Errorf("ComputeCoefficients() = %v, want [1 3]", c)
	}
}
