package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/charlie0129/sensorcal/pkg/calibration"
	"github.com/charlie0129/sensorcal/pkg/template"
)

func TestNewFileDefaults(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(empty, []byte("  \n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	for name, path := range map[string]string{
		"missing": filepath.Join(dir, "missing.json"),
		"empty":   empty,
	} {
		t.Run(name, func(t *testing.T) {
			f, err := NewFile(path)
			if err != nil {
				t.Fatalf("NewFile() error = %v", err)
			}
			if got := f.SolverConfig(); got != calibration.DefaultSolverConfig() {
				t.Errorf("SolverConfig() = %+v, want defaults", got)
			}
			if got := f.Templates(); len(got) != 0 {
				t.Errorf("Templates() = %v, want none", got)
			}
		})
	}
}

func TestLoadPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sensorcal.json")
	content := `{
  "maxIterations": 250,
  "initialGuess": [10, 20, -0.5],
  "templates": {
    "Salinity": {
      "kind": 101,
      "curve": "linear",
      "standards": [{"type": "fixed", "value": 0}, {"type": "unknown"}]
    }
  }
}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	f, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}

	sc := f.SolverConfig()
	want := calibration.DefaultSolverConfig()
	want.MaxIterations = 250
	want.InitialGuess = [3]float64{10, 20, -0.5}
	if sc != want {
		t.Errorf("SolverConfig() = %+v, want %+v", sc, want)
	}

	templates := f.Templates()
	if len(templates) != 1 {
		t.Fatalf("Templates() = %v, want 1 template", templates)
	}
	if templates[0].Key != "salinity" || templates[0].Kind != 101 || templates[0].Curve != calibration.Linear {
		t.Errorf("Templates()[0] = %+v", templates[0])
	}

	r, err := Registry(f)
	if err != nil {
		t.Fatalf("Registry() error = %v", err)
	}
	if _, err := r.Lookup("salinity"); err != nil {
		t.Errorf("Lookup(salinity) error = %v", err)
	}
	if _, err := r.Lookup("ph"); err != nil {
		t.Errorf("Lookup(ph) error = %v", err)
	}
	if _, err := r.Lookup("nitrate"); !errors.Is(err, template.ErrUnknownTemplateKey) {
		t.Errorf("Lookup(nitrate) error = %v, want %v", err, template.ErrUnknownTemplateKey)
	}
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"malformed":       `{"maxIterations": `,
		"bad standard":    `{"templates": {"x": {"curve": "linear", "standards": [{"type": "fixed"}]}}}`,
		"short template":  `{"templates": {"x": {"curve": "exponential", "standards": [{"type": "fixed", "value": 1}]}}}`,
		"bad curve":       `{"templates": {"x": {"curve": "cubic", "standards": []}}}`,
		"zero iterations": `{"maxIterations": 0}`,
		"negative step":   `{"gradientStep": -1e-6}`,
		"damping scale":   `{"dampingScale": 0.5}`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".json")
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}
			if _, err := NewFile(path); err == nil {
				t.Errorf("NewFile() should fail for %s", content)
			}
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sensorcal.json")
	f := NewFileFromConfig(nil, path)

	sc := calibration.DefaultSolverConfig()
	sc.Tolerance = 1e-6
	sc.Damping = 0.5
	f.SetSolverConfig(sc)
	f.SetTemplate(template.Template{
		Key:   "DO",
		Kind:  102,
		Curve: calibration.Linear,
		Standards: []calibration.Standard{
			calibration.FixedStandard(0),
			calibration.DefaultStandard(8.26),
		},
	})

	if err := f.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reloaded, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	if got := reloaded.SolverConfig(); got != sc {
		t.Errorf("SolverConfig() = %+v, want %+v", got, sc)
	}
	templates := reloaded.Templates()
	if len(templates) != 1 || templates[0].Key != "do" || len(templates[0].Standards) != 2 {
		t.Fatalf("Templates() = %+v", templates)
	}
	if v, ok := templates[0].Standards[1].Value(); !ok || v != 8.26 {
		t.Errorf("standard 1 = %v, want default 8.26", templates[0].Standards[1])
	}

	raw, err := NewRawFileConfigFromConfig(reloaded)
	if err != nil {
		t.Fatalf("NewRawFileConfigFromConfig() error = %v", err)
	}
	if raw.Tolerance == nil || *raw.Tolerance != 1e-6 || len(raw.Templates) != 1 {
		t.Errorf("NewRawFileConfigFromConfig() = %+v", raw)
	}

	if fields := reloaded.LogrusFields(); fields["templates"] != 1 {
		t.Errorf("LogrusFields() = %v", fields)
	}
}

func TestSetSolverConfigPanicsOnInvalid(t *testing.T) {
	f := NewFileFromConfig(nil, filepath.Join(t.TempDir(), "x.json"))
	defer func() {
		if recover() == nil {
			t.Errorf("SetSolverConfig() with invalid config should panic")
		}
	}()
	sc := calibration.DefaultSolverConfig()
	sc.MaxIterations = 0
	f.SetSolverConfig(sc)
}
