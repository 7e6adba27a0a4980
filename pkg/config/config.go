package config

import (
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/sensorcal/pkg/calibration"
	"github.com/charlie0129/sensorcal/pkg/template"
)

type Config interface {
	// SolverConfig returns the exponential solver settings, with defaults
	// filled in for anything the source leaves unset.
	SolverConfig() calibration.SolverConfig
	// Templates returns the user-defined sensor templates.
	Templates() []template.Template

	SetSolverConfig(calibration.SolverConfig)
	SetTemplate(template.Template)

	LogrusFields() logrus.Fields

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error
}

// Registry returns the built-in templates overlaid with the ones from c.
func Registry(c Config) (*template.Registry, error) {
	r := template.Builtin()
	for _, t := range c.Templates() {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}
