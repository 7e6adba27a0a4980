package config

import (
	"encoding/json"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/sensorcal/pkg/calibration"
	"github.com/charlie0129/sensorcal/pkg/template"
)

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = &RawFileConfig{}
	}

	f := &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}

	return f
}

// RawFileConfig is the on-disk form. Unset fields fall back to
// calibration.DefaultSolverConfig.
type RawFileConfig struct {
	InitialGuess  *[3]float64                  `json:"initialGuess,omitempty"`
	GradientStep  *float64                     `json:"gradientStep,omitempty"`
	MaxIterations *int                         `json:"maxIterations,omitempty"`
	Tolerance     *float64                     `json:"tolerance,omitempty"`
	Damping       *float64                     `json:"damping,omitempty"`
	DampingScale  *float64                     `json:"dampingScale,omitempty"`
	Templates     map[string]template.Template `json:"templates,omitempty"`
}

func NewRawFileConfigFromConfig(c Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	sc := c.SolverConfig()
	rawConfig := &RawFileConfig{
		InitialGuess:  &sc.InitialGuess,
		GradientStep:  &sc.GradientStep,
		MaxIterations: &sc.MaxIterations,
		Tolerance:     &sc.Tolerance,
		Damping:       &sc.Damping,
		DampingScale:  &sc.DampingScale,
	}

	for _, t := range c.Templates() {
		if rawConfig.Templates == nil {
			rawConfig.Templates = make(map[string]template.Template)
		}
		rawConfig.Templates[t.Key] = t
	}

	return rawConfig, nil
}

func (f *File) SolverConfig() calibration.SolverConfig {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return solverConfig(f.c)
}

// solverConfig merges c over calibration.DefaultSolverConfig.
func solverConfig(c *RawFileConfig) calibration.SolverConfig {
	sc := calibration.DefaultSolverConfig()

	if c.InitialGuess != nil {
		sc.InitialGuess = *c.InitialGuess
	}
	if c.GradientStep != nil {
		sc.GradientStep = *c.GradientStep
	}
	if c.MaxIterations != nil {
		sc.MaxIterations = *c.MaxIterations
	}
	if c.Tolerance != nil {
		sc.Tolerance = *c.Tolerance
	}
	if c.Damping != nil {
		sc.Damping = *c.Damping
	}
	if c.DampingScale != nil {
		sc.DampingScale = *c.DampingScale
	}

	return sc
}

func (f *File) Templates() []template.Template {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	keys := make([]string, 0, len(f.c.Templates))
	for k := range f.c.Templates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	templates := make([]template.Template, 0, len(keys))
	for _, k := range keys {
		t := f.c.Templates[k]
		// The map key wins so that templates can be written without a key.
		t.Key = templateKey(k)
		templates = append(templates, t)
	}

	return templates
}

func templateKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}

func (f *File) SetSolverConfig(sc calibration.SolverConfig) {
	if f.c == nil {
		panic("config is nil")
	}

	if err := sc.Validate(); err != nil {
		panic(err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.c.InitialGuess = &sc.InitialGuess
	f.c.GradientStep = &sc.GradientStep
	f.c.MaxIterations = &sc.MaxIterations
	f.c.Tolerance = &sc.Tolerance
	f.c.Damping = &sc.Damping
	f.c.DampingScale = &sc.DampingScale
}

func (f *File) SetTemplate(t template.Template) {
	if f.c == nil {
		panic("config is nil")
	}

	if err := t.Validate(); err != nil {
		panic(err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.c.Templates == nil {
		f.c.Templates = make(map[string]template.Template)
	}
	f.c.Templates[templateKey(t.Key)] = t
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// If the file does not exist, return the empty config.
			// Do not make f.c a nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	// Since we want to tell if the file is empty, using json.Decoder will
	// not work.
	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}

	if strings.TrimSpace(string(b)) == "" {
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	err = json.Unmarshal(b, &conf)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}

	for k, t := range conf.Templates {
		t.Key = k
		if err := t.Validate(); err != nil {
			return pkgerrors.Wrapf(err, "invalid template in file %s", f.filepath)
		}
	}

	if err := solverConfig(&conf).Validate(); err != nil {
		return pkgerrors.Wrapf(err, "invalid solver config in file %s", f.filepath)
	}

	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	enc := json.NewEncoder(fp)
	enc.SetIndent("", "  ")
	err = enc.Encode(f.c)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	if f.c == nil {
		panic("config is nil")
	}

	fields := f.SolverConfig().LogrusFields()
	fields["templates"] = len(f.Templates())
	fields["path"] = f.filepath

	return fields
}
