package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/charlie0129/sensorcal/pkg/calibration"
	"github.com/charlie0129/sensorcal/pkg/record"
	"github.com/charlie0129/sensorcal/pkg/template"
)

func execute(t *testing.T, configFile string, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true

	var out bytes.Buffer
	cmd := NewCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", configFile, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestFitWriteDecodeCorrect(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.json")
	out := filepath.Join(dir, "ph.bin")

	stdout, err := execute(t, cfg, "fit", "ph", "--readings", "1.0,2.0,3.0", "--output", out)
	if err != nil {
		t.Fatalf("fit failed: %v\n%s", err, stdout)
	}
	if !strings.Contains(stdout, "Coefficients: [1, 3]") {
		t.Errorf("fit output = %q, want coefficients [1, 3]", stdout)
	}

	records, err := record.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(records) != 1 || records[0].Kind != template.KindPH || records[0].CurveType != calibration.Linear {
		t.Fatalf("records = %+v", records)
	}

	stdout, err = execute(t, cfg, "decode", out)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !strings.Contains(stdout, "reference 7, raw 2") {
		t.Errorf("decode output = %q", stdout)
	}

	stdout, err = execute(t, cfg, "correct", "--record", out, "1.0")
	if err != nil {
		t.Fatalf("correct failed: %v", err)
	}
	if !strings.Contains(stdout, "1\t4") {
		t.Errorf("correct output = %q, want 4", stdout)
	}
}

func TestFitErrors(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.json")

	tests := []struct {
		name string
		args []string
		want error
	}{
		{
			name: "unknown module",
			args: []string{"fit", "salinity", "--readings", "1,2"},
			want: template.ErrUnknownTemplateKey,
		},
		{
			name: "one reading",
			args: []string{"fit", "ph", "--readings", "1"},
			want: calibration.ErrInsufficientData,
		},
		{
			name: "unknown standard",
			args: []string{"fit", "orp", "--readings", "0.01,0.2,0.5"},
			want: calibration.ErrUnacceptableStandard,
		},
		{
			name: "identical readings",
			args: []string{"fit", "ph", "--readings", "2,2,2"},
			want: calibration.ErrSingularFit,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, cfg, tt.args...); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := execute(t, cfg, "fit", "orp", "--readings", "0.01,0.2,0.5", "--standards", "0,225,475"); err != nil {
		t.Errorf("fit with filled standards failed: %v", err)
	}
	if _, err := execute(t, cfg, "fit", "ph", "--readings", "1,2,3,4"); err == nil {
		t.Errorf("fit with more readings than standards should fail")
	}
}

func TestCorrectCommand(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.json")

	stdout, err := execute(t, cfg, "correct", "--curve", "linear", "--coefficients", "1,3", "2")
	if err != nil {
		t.Fatalf("correct failed: %v", err)
	}
	if !strings.Contains(stdout, "2\t7") {
		t.Errorf("correct output = %q, want 7", stdout)
	}

	_, err = execute(t, cfg, "correct", "--curve", "exponential", "--coefficients", "1,3", "2")
	if !errors.Is(err, calibration.ErrCoefficientArityMismatch) {
		t.Errorf("error = %v, want %v", err, calibration.ErrCoefficientArityMismatch)
	}
}

func TestConfigInitAndTemplates(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "nested", "config.json")

	if _, err := execute(t, cfg, "config", "init"); err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	b, err := os.ReadFile(cfg)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(b), `"maxIterations": 100`) {
		t.Errorf("config file = %s", b)
	}

	stdout, err := execute(t, cfg, "templates")
	if err != nil {
		t.Fatalf("templates failed: %v", err)
	}
	for _, key := range []string{"ec", "orp", "ph", "turbidity"} {
		if !strings.Contains(stdout, key+" (kind") {
			t.Errorf("templates output missing %s: %q", key, stdout)
		}
	}
}

func TestConfigInitRejectsInvalidSolver(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.json")
	content := `{"maxIterations": 0}`
	if err := os.WriteFile(cfg, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	_, err := execute(t, cfg, "config", "init")
	if err == nil || !strings.Contains(err.Error(), "invalid solver config") {
		t.Fatalf("config init error = %v, want invalid solver config", err)
	}

	b, err := os.ReadFile(cfg)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(b) != content {
		t.Errorf("config file was rewritten: %s", b)
	}
}

func TestHandleCmdError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: template.ErrUnknownTemplateKey, want: "no template"},
		{err: calibration.ErrInsufficientData, want: "not enough calibration points"},
		{err: calibration.ErrUnacceptableStandard, want: "no known value"},
		{err: calibration.ErrSingularFit, want: "readings are identical"},
		{err: calibration.ErrCoefficientArityMismatch, want: "wrong number of coefficients"},
		{err: calibration.ErrNonConvergence, want: "exponential fit failed"},
		{err: calibration.ErrNumericOverflow, want: "exponential fit failed"},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			var out bytes.Buffer
			handleCmdError(&out, fmt.Errorf("failed to fit: %w", tt.err))
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("handleCmdError() = %q, want %q", out.String(), tt.want)
			}
		})
	}

	var out bytes.Buffer
	handleCmdError(&out, errors.New("something else"))
	if out.Len() != 0 {
		t.Errorf("handleCmdError() = %q, want no hint", out.String())
	}
}

func TestParseFloats(t *testing.T) {
	got, err := parseFloats([]string{"1, 2.5", "", "-3e2"}, "value")
	if err != nil {
		t.Fatalf("parseFloats() error = %v", err)
	}
	want := []float64{1, 2.5, -300}
	if len(got) != len(want) {
		t.Fatalf("parseFloats() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("parseFloats() = %v, want %v", got, want)
		}
	}

	if _, err := parseFloats([]string{"abc"}, "value"); err == nil {
		t.Errorf("parseFloats(abc) should fail")
	}
}
