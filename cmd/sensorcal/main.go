package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/charlie0129/sensorcal/pkg/calibration"
	"github.com/charlie0129/sensorcal/pkg/config"
	"github.com/charlie0129/sensorcal/pkg/template"
)

var (
	logLevel   = "info"
	configPath = defaultConfigPath()
	conf       config.Config
)

var (
	gCalibration  = "Calibration:"
	gTools        = "Tools:"
	commandGroups = []string{
		gCalibration,
		gTools,
	}
)

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "sensorcal.json"
	}
	return filepath.Join(dir, "sensorcal", "config.json")
}

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	return nil
}

func loadConfig() error {
	f, err := config.NewFile(configPath)
	if err != nil {
		return err
	}
	conf = f
	logrus.WithFields(conf.LogrusFields()).Debug("config loaded")
	return nil
}

func handleCmdError(w io.Writer, err error) {
	switch {
	case errors.Is(err, template.ErrUnknownTemplateKey):
		fmt.Fprintln(w, "\nError: no template for this sensor module")
		fmt.Fprintln(w, "  - Run 'sensorcal templates' to list the known modules")
		fmt.Fprintf(w, "  - Or add a template to %s\n", configPath)
	case errors.Is(err, calibration.ErrInsufficientData):
		fmt.Fprintln(w, "\nError: not enough calibration points")
		fmt.Fprintln(w, "  - Linear curves need 2 readings, exponential curves need 3")
	case errors.Is(err, calibration.ErrUnacceptableStandard):
		fmt.Fprintln(w, "\nError: a standard has no known value")
		fmt.Fprintln(w, "  - Pass the missing reference values with '--standards'")
	case errors.Is(err, calibration.ErrSingularFit):
		fmt.Fprintln(w, "\nError: all readings are identical")
		fmt.Fprintln(w, "  - Make sure the probe was moved between standard solutions")
	case errors.Is(err, calibration.ErrCoefficientArityMismatch):
		fmt.Fprintln(w, "\nError: wrong number of coefficients for this curve")
		fmt.Fprintln(w, "  - Linear curves take 2 coefficients, exponential curves take 3")
	case errors.Is(err, calibration.ErrNonConvergence), errors.Is(err, calibration.ErrNumericOverflow):
		fmt.Fprintln(w, "\nError: the exponential fit failed")
		fmt.Fprintln(w, "  - Check the readings, or tune the initial guess in the config file")
	}
}

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(os.Stderr, err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sensorcal",
		Short: "sensorcal computes and applies sensor calibration curves",
		Long: `sensorcal computes and applies sensor calibration curves.

It fits linear or exponential curves to readings taken against reference
standards, prints the coefficients, and writes them as length-delimited
protobuf records.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := setupLogger(); err != nil {
				return err
			}
			return loadConfig()
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&configPath, "config", configPath, "config file path")

	for _, i := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    i,
			Title: i,
		})
	}

	cmd.AddCommand(
		NewFitCommand(),
		NewCorrectCommand(),
		NewTemplatesCommand(),
		NewDecodeCommand(),
		NewConfigCommand(),
		NewVersionCommand(),
	)

	return cmd
}
