package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/sensorcal/pkg/calibration"
	"github.com/charlie0129/sensorcal/pkg/config"
	"github.com/charlie0129/sensorcal/pkg/record"
	"github.com/charlie0129/sensorcal/pkg/template"
)

type fitOptions struct {
	readings  []string
	standards []string
	values    []string
	output    string
	json      bool
}

func NewFitCommand() *cobra.Command {
	o := &fitOptions{}

	cmd := &cobra.Command{
		Use:   "fit <module>",
		Short: "Fit a calibration curve for a sensor module",
		Long: `Fit a calibration curve for a sensor module.

Readings are matched to the module's standards in order, so the first reading
is taken in the first standard solution, and so on. Standards without a known
value, and defaults you want to override, are set with --standards.`,
		Example: `  sensorcal fit ph --readings 1.0,2.0,3.0
  sensorcal fit orp --readings 0.01,0.23,0.47 --standards 0,225,475 --output orp.bin`,
		GroupID: gCalibration,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd.OutOrStdout(), args[0])
		},
	}

	f := cmd.Flags()
	f.StringSliceVarP(&o.readings, "readings", "r", nil, "raw sensor readings, one per standard, in order")
	f.StringSliceVarP(&o.standards, "standards", "s", nil, "reference values replacing the template's leading standards")
	f.StringSliceVar(&o.values, "values", nil, "already calibrated values shown by the sensor, one per reading")
	f.StringVarP(&o.output, "output", "o", "", "append the result as a length-delimited record to this file")
	f.BoolVar(&o.json, "json", false, "print the record as JSON")

	_ = cmd.MarkFlagRequired("readings")

	return cmd
}

func (o *fitOptions) run(w io.Writer, module string) error {
	registry, err := config.Registry(conf)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	tpl, err := registry.Lookup(module)
	if err != nil {
		return err
	}

	readings, err := parseFloats(o.readings, "reading")
	if err != nil {
		return err
	}
	standards, err := parseFloats(o.standards, "standard")
	if err != nil {
		return err
	}
	values, err := parseFloats(o.values, "value")
	if err != nil {
		return err
	}

	if len(standards) > 0 {
		tpl, err = tpl.WithStandards(standards)
		if err != nil {
			return err
		}
	}
	if len(readings) > len(tpl.Standards) {
		return fmt.Errorf("module %s has %d standards, got %d readings", tpl.Key, len(tpl.Standards), len(readings))
	}
	if len(values) > 0 && len(values) != len(readings) {
		return fmt.Errorf("got %d values for %d readings", len(values), len(readings))
	}

	snap, err := fitTemplate(tpl, readings, values, conf.SolverConfig())
	if err != nil {
		return fmt.Errorf("failed to fit %s: %w", tpl.Key, err)
	}

	rec := record.New(tpl.Kind, snap, time.Now())
	if o.output != "" {
		if err := record.AppendFile(o.output, rec); err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{
			"module": tpl.Key,
			"output": o.output,
		}).Info("record written")
	}

	if o.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}

	printFit(w, tpl, snap)
	return nil
}

func fitTemplate(tpl template.Template, readings, values []float64, sc calibration.SolverConfig) (*calibration.Snapshot, error) {
	session := tpl.NewSession(calibration.WithSolverConfig(sc))
	for i, r := range readings {
		reading := calibration.SensorReading{Uncalibrated: r}
		if len(values) > 0 {
			reading.Value = values[i]
		}
		session.Append(calibration.NewPoint(tpl.Standards[i], reading))
	}

	logrus.WithFields(logrus.Fields{
		"module":  tpl.Key,
		"session": session.ID().String(),
		"curve":   session.CurveType().String(),
		"points":  session.Len(),
	}).Debug("fitting")

	return session.Snapshot()
}

func printFit(w io.Writer, tpl template.Template, snap *calibration.Snapshot) {
	fmt.Fprintf(w, "Module: %s (kind %d)\n", bold(tpl.Key), tpl.Kind)
	switch snap.CurveType {
	case calibration.Linear:
		fmt.Fprintf(w, "Curve: %s  y = b + m*x\n", bold(snap.CurveType.String()))
	case calibration.Exponential:
		fmt.Fprintf(w, "Curve: %s  y = p0 + p1*exp(p2*x)\n", bold(snap.CurveType.String()))
	}
	fmt.Fprintln(w, "Points:")
	for i, p := range snap.Points {
		fmt.Fprintf(w, "  %d. %-14s raw %g\n", i+1, p.Standard, p.Reading.Uncalibrated)
	}
	fmt.Fprintf(w, "Coefficients: %s\n", bold(formatCoefficients(snap.Coefficients)))
}
