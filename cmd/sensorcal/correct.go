package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/charlie0129/sensorcal/pkg/calibration"
	"github.com/charlie0129/sensorcal/pkg/record"
)

type correctOptions struct {
	curve        string
	coefficients []string
	recordPath   string
}

func NewCorrectCommand() *cobra.Command {
	o := &correctOptions{}

	cmd := &cobra.Command{
		Use:   "correct <raw>...",
		Short: "Apply calibration coefficients to raw readings",
		Long: `Apply calibration coefficients to raw readings.

Coefficients come either from --curve and --coefficients, or from the last
record in a file written by 'sensorcal fit --output'.`,
		Example: `  sensorcal correct --curve linear --coefficients 1,3 1.0 2.5
  sensorcal correct --record ph.bin 1.7`,
		GroupID: gCalibration,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd.OutOrStdout(), args)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.curve, "curve", "linear", "curve type (linear, exponential)")
	f.StringSliceVarP(&o.coefficients, "coefficients", "c", nil, "coefficients as printed by fit")
	f.StringVar(&o.recordPath, "record", "", "read curve and coefficients from the last record in this file")

	return cmd
}

func (o *correctOptions) corrector() (calibration.Corrector, error) {
	if o.recordPath != "" {
		records, err := record.ReadFile(o.recordPath)
		if err != nil {
			return calibration.Corrector{}, err
		}
		if len(records) == 0 {
			return calibration.Corrector{}, fmt.Errorf("no records in %s", o.recordPath)
		}
		return records[len(records)-1].Corrector()
	}

	curve, err := calibration.ParseCurveType(o.curve)
	if err != nil {
		return calibration.Corrector{}, err
	}
	coefficients, err := parseFloats(o.coefficients, "coefficient")
	if err != nil {
		return calibration.Corrector{}, err
	}
	return calibration.NewFittedCorrector(curve, coefficients)
}

func (o *correctOptions) run(w io.Writer, args []string) error {
	c, err := o.corrector()
	if err != nil {
		return err
	}

	raws, err := parseFloats(args, "raw reading")
	if err != nil {
		return err
	}

	for _, raw := range raws {
		v, err := c.Correct(raw)
		if err != nil {
			return fmt.Errorf("failed to correct %g: %w", raw, err)
		}
		fmt.Fprintf(w, "%g\t%s\n", raw, bold("%.6g", v))
	}
	return nil
}
