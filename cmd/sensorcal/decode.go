package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/charlie0129/sensorcal/pkg/record"
)

func NewDecodeCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "decode <file>",
		Short:   "Print the records in a file written by 'fit --output'",
		GroupID: gTools,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := record.ReadFile(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}
			printRecords(cmd.OutOrStdout(), records)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print records as JSON")

	return cmd
}

func printRecords(w io.Writer, records []*record.Record) {
	for i, r := range records {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "Record %d: kind %d, %s, %s\n", i, r.Kind, bold(r.CurveType.String()), r.Timestamp().UTC().Format(time.RFC3339))
		for j, p := range r.Points {
			ref := "unknown"
			if p.Reference != nil {
				ref = fmt.Sprintf("%g", *p.Reference)
			}
			fmt.Fprintf(w, "  %d. reference %s, raw %g, corrected %g\n", j+1, ref, p.Uncalibrated, p.Corrected)
		}
		fmt.Fprintf(w, "  coefficients: %s\n", bold(formatCoefficients(r.Coefficients)))
	}
}
