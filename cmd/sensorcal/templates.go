package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/charlie0129/sensorcal/pkg/config"
)

func NewTemplatesCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "templates",
		Aliases: []string{"modules"},
		Short:   "List the sensor modules that can be calibrated",
		GroupID: gCalibration,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printTemplates(cmd.OutOrStdout())
		},
	}
}

func printTemplates(w io.Writer) error {
	registry, err := config.Registry(conf)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	for _, key := range registry.Keys() {
		t, err := registry.Lookup(key)
		if err != nil {
			return err
		}

		standards := make([]string, len(t.Standards))
		for i, s := range t.Standards {
			standards[i] = s.String()
		}

		fmt.Fprintf(w, "%s (kind %d, %s)\n", bold(t.Key), t.Kind, t.Curve)
		if t.Description != "" {
			fmt.Fprintf(w, "  %s\n", t.Description)
		}
		fmt.Fprintf(w, "  standards: %s\n", strings.Join(standards, ", "))
	}
	return nil
}
