// cmd/vizgl/inspect.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mmp/vizgl/capture"

	"github.com/spf13/cobra"
)

func (a *app) inspectCommand() *cobra.Command {
	var records int
	cmd := &cobra.Command{
		Use:   "inspect [flags] file.cap",
		Short: "Summarize a capture and print its first records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := capture.ReadFile(args[0])
			if err != nil {
				return err
			}
			return printCapture(cmd.OutOrStdout(), f, records)
		},
	}
	cmd.Flags().IntVarP(&records, "records", "n", 4, "number of records to print from each run")
	return cmd
}

func printCapture(w io.Writer, f *capture.Frame, records int) error {
	fmt.Fprintf(w, "pipeline %s, captured %s, %d records\n", f.Pipeline, f.Time.Format(time.RFC3339), f.Records())

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tSTRATEGY\tRUN\tSTRIDE\tUNSELECTED\tSELECTED")
	for _, s := range f.Strategies {
		for _, r := range s.Runs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\n", s.Category, s.Name, r.Kind, r.Stride, r.Unselected, r.Selected)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, s := range f.Strategies {
		for _, r := range s.Runs {
			n := min(records, r.Len())
			if n == 0 {
				continue
			}
			fmt.Fprintf(w, "\n%s/%s %s:\n", s.Category, s.Name, r.Kind)
			for i := range n {
				var fields []string
				for _, v := range r.Record(i) {
					fields = append(fields, fmt.Sprintf("%g", v))
				}
				fmt.Fprintf(w, "  %4d: %s\n", i, strings.Join(fields, " "))
			}
		}
	}
	return nil
}
