package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spboyer/promptlab/internal/aggregate"
	"github.com/spboyer/promptlab/internal/models"
	"github.com/spboyer/promptlab/internal/reporting"
	"github.com/spboyer/promptlab/internal/store"
)

func newReportCommand() *cobra.Command {
	var (
		reportStorePath  string
		reportOutputPath string
	)

	cmd := &cobra.Command{
		Use:   "report <eval.yaml>",
		Short: "Recompute the aggregated report from stored results",
		Long: `Recompute the aggregated report from results persisted by a previous
"run --store" invocation. The spec supplies the rubric used to interpret
each metric field.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := models.LoadEvalSpec(args[0])
			if err != nil {
				return fmt.Errorf("failed to load spec: %w", err)
			}

			st, err := store.Open(reportStorePath)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer st.Close() //nolint:errcheck

			results, err := st.Results().ToArray(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list results: %w", err)
			}

			report := aggregate.Aggregate(results, spec.Rubric)
			fmt.Fprint(cmd.OutOrStdout(), reporting.RenderText(report)) //nolint:errcheck

			if reportOutputPath != "" {
				if err := reporting.WriteJSON(reportOutputPath, report); err != nil {
					return fmt.Errorf("failed to save report: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\nReport saved to: %s\n", reportOutputPath) //nolint:errcheck
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&reportStorePath, "store", "", "SQLite file written by a previous run")
	cmd.Flags().StringVarP(&reportOutputPath, "output", "o", "", "Output JSON file for the aggregated report")
	cmd.MarkFlagRequired("store") //nolint:errcheck

	return cmd
}
