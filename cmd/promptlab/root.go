package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "promptlab",
		Short: "Promptlab - workbench for evaluating LLM prompts",
		Long: `Promptlab is a command-line workbench for evaluating LLM prompts.

It runs datasets of test inputs against an assistant agent, optionally
simulating a multi-turn user, scores each transcript against a rubric with
a judge model, and aggregates the scores into a report.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newSimulateCommand())
	cmd.AddCommand(newReportCommand())
	cmd.AddCommand(newInitCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
