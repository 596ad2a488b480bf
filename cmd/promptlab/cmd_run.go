package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/spboyer/promptlab/internal/aggregate"
	"github.com/spboyer/promptlab/internal/config"
	"github.com/spboyer/promptlab/internal/dataset"
	"github.com/spboyer/promptlab/internal/driver"
	"github.com/spboyer/promptlab/internal/models"
	"github.com/spboyer/promptlab/internal/reporting"
	"github.com/spboyer/promptlab/internal/session"
	"github.com/spboyer/promptlab/internal/spinner"
	"github.com/spboyer/promptlab/internal/store"
	"github.com/spboyer/promptlab/internal/transcript"
)

var (
	outputPath    string
	storePath     string
	logPath       string
	transcriptDir string
	verbose       bool
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <eval.yaml>",
		Short: "Run an evaluation batch",
		Long: `Run an evaluation batch from a spec file.

The spec file defines the agents, dataset, generation mode, and rubric.
The dataset path is resolved relative to the spec file.`,
		Args: cobra.ExactArgs(1),
		RunE: runCommandE,
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output JSON file for the aggregated report")
	cmd.Flags().StringVar(&storePath, "store", "", "SQLite file for transcripts and results (default: in-memory)")
	cmd.Flags().StringVar(&logPath, "log", "", "Session log path (default: no session log)")
	cmd.Flags().StringVar(&transcriptDir, "transcript-dir", "", "Directory to save per-entry transcript JSON files")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output with per-entry progress")

	return cmd
}

func runCommandE(cmd *cobra.Command, args []string) error {
	specPath := args[0]

	spec, err := models.LoadEvalSpec(specPath)
	if err != nil {
		return fmt.Errorf("failed to load spec: %w", err)
	}

	specDir := filepath.Dir(specPath)
	if abs, err := filepath.Abs(specDir); err == nil {
		specDir = abs
	}

	cfg := config.NewEvalConfig(spec,
		config.WithSpecDir(specDir),
		config.WithStorePath(storePath),
		config.WithOutputPath(outputPath),
		config.WithLogPath(logPath),
		config.WithTranscriptDir(transcriptDir),
		config.WithVerbose(verbose),
	)

	datasetPath := spec.Dataset
	if !filepath.IsAbs(datasetPath) {
		datasetPath = filepath.Join(cfg.SpecDir(), datasetPath)
	}
	entries, err := dataset.Load(datasetPath)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	st, err := openStore(cfg.StorePath())
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	var sessionLog session.Logger = session.NopLogger{}
	if cfg.LogPath() != "" {
		jsonLog, err := session.NewJSONLogger(cfg.LogPath())
		if err != nil {
			return fmt.Errorf("failed to open session log: %w", err)
		}
		defer jsonLog.Close() //nolint:errcheck
		sessionLog = jsonLog
	}

	runner := driver.NewBatchRunner(spec,
		driver.WithStore(st),
		driver.WithSessionLogger(sessionLog),
	)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Running eval: %s\n", spec.Name)         //nolint:errcheck
	fmt.Fprintf(out, "Mode: %s\n", spec.Mode)                 //nolint:errcheck
	fmt.Fprintf(out, "Entries: %d\n\n", len(entries))         //nolint:errcheck

	var spin *spinner.Spinner
	if cfg.Verbose() {
		runner.OnProgress(func(event driver.ProgressEvent) {
			fmt.Fprintf(out, "[%d/%d] %s\n", event.CurrentIndex, event.Total, event.Description) //nolint:errcheck
		})
	} else {
		spin = spinner.Start(out, fmt.Sprintf("0/%d entries", len(entries)))
		runner.OnProgress(func(event driver.ProgressEvent) {
			spin.SetMessage(fmt.Sprintf("%d/%d entries (%.0f%%)", event.CurrentIndex, event.Total, event.PercentComplete))
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	outcome := runner.RunBatch(ctx, entries)
	if spin != nil {
		spin.Stop()
	}

	if !outcome.Success {
		return fmt.Errorf("eval failed: %s", outcome.Err)
	}

	if cfg.TranscriptDir() != "" {
		if err := saveTranscripts(ctx, cfg.TranscriptDir(), st); err != nil {
			return err
		}
		fmt.Fprintf(out, "Transcripts saved to: %s\n\n", cfg.TranscriptDir()) //nolint:errcheck
	}

	report := aggregate.Aggregate(outcome.Results, spec.Rubric)
	fmt.Fprint(out, reporting.RenderText(report)) //nolint:errcheck

	if cfg.OutputPath() != "" {
		if err := reporting.WriteJSON(cfg.OutputPath(), report); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		fmt.Fprintf(out, "\nReport saved to: %s\n", cfg.OutputPath()) //nolint:errcheck
	}

	if len(outcome.Failures) > 0 {
		fmt.Fprintln(out, "\nFailed entries:") //nolint:errcheck
		for _, failure := range outcome.Failures {
			fmt.Fprintf(out, "  - %s (%s): %s\n", failure.EntryID, failure.Stage, failure.Message) //nolint:errcheck
		}
		return &EntryFailureError{
			Message: fmt.Sprintf("eval completed with %d failed entr%s", len(outcome.Failures), pluralY(len(outcome.Failures))),
		}
	}

	return nil
}

// openStore returns a SQLite-backed store when a path is given, otherwise an
// in-memory store for the lifetime of the run.
func openStore(path string) (store.Store, error) {
	if path == "" {
		return store.NewMemoryStore(), nil
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, nil
}

func saveTranscripts(ctx context.Context, dir string, st store.Store) error {
	records, err := st.Transcripts().ToArray(ctx)
	if err != nil {
		return fmt.Errorf("failed to list transcripts: %w", err)
	}
	for i := range records {
		if _, err := transcript.Write(dir, &records[i]); err != nil {
			return fmt.Errorf("failed to write transcript %s: %w", records[i].ID, err)
		}
	}
	return nil
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
