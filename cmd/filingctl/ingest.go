package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"filing-rag-api/internal/application/ingestion"
)

var (
	ingestWatch     bool
	ingestSource    string
	ingestCompleted string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Normalize, chunk, embed and store filings from the source directory",
	Long: `Processes every .json filing under the source directory. Filings that pass
validation are embedded chunk by chunk, stored in the vector store and moved
to the completed directory. With --watch the command keeps running and
re-ingests whenever new files appear.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "keep watching the source directory")
	ingestCmd.Flags().StringVar(&ingestSource, "source", "", "override ingestion.source_dir")
	ingestCmd.Flags().StringVar(&ingestCompleted, "completed", "", "override ingestion.completed_dir")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	source := cfg.Ingestion.SourceDir
	if ingestSource != "" {
		source = ingestSource
	}
	completed := cfg.Ingestion.CompletedDir
	if ingestCompleted != "" {
		completed = ingestCompleted
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if ingestWatch {
		w := ingestion.NewWatcher(components.Pipeline, source, completed, cfg.Ingestion.WatchDebounce, func(r *ingestion.Report) {
			printReport(cmd, r)
		})
		cmd.Printf("Watching %s (Ctrl+C to stop)\n", source)
		return w.Run(ctx)
	}

	report, err := components.Pipeline.Run(ctx, source, completed)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	printReport(cmd, report)
	return nil
}

func printReport(cmd *cobra.Command, r *ingestion.Report) {
	if r == nil {
		return
	}
	for _, f := range r.Failures {
		cmd.Printf("  skipped %s [%s]: %v\n", f.Path, f.Stage, f.Err)
	}
	cmd.Println(r.Summary())
}
