package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"glucose-levels-backend/internal/ingest"
	"glucose-levels-backend/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import [dir]",
	Short: "Import per-user CSV exports into the database",
	Long: `Import every <user_id>.csv file found directly inside dir. Each file is
committed in its own transaction; a file that fails is rolled back and the
remaining files are still imported.

dir defaults to import.directory from the config file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, gormDB, err := bootstrap()
	if err != nil {
		return err
	}
	defer closeDB(gormDB)

	dir := cfg.Import.Directory
	if len(args) == 1 {
		dir = args[0]
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appStore := store.NewGormStore(gormDB, store.WithBatchSize(cfg.Import.BatchSize))
	summary, err := ingest.NewService(cfg.Import, appStore).ImportDirectory(ctx, dir)
	if err != nil {
		return fmt.Errorf("import %s: %w", dir, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d imported, %d failed, %d skipped, %d rows\n",
		summary.RunID, summary.FilesImported, summary.FilesFailed, summary.FilesSkipped, summary.RowsImported)
	for _, f := range summary.Failures {
		fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %v\n", f.File, f.Err)
	}

	if summary.Failed() {
		slog.Warn("import finished with failures", "run_id", summary.RunID, "failed", summary.FilesFailed)
		return fmt.Errorf("%d of %d files failed to import", summary.FilesFailed, summary.FilesSeen)
	}
	return nil
}
