package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/YatinSharma37/Anuvadika/internal/logging"
	"github.com/YatinSharma37/Anuvadika/internal/runstore"
	"github.com/YatinSharma37/Anuvadika/internal/staging"
)

// staleScratchAge is how old an orphaned scratch directory must be before a
// new run reclaims it.
const staleScratchAge = 24 * time.Hour

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove scratch directories left behind by interrupted runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.openStore(cmd.Context())
			if err != nil {
				return err
			}
			active, err := store.ActiveIDs(cmd.Context())
			if err != nil {
				return err
			}

			// With no live runner every scratch directory is an orphan.
			lock := flock.New(cfg.RunnerLockPath())
			if locked, lockErr := lock.TryLock(); lockErr == nil && locked {
				defer lock.Unlock()
				if !cmd.Flags().Changed("older-than") {
					olderThan = 0
				}
			}

			dirs, err := staging.ListDirectories(cfg.Paths.StagingDir)
			if err != nil {
				return err
			}
			candidates := staging.Candidates(dirs, active, olderThan, time.Now())
			out := cmd.OutOrStdout()
			if len(candidates) == 0 {
				fmt.Fprintln(out, "No scratch directories to remove")
				return nil
			}

			if dryRun {
				rows := make([][]string, 0, len(candidates))
				var total int64
				for _, dir := range candidates {
					rows = append(rows, []string{dir.Name, formatAge(dir.ModTime), humanize.Bytes(uint64(dir.Size))})
					total += dir.Size
				}
				fmt.Fprintln(out, renderTable([]string{"Run", "Modified", "Size"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight}))
				fmt.Fprintf(out, "Would remove %d directories (%s)\n", len(candidates), humanize.Bytes(uint64(total)))
				return nil
			}

			logger, err := ctx.newLogger(false)
			if err != nil {
				return err
			}
			result := staging.Remove(cmd.Context(), candidates, logger)
			fmt.Fprintf(out, "Removed %d directories (%s)\n", len(result.Removed), humanize.Bytes(uint64(result.ReclaimedBytes)))
			for _, failure := range result.Errors {
				fmt.Fprintf(out, "  failed: %s: %v\n", failure.Path, failure.Error)
			}
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d scratch directories could not be removed", len(result.Errors))
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", staleScratchAge, "Only remove directories older than this while other runs are active")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List what would be removed without deleting")
	return cmd
}

// reclaimScratch removes stale scratch directories before a run starts.
// Failures are logged and never block the run.
func reclaimScratch(ctx context.Context, stagingDir string, store *runstore.Store, maxAge time.Duration, logger *slog.Logger) {
	active, err := store.ActiveIDs(ctx)
	if err != nil {
		logger.Warn("skipping scratch cleanup",
			logging.Error(err),
			logging.String(logging.FieldEventType, "staging_cleanup_skipped"),
			logging.String(logging.FieldImpact, "stale scratch directories kept"),
		)
		return
	}
	result, err := staging.CleanStale(ctx, stagingDir, active, maxAge, logger)
	if err != nil {
		logger.Warn("scratch cleanup failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "staging_cleanup_failed"),
			logging.String(logging.FieldImpact, "stale scratch directories kept"),
		)
		return
	}
	if len(result.Removed) > 0 {
		logger.Debug("reclaimed scratch space",
			logging.Int("directories", len(result.Removed)),
			logging.Int64("bytes", result.ReclaimedBytes),
		)
	}
}
