package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v3"

	"traktsync/internal/formatter"
	"traktsync/internal/repositories"
	"traktsync/internal/shared"
	"traktsync/internal/tasks"
)

// Sync runs one full Trakt → Plex reconciliation pass.
//
// This is also the root command action: invoking the binary with no
// arguments performs exactly one pass and exits.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Validate(); err != nil {
		return err
	}
	if r.engine == nil {
		return fmt.Errorf("%w: sync engine not initialized", shared.ErrMissingCredentials)
	}

	r.logger.Info("starting sync",
		"movie_list", r.config.Trakt.MovieList,
		"show_list", r.config.Trakt.ShowList)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchList:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.MatchItem:
				r.writePlain("🔍 %s\n", update.Message)
			case tasks.Mutate:
				r.writePlain("➕ %s\n", update.Message)
			case tasks.Notify:
				r.writePlain("📣 %s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.Run(ctx, progressCh)

	// stop sharing the output writer with the progress goroutine before
	// anything else writes to it
	close(progressCh)
	<-drained

	if result != nil && !cmd.Bool("no-history") {
		if histErr := r.recordRun(result); histErr != nil {
			// history is bookkeeping, not part of the sync contract
			r.logger.Warn("failed to record run history", "error", histErr)
		}
	}

	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	r.writePlain("\n")
	r.writePlainHeader("Sync Complete")
	r.writePlain("%s", formatter.SummaryText(&result.Outcome))
	if result.Notified {
		r.writePlain("\nSummary sent to Telegram.\n")
	}

	return nil
}

// recordRun persists a finished run into the history database.
func (r *Runner) recordRun(result *tasks.SyncResult) error {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		return err
	}

	detail, err := json.Marshal(result.Outcome)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}

	repo := repositories.NewSyncRunRepository(db)
	return repo.Create(&repositories.SyncRun{
		ID:           result.RunID,
		StartedAt:    result.StartedAt,
		FinishedAt:   result.FinishedAt,
		AddedCount:   len(result.Outcome.Added),
		RemovedCount: len(result.Outcome.Removed),
		SkippedCount: len(result.Outcome.Skipped),
		Notified:     result.Notified,
		Detail:       string(detail),
	})
}

// History lists recorded sync runs, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.RunMigrations(db); err != nil {
		return err
	}

	repo := repositories.NewSyncRunRepository(db)
	runs, err := repo.List(int(limit))
	if err != nil {
		return err
	}

	if useJSON {
		return r.writeJSON(runs, true)
	}

	if len(runs) == 0 {
		return r.writePlain("No sync runs recorded yet.\n")
	}

	r.writePlain("Found %d run(s):\n\n", len(runs))
	for i, run := range runs {
		r.writePlain("%d. %s\n", i+1, run.StartedAt.Format("2006-01-02 15:04:05"))
		r.writePlain("   ID: %s\n", run.ID)
		r.writePlain("   Added: %d  Removed: %d  Skipped: %d\n", run.AddedCount, run.RemovedCount, run.SkippedCount)
		if run.Notified {
			r.writePlain("   Notified: yes\n")
		}
		r.writePlain("\n")
	}

	return nil
}
