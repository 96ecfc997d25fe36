// package tasks implements the Trakt to Plex reconciliation engine.
//
// The core abstraction is SyncEngine, which walks the configured lists
// one item at a time, resolves each title against the Plex library, and
// performs the add-then-remove transition. Operations emit progress
// updates via channels for non-blocking status reporting to the CLI.
package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"traktsync/internal/formatter"
	"traktsync/internal/models"
	"traktsync/internal/services"
	"traktsync/internal/shared"
)

// Category binds one media kind to its source list and target playlist.
type Category struct {
	Kind     string // models.KindMovie or models.KindShow
	List     string // Trakt list name
	Playlist string // Plex playlist name
}

// CategoryResult summarizes one category of a run.
type CategoryResult struct {
	Category
	Total   int // items on the Trakt list
	Added   int // items added to the Plex playlist
	Skipped int // items left on the list for the next run
}

// SyncResult contains all data from a full sync run.
type SyncResult struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Categories []CategoryResult
	Outcome    models.SyncOutcome
	Notified   bool
}

// SyncEngine defines the single reconciliation operation.
type SyncEngine interface {
	// Run performs one full sync pass: movies first, then shows, each
	// item strictly in list order. Never concurrent.
	Run(ctx context.Context, progress chan<- ProgressUpdate) (*SyncResult, error)
}

// ListEngine implements [SyncEngine] on top of the service clients.
//
// The notifier may be nil, in which case the summary step is skipped.
type ListEngine struct {
	watchlist  services.WatchlistClient
	library    services.LibraryClient
	notifier   services.Notifier
	categories []Category
	logger     *log.Logger
	now        func() time.Time
}

// NewListEngine creates an engine for the two fixed categories derived
// from configuration: the movie list feeding the movie playlist, then
// the show list feeding the show playlist.
func NewListEngine(watchlist services.WatchlistClient, library services.LibraryClient, notifier services.Notifier, cfg *shared.Config, logger *log.Logger) *ListEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &ListEngine{
		watchlist: watchlist,
		library:   library,
		notifier:  notifier,
		categories: []Category{
			{Kind: models.KindMovie, List: cfg.Trakt.MovieList, Playlist: cfg.Plex.MoviePlaylist},
			{Kind: models.KindShow, List: cfg.Trakt.ShowList, Playlist: cfg.Plex.ShowPlaylist},
		},
		logger: logger,
		now:    time.Now,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *ListEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run performs one full sync pass.
//
// Mutations are ordered add-first, remove-after so a failure at any
// point leaves cross-system state consistent: an item is only ever
// removed from Trakt once it is known to be on the Plex playlist.
func (e *ListEngine) Run(ctx context.Context, progress chan<- ProgressUpdate) (*SyncResult, error) {
	result := &SyncResult{
		RunID:     shared.GenerateID(),
		StartedAt: e.now(),
	}

	for _, category := range e.categories {
		cr, err := e.runCategory(ctx, category, &result.Outcome, progress)
		if err != nil {
			result.FinishedAt = e.now()
			return result, err
		}
		result.Categories = append(result.Categories, cr)
	}

	if e.notifier != nil && !result.Outcome.Empty() {
		e.sendProgress(progress, notifyUpdate())
		message := formatter.SummaryHTML(&result.Outcome)
		if err := e.notifier.Notify(ctx, message); err != nil {
			// best effort only, never fails the run
			e.logger.Warn("notification failed", "error", err)
		} else {
			result.Notified = true
		}
	}

	result.FinishedAt = e.now()
	return result, nil
}

// runCategory processes one list sequentially, in server list order.
func (e *ListEngine) runCategory(ctx context.Context, category Category, outcome *models.SyncOutcome, progress chan<- ProgressUpdate) (CategoryResult, error) {
	cr := CategoryResult{Category: category}

	e.sendProgress(progress, fetchListUpdate(category))
	items, err := e.watchlist.ListItems(ctx, category.List, category.Kind)
	if err != nil {
		return cr, err
	}

	cr.Total = len(items)
	e.logger.Info("fetched list", "list", category.List, "kind", category.Kind, "items", len(items))
	if len(items) == 0 {
		return cr, nil
	}

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return cr, err
		}

		e.sendProgress(progress, matchItemUpdate(i+1, len(items), item.Title))

		ratingKey, err := e.resolveRatingKey(ctx, item)
		if err != nil {
			if !errors.Is(err, shared.ErrNoMatch) {
				e.logger.Warn("library lookup failed", "title", item.Title, "error", err)
			} else {
				e.logger.Info("no library match", "kind", item.Kind, "title", item.Title)
			}
			cr.Skipped++
			outcome.Skipped = append(outcome.Skipped, item.Title)
			continue
		}

		e.sendProgress(progress, mutateUpdate(i+1, len(items), item.Title))

		added, err := e.library.AddToPlaylist(ctx, category.Playlist, ratingKey)
		if err != nil || !added {
			if err != nil {
				e.logger.Warn("playlist mutation failed", "title", item.Title, "error", err)
			}
			cr.Skipped++
			outcome.Skipped = append(outcome.Skipped, item.Title)
			continue
		}

		cr.Added++
		outcome.Added = append(outcome.Added, item.Title)

		if err := e.watchlist.RemoveItem(ctx, category.List, item); err != nil {
			// the add succeeded; a failed removal just means the item is
			// retried next run, at which point the playlist add is a no-op
			e.logger.Warn("list removal failed", "title", item.Title, "error", err)
			continue
		}
		outcome.Removed = append(outcome.Removed, item.Title)
	}

	return cr, nil
}

// resolveRatingKey maps a list item to the Plex rating key the playlist
// mutation should target: the first search hit for movies, season 1
// episode 1 for shows.
func (e *ListEngine) resolveRatingKey(ctx context.Context, item models.ListItem) (string, error) {
	if item.Kind == models.KindMovie {
		matches, err := e.library.SearchMovies(ctx, item.Title)
		if err != nil {
			return "", err
		}
		if len(matches) == 0 {
			return "", shared.ErrNoMatch
		}
		return matches[0].RatingKey, nil
	}

	showKey, err := e.library.FindShow(ctx, item.Title)
	if err != nil {
		return "", err
	}
	return e.library.FirstEpisode(ctx, showKey)
}
