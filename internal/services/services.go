// package services defines clients for the external HTTP APIs
//
// Trakt (JSON), Plex (XML), Telegram (JSON)
package services

import (
	"context"

	"traktsync/internal/models"
)

// WatchlistClient defines the read/remove surface of a Trakt-style list
// service consumed by the sync engine.
type WatchlistClient interface {
	// ListItems fetches the entries of the named list for one media kind.
	// A non-200 response is a soft failure: the client returns an empty
	// slice and no error so one bad list never aborts a run.
	ListItems(ctx context.Context, list, kind string) ([]models.ListItem, error)

	// RemoveItem removes an entry from the named list, keyed by its
	// external ids. Rate limiting is retried with backoff internally;
	// any other failure is returned for the caller to log.
	RemoveItem(ctx context.Context, list string, item models.ListItem) error
}

// LibraryClient defines the Plex query and mutation surface.
type LibraryClient interface {
	// SearchMovies returns movie candidates in server order.
	SearchMovies(ctx context.Context, title string) ([]models.MovieMatch, error)

	// FindShow resolves a show's rating key using normalized title
	// comparison. Returns shared.ErrNoMatch when nothing fits.
	FindShow(ctx context.Context, title string) (string, error)

	// FirstEpisode resolves season 1 episode 1 of the given show.
	// Returns shared.ErrNoMatch when either index is absent.
	FirstEpisode(ctx context.Context, showKey string) (string, error)

	// MachineIdentifier returns the server's unique id, required to
	// build playable content URIs.
	MachineIdentifier(ctx context.Context) (string, error)

	// AddToPlaylist adds a rating key to the named playlist. Returns
	// false with no error when the playlist does not exist.
	AddToPlaylist(ctx context.Context, playlist, ratingKey string) (bool, error)
}

// Notifier delivers a best-effort run summary on a side channel.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}
