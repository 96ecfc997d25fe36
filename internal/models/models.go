// package models defines the data model for the watchlist sync service
package models

import (
	"encoding/json"
	"time"
)

// Media kind constants matching Trakt's item type segments.
const (
	KindMovie = "movie"
	KindShow  = "show"
)

// ListItem represents a single entry on a Trakt list.
//
// IDs holds the external identifier namespaces Trakt knows about
// (trakt, slug, imdb, tmdb, tvdb) and is the identity used for removal.
type ListItem struct {
	Kind  string
	Title string
	IDs   map[string]any
	Raw   json.RawMessage // original payload, kept for diagnostics
}

// MovieMatch is a candidate returned by a Plex movie search.
//
// RatingKey is Plex's stable identifier used for all playlist mutations.
type MovieMatch struct {
	Title     string
	RatingKey string
}

// TokenRecord holds OAuth token material persisted between runs.
//
// CreatedAt + ExpiresIn defines the expiry instant; the record counts as
// stale sixty seconds before that to absorb clock skew and in-flight
// requests.
type TokenRecord struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	CreatedAt    int64  `json:"created_at"`
}

// staleMargin is the safety window subtracted from the expiry instant.
const staleMargin = 60 * time.Second

// ExpiresAt returns the instant the access token expires.
func (t *TokenRecord) ExpiresAt() time.Time {
	return time.Unix(t.CreatedAt+t.ExpiresIn, 0)
}

// Stale reports whether the token should be refreshed before use at the
// given instant.
func (t *TokenRecord) Stale(now time.Time) bool {
	return !now.Before(t.ExpiresAt().Add(-staleMargin))
}

// SyncOutcome accumulates per-run titles for the final summary.
//
// Added and Removed preserve processing order. Skipped holds titles that
// had no Plex match or whose playlist mutation failed; they remain on the
// Trakt list for the next run.
type SyncOutcome struct {
	Added   []string
	Removed []string
	Skipped []string
}

// Empty reports whether the run changed nothing.
func (o *SyncOutcome) Empty() bool {
	return len(o.Added) == 0 && len(o.Removed) == 0
}
