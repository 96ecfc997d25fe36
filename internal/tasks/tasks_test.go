package tasks

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"traktsync/internal/models"
	"traktsync/internal/shared"
	mocks "traktsync/internal/testing"
)

func testConfig() *shared.Config {
	cfg := shared.DefaultConfig()
	cfg.Trakt.MovieList = "films"
	cfg.Trakt.ShowList = "series"
	cfg.Plex.MoviePlaylist = "Trakt Movies"
	cfg.Plex.ShowPlaylist = "Trakt Shows"
	return cfg
}

func newTestEngine(watchlist *mocks.MockWatchlist, library *mocks.MockLibrary, notifier *mocks.MockNotifier) *ListEngine {
	// the interface values must stay nil when no mock is supplied
	engine := NewListEngine(watchlist, library, nil, testConfig(), shared.NewLogger(io.Discard))
	if notifier != nil {
		engine.notifier = notifier
	}
	return engine
}

func TestListEngine(t *testing.T) {
	t.Run("matched movie is added then removed", func(t *testing.T) {
		watchlist := &mocks.MockWatchlist{
			Items: map[string][]models.ListItem{
				models.KindMovie: {{Kind: models.KindMovie, Title: "Dune (2021)", IDs: map[string]any{"trakt": float64(1)}}},
			},
		}
		library := &mocks.MockLibrary{
			Movies:    map[string][]models.MovieMatch{"Dune (2021)": {{Title: "Dune", RatingKey: "100"}}},
			Playlists: map[string]bool{"Trakt Movies": true, "Trakt Shows": true},
		}

		engine := newTestEngine(watchlist, library, nil)
		result, err := engine.Run(context.Background(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(result.Outcome.Added) != 1 || result.Outcome.Added[0] != "Dune (2021)" {
			t.Errorf("expected Dune added, got %v", result.Outcome.Added)
		}
		if len(result.Outcome.Removed) != 1 || result.Outcome.Removed[0] != "Dune (2021)" {
			t.Errorf("expected Dune removed, got %v", result.Outcome.Removed)
		}
		if len(library.Added) != 1 || library.Added[0] != "100" {
			t.Errorf("expected rating key 100 added, got %v", library.Added)
		}
		if result.RunID == "" {
			t.Error("expected a run id")
		}
	})

	t.Run("unmatched item is skipped without mutation", func(t *testing.T) {
		watchlist := &mocks.MockWatchlist{
			Items: map[string][]models.ListItem{
				models.KindMovie: {{Kind: models.KindMovie, Title: "Obscure Film"}},
				models.KindShow:  {{Kind: models.KindShow, Title: "Obscure Show"}},
			},
		}
		library := &mocks.MockLibrary{
			Playlists: map[string]bool{"Trakt Movies": true, "Trakt Shows": true},
		}

		// absent entries surface the sentinel, same as the real client
		if _, err := library.FindShow(context.Background(), "Obscure Show"); !errors.Is(err, shared.ErrNoMatch) {
			t.Fatalf("expected ErrNoMatch for an absent show, got %v", err)
		}

		engine := newTestEngine(watchlist, library, nil)
		result, err := engine.Run(context.Background(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !result.Outcome.Empty() {
			t.Errorf("expected empty outcome, got %+v", result.Outcome)
		}
		if len(result.Outcome.Skipped) != 2 {
			t.Errorf("expected 2 skipped, got %v", result.Outcome.Skipped)
		}
		if len(watchlist.Removed) != 0 {
			t.Errorf("expected no removals, got %v", watchlist.Removed)
		}
	})

	t.Run("failed playlist add never removes from the list", func(t *testing.T) {
		watchlist := &mocks.MockWatchlist{
			Items: map[string][]models.ListItem{
				models.KindMovie: {{Kind: models.KindMovie, Title: "Dune (2021)"}},
			},
		}
		library := &mocks.MockLibrary{
			Movies:    map[string][]models.MovieMatch{"Dune (2021)": {{RatingKey: "100"}}},
			Playlists: map[string]bool{"Trakt Movies": true},
			AddErr:    errors.New("server unavailable"),
		}

		engine := newTestEngine(watchlist, library, nil)
		result, err := engine.Run(context.Background(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(watchlist.Removed) != 0 {
			t.Errorf("expected no removals after a failed add, got %v", watchlist.Removed)
		}
		if len(result.Outcome.Skipped) != 1 {
			t.Errorf("expected item skipped, got %+v", result.Outcome)
		}
	})

	t.Run("missing playlist skips without error", func(t *testing.T) {
		watchlist := &mocks.MockWatchlist{
			Items: map[string][]models.ListItem{
				models.KindMovie: {{Kind: models.KindMovie, Title: "Dune (2021)"}},
			},
		}
		library := &mocks.MockLibrary{
			Movies:    map[string][]models.MovieMatch{"Dune (2021)": {{RatingKey: "100"}}},
			Playlists: map[string]bool{}, // no playlists exist
		}

		engine := newTestEngine(watchlist, library, nil)
		result, err := engine.Run(context.Background(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(result.Outcome.Skipped) != 1 {
			t.Errorf("expected item skipped, got %+v", result.Outcome)
		}
	})

	t.Run("failed removal keeps the add", func(t *testing.T) {
		watchlist := &mocks.MockWatchlist{
			Items: map[string][]models.ListItem{
				models.KindMovie: {{Kind: models.KindMovie, Title: "Dune (2021)"}},
			},
			RemoveErr: shared.ErrRateLimited,
		}
		library := &mocks.MockLibrary{
			Movies:    map[string][]models.MovieMatch{"Dune (2021)": {{RatingKey: "100"}}},
			Playlists: map[string]bool{"Trakt Movies": true},
		}

		engine := newTestEngine(watchlist, library, nil)
		result, err := engine.Run(context.Background(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(result.Outcome.Added) != 1 {
			t.Errorf("expected add to stand, got %v", result.Outcome.Added)
		}
		if len(result.Outcome.Removed) != 0 {
			t.Errorf("expected no removal recorded, got %v", result.Outcome.Removed)
		}
	})

	t.Run("show resolves through first episode", func(t *testing.T) {
		watchlist := &mocks.MockWatchlist{
			Items: map[string][]models.ListItem{
				models.KindShow: {{Kind: models.KindShow, Title: "The Expanse"}},
			},
		}
		library := &mocks.MockLibrary{
			Shows:     map[string]string{"The Expanse": "200"},
			Episodes:  map[string]string{"200": "211"},
			Playlists: map[string]bool{"Trakt Shows": true},
		}

		engine := newTestEngine(watchlist, library, nil)
		result, err := engine.Run(context.Background(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(library.Added) != 1 || library.Added[0] != "211" {
			t.Errorf("expected first episode key 211 added, got %v", library.Added)
		}
		if len(result.Outcome.Added) != 1 || result.Outcome.Added[0] != "The Expanse" {
			t.Errorf("expected The Expanse added, got %v", result.Outcome.Added)
		}
	})

	t.Run("movies are processed before shows", func(t *testing.T) {
		watchlist := &mocks.MockWatchlist{
			Items: map[string][]models.ListItem{
				models.KindMovie: {{Kind: models.KindMovie, Title: "Dune (2021)"}},
				models.KindShow:  {{Kind: models.KindShow, Title: "The Expanse"}},
			},
		}
		library := &mocks.MockLibrary{
			Movies:    map[string][]models.MovieMatch{"Dune (2021)": {{RatingKey: "100"}}},
			Shows:     map[string]string{"The Expanse": "200"},
			Episodes:  map[string]string{"200": "211"},
			Playlists: map[string]bool{"Trakt Movies": true, "Trakt Shows": true},
		}

		engine := newTestEngine(watchlist, library, nil)
		result, err := engine.Run(context.Background(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(result.Categories) != 2 {
			t.Fatalf("expected 2 categories, got %d", len(result.Categories))
		}
		if result.Categories[0].Kind != models.KindMovie || result.Categories[1].Kind != models.KindShow {
			t.Errorf("expected movie category first, got %v", result.Categories)
		}
		if len(library.Added) != 2 || library.Added[0] != "100" || library.Added[1] != "211" {
			t.Errorf("expected movie added before show, got %v", library.Added)
		}
	})

	t.Run("single combined notification", func(t *testing.T) {
		watchlist := &mocks.MockWatchlist{
			Items: map[string][]models.ListItem{
				models.KindMovie: {{Kind: models.KindMovie, Title: "Dune (2021)"}},
				models.KindShow:  {{Kind: models.KindShow, Title: "The Expanse"}},
			},
		}
		library := &mocks.MockLibrary{
			Movies:    map[string][]models.MovieMatch{"Dune (2021)": {{RatingKey: "100"}}},
			Shows:     map[string]string{"The Expanse": "200"},
			Episodes:  map[string]string{"200": "211"},
			Playlists: map[string]bool{"Trakt Movies": true, "Trakt Shows": true},
		}
		notifier := &mocks.MockNotifier{}

		engine := newTestEngine(watchlist, library, notifier)
		result, err := engine.Run(context.Background(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(notifier.Messages) != 1 {
			t.Fatalf("expected one notification, got %d", len(notifier.Messages))
		}
		if !strings.Contains(notifier.Messages[0], "Dune (2021)") || !strings.Contains(notifier.Messages[0], "The Expanse") {
			t.Errorf("expected both titles in the summary, got %s", notifier.Messages[0])
		}
		if !result.Notified {
			t.Error("expected result marked notified")
		}
	})

	t.Run("no notification when nothing changed", func(t *testing.T) {
		watchlist := &mocks.MockWatchlist{Items: map[string][]models.ListItem{}}
		library := &mocks.MockLibrary{}
		notifier := &mocks.MockNotifier{}

		engine := newTestEngine(watchlist, library, notifier)
		result, err := engine.Run(context.Background(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(notifier.Messages) != 0 {
			t.Errorf("expected no notification, got %v", notifier.Messages)
		}
		if result.Notified {
			t.Error("expected result not notified")
		}
	})

	t.Run("notification failure does not fail the run", func(t *testing.T) {
		watchlist := &mocks.MockWatchlist{
			Items: map[string][]models.ListItem{
				models.KindMovie: {{Kind: models.KindMovie, Title: "Dune (2021)"}},
			},
		}
		library := &mocks.MockLibrary{
			Movies:    map[string][]models.MovieMatch{"Dune (2021)": {{RatingKey: "100"}}},
			Playlists: map[string]bool{"Trakt Movies": true},
		}
		notifier := &mocks.MockNotifier{Err: errors.New("telegram unavailable")}

		engine := newTestEngine(watchlist, library, notifier)
		result, err := engine.Run(context.Background(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Notified {
			t.Error("expected result not notified after failure")
		}
		if len(result.Outcome.Added) != 1 {
			t.Errorf("expected sync outcome to stand, got %+v", result.Outcome)
		}
	})

	t.Run("list error aborts the run", func(t *testing.T) {
		watchlist := &mocks.MockWatchlist{ListErr: shared.ErrMissingToken}
		library := &mocks.MockLibrary{}

		engine := newTestEngine(watchlist, library, nil)
		if _, err := engine.Run(context.Background(), nil); !errors.Is(err, shared.ErrMissingToken) {
			t.Errorf("expected ErrMissingToken, got %v", err)
		}
	})

	t.Run("cancelled context stops processing", func(t *testing.T) {
		watchlist := &mocks.MockWatchlist{
			Items: map[string][]models.ListItem{
				models.KindMovie: {{Kind: models.KindMovie, Title: "Dune (2021)"}},
			},
		}
		library := &mocks.MockLibrary{
			Movies:    map[string][]models.MovieMatch{"Dune (2021)": {{RatingKey: "100"}}},
			Playlists: map[string]bool{"Trakt Movies": true},
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		engine := newTestEngine(watchlist, library, nil)
		if _, err := engine.Run(ctx, nil); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if len(library.Added) != 0 {
			t.Errorf("expected no mutation after cancellation, got %v", library.Added)
		}
	})

	t.Run("progress updates do not block", func(t *testing.T) {
		watchlist := &mocks.MockWatchlist{
			Items: map[string][]models.ListItem{
				models.KindMovie: {{Kind: models.KindMovie, Title: "Dune (2021)"}},
			},
		}
		library := &mocks.MockLibrary{
			Movies:    map[string][]models.MovieMatch{"Dune (2021)": {{RatingKey: "100"}}},
			Playlists: map[string]bool{"Trakt Movies": true},
		}

		// unbuffered channel with no reader; sends must be dropped
		progress := make(chan ProgressUpdate)
		engine := newTestEngine(watchlist, library, nil)
		if _, err := engine.Run(context.Background(), progress); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})
}
