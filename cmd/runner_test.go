package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"

	"traktsync/internal/models"
	"traktsync/internal/shared"
	mocks "traktsync/internal/testing"
)

func testConfig(t *testing.T) *shared.Config {
	t.Helper()

	cfg := shared.DefaultConfig()
	cfg.Trakt.ClientID = "client-id"
	cfg.Trakt.ClientSecret = "client-secret"
	cfg.Trakt.Username = "alice"
	cfg.Trakt.MovieList = "films"
	cfg.Trakt.ShowList = "series"
	cfg.Plex.URL = "http://localhost:32400"
	cfg.Plex.Token = "plex-token"
	cfg.Plex.MoviePlaylist = "Trakt Movies"
	cfg.Plex.ShowPlaylist = "Trakt Shows"
	cfg.Database.Path = filepath.Join(t.TempDir(), "test.db")
	return cfg
}

// testApp builds the full CLI around a runner, mirroring main().
func testApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:     "traktsync",
		Commands: r.register(),
	}
}

func TestNewRunner(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		if runner.config == nil {
			t.Error("expected default config")
		}
		if runner.logger == nil {
			t.Error("expected default logger")
		}
		if runner.output == nil {
			t.Error("expected default output")
		}
		if runner.engine != nil {
			t.Error("expected no engine without clients")
		}
	})

	t.Run("builds engine when both clients are present", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{
			Config:    testConfig(t),
			Watchlist: &mocks.MockWatchlist{},
			Library:   &mocks.MockLibrary{},
		})
		if runner.engine == nil {
			t.Error("expected engine to be constructed")
		}
	})
}

func TestWriteHelpers(t *testing.T) {
	t.Run("writeJSON pretty", func(t *testing.T) {
		var buf bytes.Buffer
		runner := NewRunner(RunnerOpts{Output: &buf})

		if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(buf.String(), "\"key\": \"value\"") {
			t.Errorf("expected indented JSON, got %s", buf.String())
		}
		if !strings.HasSuffix(buf.String(), "\n") {
			t.Error("expected trailing newline")
		}
	})

	t.Run("writeJSON compact", func(t *testing.T) {
		var buf bytes.Buffer
		runner := NewRunner(RunnerOpts{Output: &buf})

		if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(buf.String(), `{"key":"value"}`) {
			t.Errorf("expected compact JSON, got %s", buf.String())
		}
	})

	t.Run("write failures are reported", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &mocks.FWriter{}})

		if err := runner.writeJSON("data", false); err == nil {
			t.Error("expected error from failing writer")
		}
		if err := runner.writePlain("text"); err == nil {
			t.Error("expected error from failing writer")
		}
	})
}

func TestSyncCommand(t *testing.T) {
	newMocks := func() (*mocks.MockWatchlist, *mocks.MockLibrary) {
		watchlist := &mocks.MockWatchlist{
			Items: map[string][]models.ListItem{
				models.KindMovie: {{Kind: models.KindMovie, Title: "Dune (2021)", IDs: map[string]any{"trakt": float64(1)}}},
			},
		}
		library := &mocks.MockLibrary{
			Movies:    map[string][]models.MovieMatch{"Dune (2021)": {{Title: "Dune", RatingKey: "100"}}},
			Playlists: map[string]bool{"Trakt Movies": true, "Trakt Shows": true},
		}
		return watchlist, library
	}

	t.Run("plain output summarizes the run", func(t *testing.T) {
		watchlist, library := newMocks()
		var buf bytes.Buffer
		runner := NewRunner(RunnerOpts{
			Config:    testConfig(t),
			Watchlist: watchlist,
			Library:   library,
			Output:    &buf,
		})

		err := testApp(runner).Run(context.Background(), []string{"traktsync", "sync", "run", "--no-history"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(buf.String(), "Sync Complete") {
			t.Errorf("expected completion header, got %s", buf.String())
		}
		if !strings.Contains(buf.String(), "Added: 1  Removed: 1  Skipped: 0") {
			t.Errorf("expected summary counts, got %s", buf.String())
		}
	})

	t.Run("json output contains the outcome", func(t *testing.T) {
		watchlist, library := newMocks()
		var buf bytes.Buffer
		runner := NewRunner(RunnerOpts{
			Config:    testConfig(t),
			Watchlist: watchlist,
			Library:   library,
			Output:    &buf,
		})

		err := testApp(runner).Run(context.Background(), []string{"traktsync", "sync", "run", "--no-history", "--json"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(buf.String(), "Dune (2021)") {
			t.Errorf("expected title in JSON output, got %s", buf.String())
		}
	})

	t.Run("recorded run shows up in history", func(t *testing.T) {
		watchlist, library := newMocks()
		var buf bytes.Buffer
		runner := NewRunner(RunnerOpts{
			Config:    testConfig(t),
			Watchlist: watchlist,
			Library:   library,
			Output:    &buf,
		})

		if err := testApp(runner).Run(context.Background(), []string{"traktsync", "sync", "run"}); err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		buf.Reset()
		if err := testApp(runner).Run(context.Background(), []string{"traktsync", "history"}); err != nil {
			t.Fatalf("history failed: %v", err)
		}
		if !strings.Contains(buf.String(), "Found 1 run(s):") {
			t.Errorf("expected one recorded run, got %s", buf.String())
		}
		if !strings.Contains(buf.String(), "Added: 1  Removed: 1  Skipped: 0") {
			t.Errorf("expected run counts, got %s", buf.String())
		}
	})

	t.Run("progress output finishes before the summary", func(t *testing.T) {
		watchlist, library := newMocks()
		var buf bytes.Buffer
		runner := NewRunner(RunnerOpts{
			Config:    testConfig(t),
			Watchlist: watchlist,
			Library:   library,
			Output:    &buf,
		})

		err := testApp(runner).Run(context.Background(), []string{"traktsync", "sync", "run", "--no-history"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out := buf.String()
		match := strings.LastIndex(out, "Matching")
		summary := strings.Index(out, "Sync Complete")
		if match < 0 || summary < 0 {
			t.Fatalf("expected progress and summary output, got %s", out)
		}
		if match > summary {
			t.Errorf("progress output interleaved with the summary:\n%s", out)
		}
	})

	t.Run("missing credentials fail validation", func(t *testing.T) {
		watchlist, library := newMocks()
		cfg := testConfig(t)
		cfg.Trakt.ClientID = ""

		runner := NewRunner(RunnerOpts{
			Config:    cfg,
			Watchlist: watchlist,
			Library:   library,
			Output:    &bytes.Buffer{},
		})

		err := testApp(runner).Run(context.Background(), []string{"traktsync", "sync", "run", "--no-history"})
		if err == nil {
			t.Fatal("expected validation error")
		}
	})
}

func TestSetupCommand(t *testing.T) {
	t.Run("creates config and database", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)

		var buf bytes.Buffer
		runner := NewRunner(RunnerOpts{Output: &buf})

		err := testApp(runner).Run(context.Background(), []string{"traktsync", "setup", "--config", "config.toml"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		mocks.AssertFileExists(t, filepath.Join(dir, "config.toml"))
		mocks.AssertFileExists(t, filepath.Join(dir, "traktsync.db"))
	})

	t.Run("imports a legacy config file", func(t *testing.T) {
		dir := t.TempDir()
		legacyPath := filepath.Join(dir, "trakt_config.txt")
		configPath := filepath.Join(dir, "config.toml")

		legacy := strings.Join([]string{
			"# trakt credentials",
			"client-id",
			"client-secret",
			"alice",
			"films",
			"series",
			"http://localhost:32400",
			"plex-token",
			"Trakt Movies",
			"Trakt Shows",
		}, "\n")
		if err := os.WriteFile(legacyPath, []byte(legacy), 0600); err != nil {
			t.Fatalf("failed to write legacy config: %v", err)
		}

		var buf bytes.Buffer
		runner := NewRunner(RunnerOpts{Output: &buf})

		err := testApp(runner).Run(context.Background(), []string{"traktsync", "setup", "import", "--config", configPath, legacyPath})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		imported, err := shared.LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load imported config: %v", err)
		}
		if imported.Trakt.Username != "alice" {
			t.Errorf("expected username alice, got %s", imported.Trakt.Username)
		}
		if imported.Plex.MoviePlaylist != "Trakt Movies" {
			t.Errorf("expected movie playlist, got %s", imported.Plex.MoviePlaylist)
		}
	})
}
