// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"testing"

	"traktsync/internal/models"
	"traktsync/internal/shared"
)

// MockWatchlist is a test double for [services.WatchlistClient].
//
// Items are keyed by media kind; Removed records titles in removal order.
type MockWatchlist struct {
	Items     map[string][]models.ListItem
	ListErr   error
	RemoveErr error
	Removed   []string
}

func (m *MockWatchlist) ListItems(ctx context.Context, list, kind string) ([]models.ListItem, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Items[kind], nil
}

func (m *MockWatchlist) RemoveItem(ctx context.Context, list string, item models.ListItem) error {
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	m.Removed = append(m.Removed, item.Title)
	return nil
}

// MockLibrary is a test double for [services.LibraryClient].
//
// Absent shows and episodes report [shared.ErrNoMatch], matching the
// real client's contract.
type MockLibrary struct {
	Movies    map[string][]models.MovieMatch // search results by title
	Shows     map[string]string              // show rating key by title
	Episodes  map[string]string              // first episode key by show key
	Playlists map[string]bool                // playlist name -> exists
	AddErr    error
	Added     []string // rating keys in add order
}

func (m *MockLibrary) SearchMovies(ctx context.Context, title string) ([]models.MovieMatch, error) {
	return m.Movies[title], nil
}

func (m *MockLibrary) FindShow(ctx context.Context, title string) (string, error) {
	if key, ok := m.Shows[title]; ok {
		return key, nil
	}
	return "", fmt.Errorf("%w: show %q", shared.ErrNoMatch, title)
}

func (m *MockLibrary) FirstEpisode(ctx context.Context, showKey string) (string, error) {
	if key, ok := m.Episodes[showKey]; ok {
		return key, nil
	}
	return "", fmt.Errorf("%w: show %s", shared.ErrNoMatch, showKey)
}

func (m *MockLibrary) MachineIdentifier(ctx context.Context) (string, error) {
	return "mock-machine", nil
}

func (m *MockLibrary) AddToPlaylist(ctx context.Context, playlist, ratingKey string) (bool, error) {
	if m.AddErr != nil {
		return false, m.AddErr
	}
	if !m.Playlists[playlist] {
		return false, nil
	}
	m.Added = append(m.Added, ratingKey)
	return true, nil
}

// MockNotifier records notification messages.
type MockNotifier struct {
	Err      error
	Messages []string
}

func (m *MockNotifier) Notify(ctx context.Context, message string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Messages = append(m.Messages, message)
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}
