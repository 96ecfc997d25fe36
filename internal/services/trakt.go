// Trakt API implementation of [WatchlistClient]
//
// Trakt API response types based on https://trakt.docs.apiary.io/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"traktsync/internal/models"
	"traktsync/internal/shared"
)

const (
	traktBaseURL  = "https://api.trakt.tv"
	traktAuthURL  = "https://trakt.tv/oauth/authorize"
	traktTokenURL = "https://api.trakt.tv/oauth/token"

	// OOBRedirectURI is the out-of-band redirect used by the manual
	// paste-the-code authorization flow.
	OOBRedirectURI = "urn:ietf:wg:oauth:2.0:oob"

	// DefaultRedirectURI receives the authorization code when the local
	// callback server flow is used.
	DefaultRedirectURI = "http://localhost:8585/callback"
)

// Trakt allows 1000 requests per 5 minutes per client; pacing at 3/s
// keeps a full run well under the ceiling so 429s stay exceptional.
const traktRequestsPerSecond = 3

// maxRemoveAttempts bounds the 429 retry loop on list removal. A stuck
// rate limit gives up and leaves the item for the next run.
const maxRemoveAttempts = 5

// listEntry is one element of a Trakt list items response.
type listEntry struct {
	Type  string          `json:"type"`
	Movie json.RawMessage `json:"movie"`
	Show  json.RawMessage `json:"show"`
}

// itemPayload is the inner movie/show object of a list entry.
type itemPayload struct {
	Title string         `json:"title"`
	Year  int            `json:"year"`
	IDs   map[string]any `json:"ids"`
}

// TraktService implements [WatchlistClient] against the Trakt REST API
// and owns the OAuth2 token lifecycle for it.
type TraktService struct {
	config     *oauth2.Config
	store      *TokenStore
	username   string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger

	// injection points for tests
	now   func() time.Time
	sleep func(time.Duration)
}

// NewTraktService creates a Trakt client from configuration and a token store.
func NewTraktService(cfg shared.TraktConfig, store *TokenStore, logger *log.Logger) (*TraktService, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: trakt client_id and client_secret", shared.ErrMissingCredentials)
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  DefaultRedirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:  traktAuthURL,
			TokenURL: traktTokenURL,
		},
	}

	return &TraktService{
		config:     config,
		store:      store,
		username:   cfg.Username,
		baseURL:    traktBaseURL,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(traktRequestsPerSecond), 1),
		logger:     logger,
		now:        time.Now,
		sleep:      time.Sleep,
	}, nil
}

func (s *TraktService) Name() string {
	return "Trakt"
}

// AuthCodeURL returns the OAuth2 authorization URL for user approval.
func (s *TraktService) AuthCodeURL(state string) string {
	return s.config.AuthCodeURL(state)
}

// UseOOBRedirect switches the service to the manual out-of-band flow.
func (s *TraktService) UseOOBRedirect() {
	s.config.RedirectURL = OOBRedirectURI
}

// OAuthConfig exposes the underlying OAuth2 configuration for the
// callback server flow.
func (s *TraktService) OAuthConfig() *oauth2.Config {
	return s.config
}

// ExchangeCode trades a one-time authorization code for a token pair and
// persists the resulting record.
func (s *TraktService) ExchangeCode(ctx context.Context, code string) (*models.TokenRecord, error) {
	tok, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	record := recordFromToken(tok, s.now())
	if err := s.store.Save(record); err != nil {
		return nil, err
	}

	return record, nil
}

// SaveToken persists an already-exchanged token, as produced by the
// callback server flow.
func (s *TraktService) SaveToken(tok *oauth2.Token) (*models.TokenRecord, error) {
	record := recordFromToken(tok, s.now())
	if err := s.store.Save(record); err != nil {
		return nil, err
	}
	return record, nil
}

// TokenStatus loads the stored record without refreshing it.
func (s *TraktService) TokenStatus() (*models.TokenRecord, error) {
	return s.store.Load()
}

// AccessToken returns a valid access token, refreshing the stored record
// first when it has gone stale.
//
// A missing record and a failed refresh are both fatal: the sync run
// cannot proceed without a usable token.
func (s *TraktService) AccessToken(ctx context.Context) (string, error) {
	record, err := s.store.Load()
	if err != nil {
		return "", err
	}

	if record.Stale(s.now()) {
		s.logger.Info("access token stale, refreshing", "expires_at", record.ExpiresAt())
		if record, err = s.Refresh(ctx, record); err != nil {
			return "", err
		}
	}

	return record.AccessToken, nil
}

// Refresh exchanges the stored refresh token for a new token pair and
// persists it. Unlike list removal there is no retry here: a refresh
// failure means the operator must intervene.
func (s *TraktService) Refresh(ctx context.Context, record *models.TokenRecord) (*models.TokenRecord, error) {
	payload := map[string]string{
		"refresh_token": record.RefreshToken,
		"client_id":     s.config.ClientID,
		"client_secret": s.config.ClientSecret,
		"redirect_uri":  s.config.RedirectURL,
		"grant_type":    "refresh_token",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.Endpoint.TokenURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", shared.ErrRefreshFailed, resp.StatusCode)
	}

	var refreshed models.TokenRecord
	if err := json.NewDecoder(resp.Body).Decode(&refreshed); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", shared.ErrRefreshFailed, err)
	}
	if refreshed.CreatedAt == 0 {
		refreshed.CreatedAt = s.now().Unix()
	}

	if err := s.store.Save(&refreshed); err != nil {
		return nil, err
	}

	return &refreshed, nil
}

// newRequest builds an authenticated Trakt API request.
func (s *TraktService) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	token, err := s.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	var req *http.Request
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, s.baseURL+path, bytes.NewReader(body))
	} else {
		req, err = http.NewRequestWithContext(ctx, method, s.baseURL+path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("trakt-api-version", "2")
	req.Header.Set("trakt-api-key", s.config.ClientID)
	req.Header.Set("Authorization", "Bearer "+token)
	return req, nil
}

// ListItems fetches the entries of the named list for one media kind.
//
// A non-200 response is logged and treated as an empty list so one bad
// list never aborts the run. Token errors still propagate: they are
// fatal for every list alike.
func (s *TraktService) ListItems(ctx context.Context, list, kind string) ([]models.ListItem, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/users/%s/lists/%s/items/%s", s.username, list, kind)
	req, err := s.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("list fetch failed, treating as empty", "list", list, "kind", kind, "status", resp.StatusCode)
		return nil, nil
	}

	var entries []listEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode list response: %w", err)
	}

	items := make([]models.ListItem, 0, len(entries))
	for _, entry := range entries {
		raw := entry.Movie
		if kind == models.KindShow {
			raw = entry.Show
		}
		if raw == nil {
			continue
		}

		var payload itemPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			s.logger.Warn("skipping malformed list entry", "list", list, "error", err)
			continue
		}

		items = append(items, models.ListItem{
			Kind:  kind,
			Title: payload.Title,
			IDs:   payload.IDs,
			Raw:   raw,
		})
	}

	return items, nil
}

// RemoveItem removes an entry from the named list, keyed by external ids.
//
// HTTP 429 is retried after the Retry-After interval (default one
// second), up to maxRemoveAttempts. Any other non-200 status is returned
// as an error; the item simply stays on the list for the next run.
func (s *TraktService) RemoveItem(ctx context.Context, list string, item models.ListItem) error {
	payload := map[string]any{
		item.Kind + "s": []map[string]any{{"ids": item.IDs}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal removal request: %w", err)
	}

	path := fmt.Sprintf("/users/%s/lists/%s/items/remove", s.username, list)

	for attempt := 1; attempt <= maxRemoveAttempts; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := s.newRequest(ctx, http.MethodPost, path, body)
		if err != nil {
			return err
		}

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			return nil
		case resp.StatusCode == http.StatusTooManyRequests:
			wait := retryAfter(resp)
			s.logger.Warn("rate limited on removal", "list", list, "title", item.Title, "wait", wait, "attempt", attempt)
			s.sleep(wait)
		default:
			return fmt.Errorf("%w: removal returned status %d", shared.ErrAPIRequest, resp.StatusCode)
		}
	}

	return fmt.Errorf("%w: gave up removing %q after %d attempts", shared.ErrRateLimited, item.Title, maxRemoveAttempts)
}

// retryAfter reads the Retry-After header, defaulting to one second.
func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return time.Second
}
