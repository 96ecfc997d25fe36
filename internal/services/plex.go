// Plex Media Server implementation of [LibraryClient]
//
// Plex responds with XML; every request carries X-Plex-Token as a query
// parameter.
package services

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"

	"traktsync/internal/models"
	"traktsync/internal/shared"
)

// Plex search type filters.
const (
	plexTypeMovie = "1"
	plexTypeShow  = "2"
)

// mediaContainer is the root element of every Plex response.
type mediaContainer struct {
	XMLName           xml.Name        `xml:"MediaContainer"`
	MachineIdentifier string          `xml:"machineIdentifier,attr"`
	Videos            []plexVideo     `xml:"Video"`
	Directories       []plexDirectory `xml:"Directory"`
	Playlists         []plexPlaylist  `xml:"Playlist"`
}

// plexVideo is a playable entity (movie or episode).
type plexVideo struct {
	Type      string `xml:"type,attr"`
	Title     string `xml:"title,attr"`
	RatingKey string `xml:"ratingKey,attr"`
	Index     string `xml:"index,attr"`
}

// plexDirectory is a container entity (show or season).
type plexDirectory struct {
	Type      string `xml:"type,attr"`
	Title     string `xml:"title,attr"`
	RatingKey string `xml:"ratingKey,attr"`
	Index     string `xml:"index,attr"`
	Key       string `xml:"key,attr"`
}

type plexPlaylist struct {
	Title     string `xml:"title,attr"`
	RatingKey string `xml:"ratingKey,attr"`
}

// PlexService implements [LibraryClient] against a single Plex server.
type PlexService struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *log.Logger

	machineID string // cached after first lookup
}

// NewPlexService creates a Plex client for the configured server.
func NewPlexService(cfg shared.PlexConfig, logger *log.Logger) (*PlexService, error) {
	if cfg.URL == "" || cfg.Token == "" {
		return nil, fmt.Errorf("%w: plex url and token", shared.ErrMissingCredentials)
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &PlexService{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		token:      cfg.Token,
		httpClient: http.DefaultClient,
		logger:     logger,
	}, nil
}

func (p *PlexService) Name() string {
	return "Plex"
}

// get issues an authenticated GET and decodes the XML container.
func (p *PlexService) get(ctx context.Context, path string, query url.Values) (*mediaContainer, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("X-Plex-Token", p.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d for %s", shared.ErrAPIRequest, resp.StatusCode, path)
	}

	var container mediaContainer
	if err := xml.NewDecoder(resp.Body).Decode(&container); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &container, nil
}

// SearchMovies issues a type-filtered search and returns all movie
// results in server order. The engine takes the first match; no ranking
// happens here.
func (p *PlexService) SearchMovies(ctx context.Context, title string) ([]models.MovieMatch, error) {
	query := url.Values{"query": {title}, "type": {plexTypeMovie}}
	container, err := p.get(ctx, "/search", query)
	if err != nil {
		return nil, err
	}

	var matches []models.MovieMatch
	for _, video := range container.Videos {
		if video.Type == "movie" {
			matches = append(matches, models.MovieMatch{
				Title:     video.Title,
				RatingKey: video.RatingKey,
			})
		}
	}

	return matches, nil
}

// FindShow resolves a show's rating key by normalized title comparison.
//
// A candidate is accepted when the normalized forms are equal or either
// is a substring of the other, tolerating subtitle variations like
// "Show" vs "Show: Season 1 Title".
func (p *PlexService) FindShow(ctx context.Context, title string) (string, error) {
	query := url.Values{"query": {title}, "type": {plexTypeShow}}
	container, err := p.get(ctx, "/search", query)
	if err != nil {
		return "", err
	}

	target := shared.NormalizeTitle(title)
	for _, dir := range container.Directories {
		if dir.Type != "show" {
			continue
		}
		candidate := shared.NormalizeTitle(dir.Title)
		if candidate == target || strings.Contains(candidate, target) || strings.Contains(target, candidate) {
			return dir.RatingKey, nil
		}
	}

	return "", fmt.Errorf("%w: show %q", shared.ErrNoMatch, title)
}

// FirstEpisode resolves season 1 episode 1 of the given show.
//
// The playlist targets play-unit entities, so a show container has to be
// narrowed to its first episode before any mutation.
func (p *PlexService) FirstEpisode(ctx context.Context, showKey string) (string, error) {
	container, err := p.get(ctx, "/library/metadata/"+showKey+"/children", nil)
	if err != nil {
		return "", err
	}

	for _, season := range container.Directories {
		if season.Index != "1" {
			continue
		}

		episodes, err := p.get(ctx, season.Key, nil)
		if err != nil {
			return "", err
		}

		for _, episode := range episodes.Videos {
			if episode.Index == "1" {
				return episode.RatingKey, nil
			}
		}
		break
	}

	return "", fmt.Errorf("%w: show %s has no season 1 episode 1", shared.ErrNoMatch, showKey)
}

// MachineIdentifier fetches the server's unique id, caching it for the
// lifetime of the service.
func (p *PlexService) MachineIdentifier(ctx context.Context) (string, error) {
	if p.machineID != "" {
		return p.machineID, nil
	}

	container, err := p.get(ctx, "/", nil)
	if err != nil {
		return "", err
	}
	if container.MachineIdentifier == "" {
		return "", fmt.Errorf("%w: server reported no machine identifier", shared.ErrAPIRequest)
	}

	p.machineID = container.MachineIdentifier
	return p.machineID, nil
}

// AddToPlaylist adds a rating key to the named playlist.
//
// A missing playlist is a silent no-op returning false: an unconfigured
// playlist should not abort the run. True means the playlist exists and
// the mutation returned HTTP 200.
func (p *PlexService) AddToPlaylist(ctx context.Context, playlist, ratingKey string) (bool, error) {
	container, err := p.get(ctx, "/playlists", nil)
	if err != nil {
		return false, err
	}

	var playlistKey string
	for _, pl := range container.Playlists {
		if pl.Title == playlist {
			playlistKey = pl.RatingKey
			break
		}
	}
	if playlistKey == "" {
		p.logger.Warn("playlist not found, skipping add", "playlist", playlist)
		return false, nil
	}

	machine, err := p.MachineIdentifier(ctx)
	if err != nil {
		return false, err
	}

	uri := fmt.Sprintf("server://%s/com.plexapp.plugins.library/library/metadata/%s", machine, ratingKey)
	query := url.Values{"uri": {uri}, "X-Plex-Token": {p.token}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		p.baseURL+"/playlists/"+playlistKey+"/items?"+query.Encode(), nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	resp.Body.Close()

	return resp.StatusCode == http.StatusOK, nil
}
