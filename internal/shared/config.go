package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Trakt    TraktConfig    `toml:"trakt"`
	Plex     PlexConfig     `toml:"plex"`
	Telegram TelegramConfig `toml:"telegram"`
	Database DatabaseConfig `toml:"database"`
}

// TraktConfig contains Trakt API credentials and list names.
type TraktConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	Username     string `toml:"username"`
	MovieList    string `toml:"movie_list"`
	ShowList     string `toml:"show_list"`
	TokenPath    string `toml:"token_path"`
}

// PlexConfig contains the Plex server address, token and playlist names.
type PlexConfig struct {
	URL           string `toml:"url"`
	Token         string `toml:"token"`
	MoviePlaylist string `toml:"movie_playlist"`
	ShowPlaylist  string `toml:"show_playlist"`
}

// TelegramConfig contains optional notification credentials.
//
// Both fields must be set for notifications to be sent.
type TelegramConfig struct {
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// Enabled reports whether both Telegram credentials are present.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// Validate checks the fields required for a sync run.
func (c *Config) Validate() error {
	switch {
	case c.Trakt.ClientID == "" || c.Trakt.ClientSecret == "":
		return fmt.Errorf("%w: trakt client_id and client_secret", ErrMissingCredentials)
	case c.Trakt.Username == "":
		return fmt.Errorf("%w: trakt username", ErrInvalidConfig)
	case c.Plex.URL == "" || c.Plex.Token == "":
		return fmt.Errorf("%w: plex url and token", ErrMissingCredentials)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// SaveConfig writes the configuration to the specified path as TOML.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// legacyFieldCount is the number of required values in trakt_config.txt.
// Two optional trailing values carry the Telegram credentials.
const legacyFieldCount = 9

// ParseLegacyConfig reads the original newline-delimited trakt_config.txt
// format: client id, client secret, username, movie list, show list,
// Plex URL, Plex token, movie playlist, show playlist, then optionally a
// Telegram bot token and chat id. Blank lines and '#' comments are
// ignored.
func ParseLegacyConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingConfig, err)
	}

	var values []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		values = append(values, line)
	}

	if len(values) < legacyFieldCount {
		return nil, fmt.Errorf("%w: %s must contain at least %d values, found %d",
			ErrInvalidConfig, path, legacyFieldCount, len(values))
	}

	config := DefaultConfig()
	config.Trakt.ClientID = values[0]
	config.Trakt.ClientSecret = values[1]
	config.Trakt.Username = values[2]
	config.Trakt.MovieList = values[3]
	config.Trakt.ShowList = values[4]
	config.Plex.URL = values[5]
	config.Plex.Token = values[6]
	config.Plex.MoviePlaylist = values[7]
	config.Plex.ShowPlaylist = values[8]

	if len(values) > 9 {
		config.Telegram.BotToken = values[9]
	}
	if len(values) > 10 {
		config.Telegram.ChatID = values[10]
	}

	return config, nil
}
