package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingAPIKey is returned when no Last.fm API key is configured.
var ErrMissingAPIKey = errors.New("Last.fm API key not configured")

// APIKeyVar is the variable read from a dotenv style key file.
const APIKeyVar = "LASTFM_API_KEY"

// Config holds application configuration
type Config struct {
	// Last.fm user whose chart is drawn when none is given
	// Default: "usefulalgorithm"
	Username string

	// Collage output path
	// Default: "output.png"
	Output string

	// File holding the Last.fm API key, either the bare key or
	// LASTFM_API_KEY=... lines
	// Default: "key.env"
	KeyFile string

	// Albums fetched at once
	Concurrency int

	// Per-request timeout, 0 for none
	HTTPTimeout time.Duration

	// Collage geometry in pixels
	CoverSize       int
	Margin          int
	WordMargin      int
	PlaceholderSize int

	// TrueType/OpenType font for the legend; empty uses the built-in font
	FontPath string

	// Font or collection for glyphs FontPath lacks; empty uses the bundled
	// Noto Sans CJK faces
	FallbackFontPath string

	// SQLite run history; empty disables it
	HistoryDB string

	// Last.fm API settings
	LastFM LastFMConfig
}

// LastFMConfig holds Last.fm specific configuration
type LastFMConfig struct {
	APIKey  string
	BaseURL string
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	return load(getConfigDir(), ".")
}

func load(paths ...string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetDefault("username", "usefulalgorithm")
	v.SetDefault("output", "output.png")
	v.SetDefault("key_file", "key.env")
	v.SetDefault("concurrency", 100)
	v.SetDefault("http_timeout", "0s")
	v.SetDefault("cover_size", 300)
	v.SetDefault("margin", 50)
	v.SetDefault("word_margin", 2)
	v.SetDefault("placeholder_size", 300)
	v.SetDefault("font_path", "")
	v.SetDefault("fallback_font_path", "")
	v.SetDefault("history_db", defaultHistoryDB())
	v.SetDefault("lastfm.api_key", "")
	v.SetDefault("lastfm.base_url", "")

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// SCROBBLEGRID_LASTFM_API_KEY maps to lastfm.api_key
	v.SetEnvPrefix("SCROBBLEGRID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Username:         v.GetString("username"),
		Output:           v.GetString("output"),
		KeyFile:          v.GetString("key_file"),
		Concurrency:      v.GetInt("concurrency"),
		HTTPTimeout:      v.GetDuration("http_timeout"),
		CoverSize:        v.GetInt("cover_size"),
		Margin:           v.GetInt("margin"),
		WordMargin:       v.GetInt("word_margin"),
		PlaceholderSize:  v.GetInt("placeholder_size"),
		FontPath:         v.GetString("font_path"),
		FallbackFontPath: v.GetString("fallback_font_path"),
		HistoryDB:        v.GetString("history_db"),
		LastFM: LastFMConfig{
			APIKey:  v.GetString("lastfm.api_key"),
			BaseURL: v.GetString("lastfm.base_url"),
		},
	}

	return cfg, nil
}

// APIKey returns the configured Last.fm API key, falling back to the key
// file.
func (c *Config) APIKey() (string, error) {
	if key := strings.TrimSpace(c.LastFM.APIKey); key != "" {
		return key, nil
	}
	if c.KeyFile == "" {
		return "", ErrMissingAPIKey
	}

	key, err := ReadKeyFile(c.KeyFile)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: set lastfm.api_key or create %s", ErrMissingAPIKey, c.KeyFile)
	}
	return key, err
}

// ReadKeyFile reads an API key from path. The file holds either the bare
// key or dotenv lines with LASTFM_API_KEY set.
func ReadKeyFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read key file: %w", err)
	}

	if !bytes.ContainsRune(data, '=') {
		key := strings.TrimSpace(string(data))
		if key == "" {
			return "", fmt.Errorf("%w: %s is empty", ErrMissingAPIKey, path)
		}
		return key, nil
	}

	vars, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse key file %s: %w", path, err)
	}
	key := strings.TrimSpace(vars[APIKeyVar])
	if key == "" {
		return "", fmt.Errorf("%w: %s does not set %s", ErrMissingAPIKey, path, APIKeyVar)
	}
	return key, nil
}

// getConfigDir returns the configuration directory path
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(homeDir, ".config", "scrobblegrid")
}

// GetConfigDir returns the configuration directory path (public helper)
func GetConfigDir() string {
	return getConfigDir()
}

func defaultHistoryDB() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".local", "share", "scrobblegrid", "history.db")
}
