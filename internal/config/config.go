package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"
)

// DefaultPath is read when no config path is given.
const DefaultPath = "genex.json"

type Config struct {
	Input            string `json:"input"`
	Accession        string `json:"accession"`
	Output           string `json:"output"`
	Format           string `json:"format"`
	LogFile          string `json:"log_file"`
	LogLevel         string `json:"log_level"`
	WindowSize       int    `json:"window_size"`
	KeepCase         bool   `json:"keep_case"`
	NcbiCachePath    string `json:"ncbi_cache_path"`
	NcbiApiKey       string `json:"ncbi_api_key"`
	NcbiCacheTTLSecs *int64 `json:"ncbi_cache_ttl_seconds,omitempty"`
}

// LoadConfig loads a JSON config from the given path. If path is empty, looks for ./genex.json.
// A missing file is not an error and yields the zero config; a malformed one is.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var c Config
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &c, nil
}

// Validate rejects values no command could act on.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Format) {
	case "", "text", "json", "fasta":
	default:
		return fmt.Errorf("unknown format %q (want text, json or fasta)", c.Format)
	}
	if c.WindowSize < 0 {
		return fmt.Errorf("window_size must not be negative, got %d", c.WindowSize)
	}
	if c.NcbiCacheTTLSecs != nil && *c.NcbiCacheTTLSecs < 0 {
		return fmt.Errorf("ncbi_cache_ttl_seconds must not be negative, got %d", *c.NcbiCacheTTLSecs)
	}
	return nil
}

// APIKey returns the configured NCBI key, falling back to $NCBI_API_KEY.
func (c *Config) APIKey() string {
	if c.NcbiApiKey != "" {
		return c.NcbiApiKey
	}
	return os.Getenv("NCBI_API_KEY")
}

// CacheTTL returns the cache lifetime; an unset value means def and zero
// means entries never expire.
func (c *Config) CacheTTL(def time.Duration) time.Duration {
	if c.NcbiCacheTTLSecs == nil {
		return def
	}
	return time.Duration(*c.NcbiCacheTTLSecs) * time.Second
}
