package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "genex.json")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoadConfig_MissingFileGivesDefaults(t *testing.T) {
	c, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Input != "" || c.WindowSize != 0 || c.NcbiCacheTTLSecs != nil {
		t.Fatalf("expected zero config, got %+v", c)
	}
}

func TestLoadConfig_Fields(t *testing.T) {
	p := writeConfig(t, `{
  "input": "brca1.gb",
  "output": "out.json",
  "format": "json",
  "log_level": "debug",
  "window_size": 50,
  "keep_case": true,
  "ncbi_cache_path": "/tmp/c.db",
  "ncbi_api_key": "k",
  "ncbi_cache_ttl_seconds": 0
}`)
	c, err := LoadConfig(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Input != "brca1.gb" || c.Output != "out.json" || c.Format != "json" || c.WindowSize != 50 || !c.KeepCase {
		t.Fatalf("fields not loaded: %+v", c)
	}
	if c.APIKey() != "k" {
		t.Fatalf("expected key from config, got %q", c.APIKey())
	}
	if got := c.CacheTTL(time.Hour); got != 0 {
		t.Fatalf("explicit zero TTL should be kept, got %v", got)
	}
}

func TestLoadConfig_Malformed(t *testing.T) {
	cases := map[string]string{
		"syntax":   `{"input": `,
		"unknown":  `{"inptu": "x.gb"}`,
		"format":   `{"format": "xml"}`,
		"window":   `{"window_size": -1}`,
		"ttl":      `{"ncbi_cache_ttl_seconds": -5}`,
		"wrongtyp": `{"window_size": "big"}`,
	}
	for name, body := range cases {
		if _, err := LoadConfig(writeConfig(t, body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestAPIKeyFromEnv(t *testing.T) {
	t.Setenv("NCBI_API_KEY", "from-env")
	c := &Config{}
	if c.APIKey() != "from-env" {
		t.Fatalf("expected env fallback, got %q", c.APIKey())
	}
	c.NcbiApiKey = "from-config"
	if c.APIKey() != "from-config" {
		t.Fatalf("config key should win, got %q", c.APIKey())
	}
}

func TestCacheTTLDefault(t *testing.T) {
	c := &Config{}
	if got := c.CacheTTL(7 * time.Hour); got != 7*time.Hour {
		t.Fatalf("expected default TTL, got %v", got)
	}
	secs := int64(90)
	c.NcbiCacheTTLSecs = &secs
	if got := c.CacheTTL(time.Hour); got != 90*time.Second {
		t.Fatalf("expected 90s, got %v", got)
	}
}
