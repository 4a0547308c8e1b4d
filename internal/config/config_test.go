package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

// TestNewConfig documents the defaults; a failure here means a default
// changed and the change should be intentional.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default query is email", func(t *testing.T) {
		t.Parallel()
		if cfg.Query != "email" {
			t.Errorf("expected query 'email', got %q", cfg.Query)
		}
	})

	t.Run("default output format is txt", func(t *testing.T) {
		t.Parallel()
		if cfg.OutputFormat != "txt" {
			t.Errorf("expected output 'txt', got %q", cfg.OutputFormat)
		}
	})

	t.Run("default threads is 1", func(t *testing.T) {
		t.Parallel()
		if cfg.Threads != 1 {
			t.Errorf("expected 1 thread, got %d", cfg.Threads)
		}
	})

	t.Run("default delay is 3s to 6s", func(t *testing.T) {
		t.Parallel()
		if cfg.MinDelay != 3*time.Second || cfg.MaxDelay != 6*time.Second {
			t.Errorf("expected 3s-6s, got %v-%v", cfg.MinDelay, cfg.MaxDelay)
		}
	})

	t.Run("default CrawlDepth is 100", func(t *testing.T) {
		t.Parallel()
		if cfg.CrawlDepth != 100 {
			t.Errorf("expected CrawlDepth to be 100, got %d", cfg.CrawlDepth)
		}
	})

	t.Run("database enabled by default", func(t *testing.T) {
		t.Parallel()
		if !cfg.SaveToDB || cfg.DBDir == "" {
			t.Errorf("expected database in XDG dir, got SaveToDB=%v DBDir=%q", cfg.SaveToDB, cfg.DBDir)
		}
	})

	t.Run("default TorStartupTimeout is 3 minutes", func(t *testing.T) {
		t.Parallel()
		if cfg.TorStartupTimeout != 3*time.Minute {
			t.Errorf("expected TorStartupTimeout to be 3m, got %v", cfg.TorStartupTimeout)
		}
	})
}

// TestConfigValidate tests one validation rule per case.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.Seeds = []string{"https://example.com"}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid config", func(*Config) {}, nil},
		{"resume without seeds", func(c *Config) { c.Seeds = nil; c.Resume = "run-1" }, nil},
		{"raw query", func(c *Config) { c.Query = `\bBTC[0-9]+` }, nil},
		{"socks proxy", func(c *Config) { c.Proxy = "socks5://127.0.0.1:9050" }, nil},
		{"no seeds", func(c *Config) { c.Seeds = nil }, ErrNoSeeds},
		{"bad query", func(c *Config) { c.Query = "[unclosed" }, ErrInvalidQuery},
		{"empty query", func(c *Config) { c.Query = "" }, ErrInvalidQuery},
		{"uppercase name is a raw query", func(c *Config) { c.Query = "EMAIL" }, nil},
		{"bad output format", func(c *Config) { c.OutputFormat = "xml" }, ErrInvalidOutputFormat},
		{"zero threads", func(c *Config) { c.Threads = 0 }, ErrInvalidThreads},
		{"negative threads", func(c *Config) { c.Threads = -2 }, ErrInvalidThreads},
		{"negative min delay", func(c *Config) { c.MinDelay = -time.Second }, ErrInvalidDelay},
		{"max below min", func(c *Config) { c.MinDelay, c.MaxDelay = 5*time.Second, time.Second }, ErrInvalidDelay},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"unknown fetcher", func(c *Config) { c.Fetcher = "curl" }, ErrInvalidFetcher},
		{"negative depth", func(c *Config) { c.CrawlDepth = -1 }, ErrInvalidMaxDepth},
		{"negative max pages", func(c *Config) { c.MaxPages = -1 }, ErrInvalidMaxPages},
		{"negative body size", func(c *Config) { c.MaxBodySize = -1 }, ErrInvalidMaxBodySize},
		{"resume without db", func(c *Config) { c.Resume = "run-1"; c.SaveToDB = false }, ErrResumeWithoutDB},
		{"tor with proxy", func(c *Config) { c.UseTor = true; c.Proxy = "http://p:8080" }, ErrConflictingProxy},
		{"bad proxy scheme", func(c *Config) { c.Proxy = "ftp://p:21" }, ErrInvalidProxy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestFileGetSiteConfig tests merging site configuration over defaults.
func TestFileGetSiteConfig(t *testing.T) {
	t.Parallel()

	cf := &File{
		Defaults: SiteConfig{
			Cookie:         "default=1",
			Depth:          10,
			Headers:        map[string]string{"Accept-Language": "en"},
			IgnorePatterns: []string{"*.pdf"},
		},
		Sites: map[string]SiteConfig{
			"Example.com": {
				Cookie:     "session=xyz",
				Headers:    map[string]string{"X-Team": "osint"},
				UserAgents: []string{"DataHawkTest/1.0"},
			},
			"local.test:8080": {Depth: 3},
		},
	}

	t.Run("unknown host gets defaults", func(t *testing.T) {
		t.Parallel()

		sc := cf.GetSiteConfig("other.com")
		if sc.Cookie != "default=1" || sc.Depth != 10 {
			t.Errorf("unexpected config: %+v", sc)
		}
	})

	t.Run("site values override and merge", func(t *testing.T) {
		t.Parallel()

		sc := cf.GetSiteConfig("example.com")
		if sc.Cookie != "session=xyz" {
			t.Errorf("expected site cookie, got %q", sc.Cookie)
		}
		if sc.Depth != 10 {
			t.Errorf("expected default depth, got %d", sc.Depth)
		}
		if sc.Headers["Accept-Language"] != "en" || sc.Headers["X-Team"] != "osint" {
			t.Errorf("expected merged headers, got %v", sc.Headers)
		}
		if len(sc.UserAgents) != 1 {
			t.Errorf("expected site user agent, got %v", sc.UserAgents)
		}
		if len(sc.IgnorePatterns) != 1 {
			t.Errorf("expected default ignore patterns, got %v", sc.IgnorePatterns)
		}
	})

	t.Run("merging does not modify defaults", func(t *testing.T) {
		t.Parallel()

		_ = cf.GetSiteConfig("example.com")
		if _, ok := cf.Defaults.Headers["X-Team"]; ok {
			t.Error("site header leaked into defaults")
		}
	})

	t.Run("host with port", func(t *testing.T) {
		t.Parallel()

		if sc := cf.GetSiteConfig("local.test:8080"); sc.Depth != 3 {
			t.Errorf("expected exact host:port match, got depth %d", sc.Depth)
		}
		if sc := cf.GetSiteConfig("example.com:443"); sc.Cookie != "session=xyz" {
			t.Errorf("expected bare host fallback, got %q", sc.Cookie)
		}
		if sc := cf.SiteConfigForURL("https://EXAMPLE.com/path"); sc.Cookie != "session=xyz" {
			t.Errorf("expected URL lookup to match, got %q", sc.Cookie)
		}
	})
}

// TestFileValidate tests validation of the site file.
func TestFileHasRequestSettings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		file File
		want bool
	}{
		{"empty", File{}, false},
		{"path rules only", File{Sites: map[string]SiteConfig{"a.com": {Depth: 2, IgnorePatterns: []string{"/x"}}}}, false},
		{"default header", File{Defaults: SiteConfig{Headers: map[string]string{"A": "b"}}}, true},
		{"site cookie", File{Sites: map[string]SiteConfig{"a.com": {Cookie: "s=1"}}}, true},
		{"site user agents", File{Sites: map[string]SiteConfig{"a.com": {UserAgents: []string{"ua"}}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.file.HasRequestSettings(); got != tt.want {
				t.Errorf("HasRequestSettings() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFileValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    File
		wantErr bool
	}{
		{"empty file", File{}, false},
		{"valid site", File{Sites: map[string]SiteConfig{"example.com": {Depth: 2, IgnorePatterns: []string{"/admin/*"}}}}, false},
		{"negative depth", File{Defaults: SiteConfig{Depth: -1}}, true},
		{"bad glob", File{Defaults: SiteConfig{FollowPatterns: []string{"/[a-"}}}, true},
		{"empty pattern", File{Defaults: SiteConfig{IgnorePatterns: []string{""}}}, true},
		{"URL as site key", File{Sites: map[string]SiteConfig{"https://example.com/": {}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.file.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfigFile) {
					t.Errorf("expected ErrInvalidConfigFile, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.datahawk")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".datahawk")
		content := `defaults:
  depth: 50
  userAgents:
    - "DataHawk/1.0"
sites:
  example.com:
    depth: 5
    cookie: "session=xyz"
    headers:
      Authorization: "Bearer token"
    ignorePatterns:
      - "/admin/*"
    followPatterns:
      - "/team/*"
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Defaults.Depth != 50 || len(cfg.Defaults.UserAgents) != 1 {
			t.Errorf("unexpected defaults: %+v", cfg.Defaults)
		}
		site, ok := cfg.Sites["example.com"]
		if !ok {
			t.Fatal("expected example.com in sites")
		}
		if site.Depth != 5 || site.Headers["Authorization"] != "Bearer token" {
			t.Errorf("unexpected site config: %+v", site)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".datahawk")
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		_, err := LoadConfigFile(configPath)
		if !errors.Is(err, ErrInvalidConfigFile) {
			t.Fatalf("expected ErrInvalidConfigFile, got %v", err)
		}
		if !strings.Contains(err.Error(), configPath) {
			t.Errorf("expected path in error, got %v", err)
		}
	})

	t.Run("returns validation error", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".datahawk")
		if err := os.WriteFile(configPath, []byte("defaults:\n  depth: -4\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		_, err := LoadConfigFile(configPath)
		if !errors.Is(err, ErrInvalidConfigFile) {
			t.Fatalf("expected ErrInvalidConfigFile, got %v", err)
		}
		if !strings.Contains(err.Error(), "Depth") {
			t.Errorf("expected field name in error, got %v", err)
		}
	})

	t.Run("initializes nil Sites map", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".datahawk")
		if err := os.WriteFile(configPath, []byte("defaults:\n  depth: 25\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Sites == nil {
			t.Error("expected Sites map to be initialized")
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("defaults: {}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})

	t.Run("ignores a directory", func(t *testing.T) {
		t.Parallel()

		if result := FindConfigFile(t.TempDir()); result != "" {
			t.Errorf("expected empty string for a directory, got %q", result)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{
		"data":   XDGDataDir(),
		"config": XDGConfigDir(),
	} {
		if dir == "" {
			t.Errorf("expected non-empty %s dir", name)
		}
		if filepath.Base(dir) != AppName {
			t.Errorf("expected %s dir to end in %q, got %q", name, AppName, dir)
		}
	}
}

// TestFromViper tests building a Config from viper keys.
func TestFromViper(t *testing.T) {
	t.Parallel()

	t.Run("unset keys keep defaults", func(t *testing.T) {
		t.Parallel()

		cfg := FromViper(viper.New(), []string{"https://example.com"})
		def := NewConfig()
		if cfg.Threads != def.Threads || cfg.Query != def.Query || cfg.MinDelay != def.MinDelay {
			t.Errorf("expected defaults, got %+v", cfg)
		}
		if len(cfg.Seeds) != 1 {
			t.Errorf("expected seeds to be set, got %v", cfg.Seeds)
		}
	})

	t.Run("set keys override", func(t *testing.T) {
		t.Parallel()

		v := viper.New()
		v.Set(KeyThreads, 4)
		v.Set(KeyQuery, "all")
		v.Set(KeyMinDelay, "1s")
		v.Set(KeyMaxDelay, 2*time.Second)
		v.Set(KeyNoDB, true)
		v.Set(KeyTor, true)

		cfg := FromViper(v, nil)
		if cfg.Threads != 4 || cfg.Query != "all" {
			t.Errorf("unexpected config: %+v", cfg)
		}
		if cfg.MinDelay != time.Second || cfg.MaxDelay != 2*time.Second {
			t.Errorf("unexpected delays: %v-%v", cfg.MinDelay, cfg.MaxDelay)
		}
		if cfg.SaveToDB {
			t.Error("expected --no-db to disable the database")
		}
		if !cfg.UseTor {
			t.Error("expected tor to be enabled")
		}
	})
}

// TestFromViperEnv tests DATAHAWK_* environment variables.
// It cannot run in parallel because it sets environment variables.
func TestFromViperEnv(t *testing.T) {
	t.Setenv("DATAHAWK_THREADS", "3")
	t.Setenv("DATAHAWK_OUTPUT_DIR", "/tmp/datahawk-out")

	cfg := FromViper(NewViper(), []string{"https://example.com"})
	if cfg.Threads != 3 {
		t.Errorf("expected 3 threads from env, got %d", cfg.Threads)
	}
	if cfg.OutputDir != "/tmp/datahawk-out" {
		t.Errorf("expected output dir from env, got %q", cfg.OutputDir)
	}
}
