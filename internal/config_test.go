package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/casedesk/pkg/config"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestAuthConfigModes(t *testing.T) {
	tests := []struct {
		name    string
		cfg     AuthConfig
		enabled bool
		wantErr string
	}{
		{name: "disabled", cfg: AuthConfig{Mode: "disabled"}},
		{name: "empty defaults to disabled", cfg: AuthConfig{}},
		{name: "token", cfg: AuthConfig{Mode: "token", Token: "s3cret"}, enabled: true},
		{name: "token without value", cfg: AuthConfig{Mode: "token"}, wantErr: "token is empty"},
		{name: "unknown mode", cfg: AuthConfig{Mode: "magic", Token: "x"}, wantErr: "must be a valid value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.cfg.Mode != AuthModeDisabled && !tt.enabled {
				t.Errorf("mode = %q, want %q", tt.cfg.Mode, AuthModeDisabled)
			}
			if tt.cfg.AuthEnabled() != tt.enabled {
				t.Errorf("AuthEnabled() = %v, want %v", tt.cfg.AuthEnabled(), tt.enabled)
			}
		})
	}
}

func TestConfigValidateSections(t *testing.T) {
	tests := map[string]func(c *Config){
		"port":              func(c *Config) { c.App.HTTP.Port = 70000 },
		"sqlite path":       func(c *Config) { c.SQLite.Path = "" },
		"auth":              func(c *Config) { c.Auth = AuthConfig{Mode: AuthModeToken} },
		"min relevance":     func(c *Config) { c.Search.MinRelevance = 1.5 },
		"similar threshold": func(c *Config) { c.Search.SimilarThreshold = -0.1 },
		"attachments":       func(c *Config) { c.Attachments.Path = "" },
		"throttle":          func(c *Config) { c.Events.Throttle = -time.Second },
		"backup dir":        func(c *Config) { c.Backup.LocalDir = "" },
		"backup keep":       func(c *Config) { c.Backup.Keep = -1 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadYAMLOverDefaults(t *testing.T) {
	t.Setenv("CASEDESK_TEST_TOKEN", "from-env")
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `app:
  log_level: debug
  http:
    port: 9090
auth:
  mode: token
  token: ${CASEDESK_TEST_TOKEN}
search:
  min_relevance: 0.2
import:
  inbox_dir: ./inbox
events:
  throttle: 500ms
backup:
  network_dirs: ["/mnt/share/wscc"]
  keep: 3
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.HTTP.Address() != ":9090" {
		t.Errorf("address = %q", cfg.App.HTTP.Address())
	}
	if cfg.App.LogLevel.String() != "DEBUG" {
		t.Errorf("log level = %v", cfg.App.LogLevel)
	}
	if cfg.Auth.Token != "from-env" || !cfg.Auth.AuthEnabled() {
		t.Errorf("auth = %+v", cfg.Auth)
	}
	if cfg.Search.MinRelevance != 0.2 || cfg.Search.MaxResults != 10 {
		t.Errorf("search = %+v", cfg.Search)
	}
	if cfg.Import.InboxDir != "./inbox" {
		t.Errorf("inbox = %q", cfg.Import.InboxDir)
	}
	if cfg.Events.Throttle != 500*time.Millisecond {
		t.Errorf("throttle = %v", cfg.Events.Throttle)
	}

	bc := cfg.Backup.Manager(cfg.SQLite.Path)
	if bc.DatabaseFile != "./wscc_data.db" || bc.Keep != 3 || len(bc.NetworkDirs) != 1 || bc.LocalDir != "./backups" {
		t.Errorf("backup = %+v", bc)
	}
}
