package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/casedesk/internal/backup"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App         ApplicationConfig `yaml:"app"`
	SQLite      SQLiteConfig      `yaml:"sqlite"`
	Auth        AuthConfig        `yaml:"auth"`
	Search      SearchConfig      `yaml:"search"`
	Attachments AttachmentsConfig `yaml:"attachments"`
	Import      ImportConfig      `yaml:"import"`
	Events      EventsConfig      `yaml:"events"`
	Backup      BackupConfig      `yaml:"backup"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{
		&c.App, &c.SQLite, &c.Auth, &c.Search, &c.Attachments, &c.Events, &c.Backup,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication, for a single workstation.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// SearchConfig holds the defaults applied when a search request leaves a
// parameter out. Zero values fall back to the built-in defaults.
type SearchConfig struct {
	MinRelevance     float64 `yaml:"min_relevance"`
	MaxResults       int     `yaml:"max_results"`
	SimilarThreshold float64 `yaml:"similar_threshold"`
	SimilarLimit     int     `yaml:"similar_limit"`
	TagCount         int     `yaml:"tag_count"`
}

// Validate validates the search defaults.
func (c *SearchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MinRelevance, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.MaxResults, validation.Min(0)),
		validation.Field(&c.SimilarThreshold, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.SimilarLimit, validation.Min(0)),
		validation.Field(&c.TagCount, validation.Min(0)),
	)
}

// AttachmentsConfig holds the exhibit attachment directory.
type AttachmentsConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the attachments configuration.
func (c *AttachmentsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// ImportConfig holds the optional import drop folder. An empty InboxDir
// disables the inbox watcher.
type ImportConfig struct {
	InboxDir string `yaml:"inbox_dir"`
}

// EventsConfig holds SSE broker settings.
type EventsConfig struct {
	Throttle time.Duration `yaml:"throttle"`
}

// Validate validates the events configuration.
func (c *EventsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Throttle, validation.Min(time.Duration(0))),
	)
}

// BackupConfig holds encrypted backup settings. The key is only required by
// the commands that encrypt or decrypt.
type BackupConfig struct {
	Key          string   `yaml:"key"`
	LocalDir     string   `yaml:"local_dir"`
	NetworkDirs  []string `yaml:"network_dirs"`
	Keep         int      `yaml:"keep"`
	DatabaseFile string   `yaml:"database_file"`
}

// Validate validates the backup configuration.
func (c *BackupConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LocalDir, validation.Required),
		validation.Field(&c.Keep, validation.Min(0)),
	)
}

// Manager returns the backup settings for db, which is used when
// DatabaseFile is empty.
func (c *BackupConfig) Manager(db string) backup.Config {
	file := c.DatabaseFile
	if file == "" {
		file = db
	}
	return backup.Config{
		Key:          c.Key,
		LocalDir:     c.LocalDir,
		NetworkDirs:  c.NetworkDirs,
		Keep:         c.Keep,
		DatabaseFile: file,
	}
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		SQLite: SQLiteConfig{
			Path: "./wscc_data.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Search: SearchConfig{
			MinRelevance:     0.3,
			MaxResults:       10,
			SimilarThreshold: 0.4,
			SimilarLimit:     5,
			TagCount:         5,
		},
		Attachments: AttachmentsConfig{
			Path: "./attachments",
		},
		Events: EventsConfig{
			Throttle: 2 * time.Second,
		},
		Backup: BackupConfig{
			LocalDir: "./backups",
			Keep:     backup.DefaultKeep,
		},
	}
}
