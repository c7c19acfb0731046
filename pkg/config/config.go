// Package config provides the configuration for mmsync.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/duration"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// ErrNilConfig is returned when a nil config is passed to a function that
// requires one.
var ErrNilConfig = errors.New("nil config")

// Duration is a time.Duration that also accepts extended units such as
// "1d" in YAML and environment values.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := duration.Parse(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// ServerConfig is the connection configuration for the Mattermost server.
type ServerConfig struct {
	// URL is the base URL of the Mattermost server.
	URL string `env:"URL" yaml:"url"`

	// Token is a personal access token or bot token with admin rights.
	Token string `env:"TOKEN" yaml:"-"`

	// AdminUser is the login id used when no token is configured.
	AdminUser string `env:"ADMIN_USER" yaml:"-"`

	// AdminPass is the password used when no token is configured.
	AdminPass string `env:"ADMIN_PASS" yaml:"-"`
}

// ImportConfig drives the CSV import and reconciliation pass.
type ImportConfig struct {
	// DefaultTeam is the display name of the team every imported member
	// joins. Its slug is derived from this name.
	DefaultTeam string `env:"DEFAULT_TEAM" yaml:"default_team"`

	// DefaultChannels are channel labels every imported member joins.
	// These channels are expected to exist already.
	DefaultChannels []string `env:"DEFAULT_CHANNELS" envSeparator:"," yaml:"default_channels"`

	// TagChannels maps a tag from the CSV "tags" column to one or more
	// channel labels the member should join.
	TagChannels map[string][]string `yaml:"tag_channels"`

	// EnableWetRun allows mutating runs without an explicit --execute flag.
	EnableWetRun bool `env:"ENABLE_WET_RUN" yaml:"enable_wet_run"`

	// RateLimitDelay is an optional delay between rows to stay under the
	// server's rate limit.
	RateLimitDelay Duration `env:"RATE_LIMIT_DELAY" yaml:"rate_limit_delay"`
}

// MailConfig is the configuration for welcome mail delivery.
type MailConfig struct {
	// Enabled is whether welcome mails are sent to newly created users.
	Enabled bool `env:"ENABLED" yaml:"enabled"`

	// Host is the SMTP server host.
	Host string `env:"HOST" yaml:"host"`

	// Port is the SMTP server port.
	Port int `env:"PORT" yaml:"port"`

	// User is the SMTP username.
	User string `env:"USER" yaml:"-"`

	// Pass is the SMTP password.
	Pass string `env:"PASS" yaml:"-"`

	// From is the sender address.
	From string `env:"FROM" yaml:"from"`

	// SiteName is the human-readable name used in the mail body.
	SiteName string `env:"SITE_NAME" yaml:"site_name"`
}

// DBConfig is the database connection configuration for the purge commands.
type DBConfig struct {
	// DataSource is the postgres data source name of the Mattermost
	// database.
	DataSource string `env:"DATA_SOURCE" yaml:"data_source"`
}

// LogConfig is the logger configuration.
type LogConfig struct {
	// Format is the format of the logs.
	// Valid values are "json", "logfmt", and "text".
	Format string `env:"FORMAT" yaml:"format"`

	// Time format for the log `ts` field.
	// Format must be described in Golang's time format.
	TimeFormat string `env:"TIME_FORMAT" yaml:"time_format"`

	// Path to a file to write logs to.
	// If not set, logs will be written to stderr.
	Path string `env:"PATH" yaml:"path"`
}

// Config is the configuration for mmsync.
type Config struct {
	// Server is the Mattermost server connection configuration.
	Server ServerConfig `envPrefix:"SERVER_" yaml:"server"`

	// Import is the configuration for the import command.
	Import ImportConfig `envPrefix:"IMPORT_" yaml:"import"`

	// Mail is the welcome mail configuration.
	Mail MailConfig `envPrefix:"MAIL_" yaml:"mail"`

	// DB is the Mattermost database configuration for purge.
	DB DBConfig `envPrefix:"DB_" yaml:"db"`

	// Log is the logger configuration.
	Log LogConfig `envPrefix:"LOG_" yaml:"log"`
}

// IsDebug returns true if mmsync is running in debug mode.
func IsDebug() bool {
	debug, _ := strconv.ParseBool(os.Getenv("MMSYNC_DEBUG"))
	return debug
}

// IsVerbose returns true if mmsync is running in verbose mode.
// Verbose mode is only enabled if debug mode is enabled.
func IsVerbose() bool {
	verbose, _ := strconv.ParseBool(os.Getenv("MMSYNC_VERBOSE"))
	return IsDebug() && verbose
}

const defaultConfigPath = "config.yaml"

// parseFile parses the given file as a configuration file.
// The file must be in YAML format.
func parseFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}

	defer f.Close() // nolint: errcheck
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	return cfg.Validate()
}

// ParseFile parses the config from the given file path.
// This also calls Validate() on the config.
func (c *Config) ParseFile(path string) error {
	return parseFile(c, path)
}

// parseEnv parses the environment variables as a configuration file.
func parseEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{
		Prefix: "MMSYNC_",
	}); err != nil {
		return fmt.Errorf("parse environment variables: %w", err)
	}

	return cfg.Validate()
}

// ParseEnv parses the config from the environment variables.
// This also calls Validate() on the config.
func (c *Config) ParseEnv() error {
	return parseEnv(c)
}

// Parse parses the config from the given file path, if any, and then from
// the environment variables. When no path is given, the default
// "config.yaml" is used if it exists. This also calls Validate() on the
// config.
func (c *Config) Parse(path string) error {
	if path == "" && exist(defaultConfigPath) {
		path = defaultConfigPath
	}

	if path != "" {
		if err := c.ParseFile(path); err != nil {
			return err
		}
	}

	return c.ParseEnv()
}

func exist(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// DefaultConfig returns the default Config.
// Use Validate() to validate the config.
func DefaultConfig() *Config {
	return &Config{
		Import: ImportConfig{
			RateLimitDelay: Duration(200 * time.Millisecond),
		},
		Mail: MailConfig{
			Port:     587,
			SiteName: "Mattermost",
		},
		Log: LogConfig{
			Format:     "text",
			TimeFormat: time.DateTime,
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}

	c.Server.URL = strings.TrimSuffix(strings.TrimSpace(c.Server.URL), "/")

	for i, ch := range c.Import.DefaultChannels {
		c.Import.DefaultChannels[i] = strings.TrimSpace(ch)
	}

	return nil
}

// HasToken returns true if a server token is configured.
func (c *Config) HasToken() bool {
	return c.Server.Token != ""
}

// HasCredentials returns true if an admin username and password are
// configured.
func (c *Config) HasCredentials() bool {
	return c.Server.AdminUser != "" && c.Server.AdminPass != ""
}
