// Package config loads feed-pager settings from a YAML file, environment
// variables prefixed FEED_PAGER_, and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/lepinkainen/feed-pager/pkg/filesystem"
	"github.com/lepinkainen/feed-pager/pkg/urlutils"
)

// EnvPrefix is prepended to environment overrides, e.g. FEED_PAGER_API_BASE_URL
const EnvPrefix = "FEED_PAGER"

// Config holds the central application configuration
type Config struct {
	API struct {
		BaseURL           string        `mapstructure:"base_url" yaml:"base_url"`
		PageEndpoint      string        `mapstructure:"page_endpoint" yaml:"page_endpoint"`
		LogEndpoint       string        `mapstructure:"log_endpoint" yaml:"log_endpoint"`
		Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
		MinInterval       time.Duration `mapstructure:"min_interval" yaml:"min_interval"` // Minimum delay between page requests
		Burst             int           `mapstructure:"burst" yaml:"burst"`               // Requests allowed back to back before min_interval applies
		LogAttempts       int           `mapstructure:"log_attempts" yaml:"log_attempts"` // Attempts per read-log post
		UserAgent         string        `mapstructure:"user_agent" yaml:"user_agent"`
		SessionCookie     string        `mapstructure:"session_cookie" yaml:"session_cookie"`
		SessionCookieName string        `mapstructure:"session_cookie_name" yaml:"session_cookie_name"`
		BearerToken       string        `mapstructure:"bearer_token" yaml:"bearer_token"`
	} `mapstructure:"api" yaml:"api"`

	Assets struct {
		Placeholder string `mapstructure:"placeholder" yaml:"placeholder"`
		Favicon     string `mapstructure:"favicon" yaml:"favicon"`
		Base        string `mapstructure:"base" yaml:"base"` // Resolves relative asset paths; empty uses api.base_url
	} `mapstructure:"assets" yaml:"assets"`

	Pager struct {
		ContainerID string        `mapstructure:"container_id" yaml:"container_id"`
		Threshold   int           `mapstructure:"threshold" yaml:"threshold"`
		StartPage   int           `mapstructure:"start_page" yaml:"start_page"`
		LogTimeout  time.Duration `mapstructure:"log_timeout" yaml:"log_timeout"`
	} `mapstructure:"pager" yaml:"pager"`

	Render struct {
		Title        string   `mapstructure:"title" yaml:"title"`
		DateLayout   string   `mapstructure:"date_layout" yaml:"date_layout"`
		Stylesheets  []string `mapstructure:"stylesheets" yaml:"stylesheets"`
		MaxPages     int      `mapstructure:"max_pages" yaml:"max_pages"`         // 0 means until the feed ends
		TemplatesDir string   `mapstructure:"templates_dir" yaml:"templates_dir"` // Searched for page.tmpl and card.tmpl before the embedded copies
	} `mapstructure:"render" yaml:"render"`

	Browse struct {
		Opener      string `mapstructure:"opener" yaml:"opener"` // Command used to open links; empty picks the system default
		RowsPerCard int    `mapstructure:"rows_per_card" yaml:"rows_per_card"`
	} `mapstructure:"browse" yaml:"browse"`

	History struct {
		Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
		Path      string        `mapstructure:"path" yaml:"path"`
		Retention time.Duration `mapstructure:"retention" yaml:"retention"`
	} `mapstructure:"history" yaml:"history"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:5090")
	v.SetDefault("api.page_endpoint", "/rssfeeds/api")
	v.SetDefault("api.log_endpoint", "/rssfeeds/log")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("api.min_interval", time.Duration(0))
	v.SetDefault("api.burst", 0)
	v.SetDefault("api.log_attempts", 2)
	v.SetDefault("api.user_agent", "feed-pager/1.0")
	v.SetDefault("api.session_cookie", "")
	v.SetDefault("api.session_cookie_name", "session")
	v.SetDefault("api.bearer_token", "")

	v.SetDefault("assets.placeholder", "/static/assets/img/default-placeholder.png")
	v.SetDefault("assets.favicon", "/static/assets/img/favicon.png")
	v.SetDefault("assets.base", "")

	v.SetDefault("pager.container_id", "posts-container")
	v.SetDefault("pager.threshold", 50)
	v.SetDefault("pager.start_page", 1)
	v.SetDefault("pager.log_timeout", 10*time.Second)

	v.SetDefault("render.title", "Feed")
	v.SetDefault("render.date_layout", "")
	v.SetDefault("render.stylesheets", []string{})
	v.SetDefault("render.max_pages", 0)
	v.SetDefault("render.templates_dir", "templates")

	v.SetDefault("browse.opener", "")
	v.SetDefault("browse.rows_per_card", 4)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "")
	v.SetDefault("history.retention", 90*24*time.Hour)
}

// LoadConfig loads the configuration from a file or an http(s) URL. A
// missing file is not an error; defaults and environment variables still
// apply. A remote file that cannot be fetched is.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = "config.yaml"
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	switch {
	case isRemote(path):
		data, err := fetchRemote(path)
		if err != nil {
			return nil, err
		}
		v.SetConfigType("yaml")
		if err := v.ReadConfig(data); err != nil {
			return nil, fmt.Errorf("error reading remote config: %w", err)
		}
	default:
		if resolved, ok := resolvePath(path); ok {
			v.SetConfigFile(resolved)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// resolvePath finds path in the working directory, then next to the executable
func resolvePath(path string) (string, bool) {
	if _, err := os.Stat(path); err == nil {
		return path, true
	}
	if filepath.IsAbs(path) {
		return "", false
	}

	if execPath, err := filesystem.GetDefaultPath(path); err == nil {
		if _, err := os.Stat(execPath); err == nil {
			return execPath, true
		}
	}
	return "", false
}

// Validate checks settings that would make the client unusable
func (c *Config) Validate() error {
	var errs []error

	if !urlutils.IsValidURL(c.API.BaseURL) {
		errs = append(errs, fmt.Errorf("api.base_url must be an absolute URL, got %q", c.API.BaseURL))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("api.timeout must be positive"))
	}
	if c.API.MinInterval < 0 || c.API.Burst < 0 {
		errs = append(errs, errors.New("api.min_interval and api.burst must not be negative"))
	}
	if c.API.LogAttempts < 1 {
		errs = append(errs, errors.New("api.log_attempts must be at least 1"))
	}
	if c.Pager.ContainerID == "" {
		errs = append(errs, errors.New("pager.container_id is required"))
	}
	if c.Pager.Threshold < 1 {
		errs = append(errs, errors.New("pager.threshold must be positive"))
	}
	if c.Pager.LogTimeout <= 0 {
		errs = append(errs, errors.New("pager.log_timeout must be positive"))
	}
	if c.Pager.StartPage < 1 {
		errs = append(errs, errors.New("pager.start_page must be at least 1"))
	}
	if c.Browse.RowsPerCard < 1 {
		errs = append(errs, errors.New("browse.rows_per_card must be at least 1"))
	}

	return errors.Join(errs...)
}

// AssetBase returns the base used to resolve relative asset paths
func (c *Config) AssetBase() string {
	if c.Assets.Base != "" {
		return c.Assets.Base
	}
	return c.API.BaseURL
}
