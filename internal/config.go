package internal

import (
	"fmt"
	"log/slog"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/othala/internal/models"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

var languageCodeRe = regexp.MustCompile(`^[a-z]{2}$`)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Committer CommitterConfig   `yaml:"committer"`
	Languages LanguagesConfig   `yaml:"languages"`
	Drafts    DraftsConfig      `yaml:"drafts"`
	Remote    RemoteConfig      `yaml:"remote"`
	Auth      AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Committer.Validate(); err != nil {
		return err
	}
	if err := c.Languages.Validate(); err != nil {
		return err
	}
	if err := c.Drafts.Validate(); err != nil {
		return err
	}
	if err := c.Remote.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
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

// CommitterConfig identifies the author stamped on server-side commits.
type CommitterConfig struct {
	Author string `yaml:"author"`
	Email  string `yaml:"email"`
}

// Validate validates the committer configuration.
func (c *CommitterConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Author, validation.Required),
		validation.Field(&c.Email, validation.Required),
	)
}

// LanguagesConfig holds the translation language set.
type LanguagesConfig struct {
	Default   string            `yaml:"default"`
	Available []models.Language `yaml:"available"`
}

// Validate validates the language configuration. The default language must
// be listed among the available ones.
func (c *LanguagesConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Default, validation.Required, validation.Match(languageCodeRe)),
		validation.Field(&c.Available, validation.Required),
	); err != nil {
		return err
	}
	found := false
	for _, l := range c.Available {
		if !languageCodeRe.MatchString(l.Code) {
			return fmt.Errorf("languages: invalid code %q", l.Code)
		}
		if l.Name == "" {
			return fmt.Errorf("languages: %q has no display name", l.Code)
		}
		if l.Code == c.Default {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("languages: default %q is not among the available languages", c.Default)
	}
	return nil
}

// TranslationInfo returns the wire form of the language set.
func (c *LanguagesConfig) TranslationInfo() models.TranslationInfo {
	return models.TranslationInfo{
		DefaultLanguage: c.Default,
		Languages:       c.Available,
	}
}

// DraftsConfig holds the local draft stash configuration.
type DraftsConfig struct {
	Path     string `yaml:"path"`
	Checkout string `yaml:"checkout"`
}

// Validate validates the drafts configuration.
func (c *DraftsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Checkout, validation.Required),
	)
}

// RemoteConfig points client commands at a repository server. An empty
// BaseURL means no remote is configured; commands that need one must call
// Require.
type RemoteConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

// Validate validates the remote configuration.
func (c *RemoteConfig) Validate() error {
	return nil
}

// Require returns an error unless a remote base URL is configured.
func (c *RemoteConfig) Require() error {
	if c.BaseURL == "" {
		return fmt.Errorf("remote: base_url is not configured")
	}
	return nil
}

// AuthConfig holds authentication configuration for the server.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
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

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Committer: CommitterConfig{
			Author: "Othala",
			Email:  "othala@localhost",
		},
		Languages: LanguagesConfig{
			Default: "en",
			Available: []models.Language{
				{Code: "en", Name: "English"},
			},
		},
		Drafts: DraftsConfig{
			Path:     "./othala.db",
			Checkout: "./checkout",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
