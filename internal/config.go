package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/marbeck/flashdeck/internal/study"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Store  StoreConfig       `yaml:"store"`
	Mirror MirrorConfig      `yaml:"mirror"`
	Media  MediaConfig       `yaml:"media"`
	Seeds  SeedsConfig       `yaml:"seeds"`
	Study  StudyConfig       `yaml:"study"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Mirror.Validate(); err != nil {
		return err
	}
	if err := c.Media.Validate(); err != nil {
		return err
	}
	return c.Study.Validate()
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

// StoreConfig holds the SQLite deck store configuration.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// MirrorConfig holds the local durable mirror configuration. The
// mirror is the JSON snapshot the server falls back to when the store
// cannot be read.
type MirrorConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the mirror configuration.
func (c *MirrorConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// MediaConfig holds the card image storage configuration.
type MediaConfig struct {
	Dir string `yaml:"dir"`
}

// Validate validates the media configuration.
func (c *MediaConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
	)
}

// SeedsConfig holds the seed decks directory. Empty disables seeding.
type SeedsConfig struct {
	Dir string `yaml:"dir"`
}

// StudyConfig tunes practice-mode card sequencing. A zero WrongOffset
// means the default reinsertion distance; CorrectOffset zero means
// correct cards go to the end of the queue.
type StudyConfig struct {
	WrongOffset   int `yaml:"wrong_offset"`
	CorrectOffset int `yaml:"correct_offset"`
}

// Validate validates the study configuration.
func (c *StudyConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.WrongOffset, validation.Min(0)),
		validation.Field(&c.CorrectOffset, validation.Min(0)),
	)
}

// EngineConfig converts the section into the study engine's config.
func (c *StudyConfig) EngineConfig() study.Config {
	return study.Config{
		WrongOffset:   c.WrongOffset,
		CorrectOffset: c.CorrectOffset,
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
		Store: StoreConfig{
			Path: "./data/flashdeck.db",
		},
		Mirror: MirrorConfig{
			Path: "./data/decks.json",
		},
		Media: MediaConfig{
			Dir: "./data/media",
		},
		Seeds: SeedsConfig{
			Dir: "./seeds",
		},
	}
}
