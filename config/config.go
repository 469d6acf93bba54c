package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Common errors
var (
	ErrConfigurationError = errors.New("configuration error")
)

// ConfigError represents a configuration error with field context.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

func (e *ConfigError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrConfigurationError
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// Editor holds the tunable settings of the annotation editor core.
type Editor struct {
	// HistoryCap bounds each page's undo and redo stacks. Oldest
	// snapshots are evicted first.
	HistoryCap int `yaml:"history-cap" json:"history_cap"`

	// MinDragPx is the minimum bounding-box extent, in device pixels,
	// below which a drag-built annotation is discarded on pointer-up.
	MinDragPx float64 `yaml:"min-drag-px" json:"min_drag_px"`

	// DefaultFontFamily is used for text annotations that do not name
	// a family of their own.
	DefaultFontFamily string `yaml:"default-font-family" json:"default_font_family"`

	// DefaultFontSize in canvas pixels.
	DefaultFontSize float64 `yaml:"default-font-size" json:"default_font_size"`

	// Producer is written into exported document metadata.
	Producer string `yaml:"producer" json:"producer"`

	// EnableFieldScripts turns on per-field validation scripts in
	// fill mode.
	EnableFieldScripts bool `yaml:"enable-field-scripts" json:"enable_field_scripts"`

	// EnableTextCapture turns on text recognition under finalized
	// highlights when a recognition engine is configured.
	EnableTextCapture bool `yaml:"enable-text-capture" json:"enable_text_capture"`

	// RecognizeLanguages are language hints passed to the recognizer.
	RecognizeLanguages []string `yaml:"recognize-languages" json:"recognize_languages,omitempty"`
}

// Default returns the editor configuration used when no file is given.
func Default() Editor {
	return Editor{
		HistoryCap:        50,
		MinDragPx:         5,
		DefaultFontFamily: "Helvetica",
		DefaultFontSize:   14,
		Producer:          "docmark",
	}
}

// Load reads an editor configuration from a YAML file, applying defaults
// for absent fields and validating the result.
func Load(path string) (Editor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Editor{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML document into an Editor configuration.
func Parse(data []byte) (Editor, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Editor{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Editor{}, err
	}
	return cfg, nil
}

// Validate checks field ranges.
func (c Editor) Validate() error {
	if c.HistoryCap < 2 {
		return NewConfigError("history-cap", "must be at least 2 (seed snapshot plus one change)")
	}
	if c.MinDragPx < 0 {
		return NewConfigError("min-drag-px", "must not be negative")
	}
	if c.DefaultFontSize <= 0 {
		return NewConfigError("default-font-size", "must be positive")
	}
	return nil
}
