// Package config provides configuration management for the esign editor.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all tunable settings for the editor core.
// Configuration precedence: CLI flags > Environment variables > Config file > Defaults
type Config struct {
	// ZoomMin and ZoomMax bound the editor zoom factor. SetZoom clamps
	// silently into this range.
	ZoomMin float64
	ZoomMax float64

	// ZoomStep is the increment used by the toolbar zoom buttons.
	ZoomStep float64

	// MinElementWidth and MinElementHeight are the resize floors in
	// document units. Resizing never produces an element smaller than this,
	// which keeps corner handles grabbable.
	MinElementWidth  float64
	MinElementHeight float64

	// ClickThreshold is the pointer travel (screen pixels) below which a
	// press-release is treated as a click rather than a drag.
	ClickThreshold float64

	// MaxUploadBytes limits uploaded signature images.
	MaxUploadBytes int64

	// CaptureWidth and CaptureHeight are the off-screen surface dimensions
	// used when rendering a typed signature to an image.
	CaptureWidth  int
	CaptureHeight int

	// CaptureFontSize is the point size for typed signatures.
	CaptureFontSize float64

	// PenWidth is the default draw-pad pen width (document units).
	PenWidth float64

	// PenColor is the default draw-pad pen color (hex).
	PenColor string

	// AbortOnBadElement makes compositing fail outright when an element's
	// content cannot be embedded. The default is to skip the element and
	// report it in the compositing result.
	AbortOnBadElement bool

	// LogLevel controls logging verbosity (debug, info, warn, error)
	LogLevel string

	// LogFormat selects console or json log output
	LogFormat string
}

// Default element geometry, in document units at zoom 1. Signatures get a
// wide box because a captured signature image is landscape; checkboxes are
// small squares; text and date boxes sit in between. These mirror the sizes
// the on-screen editor uses so a toolbar-created element looks the same in
// the output document.
const (
	DefaultSignatureWidth  = 200.0
	DefaultSignatureHeight = 80.0
	DefaultCheckboxSize    = 24.0
	DefaultElementWidth    = 150.0
	DefaultElementHeight   = 40.0

	// DefaultPlacementX and DefaultPlacementY position elements created
	// without an explicit click location (toolbar buttons).
	DefaultPlacementX = 100.0
	DefaultPlacementY = 100.0

	// DefaultFontSize is the text/date element font size.
	DefaultFontSize = 24.0

	// DefaultColor is the text/date element color.
	DefaultColor = "#000000"
)

// Load reads configuration from multiple sources and returns a Config.
// Sources are checked in this order: env vars > config file > defaults.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
			v.SetConfigName(".esign")
			v.SetConfigType("yaml")
		}
	}

	// Config file is optional; env vars and defaults cover everything.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("ESIGN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cfg := fromViper(v)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns the built-in configuration without consulting files or
// the environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	return fromViper(v)
}

// fromViper builds a Config from resolved viper values
func fromViper(v *viper.Viper) *Config {
	return &Config{
		ZoomMin:           v.GetFloat64("zoom-min"),
		ZoomMax:           v.GetFloat64("zoom-max"),
		ZoomStep:          v.GetFloat64("zoom-step"),
		MinElementWidth:   v.GetFloat64("min-element-width"),
		MinElementHeight:  v.GetFloat64("min-element-height"),
		ClickThreshold:    v.GetFloat64("click-threshold"),
		MaxUploadBytes:    v.GetInt64("max-upload-bytes"),
		CaptureWidth:      v.GetInt("capture-width"),
		CaptureHeight:     v.GetInt("capture-height"),
		CaptureFontSize:   v.GetFloat64("capture-font-size"),
		PenWidth:          v.GetFloat64("pen-width"),
		PenColor:          v.GetString("pen-color"),
		AbortOnBadElement: v.GetBool("abort-on-bad-element"),
		LogLevel:          v.GetString("log-level"),
		LogFormat:         v.GetString("log-format"),
	}
}

// setDefaults registers default values with viper
func setDefaults(v *viper.Viper) {
	v.SetDefault("zoom-min", 0.25)
	v.SetDefault("zoom-max", 3.0)
	v.SetDefault("zoom-step", 0.25)
	v.SetDefault("min-element-width", 40.0)
	v.SetDefault("min-element-height", 20.0)
	v.SetDefault("click-threshold", 4.0)
	v.SetDefault("max-upload-bytes", int64(5*1024*1024))
	v.SetDefault("capture-width", 400)
	v.SetDefault("capture-height", 150)
	v.SetDefault("capture-font-size", 48.0)
	v.SetDefault("pen-width", 2.0)
	v.SetDefault("pen-color", "#000000")
	v.SetDefault("abort-on-bad-element", false)
	v.SetDefault("log-level", "info")
	v.SetDefault("log-format", "console")
}

// Validate checks configuration invariants
func (c *Config) Validate() error {
	if c.ZoomMin <= 0 {
		return fmt.Errorf("zoom-min must be positive, got %v", c.ZoomMin)
	}
	if c.ZoomMax < c.ZoomMin {
		return fmt.Errorf("zoom-max %v is below zoom-min %v", c.ZoomMax, c.ZoomMin)
	}
	if c.MinElementWidth <= 0 || c.MinElementHeight <= 0 {
		return fmt.Errorf("element size floors must be positive, got %vx%v",
			c.MinElementWidth, c.MinElementHeight)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max-upload-bytes must be positive, got %d", c.MaxUploadBytes)
	}
	if c.CaptureWidth <= 0 || c.CaptureHeight <= 0 {
		return fmt.Errorf("capture surface must be positive, got %dx%d",
			c.CaptureWidth, c.CaptureHeight)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return nil
}
