// Package config resolves run settings from flags, environment and the config file.
package config

import (
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/spf13/viper"

	"github.com/atikulmunna/pixelog/internal/finder"
	"github.com/atikulmunna/pixelog/internal/pixel"
)

// Keys understood in the config file, as PIXELOG_* environment variables and as flags.
const (
	KeyDays      = "days"
	KeyPixelPath = "pixel-path"
	KeySettle    = "settle"
	KeyVerbose   = "verbose"
	KeyNoColor   = "no-color"
)

// EnvPrefix is prepended to environment variable names.
const EnvPrefix = "PIXELOG"

// DefaultSettle is how long watch mode waits for a new file to stop changing.
const DefaultSettle = 2 * time.Second

// Config holds the resolved settings of a run.
type Config struct {
	Days      int
	PixelPath string
	Settle    time.Duration
	Verbose   bool
	NoColor   bool
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDays, finder.DefaultDays)
	v.SetDefault(KeyPixelPath, pixel.DefaultPath)
	v.SetDefault(KeySettle, DefaultSettle)
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyNoColor, false)
}

// FromViper reads and validates a Config.
func FromViper(v *viper.Viper) (Config, error) {
	SetDefaults(v)
	cfg := Config{
		Days:      v.GetInt(KeyDays),
		PixelPath: v.GetString(KeyPixelPath),
		Settle:    v.GetDuration(KeySettle),
		Verbose:   v.GetBool(KeyVerbose),
		NoColor:   v.GetBool(KeyNoColor),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the settings are usable.
func (c Config) Validate() error {
	var errs []error
	if c.Days < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative, got %d", KeyDays, c.Days))
	}
	if !path.IsAbs(c.PixelPath) {
		errs = append(errs, fmt.Errorf("%s must be an absolute URL path, got %q", KeyPixelPath, c.PixelPath))
	}
	if c.Settle <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %s", KeySettle, c.Settle))
	}
	return errors.Join(errs...)
}
