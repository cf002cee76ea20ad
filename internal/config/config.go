// Package config loads display and runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/caarlos0/env/v11"
)

// Prefix is prepended to every variable name, e.g. GASDEMO_FPS.
const Prefix = "GASDEMO_"

// ErrInvalid is returned when a variable parses but is out of range.
var ErrInvalid = errors.New("config: invalid value")

// Config controls the window, frame pacing and engine parallelism.
type Config struct {
	Width         int    `env:"WIDTH"          envDefault:"1920"`
	Height        int    `env:"HEIGHT"         envDefault:"1080"`
	FPS           int    `env:"FPS"            envDefault:"60"`
	Microsteps    int    `env:"MICROSTEPS"     envDefault:"1"`
	Workers       int    `env:"WORKERS"        envDefault:"0"`
	ShowFPS       bool   `env:"SHOW_FPS"       envDefault:"false"`
	Fullscreen    bool   `env:"FULLSCREEN"     envDefault:"true"`
	VelocityMode  string `env:"VELOCITY_MODE"  envDefault:"accumulate"`
	ScreenshotDir string `env:"SCREENSHOT_DIR" envDefault:"screenshots"`
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return parse(env.Options{Prefix: Prefix})
}

// LoadFrom reads the configuration from environ instead of the process
// environment.
func LoadFrom(environ map[string]string) (Config, error) {
	return parse(env.Options{Prefix: Prefix, Environment: environ})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Config{}, fmt.Errorf("%w: screen %dx%d", ErrInvalid, cfg.Width, cfg.Height)
	}
	if cfg.FPS <= 0 {
		return Config{}, fmt.Errorf("%w: fps %d", ErrInvalid, cfg.FPS)
	}
	if cfg.Microsteps < 1 {
		return Config{}, fmt.Errorf("%w: microsteps %d", ErrInvalid, cfg.Microsteps)
	}
	if cfg.Workers < 0 {
		return Config{}, fmt.Errorf("%w: workers %d", ErrInvalid, cfg.Workers)
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return cfg, nil
}
