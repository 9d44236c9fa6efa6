package ecs

import (
	"fmt"
	"runtime"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config tunes a World. Zero values fall back to defaults.
type Config struct {
	// InitialCapacity pre-sizes the identity store.
	InitialCapacity int `env:"ECS_INITIAL_CAPACITY" envDefault:"1024"`
	// Workers bounds ParallelEach fan-out; 0 means GOMAXPROCS.
	Workers int `env:"ECS_WORKERS" envDefault:"0"`
	// MaxFrameDelta clamps the delta Run hands to Update; 0 disables clamping.
	MaxFrameDelta time.Duration `env:"ECS_MAX_FRAME_DELTA" envDefault:"250ms"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		InitialCapacity: 1024,
		MaxFrameDelta:   250 * time.Millisecond,
	}.normalized()
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg.normalized(), nil
}

func (c Config) normalized() Config {
	if c.InitialCapacity < 0 {
		c.InitialCapacity = 0
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.MaxFrameDelta < 0 {
		c.MaxFrameDelta = 0
	}
	return c
}
