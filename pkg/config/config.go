// Package config loads gridstitch.toml, the per-dataset configuration
// file. Every field is optional; command-line flags override file values
// and the file overrides built-in defaults.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/gridstitch/gridstitch/pkg/cache"
	"github.com/gridstitch/gridstitch/pkg/pipeline"
)

// FileName is the configuration file looked up in the tile directory.
const FileName = "gridstitch.toml"

// Cache backend identifiers for Cache.Backend.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config mirrors the gridstitch.toml layout.
type Config struct {
	Pattern string `toml:"pattern"`
	Cols    int    `toml:"cols"`
	Label   string `toml:"label"`

	Offset Offset `toml:"offset"`
	Output Output `toml:"output"`
	Cache  Cache  `toml:"cache"`
}

// Offset configures the displacement stage. A non-zero dx/dy pair skips
// cross-correlation entirely.
type Offset struct {
	DX          int `toml:"dx"`
	DY          int `toml:"dy"`
	SamplePairs int `toml:"sample_pairs"`
}

// Output configures the compose stage.
type Output struct {
	File             string `toml:"file"`
	Background       string `toml:"background"` // hex color, e.g. "#000000"
	GapColor         string `toml:"gap_color"`  // hex color for placeholder rectangles
	Derivative       bool   `toml:"derivative"`
	DerivativeMaxDim int    `toml:"derivative_max_dim"`
	JPEGQuality      int    `toml:"jpeg_quality"`
	AnnotateGaps     bool   `toml:"annotate_gaps"`
	Points           bool   `toml:"points"`
}

// Cache selects and configures the cache backend.
type Cache struct {
	Backend       string `toml:"backend"` // file, redis, or none
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	Scope         string `toml:"scope"` // key prefix for shared backends
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Pattern: pipeline.PatternGrid,
		Cache:   Cache{Backend: BackendFile},
	}
}

// Load reads gridstitch.toml from dir. A missing file is not an error;
// the defaults are returned.
func Load(dir string) (Config, error) {
	cfg := Default()
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// PipelineOptions converts the configuration into pipeline options for the
// given tile directory. Flag handling layers on top of the result.
func (c Config) PipelineOptions(dir string) pipeline.Options {
	opts := pipeline.Options{
		Path:             dir,
		Pattern:          c.Pattern,
		Cols:             c.Cols,
		Label:            c.Label,
		OffsetDX:         c.Offset.DX,
		OffsetDY:         c.Offset.DY,
		SamplePairs:      c.Offset.SamplePairs,
		Background:       c.Output.Background,
		GapColor:         c.Output.GapColor,
		Derivative:       c.Output.Derivative,
		DerivativeMaxDim: c.Output.DerivativeMaxDim,
		JPEGQuality:      c.Output.JPEGQuality,
		AnnotateGaps:     c.Output.AnnotateGaps,
		Points:           c.Output.Points,
	}
	if c.Output.File != "" {
		opts.Output = filepath.Join(dir, c.Output.File)
	}
	return opts
}

// OpenCache builds the configured cache backend and keyer. The caller owns
// the returned cache and must Close it.
func (c Config) OpenCache(ctx context.Context, dir string) (cache.Cache, cache.Keyer, error) {
	keyer := cache.NewDefaultKeyer()
	if c.Cache.Scope != "" {
		keyer = cache.NewScopedKeyer(keyer, c.Cache.Scope+":")
	}

	switch c.Cache.Backend {
	case BackendNone:
		return cache.NewNullCache(), keyer, nil
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return nil, nil, fmt.Errorf("cache backend %q requires redis_addr", BackendRedis)
		}
		store, err := cache.NewRedisCache(ctx, c.Cache.RedisAddr, c.Cache.RedisPassword, c.Cache.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return store, keyer, nil
	case BackendFile, "":
		cacheDir := c.Cache.Dir
		if cacheDir == "" {
			cacheDir = filepath.Join(dir, ".gridstitch", "cache")
		}
		store, err := cache.NewFileCache(cacheDir)
		if err != nil {
			return nil, nil, err
		}
		return store, keyer, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
}

// CacheDir resolves the file cache directory for dir, mirroring OpenCache.
func (c Config) CacheDir(dir string) string {
	if c.Cache.Dir != "" {
		return c.Cache.Dir
	}
	return filepath.Join(dir, ".gridstitch", "cache")
}
