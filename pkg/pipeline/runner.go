package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gridstitch/gridstitch/pkg/cache"
	"github.com/gridstitch/gridstitch/pkg/compose"
	"github.com/gridstitch/gridstitch/pkg/exclusion"
	"github.com/gridstitch/gridstitch/pkg/layout"
	"github.com/gridstitch/gridstitch/pkg/offset"
	"github.com/gridstitch/gridstitch/pkg/points"
	"github.com/gridstitch/gridstitch/pkg/tile"
)

// Runner encapsulates pipeline execution with caching.
// Both the CLI and the preview server use this to avoid duplicating
// caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// applyLogger fills in the options logger from the runner when unset.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// Execute runs the complete catalog → offset → layout → compose pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{}

	// Stage 1: Catalog
	catalogStart := time.Now()
	catalog, err := tile.Build(opts.Path, opts.parser(),
		tile.WithLabel(opts.Label), tile.WithLogger(opts.Logger))
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	result.Catalog = catalog
	result.Stats.CatalogTime = time.Since(catalogStart)
	result.Stats.TileCount = catalog.Len()

	store, err := exclusion.Load(opts.Path, opts.parser(), exclusion.WithLogger(opts.Logger))
	if err != nil {
		return nil, fmt.Errorf("exclusions: %w", err)
	}
	result.Stats.ExcludedCount = store.Len()

	r.Logger.Info("cataloged tiles",
		"tiles", catalog.Len(),
		"excluded", store.Len(),
		"duration", result.Stats.CatalogTime)

	// Stage 2: Offset
	offsetStart := time.Now()
	off, offsetHit, err := r.EstimateOffsetWithCacheInfo(ctx, catalog, opts)
	if err != nil {
		return nil, fmt.Errorf("offset: %w", err)
	}
	result.Offset = off
	result.Stats.OffsetTime = time.Since(offsetStart)
	result.CacheInfo.OffsetHit = offsetHit

	r.Logger.Info("resolved tile offset",
		"offset", off,
		"cached", offsetHit,
		"duration", result.Stats.OffsetTime)

	// Stage 3: Layout
	layoutStart := time.Now()
	tileW, tileH, dimsHit, err := r.TileDimensionsWithCacheInfo(ctx, catalog, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.CacheInfo.DimsHit = dimsHit
	l, err := layout.AssembleWithDimensions(catalog, off, store, tileW, tileH)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.GapCount = len(l.Gaps())

	r.Logger.Info("assembled layout",
		"canvas", fmt.Sprintf("%dx%d", l.Width, l.Height),
		"gaps", result.Stats.GapCount,
		"duration", result.Stats.LayoutTime)

	// Stage 4: Compose
	composeStart := time.Now()
	report, err := compose.Compose(ctx, l, opts.Output, compose.Options{
		Background:       opts.background,
		GapColor:         opts.gapColor,
		AnnotateGaps:     opts.AnnotateGaps,
		Derivative:       opts.Derivative,
		DerivativeMaxDim: opts.DerivativeMaxDim,
		JPEGQuality:      opts.JPEGQuality,
		Logger:           opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("compose: %w", err)
	}
	result.Report = report
	result.Stats.ComposeTime = time.Since(composeStart)

	if opts.Points {
		path := opts.PointsPath()
		if err := points.WriteFile(path, l); err != nil {
			return nil, fmt.Errorf("points: %w", err)
		}
		result.PointsPath = path
	}

	r.Logger.Info("composed mosaic",
		"output", report.OutputPath,
		"tiles", report.TilesDrawn,
		"gaps", report.Gaps,
		"duration", result.Stats.ComposeTime)

	return result, nil
}

// cachedOffset is the serialized form of an offset estimate.
type cachedOffset struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

// EstimateOffsetWithCacheInfo resolves the tile offset with caching and
// returns cache hit info. Configured offsets bypass estimation and the
// cache entirely.
func (r *Runner) EstimateOffsetWithCacheInfo(ctx context.Context, catalog *tile.Catalog, opts Options) (offset.Offset, bool, error) {
	cfg := offset.Config{
		DX:          opts.OffsetDX,
		DY:          opts.OffsetDY,
		SamplePairs: opts.SamplePairs,
		Logger:      opts.Logger,
	}
	if cfg.Manual() {
		off, err := offset.Estimate(catalog, tile.LoadImage, cfg)
		return off, false, err
	}

	listingHash := cache.Hash([]byte(catalog.Listing()))
	cacheKey := r.Keyer.OffsetKey(listingHash, cache.OffsetKeyOpts{
		SamplePairs: opts.SamplePairs,
		Strategy:    "ncc",
	})

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit := r.cacheGet(ctx, cacheKey); hit {
			var c cachedOffset
			if err := json.Unmarshal(data, &c); err == nil {
				return offset.Offset{DX: c.DX, DY: c.DY}, true, nil // Cache hit
			}
		}
	}

	off, err := offset.Estimate(catalog, tile.LoadImage, cfg)
	if err != nil {
		return offset.Offset{}, false, err
	}

	// Cache the result
	if data, err := json.Marshal(cachedOffset{DX: off.DX, DY: off.DY}); err == nil {
		r.cacheSet(ctx, cacheKey, data, cache.TTLOffset)
	}

	return off, false, nil // Cache miss
}

// cachedDims is the serialized form of the probed tile dimensions.
type cachedDims struct {
	W int `json:"w"`
	H int `json:"h"`
}

// TileDimensionsWithCacheInfo resolves the uniform tile dimensions for
// catalog with caching and returns cache hit info. On a hit the per-tile
// header validation is skipped; the key embeds the catalog listing hash,
// so any added, renamed, or removed tile invalidates the entry.
func (r *Runner) TileDimensionsWithCacheInfo(ctx context.Context, catalog *tile.Catalog, opts Options) (tileW, tileH int, hit bool, err error) {
	listingHash := cache.Hash([]byte(catalog.Listing()))
	cacheKey := r.Keyer.DimsKey(listingHash)

	if !opts.Refresh {
		if data, ok := r.cacheGet(ctx, cacheKey); ok {
			var c cachedDims
			if err := json.Unmarshal(data, &c); err == nil && c.W > 0 && c.H > 0 {
				return c.W, c.H, true, nil // Cache hit
			}
		}
	}

	tileW, tileH, err = layout.ReadUniformDimensions(catalog)
	if err != nil {
		return 0, 0, false, err
	}

	if data, err := json.Marshal(cachedDims{W: tileW, H: tileH}); err == nil {
		r.cacheSet(ctx, cacheKey, data, cache.TTLDims)
	}
	return tileW, tileH, false, nil // Cache miss
}

// cacheGet reads a key, retrying transient backend failures. A failed read
// degrades to a miss; caching is never load-bearing.
func (r *Runner) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	var data []byte
	var hit bool
	err := cache.RetryWithBackoff(ctx, func() error {
		var err error
		data, hit, err = r.Cache.Get(ctx, key)
		return err
	})
	if err != nil {
		r.Logger.Warn("cache read failed", "key", key, "err", err)
		return nil, false
	}
	return data, hit
}

// cacheSet stores a key, retrying transient backend failures.
func (r *Runner) cacheSet(ctx context.Context, key string, data []byte, ttl time.Duration) {
	err := cache.RetryWithBackoff(ctx, func() error {
		return r.Cache.Set(ctx, key, data, ttl)
	})
	if err != nil {
		r.Logger.Warn("cache write failed", "key", key, "err", err)
	}
}

// EstimateOffset is a convenience wrapper that discards the cache hit info.
func (r *Runner) EstimateOffset(ctx context.Context, catalog *tile.Catalog, opts Options) (offset.Offset, error) {
	off, _, err := r.EstimateOffsetWithCacheInfo(ctx, catalog, opts)
	return off, err
}
