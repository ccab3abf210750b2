package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/patina/pkg/aging"
	"github.com/matzehuels/patina/pkg/cache"
	"github.com/matzehuels/patina/pkg/observability"
	"github.com/matzehuels/patina/pkg/preset"
	"github.com/matzehuels/patina/pkg/random"
)

// keyTypeArtifact labels artifact lookups in cache hooks.
const keyTypeArtifact = "artifact"

// Runner encapsulates pipeline execution with caching.
// The CLI, the server and the dataset preprocessor all use it.
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
// A nil keyer means cache.DefaultKeyer; a nil cache disables caching.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.DefaultKeyer{}
	}
	if c == nil {
		c = cache.Disabled("no cache configured")
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

// entry is the cached form of an artifact.
type entry struct {
	Artifact []byte       `json:"artifact"`
	Report   aging.Report `json:"report"`
	Width    int          `json:"width"`
	Height   int          `json:"height"`
}

// Execute decodes input, ages it with the resolved preset and encodes the
// result. Artifacts are cached by input hash, preset fingerprint, seed,
// format and quality; opts.Refresh skips the lookup but still stores the
// fresh artifact.
func (r *Runner) Execute(ctx context.Context, input []byte, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	p, err := preset.Resolve(opts.Preset, opts.PresetPath)
	if err != nil {
		return nil, err
	}
	ageOpts, err := p.Options()
	if err != nil {
		return nil, err
	}

	result := &Result{Format: opts.Format, Preset: p}
	result.Stats.InputSize = len(input)
	inputHash := cache.Hash(input)
	key := r.Keyer.ArtifactKey(inputHash, opts.ArtifactKeyOpts(p))

	if !opts.Refresh {
		if e, ok := r.lookup(ctx, key, opts.Logger); ok {
			result.Artifact = e.Artifact
			result.Report = e.Report
			result.Stats.Width, result.Stats.Height = e.Width, e.Height
			result.Stats.OutputSize = len(e.Artifact)
			result.CacheHit = true
			opts.Logger.Info("served from cache",
				"input", cache.Short(inputHash),
				"preset", p.Name,
				"seed", opts.Seed)
			return result, nil
		}
	}

	// Stage 1: Decode
	start := time.Now()
	img, err := Decode(input)
	if err != nil {
		return nil, err
	}
	result.Stats.DecodeTime = time.Since(start)
	b := img.Bounds()
	result.Stats.Width, result.Stats.Height = b.Dx(), b.Dy()

	// Stage 2: Age
	start = time.Now()
	aged, report, err := aging.Age(ctx, img, ageOpts, random.New(opts.Seed))
	if err != nil {
		return nil, err
	}
	result.Stats.AgeTime = time.Since(start)
	result.Image = aged
	result.Report = *report

	opts.Logger.Info("aged image",
		"size", b.Size(),
		"preset", p.Name,
		"seed", opts.Seed,
		"crack_length", report.CrackLength,
		"duration", result.Stats.AgeTime)

	// Stage 3: Encode
	start = time.Now()
	artifact, err := Encode(aged, opts.Format, opts.Quality)
	if err != nil {
		return nil, err
	}
	result.Stats.EncodeTime = time.Since(start)
	result.Artifact = artifact
	result.Stats.OutputSize = len(artifact)

	r.store(ctx, key, entry{
		Artifact: artifact,
		Report:   result.Report,
		Width:    result.Stats.Width,
		Height:   result.Stats.Height,
	}, opts.Logger)

	return result, nil
}

// lookup returns the cached entry for key. Backend failures and corrupt
// entries count as misses.
func (r *Runner) lookup(ctx context.Context, key string, logger *log.Logger) (entry, bool) {
	hooks := observability.Cache()
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		logger.Warn("cache lookup failed", "error", err)
	}
	if err != nil || !hit {
		hooks.OnCacheMiss(ctx, keyTypeArtifact)
		return entry{}, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil || len(e.Artifact) == 0 {
		logger.Debug("discarding corrupt cache entry", "key", key)
		hooks.OnCacheMiss(ctx, keyTypeArtifact)
		return entry{}, false
	}
	hooks.OnCacheHit(ctx, keyTypeArtifact)
	return e, true
}

// store caches e under key. Failures are logged, never returned: a run that
// produced an artifact succeeded even if the cache is down.
func (r *Runner) store(ctx context.Context, key string, e entry, logger *log.Logger) {
	data, err := json.Marshal(e)
	if err != nil {
		logger.Warn("encode cache entry", "error", err)
		return
	}
	if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
		logger.Warn("cache store failed", "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyTypeArtifact, len(data))
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
