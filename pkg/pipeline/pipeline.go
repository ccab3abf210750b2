// Package pipeline provides the decode → age → encode pipeline for patina.
//
// The CLI, the HTTP server and the dataset preprocessor all run images
// through a [Runner]. Centralizing this keeps preset resolution, seeding,
// encoding and artifact caching identical across entry points.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, input, pipeline.Options{
//	    Preset: "lfw",
//	    Seed:   7,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("aged.jpg", result.Artifact, 0o644)
package pipeline

import (
	"fmt"
	"image"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/patina/pkg/aging"
	"github.com/matzehuels/patina/pkg/cache"
	"github.com/matzehuels/patina/pkg/errors"
	"github.com/matzehuels/patina/pkg/preset"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Dataset
// =============================================================================

const (
	// DefaultSeed is the default random seed for reproducibility.
	DefaultSeed = uint64(42)

	// DefaultQuality is the JPEG quality used when none is given.
	DefaultQuality = 95

	// DefaultFormat is the default artifact format.
	DefaultFormat = FormatJPEG
)

// Format constants for output formats.
const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJPEG: true,
	FormatPNG:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	Preset     string `json:"preset,omitempty"`      // built-in preset name
	PresetPath string `json:"preset_path,omitempty"` // preset file, wins over Preset
	Seed       uint64 `json:"seed,omitempty"`
	Format     string `json:"format,omitempty"`
	Quality    int    `json:"quality,omitempty"` // JPEG only
	Refresh    bool   `json:"refresh,omitempty"` // skip the cache lookup

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Image is the aged image. It is nil when the artifact came from the
	// cache.
	Image image.Image

	// Artifact is the encoded image.
	Artifact []byte

	// Format is the artifact format.
	Format string

	// Report describes the damage that was drawn.
	Report aging.Report

	// Preset is the resolved preset.
	Preset *preset.Preset

	// Stats contains timing and size information.
	Stats Stats

	// CacheHit is true when the artifact was served from the cache.
	CacheHit bool
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Width      int
	Height     int
	InputSize  int
	OutputSize int
	DecodeTime time.Duration
	AgeTime    time.Duration
	EncodeTime time.Duration
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: jpeg, png)", format).WithField("format")
	}
	return nil
}

// NormalizeFormat maps common aliases ("jpg", "JPEG") to a format constant.
// Unknown names are returned lowercased so ValidateFormat can reject them.
func NormalizeFormat(format string) string {
	switch f := strings.ToLower(format); f {
	case "jpg":
		return FormatJPEG
	default:
		return f
	}
}

// Extension returns the file extension for a format, including the dot.
func Extension(format string) string {
	if format == FormatPNG {
		return ".png"
	}
	return ".jpg"
}

// ContentType returns the MIME type for a format.
func ContentType(format string) string {
	if format == FormatPNG {
		return "image/png"
	}
	return "image/jpeg"
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	o.Format = NormalizeFormat(o.Format)
	if err := ValidateFormat(o.Format); err != nil {
		return err
	}
	if o.Format == FormatJPEG {
		if o.Quality == 0 {
			o.Quality = DefaultQuality
		}
		if o.Quality < 1 || o.Quality > 100 {
			return errors.Invalid("quality", "quality must be in [1, 100], got %d", o.Quality)
		}
	} else {
		o.Quality = 0
	}
	if o.PresetPath != "" {
		if err := errors.ValidatePath(o.PresetPath); err != nil {
			return err
		}
	} else if o.Preset != "" {
		if err := errors.ValidatePresetName(o.Preset); err != nil {
			return err
		}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// ArtifactKeyOpts returns cache key options for the artifact of a preset.
func (o *Options) ArtifactKeyOpts(p *preset.Preset) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		PresetHash: cache.Hash(p.Fingerprint()),
		Seed:       o.Seed,
		Format:     o.Format,
		Quality:    o.Quality,
	}
}

// String summarizes the options for log lines.
func (o *Options) String() string {
	name := o.Preset
	if o.PresetPath != "" {
		name = o.PresetPath
	}
	return fmt.Sprintf("preset=%s seed=%d format=%s", name, o.Seed, o.Format)
}
