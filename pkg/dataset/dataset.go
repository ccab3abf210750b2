// Package dataset builds paired training data: for every source image it
// writes a re-encoded ground-truth copy and an aged copy under one shared
// file name, plus a CSV manifest describing the damage drawn on each.
//
// Layout of the destination directory:
//
//	dest/
//	  gt/00000000.jpg
//	  aged/00000000.jpg
//	  manifest.csv
package dataset

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gocarina/gocsv"

	"github.com/matzehuels/patina/pkg/errors"
	"github.com/matzehuels/patina/pkg/observability"
	"github.com/matzehuels/patina/pkg/pipeline"
	"github.com/matzehuels/patina/pkg/random"
)

// Output layout.
const (
	GroundTruthDir = "gt"
	AgedDir        = "aged"
	ManifestFile   = "manifest.csv"
)

// Extensions lists the source file extensions Scan picks up.
var Extensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Record is one manifest row.
type Record struct {
	Index       int     `csv:"index"`
	Source      string  `csv:"source"`
	Name        string  `csv:"name"`
	Seed        uint64  `csv:"seed"`
	CrackLength float64 `csv:"crack_length"`
	StainTone   int     `csv:"stain_tone"`
	Contrast    float64 `csv:"contrast"`
	Cached      bool    `csv:"cached"`
}

// Config configures a preprocessing run.
type Config struct {
	Root       string // source dataset root
	Dest       string // destination directory, created if missing
	Seed       uint64 // base seed; image i uses random.Derive(Seed, i)
	Preset     string
	PresetPath string
	Quality    int
	Refresh    bool

	// Progress is called after each image. It may be nil.
	Progress func(done, total int, rec Record)

	Logger *log.Logger
}

// Summary describes a finished run.
type Summary struct {
	Total    int // images found
	Done     int // images written and listed in the manifest
	Cached   int
	Manifest string
	Duration time.Duration
}

// FileName returns the output name of the index-th image.
func FileName(index int) string {
	return fmt.Sprintf("%08d.jpg", index)
}

// Scan returns every image below root, sorted so that indices are stable
// across runs.
func Scan(root string) ([]string, error) {
	if err := errors.ValidatePath(root); err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeFileNotFound, "dataset root %s does not exist", root)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "stat %s", root)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidPath, "dataset root %s is not a directory", root)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && Extensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "scan %s", root)
	}
	sort.Strings(files)
	return files, nil
}

// Preprocess ages every image found under cfg.Root. Images are processed
// one at a time in Scan order; cancellation is checked between images.
// The manifest always lists every image that was completed, including when
// the run stops early.
func Preprocess(ctx context.Context, runner *pipeline.Runner, cfg Config) (_ *Summary, err error) {
	if runner == nil {
		return nil, errors.New(errors.ErrCodeInvalidArgument, "runner is nil")
	}
	if cfg.Seed == 0 {
		cfg.Seed = pipeline.DefaultSeed
	}
	if cfg.Logger == nil {
		cfg.Logger = runner.Logger
	}
	if err := errors.ValidatePath(cfg.Dest); err != nil {
		return nil, err
	}

	files, err := Scan(cfg.Root)
	if err != nil {
		return nil, err
	}
	gtDir := filepath.Join(cfg.Dest, GroundTruthDir)
	agedDir := filepath.Join(cfg.Dest, AgedDir)
	for _, dir := range []string{gtDir, agedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	start := time.Now()
	summary := &Summary{Total: len(files), Manifest: filepath.Join(cfg.Dest, ManifestFile)}
	records := make([]Record, 0, len(files))
	defer func() {
		if werr := WriteManifest(summary.Manifest, records); werr != nil && err == nil {
			err = werr
		}
		summary.Done = len(records)
		summary.Duration = time.Since(start)
	}()

	hooks := observability.Dataset()
	for i, src := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		rec, err := processOne(ctx, runner, cfg, i, src, gtDir, agedDir)
		hooks.OnImageDone(ctx, i, src, rec.Cached, err)
		if err != nil {
			return summary, fmt.Errorf("%s: %w", src, err)
		}
		records = append(records, rec)
		if rec.Cached {
			summary.Cached++
		}
		cfg.Logger.Debug("aged", "index", i, "source", rec.Source, "crack_length", rec.CrackLength, "cached", rec.Cached)
		if cfg.Progress != nil {
			cfg.Progress(len(records), len(files), rec)
		}
	}
	return summary, nil
}

func processOne(ctx context.Context, runner *pipeline.Runner, cfg Config, i int, src, gtDir, agedDir string) (Record, error) {
	input, err := os.ReadFile(src)
	if err != nil {
		return Record{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "read source image")
	}

	seed := random.Derive(cfg.Seed, i)
	res, err := runner.Execute(ctx, input, pipeline.Options{
		Preset:     cfg.Preset,
		PresetPath: cfg.PresetPath,
		Seed:       seed,
		Format:     pipeline.FormatJPEG,
		Quality:    cfg.Quality,
		Refresh:    cfg.Refresh,
		Logger:     cfg.Logger,
	})
	if err != nil {
		return Record{}, err
	}

	// The ground truth is re-encoded so both halves of a pair share one codec.
	img, err := pipeline.Decode(input)
	if err != nil {
		return Record{}, err
	}
	quality := cfg.Quality
	if quality == 0 {
		quality = pipeline.DefaultQuality
	}
	gt, err := pipeline.Encode(img, pipeline.FormatJPEG, quality)
	if err != nil {
		return Record{}, err
	}

	name := FileName(i)
	if err := os.WriteFile(filepath.Join(gtDir, name), gt, 0o644); err != nil {
		return Record{}, fmt.Errorf("write ground truth: %w", err)
	}
	if err := os.WriteFile(filepath.Join(agedDir, name), res.Artifact, 0o644); err != nil {
		return Record{}, fmt.Errorf("write aged image: %w", err)
	}

	rel, err := filepath.Rel(cfg.Root, src)
	if err != nil {
		rel = src
	}
	return Record{
		Index:       i,
		Source:      filepath.ToSlash(rel),
		Name:        name,
		Seed:        seed,
		CrackLength: res.Report.CrackLength,
		StainTone:   res.Report.StainTone,
		Contrast:    res.Report.ContrastFactor,
		Cached:      res.CacheHit,
	}, nil
}

// WriteManifest writes records as CSV with a header row.
func WriteManifest(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	if err := gocsv.Marshal(records, f); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// ReadManifest reads a manifest written by WriteManifest.
func ReadManifest(path string) ([]Record, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeFileNotFound, "manifest %s does not exist", path)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []Record
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse manifest")
	}
	return records, nil
}
