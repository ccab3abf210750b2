package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/patina/pkg/dataset"
	"github.com/matzehuels/patina/pkg/pipeline"
)

// preprocessCommand creates the preprocess command, which builds a paired
// ground-truth/aged dataset from a directory of photographs.
func (c *CLI) preprocessCommand() *cobra.Command {
	var (
		cfg     dataset.Config
		noCache bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "preprocess",
		Short: "Build a paired dataset of clean and aged images",
		Long: `Walk a dataset directory, and for every JPEG or PNG found write a
re-encoded ground-truth copy to <dest>/gt and an aged copy to <dest>/aged
under the same name (00000000.jpg, 00000001.jpg, ...).

Image i is aged with seed + i, so every image gets different damage while
the whole dataset is reproducible. A manifest.csv next to the two folders
records the source path, seed and damage drawn for each image.`,
		Example: `  patina preprocess --dataset-path datasets/lfw --dest-path datasets/lfw_rearranged`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Seed = opts.Seed
			cfg.Preset = opts.Preset
			cfg.PresetPath = opts.PresetPath
			cfg.Quality = opts.Quality
			cfg.Refresh = opts.Refresh
			return c.runPreprocess(cmd, cfg, noCache)
		},
	}

	cmd.Flags().StringVar(&cfg.Root, "dataset-path", "datasets/lfw", "dataset root")
	cmd.Flags().StringVar(&cfg.Dest, "dest-path", "datasets/lfw_rearranged", "directory in which the paired dataset is stored")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	addPipelineFlags(cmd, &opts)

	return cmd
}

func (c *CLI) runPreprocess(cmd *cobra.Command, cfg dataset.Config, noCache bool) error {
	ctx, out := cmd.Context(), newPrinter(cmd)
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spin := startSpinner(ctx, cmd.ErrOrStderr(), "Scanning "+cfg.Root+"...")
	cfg.Logger = c.Logger
	cfg.Progress = func(done, total int, rec dataset.Record) {
		spin.set(fmt.Sprintf("Aging %d/%d %s", done, total, rec.Source))
	}

	sw := startStopwatch(c.Logger)
	summary, err := dataset.Preprocess(ctx, runner, cfg)
	spin.stop()
	if errors.Is(err, context.Canceled) && summary != nil {
		out.warn("Interrupted after %d of %d images; the manifest lists them", summary.Done, summary.Total)
		out.file(summary.Manifest)
		return err
	}
	if err != nil {
		out.fail("Preprocessing failed")
		return err
	}

	sw.lap(fmt.Sprintf("Aged %d images", summary.Total), "cached", summary.Cached)
	out.success("Dataset complete: %s images", styleNumber.Render(fmt.Sprint(summary.Total)))
	out.file(summary.Manifest)
	if summary.Cached > 0 {
		out.detail("%d of %d served from cache", summary.Cached, summary.Total)
	}
	return nil
}
