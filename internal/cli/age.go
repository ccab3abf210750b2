package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/patina/pkg/pipeline"
)

// ageCommand creates the age command, which ages a single image.
func (c *CLI) ageCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "age [image]",
		Short: "Age a photograph",
		Long: `Age a photograph with sepia toning, stains, cracks and reduced contrast.

The damage is drawn from a seeded random process: the same image, preset
and seed always produce the same result. Results are cached locally, so
running the same command twice is instant.

Presets bundle stain and crack settings. Use 'patina preset list' to see the
built-in ones, or pass your own TOML/YAML file with --preset-file.`,
		Example: `  patina age portrait.jpg
  patina age portrait.jpg -o old.png --seed 7
  patina age portrait.jpg --preset plain --quality 85`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAge(cmd, args[0], output, opts, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.aged.<format>)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "output format: jpeg, png (default: from --output, else jpeg)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	addPipelineFlags(cmd, &opts)

	return cmd
}

// addPipelineFlags registers the flags shared by age and preprocess.
func addPipelineFlags(cmd *cobra.Command, opts *pipeline.Options) {
	cmd.Flags().Uint64Var(&opts.Seed, "seed", pipeline.DefaultSeed, "random seed")
	cmd.Flags().StringVar(&opts.Preset, "preset", "", "built-in preset (default: lfw)")
	cmd.Flags().StringVar(&opts.PresetPath, "preset-file", "", "preset file (.toml, .yaml)")
	cmd.Flags().IntVar(&opts.Quality, "quality", pipeline.DefaultQuality, "JPEG quality (1-100)")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "ignore cached results")
	cmd.MarkFlagsMutuallyExclusive("preset", "preset-file")
	_ = cmd.RegisterFlagCompletionFunc("preset", completePresets)
}

// runAge ages input and writes the artifact.
func (c *CLI) runAge(cmd *cobra.Command, input, output string, opts pipeline.Options, noCache bool) error {
	ctx, out := cmd.Context(), newPrinter(cmd)
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}

	if opts.Format == "" {
		opts.Format = formatFromPath(output)
	}
	opts.Logger = c.Logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	if output == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		output = base + ".aged" + pipeline.Extension(opts.Format)
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spin := startSpinner(ctx, cmd.ErrOrStderr(), "Aging "+filepath.Base(input)+"...")
	res, err := runner.Execute(ctx, data, opts)
	spin.stop()
	if err != nil {
		out.fail("Aging %s failed", filepath.Base(input))
		return err
	}

	if err := os.WriteFile(output, res.Artifact, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	out.success("Aged with preset %s (seed %d)", styleHighlight.Render(res.Preset.Name), opts.Seed)
	out.file(output)
	out.report(res.Report, res.CacheHit)
	return nil
}

// formatFromPath infers the output format from a file extension, falling
// back to the pipeline default.
func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return pipeline.FormatPNG
	case ".jpg", ".jpeg":
		return pipeline.FormatJPEG
	}
	return ""
}
