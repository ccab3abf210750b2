package cli

import (
	"fmt"
	"image"
	"strconv"

	"github.com/fogleman/gg"
	"github.com/spf13/cobra"

	"github.com/matzehuels/patina/pkg/crack"
	"github.com/matzehuels/patina/pkg/errors"
	"github.com/matzehuels/patina/pkg/field"
	"github.com/matzehuels/patina/pkg/random"
)

// Contact sheet geometry.
const (
	sheetPad   = 8
	sheetLabel = 18
)

// cracksOpts holds the command-line flags for the cracks command.
type cracksOpts struct {
	output string
	rows   int
	cols   int
	size   int
	seed   uint64
	params crack.Params
}

// cracksCommand creates the cracks command, which renders a contact sheet of
// crack fields for tuning growth parameters.
func (c *CLI) cracksCommand() *cobra.Command {
	opts := cracksOpts{
		output: "cracks.png",
		rows:   3,
		cols:   4,
		size:   160,
		seed:   42,
		params: crack.DefaultParams(),
	}

	cmd := &cobra.Command{
		Use:   "cracks",
		Short: "Render a contact sheet of crack fields",
		Long: `Grow a grid of crack fields with consecutive seeds and render them side by
side, each titled with its traced length. A table of per-field statistics is
printed as well. Use it to see how growth parameters shape the cracks before
putting them into a preset.`,
		Example: `  patina cracks --fork-dist 50 --end-dist 400
  patina cracks --exact-end-dist 2000 --fork-mode compound -o compound.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCracks(cmd, opts)
		},
	}

	p := &opts.params
	cmd.Flags().StringVarP(&opts.output, "output", "o", opts.output, "output PNG file")
	cmd.Flags().IntVar(&opts.rows, "rows", opts.rows, "grid rows")
	cmd.Flags().IntVar(&opts.cols, "cols", opts.cols, "grid columns")
	cmd.Flags().IntVar(&opts.size, "size", opts.size, "field size in cells")
	cmd.Flags().Uint64Var(&opts.seed, "seed", opts.seed, "seed of the first field")
	cmd.Flags().Float64Var(&p.AngleAmplitude, "angle-amplitude", p.AngleAmplitude, "max heading change per drift, radians")
	cmd.Flags().Float64Var(&p.AngleDist, "angle-dist", p.AngleDist, "drift distance scale")
	cmd.Flags().Float64Var(&p.ForkDist, "fork-dist", p.ForkDist, "fork distance scale")
	cmd.Flags().Float64Var(&p.EndDist, "end-dist", p.EndDist, "termination distance scale")
	cmd.Flags().Float64Var(&p.EndDistFactor, "end-dist-factor", p.EndDistFactor, "end-dist multiplier for forks")
	cmd.Flags().Float64Var(&p.ExactEndDist, "exact-end-dist", 0, "total length budget (0 = probabilistic termination)")
	cmd.Flags().Float64Var(&p.ExactEndForkFactor, "exact-end-fork-factor", p.ExactEndForkFactor, "share of the remaining budget given to a fork")
	cmd.Flags().Float64Var(&p.Step, "step", p.Step, "step length in cells")
	cmd.Flags().IntVar(&p.MaxForkDepth, "max-fork-depth", p.MaxForkDepth, "fork nesting limit")
	cmd.Flags().StringVar((*string)(&p.ForkMode), "fork-mode", string(p.ForkMode), "fork mode: simple, compound")

	return cmd
}

func (c *CLI) runCracks(cmd *cobra.Command, opts cracksOpts) error {
	ctx, out := cmd.Context(), newPrinter(cmd)
	if opts.rows <= 0 || opts.cols <= 0 {
		return errors.New(errors.ErrCodeInvalidArgument, "rows and cols must be > 0, got %dx%d", opts.rows, opts.cols)
	}
	size := field.Size{W: opts.size, H: opts.size}
	if err := size.Validate(); err != nil {
		return err
	}
	if err := opts.params.Validate(); err != nil {
		return err
	}

	sw := startStopwatch(c.Logger)
	n := opts.rows * opts.cols
	results := make([]*crack.Result, n)
	seeds := make([]uint64, n)
	for i := range results {
		seeds[i] = random.Derive(opts.seed, i)
		res, err := crack.Generate(ctx, size, opts.params, random.New(seeds[i]))
		if err != nil {
			return fmt.Errorf("field %d (seed %d): %w", i, seeds[i], err)
		}
		results[i] = res
	}
	sw.lap(fmt.Sprintf("Grew %d crack fields", n), "size", opts.size)

	sheet := renderSheet(results, opts.cols)
	if err := gg.SavePNG(opts.output, sheet); err != nil {
		return fmt.Errorf("write output %s: %w", opts.output, err)
	}

	out.success("Contact sheet complete")
	out.file(opts.output)
	out.newline()
	fmt.Fprintln(out.w, crackTable(results, seeds))
	return nil
}

// renderSheet lays fields out in a grid, each titled with its traced length.
func renderSheet(results []*crack.Result, cols int) image.Image {
	if len(results) == 0 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}
	cell := results[0].Field.Size()
	rows := (len(results) + cols - 1) / cols
	w := cols*(cell.W+sheetPad) + sheetPad
	h := rows*(cell.H+sheetPad+sheetLabel) + sheetPad

	dc := gg.NewContext(w, h)
	dc.SetRGB255(24, 24, 28)
	dc.Clear()

	for i, res := range results {
		x := sheetPad + (i%cols)*(cell.W+sheetPad)
		y := sheetPad + (i/cols)*(cell.H+sheetPad+sheetLabel)

		dc.SetRGB255(48, 48, 56)
		dc.DrawRectangle(float64(x), float64(y), float64(cell.W), float64(cell.H))
		dc.Fill()
		dc.DrawImage(res.Field.Layer(), x, y)

		dc.SetRGB255(200, 200, 200)
		dc.DrawStringAnchored(fmt.Sprintf("L = %.0f", res.Length),
			float64(x)+float64(cell.W)/2, float64(y+cell.H)+sheetLabel/2, 0.5, 0.5)
	}
	return dc.Image()
}

// crackTable summarizes each field.
func crackTable(results []*crack.Result, seeds []uint64) string {
	rows := make([][]string, len(results))
	for i, res := range results {
		rows[i] = []string{
			strconv.Itoa(i),
			strconv.FormatUint(seeds[i], 10),
			strconv.FormatFloat(res.Length, 'f', 0, 64),
			strconv.Itoa(res.Field.Count()),
			strconv.Itoa(res.Field.Components()),
		}
	}
	return newTable(2, "#", "Seed", "Length", "Cells", "Components").
		Rows(rows...).
		Render()
}
