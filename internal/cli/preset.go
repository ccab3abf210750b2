package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/patina/pkg/cache"
	"github.com/matzehuels/patina/pkg/preset"
)

// presetCommand creates the preset inspection command.
func (c *CLI) presetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "List and show aging presets",
	}

	cmd.AddCommand(c.presetListCommand())
	cmd.AddCommand(c.presetShowCommand())

	return cmd
}

// presetListCommand creates the "preset list" subcommand.
func (c *CLI) presetListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			presets, err := preset.All()
			if err != nil {
				return err
			}
			t := newTable(-1, "Preset", "Description", "Fingerprint")
			for _, p := range presets {
				name := p.Name
				if name == preset.DefaultName {
					name += " (default)"
				}
				t.Row(name, p.Description, cache.Short(cache.Hash(p.Fingerprint())))
			}
			newPrinter(cmd).table(t)
			return nil
		},
	}
}

// presetShowCommand creates the "preset show" subcommand.
func (c *CLI) presetShowCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:               "show [name]",
		Short:             "Print a preset as TOML",
		Long:              "Print a built-in preset, or a preset file given with --file, in canonical TOML form.\nThe output is a valid preset file to start customizing from.",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completePresets,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			p, err := preset.Resolve(name, file)
			if err != nil {
				return err
			}
			if err := p.Validate(); err != nil {
				return err
			}
			return p.EncodeTOML(cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "preset file to normalize (.toml, .yaml)")
	return cmd
}

// completePresets completes built-in preset names.
func completePresets(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return preset.Names(), cobra.ShellCompDirectiveNoFileComp
}
