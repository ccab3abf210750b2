// Package preset binds named parameter sets for the aging pipeline.
//
// Built-in presets are TOML files embedded in the binary. User presets can be
// loaded from TOML or YAML files with the same schema:
//
//	name = "lfw"
//	description = "..."
//	stain_alpha = 32          # optional
//
//	[stains]
//	diameter = 25
//	diameter_jitter = 10
//	count = 10
//	filters = ["blur(2)"]
//
//	[cracks]
//	crack_width = 2.0
//	filling_ratio = 0.05
//	filters = ["blur(1.6)", "edge_enhance_more"]
//
//	[cracks.params]
//	angle_dist = 500.0
//	fork_dist = 10000.0
package preset

import (
	"bytes"
	"embed"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/patina/pkg/aging"
	"github.com/matzehuels/patina/pkg/crack"
	"github.com/matzehuels/patina/pkg/errors"
	"github.com/matzehuels/patina/pkg/filter"
	"github.com/matzehuels/patina/pkg/stain"
)

// DefaultName is the preset used when none is requested.
const DefaultName = "lfw"

//go:embed presets/*.toml
var builtin embed.FS

// Preset is a named, serializable aging configuration.
type Preset struct {
	Name        string `json:"name" toml:"name" yaml:"name"`
	Description string `json:"description,omitempty" toml:"description,omitempty" yaml:"description,omitempty"`
	StainAlpha  int    `json:"stain_alpha,omitempty" toml:"stain_alpha,omitempty" yaml:"stain_alpha,omitempty"`
	Stains      Stains `json:"stains" toml:"stains" yaml:"stains"`
	Cracks      Cracks `json:"cracks" toml:"cracks" yaml:"cracks"`
}

// Stains configures the stain stage.
type Stains struct {
	Diameter       int      `json:"diameter,omitempty" toml:"diameter,omitempty" yaml:"diameter,omitempty"`
	DiameterJitter int      `json:"diameter_jitter,omitempty" toml:"diameter_jitter,omitempty" yaml:"diameter_jitter,omitempty"`
	Count          int      `json:"count,omitempty" toml:"count,omitempty" yaml:"count,omitempty"`
	Filters        []string `json:"filters,omitempty" toml:"filters,omitempty" yaml:"filters,omitempty"`
}

// Cracks configures the crack stage.
type Cracks struct {
	CrackWidth   float64      `json:"crack_width,omitempty" toml:"crack_width,omitempty" yaml:"crack_width,omitempty"`
	FillingRatio float64      `json:"filling_ratio,omitempty" toml:"filling_ratio,omitempty" yaml:"filling_ratio,omitempty"`
	Filters      []string     `json:"filters,omitempty" toml:"filters,omitempty" yaml:"filters,omitempty"`
	Params       crack.Params `json:"params" toml:"params" yaml:"params"`
}

// Options resolves filters and returns validated aging options.
func (p *Preset) Options() (aging.Options, error) {
	stainFilters, err := filter.ParseAll(p.Stains.Filters)
	if err != nil {
		return aging.Options{}, errors.Wrap(errors.ErrCodeInvalidPreset, err, "preset %q: stains", p.Name)
	}
	crackFilters, err := filter.ParseAll(p.Cracks.Filters)
	if err != nil {
		return aging.Options{}, errors.Wrap(errors.ErrCodeInvalidPreset, err, "preset %q: cracks", p.Name)
	}

	opts := aging.Options{
		StainAlpha: p.StainAlpha,
		Stains: aging.StainLayer{
			Spec: stain.Spec{
				Diameter:       p.Stains.Diameter,
				DiameterJitter: p.Stains.DiameterJitter,
				Count:          p.Stains.Count,
			},
			Filters: stainFilters,
		},
		Cracks: aging.CrackLayer{
			LayerOptions: crack.LayerOptions{
				CrackWidth:   p.Cracks.CrackWidth,
				FillingRatio: p.Cracks.FillingRatio,
				Params:       p.Cracks.Params,
			},
			Filters: crackFilters,
		},
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return aging.Options{}, errors.Wrap(errors.ErrCodeInvalidPreset, err, "preset %q", p.Name)
	}
	return opts, nil
}

// Validate checks the name and that the preset resolves to usable options.
func (p *Preset) Validate() error {
	if err := errors.ValidatePresetName(p.Name); err != nil {
		return err
	}
	_, err := p.Options()
	return err
}

// EncodeTOML writes the preset in its canonical TOML form.
func (p *Preset) EncodeTOML(w io.Writer) error {
	return toml.NewEncoder(w).Encode(p)
}

// Fingerprint returns the canonical TOML encoding, used to key cached
// artifacts: two presets with the same fingerprint age images identically.
func (p *Preset) Fingerprint() []byte {
	var buf bytes.Buffer
	if err := p.EncodeTOML(&buf); err != nil {
		return []byte(p.Name)
	}
	return buf.Bytes()
}

// Names lists the built-in presets in sorted order.
func Names() []string {
	entries, _ := builtin.ReadDir("presets")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".toml"))
	}
	sort.Strings(names)
	return names
}

// Builtin returns a fresh copy of the named built-in preset.
func Builtin(name string) (*Preset, error) {
	if err := errors.ValidatePresetName(name); err != nil {
		return nil, err
	}
	data, err := builtin.ReadFile(path.Join("presets", name+".toml"))
	if err != nil {
		return nil, errors.New(errors.ErrCodeNotFound, "unknown preset %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return Parse(data, FormatTOML)
}

// All returns every built-in preset.
func All() ([]*Preset, error) {
	names := Names()
	out := make([]*Preset, 0, len(names))
	for _, n := range names {
		p, err := Builtin(n)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Supported file formats.
const (
	FormatTOML = "toml"
	FormatYAML = "yaml"
)

// Load reads a preset file. The format follows the extension: .toml, or
// .yaml / .yml.
func Load(file string) (*Preset, error) {
	if err := errors.ValidatePath(file); err != nil {
		return nil, err
	}
	var format string
	switch strings.ToLower(filepath.Ext(file)) {
	case ".toml":
		format = FormatTOML
	case ".yaml", ".yml":
		format = FormatYAML
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "preset file %s: want a .toml, .yaml or .yml extension", file)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "preset file %s", file)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read preset file %s", file)
	}
	p, err := Parse(data, format)
	if err != nil {
		return nil, err
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	}
	return p, nil
}

// Parse decodes a preset. Unknown keys are rejected so that typos do not
// silently fall back to defaults.
func Parse(data []byte, format string) (*Preset, error) {
	var p Preset
	switch format {
	case FormatTOML:
		md, err := toml.Decode(string(data), &p)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPreset, err, "parse toml preset")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidPreset, "unknown preset key %q", undecoded[0].String())
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&p); err != nil && err != io.EOF {
			return nil, errors.Wrap(errors.ErrCodeInvalidPreset, err, "parse yaml preset")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported preset format %q", format)
	}
	return &p, nil
}

// Resolve returns the preset named name, or the file at file when it is
// set. An empty name selects DefaultName.
func Resolve(name, file string) (*Preset, error) {
	if file != "" {
		return Load(file)
	}
	if name == "" {
		name = DefaultName
	}
	return Builtin(name)
}
