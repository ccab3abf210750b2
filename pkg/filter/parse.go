package filter

import (
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/patina/pkg/errors"
)

// Parse resolves a filter by name, e.g. "blur(1.6)" or "edge_enhance_more".
// Names are case-insensitive and surrounding whitespace is ignored.
func Parse(spec string) (Filter, error) {
	name, arg, hasArg, err := split(spec)
	if err != nil {
		return nil, err
	}

	switch name {
	case "blur", "gaussian_blur":
		r, err := argument(spec, arg, hasArg, DefaultBlurRadius)
		if err != nil {
			return nil, err
		}
		return Blur{Radius: r}, nil
	case "sharpen":
		s, err := argument(spec, arg, hasArg, DefaultSharpenSigma)
		if err != nil {
			return nil, err
		}
		return Sharpen{Sigma: s}, nil
	}

	var k Kernel
	switch name {
	case "edge_enhance":
		k = EdgeEnhance
	case "edge_enhance_more":
		k = EdgeEnhanceMore
	case "smooth":
		k = Smooth
	default:
		return nil, errors.New(errors.ErrCodeInvalidFilter, "unknown filter %q", spec)
	}
	if hasArg {
		return nil, errors.New(errors.ErrCodeInvalidFilter, "filter %q takes no argument", name)
	}
	return k, nil
}

// ParseAll resolves a list of filter names, stopping at the first error.
func ParseAll(specs []string) ([]Filter, error) {
	out := make([]Filter, 0, len(specs))
	for _, s := range specs {
		f, err := Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func split(spec string) (name, arg string, hasArg bool, err error) {
	s := strings.ToLower(strings.TrimSpace(spec))
	open := strings.IndexByte(s, '(')
	if open < 0 {
		if s == "" {
			return "", "", false, errors.New(errors.ErrCodeInvalidFilter, "empty filter name")
		}
		return s, "", false, nil
	}
	if !strings.HasSuffix(s, ")") {
		return "", "", false, errors.New(errors.ErrCodeInvalidFilter, "malformed filter %q", spec)
	}
	return strings.TrimSpace(s[:open]), strings.TrimSpace(s[open+1 : len(s)-1]), true, nil
}

func argument(spec, arg string, hasArg bool, def float64) (float64, error) {
	if !hasArg || arg == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidFilter, err, "bad argument in %q", spec)
	}
	if v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, errors.New(errors.ErrCodeInvalidFilter, "argument in %q must be a positive number", spec)
	}
	return v, nil
}
