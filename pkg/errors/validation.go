package errors

import (
	"math"
	"strings"
	"unicode"
)

// ValidatePositive checks that a named float parameter is strictly greater
// than zero. +Inf is accepted, NaN is not.
func ValidatePositive(name string, v float64) error {
	if math.IsNaN(v) || v <= 0 {
		return Invalid(name, "%s must be > 0, got %v", name, v)
	}
	return nil
}

// ValidateNonNegative checks that a named float parameter is >= 0.
func ValidateNonNegative(name string, v float64) error {
	if math.IsNaN(v) || v < 0 {
		return Invalid(name, "%s must be >= 0, got %v", name, v)
	}
	return nil
}

// ValidateFinite rejects NaN and infinite values.
func ValidateFinite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Invalid(name, "%s must be finite, got %v", name, v)
	}
	return nil
}

// ValidateSize checks that both dimensions of a raster or field are positive.
func ValidateSize(w, h int) error {
	if w <= 0 || h <= 0 {
		return New(ErrCodeInvalidSize, "size must be positive in both dimensions, got %dx%d", w, h)
	}
	return nil
}

// ValidateChannel checks that a color channel value fits in [0, 255].
func ValidateChannel(name string, v int) error {
	if v < 0 || v > 255 {
		return New(ErrCodeInvalidColor, "%s channel must be in [0, 255], got %d", name, v).WithField(name)
	}
	return nil
}

// ValidatePath rejects empty paths, paths longer than 4096 bytes and paths
// containing control characters.
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}

// ValidatePresetName validates a preset name: lowercase letters, digits,
// dashes and underscores only.
func ValidatePresetName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPreset, "preset name cannot be empty")
	}
	if len(name) > 64 {
		return New(ErrCodeInvalidPreset, "preset name too long (max 64 characters)")
	}
	if strings.IndexFunc(name, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' || r == '_')
	}) >= 0 {
		return New(ErrCodeInvalidPreset, "invalid preset name: %q", name)
	}
	return nil
}
