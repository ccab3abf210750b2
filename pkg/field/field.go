// Package field implements the occupancy field a crack network is traced
// into: a bounded W×H grid of binary cells with toroidal addressing.
//
// Fields are write-once, read-many. Growth code marks cells with [Field.Mark];
// renderers read them back with [Field.Raster] or [Field.Layer]. There is no
// way to clear a cell.
package field

import (
	"image"
	"image/color"
	"math"

	"github.com/matzehuels/patina/pkg/errors"
)

// Size describes the dimensions of a field in cells.
type Size struct {
	W int `json:"w" toml:"w" yaml:"w"`
	H int `json:"h" toml:"h" yaml:"h"`
}

// Validate rejects non-positive dimensions.
func (s Size) Validate() error {
	return errors.ValidateSize(s.W, s.H)
}

// Area returns W×H.
func (s Size) Area() int { return s.W * s.H }

// Point converts the size to an image.Point.
func (s Size) Point() image.Point { return image.Pt(s.W, s.H) }

// FromPoint converts an image.Point into a Size.
func FromPoint(p image.Point) Size { return Size{W: p.X, H: p.Y} }

// Field stores a W×H grid of occupancy cells in row-major order.
type Field struct {
	size   Size
	cells  []uint8
	marked int
}

// New allocates a clear field. Non-positive dimensions are rejected.
func New(size Size) (*Field, error) {
	if err := size.Validate(); err != nil {
		return nil, err
	}
	return &Field{size: size, cells: make([]uint8, size.Area())}, nil
}

// Size returns the field dimensions.
func (f *Field) Size() Size { return f.size }

// Wrap reduces floating coordinates to a cell: each axis is truncated toward
// zero, made absolute, then taken modulo its dimension. Positions that drift
// past an edge reappear on the opposite side instead of being clamped.
// Non-finite coordinates map to 0.
func (f *Field) Wrap(x, y float64) (int, int) {
	return wrap(x, f.size.W), wrap(y, f.size.H)
}

func wrap(v float64, n int) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Mod(math.Abs(math.Trunc(v)), float64(n)))
}

// Mark sets the cell addressed by (x, y) and returns its wrapped coordinates.
func (f *Field) Mark(x, y float64) (int, int) {
	cx, cy := f.Wrap(x, y)
	i := cy*f.size.W + cx
	if f.cells[i] == 0 {
		f.cells[i] = 1
		f.marked++
	}
	return cx, cy
}

// At reports whether cell (x, y) is set. Coordinates outside the field
// report false.
func (f *Field) At(x, y int) bool {
	if x < 0 || y < 0 || x >= f.size.W || y >= f.size.H {
		return false
	}
	return f.cells[y*f.size.W+x] != 0
}

// Count returns the number of distinct marked cells.
func (f *Field) Count() int { return f.marked }

// Cells returns a copy of the row-major cell values (0 or 1).
func (f *Field) Cells() []uint8 {
	out := make([]uint8, len(f.cells))
	copy(out, f.cells)
	return out
}

// Points lists marked cells in row-major order.
func (f *Field) Points() []image.Point {
	pts := make([]image.Point, 0, f.marked)
	for i, c := range f.cells {
		if c != 0 {
			pts = append(pts, image.Pt(i%f.size.W, i/f.size.W))
		}
	}
	return pts
}

// Raster returns the field as a grayscale image with marked cells set to max
// and clear cells set to 0.
func (f *Field) Raster(max uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, f.size.W, f.size.H))
	for i, c := range f.cells {
		img.Pix[i] = c * max
	}
	return img
}

// Layer returns the field as an RGBA layer: marked cells are opaque white,
// clear cells fully transparent.
func (f *Field) Layer() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.size.W, f.size.H))
	on := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	for i, c := range f.cells {
		if c != 0 {
			img.SetRGBA(i%f.size.W, i/f.size.W, on)
		}
	}
	return img
}
