package pipeline

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"

	// Extra input formats beyond the jpeg/png/gif that imaging registers.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/patina/pkg/errors"
)

// Decode decodes an input image. JPEG, PNG, GIF, BMP, TIFF and WebP are
// accepted; EXIF orientation is applied so the aged output is upright.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "input image is empty")
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode input image")
	}
	b := img.Bounds()
	if err := errors.ValidateSize(b.Dx(), b.Dy()); err != nil {
		return nil, err
	}
	return img, nil
}

// Encode encodes img in the given format. quality only applies to JPEG.
func Encode(img image.Image, format string, quality int) ([]byte, error) {
	var f imaging.Format
	switch format {
	case FormatJPEG:
		f = imaging.JPEG
	case FormatPNG:
		f = imaging.PNG
	default:
		return nil, ValidateFormat(format)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, f, imaging.JPEGQuality(quality)); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode %s", format)
	}
	return buf.Bytes(), nil
}
