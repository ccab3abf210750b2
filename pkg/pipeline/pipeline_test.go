package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	perrors "github.com/matzehuels/patina/pkg/errors"
)

// memCache is an in-memory cache.Cache that can be told to fail.
type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	failGet bool
	failSet bool
	sets    int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return nil, false, errors.New("backend down")
	}
	d, ok := c.data[key]
	return d, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSet {
		return errors.New("backend down")
	}
	c.data[key] = data
	c.sets++
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 4), G: uint8(y * 5), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"jpeg", false},
		{"png", false},
		{"jpg", true}, // aliases are normalized first
		{"gif", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestNormalizeFormat(t *testing.T) {
	tests := map[string]string{
		"jpg":  FormatJPEG,
		"JPG":  FormatJPEG,
		"JPEG": FormatJPEG,
		"png":  FormatPNG,
		"Tiff": "tiff",
	}
	for in, want := range tests {
		if got := NormalizeFormat(in); got != want {
			t.Errorf("NormalizeFormat(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtensionAndContentType(t *testing.T) {
	if Extension(FormatJPEG) != ".jpg" || Extension(FormatPNG) != ".png" {
		t.Error("unexpected extensions")
	}
	if ContentType(FormatJPEG) != "image/jpeg" || ContentType(FormatPNG) != "image/png" {
		t.Error("unexpected content types")
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Valid options should pass: %v", err)
	}

	if opts.Seed != DefaultSeed {
		t.Errorf("Seed should be %d, got %d", DefaultSeed, opts.Seed)
	}
	if opts.Format != DefaultFormat {
		t.Errorf("Format should be %s, got %s", DefaultFormat, opts.Format)
	}
	if opts.Quality != DefaultQuality {
		t.Errorf("Quality should be %d, got %d", DefaultQuality, opts.Quality)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
}

func TestOptionsValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code perrors.Code
	}{
		{"bad format", Options{Format: "gif"}, perrors.ErrCodeInvalidFormat},
		{"quality too high", Options{Quality: 101}, perrors.ErrCodeInvalidArgument},
		{"quality negative", Options{Quality: -1}, perrors.ErrCodeInvalidArgument},
		{"bad preset name", Options{Preset: "Bad Name"}, perrors.ErrCodeInvalidPreset},
		{"control char in path", Options{PresetPath: "a\x00b"}, perrors.ErrCodeInvalidPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !perrors.Is(err, tt.code) {
				t.Errorf("got %v, want %s", err, tt.code)
			}
		})
	}
}

func TestOptionsPNGDropsQuality(t *testing.T) {
	opts := Options{Format: "PNG", Quality: 50}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.Format != FormatPNG || opts.Quality != 0 {
		t.Errorf("got format %s quality %d", opts.Format, opts.Quality)
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Format: "jpg"}

	// First call
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("First validation failed: %v", err)
	}

	first := opts

	// Second call should be idempotent
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Second validation failed: %v", err)
	}

	if opts.Seed != first.Seed || opts.Format != first.Format || opts.Quality != first.Quality {
		t.Error("options changed on second call")
	}
}

func TestDecode(t *testing.T) {
	img, err := Decode(testPNG(t, 20, 10))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 10 {
		t.Errorf("bounds = %v", img.Bounds())
	}

	if _, err := Decode(nil); !perrors.Is(err, perrors.ErrCodeInvalidInput) {
		t.Errorf("empty input: %v", err)
	}
	if _, err := Decode([]byte("definitely not an image")); !perrors.Is(err, perrors.ErrCodeInvalidFormat) {
		t.Errorf("garbage input: %v", err)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	src, _ := Decode(testPNG(t, 16, 8))
	for _, format := range []string{FormatJPEG, FormatPNG} {
		data, err := Encode(src, format, DefaultQuality)
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		img, err := Decode(data)
		if err != nil {
			t.Fatalf("%s: decode: %v", format, err)
		}
		if img.Bounds().Size() != src.Bounds().Size() {
			t.Errorf("%s: size %v", format, img.Bounds().Size())
		}
	}
	if _, err := Encode(src, "gif", 0); !perrors.Is(err, perrors.ErrCodeInvalidFormat) {
		t.Errorf("unsupported format: %v", err)
	}
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	input := testPNG(t, 64, 48)
	r := NewRunner(nil, nil, nil)

	res, err := r.Execute(ctx, input, Options{Seed: 3})
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheHit {
		t.Error("NullCache cannot hit")
	}
	if res.Preset.Name != "lfw" {
		t.Errorf("default preset = %s", res.Preset.Name)
	}
	if res.Stats.Width != 64 || res.Stats.Height != 48 {
		t.Errorf("stats size = %dx%d", res.Stats.Width, res.Stats.Height)
	}
	if res.Image == nil || res.Image.Bounds().Size() != image.Pt(64, 48) {
		t.Fatal("aged image missing or resized")
	}
	if res.Report.CrackLength <= 0 {
		t.Errorf("crack length = %v", res.Report.CrackLength)
	}
	out, err := Decode(res.Artifact)
	if err != nil {
		t.Fatalf("artifact does not decode: %v", err)
	}
	if out.Bounds().Size() != image.Pt(64, 48) {
		t.Errorf("artifact size = %v", out.Bounds().Size())
	}
}

func TestExecuteDeterministic(t *testing.T) {
	ctx := context.Background()
	input := testPNG(t, 40, 40)
	r := NewRunner(nil, nil, nil)

	a, err := r.Execute(ctx, input, Options{Seed: 11, Format: FormatPNG})
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.Execute(ctx, input, Options{Seed: 11, Format: FormatPNG})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Artifact, b.Artifact) {
		t.Error("same seed produced different artifacts")
	}

	c, err := r.Execute(ctx, input, Options{Seed: 12, Format: FormatPNG})
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(a.Artifact, c.Artifact) {
		t.Error("different seeds produced identical artifacts")
	}
}

func TestExecuteCache(t *testing.T) {
	ctx := context.Background()
	input := testPNG(t, 32, 32)
	mc := newMemCache()
	r := NewRunner(mc, nil, nil)

	miss, err := r.Execute(ctx, input, Options{Preset: "plain"})
	if err != nil {
		t.Fatal(err)
	}
	hit, err := r.Execute(ctx, input, Options{Preset: "plain"})
	if err != nil {
		t.Fatal(err)
	}
	if miss.CacheHit || !hit.CacheHit {
		t.Fatalf("cache hits: first %v, second %v", miss.CacheHit, hit.CacheHit)
	}
	if !bytes.Equal(miss.Artifact, hit.Artifact) {
		t.Error("cached artifact differs")
	}
	if hit.Report.CrackLength != miss.Report.CrackLength || hit.Report.StainTone != miss.Report.StainTone {
		t.Error("cached report differs")
	}
	if hit.Image != nil {
		t.Error("cache hits carry no decoded image")
	}
	if hit.Stats.Width != 32 || hit.Stats.Height != 32 {
		t.Errorf("cached stats size = %dx%d", hit.Stats.Width, hit.Stats.Height)
	}

	// Any change to the key inputs is a miss.
	for _, opts := range []Options{
		{Preset: "lfw"},
		{Preset: "plain", Seed: 7},
		{Preset: "plain", Format: FormatPNG},
		{Preset: "plain", Quality: 80},
	} {
		res, err := r.Execute(ctx, input, opts)
		if err != nil {
			t.Fatal(err)
		}
		if res.CacheHit {
			t.Errorf("%s should miss", opts.String())
		}
	}

	// Refresh skips the lookup but stores again.
	sets := mc.sets
	res, err := r.Execute(ctx, input, Options{Preset: "plain", Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheHit || mc.sets != sets+1 {
		t.Errorf("refresh: hit %v, sets %d -> %d", res.CacheHit, sets, mc.sets)
	}
}

func TestExecuteCacheFailures(t *testing.T) {
	ctx := context.Background()
	input := testPNG(t, 24, 24)

	mc := newMemCache()
	mc.failGet, mc.failSet = true, true
	r := NewRunner(mc, nil, nil)
	if _, err := r.Execute(ctx, input, Options{Preset: "plain"}); err != nil {
		t.Fatalf("cache failures must not fail the run: %v", err)
	}

	// Corrupt entries are recomputed.
	mc = newMemCache()
	r = NewRunner(mc, nil, nil)
	if _, err := r.Execute(ctx, input, Options{Preset: "plain"}); err != nil {
		t.Fatal(err)
	}
	for k := range mc.data {
		mc.data[k] = []byte("{")
	}
	res, err := r.Execute(ctx, input, Options{Preset: "plain"})
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheHit {
		t.Error("corrupt entry served as hit")
	}
}

func TestExecuteErrors(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, nil)
	input := testPNG(t, 16, 16)

	tests := []struct {
		name  string
		input []byte
		opts  Options
		code  perrors.Code
	}{
		{"unknown preset", input, Options{Preset: "nope"}, perrors.ErrCodeNotFound},
		{"missing preset file", input, Options{PresetPath: "/does/not/exist.toml"}, perrors.ErrCodeFileNotFound},
		{"bad format", input, Options{Format: "bmp"}, perrors.ErrCodeInvalidFormat},
		{"empty input", nil, Options{}, perrors.ErrCodeInvalidInput},
		{"garbage input", []byte("nope"), Options{}, perrors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Execute(ctx, tt.input, tt.opts)
			if !perrors.Is(err, tt.code) {
				t.Errorf("got %v, want %s", err, tt.code)
			}
		})
	}
}

func TestExecuteCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// lfw needs at least 1024 crack steps before the first poll, so use a
	// large input.
	input := testPNG(t, 512, 512)
	r := NewRunner(nil, nil, nil)
	if _, err := r.Execute(ctx, input, Options{}); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
