package cli

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/patina/pkg/crack"
	"github.com/matzehuels/patina/pkg/dataset"
	"github.com/matzehuels/patina/pkg/field"
	"github.com/matzehuels/patina/pkg/pipeline"
	"github.com/matzehuels/patina/pkg/random"
)

func writeTestPNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 48, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 48; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 5), G: uint8(y * 7), B: 60, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func decodeFile(t *testing.T, path string) image.Image {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	img, err := pipeline.Decode(data)
	if err != nil {
		t.Fatalf("%s: %v", path, err)
	}
	return img
}

func TestRootCommand(t *testing.T) {
	root := New(os.Stderr, LogInfo).RootCommand()
	want := []string{"age", "cache", "cracks", "preprocess", "preset", "serve"}
	var got []string
	for _, cmd := range root.Commands() {
		if cmd.Name() == "help" {
			continue
		}
		got = append(got, cmd.Name())
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("subcommands = %v, want %v", got, want)
	}
}

func TestAgeCommand(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	dir := t.TempDir()
	in := filepath.Join(dir, "photo.png")
	writeTestPNG(t, in)

	if _, err := runCLI(t, "age", in, "--preset", "plain", "--seed", "9"); err != nil {
		t.Fatal(err)
	}
	img := decodeFile(t, filepath.Join(dir, "photo.aged.jpg"))
	if img.Bounds().Size() != image.Pt(48, 32) {
		t.Errorf("aged size = %v", img.Bounds().Size())
	}
	stdout, err := runCLI(t, "age", in, "--preset", "plain", "--seed", "9")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "cached") || !strings.Contains(stdout, "photo.aged.jpg") {
		t.Errorf("second run output:\n%s", stdout)
	}

	out := filepath.Join(dir, "explicit.png")
	if _, err := runCLI(t, "age", in, "-o", out, "--no-cache"); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(out)
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("format was not inferred from the .png output")
	}
}

func TestAgeCommandErrors(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	dir := t.TempDir()
	in := filepath.Join(dir, "photo.png")
	writeTestPNG(t, in)

	tests := []struct {
		name string
		args []string
	}{
		{"missing input", []string{"age", filepath.Join(dir, "nope.png")}},
		{"no args", []string{"age"}},
		{"bad format", []string{"age", in, "--format", "gif"}},
		{"unknown preset", []string{"age", in, "--preset", "nope"}},
		{"both presets", []string{"age", in, "--preset", "lfw", "--preset-file", "x.toml"}},
		{"bad quality", []string{"age", in, "--quality", "101"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runCLI(t, tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]string{
		"out.png":  pipeline.FormatPNG,
		"out.PNG":  pipeline.FormatPNG,
		"out.jpg":  pipeline.FormatJPEG,
		"out.jpeg": pipeline.FormatJPEG,
		"out.webp": "",
		"":         "",
	}
	for path, want := range tests {
		if got := formatFromPath(path); got != want {
			t.Errorf("formatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestCracksCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "sheet.png")
	if _, err := runCLI(t, "cracks", "--rows", "1", "--cols", "2", "--size", "32", "--exact-end-dist", "40", "-o", out); err != nil {
		t.Fatal(err)
	}
	img := decodeFile(t, out)
	want := image.Pt(2*(32+sheetPad)+sheetPad, 32+sheetPad+sheetLabel+sheetPad)
	if img.Bounds().Size() != want {
		t.Errorf("sheet size = %v, want %v", img.Bounds().Size(), want)
	}

	if _, err := runCLI(t, "cracks", "--rows", "0", "-o", out); err == nil {
		t.Error("zero rows should fail")
	}
	if _, err := runCLI(t, "cracks", "--fork-mode", "spiral", "-o", out); err == nil {
		t.Error("unknown fork mode should fail")
	}
}

func TestRenderSheet(t *testing.T) {
	var results []*crack.Result
	for i := 0; i < 3; i++ {
		p := crack.DefaultParams()
		p.ExactEndDist = 30
		res, err := crack.Generate(t.Context(), field.Size{W: 20, H: 10}, p, random.New(uint64(i)))
		if err != nil {
			t.Fatal(err)
		}
		results = append(results, res)
	}

	sheet := renderSheet(results, 2)
	want := image.Pt(2*(20+sheetPad)+sheetPad, 2*(10+sheetPad+sheetLabel)+sheetPad)
	if sheet.Bounds().Size() != want {
		t.Errorf("sheet size = %v, want %v", sheet.Bounds().Size(), want)
	}

	table := crackTable(results, []uint64{0, 1, 2})
	for _, col := range []string{"Seed", "Length", "Components"} {
		if !strings.Contains(table, col) {
			t.Errorf("table is missing %s column", col)
		}
	}
}

func TestPresetCommands(t *testing.T) {
	out, err := runCLI(t, "preset", "list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "lfw (default)") {
		t.Errorf("preset list lacks the default preset:\n%s", out)
	}
	out, err = runCLI(t, "preset", "show", "lfw")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "name = \"lfw\"") {
		t.Errorf("preset show output:\n%s", out)
	}
	if _, err := runCLI(t, "preset", "show", "nope"); err == nil {
		t.Error("unknown preset should fail")
	}

	path := filepath.Join(t.TempDir(), "mine.yaml")
	if err := os.WriteFile(path, []byte("stains:\n  count: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, "preset", "show", "--file", path); err != nil {
		t.Fatal(err)
	}
}

func TestPreprocessCommand(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	root := t.TempDir()
	writeTestPNG(t, filepath.Join(root, "a", "one.png"))
	writeTestPNG(t, filepath.Join(root, "b", "two.png"))
	dest := filepath.Join(t.TempDir(), "paired")

	if _, err := runCLI(t, "preprocess", "--dataset-path", root, "--dest-path", dest, "--seed", "5"); err != nil {
		t.Fatal(err)
	}
	records, err := dataset.ReadManifest(filepath.Join(dest, dataset.ManifestFile))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 || records[0].Seed != 5 || records[1].Seed != 6 {
		t.Errorf("manifest = %+v", records)
	}
	for _, name := range []string{"gt/00000001.jpg", "aged/00000001.jpg"} {
		decodeFile(t, filepath.Join(dest, filepath.FromSlash(name)))
	}
}

func TestDisplayAddr(t *testing.T) {
	tests := map[string]string{
		":8080":          "localhost:8080",
		"127.0.0.1:9000": "127.0.0.1:9000",
		"":               "",
	}
	for in, want := range tests {
		if got := displayAddr(in); got != want {
			t.Errorf("displayAddr(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		out, err := runCLI(t, "completion", shell)
		if err != nil {
			t.Fatalf("%s: %v", shell, err)
		}
		if !strings.Contains(out, "patina") {
			t.Errorf("%s completion does not mention patina", shell)
		}
	}
}
