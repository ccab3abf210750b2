package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/patina/pkg/cache"
	"github.com/matzehuels/patina/pkg/errors"
	"github.com/matzehuels/patina/pkg/observability"
	"github.com/matzehuels/patina/pkg/pipeline"
)

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 6), G: 120, B: uint8(y * 8), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	logger := log.NewWithOptions(io.Discard, log.Options{})
	cfg.Logger = logger
	ts := httptest.NewServer(New(pipeline.NewRunner(fc, nil, logger), cfg).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func decodeError(t *testing.T, resp *http.Response) errorResponse {
	t.Helper()
	var e errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		t.Fatalf("error body: %v", err)
	}
	return e
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, Config{})
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body struct {
		Status string `json:"status"`
		Build  struct {
			Version string `json:"version"`
		} `json:"build"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" || body.Build.Version == "" {
		t.Errorf("body = %+v", body)
	}
}

func TestPresets(t *testing.T) {
	ts := newTestServer(t, Config{})
	resp, err := http.Get(ts.URL + "/v1/presets")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body struct {
		Default string `json:"default"`
		Presets []struct {
			Name string `json:"name"`
		} `json:"presets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Default != "lfw" {
		t.Errorf("default = %s", body.Default)
	}
	names := map[string]bool{}
	for _, p := range body.Presets {
		names[p.Name] = true
	}
	if !names["lfw"] || !names["plain"] {
		t.Errorf("presets = %v", names)
	}
}

func TestPreset(t *testing.T) {
	ts := newTestServer(t, Config{})
	tests := []struct {
		path   string
		status int
	}{
		{"/v1/presets/lfw", http.StatusOK},
		{"/v1/presets/plain", http.StatusOK},
		{"/v1/presets/missing", http.StatusNotFound},
		{"/v1/presets/BAD.NAME", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(ts.URL + tt.path)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
		})
	}
}

func TestAge(t *testing.T) {
	ts := newTestServer(t, Config{})
	input := testPNG(t)

	post := func() *http.Response {
		resp, err := http.Post(ts.URL+"/v1/age?seed=5&preset=plain&format=png", "image/png", bytes.NewReader(input))
		if err != nil {
			t.Fatal(err)
		}
		return resp
	}

	first := post()
	defer first.Body.Close()
	if first.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", first.StatusCode)
	}
	if ct := first.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %s", ct)
	}
	if first.Header.Get(HeaderCache) != "MISS" {
		t.Errorf("first X-Cache = %s", first.Header.Get(HeaderCache))
	}
	if first.Header.Get(HeaderSeed) != "5" || first.Header.Get(HeaderPreset) != "plain" {
		t.Errorf("seed/preset headers = %s/%s", first.Header.Get(HeaderSeed), first.Header.Get(HeaderPreset))
	}
	if first.Header.Get(HeaderCrackLength) == "" {
		t.Error("missing X-Crack-Length")
	}
	body, _ := io.ReadAll(first.Body)
	img, err := pipeline.Decode(body)
	if err != nil {
		t.Fatalf("response is not an image: %v", err)
	}
	if img.Bounds().Size() != image.Pt(40, 30) {
		t.Errorf("aged size = %v", img.Bounds().Size())
	}

	second := post()
	defer second.Body.Close()
	if second.Header.Get(HeaderCache) != "HIT" {
		t.Errorf("second X-Cache = %s", second.Header.Get(HeaderCache))
	}
	if second.Header.Get(HeaderCrackLength) != first.Header.Get(HeaderCrackLength) {
		t.Error("cached crack length differs")
	}
	again, _ := io.ReadAll(second.Body)
	if !bytes.Equal(body, again) {
		t.Error("cached artifact differs")
	}
}

func TestAgeErrors(t *testing.T) {
	ts := newTestServer(t, Config{MaxBodyBytes: 1 << 20})
	input := testPNG(t)

	tests := []struct {
		name   string
		query  string
		body   []byte
		status int
		code   errors.Code
		field  string
	}{
		{"bad seed", "?seed=abc", input, http.StatusBadRequest, errors.ErrCodeInvalidArgument, "seed"},
		{"bad quality", "?quality=x", input, http.StatusBadRequest, errors.ErrCodeInvalidArgument, "quality"},
		{"bad refresh", "?refresh=maybe", input, http.StatusBadRequest, errors.ErrCodeInvalidArgument, "refresh"},
		{"bad format", "?format=gif", input, http.StatusBadRequest, errors.ErrCodeInvalidFormat, "format"},
		{"unknown preset", "?preset=nope", input, http.StatusNotFound, errors.ErrCodeNotFound, ""},
		{"empty body", "", nil, http.StatusBadRequest, errors.ErrCodeInvalidInput, ""},
		{"not an image", "", []byte("hello"), http.StatusBadRequest, errors.ErrCodeInvalidFormat, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/v1/age"+tt.query, "application/octet-stream", bytes.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			e := decodeError(t, resp)
			if e.Code != string(tt.code) {
				t.Errorf("code = %s, want %s", e.Code, tt.code)
			}
			if e.Field != tt.field {
				t.Errorf("field = %q, want %q", e.Field, tt.field)
			}
			if e.RequestID != resp.Header.Get(HeaderRequestID) {
				t.Errorf("request id %s not echoed in body", e.RequestID)
			}
		})
	}
}

func TestAgeBodyTooLarge(t *testing.T) {
	ts := newTestServer(t, Config{MaxBodyBytes: 16})
	resp, err := http.Post(ts.URL+"/v1/age", "image/png", bytes.NewReader(testPNG(t)))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestRequestID(t *testing.T) {
	ts := newTestServer(t, Config{})

	get := func(id string) string {
		req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
		if id != "" {
			req.Header.Set(HeaderRequestID, id)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		return resp.Header.Get(HeaderRequestID)
	}

	if _, err := uuid.Parse(get("")); err != nil {
		t.Errorf("minted id is not a UUID: %v", err)
	}
	want := uuid.NewString()
	if got := get(want); got != want {
		t.Errorf("valid client id replaced: %s", got)
	}
	if got := get("not-a-uuid"); got == "not-a-uuid" {
		t.Error("invalid client id kept")
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid", errors.New(errors.ErrCodeInvalidSize, "x"), http.StatusBadRequest},
		{"not found", errors.New(errors.ErrCodeNotFound, "x"), http.StatusNotFound},
		{"file not found", errors.New(errors.ErrCodeFileNotFound, "x"), http.StatusNotFound},
		{"exhausted", errors.New(errors.ErrCodeResourceExhausted, "x"), http.StatusUnprocessableEntity},
		{"unsupported", errors.New(errors.ErrCodeUnsupported, "x"), http.StatusNotImplemented},
		{"deadline", fmt.Errorf("grow: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"too large", &http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{"plain", io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFor(tt.err); got != tt.want {
				t.Errorf("StatusFor() = %d, want %d", got, tt.want)
			}
		})
	}
}

// recordingHooks captures HTTP hook calls.
type recordingHooks struct {
	mu       sync.Mutex
	requests []string
	statuses []int
	errors   int
}

func (h *recordingHooks) OnRequest(_ context.Context, id, method, path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requests = append(h.requests, method+" "+path)
}

func (h *recordingHooks) OnResponse(_ context.Context, _, _, _ string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statuses = append(h.statuses, status)
}

func (h *recordingHooks) OnError(context.Context, string, string, string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors++
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	ts := newTestServer(t, Config{})
	for _, path := range []string{"/healthz", "/v1/presets/missing"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
	}

	// Response hooks fire after the body is flushed, so the client can get
	// ahead of them.
	deadline := time.Now().Add(2 * time.Second)
	for {
		hooks.mu.Lock()
		n := len(hooks.statuses)
		hooks.mu.Unlock()
		if n >= 2 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	if strings.Join(hooks.requests, ",") != "GET /healthz,GET /v1/presets/missing" {
		t.Errorf("requests = %v", hooks.requests)
	}
	if len(hooks.statuses) != 2 || hooks.statuses[0] != 200 || hooks.statuses[1] != 404 {
		t.Errorf("statuses = %v", hooks.statuses)
	}
	if hooks.errors != 1 {
		t.Errorf("errors = %d", hooks.errors)
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	s := New(pipeline.NewRunner(nil, nil, nil), Config{
		Addr:   "127.0.0.1:0",
		Logger: log.NewWithOptions(io.Discard, log.Options{}),
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
