package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/patina/pkg/buildinfo"
	"github.com/matzehuels/patina/pkg/errors"
	"github.com/matzehuels/patina/pkg/observability"
	"github.com/matzehuels/patina/pkg/pipeline"
	"github.com/matzehuels/patina/pkg/preset"
)

// Response headers set on aged images.
const (
	HeaderCache       = "X-Cache"
	HeaderCrackLength = "X-Crack-Length"
	HeaderSeed        = "X-Seed"
	HeaderPreset      = "X-Preset"
)

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string         `json:"status"`
		Build  buildinfo.Info `json:"build"`
	}{"ok", buildinfo.Get()})
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	presets, err := preset.All()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Default string           `json:"default"`
		Presets []*preset.Preset `json:"presets"`
	}{preset.DefaultName, presets})
}

func (s *Server) handlePreset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := errors.ValidatePresetName(name); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := preset.Builtin(name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleAge(w http.ResponseWriter, r *http.Request) {
	opts, err := ageOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Logger = s.cfg.Logger.With("request_id", RequestID(r.Context()))

	input, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Timeout)
	defer cancel()
	res, err := s.runner.Execute(ctx, input, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", pipeline.ContentType(res.Format))
	h.Set("Content-Length", strconv.Itoa(len(res.Artifact)))
	h.Set(HeaderCrackLength, strconv.FormatFloat(res.Report.CrackLength, 'f', 1, 64))
	h.Set(HeaderSeed, strconv.FormatUint(opts.Seed, 10))
	h.Set(HeaderPreset, res.Preset.Name)
	if res.CacheHit {
		h.Set(HeaderCache, "HIT")
	} else {
		h.Set(HeaderCache, "MISS")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifact)
}

// ageOptions reads pipeline options from the query string. Preset files are
// never reachable over HTTP; only built-in names are accepted.
func ageOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{
		Preset: q.Get("preset"),
		Format: q.Get("format"),
	}
	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return opts, errors.Invalid("seed", "invalid seed %q", v)
		}
		opts.Seed = seed
	}
	if v := q.Get("quality"); v != "" {
		quality, err := strconv.Atoi(v)
		if err != nil {
			return opts, errors.Invalid("quality", "invalid quality %q", v)
		}
		opts.Quality = quality
	}
	if v := q.Get("refresh"); v != "" {
		refresh, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.Invalid("refresh", "invalid refresh %q", v)
		}
		opts.Refresh = refresh
	}
	return opts, opts.ValidateAndSetDefaults()
}

// StatusFor maps an error to an HTTP status code.
func StatusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case stderrors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.IsInvalid(err):
		return http.StatusBadRequest
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeResourceExhausted:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	id := RequestID(ctx)
	status := StatusFor(err)
	observability.HTTP().OnError(ctx, id, r.Method, r.URL.Path, err)

	msg := errors.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.cfg.Logger.Error("request failed", "id", id, "path", r.URL.Path, "error", err)
		msg = fmt.Sprintf("internal error (request %s)", id)
	}
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      string(errors.GetCode(err)),
		Field:     errors.FieldOf(err),
		RequestID: id,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
