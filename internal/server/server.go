// Package server exposes crop detection over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/torre76/crophound/crop"
	"github.com/torre76/crophound/internal/metrics"
)

const maxRequestSize = 1 << 16

// Detector is the part of crop.Detector the server needs.
type Detector interface {
	Detect(ctx context.Context, path string) (*crop.Decision, error)
}

// Errors returned by resolvePath.
var (
	ErrInvalidPath  = errors.New("path must name an absolute local file")
	ErrOutsideRoot  = errors.New("path is outside the media root")
	ErrFileNotFound = errors.New("file not found")
)

// App serves detection requests.
type App struct {
	Detector Detector
	Logger   *zap.Logger
	// MediaRoot, when set, is the only directory tree requests may read from
	MediaRoot string
}

type detectRequest struct {
	Path string `json:"path"`
}

type detectResponse struct {
	ID   string `json:"id"`
	Path string `json:"path"`
	*crop.Decision
	CropFilter string `json:"filter"`
}

type errorResponse struct {
	ID    string `json:"id,omitempty"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// NewRouter wires the HTTP routes.
func NewRouter(app *App) http.Handler {
	if app.Logger == nil {
		app.Logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", HealthHandler)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/v1/crop", app.DetectHandler)

	return r
}

// HealthHandler answers liveness probes.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// DetectHandler runs a detection for the file named in the request body.
func (app *App) DetectHandler(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()

	var req detectRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestSize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{ID: id, Kind: "bad_request", Error: err.Error()})
		return
	}
	req.Path = strings.TrimSpace(req.Path)
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{ID: id, Kind: "bad_request", Error: "path is required"})
		return
	}

	filePath, err := resolvePath(app.MediaRoot, req.Path)
	if err != nil {
		status, kind := classifyPath(err)
		app.Logger.Warn("crop request rejected",
			zap.String("id", id),
			zap.String("path", req.Path),
			zap.Error(err),
		)
		writeJSON(w, status, errorResponse{ID: id, Kind: kind, Error: err.Error()})
		return
	}

	start := time.Now()
	decision, err := app.Detector.Detect(r.Context(), filePath)
	metrics.ObserveDetection(err, time.Since(start).Seconds())

	if err != nil {
		status, kind := classify(err)
		app.Logger.Warn("crop detection failed",
			zap.String("id", id),
			zap.String("path", req.Path),
			zap.String("kind", kind),
			zap.Error(err),
		)
		writeJSON(w, status, errorResponse{ID: id, Kind: kind, Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, detectResponse{
		ID:         id,
		Path:       req.Path,
		Decision:   decision,
		CropFilter: decision.Filter(),
	})
}

// Run serves handler on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	logger.Info("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}

// classify maps detection errors to an HTTP status and error kind.
func classify(err error) (int, string) {
	switch kind := metrics.Outcome(err); kind {
	case "canceled":
		return http.StatusServiceUnavailable, kind
	case "probe_error", "planning_error", "no_consensus":
		return http.StatusUnprocessableEntity, kind
	default:
		return http.StatusInternalServerError, kind
	}
}

// classifyPath maps resolvePath errors to an HTTP status and error kind.
func classifyPath(err error) (int, string) {
	switch {
	case errors.Is(err, ErrOutsideRoot):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, ErrFileNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrInvalidPath):
		return http.StatusBadRequest, "invalid_path"
	default:
		return http.StatusInternalServerError, "error"
	}
}

// resolvePath turns a requested path into the regular file it names, with
// symlinks resolved. URLs, option-like names and relative paths are refused,
// and so is anything that resolves outside root when root is set.
func resolvePath(root, requested string) (string, error) {
	if strings.HasPrefix(requested, "-") || strings.Contains(requested, "://") || !filepath.IsAbs(requested) {
		return "", ErrInvalidPath
	}

	resolved, err := filepath.EvalSymlinks(filepath.Clean(requested))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrFileNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}

	if root != "" {
		resolvedRoot, err := filepath.EvalSymlinks(root)
		if err != nil {
			return "", fmt.Errorf("media root: %w", err)
		}
		rel, err := filepath.Rel(resolvedRoot, resolved)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", ErrOutsideRoot
		}
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", ErrFileNotFound
	}
	if !info.Mode().IsRegular() {
		return "", ErrInvalidPath
	}
	return resolved, nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
