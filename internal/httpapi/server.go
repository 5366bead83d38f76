package httpapi

import (
	"archive/zip"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chempredd/internal/descriptor"
	"chempredd/internal/predictor"
	"chempredd/internal/sparse"
	"chempredd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	ListModels() []types.Model
	ModelDetail(id string) (types.ModelDetail, error)
	Status() types.StatusResponse
	Predict(ctx context.Context, req types.PredictRequest) (types.PredictResponse, error)
	Ready() bool
}

// npz content type for prediction downloads (a zip of .npy arrays).
const contentTypeNpz = "application/x-npz"

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}

	r.Get("/models", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, types.ModelsResponse{Models: svc.ListModels()})
	})

	r.Get("/models/{id}", func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.ModelDetail(chi.URLParam(r, "id"))
		if err != nil {
			writeMappedError(w, r, err)
			return
		}
		writeJSON(w, d)
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.Status())
	})

	r.Post("/predict", func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req types.PredictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		// Empty model falls through to the service's default-model
		// resolution; a true miss comes back as a 404.
		if len(req.Smiles) == 0 && strings.TrimSpace(req.CSV) == "" {
			writeJSONError(w, http.StatusBadRequest, "smiles or csv is required")
			return
		}

		// Join server base context with request context so shutdown cancels work too.
		joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		if sec := predictTimeoutSeconds(); sec > 0 {
			var tcancel context.CancelFunc
			joinedCtx, tcancel = context.WithTimeout(joinedCtx, time.Duration(sec)*time.Second)
			defer tcancel()
		}

		start := time.Now()
		lvl := requestLogLevel(r)
		if lvl >= LevelInfo {
			logEvent(r).Str("model", req.Model).Int("smiles", len(req.Smiles)).Msg("predict start")
		}
		resp, err := svc.Predict(joinedCtx, req)
		if err != nil {
			// Client disconnect or shutdown: nothing sensible to write.
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			status := mapErrorStatus(err)
			writeJSONError(w, status, err.Error())
			if lvl >= LevelInfo {
				logEvent(r).Int("status", status).Dur("dur", time.Since(start)).Err(err).Msg("predict end")
			}
			return
		}
		if wantsNpz(r) {
			if err := writeNpz(w, resp); err != nil && lvl >= LevelError {
				logEvent(r).Err(err).Msg("npz write failed")
			}
		} else {
			writeJSON(w, resp)
		}
		if lvl >= LevelInfo {
			logEvent(r).Int("status", http.StatusOK).Int("rows", resp.Classification.Rows).Dur("dur", time.Since(start)).Msg("predict end")
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("loading"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// mapErrorStatus translates pipeline errors to HTTP status codes.
func mapErrorStatus(err error) int {
	switch {
	case predictor.IsModelUnknown(err):
		return http.StatusNotFound
	case descriptor.IsBadInput(err):
		return http.StatusBadRequest
	case descriptor.IsUnavailable(err):
		return http.StatusServiceUnavailable
	}
	if he, ok := err.(HTTPError); ok {
		return he.StatusCode()
	}
	return http.StatusInternalServerError
}

func wantsNpz(r *http.Request) bool {
	if r.URL.Query().Get("format") == "npz" {
		return true
	}
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Accept")), contentTypeNpz)
}

// writeNpz streams the two prediction heads as an npz archive
// (cls_pred.npy + reg_pred.npy inside a zip).
func writeNpz(w http.ResponseWriter, resp types.PredictResponse) error {
	w.Header().Set("Content-Type", contentTypeNpz)
	w.Header().Set("Content-Disposition", `attachment; filename="predictions.npz"`)
	zw := zip.NewWriter(w)
	for _, part := range []struct {
		name string
		m    types.Matrix
	}{
		{"cls_pred.npy", resp.Classification},
		{"reg_pred.npy", resp.Regression},
	} {
		f, err := zw.Create(part.name)
		if err != nil {
			return err
		}
		if err := sparse.WriteMatrix(f, part.m); err != nil {
			return err
		}
	}
	return zw.Close()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}

func writeMappedError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorStatus(err)
	writeJSONError(w, status, err.Error())
	if requestLogLevel(r) >= LevelError {
		logEvent(r).Int("status", status).Err(err).Msg("request failed")
	}
}
