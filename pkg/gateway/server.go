// Package gateway is the HTTP surface: one route per destination, a raw
// generation endpoint, health, and the batch progress stream.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/manthysbr/connectorseed/internal/core/domain"
	"github.com/manthysbr/connectorseed/internal/core/ports"
	"github.com/manthysbr/connectorseed/internal/core/services"
)

// TokenExpiredCode tells the caller to re-authenticate with the destination.
const TokenExpiredCode = "TOKEN_EXPIRED"

const rawGenerationMaxTokens = 1000

type Server struct {
	logger      *slog.Logger
	cfg         *domain.AppConfig
	generator   ports.Generator
	pipeline    *services.BatchPipeline
	siteUpdater *services.SiteContentUpdater
	events      *services.EventBus
	factories   Factories
	newRandom   func() ports.Random
}

func NewServer(
	logger *slog.Logger,
	cfg *domain.AppConfig,
	generator ports.Generator,
	pipeline *services.BatchPipeline,
	siteUpdater *services.SiteContentUpdater,
	events *services.EventBus,
	factories Factories,
) *Server {
	return &Server{
		logger:      logger,
		cfg:         cfg,
		generator:   generator,
		pipeline:    pipeline,
		siteUpdater: siteUpdater,
		events:      events,
		factories:   factories,
		newRandom: func() ports.Random {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
	}
}

// SetRandomSource replaces the per-request random source constructor.
func (s *Server) SetRandomSource(fn func() ports.Random) {
	s.newRandom = fn
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/batches/{id}/events", s.handleBatchEvents)
	mux.HandleFunc("POST /api/bedrock", s.handleGenerate)
	mux.HandleFunc("POST /api/s3/create-files", s.handleS3Files)
	mux.HandleFunc("POST /api/create-issues", s.handleCreateIssues)
	mux.HandleFunc("POST /api/onedrive/create-files", s.handleOneDriveFiles)
	mux.HandleFunc("POST /api/upload-gdrive-files", s.handleGDriveFiles)
	mux.HandleFunc("POST /api/sharepoint/create-files", s.handleSharePointFiles)
	mux.HandleFunc("POST /api/gmail/generate-emails", s.handleGmailEmails)

	return s.withRequestLog(mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// withRequestLog tags every request with an id and logs its outcome.
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
			r.Header.Set("X-Request-ID", id)
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		s.logger.Info("request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// handleHealth reports liveness.
// GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "Server running",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// handleGenerate runs one raw generation.
// POST /api/bedrock
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.Prompt == "" {
		s.writeFailure(w, domain.NewValidationError("Prompt is required"), "")
		return
	}

	text, err := s.generator.Generate(r.Context(), req.Prompt, rawGenerationMaxTokens)
	if err != nil {
		s.writeFailure(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"response": text,
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeFailure(w, domain.NewValidationError("invalid request body: %v", err), "")
		return false
	}
	return true
}

// batchContext detaches a batch from client cancellation; once started a
// batch runs to completion.
func batchContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

// runBatch runs plan under the request id, so progress can be followed on
// the batch event stream.
func (s *Server) runBatch(ctx context.Context, r *http.Request, plan services.BatchPlan, rnd ports.Random) (*domain.BatchResult, error) {
	plan.BatchID = r.Header.Get("X-Request-ID")
	return s.pipeline.Run(ctx, plan, rnd)
}

// itemCount resolves an optional requested count.
func itemCount(requested *int, fallback int) (int, error) {
	if requested == nil {
		return fallback, nil
	}
	if *requested < 0 {
		return 0, domain.NewValidationError("count must not be negative")
	}
	return *requested, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeFailure maps an error to 400, 401 or 500. service names the
// destination the caller has to re-authenticate with.
func (s *Server) writeFailure(w http.ResponseWriter, err error, service string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": verr.Message})
	case errors.Is(err, domain.ErrAuthExpired):
		s.logger.Warn("destination rejected credential", "service", service, "error", err)
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"success": false,
			"error":   fmt.Sprintf("Access token expired or invalid. Please re-authenticate with %s.", service),
			"code":    TokenExpiredCode,
		})
	default:
		s.logger.Error("request failed", "service", service, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
	}
}

func receiptDetails(receipts []domain.DeliveryReceipt) []map[string]any {
	out := make([]map[string]any, 0, len(receipts))
	for _, rc := range receipts {
		out = append(out, rc.Details)
	}
	return out
}
