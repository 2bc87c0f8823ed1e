package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/iwvelando/finance-dashboard/internal/assistant"
	"github.com/iwvelando/finance-dashboard/internal/dashboard"
	"github.com/iwvelando/finance-dashboard/internal/settings"
	"github.com/iwvelando/finance-dashboard/internal/upload"
	"github.com/iwvelando/finance-dashboard/pkg/constants"
	"github.com/iwvelando/finance-dashboard/pkg/series"
	"github.com/iwvelando/finance-dashboard/pkg/validation"
	"go.uber.org/zap"
)

// Services are the components served by the API. Uploads, Conversations and
// Settings hold the mutable state and are safe for concurrent use.
type Services struct {
	Catalog       *dashboard.Catalog
	Uploads       *upload.Manager
	Conversations *assistant.Registry
	Settings      *settings.Store
}

// Expire forgets the upload sessions and conversations left untouched for
// maxIdle before now.
func (s Services) Expire(now time.Time, maxIdle time.Duration) (uploads, conversations int) {
	if s.Uploads != nil {
		uploads = s.Uploads.Expire(now, maxIdle)
	}
	if s.Conversations != nil {
		conversations = s.Conversations.Expire(now, maxIdle)
	}
	return uploads, conversations
}

type handler struct {
	logger        *zap.Logger
	services      Services
	maxUploadSize int64
	version       string
}

// NewHandler constructs the HTTP handler that serves the dashboard API.
func NewHandler(logger *zap.Logger, services Services, maxUploadSize int64, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, services: services, maxUploadSize: maxUploadSize, version: trimmedVersion}

	mux := http.NewServeMux()

	// Version endpoint for UI metadata
	mux.HandleFunc("GET /api/version", h.handleVersion)

	// Navigation and page view models
	mux.HandleFunc("GET /api/pages", h.handlePages)
	mux.HandleFunc("GET /api/pages/{slug}", h.handlePage)

	// Chart images
	mux.HandleFunc("GET /api/charts/{file}", h.handleChartSVG)

	// Generated forecasts
	mux.HandleFunc("GET /api/forecasts/generate", h.handleGenerateForecast)

	// Upload sessions
	mux.HandleFunc("POST /api/upload", h.handleUpload)
	mux.HandleFunc("GET /api/upload/{id}", h.handleUploadStatus)
	mux.HandleFunc("DELETE /api/upload/{id}", h.handleUploadReset)

	// Assistant conversations
	mux.HandleFunc("POST /api/assistant/conversations", h.handleStartConversation)
	mux.HandleFunc("DELETE /api/assistant/conversations/{id}", h.handleEndConversation)
	mux.HandleFunc("GET /api/assistant/conversations/{id}/messages", h.handleMessages)
	mux.HandleFunc("POST /api/assistant/conversations/{id}/messages", h.handleSendMessage)

	// Settings
	mux.HandleFunc("GET /api/settings", h.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", h.handleSaveSettings)

	return mux
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, dashboard.ErrUnknownPage),
		errors.Is(err, dashboard.ErrUnknownPanel),
		errors.Is(err, dashboard.ErrUnknownDataset),
		errors.Is(err, upload.ErrSessionNotFound),
		errors.Is(err, assistant.ErrConversationNotFound):
		return http.StatusNotFound
	case errors.Is(err, upload.ErrUnsupportedFileType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, upload.ErrBusy),
		errors.Is(err, assistant.ErrTyping):
		return http.StatusConflict
	case errors.Is(err, upload.ErrClosed),
		errors.Is(err, assistant.ErrClosed):
		return http.StatusGone
	case errors.Is(err, dashboard.ErrModeNotOffered),
		errors.Is(err, assistant.ErrEmptyMessage),
		errors.Is(err, settings.ErrEmptyCompanyName),
		errors.Is(err, validation.ErrInvalidParameter),
		errors.Is(err, series.ErrMissingBranchKey):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) respondServiceError(w http.ResponseWriter, err error, op string) {
	h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response",
			zap.String("op", "server.writeJSON"),
			zap.Error(err),
		)
	}
}
