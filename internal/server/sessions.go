package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/iwvelando/finance-dashboard/internal/assistant"
	"github.com/iwvelando/finance-dashboard/internal/notify"
	"github.com/iwvelando/finance-dashboard/internal/settings"
	"github.com/iwvelando/finance-dashboard/internal/upload"
	"go.uber.org/zap"
)

type rejectionResponse struct {
	Error        string              `json:"error"`
	Notification notify.Notification `json:"notification"`
}

// handleUpload accepts a multipart "file" field. The optional "session"
// field uploads into an existing (reset) session; otherwise a new session is
// created. Only the file name and size are used.
func (h *handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpload"

	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	uploads := h.services.Uploads
	var (
		session *upload.Session
		created bool
	)
	if id := r.FormValue("session"); id != "" {
		if session, err = uploads.Get(id); err != nil {
			h.respondServiceError(w, err, op)
			return
		}
	} else {
		session, created = uploads.Create(), true
	}

	if err := session.Upload(header.Filename, header.Size); err != nil {
		if created {
			if removeErr := uploads.Remove(session.ID()); removeErr != nil {
				h.logger.Warn("failed to remove rejected upload session",
					zap.String("op", op),
					zap.String("session", session.ID()),
					zap.Error(removeErr),
				)
			}
		}
		var rejection *upload.RejectionError
		if errors.As(err, &rejection) {
			h.logger.Info("upload rejected",
				zap.String("op", op),
				zap.String("filename", header.Filename),
			)
			h.writeJSON(w, http.StatusUnsupportedMediaType, rejectionResponse{
				Error:        err.Error(),
				Notification: rejection.Notification,
			})
			return
		}
		h.respondServiceError(w, err, op)
		return
	}

	h.writeJSON(w, http.StatusAccepted, session.Status())
}

func (h *handler) handleUploadStatus(w http.ResponseWriter, r *http.Request) {
	session, err := h.services.Uploads.Get(r.PathValue("id"))
	if err != nil {
		h.respondServiceError(w, err, "server.handleUploadStatus")
		return
	}
	h.writeJSON(w, http.StatusOK, session.Status())
}

// handleUploadReset returns the session to the empty phase so another file
// can be uploaded.
func (h *handler) handleUploadReset(w http.ResponseWriter, r *http.Request) {
	session, err := h.services.Uploads.Get(r.PathValue("id"))
	if err != nil {
		h.respondServiceError(w, err, "server.handleUploadReset")
		return
	}
	session.Reset()
	h.writeJSON(w, http.StatusOK, session.Status())
}

func (h *handler) handleStartConversation(w http.ResponseWriter, r *http.Request) {
	c := h.services.Conversations.Start()
	h.logger.Debug("conversation started",
		zap.String("op", "server.handleStartConversation"),
		zap.String("conversation", c.ID()),
	)
	h.writeJSON(w, http.StatusCreated, c.State())
}

// handleEndConversation closes a conversation and forgets it, cancelling a
// pending reply.
func (h *handler) handleEndConversation(w http.ResponseWriter, r *http.Request) {
	if err := h.services.Conversations.Remove(r.PathValue("id")); err != nil {
		h.respondServiceError(w, err, "server.handleEndConversation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleMessages(w http.ResponseWriter, r *http.Request) {
	c, err := h.services.Conversations.Get(r.PathValue("id"))
	if err != nil {
		h.respondServiceError(w, err, "server.handleMessages")
		return
	}
	h.writeJSON(w, http.StatusOK, c.State())
}

type sendRequest struct {
	Text string `json:"text"`
}

type sendResponse struct {
	Message assistant.Message `json:"message"`
	State   assistant.State   `json:"state"`
}

// handleSendMessage stores the user message and answers 202; the reply
// appears in the conversation after the typing delay.
func (h *handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSendMessage"

	c, err := h.services.Conversations.Get(r.PathValue("id"))
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode message: %v", err), op)
		return
	}

	msg, err := c.Send(req.Text)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusAccepted, sendResponse{Message: msg, State: c.State()})
}

func (h *handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.services.Settings.Get())
}

type saveSettingsResponse struct {
	Settings     settings.Settings   `json:"settings"`
	Notification notify.Notification `json:"notification"`
}

func (h *handler) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSaveSettings"

	var next settings.Settings
	if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode settings: %v", err), op)
		return
	}

	n, err := h.services.Settings.Save(next)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, saveSettingsResponse{
		Settings:     h.services.Settings.Get(),
		Notification: n,
	})
}
