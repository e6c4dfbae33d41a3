package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"linkedva-engine/internal/brand"
	"linkedva-engine/internal/browser"
	"linkedva-engine/internal/model"
	"linkedva-engine/internal/reply"
	"linkedva-engine/internal/store"
)

type APIError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.RequestID = RequestIDFrom(r.Context())
	WriteJSON(w, status, e)
}

const crawlTimeoutMessage = "Engagement capture timed out. Reload the post and try again."

// userMessage is the text the extension shows for err.
func userMessage(err error) string {
	switch {
	case errors.Is(err, browser.ErrContextInvalidated):
		return browser.InvalidatedMessage
	case errors.Is(err, context.DeadlineExceeded):
		return crawlTimeoutMessage
	}
	return reply.Message(err)
}

// writeErr maps domain errors onto status codes.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrUnavailable):
		WriteError(w, r, http.StatusServiceUnavailable, "capability_unavailable", err.Error())
	case errors.Is(err, browser.ErrContextInvalidated):
		WriteError(w, r, http.StatusConflict, "context_invalidated", browser.InvalidatedMessage)
	case errors.Is(err, reply.ErrStale):
		WriteError(w, r, http.StatusConflict, "stale", err.Error())
	case errors.Is(err, store.ErrNotFound):
		WriteError(w, r, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, brand.ErrInvalidProfile):
		WriteError(w, r, http.StatusBadRequest, "invalid_profile", err.Error())
	case errors.Is(err, reply.ErrNoBrand),
		errors.Is(err, reply.ErrNothingToTrans),
		errors.Is(err, reply.ErrNoSafeDrafts):
		WriteError(w, r, http.StatusUnprocessableEntity, "reply_failed", reply.Message(err))
	case errors.Is(err, model.ErrMalformedOutput):
		WriteError(w, r, http.StatusBadGateway, "malformed_output", err.Error())
	default:
		WriteError(w, r, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
