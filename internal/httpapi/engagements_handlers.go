package httpapi

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"linkedva-engine/internal/events"
	"linkedva-engine/internal/export"
	"linkedva-engine/internal/store"
)

type EngagementsHandler struct {
	Engagements *store.Engagements
	Hub         *events.Hub
	Now         func() time.Time
}

func (h EngagementsHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Engagements.List(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, list)
}

func (h EngagementsHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.Engagements.Clear(r.Context()); err != nil {
		writeErr(w, r, err)
		return
	}
	h.Hub.Emit(RequestIDFrom(r.Context()), events.EngagementsChanged, map[string]any{"count": 0})
	w.WriteHeader(http.StatusNoContent)
}

// GetByPath serves /engagements/stats, /engagements/{postId} and
// /engagements/{postId}.csv.
func (h EngagementsHandler) GetByPath(w http.ResponseWriter, r *http.Request) {
	tail := pathTail(r, "/engagements/")
	switch {
	case tail == "":
		WriteError(w, r, http.StatusBadRequest, "invalid_id", "invalid post id")
	case tail == "stats":
		h.stats(w, r)
	case strings.HasSuffix(tail, ".csv"):
		h.postCSV(w, r, strings.TrimSuffix(tail, ".csv"))
	default:
		eng, err := h.Engagements.Get(r.Context(), tail)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, eng)
	}
}

func (h EngagementsHandler) stats(w http.ResponseWriter, r *http.Request) {
	d, err := h.Engagements.Stats(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, d)
}

func (h EngagementsHandler) DeleteByPath(w http.ResponseWriter, r *http.Request) {
	id := pathTail(r, "/engagements/")
	if id == "" {
		WriteError(w, r, http.StatusBadRequest, "invalid_id", "invalid post id")
		return
	}
	if err := h.Engagements.Delete(r.Context(), id); err != nil {
		writeErr(w, r, err)
		return
	}
	h.Hub.Emit(RequestIDFrom(r.Context()), events.EngagementsChanged, map[string]any{"deleted": id})
	w.WriteHeader(http.StatusNoContent)
}

func (h EngagementsHandler) CSV(w http.ResponseWriter, r *http.Request) {
	list, err := h.Engagements.List(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	var buf bytes.Buffer
	n, err := export.Engagements(&buf, list)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if n == 0 {
		WriteError(w, r, http.StatusNotFound, "empty", "No engagement data to export")
		return
	}
	attachment(w, "text/csv", export.EngagementsFilename(h.Now()))
	_, _ = w.Write(buf.Bytes())
}

func (h EngagementsHandler) postCSV(w http.ResponseWriter, r *http.Request, postID string) {
	eng, err := h.Engagements.Get(r.Context(), postID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	var buf bytes.Buffer
	if _, err := export.Engagement(&buf, eng); err != nil {
		writeErr(w, r, err)
		return
	}
	attachment(w, "text/csv", export.EngagementFilename(eng.PostID, h.Now()))
	_, _ = w.Write(buf.Bytes())
}
