package httpapi

import (
	"bytes"
	"net/http"
	"time"

	"linkedva-engine/internal/events"
	"linkedva-engine/internal/export"
	"linkedva-engine/internal/store"
)

type LeadsHandler struct {
	Leads *store.Leads
	Hub   *events.Hub
	Now   func() time.Time
}

func (h LeadsHandler) List(w http.ResponseWriter, r *http.Request) {
	leads, err := h.Leads.List(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, leads)
}

func (h LeadsHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.Leads.Clear(r.Context()); err != nil {
		writeErr(w, r, err)
		return
	}
	h.Hub.Emit(RequestIDFrom(r.Context()), events.LeadsChanged, map[string]any{"count": 0})
	w.WriteHeader(http.StatusNoContent)
}

func (h LeadsHandler) DeleteByPath(w http.ResponseWriter, r *http.Request) {
	id := pathTail(r, "/leads/")
	if id == "" {
		WriteError(w, r, http.StatusBadRequest, "invalid_id", "invalid id")
		return
	}
	if err := h.Leads.Delete(r.Context(), id); err != nil {
		writeErr(w, r, err)
		return
	}
	h.Hub.Emit(RequestIDFrom(r.Context()), events.LeadsChanged, map[string]any{"deleted": id})
	w.WriteHeader(http.StatusNoContent)
}

func (h LeadsHandler) CSV(w http.ResponseWriter, r *http.Request) {
	leads, err := h.Leads.List(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if len(leads) == 0 {
		WriteError(w, r, http.StatusNotFound, "empty", "No leads to export")
		return
	}
	var buf bytes.Buffer
	if err := export.Leads(&buf, leads); err != nil {
		writeErr(w, r, err)
		return
	}
	attachment(w, "text/csv", export.LeadsFilename(h.Now()))
	_, _ = w.Write(buf.Bytes())
}
