package httpapi

import (
	"io"
	"net/http"
	"time"

	"linkedva-engine/internal/brand"
	"linkedva-engine/internal/domain"
	"linkedva-engine/internal/events"
	"linkedva-engine/internal/model"
	"linkedva-engine/internal/store"
)

type BrandHandler struct {
	Brand *store.Brand
	Hub   *events.Hub
	Model model.Provider
	Now   func() time.Time
}

// Get returns the profile, or null when none is set up.
func (h BrandHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Brand.Get(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, p)
}

// Put replaces the profile after validating it and stamps updatedAt.
func (h BrandHandler) Put(w http.ResponseWriter, r *http.Request) {
	p, ok := h.readProfile(w, r)
	if !ok {
		return
	}
	ts := brand.Timestamp(h.Now())
	if p.CreatedAt == "" {
		p.CreatedAt = ts
	}
	p.UpdatedAt = ts
	h.save(w, r, p)
}

// Import stores an exported profile as-is.
func (h BrandHandler) Import(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.readProfile(w, r); ok {
		h.save(w, r, p)
	}
}

func (h BrandHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Brand.Delete(r.Context()); err != nil {
		writeErr(w, r, err)
		return
	}
	h.Hub.Emit(RequestIDFrom(r.Context()), events.BrandProfileUpdated, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h BrandHandler) Export(w http.ResponseWriter, r *http.Request) {
	p, err := h.Brand.Get(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if p == nil {
		WriteError(w, r, http.StatusNotFound, "not_found", "Nothing to export yet.")
		return
	}
	b, err := brand.Export(p)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	attachment(w, "application/json", brand.ExportFilename)
	_, _ = w.Write(b)
}

// Generate builds a profile from the setup form with the model. An
// existing profile keeps its createdAt.
func (h BrandHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var form brand.Form
	if err := decodeBody(r, &form); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	existing, err := h.Brand.Get(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	p, err := brand.Generate(r.Context(), h.Model, brand.PayloadFromForm(form), h.Now())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if existing != nil && existing.CreatedAt != "" {
		p.CreatedAt = existing.CreatedAt
	}
	h.save(w, r, p)
}

func (h BrandHandler) readProfile(w http.ResponseWriter, r *http.Request) (*domain.BrandProfile, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return nil, false
	}
	p, err := brand.Import(body)
	if err != nil {
		writeErr(w, r, err)
		return nil, false
	}
	return p, true
}

func (h BrandHandler) save(w http.ResponseWriter, r *http.Request, p *domain.BrandProfile) {
	if err := h.Brand.Put(r.Context(), p); err != nil {
		writeErr(w, r, err)
		return
	}
	h.Hub.Emit(RequestIDFrom(r.Context()), events.BrandProfileUpdated, nil)
	writeJSON(w, p)
}
