package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"linkedva-engine/internal/config"
	"linkedva-engine/internal/extract"
	"linkedva-engine/internal/model"
)

type ExtractHandler struct {
	Model model.Provider
	Fetch func(ctx context.Context, pageURL string) (string, error)
	Cfg   func() config.Config
	Log   *zap.Logger
}

type extractReq struct {
	URL          string `json:"url"`
	HTML         string `json:"html"`
	PageContent  string `json:"pageContent"`
	SelectedText string `json:"selectedText"`
}

// input turns the request into model input. Page content wins over html,
// and html over fetching url.
func (h ExtractHandler) input(ctx context.Context, req extractReq) (model.LeadInput, error) {
	in := model.LeadInput{
		PageContent:  strings.TrimSpace(req.PageContent),
		SelectedText: strings.TrimSpace(req.SelectedText),
		PageURL:      req.URL,
	}
	if in.PageContent != "" {
		return in, nil
	}
	html := req.HTML
	if html == "" && req.URL != "" && h.Fetch != nil {
		var err error
		if html, err = h.Fetch(ctx, req.URL); err != nil {
			return in, err
		}
	}
	if html == "" {
		return in, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return in, err
	}
	x := extract.Extractor{Log: h.Log}
	if h.Cfg != nil {
		x.Trafilatura = h.Cfg().Extract.GenericTrafilatura
	}
	in.PageContent = x.Page(doc, req.URL)
	return in, nil
}

func (h ExtractHandler) Lead(w http.ResponseWriter, r *http.Request) {
	var req extractReq
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	in, err := h.input(r.Context(), req)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	lead, err := model.ExtractLead(r.Context(), h.Model, in)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, lead)
}
