package httpapi

import (
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"linkedva-engine/internal/page"
	"linkedva-engine/internal/reply"
)

type ReplyHandler struct {
	Assistants *reply.Sessions
}

// snapshotReq addresses a field inside a page snapshot. Thread may be sent
// instead of html when the caller already collected the context.
type snapshotReq struct {
	SessionID string        `json:"sessionId"`
	URL       string        `json:"url"`
	HTML      string        `json:"html"`
	Field     page.Element  `json:"field"`
	Thread    *reply.Thread `json:"thread,omitempty"`
}

func (req snapshotReq) resolve() (*goquery.Document, *goquery.Selection, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(req.HTML))
	if err != nil {
		return nil, nil, err
	}
	return doc, page.Resolve(doc, req.Field), nil
}

func (h ReplyHandler) Eligible(w http.ResponseWriter, r *http.Request) {
	var req snapshotReq
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	_, field, err := req.resolve()
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_html", err.Error())
		return
	}
	writeJSON(w, map[string]any{"eligible": reply.Eligible(field, req.URL)})
}

func (h ReplyHandler) Draft(w http.ResponseWriter, r *http.Request) {
	var req snapshotReq
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	var thread reply.Thread
	if req.Thread != nil {
		thread = *req.Thread
	} else {
		doc, field, err := req.resolve()
		if err != nil {
			WriteError(w, r, http.StatusBadRequest, "invalid_html", err.Error())
			return
		}
		thread = reply.CollectContext(doc, field, nil, req.URL)
	}

	drafts, err := h.Assistants.Get(req.SessionID).Draft(r.Context(), thread)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"drafts": drafts, "context": thread})
}

type translateReq struct {
	SessionID string `json:"sessionId"`
	Text      string `json:"text"`
}

func (h ReplyHandler) Translate(w http.ResponseWriter, r *http.Request) {
	var req translateReq
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	out, err := h.Assistants.Get(req.SessionID).Translate(r.Context(), req.Text)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"text": out})
}

type insertReq struct {
	Field reply.Field `json:"field"`
	Text  string      `json:"text"`
}

// Insert applies a chosen draft to a field state sent by the caller and
// returns the new state.
func (h ReplyHandler) Insert(w http.ResponseWriter, r *http.Request) {
	var req insertReq
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	var editor reply.Editor = &req.Field
	if err := editor.Insert(r.Context(), req.Text); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, req.Field)
}
