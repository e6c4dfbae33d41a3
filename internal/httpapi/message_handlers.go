package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"linkedva-engine/internal/domain"
	"linkedva-engine/internal/events"
	"linkedva-engine/internal/logging"
	"linkedva-engine/internal/model"
)

// Message is the extension's runtime message. Payload fields sit next to
// the action name.
type Message struct {
	Action string `json:"action,omitempty"`
	Type   string `json:"type,omitempty"`

	PageContent  string             `json:"pageContent,omitempty"`
	SelectedText string             `json:"selectedText,omitempty"`
	URL          string             `json:"url,omitempty"`
	Lead         *domain.Lead       `json:"lead,omitempty"`
	Engagement   *domain.Engagement `json:"engagement,omitempty"`
	PostURL      string             `json:"postUrl,omitempty"`
	PostID       string             `json:"postId,omitempty"`
}

// MessageHandler answers runtime messages with {success, ...} envelopes.
// Failures are reported in the envelope, not the status code.
type MessageHandler struct {
	Deps Deps
}

type envelope map[string]any

func failure(err error) envelope {
	return envelope{"success": false, "error": userMessage(err)}
}

func (h MessageHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var msg Message
	if err := decodeBody(r, &msg); err != nil {
		WriteJSON(w, http.StatusBadRequest, envelope{"success": false, "error": err.Error()})
		return
	}
	writeJSON(w, h.dispatch(r, msg))
}

func (h MessageHandler) dispatch(r *http.Request, msg Message) envelope {
	ctx := r.Context()
	reqID := RequestIDFrom(ctx)
	d := h.Deps

	if msg.Type == events.BrandProfileUpdated {
		logging.OrNop(d.Log).Info("brand profile updated", zap.String("request_id", reqID))
		d.Hub.Emit(reqID, events.BrandProfileUpdated, nil)
		return envelope{"success": true}
	}

	switch msg.Action {
	case "extractLead":
		res := model.Extract(ctx, d.Model, model.LeadInput{
			PageContent:  msg.PageContent,
			SelectedText: msg.SelectedText,
			PageURL:      msg.URL,
		})
		if !res.Success {
			return envelope{"success": false, "error": res.Error}
		}
		return envelope{"success": true, "data": res.Data}

	case "getStoredLeads":
		leads, err := d.Leads.List(ctx)
		if err != nil {
			return failure(err)
		}
		return envelope{"success": true, "leads": leads}

	case "saveLead":
		var lead domain.Lead
		if msg.Lead != nil {
			lead = *msg.Lead
		}
		saved, total, err := d.Leads.Save(ctx, lead, msg.URL)
		if err != nil {
			return failure(err)
		}
		d.Hub.Emit(reqID, events.LeadsChanged, map[string]any{"id": saved.ID, "count": total})
		return envelope{"success": true, "totalLeads": total, "lead": saved}

	case "clearLeads":
		if err := d.Leads.Clear(ctx); err != nil {
			return failure(err)
		}
		d.Hub.Emit(reqID, events.LeadsChanged, map[string]any{"count": 0})
		return envelope{"success": true}

	case "savePostEngagement":
		if msg.Engagement == nil {
			return envelope{"success": false, "error": "Failed to extract engagement data"}
		}
		eng := *msg.Engagement
		if eng.PostURL == "" {
			eng.PostURL = msg.PostURL
		}
		if eng.PostID == "" {
			eng.PostID = domain.PostIDFromURL(eng.PostURL)
		}
		if eng.ExtractedAt == 0 {
			eng.ExtractedAt = d.now().UnixMilli()
		}
		total, err := d.Engagements.Save(ctx, eng)
		if err != nil {
			return failure(err)
		}
		d.Hub.Emit(reqID, events.EngagementsChanged, map[string]any{"postId": eng.PostID, "count": total})
		return envelope{"success": true, "totalEngagements": total}

	case "getStoredEngagements":
		list, err := d.Engagements.List(ctx)
		if err != nil {
			return failure(err)
		}
		return envelope{"success": true, "engagements": list}

	case "deleteEngagement":
		if err := d.Engagements.Delete(ctx, msg.PostID); err != nil {
			return failure(err)
		}
		d.Hub.Emit(reqID, events.EngagementsChanged, map[string]any{"deleted": msg.PostID})
		return envelope{"success": true}

	case "clearEngagements":
		if err := d.Engagements.Clear(ctx); err != nil {
			return failure(err)
		}
		d.Hub.Emit(reqID, events.EngagementsChanged, map[string]any{"count": 0})
		return envelope{"success": true}
	}

	return envelope{"success": false, "error": "unknown action: " + msg.Action}
}
