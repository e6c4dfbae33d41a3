// Package events fans engine notifications out to SSE subscribers.
package events

import (
	"encoding/json"
	"time"
)

const (
	LeadsChanged        = "leads_changed"
	EngagementsChanged  = "engagements_changed"
	BrandProfileUpdated = "brandProfileUpdated"
	CrawlStarted        = "crawl_started"
	CrawlFinished       = "crawl_finished"
)

const Version = 1

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func MakeEvent(reqID, typ string, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:      typ,
		Version:   Version,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}
