package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"linkedva-engine/internal/browser"
	"linkedva-engine/internal/config"
	"linkedva-engine/internal/domain"
	"linkedva-engine/internal/engagement"
	"linkedva-engine/internal/events"
	"linkedva-engine/internal/logging"
	"linkedva-engine/internal/metrics"
	"linkedva-engine/internal/store"
)

type CrawlStatus struct {
	LastRunAt    string `json:"last_run_at"`
	LastOkAt     string `json:"last_ok_at"`
	LastError    string `json:"last_error"`
	LastPostID   string `json:"last_post_id"`
	LastProfiles int    `json:"last_profiles"`
	Running      bool   `json:"running"`
}

type CrawlHandler struct {
	Log         *zap.Logger
	State       *atomic.Value // httpapi.CrawlStatus
	Engagements *store.Engagements
	Hub         *events.Hub
	Crawl       func(ctx context.Context, postURL string) (domain.Engagement, error)
	Cfg         func() config.Config
}

func (h CrawlHandler) Status(w http.ResponseWriter, r *http.Request) {
	st, _ := h.State.Load().(CrawlStatus)
	writeJSON(w, st)
}

type crawlReq struct {
	URL string `json:"url"`
}

func (h CrawlHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req crawlReq
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if u, err := url.Parse(req.URL); err != nil || u.Scheme == "" || u.Host == "" {
		WriteError(w, r, http.StatusBadRequest, "invalid_url", "url must be an absolute post URL")
		return
	}
	if !engagement.IsPostURL(req.URL) {
		WriteError(w, r, http.StatusBadRequest, "not_a_post", "Open a LinkedIn post to capture its engagement.")
		return
	}
	if h.Crawl == nil {
		WriteError(w, r, http.StatusServiceUnavailable, "capability_unavailable", "browser automation is not configured")
		return
	}

	h.State.CompareAndSwap(nil, CrawlStatus{})
	st := h.State.Load().(CrawlStatus)
	if st.Running {
		writeJSON(w, map[string]any{"ok": false, "msg": "already running"})
		return
	}
	next := st
	next.Running = true
	next.LastRunAt = time.Now().Format(time.RFC3339)
	next.LastError = ""
	if !h.State.CompareAndSwap(st, next) {
		writeJSON(w, map[string]any{"ok": false, "msg": "already running"})
		return
	}

	reqID := RequestIDFrom(r.Context())
	h.Hub.Emit(reqID, events.CrawlStarted, map[string]any{"url": req.URL})
	go h.run(reqID, req.URL)

	WriteJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

func (h CrawlHandler) run(reqID, postURL string) {
	log := logging.OrNop(h.Log).With(zap.String("request_id", reqID), zap.String("url", postURL))
	ctx := context.Background()
	if h.Cfg != nil {
		if ms := h.Cfg().Crawler.TimeoutMS; ms > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, time.Duration(ms)*time.Millisecond)
			defer cancel()
		}
	}

	eng, err := h.Crawl(ctx, postURL)
	total := 0
	if err == nil {
		eng.ComputeStats()
		total, err = h.Engagements.Save(ctx, eng)
	}

	outcome := "ok"
	switch {
	case errors.Is(err, browser.ErrContextInvalidated):
		outcome = "invalidated"
	case err != nil:
		outcome = "error"
	}
	metrics.CrawlsCompleted.WithLabelValues(outcome).Inc()

	now := time.Now().Format(time.RFC3339)
	next, _ := h.State.Load().(CrawlStatus)
	next.Running = false
	next.LastRunAt = now
	next.LastPostID = eng.PostID
	next.LastProfiles = eng.Stats.TotalEngagement
	if err != nil {
		log.Warn("crawl failed", zap.Error(err))
		next.LastError = userMessage(err)
	} else {
		next.LastError = ""
		next.LastOkAt = now
		h.Hub.Emit(reqID, events.EngagementsChanged, map[string]any{"postId": eng.PostID, "count": total})
	}
	h.State.Store(next)
	h.Hub.Emit(reqID, events.CrawlFinished, next)
}
