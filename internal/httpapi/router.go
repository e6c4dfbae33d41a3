package httpapi

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewMux returns the raw mux so the caller can still attach /shutdown (needs srv+token).
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: HealthHandler{}.Health,
	}))
	mux.Handle("/metrics", promhttp.Handler())

	// Extension message envelope
	mh := MessageHandler{Deps: d}
	mux.HandleFunc("/message", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: mh.Handle,
	}))

	// Leads
	lh := LeadsHandler{Leads: d.Leads, Hub: d.Hub, Now: d.now}
	mux.HandleFunc("/leads", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:    lh.List,
		http.MethodDelete: lh.Clear,
	}))
	mux.HandleFunc("/leads/", methodMux(map[string]http.HandlerFunc{
		http.MethodDelete: lh.DeleteByPath, // expects /leads/{id}
	}))
	mux.HandleFunc("/leads.csv", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: lh.CSV,
	}))

	// Engagements
	eh := EngagementsHandler{Engagements: d.Engagements, Hub: d.Hub, Now: d.now}
	mux.HandleFunc("/engagements", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:    eh.List,
		http.MethodDelete: eh.Clear,
	}))
	mux.HandleFunc("/engagements/", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:    eh.GetByPath, // /engagements/{postId}, /engagements/{postId}.csv, /engagements/stats
		http.MethodDelete: eh.DeleteByPath,
	}))
	mux.HandleFunc("/engagements.csv", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.CSV,
	}))

	// Brand voice
	bh := BrandHandler{Brand: d.Brand, Hub: d.Hub, Model: d.Model, Now: d.now}
	mux.HandleFunc("/brand", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:    bh.Get,
		http.MethodPut:    bh.Put,
		http.MethodDelete: bh.Delete,
	}))
	mux.HandleFunc("/brand/import", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: bh.Import,
	}))
	mux.HandleFunc("/brand/export", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: bh.Export,
	}))
	mux.HandleFunc("/brand/generate", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: bh.Generate,
	}))

	// Reply assistant
	rh := ReplyHandler{Assistants: d.Assistants}
	mux.HandleFunc("/reply/eligible", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: rh.Eligible,
	}))
	mux.HandleFunc("/reply/draft", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: rh.Draft,
	}))
	mux.HandleFunc("/reply/translate", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: rh.Translate,
	}))
	mux.HandleFunc("/reply/insert", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: rh.Insert,
	}))

	// Crawl
	if d.CrawlStatus == nil {
		d.CrawlStatus = &atomic.Value{}
	}
	crh := CrawlHandler{
		Log:         d.Log,
		State:       d.CrawlStatus,
		Engagements: d.Engagements,
		Hub:         d.Hub,
		Crawl:       d.Crawl,
		Cfg:         d.config,
	}
	mux.HandleFunc("/crawl/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: crh.Status,
	}))
	mux.HandleFunc("/crawl/engagement", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: crh.Run,
	}))

	// Lead extraction
	xh := ExtractHandler{Model: d.Model, Fetch: d.Fetch, Cfg: d.config, Log: d.Log}
	mux.HandleFunc("/extract/lead", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: xh.Lead,
	}))

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Validate,
	}))

	// Secrets (use cfgVal, NOT a snapshot cfg)
	sh := SecretsHandler{CfgVal: d.CfgVal}
	mux.HandleFunc("/api/secrets/model", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.SetModelKey,
	}))

	// SSE events
	evh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: evh.ServeSSE,
	}))

	return mux
}
