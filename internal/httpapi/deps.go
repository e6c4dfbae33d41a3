package httpapi

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"linkedva-engine/internal/config"
	"linkedva-engine/internal/domain"
	"linkedva-engine/internal/events"
	"linkedva-engine/internal/model"
	"linkedva-engine/internal/reply"
	"linkedva-engine/internal/store"
)

type Deps struct {
	Log *zap.Logger
	Hub *events.Hub

	// Atomic stores
	CfgVal      *atomic.Value // stores config.Config
	CrawlStatus *atomic.Value // stores httpapi.CrawlStatus

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	Leads       *store.Leads
	Engagements *store.Engagements
	Brand       *store.Brand

	Model      model.Provider
	Assistants *reply.Sessions

	// Crawl opens postURL in the browser and captures its engagement.
	Crawl func(ctx context.Context, postURL string) (domain.Engagement, error)
	// Fetch returns the rendered HTML of pageURL.
	Fetch func(ctx context.Context, pageURL string) (string, error)

	Now func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d Deps) config() config.Config {
	if d.CfgVal == nil {
		return config.Default()
	}
	if cfg, ok := d.CfgVal.Load().(config.Config); ok {
		return cfg
	}
	return config.Default()
}
