package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkedva-engine/internal/browser"
	"linkedva-engine/internal/domain"
)

const postURL = "https://www.linkedin.com/feed/update/urn:li:activity:7001/"

func crawlStatus(t *testing.T, env *testEnv) CrawlStatus {
	t.Helper()
	return decode[CrawlStatus](t, env.do(t, http.MethodGet, "/crawl/status", nil))
}

func TestCrawlRunsOneAtATime(t *testing.T) {
	release := make(chan struct{})
	env := newEnv(t, func(d *Deps) {
		d.Crawl = func(ctx context.Context, u string) (domain.Engagement, error) {
			<-release
			return domain.Engagement{
				PostID:     domain.PostIDFromURL(u),
				PostURL:    u,
				Commenters: []domain.Person{{Name: "A", ProfileURL: "https://www.linkedin.com/in/a/"}},
			}, nil
		}
	})

	resp := env.do(t, http.MethodPost, "/crawl/engagement", map[string]any{"url": postURL})
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, map[string]any{"ok": true}, decode[map[string]any](t, resp))
	assert.True(t, crawlStatus(t, env).Running)

	resp = env.do(t, http.MethodPost, "/crawl/engagement", map[string]any{"url": postURL})
	assert.Equal(t, map[string]any{"ok": false, "msg": "already running"}, decode[map[string]any](t, resp))

	close(release)
	require.Eventually(t, func() bool { return !crawlStatus(t, env).Running }, 2*time.Second, 10*time.Millisecond)

	st := crawlStatus(t, env)
	assert.Empty(t, st.LastError)
	assert.NotEmpty(t, st.LastOkAt)
	assert.Equal(t, "7001", st.LastPostID)
	assert.Equal(t, 1, st.LastProfiles)

	eng, err := env.deps.Engagements.Get(context.Background(), "7001")
	require.NoError(t, err)
	assert.Equal(t, 1, eng.Stats.TotalComments)
}

func TestCrawlReportsInvalidatedSession(t *testing.T) {
	env := newEnv(t, func(d *Deps) {
		d.Crawl = func(context.Context, string) (domain.Engagement, error) {
			return domain.Engagement{}, fmt.Errorf("expand comments: %w", browser.ErrContextInvalidated)
		}
	})

	resp := env.do(t, http.MethodPost, "/crawl/engagement", map[string]any{"url": postURL})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Eventually(t, func() bool { return crawlStatus(t, env).LastError != "" }, 2*time.Second, 10*time.Millisecond)

	st := crawlStatus(t, env)
	assert.False(t, st.Running)
	assert.Equal(t, browser.InvalidatedMessage, st.LastError)
	assert.Empty(t, st.LastOkAt)

	list, err := env.deps.Engagements.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCrawlRejectsBadRequests(t *testing.T) {
	env := newEnv(t)

	resp := env.do(t, http.MethodPost, "/crawl/engagement", map[string]any{"url": "not a url"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/crawl/engagement", map[string]any{"url": "https://www.linkedin.com/in/jane/"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "not_a_post", decode[APIError](t, resp).Error.Code)
	assert.False(t, crawlStatus(t, env).Running)

	resp = env.do(t, http.MethodPost, "/crawl/engagement", map[string]any{"url": postURL})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "capability_unavailable", decode[APIError](t, resp).Error.Code)
}

func TestCrawlGivesUpAtTimeout(t *testing.T) {
	env := newEnv(t, func(d *Deps) {
		cfg := d.config()
		cfg.Crawler.TimeoutMS = 50
		d.CfgVal.Store(cfg)
		d.Crawl = func(ctx context.Context, _ string) (domain.Engagement, error) {
			<-ctx.Done()
			return domain.Engagement{}, ctx.Err()
		}
	})

	resp := env.do(t, http.MethodPost, "/crawl/engagement", map[string]any{"url": postURL})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Eventually(t, func() bool { return !crawlStatus(t, env).Running }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, crawlTimeoutMessage, crawlStatus(t, env).LastError)

	resp = env.do(t, http.MethodPost, "/crawl/engagement", map[string]any{"url": postURL})
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}
