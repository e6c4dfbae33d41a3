package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkedva-engine/internal/config"
	"linkedva-engine/internal/domain"
	"linkedva-engine/internal/metrics"
)

func backends(t *testing.T) map[string]KV {
	t.Helper()
	sq, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rd := NewRedis(mr.Addr(), 0, "linkedva:")
	t.Cleanup(func() { _ = rd.Close() })

	return map[string]KV{"sqlite": sq, "redis": rd}
}

func TestKVRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := kv.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, kv.Put(ctx, "k", []byte(`[1]`)))
			require.NoError(t, kv.Put(ctx, "k", []byte(`[1,2]`)))
			v, ok, err := kv.Get(ctx, "k")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `[1,2]`, string(v))

			require.NoError(t, kv.Delete(ctx, "k"))
			_, ok, err = kv.Get(ctx, "k")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestRedisUsesPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	rd := NewRedis(mr.Addr(), 0, "linkedva:")
	defer rd.Close()

	require.NoError(t, rd.Put(context.Background(), KeyLeads, []byte(`[]`)))
	got, err := mr.Get("linkedva:leads")
	require.NoError(t, err)
	assert.Equal(t, "[]", got)
}

func TestMigrateIsIdempotent(t *testing.T) {
	sq, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	defer sq.Close()

	require.NoError(t, Migrate(sq.pool))

	var v int
	require.NoError(t, sq.pool.QueryRow(`PRAGMA user_version;`).Scan(&v))
	assert.Equal(t, 1, v)
}

func TestOpenSQLiteAppliesPragmas(t *testing.T) {
	assert.Equal(t,
		"file:/data/linkedva.db?_pragma=busy_timeout%285000%29&_pragma=journal_mode%28WAL%29&_pragma=synchronous%28NORMAL%29",
		sqliteDSN("/data/linkedva.db"))

	sq, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "p.db"))
	require.NoError(t, err)
	defer sq.Close()

	var mode string
	require.NoError(t, sq.pool.QueryRow(`PRAGMA journal_mode;`).Scan(&mode))
	assert.Equal(t, "wal", mode)
	var busy int
	require.NoError(t, sq.pool.QueryRow(`PRAGMA busy_timeout;`).Scan(&busy))
	assert.Equal(t, 5000, busy)
}

func TestLeadsNewestFirst(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			leads := NewLeads(kv)
			leads.Now = func() time.Time { return time.UnixMilli(1700000000000) }

			list, err := leads.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, list)

			first, n, err := leads.Save(ctx, domain.Lead{Name: "Ann"}, "https://www.linkedin.com/in/ann/")
			require.NoError(t, err)
			assert.Equal(t, 1, n)
			assert.NotEmpty(t, first.ID)
			assert.Equal(t, int64(1700000000000), first.Timestamp)
			assert.Equal(t, "https://www.linkedin.com/in/ann/", first.URL)

			_, n, err = leads.Save(ctx, domain.Lead{Name: "Bob", Education: "MIT"}, "")
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			list, err = leads.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "Bob", list[0].Name)
			assert.Equal(t, "MIT", list[0].Education)
			assert.Equal(t, "Ann", list[1].Name)

			require.NoError(t, leads.Delete(ctx, first.ID))
			assert.ErrorIs(t, leads.Delete(ctx, first.ID), ErrNotFound)

			require.NoError(t, leads.Clear(ctx))
			list, err = leads.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestEngagementsReplaceSamePost(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			engs := NewEngagements(kv)
			person := func(u string) domain.Person { return domain.Person{Name: u, ProfileURL: u} }

			n, err := engs.Save(ctx, domain.Engagement{PostID: "a", Commenters: []domain.Person{person("x")}})
			require.NoError(t, err)
			assert.Equal(t, 1, n)
			n, err = engs.Save(ctx, domain.Engagement{PostID: "b"})
			require.NoError(t, err)
			assert.Equal(t, 2, n)
			n, err = engs.Save(ctx, domain.Engagement{PostID: "a", Commenters: []domain.Person{person("x")}, Likers: []domain.Person{person("y"), person("z")}})
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			list, err := engs.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "a", list[0].PostID)
			assert.Equal(t, domain.EngagementStats{TotalComments: 1, TotalLikes: 2, TotalEngagement: 3}, list[0].Stats)
			assert.Equal(t, "b", list[1].PostID)

			got, err := engs.Get(ctx, "a")
			require.NoError(t, err)
			assert.Len(t, got.Likers, 2)
			_, err = engs.Get(ctx, "nope")
			assert.ErrorIs(t, err, ErrNotFound)

			d, err := engs.Stats(ctx)
			require.NoError(t, err)
			assert.Equal(t, domain.Dashboard{TotalPosts: 2, TotalProfiles: 3, AvgPerPost: "1.5"}, d)

			require.NoError(t, engs.Delete(ctx, "b"))
			assert.ErrorIs(t, engs.Delete(ctx, "b"), ErrNotFound)
			require.NoError(t, engs.Clear(ctx))
			list, err = engs.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestEngagementsSaveDedupsPeople(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			engs := NewEngagements(kv)
			a := domain.Person{Name: "A", ProfileURL: "https://www.linkedin.com/in/a/", EngagementType: domain.EngagementComment}
			again := a
			again.Comment = "second comment"
			noURL := domain.Person{Name: "Anon"}

			_, err := engs.Save(ctx, domain.Engagement{
				PostID:     "1",
				Commenters: []domain.Person{a, again, noURL},
				Likers:     []domain.Person{{Name: "A", ProfileURL: a.ProfileURL}},
			})
			require.NoError(t, err)

			got, err := engs.Get(ctx, "1")
			require.NoError(t, err)
			require.Len(t, got.Commenters, 1)
			assert.Empty(t, got.Commenters[0].Comment)
			assert.Len(t, got.Likers, 1, "uniqueness is per list")
			assert.Equal(t, domain.EngagementStats{TotalComments: 1, TotalLikes: 1, TotalEngagement: 2}, got.Stats)

			_, err = engs.Save(ctx, domain.Engagement{PostID: "2"})
			require.NoError(t, err)
			raw, _, err := kv.Get(ctx, KeyEngagements)
			require.NoError(t, err)
			assert.Contains(t, string(raw), `"commenters":[]`)
			assert.NotContains(t, string(raw), `null`)
		})
	}
}

func TestBrand(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			b := NewBrand(kv)
			p, err := b.Get(ctx)
			require.NoError(t, err)
			assert.Nil(t, p)

			in := &domain.BrandProfile{BrandVoice: &domain.BrandVoice{Tone: domain.List{"warm"}}, MasterPrompt: "Be warm."}
			require.NoError(t, b.Put(ctx, in))
			p, err = b.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, in, p)

			require.NoError(t, b.Delete(ctx))
			p, err = b.Get(ctx)
			require.NoError(t, err)
			assert.Nil(t, p)
		})
	}
}

func TestLockDirIsExclusive(t *testing.T) {
	dir := t.TempDir()
	fl, err := LockDir(dir)
	require.NoError(t, err)

	_, err = LockDir(dir)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, fl.Unlock())
	again, err := LockDir(dir)
	require.NoError(t, err)
	require.NoError(t, again.Unlock())
}

func TestOpenKVRejectsUnknownBackend(t *testing.T) {
	var cfg config.Config
	cfg.Store.Backend = "mongo"
	_, err := OpenKV(context.Background(), cfg, t.TempDir())
	assert.Error(t, err)

	cfg.Store.Backend = ""
	kv, err := OpenKV(context.Background(), cfg, t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, kv)
	require.NoError(t, kv.Close())
}

func TestRefreshGaugesReadsSharedBackend(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rd := NewRedis(mr.Addr(), 0, "linkedva:")
	defer rd.Close()

	// Another process wrote these lists.
	require.NoError(t, rd.Put(ctx, KeyLeads, []byte(`[{"name":"A"},{"name":"B"}]`)))
	require.NoError(t, rd.Put(ctx, KeyEngagements, []byte(`[{"postId":"1"}]`)))

	require.NoError(t, RefreshGauges(ctx, rd))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RecordsStored.WithLabelValues(KeyLeads)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RecordsStored.WithLabelValues(KeyEngagements)))

	require.NoError(t, rd.Put(ctx, KeyLeads, []byte(`not json`)))
	assert.Error(t, RefreshGauges(ctx, rd))
}
