package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"linkedva-engine/internal/domain"
	"linkedva-engine/internal/metrics"
)

func loadList[T any](ctx context.Context, kv KV, key string) ([]T, error) {
	b, ok, err := kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	out := []T{}
	if !ok || len(b) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func storeList[T any](ctx context.Context, kv KV, key string, list []T) error {
	if list == nil {
		list = []T{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := kv.Put(ctx, key, b); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	metrics.RecordsStored.WithLabelValues(key).Set(float64(len(list)))
	return nil
}

// Leads is the newest-first list of saved leads. Writes replace the whole
// list, so concurrent writers can lose updates.
type Leads struct {
	KV  KV
	Now func() time.Time
}

func NewLeads(kv KV) *Leads { return &Leads{KV: kv, Now: time.Now} }

func (l *Leads) List(ctx context.Context) ([]domain.Lead, error) {
	return loadList[domain.Lead](ctx, l.KV, KeyLeads)
}

// Save stamps lead with an id, the current time and the page it came from,
// puts it first and returns the new total.
func (l *Leads) Save(ctx context.Context, lead domain.Lead, pageURL string) (domain.Lead, int, error) {
	list, err := l.List(ctx)
	if err != nil {
		return domain.Lead{}, 0, err
	}
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	lead.Timestamp = l.Now().UnixMilli()
	if pageURL != "" {
		lead.URL = pageURL
	}
	list = append([]domain.Lead{lead}, list...)
	if err := storeList(ctx, l.KV, KeyLeads, list); err != nil {
		return domain.Lead{}, 0, err
	}
	return lead, len(list), nil
}

func (l *Leads) Delete(ctx context.Context, id string) error {
	list, err := l.List(ctx)
	if err != nil {
		return err
	}
	for i, x := range list {
		if x.ID == id {
			return storeList(ctx, l.KV, KeyLeads, append(list[:i], list[i+1:]...))
		}
	}
	return ErrNotFound
}

func (l *Leads) Clear(ctx context.Context) error {
	return storeList(ctx, l.KV, KeyLeads, []domain.Lead{})
}

// Engagements is the newest-first list of crawled posts, at most one per
// post id.
type Engagements struct {
	KV KV
}

func NewEngagements(kv KV) *Engagements { return &Engagements{KV: kv} }

func (e *Engagements) List(ctx context.Context) ([]domain.Engagement, error) {
	return loadList[domain.Engagement](ctx, e.KV, KeyEngagements)
}

// Save replaces any earlier capture of the same post and puts eng first.
// Each list keeps one person per profile URL.
func (e *Engagements) Save(ctx context.Context, eng domain.Engagement) (int, error) {
	list, err := e.List(ctx)
	if err != nil {
		return 0, err
	}
	eng.Commenters = domain.DedupPeople(eng.Commenters)
	eng.Likers = domain.DedupPeople(eng.Likers)
	eng.ComputeStats()
	out := make([]domain.Engagement, 0, len(list)+1)
	out = append(out, eng)
	for _, x := range list {
		if x.PostID != eng.PostID {
			out = append(out, x)
		}
	}
	if err := storeList(ctx, e.KV, KeyEngagements, out); err != nil {
		return 0, err
	}
	return len(out), nil
}

func (e *Engagements) Get(ctx context.Context, postID string) (domain.Engagement, error) {
	list, err := e.List(ctx)
	if err != nil {
		return domain.Engagement{}, err
	}
	for _, x := range list {
		if x.PostID == postID {
			return x, nil
		}
	}
	return domain.Engagement{}, ErrNotFound
}

func (e *Engagements) Delete(ctx context.Context, postID string) error {
	list, err := e.List(ctx)
	if err != nil {
		return err
	}
	for i, x := range list {
		if x.PostID == postID {
			return storeList(ctx, e.KV, KeyEngagements, append(list[:i], list[i+1:]...))
		}
	}
	return ErrNotFound
}

func (e *Engagements) Clear(ctx context.Context) error {
	return storeList(ctx, e.KV, KeyEngagements, []domain.Engagement{})
}

// Stats aggregates every stored engagement.
func (e *Engagements) Stats(ctx context.Context) (domain.Dashboard, error) {
	list, err := e.List(ctx)
	if err != nil {
		return domain.Dashboard{}, err
	}
	return domain.Summarize(list), nil
}

// Brand holds the single brand profile.
type Brand struct {
	KV KV
}

func NewBrand(kv KV) *Brand { return &Brand{KV: kv} }

// Get returns nil when no profile has been set up.
func (b *Brand) Get(ctx context.Context) (*domain.BrandProfile, error) {
	raw, ok, err := b.KV.Get(ctx, KeyBrandProfile)
	if err != nil {
		return nil, fmt.Errorf("read brand: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var p domain.BrandProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode brand: %w", err)
	}
	return &p, nil
}

func (b *Brand) Put(ctx context.Context, p *domain.BrandProfile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode brand: %w", err)
	}
	return b.KV.Put(ctx, KeyBrandProfile, raw)
}

func (b *Brand) Delete(ctx context.Context) error {
	return b.KV.Delete(ctx, KeyBrandProfile)
}

// RefreshGauges sets the stored-records gauges from the current lists.
// Writes keep them current in-process; this catches writers sharing a
// redis backend.
func RefreshGauges(ctx context.Context, kv KV) error {
	leads, err := loadList[domain.Lead](ctx, kv, KeyLeads)
	if err != nil {
		return err
	}
	engs, err := loadList[domain.Engagement](ctx, kv, KeyEngagements)
	if err != nil {
		return err
	}
	metrics.RecordsStored.WithLabelValues(KeyLeads).Set(float64(len(leads)))
	metrics.RecordsStored.WithLabelValues(KeyEngagements).Set(float64(len(engs)))
	return nil
}
