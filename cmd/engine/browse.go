package main

import (
	"context"

	"linkedva-engine/internal/domain"
	"linkedva-engine/internal/engagement"
)

// crawlFunc opens postURL in the shared browser and crawls its engagement.
// The browser is bound to parent, the tab to the call's ctx.
func (a *app) crawlFunc(parent context.Context) func(context.Context, string) (domain.Engagement, error) {
	return func(ctx context.Context, postURL string) (domain.Engagement, error) {
		b, err := a.chrome(parent)
		if err != nil {
			return domain.Engagement{}, err
		}
		tab, err := b.Open(ctx, postURL)
		if err != nil {
			return domain.Engagement{}, err
		}
		defer tab.Close()
		return engagement.New(engagement.OptionsFromConfig(a.cfg()), a.log).Crawl(ctx, tab)
	}
}

// fetchFunc returns the rendered html of pageURL.
func (a *app) fetchFunc(parent context.Context) func(context.Context, string) (string, error) {
	return func(ctx context.Context, pageURL string) (string, error) {
		b, err := a.chrome(parent)
		if err != nil {
			return "", err
		}
		tab, err := b.Open(ctx, pageURL)
		if err != nil {
			return "", err
		}
		defer tab.Close()
		return tab.HTML(ctx)
	}
}
