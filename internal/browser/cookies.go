package browser

import (
	"context"
	"fmt"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/all"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"linkedva-engine/internal/logging"
)

const linkedInDomain = "linkedin.com"

// essentialCookies are the cookies a LinkedIn session needs.
var essentialCookies = map[string]bool{
	"li_at":      true,
	"JSESSIONID": true,
	"lidc":       true,
	"bcookie":    true,
}

// ReadLinkedInCookies reads the LinkedIn session cookies from the local
// browsers' cookie stores. Missing stores are not an error.
func ReadLinkedInCookies(ctx context.Context, log *zap.Logger) []*kooky.Cookie {
	log = logging.OrNop(log)
	all, err := kooky.ReadCookies(ctx, kooky.Valid, kooky.DomainHasSuffix(linkedInDomain))
	if err != nil {
		log.Debug("reading browser cookies failed", zap.Error(err))
	}
	return filterEssential(all)
}

func filterEssential(in []*kooky.Cookie) []*kooky.Cookie {
	seen := map[string]bool{}
	var out []*kooky.Cookie
	for _, c := range in {
		if c == nil || !essentialCookies[c.Name] || seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		out = append(out, c)
	}
	return out
}

func cookieParams(in []*kooky.Cookie) []*network.CookieParam {
	out := make([]*network.CookieParam, 0, len(in))
	for _, c := range in {
		p := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
		}
		if p.Path == "" {
			p.Path = "/"
		}
		if !c.Expires.IsZero() {
			exp := cdp.TimeSinceEpoch(c.Expires)
			p.Expires = &exp
		}
		out = append(out, p)
	}
	return out
}

// setCookies installs cookies into the browser before the first navigation.
func setCookies(cookies []*kooky.Cookie) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if len(cookies) == 0 {
			return nil
		}
		if err := network.SetCookies(cookieParams(cookies)).Do(ctx); err != nil {
			return fmt.Errorf("set cookies: %w", err)
		}
		return nil
	})
}
