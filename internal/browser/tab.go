package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"linkedva-engine/internal/page"
)

var ErrElementNotFound = errors.New("element not found")

// Tab is one page in the browser. It satisfies the crawler's Page.
type Tab struct {
	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger
}

func (t *Tab) Close() { t.cancel() }

// run executes actions on the tab, bounded by the caller's ctx as well as
// the tab's own lifetime.
func (t *Tab) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(t.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return classify(err)
}

func (t *Tab) URL(ctx context.Context) (string, error) {
	var u string
	err := t.run(ctx, chromedp.Location(&u))
	return u, err
}

func (t *Tab) HTML(ctx context.Context) (string, error) {
	var html string
	err := t.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (t *Tab) Navigate(ctx context.Context, pageURL string) error {
	return t.run(ctx, chromedp.Navigate(pageURL), chromedp.WaitReady("body", chromedp.ByQuery))
}

// elementScript wraps body in a function that binds el to the addressed
// node, or returns missing when there is no such node.
func elementScript(el page.Element, body, missing string) string {
	sel, _ := json.Marshal(el.Selector)
	return fmt.Sprintf(`(() => {
  const el = document.querySelectorAll(%s)[%d];
  if (!el) return %s;
  %s
})()`, sel, el.Index, missing, body)
}

func (t *Tab) Click(ctx context.Context, el page.Element) error {
	var ok bool
	js := elementScript(el, `el.click(); return true;`, "false")
	if err := t.run(ctx, chromedp.Evaluate(js, &ok)); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("click %s[%d]: %w", el.Selector, el.Index, ErrElementNotFound)
	}
	return nil
}

func (t *Tab) ScrollToBottom(ctx context.Context, el page.Element) error {
	var ok bool
	js := elementScript(el, `el.scrollTop = el.scrollHeight; return true;`, "false")
	if err := t.run(ctx, chromedp.Evaluate(js, &ok)); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("scroll %s[%d]: %w", el.Selector, el.Index, ErrElementNotFound)
	}
	return nil
}

func (t *Tab) ScrollHeight(ctx context.Context, el page.Element) (int64, error) {
	var h float64
	js := elementScript(el, `return el.scrollHeight;`, "-1")
	if err := t.run(ctx, chromedp.Evaluate(js, &h)); err != nil {
		return 0, err
	}
	if h < 0 {
		return 0, fmt.Errorf("measure %s[%d]: %w", el.Selector, el.Index, ErrElementNotFound)
	}
	return int64(h), nil
}
