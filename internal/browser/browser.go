package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"linkedva-engine/internal/config"
	"linkedva-engine/internal/logging"
)

// ErrContextInvalidated means the page the engine was driving went away
// (reload, navigation or closed target) while an operation was in flight.
var ErrContextInvalidated = errors.New("page session was reloaded")

// InvalidatedMessage is shown to users when ErrContextInvalidated surfaces.
const InvalidatedMessage = "Page session was reloaded. Please refresh this page and try again."

type Options struct {
	RemoteURL     string
	Headless      bool
	ExecPath      string
	ImportCookies bool
	NavigateRPS   float64
}

func OptionsFromConfig(cfg config.Config) Options {
	b := cfg.Browser
	return Options{
		RemoteURL:     b.RemoteURL,
		Headless:      b.Headless,
		ExecPath:      b.ExecPath,
		ImportCookies: b.ImportCookies,
		NavigateRPS:   b.NavigateRPS,
	}
}

// Browser owns one Chrome instance, either launched locally or attached
// over the DevTools websocket.
type Browser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	cancelAlloc context.CancelFunc
	limiter     *HostLimiter
	opts        Options
	log         *zap.Logger
}

// Launch starts (or attaches to) Chrome. The browser lives until Close or
// until parent is cancelled.
func Launch(parent context.Context, opts Options, log *zap.Logger) (*Browser, error) {
	log = logging.OrNop(log).Named("browser")

	var allocCtx context.Context
	var cancelAlloc context.CancelFunc
	if opts.RemoteURL != "" {
		allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(parent, opts.RemoteURL)
	} else {
		allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
		allocOpts = append(allocOpts,
			chromedp.Flag("headless", opts.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
		)
		if p := strings.TrimSpace(opts.ExecPath); p != "" {
			allocOpts = append(allocOpts, chromedp.ExecPath(p))
		}
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(parent, allocOpts...)
	}

	ctx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(log.Sugar().Debugf),
		chromedp.WithErrorf(log.Sugar().Debugf),
	)

	var actions []chromedp.Action
	if opts.ImportCookies {
		cookies := ReadLinkedInCookies(parent, log)
		log.Info("imported browser cookies", zap.Int("count", len(cookies)))
		actions = append(actions, setCookies(cookies))
	}
	// Runs the first action so the browser process actually starts.
	if err := chromedp.Run(ctx, actions...); err != nil {
		cancel()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	return &Browser{
		ctx:         ctx,
		cancel:      cancel,
		cancelAlloc: cancelAlloc,
		limiter:     NewHostLimiter(opts.NavigateRPS, 1),
		opts:        opts,
		log:         log,
	}, nil
}

func (b *Browser) Close() {
	b.cancel()
	b.cancelAlloc()
}

// Open navigates a new tab to pageURL.
func (b *Browser) Open(ctx context.Context, pageURL string) (*Tab, error) {
	if err := b.limiter.WaitURL(ctx, pageURL); err != nil {
		return nil, err
	}
	tctx, cancel := chromedp.NewContext(b.ctx)
	// The target and its event loop live on the first context Run sees,
	// so allocate it on tctx before any per-call context derives from it.
	if err := chromedp.Run(tctx); err != nil {
		cancel()
		return nil, fmt.Errorf("open tab: %w", classify(err))
	}
	t := &Tab{ctx: tctx, cancel: cancel, log: b.log}
	if err := t.run(ctx, chromedp.Navigate(pageURL), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		cancel()
		return nil, fmt.Errorf("open %s: %w", pageURL, err)
	}
	b.log.Debug("tab opened", zap.String("url", pageURL))
	return t, nil
}

// classify maps the driver's "target gone" failures to ErrContextInvalidated.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "context invalidated") ||
		strings.Contains(msg, "target closed") ||
		strings.Contains(msg, "no target with given id") {
		return fmt.Errorf("%w: %v", ErrContextInvalidated, err)
	}
	return err
}
