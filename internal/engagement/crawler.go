package engagement

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"linkedva-engine/internal/config"
	"linkedva-engine/internal/domain"
	"linkedva-engine/internal/logging"
	"linkedva-engine/internal/metrics"
	"linkedva-engine/internal/page"
	"linkedva-engine/internal/poll"
)

// Page is the live document a crawl drives. Elements are addressed by
// selector and document-order index, as resolved from an HTML snapshot.
type Page interface {
	URL(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)
	Click(ctx context.Context, el page.Element) error
	ScrollToBottom(ctx context.Context, el page.Element) error
	ScrollHeight(ctx context.Context, el page.Element) (int64, error)
}

type Options struct {
	MaxExpandPasses   int
	ClickDelay        time.Duration
	PassDelay         time.Duration
	ModalOpenDelay    time.Duration
	ScrollDelay       time.Duration
	DismissDelay      time.Duration
	MaxScrollAttempts int
	CommentMaxChars   int
}

func OptionsFromConfig(cfg config.Config) Options {
	ms := func(n int) time.Duration { return time.Duration(n) * time.Millisecond }
	c := cfg.Crawler
	return Options{
		MaxExpandPasses:   c.MaxExpandPasses,
		ClickDelay:        ms(c.ClickDelayMS),
		PassDelay:         ms(c.PassDelayMS),
		ModalOpenDelay:    ms(c.ModalOpenDelayMS),
		ScrollDelay:       ms(c.ScrollDelayMS),
		DismissDelay:      500 * time.Millisecond,
		MaxScrollAttempts: c.MaxScrollAttempts,
		CommentMaxChars:   c.CommentMaxChars,
	}
}

type Crawler struct {
	Opts Options
	Log  *zap.Logger
	Now  func() time.Time
}

func New(opts Options, log *zap.Logger) *Crawler {
	return &Crawler{Opts: opts, Log: logging.OrNop(log).Named("crawler"), Now: time.Now}
}

// Crawl captures the commenters and likers of the post open in p.
func (c *Crawler) Crawl(ctx context.Context, p Page) (domain.Engagement, error) {
	log := logging.OrNop(c.Log)

	pageURL, err := p.URL(ctx)
	if err != nil {
		return domain.Engagement{}, fmt.Errorf("read page url: %w", err)
	}
	doc, err := snapshot(ctx, p)
	if err != nil {
		return domain.Engagement{}, err
	}
	if !IsPostPage(doc, pageURL) {
		return domain.Engagement{}, fmt.Errorf("%s: %w", pageURL, ErrNotAPost)
	}
	eng := Metadata(doc, pageURL)
	log.Info("crawl started", zap.String("post_id", eng.PostID), zap.String("author", eng.PostAuthor))

	passes, err := c.expand(ctx, p)
	if err != nil {
		return eng, fmt.Errorf("expand comments: %w", err)
	}
	log.Debug("comments expanded", zap.Int("passes", passes))

	if doc, err = snapshot(ctx, p); err != nil {
		return eng, err
	}
	eng.Commenters = c.commenters(doc)

	likers, err := c.likers(ctx, p)
	if err != nil {
		if ctx.Err() != nil {
			return eng, ctx.Err()
		}
		log.Warn("liker extraction failed", zap.Error(err))
	}
	if likers == nil {
		likers = []domain.Person{}
	}
	eng.Likers = likers

	eng.ComputeStats()
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	eng.ExtractedAt = now().UnixMilli()

	metrics.ProfilesScraped.WithLabelValues(string(domain.EngagementComment)).Add(float64(len(eng.Commenters)))
	metrics.ProfilesScraped.WithLabelValues(string(domain.EngagementLike)).Add(float64(len(eng.Likers)))
	log.Info("crawl finished",
		zap.String("post_id", eng.PostID),
		zap.Int("commenters", eng.Stats.TotalComments),
		zap.Int("likers", eng.Stats.TotalLikes))
	return eng, nil
}

func snapshot(ctx context.Context, p Page) (*goquery.Document, error) {
	html, err := p.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return doc, nil
}

var expandKeywords = []string{"show more", "load more", "see more", "previous comment"}

func loadMoreButtons(doc *goquery.Document) []page.Element {
	var out []page.Element
	doc.Find("button").Each(func(i int, s *goquery.Selection) {
		if page.ContainsAny(s.Text(), expandKeywords...) {
			out = append(out, page.Element{Selector: "button", Index: i})
		}
	})
	return out
}

// expand clicks every load-more button per pass until none remain or the
// pass cap is hit. Buttons are clicked from the last to the first so that
// buttons removed by a click do not shift the indexes still to be clicked.
func (c *Crawler) expand(ctx context.Context, p Page) (int, error) {
	log := logging.OrNop(c.Log)
	return poll.Repeat(ctx, c.Opts.MaxExpandPasses, func(ctx context.Context, pass int) (bool, error) {
		doc, err := snapshot(ctx, p)
		if err != nil {
			return false, err
		}
		buttons := loadMoreButtons(doc)
		if len(buttons) == 0 {
			return false, nil
		}
		log.Debug("clicking load more", zap.Int("pass", pass+1), zap.Int("buttons", len(buttons)))
		for i := len(buttons) - 1; i >= 0; i-- {
			if err := p.Click(ctx, buttons[i]); err != nil {
				if ctx.Err() != nil {
					return false, ctx.Err()
				}
				log.Debug("load more click failed", zap.Int("index", buttons[i].Index), zap.Error(err))
			}
			if err := poll.Sleep(ctx, c.Opts.ClickDelay); err != nil {
				return false, err
			}
		}
		return true, poll.Sleep(ctx, c.Opts.PassDelay)
	})
}

func (c *Crawler) commenters(doc *goquery.Document) []domain.Person {
	items, ok := commentItems.All(doc.Selection)
	if !ok {
		return []domain.Person{}
	}
	logging.OrNop(c.Log).Debug("comment elements found",
		zap.String("selector", items.Selector), zap.Int("count", items.Selection.Length()))
	return c.collect(items.Selection, domain.EngagementComment, func(el *goquery.Selection) (domain.Person, bool) {
		return commenter(el, c.Opts.CommentMaxChars)
	})
}

// collect runs read over each element, skipping failures and repeated
// profile URLs.
func (c *Crawler) collect(items *goquery.Selection, typ domain.EngagementType, read func(*goquery.Selection) (domain.Person, bool)) []domain.Person {
	log := logging.OrNop(c.Log)
	seen := map[string]bool{}
	out := []domain.Person{}
	items.Each(func(i int, el *goquery.Selection) {
		p, ok := c.safeRead(i, typ, el, read)
		if !ok {
			metrics.ElementsSkipped.WithLabelValues(string(typ), "no_profile").Inc()
			return
		}
		if seen[p.ProfileURL] {
			metrics.ElementsSkipped.WithLabelValues(string(typ), "duplicate").Inc()
			return
		}
		seen[p.ProfileURL] = true
		out = append(out, p)
		log.Debug("profile extracted", zap.String("type", string(typ)), zap.Int("index", i), zap.String("name", p.Name))
	})
	return out
}

func (c *Crawler) safeRead(i int, typ domain.EngagementType, el *goquery.Selection, read func(*goquery.Selection) (domain.Person, bool)) (p domain.Person, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logging.OrNop(c.Log).Warn("element extraction failed",
				zap.String("type", string(typ)), zap.Int("index", i), zap.Any("panic", r))
			p, ok = domain.Person{}, false
		}
	}()
	return read(el)
}

var (
	reactionControls = []string{
		`button[aria-label*="reaction"]`,
		`button[aria-label*="Like"]`,
		".social-details-social-counts__reactions",
		`[data-test-id="social-actions__reaction-button"]`,
	}
	hasDigit = regexp.MustCompile(`\d+`)

	reactionsModal = page.Selectors("reactions modal", `[role="dialog"]`, ".artdeco-modal")
	modalScroller  = page.Selectors("modal scroller", ".artdeco-modal__content", `[role="dialog"] > div`)
	likerItems     = page.Selectors("liker items",
		"li.artdeco-list__item",
		"li",
		`[data-test-id="social-actions-modal-list-item"]`,
		".scaffold-finite-scroll__content > div",
	)
	modalDismiss = page.Selectors("dismiss", `button[aria-label*="Dismiss"]`, ".artdeco-modal__dismiss")
)

// reactionsControl finds the control that opens the reactions list: one
// showing a count or labelled as reactions, else any button labelled with
// reaction or like.
func reactionsControl(doc *goquery.Document) (page.Element, bool) {
	for _, sel := range reactionControls {
		var hit page.Element
		found := false
		doc.Find(sel).EachWithBreak(func(i int, s *goquery.Selection) bool {
			label, _ := s.Attr("aria-label")
			if hasDigit.MatchString(s.Text()) || strings.Contains(label, "reaction") {
				hit, found = page.Element{Selector: sel, Index: i}, true
				return false
			}
			return true
		})
		if found {
			return hit, true
		}
	}

	var hit page.Element
	found := false
	doc.Find("button").EachWithBreak(func(i int, s *goquery.Selection) bool {
		label, _ := s.Attr("aria-label")
		if page.ContainsAny(label, "reaction", "like") {
			hit, found = page.Element{Selector: "button", Index: i}, true
			return false
		}
		return true
	})
	return hit, found
}

func (c *Crawler) likers(ctx context.Context, p Page) ([]domain.Person, error) {
	log := logging.OrNop(c.Log)

	doc, err := snapshot(ctx, p)
	if err != nil {
		return nil, err
	}
	control, ok := reactionsControl(doc)
	if !ok {
		log.Info("reactions control not found")
		return nil, nil
	}
	if err := p.Click(ctx, control); err != nil {
		return nil, fmt.Errorf("open reactions: %w", err)
	}
	if err := poll.Sleep(ctx, c.Opts.ModalOpenDelay); err != nil {
		return nil, err
	}

	if doc, err = snapshot(ctx, p); err != nil {
		return nil, err
	}
	modal, ok := reactionsModal.FirstNode(doc.Selection)
	if !ok {
		log.Info("reactions modal not found")
		return nil, nil
	}

	target, ok := scrollTarget(doc, modal)
	if ok {
		_, attempts, err := poll.UntilStable(ctx,
			poll.Settle{Interval: c.Opts.ScrollDelay, MaxAttempts: c.Opts.MaxScrollAttempts},
			func(ctx context.Context) error { return p.ScrollToBottom(ctx, target) },
			func(ctx context.Context) (int64, error) { return p.ScrollHeight(ctx, target) })
		if err != nil {
			return nil, fmt.Errorf("scroll reactions: %w", err)
		}
		log.Debug("reactions scrolled", zap.Int("attempts", attempts))
	}

	if doc, err = snapshot(ctx, p); err != nil {
		return nil, err
	}
	if modal, ok = reactionsModal.FirstNode(doc.Selection); !ok {
		return nil, nil
	}

	var likers []domain.Person
	if items, ok := likerItems.All(modal.Selection); ok {
		log.Debug("liker elements found", zap.String("selector", items.Selector), zap.Int("count", items.Selection.Length()))
		likers = c.collect(items.Selection, domain.EngagementLike, liker)
	}

	if m, ok := modalDismiss.FirstNode(modal.Selection); ok {
		if el, ok := page.Locate(doc, m.Selector, m.Selection); ok {
			if err := p.Click(ctx, el); err != nil {
				log.Debug("dismiss click failed", zap.Error(err))
			} else if err := poll.Sleep(ctx, c.Opts.DismissDelay); err != nil {
				return likers, err
			}
		}
	}
	return likers, nil
}

func scrollTarget(doc *goquery.Document, modal page.Match) (page.Element, bool) {
	if m, ok := modalScroller.FirstNode(modal.Selection); ok {
		return page.Locate(doc, m.Selector, m.Selection)
	}
	return page.Locate(doc, modal.Selector, modal.Selection)
}
