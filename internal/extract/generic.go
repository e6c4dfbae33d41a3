package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/markusmobius/go-trafilatura"
	"go.uber.org/zap"

	"linkedva-engine/internal/logging"
	"linkedva-engine/internal/page"
)

const genericLimit = 3000

var mainContent = page.Selectors("main",
	"main",
	"article",
	`[role="main"]`,
	"#content",
	".content",
	"body",
)

// Extractor turns a page snapshot into model input.
type Extractor struct {
	// Trafilatura enables readability-style extraction for generic pages
	// before falling back to the selector lookup.
	Trafilatura bool
	Log         *zap.Logger
}

// Page picks profile mode for member profiles and generic mode otherwise.
func (e Extractor) Page(doc *goquery.Document, pageURL string) string {
	if IsProfileURL(pageURL) {
		return Profile(doc)
	}
	return e.Generic(doc)
}

// Generic returns the best main-content region, capped at 3000 characters.
func (e Extractor) Generic(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}
	if e.Trafilatura {
		if text := e.readable(doc); text != "" {
			return page.Truncate(text, genericLimit)
		}
	}
	m, ok := mainContent.First(doc.Selection)
	if !ok {
		return ""
	}
	return page.Truncate(m.Text, genericLimit)
}

func (e Extractor) readable(doc *goquery.Document) string {
	log := logging.OrNop(e.Log)
	html, err := goquery.OuterHtml(doc.Selection)
	if err != nil {
		return ""
	}
	res, err := trafilatura.Extract(strings.NewReader(html), trafilatura.Options{})
	if err != nil {
		log.Debug("trafilatura failed, using selector lookup", zap.Error(err))
		return ""
	}
	if res == nil {
		return ""
	}
	return page.CleanText(res.ContentText)
}
