package engagement

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"linkedva-engine/internal/domain"
	"linkedva-engine/internal/page"
)

const (
	defaultTitle  = "LinkedIn Post"
	defaultAuthor = "Unknown"
	titleChars    = 100
)

var (
	postContainer = page.Selectors("post",
		`[data-urn*="activity"]`,
		".feed-shared-update-v2",
		`article[role="article"]`,
	)
	postCommentary = page.Selectors("commentary",
		".feed-shared-update-v2__description",
		".feed-shared-text",
		`[data-test-id="main-feed-activity-card__commentary"]`,
	)
	postAuthor = page.Selectors("author",
		".feed-shared-actor__name",
		".update-components-actor__name",
	)
)

// ErrNotAPost means the page is not a single post, so there is no
// engagement to capture.
var ErrNotAPost = errors.New("not a LinkedIn post page")

// IsPostURL reports whether pageURL is a single post or a shared post link.
func IsPostURL(pageURL string) bool {
	return strings.Contains(pageURL, "/feed/update/") || strings.Contains(pageURL, "/posts/")
}

// IsPostPage also accepts feed pages that render an activity container.
func IsPostPage(doc *goquery.Document, pageURL string) bool {
	if IsPostURL(pageURL) {
		return true
	}
	if !strings.Contains(pageURL, "/feed/") || doc == nil {
		return false
	}
	return doc.Find(`[data-urn*="activity"]`).Length() > 0
}

// Metadata reads the post id, title and author. The lists and stats are
// left empty.
func Metadata(doc *goquery.Document, pageURL string) domain.Engagement {
	e := domain.Engagement{
		PostID:     domain.PostIDFromURL(pageURL),
		PostURL:    pageURL,
		PostTitle:  defaultTitle,
		PostAuthor: defaultAuthor,
	}
	if doc == nil {
		return e
	}
	c, ok := postContainer.FirstNode(doc.Selection)
	if !ok {
		return e
	}
	if m, ok := postCommentary.FirstNode(c.Selection); ok {
		e.PostTitle = page.Truncate(m.Text, titleChars)
	}
	if m, ok := postAuthor.FirstNode(c.Selection); ok {
		e.PostAuthor = m.Text
	}
	return e
}
