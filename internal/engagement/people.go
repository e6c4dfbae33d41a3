package engagement

import (
	"github.com/PuerkitoBio/goquery"

	"linkedva-engine/internal/domain"
	"linkedva-engine/internal/page"
)

var (
	commentItems = page.Selectors("comments",
		".comments-comment-item",
		`[data-test-id="comment"]`,
		".comment-item",
		`[data-view-name="comment"]`,
		".comments-comment-item-v2",
	)
	profileLink = page.Selectors("profile link",
		`a[href*="/in/"]`,
		`a[href*="linkedin.com/in/"]`,
	)

	commenterName = page.Selectors("commenter name",
		".comments-post-meta__name-text",
		".feed-shared-actor__name",
		`[data-test-id="comment-author-name"]`,
	)
	commenterTitle = page.Selectors("commenter title",
		".comments-post-meta__headline",
		".feed-shared-actor__description",
		`[data-test-id="comment-author-headline"]`,
		".comments-post-meta__description",
		".t-12.t-black--light.t-normal",
	)
	commentBody = page.Selectors("comment body",
		".comments-comment-item__main-content",
		".comments-comment-item-content-body",
		`[data-test-id="comment-text"]`,
		".comments-comment-item__inline-show-more-text",
	)

	likerName = page.Selectors("liker name",
		".artdeco-entity-lockup__title",
		`[data-test-id="member-name"]`,
		".feed-shared-actor__name",
		`span[aria-hidden="true"]`,
		`span[dir="ltr"]`,
	)
	likerTitle = page.Selectors("liker title",
		".artdeco-entity-lockup__subtitle",
		`[data-test-id="member-headline"]`,
		".artdeco-entity-lockup__caption",
		".feed-shared-actor__description",
		".t-12.t-black--light.t-normal",
	)
)

// commenter reads one comment element. ok is false when no usable profile
// link exists.
func commenter(el *goquery.Selection, maxChars int) (p domain.Person, ok bool) {
	link, found := profileLink.FirstNode(el)
	if !found {
		return p, false
	}
	p.ProfileURL = CanonicalProfileURL(link.Selection)
	if p.ProfileURL == "" {
		return p, false
	}

	raw := link.Text
	if m, found := commenterName.FirstNode(el); found {
		raw = m.Text
	}
	p.Name = CleanName(raw)

	if m, found := commenterTitle.FirstNode(el); found {
		p.Title = m.Text
	}
	if m, found := commentBody.FirstNode(el); found {
		p.Comment = page.Truncate(m.Text, maxChars)
	}
	p.Timestamp = commentTime(el)
	p.EngagementType = domain.EngagementComment
	return p, true
}

func commentTime(el *goquery.Selection) string {
	if t := el.Find("time").First(); t.Length() > 0 {
		if dt, _ := t.Attr("datetime"); dt != "" {
			return dt
		}
		return page.Text(t)
	}
	return page.Text(el.Find(".comments-comment-meta__timestamp"))
}

// liker reads one entry of the reactions list.
func liker(el *goquery.Selection) (p domain.Person, ok bool) {
	link := likerLink(el)
	if link == nil {
		return p, false
	}
	p.ProfileURL = CanonicalProfileURL(link)
	if p.ProfileURL == "" {
		return p, false
	}

	raw := page.Text(link)
	if m, found := likerName.FirstNode(el); found {
		raw = m.Text
	} else if span := link.Find("span"); span.Length() > 0 {
		raw = page.Text(span)
	}
	p.Name = CleanName(raw)

	if m, found := likerTitle.FirstNode(el); found {
		p.Title = m.Text
	}
	p.EngagementType = domain.EngagementLike
	return p, true
}

func likerLink(el *goquery.Selection) *goquery.Selection {
	if m, ok := profileLink.FirstNode(el); ok {
		return m.Selection
	}
	return nil
}
