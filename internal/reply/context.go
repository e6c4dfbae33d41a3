package reply

import (
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"linkedva-engine/internal/page"
)

const (
	maxReplies   = 3
	maxTextChars = 600
)

// Thread is the conversation around the field being replied in.
type Thread struct {
	Primary string   `json:"primary"`
	Replies []string `json:"replies"`
	Title   string   `json:"title"`
	URL     string   `json:"url"`
}

func extractText(node *goquery.Selection) string {
	if node == nil || node.Length() == 0 {
		return ""
	}
	return page.Ellipsize(page.CleanText(node.First().Text()), maxTextChars)
}

// FieldValue is the trimmed text a field currently holds.
func FieldValue(field *goquery.Selection) string {
	if field == nil || field.Length() == 0 {
		return ""
	}
	field = field.First()
	switch {
	case field.Is("textarea"):
		return strings.TrimSpace(field.Text())
	case field.Is("input"):
		v, _ := field.Attr("value")
		return strings.TrimSpace(v)
	case IsContentEditable(field):
		return strings.TrimSpace(field.Text())
	}
	return ""
}

// CollectContext gathers the message being answered and a few recent
// replies around it. A nil root is resolved from field.
func CollectContext(doc *goquery.Document, field, root *goquery.Selection, pageURL string) Thread {
	title := ""
	if doc != nil {
		title = page.CleanText(doc.Find("title").First().Text())
	}
	t := Thread{Title: title, URL: pageURL, Replies: []string{}}
	if field == nil || field.Length() == 0 {
		t.Primary = title
		return t
	}
	if root == nil || root.Length() == 0 {
		root = ContextRoot(field)
	}

	value := ""
	if IsTextInput(field.First()) {
		value = FieldValue(field)
	}
	for _, s := range []string{extractText(root), extractText(field), value, title} {
		if s != "" {
			t.Primary = s
			break
		}
	}
	t.Replies = recentReplies(doc, root, maxReplies)
	return t
}

// recentReplies takes up to limit comment-like nodes before root in document
// order, then tops up from the comment-like nodes under root's parent.
func recentReplies(doc *goquery.Document, root *goquery.Selection, limit int) []string {
	out := []string{}
	if doc == nil || root == nil || root.Length() == 0 {
		return out
	}
	root = root.First()

	candidates := doc.Find(commentSelector)
	if i := candidates.IndexOfSelection(root); i > 0 {
		for j := max(0, i-limit); j < i; j++ {
			if text := extractText(candidates.Eq(j)); text != "" {
				out = append(out, text)
			}
		}
	}

	if len(out) < limit {
		if parent := root.Parent(); parent.Length() > 0 {
			parent.Find(commentSelector).EachWithBreak(func(_ int, n *goquery.Selection) bool {
				if len(out) >= limit {
					return false
				}
				if sameNode(n, root) {
					return true
				}
				if text := extractText(n); text != "" && !slices.Contains(out, text) {
					out = append(out, text)
				}
				return true
			})
		}
	}

	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
