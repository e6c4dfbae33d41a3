package reply

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"linkedva-engine/internal/page"
)

var commentSelectors = []string{
	`[data-testid*="comment"]`,
	`[data-test-id*="comment"]`,
	`[data-testid*="reply"]`,
	`[data-test-id*="reply"]`,
	`[role="comment"]`,
	`[itemprop="comment"]`,
	`[aria-label*="comment"]`,
	`[aria-label*="Comment"]`,
	"article",
	`[role="article"]`,
	`[data-testid="tweet"]`,
	`[data-testid*="post"]`,
	`[data-test-id*="thread"]`,
	`[aria-label*="Thread"]`,
	`[aria-label*="Post"]`,
}

var commentSelector = strings.Join(commentSelectors, ",")

var (
	messengerKeywords = []string{
		"aa",
		"message",
		"send a message",
		"type a message",
		"write a message",
		"start a conversation",
		"send message",
	}
	messengerContainers = []string{
		`[role="complementary"]`,
		`[data-pagelet*="Messenger"]`,
		`[aria-label*="Messenger"]`,
		`[class*="messenger"]`,
	}
	postCreationKeywords = []string{
		"what's on your mind",
		"start a post",
		"share an update",
		"write a post",
		"create a post",
		"new post",
		"share something",
		"title",
		"document name",
		"file name",
		"untitled",
		"what do you want to talk about",
		"what's happening",
		"share your thoughts",
		"start writing",
		"compose",
	}
	commentKeywords = []string{
		"comment",
		"reply",
		"respond",
		"write a comment",
		"add a comment",
		"leave a comment",
		"your comment",
		"your reply",
		"write a reply",
		"add a reply",
	}
)

// hints is the placeholder and aria-label of a field, lower-cased.
func hints(field *goquery.Selection) string {
	placeholder, _ := field.Attr("placeholder")
	label, _ := field.Attr("aria-label")
	return strings.ToLower(placeholder + " " + label)
}

func isMessenger(field *goquery.Selection, pageURL string) bool {
	if u, err := url.Parse(pageURL); err == nil {
		host := strings.ToLower(u.Hostname())
		path := strings.ToLower(u.Path)
		if strings.Contains(host, "messenger.com") {
			return true
		}
		if strings.Contains(host, "facebook.com") && (strings.Contains(path, "/messages") || strings.Contains(path, "/t/")) {
			return true
		}
	}
	for _, sel := range messengerContainers {
		if field.Closest(sel).Length() > 0 {
			return true
		}
	}
	return page.ContainsAny(hints(field), messengerKeywords...)
}

// IsContentEditable reports whether field is editable rich text, either by
// its own contenteditable attribute or an inherited one.
func IsContentEditable(field *goquery.Selection) bool {
	for n := field; n.Length() > 0; n = n.Parent() {
		v, ok := n.Attr("contenteditable")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "", "true", "plaintext-only":
			return true
		default:
			return false
		}
	}
	return false
}

// IsTextInput reports whether field holds its text in a value.
func IsTextInput(field *goquery.Selection) bool {
	return field.Is("textarea, input")
}

func multiLine(field *goquery.Selection) bool {
	if field.Is("textarea") || IsContentEditable(field) {
		return true
	}
	role, _ := field.Attr("role")
	return role == "textbox"
}

// Eligible reports whether the assistant should offer drafts for field:
// a multi-line reply surface that is not a messenger chat or a
// post-composer.
func Eligible(field *goquery.Selection, pageURL string) bool {
	if field == nil || field.Length() == 0 {
		return false
	}
	field = field.First()
	if field.Closest("[data-replybot-root]").Length() > 0 {
		return false
	}
	if isMessenger(field, pageURL) {
		return false
	}
	if !multiLine(field) {
		return false
	}

	h := hints(field)
	if page.ContainsAny(h, postCreationKeywords...) {
		return false
	}
	if page.ContainsAny(h, commentKeywords...) {
		return true
	}
	return hasCommentContext(field)
}

// ContextRoot is the nearest comment-like ancestor of node (node included),
// else its nearest section or div.
func ContextRoot(node *goquery.Selection) *goquery.Selection {
	if node == nil || node.Length() == 0 {
		return nil
	}
	if m := node.First().Closest(commentSelector); m.Length() > 0 {
		return m
	}
	if m := node.First().Closest("section, div"); m.Length() > 0 {
		return m
	}
	return nil
}

// hasCommentContext is true when the context root is a specific comment or
// thread container rather than the generic nearest section or div.
func hasCommentContext(field *goquery.Selection) bool {
	root := ContextRoot(field)
	if root == nil {
		return false
	}
	generic := field.Closest("section, div")
	return generic.Length() == 0 || !sameNode(root, generic)
}

func sameNode(a, b *goquery.Selection) bool {
	if a == nil || b == nil || a.Length() == 0 || b.Length() == 0 {
		return false
	}
	return a.Get(0) == b.Get(0)
}
