package engagement

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const linkedInBase = "https://www.linkedin.com"

var (
	profilePath   = regexp.MustCompile(`/in/([^/]+)`)
	vanityInLabel = regexp.MustCompile(`linkedin\.com/in/([a-zA-Z0-9-]+)`)
	vanityInPath  = regexp.MustCompile(`/in/([a-zA-Z0-9-]+)`)
	publicID      = regexp.MustCompile(`publicIdentifier[:\s]+([a-zA-Z0-9-]+)`)
)

func profileURL(id string) string {
	return linkedInBase + "/in/" + id + "/"
}

// Encrypted member ids look like ACoAA...; they resolve only while logged in.
func encryptedID(id string) bool { return strings.HasPrefix(id, "ACoAA") }

func vanityCandidate(id string) bool { return !strings.HasPrefix(id, "ACoAAA") }

// profileID resolves href against linkedin.com and returns the /in/ segment.
func profileID(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	base, _ := url.Parse(linkedInBase + "/")
	u, err := base.Parse(href)
	if err != nil {
		return ""
	}
	m := profilePath.FindStringSubmatch(u.EscapedPath())
	if m == nil {
		return ""
	}
	return m[1]
}

// CanonicalURL rewrites a profile href to https://www.linkedin.com/in/<id>/.
// It returns "" when href has no /in/ segment. Canonical input is returned
// unchanged.
func CanonicalURL(href string) string {
	id := profileID(href)
	if id == "" {
		return ""
	}
	return profileURL(id)
}

// CanonicalProfileURL is CanonicalURL for a profile anchor. Encrypted ids are
// replaced by a vanity id found on or around the anchor when there is one.
func CanonicalProfileURL(link *goquery.Selection) string {
	if link == nil || link.Length() == 0 {
		return ""
	}
	href, _ := link.Attr("href")
	id := profileID(href)
	if id == "" {
		return ""
	}
	if encryptedID(id) {
		if v := vanityNear(link.First()); v != "" {
			return profileURL(v)
		}
	}
	return profileURL(id)
}

func vanityNear(el *goquery.Selection) string {
	if label, ok := el.Attr("aria-label"); ok {
		if m := vanityInLabel.FindStringSubmatch(label); m != nil && vanityCandidate(m[1]) {
			return m[1]
		}
	}

	for _, a := range el.Nodes[0].Attr {
		if !strings.HasPrefix(a.Key, "data-") || !strings.Contains(a.Val, "/in/") {
			continue
		}
		if m := vanityInPath.FindStringSubmatch(a.Val); m != nil && vanityCandidate(m[1]) {
			return m[1]
		}
	}

	for _, attr := range []string{"data-entity-urn", "data-urn", "data-member-urn"} {
		urn, ok := el.Attr(attr)
		if !ok || urn == "" {
			continue
		}
		if m := publicID.FindStringSubmatch(urn); m != nil {
			return m[1]
		}
		break
	}

	parent := el.Parent()
	for depth := 0; depth < 3 && parent.Length() > 0; depth++ {
		if urn, ok := parent.Attr("data-entity-urn"); ok && strings.Contains(urn, "fs_miniProfile") {
			if m := publicID.FindStringSubmatch(urn); m != nil {
				return m[1]
			}
		}
		var found string
		parent.Find(`a[href*="/in/"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			m := vanityInPath.FindStringSubmatch(href)
			if m != nil && vanityCandidate(m[1]) && len(m[1]) < 30 {
				found = m[1]
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
		parent = parent.Parent()
	}
	return ""
}

var nameCleanups = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^View\s+`),
	regexp.MustCompile(`(?i)View\s+.*?\s+profile$`),
	regexp.MustCompile(`(?i)\s*'s?\s+profile$`),
	regexp.MustCompile(`(?i)View\s+profile\s+for\s+`),
	regexp.MustCompile(`(?i)\s+profile$`),
}

// CleanName strips accessibility wrappers such as "View Jane Doe's profile"
// and trailing connection degree markers. Empty results become "Unknown".
func CleanName(raw string) string {
	s := raw
	for _, re := range nameCleanups {
		s = re.ReplaceAllString(s, "")
	}
	s, _, _ = strings.Cut(s, "•")
	s, _, _ = strings.Cut(strings.TrimSpace(s), "·")
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "Unknown"
	}
	return s
}
