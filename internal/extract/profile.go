package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"linkedva-engine/internal/page"
)

type section struct {
	header string
	lookup page.Lookup
	limit  int
}

func mentions(word string) func(string) bool {
	return func(s string) bool { return page.ContainsFold(s, word) }
}

var profileSections = []section{
	{
		header: "=== HEADER ===",
		lookup: page.Selectors("header",
			".pv-text-details__left-panel",
			".ph5.pb5",
			".pv-top-card",
			"section.artdeco-card:first-of-type",
			".profile-header",
		),
	},
	{
		header: "\n=== ABOUT ===",
		lookup: page.Selectors("about",
			"#about",
			`[id*="about"]`,
			"section:has(#about)",
			"section.artdeco-card.pv-profile-card",
		).Accepting(mentions("about")),
	},
	{
		header: "\n=== EXPERIENCE (limited) ===",
		lookup: page.Selectors("experience", `#experience, [id*="experience"]`),
		limit:  1000,
	},
	{
		header: "\n=== EDUCATION ===",
		lookup: page.Selectors("education", `#education, [id*="education"]`),
		limit:  800,
	},
	{
		header: "\n=== SKILLS ===",
		lookup: page.Selectors("skills",
			"#skills",
			`[id*="skills"]`,
			"section:has(#skills)",
		).Accepting(mentions("skill")),
		limit: 1000,
	},
}

// Profile assembles the salient sections of a LinkedIn profile page.
// Sections that match nothing are omitted; no match at all yields "".
func Profile(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}
	var parts []string
	for _, s := range profileSections {
		m, ok := s.lookup.First(doc.Selection)
		if !ok {
			continue
		}
		text := m.Text
		if s.limit > 0 {
			text = page.Truncate(text, s.limit)
		}
		parts = append(parts, s.header, text)
	}
	return strings.Join(parts, "\n")
}

// IsProfileURL reports whether u points at a member profile.
func IsProfileURL(u string) bool {
	return strings.Contains(strings.ToLower(u), "linkedin.com/in/")
}
