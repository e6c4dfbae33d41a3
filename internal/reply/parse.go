package reply

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"linkedva-engine/internal/metrics"
	"linkedva-engine/internal/model"
)

const unparsedDrafts = "Unable to generate drafts. Please try again."

var (
	draftsArray   = regexp.MustCompile(`(?s)["']drafts["']\s*:\s*\[(.*?)\]`)
	quotedString  = regexp.MustCompile(`["']([^"']*?)["']`)
	objectPrefix  = regexp.MustCompile(`^\{[^:]*:[\[\s]*`)
	objectSuffix  = regexp.MustCompile(`[\]\s]*\}$`)
	draftSplitter = regexp.MustCompile(`"\s*,\s*"|\n+`)
	leadingJunk   = regexp.MustCompile(`^["'\[\{]+`)
	trailingJunk  = regexp.MustCompile(`["'\]\}]+$`)
	numbered      = regexp.MustCompile(`^\d+\.\s*`)
	artifactLine  = regexp.MustCompile(`(?i)^(drafts?|reply|option|\{|\}|\[|\]|null|undefined)$`)
	jsonChars     = regexp.MustCompile(`[{}\[\]"]`)
	draftsLabel   = regexp.MustCompile(`(?i)drafts?:`)
)

// draftStrategy recovers drafts from cleaned model output, or reports nil.
type draftStrategy struct {
	name string
	run  func(cleaned string) []string
}

var draftStrategies = []draftStrategy{
	{"json", draftsFromJSON},
	{"regex", draftsFromRegex},
	{"split", draftsFromSplit},
	{"raw", draftsFromRaw},
}

// parseDrafts recovers up to three drafts from a model reply, trying
// strict JSON first and degrading to plain text. It never returns an empty
// list and reports which strategy matched.
func parseDrafts(raw string) ([]string, string) {
	cleaned := model.SanitizeJSON(raw)
	for _, s := range draftStrategies {
		if out := s.run(cleaned); len(out) > 0 {
			metrics.DraftParseStrategy.WithLabelValues(s.name).Inc()
			return capDrafts(out), s.name
		}
	}
	metrics.DraftParseStrategy.WithLabelValues("none").Inc()
	return []string{unparsedDrafts}, "none"
}

func capDrafts(xs []string) []string {
	if len(xs) > 3 {
		return xs[:3]
	}
	return xs
}

func draftsFromJSON(cleaned string) []string {
	var parsed struct {
		Drafts []any `json:"drafts"`
	}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil
	}
	out := make([]string, 0, len(parsed.Drafts))
	for _, d := range parsed.Drafts {
		out = append(out, stringify(d))
	}
	return out
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return "null"
	case float64, bool:
		return fmt.Sprint(t)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func draftsFromRegex(cleaned string) []string {
	m := draftsArray.FindStringSubmatch(cleaned)
	if m == nil || m[1] == "" {
		return nil
	}
	var out []string
	for _, q := range quotedString.FindAllStringSubmatch(m[1], -1) {
		s := strings.ReplaceAll(q[1], `\n`, " ")
		s = strings.ReplaceAll(s, `\"`, `"`)
		s = strings.ReplaceAll(s, `\\`, `\`)
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func draftsFromSplit(cleaned string) []string {
	content := objectPrefix.ReplaceAllString(cleaned, "")
	content = objectSuffix.ReplaceAllString(content, "")
	content = strings.ReplaceAll(content, `\n`, " ")
	content = strings.ReplaceAll(content, `\"`, `"`)

	var out []string
	for _, line := range draftSplitter.Split(content, -1) {
		line = strings.TrimSpace(line)
		line = leadingJunk.ReplaceAllString(line, "")
		line = trailingJunk.ReplaceAllString(line, "")
		line = numbered.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) > 10 && !artifactLine.MatchString(line) {
			out = append(out, line)
		}
	}
	return out
}

func draftsFromRaw(cleaned string) []string {
	s := jsonChars.ReplaceAllString(cleaned, "")
	s = strings.TrimSpace(draftsLabel.ReplaceAllString(s, ""))
	if utf8.RuneCountInString(s) > 10 {
		return []string{s}
	}
	return nil
}
