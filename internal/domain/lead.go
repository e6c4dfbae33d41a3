package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Lead is one contact extracted from a single page visit.
type Lead struct {
	ID           string   `json:"id"`
	Name         string   `json:"name,omitempty"`
	Role         string   `json:"role,omitempty"`
	Company      string   `json:"company,omitempty"`
	Location     string   `json:"location,omitempty"`
	Industry     string   `json:"industry,omitempty"`
	LinkedInURL  string   `json:"linkedinUrl,omitempty"`
	Education    string   `json:"education,omitempty"`
	Skills       []string `json:"skills,omitempty"`
	AboutSummary string   `json:"aboutSummary,omitempty"`
	Email        string   `json:"email,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	Timestamp    int64    `json:"timestamp"`
	URL          string   `json:"url"`
}

// UnmarshalJSON accepts the loose shapes a model or an older client may
// produce. Nulls become empty strings, education is always flattened to a
// string and a comma separated skills string is split.
func (l *Lead) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == nil {
		*l = Lead{}
		return nil
	}

	out := Lead{
		ID:           flatString(raw["id"]),
		Name:         flatString(raw["name"]),
		Role:         flatString(raw["role"]),
		Company:      flatString(raw["company"]),
		Location:     flatString(raw["location"]),
		Industry:     flatString(raw["industry"]),
		LinkedInURL:  flatString(raw["linkedinUrl"]),
		Education:    FlattenEducation(raw["education"]),
		Skills:       SplitSkills(raw["skills"]),
		AboutSummary: flatString(raw["aboutSummary"]),
		Email:        flatString(raw["email"]),
		Phone:        flatString(raw["phone"]),
		URL:          flatString(raw["url"]),
	}
	if ts, ok := raw["timestamp"]; ok {
		var f float64
		if err := json.Unmarshal(ts, &f); err == nil {
			out.Timestamp = int64(f)
		}
	}
	*l = out
	return nil
}

// CopyText renders the lead as plain text for the clipboard.
func (l Lead) CopyText() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Name: %s\nRole: %s\nCompany: %s", orNA(l.Name), orNA(l.Role), orNA(l.Company))
	if l.Location != "" {
		sb.WriteString("\nLocation: " + l.Location)
	}
	if l.Industry != "" {
		sb.WriteString("\nIndustry: " + l.Industry)
	}
	if l.LinkedInURL != "" {
		sb.WriteString("\nLinkedIn: " + l.LinkedInURL)
	}
	if l.Education != "" {
		sb.WriteString("\nEducation: " + l.Education)
	}
	if len(l.Skills) > 0 {
		sb.WriteString("\nSkills: " + strings.Join(l.Skills, ", "))
	}
	if l.Email != "" {
		sb.WriteString("\nEmail: " + l.Email)
	}
	if l.Phone != "" {
		sb.WriteString("\nPhone: " + l.Phone)
	}
	if l.AboutSummary != "" {
		sb.WriteString("\n\nAbout:\n" + l.AboutSummary)
	}
	sb.WriteString("\n\nSource: " + orNA(l.URL))
	return sb.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// educationKeys is the order in which structured education parts are joined.
var educationKeys = []string{
	"school", "institution", "university", "college",
	"degree", "field", "fieldOfStudy", "major",
	"years", "dates", "year", "graduationYear",
}

// FlattenEducation coerces any JSON value into the flat education string.
// Objects join their known keys with ", " (falling back to compact JSON),
// arrays join their flattened entries with "; ".
func FlattenEducation(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	switch raw[0] {
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return ""
		}
		var parts []string
		for _, k := range educationKeys {
			if v := flatString(obj[k]); v != "" {
				parts = append(parts, v)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, ", ")
		}
		if len(obj) == 0 {
			return ""
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return ""
		}
		return buf.String()
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return ""
		}
		var parts []string
		for _, it := range items {
			if v := FlattenEducation(it); v != "" {
				parts = append(parts, v)
			}
		}
		return strings.Join(parts, "; ")
	default:
		return flatString(raw)
	}
}

// SplitSkills accepts a list or a comma separated string.
func SplitSkills(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var out []string
	if raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil
		}
		for _, it := range items {
			if s := flatString(it); s != "" {
				out = append(out, s)
			}
		}
		return out
	}

	for _, part := range strings.FieldsFunc(flatString(raw), func(r rune) bool { return r == ',' || r == ';' }) {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// flatString renders scalars as text. Objects and arrays are rendered as
// their values joined by ", " so nothing structured leaks into a field.
func flatString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if strings.EqualFold(s, "null") {
			return ""
		}
		return s
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any, map[string]any:
		return strings.Join(scalarValues(t), ", ")
	}
	return ""
}

func scalarValues(v any) []string {
	var out []string
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			out = append(out, s)
		}
	case float64:
		out = append(out, strconv.FormatFloat(t, 'f', -1, 64))
	case bool:
		out = append(out, strconv.FormatBool(t))
	case []any:
		for _, x := range t {
			out = append(out, scalarValues(x)...)
		}
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, scalarValues(t[k])...)
		}
	}
	return out
}
