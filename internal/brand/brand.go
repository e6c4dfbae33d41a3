// Package brand builds, validates and converts the brand voice profile that
// steers reply drafting.
package brand

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"linkedva-engine/internal/domain"
)

// ExportFilename is the file name used for brand profile downloads.
const ExportFilename = "linkedva-brand.json"

var (
	SuggestedDos = []string{
		"Keep it casual and conversational",
		"Add a little enthusiasm (but not over the top)",
		"Be clear",
		"Be simple",
		"Be human (avoid jargon unless the audience is technical)",
	}
	SuggestedDonts = []string{
		"Don't be robotic or stiff",
		"Don't be negative or dismissive",
		"Don't touch on porn or NSFW content",
	}
)

var bulletSep = regexp.MustCompile("\n|,|•")

// Bulletize splits free text on newlines, commas and bullets.
func Bulletize(text string) []string {
	var out []string
	for _, part := range bulletSep.Split(text, -1) {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Form is the raw brand setup form.
type Form struct {
	Mission        string   `json:"mission"`
	BrandFact      string   `json:"brandFact"`
	Adjectives     string   `json:"adjectives"`
	Dos            string   `json:"dos"`
	Donts          string   `json:"donts"`
	Samples        []string `json:"samples"`
	TargetLanguage string   `json:"targetLanguage"`

	BusinessName string `json:"businessName,omitempty"`
	Tagline      string `json:"tagline,omitempty"`
	Description  string `json:"description,omitempty"`
	Values       string `json:"values,omitempty"`
	Audience     string `json:"audience,omitempty"`
}

// Payload is the cleaned form handed to the generator.
type Payload struct {
	Mission        string
	BrandFact      string
	Adjectives     []string
	Dos            []string
	Donts          []string
	Samples        []string
	TargetLanguage string

	BusinessName string
	Tagline      string
	Description  string
	Values       []string
	Audience     string
}

// PayloadFromForm trims the form, keeps at most three adjectives and
// samples and fills empty dos and don'ts with the suggestions.
func PayloadFromForm(f Form) Payload {
	p := Payload{
		Mission:        strings.TrimSpace(f.Mission),
		BrandFact:      strings.TrimSpace(f.BrandFact),
		Dos:            Bulletize(f.Dos),
		Donts:          Bulletize(f.Donts),
		TargetLanguage: strings.TrimSpace(f.TargetLanguage),
		BusinessName:   strings.TrimSpace(f.BusinessName),
		Tagline:        strings.TrimSpace(f.Tagline),
		Description:    strings.TrimSpace(f.Description),
		Values:         Bulletize(f.Values),
		Audience:       strings.TrimSpace(f.Audience),
	}
	for _, a := range strings.Split(f.Adjectives, ",") {
		if a = strings.TrimSpace(a); a != "" && len(p.Adjectives) < 3 {
			p.Adjectives = append(p.Adjectives, a)
		}
	}
	for _, s := range f.Samples {
		if s = strings.TrimSpace(s); s != "" && len(p.Samples) < 3 {
			p.Samples = append(p.Samples, s)
		}
	}
	if len(p.Dos) == 0 {
		p.Dos = append([]string(nil), SuggestedDos...)
	}
	if len(p.Donts) == 0 {
		p.Donts = append([]string(nil), SuggestedDonts...)
	}
	if p.TargetLanguage == "" {
		p.TargetLanguage = domain.DefaultLanguage
	}
	return p
}

// Timestamp formats t the way profiles store createdAt and updatedAt.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// Normalize merges a generated profile with the payload it was generated
// from. Missing or empty values fall back to the payload.
func Normalize(generated map[string]any, p Payload, now time.Time) *domain.BrandProfile {
	voice, _ := generated["brandVoice"].(map[string]any)

	fact := p.BrandFact
	if s, ok := voice["brandFact"].(string); ok {
		fact = strings.TrimSpace(s)
	}
	ts := Timestamp(now)
	created := ts
	if s := truthy(generated["createdAt"]); s != "" {
		created = s
	}

	return &domain.BrandProfile{
		BrandVoice: &domain.BrandVoice{
			Mission:        or(truthy(voice["mission"]), p.Mission),
			BusinessName:   or(truthy(voice["businessName"]), p.BusinessName),
			Tagline:        or(truthy(voice["tagline"]), p.Tagline),
			Description:    or(truthy(voice["description"]), p.Description),
			Tone:           ensureList(voice["tone"], p.Adjectives),
			Values:         ensureList(voice["values"], p.Values),
			Audience:       or(truthy(voice["audience"]), p.Audience),
			Dos:            ensureList(voice["dos"], p.Dos),
			Donts:          ensureList(voice["donts"], p.Donts),
			SampleReplies:  ensureList(voice["sampleReplies"], p.Samples),
			BrandFact:      fact,
			TargetLanguage: or(truthy(voice["targetLanguage"]), p.TargetLanguage),
		},
		MasterPrompt: truthy(generated["masterPrompt"]),
		CreatedAt:    created,
		UpdatedAt:    ts,
	}
}

func truthy(v any) string {
	s, _ := v.(string)
	return s
}

func or(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// ensureList keeps arrays, wraps a non-blank string and otherwise uses
// fallback.
func ensureList(v any, fallback []string) domain.List {
	switch t := v.(type) {
	case []any:
		out := make(domain.List, 0, len(t))
		for _, x := range t {
			switch s := x.(type) {
			case string:
				out = append(out, s)
			case nil:
			default:
				b, _ := json.Marshal(s)
				out = append(out, string(b))
			}
		}
		return out
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return domain.List{s}
		}
	}
	return domain.List(fallback)
}
