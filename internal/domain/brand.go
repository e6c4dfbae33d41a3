package domain

import (
	"encoding/json"
	"strings"
)

// List is a string list that also accepts a single string when decoding.
type List []string

func (l *List) UnmarshalJSON(b []byte) error {
	var xs []string
	if err := json.Unmarshal(b, &xs); err == nil {
		*l = xs
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*l = nil
		return nil
	}
	if s = strings.TrimSpace(s); s != "" {
		*l = List{s}
	} else {
		*l = nil
	}
	return nil
}

type BrandVoice struct {
	Mission        string `json:"mission,omitempty"`
	BusinessName   string `json:"businessName,omitempty"`
	Tagline        string `json:"tagline,omitempty"`
	Description    string `json:"description,omitempty"`
	Tone           List   `json:"tone"`
	Values         List   `json:"values,omitempty"`
	Audience       string `json:"audience,omitempty"`
	Dos            List   `json:"dos"`
	Donts          List   `json:"donts"`
	SampleReplies  List   `json:"sampleReplies,omitempty"`
	BrandFact      string `json:"brandFact,omitempty"`
	TargetLanguage string `json:"targetLanguage,omitempty"`
}

// BrandProfile is the singleton brand voice used by the reply assistant.
type BrandProfile struct {
	BrandVoice   *BrandVoice `json:"brandVoice,omitempty"`
	MasterPrompt string      `json:"masterPrompt"`
	BrandFact    string      `json:"brandFact,omitempty"`
	CreatedAt    string      `json:"createdAt,omitempty"`
	UpdatedAt    string      `json:"updatedAt,omitempty"`
}

const DefaultLanguage = "English"

// Fact returns the brand fact from the voice, or the top-level field.
func (p *BrandProfile) Fact() string {
	if p == nil {
		return ""
	}
	if p.BrandVoice != nil {
		if f := strings.TrimSpace(p.BrandVoice.BrandFact); f != "" {
			return f
		}
	}
	return strings.TrimSpace(p.BrandFact)
}

// TargetLanguage defaults to English.
func (p *BrandProfile) TargetLanguage() string {
	if p == nil || p.BrandVoice == nil || strings.TrimSpace(p.BrandVoice.TargetLanguage) == "" {
		return DefaultLanguage
	}
	return strings.TrimSpace(p.BrandVoice.TargetLanguage)
}

// Ready reports whether drafting can use this profile.
func (p *BrandProfile) Ready() bool {
	return p != nil && p.MasterPrompt != ""
}
