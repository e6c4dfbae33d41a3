package brand

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"linkedva-engine/internal/domain"
	"linkedva-engine/internal/model"
)

const generatorSystem = `You are LinkedVA, an assistant that creates structured brand voice JSON.
- Always answer with JSON only when instructed.
- JSON must be minified, UTF-8, and valid.
- Avoid markdown fences.`

func generatorPrompt(p Payload) string {
	fact := p.BrandFact
	if fact == "" {
		fact = "none provided"
	}
	samples := "none provided"
	if len(p.Samples) > 0 {
		samples = strings.Join(p.Samples, " || ")
	}
	var b strings.Builder
	b.WriteString("You will create a compact brand voice profile and a reusable master prompt for drafting replies.\n")
	b.WriteString("Input fields:\n")
	fmt.Fprintf(&b, "- Mission: %s\n", p.Mission)
	fmt.Fprintf(&b, "- Brand fact: %s\n", fact)
	fmt.Fprintf(&b, "- Adjectives: %s\n", strings.Join(p.Adjectives, ", "))
	fmt.Fprintf(&b, "- Do's: %s\n", strings.Join(p.Dos, "; "))
	fmt.Fprintf(&b, "- Don'ts: %s\n", strings.Join(p.Donts, "; "))
	fmt.Fprintf(&b, "- Sample replies: %s\n", samples)
	fmt.Fprintf(&b, "- Default reply language: %s\n", p.TargetLanguage)
	b.WriteString(`
Respond with minified JSON only, following this schema exactly:
{
  "brandVoice": {
    "mission": string,
    "brandFact": string,
    "tone": string[],
    "dos": string[],
    "donts": string[],
    "sampleReplies": string[],
    "targetLanguage": string
  },
  "masterPrompt": string,
  "createdAt": string
}

Rules:
- Keep arrays <= 5 items.
- Use the provided inputs faithfully; enrich only when helpful.
- masterPrompt should instruct future calls how to respond in this brand voice when given context.
- createdAt must be an ISO 8601 timestamp.
`)
	return b.String()
}

// Generate asks the model for a brand profile built from p and normalizes
// the answer.
func Generate(ctx context.Context, prov model.Provider, p Payload, now time.Time) (*domain.BrandProfile, error) {
	raw, err := model.Run(ctx, prov, model.Options{
		Task:        "brand",
		System:      generatorSystem,
		Temperature: model.Float(0.6),
		TopK:        model.Float(5),
		Language:    "en",
	}, generatorPrompt(p))
	if err != nil {
		return nil, err
	}

	var generated map[string]any
	if err := json.Unmarshal([]byte(model.SanitizeJSON(raw)), &generated); err != nil {
		return nil, &model.OutputError{Raw: raw, Err: err}
	}
	if generated == nil {
		return nil, &model.OutputError{Raw: raw, Err: errors.New("empty profile")}
	}
	return Normalize(generated, p, now), nil
}
