package brand

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"linkedva-engine/internal/domain"
)

// ErrInvalidProfile is matched by every import validation failure.
var ErrInvalidProfile = errors.New("invalid brand profile")

// ImportError explains why an imported profile was rejected.
type ImportError struct {
	Msg string
}

func (e *ImportError) Error() string { return e.Msg }

func (e *ImportError) Is(target error) bool { return target == ErrInvalidProfile }

const profileSchema = `{
  "type": "object",
  "required": ["brandVoice", "masterPrompt"],
  "properties": {
    "brandVoice": {
      "type": "object",
      "required": ["tone"],
      "properties": {
        "tone":          {"type": "array", "items": {"type": "string"}},
        "dos":           {"type": "array", "items": {"type": "string"}},
        "donts":         {"type": "array", "items": {"type": "string"}},
        "values":        {"type": "array", "items": {"type": "string"}},
        "sampleReplies": {"type": "array", "items": {"type": "string"}},
        "brandFact":     {"type": ["string", "null"]},
        "targetLanguage":{"type": ["string", "null"]}
      }
    },
    "masterPrompt": {"type": "string", "minLength": 1}
  }
}`

var schema = func() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(profileSchema))
	if err != nil {
		panic(fmt.Sprintf("brand: compile schema: %v", err))
	}
	return s
}()

// Validate checks an imported profile document.
func Validate(data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return &ImportError{Msg: "Invalid JSON: " + err.Error()}
	}
	if _, ok := doc.(map[string]any); !ok {
		return &ImportError{Msg: "JSON must be an object."}
	}

	res, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validate brand profile: %w", err)
	}
	if res.Valid() {
		return nil
	}
	return &ImportError{Msg: describe(res.Errors())}
}

// describe picks the most important failure, in the order a user should fix
// them.
func describe(errs []gojsonschema.ResultError) string {
	has := func(match func(gojsonschema.ResultError) bool) bool {
		for _, e := range errs {
			if match(e) {
				return true
			}
		}
		return false
	}
	switch {
	case has(func(e gojsonschema.ResultError) bool {
		return (e.Type() == "required" && e.Field() == "(root)") ||
			e.Field() == "brandVoice" && e.Details()["given"] == "null" ||
			e.Field() == "masterPrompt"
	}):
		return "Missing brandVoice or masterPrompt fields."
	case has(func(e gojsonschema.ResultError) bool {
		return e.Field() == "brandVoice.tone" ||
			e.Field() == "brandVoice" && e.Type() == "invalid_type" ||
			e.Type() == "required" && e.Field() == "brandVoice" && e.Details()["property"] == "tone"
	}):
		return "brandVoice.tone must be an array."
	case has(func(e gojsonschema.ResultError) bool { return e.Field() == "brandVoice.brandFact" }):
		return "brandVoice.brandFact must be a string when provided."
	}
	e := errs[0]
	return fmt.Sprintf("%s: %s", e.Field(), e.Description())
}

// Import validates data and decodes it into a profile.
func Import(data []byte) (*domain.BrandProfile, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var p domain.BrandProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, &ImportError{Msg: "Invalid JSON: " + err.Error()}
	}
	return &p, nil
}

// Export renders p as indented JSON for download.
func Export(p *domain.BrandProfile) ([]byte, error) {
	if p == nil {
		return nil, errors.New("nothing to export yet")
	}
	return json.MarshalIndent(p, "", "  ")
}
