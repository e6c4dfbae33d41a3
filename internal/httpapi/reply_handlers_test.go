package httpapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkedva-engine/internal/domain"
	"linkedva-engine/internal/events"
	"linkedva-engine/internal/reply"
)

const (
	validProfile = `{"brandVoice":{"tone":["warm","direct"],"dos":["Be clear"],"donts":["No jargon"],"targetLanguage":"Spanish"},"masterPrompt":"Reply as Acme."}`
	threadHTML   = `<html><head><title>Feed | LinkedIn</title></head><body><main>
<article><p>We just shipped v2!</p><div><textarea placeholder="Add a comment…"></textarea></div></article>
</main></body></html>`
	feedURL = "https://www.linkedin.com/feed/"
)

type draftResp struct {
	Drafts  []string     `json:"drafts"`
	Context reply.Thread `json:"context"`
}

func putBrand(t *testing.T, env *testEnv) {
	t.Helper()
	resp := env.do(t, http.MethodPut, "/brand", validProfile)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBrandImportExport(t *testing.T) {
	env := newEnv(t)
	sub := env.deps.Hub.Subscribe()
	defer env.deps.Hub.Unsubscribe(sub)

	resp := env.do(t, http.MethodGet, "/brand/export", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/brand/import", `{"masterPrompt":"x"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	apiErr := decode[APIError](t, resp)
	assert.Equal(t, "invalid_profile", apiErr.Error.Code)
	assert.Equal(t, "Missing brandVoice or masterPrompt fields.", apiErr.Error.Message)

	resp = env.do(t, http.MethodPost, "/brand/import", `{"brandVoice":{"tone":"warm"},"masterPrompt":"x"}`)
	assert.Equal(t, "brandVoice.tone must be an array.", decode[APIError](t, resp).Error.Message)

	resp = env.do(t, http.MethodPost, "/brand/import", validProfile)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, <-sub, events.BrandProfileUpdated)

	resp = env.do(t, http.MethodGet, "/brand", nil)
	p := decode[domain.BrandProfile](t, resp)
	assert.Equal(t, "Reply as Acme.", p.MasterPrompt)
	assert.Empty(t, p.UpdatedAt, "import keeps the document as-is")

	resp = env.do(t, http.MethodGet, "/brand/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="linkedva-brand.json"`, resp.Header.Get("Content-Disposition"))
	assert.Contains(t, readAll(t, resp), "\n  \"brandVoice\": {")

	resp = env.do(t, http.MethodDelete, "/brand", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = env.do(t, http.MethodGet, "/brand", nil)
	assert.Equal(t, "null\n", readAll(t, resp))
}

func TestBrandPutStampsTimes(t *testing.T) {
	env := newEnv(t)
	putBrand(t, env)

	p, err := env.deps.Brand.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "2024-05-01T12:00:00.000Z", p.CreatedAt)
	assert.Equal(t, "2024-05-01T12:00:00.000Z", p.UpdatedAt)
}

func TestBrandGenerateKeepsCreatedAt(t *testing.T) {
	env := newEnv(t)
	require.NoError(t, env.deps.Brand.Put(context.Background(), &domain.BrandProfile{
		BrandVoice:   &domain.BrandVoice{Tone: domain.List{"calm"}},
		MasterPrompt: "old",
		CreatedAt:    "2023-01-01T00:00:00.000Z",
	}))
	env.model.answers["brand"] = "```json\n{\"brandVoice\":{\"tone\":[\"bold\"]},\"masterPrompt\":\"Speak boldly.\"}\n```"

	resp := env.do(t, http.MethodPost, "/brand/generate", map[string]any{
		"mission":    "Help founders hire",
		"adjectives": "bold, kind",
		"dos":        "Be brief\nUse names",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	p := decode[domain.BrandProfile](t, resp)
	assert.Equal(t, "Speak boldly.", p.MasterPrompt)
	assert.Equal(t, domain.List{"bold"}, p.BrandVoice.Tone)
	assert.Equal(t, domain.List{"Be brief", "Use names"}, p.BrandVoice.Dos)
	assert.Equal(t, "2023-01-01T00:00:00.000Z", p.CreatedAt)
	assert.Equal(t, "2024-05-01T12:00:00.000Z", p.UpdatedAt)

	prompts := env.model.promptsFor("brand")
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "- Mission: Help founders hire")
}

func TestBrandGenerateMalformed(t *testing.T) {
	env := newEnv(t)
	env.model.answers["brand"] = "not json"
	resp := env.do(t, http.MethodPost, "/brand/generate", map[string]any{"mission": "x"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	p, err := env.deps.Brand.Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestReplyEligible(t *testing.T) {
	env := newEnv(t)
	resp := env.do(t, http.MethodPost, "/reply/eligible", map[string]any{
		"url":   feedURL,
		"html":  threadHTML,
		"field": map[string]any{"selector": "textarea", "index": 0},
	})
	assert.Equal(t, map[string]any{"eligible": true}, decode[map[string]any](t, resp))

	resp = env.do(t, http.MethodPost, "/reply/eligible", map[string]any{
		"url":   feedURL,
		"html":  threadHTML,
		"field": map[string]any{"selector": "#missing", "index": 0},
	})
	assert.Equal(t, map[string]any{"eligible": false}, decode[map[string]any](t, resp))
}

func TestReplyDraftRequiresBrand(t *testing.T) {
	env := newEnv(t)
	resp := env.do(t, http.MethodPost, "/reply/draft", map[string]any{
		"thread": reply.Thread{Primary: "Hello"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "Set up a brand first.", decode[APIError](t, resp).Error.Message)
	assert.Empty(t, env.model.promptsFor("draft"))
}

func TestReplyDraftFromSnapshot(t *testing.T) {
	env := newEnv(t)
	putBrand(t, env)
	env.model.answers["summary"] = "- v2 shipped"
	env.model.answers["draft"] = `{"drafts":["Congrats on v2!","Huge milestone."]}`
	env.model.answers["guardrail"] = `{"status":"ok","reply":"Congrats on the v2 launch!"}`

	resp := env.do(t, http.MethodPost, "/reply/draft", map[string]any{
		"sessionId": "tab-1",
		"url":       feedURL,
		"html":      threadHTML,
		"field":     map[string]any{"selector": "textarea", "index": 0},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[draftResp](t, resp)
	assert.Equal(t, []string{"Congrats on the v2 launch!"}, got.Drafts)
	assert.Equal(t, "We just shipped v2!", got.Context.Primary)
	assert.Equal(t, "Feed | LinkedIn", got.Context.Title)

	summaries := env.model.promptsFor("summary")
	require.Len(t, summaries, 1)
	assert.Contains(t, summaries[0], "We just shipped v2!")
}

func TestReplyTranslate(t *testing.T) {
	env := newEnv(t)
	resp := env.do(t, http.MethodPost, "/reply/translate", map[string]any{"text": "   "})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "Add text to translate first.", decode[APIError](t, resp).Error.Message)

	putBrand(t, env)
	env.model.answers["translate"] = "  ¡Gracias!  "
	resp = env.do(t, http.MethodPost, "/reply/translate", map[string]any{"text": "Thanks!"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"text": "¡Gracias!"}, decode[map[string]any](t, resp))

	prompts := env.model.promptsFor("translate")
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "Spanish")
}

func TestReplyInsert(t *testing.T) {
	env := newEnv(t)
	resp := env.do(t, http.MethodPost, "/reply/insert", `{"field":{"value":"Hi there","selectionStart":3,"selectionEnd":8},"text":"team"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	f := decode[reply.Field](t, resp)
	assert.Equal(t, "Hi team", f.Value)
	assert.Equal(t, 7, f.Cursor)

	resp = env.do(t, http.MethodPost, "/reply/insert", `{"field":{"value":"Hi","contentEditable":true,"selectionStart":0},"text":" all"}`)
	f = decode[reply.Field](t, resp)
	assert.Equal(t, "Hi all", f.Value)
}
