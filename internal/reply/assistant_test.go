package reply

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkedva-engine/internal/domain"
	"linkedva-engine/internal/model"
)

type recorded struct {
	opts   model.Options
	prompt string
}

// scripted answers every prompt through answer, keyed by task.
type scripted struct {
	mu     sync.Mutex
	calls  []recorded
	answer func(task, prompt string) (string, error)
}

func (s *scripted) Available(context.Context) error { return nil }

func (s *scripted) Create(_ context.Context, o model.Options) (model.Session, error) {
	return &scriptedSession{p: s, opts: o}, nil
}

func (s *scripted) tasks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, c := range s.calls {
		out = append(out, c.opts.Task)
	}
	return out
}

func (s *scripted) byTask(task string) []recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []recorded
	for _, c := range s.calls {
		if c.opts.Task == task {
			out = append(out, c)
		}
	}
	return out
}

type scriptedSession struct {
	p    *scripted
	opts model.Options
}

func (s *scriptedSession) Prompt(_ context.Context, text string) (string, error) {
	s.p.mu.Lock()
	s.p.calls = append(s.p.calls, recorded{opts: s.opts, prompt: text})
	s.p.mu.Unlock()
	return s.p.answer(s.opts.Task, text)
}

func (s *scriptedSession) Close() error { return nil }

func brand() *domain.BrandProfile {
	return &domain.BrandProfile{
		BrandVoice: &domain.BrandVoice{
			Tone:           domain.List{"warm"},
			BrandFact:      "We ship weekly",
			TargetLanguage: "Spanish",
		},
		MasterPrompt: "Be helpful.",
	}
}

func staticBrand(bp *domain.BrandProfile) BrandFunc {
	return func(context.Context) (*domain.BrandProfile, error) { return bp, nil }
}

var thread = Thread{Primary: "Anyone hiring Go engineers?", Replies: []string{"Following", "Same question"}}

func TestDraftGuardsEveryDraft(t *testing.T) {
	p := &scripted{answer: func(task, prompt string) (string, error) {
		switch task {
		case "summary":
			return "  - asks about hiring  ", nil
		case "draft":
			return `{"drafts":["A one","B two","A again"]}`, nil
		case "guardrail":
			switch {
			case strings.Contains(prompt, "Draft reply:\nA one"), strings.Contains(prompt, "Draft reply:\nA again"):
				return `{"status":"ok","reply":"Alpha"}`, nil
			case strings.Contains(prompt, "Draft reply:\nB two"):
				return `status "status": "reject", "reply": "Beta fixed" trailing`, nil
			}
		}
		return "", errors.New("unexpected")
	}}
	a := NewAssistant(p, staticBrand(brand()), nil)

	drafts, err := a.Draft(context.Background(), thread)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Beta fixed"}, drafts)
	assert.Equal(t, []string{"summary", "draft", "guardrail", "guardrail", "guardrail"}, p.tasks())

	summary := p.byTask("summary")[0]
	assert.Equal(t, float32(0.2), *summary.opts.Temperature)
	assert.Equal(t, float32(3), *summary.opts.TopK)
	assert.Contains(t, summary.prompt, "Primary message: Anyone hiring Go engineers?\nRecent replies:\n1. Following\n2. Same question")

	draft := p.byTask("draft")[0]
	assert.Equal(t, float32(0.7), *draft.opts.Temperature)
	assert.Equal(t, float32(5), *draft.opts.TopK)
	assert.Equal(t, "es", draft.opts.Language)
	assert.True(t, strings.HasPrefix(draft.opts.System, baseSystemPrompt+"\n\nBrand voice JSON: {"))
	assert.True(t, strings.HasSuffix(draft.opts.System, "\n\nBe helpful."))
	assert.Contains(t, draft.prompt, "Summary of thread:\n- asks about hiring")
	assert.Contains(t, draft.prompt, "Recent visible replies:\n- Following\n- Same question")
	assert.Contains(t, draft.prompt, "Weave this brand fact naturally when it helps: We ship weekly")

	guard := p.byTask("guardrail")[0]
	assert.True(t, strings.HasSuffix(guard.opts.System, "\n\n"+guardrailSystem))
	assert.Contains(t, guard.prompt, "Ensure any usage of the brand fact stays accurate: We ship weekly.")
}

func TestDraftKeepsOriginalWhenGuardrailFails(t *testing.T) {
	p := &scripted{answer: func(task, prompt string) (string, error) {
		switch task {
		case "draft":
			return `{"drafts":["Keep me as is","Also keep me"]}`, nil
		case "guardrail":
			if strings.Contains(prompt, "Keep me as is") {
				return "I cannot answer in JSON today", nil
			}
			return "", errors.New("boom")
		}
		return "summary", nil
	}}
	a := NewAssistant(p, staticBrand(brand()), nil)

	drafts, err := a.Draft(context.Background(), thread)
	require.NoError(t, err)
	assert.Equal(t, []string{"Keep me as is", "Also keep me"}, drafts)
}

func TestDraftSummaryFailureUsesRawContext(t *testing.T) {
	p := &scripted{answer: func(task, prompt string) (string, error) {
		switch task {
		case "summary":
			return "", errors.New("down")
		case "draft":
			return `{"drafts":["Sounds great"]}`, nil
		}
		return `{"status":"ok","reply":"Sounds great"}`, nil
	}}
	a := NewAssistant(p, staticBrand(&domain.BrandProfile{MasterPrompt: "x"}), nil)

	_, err := a.Draft(context.Background(), Thread{Primary: "Hello"})
	require.NoError(t, err)
	draft := p.byTask("draft")[0]
	assert.Contains(t, draft.prompt, "Summary of thread:\nPrimary message: Hello")
	assert.NotContains(t, draft.prompt, "Recent visible replies")
	assert.NotContains(t, draft.prompt, "Weave this brand fact")
	assert.Equal(t, "en", draft.opts.Language)
}

func TestDraftNoSafeDrafts(t *testing.T) {
	p := &scripted{answer: func(task, prompt string) (string, error) {
		switch task {
		case "draft":
			return `{"drafts":["Buy now!!! Limited offer"]}`, nil
		case "guardrail":
			return `{"status":"reject","reply":""}`, nil
		}
		return "s", nil
	}}
	a := NewAssistant(p, staticBrand(brand()), nil)

	_, err := a.Draft(context.Background(), thread)
	require.ErrorIs(t, err, ErrNoSafeDrafts)
	assert.Equal(t, "No safe drafts generated. Try tweaking the brand voice or context.", Message(err))
}

func TestDraftRequiresBrand(t *testing.T) {
	p := &scripted{answer: func(string, string) (string, error) { return "", nil }}
	a := NewAssistant(p, staticBrand(nil), nil)

	_, err := a.Draft(context.Background(), thread)
	require.ErrorIs(t, err, ErrNoBrand)
	assert.Equal(t, "Set up a brand first.", Message(err))
	assert.Empty(t, p.tasks())
}

func TestDraftRequiresMasterPrompt(t *testing.T) {
	p := &scripted{answer: func(string, string) (string, error) { return "", nil }}
	bp := brand()
	bp.MasterPrompt = ""
	a := NewAssistant(p, staticBrand(bp), nil)

	_, err := a.Draft(context.Background(), thread)
	require.ErrorIs(t, err, ErrNoBrand)
	assert.Empty(t, p.tasks())
}

func TestDraftSupersededByNewerRequest(t *testing.T) {
	var a *Assistant
	p := &scripted{answer: func(task, prompt string) (string, error) {
		if task == "draft" {
			a.gen.Next()
			return `{"drafts":["late"]}`, nil
		}
		return "s", nil
	}}
	a = NewAssistant(p, staticBrand(brand()), nil)

	_, err := a.Draft(context.Background(), thread)
	require.ErrorIs(t, err, ErrStale)
	assert.Empty(t, p.byTask("guardrail"))
}

func TestDraftSupersededWhileGuarding(t *testing.T) {
	var a *Assistant
	p := &scripted{answer: func(task, prompt string) (string, error) {
		switch task {
		case "draft":
			return `{"drafts":["fine reply"]}`, nil
		case "guardrail":
			a.gen.Next()
			return `{"status":"ok","reply":"fine reply"}`, nil
		}
		return "s", nil
	}}
	a = NewAssistant(p, staticBrand(brand()), nil)

	_, err := a.Draft(context.Background(), thread)
	require.ErrorIs(t, err, ErrStale)
}

func TestDraftUnavailableModel(t *testing.T) {
	a := NewAssistant(model.Unavailable{Reason: "no key"}, staticBrand(brand()), nil)
	_, err := a.Draft(context.Background(), thread)
	require.ErrorIs(t, err, model.ErrUnavailable)
}

func TestTranslate(t *testing.T) {
	p := &scripted{answer: func(string, string) (string, error) { return "  Hola, gracias!  ", nil }}
	a := NewAssistant(p, staticBrand(brand()), nil)

	out, err := a.Translate(context.Background(), " Hi, thanks! ")
	require.NoError(t, err)
	assert.Equal(t, "Hola, gracias!", out)

	c := p.byTask("translate")[0]
	assert.Equal(t, "Auto-detect the language of this reply and translate it into Spanish. Preserve the brand tone and keep this brand fact intact when relevant: We ship weekly.\n\nHi, thanks!", c.prompt)
	assert.Equal(t, float32(0.3), *c.opts.Temperature)
}

func TestTranslateWithoutBrandTargetsEnglish(t *testing.T) {
	p := &scripted{answer: func(string, string) (string, error) { return "Thanks", nil }}
	a := NewAssistant(p, nil, nil)

	_, err := a.Translate(context.Background(), "Gracias")
	require.NoError(t, err)
	c := p.byTask("translate")[0]
	assert.Equal(t, "Auto-detect the language of this reply and translate it into English. Preserve the brand tone.\n\nGracias", c.prompt)
	assert.Equal(t, baseSystemPrompt, c.opts.System)

	_, err = a.Translate(context.Background(), "   ")
	require.ErrorIs(t, err, ErrNothingToTrans)
	assert.Equal(t, "Add text to translate first.", Message(err))
}

func TestSessionsReuseAssistantPerID(t *testing.T) {
	n := 0
	s := &Sessions{New: func() *Assistant { n++; return &Assistant{} }}
	a := s.Get("tab-1")
	assert.Same(t, a, s.Get("tab-1"))
	assert.NotSame(t, a, s.Get("tab-2"))
	assert.Same(t, s.Get(""), s.Get("default"))
	assert.Equal(t, 3, n)
}
