// Package reply drafts replies to LinkedIn conversations in the configured
// brand voice.
package reply

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"linkedva-engine/internal/domain"
	"linkedva-engine/internal/logging"
	"linkedva-engine/internal/model"
)

const baseSystemPrompt = `You are LinkedVA, an on-device assistant that helps virtual assistants reply to conversations on LinkedIn.
- Always respect the brand voice JSON shared via system prompts.
- Default to clear, concise, human-sounding writing.
- If you cannot complete a request, explain why.`

const (
	summarySystem   = "You turn discussions into concise bullet summaries for downstream drafting."
	guardrailSystem = "You are a proofreader enforcing clarity and brand-safe tone."
)

var (
	ErrNoBrand        = errors.New("no brand profile")
	ErrNothingToTrans = errors.New("no text to translate")
	ErrNoSafeDrafts   = errors.New("no safe drafts")
)

// Message is the text shown to the user for err.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrNoBrand):
		return "Set up a brand first."
	case errors.Is(err, ErrNothingToTrans):
		return "Add text to translate first."
	case errors.Is(err, ErrNoSafeDrafts):
		return "No safe drafts generated. Try tweaking the brand voice or context."
	case err == nil:
		return ""
	}
	return err.Error()
}

// BrandFunc loads the current brand profile; nil means none is set up.
type BrandFunc func(ctx context.Context) (*domain.BrandProfile, error)

// Assistant drafts and translates replies for one user session.
type Assistant struct {
	Provider model.Provider
	Brand    BrandFunc
	Stream   bool
	Log      *zap.Logger

	gen Generation
}

func NewAssistant(p model.Provider, brand BrandFunc, log *zap.Logger) *Assistant {
	return &Assistant{Provider: p, Brand: brand, Log: logging.OrNop(log).Named("reply")}
}

func (a *Assistant) profile(ctx context.Context) (*domain.BrandProfile, error) {
	if a.Brand == nil {
		return nil, nil
	}
	return a.Brand(ctx)
}

type call struct {
	task        string
	system      string
	prompt      string
	temperature float32
	topK        float32
}

// callModel wraps one prompt in the base prompt, the brand voice and the
// master prompt.
func (a *Assistant) callModel(ctx context.Context, bp *domain.BrandProfile, c call) (string, error) {
	segments := []string{baseSystemPrompt}
	if bp != nil && bp.BrandVoice != nil {
		voice, err := json.Marshal(bp.BrandVoice)
		if err == nil {
			segments = append(segments, "Brand voice JSON: "+string(voice))
		}
	}
	if bp != nil && bp.MasterPrompt != "" {
		segments = append(segments, bp.MasterPrompt)
	}
	if c.system != "" {
		segments = append(segments, c.system)
	}
	if c.topK == 0 {
		c.topK = 5
	}
	return model.Run(ctx, a.Provider, model.Options{
		Task:        c.task,
		System:      strings.Join(segments, "\n\n"),
		Temperature: model.Float(c.temperature),
		TopK:        model.Float(c.topK),
		Language:    LanguageCode(bp.TargetLanguage()),
		Stream:      a.Stream,
	}, c.prompt)
}

// Draft returns up to three guarded reply options for t.
func (a *Assistant) Draft(ctx context.Context, t Thread) ([]string, error) {
	log := logging.OrNop(a.Log)
	bp, err := a.profile(ctx)
	if err != nil {
		return nil, fmt.Errorf("load brand: %w", err)
	}
	if !bp.Ready() {
		return nil, ErrNoBrand
	}
	ticket := a.gen.Next()

	fact := bp.Fact()
	summary := a.summarize(ctx, bp, t)
	raw, err := a.callModel(ctx, bp, call{task: "draft", prompt: draftPrompt(t, summary, fact), temperature: 0.7})
	if !ticket.Current() {
		return nil, ErrStale
	}
	if err != nil {
		return nil, err
	}

	drafts, strategy := parseDrafts(raw)
	log.Debug("drafts parsed", zap.String("strategy", strategy), zap.Int("count", len(drafts)))

	safe := a.guard(ctx, bp, drafts, t, summary, fact)
	if !ticket.Current() {
		return nil, ErrStale
	}
	if len(safe) == 0 {
		return nil, ErrNoSafeDrafts
	}
	return safe, nil
}

// Translate rewrites text into the brand's target language.
func (a *Assistant) Translate(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNothingToTrans
	}
	bp, err := a.profile(ctx)
	if err != nil {
		return "", fmt.Errorf("load brand: %w", err)
	}
	ticket := a.gen.Next()

	out, err := a.callModel(ctx, bp, call{task: "translate", prompt: translatePrompt(text, bp.TargetLanguage(), bp.Fact()), temperature: 0.3})
	if !ticket.Current() {
		return "", ErrStale
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func translatePrompt(text, lang, fact string) string {
	keep := ""
	if fact != "" {
		keep = " and keep this brand fact intact when relevant: " + fact
	}
	return fmt.Sprintf("Auto-detect the language of this reply and translate it into %s. Preserve the brand tone%s.\n\n%s", lang, keep, text)
}

func summaryInput(t Thread) string {
	parts := []string{"Primary message: " + t.Primary}
	if len(t.Replies) > 0 {
		parts = append(parts, "Recent replies:")
		for i, r := range t.Replies {
			parts = append(parts, fmt.Sprintf("%d. %s", i+1, r))
		}
	}
	return strings.Join(parts, "\n")
}

// summarize falls back to the raw context when the model call fails.
func (a *Assistant) summarize(ctx context.Context, bp *domain.BrandProfile, t Thread) string {
	input := summaryInput(t)
	out, err := a.callModel(ctx, bp, call{
		task:        "summary",
		system:      summarySystem,
		prompt:      "Summarize the conversation so an assistant can draft a reply. Focus on tone, key asks, and sentiment. Limit to 4 concise bullet points.\n\n" + input,
		temperature: 0.2,
		topK:        3,
	})
	if err != nil {
		logging.OrNop(a.Log).Warn("summarization failed", zap.Error(err))
		return input
	}
	return strings.TrimSpace(out)
}

func draftPrompt(t Thread, summary, fact string) string {
	sections := []string{
		"Use the context below to craft reply options.",
		"Summary of thread:\n" + summary,
		"Primary message to respond to:\n" + t.Primary,
	}
	if len(t.Replies) > 0 {
		sections = append(sections, "Recent visible replies:\n- "+strings.Join(t.Replies, "\n- "))
	}
	if fact != "" {
		sections = append(sections, "Weave this brand fact naturally when it helps: "+fact)
	}
	sections = append(sections,
		"Produce three distinct options tailored to the situation:",
		"1. A question-led follow-up that invites further conversation.",
		"2. A value-add reply offering help, insight, or direction.",
		"3. A warm or witty take that still respects all brand guardrails.",
		"Keep each reply under 600 characters, grounded in the thread details, and human in tone.",
		"Do NOT use em dashes (–) or en dashes (—). Use regular hyphens (-) or avoid dashes entirely.",
		"",
		"CRITICAL: You MUST return ONLY valid JSON in this EXACT format:",
		`{"drafts":["reply 1 text here","reply 2 text here","reply 3 text here"]}`,
		"",
		"Do NOT include markdown code blocks, explanations, or any other text. ONLY the JSON object.",
	)
	return strings.Join(sections, "\n\n")
}

// guard runs every non-blank draft through the proofreader and keeps the
// distinct non-empty results, at most three.
func (a *Assistant) guard(ctx context.Context, bp *domain.BrandProfile, drafts []string, t Thread, summary, fact string) []string {
	var out []string
	seen := map[string]bool{}
	for _, d := range drafts {
		if strings.TrimSpace(d) == "" {
			continue
		}
		r := strings.TrimSpace(a.review(ctx, bp, d, t, summary, fact))
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return capDrafts(out)
}

var (
	statusField = regexp.MustCompile(`"status"\s*:\s*"(ok|reject)"`)
	replyField  = regexp.MustCompile(`"reply"\s*:\s*"([^"]*)"`)
)

func guardrailPrompt(draft string, t Thread, summary, fact string) string {
	accuracy := ""
	if fact != "" {
		accuracy = ". Ensure any usage of the brand fact stays accurate: " + fact
	}
	return "Evaluate the reply below. Fix grammar and punctuation. Reject or rewrite anything that sounds generic, spammy, off-topic, or violates the brand guardrails" + accuracy + ".\n\n" +
		"Thread summary:\n" + summary + "\n\n" +
		"Message to respond to:\n" + t.Primary + "\n\n" +
		"Draft reply:\n" + draft + "\n\n" +
		"IMPORTANT: Escape all quotes and special characters in the reply text properly. Replace em dashes with regular hyphens.\n\n" +
		`Respond with minified JSON {"status":"ok"|"reject","reply":"text here"}. If you reject and cannot fix it safely, return an empty string reply.`
}

// review returns the proofread reply. Any failure keeps the original draft.
func (a *Assistant) review(ctx context.Context, bp *domain.BrandProfile, draft string, t Thread, summary, fact string) string {
	log := logging.OrNop(a.Log)
	out, err := a.callModel(ctx, bp, call{
		task:        "guardrail",
		system:      guardrailSystem,
		prompt:      guardrailPrompt(draft, t, summary, fact),
		temperature: 0.2,
		topK:        3,
	})
	if err != nil {
		log.Warn("guardrail failed, keeping draft", zap.Error(err))
		return draft
	}
	cleaned := model.SanitizeJSON(out)

	var verdict any
	if err := json.Unmarshal([]byte(cleaned), &verdict); err == nil {
		obj, _ := verdict.(map[string]any)
		s, _ := obj["reply"].(string)
		return s
	}
	status := statusField.FindStringSubmatch(cleaned)
	reply := replyField.FindStringSubmatch(cleaned)
	if status != nil && reply != nil {
		return reply[1]
	}
	log.Warn("guardrail reply unparseable, keeping draft")
	return draft
}

// Sessions keeps one Assistant per session id.
type Sessions struct {
	New func() *Assistant

	mu sync.Mutex
	m  map[string]*Assistant
}

func (s *Sessions) Get(id string) *Assistant {
	if id == "" {
		id = "default"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		s.m = map[string]*Assistant{}
	}
	a, ok := s.m[id]
	if !ok {
		a = s.New()
		s.m[id] = a
	}
	return a
}
