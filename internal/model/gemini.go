package model

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"linkedva-engine/internal/logging"
)

// KeyFunc returns the API key, or "" when none is configured.
type KeyFunc func(ctx context.Context) (string, error)

const missingKeyHint = "Gemini API key is not configured. Set GEMINI_API_KEY or run `linkedva-engine secrets set-model-key`."

var languageNames = map[string]string{
	"en": "English",
	"es": "Spanish",
	"ja": "Japanese",
}

// Gemini serves sessions from the Gemini API.
type Gemini struct {
	Model string
	Key   KeyFunc
	Log   *zap.Logger

	mu     sync.Mutex
	client *genai.Client
	keyFor string
}

func NewGemini(modelName string, key KeyFunc, log *zap.Logger) *Gemini {
	return &Gemini{Model: modelName, Key: key, Log: logging.OrNop(log).Named("gemini")}
}

func (g *Gemini) apiKey(ctx context.Context) (string, error) {
	if g.Key == nil {
		return "", nil
	}
	k, err := g.Key(ctx)
	return strings.TrimSpace(k), err
}

func (g *Gemini) Available(ctx context.Context) error {
	k, err := g.apiKey(ctx)
	if err != nil {
		return fmt.Errorf("%w: read api key: %v", ErrUnavailable, err)
	}
	if k == "" {
		return fmt.Errorf("%w: %s", ErrUnavailable, missingKeyHint)
	}
	return nil
}

// clientFor reuses the client until the key changes.
func (g *Gemini) clientFor(ctx context.Context, key string) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil && g.keyFor == key {
		return g.client, nil
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	g.client, g.keyFor = c, key
	return c, nil
}

func (g *Gemini) Create(ctx context.Context, opts Options) (Session, error) {
	key, err := g.apiKey(ctx)
	if err != nil || key == "" {
		return nil, g.Available(ctx)
	}
	c, err := g.clientFor(ctx, key)
	if err != nil {
		return nil, err
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: opts.Temperature,
		TopK:        opts.TopK,
	}
	system := opts.System
	if name, ok := languageNames[opts.Language]; ok && opts.Language != "en" {
		system = strings.TrimSpace(system + "\n\nWrite every reply in " + name + ".")
	}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	return &geminiSession{client: c, model: g.Model, cfg: cfg, log: g.Log}, nil
}

type geminiSession struct {
	client *genai.Client
	model  string
	cfg    *genai.GenerateContentConfig
	log    *zap.Logger
}

func (s *geminiSession) Prompt(ctx context.Context, text string) (string, error) {
	res, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(text), s.cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return res.Text(), nil
}

// PromptStreaming yields snapshots built from genai's deltas.
func (s *geminiSession) PromptStreaming(ctx context.Context, text string) iter.Seq2[string, error] {
	return Accumulate(s.deltas(ctx, text))
}

func (s *geminiSession) deltas(ctx context.Context, text string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for res, err := range s.client.Models.GenerateContentStream(ctx, s.model, genai.Text(text), s.cfg) {
			if err != nil {
				yield("", fmt.Errorf("gemini stream: %w", err))
				return
			}
			if !yield(res.Text(), nil) {
				return
			}
		}
	}
}

// Close is a no-op; Gemini sessions hold no server-side state.
func (s *geminiSession) Close() error { return nil }
