// Package model bridges the engine to a language model. A Provider hands out
// short-lived sessions; Run wraps one prompt in a session that is always
// released.
package model

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"linkedva-engine/internal/metrics"
)

var (
	// ErrUnavailable means no model backend can serve calls right now.
	ErrUnavailable = errors.New("language model unavailable")
	// ErrMalformedOutput means the model answered but not in the shape asked for.
	ErrMalformedOutput = errors.New("model returned malformed output")
)

// OutputError carries the raw model text that failed to parse.
type OutputError struct {
	Raw string
	Err error
}

func (e *OutputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", ErrMalformedOutput, e.Err)
	}
	return ErrMalformedOutput.Error()
}

func (e *OutputError) Is(target error) bool { return target == ErrMalformedOutput }

func (e *OutputError) Unwrap() error { return e.Err }

// Options configures one session.
type Options struct {
	Task        string
	System      string
	Temperature *float32
	TopK        *float32
	// Language is an output language code such as "en" or "es".
	Language string
	// Stream prefers the streaming call when the session supports it.
	Stream bool
}

func Float(v float32) *float32 { return &v }

type Provider interface {
	Available(ctx context.Context) error
	Create(ctx context.Context, opts Options) (Session, error)
}

type Session interface {
	Prompt(ctx context.Context, text string) (string, error)
	Close() error
}

// Streamer is implemented by sessions that can stream their answer. Each
// yielded value is the whole answer so far.
type Streamer interface {
	PromptStreaming(ctx context.Context, text string) iter.Seq2[string, error]
}

// Run checks availability, opens a session, sends prompt and closes the
// session whatever the outcome.
func Run(ctx context.Context, p Provider, opts Options, prompt string) (out string, err error) {
	task := opts.Task
	if task == "" {
		task = "prompt"
	}
	start := time.Now()
	defer func() {
		outcome := "ok"
		switch {
		case errors.Is(err, ErrUnavailable):
			outcome = "unavailable"
		case err != nil:
			outcome = "error"
		}
		metrics.ModelCalls.WithLabelValues(task, outcome).Inc()
		metrics.ModelCallDuration.WithLabelValues(task).Observe(time.Since(start).Seconds())
	}()

	if p == nil {
		return "", fmt.Errorf("%w: no provider configured", ErrUnavailable)
	}
	if err := p.Available(ctx); err != nil {
		return "", err
	}
	s, err := p.Create(ctx, opts)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	defer s.Close()

	if st, ok := s.(Streamer); ok && opts.Stream {
		return Final(st.PromptStreaming(ctx, prompt))
	}
	return s.Prompt(ctx, prompt)
}

// Final drains a Streamer answer and returns the last snapshot.
func Final(snapshots iter.Seq2[string, error]) (string, error) {
	out := ""
	for s, err := range snapshots {
		if err != nil {
			return out, err
		}
		out = s
	}
	return out, nil
}

// Accumulate turns a stream of deltas into a stream of snapshots.
func Accumulate(deltas iter.Seq2[string, error]) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		var b strings.Builder
		for d, err := range deltas {
			if err != nil {
				yield(b.String(), err)
				return
			}
			b.WriteString(d)
			if !yield(b.String(), nil) {
				return
			}
		}
	}
}

// Unavailable is the provider used when no backend is configured.
type Unavailable struct {
	Reason string
}

func (u Unavailable) Available(context.Context) error {
	if u.Reason == "" {
		return ErrUnavailable
	}
	return fmt.Errorf("%w: %s", ErrUnavailable, u.Reason)
}

func (u Unavailable) Create(ctx context.Context, _ Options) (Session, error) {
	return nil, u.Available(ctx)
}
