package model

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	p *fakeProvider
}

func (s *fakeSession) Prompt(_ context.Context, text string) (string, error) {
	s.p.prompts = append(s.p.prompts, text)
	return s.p.reply, s.p.promptErr
}

func (s *fakeSession) Close() error {
	s.p.closed++
	return nil
}

type streamSession struct {
	fakeSession
	chunks []string
}

func (s *streamSession) PromptStreaming(context.Context, string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, c := range s.chunks {
			if !yield(c, nil) {
				return
			}
		}
	}
}

type fakeProvider struct {
	unavailable error
	reply       string
	promptErr   error
	chunks      []string

	created int
	closed  int
	opts    []Options
	prompts []string
}

func (p *fakeProvider) Available(context.Context) error { return p.unavailable }

func (p *fakeProvider) Create(_ context.Context, o Options) (Session, error) {
	p.created++
	p.opts = append(p.opts, o)
	if p.chunks != nil {
		return &streamSession{fakeSession: fakeSession{p: p}, chunks: p.chunks}, nil
	}
	return &fakeSession{p: p}, nil
}

func TestRunClosesSessionOnError(t *testing.T) {
	boom := errors.New("boom")
	p := &fakeProvider{promptErr: boom}
	_, err := Run(context.Background(), p, Options{}, "hi")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, p.created)
	assert.Equal(t, 1, p.closed)
}

func TestRunChecksAvailabilityFirst(t *testing.T) {
	p := &fakeProvider{unavailable: Unavailable{Reason: "no key"}.Available(context.Background())}
	_, err := Run(context.Background(), p, Options{}, "hi")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "no key")
	assert.Zero(t, p.created)

	_, err = Run(context.Background(), nil, Options{}, "hi")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRunStreamsWhenAsked(t *testing.T) {
	p := &fakeProvider{chunks: []string{"Hel", "Hello", "Hello wor", "Hello world"}}
	out, err := Run(context.Background(), p, Options{Stream: true}, "hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello world", out)
	assert.Equal(t, 1, p.closed)

	p = &fakeProvider{chunks: []string{"x"}, reply: "plain"}
	out, err = Run(context.Background(), p, Options{}, "hi")
	require.NoError(t, err)
	assert.Equal(t, "plain", out)
}

func chunks(xs ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, c := range xs {
			if !yield(c, nil) {
				return
			}
		}
	}
}

func TestAccumulateKeepsRepeatedDeltas(t *testing.T) {
	out, err := Final(Accumulate(chunks("ha", "ha", "! Great point")))
	require.NoError(t, err)
	assert.Equal(t, "haha! Great point", out)

	var snaps []string
	for s, err := range Accumulate(chunks("Hel", "lo ", "there")) {
		require.NoError(t, err)
		snaps = append(snaps, s)
	}
	assert.Equal(t, []string{"Hel", "Hello ", "Hello there"}, snaps)
}

func TestFinalStopsAtError(t *testing.T) {
	boom := errors.New("stream cut")
	deltas := func(yield func(string, error) bool) {
		if !yield("par", nil) {
			return
		}
		yield("", boom)
	}
	out, err := Final(Accumulate(deltas))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "par", out)
}

func TestSanitizeJSON(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"drafts\":[\"a\"]}\n```": `{"drafts":["a"]}`,
		"```JSON{\"a\":1}```":                `{"a":1}`,
		"Sure! {\"a\":1} hope this helps":    `{"a":1}`,
		"  no braces  ":                      "no braces",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeJSON(in), "input %q", in)
	}
}

func TestExtractLeadNormalizesEducation(t *testing.T) {
	p := &fakeProvider{reply: "Here you go:\n" + `{"name":"Jane Doe","role":"CTO","company":"Acme","industry":"Software",` +
		`"education":{"school":"MIT","degree":"BSc"},"skills":"Go, SQL, Leadership","email":null}` + "\nThanks"}

	lead, err := ExtractLead(context.Background(), p, LeadInput{
		PageContent:  "=== HEADER ===\nJane Doe",
		SelectedText: "Jane Doe, CTO",
		PageURL:      "https://www.linkedin.com/in/janedoe/",
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", lead.Name)
	assert.Equal(t, "MIT, BSc", lead.Education)
	assert.Equal(t, []string{"Go", "SQL", "Leadership"}, lead.Skills)
	assert.Empty(t, lead.Email)
	assert.Equal(t, "https://www.linkedin.com/in/janedoe/", lead.URL)

	require.Len(t, p.prompts, 1)
	assert.Contains(t, p.prompts[0], "Selected text: Jane Doe, CTO\n\n\nPage content: === HEADER ===")
	assert.Equal(t, "lead", p.opts[0].Task)
	assert.Contains(t, p.opts[0].System, "industry must never be null")
}

func TestExtractLeadMalformed(t *testing.T) {
	p := &fakeProvider{reply: "I could not find anyone on this page."}
	_, err := ExtractLead(context.Background(), p, LeadInput{PageContent: "x"})
	require.ErrorIs(t, err, ErrMalformedOutput)

	var oe *OutputError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "I could not find anyone on this page.", oe.Raw)

	p = &fakeProvider{reply: `{"name": "broken",}`}
	_, err = ExtractLead(context.Background(), p, LeadInput{PageContent: "x"})
	assert.ErrorIs(t, err, ErrMalformedOutput)
}

func TestExtractEnvelope(t *testing.T) {
	r := Extract(context.Background(), &fakeProvider{reply: `{"name":"Ann"}`}, LeadInput{PageContent: "x"})
	require.True(t, r.Success)
	assert.Equal(t, "Ann", r.Data.Name)

	r = Extract(context.Background(), Unavailable{}, LeadInput{})
	assert.False(t, r.Success)
	assert.Nil(t, r.Data)
	assert.Equal(t, ErrUnavailable.Error(), r.Error)
}

func TestGeminiWithoutKeyIsUnavailable(t *testing.T) {
	g := NewGemini("gemini-2.5-flash", func(context.Context) (string, error) { return "  ", nil }, nil)
	err := g.Available(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")

	_, err = g.Create(context.Background(), Options{})
	assert.ErrorIs(t, err, ErrUnavailable)
}
