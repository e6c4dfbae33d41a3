package model

import (
	"context"
	"encoding/json"
	"strings"

	"linkedva-engine/internal/domain"
)

const leadSystemPrompt = `You are a lead information extraction assistant. Extract structured contact information from web pages and LinkedIn profiles.
Your task is to identify and extract:
- name: full name of the person
- role: current job title or position
- company: current company or organization
- location: city, region or country
- industry: the industry the person works in
- linkedinUrl: LinkedIn profile URL if present
- education: most recent school and degree
- skills: 3 to 5 short skill names
- aboutSummary: one or two sentences about the person
- email: email address if available
- phone: phone number if available

Rules:
- industry must never be null. Infer it from the company or role if it is not stated.
- education is a single string such as "MIT, BSc Computer Science", never an object.
- skills is an array of 3 to 5 short strings.
- If any other field cannot be found, use null.

Return ONLY a valid JSON object in this exact format:
{"name":"...","role":"...","company":"...","location":"...","industry":"...","linkedinUrl":"...","education":"...","skills":["..."],"aboutSummary":"...","email":"...","phone":"..."}

Do not include any explanation, just the JSON object.`

// LeadInput is what the content extractor gathered from one page.
type LeadInput struct {
	PageContent  string `json:"pageContent"`
	SelectedText string `json:"selectedText,omitempty"`
	PageURL      string `json:"url,omitempty"`
}

func leadPrompt(in LeadInput) string {
	var b strings.Builder
	b.WriteString("Extract lead information from this content:\n\n")
	if in.SelectedText != "" {
		b.WriteString("Selected text: " + in.SelectedText + "\n\n")
	}
	b.WriteString("\nPage content: " + in.PageContent)
	b.WriteString("\n\nReturn only the JSON object with the fields described above.")
	return b.String()
}

// ExtractLead asks the model for a lead record. The reply is trusted only
// between its first "{" and last "}". Nothing is retried.
func ExtractLead(ctx context.Context, p Provider, in LeadInput) (domain.Lead, error) {
	out, err := Run(ctx, p, Options{Task: "lead", System: leadSystemPrompt}, leadPrompt(in))
	if err != nil {
		return domain.Lead{}, err
	}
	obj := RecoverObject(out)
	if obj == "" {
		return domain.Lead{}, &OutputError{Raw: out}
	}
	var lead domain.Lead
	if err := json.Unmarshal([]byte(obj), &lead); err != nil {
		return domain.Lead{}, &OutputError{Raw: out, Err: err}
	}
	if lead.URL == "" {
		lead.URL = in.PageURL
	}
	return lead, nil
}

// Result is the envelope the message API returns for an extraction.
type Result struct {
	Success bool         `json:"success"`
	Data    *domain.Lead `json:"data,omitempty"`
	Error   string       `json:"error,omitempty"`
}

func Extract(ctx context.Context, p Provider, in LeadInput) Result {
	lead, err := ExtractLead(ctx, p, in)
	if err != nil {
		return Result{Error: err.Error()}
	}
	return Result{Success: true, Data: &lead}
}
