package model

import (
	"regexp"
	"strings"
)

var (
	openFence  = regexp.MustCompile("(?i)^```(?:json)?")
	closeFence = regexp.MustCompile("```$")
)

// SanitizeJSON strips markdown fences and any prose around the outermost
// braces of a model reply.
func SanitizeJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = openFence.ReplaceAllString(s, "")
		s = closeFence.ReplaceAllString(s, "")
		s = strings.TrimSpace(s)
	}
	first := strings.Index(s, "{")
	last := strings.LastIndex(s, "}")
	if first != -1 && last > first {
		s = s[first : last+1]
	}
	return s
}

// RecoverObject returns the text from the first "{" to the last "}", or ""
// when raw holds no such span.
func RecoverObject(raw string) string {
	first := strings.Index(raw, "{")
	last := strings.LastIndex(raw, "}")
	if first == -1 || last <= first {
		return ""
	}
	return raw[first : last+1]
}
