package service

import (
	"regexp"
	"strings"
)

var (
	// Keeps word chars, whitespace and common punctuation; everything else
	// is stripped.
	subjectJunkChars = regexp.MustCompile(`[^\w\s.,!?()&@#$%-]`)
	// Standalone alphabetic tokens of 8+ letters are treated as
	// keyboard-mash noise and dropped.
	subjectNoiseWords = regexp.MustCompile(`(?i)\b[a-z]{8,}\b`)
	whitespaceRuns    = regexp.MustCompile(`\s+`)
)

// SanitizeSubject cleans a raw ticket subject. Idempotent: applying it twice
// yields the same result as applying it once.
func SanitizeSubject(subject string) string {
	cleaned := strings.TrimSpace(subject)
	cleaned = subjectJunkChars.ReplaceAllString(cleaned, "")
	cleaned = subjectNoiseWords.ReplaceAllString(cleaned, "")
	cleaned = whitespaceRuns.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// ComposeSubject sanitizes the subject and, when both category and
// subcategory are present, prefixes it with "[{category} - {subcategory}] ".
func ComposeSubject(subject, category, subcategory string) string {
	cleaned := SanitizeSubject(subject)
	if category != "" && subcategory != "" {
		return "[" + category + " - " + subcategory + "] " + cleaned
	}
	return cleaned
}
