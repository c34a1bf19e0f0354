package rag

import (
	"context"
	"regexp"
	"strings"

	"github.com/incintel/incintel/internal/expressions"
)

var (
	canonicalIDPattern = regexp.MustCompile(`INC-\d{8}-\d{6}`)
	legacyIDPattern    = regexp.MustCompile(`\bINC-\d{1,4}\b`)
)

// Keywords whose density estimates how many records backed an answer when
// the upstream reply carries no explicit source metadata.
var incidentKeywords = []string{"incident", "severity:", "status:", "location:"}

const (
	keywordDensityFloor = 10
	keywordsPerRecord   = 4
)

// Answer is the distilled upstream reply.
type Answer struct {
	Text         string
	IncidentRefs []string
	ContextSize  *int
}

// CanonicalRefs returns the deduplicated canonical incident IDs cited in
// text, in first-seen order.
func CanonicalRefs(text string) []string {
	matches := canonicalIDPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	refs := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			refs = append(refs, m)
		}
	}
	return refs
}

// LegacyRefs returns legacy-format incident IDs (INC-101, INC-1102) cited
// in text. Any hit means the retrieval index is serving stale records.
func LegacyRefs(text string) []string {
	return legacyIDPattern.FindAllString(text, -1)
}

// contextSize works down a fallback chain: count of cited canonical IDs,
// then upstream source metadata, then a keyword-density estimate.
func contextSize(ctx context.Context, jq *expressions.GoJQEngine, data map[string]any, text string, refs []string) *int {
	if len(refs) > 0 {
		n := len(refs)
		return &n
	}

	if _, ok := data["sources"]; ok && jq != nil {
		if out, err := jq.Evaluate(ctx, ".sources | length", data); err == nil {
			if n, ok := out.(int); ok {
				return &n
			}
		}
	}

	lower := strings.ToLower(text)
	count := 0
	for _, kw := range incidentKeywords {
		count += strings.Count(lower, kw)
	}
	if count > keywordDensityFloor {
		n := max(1, count/keywordsPerRecord)
		return &n
	}
	return nil
}
