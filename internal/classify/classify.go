// Package classify routes free-text questions into one of the four fixed
// categories: greeting, crud, keyword, reasoning. Classification is a pure
// function of the trimmed input; matching order is significant and fixed.
package classify

import (
	"regexp"
	"strings"

	"github.com/incintel/incintel/pkg/schema"
)

// family is one ordered pattern group. The first family with any matching
// predicate wins; family priority dominates even when a later family's
// predicate would also match.
type family struct {
	category schema.Category
	patterns []*regexp.Regexp
}

// Input is lowercased before matching, so all patterns are lowercase.
// Greeting patterns are anchored whole-message forms, tolerant of trailing
// whitespace and punctuation.
var greetingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(hi|hello|hey|hii+|helo+)[\s!.,?]*$`),
	regexp.MustCompile(`^(good\s*)?(morning|afternoon|evening|night)[\s!.,?]*$`),
	regexp.MustCompile(`^(howdy|hiya|yo|sup)[\s!.,?]*$`),
	regexp.MustCompile(`^how\s*(are|r)\s*(you|u|ya)[\s!.,?]*$`),
	regexp.MustCompile(`^what'?s\s*up[\s!.,?]*$`),
	regexp.MustCompile(`^how\s*(is\s*it\s*)?going[\s!.,?]*$`),
	regexp.MustCompile(`^(who|what)\s*(are|r)\s*(you|u)[\s!.,?]*$`),
	regexp.MustCompile(`^what\s*(can|do)\s*(you|u)\s*do[\s!.,?]*$`),
	regexp.MustCompile(`^(help|help me)[\s!.,?]*$`),
	regexp.MustCompile(`^(thanks?|thank\s*you|ty)[\s!.,?]*$`),
	regexp.MustCompile(`^(ok|okay|cool|great|nice)[\s!.,?]*$`),
	regexp.MustCompile(`^(bye|goodbye|see\s*you?|later)[\s!.,?]*$`),
}

const incidentNoun = `(incident|issue|ticket|alert|case)`

// Write-operation verbs applied to an incident-like noun, plus the explicit
// "mark ... resolved/closed/open" form. "open" alone is not a create verb so
// that status queries like "open incidents" stay in the keyword family.
var crudPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(create|add|report|raise|file|log)\b.*\b` + incidentNoun + `s?\b`),
	regexp.MustCompile(`\bopen\s+(a\s+)?new\b.*\b` + incidentNoun + `s?\b`),
	regexp.MustCompile(`\b(update|change|modify|set|assign|edit)\b.*\b` + incidentNoun + `s?\b`),
	regexp.MustCompile(`\b(delete|remove|close)\b.*\b` + incidentNoun + `s?\b`),
	regexp.MustCompile(`\bmark\b.+\b(resolved|closed|open)\b`),
}

// Imperative lookup verbs, severity/status words, or temporal qualifiers,
// each combined with an incident noun.
var keywordPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(list|show|get|find|count|display)\b.*\b` + incidentNoun + `s?\b`),
	regexp.MustCompile(`\bhow\s+many\b.*\b` + incidentNoun + `s?\b`),
	regexp.MustCompile(`\b(all|active)\s+` + incidentNoun + `s?\b`),
	regexp.MustCompile(`\b(critical|high|medium|low)\b.*\b` + incidentNoun + `s?\b`),
	regexp.MustCompile(`\b(open|resolved|investigating|closed)\b.*\b` + incidentNoun + `s?\b`),
	regexp.MustCompile(`\b` + incidentNoun + `s?\b.*\b(open|resolved|investigating|closed)\b`),
	regexp.MustCompile(`\b(today|yesterday|this\s+week|last\s+week|recent|latest)\b.*\b` + incidentNoun + `s?\b`),
}

// Unanchored analytical cues. Left-anchored on a word boundary only, so
// plural and inflected forms ("patterns", "recommendations") still match.
var reasoningPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(why|how|explain|reason|cause)\b`),
	regexp.MustCompile(`\banaly[sz]`),
	regexp.MustCompile(`\b(pattern|trend|insight)s?\b`),
	regexp.MustCompile(`\b(summar|overview)`),
	regexp.MustCompile(`\b(recommend|suggest|should|prevent|avoid)`),
	regexp.MustCompile(`\b(compar|correlat|related|similar)`),
	regexp.MustCompile(`what happened|tell me about|describe`),
}

// families in fixed priority order: greeting > crud > keyword > reasoning.
var families = []family{
	{schema.CategoryGreeting, greetingPatterns},
	{schema.CategoryCRUD, crudPatterns},
	{schema.CategoryKeyword, keywordPatterns},
	{schema.CategoryReasoning, reasoningPatterns},
}

// Classify maps free-text input to a routing category. It trims and
// lowercases the input, tries each pattern family in priority order, and
// short-circuits on the first family with any matching predicate. Inputs
// matching no family, including empty input, fall through to the reasoning
// default.
func Classify(text string) schema.Category {
	msg := strings.ToLower(strings.TrimSpace(text))
	if msg == "" {
		return schema.CategoryReasoning
	}
	for _, f := range families {
		for _, re := range f.patterns {
			if re.MatchString(msg) {
				return f.category
			}
		}
	}
	return schema.CategoryReasoning
}
