package classify

import (
	"math/rand/v2"
	"regexp"
	"strings"
)

// Canned reply pools for greeting-category submissions. The pool is chosen
// by sub-intent; the reply within a pool is picked uniformly at random.

// GreetingReplies answers plain salutations. Exactly three entries.
var GreetingReplies = []string{
	"Hi! I'm your Incident Intelligence assistant. I can help you track, search, and analyze incidents. Try asking about active incidents, severity levels, or specific locations!",
	"Hello! I can help you with incident queries. Ask me things like 'show critical incidents' or 'what happened in Server Room'.",
	"Hey there! I'm here to help you understand your incident data. What would you like to know?",
}

// IdentityReplies answers "who/what are you" style questions.
var IdentityReplies = []string{
	"I'm the Incident Intelligence AI assistant. I help you search, analyze, and understand incident records. Try asking about active incidents, their status, or trends!",
	"I'm your AI-powered incident analyst. I can answer questions about incidents, their severity, locations, and status. How can I help?",
}

// HelpReplies answers "help".
var HelpReplies = []string{
	"I can help you with:\n• Listing active incidents\n• Finding incidents by location or severity\n• Checking incident status\n• Analyzing incident patterns\n\nTry asking: 'Show all critical incidents' or 'What incidents are open?'",
}

// ThanksReplies answers thanks.
var ThanksReplies = []string{
	"You're welcome! Let me know if you need anything else about your incidents.",
	"Happy to help! Feel free to ask more questions about incidents.",
}

// FarewellReplies answers goodbyes.
var FarewellReplies = []string{
	"Goodbye! Come back anytime you need help with incidents.",
	"See you! I'll be here if you need incident intel.",
}

var (
	identityCue = regexp.MustCompile(`(who|what)\s*(are|r)\s*(you|u)|what\s*(can|do)\s*(you|u)\s*do`)
	thanksCue   = regexp.MustCompile(`thank|^ty\b`)
	farewellCue = regexp.MustCompile(`bye|goodbye|see\s*you|later`)
)

// Respond picks a canned reply for a greeting-category input. Pool selection
// is deterministic (sub-intent cues in priority order); the reply within the
// pool is uniform random.
func Respond(text string) string {
	msg := strings.ToLower(strings.TrimSpace(text))
	pool := replyPool(msg)
	return pool[rand.IntN(len(pool))]
}

func replyPool(msg string) []string {
	switch {
	case identityCue.MatchString(msg):
		return IdentityReplies
	case strings.Contains(msg, "help"):
		return HelpReplies
	case thanksCue.MatchString(msg):
		return ThanksReplies
	case farewellCue.MatchString(msg):
		return FarewellReplies
	default:
		return GreetingReplies
	}
}
