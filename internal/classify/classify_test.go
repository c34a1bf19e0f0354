package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/incintel/incintel/pkg/schema"
)

func TestClassifyGreetings(t *testing.T) {
	inputs := []string{
		"hi", "Hi", "HELLO", "hey!", "good morning!", "Good Morning",
		"howdy", "yo", "sup?",
		"how are you", "how r u?", "what's up", "whats up",
		"who are you", "what can you do",
		"help", "help me",
		"thanks", "thank you", "ty",
		"ok", "cool", "great",
		"bye", "goodbye", "see you", "later",
	}
	for _, in := range inputs {
		assert.Equal(t, schema.CategoryGreeting, Classify(in), "input %q", in)
	}
}

func TestClassifyKeyword(t *testing.T) {
	inputs := []string{
		"show all incidents",
		"show me all critical incidents",
		"list critical incidents",
		"how many issues",
		"count open tickets",
		"find incidents from yesterday",
		"all incidents",
		"active incidents",
		"open incidents",
		"what incidents are resolved",
		"latest incidents",
	}
	for _, in := range inputs {
		assert.Equal(t, schema.CategoryKeyword, Classify(in), "input %q", in)
	}
}

func TestClassifyCRUD(t *testing.T) {
	inputs := []string{
		"create an incident for the DB outage",
		"open a new incident for Block A",
		"report an issue with the network switch",
		"update incident INC-20260108-092438",
		"assign this ticket to the infra team",
		"delete incident INC-20260108-092438",
		"close the alert about disk usage",
		"mark incident INC-20260108-092438 resolved",
		"mark the Server Room case closed",
	}
	for _, in := range inputs {
		assert.Equal(t, schema.CategoryCRUD, Classify(in), "input %q", in)
	}
}

// Write-operation verbs win over the keyword family even when the input
// also loosely resembles a list query.
func TestClassifyFamilyPriority(t *testing.T) {
	assert.Equal(t, schema.CategoryCRUD, Classify("mark incident resolved"))
	assert.Equal(t, schema.CategoryCRUD, Classify("update all critical incidents"))
}

func TestClassifyReasoning(t *testing.T) {
	inputs := []string{
		"why do incidents spike on Mondays?",
		"explain the outage in Block B",
		"analyze last month's failures",
		"any patterns here?",
		"recommend a mitigation",
		"is there a correlation with deploys?",
		"what happened in the Server Room",
		"tell me about recent trends",
	}
	for _, in := range inputs {
		assert.Equal(t, schema.CategoryReasoning, Classify(in), "input %q", in)
	}
}

func TestClassifyDefault(t *testing.T) {
	// No family matches: fall through to reasoning.
	assert.Equal(t, schema.CategoryReasoning, Classify("lorem ipsum dolor"))
	// Empty input fails closed to the default.
	assert.Equal(t, schema.CategoryReasoning, Classify(""))
	assert.Equal(t, schema.CategoryReasoning, Classify("   "))
}

func TestClassifyIdempotent(t *testing.T) {
	inputs := []string{"hi", "mark incident resolved", "show all incidents", "why?", "zzz"}
	for _, in := range inputs {
		first := Classify(in)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, Classify(in), "input %q", in)
		}
	}
}
