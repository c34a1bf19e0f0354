package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGreetingPoolHasThreeReplies(t *testing.T) {
	assert.Len(t, GreetingReplies, 3)
}

func TestReplyPoolSelection(t *testing.T) {
	cases := []struct {
		input string
		pool  []string
	}{
		{"hello", GreetingReplies},
		{"good morning", GreetingReplies},
		{"who are you", IdentityReplies},
		{"what can you do", IdentityReplies},
		{"help", HelpReplies},
		{"thanks", ThanksReplies},
		{"thank you!", ThanksReplies},
		{"bye", FarewellReplies},
		{"see you later", FarewellReplies},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.pool, replyPool(tc.input), "input %q", tc.input)
	}
}

func TestRespondReturnsPoolMember(t *testing.T) {
	for i := 0; i < 20; i++ {
		assert.Contains(t, GreetingReplies, Respond("hello"))
		assert.Contains(t, FarewellReplies, Respond("goodbye"))
	}
}
