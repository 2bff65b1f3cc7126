package reply

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReply_Triggers(t *testing.T) {
	e := Default()

	cases := []struct {
		in   string
		want string
	}{
		{"I feel sad today", DefaultRules[0].Response},
		{"I have an exam", DefaultRules[2].Response},
		{"stress", "Let's slow down and breathe. You've got this."},
		{"STRESSED OUT", DefaultRules[1].Response},
		{"what a lovely day", DefaultFallback},
		{"", DefaultFallback},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, e.Reply(tc.in), "input %q", tc.in)
	}
}

func TestReply_FirstMatchWins(t *testing.T) {
	e := Default()
	// contains both "sad" and "exam"; "sad" is earlier in the table
	assert.Equal(t, DefaultRules[0].Response, e.Reply("my exam made me sad"))
}

func TestNew_NormalizesPatterns(t *testing.T) {
	e := New([]Rule{{Pattern: "", Response: "never"}, {Pattern: "HeLLo", Response: "hi"}}, "")
	assert.Equal(t, "hi", e.Reply("oh hello there"))
	assert.Equal(t, DefaultFallback, e.Reply("nothing"))
	assert.Len(t, e.Rules(), 1)
}
