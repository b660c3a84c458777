package conversation

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTitleFrom(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "short", input: "How do I adopt?", want: "How do I adopt?"},
		{name: "exactly fifty", input: strings.Repeat("a", 50), want: strings.Repeat("a", 50)},
		{name: "fifty one", input: strings.Repeat("a", 51), want: strings.Repeat("a", 47) + "..."},
		{name: "multibyte", input: strings.Repeat("猫", 60), want: strings.Repeat("猫", 47) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TitleFrom(tt.input)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, utf8.RuneCountInString(got), 50)
		})
	}
}

func TestConversation_AssignThread(t *testing.T) {
	c := New("user-1", "hello")

	require.NoError(t, c.AssignThread("thread_1"))
	require.NoError(t, c.AssignThread("thread_1"))
	assert.ErrorIs(t, c.AssignThread("thread_2"), ErrThreadAlreadyAssigned)
	assert.Equal(t, "thread_1", c.ThreadID)
}

func TestConversation_RecentMessages(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New("user-1", "hello")
	for i := 0; i < 25; i++ {
		c.Append(RoleUser, string(rune('a'+i)), base.Add(time.Duration(i)*time.Second))
	}
	// stored out of order
	c.Messages[0], c.Messages[24] = c.Messages[24], c.Messages[0]

	recent := c.RecentMessages(20)
	require.Len(t, recent, 20)
	assert.Equal(t, "f", recent[0].Content)
	assert.Equal(t, "y", recent[19].Content)

	assert.Len(t, c.RecentMessages(-1), 25)
}

func TestConversation_OwnedBy(t *testing.T) {
	c := New("user-1", "hello")
	assert.True(t, c.OwnedBy("user-1"))
	assert.False(t, c.OwnedBy("user-2"))
	assert.False(t, (&Conversation{}).OwnedBy(""))
}
