package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"wordsmith/internal/api"
)

func TestAgo(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		ago  time.Duration
		want string
	}{
		{0, "Just now"},
		{-time.Minute, "Just now"},
		{9 * time.Second, "Just now"},
		{10 * time.Second, "10s ago"},
		{59 * time.Second, "59s ago"},
		{time.Minute, "1m ago"},
		{59 * time.Minute, "59m ago"},
		{time.Hour, "1h ago"},
		{23*time.Hour + 59*time.Minute, "23h ago"},
		{24 * time.Hour, "Yesterday"},
		{47 * time.Hour, "Yesterday"},
		{48 * time.Hour, "2d ago"},
		{6 * 24 * time.Hour, "6d ago"},
		{7 * 24 * time.Hour, "Mar 7"},
		{30 * 24 * time.Hour, "Feb 12"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Ago(now.Add(-tc.ago), now), "ago %s", tc.ago)
	}
}

func TestQuery(t *testing.T) {
	assert.Equal(t, api.HistoryQuery{Page: 1, PageSize: 50}, Query(All))
	assert.Equal(t, api.HistoryQuery{Page: 1, PageSize: 100, SavedOnly: true}, Query(SavedOnly))
}

func TestMarks(t *testing.T) {
	var m Marks
	assert.True(t, m.Toggle("a"))
	assert.True(t, m.Toggle("b"))
	assert.True(t, m.Toggle("c"))
	assert.False(t, m.Toggle("b"))

	assert.Equal(t, []string{"a", "c"}, m.IDs())
	assert.True(t, m.Has("c"))
	assert.False(t, m.Has("b"))

	m.Clear()
	assert.Equal(t, 0, m.Len())
	assert.Empty(t, m.IDs())
}

func TestTypeLabel(t *testing.T) {
	assert.Equal(t, "GRAMMAR FIX", TypeLabel("grammar_fix"))
	assert.Equal(t, "TWEETIFY", TypeLabel("tweetify"))
}
