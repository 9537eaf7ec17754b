package views

import (
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestTimeRemaining(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		due  time.Time
		want string
	}{
		{now.Add(76 * time.Hour), "3d 4h left"},
		{now.Add(5 * time.Hour), "5h left"},
		{now.Add(30 * time.Minute), "30m left"},
		{now.Add(-5 * time.Hour), "5h overdue"},
		{now.Add(-49 * time.Hour), "2d 1h overdue"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TimeRemaining(tt.due, now), tt.due.String())
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"Ann", "Bo"}, splitList(" Ann, ,Bo ,"))
	assert.Nil(t, splitList("  "))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	got := truncate("a rather long title", 8)
	assert.Equal(t, "a rathe…", got)
	assert.LessOrEqual(t, lipgloss.Width(got), 8)
}
