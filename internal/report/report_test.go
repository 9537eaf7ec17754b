package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/deck/internal/models"
	"github.com/xuri/excelize/v2"
)

func TestWriteCommitments(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	task := "42"
	items := []models.Commitment{
		{ID: "c1", Title: "Ship v1", DueDate: now.Add(-time.Hour), Priority: models.CommitmentHigh, Status: models.CommitmentInProgress,
			Assignee: &models.Person{ID: "u1", Name: "Ann"}, LinkedTaskID: &task},
		{ID: "c2", Title: "Retro", DueDate: now.Add(-time.Hour), Priority: models.CommitmentLow, Status: models.CommitmentCompleted, Archived: true},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCommitments(&buf, items, now))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Title", "Due", "Priority", "Status", "Assignee", "Archived", "Overdue", "Linked Task"}, rows[0])
	assert.Equal(t, []string{"Ship v1", "2024-01-10 11:00", "High", "In Progress", "Ann", "no", "yes", "42"}, rows[1])
	// Completed commitments are never overdue; trailing empty cells are trimmed by GetRows.
	assert.Equal(t, []string{"Retro", "2024-01-10 11:00", "Low", "Completed", "", "yes", "no"}, rows[2])
}

func TestWriteCommitmentsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCommitments(&buf, nil, time.Now()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
