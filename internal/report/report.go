package report

import (
	"io"
	"time"

	"github.com/tgienger/deck/internal/calendar"
	"github.com/tgienger/deck/internal/models"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the commitment rows
const SheetName = "Commitments"

type column struct {
	header string
	width  float64
	value  func(c models.Commitment, now time.Time) interface{}
}

var columns = []column{
	{"Title", 40, func(c models.Commitment, _ time.Time) interface{} { return c.Title }},
	{"Due", 20, func(c models.Commitment, _ time.Time) interface{} { return c.DueDate.Format("2006-01-02 15:04") }},
	{"Priority", 10, func(c models.Commitment, _ time.Time) interface{} { return string(c.Priority) }},
	{"Status", 14, func(c models.Commitment, _ time.Time) interface{} { return string(c.Status) }},
	{"Assignee", 20, func(c models.Commitment, _ time.Time) interface{} {
		if c.Assignee != nil {
			return c.Assignee.Name
		}
		return ""
	}},
	{"Archived", 10, func(c models.Commitment, _ time.Time) interface{} { return yesNo(c.Archived) }},
	{"Overdue", 10, func(c models.Commitment, now time.Time) interface{} {
		return yesNo(c.Status != models.CommitmentCompleted && calendar.IsOverdue(c.DueDate, now))
	}},
	{"Linked Task", 14, func(c models.Commitment, _ time.Time) interface{} {
		if c.LinkedTaskID != nil {
			return *c.LinkedTaskID
		}
		return ""
	}},
}

// WriteCommitments writes an xlsx workbook with one row per commitment. now decides the overdue column.
func WriteCommitments(w io.Writer, items []models.Commitment, now time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"33467C"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "top"},
	})
	if err != nil {
		return err
	}

	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cell, col.header); err != nil {
			return err
		}
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, name, name, col.width); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	if err := f.SetCellStyle(SheetName, "A1", last, headerStyle); err != nil {
		return err
	}

	for r, item := range items {
		row := make([]interface{}, len(columns))
		for i, col := range columns {
			row[i] = col.value(item, now)
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return err
		}
	}

	return f.Write(w)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
