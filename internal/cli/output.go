package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"
)

// Printer renders command results as a table, JSON or YAML
type Printer struct {
	Out  io.Writer
	JSON bool
	YAML bool
}

// NewPrinter picks the output format from the command options
func NewPrinter(out io.Writer, opts CommandOptions) *Printer {
	return &Printer{Out: out, JSON: opts.JSONOutput, YAML: opts.YAMLOutput}
}

// Structured reports whether output is machine readable
func (p *Printer) Structured() bool {
	return p.JSON || p.YAML
}

// Print writes v as JSON or YAML, or headers and rows as a table
func (p *Printer) Print(v interface{}, headers []string, rows [][]string) error {
	switch {
	case p.JSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal output to JSON: %w", err)
		}
		_, err = fmt.Fprintln(p.Out, string(data))
		return err
	case p.YAML:
		enc := yaml.NewEncoder(p.Out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to marshal output to YAML: %w", err)
		}
		return enc.Close()
	}

	if len(rows) == 0 {
		_, err := fmt.Fprintln(p.Out, "Nothing to show")
		return err
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)
	_, err := fmt.Fprintln(p.Out, t.Render())
	return err
}

// Message writes a human line, or v when the output is structured
func (p *Printer) Message(v interface{}, format string, args ...interface{}) error {
	if p.Structured() {
		return p.Print(v, nil, nil)
	}
	_, err := fmt.Fprintf(p.Out, format+"\n", args...)
	return err
}
