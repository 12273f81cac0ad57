// Package components renders the panels of the routing dashboard.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// CandidateRow is one provider's outcome in ranked order.
type CandidateRow struct {
	Provider    string
	AmountOut   string
	Fee         string
	Duration    string
	Error       string
	NeedApprove bool
	IsBest      bool
	IsCheap     bool
	Selected    bool
}

// CandidatesComponent renders the ranked candidate table with a cursor.
type CandidatesComponent struct {
	rows   []CandidateRow
	cursor int
}

// NewCandidatesComponent creates an empty candidates component.
func NewCandidatesComponent() *CandidatesComponent {
	return &CandidatesComponent{}
}

// Update replaces the rows, keeping the cursor on the same provider when it is still listed.
func (c *CandidatesComponent) Update(rows []CandidateRow) {
	current := c.Current()
	c.rows = rows
	c.cursor = 0
	for i, row := range rows {
		if row.Provider == current {
			c.cursor = i
			break
		}
	}
}

// Clear removes all rows.
func (c *CandidatesComponent) Clear() {
	c.rows = nil
	c.cursor = 0
}

// ScrollUp moves the cursor up.
func (c *CandidatesComponent) ScrollUp() {
	if c.cursor > 0 {
		c.cursor--
	}
}

// ScrollDown moves the cursor down.
func (c *CandidatesComponent) ScrollDown() {
	if c.cursor < len(c.rows)-1 {
		c.cursor++
	}
}

// Current returns the provider under the cursor, empty if none.
func (c *CandidatesComponent) Current() string {
	if c.cursor < 0 || c.cursor >= len(c.rows) {
		return ""
	}
	return c.rows[c.cursor].Provider
}

// View renders the candidates component.
func (c *CandidatesComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	if len(c.rows) == 0 {
		return headerStyle.Render("ROUTES") + "\n\n  No routes yet..."
	}

	bestStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	cursorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(fmt.Sprintf("ROUTES (%d)", len(c.rows))))
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("    %-14s  %18s  %12s  %8s  %s\n", "Provider", "Receive", "Fee", "ETA", "Tags"))
	sb.WriteString(dimStyle.Render("    " + strings.Repeat("─", 64)))
	sb.WriteString("\n")

	for i, row := range c.rows {
		pointer := "  "
		if i == c.cursor {
			pointer = cursorStyle.Render("▸ ")
		}
		mark := " "
		if row.Selected {
			mark = cursorStyle.Render("●")
		}

		if row.Error != "" {
			sb.WriteString(fmt.Sprintf("%s%s %-14s  %s\n", pointer, mark, row.Provider, errorStyle.Render(row.Error)))
			continue
		}

		line := fmt.Sprintf("%-14s  %18s  %12s  %8s  %s", row.Provider, row.AmountOut, row.Fee, row.Duration, tags(row))
		if row.IsBest {
			line = bestStyle.Render(line)
		}
		sb.WriteString(pointer + mark + " " + line + "\n")
	}

	return sb.String()
}

func tags(row CandidateRow) string {
	var t []string
	if row.IsBest {
		t = append(t, "best")
	}
	if row.IsCheap {
		t = append(t, "cheap")
	}
	if row.NeedApprove {
		t = append(t, "approve")
	}
	return strings.Join(t, ",")
}
