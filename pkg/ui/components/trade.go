package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TradeDetails holds the selected trade for display. Values are pre-formatted by the router.
type TradeDetails struct {
	Status         string
	Provider       string
	Backend        string
	AmountIn       string
	AmountOut      string
	NetOutput      string
	Fee            string
	Rate           string
	Route          []string
	Error          string
	Critical       bool
	NeedApprove    bool
	SelectedByUser bool
}

// TradeComponent renders the selected trade and the action button.
type TradeComponent struct {
	trade    *TradeDetails
	action   string
	actionOK bool
}

// NewTradeComponent creates an empty trade component.
func NewTradeComponent() *TradeComponent {
	return &TradeComponent{}
}

// Update sets the selected trade.
func (t *TradeComponent) Update(trade TradeDetails) {
	t.trade = &trade
}

// SetAction sets the action button label. ok is false for blocking states.
func (t *TradeComponent) SetAction(label string, ok bool) {
	t.action = label
	t.actionOK = ok
}

// View renders the trade component.
func (t *TradeComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	positiveStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	negativeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("SELECTED TRADE"))
	sb.WriteString("\n\n")

	if t.trade == nil {
		sb.WriteString(dimStyle.Render("  Enter an amount to get routes..."))
		sb.WriteString("\n")
		return sb.String()
	}

	tr := t.trade
	sb.WriteString(fmt.Sprintf("  Status: %s\n", warnStyle.Render(tr.Status)))
	if tr.Provider != "" {
		by := "best rate"
		if tr.SelectedByUser {
			by = "your choice"
		}
		sb.WriteString(fmt.Sprintf("  Provider: %s %s\n", tr.Provider, dimStyle.Render("("+by+")")))
	}

	if tr.Error != "" {
		sb.WriteString(fmt.Sprintf("  Error: %s\n", negativeStyle.Render(tr.Error)))
		if tr.Critical {
			sb.WriteString(dimStyle.Render(fmt.Sprintf("  %s is disabled for this session", tr.Backend)))
			sb.WriteString("\n")
		}
	}

	if tr.AmountOut != "" {
		sb.WriteString(dimStyle.Render("  " + strings.Repeat("─", 40)))
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("  You pay:     %s\n", tr.AmountIn))
		sb.WriteString(fmt.Sprintf("  You receive: %s\n", positiveStyle.Render(tr.AmountOut)))
		sb.WriteString(fmt.Sprintf("  Fee:         %s\n", negativeStyle.Render(tr.Fee)))
		sb.WriteString(fmt.Sprintf("  Net output:  %s\n", tr.NetOutput))
		sb.WriteString(fmt.Sprintf("  Rate:        %s\n", dimStyle.Render(tr.Rate)))
		if len(tr.Route) > 0 {
			sb.WriteString(fmt.Sprintf("  Route:       %s\n", dimStyle.Render(strings.Join(tr.Route, " → "))))
		}
		if tr.NeedApprove {
			sb.WriteString(warnStyle.Render("  Token approval required"))
			sb.WriteString("\n")
		}
	}

	if t.action != "" {
		style := lipgloss.NewStyle().Bold(true).Padding(0, 2).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#374151"))
		if t.actionOK {
			style = style.Background(lipgloss.Color("#7C3AED"))
		}
		sb.WriteString("\n  ")
		sb.WriteString(style.Render(t.action))
		sb.WriteString("\n")
	}

	return sb.String()
}
