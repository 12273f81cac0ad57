package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/swap-router/business/routing/domain"
	"github.com/fd1az/swap-router/business/routing/infra/wsfeed"
	"github.com/fd1az/swap-router/pkg/ui/components"
)

// Connection names shown in the status bar.
const (
	ConnFeed   = "Feed"
	ConnWallet = "Wallet"
)

// Phase represents the current UI phase.
type Phase string

const (
	PhaseConnecting Phase = "connecting" // Waiting for the feed
	PhaseDashboard  Phase = "dashboard"  // Main dashboard
)

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Handlers send user commands back to the router. Nil handlers disable the key.
type Handlers struct {
	Select  func(provider string) error
	Refresh func() error
	// Requote asks for a fresh round after settings changed.
	Requote func() error
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	// Components
	candidates *components.CandidatesComponent
	trade      *components.TradeComponent
	status     *components.StatusBar
	spinner    spinner.Model
	help       help.Model
	keys       KeyMap
	handlers   Handlers

	// State
	phase       Phase
	quitting    bool
	width       int
	height      int
	startTime   time.Time
	lastUpdate  time.Time
	rows        []wsfeed.CandidateView
	selected    string
	progress    wsfeed.ProgressView
	refreshing  bool
	output      string
	errors      []ErrorEntry // Persistent error panel (last 3)
	logs        []string     // Recent log messages
	roundsCount int
}

// New creates a new TUI model.
func New(h Handlers) Model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(colorGood)

	return Model{
		candidates: components.NewCandidatesComponent(),
		trade:      components.NewTradeComponent(),
		status:     components.NewStatusBar(ConnFeed, ConnWallet),
		spinner:    sp,
		help:       help.New(),
		keys:       DefaultKeyMap(),
		handlers:   h,
		phase:      PhaseConnecting,
		startTime:  time.Now(),
		errors:     make([]ErrorEntry, 0, 3),
		logs:       make([]string, 0, 5),
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.spinner.Tick)
}

// tickCmd returns a command that sends a tick every second to age timestamps.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			m.candidates.ScrollUp()
		case key.Matches(msg, m.keys.Down):
			m.candidates.ScrollDown()
		case key.Matches(msg, m.keys.Select, m.keys.Best, m.keys.Refresh, m.keys.Requote):
			if !m.status.Up(ConnFeed) {
				m.logs = addLog(m.logs, "warn", "feed offline, command dropped")
				return m, nil
			}
			return m, m.feedCommand(msg)
		case key.Matches(msg, m.keys.Clear):
			m.errors = make([]ErrorEntry, 0, 3)
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		return m, tickCmd()

	case ConnectionStatusMsg:
		state := linkState(msg.Connected, msg.Pending)
		m.status.Set(components.Link{Name: msg.Name, State: state})
		if msg.Name == ConnFeed && msg.Connected {
			m.phase = PhaseDashboard
		}
		m.logs = addLog(m.logs, "info", fmt.Sprintf("%s %s", msg.Name, linkWord(state)))

	case TradesMsg:
		m.rows = msg.Candidates
		m.candidates.Update(candidateRows(m.rows, m.selected))
		m.lastUpdate = time.Now()

	case TradeStateMsg:
		m.selected = msg.State.Provider
		m.trade.Update(tradeDetails(msg.State))
		m.candidates.Update(candidateRows(m.rows, m.selected))
		m.lastUpdate = time.Now()

	case ProgressMsg:
		m.progress = msg.Progress

	case RefreshMsg:
		refreshing := msg.State == string(domain.RefreshRefreshing)
		if m.refreshing && !refreshing {
			m.roundsCount++
		}
		m.refreshing = refreshing

	case ActionMsg:
		m.trade.SetAction(msg.Action.Label, msg.Action.Kind == string(domain.ActionKindAction))

	case WalletMsg:
		detail := ""
		if msg.Wallet.Address != "" {
			detail = fmt.Sprintf("%s on %s", shortAddress(msg.Wallet.Address), msg.Wallet.Network)
		}
		m.status.Set(components.Link{
			Name:   ConnWallet,
			State:  linkState(msg.Wallet.Address != "", false),
			Detail: detail,
		})

	case OutputMsg:
		m.output = msg.Amount

	case PageMsg:
		m.logs = addLog(m.logs, "info", "page: "+msg.Page)

	case FeedErrorMsg:
		m.errors = addError(m.errors, fmt.Sprintf("%s (%s)", msg.Error.Message, msg.Error.Code))
		m.logs = addLog(m.logs, "error", msg.Error.Message)

	case ErrorMsg:
		m.errors = addError(m.errors, msg.Error.Error())
		m.logs = addLog(m.logs, "error", msg.Error.Error())

	case LogMsg:
		m.logs = addLog(m.logs, msg.Level, msg.Message)
	}

	return m, nil
}

// feedCommand maps a command key to its handler, or nil when the handler is unset.
func (m Model) feedCommand(msg tea.KeyMsg) tea.Cmd {
	h := m.handlers
	switch {
	case key.Matches(msg, m.keys.Select):
		if p := m.candidates.Current(); p != "" && h.Select != nil {
			return command(func() error { return h.Select(p) })
		}
	case key.Matches(msg, m.keys.Best):
		if p := bestProvider(m.rows); p != "" && h.Select != nil {
			return command(func() error { return h.Select(p) })
		}
	case key.Matches(msg, m.keys.Refresh):
		if h.Refresh != nil {
			return command(h.Refresh)
		}
	case key.Matches(msg, m.keys.Requote):
		if h.Requote != nil {
			return command(h.Requote)
		}
	}
	return nil
}

func bestProvider(rows []wsfeed.CandidateView) string {
	for _, r := range rows {
		if r.IsBest {
			return r.Provider
		}
	}
	return ""
}

// command runs fn off the update loop and reports its failure as an ErrorMsg.
func command(fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return ErrorMsg{Error: err}
		}
		return nil
	}
}

func candidateRows(cs []wsfeed.CandidateView, selected string) []components.CandidateRow {
	rows := make([]components.CandidateRow, 0, len(cs))
	for _, c := range cs {
		row := components.CandidateRow{
			Provider:    c.Provider,
			NeedApprove: c.NeedApprove,
			IsBest:      c.IsBest,
			IsCheap:     c.IsCheap,
			Selected:    c.Provider == selected,
		}
		if c.Error != nil {
			row.Error = c.Error.Message
		}
		if c.Trade != nil {
			row.AmountOut = c.Trade.AmountOut
			row.Fee = c.Trade.Fee
			if c.Trade.EstimatedDuration > 0 {
				row.Duration = (time.Duration(c.Trade.EstimatedDuration) * time.Second).String()
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func tradeDetails(st wsfeed.TradeStateView) components.TradeDetails {
	d := components.TradeDetails{
		Status:         st.Status,
		Provider:       st.Provider,
		NeedApprove:    st.NeedApprove,
		SelectedByUser: st.SelectedByUser,
	}
	if st.Error != nil {
		d.Error = st.Error.Message
		d.Critical = st.Error.Critical
	}
	if t := st.Trade; t != nil {
		d.Backend = t.Backend
		d.AmountIn = t.AmountIn
		d.AmountOut = t.AmountOut
		d.NetOutput = t.NetOutput
		d.Fee = t.Fee
		d.Rate = t.Rate
		d.Route = t.Route
	}
	if d.Backend == "" {
		d.Backend = strings.ToLower(st.Provider)
	}
	return d
}

func linkState(connected, pending bool) components.LinkState {
	switch {
	case connected:
		return components.LinkUp
	case pending:
		return components.LinkPending
	default:
		return components.LinkDown
	}
}

func linkWord(s components.LinkState) string {
	switch s {
	case components.LinkUp:
		return "connected"
	case components.LinkPending:
		return "connecting"
	default:
		return "disconnected"
	}
}

func shortAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

// addLog adds a log message and returns the updated slice (keeps last 5).
func addLog(logs []string, level, message string) []string {
	timestamp := time.Now().Format("15:04:05")
	logLine := fmt.Sprintf("[%s] %s: %s", timestamp, level, message)
	logs = append(logs, logLine)
	if len(logs) > 5 {
		logs = logs[len(logs)-5:]
	}
	return logs
}

// addError adds an error and returns the updated slice (keeps last 3).
func addError(errs []ErrorEntry, message string) []ErrorEntry {
	errs = append(errs, ErrorEntry{Message: message, Timestamp: time.Now()})
	if len(errs) > 3 {
		errs = errs[len(errs)-3:]
	}
	return errs
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}
	if m.phase == PhaseConnecting {
		return m.renderConnectingScreen()
	}

	var b strings.Builder

	b.WriteString(bannerStyle.Render(" ⇄ Swap Router "))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	leftCol := m.candidates.View()
	rightCol := m.trade.View() + "\n" + m.renderActivity()

	if m.width > 100 {
		left := panelStyle.Width(m.width/2 - 2).Render(leftCol)
		right := panelStyle.Width(m.width/2 - 2).Render(rightCol)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	} else {
		width := m.width - 4
		if width < 40 {
			width = 80
		}
		b.WriteString(panelStyle.Width(width).Render(leftCol))
		b.WriteString("\n")
		b.WriteString(panelStyle.Width(width).Render(rightCol))
	}
	b.WriteString("\n\n")

	if len(m.errors) > 0 {
		b.WriteString(errorHeaderStyle.Render("ERRORS"))
		b.WriteString(dimStyle.Render(" (e: clear)"))
		b.WriteString("\n")
		for _, err := range m.errors {
			ago := time.Since(err.Timestamp).Round(time.Second)
			b.WriteString(errorStyle.Render(fmt.Sprintf("  • %s ", err.Message)))
			b.WriteString(dimStyle.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m Model) renderConnectingScreen() string {
	var sb strings.Builder
	sb.WriteString("\n\n")
	sb.WriteString(bannerStyle.Render(" ⇄ Swap Router "))
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("  %s Connecting to the routing feed...\n\n", m.spinner.View()))
	elapsed := time.Since(m.startTime).Round(time.Second)
	sb.WriteString(dimStyle.Render(fmt.Sprintf("  Elapsed: %s", elapsed)))
	sb.WriteString("\n\n")
	sb.WriteString(dimStyle.Render("  Press q to quit"))
	sb.WriteString("\n")
	return sb.String()
}

func (m Model) renderStatusBar() string {
	var parts []string

	if m.refreshing {
		parts = append(parts, m.spinner.View()+warnStyle.Render(
			fmt.Sprintf(" Calculating %d/%d", m.progress.Calculated, m.progress.Total)))
	} else {
		parts = append(parts, dimStyle.Render(fmt.Sprintf("Providers: %d/%d", m.progress.Calculated, m.progress.Total)))
	}
	if m.output != "" {
		parts = append(parts, "Output: "+m.output)
	}
	if m.roundsCount > 0 {
		parts = append(parts, dimStyle.Render(fmt.Sprintf("Rounds: %d", m.roundsCount)))
	}

	parts = append(parts, m.status.View())

	if !m.lastUpdate.IsZero() {
		ago := time.Since(m.lastUpdate).Round(time.Second)
		parts = append(parts, dimStyle.Render(fmt.Sprintf("Updated: %s ago", ago)))
	}

	return strings.Join(parts, "  │  ")
}

func (m Model) renderActivity() string {
	var sb strings.Builder
	sb.WriteString(sectionStyle.Render("ACTIVITY"))
	sb.WriteString("\n")
	if len(m.logs) == 0 {
		sb.WriteString(dimStyle.Render("  Waiting for updates..."))
		return sb.String()
	}
	for _, line := range m.logs {
		sb.WriteString(dimStyle.Render("  " + line))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// Send sends a message to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
}
