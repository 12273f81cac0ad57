package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// LinkState is the health of one link shown in the status bar.
type LinkState int

const (
	LinkDown LinkState = iota
	LinkPending
	LinkUp
)

// Link is a named connection, such as the feed or the wallet.
type Link struct {
	Name   string
	State  LinkState
	Detail string
}

var linkStyles = map[LinkState]struct {
	icon  string
	style lipgloss.Style
	idle  string
}{
	LinkUp:      {"●", lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true), ""},
	LinkPending: {"◐", lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true), "(connecting)"},
	LinkDown:    {"○", lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true), "(offline)"},
}

// StatusBar renders links in registration order on one line.
type StatusBar struct {
	links []Link
}

// NewStatusBar starts every named link as down.
func NewStatusBar(names ...string) *StatusBar {
	s := &StatusBar{links: make([]Link, 0, len(names))}
	for _, name := range names {
		s.links = append(s.links, Link{Name: name})
	}
	return s
}

// Set replaces the link with the same name, appending unknown ones.
func (s *StatusBar) Set(l Link) {
	for i := range s.links {
		if s.links[i].Name == l.Name {
			s.links[i] = l
			return
		}
	}
	s.links = append(s.links, l)
}

func (s *StatusBar) Up(name string) bool {
	for _, l := range s.links {
		if l.Name == name {
			return l.State == LinkUp
		}
	}
	return false
}

func (s *StatusBar) View() string {
	parts := make([]string, 0, len(s.links))
	for _, l := range s.links {
		look := linkStyles[l.State]
		label := l.Name
		if detail := l.Detail; detail != "" {
			label += " " + detail
		} else if look.idle != "" {
			label += " " + look.idle
		}
		parts = append(parts, look.style.Render(look.icon+" "+label))
	}
	return strings.Join(parts, "  │  ")
}
