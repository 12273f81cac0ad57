// Package ui provides the Bubble Tea dashboard for the swap router feed.
package ui

import (
	"encoding/json"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fd1az/swap-router/business/routing/infra/wsfeed"
)

// Message types for TUI updates

// TradesMsg carries the ranked candidates of the current round.
type TradesMsg struct {
	Candidates []wsfeed.CandidateView
}

// TradeStateMsg is sent when the selected trade changes.
type TradeStateMsg struct {
	State wsfeed.TradeStateView
}

// ProgressMsg counts providers that reported in the current round.
type ProgressMsg struct {
	Progress wsfeed.ProgressView
}

// ActionMsg is sent when the action button changes.
type ActionMsg struct {
	Action wsfeed.ActionView
}

// WalletMsg is sent when the connected account changes.
type WalletMsg struct {
	Wallet wsfeed.WalletView
}

// RefreshMsg carries the refresh button state.
type RefreshMsg struct {
	State string
}

// PageMsg carries the page the router wants to show.
type PageMsg struct {
	Page string
}

// OutputMsg carries the output amount of the selected trade.
type OutputMsg struct {
	Amount string
}

// FeedErrorMsg is a command failure reported by the server.
type FeedErrorMsg struct {
	Error wsfeed.ErrorView
}

// ConnectionStatusMsg is sent when the feed connection changes state.
// Pending covers dialing and backoff between reconnects.
type ConnectionStatusMsg struct {
	Name      string
	Connected bool
	Pending   bool
}

// ErrorMsg is sent when a local error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}

// Decode turns a feed envelope into a TUI message.
func Decode(data []byte) (tea.Msg, error) {
	var env wsfeed.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}

	switch env.Topic {
	case wsfeed.TopicTrades:
		return decode(env, func(v []wsfeed.CandidateView) tea.Msg { return TradesMsg{Candidates: v} })
	case wsfeed.TopicTradeState:
		return decode(env, func(v wsfeed.TradeStateView) tea.Msg { return TradeStateMsg{State: v} })
	case wsfeed.TopicProgress:
		return decode(env, func(v wsfeed.ProgressView) tea.Msg { return ProgressMsg{Progress: v} })
	case wsfeed.TopicAction:
		return decode(env, func(v wsfeed.ActionView) tea.Msg { return ActionMsg{Action: v} })
	case wsfeed.TopicWallet:
		return decode(env, func(v wsfeed.WalletView) tea.Msg { return WalletMsg{Wallet: v} })
	case wsfeed.TopicRefresh:
		return decode(env, func(v string) tea.Msg { return RefreshMsg{State: v} })
	case wsfeed.TopicPage:
		return decode(env, func(v string) tea.Msg { return PageMsg{Page: v} })
	case wsfeed.TopicOutput:
		return decode(env, func(v string) tea.Msg { return OutputMsg{Amount: v} })
	case wsfeed.TopicError:
		return decode(env, func(v wsfeed.ErrorView) tea.Msg { return FeedErrorMsg{Error: v} })
	}
	return nil, fmt.Errorf("ui: unknown topic %q", env.Topic)
}

func decode[T any](env wsfeed.Envelope, wrap func(T) tea.Msg) (tea.Msg, error) {
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		return nil, fmt.Errorf("ui: decode %s: %w", env.Topic, err)
	}
	return wrap(v), nil
}
