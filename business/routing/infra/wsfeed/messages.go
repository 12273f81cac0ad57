// Package wsfeed streams routing state to WebSocket clients and accepts form commands.
package wsfeed

import (
	"encoding/json"

	"github.com/fd1az/swap-router/business/routing/domain"
	"github.com/fd1az/swap-router/internal/apperror"
)

// Topics published to clients.
const (
	TopicTrades     = "trades"
	TopicProgress   = "progress"
	TopicTradeState = "tradeState"
	TopicAction     = "actionButton"
	TopicRefresh    = "refresh"
	TopicPage       = "page"
	TopicWallet     = "wallet"
	TopicOutput     = "outputAmount"
	TopicError      = "error"
)

// Command types accepted from clients.
const (
	CommandInput    = "input"
	CommandSelect   = "select"
	CommandRefresh  = "refresh"
	CommandSettings = "settings"
)

// Envelope wraps every server message.
type Envelope struct {
	Topic string          `json:"topic"`
	Data  json.RawMessage `json:"data"`
}

// Command is a client request. Fields are used according to Type.
type Command struct {
	Type     string `json:"type"`
	From     string `json:"from,omitempty"` // SYMBOL@CHAIN
	To       string `json:"to,omitempty"`
	Amount   string `json:"amount,omitempty"`
	Receiver string `json:"receiver,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// ErrorView is a classified failure.
type ErrorView struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Critical bool   `json:"critical,omitempty"`
}

// TradeView is a trade in display units.
type TradeView struct {
	Provider          string   `json:"provider"`
	Backend           string   `json:"backend"`
	Type              string   `json:"type"`
	AmountIn          string   `json:"amountIn"`
	AmountOut         string   `json:"amountOut"`
	Fee               string   `json:"fee"`
	NetOutput         string   `json:"netOutput"`
	Rate              string   `json:"rate"`
	Route             []string `json:"route,omitempty"`
	EstimatedDuration float64  `json:"estimatedSeconds,omitempty"`
}

// CandidateView is one provider's outcome in ranked order.
type CandidateView struct {
	Provider    string     `json:"provider"`
	Trade       *TradeView `json:"trade,omitempty"`
	Error       *ErrorView `json:"error,omitempty"`
	NeedApprove bool       `json:"needApprove"`
	IsBest      bool       `json:"isBest"`
	IsCheap     bool       `json:"isCheap"`
}

// TradeStateView is the selected trade.
type TradeStateView struct {
	Status         string     `json:"status"`
	Provider       string     `json:"provider,omitempty"`
	Trade          *TradeView `json:"trade,omitempty"`
	Error          *ErrorView `json:"error,omitempty"`
	NeedApprove    bool       `json:"needApprove"`
	SelectedByUser bool       `json:"selectedByUser"`
}

// ProgressView counts providers that reported.
type ProgressView struct {
	Total      int `json:"total"`
	Calculated int `json:"calculated"`
}

// ActionView is the action button.
type ActionView struct {
	Kind    string `json:"kind"`
	Label   string `json:"label"`
	Handler string `json:"handler"`
}

// WalletView is the connected account.
type WalletView struct {
	Address string `json:"address"`
	Network string `json:"network"`
}

func errorView(err *apperror.AppError) *ErrorView {
	if err == nil {
		return nil
	}
	return &ErrorView{
		Code:     string(err.Code),
		Message:  err.Message,
		Critical: apperror.IsCriticalCode(err.Code),
	}
}

func tradeView(t *domain.Trade) *TradeView {
	if t == nil {
		return nil
	}
	return &TradeView{
		Provider:          string(t.Provider),
		Backend:           domain.BackendProviderName(t.Provider),
		Type:              string(t.Type),
		AmountIn:          t.From.String(),
		AmountOut:         t.To.String(),
		Fee:               t.Fee.String(),
		NetOutput:         t.NetOutput().String(),
		Rate:              t.Rate().StringFixed(6),
		Route:             t.Route,
		EstimatedDuration: t.EstimatedDuration.Seconds(),
	}
}

// CandidatesView converts ranked candidates to their wire form.
func CandidatesView(cs []domain.Candidate) []CandidateView {
	out := make([]CandidateView, 0, len(cs))
	for _, c := range cs {
		out = append(out, CandidateView{
			Provider:    string(c.Provider),
			Trade:       tradeView(c.Trade),
			Error:       errorView(c.Err),
			NeedApprove: c.NeedsApproval,
			IsBest:      c.Tags.IsBest,
			IsCheap:     c.Tags.IsCheap,
		})
	}
	return out
}

func tradeStateView(st domain.SelectedTrade) TradeStateView {
	return TradeStateView{
		Status:         string(st.Status),
		Provider:       string(st.Provider),
		Trade:          tradeView(st.Trade),
		Error:          errorView(st.Err),
		NeedApprove:    st.NeedApprove,
		SelectedByUser: st.SelectedByUser,
	}
}

func encode(topic string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Topic: topic, Data: data})
}
