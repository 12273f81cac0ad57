package domain

import "github.com/fd1az/swap-router/internal/asset"

// ActionKind separates actionable buttons from error labels.
type ActionKind string

const (
	ActionKindAction ActionKind = "action"
	ActionKindError  ActionKind = "error"
)

// ActionHandler names what invoking the button does.
type ActionHandler string

const (
	HandlerNone          ActionHandler = "none"
	HandlerConnectWallet ActionHandler = "connect_wallet"
	HandlerPreview       ActionHandler = "preview"
	HandlerCNPreview     ActionHandler = "cn_preview"
)

// Button labels.
const (
	LabelConnectWallet        = "Connect wallet"
	LabelInsufficientBalance  = "Insufficient balance"
	LabelPreviewSwap          = "Preview swap"
	LabelEnterReceiver        = "Enter receiver address"
	LabelEnterCorrectReceiver = "Enter correct receiver address"
	LabelCalculating          = "Calculating"
	LabelSelectTokens         = "Select tokens"
	LabelTradeNotAvailable    = "Trade is not available"
)

// ActionState is the derived action-button state.
type ActionState struct {
	Kind    ActionKind
	Label   string
	Handler ActionHandler
}

// PageState is the flow the presentation layer shows.
type PageState string

const (
	PageForm      PageState = "form"
	PagePreview   PageState = "preview"
	PageCNPreview PageState = "cnPreview"
)

// RefreshState reports whether a calculation is running.
type RefreshState string

const (
	RefreshRefreshing RefreshState = "REFRESHING"
	RefreshStopped    RefreshState = "STOPPED"
)

// WalletState is the connected account as seen by the routing context.
type WalletState struct {
	Address string
	Network asset.Blockchain
}

// Connected reports whether a wallet address is known.
func (w WalletState) Connected() bool {
	return w.Address != ""
}
