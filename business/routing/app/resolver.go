package app

import (
	"github.com/fd1az/swap-router/business/routing/domain"
)

// ActionInput is everything the action button depends on.
type ActionInput struct {
	Trade               domain.SelectedTrade
	WrongNetwork        bool
	InsufficientBalance bool
	WalletConnected     bool
	ReceiverValid       bool
	ReceiverRequired    bool
	ReceiverAddress     string
}

// ResolveAction derives the action button. Every input maps to exactly one state.
func ResolveAction(in ActionInput) domain.ActionState {
	st := in.Trade

	if st.Err != nil {
		return errorState(st.Err.Message)
	}
	if !in.WalletConnected {
		return domain.ActionState{
			Kind:    domain.ActionKindAction,
			Label:   domain.LabelConnectWallet,
			Handler: domain.HandlerConnectWallet,
		}
	}
	if in.InsufficientBalance {
		return errorState(domain.LabelInsufficientBalance)
	}

	if st.Ready() || (st.Trade != nil && in.WrongNetwork) {
		if in.ReceiverRequired {
			if in.ReceiverValid && in.ReceiverAddress != "" {
				return previewState(previewHandler(st.Trade))
			}
			return errorState(domain.LabelEnterReceiver)
		}
		if !in.ReceiverValid {
			return errorState(domain.LabelEnterCorrectReceiver)
		}
		return previewState(domain.HandlerPreview)
	}

	switch st.Status {
	case domain.StatusLoading:
		return errorState(domain.LabelCalculating)
	case domain.StatusNotInitiated, "":
		return errorState(domain.LabelSelectTokens)
	default:
		return errorState(domain.LabelTradeNotAvailable)
	}
}

// previewHandler routes off-chain settled trades from non-EVM sources to the
// deposit flow.
func previewHandler(t *domain.Trade) domain.ActionHandler {
	if t.Has(domain.CapOffChainID) && t.From.Asset() != nil && !t.From.Asset().Blockchain().IsEVM() {
		return domain.HandlerCNPreview
	}
	return domain.HandlerPreview
}

func previewState(handler domain.ActionHandler) domain.ActionState {
	return domain.ActionState{
		Kind:    domain.ActionKindAction,
		Label:   domain.LabelPreviewSwap,
		Handler: handler,
	}
}

func errorState(label string) domain.ActionState {
	return domain.ActionState{
		Kind:    domain.ActionKindError,
		Label:   label,
		Handler: domain.HandlerNone,
	}
}
