package app

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"github.com/fd1az/swap-router/business/routing/domain"
	"github.com/fd1az/swap-router/internal/apm"
	"github.com/fd1az/swap-router/internal/apperror"
	"github.com/fd1az/swap-router/internal/logger"
)

// Callbacks report execution progress to the caller. Every field is optional.
type Callbacks struct {
	OnHash    func(hash string)
	OnApprove func()
	// OnSwap receives the off-chain correlation id, empty for plain on-chain trades.
	OnSwap  func(offChainID string)
	OnError func(err *apperror.AppError)
}

func (c Callbacks) hash(h string) {
	if c.OnHash != nil {
		c.OnHash(h)
	}
}

// Executor runs approvals and swaps for the selected trade. Callers must not
// invoke it concurrently for the same trade.
type Executor struct {
	submitter TransactionSubmitter
	prompt    ConfirmationPrompt
	sink      ErrorSink
	rounds    RoundController
	streams   *Streams
	logger    logger.LoggerInterface
	tracer    apm.Tracer
	metrics   *routingMetrics
}

// NewExecutor creates an Executor.
func NewExecutor(
	submitter TransactionSubmitter,
	prompt ConfirmationPrompt,
	sink ErrorSink,
	rounds RoundController,
	streams *Streams,
	log logger.LoggerInterface,
) (*Executor, error) {
	m, err := newRoutingMetrics()
	if err != nil {
		return nil, err
	}
	return &Executor{
		submitter: submitter,
		prompt:    prompt,
		sink:      sink,
		rounds:    rounds,
		streams:   streams,
		logger:    log,
		tracer:    apm.NewTracer(tracerName),
		metrics:   m,
	}, nil
}

// Execute approves when the trade requires it and then swaps.
func (e *Executor) Execute(ctx context.Context, st domain.SelectedTrade, cb Callbacks) error {
	if st.NeedApprove {
		if err := e.Approve(ctx, st, cb); err != nil {
			return err
		}
	}
	return e.Swap(ctx, st, cb)
}

// Approve grants the trade's spender allowance.
func (e *Executor) Approve(ctx context.Context, st domain.SelectedTrade, cb Callbacks) error {
	trade := st.Trade
	if trade == nil {
		return apperror.New(apperror.CodeInvalidState, apperror.WithContext("no trade selected"))
	}

	ctx, span := e.tracer.Start(ctx, "routing.approve", providerAttr(trade.Provider))
	defer span.End()

	if err := e.submitter.Approve(ctx, trade, cb.hash); err != nil {
		span.Fail(err)
		e.metrics.recordResult(ctx, e.metrics.approvals, trade.Provider, "error")
		return e.fail(ctx, trade, err, cb)
	}

	span.Succeed()
	e.metrics.recordResult(ctx, e.metrics.approvals, trade.Provider, "ok")
	e.logger.Info(ctx, "approval confirmed", "provider", trade.Provider, "spender", trade.Spender)
	if cb.OnApprove != nil {
		cb.OnApprove()
	}
	return nil
}

// Swap submits the trade. A rate change on a retry-capable trade prompts the
// user once; acceptance resubmits with the new rates and a decline returns the
// page to the form without reporting an error.
func (e *Executor) Swap(ctx context.Context, st domain.SelectedTrade, cb Callbacks) error {
	trade := st.Trade
	if trade == nil {
		return apperror.New(apperror.CodeInvalidState, apperror.WithContext("no trade selected"))
	}

	ctx, span := e.tracer.Start(ctx, "routing.swap",
		providerAttr(trade.Provider),
		attribute.String("swap_type", string(trade.Type)),
	)
	defer span.End()

	receipt, err := e.submitter.Submit(ctx, trade, cb.hash)
	if err == nil {
		span.Succeed()
		e.succeed(ctx, trade, receipt, cb)
		return nil
	}

	var rateErr *domain.RateChangedError
	if !errors.As(err, &rateErr) || !trade.Has(domain.CapRateRetry) {
		span.Fail(err)
		return e.swapFailed(ctx, trade, err, cb)
	}

	update := rateErr.Update
	symbol := ""
	if a := trade.To.Asset(); a != nil {
		symbol = a.Symbol()
	}
	span.Event("rates_changed")

	accepted, perr := e.prompt.AskRateChanged(ctx, update.Old, update.New, symbol)
	if perr != nil {
		span.Fail(perr)
		return e.swapFailed(ctx, trade, perr, cb)
	}
	if !accepted {
		e.metrics.recordResult(ctx, e.metrics.rateRetries, trade.Provider, "declined")
		e.logger.Info(ctx, "rate change declined", "provider", trade.Provider,
			"old", update.Old.String(), "new", update.New.String())
		e.streams.Page.Publish(domain.PageForm)
		return nil
	}

	e.metrics.recordResult(ctx, e.metrics.rateRetries, trade.Provider, "accepted")
	retried := trade.WithRates(update)
	receipt, err = e.submitter.Submit(ctx, retried, cb.hash)
	if err != nil {
		span.Fail(err)
		return e.swapFailed(ctx, retried, err, cb)
	}

	span.Succeed()
	e.succeed(ctx, retried, receipt, cb)
	return nil
}

func (e *Executor) succeed(ctx context.Context, trade *domain.Trade, receipt *domain.Receipt, cb Callbacks) {
	var offChainID, txHash string
	if receipt != nil {
		txHash = receipt.TxHash
	}
	if trade.Has(domain.CapOffChainID) {
		offChainID = trade.OffChainID
		if receipt != nil && receipt.OffChainID != "" {
			offChainID = receipt.OffChainID
		}
	}

	e.metrics.recordResult(ctx, e.metrics.swaps, trade.Provider, "ok")
	e.logger.Info(ctx, "swap submitted",
		"provider", trade.Provider, "tx", txHash, "off_chain_id", offChainID, "to", trade.To.String())
	if cb.OnSwap != nil {
		cb.OnSwap(offChainID)
	}
}

func (e *Executor) swapFailed(ctx context.Context, trade *domain.Trade, err error, cb Callbacks) error {
	appErr := e.fail(ctx, trade, err, cb)
	e.metrics.recordResult(ctx, e.metrics.swaps, trade.Provider, string(appErr.Code))
	return appErr
}

// fail classifies err, reports it and disables the provider on critical errors.
func (e *Executor) fail(ctx context.Context, trade *domain.Trade, err error, cb Callbacks) *apperror.AppError {
	appErr := Classify(err)

	e.logger.Error(ctx, "execution failed",
		"provider", trade.Provider, "code", appErr.Code, "error", err)

	if cb.OnError != nil {
		cb.OnError(appErr)
	}
	if e.sink != nil {
		e.sink.Report(ctx, trade.Provider, appErr)
	}

	if apperror.IsCriticalCode(appErr.Code) {
		e.rounds.DisableProvider(trade.Type, trade.Provider)
		e.rounds.Recalculate(true)
	}
	return appErr
}
