package app

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/swap-router/business/routing/domain"
	"github.com/fd1az/swap-router/internal/apm"
	"github.com/fd1az/swap-router/internal/apperror"
	"github.com/fd1az/swap-router/internal/logger"
)

// RaceEngine fans a request out to every enabled provider of the round's type.
type RaceEngine struct {
	providers []Provider
	approvals ApprovalChecker
	timeout   time.Duration
	logger    logger.LoggerInterface
	tracer    apm.Tracer
	metrics   *routingMetrics
}

// NewRaceEngine creates a RaceEngine. Registration order of providers is their priority.
// approvals may be nil, in which case no trade requires approval.
func NewRaceEngine(providers []Provider, approvals ApprovalChecker, timeout time.Duration, log logger.LoggerInterface) (*RaceEngine, error) {
	m, err := newRoutingMetrics()
	if err != nil {
		return nil, err
	}
	return &RaceEngine{
		providers: providers,
		approvals: approvals,
		timeout:   timeout,
		logger:    log,
		tracer:    apm.NewTracer(tracerName),
		metrics:   m,
	}, nil
}

type rankedProvider struct {
	Provider
	priority int
}

// Enabled returns the providers a round of type t invokes, skipping disabled ones.
func (e *RaceEngine) Enabled(t domain.SwapType, disabled domain.DisabledProviders) []Provider {
	var out []Provider
	for _, rp := range e.enabled(t, disabled) {
		out = append(out, rp.Provider)
	}
	return out
}

func (e *RaceEngine) enabled(t domain.SwapType, disabled domain.DisabledProviders) []rankedProvider {
	var out []rankedProvider
	for i, p := range e.providers {
		if p.SwapType() != t || disabled.Contains(t, p.Type()) {
			continue
		}
		out = append(out, rankedProvider{Provider: p, priority: i})
	}
	return out
}

// Race invokes the enabled providers concurrently. The returned channel yields
// exactly one outcome per invoked provider, each stamped with the running
// progress, and is closed once all have reported.
func (e *RaceEngine) Race(ctx context.Context, round domain.Round, disabled domain.DisabledProviders, owner string) <-chan domain.Outcome {
	providers := e.enabled(round.Type, disabled)
	out := make(chan domain.Outcome, len(providers))
	if len(providers) == 0 {
		close(out)
		return out
	}

	ctx, span := e.tracer.Start(ctx, "routing.race",
		attribute.Int64("round", int64(round.ID)),
		attribute.String("swap_type", string(round.Type)),
		attribute.Int("providers", len(providers)),
	)

	var (
		mu         sync.Mutex
		calculated int
		g          errgroup.Group
	)
	total := len(providers)

	for _, p := range providers {
		g.Go(func() error {
			o := e.calculate(ctx, round, p, owner)

			mu.Lock()
			calculated++
			o.Progress = domain.Progress{Total: total, Calculated: calculated}
			out <- o
			mu.Unlock()
			return nil
		})
	}

	go func() {
		_ = g.Wait()
		span.End()
		close(out)
	}()

	return out
}

func (e *RaceEngine) calculate(ctx context.Context, round domain.Round, p rankedProvider, owner string) domain.Outcome {
	o := domain.Outcome{
		RoundID:  round.ID,
		Provider: p.Type(),
		SwapType: round.Type,
		Priority: p.priority,
	}

	ctx, span := e.tracer.Start(ctx, "routing.quote", providerAttr(p.Type()))
	defer span.End()

	start := time.Now()
	trade, err := e.call(ctx, round.Request, p)
	e.metrics.providerLatency.Record(ctx, float64(time.Since(start).Milliseconds()),
		metric.WithAttributes(providerAttr(p.Type())))

	if err == nil && trade == nil {
		err = apperror.New(apperror.CodeInvalidQuote, apperror.WithContext(string(p.Type())))
	}
	if err != nil {
		o.Kind = domain.OutcomeError
		o.Err = Classify(err)
		span.Fail(o.Err)
		e.logger.Debug(ctx, "provider failed",
			"round", round.ID, "provider", p.Type(), "code", o.Err.Code, "error", err)
		e.metrics.recordResult(ctx, e.metrics.outcomes, p.Type(), o.Kind.String())
		return o
	}

	if trade.Provider == "" {
		trade.Provider = p.Type()
	}
	if trade.Type == "" {
		trade.Type = round.Type
	}
	o.Kind = domain.OutcomeTrade
	o.Trade = trade
	o.NeedsApproval = e.needsApproval(ctx, trade, owner)
	span.SetAttributes(attribute.Bool("needs_approval", o.NeedsApproval))
	span.Succeed()

	e.logger.Debug(ctx, "provider quoted",
		"round", round.ID, "provider", p.Type(), "to", trade.To.String())
	e.metrics.recordResult(ctx, e.metrics.outcomes, p.Type(), o.Kind.String())
	return o
}

type callResult struct {
	trade *domain.Trade
	err   error
}

// call bounds a provider call by the engine timeout even when the provider
// ignores ctx. A panicking provider reports an error instead of crashing the race.
func (e *RaceEngine) call(ctx context.Context, req domain.SwapRequest, p Provider) (*domain.Trade, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	done := make(chan callResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- callResult{err: panicError(p.Type(), r)}
			}
		}()
		trade, err := p.Calculate(ctx, req)
		done <- callResult{trade: trade, err: err}
	}()

	select {
	case res := <-done:
		return res.trade, res.err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, apperror.New(apperror.CodeProviderTimeout,
				apperror.WithContext(string(p.Type())), apperror.WithCause(ctx.Err()))
		}
		return nil, ctx.Err()
	}
}

// needsApproval treats a failing check as no approval required.
func (e *RaceEngine) needsApproval(ctx context.Context, trade *domain.Trade, owner string) bool {
	if e.approvals == nil || owner == "" || !trade.NeedsApprovalTarget() {
		return false
	}
	need, err := e.approvals.NeedsApproval(ctx, trade, owner)
	if err != nil {
		e.logger.Warn(ctx, "approval check failed", "provider", trade.Provider, "error", err)
		return false
	}
	return need
}
