package app

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/swap-router/business/routing/domain"
	"github.com/fd1az/swap-router/internal/apperror"
	"github.com/fd1az/swap-router/internal/logger"
)

// RoundController is what the executor needs from the orchestrator.
type RoundController interface {
	DisableProvider(t domain.SwapType, p domain.ProviderType)
	Recalculate(forced bool)
}

var _ RoundController = (*Orchestrator)(nil)

type trigger struct {
	req    domain.SwapRequest
	forced bool
}

// Orchestrator debounces triggers into calculation rounds, runs the race and
// applies outcomes of the current round only. It is the single owner of the
// round id, the candidate store and the disabled-provider registry.
type Orchestrator struct {
	engine   *RaceEngine
	streams  *Streams
	owner    func() string
	debounce time.Duration
	logger   logger.LoggerInterface
	metrics  *routingMetrics

	mu       sync.Mutex
	ctx      context.Context
	store    *CandidateStore
	roundID  uint64
	running  bool
	disabled domain.DisabledProviders
	progress domain.Progress
	selected domain.SelectedTrade
	request  domain.SwapRequest
	pending  *trigger
	timer    *time.Timer
}

// NewOrchestrator creates an Orchestrator. owner returns the wallet address used
// for approval checks and may be nil.
func NewOrchestrator(engine *RaceEngine, streams *Streams, debounce time.Duration, owner func() string, log logger.LoggerInterface) (*Orchestrator, error) {
	m, err := newRoutingMetrics()
	if err != nil {
		return nil, err
	}
	if owner == nil {
		owner = func() string { return "" }
	}
	return &Orchestrator{
		engine:   engine,
		streams:  streams,
		owner:    owner,
		debounce: debounce,
		logger:   log,
		metrics:  m,
		ctx:      context.Background(),
		store:    NewCandidateStore(),
		disabled: domain.NewDisabledProviders(),
		selected: domain.NotInitiated(),
	}, nil
}

// Start sets the context provider calls run under. Cancelling it aborts in-flight calls.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	o.ctx = ctx
	o.mu.Unlock()
}

// OnInputChanged records req and schedules a forced recalculation.
func (o *Orchestrator) OnInputChanged(req domain.SwapRequest) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.request = req
	o.schedule(true)
}

// Recalculate schedules a round for the current request. Forced rounds clear
// the candidate store before racing.
func (o *Orchestrator) Recalculate(forced bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.schedule(forced)
}

// OnExternalRefresh re-triggers the current request without clearing candidates.
func (o *Orchestrator) OnExternalRefresh() {
	o.Recalculate(false)
}

// schedule coalesces triggers inside the debounce window: the latest request
// wins and forced is sticky. Callers hold o.mu.
func (o *Orchestrator) schedule(forced bool) {
	if o.pending == nil {
		o.pending = &trigger{}
	}
	o.pending.req = o.request
	o.pending.forced = o.pending.forced || forced

	if o.timer == nil {
		o.timer = time.AfterFunc(o.debounce, o.fire)
		return
	}
	o.timer.Reset(o.debounce)
}

func (o *Orchestrator) fire() {
	o.mu.Lock()
	defer o.mu.Unlock()

	t := o.pending
	o.pending = nil
	if t == nil {
		return
	}
	o.startRound(*t)
}

// Stop discards pending triggers and in-flight results and empties progress.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.pending = nil
	if o.timer != nil {
		o.timer.Stop()
	}
	o.roundID++
	o.halt()
}

// halt resets to the idle state. Callers hold o.mu.
func (o *Orchestrator) halt() {
	o.running = false
	o.store.Reset()
	o.setProgress(domain.Progress{})
	o.publishTrades()
	o.setSelected(domain.NotInitiated())
	o.streams.Refresh.Publish(domain.RefreshStopped)
}

// startRound supersedes the current round and races the request. Callers hold o.mu.
func (o *Orchestrator) startRound(t trigger) {
	o.roundID++

	if !t.req.Filled() {
		o.logger.Debug(o.ctx, "calculation stopped, form incomplete", "round", o.roundID)
		o.halt()
		return
	}

	round := domain.Round{
		ID:        o.roundID,
		Request:   t.req,
		Type:      t.req.Type(),
		Forced:    t.forced,
		StartedAt: time.Now(),
	}

	o.running = true
	o.streams.Refresh.Publish(domain.RefreshRefreshing)
	o.setProgress(domain.Progress{Total: 1, Calculated: 0})
	if t.forced {
		o.store.Reset()
		o.publishTrades()
		o.selected = domain.NotInitiated()
	}
	loading := o.selected
	loading.Status = domain.StatusLoading
	o.setSelected(loading)

	o.metrics.roundsStarted.Add(o.ctx, 1, metric.WithAttributes(
		attribute.String("swap_type", string(round.Type)),
		attribute.Bool("forced", round.Forced),
	))
	o.logger.Info(o.ctx, "calculation round started",
		"round", round.ID,
		"from", t.req.FromAsset.String(),
		"to", t.req.ToAsset.String(),
		"amount", t.req.Amount.String(),
		"type", round.Type,
		"forced", round.Forced,
	)

	outcomes := o.engine.Race(o.ctx, round, o.disabled, o.owner())
	go o.consume(round, outcomes)
}

func (o *Orchestrator) consume(round domain.Round, outcomes <-chan domain.Outcome) {
	received := 0
	for out := range outcomes {
		received++
		o.apply(round, out)
	}
	if received == 0 {
		o.finishEmpty(round)
	}
}

// apply merges an outcome if it belongs to the current round.
func (o *Orchestrator) apply(round domain.Round, out domain.Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if out.RoundID != o.roundID {
		o.metrics.staleDropped.Add(o.ctx, 1, metric.WithAttributes(providerAttr(out.Provider)))
		o.logger.Debug(o.ctx, "dropping stale outcome",
			"round", out.RoundID, "current", o.roundID, "provider", out.Provider)
		return
	}

	o.store.Apply(out, round.Type)
	o.setProgress(out.Progress)
	o.publishTrades()
	o.setSelected(SelectBest(o.store.Candidates(), o.progress))

	if out.Progress.Done() {
		o.running = false
		o.streams.Refresh.Publish(domain.RefreshStopped)
		o.logger.Info(o.ctx, "calculation round complete",
			"round", round.ID,
			"candidates", o.store.Len(),
			"best", o.selected.Provider,
			"status", o.selected.Status,
		)
	}
}

// finishEmpty completes a round in which no provider was invoked.
func (o *Orchestrator) finishEmpty(round domain.Round) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if round.ID != o.roundID {
		return
	}
	o.logger.Warn(o.ctx, "no enabled providers for round",
		"round", round.ID, "type", round.Type, "disabled", o.disabled.List(round.Type))

	o.running = false
	o.store.Reset()
	o.setProgress(domain.Progress{})
	o.publishTrades()
	o.setSelected(SelectBest(nil, o.progress))
	o.streams.Refresh.Publish(domain.RefreshStopped)
}

// SelectTrade makes the candidate of provider p the current trade.
func (o *Orchestrator) SelectTrade(p domain.ProviderType) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	st, ok := SelectProvider(o.store.Candidates(), p)
	if !ok {
		return apperror.New(apperror.CodeNotFound, apperror.WithContext(string(p)))
	}
	o.setSelected(st)
	return nil
}

// DisableProvider excludes p from every later round of type t in this session.
func (o *Orchestrator) DisableProvider(t domain.SwapType, p domain.ProviderType) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.disabled.Contains(t, p) {
		return
	}
	o.disabled = o.disabled.With(t, p)
	o.metrics.providersDisabled.Add(o.ctx, 1, metric.WithAttributes(providerAttr(p)))
	o.logger.Warn(o.ctx, "provider disabled for session", "provider", p, "type", t)
}

// Disabled returns the current disabled-provider registry.
func (o *Orchestrator) Disabled() domain.DisabledProviders {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.disabled
}

// ResetSession re-enables every provider.
func (o *Orchestrator) ResetSession() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.disabled = domain.NewDisabledProviders()
}

// Selected returns the current trade.
func (o *Orchestrator) Selected() domain.SelectedTrade {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.selected
}

// Request returns the last request passed to OnInputChanged.
func (o *Orchestrator) Request() domain.SwapRequest {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.request
}

// Running reports whether the current round is still collecting outcomes.
func (o *Orchestrator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// RoundID returns the id of the current round.
func (o *Orchestrator) RoundID() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.roundID
}

func (o *Orchestrator) setProgress(p domain.Progress) {
	o.progress = p
	o.streams.Progress.Publish(p)
}

func (o *Orchestrator) publishTrades() {
	o.streams.Trades.Publish(Rank(o.store.Candidates()))
}

func (o *Orchestrator) setSelected(st domain.SelectedTrade) {
	o.selected = st
	o.streams.Selected.Publish(st)
	if st.Trade != nil {
		o.streams.OutputAmount.Publish(st.Trade.To)
	}
}
