package app

import (
	"context"
	"time"

	"github.com/fd1az/swap-router/business/routing/domain"
	"github.com/fd1az/swap-router/internal/apperror"
	"github.com/fd1az/swap-router/internal/asset"
	"github.com/fd1az/swap-router/internal/logger"
	"github.com/fd1az/swap-router/internal/pubsub"
)

const balanceTimeout = 5 * time.Second

// ServiceConfig holds the routing timings.
type ServiceConfig struct {
	Debounce           time.Duration
	TradeStateDebounce time.Duration
	ProviderTimeout    time.Duration
	RefreshInterval    time.Duration
}

// Dependencies are the collaborators of the routing service. Only Providers is required.
type Dependencies struct {
	Providers []Provider
	Approvals ApprovalChecker
	Submitter TransactionSubmitter
	Prompt    ConfirmationPrompt
	Sink      ErrorSink
	Wallet    WalletConnector
}

// RoutingService is the facade the presentation layer talks to.
type RoutingService struct {
	engine  *RaceEngine
	orch    *Orchestrator
	exec    *Executor
	refresh *RefreshService
	wallet  WalletConnector
	streams *Streams
	logger  logger.LoggerInterface

	// TradeState is Selected debounced to avoid flicker.
	TradeState   *pubsub.Topic[domain.SelectedTrade]
	ActionButton *pubsub.Topic[domain.ActionState]
	Wallet       *pubsub.Topic[domain.WalletState]
	inputs       *pubsub.Topic[domain.SwapRequest]
}

// NewRoutingService wires the routing services together.
func NewRoutingService(cfg ServiceConfig, deps Dependencies, log logger.LoggerInterface) (*RoutingService, error) {
	engine, err := NewRaceEngine(deps.Providers, deps.Approvals, cfg.ProviderTimeout, log)
	if err != nil {
		return nil, err
	}

	s := &RoutingService{
		engine:  engine,
		wallet:  deps.Wallet,
		streams: NewStreams(),
		logger:  log,
		ActionButton: pubsub.NewTopicWith(domain.ActionState{
			Kind:    domain.ActionKindError,
			Label:   domain.LabelSelectTokens,
			Handler: domain.HandlerNone,
		}),
		Wallet: pubsub.NewTopicWith(domain.WalletState{}),
		inputs: pubsub.NewTopicWith(domain.SwapRequest{}),
	}

	s.orch, err = NewOrchestrator(engine, s.streams, cfg.Debounce, s.owner, log)
	if err != nil {
		return nil, err
	}
	s.exec, err = NewExecutor(deps.Submitter, deps.Prompt, deps.Sink, s.orch, s.streams, log)
	if err != nil {
		return nil, err
	}
	s.refresh = NewRefreshService(s.orch, cfg.RefreshInterval, log)

	// Exits when Selected is closed.
	s.TradeState = pubsub.Debounce(context.Background(), s.streams.Selected, cfg.TradeStateDebounce)
	return s, nil
}

// Start runs the refresh loop and action-button derivation until ctx is done.
func (s *RoutingService) Start(ctx context.Context) {
	s.orch.Start(ctx)
	s.Wallet.Publish(s.walletState())
	go s.refresh.Run(ctx)
	go s.watchAction(ctx)
	s.logger.Info(ctx, "routing service started", "providers", len(s.engine.providers))
}

// Close stops calculation and closes every stream.
func (s *RoutingService) Close() {
	s.orch.Stop()
	s.streams.Close()
	s.ActionButton.Close()
	s.Wallet.Close()
	s.inputs.Close()
}

// Streams exposes the raw state topics.
func (s *RoutingService) Streams() *Streams {
	return s.streams
}

// Orchestrator exposes the calculation orchestrator.
func (s *RoutingService) Orchestrator() *Orchestrator {
	return s.orch
}

// SetInput records a new form state and recalculates.
func (s *RoutingService) SetInput(req domain.SwapRequest) {
	s.inputs.Publish(req)
	s.orch.OnInputChanged(req)
}

// OnWalletChanged republishes the wallet state and re-quotes a filled form.
func (s *RoutingService) OnWalletChanged() {
	s.Wallet.Publish(s.walletState())
	if s.orch.Request().Filled() {
		s.orch.Recalculate(false)
	}
}

// OnSettingsChanged forces a recalculation, e.g. after a slippage change.
func (s *RoutingService) OnSettingsChanged() {
	s.orch.Recalculate(true)
}

// Refresh re-quotes the current form without clearing candidates.
func (s *RoutingService) Refresh() {
	s.orch.OnExternalRefresh()
}

// SelectTrade makes a specific provider's candidate current.
func (s *RoutingService) SelectTrade(p domain.ProviderType) error {
	return s.orch.SelectTrade(p)
}

// InvokeAction runs the handler of the current action button.
func (s *RoutingService) InvokeAction(ctx context.Context) error {
	action, _ := s.ActionButton.Latest()
	switch action.Handler {
	case domain.HandlerConnectWallet:
		return apperror.New(apperror.CodeWalletNotConnected)
	case domain.HandlerPreview:
		s.streams.Page.Publish(domain.PagePreview)
	case domain.HandlerCNPreview:
		s.streams.Page.Publish(domain.PageCNPreview)
	default:
		return apperror.New(apperror.CodeInvalidState, apperror.WithMessage(action.Label))
	}
	s.logger.Debug(ctx, "action invoked", "handler", action.Handler)
	return nil
}

// Execute approves if needed and swaps the current trade.
func (s *RoutingService) Execute(ctx context.Context, cb Callbacks) error {
	st := s.orch.Selected()
	if !st.Ready() {
		return apperror.New(apperror.CodeInvalidState, apperror.WithContext(string(st.Status)))
	}
	return s.exec.Execute(ctx, st, cb)
}

// Approve approves the current trade.
func (s *RoutingService) Approve(ctx context.Context, cb Callbacks) error {
	return s.exec.Approve(ctx, s.orch.Selected(), cb)
}

// Swap swaps the current trade.
func (s *RoutingService) Swap(ctx context.Context, cb Callbacks) error {
	return s.exec.Swap(ctx, s.orch.Selected(), cb)
}

// Quote races req once outside the orchestrated session and returns ranked candidates.
func (s *RoutingService) Quote(ctx context.Context, req domain.SwapRequest) ([]domain.Candidate, error) {
	if !req.Filled() {
		return nil, apperror.New(apperror.CodeInvalidInput, apperror.WithContext("incomplete swap request"))
	}

	round := domain.Round{Request: req, Type: req.Type(), StartedAt: time.Now()}
	store := NewCandidateStore()
	for out := range s.engine.Race(ctx, round, s.orch.Disabled(), s.owner()) {
		store.Apply(out, round.Type)
	}
	return Rank(store.Candidates()), nil
}

// HealthCheck reports the orchestrator state for the health server.
func (s *RoutingService) HealthCheck(context.Context) (bool, string) {
	if s.orch.Running() {
		return true, "calculating"
	}
	return true, string(s.orch.Selected().Status)
}

func (s *RoutingService) owner() string {
	if s.wallet == nil {
		return ""
	}
	return s.wallet.Address()
}

func (s *RoutingService) walletState() domain.WalletState {
	if s.wallet == nil {
		return domain.WalletState{}
	}
	return domain.WalletState{Address: s.wallet.Address(), Network: s.wallet.Network()}
}

func (s *RoutingService) watchAction(ctx context.Context) {
	trades := s.TradeState.Subscribe(1)
	wallets := s.Wallet.Subscribe(1)
	inputs := s.inputs.Subscribe(1)
	defer trades.Unsubscribe()
	defer wallets.Unsubscribe()
	defer inputs.Unsubscribe()

	var (
		st     = domain.NotInitiated()
		wallet domain.WalletState
		req    domain.SwapRequest
	)
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-trades.C():
			if !ok {
				return
			}
			st = v
		case v, ok := <-wallets.C():
			if !ok {
				return
			}
			wallet = v
		case v, ok := <-inputs.C():
			if !ok {
				return
			}
			req = v
		}
		s.ActionButton.Publish(ResolveAction(s.actionInput(ctx, st, wallet, req)))
	}
}

func (s *RoutingService) actionInput(ctx context.Context, st domain.SelectedTrade, w domain.WalletState, req domain.SwapRequest) ActionInput {
	required := req.ReceiverRequired()
	valid := !required
	if req.ReceiverAddress != "" {
		valid = asset.IsValidAddress(req.ToBlockchain(), req.ReceiverAddress)
	}

	return ActionInput{
		Trade:               st,
		WrongNetwork:        w.Connected() && req.FromAsset != nil && w.Network != req.FromBlockchain(),
		InsufficientBalance: s.insufficientBalance(ctx, w, req),
		WalletConnected:     w.Connected(),
		ReceiverValid:       valid,
		ReceiverRequired:    required,
		ReceiverAddress:     req.ReceiverAddress,
	}
}

// insufficientBalance is false whenever it cannot be determined.
func (s *RoutingService) insufficientBalance(ctx context.Context, w domain.WalletState, req domain.SwapRequest) bool {
	if s.wallet == nil || !w.Connected() || req.FromAsset == nil || !req.Amount.IsPositive() {
		return false
	}
	if w.Network.Family() != req.FromBlockchain().Family() {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, balanceTimeout)
	defer cancel()

	balance, err := s.wallet.Balance(ctx, req.FromAsset)
	if err != nil {
		s.logger.Debug(ctx, "balance lookup failed", "asset", req.FromAsset.String(), "error", err)
		return false
	}
	need, err := req.FromAmount()
	if err != nil {
		return false
	}
	exceeds, err := need.GreaterThan(balance)
	return err == nil && exceeds
}
