// Package oneclick routes cross-chain swaps through NEAR Intents' 1Click API.
// Trades settle by transferring the source amount to a per-quote deposit
// address, which doubles as the off-chain correlation id.
package oneclick

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/swap-router/business/routing/app"
	"github.com/fd1az/swap-router/business/routing/domain"
	"github.com/fd1az/swap-router/internal/asset"
	"github.com/fd1az/swap-router/internal/cache"
	"github.com/fd1az/swap-router/internal/circuitbreaker"
	"github.com/fd1az/swap-router/internal/logger"
	"github.com/fd1az/swap-router/internal/ratelimit"
)

const (
	tracerName = "oneclick"

	tokensKey = "tokens"
)

// 1Click blockchain identifiers.
var chainNames = map[asset.Blockchain]string{
	asset.BlockchainEthereum: "eth",
	asset.BlockchainArbitrum: "arb",
	asset.BlockchainBase:     "base",
	asset.BlockchainPolygon:  "pol",
	asset.BlockchainOptimism: "op",
	asset.BlockchainBSC:      "bsc",
	asset.BlockchainSolana:   "sol",
	asset.BlockchainNear:     "near",
}

var _ app.Provider = (*Provider)(nil)

// Config holds 1Click settings.
type Config struct {
	BaseURL           string
	JWT               string
	RequestsPerMinute int
	Deadline          time.Duration
	TokenCacheTTL     time.Duration
	HTTPClient        *http.Client
}

// Quote is the provider state attached to a trade.
type Quote struct {
	OriginAsset      string
	DestinationAsset string
	Recipient        string
	RefundTo         string
}

// Provider implements app.Provider and prepares deposits at submission time.
type Provider struct {
	api      intentsAPI
	owner    func() string
	deadline time.Duration
	tokenTTL time.Duration
	tokens   *cache.Cache[string, []tokenInfo]
	limiter  *ratelimit.Limiter
	cb       *circuitbreaker.CircuitBreaker[*quoteResult]
	logger   logger.LoggerInterface
	tracer   trace.Tracer
	now      func() time.Time
}

// NewProvider creates a 1Click provider. owner returns the wallet address used for refunds.
func NewProvider(cfg Config, owner func() string, log logger.LoggerInterface) *Provider {
	return newProvider(newSDKClient(cfg.BaseURL, cfg.JWT, cfg.HTTPClient), cfg, owner, log)
}

func newProvider(api intentsAPI, cfg Config, owner func() string, log logger.LoggerInterface) *Provider {
	cbCfg := circuitbreaker.DefaultConfig("oneclick-quote")
	cbCfg.IsSuccessful = func(err error) bool {
		var se *statusError
		if errors.As(err, &se) {
			return se.Status < http.StatusInternalServerError && se.Status != http.StatusTooManyRequests
		}
		return err == nil
	}

	return &Provider{
		api:      api,
		owner:    owner,
		deadline: cfg.Deadline,
		tokenTTL: cfg.TokenCacheTTL,
		tokens:   cache.New[string, []tokenInfo](0),
		limiter:  ratelimit.PerMinute(tracerName, cfg.RequestsPerMinute),
		cb:       circuitbreaker.New[*quoteResult](cbCfg.Logged(log)),
		logger:   log,
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
}

// Type implements app.Provider.
func (p *Provider) Type() domain.ProviderType {
	return domain.ProviderOneClick
}

// SwapType implements app.Provider.
func (p *Provider) SwapType() domain.SwapType {
	return domain.SwapTypeCrossChain
}

// Calculate requests a dry quote. The deposit address is only issued by
// PrepareDeposit, right before the user sends funds.
func (p *Provider) Calculate(ctx context.Context, req domain.SwapRequest) (*domain.Trade, error) {
	ctx, span := p.tracer.Start(ctx, "oneclick.get_quote",
		trace.WithAttributes(
			attribute.String("from", req.FromAsset.String()),
			attribute.String("to", req.ToAsset.String()),
		),
	)
	defer span.End()

	if !req.FromBlockchain().IsEVM() {
		return nil, fmt.Errorf("%w: deposits are sent from EVM wallets only", domain.ErrCrossChainUnavailable)
	}

	refundTo := p.owner()
	if refundTo == "" {
		return nil, domain.ErrWalletNotConnected
	}
	recipient, err := receiverFor(req, refundTo)
	if err != nil {
		return nil, err
	}

	amountIn, err := req.FromAmount()
	if err != nil {
		return nil, err
	}
	if !amountIn.IsPositive() {
		return nil, domain.ErrTooLowAmount
	}

	origin, err := p.resolve(ctx, req.FromAsset)
	if err != nil {
		return nil, err
	}
	dest, err := p.resolve(ctx, req.ToAsset)
	if err != nil {
		return nil, err
	}

	quote := Quote{
		OriginAsset:      origin.AssetID,
		DestinationAsset: dest.AssetID,
		Recipient:        recipient,
		RefundTo:         refundTo,
	}

	res, err := p.quote(ctx, quote, amountIn, true)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "quote failed")
		return nil, err
	}

	out, err := parseAmount(req.ToAsset, res.AmountOut)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.String("amount_out", out.String()))
	span.SetStatus(codes.Ok, "quote received")

	return &domain.Trade{
		Provider:          domain.ProviderOneClick,
		Type:              domain.SwapTypeCrossChain,
		From:              amountIn,
		To:                out,
		Fee:               asset.Zero(req.ToAsset),
		Route:             []string{domain.BackendProviderName(domain.ProviderOneClick)},
		EstimatedDuration: time.Duration(res.TimeEstimate * float64(time.Second)),
		Caps:              domain.CapOffChainID | domain.CapRateRetry,
		Quote:             quote,
	}, nil
}

// PrepareDeposit requests a binding quote and returns the trade with its deposit
// address set. A lower output than quoted returns *domain.RateChangedError carrying
// the deposit address, so an accepted retry skips straight to the transfer.
func (p *Provider) PrepareDeposit(ctx context.Context, trade *domain.Trade) (*domain.Trade, error) {
	if trade.OffChainID != "" {
		return trade, nil
	}

	quote, ok := trade.Quote.(Quote)
	if !ok {
		return nil, fmt.Errorf("oneclick: trade carries no intents quote")
	}

	ctx, span := p.tracer.Start(ctx, "oneclick.prepare_deposit")
	defer span.End()

	res, err := p.quote(ctx, quote, trade.From, false)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "quote failed")
		return nil, err
	}
	if res.DepositAddress == "" {
		return nil, fmt.Errorf("oneclick: binding quote without deposit address")
	}

	out, err := parseAmount(trade.To.Asset(), res.AmountOut)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("deposit_address", res.DepositAddress),
		attribute.String("amount_out", out.String()),
	)

	if lower, _ := out.Cmp(trade.To); lower < 0 {
		span.AddEvent("rates_changed")
		p.logger.Info(ctx, "intents rate changed",
			"old", trade.To.String(),
			"new", out.String(),
			"deposit_address", res.DepositAddress,
		)
		return nil, &domain.RateChangedError{
			Provider: domain.ProviderOneClick,
			Update: domain.RateUpdate{
				Old:        trade.To,
				New:        out,
				Quote:      quote,
				OffChainID: res.DepositAddress,
			},
		}
	}

	prepared := *trade
	prepared.To = out
	prepared.OffChainID = res.DepositAddress
	span.SetStatus(codes.Ok, "deposit prepared")
	return &prepared, nil
}

// ConfirmDeposit tells 1Click which transaction funded the deposit address.
func (p *Provider) ConfirmDeposit(ctx context.Context, depositAddress, txHash string) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	return p.api.SubmitDeposit(ctx, depositAddress, txHash)
}

// Status returns the execution status of a deposit (PENDING_DEPOSIT, PROCESSING, SUCCESS, REFUNDED, ...).
func (p *Provider) Status(ctx context.Context, depositAddress string) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return p.api.Status(ctx, depositAddress)
}

// Close stops the token cache.
func (p *Provider) Close() error {
	p.tokens.Close()
	return nil
}

func (p *Provider) quote(ctx context.Context, q Quote, amount asset.Amount, dry bool) (*quoteResult, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	res, err := p.cb.Execute(func() (*quoteResult, error) {
		return p.api.Quote(ctx, quoteRequest{
			Dry:              dry,
			OriginAsset:      q.OriginAsset,
			DestinationAsset: q.DestinationAsset,
			Amount:           amount.Raw().String(),
			RefundTo:         q.RefundTo,
			Recipient:        q.Recipient,
			Deadline:         p.now().Add(p.deadline),
		})
	})
	if err != nil {
		return nil, mapError(err)
	}
	return res, nil
}

// resolve finds the 1Click asset id for a, using the cached token list.
func (p *Provider) resolve(ctx context.Context, a *asset.Asset) (tokenInfo, error) {
	chain, ok := chainNames[a.Blockchain()]
	if !ok {
		return tokenInfo{}, fmt.Errorf("%w: %s", domain.ErrCrossChainUnavailable, a.Blockchain())
	}

	tokens, err := p.tokenList(ctx)
	if err != nil {
		return tokenInfo{}, err
	}

	for _, t := range tokens {
		if !strings.EqualFold(t.Blockchain, chain) || t.Decimals != int(a.Decimals()) {
			continue
		}
		if a.IsNative() {
			if t.Contract == "" && strings.EqualFold(t.Symbol, a.Symbol()) {
				return t, nil
			}
			continue
		}
		if strings.EqualFold(t.Contract, a.Address()) {
			return t, nil
		}
	}
	return tokenInfo{}, fmt.Errorf("%w: %s not listed by 1click", domain.ErrNotSupportedTokens, a)
}

func (p *Provider) tokenList(ctx context.Context) ([]tokenInfo, error) {
	if tokens, ok := p.tokens.Get(ctx, tokensKey); ok {
		return tokens, nil
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	tokens, err := p.api.Tokens(ctx)
	if err != nil {
		return nil, err
	}
	p.tokens.Set(ctx, tokensKey, tokens, p.tokenTTL)
	p.logger.Debug(ctx, "1click token list refreshed", "count", len(tokens))
	return tokens, nil
}

func receiverFor(req domain.SwapRequest, fallback string) (string, error) {
	if req.ReceiverAddress != "" {
		if err := asset.ValidateAddress(req.ToBlockchain(), req.ReceiverAddress); err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrUnsupportedReceiverAddress, err)
		}
		return req.ReceiverAddress, nil
	}
	if req.ReceiverRequired() {
		return "", fmt.Errorf("%w: receiver required for %s", domain.ErrUnsupportedReceiverAddress, req.ToBlockchain())
	}
	return fallback, nil
}

func parseAmount(a *asset.Asset, formatted string) (asset.Amount, error) {
	d, err := decimal.NewFromString(formatted)
	if err != nil {
		return asset.Amount{}, fmt.Errorf("oneclick: invalid amount %q: %w", formatted, err)
	}
	if !d.IsPositive() {
		return asset.Amount{}, fmt.Errorf("%w: zero output", domain.ErrTooLowAmount)
	}
	return asset.FromDecimalTruncated(a, d)
}

// mapError turns 1Click rejections into routing sentinels.
func mapError(err error) error {
	var se *statusError
	if !errors.As(err, &se) {
		return err
	}
	msg := strings.ToLower(se.Message)
	switch {
	case strings.Contains(msg, "amount is too low"), strings.Contains(msg, "amount too low"):
		return fmt.Errorf("%w: %s", domain.ErrTooLowAmount, se.Message)
	case strings.Contains(msg, "recipient"):
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedReceiverAddress, se.Message)
	case strings.Contains(msg, "not supported"), strings.Contains(msg, "unknown asset"):
		return fmt.Errorf("%w: %s", domain.ErrNotSupportedTokens, se.Message)
	case strings.Contains(msg, "no route"), strings.Contains(msg, "failed to get quote"):
		return fmt.Errorf("%w: %s", domain.ErrNoAvailableRoutes, se.Message)
	}
	return err
}
