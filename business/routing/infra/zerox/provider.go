// Package zerox quotes same-chain swaps through the 0x Swap API (allowance-holder flow).
package zerox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/swap-router/business/routing/app"
	"github.com/fd1az/swap-router/business/routing/domain"
	"github.com/fd1az/swap-router/internal/asset"
	"github.com/fd1az/swap-router/internal/circuitbreaker"
	"github.com/fd1az/swap-router/internal/httpclient"
	"github.com/fd1az/swap-router/internal/logger"
	"github.com/fd1az/swap-router/internal/ratelimit"
)

const (
	tracerName = "zerox"

	quotePath   = "/swap/allowance-holder/quote"
	nativeToken = "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"
	apiVersion  = "v2"

	estimatedDuration = 15 * time.Second
)

var _ app.Provider = (*Provider)(nil)

// Config holds 0x API settings.
type Config struct {
	BaseURL           string
	APIKey            string
	RequestsPerMinute int
	Timeout           time.Duration
	SlippageBps       int
}

// Provider implements app.Provider against the 0x Swap API.
type Provider struct {
	client   *httpclient.Client
	owner    func() string
	slippage string
	logger   logger.LoggerInterface
	cb       *circuitbreaker.CircuitBreaker[*quoteResponse]
	tracer   trace.Tracer
}

// NewProvider creates a 0x provider. owner returns the taker address.
func NewProvider(cfg Config, owner func() string, log logger.LoggerInterface) (*Provider, error) {
	tracer := otel.Tracer(tracerName)

	client, err := httpclient.New(httpclient.Config{
		Provider: tracerName,
		BaseURL:  cfg.BaseURL,
		Timeout:  cfg.Timeout,
		Limiter:  ratelimit.PerMinute(tracerName, cfg.RequestsPerMinute),
		Headers: map[string]string{
			"0x-api-key": cfg.APIKey,
			"0x-version": apiVersion,
		},
		Tracer: tracer,
	})
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	cbCfg := circuitbreaker.DefaultConfig("zerox-quote")
	cbCfg.IsSuccessful = isTransportHealthy

	return &Provider{
		client:   client,
		owner:    owner,
		slippage: strconv.Itoa(cfg.SlippageBps),
		logger:   log,
		cb:       circuitbreaker.New[*quoteResponse](cbCfg.Logged(log)),
		tracer:   tracer,
	}, nil
}

// Type implements app.Provider.
func (p *Provider) Type() domain.ProviderType {
	return domain.ProviderZeroX
}

// SwapType implements app.Provider.
func (p *Provider) SwapType() domain.SwapType {
	return domain.SwapTypeInstantTrade
}

// Calculate requests a firm quote; the returned transaction is ready to send.
func (p *Provider) Calculate(ctx context.Context, req domain.SwapRequest) (*domain.Trade, error) {
	chainID := req.FromBlockchain().ChainID()
	if !req.FromBlockchain().IsEVM() || req.IsCrossChain() || chainID == 0 {
		return nil, fmt.Errorf("%w: 0x quotes only same-chain EVM pairs", domain.ErrNotSupportedTokens)
	}

	amountIn, err := req.FromAmount()
	if err != nil {
		return nil, err
	}
	if !amountIn.IsPositive() {
		return nil, domain.ErrTooLowAmount
	}

	ctx, span := p.tracer.Start(ctx, "zerox.get_quote",
		trace.WithAttributes(
			attribute.String("sell_token", req.FromAsset.Symbol()),
			attribute.String("buy_token", req.ToAsset.Symbol()),
			attribute.String("sell_amount", amountIn.Raw().String()),
		),
	)
	defer span.End()

	params := url.Values{
		"chainId":     {strconv.FormatUint(chainID, 10)},
		"sellToken":   {tokenParam(req.FromAsset)},
		"buyToken":    {tokenParam(req.ToAsset)},
		"sellAmount":  {amountIn.Raw().String()},
		"slippageBps": {p.slippage},
	}
	if taker := p.owner(); taker != "" {
		params.Set("taker", taker)
	}

	resp, err := p.cb.Execute(func() (*quoteResponse, error) {
		var out quoteResponse
		if err := p.client.GetJSON(ctx, quotePath, params, &out, mapError); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "quote failed")
		return nil, err
	}

	trade, err := p.toTrade(req, amountIn, resp)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid quote")
		return nil, err
	}

	span.SetAttributes(attribute.String("buy_amount", resp.BuyAmount))
	span.SetStatus(codes.Ok, "quote received")

	p.logger.Debug(ctx, "zerox quote",
		"sell", amountIn.String(),
		"buy", trade.To.String(),
		"sources", strings.Join(trade.Route, ","),
	)

	return trade, nil
}

func (p *Provider) toTrade(req domain.SwapRequest, amountIn asset.Amount, resp *quoteResponse) (*domain.Trade, error) {
	if !resp.LiquidityAvailable {
		return nil, fmt.Errorf("%w: insufficient liquidity", domain.ErrNoAvailableRoutes)
	}

	buy, ok := new(big.Int).SetString(resp.BuyAmount, 10)
	if !ok || buy.Sign() <= 0 {
		return nil, fmt.Errorf("zerox: invalid buyAmount %q", resp.BuyAmount)
	}

	fee := asset.Zero(req.ToAsset)
	if resp.Fees.ZeroExFee != nil && strings.EqualFold(resp.Fees.ZeroExFee.Token, tokenParam(req.ToAsset)) {
		if raw, ok := new(big.Int).SetString(resp.Fees.ZeroExFee.Amount, 10); ok {
			fee = asset.NewAmount(req.ToAsset, raw)
		}
	}

	trade := &domain.Trade{
		Provider:          domain.ProviderZeroX,
		Type:              domain.SwapTypeInstantTrade,
		From:              amountIn,
		To:                asset.NewAmount(req.ToAsset, buy),
		Fee:               fee,
		Route:             resp.sources(),
		EstimatedDuration: estimatedDuration,
		Quote:             resp.MinBuyAmount,
	}

	if resp.Issues.Allowance != nil && !req.FromAsset.IsNative() {
		trade.Spender = resp.Issues.Allowance.Spender
	}

	if resp.Transaction != nil && resp.Transaction.To != "" {
		tx, err := resp.Transaction.toRequest()
		if err != nil {
			return nil, err
		}
		trade.Tx = tx
		if trade.Spender == "" && !req.FromAsset.IsNative() {
			trade.Spender = resp.Transaction.To
		}
	}

	return trade, nil
}

func tokenParam(a *asset.Asset) string {
	if a.IsNative() {
		return nativeToken
	}
	return a.Address()
}

// mapError turns 0x error payloads into routing sentinels.
func mapError(status int, body []byte) error {
	if status < http.StatusBadRequest {
		return nil
	}

	var apiErr errorResponse
	_ = json.Unmarshal(body, &apiErr)
	msg := apiErr.Message
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}

	switch {
	case apiErr.Name == "TOKEN_NOT_SUPPORTED":
		return fmt.Errorf("%w: %s", domain.ErrNotSupportedTokens, msg)
	case apiErr.Name == "INSUFFICIENT_LIQUIDITY", apiErr.Name == "NO_ROUTE":
		return fmt.Errorf("%w: %s", domain.ErrNoAvailableRoutes, msg)
	case apiErr.Name == "SELL_AMOUNT_TOO_SMALL":
		return fmt.Errorf("%w: %s", domain.ErrTooLowAmount, msg)
	}
	return &statusError{status: status, message: msg}
}

type statusError struct {
	status  int
	message string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("zerox: status %d: %s", e.status, e.message)
}

// isTransportHealthy counts business rejections as successes for the breaker.
func isTransportHealthy(err error) bool {
	var se *statusError
	switch {
	case err == nil:
		return true
	case errors.As(err, &se):
		return se.status < http.StatusInternalServerError && se.status != http.StatusTooManyRequests
	default:
		return errors.Is(err, domain.ErrNotSupportedTokens) ||
			errors.Is(err, domain.ErrNoAvailableRoutes) ||
			errors.Is(err, domain.ErrTooLowAmount)
	}
}
