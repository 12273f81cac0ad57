// Package lifi quotes cross-chain routes through the LI.FI aggregation API.
package lifi

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

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
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
	tracerName = "lifi"

	quotePath = "/quote"

	evmNative    = "0x0000000000000000000000000000000000000000"
	solanaNative = "11111111111111111111111111111111"
)

// LI.FI error codes we map onto routing errors.
const (
	codeNoQuote     = 1002
	codeNotFound    = 1003
	codeRateLimit   = 1005
	codeServerError = 1006
	codeSlippage    = 1007
	codeValidation  = 1011
)

var chainIDs = map[asset.Blockchain]uint64{
	asset.BlockchainEthereum: 1,
	asset.BlockchainPolygon:  137,
	asset.BlockchainArbitrum: 42161,
	asset.BlockchainOptimism: 10,
	asset.BlockchainBase:     8453,
	asset.BlockchainBSC:      56,
	asset.BlockchainSolana:   1151111081099710,
}

var _ app.Provider = (*Provider)(nil)

// Config holds LI.FI API settings.
type Config struct {
	BaseURL           string
	Integrator        string
	RequestsPerMinute int
	Timeout           time.Duration
	Slippage          decimal.Decimal
}

// Provider implements app.Provider for cross-chain routes.
type Provider struct {
	client     *httpclient.Client
	owner      func() string
	integrator string
	slippage   string
	logger     logger.LoggerInterface
	cb         *circuitbreaker.CircuitBreaker[*quoteResponse]
	tracer     trace.Tracer
}

// NewProvider creates a LI.FI provider. owner returns the sending wallet address.
func NewProvider(cfg Config, owner func() string, log logger.LoggerInterface) (*Provider, error) {
	tracer := otel.Tracer(tracerName)

	client, err := httpclient.New(httpclient.Config{
		Provider:    tracerName,
		BaseURL:     cfg.BaseURL,
		Timeout:     cfg.Timeout,
		Limiter:     ratelimit.PerMinute(tracerName, cfg.RequestsPerMinute),
		TraceBodies: true,
		Tracer:      tracer,
	})
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	cbCfg := circuitbreaker.DefaultConfig("lifi-quote")
	cbCfg.IsSuccessful = func(err error) bool {
		var ae *apiError
		if errors.As(err, &ae) {
			return ae.Code != codeRateLimit && ae.Code != codeServerError && ae.Status < http.StatusInternalServerError
		}
		return err == nil || isRoutingError(err)
	}

	return &Provider{
		client:     client,
		owner:      owner,
		integrator: cfg.Integrator,
		slippage:   cfg.Slippage.String(),
		logger:     log,
		cb:         circuitbreaker.New[*quoteResponse](cbCfg.Logged(log)),
		tracer:     tracer,
	}, nil
}

// Type implements app.Provider.
func (p *Provider) Type() domain.ProviderType {
	return domain.ProviderLiFi
}

// SwapType implements app.Provider.
func (p *Provider) SwapType() domain.SwapType {
	return domain.SwapTypeCrossChain
}

// Calculate requests a single-step quote with a ready-to-send source transaction.
func (p *Provider) Calculate(ctx context.Context, req domain.SwapRequest) (*domain.Trade, error) {
	fromChain, ok := chainIDs[req.FromBlockchain()]
	if !ok || !req.FromBlockchain().IsEVM() {
		return nil, fmt.Errorf("%w: lifi cannot send from %s", domain.ErrCrossChainUnavailable, req.FromBlockchain())
	}
	toChain, ok := chainIDs[req.ToBlockchain()]
	if !ok {
		return nil, fmt.Errorf("%w: lifi cannot deliver to %s", domain.ErrCrossChainUnavailable, req.ToBlockchain())
	}

	sender := p.owner()
	if sender == "" {
		return nil, domain.ErrWalletNotConnected
	}
	receiver, err := receiverFor(req, sender)
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

	ctx, span := p.tracer.Start(ctx, "lifi.get_quote",
		trace.WithAttributes(
			attribute.Int64("from_chain", int64(fromChain)),
			attribute.Int64("to_chain", int64(toChain)),
			attribute.String("from_token", req.FromAsset.Symbol()),
			attribute.String("to_token", req.ToAsset.Symbol()),
		),
	)
	defer span.End()

	params := url.Values{
		"fromChain":   {strconv.FormatUint(fromChain, 10)},
		"toChain":     {strconv.FormatUint(toChain, 10)},
		"fromToken":   {tokenParam(req.FromAsset)},
		"toToken":     {tokenParam(req.ToAsset)},
		"fromAmount":  {amountIn.Raw().String()},
		"fromAddress": {sender},
		"toAddress":   {receiver},
		"slippage":    {p.slippage},
		"integrator":  {p.integrator},
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

	trade, err := toTrade(req, amountIn, resp)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid quote")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("tool", resp.Tool),
		attribute.String("to_amount", resp.Estimate.ToAmount),
	)
	span.SetStatus(codes.Ok, "quote received")

	p.logger.Debug(ctx, "lifi quote",
		"tool", resp.Tool,
		"from", amountIn.String(),
		"to", trade.To.String(),
		"duration", trade.EstimatedDuration,
	)

	return trade, nil
}

func toTrade(req domain.SwapRequest, amountIn asset.Amount, resp *quoteResponse) (*domain.Trade, error) {
	out, ok := new(big.Int).SetString(resp.Estimate.ToAmount, 10)
	if !ok || out.Sign() <= 0 {
		return nil, fmt.Errorf("lifi: invalid toAmount %q", resp.Estimate.ToAmount)
	}

	trade := &domain.Trade{
		Provider:          domain.ProviderLiFi,
		Type:              domain.SwapTypeCrossChain,
		From:              amountIn,
		To:                asset.NewAmount(req.ToAsset, out),
		Fee:               resp.feeIn(req.ToAsset),
		Route:             resp.tools(),
		EstimatedDuration: time.Duration(resp.Estimate.ExecutionDuration * float64(time.Second)),
		Quote:             resp.ID,
	}
	if !req.FromAsset.IsNative() {
		trade.Spender = resp.Estimate.ApprovalAddress
	}

	if tr := resp.TransactionRequest; tr != nil && tr.To != "" {
		tx, err := tr.toRequest()
		if err != nil {
			return nil, err
		}
		trade.Tx = tx
	}

	return trade, nil
}

// receiverFor picks the explicit receiver, falling back to the sender when
// both chains share an address family.
func receiverFor(req domain.SwapRequest, sender string) (string, error) {
	if req.ReceiverAddress != "" {
		if err := asset.ValidateAddress(req.ToBlockchain(), req.ReceiverAddress); err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrUnsupportedReceiverAddress, err)
		}
		return req.ReceiverAddress, nil
	}
	if req.ReceiverRequired() {
		return "", fmt.Errorf("%w: receiver required for %s", domain.ErrUnsupportedReceiverAddress, req.ToBlockchain())
	}
	return sender, nil
}

func tokenParam(a *asset.Asset) string {
	if !a.IsNative() {
		return a.Address()
	}
	if a.Blockchain() == asset.BlockchainSolana {
		return solanaNative
	}
	return evmNative
}

// mapError turns LI.FI error payloads into routing sentinels.
func mapError(status int, body []byte) error {
	if status < http.StatusBadRequest {
		return nil
	}

	ae := &apiError{Status: status}
	if err := json.Unmarshal(body, ae); err != nil || ae.Message == "" {
		ae.Message = strings.TrimSpace(string(body))
	}
	msg := strings.ToLower(ae.Message)

	switch {
	case ae.Code == codeNoQuote:
		return fmt.Errorf("%w: %s", domain.ErrNoAvailableRoutes, ae.Message)
	case ae.Code == codeSlippage:
		return fmt.Errorf("%w: %s", domain.ErrLowSlippage, ae.Message)
	case ae.Code == codeNotFound && strings.Contains(msg, "token"):
		return fmt.Errorf("%w: %s", domain.ErrNotSupportedTokens, ae.Message)
	case ae.Code == codeValidation && strings.Contains(msg, "toaddress"):
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedReceiverAddress, ae.Message)
	case strings.Contains(msg, "amount") && strings.Contains(msg, "too low"):
		return fmt.Errorf("%w: %s", domain.ErrTooLowAmount, ae.Message)
	}
	return ae
}

func isRoutingError(err error) bool {
	for _, target := range []error{
		domain.ErrNoAvailableRoutes,
		domain.ErrLowSlippage,
		domain.ErrNotSupportedTokens,
		domain.ErrUnsupportedReceiverAddress,
		domain.ErrTooLowAmount,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// decodeQuantity accepts both hex ("0x1a") and decimal quantities.
func decodeQuantity(s string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(0), nil
	}
	if strings.HasPrefix(s, "0x") {
		return hexutil.DecodeBig(s)
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid quantity %q", s)
	}
	return v, nil
}
