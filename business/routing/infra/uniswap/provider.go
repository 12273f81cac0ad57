// Package uniswap quotes same-chain swaps against Uniswap V3 pools and builds SwapRouter02 calldata.
package uniswap

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/swap-router/business/routing/app"
	"github.com/fd1az/swap-router/business/routing/domain"
	"github.com/fd1az/swap-router/internal/apperror"
	"github.com/fd1az/swap-router/internal/asset"
	"github.com/fd1az/swap-router/internal/circuitbreaker"
	"github.com/fd1az/swap-router/internal/logger"
)

const (
	tracerName = "uniswap"

	estimatedDuration = 15 * time.Second
)

var _ app.Provider = (*Provider)(nil)

// Config selects the chain and contracts the provider quotes against.
type Config struct {
	Chain          asset.Blockchain
	Quoter         string
	Router         string
	WrappedNative  string
	DefaultFeeTier int
	SlippageBps    int
}

// Quote is the provider state attached to a trade.
type Quote struct {
	FeeTier     int
	GasEstimate uint64
	MinOut      *big.Int
}

// Provider implements app.Provider for Uniswap V3.
type Provider struct {
	caller   ethereum.ContractCaller
	chain    asset.Blockchain
	quoter   common.Address
	router   common.Address
	wrapped  common.Address
	feeTiers []int
	slippage int64
	owner    func() string

	logger logger.LoggerInterface
	cb     *circuitbreaker.CircuitBreaker[[]byte]
	tracer trace.Tracer

	quotes  metric.Int64Counter
	latency metric.Float64Histogram
}

// NewProvider creates a Uniswap V3 provider. owner returns the connected wallet
// address used as swap recipient; calldata is only built when it is set.
func NewProvider(caller ethereum.ContractCaller, cfg Config, owner func() string, log logger.LoggerInterface) (*Provider, error) {
	meter := otel.Meter(tracerName)
	quotes, err := meter.Int64Counter("uniswap_quotes_total",
		metric.WithDescription("Quote rounds by outcome"))
	if err != nil {
		return nil, fmt.Errorf("uniswap metrics: %w", err)
	}
	latency, err := meter.Float64Histogram("uniswap_quote_latency_ms",
		metric.WithDescription("Time to quote every fee tier"), metric.WithUnit("ms"))
	if err != nil {
		return nil, fmt.Errorf("uniswap metrics: %w", err)
	}

	breaker := circuitbreaker.DefaultConfig("uniswap-quoter")
	// Missing pools revert; only transport failures count against the node.
	breaker.IsSuccessful = func(err error) bool { return err == nil || isRevert(err) }

	return &Provider{
		caller:   caller,
		chain:    cfg.Chain,
		quoter:   common.HexToAddress(cfg.Quoter),
		router:   common.HexToAddress(cfg.Router),
		wrapped:  common.HexToAddress(cfg.WrappedNative),
		feeTiers: feeTiers(cfg.DefaultFeeTier),
		slippage: int64(cfg.SlippageBps),
		owner:    owner,
		logger:   log,
		cb:       circuitbreaker.New[[]byte](breaker.Logged(log)),
		tracer:   otel.Tracer(tracerName),
		quotes:   quotes,
		latency:  latency,
	}, nil
}

func (p *Provider) Type() domain.ProviderType { return domain.ProviderUniswapV3 }
func (p *Provider) SwapType() domain.SwapType { return domain.SwapTypeInstantTrade }

// Calculate quotes every fee tier and keeps the pool with the highest output.
func (p *Provider) Calculate(ctx context.Context, req domain.SwapRequest) (*domain.Trade, error) {
	if req.FromBlockchain() != p.chain || req.ToBlockchain() != p.chain {
		return nil, fmt.Errorf("%w: uniswap quotes only on %s", domain.ErrNotSupportedTokens, p.chain)
	}
	amountIn, err := req.FromAmount()
	if err != nil {
		return nil, err
	}
	if !amountIn.IsPositive() {
		return nil, domain.ErrTooLowAmount
	}

	tokenIn, tokenOut := p.tokenAddress(req.FromAsset), p.tokenAddress(req.ToAsset)
	if tokenIn == tokenOut {
		return nil, fmt.Errorf("%w: %s and %s share a pool token", domain.ErrNotSupportedTokens,
			req.FromAsset.Symbol(), req.ToAsset.Symbol())
	}

	ctx, span := p.tracer.Start(ctx, "uniswap.quote", trace.WithAttributes(
		attribute.String("pair", req.FromAsset.Symbol()+"/"+req.ToAsset.Symbol()),
		attribute.String("amount_in", amountIn.Raw().String()),
	))
	defer span.End()

	start := time.Now()
	best, found := p.bestPool(ctx, span, tokenIn, tokenOut, amountIn.Raw())
	p.latency.Record(ctx, float64(time.Since(start).Milliseconds()))

	if !found {
		p.quotes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "no_pool")))
		span.SetStatus(codes.Error, "no pool")
		return nil, apperror.New(apperror.CodeNoAvailableRoutes,
			apperror.WithCause(domain.ErrNoAvailableRoutes),
			apperror.WithContext("no pool found for token pair"))
	}

	out := asset.NewAmount(req.ToAsset, best.amountOut)
	minOut := out.LessBps(p.slippage).Raw()

	trade := &domain.Trade{
		Provider:          domain.ProviderUniswapV3,
		Type:              domain.SwapTypeInstantTrade,
		From:              amountIn,
		To:                out,
		Fee:               asset.Zero(req.ToAsset),
		Route:             []string{req.FromAsset.Symbol(), feeLabel(best.fee), req.ToAsset.Symbol()},
		EstimatedDuration: estimatedDuration,
		Quote:             Quote{FeeTier: best.fee, GasEstimate: best.gas, MinOut: minOut},
	}
	if !req.FromAsset.IsNative() {
		trade.Spender = p.router.Hex()
	}

	if owner := p.owner(); owner != "" {
		trade.Tx, err = p.buildSwap(common.HexToAddress(owner), tokenIn, tokenOut, best.fee,
			amountIn.Raw(), minOut, req.FromAsset.IsNative(), req.ToAsset.IsNative())
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	p.quotes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "ok")))
	span.SetAttributes(attribute.Int("fee_tier", best.fee), attribute.String("amount_out", best.amountOut.String()))
	span.SetStatus(codes.Ok, "")
	p.logger.Debug(ctx, "uniswap quote", "out", out.String(), "fee_tier", best.fee, "gas", best.gas)
	return trade, nil
}

// bestPool quotes each tier in order. Tiers that revert or fail are skipped.
func (p *Provider) bestPool(ctx context.Context, span trace.Span, tokenIn, tokenOut common.Address, amountIn *big.Int) (poolQuote, bool) {
	var best poolQuote
	for _, fee := range p.feeTiers {
		q, err := p.quotePool(ctx, tokenIn, tokenOut, amountIn, fee)
		if err != nil {
			span.AddEvent("pool_skipped", trace.WithAttributes(
				attribute.Int("fee_tier", fee),
				attribute.String("error", err.Error()),
			))
			continue
		}
		if best.amountOut == nil || q.amountOut.Cmp(best.amountOut) > 0 {
			best = q
		}
	}
	return best, best.amountOut != nil && best.amountOut.Sign() > 0
}

func (p *Provider) quotePool(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int, fee int) (poolQuote, error) {
	data, err := packQuote(tokenIn, tokenOut, amountIn, fee)
	if err != nil {
		return poolQuote{}, fmt.Errorf("encode quote: %w", err)
	}
	raw, err := p.cb.Execute(func() ([]byte, error) {
		return p.caller.CallContract(ctx, ethereum.CallMsg{To: &p.quoter, Data: data}, nil)
	})
	if err != nil {
		return poolQuote{}, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err), apperror.WithContext(fmt.Sprintf("quoter, fee tier %d", fee)))
	}
	return unpackQuote(fee, raw)
}

// buildSwap encodes exactInputSingle. Native output goes to the router first
// and is unwrapped to the owner in the same multicall.
func (p *Provider) buildSwap(owner, tokenIn, tokenOut common.Address, fee int, amountIn, minOut *big.Int, nativeIn, nativeOut bool) (*domain.TxRequest, error) {
	recipient := owner
	if nativeOut {
		recipient = addressThis
	}
	data, err := routerABI.Pack("exactInputSingle", swapParams{
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		Fee:               big.NewInt(int64(fee)),
		Recipient:         recipient,
		AmountIn:          amountIn,
		AmountOutMinimum:  minOut,
		SqrtPriceLimitX96: new(big.Int),
	})
	if err != nil {
		return nil, fmt.Errorf("encode swap: %w", err)
	}

	if nativeOut {
		unwrap, err := routerABI.Pack("unwrapWETH9", minOut, owner)
		if err != nil {
			return nil, fmt.Errorf("encode unwrap: %w", err)
		}
		if data, err = routerABI.Pack("multicall", [][]byte{data, unwrap}); err != nil {
			return nil, fmt.Errorf("encode multicall: %w", err)
		}
	}

	tx := &domain.TxRequest{To: p.router.Hex(), Data: data, Value: new(big.Int)}
	if nativeIn {
		tx.Value.Set(amountIn)
	}
	return tx, nil
}

// tokenAddress maps the native coin to its wrapped token, which is what pools hold.
func (p *Provider) tokenAddress(a *asset.Asset) common.Address {
	if a.IsNative() {
		return p.wrapped
	}
	return common.HexToAddress(a.Address())
}

// feeTiers puts the preferred tier first, then the rest from cheapest up.
func feeTiers(preferred int) []int {
	tiers := make([]int, 0, 5)
	for _, t := range []int{preferred, FeeTier001, FeeTier005, FeeTier030, FeeTier100} {
		if t > 0 && !containsInt(tiers, t) {
			tiers = append(tiers, t)
		}
	}
	return tiers
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func feeLabel(tier int) string {
	return fmt.Sprintf("%.2f%%", float64(tier)/10000)
}

func isRevert(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "execution reverted")
}
