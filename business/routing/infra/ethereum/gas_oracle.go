// Package ethereum prices and sizes the transactions the wallet adapter sends.
package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/fd1az/swap-router/internal/apperror"
	"github.com/fd1az/swap-router/internal/cache"
	"github.com/fd1az/swap-router/internal/circuitbreaker"
	"github.com/fd1az/swap-router/internal/logger"
)

const (
	tracerName = "ethereum"
	priceKey   = "gas_price"
)

// Backend is the subset of ethclient.Client the oracle needs.
type Backend interface {
	ethereum.GasPricer
	ethereum.GasEstimator
}

type GasOracleConfig struct {
	// CacheTTL is about one block.
	CacheTTL time.Duration
	// MaxGasPrice caps suggestions; nil disables the cap.
	MaxGasPrice *big.Int
	// DefaultGas is the limit used when the node cannot estimate.
	DefaultGas uint64
	// MarginPct is added to every estimate.
	MarginPct uint64
}

func DefaultGasOracleConfig() GasOracleConfig {
	return GasOracleConfig{
		CacheTTL:    12 * time.Second,
		MaxGasPrice: big.NewInt(500_000_000_000),
		DefaultGas:  250_000,
		MarginPct:   10,
	}
}

// GasOracle suggests gas prices and limits. Concurrent price lookups share one
// RPC call, and the result is cached for CacheTTL.
type GasOracle struct {
	cfg     GasOracleConfig
	backend Backend
	logger  logger.LoggerInterface

	prices *cache.Cache[string, *big.Int]
	flight singleflight.Group
	cb     *circuitbreaker.CircuitBreaker[*big.Int]
	tracer trace.Tracer

	lookups metric.Int64Counter
	gwei    metric.Float64Gauge
}

func NewGasOracle(backend Backend, cfg GasOracleConfig, log logger.LoggerInterface) (*GasOracle, error) {
	meter := otel.Meter(tracerName)
	lookups, err := meter.Int64Counter("gas_oracle_lookups_total",
		metric.WithDescription("Gas lookups by kind and source"))
	if err != nil {
		return nil, fmt.Errorf("gas oracle metrics: %w", err)
	}
	gwei, err := meter.Float64Gauge("gas_price_gwei",
		metric.WithDescription("Last suggested gas price"), metric.WithUnit("gwei"))
	if err != nil {
		return nil, fmt.Errorf("gas oracle metrics: %w", err)
	}

	return &GasOracle{
		cfg:     cfg,
		backend: backend,
		logger:  log,
		prices:  cache.New[string, *big.Int](time.Minute),
		cb:      circuitbreaker.New[*big.Int](circuitbreaker.DefaultConfig("gas-oracle").Logged(log)),
		tracer:  otel.Tracer(tracerName),
		lookups: lookups,
		gwei:    gwei,
	}, nil
}

func (g *GasOracle) count(ctx context.Context, kind, source string) {
	g.lookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("source", source),
	))
}

// GasPrice returns the suggested price in wei, capped at MaxGasPrice.
func (g *GasOracle) GasPrice(ctx context.Context) (*big.Int, error) {
	ctx, span := g.tracer.Start(ctx, "gas.price")
	defer span.End()

	if price, ok := g.prices.Get(ctx, priceKey); ok {
		g.count(ctx, "price", "cache")
		return new(big.Int).Set(price), nil
	}

	v, err, shared := g.flight.Do(priceKey, func() (any, error) {
		return g.fetchPrice(ctx)
	})
	span.SetAttributes(attribute.Bool("shared", shared))
	if err != nil {
		g.count(ctx, "price", "error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "gas price unavailable")
		return nil, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithCause(err), apperror.WithContext("eth_gasPrice"))
	}

	g.count(ctx, "price", "rpc")
	return new(big.Int).Set(v.(*big.Int)), nil
}

func (g *GasOracle) fetchPrice(ctx context.Context) (*big.Int, error) {
	wei, err := g.cb.Execute(func() (*big.Int, error) {
		return g.backend.SuggestGasPrice(ctx)
	})
	if err != nil {
		return nil, err
	}
	if max := g.cfg.MaxGasPrice; max != nil && wei.Cmp(max) > 0 {
		g.logger.Warn(ctx, "gas price above cap", "wei", wei.String(), "cap", max.String())
		wei = new(big.Int).Set(max)
	}
	g.prices.Set(ctx, priceKey, wei, g.cfg.CacheTTL)
	g.gwei.Record(ctx, toGwei(wei))
	return wei, nil
}

// EstimateGas sizes a call from sender with MarginPct headroom, falling back
// to DefaultGas when the node refuses to estimate.
func (g *GasOracle) EstimateGas(ctx context.Context, from, to string, data []byte, value *big.Int) uint64 {
	ctx, span := g.tracer.Start(ctx, "gas.estimate", trace.WithAttributes(
		attribute.String("to", to),
		attribute.Int("data_len", len(data)),
	))
	defer span.End()

	target := common.HexToAddress(to)
	gas, err := g.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:  common.HexToAddress(from),
		To:    &target,
		Data:  data,
		Value: value,
	})
	if err != nil {
		g.count(ctx, "estimate", "default")
		span.AddEvent("default_gas", trace.WithAttributes(attribute.String("error", err.Error())))
		g.logger.Debug(ctx, "gas estimation failed, using default", "to", to, "error", err)
		return g.cfg.DefaultGas
	}

	g.count(ctx, "estimate", "rpc")
	gas += gas * g.cfg.MarginPct / 100
	span.SetAttributes(attribute.Int64("gas", int64(gas)))
	return gas
}

// Close stops the cache sweeper.
func (g *GasOracle) Close() error {
	g.prices.Close()
	return nil
}

func toGwei(wei *big.Int) float64 {
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e9)).Float64()
	return f
}
