package app

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/swap-router/business/routing/domain"
)

const (
	tracerName = "routing"
	meterName  = "routing"
)

// routingMetrics holds OTEL metric instruments shared by the routing services.
type routingMetrics struct {
	outcomes          metric.Int64Counter
	providerLatency   metric.Float64Histogram
	roundsStarted     metric.Int64Counter
	staleDropped      metric.Int64Counter
	swaps             metric.Int64Counter
	approvals         metric.Int64Counter
	rateRetries       metric.Int64Counter
	providersDisabled metric.Int64Counter
}

func newRoutingMetrics() (*routingMetrics, error) {
	meter := otel.Meter(meterName)
	m := &routingMetrics{}
	var err error

	if m.outcomes, err = meter.Int64Counter(
		"routing_race_outcomes_total",
		metric.WithDescription("Provider outcomes by provider and kind"),
	); err != nil {
		return nil, err
	}

	if m.providerLatency, err = meter.Float64Histogram(
		"routing_provider_latency_ms",
		metric.WithDescription("Provider calculation latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if m.roundsStarted, err = meter.Int64Counter(
		"routing_rounds_started_total",
		metric.WithDescription("Calculation rounds started"),
	); err != nil {
		return nil, err
	}

	if m.staleDropped, err = meter.Int64Counter(
		"routing_stale_outcomes_dropped_total",
		metric.WithDescription("Outcomes discarded because their round was superseded"),
	); err != nil {
		return nil, err
	}

	if m.swaps, err = meter.Int64Counter(
		"routing_swaps_total",
		metric.WithDescription("Swap submissions by provider and result"),
	); err != nil {
		return nil, err
	}

	if m.approvals, err = meter.Int64Counter(
		"routing_approvals_total",
		metric.WithDescription("Approval submissions by provider and result"),
	); err != nil {
		return nil, err
	}

	if m.rateRetries, err = meter.Int64Counter(
		"routing_rate_change_retries_total",
		metric.WithDescription("Rate-change prompts by provider and decision"),
	); err != nil {
		return nil, err
	}

	if m.providersDisabled, err = meter.Int64Counter(
		"routing_providers_disabled_total",
		metric.WithDescription("Providers disabled for the session after a critical error"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func providerAttr(p domain.ProviderType) attribute.KeyValue {
	return attribute.String("provider", domain.BackendProviderName(p))
}

func (m *routingMetrics) recordResult(ctx context.Context, c metric.Int64Counter, p domain.ProviderType, result string) {
	c.Add(ctx, 1, metric.WithAttributes(providerAttr(p), attribute.String("result", result)))
}
