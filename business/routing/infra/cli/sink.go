package cli

import (
	"context"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/fd1az/swap-router/business/routing/app"
	"github.com/fd1az/swap-router/business/routing/domain"
	"github.com/fd1az/swap-router/internal/apperror"
	"github.com/fd1az/swap-router/internal/logger"
)

var _ app.ErrorSink = (*ErrorSink)(nil)

// ErrorSink prints classified execution failures and keeps the last one.
type ErrorSink struct {
	out    io.Writer
	logger logger.LoggerInterface

	mu   sync.Mutex
	last *apperror.AppError
}

// NewErrorSink writes user-facing messages to out.
func NewErrorSink(out io.Writer, log logger.LoggerInterface) *ErrorSink {
	return &ErrorSink{out: out, logger: log}
}

// Report implements app.ErrorSink.
func (s *ErrorSink) Report(ctx context.Context, provider domain.ProviderType, err *apperror.AppError) {
	s.mu.Lock()
	s.last = err
	s.mu.Unlock()

	red := color.New(color.FgRed, color.Bold)
	red.Fprintf(s.out, "\n✗ %s\n", err.Message)
	color.New(color.Faint).Fprintf(s.out, "  provider: %s  code: %s\n", domain.BackendProviderName(provider), err.Code)
	if err.Critical() {
		color.New(color.FgYellow).Fprintf(s.out, "  %s is disabled for this session\n", domain.BackendProviderName(provider))
	}

	s.logger.Error(ctx, "swap failed", append([]any{"provider", provider}, err.LogArgs()...)...)
}

// Last returns the most recent reported error, nil if none.
func (s *ErrorSink) Last() *apperror.AppError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
