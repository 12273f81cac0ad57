package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fd1az/swap-router/business/routing/app"
	"github.com/fd1az/swap-router/business/routing/domain"
)

var errServiceClosed = errors.New("routing service closed")

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// logWriter keeps one-shot commands quiet unless a log level was asked for.
func logWriter() io.Writer {
	if logLevel != "" {
		return os.Stderr
	}
	return io.Discard
}

// awaitRound sets req and waits until the calculation it triggers has finished.
func awaitRound(ctx context.Context, svc *app.RoutingService, req domain.SwapRequest) error {
	sub := svc.Streams().Refresh.Subscribe(4)
	defer sub.Unsubscribe()

	svc.SetInput(req)

	started := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case st, ok := <-sub.C():
			if !ok {
				return errServiceClosed
			}
			switch {
			case st == domain.RefreshRefreshing:
				started = true
			case started:
				return nil
			}
		}
	}
}
