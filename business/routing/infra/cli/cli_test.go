package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/fd1az/swap-router/business/routing/domain"
	"github.com/fd1az/swap-router/internal/apperror"
	"github.com/fd1az/swap-router/internal/asset"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

func TestAskRateChanged(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		autoYes bool
		want    bool
	}{
		{name: "yes", input: "y\n", want: true},
		{name: "full yes", input: " YES \n", want: true},
		{name: "no", input: "n\n", want: false},
		{name: "empty defaults to no", input: "\n", want: false},
		{name: "eof", input: "", want: false},
		{name: "auto yes", input: "", autoYes: true, want: true},
	}

	oldAmount := asset.MustParseString(asset.USDCSolana, "100")
	newAmount := asset.MustParseString(asset.USDCSolana, "98")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompt(strings.NewReader(tt.input), &out, tt.autoYes)

			got, err := p.AskRateChanged(context.Background(), oldAmount, newAmount, "USDC")
			if err != nil {
				t.Fatalf("AskRateChanged: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
			if !strings.Contains(out.String(), "-2.00%") {
				t.Errorf("expected percent change in output, got %q", out.String())
			}
		})
	}
}

func TestAskRateChanged_Cancelled(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()

	p := NewPrompt(r, io.Discard, false)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.AskRateChanged(ctx,
		asset.MustParseString(asset.USDC, "1"), asset.MustParseString(asset.USDC, "0.9"), "USDC")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestErrorSink_Report(t *testing.T) {
	var out bytes.Buffer
	sink := NewErrorSink(&out, &mockLogger{})

	err := apperror.New(apperror.CodeExecutionReverted)
	sink.Report(context.Background(), domain.ProviderOneClick, err)

	if sink.Last() != err {
		t.Error("expected last error to be kept")
	}
	text := out.String()
	if !strings.Contains(text, apperror.Message(apperror.CodeExecutionReverted)) {
		t.Errorf("expected taxonomy message, got %q", text)
	}
	if !strings.Contains(text, "near_intents is disabled") {
		t.Errorf("expected critical notice, got %q", text)
	}
}
