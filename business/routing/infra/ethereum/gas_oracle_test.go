package ethereum

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
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

type fakeBackend struct {
	price     *big.Int
	priceErr  error
	gas       uint64
	gasErr    error
	priceHits int
	lastCall  ethereum.CallMsg
}

func (f *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	f.priceHits++
	if f.priceErr != nil {
		return nil, f.priceErr
	}
	return new(big.Int).Set(f.price), nil
}

func (f *fakeBackend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	f.lastCall = call
	return f.gas, f.gasErr
}

func newOracle(t *testing.T, b *fakeBackend) *GasOracle {
	t.Helper()
	g, err := NewGasOracle(b, DefaultGasOracleConfig(), &mockLogger{})
	if err != nil {
		t.Fatalf("NewGasOracle: %v", err)
	}
	t.Cleanup(func() { g.Close() })
	return g
}

func TestGasOracle_GasPriceIsCached(t *testing.T) {
	b := &fakeBackend{price: big.NewInt(20_000_000_000)}
	g := newOracle(t, b)

	for i := 0; i < 3; i++ {
		price, err := g.GasPrice(context.Background())
		if err != nil {
			t.Fatalf("GasPrice: %v", err)
		}
		if price.Cmp(b.price) != 0 {
			t.Fatalf("expected %s, got %s", b.price, price)
		}
	}
	if b.priceHits != 1 {
		t.Errorf("expected one backend call, got %d", b.priceHits)
	}
}

func TestGasOracle_GasPriceCapped(t *testing.T) {
	b := &fakeBackend{price: big.NewInt(900_000_000_000)}
	g := newOracle(t, b)

	price, err := g.GasPrice(context.Background())
	if err != nil {
		t.Fatalf("GasPrice: %v", err)
	}
	if price.Cmp(DefaultGasOracleConfig().MaxGasPrice) != 0 {
		t.Errorf("expected price capped at 500 gwei, got %s", price)
	}
}

func TestGasOracle_GasPriceError(t *testing.T) {
	g := newOracle(t, &fakeBackend{priceErr: errors.New("node down")})

	if _, err := g.GasPrice(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestGasOracle_EstimateGas(t *testing.T) {
	tests := []struct {
		name   string
		gas    uint64
		gasErr error
		want   uint64
	}{
		{name: "adds margin", gas: 100000, want: 110000},
		{name: "falls back to default", gasErr: errors.New("execution reverted"), want: DefaultGasOracleConfig().DefaultGas},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBackend{gas: tt.gas, gasErr: tt.gasErr}
			g := newOracle(t, b)

			got := g.EstimateGas(context.Background(),
				"0x1111111111111111111111111111111111111111",
				"0x2222222222222222222222222222222222222222",
				[]byte{0x01}, big.NewInt(0))
			if got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
			if b.lastCall.To == nil || b.lastCall.To.Hex() != "0x2222222222222222222222222222222222222222" {
				t.Errorf("unexpected call target %v", b.lastCall.To)
			}
		})
	}
}

func TestToGwei(t *testing.T) {
	if got := toGwei(big.NewInt(1_500_000_000)); got != 1.5 {
		t.Errorf("expected 1.5, got %v", got)
	}
}

type slowBackend struct {
	fakeBackend
	release chan struct{}
	calls   atomic.Int32
}

func (s *slowBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	s.calls.Add(1)
	<-s.release
	return big.NewInt(30_000_000_000), nil
}

func TestGasOracle_ConcurrentLookupsShareOneCall(t *testing.T) {
	b := &slowBackend{release: make(chan struct{})}
	g, err := NewGasOracle(b, DefaultGasOracleConfig(), &mockLogger{})
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()

	const callers = 5
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.GasPrice(context.Background())
			errs <- err
		}()
	}

	// let every caller reach the flight before the node answers
	time.Sleep(50 * time.Millisecond)
	close(b.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("GasPrice: %v", err)
		}
	}
	if n := b.calls.Load(); n != 1 {
		t.Errorf("expected one RPC call, got %d", n)
	}
}
