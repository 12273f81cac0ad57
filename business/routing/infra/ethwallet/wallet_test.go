package ethwallet

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/fd1az/swap-router/business/routing/domain"
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

var (
	account = common.HexToAddress("0x1111111111111111111111111111111111111111")
	spender = common.HexToAddress("0x3333333333333333333333333333333333333333")
	deposit = common.HexToAddress("0x2222222222222222222222222222222222222222")
	txHash  = common.HexToHash("0xabc0000000000000000000000000000000000000000000000000000000000001")
)

type fakeRPC struct {
	accounts []common.Address
	chainID  int64
	sendErr  error
	sent     []txArgs
}

func (f *fakeRPC) CallContext(ctx context.Context, result any, method string, args ...any) error {
	switch method {
	case "eth_accounts":
		*result.(*[]common.Address) = f.accounts
	case "eth_chainId":
		(*big.Int)(result.(*hexutil.Big)).SetInt64(f.chainID)
	case "eth_sendTransaction":
		if f.sendErr != nil {
			return f.sendErr
		}
		f.sent = append(f.sent, args[0].(txArgs))
		*result.(*common.Hash) = txHash
	}
	return nil
}

type fakeChain struct {
	uintResult *big.Int
	balance    *big.Int
	pending    int
	status     uint64
	calls      []ethereum.CallMsg
}

func (f *fakeChain) CallContract(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
	f.calls = append(f.calls, msg)
	return erc20.Methods["allowance"].Outputs.Pack(f.uintResult)
}

func (f *fakeChain) BalanceAt(ctx context.Context, account common.Address, block *big.Int) (*big.Int, error) {
	return f.balance, nil
}

func (f *fakeChain) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	if f.pending > 0 {
		f.pending--
		return nil, ethereum.NotFound
	}
	return &types.Receipt{Status: f.status, TxHash: hash}, nil
}

type fakeGas struct{}

func (fakeGas) GasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(20_000_000_000), nil
}

func (fakeGas) EstimateGas(ctx context.Context, from, to string, data []byte, value *big.Int) uint64 {
	return 60_000
}

type fakeRouter struct {
	prepared  int
	confirmed [2]string
	err       error
}

func (f *fakeRouter) PrepareDeposit(ctx context.Context, trade *domain.Trade) (*domain.Trade, error) {
	f.prepared++
	if f.err != nil {
		return nil, f.err
	}
	next := *trade
	next.OffChainID = deposit.Hex()
	return &next, nil
}

func (f *fakeRouter) ConfirmDeposit(ctx context.Context, depositAddress, hash string) error {
	f.confirmed = [2]string{depositAddress, hash}
	return nil
}

func newConnected(t *testing.T, rpc *fakeRPC, chain *fakeChain) *Wallet {
	t.Helper()
	w := New(rpc, chain, fakeGas{}, Config{
		ReceiptPollInterval: time.Millisecond,
		ReceiptTimeout:      time.Second,
	}, &mockLogger{})
	if err := w.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return w
}

func usdcTrade() *domain.Trade {
	return &domain.Trade{
		Provider: domain.ProviderZeroX,
		Type:     domain.SwapTypeInstantTrade,
		From:     asset.MustParseString(asset.USDC, "100"),
		To:       asset.MustParseString(asset.ETH, "0.05"),
		Spender:  spender.Hex(),
		Tx:       &domain.TxRequest{To: spender.Hex(), Data: []byte{0x01}, Gas: 200_000},
	}
}

func TestConnect(t *testing.T) {
	w := newConnected(t, &fakeRPC{accounts: []common.Address{account}, chainID: 42161}, &fakeChain{})

	if w.Address() != account.Hex() {
		t.Errorf("unexpected address %s", w.Address())
	}
	if w.Network() != asset.BlockchainArbitrum {
		t.Errorf("unexpected network %s", w.Network())
	}

	w.Disconnect()
	if w.Address() != "" {
		t.Error("expected empty address after disconnect")
	}
}

func TestConnect_NoAccounts(t *testing.T) {
	w := New(&fakeRPC{chainID: 1}, &fakeChain{}, fakeGas{}, Config{}, &mockLogger{})
	if err := w.Connect(context.Background()); !errors.Is(err, domain.ErrWalletNotConnected) {
		t.Errorf("expected ErrWalletNotConnected, got %v", err)
	}
}

func TestBalance(t *testing.T) {
	chain := &fakeChain{balance: big.NewInt(5e17), uintResult: big.NewInt(42_000_000)}
	w := newConnected(t, &fakeRPC{accounts: []common.Address{account}, chainID: 1}, chain)

	eth, err := w.Balance(context.Background(), asset.ETH)
	if err != nil || eth.String() != "0.5 ETH" {
		t.Errorf("unexpected native balance %s, %v", eth, err)
	}

	usdc, err := w.Balance(context.Background(), asset.USDC)
	if err != nil || usdc.String() != "42 USDC" {
		t.Errorf("unexpected token balance %s, %v", usdc, err)
	}

	other, err := w.Balance(context.Background(), asset.USDCBase)
	if err != nil || !other.IsZero() {
		t.Errorf("expected zero for another network, got %s, %v", other, err)
	}
}

func TestNeedsApproval(t *testing.T) {
	tests := []struct {
		name      string
		allowance int64
		trade     func() *domain.Trade
		want      bool
	}{
		{name: "insufficient allowance", allowance: 99_999_999, trade: usdcTrade, want: true},
		{name: "exact allowance", allowance: 100_000_000, trade: usdcTrade, want: false},
		{name: "native source", trade: func() *domain.Trade {
			tr := usdcTrade()
			tr.From = asset.MustParseString(asset.ETH, "1")
			return tr
		}, want: false},
		{name: "no spender", trade: func() *domain.Trade {
			tr := usdcTrade()
			tr.Spender = ""
			return tr
		}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := &fakeChain{uintResult: big.NewInt(tt.allowance)}
			w := newConnected(t, &fakeRPC{accounts: []common.Address{account}, chainID: 1}, chain)

			got, err := w.NeedsApproval(context.Background(), tt.trade(), account.Hex())
			if err != nil {
				t.Fatalf("NeedsApproval: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestApprove_SendsExactAmount(t *testing.T) {
	rpc := &fakeRPC{accounts: []common.Address{account}, chainID: 1}
	w := newConnected(t, rpc, &fakeChain{pending: 2, status: types.ReceiptStatusSuccessful})

	var hashes []string
	if err := w.Approve(context.Background(), usdcTrade(), func(h string) { hashes = append(hashes, h) }); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	if len(rpc.sent) != 1 || len(hashes) != 1 {
		t.Fatalf("expected one approval tx, got %d", len(rpc.sent))
	}
	args := rpc.sent[0]
	if *args.To != common.HexToAddress(asset.AddrUSDCEthereum) {
		t.Errorf("approval must target the token, got %s", args.To.Hex())
	}
	want, _ := packApprove(spender, big.NewInt(100_000_000))
	if hexutil.Encode(args.Data) != hexutil.Encode(want) {
		t.Errorf("unexpected calldata %x", []byte(args.Data))
	}
	if args.Gas != 60_000 {
		t.Errorf("expected estimated gas, got %d", args.Gas)
	}
}

func TestSubmit_OnChainTrade(t *testing.T) {
	rpc := &fakeRPC{accounts: []common.Address{account}, chainID: 1}
	w := newConnected(t, rpc, &fakeChain{status: types.ReceiptStatusSuccessful})

	receipt, err := w.Submit(context.Background(), usdcTrade(), func(string) {})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if receipt.TxHash != txHash.Hex() || receipt.OffChainID != "" {
		t.Errorf("unexpected receipt %+v", receipt)
	}
	if rpc.sent[0].Gas != 200_000 {
		t.Errorf("quoted gas must be kept, got %d", rpc.sent[0].Gas)
	}
}

func TestSubmit_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  uint64
		sendErr error
		trade   func() *domain.Trade
		want    error
	}{
		{name: "reverted receipt", status: types.ReceiptStatusFailed, trade: usdcTrade, want: domain.ErrExecutionReverted},
		{name: "reverted estimate", sendErr: errors.New("execution reverted: STF"), trade: usdcTrade, want: domain.ErrExecutionReverted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rpc := &fakeRPC{accounts: []common.Address{account}, chainID: 1, sendErr: tt.sendErr}
			w := newConnected(t, rpc, &fakeChain{status: tt.status})

			_, err := w.Submit(context.Background(), tt.trade(), func(string) {})
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	t.Run("missing transaction", func(t *testing.T) {
		w := newConnected(t, &fakeRPC{accounts: []common.Address{account}, chainID: 1}, &fakeChain{})
		tr := usdcTrade()
		tr.Tx = nil
		if _, err := w.Submit(context.Background(), tr, func(string) {}); err == nil {
			t.Error("expected error for trade without transaction")
		}
	})
}

func TestSubmit_DepositTrade(t *testing.T) {
	rpc := &fakeRPC{accounts: []common.Address{account}, chainID: 1}
	w := newConnected(t, rpc, &fakeChain{status: types.ReceiptStatusSuccessful})
	router := &fakeRouter{}
	w.RegisterDepositRouter(domain.ProviderOneClick, router)

	trade := &domain.Trade{
		Provider: domain.ProviderOneClick,
		Type:     domain.SwapTypeCrossChain,
		From:     asset.MustParseString(asset.USDC, "100"),
		To:       asset.MustParseString(asset.USDCSolana, "99.5"),
		Caps:     domain.CapOffChainID | domain.CapRateRetry,
	}

	receipt, err := w.Submit(context.Background(), trade, func(string) {})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if receipt.OffChainID != deposit.Hex() || receipt.TxHash != txHash.Hex() {
		t.Errorf("unexpected receipt %+v", receipt)
	}
	if router.confirmed != [2]string{deposit.Hex(), txHash.Hex()} {
		t.Errorf("deposit not confirmed: %v", router.confirmed)
	}

	args := rpc.sent[0]
	want, _ := packTransfer(deposit, big.NewInt(100_000_000))
	if *args.To != common.HexToAddress(asset.AddrUSDCEthereum) || hexutil.Encode(args.Data) != hexutil.Encode(want) {
		t.Errorf("expected token transfer to deposit address, got to=%s data=%x", args.To.Hex(), []byte(args.Data))
	}
}

func TestSubmit_DepositRateChangeIsPassedThrough(t *testing.T) {
	rpc := &fakeRPC{accounts: []common.Address{account}, chainID: 1}
	w := newConnected(t, rpc, &fakeChain{status: types.ReceiptStatusSuccessful})
	w.RegisterDepositRouter(domain.ProviderOneClick, &fakeRouter{err: &domain.RateChangedError{Provider: domain.ProviderOneClick}})

	trade := &domain.Trade{
		Provider: domain.ProviderOneClick,
		From:     asset.MustParseString(asset.ETH, "1"),
		To:       asset.MustParseString(asset.USDCSolana, "3000"),
		Caps:     domain.CapOffChainID | domain.CapRateRetry,
	}

	_, err := w.Submit(context.Background(), trade, func(string) {})
	var rc *domain.RateChangedError
	if !errors.As(err, &rc) {
		t.Fatalf("expected RateChangedError, got %v", err)
	}
	if len(rpc.sent) != 0 {
		t.Error("nothing must be sent before the new rate is accepted")
	}
}

func TestTransferTx_Native(t *testing.T) {
	tx, err := transferTx(asset.MustParseString(asset.ETH, "1"), deposit.Hex())
	if err != nil {
		t.Fatalf("transferTx: %v", err)
	}
	if tx.To != deposit.Hex() || tx.Value.String() != "1000000000000000000" || len(tx.Data) != 0 {
		t.Errorf("unexpected native transfer %+v", tx)
	}
}
