// Package ethwallet adapts an EVM wallet JSON-RPC endpoint to the routing ports.
// Signing stays in the wallet: transactions go out through eth_sendTransaction.
package ethwallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/swap-router/business/routing/app"
	"github.com/fd1az/swap-router/business/routing/domain"
	"github.com/fd1az/swap-router/internal/apperror"
	"github.com/fd1az/swap-router/internal/asset"
	"github.com/fd1az/swap-router/internal/logger"
)

const tracerName = "ethwallet"

var (
	_ app.WalletConnector      = (*Wallet)(nil)
	_ app.ApprovalChecker      = (*Wallet)(nil)
	_ app.TransactionSubmitter = (*Wallet)(nil)
)

// ChainReader is the read side of an Ethereum node. *ethclient.Client satisfies it.
type ChainReader interface {
	ethereum.ContractCaller
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// RPC sends raw JSON-RPC calls to the wallet. *rpc.Client satisfies it.
type RPC interface {
	CallContext(ctx context.Context, result any, method string, args ...any) error
}

// GasPricer supplies gas parameters for outgoing transactions.
type GasPricer interface {
	GasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, from, to string, data []byte, value *big.Int) uint64
}

// DepositRouter issues and confirms deposit addresses for off-chain settled trades.
type DepositRouter interface {
	PrepareDeposit(ctx context.Context, trade *domain.Trade) (*domain.Trade, error)
	ConfirmDeposit(ctx context.Context, depositAddress, txHash string) error
}

// Config holds wallet timings.
type Config struct {
	ReceiptPollInterval time.Duration
	ReceiptTimeout      time.Duration
}

// Wallet implements the wallet, approval and submission ports.
type Wallet struct {
	rpc      RPC
	chain    ChainReader
	gas      GasPricer
	deposits map[domain.ProviderType]DepositRouter
	cfg      Config
	logger   logger.LoggerInterface
	tracer   trace.Tracer

	mu      sync.RWMutex
	address common.Address
	network asset.Blockchain
}

// New creates a disconnected wallet.
func New(rpc RPC, chain ChainReader, gas GasPricer, cfg Config, log logger.LoggerInterface) *Wallet {
	return &Wallet{
		rpc:      rpc,
		chain:    chain,
		gas:      gas,
		deposits: make(map[domain.ProviderType]DepositRouter),
		cfg:      cfg,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
	}
}

// RegisterDepositRouter routes CapOffChainID trades of provider p through r.
// Must be called before the wallet is used.
func (w *Wallet) RegisterDepositRouter(p domain.ProviderType, r DepositRouter) {
	w.deposits[p] = r
}

// Connect loads the wallet's first account and network.
func (w *Wallet) Connect(ctx context.Context) error {
	var accounts []common.Address
	if err := w.rpc.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return apperror.New(apperror.CodeEthereumConnectionFailed, apperror.WithCause(err))
	}
	if len(accounts) == 0 {
		return apperror.New(apperror.CodeWalletNotConnected,
			apperror.WithCause(domain.ErrWalletNotConnected),
			apperror.WithContext("wallet exposes no accounts"))
	}

	var chainID hexutil.Big
	if err := w.rpc.CallContext(ctx, &chainID, "eth_chainId"); err != nil {
		return apperror.New(apperror.CodeEthereumRPCError, apperror.WithCause(err))
	}
	network, ok := asset.BlockchainByChainID(chainID.ToInt().Uint64())
	if !ok {
		return apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithContext(fmt.Sprintf("unsupported chain id %s", chainID.ToInt())))
	}

	w.mu.Lock()
	w.address = accounts[0]
	w.network = network
	w.mu.Unlock()

	w.logger.Info(ctx, "wallet connected", "address", accounts[0].Hex(), "network", network)
	return nil
}

// Disconnect forgets the connected account.
func (w *Wallet) Disconnect() {
	w.mu.Lock()
	w.address = common.Address{}
	w.network = ""
	w.mu.Unlock()
}

// Address implements app.WalletConnector.
func (w *Wallet) Address() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.address == (common.Address{}) {
		return ""
	}
	return w.address.Hex()
}

// Network implements app.WalletConnector.
func (w *Wallet) Network() asset.Blockchain {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.network
}

// Balance implements app.WalletConnector.
func (w *Wallet) Balance(ctx context.Context, a *asset.Asset) (asset.Amount, error) {
	owner, err := w.owner()
	if err != nil {
		return asset.Amount{}, err
	}
	if a.Blockchain() != w.Network() {
		return asset.Zero(a), nil
	}

	if a.IsNative() {
		bal, err := w.chain.BalanceAt(ctx, owner, nil)
		if err != nil {
			return asset.Amount{}, apperror.New(apperror.CodeEthereumRPCError, apperror.WithCause(err))
		}
		return asset.NewAmount(a, bal), nil
	}

	bal, err := w.callUint(ctx, a.Address(), "balanceOf", owner)
	if err != nil {
		return asset.Amount{}, err
	}
	return asset.NewAmount(a, bal), nil
}

// NeedsApproval implements app.ApprovalChecker.
func (w *Wallet) NeedsApproval(ctx context.Context, trade *domain.Trade, owner string) (bool, error) {
	if !trade.NeedsApprovalTarget() {
		return false, nil
	}
	if !common.IsHexAddress(owner) {
		return false, domain.ErrWalletNotConnected
	}

	allowance, err := w.callUint(ctx, trade.From.Asset().Address(), "allowance",
		common.HexToAddress(owner), common.HexToAddress(trade.Spender))
	if err != nil {
		return false, err
	}
	return allowance.Cmp(trade.From.Raw()) < 0, nil
}

// Approve implements app.TransactionSubmitter. It approves exactly the source amount.
func (w *Wallet) Approve(ctx context.Context, trade *domain.Trade, onHash func(hash string)) error {
	if !trade.NeedsApprovalTarget() {
		return nil
	}

	ctx, span := w.tracer.Start(ctx, "ethwallet.approve",
		trace.WithAttributes(attribute.String("spender", trade.Spender)))
	defer span.End()

	data, err := packApprove(common.HexToAddress(trade.Spender), trade.From.Raw())
	if err != nil {
		return err
	}

	hash, err := w.send(ctx, &domain.TxRequest{To: trade.From.Asset().Address(), Data: data})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "approve failed")
		return err
	}
	onHash(hash.Hex())

	if err := w.waitMined(ctx, hash); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "approve not mined")
		return err
	}
	span.SetStatus(codes.Ok, "approved")
	return nil
}

// Submit implements app.TransactionSubmitter.
func (w *Wallet) Submit(ctx context.Context, trade *domain.Trade, onHash func(hash string)) (*domain.Receipt, error) {
	ctx, span := w.tracer.Start(ctx, "ethwallet.submit",
		trace.WithAttributes(attribute.String("provider", string(trade.Provider))))
	defer span.End()

	receipt, err := w.submit(ctx, trade, onHash)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit failed")
		return nil, err
	}
	span.SetAttributes(attribute.String("tx_hash", receipt.TxHash))
	span.SetStatus(codes.Ok, "submitted")
	return receipt, nil
}

func (w *Wallet) submit(ctx context.Context, trade *domain.Trade, onHash func(hash string)) (*domain.Receipt, error) {
	if trade.Has(domain.CapOffChainID) {
		return w.deposit(ctx, trade, onHash)
	}
	if trade.Tx == nil {
		return nil, apperror.New(apperror.CodeInvalidState,
			apperror.WithContext(fmt.Sprintf("%s trade has no transaction", trade.Provider)))
	}

	hash, err := w.send(ctx, trade.Tx)
	if err != nil {
		return nil, err
	}
	onHash(hash.Hex())

	if err := w.waitMined(ctx, hash); err != nil {
		return nil, err
	}
	return &domain.Receipt{TxHash: hash.Hex()}, nil
}

// deposit funds the provider's deposit address with the source amount and
// reports the transaction back to the provider.
func (w *Wallet) deposit(ctx context.Context, trade *domain.Trade, onHash func(hash string)) (*domain.Receipt, error) {
	router, ok := w.deposits[trade.Provider]
	if !ok {
		return nil, apperror.New(apperror.CodeUnknownProvider,
			apperror.WithContext(fmt.Sprintf("no deposit router for %s", trade.Provider)))
	}

	prepared, err := router.PrepareDeposit(ctx, trade)
	if err != nil {
		return nil, err
	}
	if !common.IsHexAddress(prepared.OffChainID) {
		return nil, apperror.New(apperror.CodeInvalidQuote,
			apperror.WithContext(fmt.Sprintf("deposit address %q is not an EVM address", prepared.OffChainID)))
	}

	tx, err := transferTx(prepared.From, prepared.OffChainID)
	if err != nil {
		return nil, err
	}
	hash, err := w.send(ctx, tx)
	if err != nil {
		return nil, err
	}
	onHash(hash.Hex())

	if err := w.waitMined(ctx, hash); err != nil {
		return nil, err
	}

	if err := router.ConfirmDeposit(ctx, prepared.OffChainID, hash.Hex()); err != nil {
		// Non-fatal: the deposit address is already funded.
		w.logger.Warn(ctx, "deposit confirmation failed",
			"provider", trade.Provider,
			"deposit_address", prepared.OffChainID,
			"error", err,
		)
	}
	return &domain.Receipt{TxHash: hash.Hex(), OffChainID: prepared.OffChainID}, nil
}

func transferTx(amount asset.Amount, to string) (*domain.TxRequest, error) {
	if amount.Asset().IsNative() {
		return &domain.TxRequest{To: to, Value: amount.Raw()}, nil
	}
	data, err := packTransfer(common.HexToAddress(to), amount.Raw())
	if err != nil {
		return nil, err
	}
	return &domain.TxRequest{To: amount.Asset().Address(), Data: data}, nil
}

type txArgs struct {
	From     common.Address  `json:"from"`
	To       *common.Address `json:"to"`
	Gas      hexutil.Uint64  `json:"gas"`
	GasPrice *hexutil.Big    `json:"gasPrice,omitempty"`
	Value    *hexutil.Big    `json:"value,omitempty"`
	Data     hexutil.Bytes   `json:"data,omitempty"`
}

func (w *Wallet) send(ctx context.Context, req *domain.TxRequest) (common.Hash, error) {
	from, err := w.owner()
	if err != nil {
		return common.Hash{}, err
	}

	to := common.HexToAddress(req.To)
	args := txArgs{From: from, To: &to, Data: req.Data, Gas: hexutil.Uint64(req.Gas)}
	if req.Value != nil && req.Value.Sign() > 0 {
		args.Value = (*hexutil.Big)(req.Value)
	}
	if args.Gas == 0 {
		args.Gas = hexutil.Uint64(w.gas.EstimateGas(ctx, from.Hex(), req.To, req.Data, req.Value))
	}
	if price, err := w.gas.GasPrice(ctx); err == nil {
		args.GasPrice = (*hexutil.Big)(price)
	} else {
		w.logger.Debug(ctx, "gas price unavailable, wallet will price", "error", err)
	}

	var hash common.Hash
	if err := w.rpc.CallContext(ctx, &hash, "eth_sendTransaction", args); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "execution reverted") {
			return common.Hash{}, fmt.Errorf("%w: %v", domain.ErrExecutionReverted, err)
		}
		return common.Hash{}, apperror.New(apperror.CodeTransactionFailed, apperror.WithCause(err))
	}

	w.logger.Info(ctx, "transaction sent", "hash", hash.Hex(), "to", req.To)
	return hash, nil
}

// waitMined polls for the receipt until it is found or ReceiptTimeout elapses.
func (w *Wallet) waitMined(ctx context.Context, hash common.Hash) error {
	receipt, err := backoff.Retry(ctx, func() (*types.Receipt, error) {
		r, err := w.chain.TransactionReceipt(ctx, hash)
		if errors.Is(err, ethereum.NotFound) {
			return nil, err
		}
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		return r, nil
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(w.cfg.ReceiptPollInterval)),
		backoff.WithMaxElapsedTime(w.cfg.ReceiptTimeout),
	)
	if err != nil {
		return apperror.New(apperror.CodeTransactionFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("no receipt for %s", hash.Hex())))
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%w: transaction %s", domain.ErrExecutionReverted, hash.Hex())
	}
	return nil
}

func (w *Wallet) callUint(ctx context.Context, token, method string, args ...any) (*big.Int, error) {
	data, err := erc20.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	to := common.HexToAddress(token)
	out, err := w.chain.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("%s on %s", method, token)))
	}
	return unpackUint(method, out)
}

func (w *Wallet) owner() (common.Address, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.address == (common.Address{}) {
		return common.Address{}, domain.ErrWalletNotConnected
	}
	return w.address, nil
}
