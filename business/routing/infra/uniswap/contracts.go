package uniswap

import (
	"bytes"
	"embed"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Pool fees, in hundredths of a basis point.
const (
	FeeTier001 = 100
	FeeTier005 = 500
	FeeTier030 = 3000
	FeeTier100 = 10000
)

//go:embed abi/*.json
var abiFiles embed.FS

var (
	quoterABI = mustABI("abi/quoter_v2.json")
	routerABI = mustABI("abi/swap_router02.json")
)

// addressThis makes SwapRouter02 hold the output so a later multicall step can unwrap it.
var addressThis = common.HexToAddress("0x0000000000000000000000000000000000000002")

func mustABI(name string) abi.ABI {
	raw, err := abiFiles.ReadFile(name)
	if err != nil {
		panic(err)
	}
	parsed, err := abi.JSON(bytes.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("uniswap: %s: %v", name, err))
	}
	return parsed
}

// quoteParams mirrors IQuoterV2.QuoteExactInputSingleParams.
type quoteParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	AmountIn          *big.Int
	Fee               *big.Int
	SqrtPriceLimitX96 *big.Int
}

// swapParams mirrors IV3SwapRouter.ExactInputSingleParams.
type swapParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	Fee               *big.Int
	Recipient         common.Address
	AmountIn          *big.Int
	AmountOutMinimum  *big.Int
	SqrtPriceLimitX96 *big.Int
}

// poolQuote is what the quoter reports for one pool.
type poolQuote struct {
	fee       int
	amountOut *big.Int
	gas       uint64
}

func packQuote(tokenIn, tokenOut common.Address, amountIn *big.Int, fee int) ([]byte, error) {
	return quoterABI.Pack("quoteExactInputSingle", quoteParams{
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		AmountIn:          amountIn,
		Fee:               big.NewInt(int64(fee)),
		SqrtPriceLimitX96: new(big.Int),
	})
}

func unpackQuote(fee int, data []byte) (poolQuote, error) {
	out, err := quoterABI.Unpack("quoteExactInputSingle", data)
	if err != nil {
		return poolQuote{}, fmt.Errorf("decode quote: %w", err)
	}
	if len(out) != 4 {
		return poolQuote{}, fmt.Errorf("decode quote: %d outputs", len(out))
	}
	amountOut, ok := out[0].(*big.Int)
	if !ok {
		return poolQuote{}, fmt.Errorf("decode quote: amountOut is %T", out[0])
	}
	gas, _ := out[3].(*big.Int)
	q := poolQuote{fee: fee, amountOut: amountOut}
	if gas != nil && gas.IsUint64() {
		q.gas = gas.Uint64()
	}
	return q, nil
}
