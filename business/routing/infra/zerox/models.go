package zerox

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/fd1az/swap-router/business/routing/domain"
)

type quoteResponse struct {
	LiquidityAvailable bool         `json:"liquidityAvailable"`
	BuyAmount          string       `json:"buyAmount"`
	MinBuyAmount       string       `json:"minBuyAmount"`
	SellAmount         string       `json:"sellAmount"`
	Fees               fees         `json:"fees"`
	Issues             issues       `json:"issues"`
	Route              route        `json:"route"`
	Transaction        *transaction `json:"transaction"`
}

type fees struct {
	ZeroExFee *tokenAmount `json:"zeroExFee"`
}

type tokenAmount struct {
	Amount string `json:"amount"`
	Token  string `json:"token"`
}

type issues struct {
	Allowance *allowanceIssue `json:"allowance"`
}

type allowanceIssue struct {
	Actual  string `json:"actual"`
	Spender string `json:"spender"`
}

type route struct {
	Fills []fill `json:"fills"`
}

type fill struct {
	Source string `json:"source"`
}

type transaction struct {
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value"`
	Gas   string `json:"gas"`
}

type errorResponse struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// sources lists distinct liquidity sources in fill order.
func (r *quoteResponse) sources() []string {
	seen := make(map[string]bool)
	var out []string
	for _, f := range r.Route.Fills {
		if f.Source == "" || seen[f.Source] {
			continue
		}
		seen[f.Source] = true
		out = append(out, f.Source)
	}
	return out
}

func (t *transaction) toRequest() (*domain.TxRequest, error) {
	data, err := hexutil.Decode(t.Data)
	if err != nil {
		return nil, fmt.Errorf("zerox: invalid transaction data: %w", err)
	}

	value := big.NewInt(0)
	if t.Value != "" {
		if _, ok := value.SetString(t.Value, 10); !ok {
			return nil, fmt.Errorf("zerox: invalid transaction value %q", t.Value)
		}
	}

	var gas uint64
	if t.Gas != "" {
		gas, err = strconv.ParseUint(t.Gas, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("zerox: invalid gas %q: %w", t.Gas, err)
		}
	}

	return &domain.TxRequest{To: t.To, Data: data, Value: value, Gas: gas}, nil
}
