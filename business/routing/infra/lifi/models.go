package lifi

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/fd1az/swap-router/business/routing/domain"
	"github.com/fd1az/swap-router/internal/asset"
)

type quoteResponse struct {
	ID                 string              `json:"id"`
	Tool               string              `json:"tool"`
	Estimate           estimate            `json:"estimate"`
	IncludedSteps      []step              `json:"includedSteps"`
	TransactionRequest *transactionRequest `json:"transactionRequest"`
}

type estimate struct {
	FromAmount        string    `json:"fromAmount"`
	ToAmount          string    `json:"toAmount"`
	ToAmountMin       string    `json:"toAmountMin"`
	ApprovalAddress   string    `json:"approvalAddress"`
	ExecutionDuration float64   `json:"executionDuration"`
	FeeCosts          []feeCost `json:"feeCosts"`
}

type feeCost struct {
	Name     string `json:"name"`
	Amount   string `json:"amount"`
	Included bool   `json:"included"`
	Token    token  `json:"token"`
}

type token struct {
	Address  string `json:"address"`
	ChainID  uint64 `json:"chainId"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

type step struct {
	Tool string `json:"tool"`
}

type transactionRequest struct {
	To       string `json:"to"`
	Data     string `json:"data"`
	Value    string `json:"value"`
	GasLimit string `json:"gasLimit"`
}

type apiError struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("lifi: status %d code %d: %s", e.Status, e.Code, e.Message)
}

// tools lists the bridges and exchanges the route passes through.
func (r *quoteResponse) tools() []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range r.IncludedSteps {
		if s.Tool == "" || seen[s.Tool] {
			continue
		}
		seen[s.Tool] = true
		out = append(out, s.Tool)
	}
	if len(out) == 0 && r.Tool != "" {
		out = append(out, r.Tool)
	}
	return out
}

// feeIn sums the fee costs charged in the destination asset.
func (r *quoteResponse) feeIn(dst *asset.Asset) asset.Amount {
	total := big.NewInt(0)
	dstChain := chainIDs[dst.Blockchain()]
	for _, f := range r.Estimate.FeeCosts {
		if f.Token.ChainID != dstChain || !strings.EqualFold(f.Token.Address, tokenParam(dst)) {
			continue
		}
		if v, ok := new(big.Int).SetString(f.Amount, 10); ok {
			total.Add(total, v)
		}
	}
	return asset.NewAmount(dst, total)
}

func (t *transactionRequest) toRequest() (*domain.TxRequest, error) {
	data, err := hexutil.Decode(t.Data)
	if err != nil {
		return nil, fmt.Errorf("lifi: invalid transaction data: %w", err)
	}
	value, err := decodeQuantity(t.Value)
	if err != nil {
		return nil, fmt.Errorf("lifi: invalid transaction value: %w", err)
	}
	gas, err := decodeQuantity(t.GasLimit)
	if err != nil {
		return nil, fmt.Errorf("lifi: invalid gas limit: %w", err)
	}
	return &domain.TxRequest{To: t.To, Data: data, Value: value, Gas: gas.Uint64()}, nil
}
