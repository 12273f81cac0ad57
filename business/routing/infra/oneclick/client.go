package oneclick

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	oneclick "github.com/defuse-protocol/one-click-sdk-go"
)

// Quote parameters fixed for every request.
const (
	swapTypeExactInput  = "EXACT_INPUT"
	depositOriginChain  = "ORIGIN_CHAIN"
	refundOriginChain   = "ORIGIN_CHAIN"
	recipientDestChain  = "DESTINATION_CHAIN"
	defaultSlippageBps  = 100
	maxErrorBodyPreview = 512
)

type tokenInfo struct {
	AssetID    string
	Symbol     string
	Blockchain string
	Contract   string
	Decimals   int
}

type quoteRequest struct {
	Dry              bool
	OriginAsset      string
	DestinationAsset string
	Amount           string
	RefundTo         string
	Recipient        string
	Deadline         time.Time
}

type quoteResult struct {
	DepositAddress string
	AmountOut      string // formatted, in destination units
	TimeEstimate   float64
}

// intentsAPI is the slice of the 1Click API the provider uses.
type intentsAPI interface {
	Tokens(ctx context.Context) ([]tokenInfo, error)
	Quote(ctx context.Context, req quoteRequest) (*quoteResult, error)
	SubmitDeposit(ctx context.Context, depositAddress, txHash string) error
	Status(ctx context.Context, depositAddress string) (string, error)
}

// sdkClient implements intentsAPI with the generated 1Click SDK.
type sdkClient struct {
	api *oneclick.APIClient
	jwt string
}

func newSDKClient(baseURL, jwt string, httpClient *http.Client) *sdkClient {
	cfg := oneclick.NewConfiguration()
	if baseURL != "" {
		cfg.Servers = oneclick.ServerConfigurations{{URL: baseURL}}
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &sdkClient{api: oneclick.NewAPIClient(cfg), jwt: jwt}
}

func (c *sdkClient) authed(ctx context.Context) context.Context {
	if c.jwt == "" {
		return ctx
	}
	return context.WithValue(ctx, oneclick.ContextAccessToken, c.jwt)
}

func (c *sdkClient) Tokens(ctx context.Context) ([]tokenInfo, error) {
	resp, httpResp, err := c.api.OneClickAPI.GetTokens(c.authed(ctx)).Execute()
	if err != nil {
		return nil, apiError("get tokens", httpResp, err)
	}
	defer httpResp.Body.Close()

	tokens := make([]tokenInfo, 0, len(resp))
	for _, t := range resp {
		tokens = append(tokens, tokenInfo{
			AssetID:    t.GetAssetId(),
			Symbol:     t.GetSymbol(),
			Blockchain: t.GetBlockchain(),
			Contract:   t.GetContractAddress(),
			Decimals:   int(t.GetDecimals()),
		})
	}
	return tokens, nil
}

func (c *sdkClient) Quote(ctx context.Context, req quoteRequest) (*quoteResult, error) {
	qr := oneclick.NewQuoteRequest(
		req.Dry,
		swapTypeExactInput,
		defaultSlippageBps,
		req.OriginAsset,
		depositOriginChain,
		req.DestinationAsset,
		req.Amount,
		req.RefundTo,
		refundOriginChain,
		req.Recipient,
		recipientDestChain,
		req.Deadline,
	)

	resp, httpResp, err := c.api.OneClickAPI.GetQuote(c.authed(ctx)).QuoteRequest(*qr).Execute()
	if err != nil {
		return nil, apiError("get quote", httpResp, err)
	}
	defer httpResp.Body.Close()

	if resp == nil {
		return nil, fmt.Errorf("oneclick: empty quote response")
	}

	q := resp.GetQuote()
	return &quoteResult{
		DepositAddress: q.GetDepositAddress(),
		AmountOut:      q.GetAmountOutFormatted(),
		TimeEstimate:   float64(q.GetTimeEstimate()),
	}, nil
}

func (c *sdkClient) SubmitDeposit(ctx context.Context, depositAddress, txHash string) error {
	req := oneclick.NewSubmitDepositTxRequest(depositAddress, txHash)

	_, httpResp, err := c.api.OneClickAPI.SubmitDepositTx(c.authed(ctx)).SubmitDepositTxRequest(*req).Execute()
	if err != nil {
		return apiError("submit deposit", httpResp, err)
	}
	defer httpResp.Body.Close()
	return nil
}

func (c *sdkClient) Status(ctx context.Context, depositAddress string) (string, error) {
	resp, httpResp, err := c.api.OneClickAPI.GetExecutionStatus(c.authed(ctx)).DepositAddress(depositAddress).Execute()
	if err != nil {
		return "", apiError("get status", httpResp, err)
	}
	defer httpResp.Body.Close()
	return resp.GetStatus(), nil
}

// apiError surfaces the API's message so the classifier can match on it.
func apiError(op string, httpResp *http.Response, err error) error {
	if httpResp == nil || httpResp.Body == nil {
		return fmt.Errorf("oneclick: %s: %w", op, err)
	}
	defer httpResp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBodyPreview))
	if readErr != nil || len(body) == 0 {
		return fmt.Errorf("oneclick: %s (status %d): %w", op, httpResp.StatusCode, err)
	}

	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
		return &statusError{Op: op, Status: httpResp.StatusCode, Message: payload.Message}
	}
	return &statusError{Op: op, Status: httpResp.StatusCode, Message: string(body)}
}

type statusError struct {
	Op      string
	Status  int
	Message string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("oneclick: %s (status %d): %s", e.Op, e.Status, e.Message)
}
