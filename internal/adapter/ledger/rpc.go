package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/finovel/loanledger/internal/pkg/callqueue"
	"github.com/finovel/loanledger/internal/pkg/failover"
)

// TxRevertedError marks a ledger rejection: the node accepted the request but
// the contract refused it. Reverts are never retried.
type TxRevertedError struct {
	Method  string
	Code    int
	Message string
}

func (e TxRevertedError) Error() string {
	return fmt.Sprintf("ledger rejected %s: %s (code %d)", e.Method, e.Message, e.Code)
}

const (
	methodProvideLiquidity   = "loanpool_provideLiquidity"
	methodApproveLoan        = "loanpool_approveLoan"
	methodGetLoan            = "loanpool_getLoan"
	methodIsAuthorizedEngine = "loanpool_isAuthorizedEngine"
	methodTotalLiquidity     = "loanpool_totalLiquidity"
	methodGetReceipt         = "loanpool_getTransactionReceipt"

	rpcCodeRateLimited = -32005
)

const defaultConfirmInterval = 2 * time.Second

// RPCClient speaks JSON-RPC 2.0 to the lending node pool, routing every
// request through the failover manager.
type RPCClient struct {
	providers       *failover.Manager
	httpClient      *http.Client
	logger          *slog.Logger
	confirmInterval time.Duration
	requestID       atomic.Int64
}

// NewRPCClient constructs a client with a default transport timeout.
func NewRPCClient(providers *failover.Manager, logger *slog.Logger) *RPCClient {
	return &RPCClient{
		providers:       providers,
		logger:          logger,
		confirmInterval: defaultConfirmInterval,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type txSubmission struct {
	Hash string `json:"txHash"`
}

type txStatus struct {
	Hash        string `json:"txHash"`
	BlockNumber int64  `json:"blockNumber"`
	Confirmed   bool   `json:"confirmed"`
	Reverted    bool   `json:"reverted"`
}

// ProvideLiquidity submits the treasury-to-lending transfer and waits for its
// confirmation receipt.
func (c *RPCClient) ProvideLiquidity(ctx context.Context, engineAddress string, amount int64) (*TxReceipt, error) {
	return c.submitAndConfirm(ctx, methodProvideLiquidity, []any{engineAddress, amount})
}

// ApproveLoan submits the fused approval/disbursement call and waits for its
// confirmation receipt.
func (c *RPCClient) ApproveLoan(ctx context.Context, loanID int64, interestRateBps int) (*TxReceipt, error) {
	return c.submitAndConfirm(ctx, methodApproveLoan, []any{loanID, interestRateBps})
}

func (c *RPCClient) GetLoan(ctx context.Context, loanID int64) (*LoanState, error) {
	var state LoanState
	if err := c.call(ctx, methodGetLoan, []any{loanID}, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *RPCClient) IsAuthorizedEngine(ctx context.Context, address string) (bool, error) {
	var authorized bool
	if err := c.call(ctx, methodIsAuthorizedEngine, []any{address}, &authorized); err != nil {
		return false, err
	}
	return authorized, nil
}

func (c *RPCClient) TotalLiquidity(ctx context.Context) (int64, error) {
	var total int64
	if err := c.call(ctx, methodTotalLiquidity, []any{}, &total); err != nil {
		return 0, err
	}
	return total, nil
}

func (c *RPCClient) submitAndConfirm(ctx context.Context, method string, params []any) (*TxReceipt, error) {
	var submitted txSubmission
	if err := c.call(ctx, method, params, &submitted); err != nil {
		return nil, err
	}
	return c.waitConfirmation(ctx, method, submitted.Hash)
}

// waitConfirmation polls the receipt endpoint until the transaction is mined.
// A hanging transaction blocks until the caller's context expires.
func (c *RPCClient) waitConfirmation(ctx context.Context, method, hash string) (*TxReceipt, error) {
	ticker := time.NewTicker(c.confirmInterval)
	defer ticker.Stop()

	for {
		var status txStatus
		if err := c.call(ctx, methodGetReceipt, []any{hash}, &status); err != nil {
			return nil, err
		}
		if status.Reverted {
			return nil, TxRevertedError{Method: method, Message: "transaction reverted on ledger"}
		}
		if status.Confirmed {
			return &TxReceipt{Hash: status.Hash, BlockNumber: status.BlockNumber}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("confirmation wait for %s: %w", hash, ctx.Err())
		case <-ticker.C:
		}
	}
}

// call performs one JSON-RPC exchange against the current provider, failing
// over per the manager's classification rules.
func (c *RPCClient) call(ctx context.Context, method string, params []any, out any) error {
	return c.providers.ExecuteWithFallback(ctx, func(ctx context.Context, provider string) error {
		return c.callProvider(ctx, provider, method, params, out)
	})
}

func (c *RPCClient) callProvider(ctx context.Context, provider, method string, params []any, out any) error {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, provider, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return callqueue.RateLimitError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("rpc request failed",
			slog.String("method", method),
			slog.String("provider", failover.Redact(provider)),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return fmt.Errorf("rpc error: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var decoded rpcResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return err
	}
	if decoded.Error != nil {
		return classifyRPCError(method, decoded.Error)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(decoded.Result, out)
}

func classifyRPCError(method string, rpcErr *rpcError) error {
	if rpcErr.Code == rpcCodeRateLimited || callqueue.IsRateLimited(errors.New(rpcErr.Message)) {
		return callqueue.RateLimitError{Err: fmt.Errorf("%s: %s", method, rpcErr.Message)}
	}
	return TxRevertedError{Method: method, Code: rpcErr.Code, Message: rpcErr.Message}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 5 * time.Second
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 5 * time.Second
}
