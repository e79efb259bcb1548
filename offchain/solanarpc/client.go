package solanarpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/Abdullah1738/user-pda/offchain/solana"
)

var (
	ErrMissingRPCURL = errors.New("missing rpc url")
	ErrRPCError      = errors.New("solana rpc error")
)

type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("%s: %d %s", ErrRPCError.Error(), e.Code, e.Message)
}

func (e *RPCError) Unwrap() error { return ErrRPCError }

type Client struct {
	rpcURL string
	http   *http.Client
}

func New(rpcURL string, httpClient *http.Client) *Client {
	rpcURL = strings.TrimSpace(rpcURL)
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		rpcURL: rpcURL,
		http:   httpClient,
	}
}

func ClientFromEnv() (*Client, error) {
	if raw := strings.TrimSpace(os.Getenv("SOLANA_RPC_URL")); raw != "" {
		return New(raw, nil), nil
	}
	return nil, ErrMissingRPCURL
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

func isRateLimitedRPCError(code int, message string) bool {
	if code == 429 || code == -32429 {
		return true
	}
	msg := strings.ToLower(strings.TrimSpace(message))
	return strings.Contains(msg, "rate") && strings.Contains(msg, "limit")
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Client) rpcCall(ctx context.Context, method string, params any, out any) error {
	if c == nil {
		return errors.New("nil rpc client")
	}
	if strings.TrimSpace(c.rpcURL) == "" {
		return ErrMissingRPCURL
	}

	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      "1",
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}

	backoff := 1 * time.Second
	const (
		maxBackoff  = 10 * time.Second
		maxAttempts = 7
	)
	wait := func() error {
		if err := sleepWithContext(ctx, backoff); err != nil {
			return err
		}
		backoff = min(backoff*2, maxBackoff)
		return nil
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(reqBody))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		_ = resp.Body.Close()
		if readErr != nil {
			return readErr
		}

		retryable := false
		var rr rpcResponse
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("%w: http status=%d", ErrRPCError, resp.StatusCode)
			retryable = true
		case json.Unmarshal(raw, &rr) != nil:
			lastErr = fmt.Errorf("%w: undecodable response (http status=%d)", ErrRPCError, resp.StatusCode)
			retryable = true
		case rr.Error != nil:
			lastErr = &RPCError{Code: rr.Error.Code, Message: rr.Error.Message}
			retryable = isRateLimitedRPCError(rr.Error.Code, rr.Error.Message)
		default:
			if out == nil {
				return nil
			}
			if len(rr.Result) == 0 {
				return fmt.Errorf("%w: empty result", ErrRPCError)
			}
			if err := json.Unmarshal(rr.Result, out); err != nil {
				return fmt.Errorf("decode result: %w", err)
			}
			return nil
		}

		if !retryable || attempt == maxAttempts {
			return lastErr
		}
		if err := wait(); err != nil {
			return err
		}
	}
	if lastErr != nil {
		return lastErr
	}
	return fmt.Errorf("%w: no response", ErrRPCError)
}

func (c *Client) LatestBlockhash(ctx context.Context) ([32]byte, error) {
	var out [32]byte
	var resp struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}
	// Use finalized to avoid "Blockhash not found" when talking to load-balanced public RPCs.
	if err := c.rpcCall(ctx, "getLatestBlockhash", []any{map[string]any{"commitment": "finalized"}}, &resp); err != nil {
		// Some RPCs still require getRecentBlockhash.
		var old struct {
			Value struct {
				Blockhash string `json:"blockhash"`
			} `json:"value"`
		}
		if err2 := c.rpcCall(ctx, "getRecentBlockhash", []any{}, &old); err2 != nil {
			return out, err
		}
		resp.Value.Blockhash = old.Value.Blockhash
	}

	bh, err := solana.ParsePubkey(resp.Value.Blockhash)
	if err != nil {
		return out, fmt.Errorf("invalid blockhash: %w", err)
	}
	copy(out[:], bh[:])
	return out, nil
}

func (c *Client) SendTransaction(ctx context.Context, tx []byte, skipPreflight bool) (string, error) {
	if len(tx) == 0 {
		return "", errors.New("empty tx")
	}
	b64 := base64.StdEncoding.EncodeToString(tx)
	var resp string
	params := []any{
		b64,
		map[string]any{
			"encoding":      "base64",
			"skipPreflight": skipPreflight,
		},
	}
	if err := c.rpcCall(ctx, "sendTransaction", params, &resp); err != nil {
		return "", err
	}
	return resp, nil
}

var ErrAccountNotFound = errors.New("account not found")

type AccountInfo struct {
	Lamports   uint64
	Owner      solana.Pubkey
	Data       []byte
	Executable bool
}

func (c *Client) AccountInfo(ctx context.Context, pubkey solana.Pubkey) (AccountInfo, error) {
	var resp struct {
		Value *struct {
			Lamports   uint64 `json:"lamports"`
			Owner      string `json:"owner"`
			Data       []any  `json:"data"`
			Executable bool   `json:"executable"`
		} `json:"value"`
	}
	params := []any{
		pubkey.Base58(),
		map[string]any{
			"encoding":   "base64",
			"commitment": "confirmed",
		},
	}
	if err := c.rpcCall(ctx, "getAccountInfo", params, &resp); err != nil {
		return AccountInfo{}, err
	}
	if resp.Value == nil {
		return AccountInfo{}, fmt.Errorf("%w: %s", ErrAccountNotFound, pubkey)
	}
	owner, err := solana.ParsePubkey(resp.Value.Owner)
	if err != nil {
		return AccountInfo{}, fmt.Errorf("invalid account owner: %w", err)
	}
	if len(resp.Value.Data) < 1 {
		return AccountInfo{}, errors.New("missing account data")
	}
	s, ok := resp.Value.Data[0].(string)
	if !ok {
		return AccountInfo{}, errors.New("unexpected account data encoding")
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return AccountInfo{}, err
	}
	return AccountInfo{
		Lamports:   resp.Value.Lamports,
		Owner:      owner,
		Data:       data,
		Executable: resp.Value.Executable,
	}, nil
}

func (c *Client) Slot(ctx context.Context) (uint64, error) {
	var resp uint64
	if err := c.rpcCall(ctx, "getSlot", []any{map[string]any{"commitment": "processed"}}, &resp); err != nil {
		return 0, err
	}
	return resp, nil
}

func (c *Client) BalanceLamports(ctx context.Context, pubkey string) (uint64, error) {
	pubkey = strings.TrimSpace(pubkey)
	if pubkey == "" {
		return 0, errors.New("pubkey required")
	}
	var resp struct {
		Value uint64 `json:"value"`
	}
	if err := c.rpcCall(ctx, "getBalance", []any{pubkey, map[string]any{"commitment": "confirmed"}}, &resp); err != nil {
		return 0, err
	}
	return resp.Value, nil
}

func (c *Client) RequestAirdrop(ctx context.Context, pubkey string, lamports uint64) (string, error) {
	pubkey = strings.TrimSpace(pubkey)
	if pubkey == "" {
		return "", errors.New("pubkey required")
	}
	if lamports == 0 {
		return "", errors.New("lamports required")
	}
	var sig string
	if err := c.rpcCall(ctx, "requestAirdrop", []any{pubkey, lamports}, &sig); err != nil {
		return "", err
	}
	return sig, nil
}

var ErrTransactionFailed = errors.New("transaction failed")

// SignatureConfirmed reports whether signature reached confirmed commitment.
// A transaction that landed with an error returns ErrTransactionFailed.
func (c *Client) SignatureConfirmed(ctx context.Context, signature string) (bool, error) {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return false, errors.New("signature required")
	}
	var resp struct {
		Value []*struct {
			ConfirmationStatus string `json:"confirmationStatus"`
			Err                any    `json:"err"`
		} `json:"value"`
	}
	params := []any{
		[]string{signature},
		map[string]any{"searchTransactionHistory": true},
	}
	if err := c.rpcCall(ctx, "getSignatureStatuses", params, &resp); err != nil {
		return false, err
	}
	if len(resp.Value) == 0 || resp.Value[0] == nil {
		return false, nil
	}
	st := resp.Value[0]
	if st.Err != nil {
		return false, fmt.Errorf("%w: %v", ErrTransactionFailed, st.Err)
	}
	switch st.ConfirmationStatus {
	case "confirmed", "finalized":
		return true, nil
	default:
		return false, nil
	}
}

// WaitForConfirmation polls SignatureConfirmed until it succeeds, fails, or
// timeout elapses.
func (c *Client) WaitForConfirmation(ctx context.Context, signature string, timeout, interval time.Duration) error {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	for {
		ok, err := c.SignatureConfirmed(ctx, signature)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if err := sleepWithContext(ctx, interval); err != nil {
			return fmt.Errorf("wait for %s: %w", signature, err)
		}
	}
}

// RecentPrioritizationFees returns the per-slot compute unit prices, in
// micro-lamports, recently paid by transactions writing to accounts.
func (c *Client) RecentPrioritizationFees(ctx context.Context, accounts []solana.Pubkey) ([]uint64, error) {
	keys := make([]string, 0, len(accounts))
	for _, a := range accounts {
		keys = append(keys, a.Base58())
	}
	var resp []struct {
		Slot              uint64 `json:"slot"`
		PrioritizationFee uint64 `json:"prioritizationFee"`
	}
	if err := c.rpcCall(ctx, "getRecentPrioritizationFees", []any{keys}, &resp); err != nil {
		return nil, err
	}
	out := make([]uint64, 0, len(resp))
	for _, r := range resp {
		out = append(out, r.PrioritizationFee)
	}
	return out, nil
}

// PriorityFeeEstimate picks the given percentile (0-100) of the recent
// prioritization fees for accounts. An empty history estimates zero.
func (c *Client) PriorityFeeEstimate(ctx context.Context, accounts []solana.Pubkey, percentile int) (uint64, error) {
	if percentile < 0 || percentile > 100 {
		return 0, fmt.Errorf("percentile out of range: %d", percentile)
	}
	fees, err := c.RecentPrioritizationFees(ctx, accounts)
	if err != nil {
		return 0, err
	}
	if len(fees) == 0 {
		return 0, nil
	}
	slices.Sort(fees)
	idx := (len(fees) - 1) * percentile / 100
	return fees[idx], nil
}
