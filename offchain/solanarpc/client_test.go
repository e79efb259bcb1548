package solanarpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Abdullah1738/user-pda/offchain/solana"
)

type rpcCapture struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
}

func newRPCServer(t *testing.T, handle func(req rpcCapture) string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcCapture
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		_, _ = w.Write([]byte(handle(req)))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Slot(t *testing.T) {
	srv := newRPCServer(t, func(req rpcCapture) string {
		if req.Method != "getSlot" {
			t.Errorf("method=%q", req.Method)
		}
		return `{"jsonrpc":"2.0","id":"1","result":123}`
	})

	c := New(srv.URL, nil)
	got, err := c.Slot(context.Background())
	if err != nil {
		t.Fatalf("Slot: %v", err)
	}
	if got != 123 {
		t.Fatalf("slot=%d, want 123", got)
	}
}

func TestClient_AccountInfo(t *testing.T) {
	programID := "75Zp2SwmevG3tMGTHjjXkXde8KxufKyjqKZUbsThwn5f"
	srv := newRPCServer(t, func(req rpcCapture) string {
		if req.Method != "getAccountInfo" {
			t.Errorf("method=%q", req.Method)
		}
		if len(req.Params) != 2 {
			t.Errorf("params len=%d", len(req.Params))
		}
		return `{"jsonrpc":"2.0","id":"1","result":{"context":{"slot":1},"value":{
  "lamports":1000000000,
  "owner":"` + programID + `",
  "data":["AAAAAAAAAAA=","base64"],
  "executable":false
}}}`
	})

	var pk solana.Pubkey
	pk[0] = 1
	got, err := New(srv.URL, nil).AccountInfo(context.Background(), pk)
	if err != nil {
		t.Fatalf("AccountInfo: %v", err)
	}
	if got.Lamports != 1_000_000_000 {
		t.Fatalf("lamports=%d", got.Lamports)
	}
	if got.Owner.Base58() != programID {
		t.Fatalf("owner=%s", got.Owner)
	}
	if len(got.Data) != 8 {
		t.Fatalf("data len=%d, want 8", len(got.Data))
	}
}

func TestClient_AccountInfoNotFound(t *testing.T) {
	srv := newRPCServer(t, func(rpcCapture) string {
		return `{"jsonrpc":"2.0","id":"1","result":{"context":{"slot":1},"value":null}}`
	})

	_, err := New(srv.URL, nil).AccountInfo(context.Background(), solana.Pubkey{1})
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("want ErrAccountNotFound, got %v", err)
	}
}

func TestClient_RPCErrorUnwraps(t *testing.T) {
	srv := newRPCServer(t, func(rpcCapture) string {
		return `{"jsonrpc":"2.0","id":"1","error":{"code":-32002,"message":"Transaction simulation failed: account already in use"}}`
	})

	_, err := New(srv.URL, nil).SendTransaction(context.Background(), []byte{1}, false)
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) || rpcErr.Code != -32002 {
		t.Fatalf("want RPCError -32002, got %v", err)
	}
	if !errors.Is(err, ErrRPCError) {
		t.Fatalf("RPCError should unwrap to ErrRPCError")
	}
}

func TestClient_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":"1","result":{"context":{"slot":1},"value":42}}`))
	}))
	defer srv.Close()

	got, err := New(srv.URL, nil).BalanceLamports(context.Background(), "abc")
	if err != nil {
		t.Fatalf("BalanceLamports: %v", err)
	}
	if got != 42 || calls.Load() != 2 {
		t.Fatalf("balance=%d calls=%d", got, calls.Load())
	}
}

func TestClient_SendTransactionEncodesBase64(t *testing.T) {
	srv := newRPCServer(t, func(req rpcCapture) string {
		if req.Method != "sendTransaction" || len(req.Params) != 2 {
			t.Errorf("method=%q params=%d", req.Method, len(req.Params))
		}
		if req.Params[0] != "AQID" {
			t.Errorf("tx param=%v", req.Params[0])
		}
		return `{"jsonrpc":"2.0","id":"1","result":"sig111"}`
	})

	sig, err := New(srv.URL, nil).SendTransaction(context.Background(), []byte{1, 2, 3}, false)
	if err != nil {
		t.Fatalf("SendTransaction: %v", err)
	}
	if sig != "sig111" {
		t.Fatalf("sig=%q", sig)
	}
}

func TestClient_WaitForConfirmation(t *testing.T) {
	var calls atomic.Int32
	srv := newRPCServer(t, func(req rpcCapture) string {
		if req.Method != "getSignatureStatuses" {
			t.Errorf("method=%q", req.Method)
		}
		switch calls.Add(1) {
		case 1:
			return `{"jsonrpc":"2.0","id":"1","result":{"context":{"slot":1},"value":[null]}}`
		case 2:
			return `{"jsonrpc":"2.0","id":"1","result":{"context":{"slot":1},"value":[{"confirmationStatus":"processed","err":null}]}}`
		default:
			return `{"jsonrpc":"2.0","id":"1","result":{"context":{"slot":1},"value":[{"confirmationStatus":"confirmed","err":null}]}}`
		}
	})

	err := New(srv.URL, nil).WaitForConfirmation(context.Background(), "sig", 5*time.Second, time.Millisecond)
	if err != nil {
		t.Fatalf("WaitForConfirmation: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls=%d, want 3", calls.Load())
	}
}

func TestClient_SignatureConfirmedFailedTx(t *testing.T) {
	srv := newRPCServer(t, func(rpcCapture) string {
		return `{"jsonrpc":"2.0","id":"1","result":{"context":{"slot":1},"value":[{"confirmationStatus":"confirmed","err":{"InstructionError":[0,{"Custom":0}]}}]}}`
	})

	_, err := New(srv.URL, nil).SignatureConfirmed(context.Background(), "sig")
	if !errors.Is(err, ErrTransactionFailed) {
		t.Fatalf("want ErrTransactionFailed, got %v", err)
	}
}

func TestClientFromEnv(t *testing.T) {
	t.Setenv("SOLANA_RPC_URL", "")
	if _, err := ClientFromEnv(); !errors.Is(err, ErrMissingRPCURL) {
		t.Fatalf("want ErrMissingRPCURL, got %v", err)
	}
	t.Setenv("SOLANA_RPC_URL", "http://127.0.0.1:8899")
	c, err := ClientFromEnv()
	if err != nil || c.rpcURL != "http://127.0.0.1:8899" {
		t.Fatalf("ClientFromEnv: c=%v err=%v", c, err)
	}
}

func TestClient_PriorityFeeEstimate(t *testing.T) {
	program, err := solana.ParsePubkey("75Zp2SwmevG3tMGTHjjXkXde8KxufKyjqKZUbsThwn5f")
	if err != nil {
		t.Fatalf("ParsePubkey: %v", err)
	}
	srv := newRPCServer(t, func(req rpcCapture) string {
		if req.Method != "getRecentPrioritizationFees" {
			t.Errorf("method=%q", req.Method)
		}
		keys, _ := req.Params[0].([]any)
		if len(keys) != 1 || keys[0] != program.Base58() {
			t.Errorf("keys=%v", keys)
		}
		return `{"jsonrpc":"2.0","id":"1","result":[
			{"slot":1,"prioritizationFee":500},
			{"slot":2,"prioritizationFee":0},
			{"slot":3,"prioritizationFee":100},
			{"slot":4,"prioritizationFee":300},
			{"slot":5,"prioritizationFee":200}
		]}`
	})

	c := New(srv.URL, nil)
	cases := map[int]uint64{0: 0, 50: 200, 75: 300, 100: 500}
	for p, want := range cases {
		got, err := c.PriorityFeeEstimate(context.Background(), []solana.Pubkey{program}, p)
		if err != nil {
			t.Fatalf("PriorityFeeEstimate(%d): %v", p, err)
		}
		if got != want {
			t.Fatalf("PriorityFeeEstimate(%d)=%d, want %d", p, got, want)
		}
	}
	if _, err := c.PriorityFeeEstimate(context.Background(), nil, 101); err == nil {
		t.Fatalf("expected error for percentile 101")
	}
}

func TestClient_PriorityFeeEstimateEmptyHistory(t *testing.T) {
	srv := newRPCServer(t, func(req rpcCapture) string {
		return `{"jsonrpc":"2.0","id":"1","result":[]}`
	})
	got, err := New(srv.URL, nil).PriorityFeeEstimate(context.Background(), nil, 75)
	if err != nil {
		t.Fatalf("PriorityFeeEstimate: %v", err)
	}
	if got != 0 {
		t.Fatalf("got %d, want 0", got)
	}
}
