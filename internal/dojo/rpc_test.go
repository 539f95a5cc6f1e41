package dojo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelector(t *testing.T) {
	assert.Equal(t, "0x83afd3f4caedc6eebf44246fe54e38c95e3179a5ec9ea81740eca5b482d12e", Selector("transfer"))
}

func TestExecuteCalldata(t *testing.T) {
	calls := []Call{
		{To: "0xaaa", Entrypoint: "transfer", Calldata: []string{"0x1", "0x2"}},
		{To: "0xbbb", Entrypoint: "transfer"},
	}
	got := ExecuteCalldata(calls)
	want := []string{
		"0x2",
		"0xaaa", Selector("transfer"), "0x2", "0x1", "0x2",
		"0xbbb", Selector("transfer"), "0x0",
	}
	assert.Equal(t, want, got)
}

type fakeNode struct {
	mu          sync.Mutex
	receipts    []string
	revertCause string
	invoked     invokeTransaction
}

func (n *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     int64           `json:"id"`
		Method string          `json:"method"`
		Params json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	reply := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	switch req.Method {
	case "starknet_getNonce":
		reply["result"] = "0x7"
	case "starknet_addInvokeTransaction":
		var params struct {
			Invoke invokeTransaction `json:"invoke_transaction"`
		}
		_ = json.Unmarshal(req.Params, &params)
		n.invoked = params.Invoke
		reply["result"] = map[string]string{"transaction_hash": "0xfeed"}
	case "starknet_getTransactionReceipt":
		status := "SUCCEEDED"
		if len(n.receipts) > 0 {
			status = n.receipts[0]
			n.receipts = n.receipts[1:]
		}
		if status == "NOT_FOUND" {
			reply["error"] = map[string]any{"code": txHashNotFound, "message": "Transaction hash not found"}
			break
		}
		reply["result"] = map[string]string{
			"execution_status": status,
			"finality_status":  "ACCEPTED_ON_L2",
			"revert_reason":    n.revertCause,
		}
	default:
		reply["error"] = map[string]any{"code": -32601, "message": "method not found"}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(reply)
}

func TestRPCDispatcher_Execute(t *testing.T) {
	node := &fakeNode{receipts: []string{"NOT_FOUND", "SUCCEEDED"}}
	srv := httptest.NewServer(node)
	defer srv.Close()

	d := NewRPCDispatcher(srv.URL, "0xacc", srv.Client())
	d.SetPollInterval(time.Millisecond)

	hash, err := d.Execute(context.Background(), Call{To: "0xactions", Entrypoint: "end_game"})
	require.NoError(t, err)
	assert.Equal(t, TxHash("0xfeed"), hash)

	node.mu.Lock()
	defer node.mu.Unlock()
	assert.Equal(t, "0xacc", node.invoked.SenderAddress)
	assert.Equal(t, "0x7", node.invoked.Nonce)
	assert.Equal(t, []string{"0x1", "0xactions", Selector("end_game"), "0x0"}, node.invoked.Calldata)
}

func TestRPCDispatcher_Reverted(t *testing.T) {
	node := &fakeNode{receipts: []string{"REVERTED"}, revertCause: "game not active"}
	srv := httptest.NewServer(node)
	defer srv.Close()

	d := NewRPCDispatcher(srv.URL, "0xacc", srv.Client())
	d.SetPollInterval(time.Millisecond)

	hash, err := d.Execute(context.Background(), Call{To: "0xactions", Entrypoint: "end_game"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReverted))
	assert.Contains(t, err.Error(), "game not active")
	assert.Equal(t, TxHash("0xfeed"), hash)
}

func TestRPCDispatcher_NoCalls(t *testing.T) {
	d := NewRPCDispatcher("http://127.0.0.1:0", "0xacc", nil)
	_, err := d.Execute(context.Background())
	assert.ErrorIs(t, err, ErrNoCalls)
}

func TestRPCDispatcher_ContextCancelledWhileWaiting(t *testing.T) {
	node := &fakeNode{receipts: []string{"NOT_FOUND", "NOT_FOUND", "NOT_FOUND", "NOT_FOUND", "NOT_FOUND"}}
	srv := httptest.NewServer(node)
	defer srv.Close()

	d := NewRPCDispatcher(srv.URL, "0xacc", srv.Client())
	d.SetPollInterval(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := d.Execute(ctx, Call{To: "0xactions", Entrypoint: "end_game"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
