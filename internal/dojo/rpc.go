package dojo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// TransactionDispatcher sends contract calls as one transaction and waits
// until it is accepted.
type TransactionDispatcher interface {
	Execute(ctx context.Context, calls ...Call) (TxHash, error)
}

// Call is one contract invocation inside a multicall.
type Call struct {
	To         string
	Entrypoint string
	Calldata   []string
}

// TxHash is a transaction hash as a 0x-prefixed felt.
type TxHash string

var (
	ErrReverted = errors.New("transaction reverted")
	ErrNoCalls  = errors.New("no calls to execute")
)

// txHashNotFound is the Starknet RPC error code for an unknown transaction.
const txHashNotFound = 29

// RPCError is a JSON-RPC error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return "rpc error " + strconv.Itoa(e.Code) + ": " + e.Message
}

// RPCDispatcher invokes the account's __execute__ through a Starknet node.
// Transactions go out unsigned, which a dev sequencer running with
// validation disabled accepts for its prefunded accounts.
type RPCDispatcher struct {
	url          string
	account      string
	http         *http.Client
	maxFee       string
	pollInterval time.Duration
	nextID       atomic.Int64
}

// NewRPCDispatcher returns a dispatcher acting as account.
func NewRPCDispatcher(url string, account string, client *http.Client) *RPCDispatcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &RPCDispatcher{
		url:          url,
		account:      account,
		http:         client,
		maxFee:       "0x2386f26fc10000",
		pollInterval: 500 * time.Millisecond,
	}
}

// SetPollInterval changes how often receipts are polled.
func (d *RPCDispatcher) SetPollInterval(interval time.Duration) {
	if interval > 0 {
		d.pollInterval = interval
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

type invokeTransaction struct {
	Type          string   `json:"type"`
	Version       string   `json:"version"`
	SenderAddress string   `json:"sender_address"`
	Calldata      []string `json:"calldata"`
	MaxFee        string   `json:"max_fee"`
	Signature     []string `json:"signature"`
	Nonce         string   `json:"nonce"`
}

type receipt struct {
	ExecutionStatus string `json:"execution_status"`
	FinalityStatus  string `json:"finality_status"`
	RevertReason    string `json:"revert_reason"`
}

// Execute implements TransactionDispatcher.
func (d *RPCDispatcher) Execute(ctx context.Context, calls ...Call) (TxHash, error) {
	if len(calls) == 0 {
		return "", ErrNoCalls
	}
	var nonce string
	if err := d.call(ctx, "starknet_getNonce", []any{"pending", d.account}, &nonce); err != nil {
		return "", fmt.Errorf("get nonce: %w", err)
	}
	tx := invokeTransaction{
		Type:          "INVOKE",
		Version:       "0x1",
		SenderAddress: d.account,
		Calldata:      ExecuteCalldata(calls),
		MaxFee:        d.maxFee,
		Signature:     []string{},
		Nonce:         nonce,
	}
	var added struct {
		TransactionHash TxHash `json:"transaction_hash"`
	}
	if err := d.call(ctx, "starknet_addInvokeTransaction", map[string]any{"invoke_transaction": tx}, &added); err != nil {
		return "", fmt.Errorf("add invoke: %w", err)
	}
	if err := d.waitForReceipt(ctx, added.TransactionHash); err != nil {
		return added.TransactionHash, err
	}
	return added.TransactionHash, nil
}

// ExecuteCalldata serializes calls for an account __execute__:
// n, then to, selector, len(calldata), calldata... per call.
func ExecuteCalldata(calls []Call) []string {
	out := []string{"0x" + strconv.FormatInt(int64(len(calls)), 16)}
	for _, c := range calls {
		out = append(out, c.To, Selector(c.Entrypoint), "0x"+strconv.FormatInt(int64(len(c.Calldata)), 16))
		out = append(out, c.Calldata...)
	}
	return out
}

func (d *RPCDispatcher) waitForReceipt(ctx context.Context, hash TxHash) error {
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()
	for {
		var r receipt
		err := d.call(ctx, "starknet_getTransactionReceipt", map[string]any{"transaction_hash": hash}, &r)
		var rpcErr *RPCError
		switch {
		case err == nil:
			if r.ExecutionStatus == "REVERTED" {
				return fmt.Errorf("%w: %s", ErrReverted, r.RevertReason)
			}
			if r.ExecutionStatus == "SUCCEEDED" {
				return nil
			}
		case errors.As(err, &rpcErr) && rpcErr.Code == txHashNotFound:
		default:
			return fmt.Errorf("receipt %s: %w", hash, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (d *RPCDispatcher) call(ctx context.Context, method string, params any, result any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      d.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := d.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(raw))
	}
	var out rpcResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("decode %s: %w", method, err)
	}
	if out.Error != nil {
		return out.Error
	}
	if result == nil {
		return nil
	}
	return json.Unmarshal(out.Result, result)
}
