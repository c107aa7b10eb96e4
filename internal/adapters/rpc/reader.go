// Package rpc reads chain storage over JSON-RPC.
package rpc

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/bytedance/sonic"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/novasamatech/hydra-route-engine/internal/chain"
	"github.com/novasamatech/hydra-route-engine/internal/metrics"
)

// StateReader resolves storage queries with `state_getStorage` calls against
// a chain node, retrying transient transport failures.
type StateReader struct {
	client *retryablehttp.Client
	url    string
}

func NewStateReader(url string, timeout time.Duration) *StateReader {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = timeout
	client.Logger = nil
	return &StateReader{client: client, url: url}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result *string   `json:"result"`
	Error  *rpcError `json:"error"`
}

// ReadState fetches the raw value under the query's storage key. A null
// result maps to chain.ErrStateMissing so callers can distinguish an absent
// entry from a transport failure.
func (r *StateReader) ReadState(ctx context.Context, query chain.StorageQuery) ([]byte, error) {
	key := storageKey(query)

	payload, err := sonic.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "state_getStorage",
		Params:  []any{"0x" + hex.EncodeToString(key)},
	})
	if err != nil {
		return nil, fmt.Errorf("encode rpc request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, "POST", r.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		metrics.StateReads.WithLabelValues(query.Pallet, "error").Inc()
		return nil, fmt.Errorf("state_getStorage %s.%s: %w", query.Pallet, query.Entry, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.StateReads.WithLabelValues(query.Pallet, "error").Inc()
		return nil, fmt.Errorf("read rpc response: %w", err)
	}

	var parsed rpcResponse
	if err := sonic.Unmarshal(body, &parsed); err != nil {
		metrics.StateReads.WithLabelValues(query.Pallet, "error").Inc()
		return nil, fmt.Errorf("decode rpc response: %w", err)
	}
	if parsed.Error != nil {
		metrics.StateReads.WithLabelValues(query.Pallet, "error").Inc()
		return nil, fmt.Errorf("state_getStorage %s.%s: rpc error %d: %s",
			query.Pallet, query.Entry, parsed.Error.Code, parsed.Error.Message)
	}
	if parsed.Result == nil {
		metrics.StateReads.WithLabelValues(query.Pallet, "missing").Inc()
		return nil, fmt.Errorf("%w: %s.%s", chain.ErrStateMissing, query.Pallet, query.Entry)
	}

	raw, err := decodeHex(*parsed.Result)
	if err != nil {
		metrics.StateReads.WithLabelValues(query.Pallet, "error").Inc()
		return nil, fmt.Errorf("decode storage value: %w", err)
	}
	metrics.StateReads.WithLabelValues(query.Pallet, "ok").Inc()
	return raw, nil
}

func decodeHex(s string) ([]byte, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	return hex.DecodeString(s)
}
