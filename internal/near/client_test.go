package near

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBlockHash = "4wBqpZM9xaSheZzJSMawUKKwhdpChKbZ5eu5ky4Vigw"

type capturedRequest struct {
	Method string         `json:"method"`
	Params map[string]any `json:"params"`
}

func toByteList(b []byte) []int {
	out := make([]int, len(b))
	for i, v := range b {
		out[i] = int(v)
	}
	return out
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestClient_CallFunction(t *testing.T) {
	var got capturedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(t, w, map[string]any{
			"jsonrpc": "2.0",
			"id":      "1",
			"result": map[string]any{
				"result":       toByteList([]byte(`{"amp":240}`)),
				"logs":         []string{"hello"},
				"block_height": 123456,
				"block_hash":   testBlockHash,
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	res, err := client.CallFunction(context.Background(), Final(), "v2.ref-finance.near", "get_pool", map[string]any{"pool_id": 1910})
	require.NoError(t, err)

	assert.Equal(t, "query", got.Method)
	assert.Equal(t, "call_function", got.Params["request_type"])
	assert.Equal(t, "v2.ref-finance.near", got.Params["account_id"])
	assert.Equal(t, "get_pool", got.Params["method_name"])
	assert.Equal(t, "final", got.Params["finality"])
	args, err := base64.StdEncoding.DecodeString(got.Params["args_base64"].(string))
	require.NoError(t, err)
	assert.JSONEq(t, `{"pool_id":1910}`, string(args))

	assert.Equal(t, testBlockHash, res.BlockHash)
	assert.Equal(t, uint64(123456), res.BlockHeight)
	assert.Equal(t, []string{"hello"}, res.Logs)
	doc, err := res.JSON()
	require.NoError(t, err)
	assert.Equal(t, int64(240), doc.Get("amp").Int())
}

func TestClient_CallFunction_AtBlock(t *testing.T) {
	var got capturedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(t, w, map[string]any{
			"jsonrpc": "2.0",
			"id":      "1",
			"result":  map[string]any{"result": toByteList([]byte(`"1"`)), "logs": []string{}, "block_hash": testBlockHash},
		})
	}))
	defer server.Close()

	_, err := NewClient(server.URL).CallFunction(context.Background(), AtBlock(testBlockHash), "a.near", "m", nil)
	require.NoError(t, err)
	assert.Equal(t, testBlockHash, got.Params["block_id"])
	assert.NotContains(t, got.Params, "finality")
}

func TestClient_CallFunction_InvalidBlockRef(t *testing.T) {
	client := NewClient("http://127.0.0.1:0")

	_, err := client.CallFunction(context.Background(), AtBlock("not-base58-0OIl"), "a.near", "m", nil)
	assert.ErrorIs(t, err, ErrInvalidBlockHash)

	_, err = client.CallFunction(context.Background(), AtBlock("8C2kCzsB2fJy9MiZos1mS"), "a.near", "m", nil)
	assert.ErrorIs(t, err, ErrInvalidBlockHash)

	_, err = client.CallFunction(context.Background(), BlockRef{Finality: "latest"}, "a.near", "m", nil)
	assert.ErrorIs(t, err, ErrInvalidBlockRef)
}

func TestClient_RPCErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(t, w, map[string]any{
			"jsonrpc": "2.0",
			"id":      "1",
			"error": map[string]any{
				"name":    "HANDLER_ERROR",
				"cause":   map[string]any{"name": "UNKNOWN_ACCOUNT"},
				"code":    -32000,
				"message": "Server error",
			},
		})
	}))
	defer server.Close()

	_, err := NewClient(server.URL, WithRetryDelay(time.Millisecond)).CallFunction(context.Background(), Final(), "missing.near", "get_pool", nil)
	require.Error(t, err)

	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, int64(-32000), rpcErr.Code)
	assert.Equal(t, "UNKNOWN_ACCOUNT", rpcErr.CauseName)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_ExecutionErrorInResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"jsonrpc": "2.0",
			"id":      "1",
			"result": map[string]any{
				"error":      "wasm execution failed with error: MethodNotFound",
				"logs":       []string{},
				"block_hash": testBlockHash,
			},
		})
	}))
	defer server.Close()

	_, err := NewClient(server.URL).CallFunction(context.Background(), Final(), "a.near", "nope", nil)
	assert.ErrorIs(t, err, ErrFunctionCall)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(t, w, map[string]any{
			"jsonrpc": "2.0",
			"id":      "1",
			"result": map[string]any{
				"chain_id":  "mainnet",
				"sync_info": map[string]any{"latest_block_hash": testBlockHash, "latest_block_height": 99, "syncing": false},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, WithRetryDelay(time.Millisecond), WithMaxDelay(2*time.Millisecond))
	status, err := client.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "mainnet", status.ChainID)
	assert.Equal(t, uint64(99), status.LatestBlockHeight)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, WithMaxRetries(2), WithRetryDelay(time.Millisecond))
	_, err := client.Status(context.Background())
	assert.ErrorIs(t, err, ErrMaxRetries)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDial(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"jsonrpc": "2.0",
			"id":      "1",
			"result":  map[string]any{"chain_id": "testnet", "sync_info": map[string]any{}},
		})
	}))
	defer server.Close()

	client, err := Dial(context.Background(), server.URL)
	require.NoError(t, err)
	require.NotNil(t, client)
}
