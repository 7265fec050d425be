package handler

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"

	"github.com/cawabunga/ref-finance-stableswap-math/internal/logging"
	"github.com/cawabunga/ref-finance-stableswap-math/internal/metrics"
	"github.com/cawabunga/ref-finance-stableswap-math/internal/near"
	"github.com/cawabunga/ref-finance-stableswap-math/internal/ref"
	"github.com/cawabunga/ref-finance-stableswap-math/internal/service"
)

type fakeReader struct {
	pool        *ref.PoolInfo
	err         error
	contractOut *big.Int
}

func (f *fakeReader) GetPool(context.Context, near.BlockRef, uint64) (*ref.PoolInfo, error) {
	return f.pool, f.err
}

func (f *fakeReader) GetReturn(context.Context, near.BlockRef, uint64, string, *big.Int, string) (*big.Int, error) {
	return f.contractOut, f.err
}

func (f *fakeReader) TokenDecimals(context.Context, near.BlockRef, string) (uint8, error) {
	return 0, ref.ErrMalformedMetadata
}

func bigString(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad big int " + s)
	}
	return v
}

func stablePool() *ref.PoolInfo {
	return &ref.PoolInfo{
		ID:              1910,
		Kind:            ref.KindStableSwap,
		TokenAccountIDs: []string{"usdc.near", "usdt.near", "dai.near"},
		Amounts:         []*big.Int{bigString("719240775791"), bigString("485261247671"), bigString("990759998116457852477754")},
		TotalFee:        5,
		Amp:             big.NewInt(240),
		BlockHash:       "4wBqpZM9xaSheZzJSMawUKKwhdpChKbZ5eu5ky4Vigw",
		BlockHeight:     42,
	}
}

var tokenDecimals = map[string]uint8{"usdc.near": 6, "usdt.near": 6, "dai.near": 18}

func newTestApp(t *testing.T, reader service.PoolReader) *fiber.App {
	t.Helper()
	logger := logging.Discard()
	m := metrics.NewMetrics("test", nil)
	svc := service.NewQuoteService(logger, m, reader, tokenDecimals)

	quotes := NewQuoteHandler(logger, svc)
	amountOut := NewAmountOutHandler(logger, svc)

	app := fiber.New()
	app.Get("/quote", quotes.Quote())
	app.Get("/compare", quotes.Compare())
	app.Post("/amount-out", amountOut.Handle())
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))
	return app
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (int, []byte) {
	t.Helper()
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, body
}

func TestQuoteHandler_OK(t *testing.T) {
	app := newTestApp(t, &fakeReader{pool: stablePool()})

	req := httptest.NewRequest(http.MethodGet, "/quote?pool_id=1910&token_in=usdc.near&token_out=usdt.near&amount_in=10000000000", nil)
	status, body := doRequest(t, app, req)
	if status != http.StatusOK {
		t.Fatalf("unexpected status: %d (%s)", status, body)
	}

	var got QuoteResponse
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.AmountOut != "9992301437" {
		t.Fatalf("amount_out = %s, want 9992301437", got.AmountOut)
	}
	if got.PoolID != 1910 || got.BlockHeight != 42 || got.Amp != "240" {
		t.Fatalf("unexpected response: %+v", got)
	}
	if got.HumanAmountOut != "9992.301437" {
		t.Fatalf("human_amount_out = %s", got.HumanAmountOut)
	}
}

func TestQuoteHandler_Validation(t *testing.T) {
	app := newTestApp(t, &fakeReader{pool: stablePool()})

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"missing_params", "", http.StatusBadRequest},
		{"bad_pool_id", "pool_id=abc&token_in=usdc.near&token_out=usdt.near&amount_in=1", http.StatusBadRequest},
		{"missing_token", "pool_id=1910&token_out=usdt.near&amount_in=1", http.StatusBadRequest},
		{"same_token", "pool_id=1910&token_in=usdc.near&token_out=usdc.near&amount_in=1", http.StatusBadRequest},
		{"missing_amount", "pool_id=1910&token_in=usdc.near&token_out=usdt.near", http.StatusBadRequest},
		{"negative_amount", "pool_id=1910&token_in=usdc.near&token_out=usdt.near&amount_in=-1", http.StatusBadRequest},
		{"unknown_token", "pool_id=1910&token_in=wrap.near&token_out=usdt.near&amount_in=1", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/quote?"+tt.query, nil)
			status, body := doRequest(t, app, req)
			if status != tt.status {
				t.Fatalf("expected %d, got %d (%s)", tt.status, status, body)
			}
		})
	}
}

func TestQuoteHandler_ErrorMapping(t *testing.T) {
	simple := stablePool()
	simple.Kind = ref.KindSimplePool

	tests := []struct {
		name   string
		reader *fakeReader
		status int
	}{
		{"simple_pool", &fakeReader{pool: simple}, http.StatusBadRequest},
		{"rpc_error", &fakeReader{err: &near.RPCError{Code: -32000, Message: "Server error"}}, http.StatusBadGateway},
		{"retries_exhausted", &fakeReader{err: near.ErrMaxRetries}, http.StatusBadGateway},
		{"malformed_pool", &fakeReader{err: ref.ErrMalformedPool}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, tt.reader)
			req := httptest.NewRequest(http.MethodGet, "/quote?pool_id=1&token_in=usdc.near&token_out=usdt.near&amount_in=1", nil)
			status, body := doRequest(t, app, req)
			if status != tt.status {
				t.Fatalf("expected %d, got %d (%s)", tt.status, status, body)
			}
		})
	}
}

func TestCompareHandler(t *testing.T) {
	app := newTestApp(t, &fakeReader{pool: stablePool(), contractOut: big.NewInt(9992301437)})

	req := httptest.NewRequest(http.MethodGet, "/compare?pool_id=1910&token_in=usdc.near&token_out=usdt.near&amount_in=10000000000", nil)
	status, body := doRequest(t, app, req)
	if status != http.StatusOK {
		t.Fatalf("unexpected status: %d (%s)", status, body)
	}

	var got CompareResponse
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !got.Match || got.ContractAmountOut != "9992301437" || got.AmountOut != "9992301437" {
		t.Fatalf("unexpected comparison: %+v", got)
	}
}

func TestAmountOutHandler(t *testing.T) {
	app := newTestApp(t, &fakeReader{})

	tests := []struct {
		name   string
		body   string
		status int
		want   string
	}{
		{
			name:   "bps_fee",
			body:   `{"token_decimals":[6,6,18],"amounts":["719240775791","485261247671","990759998116457852477754"],"amp":240,"total_fee":5,"token_in_index":0,"token_out_index":1,"amount_in":"10000000000"}`,
			status: http.StatusOK,
			want:   "9992301437",
		},
		{
			name:   "fractional_fee",
			body:   `{"token_decimals":[6,6,18],"amounts":["1000000000","1000000000","1000000000000000000"],"amp":"20000","total_fee":"0.0004","token_in_index":0,"token_out_index":1,"amount_in":"100000000"}`,
			status: http.StatusOK,
			want:   "99948935",
		},
		{
			name:   "zero_in",
			body:   `{"token_decimals":[6,6,18],"amounts":["1000000000","1000000000","1000000000000000000"],"amp":20000,"total_fee":4,"token_in_index":2,"token_out_index":0,"amount_in":"0"}`,
			status: http.StatusOK,
			want:   "0",
		},
		{
			name:   "fee_not_whole_bps",
			body:   `{"token_decimals":[6,6],"amounts":["1","1"],"amp":1,"total_fee":"0.00001","token_in_index":0,"token_out_index":1,"amount_in":"1"}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "bad_index",
			body:   `{"token_decimals":[6,6],"amounts":["1000","1000"],"amp":100,"total_fee":5,"token_in_index":0,"token_out_index":2,"amount_in":"1"}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "decimals_above_working",
			body:   `{"token_decimals":[6,24],"amounts":["1000","1000"],"amp":100,"total_fee":5,"token_in_index":0,"token_out_index":1,"amount_in":"1"}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "no_convergence",
			body:   `{"token_decimals":[18,18],"amounts":["1000000000000000000000000","1000000000000000000"],"amp":1,"total_fee":5,"token_in_index":0,"token_out_index":1,"amount_in":"1"}`,
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "missing_amount",
			body:   `{"token_decimals":[6,6],"amounts":["1000","1000"],"amp":100,"total_fee":5,"token_in_index":0,"token_out_index":1}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "not_json",
			body:   `nope`,
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/amount-out", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			status, body := doRequest(t, app, req)
			if status != tt.status {
				t.Fatalf("expected %d, got %d (%s)", tt.status, status, body)
			}
			if tt.want == "" {
				return
			}
			var got AmountOutResponse
			if err := json.Unmarshal(body, &got); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if got.AmountOut != tt.want {
				t.Fatalf("amount_out = %s, want %s", got.AmountOut, tt.want)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t, &fakeReader{pool: stablePool()})

	req := httptest.NewRequest(http.MethodGet, "/quote?pool_id=1910&token_in=usdc.near&token_out=usdt.near&amount_in=1", nil)
	if status, body := doRequest(t, app, req); status != http.StatusOK {
		t.Fatalf("unexpected status: %d (%s)", status, body)
	}

	status, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if status != http.StatusOK {
		t.Fatalf("unexpected status: %d", status)
	}
	if !strings.Contains(string(body), `test_quote_requests_total{endpoint="quote",outcome="ok"} 1`) {
		t.Fatalf("quote counter missing from metrics output:\n%s", body)
	}
}
