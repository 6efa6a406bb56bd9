package order

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ctxprotocol/hyperliquid-mcp/pkg/exchange"
)

// submitServer counts /exchange hits and replies with a canned body so the
// tests can prove precondition failures never reach the network.
func submitServer(status int, body string) (*httptest.Server, *int32) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/exchange" {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	return srv, &hits
}

func sampleAction() json.RawMessage {
	return json.RawMessage(`{"type":"order","orders":[{"a":2,"b":true,"p":"23.69","s":"100","r":false,"t":{"limit":{"tif":"Ioc"}}}],"grouping":"na"}`)
}

func TestSubmitMissingFields(t *testing.T) {
	srv, hits := submitServer(200, `{"status":"ok","response":{}}`)
	defer srv.Close()
	sub := NewSubmitter(exchange.NewClient(srv.URL, 5*time.Second, nil), nil)

	cases := []struct {
		name string
		req  *SubmitRequest
	}{
		{"no signature", &SubmitRequest{Action: sampleAction(), Nonce: 1}},
		{"no action", &SubmitRequest{Signature: "0x" + validSigHex(), Nonce: 1}},
		{"no nonce", &SubmitRequest{Signature: "0x" + validSigHex(), Action: sampleAction()}},
	}
	for _, tc := range cases {
		if _, err := sub.Submit(context.Background(), tc.req); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("%s: err = %v, want ErrInvalidArgument", tc.name, err)
		}
	}
	if n := atomic.LoadInt32(hits); n != 0 {
		t.Errorf("exchange hit %d times for invalid requests", n)
	}
}

func TestSubmitBadSignatureBeforeNetwork(t *testing.T) {
	srv, hits := submitServer(200, `{"status":"ok","response":{}}`)
	defer srv.Close()
	sub := NewSubmitter(exchange.NewClient(srv.URL, 5*time.Second, nil), nil)

	req := &SubmitRequest{Signature: "0xdeadbeef", Action: sampleAction(), Nonce: 1700000000000}
	if _, err := sub.Submit(context.Background(), req); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
	if n := atomic.LoadInt32(hits); n != 0 {
		t.Errorf("malformed signature reached the exchange (%d hits)", n)
	}
}

func TestSubmitBadVaultAddress(t *testing.T) {
	srv, hits := submitServer(200, `{"status":"ok","response":{}}`)
	defer srv.Close()
	sub := NewSubmitter(exchange.NewClient(srv.URL, 5*time.Second, nil), nil)

	req := &SubmitRequest{
		Signature:    "0x" + validSigHex(),
		Action:       sampleAction(),
		Nonce:        1700000000000,
		VaultAddress: "not-an-address",
	}
	if _, err := sub.Submit(context.Background(), req); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
	if n := atomic.LoadInt32(hits); n != 0 {
		t.Errorf("invalid vault address reached the exchange (%d hits)", n)
	}
}

func TestSubmitSuccess(t *testing.T) {
	srv, hits := submitServer(200, `{"status":"ok","response":{"type":"order","data":{"statuses":[{"resting":{"oid":1234}}]}}}`)
	defer srv.Close()
	sub := NewSubmitter(exchange.NewClient(srv.URL, 5*time.Second, nil), nil)

	req := &SubmitRequest{Signature: "0x" + validSigHex(), Action: sampleAction(), Nonce: 1700000000000}
	result, err := sub.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Status != "success" {
		t.Errorf("status = %q, want success", result.Status)
	}
	if !strings.Contains(string(result.Response), "1234") {
		t.Errorf("exchange response not passed through: %s", result.Response)
	}
	if n := atomic.LoadInt32(hits); n != 1 {
		t.Errorf("exchange hit %d times, want exactly 1", n)
	}
}

func TestSubmitExchangeRejection(t *testing.T) {
	srv, hits := submitServer(200, `{"status":"err","response":"Insufficient margin to place order"}`)
	defer srv.Close()
	sub := NewSubmitter(exchange.NewClient(srv.URL, 5*time.Second, nil), nil)

	req := &SubmitRequest{Signature: "0x" + validSigHex(), Action: sampleAction(), Nonce: 1700000000000}
	result, err := sub.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("a rejection is a result, not an error: %v", err)
	}
	if result.Status != "error" {
		t.Errorf("status = %q, want error", result.Status)
	}
	if !strings.Contains(result.Message, "Insufficient margin") {
		t.Errorf("exchange diagnostic lost: %q", result.Message)
	}
	if n := atomic.LoadInt32(hits); n != 1 {
		t.Errorf("exchange hit %d times, want exactly 1 (no retries)", n)
	}
}

func TestSubmitTransportErrorNotRetried(t *testing.T) {
	srv, hits := submitServer(502, "bad gateway")
	defer srv.Close()
	sub := NewSubmitter(exchange.NewClient(srv.URL, 5*time.Second, nil), nil)

	req := &SubmitRequest{Signature: "0x" + validSigHex(), Action: sampleAction(), Nonce: 1700000000000}
	result, err := sub.Submit(context.Background(), req)
	if n := atomic.LoadInt32(hits); n != 1 {
		t.Fatalf("exchange hit %d times, want exactly 1 (no retries)", n)
	}
	// A non-200 is a rejection from the client's point of view.
	if err == nil && (result == nil || result.Status != "error") {
		t.Errorf("HTTP 502 produced neither an error nor an error result: %+v", result)
	}
}
