package order

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ctxprotocol/hyperliquid-mcp/pkg/crypto"
	"github.com/ctxprotocol/hyperliquid-mcp/pkg/exchange"
)

// fakeExchange serves just enough of the info API for the builder: a
// universe where HYPE has szDecimals=2 and a mark price of 23.456.
func fakeExchange(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/info" {
			t.Errorf("unexpected path %q", r.URL.Path)
			return
		}
		var envelope map[string]string
		_ = json.NewDecoder(r.Body).Decode(&envelope)
		switch envelope["type"] {
		case "meta":
			w.Write([]byte(`{"universe":[{"name":"BTC","szDecimals":5},{"name":"ETH","szDecimals":4},{"name":"HYPE","szDecimals":2}]}`))
		case "allMids":
			w.Write([]byte(`{"BTC":"97123.0","ETH":"3412.5","HYPE":"23.456"}`))
		case "l2Book":
			w.Write([]byte(`{"coin":"` + envelope["coin"] + `","levels":[[{"px":"23.45","sz":"100","n":3}],[{"px":"23.47","sz":"80","n":2}]],"time":1}`))
		}
	}))
}

func testBuilder(t *testing.T, apiURL string) *Builder {
	t.Helper()
	client := exchange.NewClient(apiURL, 5*time.Second, nil)
	clk := &fakeClock{now: time.UnixMilli(1700000000000)}
	agent := crypto.NewAgentSigner(crypto.DefaultExchangeDomain())
	return NewBuilder(client, nil, NewNonceSource(clk), agent, crypto.AgentSourceMainnet, 10000, nil)
}

func TestBuildMarketBuy(t *testing.T) {
	srv := fakeExchange(t)
	defer srv.Close()
	b := testBuilder(t, srv.URL)

	h, err := b.Build(context.Background(), &Intent{Coin: "HYPE", IsBuy: true, Size: 100, OrderType: TypeMarket})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if h.Status != "handshake_required" {
		t.Errorf("status = %q, want handshake_required", h.Status)
	}
	// Mark 23.456 * 1.01 = 23.69056, truncated to 23.69 on szDecimals=2.
	if h.OrderDetails.Price != "23.69" {
		t.Errorf("price = %q, want 23.69", h.OrderDetails.Price)
	}
	if h.OrderDetails.Size != "100" || h.OrderDetails.Side != "buy" {
		t.Errorf("details = %+v", h.OrderDetails)
	}

	var action Action
	if err := json.Unmarshal(h.Meta.HandshakeAction.Action, &action); err != nil {
		t.Fatalf("unmarshal action: %v", err)
	}
	if action.Type != "order" || action.Grouping != "na" || len(action.Orders) != 1 {
		t.Fatalf("action = %+v", action)
	}
	wire := action.Orders[0]
	if wire.Asset != 2 {
		t.Errorf("asset index = %d, want 2 (HYPE)", wire.Asset)
	}
	if !wire.IsBuy || wire.Price != "23.69" || wire.Size != "100" {
		t.Errorf("wire = %+v", wire)
	}
	if wire.Type.Limit == nil || wire.Type.Limit.Tif != TifIoc {
		t.Errorf("market order must be an IOC limit on the wire, got %+v", wire.Type)
	}

	if h.Meta.HandshakeAction.Nonce == 0 {
		t.Error("nonce missing")
	}
	if len(h.Meta.HandshakeAction.Digest) != 2+64 {
		t.Errorf("digest %q is not a 32-byte hex hash", h.Meta.HandshakeAction.Digest)
	}
	// notional 23.69*100 = 2369 < 10000
	if h.Display.HighRisk {
		t.Error("small order flagged high risk")
	}
}

func TestBuildHighRiskFlag(t *testing.T) {
	srv := fakeExchange(t)
	defer srv.Close()
	b := testBuilder(t, srv.URL)

	h, err := b.Build(context.Background(), &Intent{Coin: "HYPE", IsBuy: true, Size: 1000, OrderType: TypeMarket})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	// notional 23.69*1000 = 23690 > 10000
	if !h.Display.HighRisk {
		t.Error("large order not flagged high risk")
	}
}

func TestBuildStopLossForcesReduceOnly(t *testing.T) {
	srv := fakeExchange(t)
	defer srv.Close()
	b := testBuilder(t, srv.URL)

	h, err := b.Build(context.Background(), &Intent{
		Coin:         "HYPE",
		IsBuy:        false,
		Size:         10,
		OrderType:    TypeStopLoss,
		TriggerPrice: 21.5,
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if !h.OrderDetails.ReduceOnly {
		t.Error("stop loss not forced reduce-only")
	}
	var action Action
	_ = json.Unmarshal(h.Meta.HandshakeAction.Action, &action)
	trigger := action.Orders[0].Type.Trigger
	if trigger == nil {
		t.Fatal("stop loss missing trigger wire")
	}
	if trigger.TpSl != "sl" || !trigger.IsMarket || trigger.TriggerPx != "21.5" {
		t.Errorf("trigger = %+v", trigger)
	}
}

func TestBuildCloseEntirePosition(t *testing.T) {
	srv := fakeExchange(t)
	defer srv.Close()
	b := testBuilder(t, srv.URL)

	h, err := b.Build(context.Background(), &Intent{
		Coin:                "HYPE",
		IsBuy:               true, // buying back a short
		CloseEntirePosition: true,
		OrderType:           TypeMarket,
		Portfolio: &Portfolio{Positions: []PortfolioPosition{
			{Coin: "hype", Size: -2.5},
		}},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if h.OrderDetails.Size != "2.5" || !h.OrderDetails.ReduceOnly {
		t.Errorf("details = %+v, want size 2.5 reduce-only", h.OrderDetails)
	}
}

func TestBuildDistinctNoncesAndDigests(t *testing.T) {
	srv := fakeExchange(t)
	defer srv.Close()
	b := testBuilder(t, srv.URL) // frozen clock: same millisecond every call

	intent := &Intent{Coin: "HYPE", IsBuy: true, Size: 100, OrderType: TypeMarket}
	h1, err := b.Build(context.Background(), intent)
	if err != nil {
		t.Fatalf("build 1: %v", err)
	}
	h2, err := b.Build(context.Background(), intent)
	if err != nil {
		t.Fatalf("build 2: %v", err)
	}

	if h1.Meta.HandshakeAction.Nonce == h2.Meta.HandshakeAction.Nonce {
		t.Error("identical intents in the same millisecond shared a nonce")
	}
	if h1.Meta.HandshakeAction.Digest == h2.Meta.HandshakeAction.Digest {
		t.Error("distinct nonces must produce distinct signable digests")
	}
}

func TestBuildTriggerPriceTooSmall(t *testing.T) {
	srv := fakeExchange(t)
	defer srv.Close()
	b := testBuilder(t, srv.URL)

	// HYPE allows 4 price decimals; 0.00001 truncates to zero and must fail
	// the build instead of producing a zero-price trigger on the wire.
	_, err := b.Build(context.Background(), &Intent{
		Coin:         "HYPE",
		IsBuy:        false,
		Size:         10,
		OrderType:    TypeStopLoss,
		TriggerPrice: 0.00001,
	})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestBuildSizeTooSmall(t *testing.T) {
	srv := fakeExchange(t)
	defer srv.Close()
	b := testBuilder(t, srv.URL)

	// HYPE has szDecimals=2; 0.001 truncates to zero.
	_, err := b.Build(context.Background(), &Intent{Coin: "HYPE", IsBuy: true, Size: 0.001, OrderType: TypeMarket})
	if err == nil {
		t.Fatal("expected error for dust-sized order")
	}
}

func TestBuildSignableIsVerifiable(t *testing.T) {
	srv := fakeExchange(t)
	defer srv.Close()
	b := testBuilder(t, srv.URL)

	h, err := b.Build(context.Background(), &Intent{Coin: "HYPE", IsBuy: true, Size: 100, OrderType: TypeMarket})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	// A wallet signing the returned typed data must produce a signature the
	// exchange can recover to the wallet's address.
	signer, _ := crypto.GenerateKey()
	agentSigner := crypto.NewAgentSigner(crypto.DefaultExchangeDomain())
	agent := &crypto.Agent{
		Source:       crypto.AgentSourceMainnet,
		ConnectionID: crypto.ActionHash(h.Meta.HandshakeAction.Action, h.Meta.HandshakeAction.Nonce, nil),
	}
	sig, err := agentSigner.SignAgent(signer, agent)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	recovered, err := agentSigner.RecoverAgentSigner(agent, sig)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if recovered != signer.Address() {
		t.Error("recovered address does not match the signing wallet")
	}
}
