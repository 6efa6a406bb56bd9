package order

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"github.com/ctxprotocol/hyperliquid-mcp/pkg/crypto"
	"github.com/ctxprotocol/hyperliquid-mcp/pkg/exchange"
)

// The order lifecycle is a handshake because the server never holds the
// user's key:
//
//	Requested -> AwaitingSignature   Build returns the signable message
//	AwaitingSignature -> Signed      external wallet approval, out of band
//	Signed -> Submitted              Submitter.Submit
//	Submitted -> Confirmed|Rejected  exchange response
//
// Nonces are single-use; a failed submission means the whole handshake is
// re-driven from Requested.

// SignableMessage is everything the caller needs to obtain a signature and
// come back: the wallet-ready typed data, the digest it hashes to, and the
// exact action+nonce that must accompany the signature on submission.
type SignableMessage struct {
	TypedData json.RawMessage `json:"typedData"`
	Digest    string          `json:"digest"`
	Action    json.RawMessage `json:"action"`
	Nonce     uint64          `json:"nonce"`
}

// Details is the human-readable order summary shown for approval.
type Details struct {
	Coin         string  `json:"coin"`
	Side         string  `json:"side"`
	Size         string  `json:"size"`
	Price        string  `json:"price"`
	OrderType    Type    `json:"orderType"`
	TriggerPrice string  `json:"triggerPrice,omitempty"`
	ReduceOnly   bool    `json:"reduceOnly"`
	NotionalUSD  float64 `json:"notionalUsd"`
}

// Display hints how an approval UI should present the request.
type Display struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	HighRisk bool   `json:"highRisk"`
}

// Handshake is the place_order tool output: not an order confirmation but
// a request for an external signature.
type Handshake struct {
	Status       string  `json:"status"` // always "handshake_required"
	Message      string  `json:"message"`
	OrderDetails Details `json:"orderDetails"`
	Display      Display `json:"display"`
	Meta         struct {
		HandshakeAction SignableMessage `json:"handshakeAction"`
	} `json:"_meta"`
}

// Builder turns an Intent plus live market data into a signable payload.
// It never touches a private key.
type Builder struct {
	client          *exchange.Client
	marks           exchange.MarkSource
	nonces          *NonceSource
	agent           *crypto.AgentSigner
	source          string // crypto.AgentSourceMainnet or Testnet
	riskNotionalUSD float64
	log             *zap.Logger
}

func NewBuilder(client *exchange.Client, marks exchange.MarkSource, nonces *NonceSource, agent *crypto.AgentSigner, source string, riskNotionalUSD float64, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{
		client:          client,
		marks:           marks,
		nonces:          nonces,
		agent:           agent,
		source:          source,
		riskNotionalUSD: riskNotionalUSD,
		log:             log,
	}
}

// Build validates the intent, quantizes price and size against the asset's
// precision, and produces the signable message. All validation failures
// return before any further network call; the only remote reads are the
// market snapshot.
func (b *Builder) Build(ctx context.Context, intent *Intent) (*Handshake, error) {
	if err := intent.Validate(); err != nil {
		return nil, err
	}

	snap, err := b.client.MarketSnapshot(ctx, intent.Coin, b.marks)
	if err != nil {
		return nil, err
	}

	size, reduceOnly, err := ResolveSize(intent, snap.MarkPx)
	if err != nil {
		return nil, err
	}
	rawPrice, err := ResolvePrice(intent, snap)
	if err != nil {
		return nil, err
	}

	priceStr, err := FormatPrice(rawPrice, snap.SzDecimals)
	if err != nil {
		return nil, err
	}
	sizeStr, err := FormatSize(size, snap.SzDecimals)
	if err != nil {
		return nil, err
	}

	orderType := intent.EffectiveType()
	if orderType.isTrigger() {
		// Triggers exist to exit positions; an opening stop would flip the
		// position on a wick.
		reduceOnly = true
	}

	typeWire, err := wireType(orderType, intent, snap.SzDecimals)
	if err != nil {
		return nil, err
	}
	wire := OrderWire{
		Asset:      snap.AssetIndex,
		IsBuy:      intent.IsBuy,
		Price:      priceStr,
		Size:       sizeStr,
		ReduceOnly: reduceOnly,
		Type:       typeWire,
	}
	action := NewOrderAction(wire)
	actionJSON, err := json.Marshal(action)
	if err != nil {
		return nil, fmt.Errorf("marshal action: %w", err)
	}

	nonce := b.nonces.Next()
	agentMsg := &crypto.Agent{
		Source:       b.source,
		ConnectionID: crypto.ActionHash(actionJSON, nonce, nil),
	}
	digest, err := b.agent.HashAgent(agentMsg)
	if err != nil {
		return nil, fmt.Errorf("hash signable message: %w", err)
	}
	typedData, err := b.agent.TypedDataJSON(agentMsg)
	if err != nil {
		return nil, err
	}

	quantPrice, _ := strconv.ParseFloat(priceStr, 64)
	quantSize, _ := strconv.ParseFloat(sizeStr, 64)
	notional := quantPrice * quantSize

	details := Details{
		Coin:        intent.Coin,
		Side:        side(intent.IsBuy),
		Size:        sizeStr,
		Price:       priceStr,
		OrderType:   orderType,
		ReduceOnly:  reduceOnly,
		NotionalUSD: notional,
	}
	if orderType.isTrigger() {
		details.TriggerPrice = wire.Type.Trigger.TriggerPx
	}

	h := &Handshake{
		Status: "handshake_required",
		Message: fmt.Sprintf("Approve and sign this order to submit it: %s %s %s at %s.",
			details.Side, sizeStr, intent.Coin, priceStr),
		OrderDetails: details,
		Display: Display{
			Title:    fmt.Sprintf("%s %s %s", titleVerb(intent.IsBuy), sizeStr, intent.Coin),
			Subtitle: fmt.Sprintf("%s order at %s (~$%.2f)", orderType, priceStr, notional),
			HighRisk: notional > b.riskNotionalUSD,
		},
	}
	h.Meta.HandshakeAction = SignableMessage{
		TypedData: typedData,
		Digest:    hexutil.Encode(digest),
		Action:    actionJSON,
		Nonce:     nonce,
	}

	b.log.Info("order handshake built",
		zap.String("coin", intent.Coin),
		zap.String("side", details.Side),
		zap.String("size", sizeStr),
		zap.String("price", priceStr),
		zap.Uint64("nonce", nonce))

	return h, nil
}

func wireType(t Type, intent *Intent, szDecimals int) (TypeWire, error) {
	switch t {
	case TypeStopLoss, TypeTakeProfit:
		triggerPx, err := FormatPrice(intent.TriggerPrice, szDecimals)
		if err != nil {
			return TypeWire{}, fmt.Errorf("trigger price: %w", err)
		}
		tpsl := "sl"
		if t == TypeTakeProfit {
			tpsl = "tp"
		}
		return TypeWire{Trigger: &TriggerWire{
			IsMarket:  true,
			TriggerPx: triggerPx,
			TpSl:      tpsl,
		}}, nil
	case TypeMarket:
		return TypeWire{Limit: &LimitWire{Tif: TifIoc}}, nil
	default: // limit
		tif := TifGtc
		if intent.PostOnly {
			tif = TifAlo
		}
		return TypeWire{Limit: &LimitWire{Tif: tif}}, nil
	}
}

func side(isBuy bool) string {
	if isBuy {
		return "buy"
	}
	return "sell"
}

func titleVerb(isBuy bool) string {
	if isBuy {
		return "Buy"
	}
	return "Sell"
}
