package exchange

import "encoding/json"

// AssetMeta is one entry of the exchange's perp universe.
type AssetMeta struct {
	Name        string `json:"name"`
	SzDecimals  int    `json:"szDecimals"`
	MaxLeverage int    `json:"maxLeverage,omitempty"`
}

// Meta is the response to the {"type":"meta"} info query. The position of
// an asset in Universe is its asset index on the wire.
type Meta struct {
	Universe []AssetMeta `json:"universe"`
}

// AssetIndex returns the wire index for a coin, or -1 if unknown.
// Symbol matching is exact; the universe uses canonical upper-case names.
func (m *Meta) AssetIndex(coin string) int {
	for i, a := range m.Universe {
		if a.Name == coin {
			return i
		}
	}
	return -1
}

// BookLevel is a single price level of the L2 order book.
type BookLevel struct {
	Px string `json:"px"`
	Sz string `json:"sz"`
	N  int    `json:"n"`
}

// L2Book is the response to {"type":"l2Book","coin":...}.
// Levels[0] are bids (best first), Levels[1] are asks.
type L2Book struct {
	Coin   string        `json:"coin"`
	Levels [][]BookLevel `json:"levels"`
	Time   int64         `json:"time"`
}

// Position is one open position inside a clearinghouse state.
type Position struct {
	Coin           string `json:"coin"`
	Szi            string `json:"szi"` // signed size, negative = short
	EntryPx        string `json:"entryPx"`
	PositionValue  string `json:"positionValue"`
	UnrealizedPnl  string `json:"unrealizedPnl"`
	ReturnOnEquity string `json:"returnOnEquity"`
}

// AssetPosition wraps a position on the wire.
type AssetPosition struct {
	Position Position `json:"position"`
	Type     string   `json:"type"`
}

// MarginSummary carries account-level margin numbers.
type MarginSummary struct {
	AccountValue string `json:"accountValue"`
	TotalNtlPos  string `json:"totalNtlPos"`
	TotalRawUsd  string `json:"totalRawUsd"`
}

// ClearinghouseState is the response to
// {"type":"clearinghouseState","user":...}.
type ClearinghouseState struct {
	AssetPositions []AssetPosition `json:"assetPositions"`
	MarginSummary  MarginSummary   `json:"marginSummary"`
	Withdrawable   string          `json:"withdrawable"`
}

// RSVSignature is the wire form of a parsed 65-byte signature.
type RSVSignature struct {
	R string `json:"r"`
	S string `json:"s"`
	V uint8  `json:"v"`
}

// SubmitPayload is the final signed-action envelope POSTed to /exchange.
type SubmitPayload struct {
	Action       json.RawMessage `json:"action"`
	Nonce        uint64          `json:"nonce"`
	Signature    RSVSignature    `json:"signature"`
	VaultAddress *string         `json:"vaultAddress,omitempty"`
}

// Response is the exchange's answer to a signed submission.
// Status is "ok" on success, "err" with a diagnostic Response otherwise.
type Response struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response,omitempty"`
}
