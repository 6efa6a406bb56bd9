package order

// Wire structures of the exchange's order action, field names as the
// exchange expects them (single letters on orders, camelCase elsewhere).

// Tif is the time-in-force of a resting limit order.
type Tif string

const (
	TifGtc Tif = "Gtc" // good till cancelled
	TifIoc Tif = "Ioc" // immediate or cancel (market emulation)
	TifAlo Tif = "Alo" // add liquidity only (post-only)
)

type LimitWire struct {
	Tif Tif `json:"tif"`
}

type TriggerWire struct {
	IsMarket  bool   `json:"isMarket"`
	TriggerPx string `json:"triggerPx"`
	TpSl      string `json:"tpsl"` // "sl" or "tp"
}

// TypeWire is a tagged union: exactly one of Limit or Trigger is set.
type TypeWire struct {
	Limit   *LimitWire   `json:"limit,omitempty"`
	Trigger *TriggerWire `json:"trigger,omitempty"`
}

type OrderWire struct {
	Asset      int      `json:"a"`
	IsBuy      bool     `json:"b"`
	Price      string   `json:"p"`
	Size       string   `json:"s"`
	ReduceOnly bool     `json:"r"`
	Type       TypeWire `json:"t"`
}

// Action is the signable order action. Grouping is always "na": the
// server builds one order per handshake.
type Action struct {
	Type     string      `json:"type"`
	Orders   []OrderWire `json:"orders"`
	Grouping string      `json:"grouping"`
}

// NewOrderAction wraps a single wire order in a signable action.
func NewOrderAction(wire OrderWire) Action {
	return Action{
		Type:     "order",
		Orders:   []OrderWire{wire},
		Grouping: "na",
	}
}
