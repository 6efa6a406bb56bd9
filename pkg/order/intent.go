package order

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ctxprotocol/hyperliquid-mcp/pkg/exchange"
)

// Type is the order category requested by the caller.
type Type string

const (
	TypeLimit      Type = "limit"
	TypeMarket     Type = "market"
	TypeStopLoss   Type = "stop_loss"
	TypeTakeProfit Type = "take_profit"
)

// marketSlippage is the price allowance applied to market orders so an
// immediate-or-cancel order crosses the book: buys pay up to mark +1%,
// sells accept down to mark −1%.
const marketSlippage = 0.01

// PortfolioPosition is one caller-supplied open position. Size is signed;
// negative means short.
type PortfolioPosition struct {
	Coin    string  `json:"coin"`
	Size    float64 `json:"size"`
	EntryPx float64 `json:"entryPx,omitempty"`
}

// Portfolio is the caller-supplied position state used to resolve
// close-entire-position intents. The builder never fetches it; closing
// against stale server-side state closes the wrong amount.
type Portfolio struct {
	Positions []PortfolioPosition `json:"positions"`
}

// UnmarshalJSON accepts two shapes: the flat {"positions":[{coin,size}]}
// form, and a clearinghouse state as returned by get_positions
// ({"assetPositions":[{"position":{"coin","szi",...}}]} with string sizes),
// so callers can feed get_positions output straight back in.
func (p *Portfolio) UnmarshalJSON(data []byte) error {
	var flat struct {
		Positions []PortfolioPosition `json:"positions"`
	}
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	if len(flat.Positions) > 0 {
		p.Positions = flat.Positions
		return nil
	}

	var state struct {
		AssetPositions []struct {
			Position struct {
				Coin    string `json:"coin"`
				Szi     string `json:"szi"`
				EntryPx string `json:"entryPx"`
			} `json:"position"`
		} `json:"assetPositions"`
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}
	for _, ap := range state.AssetPositions {
		size, err := strconv.ParseFloat(ap.Position.Szi, 64)
		if err != nil {
			return fmt.Errorf("parse position size %q for %s: %w", ap.Position.Szi, ap.Position.Coin, err)
		}
		entryPx, _ := strconv.ParseFloat(ap.Position.EntryPx, 64)
		p.Positions = append(p.Positions, PortfolioPosition{
			Coin:    ap.Position.Coin,
			Size:    size,
			EntryPx: entryPx,
		})
	}
	return nil
}

// Intent is the typed trade request, bound and validated at the tool
// boundary before any of it reaches order construction.
type Intent struct {
	Coin                string     `json:"coin"`
	IsBuy               bool       `json:"isBuy"`
	Size                float64    `json:"size,omitempty"`
	SizeInUSD           float64    `json:"sizeInUsd,omitempty"`
	Price               float64    `json:"price,omitempty"`
	OrderType           Type       `json:"orderType,omitempty"`
	TriggerPrice        float64    `json:"triggerPrice,omitempty"`
	ReduceOnly          bool       `json:"reduceOnly,omitempty"`
	PostOnly            bool       `json:"postOnly,omitempty"`
	CloseEntirePosition bool       `json:"closeEntirePosition,omitempty"`
	Portfolio           *Portfolio `json:"portfolio,omitempty"`
}

// EffectiveType defaults an unspecified order type: a caller who gave a
// limit price wants a limit order, everyone else gets a market order.
func (i *Intent) EffectiveType() Type {
	if i.OrderType != "" {
		return i.OrderType
	}
	if i.Price > 0 {
		return TypeLimit
	}
	return TypeMarket
}

func (t Type) isTrigger() bool {
	return t == TypeStopLoss || t == TypeTakeProfit
}

// Validate checks structural preconditions that don't need market data.
func (i *Intent) Validate() error {
	if i.Coin == "" {
		return fmt.Errorf("%w: coin is required", ErrInvalidArgument)
	}
	switch t := i.EffectiveType(); t {
	case TypeLimit, TypeMarket:
	case TypeStopLoss, TypeTakeProfit:
		if i.TriggerPrice <= 0 {
			return fmt.Errorf("%w: %s orders require a positive triggerPrice", ErrInvalidArgument, t)
		}
	default:
		return fmt.Errorf("%w: unknown orderType %q", ErrInvalidArgument, t)
	}
	return nil
}

// ResolveSize turns the intent into a strictly positive base-asset size.
// closeEntirePosition resolves against the supplied portfolio (case-
// insensitive symbol match, absolute value) and forces reduce-only;
// sizeInUsd converts at the mark price.
func ResolveSize(intent *Intent, markPx float64) (size float64, reduceOnly bool, err error) {
	if intent.CloseEntirePosition {
		if intent.Portfolio != nil {
			for _, p := range intent.Portfolio.Positions {
				if strings.EqualFold(p.Coin, intent.Coin) && p.Size != 0 {
					return math.Abs(p.Size), true, nil
				}
			}
		}
		return 0, false, fmt.Errorf("%w: no open %s position to close", ErrNotFound, intent.Coin)
	}

	if intent.Size > 0 {
		return intent.Size, intent.ReduceOnly, nil
	}
	if intent.SizeInUSD > 0 {
		if markPx <= 0 {
			return 0, false, fmt.Errorf("%w: no mark price available to convert sizeInUsd", ErrInvalidArgument)
		}
		return intent.SizeInUSD / markPx, intent.ReduceOnly, nil
	}
	return 0, false, fmt.Errorf("%w: size must be a positive number", ErrInvalidArgument)
}

// ResolvePrice computes the raw (pre-quantization) execution price.
func ResolvePrice(intent *Intent, snap *exchange.Snapshot) (float64, error) {
	switch t := intent.EffectiveType(); t {
	case TypeMarket:
		if snap.MarkPx <= 0 {
			return 0, fmt.Errorf("%w: no mark price for %s", ErrInvalidArgument, intent.Coin)
		}
		if intent.IsBuy {
			return snap.MarkPx * (1 + marketSlippage), nil
		}
		return snap.MarkPx * (1 - marketSlippage), nil
	case TypeStopLoss, TypeTakeProfit:
		if intent.TriggerPrice <= 0 {
			return 0, fmt.Errorf("%w: %s orders require a positive triggerPrice", ErrInvalidArgument, t)
		}
		return intent.TriggerPrice, nil
	default: // limit
		if intent.Price <= 0 {
			return 0, fmt.Errorf("%w: price must be a positive number", ErrInvalidArgument)
		}
		return intent.Price, nil
	}
}
