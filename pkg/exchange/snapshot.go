package exchange

import (
	"context"
	"fmt"
	"strconv"
)

// Snapshot is the numeric market view order building works from: best
// bid/ask, a mark price, and the asset's size precision.
type Snapshot struct {
	Coin       string
	AssetIndex int
	SzDecimals int
	MarkPx     float64
	BestBid    float64
	BestAsk    float64
}

// MarkSource supplies a mark price out of band (e.g. a live websocket
// feed); the HTTP mids query is used when it has nothing fresh.
type MarkSource interface {
	Mid(coin string) (float64, bool)
}

// MarketSnapshot composes meta, mids and the order book into the snapshot
// used to resolve prices and quantize sizes.
func (c *Client) MarketSnapshot(ctx context.Context, coin string, marks MarkSource) (*Snapshot, error) {
	meta, err := c.Meta(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch meta: %w", err)
	}
	idx := meta.AssetIndex(coin)
	if idx < 0 {
		return nil, fmt.Errorf("unknown asset %q", coin)
	}

	snap := &Snapshot{
		Coin:       coin,
		AssetIndex: idx,
		SzDecimals: meta.Universe[idx].SzDecimals,
	}

	if marks != nil {
		if mid, ok := marks.Mid(coin); ok {
			snap.MarkPx = mid
		}
	}
	if snap.MarkPx == 0 {
		mids, err := c.AllMids(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch mids: %w", err)
		}
		mid, ok := mids[coin]
		if !ok {
			return nil, fmt.Errorf("no mid price for %q", coin)
		}
		px, err := strconv.ParseFloat(mid, 64)
		if err != nil {
			return nil, fmt.Errorf("parse mid price %q: %w", mid, err)
		}
		snap.MarkPx = px
	}

	book, err := c.L2Book(ctx, coin)
	if err != nil {
		return nil, fmt.Errorf("fetch order book: %w", err)
	}
	if len(book.Levels) == 2 {
		if len(book.Levels[0]) > 0 {
			snap.BestBid, _ = strconv.ParseFloat(book.Levels[0][0].Px, 64)
		}
		if len(book.Levels[1]) > 0 {
			snap.BestAsk, _ = strconv.ParseFloat(book.Levels[1][0].Px, 64)
		}
	}

	return snap, nil
}
