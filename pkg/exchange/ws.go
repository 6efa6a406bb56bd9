package exchange

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// midsFreshness bounds how stale a websocket mid may be before order
// building falls back to the HTTP mids query.
const midsFreshness = 10 * time.Second

// MidsFeed keeps a live mid-price cache from the exchange's allMids
// websocket channel. Losing the feed only degrades to HTTP polling, so all
// failures here are logged and retried, never surfaced.
type MidsFeed struct {
	wsURL string
	log   *zap.Logger

	mu        sync.RWMutex
	mids      map[string]float64
	updatedAt time.Time
}

func NewMidsFeed(wsURL string, log *zap.Logger) *MidsFeed {
	if log == nil {
		log = zap.NewNop()
	}
	return &MidsFeed{
		wsURL: wsURL,
		log:   log,
		mids:  make(map[string]float64),
	}
}

// Mid returns the cached mid price for a coin if it is fresh enough.
func (f *MidsFeed) Mid(coin string) (float64, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if time.Since(f.updatedAt) > midsFreshness {
		return 0, false
	}
	px, ok := f.mids[coin]
	return px, ok
}

// Run connects, subscribes and consumes until ctx is cancelled,
// reconnecting with a flat backoff on any error.
func (f *MidsFeed) Run(ctx context.Context) {
	for {
		if err := f.consume(ctx); err != nil {
			f.log.Warn("mids feed disconnected", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(3 * time.Second):
		}
	}
}

func (f *MidsFeed) consume(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	sub := map[string]any{
		"method":       "subscribe",
		"subscription": map[string]string{"type": "allMids"},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return err
	}
	f.log.Info("subscribed to allMids", zap.String("url", f.wsURL))

	// Unblock ReadMessage when the context is cancelled.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		var msg struct {
			Channel string `json:"channel"`
			Data    struct {
				Mids map[string]string `json:"mids"`
			} `json:"data"`
		}
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Channel != "allMids" {
			continue
		}

		f.mu.Lock()
		for coin, mid := range msg.Data.Mids {
			if px, err := strconv.ParseFloat(mid, 64); err == nil {
				f.mids[coin] = px
			}
		}
		f.updatedAt = time.Now()
		f.mu.Unlock()
	}
}
