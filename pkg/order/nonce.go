package order

import (
	"sync"

	"github.com/ctxprotocol/hyperliquid-mcp/pkg/util"
)

// NonceSource issues strictly increasing wall-clock-millisecond nonces.
// Two builds inside the same millisecond get distinct values: the exchange
// treats a reused nonce as a replay, and two live signable messages sharing
// one nonce would be indistinguishable on expiry.
type NonceSource struct {
	mu    sync.Mutex
	clock util.Clock
	last  uint64
}

func NewNonceSource(clock util.Clock) *NonceSource {
	if clock == nil {
		clock = util.RealClock{}
	}
	return &NonceSource{clock: clock}
}

// Next returns the current wall-clock milliseconds, bumped past the
// previously issued nonce if the clock has not advanced (or went backwards).
func (n *NonceSource) Next() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := uint64(n.clock.Now().UnixMilli())
	if now <= n.last {
		n.last++
	} else {
		n.last = now
	}
	return n.last
}
