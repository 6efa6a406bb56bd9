package order

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ctxprotocol/hyperliquid-mcp/pkg/exchange"
)

// sigHexLen is the hex length of a 65-byte [R || S || V] signature.
const sigHexLen = 130

// ParseSignature splits an externally produced signature string into its
// fixed-width r/s/v components. Anything that is not exactly 65 bytes of
// hex (optional 0x prefix) is rejected before a single network call.
func ParseSignature(raw string) (exchange.RSVSignature, error) {
	s := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	if len(s) != sigHexLen {
		return exchange.RSVSignature{}, fmt.Errorf("%w: signature must be %d hex characters, got %d", ErrInvalidArgument, sigHexLen, len(s))
	}

	b, err := hex.DecodeString(s)
	if err != nil {
		return exchange.RSVSignature{}, fmt.Errorf("%w: signature is not valid hex", ErrInvalidArgument)
	}

	v := b[64]
	if v < 27 {
		v += 27
	}
	if v != 27 && v != 28 {
		return exchange.RSVSignature{}, fmt.Errorf("%w: invalid recovery byte %d", ErrInvalidArgument, b[64])
	}

	return exchange.RSVSignature{
		R: "0x" + hex.EncodeToString(b[:32]),
		S: "0x" + hex.EncodeToString(b[32:64]),
		V: v,
	}, nil
}
