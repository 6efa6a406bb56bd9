package order

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// The exchange accepts prices with at most 5 significant figures (integral
// prices excepted) and at most 6−szDecimals decimal places. Sizes carry at
// most szDecimals decimal places. Everything is truncated toward zero:
// rounding a price up can cross the user's limit, rounding a size up can
// exceed their balance.
const (
	maxPriceSigFigs  = 5
	maxPriceDecimals = 6
)

// FormatPrice quantizes a raw price onto the exchange's price grid.
func FormatPrice(px float64, szDecimals int) (string, error) {
	if px <= 0 || math.IsNaN(px) || math.IsInf(px, 0) {
		return "", fmt.Errorf("%w: price must be a positive number", ErrInvalidArgument)
	}

	maxDec := maxPriceDecimals - szDecimals
	if maxDec < 0 {
		maxDec = 0
	}

	s := strconv.FormatFloat(px, 'f', -1, 64)
	s = truncateDecimals(s, maxDec)
	s = truncateSigFigs(s, maxPriceSigFigs)
	s = trimTrailingZeros(s)
	if s == "0" {
		return "", fmt.Errorf("%w: price %v truncates to zero at this asset's precision", ErrInvalidArgument, px)
	}
	return s, nil
}

// FormatSize quantizes a size to the asset's declared decimal precision.
// A size that truncates to exactly zero is rejected: the order is too
// small for this asset.
func FormatSize(sz float64, szDecimals int) (string, error) {
	if sz <= 0 || math.IsNaN(sz) || math.IsInf(sz, 0) {
		return "", fmt.Errorf("%w: size must be a positive number", ErrInvalidArgument)
	}

	s := strconv.FormatFloat(sz, 'f', -1, 64)
	s = trimTrailingZeros(truncateDecimals(s, szDecimals))
	if s == "0" {
		return "", fmt.Errorf("%w: size %v is below the asset's %d-decimal precision", ErrInvalidArgument, sz, szDecimals)
	}
	return s, nil
}

// truncateDecimals cuts the fractional part down to at most n digits.
// Pure truncation, no rounding.
func truncateDecimals(s string, n int) string {
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return s
	}
	if n == 0 {
		return s[:dot]
	}
	if end := dot + 1 + n; end < len(s) {
		return s[:end]
	}
	return s
}

// truncateSigFigs cuts fractional digits so at most n significant figures
// remain. Integral values pass through untouched: the sig-fig cap does not
// apply to them, and integer digits can never be dropped anyway.
func truncateSigFigs(s string, n int) string {
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return s
	}

	sig := 0
	seenNonZero := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == '.' {
			continue
		}
		if !seenNonZero {
			if ch == '0' {
				continue
			}
			seenNonZero = true
		}
		sig++
		if sig == n {
			if i < dot {
				// The cap is hit inside the integer part; dropping the
				// fraction leaves an integral price, which is allowed.
				return s[:dot]
			}
			return s[:i+1]
		}
	}
	return s
}

func trimTrailingZeros(s string) string {
	if !strings.ContainsRune(s, '.') {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
