package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

// ErrUnauthorized is the single caller-visible authentication failure.
// Every verification failure collapses into it so a probing caller cannot
// distinguish a bad signature from a wrong issuer or an expired token.
var ErrUnauthorized = errors.New("unauthorized")

// ErrNoAuthHeader marks the absent-or-malformed-header variant. It still
// unwraps to ErrUnauthorized.
var ErrNoAuthHeader = fmt.Errorf("%w: missing bearer token", ErrUnauthorized)

// Claims are the decoded assertion claims attached to the request context
// after successful verification.
type Claims = jwt.MapClaims

// Verifier checks inbound signed assertions against the trusted issuer.
type Verifier struct {
	keys     *KeyCache
	issuer   string
	audience string // "" disables the audience check
	log      *zap.Logger
}

func NewVerifier(keys *KeyCache, issuer, audience string, log *zap.Logger) *Verifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Verifier{keys: keys, issuer: issuer, audience: audience, log: log}
}

// Verify validates a raw Authorization header value and returns the decoded
// claims. The reason for a failure is logged, never returned.
func (v *Verifier) Verify(ctx context.Context, authorization string) (Claims, error) {
	if authorization == "" || !strings.HasPrefix(authorization, "Bearer ") {
		return nil, ErrNoAuthHeader
	}
	tokenString := strings.TrimPrefix(authorization, "Bearer ")

	key, err := v.keys.Resolve(ctx)
	if err != nil {
		v.log.Warn("key resolution failed", zap.Error(err))
		return nil, ErrUnauthorized
	}

	claims := Claims{}
	_, err = jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{"RS256"}))
	if err != nil {
		v.log.Debug("token validation failed", zap.Error(err))
		return nil, ErrUnauthorized
	}

	if !claims.VerifyIssuer(v.issuer, true) {
		v.log.Debug("issuer mismatch")
		return nil, ErrUnauthorized
	}
	if v.audience != "" && !claims.VerifyAudience(v.audience, true) {
		v.log.Debug("audience mismatch")
		return nil, ErrUnauthorized
	}

	return claims, nil
}
