package auth

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ctxprotocol/hyperliquid-mcp/pkg/util"
)

// embeddedIssuerKey is the last-known-good issuer verification key, baked in
// at build time. If the key-set endpoint is unreachable or returns garbage,
// verification degrades to this key instead of rejecting all traffic.
const embeddedIssuerKey = `-----BEGIN PUBLIC KEY-----
MIIBIjANBgkqhkiG9w0BAQEFAAOCAQ8AMIIBCgKCAQEA+26SDpaR56BfAC2jxhOP
Zr3SZufqHkd1VwOIa6yVhmB144I4X3z/nx/ueBXfAWiQ9SIu3CqflsVlH0sOfUjt
EDg02Cc9NWXtPAY+2mh0o2En0/KAEN2KP+GFmbnrRoyjEDu0BkWynXh62gaCfViH
VVBuf0Amx7awlQQDrmDlHxgBW7AwBDaAaTvunvcy3DjV1FijA0Syh27xUYk2thEZ
UphSkMxBthxUOokdMytEG5i6cCnjMlg0qNzdTzhoIqpdCqhqXcYZxGKmJEYlPCq8
i33ebnhi9xHSnt0Gapx+9MWES6HIXWxSK0r4bJsqK+ojBLy8GJl4PhfCVN0bQ8tn
GwIDAQAB
-----END PUBLIC KEY-----`

// jwksDocument is the well-known key-set response shape. Only the x5c
// certificate chain is consumed; the first certificate of the first entry
// that carries one wins.
type jwksDocument struct {
	Keys []struct {
		Kid string   `json:"kid"`
		X5c []string `json:"x5c"`
	} `json:"keys"`
}

// KeyCache resolves the issuer's public verification key. It holds at most
// one fully-formed key at a time, replaced atomically under a mutex, and
// refreshes the cache timestamp on both the remote and the fallback path so
// a failing endpoint is not hammered more than once per TTL window.
type KeyCache struct {
	jwksURL string
	ttl     time.Duration
	client  *http.Client
	clock   util.Clock
	log     *zap.Logger

	mu        sync.Mutex
	key       *rsa.PublicKey
	fetchedAt time.Time
}

// NewKeyCache creates a key cache. fetchTimeout caps a single key-set fetch;
// after it expires the cache unconditionally falls back to the embedded key.
func NewKeyCache(jwksURL string, ttl, fetchTimeout time.Duration, clock util.Clock, log *zap.Logger) *KeyCache {
	if clock == nil {
		clock = util.RealClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &KeyCache{
		jwksURL: jwksURL,
		ttl:     ttl,
		client:  &http.Client{Timeout: fetchTimeout},
		clock:   clock,
		log:     log,
	}
}

// Resolve returns the cached key if it is fresh, otherwise refreshes it:
// prefer the remote key-set, fall back to the embedded key on any error.
func (c *KeyCache) Resolve(ctx context.Context) (*rsa.PublicKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.key != nil && c.clock.Now().Sub(c.fetchedAt) < c.ttl {
		return c.key, nil
	}

	key, err := c.fetchRemote(ctx)
	if err != nil {
		c.log.Warn("key-set fetch failed, using embedded key", zap.Error(err))
		key, err = ParseEmbeddedKey()
		if err != nil {
			return nil, err
		}
	}

	c.key = key
	c.fetchedAt = c.clock.Now()
	return c.key, nil
}

func (c *KeyCache) fetchRemote(ctx context.Context) (*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build key-set request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch key-set: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("key-set endpoint returned status %d", resp.StatusCode)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode key-set: %w", err)
	}

	for _, k := range doc.Keys {
		if len(k.X5c) == 0 {
			continue
		}
		der, err := base64.StdEncoding.DecodeString(k.X5c[0])
		if err != nil {
			return nil, fmt.Errorf("decode certificate: %w", err)
		}
		cert, err := x509.ParseCertificate(der)
		if err != nil {
			return nil, fmt.Errorf("parse certificate: %w", err)
		}
		rsaKey, ok := cert.PublicKey.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("certificate key is %T, want RSA", cert.PublicKey)
		}
		return rsaKey, nil
	}

	return nil, fmt.Errorf("key-set has no entry with a certificate chain")
}

// ParseEmbeddedKey parses the baked-in fallback verification key.
func ParseEmbeddedKey() (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(embeddedIssuerKey))
	if block == nil {
		return nil, fmt.Errorf("embedded key is not valid PEM")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse embedded key: %w", err)
	}
	rsaKey, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("embedded key is %T, want RSA", pub)
	}
	return rsaKey, nil
}
