package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"
)

type contextKey struct{}

var claimsKey contextKey

// ClaimsFromContext returns the verified claims attached by Middleware,
// or nil if the request went through an open method.
func ClaimsFromContext(ctx context.Context) Claims {
	claims, _ := ctx.Value(claimsKey).(Claims)
	return claims
}

// Middleware gates protected JSON-RPC methods behind assertion verification.
// Per request the flow is terminal: Unchecked -> Passed or Rejected, no
// retries. Open and unclassified methods pass with no verification at all.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, body, err := peekMethod(r)
		if err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		// The body was consumed to read the method; hand the handler a fresh one.
		r.Body = io.NopCloser(bytes.NewReader(body))

		if Classify(method) != Protected {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := v.Verify(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			v.log.Info("rejected request", zap.String("method", method))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// peekMethod reads the request body and extracts the JSON-RPC method name.
// GET requests (SSE streams) carry no body and classify as "".
func peekMethod(r *http.Request) (string, []byte, error) {
	if r.Body == nil || r.Method == http.MethodGet {
		return "", nil, nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", nil, err
	}
	if len(body) == 0 {
		return "", body, nil
	}

	var envelope struct {
		Method string `json:"method"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		// Batch requests or non-JSON bodies: let the protocol layer reject them.
		return "", body, nil
	}
	return envelope.Method, body, nil
}
