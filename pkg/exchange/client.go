package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ErrRemoteRejected marks a well-formed rejection from the exchange: a
// non-success HTTP status or a success-status body carrying an error marker.
// Submissions are never retried; a duplicate fill costs real money.
var ErrRemoteRejected = errors.New("exchange rejected request")

// Client talks to the exchange's JSON API: read queries go to /info as
// typed {"type": ...} envelopes, signed submissions go to /exchange.
type Client struct {
	apiURL string
	http   *http.Client
	log    *zap.Logger
}

func NewClient(apiURL string, submitTimeout time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		apiURL: apiURL,
		http:   &http.Client{Timeout: submitTimeout},
		log:    log,
	}
}

func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.http.Do(req)
}

// Info POSTs a typed envelope to /info and decodes the response into out.
func (c *Client) Info(ctx context.Context, envelope any, out any) error {
	resp, err := c.post(ctx, "/info", envelope)
	if err != nil {
		return fmt.Errorf("info query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: status %d: %s", ErrRemoteRejected, resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode info response: %w", err)
	}
	return nil
}

// Meta fetches the perp universe (asset names and size precision).
func (c *Client) Meta(ctx context.Context) (*Meta, error) {
	var meta Meta
	if err := c.Info(ctx, map[string]string{"type": "meta"}, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// AllMids fetches the current mid price of every asset, keyed by coin.
func (c *Client) AllMids(ctx context.Context) (map[string]string, error) {
	mids := map[string]string{}
	if err := c.Info(ctx, map[string]string{"type": "allMids"}, &mids); err != nil {
		return nil, err
	}
	return mids, nil
}

// L2Book fetches the aggregated order book for one coin.
func (c *Client) L2Book(ctx context.Context, coin string) (*L2Book, error) {
	var book L2Book
	if err := c.Info(ctx, map[string]string{"type": "l2Book", "coin": coin}, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// ClearinghouseState fetches open positions and margin for a user address.
func (c *Client) ClearinghouseState(ctx context.Context, user string) (*ClearinghouseState, error) {
	var state ClearinghouseState
	if err := c.Info(ctx, map[string]string{"type": "clearinghouseState", "user": user}, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// SubmitSigned performs the single submission call of the order handshake.
// Transport failures surface verbatim and are fatal to the invocation: the
// nonce is single-use, so the caller must rebuild the handshake to retry.
func (c *Client) SubmitSigned(ctx context.Context, payload *SubmitPayload) (*Response, error) {
	resp, err := c.post(ctx, "/exchange", payload)
	if err != nil {
		return nil, fmt.Errorf("submit signed action: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read exchange response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrRemoteRejected, resp.StatusCode, body)
	}

	var exResp Response
	if err := json.Unmarshal(body, &exResp); err != nil {
		return nil, fmt.Errorf("decode exchange response: %w", err)
	}
	if exResp.Status != "ok" {
		c.log.Info("exchange rejected submission", zap.ByteString("response", exResp.Response))
		return &exResp, fmt.Errorf("%w: %s", ErrRemoteRejected, exResp.Response)
	}
	return &exResp, nil
}
