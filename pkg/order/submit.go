package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/ctxprotocol/hyperliquid-mcp/pkg/exchange"
)

// SubmitRequest carries the externally obtained signature back together
// with the exact action and nonce it was produced for.
type SubmitRequest struct {
	Signature    string          `json:"signature"`
	Action       json.RawMessage `json:"action"`
	Nonce        uint64          `json:"nonce"`
	VaultAddress string          `json:"vaultAddress,omitempty"`
}

// SubmitResult is the submit_order tool output.
type SubmitResult struct {
	Status   string          `json:"status"` // "success" or "error"
	Message  string          `json:"message"`
	Response json.RawMessage `json:"response,omitempty"`
}

// Submitter finalizes a handshake: one validation pass, one network call.
type Submitter struct {
	client *exchange.Client
	log    *zap.Logger
}

func NewSubmitter(client *exchange.Client, log *zap.Logger) *Submitter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Submitter{client: client, log: log}
}

// Submit assembles the signed payload and performs the single submission
// call. Precondition failures never reach the network. A transport failure
// is surfaced verbatim and is fatal to this invocation: the nonce is spent,
// so retrying here could double-execute a fill that actually landed.
func (s *Submitter) Submit(ctx context.Context, req *SubmitRequest) (*SubmitResult, error) {
	if req.Signature == "" {
		return nil, fmt.Errorf("%w: signature is required", ErrInvalidArgument)
	}
	if len(req.Action) == 0 {
		return nil, fmt.Errorf("%w: action is required", ErrInvalidArgument)
	}
	if req.Nonce == 0 {
		return nil, fmt.Errorf("%w: nonce is required", ErrInvalidArgument)
	}

	sig, err := ParseSignature(req.Signature)
	if err != nil {
		return nil, err
	}

	payload := &exchange.SubmitPayload{
		Action:    req.Action,
		Nonce:     req.Nonce,
		Signature: sig,
	}
	if req.VaultAddress != "" {
		if !common.IsHexAddress(req.VaultAddress) {
			return nil, fmt.Errorf("%w: vaultAddress is not a valid address", ErrInvalidArgument)
		}
		payload.VaultAddress = &req.VaultAddress
	}

	resp, err := s.client.SubmitSigned(ctx, payload)
	if err != nil {
		if errors.Is(err, exchange.ErrRemoteRejected) {
			// A well-formed rejection is a terminal outcome, not a transport
			// fault; hand the raw exchange diagnostic to the caller.
			result := &SubmitResult{
				Status:  "error",
				Message: fmt.Sprintf("Order rejected by exchange: %v", err),
			}
			if resp != nil {
				result.Response = resp.Response
			}
			return result, nil
		}
		return nil, err
	}

	s.log.Info("order submitted", zap.Uint64("nonce", req.Nonce))
	return &SubmitResult{
		Status:   "success",
		Message:  "Order submitted to the exchange.",
		Response: resp.Response,
	}, nil
}
