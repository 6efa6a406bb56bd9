package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ctxprotocol/hyperliquid-mcp/pkg/exchange"
	"github.com/ctxprotocol/hyperliquid-mcp/pkg/order"
)

// Handlers glues the tool catalog to the domain layer. Each handler binds
// the raw argument map into a typed request at the boundary and returns a
// JSON text result; domain failures become tool errors, not protocol errors.
type Handlers struct {
	client    *exchange.Client
	marks     exchange.MarkSource
	builder   *order.Builder
	submitter *order.Submitter
	log       *zap.Logger
}

func NewHandlers(client *exchange.Client, marks exchange.MarkSource, builder *order.Builder, submitter *order.Submitter, log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{
		client:    client,
		marks:     marks,
		builder:   builder,
		submitter: submitter,
		log:       log,
	}
}

// Register adds every tool to the server.
func (h *Handlers) Register(s *server.MCPServer) {
	s.AddTool(ToolGetMarketInfo, h.GetMarketInfo)
	s.AddTool(ToolGetOrderBook, h.GetOrderBook)
	s.AddTool(ToolGetPositions, h.GetPositions)
	s.AddTool(ToolPlaceOrder, h.PlaceOrder)
	s.AddTool(ToolSubmitOrder, h.SubmitOrder)
}

// bindArguments round-trips the argument map through JSON into a typed
// request so the domain layer never sees map[string]any.
func bindArguments(req mcp.CallToolRequest, out any) error {
	raw, err := json.Marshal(req.GetArguments())
	if err != nil {
		return fmt.Errorf("encode arguments: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}

func (h *Handlers) GetMarketInfo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	coin, err := req.RequireString("coin")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	snap, err := h.client.MarketSnapshot(ctx, coin, h.marks)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("market lookup failed: %v", err)), nil
	}
	return jsonResult(snap)
}

func (h *Handlers) GetOrderBook(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	coin, err := req.RequireString("coin")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	book, err := h.client.L2Book(ctx, coin)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("order book lookup failed: %v", err)), nil
	}
	return jsonResult(book)
}

func (h *Handlers) GetPositions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	address, err := req.RequireString("address")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	state, err := h.client.ClearinghouseState(ctx, address)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("position lookup failed: %v", err)), nil
	}
	return jsonResult(state)
}

func (h *Handlers) PlaceOrder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var intent order.Intent
	if err := bindArguments(req, &intent); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	handshake, err := h.builder.Build(ctx, &intent)
	if err != nil {
		h.log.Warn("place_order failed", zap.String("coin", intent.Coin), zap.Error(err))
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(handshake)
}

func (h *Handlers) SubmitOrder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sr order.SubmitRequest
	if err := bindArguments(req, &sr); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := h.submitter.Submit(ctx, &sr)
	if err != nil {
		h.log.Warn("submit_order failed", zap.Uint64("nonce", sr.Nonce), zap.Error(err))
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}
