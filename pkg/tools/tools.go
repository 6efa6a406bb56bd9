package tools

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions for the Hyperliquid MCP server.
// Descriptions are what the LLM reads to decide which tool to use.

var ToolGetMarketInfo = mcp.NewTool("get_market_info",
	mcp.WithDescription(
		"Get live market data for a perpetual asset: mark price, best bid/ask, "+
			"size precision, and max leverage. Use this before placing an order "+
			"to see the current price."),
	mcp.WithString("coin",
		mcp.Required(),
		mcp.Description("Asset symbol, e.g. 'BTC', 'ETH', 'HYPE'")),
)

var ToolGetOrderBook = mcp.NewTool("get_order_book",
	mcp.WithDescription(
		"Get the level-2 order book for a perpetual asset: bid and ask levels "+
			"with price, size, and order count."),
	mcp.WithString("coin",
		mcp.Required(),
		mcp.Description("Asset symbol, e.g. 'BTC'")),
)

var ToolGetPositions = mcp.NewTool("get_positions",
	mcp.WithDescription(
		"Get a wallet's open perpetual positions and margin summary: "+
			"position sizes, entry prices, unrealized PnL, account value, and "+
			"withdrawable balance."),
	mcp.WithString("address",
		mcp.Required(),
		mcp.Description("Wallet address (e.g. '0x1234...')")),
)

var ToolPlaceOrder = mcp.NewTool("place_order",
	mcp.WithDescription(
		"Build a perpetual order for signing. This does NOT submit the order: "+
			"it returns a 'handshake_required' payload with the exact EIP-712 "+
			"typed data the user's wallet must sign. After the user approves and "+
			"signs, call submit_order with the signature plus the returned "+
			"action and nonce, unchanged. Market orders use the live mark price "+
			"with 1% slippage protection."),
	mcp.WithString("coin",
		mcp.Required(),
		mcp.Description("Asset symbol, e.g. 'BTC'")),
	mcp.WithBoolean("isBuy",
		mcp.Required(),
		mcp.Description("true to buy/long, false to sell/short")),
	mcp.WithNumber("size",
		mcp.Description("Order size in units of the asset (e.g. 0.5 BTC)")),
	mcp.WithNumber("sizeInUsd",
		mcp.Description("Order size in USD, converted at the mark price. Use instead of 'size'.")),
	mcp.WithNumber("price",
		mcp.Description("Limit price. Omit for a market order.")),
	mcp.WithString("orderType",
		mcp.Description("Order type. Defaults to 'limit' when a price is given, otherwise 'market'."),
		mcp.Enum("market", "limit", "stop_loss", "take_profit")),
	mcp.WithNumber("triggerPrice",
		mcp.Description("Trigger price, required for stop_loss and take_profit orders")),
	mcp.WithBoolean("reduceOnly",
		mcp.Description("Only reduce an existing position, never open or flip one")),
	mcp.WithBoolean("postOnly",
		mcp.Description("Limit orders only: rest on the book, cancel instead of taking")),
	mcp.WithBoolean("closeEntirePosition",
		mcp.Description("Close the whole position in 'coin'. Requires 'portfolio'; overrides size.")),
	mcp.WithObject("portfolio",
		mcp.Description("Current positions, as returned by get_positions. Required with closeEntirePosition.")),
)

var ToolSubmitOrder = mcp.NewTool("submit_order",
	mcp.WithDescription(
		"Submit a signed order to the exchange. Takes the wallet signature "+
			"together with the action and nonce from a previous place_order "+
			"handshake, exactly as returned. Each nonce is single-use: if "+
			"submission fails, build a fresh order with place_order instead of "+
			"retrying."),
	mcp.WithString("signature",
		mcp.Required(),
		mcp.Description("65-byte wallet signature as 130 hex chars, with or without '0x'")),
	mcp.WithObject("action",
		mcp.Required(),
		mcp.Description("The exact 'action' object from the place_order handshake")),
	mcp.WithNumber("nonce",
		mcp.Required(),
		mcp.Description("The exact nonce from the place_order handshake")),
	mcp.WithString("vaultAddress",
		mcp.Description("Trade on behalf of a vault or subaccount at this address")),
)
