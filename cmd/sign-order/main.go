package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/ctxprotocol/hyperliquid-mcp/pkg/crypto"
	"github.com/ctxprotocol/hyperliquid-mcp/pkg/exchange"
	"github.com/ctxprotocol/hyperliquid-mcp/pkg/order"
)

// Offline signing utility: builds an order action, signs it with a local
// key, and prints the exact payload a submit_order call would send. Useful
// for exercising the digest/signature path without a wallet in the loop.
func main() {
	var (
		asset      = flag.Int("asset", 0, "asset index from the meta universe")
		isBuy      = flag.Bool("buy", true, "buy side")
		price      = flag.Float64("price", 50000, "limit price")
		size       = flag.Float64("size", 0.001, "order size")
		szDecimals = flag.Int("sz-decimals", 5, "size decimals for the asset")
		testnet    = flag.Bool("testnet", false, "sign for testnet")
	)
	flag.Parse()

	// Step 1: Generate or load key
	var signer *crypto.Signer
	var err error
	if pk := os.Getenv("PRIVATE_KEY"); pk != "" {
		signer, err = crypto.FromPrivateKeyHex(pk)
	} else {
		fmt.Println("Generating new keypair...")
		signer, err = crypto.GenerateKey()
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Address: %s\n", signer.Address().Hex())
	fmt.Printf("Private Key: %s (KEEP SECRET!)\n\n", signer.PrivateKeyHex())

	// Step 2: Quantize and build the action
	priceStr, err := order.FormatPrice(*price, *szDecimals)
	if err != nil {
		fmt.Printf("Error quantizing price: %v\n", err)
		os.Exit(1)
	}
	sizeStr, err := order.FormatSize(*size, *szDecimals)
	if err != nil {
		fmt.Printf("Error quantizing size: %v\n", err)
		os.Exit(1)
	}

	wire := order.OrderWire{
		Asset: *asset,
		IsBuy: *isBuy,
		Price: priceStr,
		Size:  sizeStr,
		Type:  order.TypeWire{Limit: &order.LimitWire{Tif: order.TifGtc}},
	}
	action := order.NewOrderAction(wire)
	actionJSON, err := json.Marshal(action)
	if err != nil {
		fmt.Printf("Error marshaling action: %v\n", err)
		os.Exit(1)
	}
	nonce := uint64(time.Now().UnixMilli())

	fmt.Println("Order Details:")
	fmt.Printf("  Asset: %d\n", *asset)
	fmt.Printf("  Side: buy=%v\n", *isBuy)
	fmt.Printf("  Price: %s\n", priceStr)
	fmt.Printf("  Size: %s\n", sizeStr)
	fmt.Printf("  Nonce: %d\n\n", nonce)

	// Step 3: Sign with EIP-712
	source := crypto.AgentSourceMainnet
	if *testnet {
		source = crypto.AgentSourceTestnet
	}
	agentSigner := crypto.NewAgentSigner(crypto.DefaultExchangeDomain())
	agent := &crypto.Agent{
		Source:       source,
		ConnectionID: crypto.ActionHash(actionJSON, nonce, nil),
	}
	signature, err := agentSigner.SignAgent(signer, agent)
	if err != nil {
		fmt.Printf("Error signing: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Signature: %s\n\n", hexutil.Encode(signature))

	// Step 4: Verify signature
	fmt.Println("Verifying signature...")
	recovered, err := agentSigner.RecoverAgentSigner(agent, signature)
	if err != nil {
		fmt.Printf("Error verifying: %v\n", err)
		os.Exit(1)
	}
	if recovered != signer.Address() {
		fmt.Println("✗ Signature INVALID")
		os.Exit(1)
	}
	fmt.Println("✓ Signature VALID")
	fmt.Printf("  Signer: %s\n\n", recovered.Hex())

	// Step 5: Print the submit payload
	rsv, err := order.ParseSignature(hexutil.Encode(signature))
	if err != nil {
		fmt.Printf("Error splitting signature: %v\n", err)
		os.Exit(1)
	}
	payload := &exchange.SubmitPayload{
		Action:    actionJSON,
		Nonce:     nonce,
		Signature: rsv,
	}
	payloadJSON, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		fmt.Printf("Error marshaling payload: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("To submit this order:")
	fmt.Println("  POST https://api.hyperliquid.xyz/exchange")
	fmt.Println("  Content-Type: application/json")
	fmt.Println("  Body:")
	fmt.Println(string(payloadJSON))
}
