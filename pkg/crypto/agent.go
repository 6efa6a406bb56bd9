package crypto

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"golang.org/x/crypto/sha3"
)

// ExchangeDomain is the fixed EIP-712 domain the exchange verifies order
// signatures against. Binding signatures to it prevents replay of an
// approved order in any other context.
type ExchangeDomain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract common.Address
}

// DefaultExchangeDomain returns the domain the exchange expects for
// off-chain action signing. The chain id is fixed by the exchange protocol
// and is independent of the chain user funds live on.
func DefaultExchangeDomain() ExchangeDomain {
	return ExchangeDomain{
		Name:              "Exchange",
		Version:           "1",
		ChainID:           big.NewInt(1337),
		VerifyingContract: common.Address{}, // zero address, off-chain verification
	}
}

// AgentSource identifies the environment an action is signed for.
const (
	AgentSourceMainnet = "a"
	AgentSourceTestnet = "b"
)

// Agent is the primary type of the signable message: a fixed source tag
// plus a single 32-byte connection id that commits to the full action,
// the nonce, and the vault routing address.
type Agent struct {
	Source       string
	ConnectionID common.Hash
}

// AgentSigner hashes Agent messages under a fixed exchange domain.
type AgentSigner struct {
	domain ExchangeDomain
}

func NewAgentSigner(domain ExchangeDomain) *AgentSigner {
	return &AgentSigner{domain: domain}
}

// ActionHash commits to an action payload, its nonce and an optional vault
// address. A fresh nonce therefore always produces a fresh connection id.
//
// Layout: keccak256(actionJSON || nonce as 8-byte big-endian || vault marker)
// where the vault marker is a single 0x00 byte when no vault is routed,
// or 0x01 followed by the 20-byte vault address.
func ActionHash(action json.RawMessage, nonce uint64, vaultAddress *common.Address) common.Hash {
	h := sha3.NewLegacyKeccak256()
	h.Write(action)

	var nonceBytes [8]byte
	binary.BigEndian.PutUint64(nonceBytes[:], nonce)
	h.Write(nonceBytes[:])

	if vaultAddress == nil {
		h.Write([]byte{0x00})
	} else {
		h.Write([]byte{0x01})
		h.Write(vaultAddress.Bytes())
	}

	var out common.Hash
	h.Sum(out[:0])
	return out
}

func (a *AgentSigner) typedData(agent *Agent) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"Agent": []apitypes.Type{
				{Name: "source", Type: "string"},
				{Name: "connectionId", Type: "bytes32"},
			},
		},
		PrimaryType: "Agent",
		Domain: apitypes.TypedDataDomain{
			Name:              a.domain.Name,
			Version:           a.domain.Version,
			ChainId:           (*math.HexOrDecimal256)(a.domain.ChainID),
			VerifyingContract: a.domain.VerifyingContract.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"source":       agent.Source,
			"connectionId": hexutil.Encode(agent.ConnectionID.Bytes()),
		},
	}
}

// HashAgent returns the EIP-712 digest a wallet signs for the given agent
// message: keccak256("\x19\x01" || domainSeparator || structHash).
func (a *AgentSigner) HashAgent(agent *Agent) ([]byte, error) {
	typedData := a.typedData(agent)

	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return nil, fmt.Errorf("failed to hash domain: %w", err)
	}

	typedDataHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return nil, fmt.Errorf("failed to hash message: %w", err)
	}

	rawData := []byte(fmt.Sprintf("\x19\x01%s%s", string(domainSeparator), string(typedDataHash)))
	digest := crypto.Keccak256Hash(rawData)
	return digest.Bytes(), nil
}

// SignAgent signs an agent message with a local key. CLI/test use only.
func (a *AgentSigner) SignAgent(signer *Signer, agent *Agent) ([]byte, error) {
	hash, err := a.HashAgent(agent)
	if err != nil {
		return nil, fmt.Errorf("failed to hash agent: %w", err)
	}
	signature, err := signer.Sign(hash)
	if err != nil {
		return nil, fmt.Errorf("failed to sign agent: %w", err)
	}
	return signature, nil
}

// RecoverAgentSigner recovers the address that signed an agent message.
func (a *AgentSigner) RecoverAgentSigner(agent *Agent, signature []byte) (common.Address, error) {
	hash, err := a.HashAgent(agent)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to hash agent: %w", err)
	}
	return RecoverAddress(hash, signature)
}

// TypedDataJSON renders the agent message in the eth_signTypedData_v4
// format wallets consume.
func (a *AgentSigner) TypedDataJSON(agent *Agent) (json.RawMessage, error) {
	typedData := map[string]interface{}{
		"types": map[string]interface{}{
			"EIP712Domain": []map[string]string{
				{"name": "name", "type": "string"},
				{"name": "version", "type": "string"},
				{"name": "chainId", "type": "uint256"},
				{"name": "verifyingContract", "type": "address"},
			},
			"Agent": []map[string]string{
				{"name": "source", "type": "string"},
				{"name": "connectionId", "type": "bytes32"},
			},
		},
		"primaryType": "Agent",
		"domain": map[string]interface{}{
			"name":              a.domain.Name,
			"version":           a.domain.Version,
			"chainId":           a.domain.ChainID.String(),
			"verifyingContract": a.domain.VerifyingContract.Hex(),
		},
		"message": map[string]interface{}{
			"source":       agent.Source,
			"connectionId": hexutil.Encode(agent.ConnectionID.Bytes()),
		},
	}

	jsonBytes, err := json.Marshal(typedData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal typed data: %w", err)
	}
	return jsonBytes, nil
}
