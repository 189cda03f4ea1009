package entities

import (
	"strings"
)

// ChainType identifies a supported settlement chain
type ChainType string

const (
	ChainTypeSui ChainType = "sui"
	ChainTypeSol ChainType = "sol"
)

// ParseChainType parses a chain selector. "solana" is accepted as an alias of "sol".
func ParseChainType(raw string) (ChainType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "sui":
		return ChainTypeSui, true
	case "sol", "solana":
		return ChainTypeSol, true
	default:
		return "", false
	}
}

func (c ChainType) String() string {
	return string(c)
}

// NormalizeAddress canonicalizes a wallet address for comparison on the given chain.
// Sui addresses are lowercased and left-padded to 32 bytes of hex; Solana base58
// addresses are case-sensitive and only trimmed.
func NormalizeAddress(chain ChainType, address string) string {
	address = strings.TrimSpace(address)
	switch chain {
	case ChainTypeSui:
		return normalizeSuiAddress(address)
	default:
		return address
	}
}

// NormalizeAnyAddress normalizes an address whose chain is not known, treating 0x-prefixed
// values as Sui addresses.
func NormalizeAnyAddress(address string) string {
	address = strings.TrimSpace(address)
	if strings.HasPrefix(strings.ToLower(address), "0x") {
		return normalizeSuiAddress(address)
	}
	return address
}

// SameAddress compares two addresses after normalization.
func SameAddress(chain ChainType, a, b string) bool {
	na, nb := NormalizeAddress(chain, a), NormalizeAddress(chain, b)
	return na != "" && na == nb
}

func normalizeSuiAddress(address string) string {
	hex := strings.ToLower(address)
	hex = strings.TrimPrefix(hex, "0x")
	if hex == "" || len(hex) > 64 {
		return strings.ToLower(address)
	}
	for _, r := range hex {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return strings.ToLower(address)
		}
	}
	return "0x" + strings.Repeat("0", 64-len(hex)) + hex
}
