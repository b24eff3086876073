// Package signature provides the hashing support the blockchain needs to
// produce deterministic digests of its data.
package signature

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash represents the previous hash value recorded in the genesis block.
const ZeroHash string = "0"

// The set of hash strategies that can be used to produce digests.
const (
	StrategySHA256    = "sha256"
	StrategyKeccak256 = "keccak256"
)

// Strategy defines a function that reduces data to a 32 byte digest.
type Strategy func(data []byte) []byte

var strategies = map[string]Strategy{
	StrategySHA256: func(data []byte) []byte {
		hash := sha256.Sum256(data)
		return hash[:]
	},
	StrategyKeccak256: func(data []byte) []byte {
		return crypto.Keccak256(data)
	},
}

// Retrieve returns the hash strategy registered under the specified name.
func Retrieve(name string) (Strategy, error) {
	fn, exists := strategies[name]
	if !exists {
		return nil, fmt.Errorf("hash strategy %q does not exist, supported %v", name, Strategies())
	}

	return fn, nil
}

// Strategies returns the sorted names of the supported hash strategies.
func Strategies() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// =============================================================================

// Hash returns a lowercase hex digest of the JSON representation of the value
// using the sha256 strategy.
func Hash(value any) string {
	return HashWith(strategies[StrategySHA256], value)
}

// HashWith returns a lowercase hex digest of the JSON representation of the
// value using the specified strategy. The hex string carries no 0x prefix so
// leading zeros can be counted directly.
func HashWith(strategy Strategy, value any) string {

	// CORE NOTE: encoding/json writes struct fields in declaration order and
	// map keys sorted, so any value with a fixed field order produces the same
	// bytes every time it is marshaled.
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	return common.Bytes2Hex(strategy(data))
}
