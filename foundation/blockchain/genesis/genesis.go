// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ardanlabs/hashchain/foundation/blockchain/signature"
	"github.com/ardanlabs/hashchain/foundation/validate"
)

// Default values used when no genesis file exists.
const (
	DefaultDifficulty = 3
	DefaultWorkers    = 1
)

// Genesis represents the genesis file.
type Genesis struct {
	Date         time.Time `json:"date"`
	Difficulty   uint      `json:"difficulty" validate:"min=1,max=64"`              // Number of leading hex zeros required to solve the hash puzzle.
	HashStrategy string    `json:"hash_strategy" validate:"oneof=sha256 keccak256"` // Hash function used to digest blocks.
	Workers      int       `json:"workers" validate:"min=1,max=256"`                // Number of goroutines sharing the nonce search.
}

// Default returns the genesis information used when no file is provided.
func Default() Genesis {
	return Genesis{
		Date:         time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		Difficulty:   DefaultDifficulty,
		HashStrategy: signature.StrategySHA256,
		Workers:      DefaultWorkers,
	}
}

// =============================================================================

// Load opens and consumes the genesis file. If the file does not exist the
// default genesis information is returned.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Genesis{}, err
	}

	// Start from the defaults so missing fields are filled in.
	genesis := Default()
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("unmarshal genesis: %w", err)
	}

	if err := validate.Check(genesis); err != nil {
		return Genesis{}, fmt.Errorf("validate genesis: %w", err)
	}

	return genesis, nil
}
