package public

import "github.com/ardanlabs/hashchain/foundation/blockchain/database"

// submitRequest is the payload for submitting transactions. The
// transactions are opaque strings and are carried verbatim.
type submitRequest struct {
	Transactions []string `json:"transactions" validate:"required,min=1,dive,required"`
}

type submitResponse struct {
	Status  string `json:"status"`
	Pending int    `json:"pending"`
}

type mineResponse struct {
	Status string  `json:"status"`
	Index  *uint64 `json:"index,omitempty"`
}

type chainResponse struct {
	Length int                  `json:"length"`
	Chain  []database.BlockData `json:"chain"`
}

type validateResponse struct {
	Valid      bool                 `json:"valid"`
	Blocks     uint64               `json:"blocks"`
	Violations []database.Violation `json:"violations"`
}

type mempoolResponse struct {
	Count        int      `json:"count"`
	Transactions []string `json:"transactions"`
}
