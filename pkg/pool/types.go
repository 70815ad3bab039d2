package pool

import "time"

// Quote is the pool's pricing answer for a swap. Amounts are base units.
type Quote struct {
	ExpectedOutAmount string   `json:"expectedOutAmount"`
	PriceImpactBps    int32    `json:"priceImpactBps"`
	Route             []string `json:"route"`
}

// UnsignedTransaction is a pool-built transaction awaiting the user's signature.
type UnsignedTransaction struct {
	Base64 string `json:"transaction"`
}

// OrderDetails accompanies an executed swap so the pool can match the signed
// transaction to the quoted intent.
type OrderDetails struct {
	SourceMint   string `json:"sourceMint"`
	DestMint     string `json:"destMint"`
	AmountIn     string `json:"amountIn"`
	MinAmountOut string `json:"minAmountOut"`
	Sender       string `json:"sender"`
	Receiver     string `json:"receiver"`
}

// OrderReceipt is returned when the pool takes custody of a swap intent.
// OrderID must be retained by the caller: it is the only handle for
// settlement polling and recovery once this call returns.
type OrderReceipt struct {
	OrderID   string    `json:"orderStatusId"`
	Timestamp time.Time `json:"timestamp"`
}

// Order settlement states reported by the pool.
const (
	OrderPending   = "pending"
	OrderCompleted = "completed"
	OrderFailed    = "failed"
)

// OrderStatus is one settlement poll answer.
type OrderStatus struct {
	Status  string `json:"status"`
	Details string `json:"details,omitempty"`
}

// PrivateBalance is a confidential balance entry. Balance is base units;
// Visible reports whether the pool has decrypted the entry for this session.
type PrivateBalance struct {
	Balance string `json:"balance"`
	Visible bool   `json:"visible"`
}

// SignedMessage is the authentication proof for balance reads. Producing it
// is the wallet's job; this package only forwards it.
type SignedMessage struct {
	Message   string `json:"message"`
	Signature string `json:"signature"`
}
