package models

import "time"

const (
	StatusPaid     = "paid"
	StatusRedeemed = "redeemed"
)

// Session is the durable record for one provider checkout session.
// No record exists before the checkout is paid; the only transition is
// paid -> redeemed, exactly once.
type Session struct {
	Status     string     `json:"status"`
	Coins      int        `json:"coins"`
	PaidAt     time.Time  `json:"paid_at"`
	RedeemedAt *time.Time `json:"redeemed_at,omitempty"`

	// Version is managed by the store and used for conditional writes.
	// It is not part of the serialized record.
	Version int64 `json:"-"`
}
