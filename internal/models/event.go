package models

import "time"

// EventTypeCheckoutCompleted is the only provider event type this gateway acts on.
const EventTypeCheckoutCompleted = "checkout.session.completed"

// CheckoutEvent is the provider's webhook event envelope.
type CheckoutEvent struct {
	Type string       `json:"type"`
	Data CheckoutData `json:"data"`
}

type CheckoutData struct {
	Object CheckoutSession `json:"object"`
}

// CheckoutSession carries the fields of the checkout object this gateway reads.
type CheckoutSession struct {
	ID            string `json:"id"`
	PaymentStatus string `json:"payment_status"`
}

// LineItem is one purchased item of a checkout session.
type LineItem struct {
	ID    string `json:"id"`
	Price Price  `json:"price"`
}

type Price struct {
	ID string `json:"id"`
}

const (
	SessionEventPaymentRecorded = "payment_recorded"
	SessionEventCoinsRedeemed   = "coins_redeemed"
)

// SessionEvent is published to Kafka after every successful record write.
type SessionEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	SessionID string    `json:"session_id"`
	Coins     int       `json:"coins"`
	At        time.Time `json:"at"`
}
