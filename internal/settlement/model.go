package settlement

import "time"

// SettlementStatus represents the status of a settlement
type SettlementStatus string

const (
	SettlementStatusPending   SettlementStatus = "PENDING"
	SettlementStatusPaid      SettlementStatus = "PAID"
	SettlementStatusConfirmed SettlementStatus = "CONFIRMED"
	SettlementStatusRejected  SettlementStatus = "REJECTED"
)

// Settlement represents a bulk payment between two members of a group.
// While it is open, the splits it covers are locked against individual
// status changes.
type Settlement struct {
	ID         string           `json:"id"`
	GroupID    string           `json:"group_id"`
	PayerID    string           `json:"payer_id"`    // Who sends the money
	ReceiverID string           `json:"receiver_id"` // Who receives it
	Amount     float64          `json:"amount"`      // The pair's net amount at creation time
	Status     SettlementStatus `json:"status"`
	CreatedAt  time.Time        `json:"created_at"`

	// Populated via JOIN
	PayerUsername    string `json:"payer_username,omitempty"`
	ReceiverUsername string `json:"receiver_username,omitempty"`
}
