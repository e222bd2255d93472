package expense

import (
	"time"

	"github.com/fairsplit/fairsplit/internal/expense/split"
)

// SplitStatus represents the status of a split
type SplitStatus string

const (
	SplitStatusPending   SplitStatus = "PENDING"
	SplitStatusPaid      SplitStatus = "PAID"
	SplitStatusConfirmed SplitStatus = "CONFIRMED"
	SplitStatusDisputed  SplitStatus = "DISPUTED"
)

// Expense represents an expense in the system
type Expense struct {
	ID          string    `json:"id"`
	GroupID     string    `json:"group_id"`
	PayerID     string    `json:"payer_id"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	ImageURL    *string   `json:"image_url,omitempty"`
	SplitType   string    `json:"split_type"` // EVEN, PERCENTAGE, EXACT
	CreatedAt   time.Time `json:"created_at"`

	// Populated via JOIN
	PayerUsername string `json:"payer_username,omitempty"`
}

// Split represents an individual share of an expense
type Split struct {
	ID            string      `json:"id"`
	ExpenseID     string      `json:"expense_id"`
	MemberID      string      `json:"member_id"`
	AmountOwed    float64     `json:"amount_owed"`
	Status        SplitStatus `json:"status"`
	DisputeReason *string     `json:"dispute_reason,omitempty"`
	SettlementID  *string     `json:"settlement_id,omitempty"` // Set while locked to a settlement
	UpdatedAt     time.Time   `json:"updated_at"`

	// Populated via JOIN
	MemberUsername string `json:"member_username,omitempty"`
}

// ExpenseWithSplits combines an expense with its calculated splits
type ExpenseWithSplits struct {
	Expense *Expense
	Splits  []*Split
}

// SplitParticipant is used when creating an expense with splits
type SplitParticipant struct {
	UserID     string   `json:"user_id" validate:"required,uuid"`
	Percentage *float64 `json:"percentage,omitempty"` // For PERCENTAGE split
	Amount     *float64 `json:"amount,omitempty"`     // For EXACT split
}

// ToSplitInput converts to the split package's input type
func (p *SplitParticipant) ToSplitInput() split.Input {
	return split.Input{
		UserID:     p.UserID,
		Percentage: p.Percentage,
		Amount:     p.Amount,
	}
}
