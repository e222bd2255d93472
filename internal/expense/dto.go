package expense

import "time"

// CreateExpenseRequest represents the request to create an expense
type CreateExpenseRequest struct {
	GroupID      string              `json:"group_id" validate:"required,uuid"`
	Description  string              `json:"description" validate:"required,min=1,max=255"`
	Amount       float64             `json:"amount" validate:"required,gt=0"`
	ImageURL     *string             `json:"image_url,omitempty"`
	SplitType    string              `json:"split_type" validate:"required,oneof=EVEN PERCENTAGE EXACT"`
	Participants []*SplitParticipant `json:"participants" validate:"required,min=1,dive"`
}

// DisputeSplitRequest represents the request to dispute a split
type DisputeSplitRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=500"`
}

// ExpenseResponse represents the response for an expense
type ExpenseResponse struct {
	ID            string           `json:"id"`
	GroupID       string           `json:"group_id"`
	PayerID       string           `json:"payer_id"`
	PayerUsername string           `json:"payer_username,omitempty"`
	Description   string           `json:"description"`
	Amount        float64          `json:"amount"`
	ImageURL      *string          `json:"image_url,omitempty"`
	SplitType     string           `json:"split_type"`
	CreatedAt     string           `json:"created_at"`
	Splits        []*SplitResponse `json:"splits,omitempty"`
}

// SplitResponse represents the response for a split
type SplitResponse struct {
	ID             string      `json:"id"`
	ExpenseID      string      `json:"expense_id"`
	MemberID       string      `json:"member_id"`
	MemberUsername string      `json:"member_username,omitempty"`
	AmountOwed     float64     `json:"amount_owed"`
	Status         SplitStatus `json:"status"`
	DisputeReason  *string     `json:"dispute_reason,omitempty"`
	SettlementID   *string     `json:"settlement_id,omitempty"`
	UpdatedAt      string      `json:"updated_at"`
}

// ToResponse converts an Expense model to an ExpenseResponse DTO
func (e *Expense) ToResponse() *ExpenseResponse {
	return &ExpenseResponse{
		ID:            e.ID,
		GroupID:       e.GroupID,
		PayerID:       e.PayerID,
		PayerUsername: e.PayerUsername,
		Description:   e.Description,
		Amount:        e.Amount,
		ImageURL:      e.ImageURL,
		SplitType:     e.SplitType,
		CreatedAt:     e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ToResponse converts a Split model to a SplitResponse DTO
func (s *Split) ToResponse() *SplitResponse {
	return &SplitResponse{
		ID:             s.ID,
		ExpenseID:      s.ExpenseID,
		MemberID:       s.MemberID,
		MemberUsername: s.MemberUsername,
		AmountOwed:     s.AmountOwed,
		Status:         s.Status,
		DisputeReason:  s.DisputeReason,
		SettlementID:   s.SettlementID,
		UpdatedAt:      s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
