package settlement

import "time"

// CreateSettlementRequest represents the request to create a settlement.
// Payer, receiver, and amount are derived from the pair's net position
// within the group.
type CreateSettlementRequest struct {
	GroupID     string `json:"group_id" validate:"required,uuid"`
	OtherUserID string `json:"other_user_id" validate:"required,uuid"`
}

// SettlementResponse represents the response for a settlement
type SettlementResponse struct {
	ID               string           `json:"id"`
	GroupID          string           `json:"group_id"`
	PayerID          string           `json:"payer_id"`
	PayerUsername    string           `json:"payer_username,omitempty"`
	ReceiverID       string           `json:"receiver_id"`
	ReceiverUsername string           `json:"receiver_username,omitempty"`
	Amount           float64          `json:"amount"`
	Status           SettlementStatus `json:"status"`
	CreatedAt        string           `json:"created_at"`
}

// ToResponse converts a Settlement model to a SettlementResponse DTO
func (s *Settlement) ToResponse() *SettlementResponse {
	return &SettlementResponse{
		ID:               s.ID,
		GroupID:          s.GroupID,
		PayerID:          s.PayerID,
		PayerUsername:    s.PayerUsername,
		ReceiverID:       s.ReceiverID,
		ReceiverUsername: s.ReceiverUsername,
		Amount:           s.Amount,
		Status:           s.Status,
		CreatedAt:        s.CreatedAt.UTC().Format(time.RFC3339),
	}
}
