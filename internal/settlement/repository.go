package settlement

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Repository handles settlement data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new settlement repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new settlement into the database
func (r *Repository) Create(ctx context.Context, groupID, payerID, receiverID string, amount float64) (*Settlement, error) {
	query := `
		INSERT INTO settlements (id, group_id, payer_id, receiver_id, amount, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, group_id, payer_id, receiver_id, amount, status, created_at
	`

	settlement := &Settlement{}
	err := r.db.QueryRowContext(ctx, query, uuid.New().String(), groupID, payerID, receiverID, amount, SettlementStatusPending).Scan(
		&settlement.ID,
		&settlement.GroupID,
		&settlement.PayerID,
		&settlement.ReceiverID,
		&settlement.Amount,
		&settlement.Status,
		&settlement.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create settlement: %w", err)
	}

	return settlement, nil
}

// GetByID retrieves a settlement by its ID
func (r *Repository) GetByID(ctx context.Context, id string) (*Settlement, error) {
	query := `
		SELECT s.id, s.group_id, s.payer_id, s.receiver_id, s.amount, s.status, s.created_at,
		       payer.username, receiver.username
		FROM settlements s
		JOIN users payer ON s.payer_id = payer.id
		JOIN users receiver ON s.receiver_id = receiver.id
		WHERE s.id = $1
	`

	settlement := &Settlement{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&settlement.ID,
		&settlement.GroupID,
		&settlement.PayerID,
		&settlement.ReceiverID,
		&settlement.Amount,
		&settlement.Status,
		&settlement.CreatedAt,
		&settlement.PayerUsername,
		&settlement.ReceiverUsername,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}

	return settlement, nil
}

// ListByUserID retrieves all settlements a user is part of
func (r *Repository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*Settlement, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM settlements WHERE payer_id = $1 OR receiver_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count settlements: %w", err)
	}

	query := `
		SELECT s.id, s.group_id, s.payer_id, s.receiver_id, s.amount, s.status, s.created_at,
		       payer.username, receiver.username
		FROM settlements s
		JOIN users payer ON s.payer_id = payer.id
		JOIN users receiver ON s.receiver_id = receiver.id
		WHERE s.payer_id = $1 OR s.receiver_id = $1
		ORDER BY s.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*Settlement
	for rows.Next() {
		settlement := &Settlement{}
		if err := rows.Scan(
			&settlement.ID,
			&settlement.GroupID,
			&settlement.PayerID,
			&settlement.ReceiverID,
			&settlement.Amount,
			&settlement.Status,
			&settlement.CreatedAt,
			&settlement.PayerUsername,
			&settlement.ReceiverUsername,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, settlement)
	}

	return settlements, total, rows.Err()
}

// UpdateStatus updates the status of a settlement
func (r *Repository) UpdateStatus(ctx context.Context, id string, status SettlementStatus) (*Settlement, error) {
	query := `
		UPDATE settlements
		SET status = $2
		WHERE id = $1
		RETURNING id, group_id, payer_id, receiver_id, amount, status, created_at
	`

	settlement := &Settlement{}
	err := r.db.QueryRowContext(ctx, query, id, status).Scan(
		&settlement.ID,
		&settlement.GroupID,
		&settlement.PayerID,
		&settlement.ReceiverID,
		&settlement.Amount,
		&settlement.Status,
		&settlement.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update settlement status: %w", err)
	}

	return settlement, nil
}
