package expense

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/fairsplit/fairsplit/internal/balance"
)

// Repository handles expense and split data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new expense repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateExpenseWithSplits inserts an expense and all of its splits in a
// single transaction. Either everything lands or nothing does.
func (r *Repository) CreateExpenseWithSplits(ctx context.Context, payerID string, req *CreateExpenseRequest, shares []balance.Split) (*ExpenseWithSplits, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	expenseQuery := `
		INSERT INTO expenses (id, group_id, payer_id, description, amount, image_url, split_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, group_id, payer_id, description, amount, image_url, split_type, created_at
	`

	expense := &Expense{}
	err = tx.QueryRowContext(ctx, expenseQuery,
		uuid.New().String(),
		req.GroupID,
		payerID,
		req.Description,
		req.Amount,
		req.ImageURL,
		req.SplitType,
	).Scan(
		&expense.ID,
		&expense.GroupID,
		&expense.PayerID,
		&expense.Description,
		&expense.Amount,
		&expense.ImageURL,
		&expense.SplitType,
		&expense.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}

	splitQuery := `
		INSERT INTO splits (id, expense_id, member_id, amount_owed, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, expense_id, member_id, amount_owed, status, dispute_reason, settlement_id, updated_at
	`

	splits := make([]*Split, len(shares))
	for i, share := range shares {
		split := &Split{}
		err = tx.QueryRowContext(ctx, splitQuery,
			uuid.New().String(),
			expense.ID,
			share.MemberID,
			share.Amount,
			SplitStatusPending,
		).Scan(
			&split.ID,
			&split.ExpenseID,
			&split.MemberID,
			&split.AmountOwed,
			&split.Status,
			&split.DisputeReason,
			&split.SettlementID,
			&split.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create split: %w", err)
		}
		split.MemberUsername = share.MemberName
		splits[i] = split
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit expense: %w", err)
	}

	return &ExpenseWithSplits{Expense: expense, Splits: splits}, nil
}

// GetExpenseByID retrieves an expense by its ID
func (r *Repository) GetExpenseByID(ctx context.Context, id string) (*Expense, error) {
	query := `
		SELECT e.id, e.group_id, e.payer_id, e.description, e.amount, e.image_url, e.split_type, e.created_at, u.username
		FROM expenses e
		JOIN users u ON e.payer_id = u.id
		WHERE e.id = $1
	`

	expense := &Expense{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&expense.ID,
		&expense.GroupID,
		&expense.PayerID,
		&expense.Description,
		&expense.Amount,
		&expense.ImageURL,
		&expense.SplitType,
		&expense.CreatedAt,
		&expense.PayerUsername,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	return expense, nil
}

// GetSplitsByExpenseID retrieves all splits for an expense
func (r *Repository) GetSplitsByExpenseID(ctx context.Context, expenseID string) ([]*Split, error) {
	query := `
		SELECT s.id, s.expense_id, s.member_id, s.amount_owed, s.status, s.dispute_reason, s.settlement_id, s.updated_at, u.username
		FROM splits s
		JOIN users u ON s.member_id = u.id
		WHERE s.expense_id = $1
		ORDER BY s.updated_at, s.id
	`

	rows, err := r.db.QueryContext(ctx, query, expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get splits: %w", err)
	}
	defer rows.Close()

	return scanSplits(rows, true)
}

// ListExpensesByGroupID retrieves all expenses for a group
func (r *Repository) ListExpensesByGroupID(ctx context.Context, groupID string, limit, offset int) ([]*Expense, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM expenses WHERE group_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, groupID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count expenses: %w", err)
	}

	query := `
		SELECT e.id, e.group_id, e.payer_id, e.description, e.amount, e.image_url, e.split_type, e.created_at, u.username
		FROM expenses e
		JOIN users u ON e.payer_id = u.id
		WHERE e.group_id = $1
		ORDER BY e.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, groupID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*Expense
	for rows.Next() {
		expense := &Expense{}
		if err := rows.Scan(
			&expense.ID,
			&expense.GroupID,
			&expense.PayerID,
			&expense.Description,
			&expense.Amount,
			&expense.ImageURL,
			&expense.SplitType,
			&expense.CreatedAt,
			&expense.PayerUsername,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}

	return expenses, total, rows.Err()
}

// ListForBalances loads a group's full expense history in the shape the
// balance engine consumes. A split counts as settled once its status
// reaches CONFIRMED.
func (r *Repository) ListForBalances(ctx context.Context, groupID string) ([]balance.Expense, error) {
	query := `
		SELECT e.id, e.group_id, e.payer_id, e.amount,
		       s.member_id, s.amount_owed, s.status, u.username
		FROM expenses e
		JOIN splits s ON s.expense_id = e.id
		JOIN users u ON s.member_id = u.id
		WHERE e.group_id = $1
		ORDER BY e.created_at, e.id
	`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses for balances: %w", err)
	}
	defer rows.Close()

	var expenses []balance.Expense
	index := make(map[string]int)
	for rows.Next() {
		var (
			expenseID, expGroupID, payerID string
			amount, amountOwed             float64
			memberID, memberName           string
			status                         SplitStatus
		)
		if err := rows.Scan(&expenseID, &expGroupID, &payerID, &amount, &memberID, &amountOwed, &status, &memberName); err != nil {
			return nil, fmt.Errorf("failed to scan expense row: %w", err)
		}

		i, ok := index[expenseID]
		if !ok {
			expenses = append(expenses, balance.Expense{
				ID:      expenseID,
				GroupID: expGroupID,
				PayerID: payerID,
				Amount:  amount,
			})
			i = len(expenses) - 1
			index[expenseID] = i
		}
		expenses[i].Splits = append(expenses[i].Splits, balance.Split{
			MemberID:   memberID,
			MemberName: memberName,
			Amount:     amountOwed,
			Settled:    status == SplitStatusConfirmed,
		})
	}

	return expenses, rows.Err()
}

// GetSplitByID retrieves a split by its ID
func (r *Repository) GetSplitByID(ctx context.Context, id string) (*Split, error) {
	query := `
		SELECT s.id, s.expense_id, s.member_id, s.amount_owed, s.status, s.dispute_reason, s.settlement_id, s.updated_at, u.username
		FROM splits s
		JOIN users u ON s.member_id = u.id
		WHERE s.id = $1
	`

	split := &Split{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&split.ID,
		&split.ExpenseID,
		&split.MemberID,
		&split.AmountOwed,
		&split.Status,
		&split.DisputeReason,
		&split.SettlementID,
		&split.UpdatedAt,
		&split.MemberUsername,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get split: %w", err)
	}

	return split, nil
}

// UpdateSplitStatus updates the status of a split
func (r *Repository) UpdateSplitStatus(ctx context.Context, id string, status SplitStatus, disputeReason *string) (*Split, error) {
	query := `
		UPDATE splits
		SET status = $2, dispute_reason = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id, expense_id, member_id, amount_owed, status, dispute_reason, settlement_id, updated_at
	`

	split := &Split{}
	err := r.db.QueryRowContext(ctx, query, id, status, disputeReason).Scan(
		&split.ID,
		&split.ExpenseID,
		&split.MemberID,
		&split.AmountOwed,
		&split.Status,
		&split.DisputeReason,
		&split.SettlementID,
		&split.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update split status: %w", err)
	}

	return split, nil
}

// GetPendingSplitsBetweenUsers gets all open splits within a group where
// memberID owes payerID and no settlement has claimed them yet.
func (r *Repository) GetPendingSplitsBetweenUsers(ctx context.Context, groupID, memberID, payerID string) ([]*Split, error) {
	query := `
		SELECT s.id, s.expense_id, s.member_id, s.amount_owed, s.status, s.dispute_reason, s.settlement_id, s.updated_at
		FROM splits s
		JOIN expenses e ON s.expense_id = e.id
		WHERE e.group_id = $1
		  AND s.member_id = $2
		  AND e.payer_id = $3
		  AND s.status IN ('PENDING', 'PAID')
		  AND s.settlement_id IS NULL
		ORDER BY s.updated_at, s.id
	`

	rows, err := r.db.QueryContext(ctx, query, groupID, memberID, payerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get splits: %w", err)
	}
	defer rows.Close()

	return scanSplits(rows, false)
}

// LockSplitsToSettlement locks splits to a settlement. Only unlocked
// splits are taken; if another settlement grabbed any of them first the
// lock fails with ErrSplitLocked and whatever was taken here should be
// released by the caller.
func (r *Repository) LockSplitsToSettlement(ctx context.Context, splitIDs []string, settlementID string) error {
	if len(splitIDs) == 0 {
		return nil
	}

	query := `UPDATE splits SET settlement_id = $1, updated_at = NOW() WHERE id = ANY($2) AND settlement_id IS NULL`
	result, err := r.db.ExecContext(ctx, query, settlementID, pq.Array(splitIDs))
	if err != nil {
		return fmt.Errorf("failed to lock splits: %w", err)
	}

	locked, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to lock splits: %w", err)
	}
	if locked != int64(len(splitIDs)) {
		return ErrSplitLocked
	}
	return nil
}

// UnlockSplitsFromSettlement removes the settlement lock from splits
func (r *Repository) UnlockSplitsFromSettlement(ctx context.Context, settlementID string) error {
	query := `UPDATE splits SET settlement_id = NULL, updated_at = NOW() WHERE settlement_id = $1`
	_, err := r.db.ExecContext(ctx, query, settlementID)
	if err != nil {
		return fmt.Errorf("failed to unlock splits: %w", err)
	}
	return nil
}

// ConfirmSplitsBySettlement marks all splits locked to a settlement as confirmed
func (r *Repository) ConfirmSplitsBySettlement(ctx context.Context, settlementID string) error {
	query := `UPDATE splits SET status = $2, updated_at = NOW() WHERE settlement_id = $1`
	_, err := r.db.ExecContext(ctx, query, settlementID, SplitStatusConfirmed)
	if err != nil {
		return fmt.Errorf("failed to confirm splits: %w", err)
	}
	return nil
}

// DeleteExpense deletes an expense; its splits go with it via cascade
func (r *Repository) DeleteExpense(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrExpenseNotFound
	}

	return nil
}

func scanSplits(rows *sql.Rows, withUsername bool) ([]*Split, error) {
	var splits []*Split
	for rows.Next() {
		split := &Split{}
		dest := []any{
			&split.ID,
			&split.ExpenseID,
			&split.MemberID,
			&split.AmountOwed,
			&split.Status,
			&split.DisputeReason,
			&split.SettlementID,
			&split.UpdatedAt,
		}
		if withUsername {
			dest = append(dest, &split.MemberUsername)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		splits = append(splits, split)
	}
	return splits, rows.Err()
}
