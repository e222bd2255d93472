// Package split selects how an expense amount is divided among its
// participants. Each strategy produces one split per participant,
// including the payer; the balance engine nets the payer's own share
// out when it aggregates.
package split

import (
	"errors"
	"fmt"

	"github.com/fairsplit/fairsplit/internal/balance"
)

// SplitType defines the type of split strategy
type SplitType string

const (
	SplitTypeEven       SplitType = "EVEN"
	SplitTypePercentage SplitType = "PERCENTAGE"
	SplitTypeExact      SplitType = "EXACT"
)

// Input represents a participant in a split with optional values
type Input struct {
	UserID     string   `json:"user_id"`
	Percentage *float64 `json:"percentage,omitempty"` // For PERCENTAGE split
	Amount     *float64 `json:"amount,omitempty"`     // For EXACT split
}

// Strategy is the interface that all split strategies must implement
type Strategy interface {
	// Calculate computes the splits for all participants. Member names
	// are display labels only and may be incomplete.
	Calculate(totalAmount float64, participants []Input, memberNames map[string]string) ([]balance.Split, error)

	// Type returns the type identifier for this strategy
	Type() SplitType
}

// Factory creates split strategies based on the requested type
type Factory struct{}

// NewFactory creates a new factory instance
func NewFactory() *Factory {
	return &Factory{}
}

// Create returns the strategy implementation for the given type
func (f *Factory) Create(splitType SplitType) (Strategy, error) {
	switch splitType {
	case SplitTypeEven:
		return &EvenStrategy{}, nil
	case SplitTypePercentage:
		return &PercentageStrategy{}, nil
	case SplitTypeExact:
		return &ExactStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown split type: %s", splitType)
	}
}

// CreateFromString creates a strategy from a string type (useful for API requests)
func (f *Factory) CreateFromString(splitType string) (Strategy, error) {
	return f.Create(SplitType(splitType))
}

var (
	ErrInvalidPercentages   = errors.New("percentages must sum to 100")
	ErrInvalidExactAmounts  = errors.New("exact amounts must sum to total amount")
	ErrMissingPercentage    = errors.New("percentage value required for all participants")
	ErrMissingExactAmount   = errors.New("exact amount required for all participants")
	ErrPercentageOutOfRange = errors.New("percentage must be between 0 and 100")
	ErrNegativeSplitAmount  = errors.New("split amounts cannot be negative")
)

func participantIDs(participants []Input) []string {
	ids := make([]string, len(participants))
	for i, p := range participants {
		ids[i] = p.UserID
	}
	return ids
}
