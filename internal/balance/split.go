package balance

import "errors"

// Contract-violation errors. Callers are expected to have validated
// user input already; these are the engine's defensive second check.
var (
	ErrNoParticipants    = errors.New("at least one member is required to split an expense")
	ErrNonPositiveAmount = errors.New("expense amount must be positive")
)

// SplitEqually divides amount across memberIDs, producing one unsettled
// split per member with the per-head share rounded to two decimals.
//
// Rounding can leave up to 0.01*(n-1) of the amount unassigned: 100
// across three members yields three shares of 33.33 and a 0.01
// residual. The residual is deliberately not redistributed to any
// member; callers that need the stored splits to sum exactly provide
// adjusted amounts and check them with ValidateCustomSplits.
func SplitEqually(amount float64, memberIDs []string, memberNames map[string]string) ([]Split, error) {
	if len(memberIDs) == 0 {
		return nil, ErrNoParticipants
	}
	if amount <= 0 {
		return nil, ErrNonPositiveAmount
	}

	share := Round2(amount / float64(len(memberIDs)))
	splits := make([]Split, len(memberIDs))
	for i, id := range memberIDs {
		splits[i] = Split{
			MemberID:   id,
			MemberName: displayName(memberNames, id),
			Amount:     share,
		}
	}
	return splits, nil
}

// ValidateCustomSplits reports whether the split amounts sum to within
// Tolerance of the expense amount. The tolerance absorbs sub-cent float
// accumulation noise; a genuinely missing cent, such as the 100/3
// equal-split drift, lands just outside it and is rejected. The
// canonical boundary cases are pinned by tests.
func ValidateCustomSplits(amount float64, splits []Split) bool {
	var sum float64
	for _, sp := range splits {
		sum += sp.Amount
	}
	return WithinTolerance(sum, amount)
}
