package split

import "github.com/fairsplit/fairsplit/internal/balance"

// ExactStrategy takes a caller-provided amount per participant. The
// breakdown must cover the expense total.
type ExactStrategy struct{}

// Type returns the split type identifier
func (s *ExactStrategy) Type() SplitType {
	return SplitTypeExact
}

// Calculate validates the provided amounts and returns them as splits.
func (s *ExactStrategy) Calculate(totalAmount float64, participants []Input, memberNames map[string]string) ([]balance.Split, error) {
	if len(participants) == 0 {
		return nil, balance.ErrNoParticipants
	}
	if totalAmount <= 0 {
		return nil, balance.ErrNonPositiveAmount
	}

	splits := make([]balance.Split, len(participants))
	for i, p := range participants {
		if p.Amount == nil {
			return nil, ErrMissingExactAmount
		}
		if *p.Amount < 0 {
			return nil, ErrNegativeSplitAmount
		}
		splits[i] = balance.Split{
			MemberID:   p.UserID,
			MemberName: memberName(memberNames, p.UserID),
			Amount:     balance.Round2(*p.Amount),
		}
	}

	if !balance.ValidateCustomSplits(totalAmount, splits) {
		return nil, ErrInvalidExactAmounts
	}

	return splits, nil
}

func memberName(names map[string]string, id string) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return balance.UnknownMemberName
}
