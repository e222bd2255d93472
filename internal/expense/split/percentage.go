package split

import "github.com/fairsplit/fairsplit/internal/balance"

// PercentageStrategy divides the expense by per-participant
// percentages, which must sum to 100.
type PercentageStrategy struct{}

// Type returns the split type identifier
func (s *PercentageStrategy) Type() SplitType {
	return SplitTypePercentage
}

// Calculate converts percentages to amounts rounded to two decimals.
// Unlike the even split, the rounding residual here is folded into the
// last participant's share so the stored splits cover the expense
// exactly.
func (s *PercentageStrategy) Calculate(totalAmount float64, participants []Input, memberNames map[string]string) ([]balance.Split, error) {
	if len(participants) == 0 {
		return nil, balance.ErrNoParticipants
	}
	if totalAmount <= 0 {
		return nil, balance.ErrNonPositiveAmount
	}

	var totalPercentage float64
	for _, p := range participants {
		if p.Percentage == nil {
			return nil, ErrMissingPercentage
		}
		if *p.Percentage < 0 || *p.Percentage > 100 {
			return nil, ErrPercentageOutOfRange
		}
		totalPercentage += *p.Percentage
	}
	if !balance.WithinTolerance(totalPercentage, 100) {
		return nil, ErrInvalidPercentages
	}

	splits := make([]balance.Split, len(participants))
	var distributed float64
	for i, p := range participants {
		amount := balance.Round2(totalAmount * (*p.Percentage) / 100)
		distributed += amount
		splits[i] = balance.Split{
			MemberID:   p.UserID,
			MemberName: memberName(memberNames, p.UserID),
			Amount:     amount,
		}
	}

	residual := balance.Round2(totalAmount - distributed)
	if residual != 0 {
		last := len(splits) - 1
		splits[last].Amount = balance.Round2(splits[last].Amount + residual)
	}

	return splits, nil
}
