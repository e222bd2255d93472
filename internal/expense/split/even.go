package split

import "github.com/fairsplit/fairsplit/internal/balance"

// EvenStrategy divides the expense equally among all participants.
type EvenStrategy struct{}

// Type returns the split type identifier
func (s *EvenStrategy) Type() SplitType {
	return SplitTypeEven
}

// Calculate delegates to the balance engine's equal-split helper. Each
// participant, payer included, gets an identical share rounded to two
// decimals; the rounding residual is not redistributed.
func (s *EvenStrategy) Calculate(totalAmount float64, participants []Input, memberNames map[string]string) ([]balance.Split, error) {
	return balance.SplitEqually(totalAmount, participantIDs(participants), memberNames)
}
