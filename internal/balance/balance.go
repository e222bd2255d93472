package balance

// Split is one member's share of an expense. Settled splits no longer
// count toward what the member owes.
type Split struct {
	MemberID   string  `json:"member_id"`
	MemberName string  `json:"member_name,omitempty"`
	Amount     float64 `json:"amount"`
	Settled    bool    `json:"settled"`
}

// Expense is the minimal view of an expense the engine needs. The
// service layer owns the full record (description, timestamps, image);
// none of that affects the math.
type Expense struct {
	ID      string
	GroupID string
	PayerID string
	Amount  float64
	Splits  []Split
}

// GroupBalance is one member's aggregate position within a group.
// A positive Net means the group owes this member money; a negative Net
// means this member owes the group.
type GroupBalance struct {
	MemberID  string  `json:"member_id"`
	Name      string  `json:"name"`
	TotalPaid float64 `json:"total_paid"`
	TotalOwed float64 `json:"total_owed"`
	Net       float64 `json:"net"`
}

// ComputeGroupBalances reduces a list of expenses and a member roster to
// one GroupBalance per roster member, in roster order.
//
// The payer of each expense gets the full expense amount added to
// TotalPaid. Each unsettled split adds its amount to that member's
// TotalOwed. Net = TotalPaid - TotalOwed. Payers or split members not
// present in memberIDs are not attributed to anyone; members missing
// from memberNames get the "Unknown" label instead of failing.
//
// No rounding is applied during accumulation. Rounding many
// intermediate sums compounds error across large expense histories, so
// presentation-time rounding is left to callers.
func ComputeGroupBalances(expenses []Expense, memberIDs []string, memberNames map[string]string) []GroupBalance {
	index := make(map[string]int, len(memberIDs))
	balances := make([]GroupBalance, len(memberIDs))
	for i, id := range memberIDs {
		balances[i] = GroupBalance{
			MemberID: id,
			Name:     displayName(memberNames, id),
		}
		index[id] = i
	}

	for _, exp := range expenses {
		if i, ok := index[exp.PayerID]; ok {
			balances[i].TotalPaid += exp.Amount
		}
		for _, sp := range exp.Splits {
			if sp.Settled {
				continue
			}
			if i, ok := index[sp.MemberID]; ok {
				balances[i].TotalOwed += sp.Amount
			}
		}
	}

	for i := range balances {
		balances[i].Net = balances[i].TotalPaid - balances[i].TotalOwed
	}

	return balances
}
