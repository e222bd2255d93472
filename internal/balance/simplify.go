package balance

import (
	"fmt"
	"math"
	"sort"
)

// Transaction is one suggested payment from a debtor to a creditor.
type Transaction struct {
	DebtorID     string  `json:"debtor_id"`
	DebtorName   string  `json:"debtor_name"`
	CreditorID   string  `json:"creditor_id"`
	CreditorName string  `json:"creditor_name"`
	Amount       float64 `json:"amount"`
}

// Description renders the transaction as "<debtor> owes <creditor>".
func (t Transaction) Description() string {
	return fmt.Sprintf("%s owes %s", t.DebtorName, t.CreditorName)
}

// SimplifyDebts reduces member balances to a short list of payments that
// would settle the group, by greedily matching the largest remaining
// debtor against the largest remaining creditor.
//
// The result is not guaranteed to be of minimum cardinality (that is a
// partition problem), but it never exceeds creditors+debtors-1
// transactions, and the amounts charged to each debtor sum to that
// debtor's outstanding balance within Tolerance.
//
// Balances within Tolerance of zero are treated as settled and join
// neither pool; if every balance is settled the result is empty.
func SimplifyDebts(balances []GroupBalance) []Transaction {
	var creditors, debtors []GroupBalance
	for _, b := range balances {
		switch Sign(b.Net) {
		case 1:
			creditors = append(creditors, b)
		case -1:
			debtors = append(debtors, b)
		}
	}

	// Largest first. Stable so ties keep roster order.
	sort.SliceStable(creditors, func(i, j int) bool {
		return creditors[i].Net > creditors[j].Net
	})
	sort.SliceStable(debtors, func(i, j int) bool {
		return debtors[i].Net < debtors[j].Net
	})

	remainingDebt := make([]float64, len(debtors))
	for i, d := range debtors {
		remainingDebt[i] = -d.Net
	}
	remainingCredit := make([]float64, len(creditors))
	for j, c := range creditors {
		remainingCredit[j] = c.Net
	}

	transactions := []Transaction{}
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := math.Min(remainingDebt[i], remainingCredit[j])
		transactions = append(transactions, Transaction{
			DebtorID:     debtors[i].MemberID,
			DebtorName:   debtors[i].Name,
			CreditorID:   creditors[j].MemberID,
			CreditorName: creditors[j].Name,
			Amount:       amount,
		})

		remainingDebt[i] -= amount
		remainingCredit[j] -= amount

		if remainingDebt[i] <= Tolerance {
			i++
		}
		if remainingCredit[j] <= Tolerance {
			j++
		}
	}

	return transactions
}
