package balance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimplifyDebtsSinglePair(t *testing.T) {
	balances := []GroupBalance{
		{MemberID: "alice", Name: "Alice", Net: 50},
		{MemberID: "bob", Name: "Bob", Net: -50},
	}

	transactions := SimplifyDebts(balances)
	require.Len(t, transactions, 1)

	tx := transactions[0]
	assert.Equal(t, "bob", tx.DebtorID)
	assert.Equal(t, "alice", tx.CreditorID)
	assert.InDelta(t, 50, tx.Amount, Tolerance)
	assert.Equal(t, "Bob owes Alice", tx.Description())
}

func TestSimplifyDebtsOneCreditorTwoDebtors(t *testing.T) {
	balances := []GroupBalance{
		{MemberID: "alice", Name: "Alice", Net: 60},
		{MemberID: "bob", Name: "Bob", Net: -30},
		{MemberID: "charlie", Name: "Charlie", Net: -30},
	}

	transactions := SimplifyDebts(balances)
	require.Len(t, transactions, 2)
	for _, tx := range transactions {
		assert.Equal(t, "alice", tx.CreditorID)
		assert.InDelta(t, 30, tx.Amount, Tolerance)
	}
	assert.NotEqual(t, transactions[0].DebtorID, transactions[1].DebtorID)
}

func TestSimplifyDebtsChainedMatching(t *testing.T) {
	// The largest debtor pays off the largest creditor first, then the
	// remainder spills into the next creditor.
	balances := []GroupBalance{
		{MemberID: "alice", Name: "Alice", Net: 70},
		{MemberID: "bob", Name: "Bob", Net: 10},
		{MemberID: "charlie", Name: "Charlie", Net: -55},
		{MemberID: "dana", Name: "Dana", Net: -25},
	}

	transactions := SimplifyDebts(balances)
	require.Len(t, transactions, 3)

	assert.Equal(t, "charlie", transactions[0].DebtorID)
	assert.Equal(t, "alice", transactions[0].CreditorID)
	assert.InDelta(t, 55, transactions[0].Amount, Tolerance)

	assert.Equal(t, "dana", transactions[1].DebtorID)
	assert.Equal(t, "alice", transactions[1].CreditorID)
	assert.InDelta(t, 15, transactions[1].Amount, Tolerance)

	assert.Equal(t, "dana", transactions[2].DebtorID)
	assert.Equal(t, "bob", transactions[2].CreditorID)
	assert.InDelta(t, 10, transactions[2].Amount, Tolerance)
}

func TestSimplifyDebtsAllSettled(t *testing.T) {
	balances := []GroupBalance{
		{MemberID: "alice", Net: 0},
		{MemberID: "bob", Net: 0.004},
		{MemberID: "charlie", Net: -0.009},
	}

	transactions := SimplifyDebts(balances)
	assert.NotNil(t, transactions)
	assert.Empty(t, transactions)
}

func TestSimplifyDebtsToleranceBoundary(t *testing.T) {
	// A net of exactly +/-0.01 sits on the boundary and is treated as
	// settled, consistent with the inclusive tolerance everywhere else.
	balances := []GroupBalance{
		{MemberID: "alice", Net: 0.01},
		{MemberID: "bob", Net: -0.01},
	}
	assert.Empty(t, SimplifyDebts(balances))

	// Just past the boundary both parties are back in play.
	balances = []GroupBalance{
		{MemberID: "alice", Net: 0.02},
		{MemberID: "bob", Net: -0.02},
	}
	assert.Len(t, SimplifyDebts(balances), 1)
}

func TestSimplifyDebtsRemainderBoundary(t *testing.T) {
	// Crafted so Alice's remaining credit after paying off Bob is
	// exactly Tolerance. That remainder counts as settled, so no
	// follow-up transaction to Frank may be emitted for it.
	bob := Tolerance + 0x1p-52
	alice := 2*Tolerance + 0x1p-52
	frank := Tolerance + 0x1p-55

	balances := []GroupBalance{
		{MemberID: "alice", Name: "Alice", Net: alice},
		{MemberID: "bob", Name: "Bob", Net: -bob},
		{MemberID: "frank", Name: "Frank", Net: -frank},
	}

	transactions := SimplifyDebts(balances)
	require.Len(t, transactions, 1)
	assert.Equal(t, "bob", transactions[0].DebtorID)
	assert.Equal(t, "alice", transactions[0].CreditorID)
	for _, tx := range transactions {
		assert.Equal(t, 1, Sign(tx.Amount), "amount %v should not be settled", tx.Amount)
	}
}

func TestSimplifyDebtsCompleteness(t *testing.T) {
	balances := []GroupBalance{
		{MemberID: "alice", Name: "Alice", Net: 123.45},
		{MemberID: "bob", Name: "Bob", Net: 0.56},
		{MemberID: "charlie", Name: "Charlie", Net: -100},
		{MemberID: "dana", Name: "Dana", Net: -20.01},
		{MemberID: "eve", Name: "Eve", Net: -4},
	}

	transactions := SimplifyDebts(balances)

	// Every debtor pays out exactly their outstanding balance.
	paidByDebtor := map[string]float64{}
	for _, tx := range transactions {
		paidByDebtor[tx.DebtorID] += tx.Amount
	}
	for _, b := range balances {
		if Sign(b.Net) == -1 {
			assert.InDelta(t, -b.Net, paidByDebtor[b.MemberID], Tolerance,
				"debtor %s", b.MemberID)
		}
	}

	// Every creditor receives exactly what they are owed.
	receivedByCreditor := map[string]float64{}
	for _, tx := range transactions {
		receivedByCreditor[tx.CreditorID] += tx.Amount
	}
	for _, b := range balances {
		if Sign(b.Net) == 1 {
			assert.InDelta(t, b.Net, receivedByCreditor[b.MemberID], Tolerance,
				"creditor %s", b.MemberID)
		}
	}

	// Two creditors and three debtors need at most four transactions.
	assert.LessOrEqual(t, len(transactions), 4)
	for _, tx := range transactions {
		assert.Greater(t, tx.Amount, 0.0)
	}
}

func TestSimplifyDebtsIdempotent(t *testing.T) {
	balances := []GroupBalance{
		{MemberID: "alice", Name: "Alice", Net: 33.34},
		{MemberID: "bob", Name: "Bob", Net: -16.67},
		{MemberID: "charlie", Name: "Charlie", Net: -16.67},
	}

	first := SimplifyDebts(balances)
	second := SimplifyDebts(balances)
	assert.Equal(t, first, second)
}

func TestSignClassification(t *testing.T) {
	tests := []struct {
		value float64
		want  int
	}{
		{0, 0},
		{0.009, 0},
		{-0.009, 0},
		{0.01, 0},
		{-0.01, 0},
		{0.011, 1},
		{-0.011, -1},
		{math.Pi, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Sign(tt.value), "Sign(%v)", tt.value)
	}
}
