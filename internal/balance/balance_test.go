package balance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNames = map[string]string{
	"alice":   "Alice",
	"bob":     "Bob",
	"charlie": "Charlie",
}

func TestComputeGroupBalancesTwoMembers(t *testing.T) {
	// One expense of 100 paid by Alice, split 50/50 with Bob.
	expenses := []Expense{
		{
			ID:      "e1",
			PayerID: "alice",
			Amount:  100,
			Splits: []Split{
				{MemberID: "alice", Amount: 50},
				{MemberID: "bob", Amount: 50},
			},
		},
	}

	balances := ComputeGroupBalances(expenses, []string{"alice", "bob"}, testNames)
	require.Len(t, balances, 2)

	alice := balances[0]
	assert.Equal(t, "alice", alice.MemberID)
	assert.Equal(t, "Alice", alice.Name)
	assert.InDelta(t, 100, alice.TotalPaid, Tolerance)
	assert.InDelta(t, 50, alice.TotalOwed, Tolerance)
	assert.InDelta(t, 50, alice.Net, Tolerance)

	bob := balances[1]
	assert.InDelta(t, 0, bob.TotalPaid, Tolerance)
	assert.InDelta(t, 50, bob.TotalOwed, Tolerance)
	assert.InDelta(t, -50, bob.Net, Tolerance)
}

func TestComputeGroupBalancesThreeMembers(t *testing.T) {
	// 90 paid by Alice split 30 each: Alice +60, Bob -30, Charlie -30.
	expenses := []Expense{
		{
			ID:      "e1",
			PayerID: "alice",
			Amount:  90,
			Splits: []Split{
				{MemberID: "alice", Amount: 30},
				{MemberID: "bob", Amount: 30},
				{MemberID: "charlie", Amount: 30},
			},
		},
	}

	balances := ComputeGroupBalances(expenses, []string{"alice", "bob", "charlie"}, testNames)
	require.Len(t, balances, 3)
	assert.InDelta(t, 60, balances[0].Net, Tolerance)
	assert.InDelta(t, -30, balances[1].Net, Tolerance)
	assert.InDelta(t, -30, balances[2].Net, Tolerance)
}

func TestComputeGroupBalancesSettledSplitExcluded(t *testing.T) {
	roster := []string{"alice", "bob"}
	expenses := []Expense{
		{
			ID:      "e1",
			PayerID: "alice",
			Amount:  100,
			Splits: []Split{
				{MemberID: "alice", Amount: 50},
				{MemberID: "bob", Amount: 50},
			},
		},
	}

	before := ComputeGroupBalances(expenses, roster, testNames)

	// Settling Bob's split must change his balance by exactly the
	// settled amount and leave TotalPaid untouched.
	expenses[0].Splits[1].Settled = true
	after := ComputeGroupBalances(expenses, roster, testNames)

	assert.InDelta(t, 50, after[1].Net-before[1].Net, 1e-9)
	assert.InDelta(t, before[1].TotalPaid, after[1].TotalPaid, 1e-9)
	assert.InDelta(t, 0, after[1].Net, Tolerance)
}

func TestComputeGroupBalancesRosterOrderAndFallbacks(t *testing.T) {
	expenses := []Expense{
		{
			ID:      "e1",
			PayerID: "ghost", // not on the roster: paid amount is dropped
			Amount:  40,
			Splits: []Split{
				{MemberID: "bob", Amount: 20},
				{MemberID: "ghost", Amount: 20}, // dropped as well
			},
		},
	}

	balances := ComputeGroupBalances(expenses, []string{"zoe", "bob"}, testNames)
	require.Len(t, balances, 2)

	// Output follows roster order, not expense order.
	assert.Equal(t, "zoe", balances[0].MemberID)
	assert.Equal(t, "bob", balances[1].MemberID)

	// No name mapping degrades to the placeholder label.
	assert.Equal(t, UnknownMemberName, balances[0].Name)
	assert.Equal(t, "Bob", balances[1].Name)

	// Off-roster payer and split member are not attributed to anyone.
	assert.InDelta(t, 0, balances[0].TotalPaid+balances[0].TotalOwed, 1e-9)
	assert.InDelta(t, 20, balances[1].TotalOwed, 1e-9)
}

func TestComputeGroupBalancesEmptyInputs(t *testing.T) {
	assert.Empty(t, ComputeGroupBalances(nil, nil, nil))

	balances := ComputeGroupBalances(nil, []string{"alice"}, testNames)
	require.Len(t, balances, 1)
	assert.Zero(t, balances[0].TotalPaid)
	assert.Zero(t, balances[0].TotalOwed)
	assert.Zero(t, balances[0].Net)
}

func TestComputeGroupBalancesConservation(t *testing.T) {
	roster := []string{"alice", "bob", "charlie"}
	expenses := []Expense{
		{ID: "e1", PayerID: "alice", Amount: 75.30, Splits: []Split{
			{MemberID: "alice", Amount: 25.10},
			{MemberID: "bob", Amount: 25.10},
			{MemberID: "charlie", Amount: 25.10},
		}},
		{ID: "e2", PayerID: "bob", Amount: 42.99, Splits: []Split{
			{MemberID: "alice", Amount: 21.50},
			{MemberID: "bob", Amount: 21.49},
		}},
		{ID: "e3", PayerID: "charlie", Amount: 18.75, Splits: []Split{
			{MemberID: "charlie", Amount: 9.38},
			{MemberID: "bob", Amount: 9.37},
		}},
	}

	balances := ComputeGroupBalances(expenses, roster, testNames)

	var totalPaid, totalOwed, netSum, expenseSum, splitSum float64
	for _, b := range balances {
		totalPaid += b.TotalPaid
		totalOwed += b.TotalOwed
		netSum += b.Net
	}
	for _, e := range expenses {
		expenseSum += e.Amount
		for _, sp := range e.Splits {
			splitSum += sp.Amount
		}
	}

	assert.InDelta(t, expenseSum, totalPaid, 1e-9)
	assert.InDelta(t, splitSum, totalOwed, 1e-9)
	// Splits fully cover each expense here, so group nets to zero.
	assert.InDelta(t, expenseSum-splitSum, netSum, 1e-9)
	assert.InDelta(t, 0, netSum, Tolerance)
}

func TestComputeGroupBalancesIdempotent(t *testing.T) {
	roster := []string{"alice", "bob"}
	expenses := []Expense{
		{ID: "e1", PayerID: "alice", Amount: 33.33, Splits: []Split{
			{MemberID: "alice", Amount: 16.67},
			{MemberID: "bob", Amount: 16.66},
		}},
	}

	first := ComputeGroupBalances(expenses, roster, testNames)
	second := ComputeGroupBalances(expenses, roster, testNames)
	assert.Equal(t, first, second)
}
