package ilp

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBranchAndBound_Knapsack(t *testing.T) {
	t.Parallel()

	m := NewModel("knapsack")
	values := []float64{10, 13, 7, 8, 4}
	weights := []float64{5, 7, 4, 4, 2}
	vars := make([]Var, len(values))
	terms := make([]Term, len(values))
	for i := range values {
		vars[i] = m.AddBinary("", values[i])
		terms[i] = Term{Var: vars[i], Coef: weights[i]}
	}
	m.AddConstraint("capacity", LessEqual, 11, terms...)

	sol, err := NewBranchAndBound().Solve(context.Background(), m)
	require.NoError(t, err)
	require.InDelta(t, 22, sol.Objective, 1e-6)
	require.True(t, sol.IsSet(vars[0]))
	require.True(t, sol.IsSet(vars[3]))
	require.True(t, sol.IsSet(vars[4]))

	weight := 0.0
	for i, v := range vars {
		if sol.IsSet(v) {
			weight += weights[i]
		}
	}
	if weight > 11+1e-9 {
		t.Fatalf("capacity exceeded: got=%v", weight)
	}
}

func TestBranchAndBound_MatchesExhaustiveSearch(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 60; round++ {
		n := 4 + rng.Intn(6)
		m := NewModel("random")
		obj := make([]float64, n)
		vars := make([]Var, n)
		for j := 0; j < n; j++ {
			obj[j] = float64(rng.Intn(21) - 5)
			vars[j] = m.AddBinary("", obj[j])
		}

		type row struct {
			coef  []float64
			sense Sense
			rhs   float64
		}
		rows := make([]row, 1+rng.Intn(4))
		for i := range rows {
			coef := make([]float64, n)
			terms := make([]Term, 0, n)
			for j := 0; j < n; j++ {
				if rng.Intn(3) == 0 {
					continue
				}
				coef[j] = float64(rng.Intn(9) - 2)
				terms = append(terms, Term{Var: vars[j], Coef: coef[j]})
			}
			sense := Sense(rng.Intn(3))
			rhs := float64(rng.Intn(9))
			rows[i] = row{coef: coef, sense: sense, rhs: rhs}
			m.AddConstraint("", sense, rhs, terms...)
		}

		best := math.Inf(-1)
		for mask := 0; mask < 1<<n; mask++ {
			feasible := true
			for _, r := range rows {
				lhs := 0.0
				for j := 0; j < n; j++ {
					if mask&(1<<j) != 0 {
						lhs += r.coef[j]
					}
				}
				if !rowHolds(lhs, r.sense, r.rhs, 1e-9) {
					feasible = false
					break
				}
			}
			if !feasible {
				continue
			}
			value := 0.0
			for j := 0; j < n; j++ {
				if mask&(1<<j) != 0 {
					value += obj[j]
				}
			}
			best = math.Max(best, value)
		}

		sol, err := NewBranchAndBound().Solve(context.Background(), m)
		if math.IsInf(best, -1) {
			if !errors.Is(err, ErrInfeasible) {
				t.Fatalf("round %d: expected ErrInfeasible, got %v", round, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("round %d: solve: %v", round, err)
		}
		if math.Abs(sol.Objective-best) > 1e-6 {
			t.Fatalf("round %d: objective mismatch: got=%v want=%v", round, sol.Objective, best)
		}
		for _, c := range m.Constraints() {
			lhs := 0.0
			for _, term := range c.Terms {
				lhs += term.Coef * sol.Value(term.Var)
			}
			if !rowHolds(lhs, c.Sense, c.RHS, 1e-6) {
				t.Fatalf("round %d: solution violates constraint: lhs=%v %s %v", round, lhs, c.Sense, c.RHS)
			}
		}
	}
}

func TestBranchAndBound_ContinuousPenalty(t *testing.T) {
	t.Parallel()

	m := NewModel("penalty")
	a := m.AddBinary("a", 3)
	b := m.AddBinary("b", 2)
	c := m.AddBinary("c", 1)
	h := m.AddContinuous("h", 0, math.Inf(1), -4)
	m.AddConstraint("at_least_two", GreaterEqual, 2, Sum(a, b, c)...)
	m.AddConstraint("hits", GreaterEqual, -1,
		Term{Var: h, Coef: 1}, Term{Var: a, Coef: -1}, Term{Var: b, Coef: -1}, Term{Var: c, Coef: -1})

	sol, err := NewBranchAndBound().Solve(context.Background(), m)
	require.NoError(t, err)
	require.InDelta(t, 1, sol.Objective, 1e-6)
	require.True(t, sol.IsSet(a))
	require.True(t, sol.IsSet(b))
	require.False(t, sol.IsSet(c))
	require.InDelta(t, 1, sol.Value(h), 1e-6)
}

func TestBranchAndBound_InfeasibleModel(t *testing.T) {
	t.Parallel()

	m := NewModel("infeasible")
	x := m.AddBinary("x", 1)
	y := m.AddBinary("y", 1)
	m.AddConstraint("pick_three", Equal, 3, Sum(x, y)...)

	_, err := NewBranchAndBound().Solve(context.Background(), m)
	if !errors.Is(err, ErrInfeasible) {
		t.Fatalf("expected ErrInfeasible, got %v", err)
	}
}

func TestBranchAndBound_CancelledContext(t *testing.T) {
	t.Parallel()

	m := NewModel("cancelled")
	x := m.AddBinary("x", 1)
	m.AddConstraint("cap", LessEqual, 1, Sum(x)...)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBranchAndBound().Solve(ctx, m)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestBranchAndBound_NodeLimit(t *testing.T) {
	t.Parallel()

	// Odd-coefficient parity forces fractional relaxations at every level.
	m := NewModel("parity")
	terms := make([]Term, 0, 12)
	for i := 0; i < 12; i++ {
		v := m.AddBinary("", 1)
		terms = append(terms, Term{Var: v, Coef: 2})
	}
	m.AddConstraint("odd", Equal, 11, terms...)

	_, err := NewBranchAndBound(WithMaxNodes(3)).Solve(context.Background(), m)
	if !errors.Is(err, ErrNodeLimit) && !errors.Is(err, ErrInfeasible) {
		t.Fatalf("expected node limit or infeasible, got %v", err)
	}
}

func TestBranchAndBound_LinkedTransferColumns(t *testing.T) {
	t.Parallel()

	// keep/sell/buy links over one owned and one unowned candidate.
	m := NewModel("links")
	owned := m.AddBinary("x_owned", 2)
	other := m.AddBinary("x_other", 5)
	buy := m.AddBinary("t_other", 0)
	sell := m.AddBinary("s_owned", 0)

	m.AddConstraint("t_lo", GreaterEqual, 0, Term{Var: buy, Coef: 1}, Term{Var: other, Coef: -1})
	m.AddConstraint("t_hi", LessEqual, 0, Term{Var: buy, Coef: 1}, Term{Var: other, Coef: -1})
	m.AddConstraint("s_lo", GreaterEqual, 1, Term{Var: sell, Coef: 1}, Term{Var: owned, Coef: 1})
	m.AddConstraint("s_hi", LessEqual, 1, Term{Var: sell, Coef: 1}, Term{Var: owned, Coef: 1})
	m.AddConstraint("size", Equal, 1, Sum(owned, other)...)
	m.AddConstraint("balance", Equal, 0, Term{Var: buy, Coef: 1}, Term{Var: sell, Coef: -1})

	sol, err := NewBranchAndBound().Solve(context.Background(), m)
	require.NoError(t, err)
	require.InDelta(t, 5, sol.Objective, 1e-6)
	require.True(t, sol.IsSet(other))
	require.True(t, sol.IsSet(buy))
	require.True(t, sol.IsSet(sell))
	require.False(t, sol.IsSet(owned))
}

func TestPresolve_SubstitutesLinkedColumns(t *testing.T) {
	t.Parallel()

	m := NewModel("presolve")
	x := m.AddBinary("x", 3)
	tv := m.AddBinary("t", 1)
	m.AddConstraint("lo", GreaterEqual, 0, Term{Var: tv, Coef: 1}, Term{Var: x, Coef: -1})
	m.AddConstraint("hi", LessEqual, 0, Term{Var: tv, Coef: 1}, Term{Var: x, Coef: -1})

	pre, err := presolve(m)
	require.NoError(t, err)
	reduced := pre.reduced()
	if reduced.n != 1 {
		t.Fatalf("unexpected reduced column count: got=%d want=1", reduced.n)
	}
	if len(reduced.rows) != 0 {
		t.Fatalf("unexpected reduced rows: got=%d want=0", len(reduced.rows))
	}
	require.InDelta(t, 4, reduced.obj[0], 1e-12)

	full := pre.postsolve([]float64{1})
	require.Equal(t, []float64{1, 1}, full)
}

func TestPresolve_DetectsEmptyRowConflict(t *testing.T) {
	t.Parallel()

	m := NewModel("conflict")
	x := m.AddBinary("x", 1)
	m.Fix(x, 1)
	m.AddConstraint("zero", LessEqual, 0, Sum(x)...)

	_, err := presolve(m)
	if !errors.Is(err, ErrInfeasible) {
		t.Fatalf("expected ErrInfeasible, got %v", err)
	}
}

func TestModel_ValidateRejectsUnknownVariable(t *testing.T) {
	t.Parallel()

	m := NewModel("bad")
	m.AddBinary("x", 1)
	m.AddConstraint("ghost", LessEqual, 1, Term{Var: 5, Coef: 1})

	if err := m.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestModel_AddConstraintMergesRepeatedTerms(t *testing.T) {
	t.Parallel()

	m := NewModel("merge")
	x := m.AddBinary("x", 1)
	m.AddConstraint("twice", LessEqual, 2, Term{Var: x, Coef: 1}, Term{Var: x, Coef: 1})

	got := m.Constraints()[0].Terms
	require.Len(t, got, 1)
	require.Equal(t, 2.0, got[0].Coef)
}
