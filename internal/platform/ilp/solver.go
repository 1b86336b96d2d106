package ilp

import (
	"context"
	"errors"
	"fmt"
	"math"
)

var (
	ErrInfeasible = errors.New("model is infeasible")
	ErrUnbounded  = errors.New("model is unbounded")
	ErrTimeout    = errors.New("solve deadline exceeded")
	ErrNodeLimit  = errors.New("branch-and-bound node limit reached")
	ErrNumerical  = errors.New("simplex failed to converge")
)

// Solver finds an optimal assignment for a Model.
type Solver interface {
	Solve(ctx context.Context, m *Model) (Solution, error)
}

// Solution is an optimal assignment. Values is indexed by Var.
type Solution struct {
	Objective float64
	Values    []float64
	Nodes     int
}

func (s Solution) Value(v Var) float64 {
	if int(v) < 0 || int(v) >= len(s.Values) {
		return 0
	}
	return s.Values[v]
}

// IsSet reports whether a binary variable is at one.
func (s Solution) IsSet(v Var) bool {
	return s.Value(v) > 0.5
}

const (
	defaultMaxNodes      = 200000
	defaultIntegralityEp = 1e-6
	defaultPruneEp       = 1e-9
)

// BranchAndBound is the default Solver: presolve, then depth-first
// branch-and-bound over bounded simplex relaxations. Search order is fixed, so
// identical models produce identical solutions.
type BranchAndBound struct {
	maxNodes    int
	integrality float64
	pruneGap    float64
}

type Option func(*BranchAndBound)

func WithMaxNodes(n int) Option {
	return func(b *BranchAndBound) {
		if n > 0 {
			b.maxNodes = n
		}
	}
}

func WithIntegralityTolerance(tol float64) Option {
	return func(b *BranchAndBound) {
		if tol > 0 && tol < 0.5 {
			b.integrality = tol
		}
	}
}

func NewBranchAndBound(opts ...Option) *BranchAndBound {
	b := &BranchAndBound{
		maxNodes:    defaultMaxNodes,
		integrality: defaultIntegralityEp,
		pruneGap:    defaultPruneEp,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *BranchAndBound) Solve(ctx context.Context, m *Model) (Solution, error) {
	if err := m.Validate(); err != nil {
		return Solution{}, err
	}
	if err := ctxErr(ctx); err != nil {
		return Solution{}, err
	}

	pre, err := presolve(m)
	if err != nil {
		return Solution{}, err
	}

	reduced := pre.reduced()
	values, obj, nodes, err := b.search(ctx, reduced)
	if err != nil {
		return Solution{}, err
	}

	full := pre.postsolve(values)
	for i, v := range m.vars {
		if v.integer {
			full[i] = math.Round(full[i])
		}
	}
	return Solution{
		Objective: obj + pre.objConst,
		Values:    full,
		Nodes:     nodes,
	}, nil
}

type bnbNode struct {
	lo    []float64
	hi    []float64
	depth int
}

func (b *BranchAndBound) search(ctx context.Context, p *lpProblem) ([]float64, float64, int, error) {
	if p.n == 0 {
		return nil, 0, 0, nil
	}

	var (
		incumbent    []float64
		incumbentObj = math.Inf(-1)
		nodes        int
	)

	stack := []bnbNode{{
		lo: append([]float64(nil), p.lo...),
		hi: append([]float64(nil), p.hi...),
	}}

	for len(stack) > 0 {
		if err := ctxErr(ctx); err != nil {
			return nil, 0, nodes, err
		}
		if nodes >= b.maxNodes {
			return nil, 0, nodes, fmt.Errorf("%w: explored %d nodes", ErrNodeLimit, nodes)
		}

		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		x, obj, err := solveLP(ctx, p, node.lo, node.hi)
		if errors.Is(err, ErrInfeasible) {
			continue
		}
		if err != nil {
			return nil, 0, nodes, err
		}
		if incumbent != nil && obj <= incumbentObj+b.pruneGap*(1+math.Abs(incumbentObj)) {
			continue
		}

		branchVar := -1
		bestFrac := 0.0
		for j := 0; j < p.n; j++ {
			if !p.integer[j] {
				continue
			}
			frac := x[j] - math.Floor(x[j])
			if frac <= b.integrality || frac >= 1-b.integrality {
				continue
			}
			score := math.Min(frac, 1-frac)
			if score > bestFrac {
				bestFrac = score
				branchVar = j
			}
		}

		if branchVar < 0 {
			incumbent = x
			incumbentObj = obj
			continue
		}

		value := x[branchVar]
		down := bnbNode{
			lo:    append([]float64(nil), node.lo...),
			hi:    append([]float64(nil), node.hi...),
			depth: node.depth + 1,
		}
		down.hi[branchVar] = math.Floor(value)
		up := bnbNode{
			lo:    append([]float64(nil), node.lo...),
			hi:    node.hi,
			depth: node.depth + 1,
		}
		up.lo[branchVar] = math.Ceil(value)

		// up is popped first
		stack = append(stack, down, up)
	}

	if incumbent == nil {
		return nil, 0, nodes, ErrInfeasible
	}
	return incumbent, incumbentObj, nodes, nil
}

func ctxErr(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return nil
}
