package ilp

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	costTol         = 1e-9
	pivotTol        = 1e-9
	ratioTieTol     = 1e-12
	degenerateLimit = 50
	ctxCheckEvery   = 64
)

type colState uint8

const (
	atLower colState = iota
	atUpper
	basic
)

// tableau is a bounded-variable simplex tableau over shifted columns
// 0 <= x_j <= upper_j. Structural columns come first, then slacks, then
// artificials.
type tableau struct {
	t      *mat.Dense
	m, n   int
	nStruc int
	upper  []float64
	state  []colState
	frozen []bool
	art    []bool
	basis  []int
	beta   []float64
}

// solveLP maximizes the relaxation of p with column bounds overridden by lo and
// hi. It returns the column values, the objective, or ErrInfeasible.
func solveLP(ctx context.Context, p *lpProblem, lo, hi []float64) ([]float64, float64, error) {
	n := p.n
	upper := make([]float64, n)
	for j := 0; j < n; j++ {
		upper[j] = hi[j] - lo[j]
		if upper[j] < -boundTol {
			return nil, 0, ErrInfeasible
		}
		if upper[j] < 0 {
			upper[j] = 0
		}
	}

	if len(p.rows) == 0 {
		return solveUnconstrained(p, lo, upper)
	}

	tb := buildTableau(p, lo, upper)
	cost := make([]float64, tb.n)

	if tb.hasArtificials() {
		for j := range cost {
			if tb.art[j] {
				cost[j] = -1
			}
		}
		if err := tb.run(ctx, cost); err != nil {
			return nil, 0, err
		}
		infeas, scale := 0.0, 1.0
		for i, col := range tb.basis {
			if tb.art[col] {
				infeas += tb.beta[i]
			}
			scale = math.Max(scale, math.Abs(tb.beta[i]))
		}
		if infeas > 1e-7*scale {
			return nil, 0, ErrInfeasible
		}
		tb.retireArtificials()
		for j := range cost {
			cost[j] = 0
		}
	}

	copy(cost, p.obj)
	if err := tb.run(ctx, cost); err != nil {
		return nil, 0, err
	}

	x := tb.structural(lo)
	obj := 0.0
	for j := 0; j < n; j++ {
		if x[j] < lo[j] {
			x[j] = lo[j]
		}
		if x[j] > hi[j] {
			x[j] = hi[j]
		}
		obj += p.obj[j] * x[j]
	}
	return x, obj, nil
}

func solveUnconstrained(p *lpProblem, lo, upper []float64) ([]float64, float64, error) {
	x := make([]float64, p.n)
	obj := 0.0
	for j := 0; j < p.n; j++ {
		x[j] = lo[j]
		if p.obj[j] > costTol {
			if math.IsInf(upper[j], 1) {
				return nil, 0, ErrUnbounded
			}
			x[j] += upper[j]
		}
		obj += p.obj[j] * x[j]
	}
	return x, obj, nil
}

func buildTableau(p *lpProblem, lo, upper []float64) *tableau {
	m := len(p.rows)
	b := make([]float64, m)
	slackSign := make([]float64, m)
	flip := make([]float64, m)
	nSlack, nArt := 0, 0

	for i, row := range p.rows {
		rhs := row.rhs
		for k, j := range row.idx {
			rhs -= row.coef[k] * lo[j]
		}
		switch row.sense {
		case LessEqual:
			slackSign[i] = 1
			nSlack++
		case GreaterEqual:
			slackSign[i] = -1
			nSlack++
		}
		flip[i] = 1
		if rhs < 0 {
			flip[i] = -1
		}
		b[i] = rhs * flip[i]
		if slackSign[i]*flip[i] <= 0 {
			nArt++
		}
	}

	total := p.n + nSlack + nArt
	tb := &tableau{
		t:      mat.NewDense(m, total, nil),
		m:      m,
		n:      total,
		nStruc: p.n,
		upper:  make([]float64, total),
		state:  make([]colState, total),
		frozen: make([]bool, total),
		art:    make([]bool, total),
		basis:  make([]int, m),
		beta:   b,
	}
	copy(tb.upper, upper)
	for j := p.n; j < total; j++ {
		tb.upper[j] = math.Inf(1)
	}

	slackCol, artCol := p.n, p.n+nSlack
	for i, row := range p.rows {
		r := tb.t.RawRowView(i)
		for k, j := range row.idx {
			r[j] += row.coef[k] * flip[i]
		}
		if slackSign[i] != 0 {
			r[slackCol] = slackSign[i] * flip[i]
			if r[slackCol] > 0 {
				tb.basis[i] = slackCol
				tb.state[slackCol] = basic
				slackCol++
				continue
			}
			slackCol++
		}
		r[artCol] = 1
		tb.art[artCol] = true
		tb.basis[i] = artCol
		tb.state[artCol] = basic
		artCol++
	}
	return tb
}

func (tb *tableau) hasArtificials() bool {
	for _, a := range tb.art {
		if a {
			return true
		}
	}
	return false
}

// run iterates primal simplex to optimality for the given costs.
func (tb *tableau) run(ctx context.Context, cost []float64) error {
	d := append([]float64(nil), cost...)
	for i, col := range tb.basis {
		if cb := cost[col]; cb != 0 {
			floats.AddScaled(d, -cb, tb.t.RawRowView(i))
		}
	}

	maxIter := 50*(tb.m+tb.n) + 1000
	bland := false
	degenerate := 0
	for iter := 0; iter < maxIter; iter++ {
		if iter%ctxCheckEvery == 0 {
			if err := ctxErr(ctx); err != nil {
				return err
			}
		}

		enter, dir := tb.entering(d, bland)
		if enter < 0 {
			return nil
		}

		leave, step, toUpper := tb.ratioTest(enter, dir, bland)
		if leave < 0 && math.IsInf(step, 1) {
			return ErrUnbounded
		}

		if step <= ratioTieTol {
			degenerate++
			if degenerate > degenerateLimit {
				bland = true
			}
		} else {
			degenerate = 0
		}

		for i := range tb.beta {
			if a := tb.t.At(i, enter); a != 0 {
				tb.beta[i] -= dir * a * step
			}
		}

		if leave < 0 {
			if tb.state[enter] == atLower {
				tb.state[enter] = atUpper
			} else {
				tb.state[enter] = atLower
			}
			continue
		}

		value := step
		if dir < 0 {
			value = tb.upper[enter] - step
		}
		out := tb.basis[leave]
		tb.state[out] = atLower
		if toUpper {
			tb.state[out] = atUpper
		}
		tb.pivot(leave, enter)
		tb.beta[leave] = value

		rowR := tb.t.RawRowView(leave)
		if f := d[enter]; f != 0 {
			floats.AddScaled(d, -f, rowR)
		}
		d[enter] = 0
	}
	return fmt.Errorf("%w after %d iterations", ErrNumerical, maxIter)
}

func (tb *tableau) entering(d []float64, bland bool) (int, float64) {
	best, dir, score := -1, 0.0, 0.0
	for j := 0; j < tb.n; j++ {
		if tb.state[j] == basic || tb.frozen[j] || tb.upper[j] <= pivotTol {
			continue
		}
		var s, dj float64
		switch {
		case tb.state[j] == atLower && d[j] > costTol:
			s, dj = d[j], 1
		case tb.state[j] == atUpper && d[j] < -costTol:
			s, dj = -d[j], -1
		default:
			continue
		}
		if bland {
			return j, dj
		}
		if s > score {
			best, dir, score = j, dj, s
		}
	}
	return best, dir
}

// ratioTest returns the leaving row (or -1 for a bound flip), the step length
// and whether the leaving column exits at its upper bound.
func (tb *tableau) ratioTest(enter int, dir float64, bland bool) (int, float64, bool) {
	leave := -1
	step := tb.upper[enter]
	toUpper := false
	bestPivot := 0.0

	for i := 0; i < tb.m; i++ {
		a := dir * tb.t.At(i, enter)
		col := tb.basis[i]
		var ratio float64
		var up bool
		switch {
		case a > pivotTol:
			ratio = math.Max(tb.beta[i], 0) / a
		case a < -pivotTol && !math.IsInf(tb.upper[col], 1):
			ratio = math.Max(tb.upper[col]-tb.beta[i], 0) / -a
			up = true
		default:
			continue
		}

		switch {
		case ratio < step-ratioTieTol:
		case ratio <= step+ratioTieTol && leave >= 0:
			if bland {
				if col >= tb.basis[leave] {
					continue
				}
			} else if math.Abs(a) <= bestPivot {
				continue
			}
		default:
			continue
		}
		leave, step, toUpper, bestPivot = i, ratio, up, math.Abs(a)
	}
	return leave, step, toUpper
}

func (tb *tableau) pivot(r, c int) {
	rowR := tb.t.RawRowView(r)
	floats.Scale(1/rowR[c], rowR)
	rowR[c] = 1
	for i := 0; i < tb.m; i++ {
		if i == r {
			continue
		}
		rowI := tb.t.RawRowView(i)
		if f := rowI[c]; f != 0 {
			floats.AddScaled(rowI, -f, rowR)
			rowI[c] = 0
		}
	}
	tb.basis[r] = c
	tb.state[c] = basic
}

// retireArtificials pins artificials at zero and pivots basic ones out of the
// basis wherever a non-artificial column can replace them. Rows with no such
// column are redundant and keep their artificial at zero.
func (tb *tableau) retireArtificials() {
	for j := range tb.art {
		if tb.art[j] {
			tb.upper[j] = 0
			tb.frozen[j] = true
		}
	}
	for r, col := range tb.basis {
		if !tb.art[col] {
			continue
		}
		row := tb.t.RawRowView(r)
		best, bestAbs := -1, 1e-7
		for j := 0; j < tb.n; j++ {
			if tb.art[j] || tb.state[j] == basic {
				continue
			}
			if a := math.Abs(row[j]); a > bestAbs {
				best, bestAbs = j, a
			}
		}
		if best < 0 {
			continue
		}
		value := 0.0
		if tb.state[best] == atUpper {
			value = tb.upper[best]
		}
		tb.state[col] = atLower
		tb.pivot(r, best)
		tb.beta[r] = value
	}
}

func (tb *tableau) structural(lo []float64) []float64 {
	x := make([]float64, tb.nStruc)
	for j := 0; j < tb.nStruc; j++ {
		if tb.state[j] == atUpper {
			x[j] = tb.upper[j]
		}
	}
	for i, col := range tb.basis {
		if col < tb.nStruc {
			x[col] = tb.beta[i]
		}
	}
	for j := range x {
		x[j] += lo[j]
	}
	return x
}
