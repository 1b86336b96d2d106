package ilp

import (
	"fmt"
	"math"
	"sort"
)

const (
	presolveMaxPasses = 64
	zeroCoef          = 1e-12
	boundTol          = 1e-9
)

// lpRow is a sparse row of the reduced problem.
type lpRow struct {
	idx   []int
	coef  []float64
	sense Sense
	rhs   float64
}

// lpProblem is the column-indexed problem handed to branch-and-bound.
type lpProblem struct {
	n       int
	rows    []lpRow
	obj     []float64
	lo      []float64
	hi      []float64
	integer []bool
}

type workRow struct {
	name  string
	terms map[int]float64
	sense Sense
	rhs   float64
	alive bool
}

// postOp restores an eliminated column: x[v] = value + scale*x[ref].
// Fixed columns have ref < 0.
type postOp struct {
	v     int
	value float64
	scale float64
	ref   int
}

type presolveResult struct {
	nOrig    int
	origOf   []int
	ops      []postOp
	objConst float64
	prob     *lpProblem
}

type presolver struct {
	lo, hi   []float64
	obj      []float64
	integer  []bool
	alive    []bool
	rows     []*workRow
	occ      [][]int
	ops      []postOp
	objConst float64
}

// presolve removes fixed columns, turns singleton rows into bounds, merges
// opposed doubleton rows into equalities and substitutes doubleton equalities
// out of the model. The reduced problem has the same optimum up to objConst.
func presolve(m *Model) (*presolveResult, error) {
	n := len(m.vars)
	ps := &presolver{
		lo:      make([]float64, n),
		hi:      make([]float64, n),
		obj:     make([]float64, n),
		integer: make([]bool, n),
		alive:   make([]bool, n),
		occ:     make([][]int, n),
	}
	for j, v := range m.vars {
		ps.lo[j], ps.hi[j] = v.lo, v.hi
		ps.obj[j] = v.obj
		ps.integer[j] = v.integer
		ps.alive[j] = true
		if err := ps.tighten(j, v.lo, v.hi); err != nil {
			return nil, err
		}
	}
	for _, c := range m.constraints {
		row := &workRow{name: c.Name, terms: make(map[int]float64, len(c.Terms)), sense: c.Sense, rhs: c.RHS, alive: true}
		for _, t := range c.Terms {
			if math.Abs(t.Coef) <= zeroCoef {
				continue
			}
			row.terms[int(t.Var)] = t.Coef
		}
		ri := len(ps.rows)
		ps.rows = append(ps.rows, row)
		for j := range row.terms {
			ps.occ[j] = append(ps.occ[j], ri)
		}
	}

	for pass := 0; pass < presolveMaxPasses; pass++ {
		changed := false
		steps := []func() (bool, error){
			ps.reduceRows,
			ps.removeFixed,
			ps.mergeDoubletons,
			ps.substituteDoubletons,
		}
		for _, step := range steps {
			ok, err := step()
			if err != nil {
				return nil, err
			}
			changed = changed || ok
		}
		if !changed {
			break
		}
	}

	return ps.result(n), nil
}

func (ps *presolver) tighten(j int, lo, hi float64) error {
	if ps.integer[j] {
		lo = math.Ceil(lo - boundTol)
		hi = math.Floor(hi + boundTol)
	}
	if lo > ps.lo[j] {
		ps.lo[j] = lo
	}
	if hi < ps.hi[j] {
		ps.hi[j] = hi
	}
	if ps.lo[j] > ps.hi[j]+boundTol {
		return fmt.Errorf("%w: variable %d has empty domain [%g, %g]", ErrInfeasible, j, ps.lo[j], ps.hi[j])
	}
	if ps.lo[j] > ps.hi[j] {
		ps.hi[j] = ps.lo[j]
	}
	return nil
}

func (ps *presolver) kill(ri int) {
	ps.rows[ri].alive = false
}

// activity returns the minimum and maximum of a row's left-hand side over the
// current bounds.
func (ps *presolver) activity(row *workRow) (float64, float64) {
	minAct, maxAct := 0.0, 0.0
	for j, a := range row.terms {
		if a > 0 {
			minAct += a * ps.lo[j]
			maxAct += a * ps.hi[j]
		} else {
			minAct += a * ps.hi[j]
			maxAct += a * ps.lo[j]
		}
	}
	return minAct, maxAct
}

func (ps *presolver) reduceRows() (bool, error) {
	changed := false
	for ri, row := range ps.rows {
		if !row.alive {
			continue
		}
		for j, a := range row.terms {
			if math.Abs(a) <= zeroCoef {
				delete(row.terms, j)
			}
		}

		tol := boundTol * (1 + math.Abs(row.rhs))
		switch len(row.terms) {
		case 0:
			if !rowHolds(0, row.sense, row.rhs, tol) {
				return false, fmt.Errorf("%w: constraint %q reduces to 0 %s %g", ErrInfeasible, row.name, row.sense, row.rhs)
			}
			ps.kill(ri)
			changed = true
			continue
		case 1:
			for j, a := range row.terms {
				if err := ps.boundFromSingleton(j, a, row.sense, row.rhs); err != nil {
					return false, fmt.Errorf("constraint %q: %w", row.name, err)
				}
			}
			ps.kill(ri)
			changed = true
			continue
		}

		minAct, maxAct := ps.activity(row)
		switch row.sense {
		case LessEqual:
			if minAct > row.rhs+tol {
				return false, fmt.Errorf("%w: constraint %q needs at least %g <= %g", ErrInfeasible, row.name, minAct, row.rhs)
			}
			if maxAct <= row.rhs+tol {
				ps.kill(ri)
				changed = true
			}
		case GreaterEqual:
			if maxAct < row.rhs-tol {
				return false, fmt.Errorf("%w: constraint %q reaches at most %g >= %g", ErrInfeasible, row.name, maxAct, row.rhs)
			}
			if minAct >= row.rhs-tol {
				ps.kill(ri)
				changed = true
			}
		case Equal:
			if minAct > row.rhs+tol || maxAct < row.rhs-tol {
				return false, fmt.Errorf("%w: constraint %q cannot reach %g within [%g, %g]", ErrInfeasible, row.name, row.rhs, minAct, maxAct)
			}
		}
	}
	return changed, nil
}

func rowHolds(lhs float64, sense Sense, rhs, tol float64) bool {
	switch sense {
	case LessEqual:
		return lhs <= rhs+tol
	case GreaterEqual:
		return lhs >= rhs-tol
	default:
		return math.Abs(lhs-rhs) <= tol
	}
}

func (ps *presolver) boundFromSingleton(j int, a float64, sense Sense, rhs float64) error {
	v := rhs / a
	inf := math.Inf(1)
	switch {
	case sense == Equal:
		return ps.tighten(j, v, v)
	case (sense == LessEqual) == (a > 0):
		return ps.tighten(j, -inf, v)
	default:
		return ps.tighten(j, v, inf)
	}
}

func (ps *presolver) removeFixed() (bool, error) {
	changed := false
	for j := range ps.alive {
		if !ps.alive[j] || ps.hi[j]-ps.lo[j] > boundTol {
			continue
		}
		value := ps.lo[j]
		for _, ri := range ps.occ[j] {
			row := ps.rows[ri]
			a, ok := row.terms[j]
			if !row.alive || !ok {
				continue
			}
			row.rhs -= a * value
			delete(row.terms, j)
		}
		ps.objConst += ps.obj[j] * value
		ps.ops = append(ps.ops, postOp{v: j, value: value, ref: -1})
		ps.alive[j] = false
		changed = true
	}
	return changed, nil
}

// mergeDoubletons collapses two-column rows over the same normalized
// expression whose bounds pin it to a single value.
func (ps *presolver) mergeDoubletons() (bool, error) {
	type interval struct {
		lo, hi float64
		rows   []int
		u, v   int
		ratio  float64
	}
	groups := make(map[string]*interval)
	var order []string

	for ri, row := range ps.rows {
		if !row.alive || len(row.terms) != 2 {
			continue
		}
		u, v := rowPair(row)
		cu, cv := row.terms[u], row.terms[v]
		ratio := cv / cu
		rhs := row.rhs / cu
		sense := row.sense
		if cu < 0 && sense != Equal {
			sense = flipSense(sense)
		}

		key := fmt.Sprintf("%d:%d:%.12g", u, v, ratio)
		g, ok := groups[key]
		if !ok {
			g = &interval{lo: math.Inf(-1), hi: math.Inf(1), u: u, v: v, ratio: ratio}
			groups[key] = g
			order = append(order, key)
		}
		switch sense {
		case LessEqual:
			g.hi = math.Min(g.hi, rhs)
		case GreaterEqual:
			g.lo = math.Max(g.lo, rhs)
		default:
			g.lo = math.Max(g.lo, rhs)
			g.hi = math.Min(g.hi, rhs)
		}
		g.rows = append(g.rows, ri)
	}

	changed := false
	for _, key := range order {
		g := groups[key]
		if len(g.rows) < 2 {
			continue
		}
		tol := boundTol * (1 + math.Abs(g.lo) + math.Abs(g.hi))
		if g.lo > g.hi+tol {
			return false, fmt.Errorf("%w: constraint %q conflicts with %d parallel rows", ErrInfeasible, ps.rows[g.rows[0]].name, len(g.rows)-1)
		}
		if math.Abs(g.hi-g.lo) > tol {
			continue
		}
		keep := ps.rows[g.rows[0]]
		keep.terms = map[int]float64{g.u: 1, g.v: g.ratio}
		keep.sense = Equal
		keep.rhs = g.lo
		for _, ri := range g.rows[1:] {
			ps.kill(ri)
		}
		changed = true
	}
	return changed, nil
}

// substituteDoubletons eliminates u from a*u + b*v = r when the implied value
// of u always lies within u's bounds.
func (ps *presolver) substituteDoubletons() (bool, error) {
	changed := false
	for ri, row := range ps.rows {
		if !row.alive || row.sense != Equal || len(row.terms) != 2 {
			continue
		}
		p, q := rowPair(row)
		candidates := [2][2]int{{p, q}, {q, p}}
		if ps.liveOccurrences(q) < ps.liveOccurrences(p) {
			candidates = [2][2]int{{q, p}, {p, q}}
		}
		for _, c := range candidates {
			u, v := c[0], c[1]
			k := row.rhs / row.terms[u]
			s := -row.terms[v] / row.terms[u]
			if !ps.canSubstitute(u, v, k, s) {
				continue
			}
			ps.substitute(ri, u, v, k, s)
			changed = true
			break
		}
	}
	return changed, nil
}

func (ps *presolver) canSubstitute(u, v int, k, s float64) bool {
	if ps.integer[u] && (!ps.integer[v] || !isIntegral(k) || !isIntegral(s)) {
		return false
	}
	lo, hi := k+s*ps.lo[v], k+s*ps.hi[v]
	if s < 0 {
		lo, hi = hi, lo
	}
	if math.IsNaN(lo) || math.IsNaN(hi) {
		return false
	}
	return lo >= ps.lo[u]-boundTol && hi <= ps.hi[u]+boundTol
}

func (ps *presolver) substitute(eqRow, u, v int, k, s float64) {
	for _, ri := range ps.occ[u] {
		row := ps.rows[ri]
		a, ok := row.terms[u]
		if ri == eqRow || !row.alive || !ok {
			continue
		}
		delete(row.terms, u)
		row.rhs -= a * k
		if _, had := row.terms[v]; !had {
			ps.occ[v] = append(ps.occ[v], ri)
		}
		row.terms[v] += a * s
		if math.Abs(row.terms[v]) <= zeroCoef {
			delete(row.terms, v)
		}
	}
	ps.objConst += ps.obj[u] * k
	ps.obj[v] += ps.obj[u] * s
	ps.obj[u] = 0
	ps.kill(eqRow)
	ps.alive[u] = false
	ps.ops = append(ps.ops, postOp{v: u, value: k, scale: s, ref: v})
}

func (ps *presolver) liveOccurrences(j int) int {
	n := 0
	for _, ri := range ps.occ[j] {
		row := ps.rows[ri]
		if _, ok := row.terms[j]; ok && row.alive {
			n++
		}
	}
	return n
}

func (ps *presolver) result(nOrig int) *presolveResult {
	res := &presolveResult{
		nOrig:    nOrig,
		ops:      ps.ops,
		objConst: ps.objConst,
	}
	colOf := make([]int, nOrig)
	for j := range colOf {
		colOf[j] = -1
		if ps.alive[j] {
			colOf[j] = len(res.origOf)
			res.origOf = append(res.origOf, j)
		}
	}

	n := len(res.origOf)
	prob := &lpProblem{
		n:       n,
		obj:     make([]float64, n),
		lo:      make([]float64, n),
		hi:      make([]float64, n),
		integer: make([]bool, n),
	}
	for col, j := range res.origOf {
		prob.obj[col] = ps.obj[j]
		prob.lo[col] = ps.lo[j]
		prob.hi[col] = ps.hi[j]
		prob.integer[col] = ps.integer[j]
	}
	for _, row := range ps.rows {
		if !row.alive || len(row.terms) == 0 {
			continue
		}
		vars := make([]int, 0, len(row.terms))
		for j := range row.terms {
			vars = append(vars, j)
		}
		sort.Ints(vars)
		r := lpRow{sense: row.sense, rhs: row.rhs}
		for _, j := range vars {
			r.idx = append(r.idx, colOf[j])
			r.coef = append(r.coef, row.terms[j])
		}
		prob.rows = append(prob.rows, r)
	}
	res.prob = prob
	return res
}

func (r *presolveResult) reduced() *lpProblem {
	return r.prob
}

// postsolve expands reduced column values back to the original variables.
func (r *presolveResult) postsolve(values []float64) []float64 {
	full := make([]float64, r.nOrig)
	for col, j := range r.origOf {
		if col < len(values) {
			full[j] = values[col]
		}
	}
	for i := len(r.ops) - 1; i >= 0; i-- {
		op := r.ops[i]
		if op.ref < 0 {
			full[op.v] = op.value
			continue
		}
		full[op.v] = op.value + op.scale*full[op.ref]
	}
	return full
}

func rowPair(row *workRow) (int, int) {
	pair := make([]int, 0, 2)
	for j := range row.terms {
		pair = append(pair, j)
	}
	sort.Ints(pair)
	return pair[0], pair[1]
}

func flipSense(s Sense) Sense {
	switch s {
	case LessEqual:
		return GreaterEqual
	case GreaterEqual:
		return LessEqual
	default:
		return s
	}
}

func isIntegral(x float64) bool {
	return math.Abs(x-math.Round(x)) <= boundTol
}
