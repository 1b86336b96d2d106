package ilp

import (
	"fmt"
	"math"
	"strings"
)

// Sense is the relation of a linear constraint to its right-hand side.
type Sense int

const (
	LessEqual Sense = iota
	GreaterEqual
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	case Equal:
		return "="
	default:
		return fmt.Sprintf("Sense(%d)", int(s))
	}
}

// Var is a handle to a model variable.
type Var int

// Term is one coefficient-variable product of a linear expression.
type Term struct {
	Var  Var
	Coef float64
}

// Constraint is sum(Terms) Sense RHS.
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

type variable struct {
	name    string
	integer bool
	lo      float64
	hi      float64
	obj     float64
}

// Model is a maximization problem over bounded variables. A Model is not safe
// for concurrent mutation; solvers only read it.
type Model struct {
	name        string
	vars        []variable
	byName      map[string]Var
	constraints []Constraint
}

func NewModel(name string) *Model {
	return &Model{
		name:   name,
		byName: make(map[string]Var),
	}
}

func (m *Model) Name() string {
	return m.name
}

// AddBinary adds a 0/1 variable with the given objective coefficient.
func (m *Model) AddBinary(name string, obj float64) Var {
	return m.addVar(variable{name: name, integer: true, lo: 0, hi: 1, obj: obj})
}

// AddContinuous adds a real variable in [lo, hi]. Use math.Inf(1) for no upper bound.
func (m *Model) AddContinuous(name string, lo, hi, obj float64) Var {
	return m.addVar(variable{name: name, lo: lo, hi: hi, obj: obj})
}

func (m *Model) addVar(v variable) Var {
	name := strings.TrimSpace(v.name)
	if name == "" {
		name = fmt.Sprintf("v%d", len(m.vars))
	}
	v.name = name
	id := Var(len(m.vars))
	m.vars = append(m.vars, v)
	m.byName[name] = id
	return id
}

// AddConstraint appends sum(terms) sense rhs. Repeated variables are merged.
func (m *Model) AddConstraint(name string, sense Sense, rhs float64, terms ...Term) {
	m.constraints = append(m.constraints, Constraint{
		Name:  name,
		Terms: mergeTerms(terms),
		Sense: sense,
		RHS:   rhs,
	})
}

// Fix pins a variable to a single value.
func (m *Model) Fix(v Var, value float64) {
	m.vars[v].lo = value
	m.vars[v].hi = value
}

func (m *Model) VarByName(name string) (Var, bool) {
	v, ok := m.byName[name]
	return v, ok
}

func (m *Model) VarName(v Var) string {
	return m.vars[v].name
}

func (m *Model) NumVars() int {
	return len(m.vars)
}

func (m *Model) NumConstraints() int {
	return len(m.constraints)
}

func (m *Model) Constraints() []Constraint {
	return m.constraints
}

// Validate reports structural problems that no solver can recover from.
func (m *Model) Validate() error {
	if len(m.vars) == 0 {
		return fmt.Errorf("model %q has no variables", m.name)
	}
	for i, v := range m.vars {
		if math.IsNaN(v.lo) || math.IsNaN(v.hi) || math.IsNaN(v.obj) {
			return fmt.Errorf("variable %q has NaN bound or objective", v.name)
		}
		if math.IsInf(v.lo, 0) {
			return fmt.Errorf("variable %q must have a finite lower bound", v.name)
		}
		if v.hi < v.lo {
			return fmt.Errorf("%w: variable %q has empty domain [%g, %g]", ErrInfeasible, m.vars[i].name, v.lo, v.hi)
		}
	}
	for _, c := range m.constraints {
		if math.IsNaN(c.RHS) || math.IsInf(c.RHS, 0) {
			return fmt.Errorf("constraint %q has non-finite rhs", c.Name)
		}
		for _, t := range c.Terms {
			if int(t.Var) < 0 || int(t.Var) >= len(m.vars) {
				return fmt.Errorf("constraint %q references unknown variable %d", c.Name, t.Var)
			}
			if math.IsNaN(t.Coef) || math.IsInf(t.Coef, 0) {
				return fmt.Errorf("constraint %q has non-finite coefficient", c.Name)
			}
		}
	}
	return nil
}

// Sum builds a unit-coefficient expression over vars.
func Sum(vars ...Var) []Term {
	out := make([]Term, 0, len(vars))
	for _, v := range vars {
		out = append(out, Term{Var: v, Coef: 1})
	}
	return out
}

func mergeTerms(terms []Term) []Term {
	if len(terms) < 2 {
		return append([]Term(nil), terms...)
	}
	pos := make(map[Var]int, len(terms))
	out := make([]Term, 0, len(terms))
	for _, t := range terms {
		if idx, ok := pos[t.Var]; ok {
			out[idx].Coef += t.Coef
			continue
		}
		pos[t.Var] = len(out)
		out = append(out, t)
	}
	return out
}
