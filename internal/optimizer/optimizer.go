package optimizer

import (
	"github.com/riskibarqy/fpl-optimizer/internal/domain/fantasy"
	"github.com/riskibarqy/fpl-optimizer/internal/platform/ilp"
)

// Optimizer builds and solves squad, lineup and transfer models. Each call
// builds its own model, so one Optimizer serves concurrent requests.
type Optimizer struct {
	solver        ilp.Solver
	squadRules    fantasy.Rules
	transferRules fantasy.Rules
}

type Option func(*Optimizer)

func WithSquadRules(rules fantasy.Rules) Option {
	return func(o *Optimizer) {
		o.squadRules = rules
	}
}

func WithTransferRules(rules fantasy.Rules) Option {
	return func(o *Optimizer) {
		o.transferRules = rules
	}
}

func New(solver ilp.Solver, opts ...Option) *Optimizer {
	if solver == nil {
		solver = ilp.NewBranchAndBound()
	}
	o := &Optimizer{
		solver:        solver,
		squadRules:    fantasy.DefaultRules(),
		transferRules: fantasy.TransferRules(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Optimizer) SquadRules() fantasy.Rules {
	return o.squadRules
}

func (o *Optimizer) TransferRules() fantasy.Rules {
	return o.transferRules
}
