package optimizer

import (
	"context"
	"fmt"

	"github.com/riskibarqy/fpl-optimizer/internal/domain/fantasy"
	"github.com/riskibarqy/fpl-optimizer/internal/domain/player"
	"github.com/riskibarqy/fpl-optimizer/internal/platform/ilp"
)

// TransferRequest describes the current squad a plan starts from.
type TransferRequest struct {
	CurrentSquadIDs []int64
	Bank            float64
	FreeTransfers   int
	HitCost         int
	Locked          []int64
}

// PlanTransfers solves one model that picks the new squad and tracks which
// players come in and go out, trading points against hits.
//
// Current-squad ids missing from the pool are vacancies: the plan buys one
// extra player for each of them.
func (o *Optimizer) PlanTransfers(ctx context.Context, pool []player.Player, req TransferRequest) (TransferPlan, error) {
	rules := o.transferRules
	if req.FreeTransfers < 0 {
		return TransferPlan{}, fmt.Errorf("free transfers must be >= 0, got %d", req.FreeTransfers)
	}
	if req.HitCost < 0 {
		return TransferPlan{}, fmt.Errorf("hit cost must be >= 0, got %d", req.HitCost)
	}

	tp, err := buildTransferPool(pool, req.CurrentSquadIDs, req.Locked)
	if err != nil {
		return TransferPlan{}, err
	}
	if len(tp.matched) < rules.MinMatchedSquad {
		return TransferPlan{}, fmt.Errorf("%w: matched %d of %d ids, need %d", ErrUnresolvedSquad, len(tp.matched), len(req.CurrentSquadIDs), rules.MinMatchedSquad)
	}
	if len(tp.matched) > rules.SquadSize {
		return TransferPlan{}, fmt.Errorf("%w: current squad has %d players, max %d", ErrUnresolvedSquad, len(tp.matched), rules.SquadSize)
	}

	candidateIDs := make(map[int64]struct{}, len(tp.candidates))
	for _, c := range tp.candidates {
		candidateIDs[c.ID] = struct{}{}
	}
	for _, id := range req.Locked {
		if _, ok := candidateIDs[id]; !ok {
			return TransferPlan{}, fmt.Errorf("%w: locked player %d is not selectable", ErrInfeasibleModel, id)
		}
	}

	budget := fantasy.TotalCost(tp.matched) + player.ToCostUnits(req.Bank)
	cands := pruneDominated(tp.candidates, rules)

	m := ilp.NewModel("transfers")
	x := make([]ilp.Var, len(cands))
	tIn := make([]ilp.Var, len(cands))
	sOut := make([]ilp.Var, len(cands))
	for i, c := range cands {
		x[i] = m.AddBinary(selectVarName(c.ID), c.PredictedPoints)
		tIn[i] = m.AddBinary(fmt.Sprintf("t_%d", c.ID), 0)
		sOut[i] = m.AddBinary(fmt.Sprintf("s_%d", c.ID), 0)
	}
	hits := m.AddContinuous("hits", 0, inf, -float64(req.HitCost))

	addSquadConstraints(m, cands, x, budget, rules)

	for i, c := range cands {
		ic := 0.0
		if c.InCurrentSquad {
			ic = 1
		}
		xi, ti, si := x[i], tIn[i], sOut[i]
		m.AddConstraint(fmt.Sprintf("in_lo_%d", c.ID), ilp.GreaterEqual, -ic, ilp.Term{Var: ti, Coef: 1}, ilp.Term{Var: xi, Coef: -1})
		m.AddConstraint(fmt.Sprintf("in_hi_%d", c.ID), ilp.LessEqual, 0, ilp.Term{Var: ti, Coef: 1}, ilp.Term{Var: xi, Coef: -1})
		m.AddConstraint(fmt.Sprintf("in_new_%d", c.ID), ilp.LessEqual, 1-ic, ilp.Term{Var: ti, Coef: 1})
		m.AddConstraint(fmt.Sprintf("out_lo_%d", c.ID), ilp.GreaterEqual, ic, ilp.Term{Var: si, Coef: 1}, ilp.Term{Var: xi, Coef: 1})
		m.AddConstraint(fmt.Sprintf("out_owned_%d", c.ID), ilp.LessEqual, ic, ilp.Term{Var: si, Coef: 1})
		m.AddConstraint(fmt.Sprintf("out_hi_%d", c.ID), ilp.LessEqual, 1, ilp.Term{Var: si, Coef: 1}, ilp.Term{Var: xi, Coef: 1})

		if c.Locked {
			m.Fix(xi, 1)
			m.Fix(ti, 0)
			m.Fix(si, 0)
		}
	}

	balance := make([]ilp.Term, 0, 2*len(cands))
	hitTerms := make([]ilp.Term, 0, len(cands)+1)
	hitTerms = append(hitTerms, ilp.Term{Var: hits, Coef: 1})
	for i := range cands {
		balance = append(balance, ilp.Term{Var: tIn[i], Coef: 1}, ilp.Term{Var: sOut[i], Coef: -1})
		hitTerms = append(hitTerms, ilp.Term{Var: tIn[i], Coef: -1})
	}
	vacancies := rules.SquadSize - len(tp.matched)
	m.AddConstraint("transfer_balance", ilp.Equal, float64(vacancies), balance...)
	m.AddConstraint("hits", ilp.GreaterEqual, -float64(req.FreeTransfers), hitTerms...)

	sol, err := o.solver.Solve(ctx, m)
	if err != nil {
		return TransferPlan{}, mapSolveError("transfers", err)
	}

	var newSquad []Candidate
	for i, c := range cands {
		if sol.IsSet(x[i]) {
			newSquad = append(newSquad, c)
		}
	}
	squadPlayers := make([]player.Player, len(newSquad))
	for i, c := range newSquad {
		squadPlayers[i] = c.Player
	}
	if err := fantasy.ValidateSquad(squadPlayers, budget, rules); err != nil {
		return TransferPlan{}, fmt.Errorf("solver returned an illegal squad: %w", err)
	}

	lineup, lineupStats, err := o.SelectLineup(ctx, squadPlayers)
	if err != nil {
		return TransferPlan{}, err
	}

	plan := AssembleTransferPlan(newSquad, tp.matched, lineup, budget, req)
	plan.UnmatchedIDs = tp.unmatched
	plan.Stats = SolveStats{Nodes: sol.Nodes, Candidates: len(cands)}.add(lineupStats)
	return plan, nil
}
