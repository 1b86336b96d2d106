package optimizer

import (
	"context"
	"fmt"
	"sort"

	"github.com/riskibarqy/fpl-optimizer/internal/domain/fantasy"
	"github.com/riskibarqy/fpl-optimizer/internal/domain/player"
	"github.com/riskibarqy/fpl-optimizer/internal/platform/ilp"
)

// SolveSquad selects the best legal squad within budget and its best lineup.
func (o *Optimizer) SolveSquad(ctx context.Context, pool []player.Player, budget player.CostUnits) (SquadResult, error) {
	cands, err := BuildSquadPool(pool)
	if err != nil {
		return SquadResult{}, err
	}

	squad, stats, err := o.SelectSquad(ctx, cands, budget)
	if err != nil {
		return SquadResult{}, err
	}

	lineup, lineupStats, err := o.SelectLineup(ctx, squad)
	if err != nil {
		return SquadResult{}, err
	}

	res := AssembleSquad(lineup, budget)
	res.Stats = stats.add(lineupStats)
	return res, nil
}

// SelectSquad solves the squad model over cands. The squad keeps cands order.
func (o *Optimizer) SelectSquad(ctx context.Context, cands []Candidate, budget player.CostUnits) ([]player.Player, SolveStats, error) {
	rules := o.squadRules
	cands = pruneDominated(cands, rules)

	m := ilp.NewModel("squad")
	x := make([]ilp.Var, len(cands))
	for i, c := range cands {
		x[i] = m.AddBinary(selectVarName(c.ID), c.PredictedPoints)
	}
	addSquadConstraints(m, cands, x, budget, rules)

	sol, err := o.solver.Solve(ctx, m)
	if err != nil {
		return nil, SolveStats{}, mapSolveError("squad", err)
	}

	squad := make([]player.Player, 0, rules.SquadSize)
	for i, c := range cands {
		if sol.IsSet(x[i]) {
			squad = append(squad, c.Player)
		}
	}
	if err := fantasy.ValidateSquad(squad, budget, rules); err != nil {
		return nil, SolveStats{}, fmt.Errorf("solver returned an illegal squad: %w", err)
	}
	return squad, SolveStats{Nodes: sol.Nodes, Candidates: len(cands)}, nil
}

// addSquadConstraints adds the constraints shared by squad selection and
// transfer planning: size, budget, quotas, club cap and cheap floors.
func addSquadConstraints(m *ilp.Model, cands []Candidate, x []ilp.Var, budget player.CostUnits, rules fantasy.Rules) {
	m.AddConstraint("squad_size", ilp.Equal, float64(rules.SquadSize), ilp.Sum(x...)...)

	cost := make([]ilp.Term, len(cands))
	for i, c := range cands {
		cost[i] = ilp.Term{Var: x[i], Coef: float64(c.Cost)}
	}
	m.AddConstraint("budget", ilp.LessEqual, float64(budget), cost...)

	byPosition := make(map[player.Position][]ilp.Var)
	byClub := make(map[int][]ilp.Var)
	var clubs []int
	var cheapGK, cheapOutfield []ilp.Var
	for i, c := range cands {
		byPosition[c.Position] = append(byPosition[c.Position], x[i])
		if _, ok := byClub[c.ClubID]; !ok {
			clubs = append(clubs, c.ClubID)
		}
		byClub[c.ClubID] = append(byClub[c.ClubID], x[i])

		switch {
		case c.Position == player.PositionGoalkeeper && c.Cost <= rules.CheapGoalkeeperCost:
			cheapGK = append(cheapGK, x[i])
		case c.Position != player.PositionGoalkeeper && c.Cost <= rules.CheapOutfieldCost:
			cheapOutfield = append(cheapOutfield, x[i])
		}
	}

	for _, pos := range player.Positions {
		m.AddConstraint("quota_"+string(pos), ilp.Equal, float64(rules.Quotas[pos]), ilp.Sum(byPosition[pos]...)...)
	}

	sort.Ints(clubs)
	for _, club := range clubs {
		members := byClub[club]
		if len(members) <= rules.MaxPerClub {
			continue
		}
		m.AddConstraint(fmt.Sprintf("club_%d", club), ilp.LessEqual, float64(rules.MaxPerClub), ilp.Sum(members...)...)
	}

	if rules.MinCheapGoalkeepers > 0 {
		m.AddConstraint("cheap_gk", ilp.GreaterEqual, float64(rules.MinCheapGoalkeepers), ilp.Sum(cheapGK...)...)
	}
	if rules.MinCheapOutfield > 0 {
		m.AddConstraint("cheap_outfield", ilp.GreaterEqual, float64(rules.MinCheapOutfield), ilp.Sum(cheapOutfield...)...)
	}
}

func selectVarName(id int64) string {
	return fmt.Sprintf("x_%d", id)
}
