package optimizer

import (
	"context"
	"fmt"

	"github.com/riskibarqy/fpl-optimizer/internal/domain/fantasy"
	"github.com/riskibarqy/fpl-optimizer/internal/domain/player"
	"github.com/riskibarqy/fpl-optimizer/internal/platform/ilp"
)

// SelectLineup picks the best starters of a solved squad. Starters and bench
// keep squad order.
func (o *Optimizer) SelectLineup(ctx context.Context, squad []player.Player) (fantasy.Lineup, SolveStats, error) {
	rules := o.squadRules
	if len(squad) != rules.SquadSize {
		return fantasy.Lineup{}, SolveStats{}, fmt.Errorf("%w: expected %d, got %d", fantasy.ErrInvalidSquadSize, rules.SquadSize, len(squad))
	}

	m := ilp.NewModel("lineup")
	y := make([]ilp.Var, len(squad))
	byPosition := make(map[player.Position][]ilp.Var)
	for i, p := range squad {
		y[i] = m.AddBinary(fmt.Sprintf("y_%d", p.ID), p.PredictedPoints)
		byPosition[p.Position] = append(byPosition[p.Position], y[i])
	}

	m.AddConstraint("lineup_size", ilp.Equal, float64(rules.LineupSize), ilp.Sum(y...)...)
	for _, pos := range player.Positions {
		band := rules.LineupBands[pos]
		terms := ilp.Sum(byPosition[pos]...)
		if band.Min == band.Max {
			m.AddConstraint("lineup_"+string(pos), ilp.Equal, float64(band.Min), terms...)
			continue
		}
		m.AddConstraint("lineup_min_"+string(pos), ilp.GreaterEqual, float64(band.Min), terms...)
		m.AddConstraint("lineup_max_"+string(pos), ilp.LessEqual, float64(band.Max), terms...)
	}

	sol, err := o.solver.Solve(ctx, m)
	if err != nil {
		return fantasy.Lineup{}, SolveStats{}, mapSolveError("lineup", err)
	}

	var lineup fantasy.Lineup
	for i, p := range squad {
		if sol.IsSet(y[i]) {
			lineup.Starters = append(lineup.Starters, p)
			continue
		}
		lineup.Bench = append(lineup.Bench, p)
	}
	if err := fantasy.ValidateLineup(lineup.Starters, rules); err != nil {
		return fantasy.Lineup{}, SolveStats{}, fmt.Errorf("solver returned an illegal lineup: %w", err)
	}
	return lineup, SolveStats{Nodes: sol.Nodes, Candidates: len(squad)}, nil
}
