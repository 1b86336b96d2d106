package optimizer

import (
	"math"
	"sort"

	"github.com/riskibarqy/fpl-optimizer/internal/domain/fantasy"
	"github.com/riskibarqy/fpl-optimizer/internal/domain/player"
)

var inf = math.Inf(1)

// SolveStats describes the work behind a result.
type SolveStats struct {
	Nodes      int
	Candidates int
}

func (s SolveStats) add(o SolveStats) SolveStats {
	return SolveStats{Nodes: s.Nodes + o.Nodes, Candidates: s.Candidates}
}

// SquadResult is a solved squad split into starters and bench.
type SquadResult struct {
	Starters        []player.Player
	Bench           []player.Player
	TotalCost       player.CostUnits
	PredictedPoints float64
	SquadPoints     float64
	Budget          player.CostUnits
	BudgetRemaining player.CostUnits
	CaptainID       int64
	ViceCaptainID   int64
	Stats           SolveStats
}

// TransferPlan is the outcome of PlanTransfers.
type TransferPlan struct {
	NewSquad      []Candidate
	Lineup        SquadResult
	TransfersIn   []player.Player
	TransfersOut  []player.Player
	UnmatchedIDs  []int64
	TransfersMade int
	HitsTaken     int
	PointsHit     int
	PointsDelta   float64
	NetGain       float64
	FreeTransfers int
	HitCost       int
	Stats         SolveStats
}

func AssembleSquad(lineup fantasy.Lineup, budget player.CostUnits) SquadResult {
	all := make([]player.Player, 0, len(lineup.Starters)+len(lineup.Bench))
	all = append(all, lineup.Starters...)
	all = append(all, lineup.Bench...)

	total := fantasy.TotalCost(all)
	captain, vice := SuggestCaptains(lineup.Starters)
	return SquadResult{
		Starters:        lineup.Starters,
		Bench:           lineup.Bench,
		TotalCost:       total,
		PredictedPoints: fantasy.TotalPoints(lineup.Starters),
		SquadPoints:     fantasy.TotalPoints(all),
		Budget:          budget,
		BudgetRemaining: budget - total,
		CaptainID:       captain,
		ViceCaptainID:   vice,
	}
}

// AssembleTransferPlan diffs a new squad against the resolved current squad.
// Transfers out are derived from the diff, not from solver indicators.
func AssembleTransferPlan(newSquad []Candidate, current []player.Player, lineup fantasy.Lineup, budget player.CostUnits, req TransferRequest) TransferPlan {
	selected := make(map[int64]struct{}, len(newSquad))
	var in []player.Player
	for _, c := range newSquad {
		selected[c.ID] = struct{}{}
		if !c.InCurrentSquad {
			in = append(in, c.Player)
		}
	}

	var out []player.Player
	for _, p := range current {
		if _, kept := selected[p.ID]; !kept {
			out = append(out, p)
		}
	}

	hits := len(in) - req.FreeTransfers
	if hits < 0 {
		hits = 0
	}
	pointsHit := hits * req.HitCost
	delta := fantasy.TotalPoints(in) - fantasy.TotalPoints(out)

	return TransferPlan{
		NewSquad:      newSquad,
		Lineup:        AssembleSquad(lineup, budget),
		TransfersIn:   in,
		TransfersOut:  out,
		TransfersMade: len(in),
		HitsTaken:     hits,
		PointsHit:     pointsHit,
		PointsDelta:   delta,
		NetGain:       delta - float64(pointsHit),
		FreeTransfers: req.FreeTransfers,
		HitCost:       req.HitCost,
	}
}

// SuggestCaptains returns the two highest-scoring starters, ties by input order.
func SuggestCaptains(starters []player.Player) (int64, int64) {
	ranked := append([]player.Player(nil), starters...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].PredictedPoints > ranked[j].PredictedPoints
	})

	var captain, vice int64
	if len(ranked) > 0 {
		captain = ranked[0].ID
	}
	if len(ranked) > 1 {
		vice = ranked[1].ID
	}
	return captain, vice
}
