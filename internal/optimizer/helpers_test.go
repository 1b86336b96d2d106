package optimizer

import (
	"github.com/riskibarqy/fpl-optimizer/internal/domain/player"
)

type row struct {
	id   int64
	pos  player.Position
	cost player.CostUnits
	pts  float64
}

func buildPlayers(rows []row) []player.Player {
	out := make([]player.Player, 0, len(rows))
	for _, r := range rows {
		out = append(out, player.Player{
			ID:              r.id,
			Name:            "p",
			ClubID:          int(r.id%10) + 1,
			Position:        r.pos,
			Cost:            r.cost,
			PredictedPoints: r.pts,
			Status:          player.StatusAvailable,
		})
	}
	return out
}

// scenarioPool is 30 players over 10 clubs of three, with a single 4.0 keeper.
func scenarioPool() []player.Player {
	const (
		gk  = player.PositionGoalkeeper
		def = player.PositionDefender
		mid = player.PositionMidfielder
		fwd = player.PositionForward
	)
	return buildPlayers([]row{
		{1, gk, 40, 3.0}, {2, gk, 55, 4.0}, {3, gk, 60, 4.5}, {4, gk, 65, 5.0},
		{5, def, 45, 5.5}, {6, def, 50, 5.2}, {7, def, 50, 5.0}, {8, def, 55, 4.0}, {9, def, 60, 4.2},
		{10, def, 65, 4.4}, {11, def, 70, 4.6}, {12, def, 75, 4.8}, {13, def, 80, 5.1}, {14, def, 85, 5.3},
		{15, mid, 50, 6.0}, {16, mid, 60, 4.5}, {17, mid, 70, 5.0}, {18, mid, 80, 5.5}, {19, mid, 90, 6.2},
		{20, mid, 100, 6.5}, {21, mid, 110, 7.0}, {22, mid, 120, 7.5}, {23, mid, 65, 4.8}, {24, mid, 75, 5.2},
		{25, fwd, 60, 4.0}, {26, fwd, 75, 5.0}, {27, fwd, 90, 5.5}, {28, fwd, 105, 6.0}, {29, fwd, 120, 7.0},
		{30, fwd, 80, 5.2},
	})
}

// cheapestSquadIDs is the lowest-cost legal squad of scenarioPool, 89.0 in total.
var cheapestSquadIDs = []int64{1, 2, 5, 6, 7, 8, 9, 15, 16, 23, 17, 24, 25, 26, 30}

// upgradePool is the cheapest squad plus one clearly better defender.
func upgradePool() []player.Player {
	byID := player.Index(scenarioPool())
	out := make([]player.Player, 0, len(cheapestSquadIDs)+1)
	for _, id := range cheapestSquadIDs {
		out = append(out, byID[id])
	}
	return append(out, player.Player{
		ID:              31,
		Name:            "upgrade",
		ClubID:          1,
		Position:        player.PositionDefender,
		Cost:            55,
		PredictedPoints: 8.0,
		Status:          player.StatusAvailable,
	})
}

func ids(players []player.Player) []int64 {
	out := make([]int64, len(players))
	for i, p := range players {
		out[i] = p.ID
	}
	return out
}
