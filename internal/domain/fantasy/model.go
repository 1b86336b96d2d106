package fantasy

import "github.com/riskibarqy/fpl-optimizer/internal/domain/player"

// Band is an inclusive count range.
type Band struct {
	Min int
	Max int
}

func (b Band) Contains(n int) bool {
	return n >= b.Min && n <= b.Max
}

// Lineup is a squad split into starters and bench.
type Lineup struct {
	Starters []player.Player
	Bench    []player.Player
}

// CountByPosition tallies players per position.
func CountByPosition(players []player.Player) map[player.Position]int {
	out := make(map[player.Position]int, len(player.Positions))
	for _, p := range players {
		out[p.Position]++
	}
	return out
}

// TotalCost sums player costs.
func TotalCost(players []player.Player) player.CostUnits {
	var total player.CostUnits
	for _, p := range players {
		total += p.Cost
	}
	return total
}

// TotalPoints sums predicted points.
func TotalPoints(players []player.Player) float64 {
	total := 0.0
	for _, p := range players {
		total += p.PredictedPoints
	}
	return total
}
