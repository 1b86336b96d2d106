package player

import "sort"

// ListFilter narrows a pool for display.
type ListFilter struct {
	Position      Position
	MaxCost       CostUnits
	OnlyAvailable bool
	Limit         int
}

// Apply returns the matching players sorted by predicted points descending,
// ties by id.
func (f ListFilter) Apply(players []Player) []Player {
	out := make([]Player, 0, len(players))
	for _, p := range players {
		if f.Position != "" && p.Position != f.Position {
			continue
		}
		if f.MaxCost > 0 && p.Cost > f.MaxCost {
			continue
		}
		if f.OnlyAvailable && !p.Available() {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PredictedPoints != out[j].PredictedPoints {
			return out[i].PredictedPoints > out[j].PredictedPoints
		}
		return out[i].ID < out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

// Index maps player ids to players.
func Index(players []Player) map[int64]Player {
	out := make(map[int64]Player, len(players))
	for _, p := range players {
		out[p.ID] = p
	}
	return out
}
