package optimizer

import (
	"fmt"
	"sort"

	"github.com/riskibarqy/fpl-optimizer/internal/domain/fantasy"
	"github.com/riskibarqy/fpl-optimizer/internal/domain/player"
)

// Candidate is a pool player as seen by one optimization call.
type Candidate struct {
	player.Player
	InCurrentSquad bool
	Locked         bool
}

// BuildSquadPool keeps the available players of a pool.
func BuildSquadPool(pool []player.Player) ([]Candidate, error) {
	if err := checkPool(pool); err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(pool))
	for _, p := range pool {
		if !p.Available() {
			continue
		}
		out = append(out, Candidate{Player: p})
	}
	return out, nil
}

// transferPool is the candidate set of a transfer plan plus how the current
// squad resolved against the pool.
type transferPool struct {
	candidates []Candidate
	matched    []player.Player
	unmatched  []int64
}

// buildTransferPool keeps available players and every resolvable member of the
// current squad, whatever their status.
func buildTransferPool(pool []player.Player, currentIDs, locked []int64) (transferPool, error) {
	if err := checkPool(pool); err != nil {
		return transferPool{}, err
	}

	byID := player.Index(pool)
	owned := make(map[int64]struct{}, len(currentIDs))
	var out transferPool
	for _, id := range currentIDs {
		if _, dup := owned[id]; dup {
			continue
		}
		owned[id] = struct{}{}
		p, ok := byID[id]
		if !ok {
			out.unmatched = append(out.unmatched, id)
			continue
		}
		out.matched = append(out.matched, p)
	}

	lockedSet := make(map[int64]struct{}, len(locked))
	for _, id := range locked {
		lockedSet[id] = struct{}{}
	}

	for _, p := range pool {
		_, isOwned := owned[p.ID]
		if !isOwned && !p.Available() {
			continue
		}
		_, isLocked := lockedSet[p.ID]
		out.candidates = append(out.candidates, Candidate{Player: p, InCurrentSquad: isOwned, Locked: isLocked})
	}
	return out, nil
}

func checkPool(pool []player.Player) error {
	if len(pool) == 0 {
		return fmt.Errorf("%w: pool is empty", ErrPoolUnavailable)
	}
	seen := make(map[int64]struct{}, len(pool))
	for _, p := range pool {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrPoolUnavailable, err)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: duplicate player id %d", ErrPoolUnavailable, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

// pruneDominated drops candidates that can never be needed: a player is
// dropped when at least min(quota, club cap) earlier players of the same
// position and club cost no more and score no less. Owned and locked players
// are always kept. Input order is preserved.
func pruneDominated(cands []Candidate, rules fantasy.Rules) []Candidate {
	type groupKey struct {
		pos  player.Position
		club int
	}
	groups := make(map[groupKey][]int)
	for i, c := range cands {
		k := groupKey{pos: c.Position, club: c.ClubID}
		groups[k] = append(groups[k], i)
	}

	drop := make([]bool, len(cands))
	for k, idx := range groups {
		limit := rules.Quotas[k.pos]
		if rules.MaxPerClub < limit {
			limit = rules.MaxPerClub
		}
		if len(idx) <= limit {
			continue
		}

		sort.Slice(idx, func(a, b int) bool {
			ca, cb := cands[idx[a]], cands[idx[b]]
			if ca.PredictedPoints != cb.PredictedPoints {
				return ca.PredictedPoints > cb.PredictedPoints
			}
			if ca.Cost != cb.Cost {
				return ca.Cost < cb.Cost
			}
			return ca.ID < cb.ID
		})

		for pos, i := range idx {
			c := cands[i]
			if c.InCurrentSquad || c.Locked {
				continue
			}
			dominators := 0
			for _, j := range idx[:pos] {
				if cands[j].Cost <= c.Cost {
					dominators++
				}
			}
			drop[i] = dominators >= limit
		}
	}

	out := make([]Candidate, 0, len(cands))
	for i, c := range cands {
		if !drop[i] {
			out = append(out, c)
		}
	}
	return out
}
