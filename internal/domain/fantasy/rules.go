package fantasy

import (
	"errors"
	"fmt"

	"github.com/riskibarqy/fpl-optimizer/internal/domain/player"
)

var (
	ErrInvalidSquadSize       = errors.New("invalid squad size")
	ErrExceededBudget         = errors.New("budget cap exceeded")
	ErrExceededClubLimit      = errors.New("max players from same club exceeded")
	ErrPositionQuota          = errors.New("position quota not met")
	ErrUnknownPlayerPosition  = errors.New("unknown player position")
	ErrDuplicatePlayerInSquad = errors.New("duplicate player in squad")
	ErrMissingCheapGoalkeeper = errors.New("cheap goalkeeper requirement not met")
	ErrMissingCheapOutfield   = errors.New("cheap outfield requirement not met")
	ErrInvalidLineupSize      = errors.New("invalid lineup size")
	ErrInvalidFormation       = errors.New("lineup formation out of range")
)

// Rules stores squad and lineup legality parameters.
type Rules struct {
	SquadSize  int
	Quotas     map[player.Position]int
	MaxPerClub int

	CheapGoalkeeperCost player.CostUnits
	MinCheapGoalkeepers int
	CheapOutfieldCost   player.CostUnits
	MinCheapOutfield    int

	LineupSize  int
	LineupBands map[player.Position]Band

	// MinMatchedSquad is the fewest current-squad ids that must resolve
	// against the pool before transfers are planned.
	MinMatchedSquad int
}

// DefaultRules are the squad-building rules.
func DefaultRules() Rules {
	return Rules{
		SquadSize: 15,
		Quotas: map[player.Position]int{
			player.PositionGoalkeeper: 2,
			player.PositionDefender:   5,
			player.PositionMidfielder: 5,
			player.PositionForward:    3,
		},
		MaxPerClub:          3,
		CheapGoalkeeperCost: 40,
		MinCheapGoalkeepers: 1,
		CheapOutfieldCost:   50,
		MinCheapOutfield:    3,
		LineupSize:          11,
		LineupBands: map[player.Position]Band{
			player.PositionGoalkeeper: {Min: 1, Max: 1},
			player.PositionDefender:   {Min: 3, Max: 5},
			player.PositionMidfielder: {Min: 3, Max: 5},
			player.PositionForward:    {Min: 1, Max: 3},
		},
		MinMatchedSquad: 11,
	}
}

// TransferRules drop the cheap outfield floor.
func TransferRules() Rules {
	r := DefaultRules()
	r.MinCheapOutfield = 0
	return r
}

func ValidateSquad(players []player.Player, budget player.CostUnits, rules Rules) error {
	if len(players) != rules.SquadSize {
		return fmt.Errorf("%w: expected %d, got %d", ErrInvalidSquadSize, rules.SquadSize, len(players))
	}

	clubCounter := make(map[int]int)
	positionCounter := make(map[player.Position]int)
	playerSet := make(map[int64]struct{})
	var totalCost player.CostUnits
	cheapGK, cheapOutfield := 0, 0

	for _, p := range players {
		if _, exists := playerSet[p.ID]; exists {
			return fmt.Errorf("%w: %d", ErrDuplicatePlayerInSquad, p.ID)
		}
		playerSet[p.ID] = struct{}{}

		if _, ok := player.AllPositions[p.Position]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownPlayerPosition, p.Position)
		}

		clubCounter[p.ClubID]++
		if clubCounter[p.ClubID] > rules.MaxPerClub {
			return fmt.Errorf("%w: club=%d max=%d", ErrExceededClubLimit, p.ClubID, rules.MaxPerClub)
		}

		positionCounter[p.Position]++
		totalCost += p.Cost
		if p.Position == player.PositionGoalkeeper {
			if p.Cost <= rules.CheapGoalkeeperCost {
				cheapGK++
			}
		} else if p.Cost <= rules.CheapOutfieldCost {
			cheapOutfield++
		}
	}

	if totalCost > budget {
		return fmt.Errorf("%w: cap=%d used=%d", ErrExceededBudget, budget, totalCost)
	}

	for _, pos := range player.Positions {
		if positionCounter[pos] != rules.Quotas[pos] {
			return fmt.Errorf("%w: pos=%s want=%d current=%d", ErrPositionQuota, pos, rules.Quotas[pos], positionCounter[pos])
		}
	}
	if cheapGK < rules.MinCheapGoalkeepers {
		return fmt.Errorf("%w: max_cost=%d min=%d current=%d", ErrMissingCheapGoalkeeper, rules.CheapGoalkeeperCost, rules.MinCheapGoalkeepers, cheapGK)
	}
	if cheapOutfield < rules.MinCheapOutfield {
		return fmt.Errorf("%w: max_cost=%d min=%d current=%d", ErrMissingCheapOutfield, rules.CheapOutfieldCost, rules.MinCheapOutfield, cheapOutfield)
	}

	return nil
}

func ValidateLineup(starters []player.Player, rules Rules) error {
	if len(starters) != rules.LineupSize {
		return fmt.Errorf("%w: expected %d, got %d", ErrInvalidLineupSize, rules.LineupSize, len(starters))
	}

	counts := CountByPosition(starters)
	for _, pos := range player.Positions {
		band := rules.LineupBands[pos]
		if !band.Contains(counts[pos]) {
			return fmt.Errorf("%w: pos=%s min=%d max=%d current=%d", ErrInvalidFormation, pos, band.Min, band.Max, counts[pos])
		}
	}

	return nil
}
