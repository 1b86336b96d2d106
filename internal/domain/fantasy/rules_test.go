package fantasy

import (
	"errors"
	"testing"

	"github.com/riskibarqy/fpl-optimizer/internal/domain/player"
)

func validSquad() []player.Player {
	positions := []player.Position{
		player.PositionGoalkeeper, player.PositionGoalkeeper,
		player.PositionDefender, player.PositionDefender, player.PositionDefender, player.PositionDefender, player.PositionDefender,
		player.PositionMidfielder, player.PositionMidfielder, player.PositionMidfielder, player.PositionMidfielder, player.PositionMidfielder,
		player.PositionForward, player.PositionForward, player.PositionForward,
	}
	costs := []player.CostUnits{40, 45, 45, 45, 45, 60, 60, 60, 60, 60, 60, 60, 60, 60, 60}

	out := make([]player.Player, 0, len(positions))
	for i, pos := range positions {
		out = append(out, player.Player{
			ID:       int64(i + 1),
			ClubID:   i%5 + 1,
			Position: pos,
			Cost:     costs[i],
			Status:   player.StatusAvailable,
		})
	}
	return out
}

func TestValidateSquad(t *testing.T) {
	tests := []struct {
		name      string
		rules     Rules
		budget    player.CostUnits
		mutate    func([]player.Player) []player.Player
		targetErr error
	}{
		{
			name:   "valid squad",
			rules:  DefaultRules(),
			budget: 1000,
			mutate: func(p []player.Player) []player.Player {
				return p
			},
		},
		{
			name:   "invalid size",
			rules:  DefaultRules(),
			budget: 1000,
			mutate: func(p []player.Player) []player.Player {
				return p[:14]
			},
			targetErr: ErrInvalidSquadSize,
		},
		{
			name:   "budget exceeded",
			rules:  DefaultRules(),
			budget: 800,
			mutate: func(p []player.Player) []player.Player {
				return p
			},
			targetErr: ErrExceededBudget,
		},
		{
			name:   "club limit exceeded",
			rules:  DefaultRules(),
			budget: 1000,
			mutate: func(p []player.Player) []player.Player {
				p[1].ClubID = 1
				return p
			},
			targetErr: ErrExceededClubLimit,
		},
		{
			name:   "quota mismatch",
			rules:  DefaultRules(),
			budget: 1000,
			mutate: func(p []player.Player) []player.Player {
				p[12].Position = player.PositionMidfielder
				return p
			},
			targetErr: ErrPositionQuota,
		},
		{
			name:   "duplicate player",
			rules:  DefaultRules(),
			budget: 1000,
			mutate: func(p []player.Player) []player.Player {
				p[14].ID = p[13].ID
				return p
			},
			targetErr: ErrDuplicatePlayerInSquad,
		},
		{
			name:   "no cheap goalkeeper",
			rules:  DefaultRules(),
			budget: 1000,
			mutate: func(p []player.Player) []player.Player {
				p[0].Cost = 41
				return p
			},
			targetErr: ErrMissingCheapGoalkeeper,
		},
		{
			name:   "not enough cheap outfield",
			rules:  DefaultRules(),
			budget: 1000,
			mutate: func(p []player.Player) []player.Player {
				p[2].Cost = 51
				return p
			},
			targetErr: ErrMissingCheapOutfield,
		},
		{
			name:   "transfer rules skip cheap outfield",
			rules:  TransferRules(),
			budget: 1000,
			mutate: func(p []player.Player) []player.Player {
				p[2].Cost = 51
				return p
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			squad := tc.mutate(validSquad())
			err := ValidateSquad(squad, tc.budget, tc.rules)
			if tc.targetErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.targetErr != nil && !errors.Is(err, tc.targetErr) {
				t.Fatalf("expected error %v, got %v", tc.targetErr, err)
			}
		})
	}
}

func TestValidateLineup(t *testing.T) {
	squad := validSquad()
	rules := DefaultRules()

	// 1 GK, 4 DEF, 4 MID, 2 FWD
	starters := append([]player.Player{}, squad[0])
	starters = append(starters, squad[2:6]...)
	starters = append(starters, squad[7:11]...)
	starters = append(starters, squad[12:14]...)
	if err := ValidateLineup(starters, rules); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	twoKeepers := append([]player.Player{}, starters[:10]...)
	twoKeepers = append(twoKeepers, squad[1])
	if err := ValidateLineup(twoKeepers, rules); !errors.Is(err, ErrInvalidFormation) {
		t.Fatalf("expected ErrInvalidFormation, got %v", err)
	}

	if err := ValidateLineup(starters[:10], rules); !errors.Is(err, ErrInvalidLineupSize) {
		t.Fatalf("expected ErrInvalidLineupSize, got %v", err)
	}
}
