package optimizer

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/fpl-optimizer/internal/domain/fantasy"
	"github.com/riskibarqy/fpl-optimizer/internal/domain/player"
	"github.com/stretchr/testify/require"
)

func candidateIDs(cands []Candidate) []int64 {
	out := make([]int64, len(cands))
	for i, c := range cands {
		out[i] = c.ID
	}
	return out
}

func requireHitsInvariant(t *testing.T, plan TransferPlan) {
	t.Helper()
	want := plan.TransfersMade - plan.FreeTransfers
	if want < 0 {
		want = 0
	}
	if plan.HitsTaken != want {
		t.Fatalf("hits invariant broken: hits=%d made=%d free=%d", plan.HitsTaken, plan.TransfersMade, plan.FreeTransfers)
	}
	require.Equal(t, plan.HitsTaken*plan.HitCost, plan.PointsHit)
	require.InDelta(t, plan.PointsDelta-float64(plan.PointsHit), plan.NetGain, 1e-9)
}

func TestPlanTransfers_SingleUpgrade(t *testing.T) {
	t.Parallel()

	plan, err := New(nil).PlanTransfers(context.Background(), upgradePool(), TransferRequest{
		CurrentSquadIDs: cheapestSquadIDs,
		FreeTransfers:   1,
		HitCost:         4,
	})
	require.NoError(t, err)
	requireHitsInvariant(t, plan)

	require.Equal(t, 1, plan.TransfersMade)
	require.Equal(t, 0, plan.HitsTaken)
	require.Equal(t, []int64{31}, ids(plan.TransfersIn))
	require.Equal(t, []int64{8}, ids(plan.TransfersOut))
	require.InDelta(t, 4.0, plan.NetGain, 1e-9)
	require.Greater(t, plan.NetGain, 0.0)
	require.Len(t, plan.NewSquad, 15)
	require.Equal(t, player.CostUnits(890), plan.Lineup.Budget)
}

func TestPlanTransfers_HitTakenWhenWorthIt(t *testing.T) {
	t.Parallel()

	plan, err := New(nil).PlanTransfers(context.Background(), upgradePool(), TransferRequest{
		CurrentSquadIDs: cheapestSquadIDs,
		FreeTransfers:   0,
		HitCost:         2,
	})
	require.NoError(t, err)
	requireHitsInvariant(t, plan)
	require.Equal(t, 1, plan.TransfersMade)
	require.Equal(t, 1, plan.HitsTaken)
	require.Equal(t, 2, plan.PointsHit)
	require.InDelta(t, 2.0, plan.NetGain, 1e-9)
}

func TestPlanTransfers_HitTooExpensive(t *testing.T) {
	t.Parallel()

	plan, err := New(nil).PlanTransfers(context.Background(), upgradePool(), TransferRequest{
		CurrentSquadIDs: cheapestSquadIDs,
		FreeTransfers:   0,
		HitCost:         5,
	})
	require.NoError(t, err)
	requireHitsInvariant(t, plan)
	require.Equal(t, 0, plan.TransfersMade)
	require.Empty(t, plan.TransfersOut)
	require.InDelta(t, 0.0, plan.NetGain, 1e-9)
}

func TestPlanTransfers_LockedPlayerStays(t *testing.T) {
	t.Parallel()

	plan, err := New(nil).PlanTransfers(context.Background(), upgradePool(), TransferRequest{
		CurrentSquadIDs: cheapestSquadIDs,
		FreeTransfers:   1,
		HitCost:         4,
		Locked:          []int64{8},
	})
	require.NoError(t, err)
	requireHitsInvariant(t, plan)

	require.Contains(t, candidateIDs(plan.NewSquad), int64(8))
	require.NotContains(t, ids(plan.TransfersIn), int64(8))
	require.NotContains(t, ids(plan.TransfersOut), int64(8))
	require.Equal(t, []int64{9}, ids(plan.TransfersOut))
	require.Equal(t, []int64{31}, ids(plan.TransfersIn))
}

func TestPlanTransfers_LockedPlayerOutsideSquad(t *testing.T) {
	t.Parallel()

	_, err := New(nil).PlanTransfers(context.Background(), upgradePool(), TransferRequest{
		CurrentSquadIDs: cheapestSquadIDs,
		FreeTransfers:   1,
		HitCost:         4,
		Locked:          []int64{31},
	})
	if !errors.Is(err, ErrInfeasibleModel) {
		t.Fatalf("expected ErrInfeasibleModel, got %v", err)
	}
}

func TestPlanTransfers_Idempotent(t *testing.T) {
	t.Parallel()

	opt := New(nil)
	req := TransferRequest{
		CurrentSquadIDs: cheapestSquadIDs,
		Bank:            3.5,
		FreeTransfers:   2,
		HitCost:         4,
	}
	first, err := opt.PlanTransfers(context.Background(), scenarioPool(), req)
	require.NoError(t, err)
	second, err := opt.PlanTransfers(context.Background(), scenarioPool(), req)
	require.NoError(t, err)

	requireHitsInvariant(t, first)
	require.Equal(t, candidateIDs(first.NewSquad), candidateIDs(second.NewSquad))
	require.Equal(t, ids(first.TransfersIn), ids(second.TransfersIn))
	require.Equal(t, ids(first.TransfersOut), ids(second.TransfersOut))
	require.Equal(t, first.HitsTaken, second.HitsTaken)
}

func TestPlanTransfers_UnlimitedTransfersMatchSquadSelection(t *testing.T) {
	t.Parallel()

	opt := New(nil)
	squad, err := opt.SolveSquad(context.Background(), scenarioPool(), 1500)
	require.NoError(t, err)

	plan, err := opt.PlanTransfers(context.Background(), scenarioPool(), TransferRequest{
		CurrentSquadIDs: cheapestSquadIDs,
		Bank:            60,
		FreeTransfers:   15,
		HitCost:         4,
	})
	require.NoError(t, err)
	requireHitsInvariant(t, plan)
	require.Equal(t, 0, plan.HitsTaken)
	require.InDelta(t, squad.SquadPoints, plan.Lineup.SquadPoints, 1e-9)

	newSquad := make([]player.Player, len(plan.NewSquad))
	for i, c := range plan.NewSquad {
		newSquad[i] = c.Player
	}
	if err := fantasy.ValidateSquad(newSquad, plan.Lineup.Budget, fantasy.TransferRules()); err != nil {
		t.Fatalf("illegal squad: %v", err)
	}
}

func TestPlanTransfers_UnresolvedSquad(t *testing.T) {
	t.Parallel()

	current := append([]int64{}, cheapestSquadIDs[:5]...)
	for id := int64(900); id < 910; id++ {
		current = append(current, id)
	}

	_, err := New(nil).PlanTransfers(context.Background(), scenarioPool(), TransferRequest{
		CurrentSquadIDs: current,
		FreeTransfers:   1,
		HitCost:         4,
	})
	if !errors.Is(err, ErrUnresolvedSquad) {
		t.Fatalf("expected ErrUnresolvedSquad, got %v", err)
	}
}

func TestPlanTransfers_UnmatchedIDsBecomeVacancies(t *testing.T) {
	t.Parallel()

	current := make([]int64, 0, len(cheapestSquadIDs))
	for _, id := range cheapestSquadIDs {
		if id == 8 {
			current = append(current, 999)
			continue
		}
		current = append(current, id)
	}

	plan, err := New(nil).PlanTransfers(context.Background(), upgradePool(), TransferRequest{
		CurrentSquadIDs: current,
		Bank:            5.5,
		FreeTransfers:   1,
		HitCost:         4,
	})
	require.NoError(t, err)
	requireHitsInvariant(t, plan)

	require.Equal(t, []int64{999}, plan.UnmatchedIDs)
	require.Equal(t, []int64{31}, ids(plan.TransfersIn))
	require.Empty(t, plan.TransfersOut)
	require.Len(t, plan.NewSquad, 15)
}

func TestPlanTransfers_UnavailableOwnedPlayerCanStay(t *testing.T) {
	t.Parallel()

	pool := upgradePool()
	for i := range pool {
		if pool[i].ID == 5 {
			pool[i].Status = "i"
		}
	}

	plan, err := New(nil).PlanTransfers(context.Background(), pool, TransferRequest{
		CurrentSquadIDs: cheapestSquadIDs,
		FreeTransfers:   1,
		HitCost:         4,
	})
	require.NoError(t, err)
	require.Contains(t, candidateIDs(plan.NewSquad), int64(5))
}

func TestSuggestCaptains_TiesKeepInputOrder(t *testing.T) {
	t.Parallel()

	starters := []player.Player{
		{ID: 1, PredictedPoints: 5},
		{ID: 2, PredictedPoints: 7},
		{ID: 3, PredictedPoints: 7},
		{ID: 4, PredictedPoints: 6},
	}
	captain, vice := SuggestCaptains(starters)
	require.Equal(t, int64(2), captain)
	require.Equal(t, int64(3), vice)
}

func TestPruneDominated(t *testing.T) {
	t.Parallel()

	rules := fantasy.DefaultRules()
	mk := func(id int64, cost player.CostUnits, pts float64, owned bool) Candidate {
		return Candidate{
			Player: player.Player{
				ID: id, ClubID: 1, Position: player.PositionForward,
				Cost: cost, PredictedPoints: pts, Status: player.StatusAvailable,
			},
			InCurrentSquad: owned,
		}
	}
	cands := []Candidate{
		mk(1, 60, 6, false),
		mk(2, 60, 7, false),
		mk(3, 55, 8, false),
		mk(4, 70, 5, false),
		mk(5, 80, 4, true),
		mk(6, 45, 3, false),
	}

	got := candidateIDs(pruneDominated(cands, rules))
	// 4 is beaten by 1, 2 and 3; 5 is owned; 6 is the cheapest.
	require.Equal(t, []int64{1, 2, 3, 5, 6}, got)
}
