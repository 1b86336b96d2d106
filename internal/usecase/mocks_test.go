package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/riskibarqy/fpl-optimizer/internal/domain/player"
)

type poolProviderMock struct{ mock.Mock }

func (m *poolProviderMock) FetchPool(ctx context.Context) ([]player.Player, error) {
	args := m.Called(ctx)
	pool, _ := args.Get(0).([]player.Player)
	return pool, args.Error(1)
}

type squadProviderMock struct{ mock.Mock }

func (m *squadProviderMock) FetchCurrentSquad(ctx context.Context, teamID int64) (player.CurrentSquad, error) {
	args := m.Called(ctx, teamID)
	squad, _ := args.Get(0).(player.CurrentSquad)
	return squad, args.Error(1)
}

type predictionSourceMock struct{ mock.Mock }

func (m *predictionSourceMock) LoadPredictions(ctx context.Context) ([]player.Player, error) {
	args := m.Called(ctx)
	players, _ := args.Get(0).([]player.Player)
	return players, args.Error(1)
}

type metadataSourceMock struct{ mock.Mock }

func (m *metadataSourceMock) FetchMetadata(ctx context.Context) (player.Metadata, error) {
	args := m.Called(ctx)
	meta, _ := args.Get(0).(player.Metadata)
	return meta, args.Error(1)
}

type repositoryMock struct{ mock.Mock }

func (m *repositoryMock) SaveSnapshot(ctx context.Context, snapshot player.Snapshot) (int64, error) {
	args := m.Called(ctx, snapshot)
	return args.Get(0).(int64), args.Error(1)
}

func (m *repositoryMock) LatestSnapshot(ctx context.Context) (player.Snapshot, bool, error) {
	args := m.Called(ctx)
	snapshot, _ := args.Get(0).(player.Snapshot)
	return snapshot, args.Bool(1), args.Error(2)
}

func (m *repositoryMock) ListPlayers(ctx context.Context, snapshotID int64, filter player.ListFilter) ([]player.Player, error) {
	args := m.Called(ctx, snapshotID, filter)
	players, _ := args.Get(0).([]player.Player)
	return players, args.Error(1)
}

type staticIDGenerator struct {
	id string
}

func (g staticIDGenerator) NewID() (string, error) {
	return g.id, nil
}

type solveRecord struct {
	kind    string
	outcome string
}

type recordingMetrics struct {
	mu      sync.Mutex
	records []solveRecord
}

func (r *recordingMetrics) RecordSolve(_ context.Context, kind, outcome string, _ time.Duration, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, solveRecord{kind: kind, outcome: outcome})
}

func (r *recordingMetrics) last() solveRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.records) == 0 {
		return solveRecord{}
	}
	return r.records[len(r.records)-1]
}

// currentSquadIDs is the cheapest legal squad of testPool, 89.0 in total.
var currentSquadIDs = []int64{1, 2, 5, 6, 7, 8, 9, 15, 16, 23, 17, 24, 25, 26, 30}

// testPool is currentSquadIDs plus defender 31, a clear upgrade on defender 8.
func testPool() []player.Player {
	type row struct {
		id   int64
		pos  player.Position
		cost player.CostUnits
		pts  float64
	}
	const (
		gk  = player.PositionGoalkeeper
		def = player.PositionDefender
		mid = player.PositionMidfielder
		fwd = player.PositionForward
	)
	rows := []row{
		{1, gk, 40, 3.0}, {2, gk, 55, 4.0},
		{5, def, 45, 5.5}, {6, def, 50, 5.2}, {7, def, 50, 5.0}, {8, def, 55, 4.0}, {9, def, 60, 4.2},
		{15, mid, 50, 6.0}, {16, mid, 60, 4.5}, {17, mid, 70, 5.0}, {23, mid, 65, 4.8}, {24, mid, 75, 5.2},
		{25, fwd, 60, 4.0}, {26, fwd, 75, 5.0}, {30, fwd, 80, 5.2},
	}
	out := make([]player.Player, 0, len(rows)+1)
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
	return append(out, player.Player{
		ID:              31,
		Name:            "upgrade",
		ClubID:          1,
		Position:        def,
		Cost:            55,
		PredictedPoints: 8.0,
		Status:          player.StatusAvailable,
	})
}

func intPtr(v int) *int {
	return &v
}

func ids(players []player.Player) []int64 {
	out := make([]int64, len(players))
	for i, p := range players {
		out[i] = p.ID
	}
	return out
}
