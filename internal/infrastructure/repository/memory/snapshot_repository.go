package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/fpl-optimizer/internal/domain/player"
)

// SnapshotRepository keeps the most recent pool snapshots in memory.
type SnapshotRepository struct {
	mu        sync.RWMutex
	snapshots []player.Snapshot
	nextID    int64
	retain    int
}

// NewSnapshotRepository keeps at most retain snapshots; retain <= 0 keeps one.
func NewSnapshotRepository(retain int) *SnapshotRepository {
	if retain <= 0 {
		retain = 1
	}
	return &SnapshotRepository{nextID: 1, retain: retain}
}

func (r *SnapshotRepository) SaveSnapshot(_ context.Context, snapshot player.Snapshot) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot.ID = r.nextID
	r.nextID++
	snapshot.Players = append([]player.Player(nil), snapshot.Players...)

	r.snapshots = append(r.snapshots, snapshot)
	if len(r.snapshots) > r.retain {
		r.snapshots = append([]player.Snapshot(nil), r.snapshots[len(r.snapshots)-r.retain:]...)
	}
	return snapshot.ID, nil
}

func (r *SnapshotRepository) LatestSnapshot(_ context.Context) (player.Snapshot, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.snapshots) == 0 {
		return player.Snapshot{}, false, nil
	}
	latest := r.snapshots[len(r.snapshots)-1]
	latest.Players = append([]player.Player(nil), latest.Players...)
	return latest, true, nil
}

func (r *SnapshotRepository) ListPlayers(_ context.Context, snapshotID int64, filter player.ListFilter) ([]player.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.snapshots {
		if s.ID == snapshotID {
			return filter.Apply(s.Players), nil
		}
	}
	return []player.Player{}, nil
}
