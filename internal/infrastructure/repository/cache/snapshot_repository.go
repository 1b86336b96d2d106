package cache

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/fpl-optimizer/internal/domain/player"
	basecache "github.com/riskibarqy/fpl-optimizer/internal/platform/cache"
)

// SnapshotRepository caches filtered listings of stored snapshots. Snapshots
// are immutable once saved, so listings are keyed by snapshot id and filter.
type SnapshotRepository struct {
	next     player.Repository
	listings *basecache.Store[[]player.Player]
}

func NewSnapshotRepository(next player.Repository, ttl time.Duration) *SnapshotRepository {
	return &SnapshotRepository{
		next:     next,
		listings: basecache.NewStore[[]player.Player](ttl),
	}
}

func (r *SnapshotRepository) SaveSnapshot(ctx context.Context, snapshot player.Snapshot) (int64, error) {
	return r.next.SaveSnapshot(ctx, snapshot)
}

func (r *SnapshotRepository) LatestSnapshot(ctx context.Context) (player.Snapshot, bool, error) {
	return r.next.LatestSnapshot(ctx)
}

func (r *SnapshotRepository) ListPlayers(ctx context.Context, snapshotID int64, filter player.ListFilter) ([]player.Player, error) {
	items, err := r.listings.GetOrLoad(ctx, listingKey(snapshotID, filter), func(ctx context.Context) ([]player.Player, error) {
		items, err := r.next.ListPlayers(ctx, snapshotID, filter)
		if err != nil {
			return nil, err
		}
		return append([]player.Player(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	return append([]player.Player(nil), items...), nil
}

func listingKey(snapshotID int64, filter player.ListFilter) string {
	parts := []string{
		"snapshot",
		strconv.FormatInt(snapshotID, 10),
		string(filter.Position),
		strconv.FormatInt(int64(filter.MaxCost), 10),
		strconv.FormatBool(filter.OnlyAvailable),
		strconv.Itoa(filter.Limit),
	}
	return strings.Join(parts, ":")
}
