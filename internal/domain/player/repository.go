package player

import (
	"context"
	"errors"
)

// Repository describes pool snapshot persistence needs from use cases.
type Repository interface {
	SaveSnapshot(ctx context.Context, snapshot Snapshot) (int64, error)
	LatestSnapshot(ctx context.Context) (Snapshot, bool, error)
	ListPlayers(ctx context.Context, snapshotID int64, filter ListFilter) ([]Player, error)
}

// PredictionSource supplies the raw predicted-points pool.
type PredictionSource interface {
	LoadPredictions(ctx context.Context) ([]Player, error)
}

// MetadataSource supplies club names and player statuses.
type MetadataSource interface {
	FetchMetadata(ctx context.Context) (Metadata, error)
}

// PoolProvider returns the enriched candidate pool.
type PoolProvider interface {
	FetchPool(ctx context.Context) ([]Player, error)
}

// SquadProvider returns a manager's current squad.
type SquadProvider interface {
	FetchCurrentSquad(ctx context.Context, teamID int64) (CurrentSquad, error)
}

// ErrTeamNotFound is returned by a SquadProvider for unknown team ids.
var ErrTeamNotFound = errors.New("fantasy team not found")
