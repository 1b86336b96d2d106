package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/fpl-optimizer/internal/domain/player"
	qb "github.com/riskibarqy/fpl-optimizer/internal/platform/querybuilder"
)

// entryBatchSize keeps one insert under the postgres bind parameter limit.
const entryBatchSize = 500

type SnapshotRepository struct {
	db *sqlx.DB
}

func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

func (r *SnapshotRepository) SaveSnapshot(ctx context.Context, snapshot player.Snapshot) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin save snapshot tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := qb.InsertModels(snapshotTable, []snapshotTableModel{{
		TakenAt:     snapshot.TakenAt.UTC(),
		PlayerCount: len(snapshot.Players),
	}}, "RETURNING id")
	if err != nil {
		return 0, fmt.Errorf("build insert snapshot query: %w", err)
	}

	var snapshotID int64
	if err := tx.QueryRowxContext(ctx, query, args...).Scan(&snapshotID); err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}

	for start := 0; start < len(snapshot.Players); start += entryBatchSize {
		end := min(start+entryBatchSize, len(snapshot.Players))
		rows := make([]entryTableModel, 0, end-start)
		for _, p := range snapshot.Players[start:end] {
			rows = append(rows, entryFromPlayer(snapshotID, p))
		}

		query, args, err := qb.InsertModels(entryTable, rows, "")
		if err != nil {
			return 0, fmt.Errorf("build insert entries query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("insert snapshot entries: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit save snapshot tx: %w", err)
	}
	return snapshotID, nil
}

func (r *SnapshotRepository) LatestSnapshot(ctx context.Context) (player.Snapshot, bool, error) {
	query, args, err := qb.Select("id", "taken_at", "player_count").
		From(snapshotTable).
		OrderBy("id DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return player.Snapshot{}, false, fmt.Errorf("build latest snapshot query: %w", err)
	}

	var row snapshotTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return player.Snapshot{}, false, nil
		}
		return player.Snapshot{}, false, fmt.Errorf("get latest snapshot: %w", err)
	}

	players, err := r.ListPlayers(ctx, row.ID, player.ListFilter{})
	if err != nil {
		return player.Snapshot{}, false, err
	}

	return player.Snapshot{
		ID:      row.ID,
		TakenAt: row.TakenAt,
		Players: players,
	}, true, nil
}

func (r *SnapshotRepository) ListPlayers(ctx context.Context, snapshotID int64, filter player.ListFilter) ([]player.Player, error) {
	query, args, err := listPlayersQuery(snapshotID, filter).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list snapshot players query: %w", err)
	}

	var rows []entryTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list snapshot players: %w", err)
	}

	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toPlayer())
	}
	return out, nil
}

// listPlayersQuery orders like player.ListFilter.Apply.
func listPlayersQuery(snapshotID int64, filter player.ListFilter) *qb.SelectBuilder {
	conditions := []qb.Condition{qb.Eq("snapshot_id", snapshotID)}
	if filter.Position != "" {
		conditions = append(conditions, qb.Eq("position", string(filter.Position)))
	}
	if filter.MaxCost > 0 {
		conditions = append(conditions, qb.Le("cost", int64(filter.MaxCost)))
	}
	if filter.OnlyAvailable {
		conditions = append(conditions, qb.Eq("status", player.StatusAvailable))
	}

	return qb.Select(entrySelectColumns...).
		From(entryTable).
		Where(conditions...).
		OrderBy("predicted_points DESC", "player_id").
		Limit(filter.Limit)
}
