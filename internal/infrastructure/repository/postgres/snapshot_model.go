package postgres

import (
	"time"

	"github.com/riskibarqy/fpl-optimizer/internal/domain/player"
)

const (
	snapshotTable = "player_pool_snapshots"
	entryTable    = "player_pool_entries"
)

type snapshotTableModel struct {
	ID          int64     `db:"id,readonly"`
	TakenAt     time.Time `db:"taken_at"`
	PlayerCount int       `db:"player_count"`
}

type entryTableModel struct {
	SnapshotID      int64   `db:"snapshot_id"`
	PlayerID        int64   `db:"player_id"`
	WebName         string  `db:"web_name"`
	ClubID          int     `db:"club_id"`
	ClubName        string  `db:"club_name"`
	Position        string  `db:"position"`
	Cost            int64   `db:"cost"`
	PredictedPoints float64 `db:"predicted_points"`
	Status          string  `db:"status"`
}

var entrySelectColumns = []string{
	"snapshot_id",
	"player_id",
	"web_name",
	"club_id",
	"club_name",
	"position",
	"cost",
	"predicted_points",
	"status",
}

func entryFromPlayer(snapshotID int64, p player.Player) entryTableModel {
	return entryTableModel{
		SnapshotID:      snapshotID,
		PlayerID:        p.ID,
		WebName:         p.Name,
		ClubID:          p.ClubID,
		ClubName:        p.ClubName,
		Position:        string(p.Position),
		Cost:            int64(p.Cost),
		PredictedPoints: p.PredictedPoints,
		Status:          p.Status,
	}
}

func (row entryTableModel) toPlayer() player.Player {
	return player.Player{
		ID:              row.PlayerID,
		Name:            row.WebName,
		ClubID:          row.ClubID,
		ClubName:        row.ClubName,
		Position:        player.Position(row.Position),
		Cost:            player.CostUnits(row.Cost),
		PredictedPoints: row.PredictedPoints,
		Status:          row.Status,
	}
}
