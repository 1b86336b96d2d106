package querybuilder

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("player_id", "web_name").
		From("player_pool_entries").
		Where(Eq("snapshot_id", int64(7)), nil, Le("cost", 55), Expr("upper(position) = ?", "DEF")).
		OrderBy("predicted_points DESC", "player_id").
		Limit(10).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT player_id, web_name FROM player_pool_entries WHERE snapshot_id = $1 AND cost <= $2 AND upper(position) = $3 ORDER BY predicted_points DESC, player_id LIMIT 10"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	require.Equal(t, []any{int64(7), 55, "DEF"}, args)
}

func TestSelectBuilder_AnyOf(t *testing.T) {
	query, args, err := Select("player_id").
		From("player_pool_entries").
		Where(AnyOf("player_id", []int64{1, 2})).
		ToSQL()
	require.NoError(t, err)
	require.Equal(t, "SELECT player_id FROM player_pool_entries WHERE player_id = ANY($1)", query)
	require.Len(t, args, 1)
}

func TestInsertBuilder(t *testing.T) {
	query, args, err := InsertInto("player_pool_snapshots").
		Columns("taken_at", "player_count").
		Values("2026-01-01", 3).
		Suffix("RETURNING id").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO player_pool_snapshots (taken_at, player_count) VALUES ($1, $2) RETURNING id"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	require.Equal(t, []any{"2026-01-01", 3}, args)
}

func TestInsertModels(t *testing.T) {
	type row struct {
		ID      int64  `db:"id,readonly"`
		Name    string `db:"web_name"`
		Cost    int64  `db:"cost"`
		ignored string
	}

	query, args, err := InsertModels("entries", []row{
		{ID: 1, Name: "a", Cost: 40},
		{ID: 2, Name: "b", Cost: 55},
	}, "")
	require.NoError(t, err)
	require.Equal(t, "INSERT INTO entries (web_name, cost) VALUES ($1, $2), ($3, $4)", query)
	require.Equal(t, []any{"a", int64(40), "b", int64(55)}, args)

	_, _, err = InsertModels[row]("entries", nil, "")
	require.Error(t, err)
}

func TestInsertBuilder_RowWidthMismatch(t *testing.T) {
	_, _, err := InsertInto("t").Columns("a", "b").Values(1).ToSQL()
	if err == nil {
		t.Fatalf("expected error for short row")
	}
}
