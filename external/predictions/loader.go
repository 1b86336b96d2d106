package predictions

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/riskibarqy/fpl-optimizer/internal/domain/player"
	"github.com/riskibarqy/fpl-optimizer/internal/platform/logging"
)

var requiredColumns = []string{"player_id", "web_name", "team", "element_type", "now_cost", "predicted_pts"}

// Loader reads a predictions CSV from disk on every call.
type Loader struct {
	path   string
	logger *logging.Logger
}

func NewLoader(path string, logger *logging.Logger) *Loader {
	if logger == nil {
		logger = logging.Default()
	}
	return &Loader{path: strings.TrimSpace(path), logger: logger}
}

func (l *Loader) LoadPredictions(ctx context.Context) ([]player.Player, error) {
	if l.path == "" {
		return nil, fmt.Errorf("predictions path is required")
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open predictions: %w", err)
	}
	defer f.Close()

	players, skipped, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse predictions %s: %w", l.path, err)
	}
	if skipped > 0 {
		l.logger.WarnContext(ctx, "skipped invalid prediction rows", "path", l.path, "skipped", skipped)
	}
	return players, nil
}

// Parse reads predictions with a header row. Columns may come in any order;
// extra columns are ignored. Rows that do not form a valid player, and repeats
// of an id already read, are skipped and counted.
func Parse(r io.Reader) ([]player.Player, int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			return nil, 0, fmt.Errorf("missing column %q", name)
		}
	}

	var (
		out     []player.Player
		seen    = make(map[int64]struct{})
		skipped int
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read row: %w", err)
		}

		p, ok := parseRow(record, col)
		if !ok {
			skipped++
			continue
		}
		if _, dup := seen[p.ID]; dup {
			skipped++
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out, skipped, nil
}

func parseRow(record []string, col map[string]int) (player.Player, bool) {
	field := func(name string) string {
		idx := col[name]
		if idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	id, err := strconv.ParseInt(field("player_id"), 10, 64)
	if err != nil {
		return player.Player{}, false
	}
	club, err := strconv.Atoi(field("team"))
	if err != nil {
		return player.Player{}, false
	}
	elementType, err := strconv.Atoi(field("element_type"))
	if err != nil {
		return player.Player{}, false
	}
	pos, err := player.PositionFromElementType(elementType)
	if err != nil {
		return player.Player{}, false
	}
	cost, err := strconv.ParseFloat(field("now_cost"), 64)
	if err != nil {
		return player.Player{}, false
	}
	points, err := strconv.ParseFloat(field("predicted_pts"), 64)
	if err != nil {
		return player.Player{}, false
	}

	p := player.Player{
		ID:              id,
		Name:            field("web_name"),
		ClubID:          club,
		Position:        pos,
		Cost:            player.CostUnits(math.Round(cost)),
		PredictedPoints: math.Round(points*100) / 100,
	}
	if p.Validate() != nil {
		return player.Player{}, false
	}
	return p, true
}
