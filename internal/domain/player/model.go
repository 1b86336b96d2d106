package player

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Position represents football position categories used in fantasy rules.
type Position string

const (
	PositionGoalkeeper Position = "GK"
	PositionDefender   Position = "DEF"
	PositionMidfielder Position = "MID"
	PositionForward    Position = "FWD"
)

// Positions lists every position in squad order.
var Positions = []Position{
	PositionGoalkeeper,
	PositionDefender,
	PositionMidfielder,
	PositionForward,
}

var AllPositions = map[Position]struct{}{
	PositionGoalkeeper: {},
	PositionDefender:   {},
	PositionMidfielder: {},
	PositionForward:    {},
}

func ParsePosition(raw string) (Position, error) {
	pos := Position(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := AllPositions[pos]; !ok {
		return "", fmt.Errorf("invalid player position: %q", raw)
	}
	return pos, nil
}

// PositionFromElementType maps the FPL element_type code (1..4).
func PositionFromElementType(elementType int) (Position, error) {
	switch elementType {
	case 1:
		return PositionGoalkeeper, nil
	case 2:
		return PositionDefender, nil
	case 3:
		return PositionMidfielder, nil
	case 4:
		return PositionForward, nil
	default:
		return "", fmt.Errorf("invalid element type: %d", elementType)
	}
}

// CostUnits is a price in tenths of a currency unit.
type CostUnits int64

// ToCostUnits is the only currency to cost-unit conversion.
func ToCostUnits(currency float64) CostUnits {
	return CostUnits(math.Round(currency * 10))
}

// ToCurrency is the only cost-unit to currency conversion.
func (c CostUnits) ToCurrency() float64 {
	return float64(c) / 10
}

// StatusAvailable is the FPL status code of a selectable player.
const StatusAvailable = "a"

// Player is one candidate of a pool snapshot.
type Player struct {
	ID              int64
	Name            string
	ClubID          int
	ClubName        string
	Position        Position
	Cost            CostUnits
	PredictedPoints float64
	Status          string
}

func (p Player) Available() bool {
	return p.Status == StatusAvailable
}

func (p Player) Price() float64 {
	return p.Cost.ToCurrency()
}

func (p Player) Validate() error {
	if p.ID <= 0 {
		return fmt.Errorf("player id must be positive")
	}
	if p.ClubID <= 0 {
		return fmt.Errorf("player club id is required: %d", p.ID)
	}
	if _, ok := AllPositions[p.Position]; !ok {
		return fmt.Errorf("invalid player position: %s", p.Position)
	}
	if p.Cost <= 0 {
		return fmt.Errorf("player cost must be greater than zero: %d", p.ID)
	}
	if math.IsNaN(p.PredictedPoints) || math.IsInf(p.PredictedPoints, 0) {
		return fmt.Errorf("player predicted points must be finite: %d", p.ID)
	}

	return nil
}

// Snapshot is a pool captured at one point in time.
type Snapshot struct {
	ID      int64
	TakenAt time.Time
	Players []Player
}

// Metadata is enrichment data for a raw predictions pool.
type Metadata struct {
	ClubNames       map[int]string
	Statuses        map[int64]string
	CurrentGameweek int
}

// CurrentSquad is a manager's existing squad as reported upstream.
type CurrentSquad struct {
	TeamID        int64
	Gameweek      int
	PlayerIDs     []int64
	Bank          float64
	FreeTransfers int
}
