// Package dto holds the wire shapes shared by the HTTP and MCP surfaces.
package dto

import (
	"math"

	"github.com/riskibarqy/fpl-optimizer/internal/domain/player"
	"github.com/riskibarqy/fpl-optimizer/internal/optimizer"
	"github.com/riskibarqy/fpl-optimizer/internal/usecase"
)

type Player struct {
	ID              int64   `json:"id"`
	Name            string  `json:"web_name"`
	ClubID          int     `json:"club_id"`
	ClubName        string  `json:"club"`
	Position        string  `json:"position"`
	Price           float64 `json:"price"`
	PredictedPoints float64 `json:"predicted_points"`
	Status          string  `json:"status"`
}

type SquadPlayer struct {
	Player
	InCurrent bool `json:"in_current"`
}

type Squad struct {
	RunID           string   `json:"run_id,omitempty"`
	Starters        []Player `json:"starters"`
	Bench           []Player `json:"bench"`
	TotalCost       float64  `json:"total_cost"`
	PredictedPoints float64  `json:"predicted_points"`
	SquadPoints     float64  `json:"squad_points"`
	Budget          float64  `json:"budget"`
	BudgetRemaining float64  `json:"budget_remaining"`
	CaptainID       int64    `json:"captain_id"`
	ViceCaptainID   int64    `json:"vice_captain_id"`
	Nodes           int      `json:"nodes"`
}

type TransferPlan struct {
	RunID           string        `json:"run_id"`
	TeamID          int64         `json:"team_id,omitempty"`
	Gameweek        int           `json:"gameweek,omitempty"`
	ITB             *float64      `json:"itb,omitempty"`
	TransfersMade   int           `json:"transfers_made"`
	FreeTransfers   int           `json:"free_transfers"`
	HitCost         int           `json:"hit_cost"`
	HitsTaken       int           `json:"hits_taken"`
	PointsHit       int           `json:"points_hit"`
	PointsDelta     float64       `json:"points_delta"`
	NetGain         float64       `json:"net_pts_gain"`
	TransfersIn     []Player      `json:"transfers_in"`
	TransfersOut    []Player      `json:"transfers_out"`
	UnmatchedIDs    []int64       `json:"unmatched_ids,omitempty"`
	NewSquad        []SquadPlayer `json:"new_squad"`
	Lineup          Squad         `json:"lineup"`
	Budget          float64       `json:"budget"`
	BudgetRemaining float64       `json:"budget_remaining"`
}

type CurrentSquad struct {
	TeamID        int64    `json:"team_id"`
	Gameweek      int      `json:"gameweek"`
	ITB           float64  `json:"itb"`
	FreeTransfers int      `json:"free_transfers"`
	PlayerIDs     []int64  `json:"player_ids"`
	Players       []Player `json:"players"`
}

type PlayerList struct {
	Count   int      `json:"count"`
	Players []Player `json:"players"`
}

func FromPlayer(p player.Player) Player {
	return Player{
		ID:              p.ID,
		Name:            p.Name,
		ClubID:          p.ClubID,
		ClubName:        p.ClubName,
		Position:        string(p.Position),
		Price:           currency(p.Cost),
		PredictedPoints: round2(p.PredictedPoints),
		Status:          p.Status,
	}
}

func FromPlayers(players []player.Player) []Player {
	out := make([]Player, 0, len(players))
	for _, p := range players {
		out = append(out, FromPlayer(p))
	}
	return out
}

func FromPlayerList(players []player.Player) PlayerList {
	return PlayerList{Count: len(players), Players: FromPlayers(players)}
}

func FromSquadResult(r optimizer.SquadResult) Squad {
	return Squad{
		Starters:        FromPlayers(r.Starters),
		Bench:           FromPlayers(r.Bench),
		TotalCost:       currency(r.TotalCost),
		PredictedPoints: round2(r.PredictedPoints),
		SquadPoints:     round2(r.SquadPoints),
		Budget:          currency(r.Budget),
		BudgetRemaining: currency(r.BudgetRemaining),
		CaptainID:       r.CaptainID,
		ViceCaptainID:   r.ViceCaptainID,
		Nodes:           r.Stats.Nodes,
	}
}

func FromSquadOutput(out usecase.SquadOutput) Squad {
	s := FromSquadResult(out.Result)
	s.RunID = out.RunID
	return s
}

func FromTransferOutput(out usecase.TransferOutput) TransferPlan {
	plan := out.Plan
	newSquad := make([]SquadPlayer, 0, len(plan.NewSquad))
	for _, c := range plan.NewSquad {
		newSquad = append(newSquad, SquadPlayer{Player: FromPlayer(c.Player), InCurrent: c.InCurrentSquad})
	}

	lineup := FromSquadResult(plan.Lineup)
	lineup.Nodes = plan.Stats.Nodes
	dto := TransferPlan{
		RunID:           out.RunID,
		TeamID:          out.TeamID,
		Gameweek:        out.Gameweek,
		TransfersMade:   plan.TransfersMade,
		FreeTransfers:   plan.FreeTransfers,
		HitCost:         plan.HitCost,
		HitsTaken:       plan.HitsTaken,
		PointsHit:       plan.PointsHit,
		PointsDelta:     round2(plan.PointsDelta),
		NetGain:         round2(plan.NetGain),
		TransfersIn:     FromPlayers(plan.TransfersIn),
		TransfersOut:    FromPlayers(plan.TransfersOut),
		UnmatchedIDs:    plan.UnmatchedIDs,
		NewSquad:        newSquad,
		Lineup:          lineup,
		Budget:          lineup.Budget,
		BudgetRemaining: lineup.BudgetRemaining,
	}
	if out.TeamID > 0 {
		itb := round1(out.Bank)
		dto.ITB = &itb
	}
	return dto
}

func FromCurrentSquad(out usecase.CurrentSquadOutput) CurrentSquad {
	ids := out.Squad.PlayerIDs
	if ids == nil {
		ids = []int64{}
	}
	return CurrentSquad{
		TeamID:        out.Squad.TeamID,
		Gameweek:      out.Squad.Gameweek,
		ITB:           round1(out.Squad.Bank),
		FreeTransfers: out.Squad.FreeTransfers,
		PlayerIDs:     ids,
		Players:       FromPlayers(out.Players),
	}
}

func currency(c player.CostUnits) float64 {
	return round1(c.ToCurrency())
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
