package fpl

import (
	"context"
	"fmt"
	"strings"

	crerr "github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc"

	"github.com/riskibarqy/fpl-optimizer/internal/domain/player"
)

type entryPayload struct {
	Detail                    string `json:"detail"`
	CurrentEvent              int    `json:"current_event"`
	LastDeadlineBank          int64  `json:"last_deadline_bank"`
	LastDeadlineFreeTransfers int    `json:"last_deadline_free_transfers"`
}

type picksPayload struct {
	Picks *[]pickRow `json:"picks"`
}

type pickRow struct {
	Element  int64 `json:"element"`
	Position int   `json:"position"`
}

// FetchCurrentSquad resolves a manager's latest submitted picks, bank and
// free transfers.
func (c *Client) FetchCurrentSquad(ctx context.Context, teamID int64) (player.CurrentSquad, error) {
	if teamID <= 0 {
		return player.CurrentSquad{}, fmt.Errorf("team id must be greater than zero")
	}

	var (
		boot     bootstrapPayload
		bootErr  error
		entry    entryPayload
		entryErr error
		wg       conc.WaitGroup
	)
	wg.Go(func() {
		boot, bootErr = c.fetchBootstrap(ctx)
	})
	wg.Go(func() {
		entryErr = c.getJSON(ctx, fmt.Sprintf("/entry/%d/", teamID), &entry)
	})
	wg.Wait()

	if entryErr != nil {
		if crerr.Is(entryErr, errFPLNotFound) {
			return player.CurrentSquad{}, fmt.Errorf("%w: team %d", player.ErrTeamNotFound, teamID)
		}
		return player.CurrentSquad{}, fmt.Errorf("fetch entry %d: %w", teamID, entryErr)
	}
	if strings.TrimSpace(entry.Detail) != "" {
		return player.CurrentSquad{}, fmt.Errorf("%w: team %d: %s", player.ErrTeamNotFound, teamID, entry.Detail)
	}
	if bootErr != nil {
		return player.CurrentSquad{}, bootErr
	}

	currentGW := currentGameweek(boot.Events)
	entryGW := entry.CurrentEvent
	if entryGW <= 0 {
		entryGW = currentGW
	}
	picksGW := min(currentGW, entryGW)

	freeTransfers := entry.LastDeadlineFreeTransfers
	if freeTransfers <= 0 {
		freeTransfers = 1
	}

	squad := player.CurrentSquad{
		TeamID:        teamID,
		Bank:          player.CostUnits(entry.LastDeadlineBank).ToCurrency(),
		FreeTransfers: freeTransfers,
	}

	for _, gw := range []int{picksGW, picksGW - 1, picksGW + 1} {
		if gw < 1 {
			continue
		}
		var picks picksPayload
		err := c.getJSON(ctx, fmt.Sprintf("/entry/%d/event/%d/picks/", teamID, gw), &picks)
		if crerr.Is(err, errFPLNotFound) {
			continue
		}
		if err != nil {
			return player.CurrentSquad{}, fmt.Errorf("fetch picks team=%d gw=%d: %w", teamID, gw, err)
		}
		if picks.Picks == nil {
			continue
		}

		squad.Gameweek = gw
		squad.PlayerIDs = make([]int64, 0, len(*picks.Picks))
		for _, p := range *picks.Picks {
			squad.PlayerIDs = append(squad.PlayerIDs, p.Element)
		}
		return squad, nil
	}

	return player.CurrentSquad{}, fmt.Errorf("%w: no picks for team %d around gameweek %d", player.ErrTeamNotFound, teamID, picksGW)
}
