package fpl

import (
	"context"
	"fmt"

	"github.com/riskibarqy/fpl-optimizer/internal/domain/player"
)

const bootstrapPath = "/bootstrap-static/"

type bootstrapPayload struct {
	Events   []eventRow   `json:"events"`
	Teams    []teamRow    `json:"teams"`
	Elements []elementRow `json:"elements"`
}

type eventRow struct {
	ID        int  `json:"id"`
	IsCurrent bool `json:"is_current"`
	Finished  bool `json:"finished"`
}

type teamRow struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
}

type elementRow struct {
	ID          int64  `json:"id"`
	WebName     string `json:"web_name"`
	Team        int    `json:"team"`
	ElementType int    `json:"element_type"`
	NowCost     int64  `json:"now_cost"`
	Status      string `json:"status"`
}

func (c *Client) fetchBootstrap(ctx context.Context) (bootstrapPayload, error) {
	var payload bootstrapPayload
	if err := c.getJSON(ctx, bootstrapPath, &payload); err != nil {
		return bootstrapPayload{}, fmt.Errorf("fetch bootstrap-static: %w", err)
	}
	return payload, nil
}

// FetchMetadata returns club names, player statuses and the current gameweek.
func (c *Client) FetchMetadata(ctx context.Context) (player.Metadata, error) {
	payload, err := c.fetchBootstrap(ctx)
	if err != nil {
		return player.Metadata{}, err
	}

	meta := player.Metadata{
		ClubNames:       make(map[int]string, len(payload.Teams)),
		Statuses:        make(map[int64]string, len(payload.Elements)),
		CurrentGameweek: currentGameweek(payload.Events),
	}
	for _, t := range payload.Teams {
		meta.ClubNames[t.ID] = t.Name
	}
	for _, e := range payload.Elements {
		meta.Statuses[e.ID] = e.Status
	}
	return meta, nil
}

// currentGameweek is the first event flagged current, else the latest
// finished one, else 1.
func currentGameweek(events []eventRow) int {
	for _, e := range events {
		if e.IsCurrent {
			return e.ID
		}
	}
	latest := 0
	for _, e := range events {
		if e.Finished && e.ID > latest {
			latest = e.ID
		}
	}
	if latest > 0 {
		return latest
	}
	return 1
}
