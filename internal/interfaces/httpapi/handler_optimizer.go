package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/riskibarqy/fpl-optimizer/internal/interfaces/dto"
	"github.com/riskibarqy/fpl-optimizer/internal/usecase"
)

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPlayers")
	defer span.End()

	query := r.URL.Query()
	input := usecase.ListPlayersInput{
		Position: strings.TrimSpace(query.Get("position")),
	}
	if raw := strings.TrimSpace(query.Get("max_price")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: invalid max_price %q", usecase.ErrInvalidInput, raw))
			return
		}
		input.MaxPrice = &v
	}
	if raw := strings.TrimSpace(query.Get("only_available")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: invalid only_available %q", usecase.ErrInvalidInput, raw))
			return
		}
		input.OnlyAvailable = &v
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			writeError(ctx, w, fmt.Errorf("%w: invalid limit %q", usecase.ErrInvalidInput, raw))
			return
		}
		input.Limit = v
	}

	players, err := h.optimizerService.ListPlayers(ctx, input)
	if err != nil {
		h.logger.WarnContext(ctx, "list players failed", "position", input.Position, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, dto.FromPlayerList(players))
}

func (h *Handler) OptimizeSquad(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.OptimizeSquad")
	defer span.End()

	var req optimizeSquadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	out, err := h.optimizerService.SolveSquad(ctx, usecase.SolveSquadInput{Budget: req.Budget})
	if err != nil {
		h.logger.WarnContext(ctx, "optimize squad failed", "budget", req.Budget, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, dto.FromSquadOutput(out))
}

func (h *Handler) FetchCurrentSquad(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.FetchCurrentSquad")
	defer span.End()

	raw := strings.TrimSpace(r.PathValue("teamID"))
	teamID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || teamID <= 0 {
		writeError(ctx, w, fmt.Errorf("%w: invalid team id %q", usecase.ErrInvalidInput, raw))
		return
	}

	out, err := h.optimizerService.FetchCurrentSquad(ctx, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "fetch current squad failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, dto.FromCurrentSquad(out))
}

func (h *Handler) PlanTransfers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PlanTransfers")
	defer span.End()

	var req planTransfersRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	out, err := h.optimizerService.PlanTransfers(ctx, usecase.PlanTransfersInput{
		TeamID:          req.TeamID,
		CurrentSquadIDs: req.CurrentSquadIDs,
		Bank:            req.Bank,
		FreeTransfers:   req.FreeTransfers,
		HitCost:         req.HitCost,
		LockedIDs:       req.LockedPlayerIDs,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "plan transfers failed", "team_id", req.TeamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, dto.FromTransferOutput(out))
}
