package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/fpl-optimizer/internal/domain/player"
	"github.com/riskibarqy/fpl-optimizer/internal/platform/logging"
	"github.com/riskibarqy/fpl-optimizer/internal/usecase"
)

const maxRequestBodyBytes = 1 << 20

// OptimizerService is the use case surface served over HTTP.
type OptimizerService interface {
	SolveSquad(ctx context.Context, input usecase.SolveSquadInput) (usecase.SquadOutput, error)
	PlanTransfers(ctx context.Context, input usecase.PlanTransfersInput) (usecase.TransferOutput, error)
	FetchCurrentSquad(ctx context.Context, teamID int64) (usecase.CurrentSquadOutput, error)
	ListPlayers(ctx context.Context, input usecase.ListPlayersInput) ([]player.Player, error)
}

type Handler struct {
	optimizerService OptimizerService
	logger           *logging.Logger
	validator        *validator.Validate
}

func NewHandler(optimizerService OptimizerService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		optimizerService: optimizerService,
		logger:           logger,
		validator:        validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// decodeJSON rejects unknown fields. An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read request body: %v", usecase.ErrInvalidInput, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	decoder := sonic.ConfigDefault.NewDecoder(bytes.NewReader(body))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

type optimizeSquadRequest struct {
	Budget float64 `json:"budget" validate:"gte=0"`
}

type planTransfersRequest struct {
	TeamID          int64   `json:"team_id" validate:"gte=0"`
	CurrentSquadIDs []int64 `json:"current_squad_ids" validate:"omitempty,max=15,dive,gt=0"`
	Bank            float64 `json:"bank" validate:"gte=0"`
	FreeTransfers   *int    `json:"free_transfers" validate:"omitempty,gte=0"`
	HitCost         *int    `json:"hit_cost" validate:"omitempty,gte=0"`
	LockedPlayerIDs []int64 `json:"locked_player_ids" validate:"omitempty,dive,gt=0"`
}
