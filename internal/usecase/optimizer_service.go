package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/fpl-optimizer/internal/domain/player"
	"github.com/riskibarqy/fpl-optimizer/internal/optimizer"
	idgen "github.com/riskibarqy/fpl-optimizer/internal/platform/id"
	"github.com/riskibarqy/fpl-optimizer/internal/platform/logging"
)

const (
	DefaultSquadBudget   = 100.0
	DefaultFreeTransfers = 1
	DefaultHitCost       = 4
	DefaultMaxPrice      = 15.0
	DefaultListLimit     = 50
	MaxListLimit         = 500

	solveKindSquad     = "squad"
	solveKindTransfers = "transfers"
)

// PlayerLister lists a filtered view of the pool.
type PlayerLister interface {
	ListPlayers(ctx context.Context, filter player.ListFilter) ([]player.Player, error)
}

// SolveRecorder receives one observation per solve.
type SolveRecorder interface {
	RecordSolve(ctx context.Context, kind, outcome string, elapsed time.Duration, nodes int)
}

type OptimizerServiceConfig struct {
	Workers      int
	SolveTimeout time.Duration
}

type SolveSquadInput struct {
	Budget float64
}

type SquadOutput struct {
	RunID  string
	Result optimizer.SquadResult
}

// PlanTransfersInput carries either a TeamID or an explicit current squad.
// Nil FreeTransfers and HitCost take the defaults; with a TeamID a positive
// FreeTransfers overrides the fetched value.
type PlanTransfersInput struct {
	TeamID          int64
	CurrentSquadIDs []int64
	Bank            float64
	FreeTransfers   *int
	HitCost         *int
	LockedIDs       []int64
}

type TransferOutput struct {
	RunID    string
	TeamID   int64
	Gameweek int
	Bank     float64
	Plan     optimizer.TransferPlan
}

type CurrentSquadOutput struct {
	Squad   player.CurrentSquad
	Players []player.Player
}

type ListPlayersInput struct {
	Position      string
	MaxPrice      *float64
	OnlyAvailable *bool
	Limit         int
}

type OptimizerService struct {
	pool      player.PoolProvider
	players   PlayerLister
	squads    player.SquadProvider
	optimizer *optimizer.Optimizer
	workers   *ants.Pool
	timeout   time.Duration
	idGen     idgen.Generator
	metrics   SolveRecorder
	logger    *logging.Logger
	now       func() time.Time
}

// NewOptimizerService runs solves on a bounded worker pool. squads and
// metrics may be nil.
func NewOptimizerService(
	pool player.PoolProvider,
	players PlayerLister,
	squads player.SquadProvider,
	opt *optimizer.Optimizer,
	idGen idgen.Generator,
	metrics SolveRecorder,
	cfg OptimizerServiceConfig,
	logger *logging.Logger,
) (*OptimizerService, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if opt == nil {
		opt = optimizer.New(nil)
	}
	if idGen == nil {
		idGen = idgen.NewRunIDGenerator()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	workers, err := ants.NewPool(cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("create solver worker pool: %w", err)
	}

	return &OptimizerService{
		pool:      pool,
		players:   players,
		squads:    squads,
		optimizer: opt,
		workers:   workers,
		timeout:   cfg.SolveTimeout,
		idGen:     idGen,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}, nil
}

func (s *OptimizerService) Close() {
	s.workers.Release()
}

func (s *OptimizerService) SolveSquad(ctx context.Context, input SolveSquadInput) (SquadOutput, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.OptimizerService.SolveSquad")
	defer span.End()

	budget := input.Budget
	if budget == 0 {
		budget = DefaultSquadBudget
	}
	if budget < 0 {
		return SquadOutput{}, fmt.Errorf("%w: budget must be > 0", ErrInvalidInput)
	}

	pool, err := s.fetchPool(ctx)
	if err != nil {
		return SquadOutput{}, err
	}
	runID, err := s.idGen.NewID()
	if err != nil {
		return SquadOutput{}, fmt.Errorf("generate run id: %w", err)
	}
	span.SetAttributes(
		attribute.String("run_id", runID),
		attribute.Int("pool_size", len(pool)),
		attribute.Float64("budget", budget),
	)

	var result optimizer.SquadResult
	err = s.runSolve(ctx, solveKindSquad, runID, len(pool), func(ctx context.Context) (int, error) {
		var solveErr error
		result, solveErr = s.optimizer.SolveSquad(ctx, pool, player.ToCostUnits(budget))
		return result.Stats.Nodes, solveErr
	})
	if err != nil {
		return SquadOutput{}, err
	}

	return SquadOutput{RunID: runID, Result: result}, nil
}

func (s *OptimizerService) PlanTransfers(ctx context.Context, input PlanTransfersInput) (TransferOutput, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.OptimizerService.PlanTransfers")
	defer span.End()

	if input.TeamID < 0 {
		return TransferOutput{}, fmt.Errorf("%w: team id must be > 0", ErrInvalidInput)
	}
	if input.TeamID == 0 && len(input.CurrentSquadIDs) == 0 {
		return TransferOutput{}, fmt.Errorf("%w: team id or current squad ids are required", ErrInvalidInput)
	}
	if input.HitCost != nil && *input.HitCost < 0 {
		return TransferOutput{}, fmt.Errorf("%w: hit cost must be >= 0", ErrInvalidInput)
	}
	if input.FreeTransfers != nil && *input.FreeTransfers < 0 {
		return TransferOutput{}, fmt.Errorf("%w: free transfers must be >= 0", ErrInvalidInput)
	}

	out := TransferOutput{TeamID: input.TeamID}
	req := optimizer.TransferRequest{
		FreeTransfers: DefaultFreeTransfers,
		HitCost:       DefaultHitCost,
		Locked:        input.LockedIDs,
	}
	if input.HitCost != nil {
		req.HitCost = *input.HitCost
	}

	if input.TeamID > 0 {
		current, err := s.fetchSquad(ctx, input.TeamID)
		if err != nil {
			return TransferOutput{}, err
		}
		req.CurrentSquadIDs = current.PlayerIDs
		req.Bank = current.Bank
		req.FreeTransfers = current.FreeTransfers
		if input.FreeTransfers != nil && *input.FreeTransfers > 0 {
			req.FreeTransfers = *input.FreeTransfers
		}
		out.Gameweek = current.Gameweek
		out.Bank = current.Bank
	} else {
		if input.Bank < 0 {
			return TransferOutput{}, fmt.Errorf("%w: bank must be >= 0", ErrInvalidInput)
		}
		req.CurrentSquadIDs = input.CurrentSquadIDs
		req.Bank = input.Bank
		if input.FreeTransfers != nil {
			req.FreeTransfers = *input.FreeTransfers
		}
		out.Bank = input.Bank
	}

	if err := validateSquadIDs(req.CurrentSquadIDs, req.Locked, s.optimizer.TransferRules().SquadSize); err != nil {
		return TransferOutput{}, err
	}

	pool, err := s.fetchPool(ctx)
	if err != nil {
		return TransferOutput{}, err
	}
	runID, err := s.idGen.NewID()
	if err != nil {
		return TransferOutput{}, fmt.Errorf("generate run id: %w", err)
	}
	out.RunID = runID
	span.SetAttributes(
		attribute.String("run_id", runID),
		attribute.Int64("team_id", input.TeamID),
		attribute.Int("free_transfers", req.FreeTransfers),
		attribute.Int("hit_cost", req.HitCost),
	)

	err = s.runSolve(ctx, solveKindTransfers, runID, len(pool), func(ctx context.Context) (int, error) {
		var solveErr error
		out.Plan, solveErr = s.optimizer.PlanTransfers(ctx, pool, req)
		return out.Plan.Stats.Nodes, solveErr
	})
	if err != nil {
		return TransferOutput{}, err
	}
	return out, nil
}

func (s *OptimizerService) FetchCurrentSquad(ctx context.Context, teamID int64) (CurrentSquadOutput, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.OptimizerService.FetchCurrentSquad")
	defer span.End()

	if teamID <= 0 {
		return CurrentSquadOutput{}, fmt.Errorf("%w: team id must be > 0", ErrInvalidInput)
	}
	current, err := s.fetchSquad(ctx, teamID)
	if err != nil {
		return CurrentSquadOutput{}, err
	}

	out := CurrentSquadOutput{Squad: current}
	pool, err := s.fetchPool(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "current squad served without pool details", "team_id", teamID, "error", err)
		return out, nil
	}
	byID := player.Index(pool)
	for _, id := range current.PlayerIDs {
		if p, ok := byID[id]; ok {
			out.Players = append(out.Players, p)
		}
	}
	return out, nil
}

func (s *OptimizerService) ListPlayers(ctx context.Context, input ListPlayersInput) ([]player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.OptimizerService.ListPlayers")
	defer span.End()

	filter := player.ListFilter{
		MaxCost:       player.ToCostUnits(DefaultMaxPrice),
		OnlyAvailable: true,
		Limit:         DefaultListLimit,
	}
	if input.Position != "" {
		pos, err := player.ParsePosition(input.Position)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		filter.Position = pos
	}
	if input.MaxPrice != nil {
		if *input.MaxPrice <= 0 {
			return nil, fmt.Errorf("%w: max price must be > 0", ErrInvalidInput)
		}
		filter.MaxCost = player.ToCostUnits(*input.MaxPrice)
	}
	if input.OnlyAvailable != nil {
		filter.OnlyAvailable = *input.OnlyAvailable
	}
	if input.Limit != 0 {
		if input.Limit < 1 || input.Limit > MaxListLimit {
			return nil, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidInput, MaxListLimit)
		}
		filter.Limit = input.Limit
	}

	if s.players != nil {
		players, err := s.players.ListPlayers(ctx, filter)
		if err != nil {
			return nil, s.poolError(err)
		}
		return players, nil
	}

	pool, err := s.fetchPool(ctx)
	if err != nil {
		return nil, err
	}
	return filter.Apply(pool), nil
}

// runSolve runs fn on the worker pool under the solve timeout.
func (s *OptimizerService) runSolve(ctx context.Context, kind, runID string, poolSize int, fn func(ctx context.Context) (int, error)) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := s.now()
	type outcome struct {
		nodes int
		err   error
	}
	done := make(chan outcome, 1)
	if err := s.workers.Submit(func() {
		nodes, err := fn(ctx)
		done <- outcome{nodes: nodes, err: err}
	}); err != nil {
		return fmt.Errorf("%w: submit solve: %v", ErrDependencyUnavailable, err)
	}

	var res outcome
	select {
	case res = <-done:
	case <-ctx.Done():
		res = outcome{err: fmt.Errorf("%w: %v", optimizer.ErrSolverTimeout, ctx.Err())}
	}
	elapsed := s.now().Sub(start)

	label := solveOutcome(res.err)
	if s.metrics != nil {
		s.metrics.RecordSolve(ctx, kind, label, elapsed, res.nodes)
	}

	args := []any{
		"run_id", runID,
		"kind", kind,
		"pool_size", poolSize,
		"nodes", res.nodes,
		"outcome", label,
		"elapsed", elapsed,
	}
	switch label {
	case "ok":
		s.logger.InfoContext(ctx, "solve finished", args...)
	case "error":
		s.logger.ErrorContext(ctx, "solve failed", append(args, "error", res.err)...)
	default:
		s.logger.WarnContext(ctx, "solve rejected", append(args, "error", res.err)...)
	}
	return res.err
}

func solveOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, optimizer.ErrInfeasibleModel):
		return "infeasible"
	case errors.Is(err, optimizer.ErrSolverTimeout):
		return "timeout"
	case errors.Is(err, optimizer.ErrUnresolvedSquad):
		return "unresolved"
	case errors.Is(err, optimizer.ErrPoolUnavailable):
		return "pool_unavailable"
	default:
		return "error"
	}
}

func (s *OptimizerService) fetchPool(ctx context.Context) ([]player.Player, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("%w: no player pool configured", optimizer.ErrPoolUnavailable)
	}
	pool, err := s.pool.FetchPool(ctx)
	if err != nil {
		return nil, s.poolError(err)
	}
	return pool, nil
}

func (s *OptimizerService) poolError(err error) error {
	if errors.Is(err, optimizer.ErrPoolUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", optimizer.ErrPoolUnavailable, err)
}

func (s *OptimizerService) fetchSquad(ctx context.Context, teamID int64) (player.CurrentSquad, error) {
	if s.squads == nil {
		return player.CurrentSquad{}, fmt.Errorf("%w: no squad provider configured", optimizer.ErrSquadUnavailable)
	}
	current, err := s.squads.FetchCurrentSquad(ctx, teamID)
	switch {
	case err == nil:
		return current, nil
	case errors.Is(err, player.ErrTeamNotFound):
		return player.CurrentSquad{}, fmt.Errorf("%w: team %d: %v", ErrNotFound, teamID, err)
	case errors.Is(err, optimizer.ErrSquadUnavailable):
		return player.CurrentSquad{}, err
	default:
		return player.CurrentSquad{}, fmt.Errorf("%w: %v", optimizer.ErrSquadUnavailable, err)
	}
}

func validateSquadIDs(current, locked []int64, squadSize int) error {
	if len(current) > squadSize {
		return fmt.Errorf("%w: current squad has %d ids, max %d", ErrInvalidInput, len(current), squadSize)
	}
	owned := make(map[int64]struct{}, len(current))
	for _, id := range current {
		if id <= 0 {
			return fmt.Errorf("%w: player id must be > 0, got %d", ErrInvalidInput, id)
		}
		if _, dup := owned[id]; dup {
			return fmt.Errorf("%w: duplicate player id %d in current squad", ErrInvalidInput, id)
		}
		owned[id] = struct{}{}
	}
	for _, id := range locked {
		if _, ok := owned[id]; !ok {
			return fmt.Errorf("%w: locked player %d is not in the current squad", ErrInvalidInput, id)
		}
	}
	return nil
}
