package usecase

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/riskibarqy/fpl-optimizer/internal/domain/player"
	"github.com/riskibarqy/fpl-optimizer/internal/optimizer"
	"github.com/riskibarqy/fpl-optimizer/internal/platform/cache"
	"github.com/riskibarqy/fpl-optimizer/internal/platform/logging"
)

const poolCacheKey = "pool"

// PoolService assembles the candidate pool from predictions plus optional FPL
// metadata, caches it, and keeps a stored snapshot to fall back on.
type PoolService struct {
	predictions player.PredictionSource
	metadata    player.MetadataSource
	repo        player.Repository
	cache       *cache.Store[[]player.Player]
	logger      *logging.Logger
	now         func() time.Time

	snapshotID atomic.Int64
}

// NewPoolService accepts nil metadata and nil repo.
func NewPoolService(
	predictions player.PredictionSource,
	metadata player.MetadataSource,
	repo player.Repository,
	cacheTTL time.Duration,
	logger *logging.Logger,
) *PoolService {
	if logger == nil {
		logger = logging.Default()
	}
	return &PoolService{
		predictions: predictions,
		metadata:    metadata,
		repo:        repo,
		cache:       cache.NewStore[[]player.Player](cacheTTL),
		logger:      logger,
		now:         time.Now,
	}
}

func (s *PoolService) FetchPool(ctx context.Context) ([]player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PoolService.FetchPool")
	defer span.End()

	return s.cache.GetOrLoad(ctx, poolCacheKey, s.load)
}

// Refresh drops the cached pool and loads a fresh one.
func (s *PoolService) Refresh(ctx context.Context) ([]player.Player, error) {
	s.cache.Delete(ctx, poolCacheKey)
	return s.FetchPool(ctx)
}

// ListPlayers filters the current pool. When a snapshot repository is
// configured the filter runs against the stored snapshot.
func (s *PoolService) ListPlayers(ctx context.Context, filter player.ListFilter) ([]player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PoolService.ListPlayers")
	defer span.End()

	pool, err := s.FetchPool(ctx)
	if err != nil {
		return nil, err
	}

	if s.repo != nil {
		if snapshotID := s.snapshotID.Load(); snapshotID > 0 {
			players, err := s.repo.ListPlayers(ctx, snapshotID, filter)
			if err == nil {
				return players, nil
			}
			s.logger.WarnContext(ctx, "list players from snapshot failed, filtering in memory",
				"snapshot_id", snapshotID,
				"error", err,
			)
		}
	}
	return filter.Apply(pool), nil
}

func (s *PoolService) load(ctx context.Context) ([]player.Player, error) {
	if s.predictions == nil {
		return nil, fmt.Errorf("%w: no predictions source configured", optimizer.ErrPoolUnavailable)
	}

	var (
		raw     []player.Player
		rawErr  error
		meta    player.Metadata
		metaErr error
		wg      conc.WaitGroup
	)
	wg.Go(func() {
		raw, rawErr = s.predictions.LoadPredictions(ctx)
	})
	if s.metadata != nil {
		wg.Go(func() {
			meta, metaErr = s.metadata.FetchMetadata(ctx)
		})
	}
	wg.Wait()

	if rawErr == nil && len(raw) == 0 {
		rawErr = fmt.Errorf("predictions source returned no players")
	}
	if rawErr != nil {
		if stored, ok := s.latestStored(ctx); ok {
			s.logger.WarnContext(ctx, "predictions unavailable, serving stored snapshot",
				"snapshot_id", s.snapshotID.Load(),
				"players", len(stored),
				"error", rawErr,
			)
			return stored, nil
		}
		return nil, fmt.Errorf("%w: %v", optimizer.ErrPoolUnavailable, rawErr)
	}

	if metaErr != nil {
		s.logger.WarnContext(ctx, "pool enrichment unavailable, using prediction fields only", "error", metaErr)
	}
	pool := enrichPool(raw, meta)
	s.saveSnapshot(ctx, pool)

	s.logger.InfoContext(ctx, "player pool loaded",
		"players", len(pool),
		"enriched", metaErr == nil && s.metadata != nil,
	)
	return pool, nil
}

// enrichPool fills club names and statuses. Missing metadata leaves the club
// id as name and marks the player available.
func enrichPool(raw []player.Player, meta player.Metadata) []player.Player {
	out := make([]player.Player, 0, len(raw))
	for _, p := range raw {
		if name, ok := meta.ClubNames[p.ClubID]; ok && name != "" {
			p.ClubName = name
		} else if p.ClubName == "" {
			p.ClubName = strconv.Itoa(p.ClubID)
		}
		if status, ok := meta.Statuses[p.ID]; ok && status != "" {
			p.Status = status
		} else if p.Status == "" {
			p.Status = player.StatusAvailable
		}
		out = append(out, p)
	}
	return out
}

func (s *PoolService) saveSnapshot(ctx context.Context, pool []player.Player) {
	if s.repo == nil {
		return
	}
	snapshotID, err := s.repo.SaveSnapshot(ctx, player.Snapshot{
		TakenAt: s.now().UTC(),
		Players: pool,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "save pool snapshot failed", "error", err)
		return
	}
	s.snapshotID.Store(snapshotID)
}

func (s *PoolService) latestStored(ctx context.Context) ([]player.Player, bool) {
	if s.repo == nil {
		return nil, false
	}
	snapshot, found, err := s.repo.LatestSnapshot(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "load latest pool snapshot failed", "error", err)
		return nil, false
	}
	if !found || len(snapshot.Players) == 0 {
		return nil, false
	}
	s.snapshotID.Store(snapshot.ID)
	return snapshot.Players, true
}
