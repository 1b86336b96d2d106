package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/fpl-optimizer/external/fpl"
	"github.com/riskibarqy/fpl-optimizer/external/predictions"
	"github.com/riskibarqy/fpl-optimizer/internal/config"
	"github.com/riskibarqy/fpl-optimizer/internal/domain/player"
	"github.com/riskibarqy/fpl-optimizer/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/fpl-optimizer/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/fpl-optimizer/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/fpl-optimizer/internal/interfaces/httpapi"
	"github.com/riskibarqy/fpl-optimizer/internal/interfaces/mcpapi"
	"github.com/riskibarqy/fpl-optimizer/internal/observability"
	"github.com/riskibarqy/fpl-optimizer/internal/optimizer"
	idgen "github.com/riskibarqy/fpl-optimizer/internal/platform/id"
	"github.com/riskibarqy/fpl-optimizer/internal/platform/ilp"
	"github.com/riskibarqy/fpl-optimizer/internal/platform/logging"
	"github.com/riskibarqy/fpl-optimizer/internal/platform/resilience"
	"github.com/riskibarqy/fpl-optimizer/internal/usecase"
)

const memorySnapshotRetain = 8

// App is the wired service: the HTTP server plus what must be released on shutdown.
type App struct {
	Server    *http.Server
	optimizer *usecase.OptimizerService
	db        *sqlx.DB
	logger    *logging.Logger
}

func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	fplClient := fpl.NewClient(fpl.ClientConfig{
		BaseURL:    cfg.FPLBaseURL,
		Timeout:    cfg.FPLTimeout,
		MaxRetries: cfg.FPLMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.FPLCircuitEnabled,
			FailureThreshold: cfg.FPLCircuitFailureCount,
			OpenTimeout:      cfg.FPLCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.FPLCircuitHalfOpenMaxReq,
		},
	})
	loader := predictions.NewLoader(cfg.PredictionsPath, logger)

	var (
		repo player.Repository
		db   *sqlx.DB
		err  error
	)
	if cfg.DBEnabled {
		db, err = openDB(cfg.Database())
		if err != nil {
			return nil, err
		}
		repo = cache.NewSnapshotRepository(postgres.NewSnapshotRepository(db), cfg.PoolCacheTTL)
		logger.Info("pool snapshots stored in postgres", "db_name", cfg.Database().Name())
	} else {
		repo = memory.NewSnapshotRepository(memorySnapshotRetain)
	}

	poolSvc := usecase.NewPoolService(loader, fplClient, repo, cfg.PoolCacheTTL, logger)

	metrics, err := observability.NewSolveMetrics(nil)
	if err != nil {
		closeDB(db)
		return nil, err
	}

	solver := ilp.NewBranchAndBound(ilp.WithMaxNodes(cfg.OptimizerMaxNodes))
	optimizerSvc, err := usecase.NewOptimizerService(
		poolSvc,
		poolSvc,
		fplClient,
		optimizer.New(solver),
		idgen.NewRunIDGenerator(),
		metrics,
		usecase.OptimizerServiceConfig{
			Workers:      cfg.OptimizerWorkers,
			SolveTimeout: cfg.OptimizerSolveTimeout,
		},
		logger,
	)
	if err != nil {
		closeDB(db)
		return nil, err
	}

	routerCfg := httpapi.RouterConfig{CORSAllowedOrigins: cfg.CORSAllowedOrigins}
	if cfg.MCPEnabled {
		mcpServer := mcpapi.NewServer(optimizerSvc, mcpapi.Config{
			Name:    cfg.ServiceName,
			Version: cfg.ServiceVersion,
		}, logger)
		routerCfg.MCPPath = cfg.MCPPath
		routerCfg.MCPHandler = mcpServer.Handler()
	}

	handler := httpapi.NewHandler(optimizerSvc, logger)
	router := httpapi.NewRouter(handler, logger, routerCfg)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
	}

	return &App{
		Server:    server,
		optimizer: optimizerSvc,
		db:        db,
		logger:    logger,
	}, nil
}

// Shutdown stops the HTTP server, then releases solver workers and the database.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.Server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
	}
	a.optimizer.Close()
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	a.logger.Info("app resources released")
	return nil
}
