package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/grafana/pyroscope-go"
	"github.com/uptrace/uptrace-go/uptrace"

	"github.com/riskibarqy/fpl-optimizer/internal/config"
	"github.com/riskibarqy/fpl-optimizer/internal/platform/logging"
)

// Telemetry owns the exporters and debug listeners started for one process.
type Telemetry struct {
	logger          *logging.Logger
	uptraceEnabled  bool
	profiler        *pyroscope.Profiler
	pprofServer     *http.Server
	pprofStopWindow time.Duration
}

// Start configures whatever cfg enables. Disabled pieces are logged and skipped.
func Start(cfg config.Config, logger *logging.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = logging.Default()
	}
	t := &Telemetry{logger: logger, pprofStopWindow: 5 * time.Second}

	t.startUptrace(cfg)
	if err := t.startPyroscope(cfg); err != nil {
		return nil, err
	}
	t.startPprof(cfg)
	return t, nil
}

func (t *Telemetry) startUptrace(cfg config.Config) {
	switch {
	case !cfg.UptraceEnabled:
		t.logger.Info("uptrace disabled", "reason", "UPTRACE_ENABLED=false")
		return
	case strings.TrimSpace(cfg.UptraceDSN) == "":
		t.logger.Info("uptrace disabled", "reason", "UPTRACE_DSN empty")
		return
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
		uptrace.WithLoggingEnabled(false),
	)
	t.uptraceEnabled = true
	t.logger.Info("uptrace enabled", "service_name", cfg.ServiceName, "environment", cfg.AppEnv)
}

func (t *Telemetry) startPyroscope(cfg config.Config) error {
	if !cfg.PyroscopeEnabled {
		t.logger.Info("pyroscope disabled", "reason", "PYROSCOPE_ENABLED=false")
		return nil
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.PyroscopeAppName,
		ServerAddress:     cfg.PyroscopeServerAddress,
		AuthToken:         cfg.PyroscopeAuthToken,
		BasicAuthUser:     cfg.PyroscopeBasicAuthUser,
		BasicAuthPassword: cfg.PyroscopeBasicAuthPassword,
		UploadRate:        cfg.PyroscopeUploadRate,
		Tags: map[string]string{
			"env":     cfg.AppEnv,
			"service": cfg.ServiceName,
			"version": cfg.ServiceVersion,
		},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		return fmt.Errorf("start pyroscope: %w", err)
	}
	t.profiler = profiler
	t.logger.Info("pyroscope enabled", "server_address", cfg.PyroscopeServerAddress, "application", cfg.PyroscopeAppName)
	return nil
}

func (t *Telemetry) startPprof(cfg config.Config) {
	if !cfg.PprofEnabled {
		t.logger.Info("pprof disabled", "reason", "PPROF_ENABLED=false")
		return
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	t.pprofServer = &http.Server{
		Addr:              cfg.PprofAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func(srv *http.Server) {
		t.logger.Info("pprof server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.logger.Error("pprof server failed", "error", err)
		}
	}(t.pprofServer)
}

// Shutdown stops pprof, flushes the profiler and the OpenTelemetry exporters.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.pprofServer != nil {
		stopCtx, cancel := context.WithTimeout(ctx, t.pprofStopWindow)
		if err := t.pprofServer.Shutdown(stopCtx); err != nil {
			errs = append(errs, fmt.Errorf("stop pprof server: %w", err))
		}
		cancel()
	}
	if t.profiler != nil {
		if err := t.profiler.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop pyroscope: %w", err))
		}
	}
	if t.uptraceEnabled {
		if err := uptrace.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown uptrace: %w", err))
		}
	}
	return errors.Join(errs...)
}
