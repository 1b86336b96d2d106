package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/fpl-optimizer/internal/platform/logging"
)

// RouterConfig configures the optional surfaces mounted next to the REST API.
type RouterConfig struct {
	CORSAllowedOrigins []string
	MCPPath            string
	MCPHandler         http.Handler
}

func NewRouter(handler *Handler, logger *logging.Logger, cfg RouterConfig) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler)
	registerOptimizerRoutes(mux, handler)
	if cfg.MCPHandler != nil {
		path := strings.TrimSpace(cfg.MCPPath)
		if path == "" {
			path = "/mcp"
		}
		mux.Handle(path, cfg.MCPHandler)
	}

	return RequestTracing(RequestLogging(logger, CORS(cfg.CORSAllowedOrigins, recoverPanic(logger, mux))))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
