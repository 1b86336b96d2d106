package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/fpl-optimizer/internal/config"
	"github.com/riskibarqy/fpl-optimizer/internal/platform/logging"
)

const samplePredictions = `player_id,web_name,team,element_type,now_cost,predicted_pts
1,Raya,1,1,55,4.1
2,Saliba,1,2,60,5.2
3,Saka,1,3,100,7.4
4,Haaland,13,4,150,8.9
`

func testConfig(t *testing.T, fplURL string) config.Config {
	t.Helper()

	path := filepath.Join(t.TempDir(), "predictions.csv")
	if err := os.WriteFile(path, []byte(samplePredictions), 0o600); err != nil {
		t.Fatalf("write predictions: %v", err)
	}

	return config.Config{
		ServiceName:           "fpl-optimizer",
		ServiceVersion:        "test",
		HTTPAddr:              ":0",
		ReadTimeout:           5 * time.Second,
		WriteTimeout:          30 * time.Second,
		OptimizerSolveTimeout: 5 * time.Second,
		OptimizerMaxNodes:     1000,
		OptimizerWorkers:      1,
		PredictionsPath:       path,
		PoolCacheTTL:          time.Minute,
		FPLBaseURL:            fplURL,
		FPLTimeout:            time.Second,
		MCPEnabled:            true,
		MCPPath:               "/mcp",
	}
}

func TestNewHTTPServer_ServesPlayersWithoutMetadata(t *testing.T) {
	t.Parallel()

	fplAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer fplAPI.Close()

	application, err := NewHTTPServer(testConfig(t, fplAPI.URL), logging.NewNop())
	require.NoError(t, err)
	defer func() { _ = application.Shutdown(context.Background()) }()

	rec := httptest.NewRecorder()
	application.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/players?position=FWD&limit=5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d body=%s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data struct {
			Count   int `json:"count"`
			Players []struct {
				ID   int64  `json:"id"`
				Club string `json:"club"`
			} `json:"players"`
		} `json:"data"`
	}
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, 1, envelope.Data.Count)
	require.Equal(t, int64(4), envelope.Data.Players[0].ID)
	require.Equal(t, "13", envelope.Data.Players[0].Club)
}

func TestNewHTTPServer_RejectsEmptyAddr(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.HTTPAddr = ""
	_, err := NewHTTPServer(cfg, logging.NewNop())
	require.Error(t, err)
}

func TestNewHTTPServer_MountsMCPOnlyWhenEnabled(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.MCPEnabled = false
	application, err := NewHTTPServer(cfg, logging.NewNop())
	require.NoError(t, err)
	defer func() { _ = application.Shutdown(context.Background()) }()

	rec := httptest.NewRecorder()
	application.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
