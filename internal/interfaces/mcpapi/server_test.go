package mcpapi

import (
	"context"
	"fmt"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/fpl-optimizer/internal/domain/player"
	"github.com/riskibarqy/fpl-optimizer/internal/optimizer"
	"github.com/riskibarqy/fpl-optimizer/internal/platform/logging"
	"github.com/riskibarqy/fpl-optimizer/internal/usecase"
)

type optimizerServiceMock struct {
	mock.Mock
}

func (m *optimizerServiceMock) SolveSquad(ctx context.Context, input usecase.SolveSquadInput) (usecase.SquadOutput, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(usecase.SquadOutput), args.Error(1)
}

func (m *optimizerServiceMock) PlanTransfers(ctx context.Context, input usecase.PlanTransfersInput) (usecase.TransferOutput, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(usecase.TransferOutput), args.Error(1)
}

func (m *optimizerServiceMock) FetchCurrentSquad(ctx context.Context, teamID int64) (usecase.CurrentSquadOutput, error) {
	args := m.Called(ctx, teamID)
	return args.Get(0).(usecase.CurrentSquadOutput), args.Error(1)
}

func (m *optimizerServiceMock) ListPlayers(ctx context.Context, input usecase.ListPlayersInput) ([]player.Player, error) {
	args := m.Called(ctx, input)
	players, _ := args.Get(0).([]player.Player)
	return players, args.Error(1)
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func TestNewServer_RegistersTools(t *testing.T) {
	s := NewServer(&optimizerServiceMock{}, Config{}, logging.NewNop())

	names := make([]string, 0, 4)
	for _, tool := range s.Tools() {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"list_players", "optimize_squad", "fetch_squad", "plan_transfers"}, names)
	assert.NotNil(t, s.Handler())
}

func TestListPlayersTool(t *testing.T) {
	svc := &optimizerServiceMock{}
	maxPrice := 6.0
	svc.On("ListPlayers", mock.Anything, usecase.ListPlayersInput{Position: "MID", MaxPrice: &maxPrice, Limit: 1}).
		Return([]player.Player{{ID: 7, Name: "Saka", ClubID: 1, ClubName: "ARS", Position: player.PositionMidfielder, Cost: 60, PredictedPoints: 6.789, Status: "a"}}, nil)

	s := NewServer(svc, Config{}, logging.NewNop())
	res, _, err := s.listPlayers(context.Background(), nil, ListPlayersArgs{Position: "MID", MaxPrice: &maxPrice, Limit: 1})
	require.NoError(t, err)
	require.False(t, res.IsError)

	var body struct {
		Count   int `json:"count"`
		Players []struct {
			ID              int64   `json:"id"`
			Price           float64 `json:"price"`
			PredictedPoints float64 `json:"predicted_points"`
		} `json:"players"`
	}
	require.NoError(t, sonic.UnmarshalString(resultText(t, res), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, int64(7), body.Players[0].ID)
	assert.Equal(t, 6.0, body.Players[0].Price)
	assert.Equal(t, 6.79, body.Players[0].PredictedPoints)
}

func TestFetchSquadTool_RequiresTeamID(t *testing.T) {
	svc := &optimizerServiceMock{}
	s := NewServer(svc, Config{}, logging.NewNop())

	res, _, err := s.fetchSquad(context.Background(), nil, FetchSquadArgs{})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "team_id is required")
	svc.AssertNotCalled(t, "FetchCurrentSquad", mock.Anything, mock.Anything)
}

func TestPlanTransfersTool_ReportsServiceErrors(t *testing.T) {
	svc := &optimizerServiceMock{}
	svc.On("PlanTransfers", mock.Anything, mock.Anything).
		Return(usecase.TransferOutput{}, fmt.Errorf("%w: budget too small", optimizer.ErrInfeasibleModel))

	s := NewServer(svc, Config{}, logging.NewNop())
	res, _, err := s.planTransfers(context.Background(), nil, PlanTransfersArgs{TeamID: 9})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	text := resultText(t, res)
	if !strings.HasPrefix(text, "error: ") || !strings.Contains(text, "budget too small") {
		t.Fatalf("unexpected error text: %q", text)
	}
}

func TestOptimizeSquadTool_OverSession(t *testing.T) {
	svc := &optimizerServiceMock{}
	svc.On("SolveSquad", mock.Anything, usecase.SolveSquadInput{Budget: 95}).Return(usecase.SquadOutput{
		RunID: "run-9",
		Result: optimizer.SquadResult{
			TotalCost:       947,
			PredictedPoints: 58.5,
			Budget:          950,
			BudgetRemaining: 3,
			CaptainID:       11,
			ViceCaptainID:   12,
		},
	}, nil)

	ctx := context.Background()
	s := NewServer(svc, Config{Name: "test", Version: "v0"}, logging.NewNop())
	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := s.MCP().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "optimize_squad",
		Arguments: map[string]any{"budget": 95},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	var body map[string]any
	require.NoError(t, sonic.UnmarshalString(resultText(t, res), &body))
	assert.Equal(t, "run-9", body["run_id"])
	assert.EqualValues(t, 94.7, body["total_cost"])
	assert.EqualValues(t, 11, body["captain_id"])
	svc.AssertExpectations(t)
}
