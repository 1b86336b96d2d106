// Package mcpapi exposes the optimizer operations as MCP tools.
package mcpapi

import (
	"context"
	"fmt"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valyala/bytebufferpool"

	"github.com/riskibarqy/fpl-optimizer/internal/domain/player"
	"github.com/riskibarqy/fpl-optimizer/internal/interfaces/dto"
	"github.com/riskibarqy/fpl-optimizer/internal/platform/logging"
	"github.com/riskibarqy/fpl-optimizer/internal/usecase"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("fpl-optimizer/internal/interfaces/mcpapi")

// OptimizerService is the use case surface exposed to agents.
type OptimizerService interface {
	SolveSquad(ctx context.Context, input usecase.SolveSquadInput) (usecase.SquadOutput, error)
	PlanTransfers(ctx context.Context, input usecase.PlanTransfersInput) (usecase.TransferOutput, error)
	FetchCurrentSquad(ctx context.Context, teamID int64) (usecase.CurrentSquadOutput, error)
	ListPlayers(ctx context.Context, input usecase.ListPlayersInput) ([]player.Player, error)
}

type ListPlayersArgs struct {
	Position      string   `json:"position,omitempty" jsonschema:"GK, DEF, MID or FWD; empty for all positions"`
	MaxPrice      *float64 `json:"max_price,omitempty" jsonschema:"Maximum price in millions (default 15.0)"`
	OnlyAvailable *bool    `json:"only_available,omitempty" jsonschema:"Only players with status a (default true)"`
	Limit         int      `json:"limit,omitempty" jsonschema:"Maximum rows, 1..500 (default 50)"`
}

type OptimizeSquadArgs struct {
	Budget float64 `json:"budget,omitempty" jsonschema:"Squad budget in millions (default 100.0)"`
}

type FetchSquadArgs struct {
	TeamID int64 `json:"team_id" jsonschema:"FPL team (entry) id"`
}

type PlanTransfersArgs struct {
	TeamID          int64   `json:"team_id,omitempty" jsonschema:"FPL team id; the current squad, bank and free transfers are fetched from FPL"`
	CurrentSquadIDs []int64 `json:"current_squad_ids,omitempty" jsonschema:"Explicit current squad player ids when team_id is not given"`
	Bank            float64 `json:"bank,omitempty" jsonschema:"Money in the bank in millions, used with current_squad_ids"`
	FreeTransfers   *int    `json:"free_transfers,omitempty" jsonschema:"Free transfers available (default 1)"`
	HitCost         *int    `json:"hit_cost,omitempty" jsonschema:"Points deducted per extra transfer (default 4)"`
	LockedPlayerIDs []int64 `json:"locked_player_ids,omitempty" jsonschema:"Current squad players that must be kept"`
}

type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Config struct {
	Name    string
	Version string
}

type Server struct {
	svc    OptimizerService
	server *mcp.Server
	tools  []ToolInfo
	logger *logging.Logger
}

func NewServer(svc OptimizerService, cfg Config, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Name == "" {
		cfg.Name = "fpl-optimizer"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	s := &Server{
		svc:    svc,
		server: mcp.NewServer(&mcp.Implementation{Name: cfg.Name, Version: cfg.Version}, nil),
		logger: logger,
	}

	addTool(s, &mcp.Tool{
		Name:        "list_players",
		Description: "List pool players by predicted points, filtered by position, price and availability",
	}, s.listPlayers)
	addTool(s, &mcp.Tool{
		Name:        "optimize_squad",
		Description: "Pick the 15-player squad and starting XI that maximize predicted points within a budget",
	}, s.optimizeSquad)
	addTool(s, &mcp.Tool{
		Name:        "fetch_squad",
		Description: "Fetch an FPL team's current squad, bank and free transfers",
	}, s.fetchSquad)
	addTool(s, &mcp.Tool{
		Name:        "plan_transfers",
		Description: "Plan transfers for the next gameweek, trading predicted points against hits",
	}, s.planTransfers)

	return s
}

func addTool[T any](s *Server, tool *mcp.Tool, handler func(context.Context, *mcp.CallToolRequest, T) (*mcp.CallToolResult, any, error)) {
	s.tools = append(s.tools, ToolInfo{Name: tool.Name, Description: tool.Description})
	mcp.AddTool(s.server, tool, handler)
}

// MCP returns the underlying server.
func (s *Server) MCP() *mcp.Server {
	return s.server
}

func (s *Server) Tools() []ToolInfo {
	return append([]ToolInfo(nil), s.tools...)
}

// Handler serves the tools over streamable HTTP with plain JSON responses.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
}

func (s *Server) listPlayers(ctx context.Context, _ *mcp.CallToolRequest, args ListPlayersArgs) (*mcp.CallToolResult, any, error) {
	ctx, span := tracer.Start(ctx, "mcpapi.listPlayers")
	defer span.End()

	players, err := s.svc.ListPlayers(ctx, usecase.ListPlayersInput{
		Position:      args.Position,
		MaxPrice:      args.MaxPrice,
		OnlyAvailable: args.OnlyAvailable,
		Limit:         args.Limit,
	})
	if err != nil {
		return s.toolError(ctx, "list_players", err), nil, nil
	}
	return toolJSON(dto.FromPlayerList(players)), nil, nil
}

func (s *Server) optimizeSquad(ctx context.Context, _ *mcp.CallToolRequest, args OptimizeSquadArgs) (*mcp.CallToolResult, any, error) {
	ctx, span := tracer.Start(ctx, "mcpapi.optimizeSquad")
	defer span.End()

	out, err := s.svc.SolveSquad(ctx, usecase.SolveSquadInput{Budget: args.Budget})
	if err != nil {
		return s.toolError(ctx, "optimize_squad", err), nil, nil
	}
	return toolJSON(dto.FromSquadOutput(out)), nil, nil
}

func (s *Server) fetchSquad(ctx context.Context, _ *mcp.CallToolRequest, args FetchSquadArgs) (*mcp.CallToolResult, any, error) {
	ctx, span := tracer.Start(ctx, "mcpapi.fetchSquad")
	defer span.End()

	if args.TeamID <= 0 {
		return s.toolError(ctx, "fetch_squad", fmt.Errorf("%w: team_id is required", usecase.ErrInvalidInput)), nil, nil
	}
	out, err := s.svc.FetchCurrentSquad(ctx, args.TeamID)
	if err != nil {
		return s.toolError(ctx, "fetch_squad", err), nil, nil
	}
	return toolJSON(dto.FromCurrentSquad(out)), nil, nil
}

func (s *Server) planTransfers(ctx context.Context, _ *mcp.CallToolRequest, args PlanTransfersArgs) (*mcp.CallToolResult, any, error) {
	ctx, span := tracer.Start(ctx, "mcpapi.planTransfers")
	defer span.End()

	out, err := s.svc.PlanTransfers(ctx, usecase.PlanTransfersInput{
		TeamID:          args.TeamID,
		CurrentSquadIDs: args.CurrentSquadIDs,
		Bank:            args.Bank,
		FreeTransfers:   args.FreeTransfers,
		HitCost:         args.HitCost,
		LockedIDs:       args.LockedPlayerIDs,
	})
	if err != nil {
		return s.toolError(ctx, "plan_transfers", err), nil, nil
	}
	return toolJSON(dto.FromTransferOutput(out)), nil, nil
}

func (s *Server) toolError(ctx context.Context, tool string, err error) *mcp.CallToolResult {
	s.logger.WarnContext(ctx, "mcp tool failed", "tool", tool, "error", err)
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)},
		},
	}
}

func toolJSON(v any) *mcp.CallToolResult {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(v); err != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("error: encode result: %v", err)},
			},
		}
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: buf.String()},
		},
	}
}
