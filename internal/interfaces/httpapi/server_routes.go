package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerOptimizerRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/players", handler.ListPlayers)
	mux.HandleFunc("POST /v1/squad/optimize", handler.OptimizeSquad)
	mux.HandleFunc("GET /v1/transfers/squad/{teamID}", handler.FetchCurrentSquad)
	mux.HandleFunc("POST /v1/transfers/optimize", handler.PlanTransfers)
}
