package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"flamematch_server/controllers"
	"flamematch_server/services"
)

// RegisterMatchRoutes sets up discovery under /api/discover and matches under /api/matches
func RegisterMatchRoutes(r *mux.Router, authMW mux.MiddlewareFunc, discovery *services.DiscoveryService, matches *services.MatchService, defaultLimit int) {
	controller := controllers.NewMatchController(discovery, matches, defaultLimit)

	r.Handle("/api/discover", authMW(http.HandlerFunc(controller.GetCandidates))).Methods("GET")

	matchRouter := r.PathPrefix("/api/matches").Subrouter()
	matchRouter.Use(authMW)

	matchRouter.HandleFunc("", controller.GetCurrentMatches).Methods("GET")
	matchRouter.HandleFunc("/{matchId}", controller.GetMatch).Methods("GET")
}
