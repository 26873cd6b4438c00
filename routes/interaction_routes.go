package routes

import (
	"github.com/gorilla/mux"

	"flamematch_server/controllers"
	"flamematch_server/services"
)

// RegisterInteractionRoutes sets up like/pass routes under /api/interactions
func RegisterInteractionRoutes(r *mux.Router, authMW mux.MiddlewareFunc, interactions *services.InteractionService) {
	controller := controllers.NewInteractionController(interactions)

	interactionRouter := r.PathPrefix("/api/interactions").Subrouter()
	interactionRouter.Use(authMW)

	interactionRouter.HandleFunc("/like", controller.HandleLikeUser).Methods("POST")
	interactionRouter.HandleFunc("/pass", controller.HandlePassUser).Methods("POST")
	interactionRouter.HandleFunc("/received", controller.HandleLikesReceived).Methods("GET")
}
