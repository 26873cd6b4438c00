package routes

import (
	"github.com/gorilla/mux"

	"flamematch_server/controllers"
	"flamematch_server/services"
)

// RegisterAuthRoutes exposes the dev token endpoint under /api/auth.
// Only call this for local runs.
func RegisterAuthRoutes(r *mux.Router, auth *services.Authenticator) {
	controller := controllers.NewAuthController(auth)

	authRouter := r.PathPrefix("/api/auth").Subrouter()
	authRouter.HandleFunc("/dev-token", controller.IssueDevToken).Methods("POST")
}
