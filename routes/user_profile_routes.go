package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"flamematch_server/controllers"
	"flamematch_server/services"
)

// RegisterUserProfileRoutes sets up routes for user profile operations under /api/profiles
func RegisterUserProfileRoutes(r *mux.Router, authMW mux.MiddlewareFunc, profiles *services.UserProfileService, verification *services.VerificationService) {
	controller := controllers.NewUserProfileController(profiles, verification)

	r.Handle("/api/plans", authMW(http.HandlerFunc(controller.GetPlans))).Methods("GET")

	profileRouter := r.PathPrefix("/api/profiles").Subrouter()
	profileRouter.Use(authMW)

	profileRouter.HandleFunc("", controller.CreateUserProfile).Methods("POST")
	profileRouter.HandleFunc("/me", controller.GetMyProfile).Methods("GET")
	profileRouter.HandleFunc("/me", controller.UpdateUserProfile).Methods("PATCH")
	profileRouter.HandleFunc("/me/location", controller.UpdateLocation).Methods("PUT")
	profileRouter.HandleFunc("/me/device-token", controller.UpdateDeviceToken).Methods("PUT")
	profileRouter.HandleFunc("/me/photos", controller.AddPhoto).Methods("POST")
	profileRouter.HandleFunc("/me/voice", controller.SetVoiceVibe).Methods("PUT")
	profileRouter.HandleFunc("/me/plan", controller.SetPremiumPlan).Methods("PUT")
	profileRouter.HandleFunc("/me/verify", controller.VerifySelfie).Methods("POST")
	profileRouter.HandleFunc("/{userId}", controller.GetUserProfileByID).Methods("GET")
}
