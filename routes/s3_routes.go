package routes

import (
	"github.com/gorilla/mux"

	"flamematch_server/controllers"
	"flamematch_server/services"
)

// RegisterS3Routes sets up presigned URL routes under /api/media
func RegisterS3Routes(r *mux.Router, authMW mux.MiddlewareFunc, media *services.MediaService) {
	controller := controllers.NewMediaController(media)

	mediaRouter := r.PathPrefix("/api/media").Subrouter()
	mediaRouter.Use(authMW)

	mediaRouter.HandleFunc("/upload-url", controller.GeneratePresignedURL).Methods("POST")
	mediaRouter.HandleFunc("/read-url", controller.GetPresignedReadURL).Methods("POST")
}
