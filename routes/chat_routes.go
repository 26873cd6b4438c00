package routes

import (
	"github.com/gorilla/mux"

	"flamematch_server/controllers"
	"flamematch_server/services"
)

// RegisterChatRoutes sets up routes for chat-related operations under /api/chat
func RegisterChatRoutes(r *mux.Router, authMW mux.MiddlewareFunc, chatService *services.ChatService) {
	controller := controllers.NewChatController(chatService)

	chatRouter := r.PathPrefix("/api/chat").Subrouter()
	chatRouter.Use(authMW)

	chatRouter.HandleFunc("/{matchId}/messages", controller.HandleSendMessage).Methods("POST")
	chatRouter.HandleFunc("/{matchId}/messages", controller.HandleGetMessages).Methods("GET")
	chatRouter.HandleFunc("/{matchId}/read", controller.HandleMarkMessagesAsRead).Methods("POST")
}
