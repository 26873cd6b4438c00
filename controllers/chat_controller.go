package controllers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"flamematch_server/services"
)

// ChatController struct
type ChatController struct {
	ChatService *services.ChatService
}

// NewChatController initializes the chat controller
func NewChatController(service *services.ChatService) *ChatController {
	return &ChatController{ChatService: service}
}

type sendMessageRequest struct {
	Text     string `json:"text"`
	MediaURL string `json:"mediaUrl"`
	Type     string `json:"type" validate:"omitempty,oneof=text image voice gif icebreaker"`
}

// HandleSendMessage appends a message to a match conversation.
func (c *ChatController) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	msg, err := c.ChatService.AppendMessage(r.Context(), sessionFrom(r), mux.Vars(r)["matchId"], services.OutgoingMessage{
		Text:     req.Text,
		MediaURL: req.MediaURL,
		Type:     req.Type,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// HandleGetMessages returns the newest messages of a match, oldest first.
func (c *ChatController) HandleGetMessages(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, services.ErrInvalidArgument)
			return
		}
		limit = n
	}

	messages, err := c.ChatService.ListMessages(r.Context(), sessionFrom(r), mux.Vars(r)["matchId"], limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

// HandleMarkMessagesAsRead marks messages received by the caller as read
func (c *ChatController) HandleMarkMessagesAsRead(w http.ResponseWriter, r *http.Request) {
	n, err := c.ChatService.MarkRead(r.Context(), sessionFrom(r), mux.Vars(r)["matchId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": n})
}
