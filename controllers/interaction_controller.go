package controllers

import (
	"log"
	"net/http"

	"flamematch_server/services"
)

// InteractionController struct
type InteractionController struct {
	InteractionService *services.InteractionService
}

// NewInteractionController initializes the controller
func NewInteractionController(service *services.InteractionService) *InteractionController {
	return &InteractionController{InteractionService: service}
}

type likeRequest struct {
	TargetID  string  `json:"targetId" validate:"required"`
	SuperLike bool    `json:"superLike"`
	Message   *string `json:"message" validate:"omitempty,max=300"`
}

// HandleLikeUser - User likes another user
func (c *InteractionController) HandleLikeUser(w http.ResponseWriter, r *http.Request) {
	var req likeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := c.InteractionService.RecordLike(r.Context(), sessionFrom(r), req.TargetID, req.SuperLike, req.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if result.Matched {
		log.Printf("💘 Like on %s completed match %s", req.TargetID, result.Match.MatchID)
	}
	writeJSON(w, http.StatusOK, result)
}

type passRequest struct {
	TargetID string `json:"targetId" validate:"required"`
}

// HandlePassUser - User passes on another user
func (c *InteractionController) HandlePassUser(w http.ResponseWriter, r *http.Request) {
	var req passRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := c.InteractionService.RecordPass(r.Context(), sessionFrom(r), req.TargetID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "User passed"})
}

// HandleLikesReceived lists pending likes targeting the caller.
func (c *InteractionController) HandleLikesReceived(w http.ResponseWriter, r *http.Request) {
	likes, err := c.InteractionService.LikesReceived(r.Context(), sessionFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"likes": likes})
}
