package controllers

import (
	"net/http"
	"time"

	"flamematch_server/services"
)

// AuthController issues identity tokens for local development. It is only
// routed when the server runs in the local environment.
type AuthController struct {
	Auth *services.Authenticator
}

func NewAuthController(auth *services.Authenticator) *AuthController {
	return &AuthController{Auth: auth}
}

type devTokenRequest struct {
	UserID string `json:"userId" validate:"required,max=128"`
}

// IssueDevToken signs a token for the requested user id.
func (c *AuthController) IssueDevToken(w http.ResponseWriter, r *http.Request) {
	var req devTokenRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	token, err := c.Auth.IssueToken(req.UserID, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token, "userId": req.UserID})
}
