package controllers

import (
	"log"
	"net/http"

	"flamematch_server/services"
)

// MediaController hands out presigned bucket URLs.
type MediaController struct {
	MediaService *services.MediaService
}

func NewMediaController(service *services.MediaService) *MediaController {
	return &MediaController{MediaService: service}
}

type uploadURLRequest struct {
	Kind     string `json:"kind" validate:"required,oneof=photo voice chat selfie"`
	FileName string `json:"fileName" validate:"required"`
	FileType string `json:"fileType" validate:"required"`
}

// GeneratePresignedURL generates a presigned URL for uploads
func (c *MediaController) GeneratePresignedURL(w http.ResponseWriter, r *http.Request) {
	var req uploadURLRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ticket, err := c.MediaService.UploadURL(r.Context(), sessionFrom(r), req.Kind, req.FileName, req.FileType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.Printf("✅ Presigned upload URL generated for %s", ticket.Key)
	writeJSON(w, http.StatusOK, ticket)
}

// GetPresignedReadURL generates a presigned URL for reading objects
func (c *MediaController) GetPresignedReadURL(w http.ResponseWriter, r *http.Request) {
	var req mediaKeyRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	url, err := c.MediaService.ReadURL(r.Context(), sessionFrom(r), req.Key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
