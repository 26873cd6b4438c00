package controllers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"flamematch_server/services"
)

// MatchController handles HTTP requests for discovery and matches
type MatchController struct {
	DiscoveryService *services.DiscoveryService
	MatchService     *services.MatchService
	// DefaultLimit is the feed size used when the request has none.
	DefaultLimit int
}

// NewMatchController creates a new MatchController instance
func NewMatchController(discovery *services.DiscoveryService, matches *services.MatchService, defaultLimit int) *MatchController {
	return &MatchController{DiscoveryService: discovery, MatchService: matches, DefaultLimit: defaultLimit}
}

// GetCandidates returns the caller's discovery feed.
func (c *MatchController) GetCandidates(w http.ResponseWriter, r *http.Request) {
	limit := c.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, services.ErrInvalidArgument)
			return
		}
		limit = n
	}

	profiles, err := c.DiscoveryService.GetCandidates(r.Context(), sessionFrom(r), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profiles": profiles})
}

// GetCurrentMatches handles fetching current matches for the caller
func (c *MatchController) GetCurrentMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := c.MatchService.ListMatches(r.Context(), sessionFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": matches})
}

// GetMatch returns one match the caller participates in.
func (c *MatchController) GetMatch(w http.ResponseWriter, r *http.Request) {
	match, err := c.MatchService.GetMatch(r.Context(), sessionFrom(r), mux.Vars(r)["matchId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}
