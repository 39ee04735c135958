package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tournament-ledger/internal/service"
)

// TournamentHandler serves tournament listings and joining.
type TournamentHandler struct {
	tournaments *service.TournamentService
}

// NewTournamentHandler creates a new TournamentHandler.
func NewTournamentHandler(tournaments *service.TournamentService) *TournamentHandler {
	return &TournamentHandler{tournaments: tournaments}
}

// List handles GET /api/tournaments.
func (h *TournamentHandler) List(c *gin.Context) {
	ts, err := h.tournaments.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, "OK", ts)
}

// Get handles GET /api/tournaments/:id.
func (h *TournamentHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	t, err := h.tournaments.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, "OK", t)
}

// Join handles POST /api/tournaments/:id/join.
func (h *TournamentHandler) Join(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.tournaments.Join(c.Request.Context(), userID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, "Joined tournament", res)
}
