package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tournament-ledger/internal/model"
	"tournament-ledger/internal/service"
)

// AdminHandler serves the admin console: users, tournaments, requests and settings.
type AdminHandler struct {
	accounts    *service.AccountService
	tournaments *service.TournamentService
	wallet      *service.WalletService
	settings    *service.SettingsService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(accounts *service.AccountService, tournaments *service.TournamentService, wallet *service.WalletService, settings *service.SettingsService) *AdminHandler {
	return &AdminHandler{accounts: accounts, tournaments: tournaments, wallet: wallet, settings: settings}
}

type coinsRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

type tournamentRequest struct {
	Title        string `json:"title" binding:"required"`
	GameName     string `json:"game_name" binding:"required"`
	EntryFee     int64  `json:"entry_fee" binding:"gte=0"`
	PrizePool    int64  `json:"prize_pool" binding:"gte=0"`
	MatchTime    string `json:"match_time"`
	RoomID       string `json:"room_id"`
	RoomPassword string `json:"room_password"`
}

type tournamentPatch struct {
	Title        *string `json:"title"`
	GameName     *string `json:"game_name"`
	EntryFee     *int64  `json:"entry_fee" binding:"omitempty,gte=0"`
	PrizePool    *int64  `json:"prize_pool" binding:"omitempty,gte=0"`
	MatchTime    *string `json:"match_time"`
	RoomID       *string `json:"room_id"`
	RoomPassword *string `json:"room_password"`
}

type winnerRequest struct {
	UserID int64 `json:"user_id" binding:"required,gt=0"`
}

type processRequest struct {
	Approve *bool `json:"approve" binding:"required"`
}

// processResult reports whether a process call moved the request.
type processResult struct {
	Request any  `json:"request"`
	Changed bool `json:"changed"`
}

// ListUsers handles GET /api/admin/users.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.accounts.ListUsers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, "OK", users)
}

// DeleteUser handles DELETE /api/admin/users/:id.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.accounts.DeleteUser(c.Request.Context(), adminID, id); err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, "User deleted", nil)
}

// AddCoins handles POST /api/admin/users/:id/coins.
func (h *AdminHandler) AddCoins(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req coinsRequest
	if !bind(c, &req) {
		return
	}
	user, err := h.wallet.AdminAddCoins(c.Request.Context(), adminID, id, req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, "Coins added", user)
}

// CreateTournament handles POST /api/admin/tournaments.
func (h *AdminHandler) CreateTournament(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	var req tournamentRequest
	if !bind(c, &req) {
		return
	}
	t, err := h.tournaments.Create(c.Request.Context(), adminID, service.TournamentInput(req))
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusCreated, "Tournament created", t)
}

// UpdateTournament handles PUT /api/admin/tournaments/:id.
func (h *AdminHandler) UpdateTournament(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req tournamentPatch
	if !bind(c, &req) {
		return
	}
	t, err := h.tournaments.Update(c.Request.Context(), adminID, id, service.TournamentUpdate(req))
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, "Tournament updated", t)
}

// DeleteTournament handles DELETE /api/admin/tournaments/:id.
func (h *AdminHandler) DeleteTournament(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.tournaments.Delete(c.Request.Context(), adminID, id); err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, "Tournament deleted", nil)
}

// DeclareWinner handles POST /api/admin/tournaments/:id/winner.
func (h *AdminHandler) DeclareWinner(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req winnerRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.tournaments.DeclareWinner(c.Request.Context(), adminID, id, req.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, "Winner declared", res)
}

// ListDeposits handles GET /api/admin/deposits.
func (h *AdminHandler) ListDeposits(c *gin.Context) {
	status, ok := statusFilter(c)
	if !ok {
		return
	}
	reqs, err := h.wallet.Deposits(c.Request.Context(), model.RequestFilter{Status: status})
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, "OK", reqs)
}

// ProcessDeposit handles POST /api/admin/deposits/:id/process.
func (h *AdminHandler) ProcessDeposit(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req processRequest
	if !bind(c, &req) {
		return
	}
	dep, changed, err := h.wallet.ProcessDeposit(c.Request.Context(), adminID, id, *req.Approve)
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, processMessage(changed), processResult{Request: dep, Changed: changed})
}

// ListWithdrawals handles GET /api/admin/withdrawals.
func (h *AdminHandler) ListWithdrawals(c *gin.Context) {
	status, ok := statusFilter(c)
	if !ok {
		return
	}
	reqs, err := h.wallet.Withdrawals(c.Request.Context(), model.RequestFilter{Status: status})
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, "OK", reqs)
}

// ProcessWithdrawal handles POST /api/admin/withdrawals/:id/process.
func (h *AdminHandler) ProcessWithdrawal(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req processRequest
	if !bind(c, &req) {
		return
	}
	wd, changed, err := h.wallet.ProcessWithdrawal(c.Request.Context(), adminID, id, *req.Approve)
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, processMessage(changed), processResult{Request: wd, Changed: changed})
}

func processMessage(changed bool) string {
	if changed {
		return "Request processed"
	}
	return "Request already processed"
}

// GetSettings handles GET /api/settings.
func (h *AdminHandler) GetSettings(c *gin.Context) {
	s, err := h.settings.Get(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, "OK", s)
}

// UpdateSettings handles PUT /api/admin/settings.
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	var req model.AppSettings
	if !bind(c, &req) {
		return
	}
	s, err := h.settings.Update(c.Request.Context(), adminID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, "Settings updated", s)
}
