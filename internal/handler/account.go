package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tournament-ledger/internal/handler/middleware"
	"tournament-ledger/internal/model"
	"tournament-ledger/internal/service"
)

// AccountHandler serves registration, sessions and the caller's own data.
type AccountHandler struct {
	accounts    *service.AccountService
	tournaments *service.TournamentService
	wallet      *service.WalletService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accounts *service.AccountService, tournaments *service.TournamentService, wallet *service.WalletService) *AccountHandler {
	return &AccountHandler{accounts: accounts, tournaments: tournaments, wallet: wallet}
}

type registerRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
}

type loginRequest struct {
	// Username or phone number.
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type profileRequest struct {
	Username  *string `json:"username" binding:"omitempty,max=50"`
	Email     *string `json:"email" binding:"omitempty,email"`
	Phone     *string `json:"phone"`
	Password  *string `json:"password"`
	AvatarURL *string `json:"avatar_url"`
}

// Register handles POST /api/auth/register.
func (h *AccountHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.accounts.Register(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusCreated, "Registered", res)
}

// Login handles POST /api/auth/login.
func (h *AccountHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, "Logged in", res)
}

// Logout handles POST /api/auth/logout.
func (h *AccountHandler) Logout(c *gin.Context) {
	if err := h.accounts.Logout(c.Request.Context(), middleware.Token(c)); err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, "Logged out", nil)
}

// Me handles GET /api/me.
func (h *AccountHandler) Me(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	user, err := h.accounts.GetUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, "OK", user)
}

// UpdateProfile handles PATCH /api/me.
func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req profileRequest
	if !bind(c, &req) {
		return
	}
	user, err := h.accounts.UpdateProfile(c.Request.Context(), userID, service.ProfileUpdate{
		Username:  req.Username,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, "Profile updated", user)
}

// Transactions handles GET /api/me/transactions.
func (h *AccountHandler) Transactions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	txs, err := h.wallet.Transactions(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, "OK", txs)
}

// Tournaments handles GET /api/me/tournaments.
func (h *AccountHandler) Tournaments(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ts, err := h.tournaments.ListJoined(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, "OK", ts)
}

// Deposits handles GET /api/me/deposits.
func (h *AccountHandler) Deposits(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	status, ok := statusFilter(c)
	if !ok {
		return
	}
	reqs, err := h.wallet.Deposits(c.Request.Context(), model.RequestFilter{UserID: userID, Status: status})
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, "OK", reqs)
}

// Withdrawals handles GET /api/me/withdrawals.
func (h *AccountHandler) Withdrawals(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	status, ok := statusFilter(c)
	if !ok {
		return
	}
	reqs, err := h.wallet.Withdrawals(c.Request.Context(), model.RequestFilter{UserID: userID, Status: status})
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, "OK", reqs)
}
