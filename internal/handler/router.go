// Package handler provides the HTTP API on gin.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"tournament-ledger/internal/handler/middleware"
	"tournament-ledger/internal/pkg/validation"
	"tournament-ledger/internal/service"
)

// Pinger reports whether the ledger store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds everything the HTTP handlers need.
type Dependencies struct {
	Accounts       *service.AccountService
	Tournaments    *service.TournamentService
	Wallet         *service.WalletService
	Settings       *service.SettingsService
	Sessions       middleware.TokenParser
	Store          Pinger
	TrustedProxies []string
}

// NewRouter builds the gin engine with every API route registered.
func NewRouter(deps *Dependencies) (*gin.Engine, error) {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		validation.UseJSONNames(v)
	}

	r := gin.New()
	if err := r.SetTrustedProxies(deps.TrustedProxies); err != nil {
		return nil, err
	}
	r.Use(middleware.RequestID(), middleware.Logger(), middleware.Recovery())

	accounts := NewAccountHandler(deps.Accounts, deps.Tournaments, deps.Wallet)
	tournaments := NewTournamentHandler(deps.Tournaments)
	wallet := NewWalletHandler(deps.Wallet)
	admin := NewAdminHandler(deps.Accounts, deps.Tournaments, deps.Wallet, deps.Settings)

	r.GET("/healthz", healthz(deps.Store))

	api := r.Group("/api")
	api.POST("/auth/register", accounts.Register)
	api.POST("/auth/login", accounts.Login)
	api.GET("/tournaments", tournaments.List)
	api.GET("/tournaments/:id", tournaments.Get)
	api.GET("/settings", admin.GetSettings)

	user := api.Group("")
	user.Use(middleware.Auth(deps.Sessions))
	user.POST("/auth/logout", accounts.Logout)
	user.GET("/me", accounts.Me)
	user.PATCH("/me", accounts.UpdateProfile)
	user.GET("/me/transactions", accounts.Transactions)
	user.GET("/me/tournaments", accounts.Tournaments)
	user.GET("/me/deposits", accounts.Deposits)
	user.GET("/me/withdrawals", accounts.Withdrawals)
	user.POST("/deposits", wallet.RequestDeposit)
	user.POST("/withdrawals", wallet.RequestWithdrawal)
	user.POST("/tournaments/:id/join", tournaments.Join)

	adminGroup := api.Group("/admin")
	adminGroup.Use(middleware.Auth(deps.Sessions), middleware.AdminOnly(deps.Accounts))
	adminGroup.GET("/users", admin.ListUsers)
	adminGroup.DELETE("/users/:id", admin.DeleteUser)
	adminGroup.POST("/users/:id/coins", admin.AddCoins)
	adminGroup.POST("/tournaments", admin.CreateTournament)
	adminGroup.PUT("/tournaments/:id", admin.UpdateTournament)
	adminGroup.DELETE("/tournaments/:id", admin.DeleteTournament)
	adminGroup.POST("/tournaments/:id/winner", admin.DeclareWinner)
	adminGroup.GET("/deposits", admin.ListDeposits)
	adminGroup.POST("/deposits/:id/process", admin.ProcessDeposit)
	adminGroup.GET("/withdrawals", admin.ListWithdrawals)
	adminGroup.POST("/withdrawals/:id/process", admin.ProcessWithdrawal)
	adminGroup.PUT("/settings", admin.UpdateSettings)

	return r, nil
}

func healthz(store Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			writeFailure(c, http.StatusServiceUnavailable, "Store unavailable", err.Error())
			return
		}
		writeSuccess(c, http.StatusOK, "OK", nil)
	}
}
