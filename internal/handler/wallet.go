package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tournament-ledger/internal/service"
)

// WalletHandler serves deposit and withdrawal requests made by users.
type WalletHandler struct {
	wallet *service.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(wallet *service.WalletService) *WalletHandler {
	return &WalletHandler{wallet: wallet}
}

type depositRequest struct {
	Amount        int64  `json:"amount" binding:"required,gt=0"`
	TransactionID string `json:"transaction_id" binding:"required"`
	Screenshot    string `json:"screenshot_url"`
}

type withdrawalRequest struct {
	Amount int64  `json:"amount" binding:"required,gt=0"`
	QRCode string `json:"qr_code_url"`
}

// RequestDeposit handles POST /api/deposits.
func (h *WalletHandler) RequestDeposit(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req depositRequest
	if !bind(c, &req) {
		return
	}
	dep, err := h.wallet.RequestDeposit(c.Request.Context(), userID, service.DepositInput{
		Amount:         req.Amount,
		TransactionRef: req.TransactionID,
		ScreenshotURL:  req.Screenshot,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusCreated, "Deposit request submitted", dep)
}

// RequestWithdrawal handles POST /api/withdrawals.
func (h *WalletHandler) RequestWithdrawal(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req withdrawalRequest
	if !bind(c, &req) {
		return
	}
	wd, err := h.wallet.RequestWithdrawal(c.Request.Context(), userID, service.WithdrawalInput{
		Amount:    req.Amount,
		QRCodeURL: req.QRCode,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusCreated, "Withdrawal request submitted", wd)
}
