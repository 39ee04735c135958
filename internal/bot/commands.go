package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"tournament-ledger/internal/model"
	"tournament-ledger/internal/service"
)

const helpText = "🛠 Admin console\n\n" +
	"/pending - list pending requests\n" +
	"/approve_deposit <id> - credit a deposit\n" +
	"/reject_deposit <id> - reject a deposit\n" +
	"/approve_withdrawal <id> - confirm a payout\n" +
	"/reject_withdrawal <id> - refund a withdrawal\n" +
	"/airdrop <user_id> <amount> - add coins\n" +
	"/winner <tournament_id> <user_id> - declare a winner\n" +
	"/user <user_id> - show a wallet"

// AdminCommands handles the admin console commands.
// Ledger operations run as the seeded admin account.
type AdminCommands struct {
	accounts    *service.AccountService
	tournaments *service.TournamentService
	wallet      *service.WalletService
}

// NewAdminCommands creates a new AdminCommands.
func NewAdminCommands(accounts *service.AccountService, tournaments *service.TournamentService, wallet *service.WalletService) *AdminCommands {
	return &AdminCommands{accounts: accounts, tournaments: tournaments, wallet: wallet}
}

// HandleHelp handles /start and /help.
func (h *AdminCommands) HandleHelp(c tele.Context) error {
	return c.Reply(helpText)
}

// HandlePending handles the /pending command.
func (h *AdminCommands) HandlePending(c tele.Context) error {
	ctx := context.Background()
	pending := model.RequestFilter{Status: model.RequestPending}

	deposits, err := h.wallet.Deposits(ctx, pending)
	if err != nil {
		return c.Reply(errorReply(err))
	}
	withdrawals, err := h.wallet.Withdrawals(ctx, pending)
	if err != nil {
		return c.Reply(errorReply(err))
	}
	return c.Reply(formatPending(deposits, withdrawals))
}

// HandleProcessDeposit handles /approve_deposit and /reject_deposit.
// Format: /approve_deposit <request_id>
func (h *AdminCommands) HandleProcessDeposit(approve bool) tele.HandlerFunc {
	return func(c tele.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}
		ids, err := parseArgs(c.Args(), "/"+verb(approve)+"_deposit <request_id>", "request id")
		if err != nil {
			return c.Reply(err.Error())
		}
		return c.Reply(h.processDeposit(sender.ID, ids[0], approve))
	}
}

// HandleProcessWithdrawal handles /approve_withdrawal and /reject_withdrawal.
// Format: /approve_withdrawal <request_id>
func (h *AdminCommands) HandleProcessWithdrawal(approve bool) tele.HandlerFunc {
	return func(c tele.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}
		ids, err := parseArgs(c.Args(), "/"+verb(approve)+"_withdrawal <request_id>", "request id")
		if err != nil {
			return c.Reply(err.Error())
		}
		return c.Reply(h.processWithdrawal(sender.ID, ids[0], approve))
	}
}

// HandleReviewCallback handles the approve/reject buttons of request alerts.
// The alert is edited to show the outcome so other admins see it was handled.
func (h *AdminCommands) HandleReviewCallback(c tele.Context) error {
	callback := c.Callback()
	sender := c.Sender()
	if callback == nil || sender == nil {
		return nil
	}

	action, id, ok := DecodeCallback(callback.Data)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Invalid action"})
	}

	var result string
	switch action {
	case ActionApproveDeposit:
		result = h.processDeposit(sender.ID, id, true)
	case ActionRejectDeposit:
		result = h.processDeposit(sender.ID, id, false)
	case ActionApproveWithdrawal:
		result = h.processWithdrawal(sender.ID, id, true)
	case ActionRejectWithdrawal:
		result = h.processWithdrawal(sender.ID, id, false)
	}

	if err := c.Edit(result); err != nil {
		log.Warn().Err(err).Int64("request_id", id).Msg("Failed to update review message")
	}
	return c.Respond(&tele.CallbackResponse{Text: firstLine(result)})
}

func (h *AdminCommands) processDeposit(telegramID, requestID int64, approve bool) string {
	req, changed, err := h.wallet.ProcessDeposit(context.Background(), service.AdminID, requestID, approve)
	if err != nil {
		return errorReply(err)
	}
	if !changed {
		return fmt.Sprintf("ℹ️ Deposit #%d is already %s", req.ID, req.Status)
	}

	log.Info().
		Int64("telegram_id", telegramID).
		Int64("request_id", req.ID).
		Str("status", string(req.Status)).
		Msg("Deposit processed from Telegram")

	return fmt.Sprintf(
		"✅ Deposit #%d %s\n\n"+
			"👤 User: %d\n"+
			"💰 Amount: %d coins",
		req.ID, req.Status, req.UserID, req.Amount,
	)
}

func (h *AdminCommands) processWithdrawal(telegramID, requestID int64, approve bool) string {
	req, changed, err := h.wallet.ProcessWithdrawal(context.Background(), service.AdminID, requestID, approve)
	if err != nil {
		return errorReply(err)
	}
	if !changed {
		return fmt.Sprintf("ℹ️ Withdrawal #%d is already %s", req.ID, req.Status)
	}

	log.Info().
		Int64("telegram_id", telegramID).
		Int64("request_id", req.ID).
		Str("status", string(req.Status)).
		Msg("Withdrawal processed from Telegram")

	note := "💸 Pay out the amount to the user's QR code"
	if !approve {
		note = "↩️ Amount refunded to the wallet"
	}
	return fmt.Sprintf(
		"✅ Withdrawal #%d %s\n\n"+
			"👤 User: %d\n"+
			"💰 Amount: %d coins\n"+
			"%s",
		req.ID, req.Status, req.UserID, req.Amount, note,
	)
}

// HandleAirdrop handles the /airdrop command.
// Format: /airdrop <user_id> <amount>
func (h *AdminCommands) HandleAirdrop(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	args, err := parseArgs(c.Args(), "/airdrop <user_id> <amount>", "user id", "amount")
	if err != nil {
		return c.Reply(err.Error())
	}
	targetID, amount := args[0], args[1]

	user, err := h.wallet.AdminAddCoins(context.Background(), service.AdminID, targetID, amount)
	if err != nil {
		return c.Reply(errorReply(err))
	}

	log.Info().
		Int64("telegram_id", sender.ID).
		Int64("target_id", targetID).
		Int64("amount", amount).
		Msg("Airdrop sent from Telegram")

	return c.Reply(fmt.Sprintf(
		"✅ Airdrop sent\n\n"+
			"👤 User: %s (ID: %d)\n"+
			"➕ Added: %d coins\n"+
			"💰 Balance: %d coins",
		user.Username, user.ID, amount, user.WalletBalance,
	))
}

// HandleWinner handles the /winner command.
// Format: /winner <tournament_id> <user_id>
func (h *AdminCommands) HandleWinner(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	args, err := parseArgs(c.Args(), "/winner <tournament_id> <user_id>", "tournament id", "user id")
	if err != nil {
		return c.Reply(err.Error())
	}

	res, err := h.tournaments.DeclareWinner(context.Background(), service.AdminID, args[0], args[1])
	if err != nil {
		return c.Reply(errorReply(err))
	}

	log.Info().
		Int64("telegram_id", sender.ID).
		Int64("tournament_id", res.Tournament.ID).
		Int64("user_id", res.Winner.ID).
		Msg("Winner declared from Telegram")

	return c.Reply(fmt.Sprintf(
		"🏆 %s completed\n\n"+
			"👤 Winner: %s (ID: %d)\n"+
			"🎁 Prize: %d coins\n"+
			"💰 Balance: %d coins",
		res.Tournament.Title, res.Winner.Username, res.Winner.ID, res.Tournament.PrizePool, res.Winner.WalletBalance,
	))
}

// HandleUser handles the /user command.
// Format: /user <user_id>
func (h *AdminCommands) HandleUser(c tele.Context) error {
	args, err := parseArgs(c.Args(), "/user <user_id>", "user id")
	if err != nil {
		return c.Reply(err.Error())
	}
	ctx := context.Background()

	user, err := h.accounts.GetUser(ctx, args[0])
	if err != nil {
		return c.Reply(errorReply(err))
	}
	txs, err := h.wallet.Transactions(ctx, user.ID)
	if err != nil {
		return c.Reply(errorReply(err))
	}
	return c.Reply(formatUser(user, txs))
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func verb(approve bool) string {
	if approve {
		return "approve"
	}
	return "reject"
}

// parseArgs parses one positive integer argument per name.
func parseArgs(args []string, usage string, names ...string) ([]int64, error) {
	if len(args) < len(names) {
		return nil, fmt.Errorf("❌ Usage: %s", usage)
	}
	out := make([]int64, len(names))
	for i, name := range names {
		v, err := strconv.ParseInt(args[i], 10, 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("❌ Invalid %s, expected a positive number", name)
		}
		out[i] = v
	}
	return out, nil
}

// errorReply turns a service error into a chat message. Infrastructure
// errors are logged and replaced with a generic message.
func errorReply(err error) string {
	if model.ErrorKind(err) == nil {
		log.Error().Err(err).Msg("Admin command failed")
		return "❌ Operation failed, please try again later"
	}
	return "❌ " + err.Error()
}

const maxListed = 20

func formatPending(deposits []*model.DepositRequest, withdrawals []*model.WithdrawalRequest) string {
	if len(deposits) == 0 && len(withdrawals) == 0 {
		return "✅ No pending requests"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📥 Pending deposits: %d\n", len(deposits))
	for i, d := range deposits {
		if i == maxListed {
			fmt.Fprintf(&sb, "  … and %d more\n", len(deposits)-maxListed)
			break
		}
		fmt.Fprintf(&sb, "  #%d user %d: %d coins (ref %s)\n", d.ID, d.UserID, d.Amount, d.TransactionRef)
	}
	fmt.Fprintf(&sb, "\n📤 Pending withdrawals: %d\n", len(withdrawals))
	for i, w := range withdrawals {
		if i == maxListed {
			fmt.Fprintf(&sb, "  … and %d more\n", len(withdrawals)-maxListed)
			break
		}
		fmt.Fprintf(&sb, "  #%d user %d: %d coins\n", w.ID, w.UserID, w.Amount)
	}
	return strings.TrimRight(sb.String(), "\n")
}

const recentTransactions = 5

func formatUser(u *model.User, txs []*model.Transaction) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "👤 %s (ID: %d)\n📱 %s\n💰 Balance: %d coins", u.Username, u.ID, u.Phone, u.WalletBalance)
	if len(txs) == 0 {
		return sb.String()
	}
	sb.WriteString("\n\n📜 Recent:")
	for _, tx := range txs[:min(len(txs), recentTransactions)] {
		sign := "+"
		if tx.Type == model.TxDebit {
			sign = "-"
		}
		fmt.Fprintf(&sb, "\n  %s%d %s", sign, tx.Amount, tx.Description)
	}
	return sb.String()
}
