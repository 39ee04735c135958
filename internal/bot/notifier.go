package bot

import (
	"fmt"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"tournament-ledger/internal/model"
)

// Sender delivers a message to a chat. *tele.Bot implements it.
type Sender interface {
	Send(to tele.Recipient, what any, opts ...any) (*tele.Message, error)
}

// Notifier alerts the Telegram admins when a wallet request awaits review.
type Notifier struct {
	sender Sender
	admins []int64
}

// NewNotifier creates a Notifier that messages every admin id.
func NewNotifier(sender Sender, admins []int64) *Notifier {
	return &Notifier{sender: sender, admins: admins}
}

// DepositRequested implements service.Notifier.
func (n *Notifier) DepositRequested(user *model.User, req *model.DepositRequest) {
	n.broadcast(fmt.Sprintf(
		"📥 New deposit #%d\n\n"+
			"👤 %s (ID: %d)\n"+
			"💰 %d coins\n"+
			"🧾 Ref: %s\n\n"+
			"/approve_deposit %d\n/reject_deposit %d",
		req.ID, user.Username, user.ID, req.Amount, req.TransactionRef, req.ID, req.ID,
	), BuildDepositPanel(req.ID))
}

// WithdrawalRequested implements service.Notifier.
func (n *Notifier) WithdrawalRequested(user *model.User, req *model.WithdrawalRequest) {
	n.broadcast(fmt.Sprintf(
		"📤 New withdrawal #%d\n\n"+
			"👤 %s (ID: %d)\n"+
			"💰 %d coins\n"+
			"💼 Balance after hold: %d coins\n\n"+
			"/approve_withdrawal %d\n/reject_withdrawal %d",
		req.ID, user.Username, user.ID, req.Amount, user.WalletBalance, req.ID, req.ID,
	), BuildWithdrawalPanel(req.ID))
}

func (n *Notifier) broadcast(text string, markup *tele.ReplyMarkup) {
	for _, id := range n.admins {
		if _, err := n.sender.Send(&tele.User{ID: id}, text, markup); err != nil {
			log.Warn().Err(err).Int64("telegram_id", id).Msg("Failed to notify admin")
		}
	}
}
