// Package bot provides the Telegram admin console: request review, airdrops
// and winner declaration from chat, plus alerts for new wallet requests.
package bot

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"tournament-ledger/internal/config"
	"tournament-ledger/internal/service"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot      *tele.Bot
	cfg      *config.Config
	commands *AdminCommands
	notifier *Notifier
}

// Dependencies holds all the dependencies needed by the bot handlers.
type Dependencies struct {
	Config      *config.Config
	Accounts    *service.AccountService
	Tournaments *service.TournamentService
	Wallet      *service.WalletService
}

// New creates a new Bot instance with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			log.Error().Err(err).Str("text", c.Text()).Msg("Bot handler failed")
		},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot:      teleBot,
		cfg:      deps.Config,
		commands: NewAdminCommands(deps.Accounts, deps.Tournaments, deps.Wallet),
		notifier: NewNotifier(teleBot, deps.Config.Admin.TelegramIDs),
	}

	b.registerMiddleware()
	b.registerHandlers()

	return b, nil
}

// registerMiddleware registers all middleware. Every command is admin-only.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(LoggingMiddleware())
	b.bot.Use(AdminMiddleware(b.cfg))
}

// registerHandlers registers all command handlers.
func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", b.commands.HandleHelp)
	b.bot.Handle("/help", b.commands.HandleHelp)
	b.bot.Handle("/pending", b.commands.HandlePending)
	b.bot.Handle("/approve_deposit", b.commands.HandleProcessDeposit(true))
	b.bot.Handle("/reject_deposit", b.commands.HandleProcessDeposit(false))
	b.bot.Handle("/approve_withdrawal", b.commands.HandleProcessWithdrawal(true))
	b.bot.Handle("/reject_withdrawal", b.commands.HandleProcessWithdrawal(false))
	b.bot.Handle("/airdrop", b.commands.HandleAirdrop)
	b.bot.Handle("/winner", b.commands.HandleWinner)
	b.bot.Handle("/user", b.commands.HandleUser)
	b.bot.Handle(tele.OnCallback, b.commands.HandleReviewCallback)
}

// Notifier returns the service.Notifier that alerts the configured admins.
func (b *Bot) Notifier() *Notifier {
	return b.notifier
}

// Start starts the bot polling. It blocks until Stop is called.
func (b *Bot) Start() {
	log.Info().Int("admins", len(b.cfg.Admin.TelegramIDs)).Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}
