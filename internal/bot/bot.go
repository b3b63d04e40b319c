// Package bot provides the Telegram bot initialization and handler registration.
package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-arena-bot/internal/config"
	"telegram-arena-bot/internal/handler"
	"telegram-arena-bot/internal/repository"
	"telegram-arena-bot/internal/service"
	"telegram-arena-bot/internal/session"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot *tele.Bot
	cfg *config.Config

	accountHandler  *handler.AccountHandler
	transferHandler *handler.TransferHandler
	gameHandler     *handler.GameHandler
}

// Dependencies holds everything the bot handlers need.
type Dependencies struct {
	Config          *config.Config
	AccountService  *service.AccountService
	TransferService *service.TransferService
	StatRepo        *repository.GameStatRepository
	Manager         *session.Manager
	GameKinds       []string
}

// NewClient creates the raw telebot instance. It is created before the
// Bot so the session manager's notifier can be built on top of it.
func NewClient(token string) (*tele.Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	return tele.NewBot(pref)
}

// New wires handlers and middleware onto an existing telebot instance.
func New(client *tele.Bot, deps *Dependencies) *Bot {
	b := &Bot{
		bot: client,
		cfg: deps.Config,
	}

	b.accountHandler = handler.NewAccountHandler(deps.AccountService, deps.StatRepo)
	b.transferHandler = handler.NewTransferHandler(deps.AccountService, deps.TransferService)
	b.gameHandler = handler.NewGameHandler(deps.AccountService, deps.Manager)

	b.registerMiddleware()
	b.registerHandlers(deps.GameKinds)

	return b
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(WhitelistMiddleware(b.cfg))
	b.bot.Use(LoggingMiddleware())
	b.bot.Use(RecoveryMiddleware())
}

// registerHandlers registers all command and callback handlers.
func (b *Bot) registerHandlers(gameKinds []string) {
	// Account handlers
	b.bot.Handle("/start", b.accountHandler.HandleStart)
	b.bot.Handle("/balance", b.accountHandler.HandleBalance)
	b.bot.Handle("/daily", b.accountHandler.HandleDaily)
	b.bot.Handle("/top", b.accountHandler.HandleTop)
	b.bot.Handle("/stats", b.accountHandler.HandleStats)

	// Transfer handler
	b.bot.Handle("/pay", b.transferHandler.HandlePay)

	// One challenge command per registered game kind
	for _, kind := range gameKinds {
		b.bot.Handle("/"+kind, b.gameHandler.HandleChallenge(kind))
	}
	b.bot.Handle("/stopgame", b.gameHandler.HandleStop)

	// Session accept/decline buttons
	b.bot.Handle(tele.OnCallback, b.handleCallback)
}

// handleCallback routes callbacks to the owning handler.
func (b *Bot) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		return nil
	}

	data := strings.TrimPrefix(callback.Data, "\f")
	if strings.HasPrefix(data, "gs_") {
		return b.gameHandler.HandleSessionCallback(c)
	}

	log.Debug().Str("data", data).Msg("Unroutable callback ignored")
	return c.Respond()
}

// Start starts the bot polling.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}
