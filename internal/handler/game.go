package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-arena-bot/internal/service"
	"telegram-arena-bot/internal/session"
)

// Callback data prefixes for the wager session buttons. The session id
// rides after the separator so a stale button press is matched against
// the store instead of trusting the rendered message.
const (
	CallbackAccept  = "gs_accept"
	CallbackDecline = "gs_decline"
)

// GameHandler handles wager session commands and callbacks.
type GameHandler struct {
	accountService *service.AccountService
	manager        *session.Manager
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(accountService *service.AccountService, manager *session.Manager) *GameHandler {
	return &GameHandler{
		accountService: accountService,
		manager:        manager,
	}
}

// HandleChallenge returns a handler for one game kind. Usage: reply to
// the opponent's message with /<kind> <stake>.
func (h *GameHandler) HandleChallenge(kind string) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := context.Background()
		sender := c.Sender()
		chat := c.Chat()
		if sender == nil || chat == nil {
			return nil
		}

		msg := c.Message()
		if msg == nil || msg.ReplyTo == nil || msg.ReplyTo.Sender == nil {
			return c.Reply(fmt.Sprintf("❌ 用法: 回复对手的消息，发送 /%s 赌注", kind))
		}
		target := msg.ReplyTo.Sender

		var stake int64
		if args := c.Args(); len(args) > 0 {
			parsed, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || parsed < 0 {
				return c.Reply("❌ 赌注格式错误，请输入非负整数")
			}
			stake = parsed
		}

		// Register both sides before opening the session
		if _, _, err := h.accountService.EnsureUser(ctx, sender.ID, displayName(sender)); err != nil {
			return c.Reply("❌ 操作失败，请稍后重试")
		}
		if !target.IsBot {
			if _, _, err := h.accountService.EnsureUser(ctx, target.ID, displayName(target)); err != nil {
				return c.Reply("❌ 对方未注册")
			}
		}

		_, err := h.manager.Create(ctx, session.CreateRequest{
			ChatID:         chat.ID,
			ChallengerID:   sender.ID,
			ChallengerName: displayName(sender),
			TargetID:       target.ID,
			TargetName:     displayName(target),
			TargetIsBot:    target.IsBot,
			Game:           kind,
			Stake:          stake,
		})
		if err != nil {
			return c.Reply("❌ " + rejectionText(err))
		}

		// The invite message is the narration; nothing else to send.
		return nil
	}
}

// HandleSessionCallback handles accept/decline button presses.
func (h *GameHandler) HandleSessionCallback(c tele.Context) error {
	ctx := context.Background()
	callback := c.Callback()
	sender := c.Sender()
	chat := c.Chat()
	if callback == nil || sender == nil || chat == nil {
		return nil
	}

	data := strings.TrimPrefix(callback.Data, "\f")
	action, sessionID, ok := strings.Cut(data, "|")
	if !ok {
		return c.Respond()
	}

	var accept bool
	switch action {
	case CallbackAccept:
		accept = true
	case CallbackDecline:
		accept = false
	default:
		return c.Respond()
	}

	err := h.manager.Respond(ctx, chat.ID, sessionID, sender.ID, accept)
	if errors.Is(err, session.ErrNotYourGame) {
		return c.Respond(&tele.CallbackResponse{Text: "这不是你的对局", ShowAlert: true})
	}
	if err != nil {
		log.Error().Err(err).
			Int64("chat_id", chat.ID).
			Str("session_id", sessionID).
			Msg("Session respond failed")
		return c.Respond(&tele.CallbackResponse{Text: "操作失败，请稍后重试"})
	}
	return c.Respond()
}

// HandleStop handles the /stopgame command: the challenger withdraws
// their own open challenge.
func (h *GameHandler) HandleStop(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil {
		return nil
	}

	result, err := h.manager.Stop(ctx, chat.ID, sender.ID)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", chat.ID).Msg("Stop failed")
		return c.Reply("❌ 操作失败，请稍后重试")
	}

	switch result {
	case session.StopStopped:
		return c.Reply("🛑 已撤回你的挑战")
	case session.StopForbidden:
		return c.Reply("❌ 只有发起人可以撤回挑战")
	default:
		return c.Reply("你在本群没有进行中的挑战")
	}
}

// rejectionText maps typed precondition rejections to user copy.
func rejectionText(err error) string {
	switch {
	case errors.Is(err, session.ErrSelfChallenge),
		errors.Is(err, session.ErrBotTarget),
		errors.Is(err, session.ErrChallengerBusy),
		errors.Is(err, session.ErrTargetBusy),
		errors.Is(err, session.ErrInsufficientBalance),
		errors.Is(err, session.ErrTargetInsufficient),
		errors.Is(err, session.ErrStakeOutOfRange):
		return err.Error()
	default:
		return "发起挑战失败，请稍后重试"
	}
}
