// Package handler provides Telegram bot command handlers.
package handler

import (
	"context"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"telegram-arena-bot/internal/repository"
	"telegram-arena-bot/internal/service"
)

// AccountHandler handles account-related commands.
type AccountHandler struct {
	accountService *service.AccountService
	statRepo       *repository.GameStatRepository
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService *service.AccountService, statRepo *repository.GameStatRepository) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		statRepo:       statRepo,
	}
}

// displayName prefers the username, falling back to the first name.
func displayName(u *tele.User) string {
	if u == nil {
		return ""
	}
	if u.Username != "" {
		return u.Username
	}
	return u.FirstName
}

// HandleStart handles the /start command, registering the user.
func (h *AccountHandler) HandleStart(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	user, created, err := h.accountService.EnsureUser(ctx, sender.ID, displayName(sender))
	if err != nil {
		return c.Reply("❌ 操作失败，请稍后重试")
	}

	if created {
		return c.Reply(fmt.Sprintf("🎉 欢迎 %s！已为你开户，初始金币 %d\n发送 /duel /cards /race 回复对手消息发起挑战", user.Username, user.Balance))
	}
	return c.Reply(fmt.Sprintf("👋 欢迎回来 %s！当前金币：%d", user.Username, user.Balance))
}

// HandleBalance handles the /balance command.
func (h *AccountHandler) HandleBalance(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	user, _, err := h.accountService.EnsureUser(ctx, sender.ID, displayName(sender))
	if err != nil {
		return c.Reply("❌ 查询失败，请稍后重试")
	}

	return c.Reply(fmt.Sprintf("💰 %s 当前金币：%d", user.Username, user.Balance))
}

// HandleDaily handles the /daily command.
func (h *AccountHandler) HandleDaily(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	if _, _, err := h.accountService.EnsureUser(ctx, sender.ID, displayName(sender)); err != nil {
		return c.Reply("❌ 操作失败，请稍后重试")
	}

	ok, msg, err := h.accountService.ClaimDaily(ctx, sender.ID)
	if err != nil {
		return c.Reply("❌ 签到失败，请稍后重试")
	}
	if !ok {
		return c.Reply("⏳ " + msg)
	}
	return c.Reply("✅ " + msg)
}

// HandleTop handles the /top command, showing the balance leaderboard.
func (h *AccountHandler) HandleTop(c tele.Context) error {
	ctx := context.Background()

	users, err := h.accountService.GetTopUsers(ctx, 10)
	if err != nil {
		return c.Reply("❌ 查询失败，请稍后重试")
	}
	if len(users) == 0 {
		return c.Reply("暂无排行数据")
	}

	var sb strings.Builder
	sb.WriteString("🏆 金币排行榜\n")
	for i, u := range users {
		sb.WriteString(fmt.Sprintf("%d. %s  %d 金币\n", i+1, u.Username, u.Balance))
	}
	return c.Reply(sb.String())
}

// HandleStats handles the /stats command, showing the sender's wager record.
func (h *AccountHandler) HandleStats(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	user, _, err := h.accountService.EnsureUser(ctx, sender.ID, displayName(sender))
	if err != nil {
		return c.Reply("❌ 查询失败，请稍后重试")
	}

	stat, err := h.statRepo.Get(ctx, sender.ID)
	if err != nil {
		return c.Reply("❌ 查询失败，请稍后重试")
	}

	total := stat.Wins + stat.Losses
	if total == 0 {
		return c.Reply(fmt.Sprintf("📊 %s 还没有对局记录，快去挑战吧！", user.Username))
	}
	return c.Reply(fmt.Sprintf("📊 %s 的战绩\n胜 %d / 负 %d（共 %d 局）\n净胜金币：%d",
		user.Username, stat.Wins, stat.Losses, total, stat.Net))
}
