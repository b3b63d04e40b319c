package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v3"

	"telegram-arena-bot/internal/service"
)

// TransferHandler handles transfer-related commands.
type TransferHandler struct {
	accountService  *service.AccountService
	transferService *service.TransferService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(
	accountService *service.AccountService,
	transferService *service.TransferService,
) *TransferHandler {
	return &TransferHandler{
		accountService:  accountService,
		transferService: transferService,
	}
}

// HandlePay handles the /pay command.
// Format: reply to the receiver's message with /pay <amount>
func (h *TransferHandler) HandlePay(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	args := c.Args()
	if len(args) < 1 {
		return c.Reply("❌ 用法: 回复收款人的消息，发送 /pay 金额")
	}

	amount, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || amount <= 0 {
		return c.Reply("❌ 金额格式错误，请输入正整数")
	}

	msg := c.Message()
	if msg == nil || msg.ReplyTo == nil || msg.ReplyTo.Sender == nil {
		return c.Reply("❌ 请回复收款人的消息再使用 /pay")
	}
	receiver := msg.ReplyTo.Sender

	if _, _, err := h.accountService.EnsureUser(ctx, sender.ID, displayName(sender)); err != nil {
		return c.Reply("❌ 操作失败，请稍后重试")
	}
	if _, _, err := h.accountService.EnsureUser(ctx, receiver.ID, displayName(receiver)); err != nil {
		return c.Reply("❌ 收款人未注册")
	}

	err = h.transferService.Transfer(ctx, sender.ID, receiver.ID, amount)
	switch {
	case errors.Is(err, service.ErrSelfTransfer):
		return c.Reply("❌ 不能给自己转账")
	case errors.Is(err, service.ErrInsufficientBalance):
		return c.Reply("❌ 余额不足")
	case errors.Is(err, service.ErrUserNotFound):
		return c.Reply("❌ 收款人未注册")
	case err != nil:
		return c.Reply("❌ 转账失败，请稍后重试")
	}

	return c.Reply(fmt.Sprintf("✅ 转账成功：%s → %s %d 金币",
		displayName(sender), displayName(receiver), amount))
}
