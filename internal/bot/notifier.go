package bot

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-arena-bot/internal/handler"
	"telegram-arena-bot/internal/model"
)

// Notifier narrates wager sessions through Telegram messages. It is
// the session core's only view of the transport: send the invitation,
// then rewrite it with the terminal outcome.
type Notifier struct {
	bot *tele.Bot
}

// NewNotifier creates a Notifier on top of a telebot instance.
func NewNotifier(b *tele.Bot) *Notifier {
	return &Notifier{bot: b}
}

// SendInvite posts the invitation message with accept/decline buttons
// and returns its message ID.
func (n *Notifier) SendInvite(chatID int64, s *model.Session, text string) (int, error) {
	markup := &tele.ReplyMarkup{}
	accept := markup.Data("⚔️ 应战", handler.CallbackAccept, s.ID)
	decline := markup.Data("🙅 拒绝", handler.CallbackDecline, s.ID)
	markup.Inline(markup.Row(accept, decline))

	msg, err := n.bot.Send(tele.ChatID(chatID), text, markup)
	if err != nil {
		return 0, fmt.Errorf("failed to send invite: %w", err)
	}
	return msg.ID, nil
}

// Finalize rewrites the invitation with the terminal narration. The
// degrade path is fixed: full edit, then keyboard strip, then silence.
// Session state is already settled when this runs and is never rolled
// back on narration failure.
func (n *Notifier) Finalize(chatID int64, messageID int, text string) {
	ref := &tele.StoredMessage{
		MessageID: strconv.Itoa(messageID),
		ChatID:    chatID,
	}

	if _, err := n.bot.Edit(ref, text); err == nil {
		return
	} else {
		log.Debug().Err(err).
			Int64("chat_id", chatID).
			Int("message_id", messageID).
			Msg("Full edit rejected, stripping keyboard")
	}

	if _, err := n.bot.EditReplyMarkup(ref, nil); err != nil {
		// The message is gone or uneditable; drop the narration.
		log.Debug().Err(err).
			Int64("chat_id", chatID).
			Int("message_id", messageID).
			Msg("Keyboard strip rejected, narration dropped")
	}
}
