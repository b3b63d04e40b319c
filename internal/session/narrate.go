package session

import (
	"fmt"

	"telegram-arena-bot/internal/game"
	"telegram-arena-bot/internal/model"
)

// Narration builders. All user-facing session copy lives here so the
// state machine reads as pure lifecycle logic.

func inviteText(s *model.Session, title string) string {
	stake := fmt.Sprintf("💰 赌注：%d 金币", s.Stake)
	if s.Stake == 0 {
		stake = "💰 友谊赛，不下注"
	}
	return fmt.Sprintf("⚔️ %s 向 %s 发起%s挑战！\n%s\n⏳ %s 可在限时内应战或拒绝",
		s.ChallengerName, s.TargetName, title, stake, s.TargetName)
}

func timeoutText(s *model.Session) string {
	return fmt.Sprintf("⌛ 挑战超时：%s 未应战，对局作废", s.TargetName)
}

func declineText(s *model.Session) string {
	return fmt.Sprintf("🙅 %s 拒绝了 %s 的挑战", s.TargetName, s.ChallengerName)
}

func stoppedText(s *model.Session) string {
	return fmt.Sprintf("🛑 %s 撤回了挑战", s.ChallengerName)
}

func wagerFailedText(s *model.Session) string {
	return fmt.Sprintf("⚠️ 赌注结算失败（余额不足），%s 和 %s 的对局作废",
		s.ChallengerName, s.TargetName)
}

func voidedText(s *model.Session) string {
	return fmt.Sprintf("♻️ 机器人重启，%s 和 %s 的对局作废",
		s.ChallengerName, s.TargetName)
}

func resultText(s *model.Session, title string, o game.Outcome, winnerName string) string {
	prize := fmt.Sprintf("💰 赢得 %d 金币", s.Stake)
	if s.Stake == 0 {
		prize = "🤝 友谊赛，不计金币"
	}
	return fmt.Sprintf("%s结果\n%s\n🏆 %s 获胜！%s", title, o.Detail, winnerName, prize)
}
