package session

import "errors"

// Precondition rejections surfaced to the user. None of these mutate
// any state; the handler turns them into a refusal reply.
var (
	ErrSelfChallenge       = errors.New("不能向自己发起挑战")
	ErrBotTarget           = errors.New("不能向机器人发起挑战")
	ErrChallengerBusy      = errors.New("你已有进行中的对局")
	ErrTargetBusy          = errors.New("对方已有进行中的对局")
	ErrInsufficientBalance = errors.New("你的金币不足以支付赌注")
	ErrTargetInsufficient  = errors.New("对方的金币不足以支付赌注")
	ErrStakeOutOfRange     = errors.New("赌注超出允许范围")
	ErrNotYourGame         = errors.New("这不是你的对局")
)
