// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"telegram-arena-bot/internal/model"
	"telegram-arena-bot/internal/repository"
)

// Common errors for account operations.
var (
	ErrDailyAlreadyClaimed = errors.New("daily reward already claimed")
)

// AccountService handles user account operations.
type AccountService struct {
	userRepo    *repository.UserRepository
	txRepo      *repository.TransactionRepository
	dailyReward int64
	cooldownHrs int
}

// NewAccountService creates a new AccountService instance.
func NewAccountService(
	userRepo *repository.UserRepository,
	txRepo *repository.TransactionRepository,
	dailyReward int64,
	cooldownHours int,
) *AccountService {
	return &AccountService{
		userRepo:    userRepo,
		txRepo:      txRepo,
		dailyReward: dailyReward,
		cooldownHrs: cooldownHours,
	}
}

// EnsureUser ensures a user exists, creating one if necessary.
// Returns the user and whether it was newly created.
func (s *AccountService) EnsureUser(ctx context.Context, telegramID int64, username string) (*model.User, bool, error) {
	user, created, err := s.userRepo.GetOrCreate(ctx, telegramID, username)
	if err != nil {
		return nil, false, fmt.Errorf("failed to ensure user: %w", err)
	}

	// Keep the stored username current
	if !created && user.Username != username && username != "" {
		if err := s.userRepo.UpdateUsername(ctx, telegramID, username); err != nil {
			log.Warn().Err(err).Int64("user_id", telegramID).Msg("Failed to update username")
		}
		user.Username = username
	}

	return user, created, nil
}

// GetBalance retrieves a user's current balance.
func (s *AccountService) GetBalance(ctx context.Context, telegramID int64) (int64, error) {
	return s.userRepo.Balance(ctx, telegramID)
}

// GetUser retrieves a user by their Telegram ID.
func (s *AccountService) GetUser(ctx context.Context, telegramID int64) (*model.User, error) {
	return s.userRepo.GetByID(ctx, telegramID)
}

// ClaimDaily attempts to claim the daily reward for a user.
// Returns whether the claim succeeded and a user-facing message.
func (s *AccountService) ClaimDaily(ctx context.Context, telegramID int64) (bool, string, error) {
	canClaim, remaining, err := s.userRepo.CanClaimDaily(ctx, telegramID, s.cooldownHrs)
	if err != nil {
		return false, "", fmt.Errorf("failed to check daily claim eligibility: %w", err)
	}

	if !canClaim {
		hours := int(remaining.Hours())
		minutes := int(remaining.Minutes()) % 60
		seconds := int(remaining.Seconds()) % 60
		msg := fmt.Sprintf("请等待 %d小时%d分%d秒 后再领取", hours, minutes, seconds)
		return false, msg, nil
	}

	if _, err := s.userRepo.UpdateBalance(ctx, telegramID, s.dailyReward); err != nil {
		return false, "", fmt.Errorf("failed to add daily reward: %w", err)
	}

	if err := s.userRepo.UpdateDailyClaim(ctx, telegramID, time.Now().Unix()); err != nil {
		return false, "", fmt.Errorf("failed to update daily claim time: %w", err)
	}

	desc := "每日签到奖励"
	if _, err := s.txRepo.Create(ctx, telegramID, s.dailyReward, model.TxTypeDaily, &desc); err != nil {
		// Non-fatal, balance was already updated
		log.Warn().Err(err).Int64("user_id", telegramID).Msg("Failed to journal daily reward")
	}

	msg := fmt.Sprintf("签到成功！获得 %d 金币", s.dailyReward)
	return true, msg, nil
}

// GetTopUsers retrieves the top users by balance.
func (s *AccountService) GetTopUsers(ctx context.Context, limit int) ([]*model.User, error) {
	return s.userRepo.GetTopUsers(ctx, limit)
}
