package service

import (
	"context"
	"errors"
	"fmt"

	"telegram-arena-bot/internal/model"
	"telegram-arena-bot/internal/repository"
)

// Transfer-related errors.
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("invalid amount: must be positive")
	ErrSelfTransfer        = errors.New("cannot transfer to self")
	ErrUserNotFound        = errors.New("user not found")
)

// TransferService handles user-to-user transfers. It rides on the same
// transactional transfer primitive the wager settlement uses, so a
// concurrent game can never observe a half-applied /pay.
type TransferService struct {
	userRepo *repository.UserRepository
}

// NewTransferService creates a new TransferService instance.
func NewTransferService(userRepo *repository.UserRepository) *TransferService {
	return &TransferService{userRepo: userRepo}
}

// Transfer moves coins from one user to another atomically.
func (s *TransferService) Transfer(ctx context.Context, fromID, toID int64, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if fromID == toID {
		return ErrSelfTransfer
	}

	// Verify receiver exists before attempting the transfer
	exists, err := s.userRepo.Exists(ctx, toID)
	if err != nil {
		return fmt.Errorf("failed to check receiver: %w", err)
	}
	if !exists {
		return ErrUserNotFound
	}

	ok, err := s.userRepo.TransferStake(ctx, fromID, toID, amount,
		model.TxTypeTransfer,
		fmt.Sprintf("转账给用户 %d", toID),
		fmt.Sprintf("收到用户 %d 的转账", fromID),
	)
	if err != nil {
		return fmt.Errorf("transfer failed: %w", err)
	}
	if !ok {
		return ErrInsufficientBalance
	}
	return nil
}
