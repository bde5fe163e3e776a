package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/moogship/moogship/internal/auth"
	"github.com/moogship/moogship/internal/shipment/model"
)

var (
	// ErrInsufficientBalance is returned when a debit would take a balance negative.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrUserNotFound is returned when a ledger adjustment targets no user row.
	ErrUserNotFound = errors.New("user not found")
)

// Service maintains the balance ledger and answers the analytics queries.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CurrentBalance returns the cached balance for a user.
func (s *Service) CurrentBalance(ctx context.Context, userID uuid.UUID) (float64, error) {
	var user auth.User
	if err := s.db.WithContext(ctx).Select("balance").First(&user, "id = ?", userID).Error; err != nil {
		return 0, fmt.Errorf("failed to fetch balance: %w", err)
	}
	return user.Balance, nil
}

// Credit tops up a user's balance in its own transaction and records the
// ledger entry.
func (s *Service) Credit(ctx context.Context, userID uuid.UUID, amount float64, description string) (float64, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.CreditInTx(ctx, tx, userID, amount, nil, description)
	})
	if err != nil {
		return 0, err
	}
	return s.CurrentBalance(ctx, userID)
}

// CreditInTx adds funds to a user's balance inside an existing transaction.
func (s *Service) CreditInTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount float64, shipmentID *uuid.UUID, description string) error {
	if amount <= 0 {
		return fmt.Errorf("credit amount must be positive")
	}
	return s.applyInTx(ctx, tx, userID, amount, TransactionCredit, shipmentID, description)
}

// DebitInTx withdraws funds from a user's balance inside an existing
// transaction. The balance is never allowed to go negative.
func (s *Service) DebitInTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount float64, shipmentID *uuid.UUID, description string) error {
	if amount <= 0 {
		return fmt.Errorf("debit amount must be positive")
	}

	result := tx.WithContext(ctx).Model(&auth.User{}).
		Where("id = ? AND balance >= ?", userID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if result.Error != nil {
		return fmt.Errorf("failed to debit balance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientBalance
	}

	entry := &Transaction{
		UserID:      userID,
		ShipmentID:  shipmentID,
		Type:        TransactionDebit,
		Amount:      amount,
		Description: description,
	}
	if err := tx.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}
	return nil
}

func (s *Service) applyInTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount float64, txType TransactionType, shipmentID *uuid.UUID, description string) error {
	result := tx.WithContext(ctx).Model(&auth.User{}).
		Where("id = ?", userID).
		Update("balance", gorm.Expr("balance + ?", amount))
	if result.Error != nil {
		return fmt.Errorf("failed to adjust balance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}

	entry := &Transaction{
		UserID:      userID,
		ShipmentID:  shipmentID,
		Type:        txType,
		Amount:      amount,
		Description: description,
	}
	if err := tx.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}
	return nil
}

// DailyGrossRevenue aggregates total customer price per day over the window
// for shipments that reached at least the approved state.
func (s *Service) DailyGrossRevenue(ctx context.Context, from, to time.Time) ([]DailyRevenue, error) {
	var rows []DailyRevenue
	err := s.db.WithContext(ctx).
		Model(&model.Shipment{}).
		Select("to_char(created_at, 'YYYY-MM-DD') AS day, COALESCE(SUM(total_price), 0) AS gross, COUNT(*) AS count").
		Where("created_at >= ? AND created_at < ?", from, to).
		Where("status IN ?", []model.ShipmentStatus{
			model.StatusApproved,
			model.StatusInTransit,
			model.StatusDelivered,
		}).
		Group("day").
		Order("day ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate daily revenue: %w", err)
	}
	return rows, nil
}
