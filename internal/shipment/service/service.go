package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/moogship/moogship/internal/auth"
	"github.com/moogship/moogship/internal/pricing"
	"github.com/moogship/moogship/internal/shipment/model"
	"github.com/moogship/moogship/utils"
)

var (
	// ErrNotFound is returned when the shipment or package does not exist.
	ErrNotFound = errors.New("shipment not found")
	// ErrForbidden is returned when the requester does not own the shipment.
	ErrForbidden = errors.New("access denied")
	// ErrNotEditable is returned when a customer edits past the pending state.
	ErrNotEditable = errors.New("shipment can no longer be edited")
	// ErrCannotCancel is returned for cancel requests in a terminal state.
	ErrCannotCancel = errors.New("shipment can no longer be cancelled")
	// ErrInvalidTransition is returned for approve/reject outside pending.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Quoter prices a shipment. Implemented by pricing.Engine.
type Quoter interface {
	Quote(ctx context.Context, req pricing.QuoteRequest) (*pricing.QuoteResult, error)
}

// EventRecorder appends tracking timeline entries. Implemented by tracking.Service.
type EventRecorder interface {
	RecordInTx(ctx context.Context, tx *gorm.DB, shipmentID uuid.UUID, status model.ShipmentStatus, description, location string) error
}

// Ledger debits shipping charges from customer balances. Implemented by billing.Service.
type Ledger interface {
	DebitInTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount float64, shipmentID *uuid.UUID, description string) error
}

// ShipmentService owns the shipment lifecycle: creation, edits, package
// dimension updates, price recalculation and status transitions.
type ShipmentService struct {
	db                *gorm.DB
	quoter            Quoter
	events            EventRecorder
	ledger            Ledger
	defaultMultiplier float64
}

// NewShipmentService wires the shipment lifecycle. defaultMultiplier is the
// customer price multiplier applied when the creator no longer exists.
func NewShipmentService(db *gorm.DB, quoter Quoter, events EventRecorder, ledger Ledger, defaultMultiplier float64) *ShipmentService {
	if defaultMultiplier <= 0 {
		defaultMultiplier = 1
	}
	return &ShipmentService{
		db:                db,
		quoter:            quoter,
		events:            events,
		ledger:            ledger,
		defaultMultiplier: defaultMultiplier,
	}
}

// newTrackingNumber produces a customer-facing identifier like MS-3F2A9C1D.
func newTrackingNumber() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "MS-" + strings.ToUpper(raw[:10])
}

// Create persists a new shipment with its packages and line items and
// records the initial tracking event.
func (s *ShipmentService) Create(ctx context.Context, creator *auth.User, input CreateInput) (*model.Shipment, error) {
	shipment := input.toModel()
	shipment.CreatorID = creator.ID
	shipment.TrackingNumber = newTrackingNumber()
	shipment.Status = model.StatusPending

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(shipment).Error; err != nil {
			return fmt.Errorf("failed to create shipment: %w", err)
		}
		return s.events.RecordInTx(ctx, tx, shipment.ID, model.StatusPending, "Shipment created", shipment.SenderCity)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("shipment created",
		"shipment_id", shipment.ID,
		"tracking_number", shipment.TrackingNumber,
		"creator_id", creator.ID,
	)
	return shipment, nil
}

// Get loads a shipment with its packages, enforcing ownership.
func (s *ShipmentService) Get(ctx context.Context, id uuid.UUID, requester *auth.AuthContext) (*model.Shipment, error) {
	var shipment model.Shipment
	err := s.db.WithContext(ctx).Preload("Packages").First(&shipment, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch shipment: %w", err)
	}

	if !requester.IsAdmin() && shipment.CreatorID != requester.ID {
		return nil, ErrForbidden
	}
	return &shipment, nil
}

// GetItems returns the commercial-invoice lines of a shipment.
func (s *ShipmentService) GetItems(ctx context.Context, id uuid.UUID, requester *auth.AuthContext) ([]model.LineItem, error) {
	if _, err := s.Get(ctx, id, requester); err != nil {
		return nil, err
	}

	var items []model.LineItem
	if err := s.db.WithContext(ctx).Where("shipment_id = ?", id).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch line items: %w", err)
	}
	return items, nil
}

// List returns shipments newest first, scoped to the requester unless admin.
func (s *ShipmentService) List(ctx context.Context, requester *auth.AuthContext, status string, offset, limit *int) ([]model.Shipment, error) {
	finalOffset, finalLimit := utils.PageWindow(offset, limit)

	query := s.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(finalOffset).
		Limit(finalLimit)

	if !requester.IsAdmin() {
		query = query.Where("creator_id = ?", requester.ID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var shipments []model.Shipment
	if err := query.Find(&shipments).Error; err != nil {
		return nil, fmt.Errorf("failed to list shipments: %w", err)
	}
	return shipments, nil
}

// Update applies an edit to a shipment. When needsRecalculation is set the
// customer-mode repricing runs inside the same transaction, so the stored
// prices can never drift from the stored dimensions.
func (s *ShipmentService) Update(ctx context.Context, id uuid.UUID, requester *auth.AuthContext, input UpdateInput) (*model.Shipment, error) {
	var updated *model.Shipment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		shipment, err := s.lockForEdit(ctx, tx, id, requester)
		if err != nil {
			return err
		}

		updates := input.changes()
		if len(updates) > 0 {
			if err := tx.Model(&model.Shipment{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update shipment: %w", err)
			}
		}

		if input.NeedsRecalculation {
			if err := tx.Preload("Packages").First(shipment, "id = ?", id).Error; err != nil {
				return fmt.Errorf("failed to reload shipment: %w", err)
			}
			if err := s.recalculateInTx(ctx, tx, shipment, ModeCustomer, ""); err != nil {
				return err
			}
		}

		if err := tx.Preload("Packages").First(shipment, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to reload shipment: %w", err)
		}
		updated = shipment
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Cancel transitions a shipment to cancelled; allowed from pending and approved.
func (s *ShipmentService) Cancel(ctx context.Context, id uuid.UUID, requester *auth.AuthContext) (*model.Shipment, error) {
	return s.transition(ctx, id, requester, model.StatusCancelled, "Shipment cancelled", func(shipment *model.Shipment) error {
		if !shipment.CanCancel() {
			return ErrCannotCancel
		}
		if !requester.IsAdmin() && shipment.CreatorID != requester.ID {
			return ErrForbidden
		}
		return nil
	}, nil)
}

// Approve moves a pending shipment to approved and charges the creator's
// balance for the customer total. Admin only (enforced at the router).
func (s *ShipmentService) Approve(ctx context.Context, id uuid.UUID, requester *auth.AuthContext) (*model.Shipment, error) {
	return s.transition(ctx, id, requester, model.StatusApproved, "Shipment approved", func(shipment *model.Shipment) error {
		if shipment.Status != model.StatusPending {
			return ErrInvalidTransition
		}
		return nil
	}, func(tx *gorm.DB, shipment *model.Shipment) error {
		if shipment.TotalPrice <= 0 {
			return nil
		}
		shipmentID := shipment.ID
		return s.ledger.DebitInTx(ctx, tx, shipment.CreatorID, shipment.TotalPrice, &shipmentID,
			fmt.Sprintf("Shipping charge %s", shipment.TrackingNumber))
	})
}

// Reject moves a pending shipment to rejected.
func (s *ShipmentService) Reject(ctx context.Context, id uuid.UUID, requester *auth.AuthContext) (*model.Shipment, error) {
	return s.transition(ctx, id, requester, model.StatusRejected, "Shipment rejected", func(shipment *model.Shipment) error {
		if shipment.Status != model.StatusPending {
			return ErrInvalidTransition
		}
		return nil
	}, nil)
}

func (s *ShipmentService) transition(
	ctx context.Context,
	id uuid.UUID,
	requester *auth.AuthContext,
	to model.ShipmentStatus,
	description string,
	check func(*model.Shipment) error,
	after func(*gorm.DB, *model.Shipment) error,
) (*model.Shipment, error) {
	var shipment model.Shipment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&shipment, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to fetch shipment: %w", err)
		}

		if err := check(&shipment); err != nil {
			return err
		}

		if err := tx.Model(&model.Shipment{}).Where("id = ?", id).Update("status", to).Error; err != nil {
			return fmt.Errorf("failed to update status: %w", err)
		}
		shipment.Status = to

		if after != nil {
			if err := after(tx, &shipment); err != nil {
				return err
			}
		}

		return s.events.RecordInTx(ctx, tx, shipment.ID, to, description, "")
	})
	if err != nil {
		return nil, err
	}

	slog.Info("shipment status changed", "shipment_id", id, "status", to)
	return &shipment, nil
}

// lockForEdit loads a shipment with row lock and enforces edit permissions.
func (s *ShipmentService) lockForEdit(ctx context.Context, tx *gorm.DB, id uuid.UUID, requester *auth.AuthContext) (*model.Shipment, error) {
	var shipment model.Shipment
	if err := tx.First(&shipment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch shipment: %w", err)
	}

	if !requester.IsAdmin() {
		if shipment.CreatorID != requester.ID {
			return nil, ErrForbidden
		}
		if !shipment.Editable() {
			return nil, ErrNotEditable
		}
	}
	return &shipment, nil
}
