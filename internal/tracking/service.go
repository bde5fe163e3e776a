package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/moogship/moogship/internal/shipment/model"
)

// ErrNotFound is returned when no shipment carries the tracking number.
var ErrNotFound = errors.New("tracking number not found")

// Service answers public tracking lookups and records timeline events.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Lookup returns the public tracking view for a tracking number.
func (s *Service) Lookup(ctx context.Context, trackingNumber string) (*Result, error) {
	var shipment model.Shipment
	err := s.db.WithContext(ctx).Where("tracking_number = ?", trackingNumber).First(&shipment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch shipment: %w", err)
	}

	var events []Event
	err = s.db.WithContext(ctx).
		Where("shipment_id = ?", shipment.ID).
		Order("occurred_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tracking events: %w", err)
	}

	return &Result{
		TrackingNumber: shipment.TrackingNumber,
		Status:         shipment.Status,
		CarrierName:    NormalizeServiceName(shipment.CarrierName),
		ServiceName:    NormalizeServiceName(shipment.SelectedService),
		Origin:         shipment.SenderCity,
		Destination:    shipment.ReceiverCity,
		Timeline:       events,
	}, nil
}

// RecordInTx appends a timeline event inside an existing transaction. Status
// transitions call this so the event is atomic with the shipment update.
func (s *Service) RecordInTx(ctx context.Context, tx *gorm.DB, shipmentID uuid.UUID, status model.ShipmentStatus, description, location string) error {
	event := &Event{
		ShipmentID:  shipmentID,
		Status:      status,
		Description: description,
		Location:    location,
		OccurredAt:  time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to record tracking event: %w", err)
	}
	return nil
}
