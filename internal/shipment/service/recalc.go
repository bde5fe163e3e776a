package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/moogship/moogship/internal/auth"
	"github.com/moogship/moogship/internal/pricing"
	"github.com/moogship/moogship/internal/shipment/model"
)

// Mode selects which service-resolution policy a recalculation uses.
type Mode string

const (
	// ModeCustomer reprices under the shipment's originally recorded service.
	ModeCustomer Mode = "customer"
	// ModeAdmin reprices under an explicitly chosen service.
	ModeAdmin Mode = "admin"
)

// ErrStaleRecalculation is returned when a concurrent recalculation applied
// first; the later result wins and the stale one is discarded.
var ErrStaleRecalculation = errors.New("recalculation superseded by a newer one")

// RecalculateInput is the request body of the explicit recalculation endpoint.
type RecalculateInput struct {
	Mode    Mode   `json:"mode" validate:"required,oneof=customer admin"`
	Service string `json:"service"`
}

// Recalculate reprices a shipment and stages the result onto its price
// fields. The taxes column is never touched.
func (s *ShipmentService) Recalculate(ctx context.Context, id uuid.UUID, requester *auth.AuthContext, input RecalculateInput) (*model.Shipment, error) {
	// Admin-mode validation happens before any database or pricing work.
	if input.Mode == ModeAdmin {
		if _, err := pricing.ResolveAdminService(input.Service); err != nil {
			return nil, err
		}
	}

	var updated *model.Shipment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		shipment, err := s.lockForEdit(ctx, tx, id, requester)
		if err != nil {
			return err
		}
		if err := tx.Preload("Packages").First(shipment, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to load packages: %w", err)
		}

		if err := s.recalculateInTx(ctx, tx, shipment, input.Mode, input.Service); err != nil {
			return err
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

// recalculateInTx runs the pricing workflow against the loaded shipment and
// writes the result guarded by the recalculation generation: the UPDATE only
// lands if no newer recalculation applied in between.
func (s *ShipmentService) recalculateInTx(ctx context.Context, tx *gorm.DB, shipment *model.Shipment, mode Mode, adminService string) error {
	var service string
	var err error
	switch mode {
	case ModeAdmin:
		service, err = pricing.ResolveAdminService(adminService)
		if err != nil {
			return err
		}
	default:
		service = pricing.ResolveCustomerService(pricing.ServiceFields{
			CarrierName:         shipment.CarrierName,
			SelectedService:     shipment.SelectedService,
			ProviderServiceCode: shipment.ProviderServiceCode,
		})
	}

	weight := shipment.AggregateBillableWeight()
	generation := shipment.RecalcGeneration

	result, err := s.quoter.Quote(ctx, pricing.QuoteRequest{
		SenderCountry:      shipment.SenderCountry,
		ReceiverCountry:    shipment.ReceiverCountry,
		ReceiverCity:       shipment.ReceiverCity,
		Weight:             weight,
		Length:             shipment.Length,
		Width:              shipment.Width,
		Height:             shipment.Height,
		ServiceTier:        string(pricing.TierForService(service)),
		Service:            service,
		UseCustomerService: mode != ModeAdmin,
	})
	if err != nil {
		return fmt.Errorf("quote failed: %w", err)
	}

	option, err := pricing.SelectOption(result.Options, service)
	if err != nil {
		return err
	}

	multiplier, err := s.creatorMultiplier(ctx, tx, shipment.CreatorID)
	if err != nil {
		return err
	}

	amounts := pricing.CustomerPrice(option, multiplier)

	updates := map[string]any{
		"base_price":           amounts.BasePrice,
		"fuel_charge":          amounts.FuelCharge,
		"additional_fee":       amounts.AdditionalFee,
		"total_price":          amounts.Total + shipment.Taxes,
		"original_base_price":  option.CargoPrice,
		"original_fuel_charge": option.FuelCost,
		"original_total":       pricing.RawCost(option),
		"recalc_generation":    generation + 1,
		"updated_at":           time.Now().UTC(),
	}
	if mode == ModeAdmin {
		updates["carrier_name"] = option.DisplayName
		updates["selected_service"] = option.ServiceCode
	}

	res := tx.Model(&model.Shipment{}).
		Where("id = ? AND recalc_generation = ?", shipment.ID, generation).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to apply recalculation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStaleRecalculation
	}

	slog.Info("shipment repriced",
		"shipment_id", shipment.ID,
		"mode", mode,
		"service", service,
		"billable_weight", weight,
		"customer_total", amounts.Total,
	)
	return nil
}

func (s *ShipmentService) creatorMultiplier(ctx context.Context, tx *gorm.DB, creatorID uuid.UUID) (float64, error) {
	var creator auth.User
	err := tx.WithContext(ctx).Select("price_multiplier").First(&creator, "id = ?", creatorID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Creator deleted; fall back to the configured default multiplier
			// rather than failing the quote.
			return s.defaultMultiplier, nil
		}
		return 0, fmt.Errorf("failed to fetch creator multiplier: %w", err)
	}
	return creator.Multiplier(), nil
}
