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
	"github.com/moogship/moogship/internal/shipment/model"
)

// UpdatePackage applies a dimension edit to one package. When the shipment
// has exactly one package the legacy single-dimension fields are mirrored,
// and for non-bulk shipments a customer-mode repricing runs in the same
// transaction — exactly once per edit.
func (s *ShipmentService) UpdatePackage(ctx context.Context, packageID uuid.UUID, requester *auth.AuthContext, input PackageDimensionsInput) (*PackageUpdateResult, error) {
	var result PackageUpdateResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pkg model.Package
		if err := tx.First(&pkg, "id = ?", packageID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to fetch package: %w", err)
		}

		shipment, err := s.lockForEdit(ctx, tx, pkg.ShipmentID, requester)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		err = tx.Model(&model.Package{}).Where("id = ?", packageID).Updates(map[string]any{
			"weight":     input.Weight,
			"length":     input.Length,
			"width":      input.Width,
			"height":     input.Height,
			"updated_at": now,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update package: %w", err)
		}

		var packages []model.Package
		if err := tx.Where("shipment_id = ?", shipment.ID).Find(&packages).Error; err != nil {
			return fmt.Errorf("failed to load packages: %w", err)
		}

		// Keep the legacy columns consistent for single-package shipments;
		// older tooling still reads them.
		if len(packages) == 1 {
			err = tx.Model(&model.Shipment{}).Where("id = ?", shipment.ID).Updates(map[string]any{
				"weight":     input.Weight,
				"length":     input.Length,
				"width":      input.Width,
				"height":     input.Height,
				"updated_at": now,
			}).Error
			if err != nil {
				return fmt.Errorf("failed to sync shipment dimensions: %w", err)
			}
			shipment.Weight = input.Weight
			shipment.Length = input.Length
			shipment.Width = input.Width
			shipment.Height = input.Height
		}

		shipment.Packages = packages

		if shipment.IsBulkImported() {
			slog.Info("skipping auto repricing for bulk-imported shipment", "shipment_id", shipment.ID)
		} else {
			if err := s.recalculateInTx(ctx, tx, shipment, ModeCustomer, ""); err != nil {
				return err
			}
			result.Recalculated = true
		}

		for i := range packages {
			if packages[i].ID == packageID {
				result.Package = &packages[i]
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}
