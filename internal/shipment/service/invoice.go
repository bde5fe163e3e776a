package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/moogship/moogship/internal/auth"
	"github.com/moogship/moogship/internal/shipment/model"
	"github.com/moogship/moogship/internal/uploads"
)

// InvoiceStore is satisfied by uploads.UploadService.
type InvoiceStore interface {
	Upload(ctx context.Context, filename string, reader io.Reader, size int64, mime string) (*uploads.FileMetadata, error)
	Delete(ctx context.Context, key string) error
}

// UploadInvoice stores a commercial invoice document and links it to the
// shipment, replacing any previous one.
func (s *ShipmentService) UploadInvoice(ctx context.Context, id uuid.UUID, requester *auth.AuthContext, store InvoiceStore, filename string, reader io.Reader, size int64, mime string) (*model.Shipment, error) {
	shipment, err := s.Get(ctx, id, requester)
	if err != nil {
		return nil, err
	}

	metadata, err := store.Upload(ctx, filename, reader, size, mime)
	if err != nil {
		return nil, fmt.Errorf("failed to store invoice: %w", err)
	}

	previousKey := shipment.InvoiceKey

	err = s.db.WithContext(ctx).Model(&model.Shipment{}).Where("id = ?", id).Updates(map[string]any{
		"invoice_key": metadata.Key,
		"invoice_url": metadata.URL,
		"updated_at":  time.Now().UTC(),
	}).Error
	if err != nil {
		if delErr := store.Delete(ctx, metadata.Key); delErr != nil {
			slog.Warn("failed to clean up orphaned invoice", "key", metadata.Key, "error", delErr)
		}
		return nil, fmt.Errorf("failed to link invoice: %w", err)
	}

	if previousKey != "" {
		if delErr := store.Delete(ctx, previousKey); delErr != nil {
			slog.Warn("failed to delete replaced invoice", "key", previousKey, "error", delErr)
		}
	}

	shipment.InvoiceKey = metadata.Key
	shipment.InvoiceURL = metadata.URL

	slog.Info("invoice uploaded", "shipment_id", id, "key", metadata.Key)
	return shipment, nil
}

// DeleteInvoice removes the invoice document and clears the link.
func (s *ShipmentService) DeleteInvoice(ctx context.Context, id uuid.UUID, requester *auth.AuthContext, store InvoiceStore) error {
	shipment, err := s.Get(ctx, id, requester)
	if err != nil {
		return err
	}
	if shipment.InvoiceKey == "" {
		return nil
	}

	err = s.db.WithContext(ctx).Model(&model.Shipment{}).Where("id = ?", id).Updates(map[string]any{
		"invoice_key": "",
		"invoice_url": "",
		"updated_at":  time.Now().UTC(),
	}).Error
	if err != nil {
		return fmt.Errorf("failed to unlink invoice: %w", err)
	}

	if delErr := store.Delete(ctx, shipment.InvoiceKey); delErr != nil {
		slog.Warn("failed to delete invoice object", "key", shipment.InvoiceKey, "error", delErr)
	}

	slog.Info("invoice deleted", "shipment_id", id)
	return nil
}
