package support

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/moogship/moogship/internal/uploads"
)

// ErrAttachmentMissing is returned when a ticket references an object that
// was never uploaded; the ticket is not persisted in that case.
var ErrAttachmentMissing = errors.New("attachment not found in storage")

// Service creates and lists support tickets.
type Service struct {
	db      *gorm.DB
	storage *uploads.UploadService
}

func NewService(db *gorm.DB, storage *uploads.UploadService) *Service {
	return &Service{db: db, storage: storage}
}

// CreateInput carries a new ticket and its attachment metadata.
type CreateInput struct {
	Subject     string       `json:"subject" validate:"required"`
	Message     string       `json:"message" validate:"required"`
	Category    string       `json:"category"`
	ShipmentID  *uuid.UUID   `json:"shipmentId"`
	Attachments []Attachment `json:"attachments" validate:"dive"`
}

// Create validates every referenced attachment exists in storage, classifies
// it, and persists the ticket. A missing attachment fails the whole ticket;
// no partial ticket state is kept.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*Ticket, error) {
	attachments := make([]Attachment, 0, len(input.Attachments))
	for _, att := range input.Attachments {
		if att.Key == "" {
			return nil, fmt.Errorf("%w: attachment %q has no storage key", ErrAttachmentMissing, att.Name)
		}
		reader, _, err := s.storage.Download(ctx, att.Key)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrAttachmentMissing, att.Key)
		}
		reader.Close()

		att.Type = ClassifyAttachment(att.MimeType)
		attachments = append(attachments, att)
	}

	ticket := &Ticket{
		UserID:      userID,
		ShipmentID:  input.ShipmentID,
		Subject:     input.Subject,
		Message:     input.Message,
		Category:    input.Category,
		Status:      TicketOpen,
		Attachments: attachments,
	}

	if err := s.db.WithContext(ctx).Create(ticket).Error; err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	slog.Info("support ticket created",
		"ticket_id", ticket.ID,
		"user_id", userID,
		"attachments", len(attachments),
	)
	return ticket, nil
}

// List returns a user's tickets, newest first. Admins see every ticket.
func (s *Service) List(ctx context.Context, userID uuid.UUID, isAdmin bool) ([]Ticket, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC")
	if !isAdmin {
		query = query.Where("user_id = ?", userID)
	}

	var tickets []Ticket
	if err := query.Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}
