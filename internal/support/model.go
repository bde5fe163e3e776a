package support

import (
	"strings"

	"github.com/google/uuid"

	"github.com/moogship/moogship/internal/shipment/model"
)

// TicketStatus represents the lifecycle of a support ticket.
type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketClosed     TicketStatus = "closed"
)

// AttachmentType is the coarse classification shown in the ticket UI.
type AttachmentType string

const (
	AttachmentImage    AttachmentType = "image"
	AttachmentDocument AttachmentType = "document"
)

// Attachment is the metadata of one uploaded file on a ticket. The bytes
// themselves were already PUT to storage in the two-phase upload flow.
type Attachment struct {
	Key      string         `json:"key"`
	URL      string         `json:"url"`
	Name     string         `json:"name"`
	Size     int64          `json:"size"`
	MimeType string         `json:"mimeType"`
	Type     AttachmentType `json:"type"`
}

// ClassifyAttachment buckets a MIME type into the coarse attachment type.
func ClassifyAttachment(mimeType string) AttachmentType {
	if strings.HasPrefix(strings.ToLower(mimeType), "image/") {
		return AttachmentImage
	}
	return AttachmentDocument
}

// Ticket is a customer support request, optionally referencing a shipment.
type Ticket struct {
	model.BaseModel
	UserID      uuid.UUID    `gorm:"type:uuid;column:user_id;not null;index" json:"userId"`
	ShipmentID  *uuid.UUID   `gorm:"type:uuid;column:shipment_id;index" json:"shipmentId,omitempty"`
	Subject     string       `gorm:"type:varchar(255);column:subject;not null" json:"subject"`
	Message     string       `gorm:"type:text;column:message;not null" json:"message"`
	Category    string       `gorm:"type:varchar(50);column:category" json:"category,omitempty"`
	Status      TicketStatus `gorm:"type:varchar(20);column:status;not null;default:'open'" json:"status"`
	Attachments []Attachment `gorm:"type:jsonb;column:attachments;serializer:json" json:"attachments"`
}

func (t *Ticket) TableName() string {
	return "support_tickets"
}
