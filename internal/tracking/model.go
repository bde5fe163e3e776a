package tracking

import (
	"time"

	"github.com/google/uuid"

	"github.com/moogship/moogship/internal/shipment/model"
)

// Event is one entry in a shipment's tracking timeline.
type Event struct {
	model.BaseModel
	ShipmentID  uuid.UUID            `gorm:"type:uuid;column:shipment_id;not null;index" json:"shipmentId"`
	Status      model.ShipmentStatus `gorm:"type:varchar(20);column:status;not null" json:"status"`
	Description string               `gorm:"type:text;column:description" json:"description"`
	Location    string               `gorm:"type:varchar(255);column:location" json:"location,omitempty"`
	OccurredAt  time.Time            `gorm:"type:timestamptz;column:occurred_at;not null" json:"occurredAt"`
}

func (e *Event) TableName() string {
	return "tracking_events"
}

// Result is the public payload returned by the tracking lookup.
type Result struct {
	TrackingNumber string               `json:"trackingNumber"`
	Status         model.ShipmentStatus `json:"status"`
	CarrierName    string               `json:"carrierName,omitempty"`
	ServiceName    string               `json:"serviceName,omitempty"`
	Origin         string               `json:"origin,omitempty"`
	Destination    string               `json:"destination,omitempty"`
	Timeline       []Event              `json:"timeline"`
}
