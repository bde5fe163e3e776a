package model

import (
	"github.com/google/uuid"
)

// VolumetricDivisor is the carrier-industry divisor for dimensional weight (cm³/kg).
const VolumetricDivisor = 5000.0

// Package is one parcel within a shipment. Volumetric and billable weight
// are derived, never stored.
type Package struct {
	BaseModel
	ShipmentID  uuid.UUID `gorm:"type:uuid;column:shipment_id;not null;index" json:"shipmentId"`
	Name        string    `gorm:"type:varchar(255);column:name" json:"name"`
	Description string    `gorm:"type:text;column:description" json:"description,omitempty"`
	Notes       string    `gorm:"type:text;column:notes" json:"notes,omitempty"`
	Weight      float64   `gorm:"type:numeric;column:weight;not null" json:"weight"`
	Length      float64   `gorm:"type:numeric;column:length;not null" json:"length"`
	Width       float64   `gorm:"type:numeric;column:width;not null" json:"width"`
	Height      float64   `gorm:"type:numeric;column:height;not null" json:"height"`
}

func (p *Package) TableName() string {
	return "packages"
}

// VolumetricWeight returns L×W×H divided by the industry divisor.
func (p *Package) VolumetricWeight() float64 {
	return p.Length * p.Width * p.Height / VolumetricDivisor
}

// BillableWeight returns the greater of actual and volumetric weight.
func (p *Package) BillableWeight() float64 {
	return max(p.Weight, p.VolumetricWeight())
}

// LineItem is a commercial-invoice line on a shipment. Read-mostly; the
// edit UI only uses it to infer a default customs code.
type LineItem struct {
	BaseModel
	ShipmentID    uuid.UUID `gorm:"type:uuid;column:shipment_id;not null;index" json:"shipmentId"`
	Description   string    `gorm:"type:text;column:description" json:"description"`
	Quantity      int       `gorm:"type:integer;column:quantity;not null;default:1" json:"quantity"`
	UnitPrice     float64   `gorm:"type:numeric;column:unit_price" json:"unitPrice"`
	SKU           string    `gorm:"type:varchar(100);column:sku" json:"sku,omitempty"`
	GTIN          string    `gorm:"type:varchar(40);column:gtin" json:"gtin,omitempty"`
	HSCode        string    `gorm:"type:varchar(20);column:hs_code" json:"hsCode,omitempty"`
	OriginCountry string    `gorm:"type:varchar(2);column:origin_country" json:"originCountry,omitempty"`
}

func (li *LineItem) TableName() string {
	return "line_items"
}
