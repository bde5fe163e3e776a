package model

import (
	"strings"

	"github.com/google/uuid"
)

// ShipmentStatus represents the lifecycle state of a shipment.
type ShipmentStatus string

const (
	StatusPending   ShipmentStatus = "pending"
	StatusApproved  ShipmentStatus = "approved"
	StatusRejected  ShipmentStatus = "rejected"
	StatusInTransit ShipmentStatus = "in_transit"
	StatusDelivered ShipmentStatus = "delivered"
	StatusCancelled ShipmentStatus = "cancelled"
)

// Shipment is the central aggregate of the platform: addresses, customs
// data, carrier selection and the priced result of the latest quote.
//
// The legacy Weight/Length/Width/Height columns predate the packages table.
// They remain authoritative only for shipments without package rows; for a
// single-package shipment they are kept mirrored on package edits.
type Shipment struct {
	BaseModel
	TrackingNumber string    `gorm:"type:varchar(40);column:tracking_number;uniqueIndex" json:"trackingNumber"`
	CreatorID      uuid.UUID `gorm:"type:uuid;column:creator_id;not null;index" json:"creatorId"`

	// Sender
	SenderName    string `gorm:"type:varchar(255);column:sender_name" json:"senderName"`
	SenderPhone   string `gorm:"type:varchar(40);column:sender_phone" json:"senderPhone"`
	SenderEmail   string `gorm:"type:varchar(255);column:sender_email" json:"senderEmail"`
	SenderAddress string `gorm:"type:text;column:sender_address" json:"senderAddress"`
	SenderCity    string `gorm:"type:varchar(100);column:sender_city" json:"senderCity"`
	SenderCountry string `gorm:"type:varchar(2);column:sender_country" json:"senderCountry"`
	SenderZip     string `gorm:"type:varchar(20);column:sender_zip" json:"senderZip"`

	// Receiver
	ReceiverName    string `gorm:"type:varchar(255);column:receiver_name" json:"receiverName"`
	ReceiverPhone   string `gorm:"type:varchar(40);column:receiver_phone" json:"receiverPhone"`
	ReceiverEmail   string `gorm:"type:varchar(255);column:receiver_email" json:"receiverEmail"`
	ReceiverAddress string `gorm:"type:text;column:receiver_address" json:"receiverAddress"`
	ReceiverCity    string `gorm:"type:varchar(100);column:receiver_city" json:"receiverCity"`
	ReceiverCountry string `gorm:"type:varchar(2);column:receiver_country" json:"receiverCountry"`
	ReceiverZip     string `gorm:"type:varchar(20);column:receiver_zip" json:"receiverZip"`

	// Legacy single-package dimensions (cm / kg)
	Weight float64 `gorm:"type:numeric;column:weight" json:"weight"`
	Length float64 `gorm:"type:numeric;column:length" json:"length"`
	Width  float64 `gorm:"type:numeric;column:width" json:"width"`
	Height float64 `gorm:"type:numeric;column:height" json:"height"`

	// Customs
	GTIPCode     string  `gorm:"type:varchar(20);column:gtip_code" json:"gtipCode"`
	IOSSNumber   string  `gorm:"type:varchar(40);column:ioss_number" json:"iossNumber"`
	CustomsValue float64 `gorm:"type:numeric;column:customs_value" json:"customsValue"`
	Currency     string  `gorm:"type:varchar(3);column:currency" json:"currency"`

	// Carrier / service selection
	CarrierName         string `gorm:"type:varchar(100);column:carrier_name" json:"carrierName"`
	SelectedService     string `gorm:"type:varchar(100);column:selected_service" json:"selectedService"`
	ProviderServiceCode string `gorm:"type:varchar(100);column:provider_service_code" json:"providerServiceCode"`
	ProviderName        string `gorm:"type:varchar(100);column:provider_name" json:"providerName"`

	// Customer-facing prices (creator's multiplier applied)
	BasePrice     float64 `gorm:"type:numeric;column:base_price" json:"basePrice"`
	FuelCharge    float64 `gorm:"type:numeric;column:fuel_charge" json:"fuelCharge"`
	AdditionalFee float64 `gorm:"type:numeric;column:additional_fee" json:"additionalFee"`
	Taxes         float64 `gorm:"type:numeric;column:taxes" json:"taxes"`
	TotalPrice    float64 `gorm:"type:numeric;column:total_price" json:"totalPrice"`

	// Raw carrier cost (no multiplier)
	OriginalBasePrice  float64 `gorm:"type:numeric;column:original_base_price" json:"originalBasePrice"`
	OriginalFuelCharge float64 `gorm:"type:numeric;column:original_fuel_charge" json:"originalFuelCharge"`
	OriginalTotal      float64 `gorm:"type:numeric;column:original_total" json:"originalTotal"`

	// Insurance
	Insured       bool    `gorm:"type:boolean;column:insured;not null;default:false" json:"insured"`
	DeclaredValue float64 `gorm:"type:numeric;column:declared_value" json:"declaredValue"`
	InsuranceCost float64 `gorm:"type:numeric;column:insurance_cost" json:"insuranceCost"`

	Status ShipmentStatus `gorm:"type:varchar(20);column:status;not null;default:'pending'" json:"status"`
	Notes  string         `gorm:"type:text;column:notes" json:"notes,omitempty"`

	// BulkImported marks rows created by the bulk import pipeline; their
	// prices were negotiated offline and must never be auto-recalculated.
	BulkImported bool `gorm:"type:boolean;column:bulk_imported;not null;default:false" json:"bulkImported"`

	// RecalcGeneration increases on every applied recalculation; writes
	// guarded by it discard stale quote results.
	RecalcGeneration int64 `gorm:"type:bigint;column:recalc_generation;not null;default:0" json:"recalcGeneration"`

	InvoiceKey string `gorm:"type:varchar(255);column:invoice_key" json:"-"`
	InvoiceURL string `gorm:"type:text;column:invoice_url" json:"invoiceUrl,omitempty"`

	Packages  []Package  `gorm:"foreignKey:ShipmentID" json:"packages,omitempty"`
	LineItems []LineItem `gorm:"foreignKey:ShipmentID" json:"lineItems,omitempty"`
}

func (s *Shipment) TableName() string {
	return "shipments"
}

// AggregateBillableWeight sums billable weight across the loaded packages.
// A shipment without package rows falls back to its legacy dimension fields,
// through the same per-package formula so both paths price identically.
func (s *Shipment) AggregateBillableWeight() float64 {
	if len(s.Packages) == 0 {
		legacy := Package{Weight: s.Weight, Length: s.Length, Width: s.Width, Height: s.Height}
		return legacy.BillableWeight()
	}

	var total float64
	for i := range s.Packages {
		total += s.Packages[i].BillableWeight()
	}
	return total
}

// CanCancel reports whether the shipment may still be cancelled.
func (s *Shipment) CanCancel() bool {
	return s.Status == StatusPending || s.Status == StatusApproved
}

// Editable reports whether a non-admin owner may still edit the shipment.
func (s *Shipment) Editable() bool {
	return s.Status == StatusPending
}

// IsBulkImported reports whether automatic repricing must be suppressed.
// The persisted flag is authoritative; the textual markers classify rows
// imported before the flag existed.
func (s *Shipment) IsBulkImported() bool {
	if s.BulkImported {
		return true
	}
	if containsBulkMarker(s.ProviderName) || containsBulkMarker(s.CarrierName) {
		return true
	}
	return containsBulkMarker(s.Notes)
}

func containsBulkMarker(s string) bool {
	return strings.Contains(strings.ToLower(s), "bulk")
}
