package service

import (
	"time"

	"github.com/moogship/moogship/internal/shipment/model"
)

// CreateInput carries a new shipment. Dimensions arrive as numbers already;
// parsing from form strings is the client's job, the API boundary is typed.
type CreateInput struct {
	SenderName    string `json:"senderName" validate:"required"`
	SenderPhone   string `json:"senderPhone"`
	SenderEmail   string `json:"senderEmail" validate:"omitempty,email"`
	SenderAddress string `json:"senderAddress" validate:"required"`
	SenderCity    string `json:"senderCity" validate:"required"`
	SenderCountry string `json:"senderCountry" validate:"required,len=2"`
	SenderZip     string `json:"senderZip"`

	ReceiverName    string `json:"receiverName" validate:"required"`
	ReceiverPhone   string `json:"receiverPhone"`
	ReceiverEmail   string `json:"receiverEmail" validate:"omitempty,email"`
	ReceiverAddress string `json:"receiverAddress" validate:"required"`
	ReceiverCity    string `json:"receiverCity" validate:"required"`
	ReceiverCountry string `json:"receiverCountry" validate:"required,len=2"`
	ReceiverZip     string `json:"receiverZip"`

	Weight float64 `json:"weight" validate:"gte=0"`
	Length float64 `json:"length" validate:"gte=0"`
	Width  float64 `json:"width" validate:"gte=0"`
	Height float64 `json:"height" validate:"gte=0"`

	GTIPCode     string  `json:"gtipCode"`
	IOSSNumber   string  `json:"iossNumber"`
	CustomsValue float64 `json:"customsValue" validate:"gte=0"`
	Currency     string  `json:"currency" validate:"omitempty,len=3"`

	CarrierName         string `json:"carrierName"`
	SelectedService     string `json:"selectedService"`
	ProviderServiceCode string `json:"providerServiceCode"`

	Insured       bool    `json:"insured"`
	DeclaredValue float64 `json:"declaredValue" validate:"gte=0"`

	Notes string `json:"notes"`

	Packages []PackageInput `json:"packages" validate:"dive"`
	Items    []ItemInput    `json:"items" validate:"dive"`
}

// PackageInput is one parcel on a create request.
type PackageInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Notes       string  `json:"notes"`
	Weight      float64 `json:"weight" validate:"required,gt=0"`
	Length      float64 `json:"length" validate:"required,gt=0"`
	Width       float64 `json:"width" validate:"required,gt=0"`
	Height      float64 `json:"height" validate:"required,gt=0"`
}

// ItemInput is one commercial-invoice line on a create request.
type ItemInput struct {
	Description   string  `json:"description" validate:"required"`
	Quantity      int     `json:"quantity" validate:"required,gt=0"`
	UnitPrice     float64 `json:"unitPrice" validate:"gte=0"`
	SKU           string  `json:"sku"`
	GTIN          string  `json:"gtin"`
	HSCode        string  `json:"hsCode"`
	OriginCountry string  `json:"originCountry" validate:"omitempty,len=2"`
}

func (in CreateInput) toModel() *model.Shipment {
	shipment := &model.Shipment{
		SenderName:    in.SenderName,
		SenderPhone:   in.SenderPhone,
		SenderEmail:   in.SenderEmail,
		SenderAddress: in.SenderAddress,
		SenderCity:    in.SenderCity,
		SenderCountry: in.SenderCountry,
		SenderZip:     in.SenderZip,

		ReceiverName:    in.ReceiverName,
		ReceiverPhone:   in.ReceiverPhone,
		ReceiverEmail:   in.ReceiverEmail,
		ReceiverAddress: in.ReceiverAddress,
		ReceiverCity:    in.ReceiverCity,
		ReceiverCountry: in.ReceiverCountry,
		ReceiverZip:     in.ReceiverZip,

		Weight: in.Weight,
		Length: in.Length,
		Width:  in.Width,
		Height: in.Height,

		GTIPCode:     in.GTIPCode,
		IOSSNumber:   in.IOSSNumber,
		CustomsValue: in.CustomsValue,
		Currency:     in.Currency,

		CarrierName:         in.CarrierName,
		SelectedService:     in.SelectedService,
		ProviderServiceCode: in.ProviderServiceCode,

		Insured:       in.Insured,
		DeclaredValue: in.DeclaredValue,
		Notes:         in.Notes,
	}

	for _, p := range in.Packages {
		shipment.Packages = append(shipment.Packages, model.Package{
			Name:        p.Name,
			Description: p.Description,
			Notes:       p.Notes,
			Weight:      p.Weight,
			Length:      p.Length,
			Width:       p.Width,
			Height:      p.Height,
		})
	}
	for _, it := range in.Items {
		shipment.LineItems = append(shipment.LineItems, model.LineItem{
			Description:   it.Description,
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice,
			SKU:           it.SKU,
			GTIN:          it.GTIN,
			HSCode:        it.HSCode,
			OriginCountry: it.OriginCountry,
		})
	}
	return shipment
}

// UpdateInput carries a full or partial shipment edit; nil fields are left
// untouched. Price fields are deliberately absent: prices only change
// through recalculation, never through a plain save.
type UpdateInput struct {
	SenderName    *string `json:"senderName"`
	SenderPhone   *string `json:"senderPhone"`
	SenderEmail   *string `json:"senderEmail" validate:"omitempty,email"`
	SenderAddress *string `json:"senderAddress"`
	SenderCity    *string `json:"senderCity"`
	SenderCountry *string `json:"senderCountry" validate:"omitempty,len=2"`
	SenderZip     *string `json:"senderZip"`

	ReceiverName    *string `json:"receiverName"`
	ReceiverPhone   *string `json:"receiverPhone"`
	ReceiverEmail   *string `json:"receiverEmail" validate:"omitempty,email"`
	ReceiverAddress *string `json:"receiverAddress"`
	ReceiverCity    *string `json:"receiverCity"`
	ReceiverCountry *string `json:"receiverCountry" validate:"omitempty,len=2"`
	ReceiverZip     *string `json:"receiverZip"`

	Weight *float64 `json:"weight" validate:"omitempty,gte=0"`
	Length *float64 `json:"length" validate:"omitempty,gte=0"`
	Width  *float64 `json:"width" validate:"omitempty,gte=0"`
	Height *float64 `json:"height" validate:"omitempty,gte=0"`

	GTIPCode     *string  `json:"gtipCode"`
	IOSSNumber   *string  `json:"iossNumber"`
	CustomsValue *float64 `json:"customsValue" validate:"omitempty,gte=0"`
	Currency     *string  `json:"currency" validate:"omitempty,len=3"`

	CarrierName         *string `json:"carrierName"`
	SelectedService     *string `json:"selectedService"`
	ProviderServiceCode *string `json:"providerServiceCode"`

	Insured       *bool    `json:"insured"`
	DeclaredValue *float64 `json:"declaredValue" validate:"omitempty,gte=0"`
	InsuranceCost *float64 `json:"insuranceCost" validate:"omitempty,gte=0"`

	Notes *string `json:"notes"`

	// NeedsRecalculation asks for a customer-mode repricing in the same
	// transaction as the edit.
	NeedsRecalculation bool `json:"needsRecalculation"`
}

func (in UpdateInput) changes() map[string]any {
	updates := map[string]any{}

	setStr := func(col string, v *string) {
		if v != nil {
			updates[col] = *v
		}
	}
	setFloat := func(col string, v *float64) {
		if v != nil {
			updates[col] = *v
		}
	}

	setStr("sender_name", in.SenderName)
	setStr("sender_phone", in.SenderPhone)
	setStr("sender_email", in.SenderEmail)
	setStr("sender_address", in.SenderAddress)
	setStr("sender_city", in.SenderCity)
	setStr("sender_country", in.SenderCountry)
	setStr("sender_zip", in.SenderZip)

	setStr("receiver_name", in.ReceiverName)
	setStr("receiver_phone", in.ReceiverPhone)
	setStr("receiver_email", in.ReceiverEmail)
	setStr("receiver_address", in.ReceiverAddress)
	setStr("receiver_city", in.ReceiverCity)
	setStr("receiver_country", in.ReceiverCountry)
	setStr("receiver_zip", in.ReceiverZip)

	setFloat("weight", in.Weight)
	setFloat("length", in.Length)
	setFloat("width", in.Width)
	setFloat("height", in.Height)

	setStr("gtip_code", in.GTIPCode)
	setStr("ioss_number", in.IOSSNumber)
	setFloat("customs_value", in.CustomsValue)
	setStr("currency", in.Currency)

	setStr("carrier_name", in.CarrierName)
	setStr("selected_service", in.SelectedService)
	setStr("provider_service_code", in.ProviderServiceCode)

	if in.Insured != nil {
		updates["insured"] = *in.Insured
	}
	setFloat("declared_value", in.DeclaredValue)
	setFloat("insurance_cost", in.InsuranceCost)
	setStr("notes", in.Notes)

	if len(updates) > 0 {
		updates["updated_at"] = time.Now().UTC()
	}
	return updates
}

// PackageDimensionsInput is a per-package dimension edit.
type PackageDimensionsInput struct {
	Weight float64 `json:"weight" validate:"required,gt=0"`
	Length float64 `json:"length" validate:"required,gt=0"`
	Width  float64 `json:"width" validate:"required,gt=0"`
	Height float64 `json:"height" validate:"required,gt=0"`
}

// PackageUpdateResult reports the updated package and whether an automatic
// repricing ran.
type PackageUpdateResult struct {
	Package      *model.Package `json:"package"`
	Recalculated bool           `json:"recalculated"`
}
