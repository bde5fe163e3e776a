package pricing

import (
	"context"
	"math"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/moogship/moogship/internal/config"
)

// QuoteRequest carries everything the engine needs to price a shipment.
type QuoteRequest struct {
	SenderCountry   string  `json:"senderCountry"`
	ReceiverCountry string  `json:"receiverCountry" validate:"required,len=2"`
	ReceiverCity    string  `json:"receiverCity"`
	Weight          float64 `json:"weight" validate:"required,gt=0"` // aggregated billable weight, kg
	Length          float64 `json:"length"`
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`

	ServiceTier        string `json:"serviceTier"`
	Service            string `json:"service"` // resolved service string
	UseCustomerService bool   `json:"useCustomerService"`
}

// PricingOption is one priced service returned by a quote. The three name
// fields are aliases kept for compatibility with older clients that match
// on any of them.
type PricingOption struct {
	ServiceName   string      `json:"serviceName"`
	ServiceCode   string      `json:"serviceCode"`
	DisplayName   string      `json:"displayName"`
	Tier          ServiceTier `json:"tier"`
	CargoPrice    float64     `json:"cargoPrice"`
	FuelCost      float64     `json:"fuelCost"`
	AdditionalFee float64     `json:"additionalFee"`
}

// QuoteResult is the response of a price calculation.
type QuoteResult struct {
	Options []PricingOption `json:"options"`
}

// Engine computes quotes from the rate table.
type Engine struct {
	db  *gorm.DB
	cfg config.PricingConfig
}

func NewEngine(db *gorm.DB, cfg config.PricingConfig) *Engine {
	return &Engine{db: db, cfg: cfg}
}

// Quote prices the request against every lane serving the destination.
// Options carrying the requested tier sort first so the first-option
// fallback stays inside the tier the caller asked for.
func (e *Engine) Quote(ctx context.Context, req QuoteRequest) (*QuoteResult, error) {
	rates, err := ratesForCountry(e.db.WithContext(ctx), strings.ToUpper(req.ReceiverCountry))
	if err != nil {
		return nil, err
	}
	if len(rates) == 0 {
		return nil, ErrNoRates
	}

	tier := ParseTier(req.ServiceTier)

	options := make([]PricingOption, 0, len(rates))
	for _, rate := range rates {
		cargo := rate.BaseCharge + rate.PerKg*req.Weight
		if cargo < rate.MinCharge {
			cargo = rate.MinCharge
		}
		cargo = roundCents(cargo)

		fuelPct := rate.FuelPct
		if fuelPct <= 0 {
			fuelPct = e.cfg.FuelSurchargePct
		}

		options = append(options, PricingOption{
			ServiceName:   rate.DisplayName,
			ServiceCode:   rate.ServiceCode,
			DisplayName:   rate.DisplayName,
			Tier:          rate.Tier,
			CargoPrice:    cargo,
			FuelCost:      roundCents(cargo * fuelPct),
			AdditionalFee: rate.AdditionalFee,
		})
	}

	sort.SliceStable(options, func(i, j int) bool {
		return (options[i].Tier == tier) && (options[j].Tier != tier)
	})

	return &QuoteResult{Options: options}, nil
}

// InsuranceCost returns the premium for a declared value.
func (e *Engine) InsuranceCost(declaredValue float64) float64 {
	if declaredValue <= 0 {
		return 0
	}
	cost := declaredValue * e.cfg.InsuranceRate
	if cost < e.cfg.InsuranceMinimum {
		cost = e.cfg.InsuranceMinimum
	}
	return roundCents(cost)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
