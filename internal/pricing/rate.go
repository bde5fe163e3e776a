package pricing

import (
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/moogship/moogship/internal/shipment/model"
)

// Rate is one sellable service lane: a carrier service priced for a
// destination country. Country "*" is the catch-all lane.
type Rate struct {
	model.BaseModel
	ServiceCode   string      `gorm:"type:varchar(100);column:service_code;not null;index" json:"serviceCode"`
	DisplayName   string      `gorm:"type:varchar(255);column:display_name;not null" json:"displayName"`
	Tier          ServiceTier `gorm:"type:varchar(20);column:tier;not null" json:"tier"`
	Country       string      `gorm:"type:varchar(2);column:country;not null;default:'*';index" json:"country"`
	BaseCharge    float64     `gorm:"type:numeric;column:base_charge;not null" json:"baseCharge"`
	PerKg         float64     `gorm:"type:numeric;column:per_kg;not null" json:"perKg"`
	MinCharge     float64     `gorm:"type:numeric;column:min_charge;not null" json:"minCharge"`
	FuelPct       float64     `gorm:"type:numeric;column:fuel_pct" json:"fuelPct"`
	AdditionalFee float64     `gorm:"type:numeric;column:additional_fee" json:"additionalFee"`
	Active        bool        `gorm:"type:boolean;column:active;not null;default:true" json:"active"`
}

func (r *Rate) TableName() string {
	return "rates"
}

var defaultRates = []Rate{
	{ServiceCode: "moogship-gls-eco", DisplayName: "MoogShip GLS Eco", Tier: TierStandard, Country: "*", BaseCharge: 120, PerKg: 85, MinCharge: 250, AdditionalFee: 0},
	{ServiceCode: "widect", DisplayName: "MoogShip Widect", Tier: TierStandard, Country: "*", BaseCharge: 100, PerKg: 78, MinCharge: 220, AdditionalFee: 0},
	{ServiceCode: "moogship-ups-express", DisplayName: "MoogShip UPS Express", Tier: TierExpress, Country: "*", BaseCharge: 260, PerKg: 140, MinCharge: 520, AdditionalFee: 35},
	{ServiceCode: "moogship-priority", DisplayName: "MoogShip Priority", Tier: TierPriority, Country: "*", BaseCharge: 380, PerKg: 190, MinCharge: 750, AdditionalFee: 50},
}

// SeedDefaultRates inserts the catch-all lanes when the rate table is empty,
// so a fresh install can quote immediately.
func SeedDefaultRates(db *gorm.DB) error {
	var count int64
	if err := db.Model(&Rate{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count rates: %w", err)
	}
	if count > 0 {
		return nil
	}

	for i := range defaultRates {
		defaultRates[i].Active = true
	}
	if err := db.Create(&defaultRates).Error; err != nil {
		return fmt.Errorf("failed to seed rates: %w", err)
	}

	slog.Info("seeded default rate table", "lanes", len(defaultRates))
	return nil
}

// ratesForCountry loads the active lanes serving a destination, preferring
// country-specific rows but always including the catch-all lanes.
func ratesForCountry(db *gorm.DB, country string) ([]Rate, error) {
	var rates []Rate
	err := db.Where("active = ? AND (country = ? OR country = ?)", true, country, "*").
		Order("country DESC, min_charge ASC").
		Find(&rates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load rates: %w", err)
	}
	return rates, nil
}

// ErrNoRates is returned when no lane serves the requested destination.
var ErrNoRates = errors.New("no pricing options available for destination")
