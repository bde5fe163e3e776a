package pricing

import (
	"errors"
	"math"
	"strings"
)

// ErrNoOptions is returned when a quote produced an empty option list.
var ErrNoOptions = errors.New("quote returned no pricing options")

// SelectOption picks the option matching the resolved service string,
// comparing case-insensitively against all three name aliases. When nothing
// matches, the first option is used.
func SelectOption(options []PricingOption, service string) (PricingOption, error) {
	if len(options) == 0 {
		return PricingOption{}, ErrNoOptions
	}

	for _, opt := range options {
		if strings.EqualFold(opt.ServiceName, service) ||
			strings.EqualFold(opt.ServiceCode, service) ||
			strings.EqualFold(opt.DisplayName, service) {
			return opt, nil
		}
	}

	return options[0], nil
}

// CustomerAmounts is the priced result shown to (and charged from) the customer.
type CustomerAmounts struct {
	BasePrice     float64
	FuelCharge    float64
	AdditionalFee float64
	Total         float64
}

// CustomerPrice applies the creator's multiplier to an option. Base and fuel
// are rounded after multiplication; the additional fee passes through
// unmultiplied. A non-positive multiplier falls back to 1.
func CustomerPrice(opt PricingOption, multiplier float64) CustomerAmounts {
	if multiplier <= 0 {
		multiplier = 1
	}

	base := math.Round(opt.CargoPrice * multiplier)
	fuel := math.Round(opt.FuelCost * multiplier)

	return CustomerAmounts{
		BasePrice:     base,
		FuelCharge:    fuel,
		AdditionalFee: opt.AdditionalFee,
		Total:         base + fuel + opt.AdditionalFee,
	}
}

// RawCost is the carrier cost of an option before any markup.
func RawCost(opt PricingOption) float64 {
	return opt.CargoPrice + opt.FuelCost
}
