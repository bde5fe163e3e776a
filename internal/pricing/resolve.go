package pricing

import (
	"errors"
	"strings"
)

// ErrServiceRequired is returned when an admin-mode recalculation arrives
// without an explicit service selection.
var ErrServiceRequired = errors.New("service selection is required")

// FallbackService is used when a shipment carries no service information at all.
const FallbackService = "standard"

// ServiceFields are the stored carrier/service columns of a shipment, in
// resolution order.
type ServiceFields struct {
	CarrierName         string
	SelectedService     string
	ProviderServiceCode string
}

// ResolveCustomerService picks the service string for a customer-mode quote.
// The first non-empty field wins: carrierName takes precedence over
// selectedService even when the two differ, then providerServiceCode, then
// the fallback.
func ResolveCustomerService(f ServiceFields) string {
	if s := strings.TrimSpace(f.CarrierName); s != "" {
		return s
	}
	if s := strings.TrimSpace(f.SelectedService); s != "" {
		return s
	}
	if s := strings.TrimSpace(f.ProviderServiceCode); s != "" {
		return s
	}
	return FallbackService
}

// ResolveAdminService validates an explicit admin selection. An empty
// selection is rejected before any pricing work happens.
func ResolveAdminService(selected string) (string, error) {
	s := strings.TrimSpace(selected)
	if s == "" {
		return "", ErrServiceRequired
	}
	return s, nil
}
