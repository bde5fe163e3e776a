package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveCustomerService(t *testing.T) {
	tests := []struct {
		name     string
		fields   ServiceFields
		expected string
	}{
		{
			name: "carrier name wins over selected service",
			fields: ServiceFields{
				CarrierName:     "MoogShip GLS Eco",
				SelectedService: "widect",
			},
			expected: "MoogShip GLS Eco",
		},
		{
			name: "selected service when carrier name empty",
			fields: ServiceFields{
				SelectedService:     "widect",
				ProviderServiceCode: "moogship-ups-express",
			},
			expected: "widect",
		},
		{
			name:     "provider service code as last stored value",
			fields:   ServiceFields{ProviderServiceCode: "moogship-ups-express"},
			expected: "moogship-ups-express",
		},
		{
			name:     "fallback when nothing stored",
			fields:   ServiceFields{},
			expected: FallbackService,
		},
		{
			name: "whitespace-only fields are skipped",
			fields: ServiceFields{
				CarrierName:     "   ",
				SelectedService: "widect",
			},
			expected: "widect",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveCustomerService(tt.fields))
		})
	}
}

func TestResolveAdminService(t *testing.T) {
	s, err := ResolveAdminService("MoogShip UPS Express")
	assert.NoError(t, err)
	assert.Equal(t, "MoogShip UPS Express", s)

	_, err = ResolveAdminService("")
	assert.ErrorIs(t, err, ErrServiceRequired)

	_, err = ResolveAdminService("   ")
	assert.ErrorIs(t, err, ErrServiceRequired)
}
