package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeServiceName(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"known code", "moogship-gls-eco", "MoogShip GLS Eco"},
		{"known code uppercase", "WIDECT", "MoogShip Widect"},
		{"bare carrier", "ups", "MoogShip UPS"},
		{"standard fallback service", "standard", "MoogShip Standard"},
		{"unknown code title-cased", "dhl-paket_international", "Dhl Paket International"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeServiceName(tt.raw))
		})
	}
}
