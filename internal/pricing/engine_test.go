package pricing

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/moogship/moogship/internal/config"
)

func setupTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	conn, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn: conn,
	}), &gorm.Config{})
	require.NoError(t, err)

	return db, sqlMock
}

func testPricingConfig() config.PricingConfig {
	return config.PricingConfig{
		FuelSurchargePct: 0.12,
		InsuranceRate:    0.015,
		InsuranceMinimum: 5,
	}
}

func rateRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"service_code", "display_name", "tier", "country",
		"base_charge", "per_kg", "min_charge", "fuel_pct", "additional_fee", "active",
	})
}

func TestEngine_Quote(t *testing.T) {
	db, sqlMock := setupTestDB(t)
	engine := NewEngine(db, testPricingConfig())
	ctx := context.Background()

	sqlMock.ExpectQuery(`SELECT \* FROM "rates" WHERE active = \$1 AND \(country = \$2 OR country = \$3\)`).
		WithArgs(true, "DE", "*").
		WillReturnRows(rateRows().
			AddRow("moogship-gls-eco", "MoogShip GLS Eco", "standard", "*", 120, 85, 250, 0, 0, true).
			AddRow("moogship-ups-express", "MoogShip UPS Express", "express", "*", 260, 140, 520, 0.1, 35, true))

	result, err := engine.Quote(ctx, QuoteRequest{
		ReceiverCountry: "de",
		Weight:          10,
		ServiceTier:     "express",
	})
	require.NoError(t, err)
	require.Len(t, result.Options, 2)

	// Options in the requested tier sort first.
	express := result.Options[0]
	assert.Equal(t, "moogship-ups-express", express.ServiceCode)
	assert.Equal(t, TierExpress, express.Tier)
	assert.Equal(t, 1660.0, express.CargoPrice) // 260 + 140*10
	assert.Equal(t, 166.0, express.FuelCost)    // row-level 10%
	assert.Equal(t, 35.0, express.AdditionalFee)

	standard := result.Options[1]
	assert.Equal(t, 970.0, standard.CargoPrice) // 120 + 85*10
	assert.Equal(t, 116.4, standard.FuelCost)   // config surcharge fallback

	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestEngine_Quote_MinChargeFloor(t *testing.T) {
	db, sqlMock := setupTestDB(t)
	engine := NewEngine(db, testPricingConfig())

	sqlMock.ExpectQuery(`SELECT \* FROM "rates"`).
		WithArgs(true, "NL", "*").
		WillReturnRows(rateRows().
			AddRow("moogship-gls-eco", "MoogShip GLS Eco", "standard", "*", 120, 85, 250, 0, 0, true))

	result, err := engine.Quote(context.Background(), QuoteRequest{
		ReceiverCountry: "NL",
		Weight:          0.5,
	})
	require.NoError(t, err)
	require.Len(t, result.Options, 1)
	assert.Equal(t, 250.0, result.Options[0].CargoPrice) // 120 + 42.5 < min charge
}

func TestEngine_Quote_NoRates(t *testing.T) {
	db, sqlMock := setupTestDB(t)
	engine := NewEngine(db, testPricingConfig())

	sqlMock.ExpectQuery(`SELECT \* FROM "rates"`).
		WithArgs(true, "XX", "*").
		WillReturnRows(rateRows())

	_, err := engine.Quote(context.Background(), QuoteRequest{ReceiverCountry: "XX", Weight: 1})
	assert.ErrorIs(t, err, ErrNoRates)
}

func TestEngine_InsuranceCost(t *testing.T) {
	engine := NewEngine(nil, testPricingConfig())

	assert.Equal(t, 15.0, engine.InsuranceCost(1000))
	assert.Equal(t, 5.0, engine.InsuranceCost(100)) // floor
	assert.Equal(t, 0.0, engine.InsuranceCost(0))
	assert.Equal(t, 0.0, engine.InsuranceCost(-10))
}
