package service

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/moogship/moogship/internal/pricing"
)

func glsEcoQuote() *pricing.QuoteResult {
	return &pricing.QuoteResult{Options: []pricing.PricingOption{
		{
			ServiceName:   "MoogShip GLS Eco",
			ServiceCode:   "moogship-gls-eco",
			DisplayName:   "MoogShip GLS Eco",
			Tier:          pricing.TierStandard,
			CargoPrice:    1000,
			FuelCost:      200,
			AdditionalFee: 50,
		},
	}}
}

func TestShipmentService_Recalculate_CustomerMode(t *testing.T) {
	service, sqlMock, quoter, _, _ := setupService(t)
	ctx := context.Background()

	shipmentID := uuid.New()
	creatorID := uuid.New()
	requester := customerContext(creatorID)

	shipmentRow := func() *sqlmock.Rows {
		return sqlmock.NewRows(shipmentColumns()).AddRow(
			shipmentID, creatorID, "pending", "MS-3F2A9C1D00",
			"TR", "DE", "Berlin",
			0, 0, 0, 0,
			"MoogShip GLS Eco", "widect", "", "",
			30.0, "", false, int64(3),
		)
	}
	packageRow := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "shipment_id", "weight", "length", "width", "height"}).
			AddRow(uuid.New(), shipmentID, 8.0, 40.0, 30.0, 20.0)
	}

	sqlMock.ExpectBegin()
	sqlMock.ExpectQuery(`SELECT \* FROM "shipments"`).WillReturnRows(shipmentRow())
	sqlMock.ExpectQuery(`SELECT \* FROM "shipments"`).WillReturnRows(shipmentRow())
	sqlMock.ExpectQuery(`SELECT \* FROM "packages"`).WillReturnRows(packageRow())

	// carrierName wins the service resolution; the billable weight is the
	// package's actual weight (8 > 4.8 volumetric).
	quoter.On("Quote", mock.Anything, mock.MatchedBy(func(req pricing.QuoteRequest) bool {
		return req.Service == "MoogShip GLS Eco" &&
			req.ServiceTier == "standard" &&
			req.Weight == 8 &&
			req.UseCustomerService
	})).Return(glsEcoQuote(), nil).Once()

	sqlMock.ExpectQuery(`SELECT "price_multiplier" FROM "users" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"price_multiplier"}).AddRow(1.1))

	// The taxes column is absent from the SET list; the stored taxes are
	// folded into total_price instead. The WHERE clause carries the
	// generation guard.
	sqlMock.ExpectExec(`UPDATE "shipments" SET "additional_fee"=\$1,"base_price"=\$2,"fuel_charge"=\$3,"original_base_price"=\$4,"original_fuel_charge"=\$5,"original_total"=\$6,"recalc_generation"=\$7,"total_price"=\$8,"updated_at"=\$9 WHERE id = \$10 AND recalc_generation = \$11`).
		WithArgs(50.0, 1100.0, 220.0, 1000.0, 200.0, 1200.0, int64(4), 1400.0, sqlmock.AnyArg(), shipmentID, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	sqlMock.ExpectQuery(`SELECT \* FROM "shipments"`).WillReturnRows(shipmentRow())
	sqlMock.ExpectQuery(`SELECT \* FROM "packages"`).WillReturnRows(packageRow())
	sqlMock.ExpectCommit()

	result, err := service.Recalculate(ctx, shipmentID, requester, RecalculateInput{Mode: ModeCustomer})
	require.NoError(t, err)
	assert.NotNil(t, result)

	quoter.AssertExpectations(t)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestShipmentService_Recalculate_AdminModeRequiresService(t *testing.T) {
	service, sqlMock, quoter, _, _ := setupService(t)

	// No expectations: validation must fail before any database work.
	_, err := service.Recalculate(context.Background(), uuid.New(), adminContext(), RecalculateInput{
		Mode:    ModeAdmin,
		Service: "",
	})
	assert.ErrorIs(t, err, pricing.ErrServiceRequired)

	quoter.AssertNotCalled(t, "Quote", mock.Anything, mock.Anything)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestShipmentService_Recalculate_AdminModeWritesServiceSelection(t *testing.T) {
	service, sqlMock, quoter, _, _ := setupService(t)

	shipmentID := uuid.New()
	creatorID := uuid.New()

	shipmentRow := func() *sqlmock.Rows {
		return sqlmock.NewRows(shipmentColumns()).AddRow(
			shipmentID, creatorID, "pending", "MS-3F2A9C1D00",
			"TR", "DE", "Berlin",
			5, 20, 20, 20,
			"MoogShip GLS Eco", "", "", "",
			0.0, "", false, int64(0),
		)
	}

	sqlMock.ExpectBegin()
	sqlMock.ExpectQuery(`SELECT \* FROM "shipments"`).WillReturnRows(shipmentRow())
	sqlMock.ExpectQuery(`SELECT \* FROM "shipments"`).WillReturnRows(shipmentRow())
	sqlMock.ExpectQuery(`SELECT \* FROM "packages"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "shipment_id"}))

	quoter.On("Quote", mock.Anything, mock.MatchedBy(func(req pricing.QuoteRequest) bool {
		return req.Service == "moogship-gls-eco" && !req.UseCustomerService
	})).Return(glsEcoQuote(), nil).Once()

	sqlMock.ExpectQuery(`SELECT "price_multiplier" FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"price_multiplier"}).AddRow(1.0))

	// Admin mode also rewrites the stored carrier selection.
	sqlMock.ExpectExec(`UPDATE "shipments" SET "additional_fee"=\$1,"base_price"=\$2,"carrier_name"=\$3,"fuel_charge"=\$4,"original_base_price"=\$5,"original_fuel_charge"=\$6,"original_total"=\$7,"recalc_generation"=\$8,"selected_service"=\$9,"total_price"=\$10,"updated_at"=\$11 WHERE id = \$12 AND recalc_generation = \$13`).
		WithArgs(50.0, 1000.0, "MoogShip GLS Eco", 200.0, 1000.0, 200.0, 1200.0, int64(1), "moogship-gls-eco", 1250.0, sqlmock.AnyArg(), shipmentID, int64(0)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	sqlMock.ExpectQuery(`SELECT \* FROM "shipments"`).WillReturnRows(shipmentRow())
	sqlMock.ExpectQuery(`SELECT \* FROM "packages"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "shipment_id"}))
	sqlMock.ExpectCommit()

	_, err := service.Recalculate(context.Background(), shipmentID, adminContext(), RecalculateInput{
		Mode:    ModeAdmin,
		Service: "moogship-gls-eco",
	})
	require.NoError(t, err)

	quoter.AssertExpectations(t)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestShipmentService_Recalculate_StaleGeneration(t *testing.T) {
	service, sqlMock, quoter, _, _ := setupService(t)

	shipmentID := uuid.New()
	creatorID := uuid.New()

	shipmentRow := func() *sqlmock.Rows {
		return sqlmock.NewRows(shipmentColumns()).AddRow(
			shipmentID, creatorID, "pending", "MS-3F2A9C1D00",
			"TR", "DE", "Berlin",
			5, 20, 20, 20,
			"MoogShip GLS Eco", "", "", "",
			0.0, "", false, int64(3),
		)
	}

	sqlMock.ExpectBegin()
	sqlMock.ExpectQuery(`SELECT \* FROM "shipments"`).WillReturnRows(shipmentRow())
	sqlMock.ExpectQuery(`SELECT \* FROM "shipments"`).WillReturnRows(shipmentRow())
	sqlMock.ExpectQuery(`SELECT \* FROM "packages"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "shipment_id"}))

	quoter.On("Quote", mock.Anything, mock.Anything).Return(glsEcoQuote(), nil).Once()

	sqlMock.ExpectQuery(`SELECT "price_multiplier" FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"price_multiplier"}).AddRow(1.0))

	// A concurrent recalculation bumped the generation first: zero rows
	// match the guard and the whole transaction rolls back.
	sqlMock.ExpectExec(`UPDATE "shipments" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	sqlMock.ExpectRollback()

	_, err := service.Recalculate(context.Background(), shipmentID, customerContext(creatorID), RecalculateInput{Mode: ModeCustomer})
	assert.ErrorIs(t, err, ErrStaleRecalculation)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestShipmentService_Recalculate_NotEditable(t *testing.T) {
	service, sqlMock, quoter, _, _ := setupService(t)

	shipmentID := uuid.New()
	creatorID := uuid.New()

	sqlMock.ExpectBegin()
	sqlMock.ExpectQuery(`SELECT \* FROM "shipments"`).
		WillReturnRows(sqlmock.NewRows(shipmentColumns()).AddRow(
			shipmentID, creatorID, "approved", "MS-3F2A9C1D00",
			"TR", "DE", "Berlin",
			5, 20, 20, 20,
			"MoogShip GLS Eco", "", "", "",
			0.0, "", false, int64(0),
		))
	sqlMock.ExpectRollback()

	_, err := service.Recalculate(context.Background(), shipmentID, customerContext(creatorID), RecalculateInput{Mode: ModeCustomer})
	assert.ErrorIs(t, err, ErrNotEditable)

	quoter.AssertNotCalled(t, "Quote", mock.Anything, mock.Anything)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestShipmentService_Recalculate_MissingCreatorUsesDefaultMultiplier(t *testing.T) {
	db, sqlMock := setupTestDB(t)
	quoter := new(MockQuoter)
	service := NewShipmentService(db, quoter, new(MockEventRecorder), new(MockLedger), 1.25)

	shipmentID := uuid.New()
	creatorID := uuid.New()

	shipmentRow := func() *sqlmock.Rows {
		return sqlmock.NewRows(shipmentColumns()).AddRow(
			shipmentID, creatorID, "pending", "MS-3F2A9C1D00",
			"TR", "DE", "Berlin",
			5, 20, 20, 20,
			"MoogShip GLS Eco", "", "", "",
			0.0, "", false, int64(3),
		)
	}

	sqlMock.ExpectBegin()
	sqlMock.ExpectQuery(`SELECT \* FROM "shipments"`).WillReturnRows(shipmentRow())
	sqlMock.ExpectQuery(`SELECT \* FROM "shipments"`).WillReturnRows(shipmentRow())
	sqlMock.ExpectQuery(`SELECT \* FROM "packages"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "shipment_id"}))

	quoter.On("Quote", mock.Anything, mock.Anything).Return(glsEcoQuote(), nil).Once()

	// The creator row is gone: the configured default multiplier prices the
	// quote instead of face value.
	sqlMock.ExpectQuery(`SELECT "price_multiplier" FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"price_multiplier"}))

	sqlMock.ExpectExec(`UPDATE "shipments" SET "additional_fee"=\$1,"base_price"=\$2,"fuel_charge"=\$3,"original_base_price"=\$4,"original_fuel_charge"=\$5,"original_total"=\$6,"recalc_generation"=\$7,"total_price"=\$8,"updated_at"=\$9 WHERE id = \$10 AND recalc_generation = \$11`).
		WithArgs(50.0, 1250.0, 250.0, 1000.0, 200.0, 1200.0, int64(4), 1550.0, sqlmock.AnyArg(), shipmentID, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	sqlMock.ExpectQuery(`SELECT \* FROM "shipments"`).WillReturnRows(shipmentRow())
	sqlMock.ExpectQuery(`SELECT \* FROM "packages"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "shipment_id"}))
	sqlMock.ExpectCommit()

	_, err := service.Recalculate(context.Background(), shipmentID, adminContext(), RecalculateInput{Mode: ModeCustomer})
	require.NoError(t, err)

	quoter.AssertExpectations(t)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestShipmentService_Update_RecalculationHint(t *testing.T) {
	service, sqlMock, quoter, _, _ := setupService(t)

	shipmentID := uuid.New()
	creatorID := uuid.New()
	newWeight := 9.0

	shipmentRow := func() *sqlmock.Rows {
		return sqlmock.NewRows(shipmentColumns()).AddRow(
			shipmentID, creatorID, "pending", "MS-3F2A9C1D00",
			"TR", "DE", "Berlin",
			0, 0, 0, 0,
			"MoogShip GLS Eco", "", "", "",
			30.0, "", false, int64(3),
		)
	}
	packageRow := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "shipment_id", "weight", "length", "width", "height"}).
			AddRow(uuid.New(), shipmentID, newWeight, 10.0, 10.0, 10.0)
	}

	sqlMock.ExpectBegin()
	sqlMock.ExpectQuery(`SELECT \* FROM "shipments"`).WillReturnRows(shipmentRow())

	sqlMock.ExpectExec(`UPDATE "shipments" SET "updated_at"=\$1,"weight"=\$2 WHERE id = \$3`).
		WithArgs(sqlmock.AnyArg(), newWeight, shipmentID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	sqlMock.ExpectQuery(`SELECT \* FROM "shipments"`).WillReturnRows(shipmentRow())
	sqlMock.ExpectQuery(`SELECT \* FROM "packages"`).WillReturnRows(packageRow())

	// The hint runs the customer-mode repricing inside the same transaction.
	quoter.On("Quote", mock.Anything, mock.MatchedBy(func(req pricing.QuoteRequest) bool {
		return req.Weight == newWeight && req.UseCustomerService
	})).Return(glsEcoQuote(), nil).Once()

	sqlMock.ExpectQuery(`SELECT "price_multiplier" FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"price_multiplier"}).AddRow(1.1))

	sqlMock.ExpectExec(`UPDATE "shipments" SET "additional_fee"=\$1,"base_price"=\$2,"fuel_charge"=\$3,"original_base_price"=\$4,"original_fuel_charge"=\$5,"original_total"=\$6,"recalc_generation"=\$7,"total_price"=\$8,"updated_at"=\$9 WHERE id = \$10 AND recalc_generation = \$11`).
		WithArgs(50.0, 1100.0, 220.0, 1000.0, 200.0, 1200.0, int64(4), 1400.0, sqlmock.AnyArg(), shipmentID, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	sqlMock.ExpectQuery(`SELECT \* FROM "shipments"`).WillReturnRows(shipmentRow())
	sqlMock.ExpectQuery(`SELECT \* FROM "packages"`).WillReturnRows(packageRow())
	sqlMock.ExpectCommit()

	_, err := service.Update(context.Background(), shipmentID, customerContext(creatorID), UpdateInput{
		Weight:             &newWeight,
		NeedsRecalculation: true,
	})
	require.NoError(t, err)

	quoter.AssertNumberOfCalls(t, "Quote", 1)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}
