package billing

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
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

func TestService_Credit_TopsUpBalanceAndRecordsLedger(t *testing.T) {
	db, sqlMock := setupTestDB(t)
	service := NewService(db)

	userID := uuid.New()

	sqlMock.ExpectBegin()
	sqlMock.ExpectExec(`UPDATE "users" SET "balance"=balance \+ \$1,"updated_at"=\$2 WHERE id = \$3`).
		WithArgs(75.0, sqlmock.AnyArg(), userID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	sqlMock.ExpectExec(`INSERT INTO "balance_transactions"`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), userID, nil, "credit", 75.0, "Balance top-up").
		WillReturnResult(sqlmock.NewResult(1, 1))
	sqlMock.ExpectCommit()

	sqlMock.ExpectQuery(`SELECT "balance" FROM "users" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(175.0))

	balance, err := service.Credit(context.Background(), userID, 75, "Balance top-up")
	require.NoError(t, err)
	assert.Equal(t, 175.0, balance)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestService_Credit_RejectsNonPositiveAmount(t *testing.T) {
	db, sqlMock := setupTestDB(t)
	service := NewService(db)

	// Validation fails before the balance update runs; the opened
	// transaction only rolls back.
	sqlMock.ExpectBegin()
	sqlMock.ExpectRollback()

	_, err := service.Credit(context.Background(), uuid.New(), 0, "")
	assert.Error(t, err)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestService_Credit_UnknownUser(t *testing.T) {
	db, sqlMock := setupTestDB(t)
	service := NewService(db)

	sqlMock.ExpectBegin()
	sqlMock.ExpectExec(`UPDATE "users" SET "balance"=balance \+ \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	sqlMock.ExpectRollback()

	_, err := service.Credit(context.Background(), uuid.New(), 50, "Balance top-up")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestService_DebitInTx_InsufficientBalance(t *testing.T) {
	db, sqlMock := setupTestDB(t)
	service := NewService(db)

	userID := uuid.New()

	// The guard clause matches no row when the balance is short.
	sqlMock.ExpectBegin()
	sqlMock.ExpectExec(`UPDATE "users" SET "balance"=balance - \$1,"updated_at"=\$2 WHERE id = \$3 AND balance >= \$4`).
		WithArgs(500.0, sqlmock.AnyArg(), userID, 500.0).
		WillReturnResult(sqlmock.NewResult(0, 0))
	sqlMock.ExpectRollback()

	err := db.Transaction(func(tx *gorm.DB) error {
		return service.DebitInTx(context.Background(), tx, userID, 500, nil, "Shipping charge")
	})
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}
