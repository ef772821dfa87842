package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"cafehub/internal/apperr"
)

func TestRedeem(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	svc := NewLoyaltyService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, loyalty_points FROM customers WHERE phone = $1 FOR UPDATE`)).
		WithArgs("9876543210").
		WillReturnRows(sqlmock.NewRows([]string{"id", "loyalty_points"}).AddRow("cust1", 100))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE customers SET loyalty_points = loyalty_points - $1`)).
		WithArgs(40, "cust1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO loyalty_entries`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assert.NoError(t, svc.Redeem(context.Background(), "9876543210", "", 40))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedeemInsufficientPoints(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	svc := NewLoyaltyService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, loyalty_points FROM customers WHERE phone = $1 FOR UPDATE`)).
		WithArgs("9876543210").
		WillReturnRows(sqlmock.NewRows([]string{"id", "loyalty_points"}).AddRow("cust1", 10))
	mock.ExpectRollback()

	err = svc.Redeem(context.Background(), "9876543210", "", 40)
	assert.True(t, errors.Is(err, apperr.ErrInsufficientPoints))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedeemValidation(t *testing.T) {
	svc := NewLoyaltyService(nil)

	assert.True(t, apperr.IsValidation(svc.Redeem(context.Background(), "9876543210", "", 0)))
	assert.True(t, apperr.IsValidation(svc.Redeem(context.Background(), "9876543210", "", -5)))
}
