package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharath018/seva-counter-backend/internal/apperrors"
	"github.com/sharath018/seva-counter-backend/internal/dbtest"
)

func ledgerBooking() *Booking {
	at := time.Date(2026, 10, 16, 18, 0, 0, 0, ist)
	return &Booking{
		Reference:    "6f1c2a4e-0000-4000-8000-000000000001",
		CounterID:    "C1",
		BusinessDate: "2026-10-16",
		Shift:        "MORNING",
		SlotID:       4,
		ServiceID:    1,
		ServiceName:  "Archana",
		Price:        250,
		SlotDate:     "2026-10-16",
		StartTime:    "18:00",
		EndTime:      "19:00",
		StartsAt:     at,
		EndsAt:       at.Add(time.Hour),
		Devotee:      Devotee{Name: "Lakshmi", PartySize: 1},
		Payment:      Payment{AmountDue: 250, Status: PaymentPending},
		Status:       StatusPending,
		BookingType:  TypePreBooked,
		CreatedBy:    "staff-1",
	}
}

func TestRepositoryCreateRollsBackOnStaleSlot(t *testing.T) {
	db, mock := dbtest.NewMockDB(t)
	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "slots" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), ledgerBooking(), 3, []AuditEntry{{Action: ActionCreated, UserID: "staff-1"}})
	assert.True(t, errors.Is(err, apperrors.ErrConcurrentModification))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreateAllocatesReceiptInsideTransaction(t *testing.T) {
	db, mock := dbtest.NewMockDB(t)
	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "slots" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO receipt_sequences`).
		WithArgs("C1", "2026-10-16").
		WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(7))
	mock.ExpectQuery(`INSERT INTO "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectQuery(`INSERT INTO "booking_audit_entries"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(90))
	mock.ExpectCommit()

	b := ledgerBooking()
	err := repo.Create(context.Background(), b, 3, []AuditEntry{{Action: ActionCreated, UserID: "staff-1", At: time.Now()}})
	require.NoError(t, err)

	assert.Equal(t, uint(42), b.ID)
	assert.Equal(t, 7, b.ReceiptSequence)
	assert.Equal(t, "000007", b.ReceiptNumber)
	require.Len(t, b.AuditTrail, 1)
	assert.Equal(t, uint(42), b.AuditTrail[0].BookingID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryTransitionDetectsStatusRace(t *testing.T) {
	db, mock := dbtest.NewMockDB(t)
	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "bookings" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	b := ledgerBooking()
	b.ID = 42
	b.Status = StatusCollected
	err := repo.Transition(context.Background(), b, StatusPending, AuditEntry{Action: ActionPaymentCollected})
	assert.True(t, errors.Is(err, apperrors.ErrConcurrentModification))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetByIDNotFound(t *testing.T) {
	db, mock := dbtest.NewMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), 9)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestRepositoryListByScopeMatchesPaymentAndOutcomeShift(t *testing.T) {
	db, mock := dbtest.NewMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE counter_id = \$1 AND .*business_date = \$2 AND shift = \$3.*payment_business_date = \$4 AND payment_shift = \$5.*outcome_business_date = \$6 AND outcome_shift = \$7.*ORDER BY receipt_sequence ASC`).
		WithArgs("C1", "2026-10-16", "EVENING", "2026-10-16", "EVENING", "2026-10-16", "EVENING").
		WillReturnRows(sqlmock.NewRows([]string{"id", "counter_id", "business_date", "shift", "payment_business_date", "payment_shift"}).
			AddRow(42, "C1", "2026-10-16", "MORNING", "2026-10-16", "EVENING"))

	got, err := repo.ListByScope(context.Background(), "C1", "2026-10-16", "EVENING")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "MORNING", got[0].Shift)
	assert.Equal(t, "EVENING", got[0].Payment.Shift)
	assert.NoError(t, mock.ExpectationsWereMet())
}
