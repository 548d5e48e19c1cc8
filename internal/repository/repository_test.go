package repository

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/clinic_bot/internal/model"
	"github.com/Freeeeeet/clinic_bot/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func TestDoctorRepositoryCreate(t *testing.T) {
	mock := newMockPool(t)
	repo := NewDoctorRepository(mock)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO doctors").
		WithArgs("Dr. Mohammed", "Cardiology", "701").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), now))

	doctor := &model.Doctor{Name: "Dr. Mohammed", Specialty: "Cardiology", Contact: "701"}
	require.NoError(t, repo.Create(context.Background(), doctor))

	assert.Equal(t, int64(1), doctor.ID)
	assert.Equal(t, now, doctor.CreatedAt)
}

func TestDoctorRepositoryGetByIDNotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := NewDoctorRepository(mock)

	mock.ExpectQuery("SELECT (.+) FROM doctors").
		WithArgs(int64(42)).
		WillReturnError(pgx.ErrNoRows)

	doctor, err := repo.GetByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, doctor)
}

func TestDoctorRepositoryDelete(t *testing.T) {
	mock := newMockPool(t)
	repo := NewDoctorRepository(mock)

	mock.ExpectExec("DELETE FROM doctors").
		WithArgs(int64(5)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	deleted, err := repo.Delete(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, deleted)

	mock.ExpectExec("DELETE FROM doctors").
		WithArgs(int64(6)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	deleted, err = repo.Delete(context.Background(), 6)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestPendingPaymentRepositoryCreate(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPendingPaymentRepository(mock)

	now := time.Now()
	// ID выделяет booking_seq на стороне базы
	mock.ExpectQuery("INSERT INTO pending_payments").
		WithArgs(
			int64(10), "Ahmed Ali", "0912345678",
			int64(1), "Dr. Mohammed", "Cardiology",
			model.VisitTypeNew, 500000, model.PaymentStatusAwaiting, "",
		).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(7), now, now))

	p := &model.PendingPayment{
		ChatID:          10,
		PatientName:     "Ahmed Ali",
		PatientPhone:    "0912345678",
		DoctorID:        1,
		DoctorName:      "Dr. Mohammed",
		DoctorSpecialty: "Cardiology",
		VisitType:       model.VisitTypeNew,
		Price:           500000,
		Status:          model.PaymentStatusAwaiting,
	}
	require.NoError(t, repo.Create(context.Background(), p))
	assert.Equal(t, int64(7), p.ID)
}

func TestPendingPaymentRepositoryAttachProof(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPendingPaymentRepository(mock)

	now := time.Now()
	rows := pgxmock.NewRows([]string{
		"id", "chat_id", "patient_name", "patient_phone",
		"doctor_id", "doctor_name", "doctor_specialty",
		"visit_type", "price", "status", "proof_ref", "created_at", "updated_at",
	}).AddRow(
		int64(7), int64(10), "Ahmed Ali", "0912345678",
		int64(1), "Dr. Mohammed", "Cardiology",
		model.VisitTypeNew, 500000, model.PaymentStatusSubmitted, "file-abc", now, now,
	)

	mock.ExpectQuery("UPDATE pending_payments").
		WithArgs(int64(7), "file-abc", model.PaymentStatusSubmitted).
		WillReturnRows(rows)

	p, err := repo.AttachProof(context.Background(), 7, "file-abc")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, model.PaymentStatusSubmitted, p.Status)
	assert.Equal(t, "file-abc", p.ProofRef)
}

func TestPendingPaymentRepositoryAttachProofMissing(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPendingPaymentRepository(mock)

	mock.ExpectQuery("UPDATE pending_payments").
		WithArgs(int64(99), "file-abc", model.PaymentStatusSubmitted).
		WillReturnError(pgx.ErrNoRows)

	p, err := repo.AttachProof(context.Background(), 99, "file-abc")
	require.NoError(t, err)
	assert.Nil(t, p)
}

// TestLedgerConfirmSQLSequence проверяет порядок запросов подтверждения:
// выборка pending, подсчёт очереди, вставка в confirmed, удаление из pending
func TestLedgerConfirmSQLSequence(t *testing.T) {
	mock := newMockPool(t)
	ledger := service.NewLedgerService(
		NewPendingPaymentRepository(mock),
		NewConfirmedBookingRepository(mock),
		service.Prices{New: 500000, Followup: 300000},
		time.UTC,
		zap.NewNop(),
	)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM pending_payments WHERE id").
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "chat_id", "patient_name", "patient_phone",
			"doctor_id", "doctor_name", "doctor_specialty",
			"visit_type", "price", "status", "proof_ref", "created_at", "updated_at",
		}).AddRow(
			int64(7), int64(10), "Ahmed Ali", "0912345678",
			int64(1), "Dr. Mohammed", "Cardiology",
			model.VisitTypeNew, 500000, model.PaymentStatusSubmitted, "file-abc", now, now,
		))

	mock.ExpectQuery("SELECT count(.+) FROM confirmed_bookings").
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))

	mock.ExpectExec("INSERT INTO confirmed_bookings").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	mock.ExpectExec("DELETE FROM pending_payments").
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	b, err := ledger.Confirm(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), b.ID)
	assert.Equal(t, 3, b.QueuePosition)
	assert.Equal(t, "file-abc", b.ProofRef)
}

func TestConfirmedBookingRepositoryCountByDoctor(t *testing.T) {
	mock := newMockPool(t)
	repo := NewConfirmedBookingRepository(mock)

	mock.ExpectQuery("SELECT count(.+) FROM confirmed_bookings").
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountByDoctor(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestConfirmedBookingRepositoryDeleteAll(t *testing.T) {
	mock := newMockPool(t)
	repo := NewConfirmedBookingRepository(mock)

	mock.ExpectExec("DELETE FROM confirmed_bookings").
		WillReturnResult(pgxmock.NewResult("DELETE", 4))

	affected, err := repo.DeleteAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), affected)
}
