package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/clinic_bot/internal/model"
	"github.com/Freeeeeet/clinic_bot/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const confirmedBookingColumns = `id, chat_id, patient_name, patient_phone,
		doctor_id, doctor_name, doctor_specialty,
		visit_type, price, queue_position, proof_ref, created_at, confirmed_at`

type ConfirmedBookingRepository struct {
	*base.Repository
}

func NewConfirmedBookingRepository(db base.DB) *ConfirmedBookingRepository {
	return &ConfirmedBookingRepository{Repository: base.NewRepository(db)}
}

// Create сохраняет подтверждённое бронирование. ID приходит из pending,
// новый не выделяется.
func (r *ConfirmedBookingRepository) Create(ctx context.Context, b *model.ConfirmedBooking) error {
	query := `
		INSERT INTO confirmed_bookings
			(id, chat_id, patient_name, patient_phone,
			 doctor_id, doctor_name, doctor_specialty,
			 visit_type, price, queue_position, proof_ref, created_at, confirmed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.ExecAffected(
		ctx, query,
		b.ID,
		b.ChatID,
		b.PatientName,
		b.PatientPhone,
		b.DoctorID,
		b.DoctorName,
		b.DoctorSpecialty,
		b.VisitType,
		b.Price,
		b.QueuePosition,
		b.ProofRef,
		b.CreatedAt,
		b.ConfirmedAt,
	)

	if err != nil {
		return fmt.Errorf("create confirmed booking: %w", err)
	}

	return nil
}

// CountByDoctor количество подтверждённых бронирований врача.
// Используется для выдачи номера очереди (count + 1).
func (r *ConfirmedBookingRepository) CountByDoctor(ctx context.Context, doctorID int64) (int, error) {
	var count int
	err := r.QueryRow(ctx, `SELECT count(*) FROM confirmed_bookings WHERE doctor_id = $1`, doctorID).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count confirmed bookings: %w", err)
	}
	return count, nil
}

// ListByDoctor подтверждённые бронирования врача в порядке очереди
func (r *ConfirmedBookingRepository) ListByDoctor(ctx context.Context, doctorID int64) ([]*model.ConfirmedBooking, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM confirmed_bookings
		WHERE doctor_id = $1
		ORDER BY queue_position ASC
	`, confirmedBookingColumns)

	rows, err := r.Query(ctx, query, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list confirmed bookings by doctor: %w", err)
	}
	defer rows.Close()

	return collectConfirmed(rows)
}

// List все подтверждённые бронирования
func (r *ConfirmedBookingRepository) List(ctx context.Context) ([]*model.ConfirmedBooking, error) {
	query := fmt.Sprintf(`SELECT %s FROM confirmed_bookings ORDER BY confirmed_at ASC`, confirmedBookingColumns)

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list confirmed bookings: %w", err)
	}
	defer rows.Close()

	return collectConfirmed(rows)
}

// ListInRange подтверждённые в диапазоне времени подтверждения
func (r *ConfirmedBookingRepository) ListInRange(ctx context.Context, from, to time.Time) ([]*model.ConfirmedBooking, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM confirmed_bookings
		WHERE confirmed_at BETWEEN $1 AND $2
		ORDER BY confirmed_at ASC
	`, confirmedBookingColumns)

	rows, err := r.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("list confirmed bookings in range: %w", err)
	}
	defer rows.Close()

	return collectConfirmed(rows)
}

// LatestByChat последнее подтверждённое бронирование пациента
func (r *ConfirmedBookingRepository) LatestByChat(ctx context.Context, chatID int64) (*model.ConfirmedBooking, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM confirmed_bookings
		WHERE chat_id = $1
		ORDER BY confirmed_at DESC
		LIMIT 1
	`, confirmedBookingColumns)

	var b model.ConfirmedBooking
	if err := scanConfirmedBooking(r.QueryRow(ctx, query, chatID), &b); err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest confirmed booking by chat: %w", err)
	}
	return &b, nil
}

// DeleteAll очищает таблицу, возвращает количество удалённых
func (r *ConfirmedBookingRepository) DeleteAll(ctx context.Context) (int64, error) {
	affected, err := r.ExecAffected(ctx, `DELETE FROM confirmed_bookings`)
	if err != nil {
		return 0, fmt.Errorf("clear confirmed bookings: %w", err)
	}
	return affected, nil
}

func collectConfirmed(rows pgx.Rows) ([]*model.ConfirmedBooking, error) {
	var bookings []*model.ConfirmedBooking
	for rows.Next() {
		var b model.ConfirmedBooking
		if err := scanConfirmedBooking(rows, &b); err != nil {
			return nil, fmt.Errorf("scan confirmed booking: %w", err)
		}
		bookings = append(bookings, &b)
	}
	return bookings, nil
}

func scanConfirmedBooking(row pgx.Row, b *model.ConfirmedBooking) error {
	return row.Scan(
		&b.ID,
		&b.ChatID,
		&b.PatientName,
		&b.PatientPhone,
		&b.DoctorID,
		&b.DoctorName,
		&b.DoctorSpecialty,
		&b.VisitType,
		&b.Price,
		&b.QueuePosition,
		&b.ProofRef,
		&b.CreatedAt,
		&b.ConfirmedAt,
	)
}
