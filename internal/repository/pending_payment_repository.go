package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/clinic_bot/internal/model"
	"github.com/Freeeeeet/clinic_bot/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const pendingPaymentColumns = `id, chat_id, patient_name, patient_phone,
		doctor_id, doctor_name, doctor_specialty,
		visit_type, price, status, proof_ref, created_at, updated_at`

type PendingPaymentRepository struct {
	*base.Repository
}

func NewPendingPaymentRepository(db base.DB) *PendingPaymentRepository {
	return &PendingPaymentRepository{Repository: base.NewRepository(db)}
}

// Create создаёт запись об ожидании оплаты. ID берётся из booking_seq —
// общей последовательности pending и confirmed, она не сбрасывается
// ежедневной очисткой.
func (r *PendingPaymentRepository) Create(ctx context.Context, p *model.PendingPayment) error {
	query := `
		INSERT INTO pending_payments
			(id, chat_id, patient_name, patient_phone,
			 doctor_id, doctor_name, doctor_specialty,
			 visit_type, price, status, proof_ref)
		VALUES (nextval('booking_seq'), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		p.ChatID,
		p.PatientName,
		p.PatientPhone,
		p.DoctorID,
		p.DoctorName,
		p.DoctorSpecialty,
		p.VisitType,
		p.Price,
		p.Status,
		p.ProofRef,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create pending payment: %w", err)
	}

	return nil
}

// GetByID получает запись по ID
func (r *PendingPaymentRepository) GetByID(ctx context.Context, id int64) (*model.PendingPayment, error) {
	query := fmt.Sprintf(`SELECT %s FROM pending_payments WHERE id = $1`, pendingPaymentColumns)

	p, err := r.scanOne(r.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get pending payment by id: %w", err)
	}
	return p, nil
}

// GetByChat получает активное бронирование пациента.
// В pending лежат только активные записи, поэтому достаточно последней.
func (r *PendingPaymentRepository) GetByChat(ctx context.Context, chatID int64) (*model.PendingPayment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM pending_payments
		WHERE chat_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, pendingPaymentColumns)

	p, err := r.scanOne(r.QueryRow(ctx, query, chatID))
	if err != nil {
		return nil, fmt.Errorf("get pending payment by chat: %w", err)
	}
	return p, nil
}

// GetByChatAndDoctor получает активное бронирование пациента к врачу
func (r *PendingPaymentRepository) GetByChatAndDoctor(ctx context.Context, chatID, doctorID int64) (*model.PendingPayment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM pending_payments
		WHERE chat_id = $1 AND doctor_id = $2
		LIMIT 1
	`, pendingPaymentColumns)

	p, err := r.scanOne(r.QueryRow(ctx, query, chatID, doctorID))
	if err != nil {
		return nil, fmt.Errorf("get pending payment by chat and doctor: %w", err)
	}
	return p, nil
}

// LatestByChat последняя запись пациента, для префилла имени и телефона
func (r *PendingPaymentRepository) LatestByChat(ctx context.Context, chatID int64) (*model.PendingPayment, error) {
	return r.GetByChat(ctx, chatID)
}

// List получает все ожидающие оплаты, старые первыми
func (r *PendingPaymentRepository) List(ctx context.Context) ([]*model.PendingPayment, error) {
	query := fmt.Sprintf(`SELECT %s FROM pending_payments ORDER BY created_at ASC`, pendingPaymentColumns)

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list pending payments: %w", err)
	}
	defer rows.Close()

	var payments []*model.PendingPayment
	for rows.Next() {
		var p model.PendingPayment
		if err := scanPendingPayment(rows, &p); err != nil {
			return nil, fmt.Errorf("scan pending payment: %w", err)
		}
		payments = append(payments, &p)
	}

	return payments, nil
}

// AttachProof прикрепляет чек и переводит запись в payment_submitted.
// Повторная отправка перезаписывает чек. Возвращает nil, nil если записи нет.
func (r *PendingPaymentRepository) AttachProof(ctx context.Context, id int64, proofRef string) (*model.PendingPayment, error) {
	query := fmt.Sprintf(`
		UPDATE pending_payments
		SET proof_ref = $2, status = $3, updated_at = now()
		WHERE id = $1
		RETURNING %s
	`, pendingPaymentColumns)

	p, err := r.scanOne(r.QueryRow(ctx, query, id, proofRef, model.PaymentStatusSubmitted))
	if err != nil {
		return nil, fmt.Errorf("attach proof: %w", err)
	}
	return p, nil
}

// Delete удаляет запись
func (r *PendingPaymentRepository) Delete(ctx context.Context, id int64) (bool, error) {
	affected, err := r.ExecAffected(ctx, `DELETE FROM pending_payments WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete pending payment: %w", err)
	}
	return affected > 0, nil
}

// DeleteAll очищает таблицу, возвращает количество удалённых.
// booking_seq не трогается.
func (r *PendingPaymentRepository) DeleteAll(ctx context.Context) (int64, error) {
	affected, err := r.ExecAffected(ctx, `DELETE FROM pending_payments`)
	if err != nil {
		return 0, fmt.Errorf("clear pending payments: %w", err)
	}
	return affected, nil
}

func (r *PendingPaymentRepository) scanOne(row pgx.Row) (*model.PendingPayment, error) {
	var p model.PendingPayment
	if err := scanPendingPayment(row, &p); err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func scanPendingPayment(row pgx.Row, p *model.PendingPayment) error {
	return row.Scan(
		&p.ID,
		&p.ChatID,
		&p.PatientName,
		&p.PatientPhone,
		&p.DoctorID,
		&p.DoctorName,
		&p.DoctorSpecialty,
		&p.VisitType,
		&p.Price,
		&p.Status,
		&p.ProofRef,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}
