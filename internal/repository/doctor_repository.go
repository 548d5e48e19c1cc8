package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/clinic_bot/internal/model"
	"github.com/Freeeeeet/clinic_bot/internal/repository/base"
)

type DoctorRepository struct {
	*base.Repository
}

func NewDoctorRepository(db base.DB) *DoctorRepository {
	return &DoctorRepository{Repository: base.NewRepository(db)}
}

// Create создаёт врача
func (r *DoctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	query := `
		INSERT INTO doctors (name, specialty, contact)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.QueryRow(ctx, query, doctor.Name, doctor.Specialty, doctor.Contact).
		Scan(&doctor.ID, &doctor.CreatedAt)

	if err != nil {
		return fmt.Errorf("create doctor: %w", err)
	}

	return nil
}

// GetByID получает врача по ID
func (r *DoctorRepository) GetByID(ctx context.Context, id int64) (*model.Doctor, error) {
	query := `
		SELECT id, name, specialty, contact, created_at
		FROM doctors
		WHERE id = $1
	`

	var doctor model.Doctor
	err := r.QueryRow(ctx, query, id).Scan(
		&doctor.ID,
		&doctor.Name,
		&doctor.Specialty,
		&doctor.Contact,
		&doctor.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get doctor by id: %w", err)
	}

	return &doctor, nil
}

// GetByName получает врача по точному имени (без учёта регистра)
func (r *DoctorRepository) GetByName(ctx context.Context, name string) (*model.Doctor, error) {
	query := `
		SELECT id, name, specialty, contact, created_at
		FROM doctors
		WHERE lower(name) = lower($1)
		LIMIT 1
	`

	var doctor model.Doctor
	err := r.QueryRow(ctx, query, name).Scan(
		&doctor.ID,
		&doctor.Name,
		&doctor.Specialty,
		&doctor.Contact,
		&doctor.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get doctor by name: %w", err)
	}

	return &doctor, nil
}

// List получает всех врачей в порядке добавления
func (r *DoctorRepository) List(ctx context.Context) ([]*model.Doctor, error) {
	query := `
		SELECT id, name, specialty, contact, created_at
		FROM doctors
		ORDER BY id ASC
	`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	defer rows.Close()

	var doctors []*model.Doctor
	for rows.Next() {
		var doctor model.Doctor
		err := rows.Scan(
			&doctor.ID,
			&doctor.Name,
			&doctor.Specialty,
			&doctor.Contact,
			&doctor.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan doctor: %w", err)
		}
		doctors = append(doctors, &doctor)
	}

	return doctors, nil
}

// Delete удаляет врача. Бронирования хранят снимок данных врача и не трогаются.
func (r *DoctorRepository) Delete(ctx context.Context, id int64) (bool, error) {
	affected, err := r.ExecAffected(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete doctor: %w", err)
	}
	return affected > 0, nil
}
