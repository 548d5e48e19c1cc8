package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Freeeeeet/clinic_bot/internal/model"
	"go.uber.org/zap"
)

// DoctorService управляет справочником врачей.
// Удаление жёсткое: существующие бронирования хранят снимок имени
// и специальности врача и остаются валидными.
type DoctorService struct {
	doctors DoctorStore
	logger  *zap.Logger
}

func NewDoctorService(doctors DoctorStore, logger *zap.Logger) *DoctorService {
	return &DoctorService{doctors: doctors, logger: logger}
}

// Add добавляет врача
func (s *DoctorService) Add(ctx context.Context, name, specialty, contact string) (*model.Doctor, error) {
	doctor := &model.Doctor{
		Name:      strings.TrimSpace(name),
		Specialty: strings.TrimSpace(specialty),
		Contact:   strings.TrimSpace(contact),
	}

	if doctor.Name == "" {
		return nil, fmt.Errorf("doctor name is empty")
	}

	if err := s.doctors.Create(ctx, doctor); err != nil {
		return nil, fmt.Errorf("create doctor: %w", err)
	}

	s.logger.Info("Doctor added",
		zap.Int64("doctor_id", doctor.ID),
		zap.String("name", doctor.Name),
		zap.String("specialty", doctor.Specialty),
	)

	return doctor, nil
}

// Remove удаляет врача по ID или точному имени
func (s *DoctorService) Remove(ctx context.Context, ref string) (*model.Doctor, error) {
	ref = strings.TrimSpace(ref)

	var doctor *model.Doctor
	var err error

	if id, convErr := strconv.ParseInt(ref, 10, 64); convErr == nil {
		doctor, err = s.doctors.GetByID(ctx, id)
	} else {
		doctor, err = s.doctors.GetByName(ctx, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("find doctor: %w", err)
	}
	if doctor == nil {
		return nil, ErrNotFound
	}

	deleted, err := s.doctors.Delete(ctx, doctor.ID)
	if err != nil {
		return nil, fmt.Errorf("delete doctor: %w", err)
	}
	if !deleted {
		return nil, ErrNotFound
	}

	s.logger.Info("Doctor removed",
		zap.Int64("doctor_id", doctor.ID),
		zap.String("name", doctor.Name),
	)

	return doctor, nil
}

// List возвращает врачей в порядке добавления
func (s *DoctorService) List(ctx context.Context) ([]*model.Doctor, error) {
	return s.doctors.List(ctx)
}

// GetByID возвращает врача, nil если не найден
func (s *DoctorService) GetByID(ctx context.Context, id int64) (*model.Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}
