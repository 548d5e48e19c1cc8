package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/clinic_bot/internal/model"
)

// Интерфейсы хранилища. Продакшен реализация — internal/repository (PostgreSQL),
// для тестов и дев-режима — internal/repository/memory.

type DoctorStore interface {
	// Create сохраняет врача и присваивает ID
	Create(ctx context.Context, doctor *model.Doctor) error
	GetByID(ctx context.Context, id int64) (*model.Doctor, error)
	GetByName(ctx context.Context, name string) (*model.Doctor, error)
	// List возвращает врачей в порядке добавления
	List(ctx context.Context) ([]*model.Doctor, error)
	// Delete возвращает false если врача не было
	Delete(ctx context.Context, id int64) (bool, error)
}

type PendingStore interface {
	// Create присваивает ID из общей последовательности бронирований.
	// Последовательность не сбрасывается при ежедневной очистке.
	Create(ctx context.Context, p *model.PendingPayment) error
	GetByID(ctx context.Context, id int64) (*model.PendingPayment, error)
	GetByChat(ctx context.Context, chatID int64) (*model.PendingPayment, error)
	GetByChatAndDoctor(ctx context.Context, chatID, doctorID int64) (*model.PendingPayment, error)
	// LatestByChat последняя запись пациента, для префилла имени и телефона
	LatestByChat(ctx context.Context, chatID int64) (*model.PendingPayment, error)
	List(ctx context.Context) ([]*model.PendingPayment, error)
	// AttachProof переводит запись в payment_submitted, повторная отправка
	// перезаписывает чек. Возвращает nil, nil если записи нет.
	AttachProof(ctx context.Context, id int64, proofRef string) (*model.PendingPayment, error)
	Delete(ctx context.Context, id int64) (bool, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type ConfirmedStore interface {
	Create(ctx context.Context, b *model.ConfirmedBooking) error
	CountByDoctor(ctx context.Context, doctorID int64) (int, error)
	ListByDoctor(ctx context.Context, doctorID int64) ([]*model.ConfirmedBooking, error)
	List(ctx context.Context) ([]*model.ConfirmedBooking, error)
	ListInRange(ctx context.Context, from, to time.Time) ([]*model.ConfirmedBooking, error)
	LatestByChat(ctx context.Context, chatID int64) (*model.ConfirmedBooking, error)
	DeleteAll(ctx context.Context) (int64, error)
}
