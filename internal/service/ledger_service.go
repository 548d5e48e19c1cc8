package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Freeeeeet/clinic_bot/internal/model"
	"go.uber.org/zap"
)

// Prices прайс-лист клиники в пиастрах
type Prices struct {
	New      int
	Followup int
}

// BookingDraft данные для создания бронирования, собранные движком диалога
type BookingDraft struct {
	ChatID       int64
	PatientName  string
	PatientPhone string
	Doctor       *model.Doctor
	VisitType    model.VisitType
}

// LedgerService владеет жизненным циклом бронирований:
// PendingPayment -> ConfirmedBooking либо удаление при отказе.
// Все мутации сериализуются одним мьютексом (single-writer): объёмы маленькие,
// а номер очереди считается как count+1 и две параллельные Confirm без
// сериализации выдали бы одинаковый номер.
type LedgerService struct {
	mu        sync.Mutex
	pending   PendingStore
	confirmed ConfirmedStore
	prices    Prices
	loc       *time.Location
	logger    *zap.Logger
}

func NewLedgerService(
	pending PendingStore,
	confirmed ConfirmedStore,
	prices Prices,
	loc *time.Location,
	logger *zap.Logger,
) *LedgerService {
	return &LedgerService{
		pending:   pending,
		confirmed: confirmed,
		prices:    prices,
		loc:       loc,
		logger:    logger,
	}
}

// ResolvePrice возвращает текущую цену для типа визита.
// Цена фиксируется в записи при создании и не меняется задним числом.
func (s *LedgerService) ResolvePrice(visitType model.VisitType) int {
	if visitType == model.VisitTypeFollowup {
		return s.prices.Followup
	}
	return s.prices.New
}

// CreatePending создаёт бронирование со статусом awaiting_payment.
// Если у пациента уже есть активное бронирование к этому врачу,
// возвращает ErrActiveBookingExists.
func (s *LedgerService) CreatePending(ctx context.Context, draft BookingDraft) (*model.PendingPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.pending.GetByChatAndDoctor(ctx, draft.ChatID, draft.Doctor.ID)
	if err != nil {
		return nil, fmt.Errorf("check active booking: %w", err)
	}
	if existing != nil {
		return nil, ErrActiveBookingExists
	}

	p := &model.PendingPayment{
		ChatID:          draft.ChatID,
		PatientName:     draft.PatientName,
		PatientPhone:    draft.PatientPhone,
		DoctorID:        draft.Doctor.ID,
		DoctorName:      draft.Doctor.Name,
		DoctorSpecialty: draft.Doctor.Specialty,
		VisitType:       draft.VisitType,
		Price:           s.ResolvePrice(draft.VisitType),
		Status:          model.PaymentStatusAwaiting,
	}

	if err := s.pending.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create pending payment: %w", err)
	}

	s.logger.Info("Pending payment created",
		zap.Int64("booking_id", p.ID),
		zap.Int64("chat_id", p.ChatID),
		zap.String("doctor", p.DoctorName),
		zap.String("visit_type", string(p.VisitType)),
		zap.Int("price", p.Price),
	)

	return p, nil
}

// AttachProof прикрепляет чек об оплате и переводит запись в payment_submitted.
// Повторная отправка перезаписывает чек и время.
func (s *LedgerService) AttachProof(ctx context.Context, id int64, proofRef string) (*model.PendingPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.pending.AttachProof(ctx, id, proofRef)
	if err != nil {
		return nil, fmt.Errorf("attach proof: %w", err)
	}
	if p == nil {
		return nil, ErrNotFound
	}

	s.logger.Info("Payment proof attached",
		zap.Int64("booking_id", id),
		zap.Int64("chat_id", p.ChatID),
	)

	return p, nil
}

// Confirm подтверждает оплату: запись уходит из pending, в confirmed
// добавляется бронирование с номером очереди = количество подтверждённых
// к этому врачу + 1. Номер присваивается один раз и не пересчитывается.
func (s *LedgerService) Confirm(ctx context.Context, id int64) (*model.ConfirmedBooking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.pending.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get pending payment: %w", err)
	}
	if p == nil {
		return nil, ErrNotFound
	}

	count, err := s.confirmed.CountByDoctor(ctx, p.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("count confirmed for doctor: %w", err)
	}

	b := &model.ConfirmedBooking{
		ID:              p.ID,
		ChatID:          p.ChatID,
		PatientName:     p.PatientName,
		PatientPhone:    p.PatientPhone,
		DoctorID:        p.DoctorID,
		DoctorName:      p.DoctorName,
		DoctorSpecialty: p.DoctorSpecialty,
		VisitType:       p.VisitType,
		Price:           p.Price,
		QueuePosition:   count + 1,
		ProofRef:        p.ProofRef,
		CreatedAt:       p.CreatedAt,
		ConfirmedAt:     time.Now().In(s.loc),
	}

	if err := s.confirmed.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create confirmed booking: %w", err)
	}

	if _, err := s.pending.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("remove pending payment: %w", err)
	}

	s.logger.Info("Booking confirmed",
		zap.Int64("booking_id", b.ID),
		zap.String("doctor", b.DoctorName),
		zap.Int("queue_position", b.QueuePosition),
	)

	return b, nil
}

// Reject отклоняет оплату: запись удаляется из pending насовсем.
// Причина не сохраняется, она уходит только в уведомления.
func (s *LedgerService) Reject(ctx context.Context, id int64) (*model.PendingPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.pending.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get pending payment: %w", err)
	}
	if p == nil {
		return nil, ErrNotFound
	}

	if _, err := s.pending.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("remove pending payment: %w", err)
	}

	s.logger.Info("Booking rejected",
		zap.Int64("booking_id", id),
		zap.Int64("chat_id", p.ChatID),
	)

	return p, nil
}

// CancelActive отменяет активное бронирование пациента по его инициативе.
// Удаляет только awaiting_payment: если чек уже на проверке, отмена
// невозможна (ErrPaymentUnderReview), решение за админом.
func (s *LedgerService) CancelActive(ctx context.Context, chatID int64) (*model.PendingPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.pending.GetByChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("get active booking: %w", err)
	}
	if p == nil {
		return nil, ErrNotFound
	}
	if p.Status == model.PaymentStatusSubmitted {
		return nil, ErrPaymentUnderReview
	}

	if _, err := s.pending.Delete(ctx, p.ID); err != nil {
		return nil, fmt.Errorf("remove pending payment: %w", err)
	}

	s.logger.Info("Booking canceled by patient",
		zap.Int64("booking_id", p.ID),
		zap.Int64("chat_id", chatID),
	)

	return p, nil
}

// ActiveByChat возвращает активное бронирование пациента, nil если нет
func (s *LedgerService) ActiveByChat(ctx context.Context, chatID int64) (*model.PendingPayment, error) {
	return s.pending.GetByChat(ctx, chatID)
}

// ActiveByChatAndDoctor возвращает активное бронирование пациента к врачу, nil если нет
func (s *LedgerService) ActiveByChatAndDoctor(ctx context.Context, chatID, doctorID int64) (*model.PendingPayment, error) {
	return s.pending.GetByChatAndDoctor(ctx, chatID, doctorID)
}

// ListPending возвращает все ожидающие оплаты
func (s *LedgerService) ListPending(ctx context.Context) ([]*model.PendingPayment, error) {
	return s.pending.List(ctx)
}

// ConfirmedByDoctor возвращает подтверждённые бронирования врача
func (s *LedgerService) ConfirmedByDoctor(ctx context.Context, doctorID int64) ([]*model.ConfirmedBooking, error) {
	return s.confirmed.ListByDoctor(ctx, doctorID)
}

// AllConfirmed возвращает все подтверждённые бронирования
func (s *LedgerService) AllConfirmed(ctx context.Context) ([]*model.ConfirmedBooking, error) {
	return s.confirmed.List(ctx)
}

// ConfirmedToday возвращает подтверждённые за текущий клинический день
func (s *LedgerService) ConfirmedToday(ctx context.Context) ([]*model.ConfirmedBooking, error) {
	now := time.Now().In(s.loc)
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	return s.ConfirmedInRange(ctx, from, from)
}

// ConfirmedInRange возвращает подтверждённые в диапазоне дат включительно.
// Конец диапазона расширяется до конца дня.
func (s *LedgerService) ConfirmedInRange(ctx context.Context, from, to time.Time) ([]*model.ConfirmedBooking, error) {
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, s.loc)
	to = time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 999000000, s.loc)
	return s.confirmed.ListInRange(ctx, from, to)
}

// LatestPatientInfo последние известные имя и телефон пациента.
// Подтверждённые записи приоритетнее ожидающих.
func (s *LedgerService) LatestPatientInfo(ctx context.Context, chatID int64) (name, phone string, ok bool, err error) {
	b, err := s.confirmed.LatestByChat(ctx, chatID)
	if err != nil {
		return "", "", false, fmt.Errorf("latest confirmed by chat: %w", err)
	}
	if b != nil {
		return b.PatientName, b.PatientPhone, true, nil
	}

	p, err := s.pending.LatestByChat(ctx, chatID)
	if err != nil {
		return "", "", false, fmt.Errorf("latest pending by chat: %w", err)
	}
	if p != nil {
		return p.PatientName, p.PatientPhone, true, nil
	}

	return "", "", false, nil
}

// ResetResult счётчики ежедневной очистки для отчёта админам
type ResetResult struct {
	ClearedConfirmed int64
	ClearedPending   int64
}

// ResetDaily очищает подтверждённые и ожидающие. Счётчик ID не трогается,
// поэтому номера бронирований уникальны и между днями.
func (s *LedgerService) ResetDaily(ctx context.Context) (ResetResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	confirmedCount, err := s.confirmed.DeleteAll(ctx)
	if err != nil {
		return ResetResult{}, fmt.Errorf("clear confirmed bookings: %w", err)
	}

	pendingCount, err := s.pending.DeleteAll(ctx)
	if err != nil {
		return ResetResult{}, fmt.Errorf("clear pending payments: %w", err)
	}

	s.logger.Info("Daily ledger reset",
		zap.Int64("cleared_confirmed", confirmedCount),
		zap.Int64("cleared_pending", pendingCount),
	)

	return ResetResult{ClearedConfirmed: confirmedCount, ClearedPending: pendingCount}, nil
}
