package schedule

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Freeeeeet/clinic_bot/internal/controller/state"
	"github.com/Freeeeeet/clinic_bot/internal/format"
	"github.com/Freeeeeet/clinic_bot/internal/model"
	"github.com/Freeeeeet/clinic_bot/internal/service"
	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier исходящие сообщения. Отправка fire-and-forget:
// неудача логируется и попадает в сводку, но ничего не откатывает.
type Notifier interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// Пауза между отправками сводок врачам, чтобы не душить транспорт
const summarySendPacing = 500 * time.Millisecond

// Scheduler фоновые задачи клиники: сводка врачам во время отсечки
// и полуночная очистка журнала.
type Scheduler struct {
	cron     *gocron.Scheduler
	cfg      *Config
	ledger   *service.LedgerService
	doctors  *service.DoctorService
	sessions *state.Manager
	notifier Notifier
	admins   []int64
	logger   *zap.Logger

	mu          sync.Mutex
	summaryJob  *gocron.Job
	lastSummary string // дата YYYY-MM-DD последней отправленной сводки
}

func NewScheduler(
	cfg *Config,
	ledger *service.LedgerService,
	doctors *service.DoctorService,
	sessions *state.Manager,
	notifier Notifier,
	admins []int64,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		cron:     gocron.NewScheduler(cfg.Location()),
		cfg:      cfg,
		ledger:   ledger,
		doctors:  doctors,
		sessions: sessions,
		notifier: notifier,
		admins:   admins,
		logger:   logger,
	}
}

// Config возвращает конфигурацию расписания (для гейта и админ-команд)
func (s *Scheduler) Config() *Config {
	return s.cfg
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("Starting clinic scheduler",
		zap.String("timezone", s.cfg.Location().String()),
		zap.String("cutoff", s.cfg.CutoffString()),
		zap.Bool("cutoff_enabled", s.cfg.Enabled()),
	)

	// Полуночная очистка работает всегда, независимо от отсечки
	_, err := s.cron.Every(1).Day().At("00:00").Do(func() {
		if _, err := s.RunReset(ctx); err != nil {
			s.logger.Error("Daily reset failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule daily reset: %w", err)
	}

	if err := s.scheduleSummary(ctx); err != nil {
		return err
	}

	s.cron.StartAsync()
	return nil
}

// Stop останавливает фоновые задачи
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping clinic scheduler")
	s.cron.Stop()
}

// Reschedule переносит задачу сводки на новое время отсечки.
// Вызывается после каждого изменения конфигурации: старая задача
// снимается, поэтому двойного срабатывания не бывает.
func (s *Scheduler) Reschedule(ctx context.Context) error {
	s.mu.Lock()
	if s.summaryJob != nil {
		s.cron.RemoveByReference(s.summaryJob)
		s.summaryJob = nil
	}
	s.mu.Unlock()

	return s.scheduleSummary(ctx)
}

func (s *Scheduler) scheduleSummary(ctx context.Context) error {
	if !s.cfg.Enabled() {
		s.logger.Info("Cutoff disabled, summary job not scheduled")
		return nil
	}

	job, err := s.cron.Every(1).Day().At(s.cfg.CutoffString()).Do(func() {
		if _, err := s.RunSummary(ctx); err != nil {
			s.logger.Error("Daily summary failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule daily summary: %w", err)
	}

	s.mu.Lock()
	s.summaryJob = job
	s.mu.Unlock()

	s.logger.Info("Summary job scheduled", zap.String("at", s.cfg.CutoffString()))
	return nil
}

// TriggerSummary ручной запуск сводки. С force маркер даты сбрасывается
// и сводка уходит повторно даже если сегодня уже отправлялась.
func (s *Scheduler) TriggerSummary(ctx context.Context, force bool) (SummaryResult, error) {
	if force {
		s.mu.Lock()
		s.lastSummary = ""
		s.mu.Unlock()
	}
	return s.RunSummary(ctx)
}

// SummaryResult итог рассылки сводки
type SummaryResult struct {
	Skipped bool // сводка за сегодня уже отправлялась
	BatchID string
	Sent    int
	Failed  int
}

// RunSummary отправляет каждому врачу сводку за день и общий отчёт админам.
// Защищена маркером даты: повторный запуск в тот же день (ручной /summary
// или дубль крона) ничего не делает. Ошибка отправки одному врачу
// не мешает остальным.
func (s *Scheduler) RunSummary(ctx context.Context) (SummaryResult, error) {
	today := time.Now().In(s.cfg.Location()).Format("2006-01-02")

	s.mu.Lock()
	if s.lastSummary == today {
		s.mu.Unlock()
		s.logger.Info("Summary already sent today, skipping")
		return SummaryResult{Skipped: true}, nil
	}
	s.lastSummary = today
	s.mu.Unlock()

	result := SummaryResult{BatchID: uuid.NewString()}

	doctors, err := s.doctors.List(ctx)
	if err != nil {
		// Снимаем маркер: ни одна сводка не ушла, день не должен сгореть
		s.mu.Lock()
		if s.lastSummary == today {
			s.lastSummary = ""
		}
		s.mu.Unlock()
		return result, fmt.Errorf("list doctors: %w", err)
	}

	s.logger.Info("Dispatching daily summaries",
		zap.String("batch_id", result.BatchID),
		zap.Int("doctors", len(doctors)),
	)

	var rollup strings.Builder
	fmt.Fprintf(&rollup, "📊 Daily summary dispatch %s\n\n", result.BatchID)

	for i, doctor := range doctors {
		if i > 0 {
			time.Sleep(summarySendPacing)
		}

		if err := s.sendDoctorSummary(ctx, doctor); err != nil {
			result.Failed++
			fmt.Fprintf(&rollup, "❌ %s — %v\n", doctor.Name, err)
			s.logger.Error("Failed to send doctor summary",
				zap.Int64("doctor_id", doctor.ID),
				zap.String("doctor", doctor.Name),
				zap.Error(err),
			)
			continue
		}

		result.Sent++
		fmt.Fprintf(&rollup, "✅ %s\n", doctor.Name)
	}

	fmt.Fprintf(&rollup, "\nSent: %d, failed: %d", result.Sent, result.Failed)
	s.notifyAdmins(ctx, rollup.String())

	s.logger.Info("Daily summaries dispatched",
		zap.String("batch_id", result.BatchID),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
	)

	return result, nil
}

func (s *Scheduler) sendDoctorSummary(ctx context.Context, doctor *model.Doctor) error {
	chatID, err := strconv.ParseInt(strings.TrimSpace(doctor.Contact), 10, 64)
	if err != nil {
		return fmt.Errorf("contact %q is not a chat id", doctor.Contact)
	}

	bookings, err := s.ledger.ConfirmedByDoctor(ctx, doctor.ID)
	if err != nil {
		return fmt.Errorf("confirmed bookings: %w", err)
	}

	if err := s.notifier.SendText(ctx, chatID, formatDoctorSummary(doctor, bookings)); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}

func formatDoctorSummary(doctor *model.Doctor, bookings []*model.ConfirmedBooking) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 Daily summary — %s (%s)\n\n", doctor.Name, doctor.Specialty)

	if len(bookings) == 0 {
		b.WriteString("No confirmed patients today.")
		return b.String()
	}

	fmt.Fprintf(&b, "Patients today (%d):\n", len(bookings))
	for _, booking := range bookings {
		fmt.Fprintf(&b, "%d. %s — %s — %s\n",
			booking.QueuePosition,
			booking.PatientName,
			booking.PatientPhone,
			format.VisitType(booking.VisitType),
		)
	}

	stats := service.SummarizeBookings(bookings)
	fmt.Fprintf(&b, "\nNew: %d | Follow-up: %d\n", stats.New, stats.Followup)
	fmt.Fprintf(&b, "Revenue: %s", format.Price(stats.Revenue))

	return b.String()
}

// RunReset полуночная очистка: журнал бронирований, сессии и отметки
// об уведомлениях. Счётчик ID не трогается.
func (s *Scheduler) RunReset(ctx context.Context) (service.ResetResult, error) {
	result, err := s.ledger.ResetDaily(ctx)
	if err != nil {
		return result, fmt.Errorf("reset ledger: %w", err)
	}

	clearedSessions := s.sessions.ClearAll()
	s.sessions.ClearAllNotified()

	s.logger.Info("Daily reset completed",
		zap.Int64("cleared_confirmed", result.ClearedConfirmed),
		zap.Int64("cleared_pending", result.ClearedPending),
		zap.Int("cleared_sessions", clearedSessions),
	)

	s.notifyAdmins(ctx, fmt.Sprintf(
		"🌙 Daily reset done.\nConfirmed cleared: %d\nPending cleared: %d\nSessions cleared: %d",
		result.ClearedConfirmed, result.ClearedPending, clearedSessions,
	))

	return result, nil
}

func (s *Scheduler) notifyAdmins(ctx context.Context, text string) {
	for _, adminID := range s.admins {
		if err := s.notifier.SendText(ctx, adminID, text); err != nil {
			s.logger.Error("Failed to notify admin",
				zap.Int64("admin_id", adminID),
				zap.Error(err),
			)
		}
	}
}
