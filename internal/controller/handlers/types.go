package handlers

import (
	"context"

	"github.com/Freeeeeet/clinic_bot/internal/controller/state"
	"github.com/Freeeeeet/clinic_bot/internal/schedule"
	"github.com/Freeeeeet/clinic_bot/internal/service"
	"go.uber.org/zap"
)

// Event входящее сообщение, уже отвязанное от транспорта
type Event struct {
	ChatID   int64
	SenderID int64
	IsAdmin  bool
	Text     string
	PhotoRef string // file ID фото (чек об оплате), пусто если фото нет
}

// Sender исходящие сообщения. Реализуется телеграм-адаптером,
// в тестах — фейком. Ошибка отправки ничего не откатывает.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendPhoto(ctx context.Context, chatID int64, fileRef, caption string) error
}

// Handlers движок диалога и админ-команды
type Handlers struct {
	ledger    *service.LedgerService
	doctors   *service.DoctorService
	sessions  *state.Manager
	gate      *schedule.Gate
	scheduler *schedule.Scheduler
	sender    Sender
	admins    []int64
	logger    *zap.Logger
}

// NewHandlers создаёт движок диалога
func NewHandlers(
	ledger *service.LedgerService,
	doctors *service.DoctorService,
	sessions *state.Manager,
	gate *schedule.Gate,
	scheduler *schedule.Scheduler,
	sender Sender,
	admins []int64,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		ledger:    ledger,
		doctors:   doctors,
		sessions:  sessions,
		gate:      gate,
		scheduler: scheduler,
		sender:    sender,
		admins:    admins,
		logger:    logger,
	}
}

// IsAdmin проверяет, входит ли отправитель в список админов
func (h *Handlers) IsAdmin(senderID int64) bool {
	for _, id := range h.admins {
		if id == senderID {
			return true
		}
	}
	return false
}

// Handle обрабатывает одно входящее событие
func (h *Handlers) Handle(ctx context.Context, ev Event) {
	if isAdminCommand(ev.Text) {
		if !ev.IsAdmin {
			// Фиксированный отказ, состояние не меняется
			h.send(ctx, ev.ChatID, "⛔ This command is available to clinic staff only.")
			return
		}
		h.handleAdminCommand(ctx, ev)
		return
	}

	h.handlePatient(ctx, ev)
}
