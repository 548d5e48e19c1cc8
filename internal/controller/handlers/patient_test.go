package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Freeeeeet/clinic_bot/internal/controller/state"
	"github.com/Freeeeeet/clinic_bot/internal/model"
	"github.com/Freeeeeet/clinic_bot/internal/repository/memory"
	"github.com/Freeeeeet/clinic_bot/internal/schedule"
	"github.com/Freeeeeet/clinic_bot/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const adminChatID int64 = 900

// fakeSender записывает исходящие сообщения вместо отправки в телеграм
type fakeSender struct {
	texts     map[int64][]string
	photos    map[int64][]string // подписи к фото
	photoFail bool
}

func newFakeSender() *fakeSender {
	return &fakeSender{
		texts:  make(map[int64][]string),
		photos: make(map[int64][]string),
	}
}

func (f *fakeSender) SendText(_ context.Context, chatID int64, text string) error {
	f.texts[chatID] = append(f.texts[chatID], text)
	return nil
}

func (f *fakeSender) SendPhoto(_ context.Context, chatID int64, _, caption string) error {
	if f.photoFail {
		return errors.New("photo upload failed")
	}
	f.photos[chatID] = append(f.photos[chatID], caption)
	return nil
}

// last последнее сообщение, отправленное в чат
func (f *fakeSender) last(chatID int64) string {
	msgs := f.texts[chatID]
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1]
}

type fixture struct {
	handlers *Handlers
	sender   *fakeSender
	sessions *state.Manager
	ledger   *service.LedgerService
	doctors  *service.DoctorService
	cfg      *schedule.Config
}

// newFixture собирает движок диалога на memory-хранилище с гейтом,
// открытым в 10:00 по клинике
func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	logger := zap.NewNop()

	prices := service.Prices{New: 500000, Followup: 300000}
	ledger := service.NewLedgerService(store.Pending(), store.Confirmed(), prices, time.UTC, logger)
	doctors := service.NewDoctorService(store.Doctors(), logger)
	sessions := state.NewManager(logger)

	cfg := schedule.NewConfig(true, 18, 0, time.UTC)
	gate := schedule.NewGateWithClock(cfg, func() time.Time {
		return time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	})

	sender := newFakeSender()
	scheduler := schedule.NewScheduler(cfg, ledger, doctors, sessions, sender, []int64{adminChatID}, logger)

	h := NewHandlers(ledger, doctors, sessions, gate, scheduler, sender, []int64{adminChatID}, logger)

	return &fixture{
		handlers: h,
		sender:   sender,
		sessions: sessions,
		ledger:   ledger,
		doctors:  doctors,
		cfg:      cfg,
	}
}

func (f *fixture) addDoctor(t *testing.T, name, specialty string) *model.Doctor {
	t.Helper()
	doctor, err := f.doctors.Add(context.Background(), name, specialty, "555000111")
	require.NoError(t, err)
	return doctor
}

func (f *fixture) say(chatID int64, text string) {
	f.handlers.Handle(context.Background(), Event{ChatID: chatID, SenderID: chatID, Text: text})
}

func (f *fixture) sendPhoto(chatID int64, fileRef string) {
	f.handlers.Handle(context.Background(), Event{ChatID: chatID, SenderID: chatID, PhotoRef: fileRef})
}

func TestBookingHappyPath(t *testing.T) {
	f := newFixture(t)
	f.addDoctor(t, "Dr. Mohammed", "Cardiology")
	ctx := context.Background()

	f.say(10, "hi")
	assert.Contains(t, f.sender.last(10), "Our doctors")
	assert.Equal(t, state.StateAwaitingDoctorChoice, f.sessions.Get(10).State)

	f.say(10, "1")
	assert.Contains(t, f.sender.last(10), "full name")

	f.say(10, "Ahmed Ali")
	assert.Contains(t, f.sender.last(10), "phone number")

	f.say(10, "+249 91 234 5678")
	assert.Contains(t, f.sender.last(10), "type of visit")

	f.say(10, "new")
	assert.Contains(t, f.sender.last(10), "confirm your booking")
	assert.Contains(t, f.sender.last(10), "5000 SDG")

	f.say(10, "yes")
	assert.Contains(t, f.sender.last(10), "Booking #1 created")
	assert.Equal(t, state.StateAwaitingPaymentProof, f.sessions.Get(10).State)

	// Запись в журнале со снимком врача и зафиксированной ценой
	active, err := f.ledger.ActiveByChat(ctx, 10)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "Dr. Mohammed", active.DoctorName)
	assert.Equal(t, "249912345678", active.PatientPhone)
	assert.Equal(t, 500000, active.Price)

	// Чек уходит админам фотографией с командами модерации
	f.sendPhoto(10, "file-receipt-1")
	assert.Contains(t, f.sender.last(10), "Receipt received")
	assert.Equal(t, state.StatePaymentSubmitted, f.sessions.Get(10).State)
	require.Len(t, f.sender.photos[adminChatID], 1)
	assert.Contains(t, f.sender.photos[adminChatID][0], "/confirm 1")
	assert.Contains(t, f.sender.photos[adminChatID][0], "/reject 1")
}

func TestBookingClosedAfterCutoff(t *testing.T) {
	f := newFixture(t)
	f.addDoctor(t, "Dr. Mohammed", "Cardiology")

	require.NoError(t, f.cfg.SetCutoff(9, 0)) // часы фикстуры показывают 10:00

	f.say(10, "hi")
	assert.Contains(t, f.sender.last(10), "Booking is closed for today")
	assert.Contains(t, f.sender.last(10), "09:00")
	assert.Equal(t, state.StateIdle, f.sessions.Get(10).State)
}

func TestArabicConversation(t *testing.T) {
	f := newFixture(t)
	f.addDoctor(t, "Dr. Fatima", "Dermatology")

	f.say(10, "السلام عليكم")
	assert.Contains(t, f.sender.last(10), "Our doctors")

	f.say(10, "١") // восточно-арабская единица
	assert.Contains(t, f.sender.last(10), "full name")

	f.say(10, "Sara Hassan")
	f.say(10, "٠٩١٢٣٤٥٦٧٨")
	assert.Contains(t, f.sender.last(10), "type of visit")

	f.say(10, "متابعة")
	assert.Contains(t, f.sender.last(10), "confirm your booking")

	f.say(10, "نعم")
	assert.Contains(t, f.sender.last(10), "created")
}

func TestInvalidInputsReprompt(t *testing.T) {
	f := newFixture(t)
	f.addDoctor(t, "Dr. Mohammed", "Cardiology")

	f.say(10, "hi")

	// Неизвестный врач — состояние не меняется
	f.say(10, "Dr. Nobody")
	assert.Contains(t, f.sender.last(10), "couldn't find")
	assert.Equal(t, state.StateAwaitingDoctorChoice, f.sessions.Get(10).State)

	f.say(10, "1")
	f.say(10, "Al") // короче минимума
	assert.Contains(t, f.sender.last(10), "too short")
	assert.Equal(t, state.StateAwaitingPatientName, f.sessions.Get(10).State)

	f.say(10, "Ahmed Ali")
	f.say(10, "12") // не телефон
	assert.Contains(t, f.sender.last(10), "valid phone")
	assert.Equal(t, state.StateAwaitingPatientPhone, f.sessions.Get(10).State)

	f.say(10, "0912345678")
	f.say(10, "whatever")
	assert.Contains(t, f.sender.last(10), "new consultation")

	f.say(10, "new")
	f.say(10, "hmm")
	assert.Contains(t, f.sender.last(10), "\"yes\" to confirm")
}

func TestDeclineAtConfirmation(t *testing.T) {
	f := newFixture(t)
	f.addDoctor(t, "Dr. Mohammed", "Cardiology")

	f.say(10, "hi")
	f.say(10, "1")
	f.say(10, "Ahmed Ali")
	f.say(10, "0912345678")
	f.say(10, "new")
	f.say(10, "no")

	assert.Contains(t, f.sender.last(10), "cancelled")
	assert.Equal(t, state.StateIdle, f.sessions.Get(10).State)

	// В журнал ничего не попало
	active, err := f.ledger.ActiveByChat(context.Background(), 10)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestActiveBookingNotifiedOnce(t *testing.T) {
	f := newFixture(t)
	f.addDoctor(t, "Dr. Mohammed", "Cardiology")

	createPending(t, f, 10)
	f.sessions.ClearAll() // имитируем рестарт процесса

	f.say(10, "random text")
	assert.Contains(t, f.sender.last(10), "already have an active booking")

	// Повторный свободный текст молча игнорируется
	count := len(f.sender.texts[10])
	f.say(10, "more random text")
	assert.Len(t, f.sender.texts[10], count)

	// Явная команда всё равно показывает статус
	f.say(10, "book")
	assert.Contains(t, f.sender.last(10), "awaiting payment")
	assert.Equal(t, state.StateAwaitingPaymentProof, f.sessions.Get(10).State)
}

func TestPhotoWithoutActiveBooking(t *testing.T) {
	f := newFixture(t)

	f.sendPhoto(10, "file-receipt")
	assert.Contains(t, f.sender.last(10), "no active booking")
}

func TestPhotoAfterRestartFindsBookingInLedger(t *testing.T) {
	f := newFixture(t)
	f.addDoctor(t, "Dr. Mohammed", "Cardiology")

	id := createPending(t, f, 10)
	f.sessions.ClearAll()

	f.sendPhoto(10, "file-receipt")
	assert.Contains(t, f.sender.last(10), fmt.Sprintf("Receipt received for booking #%d", id))
	assert.Equal(t, state.StatePaymentSubmitted, f.sessions.Get(10).State)
}

func TestPhotoFallbackToTextWhenPhotoFails(t *testing.T) {
	f := newFixture(t)
	f.addDoctor(t, "Dr. Mohammed", "Cardiology")
	f.sender.photoFail = true

	createPending(t, f, 10)
	f.sendPhoto(10, "file-receipt")

	// Фото не дошло, но админ получил текстовое уведомление с командами
	require.NotEmpty(t, f.sender.texts[adminChatID])
	notice := f.sender.last(adminChatID)
	assert.Contains(t, notice, "receipt photo could not be forwarded")
	assert.Contains(t, notice, "/confirm")
}

func TestCancelActiveBooking(t *testing.T) {
	f := newFixture(t)
	f.addDoctor(t, "Dr. Mohammed", "Cardiology")

	id := createPending(t, f, 10)

	f.say(10, "cancel")
	assert.Contains(t, f.sender.last(10), fmt.Sprintf("Booking #%d cancelled", id))
	assert.Equal(t, state.StateIdle, f.sessions.Get(10).State)

	active, err := f.ledger.ActiveByChat(context.Background(), 10)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestCancelBlockedDuringReview(t *testing.T) {
	f := newFixture(t)
	f.addDoctor(t, "Dr. Mohammed", "Cardiology")

	createPending(t, f, 10)
	f.sendPhoto(10, "file-receipt")

	f.say(10, "الغاء")
	assert.Contains(t, f.sender.last(10), "can't be")
	assert.Contains(t, f.sender.last(10), "contact the clinic")

	// Запись осталась в журнале
	active, err := f.ledger.ActiveByChat(context.Background(), 10)
	require.NoError(t, err)
	require.NotNil(t, active)
}

func TestCancelWithNothingActive(t *testing.T) {
	f := newFixture(t)

	f.say(10, "cancel")
	assert.Contains(t, f.sender.last(10), "Nothing to cancel")
}

func TestCancelMidConversation(t *testing.T) {
	f := newFixture(t)
	f.addDoctor(t, "Dr. Mohammed", "Cardiology")

	f.say(10, "hi")
	f.say(10, "1")
	f.say(10, "cancel")

	assert.Contains(t, f.sender.last(10), "Cancelled")
	assert.Equal(t, state.StateIdle, f.sessions.Get(10).State)
}

func TestReturningPatientSkipsIdentity(t *testing.T) {
	f := newFixture(t)
	f.addDoctor(t, "Dr. Mohammed", "Cardiology")
	f.addDoctor(t, "Dr. Fatima", "Dermatology")
	ctx := context.Background()

	id := createPending(t, f, 10)
	_, err := f.ledger.AttachProof(ctx, id, "file-receipt")
	require.NoError(t, err)
	_, err = f.ledger.Confirm(ctx, id)
	require.NoError(t, err)
	f.sessions.ClearAll()

	// Имя и телефон подтягиваются из прошлого бронирования
	f.say(10, "book")
	f.say(10, "Fatima")
	assert.Contains(t, f.sender.last(10), "Ahmed Ali")
	assert.Contains(t, f.sender.last(10), "type of visit")
	assert.Equal(t, state.StateAwaitingVisitType, f.sessions.Get(10).State)
}

func TestUpdateInfoForcesReentry(t *testing.T) {
	f := newFixture(t)
	f.addDoctor(t, "Dr. Mohammed", "Cardiology")
	ctx := context.Background()

	id := createPending(t, f, 10)
	_, err := f.ledger.AttachProof(ctx, id, "file-receipt")
	require.NoError(t, err)
	_, err = f.ledger.Confirm(ctx, id)
	require.NoError(t, err)

	f.say(10, "update my info")
	f.say(10, "1")
	// Несмотря на известные данные, имя спрашивается заново
	assert.Contains(t, f.sender.last(10), "full name")
}

func TestDuplicateDoctorShortCircuits(t *testing.T) {
	f := newFixture(t)
	f.addDoctor(t, "Dr. Mohammed", "Cardiology")

	createPending(t, f, 10)
	f.sessions.Reset(10)
	f.sessions.ClearNotified(10)

	// Прямой заход в выбор врача мимо handleIdle
	session := f.sessions.Get(10)
	session.State = state.StateAwaitingDoctorChoice
	f.say(10, "1")

	assert.Contains(t, f.sender.last(10), "awaiting payment")
	assert.Equal(t, state.StateAwaitingPaymentProof, f.sessions.Get(10).State)
}

func TestShowDoctorsAndHelpKeepState(t *testing.T) {
	f := newFixture(t)
	f.addDoctor(t, "Dr. Mohammed", "Cardiology")

	f.say(10, "hi")
	f.say(10, "1")

	f.say(10, "doctors")
	assert.Contains(t, f.sender.last(10), "Our doctors")
	assert.Equal(t, state.StateAwaitingPatientName, f.sessions.Get(10).State)

	f.say(10, "help")
	assert.Contains(t, f.sender.last(10), "Clinic booking bot")
	assert.Equal(t, state.StateAwaitingPatientName, f.sessions.Get(10).State)
}

func TestNoDoctorsConfigured(t *testing.T) {
	f := newFixture(t)

	f.say(10, "hi")
	assert.Contains(t, f.sender.last(10), "No doctors are available")
	assert.Equal(t, state.StateIdle, f.sessions.Get(10).State)
}

func TestAdminCommandDeniedForPatients(t *testing.T) {
	f := newFixture(t)

	f.say(10, "/confirm 1")
	assert.Contains(t, f.sender.last(10), "clinic staff only")
	assert.Equal(t, state.StateIdle, f.sessions.Get(10).State)
}

// createPending проводит чат через диалог до созданного бронирования
// и возвращает его ID
func createPending(t *testing.T, f *fixture, chatID int64) int64 {
	t.Helper()

	f.say(chatID, "hi")
	f.say(chatID, "1")
	if f.sessions.Get(chatID).State == state.StateAwaitingPatientName {
		f.say(chatID, "Ahmed Ali")
		f.say(chatID, "0912345678")
	}
	f.say(chatID, "new")
	f.say(chatID, "yes")

	require.Equal(t, state.StateAwaitingPaymentProof, f.sessions.Get(chatID).State)

	active, err := f.ledger.ActiveByChat(context.Background(), chatID)
	require.NoError(t, err)
	require.NotNil(t, active)
	require.True(t, strings.Contains(f.sender.last(chatID), "created"))
	return active.ID
}
