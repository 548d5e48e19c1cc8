package handlers

import (
	"context"
	"fmt"
	"testing"

	"github.com/Freeeeeet/clinic_bot/internal/controller/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) admin(text string) {
	f.handlers.Handle(context.Background(), Event{
		ChatID:   adminChatID,
		SenderID: adminChatID,
		IsAdmin:  true,
		Text:     text,
	})
}

func TestAdminDoctorManagement(t *testing.T) {
	f := newFixture(t)

	f.admin("/adddoctor Dr. Mohammed | Cardiology | 555000111")
	assert.Contains(t, f.sender.last(adminChatID), "Doctor added")

	f.admin("/adddoctor Dr. Fatima | Dermatology")
	assert.Contains(t, f.sender.last(adminChatID), "Doctor added")

	f.admin("/listdoctors")
	list := f.sender.last(adminChatID)
	assert.Contains(t, list, "Dr. Mohammed")
	assert.Contains(t, list, "Dr. Fatima")

	f.admin("/removedoctor Dr. Fatima")
	assert.Contains(t, f.sender.last(adminChatID), "Doctor removed")

	f.admin("/removedoctor 99")
	assert.Contains(t, f.sender.last(adminChatID), "not found")

	f.admin("/adddoctor OnlyName")
	assert.Contains(t, f.sender.last(adminChatID), "Usage:")
}

func TestAdminConfirmFlow(t *testing.T) {
	f := newFixture(t)
	f.addDoctor(t, "Dr. Mohammed", "Cardiology")

	id := createPending(t, f, 10)
	f.sendPhoto(10, "file-receipt")

	f.admin("/pending")
	assert.Contains(t, f.sender.last(adminChatID), "receipt submitted")

	f.admin(fmt.Sprintf("/confirm %d", id))

	// Пациент получает номер очереди, сессия закрывает цикл
	assert.Contains(t, f.sender.last(10), "Your queue number: 1")
	assert.Equal(t, state.StateBookingConfirmed, f.sessions.Get(10).State)
	assert.Contains(t, f.sender.last(adminChatID), "Queue position 1")

	// Следующее сообщение пациента начинает новый цикл
	f.say(10, "hi")
	assert.Contains(t, f.sender.last(10), "Our doctors")

	f.admin("/pending")
	assert.Contains(t, f.sender.last(adminChatID), "No pending payments")
}

func TestAdminRejectFlow(t *testing.T) {
	f := newFixture(t)
	f.addDoctor(t, "Dr. Mohammed", "Cardiology")

	id := createPending(t, f, 10)
	f.sendPhoto(10, "file-receipt")

	f.admin(fmt.Sprintf("/reject %d receipt unreadable", id))

	notice := f.sender.last(10)
	assert.Contains(t, notice, "not accepted")
	assert.Contains(t, notice, "receipt unreadable")
	assert.Equal(t, state.StateAwaitingPaymentProof, f.sessions.Get(10).State)

	// Запись удалена, повторный отказ невозможен
	f.admin(fmt.Sprintf("/reject %d", id))
	assert.Contains(t, f.sender.last(adminChatID), "not found")

	// Новое фото после отказа находит уже ничего — журнал пуст
	f.sendPhoto(10, "file-receipt-2")
	assert.Contains(t, f.sender.last(10), "no active booking")
}

func TestAdminConfirmMissing(t *testing.T) {
	f := newFixture(t)

	f.admin("/confirm 77")
	assert.Contains(t, f.sender.last(adminChatID), "not found")

	f.admin("/confirm abc")
	assert.Contains(t, f.sender.last(adminChatID), "Usage:")
}

func TestAdminCutoff(t *testing.T) {
	f := newFixture(t)

	f.admin("/cutoff")
	assert.Contains(t, f.sender.last(adminChatID), "enabled at 18:00")

	f.admin("/cutoff 20:30")
	assert.Contains(t, f.sender.last(adminChatID), "20:30")
	hour, minute := f.cfg.Cutoff()
	assert.Equal(t, 20, hour)
	assert.Equal(t, 30, minute)

	f.admin("/cutoff off")
	assert.False(t, f.cfg.Enabled())

	f.admin("/cutoff on")
	assert.True(t, f.cfg.Enabled())

	f.admin("/cutoff 25:00")
	assert.Contains(t, f.sender.last(adminChatID), "Usage:")

	// Восточно-арабские цифры принимаются и здесь
	f.admin("/cutoff ١٧")
	hour, minute = f.cfg.Cutoff()
	assert.Equal(t, 17, hour)
	assert.Equal(t, 0, minute)
}

func TestAdminAnalytics(t *testing.T) {
	f := newFixture(t)
	f.addDoctor(t, "Dr. Mohammed", "Cardiology")
	ctx := context.Background()

	id := createPending(t, f, 10)
	_, err := f.ledger.AttachProof(ctx, id, "file-receipt")
	require.NoError(t, err)
	_, err = f.ledger.Confirm(ctx, id)
	require.NoError(t, err)

	f.admin("/analytics")
	report := f.sender.last(adminChatID)
	assert.Contains(t, report, "Confirmed: 1")
	assert.Contains(t, report, "Revenue: 5000 SDG")

	f.admin("/doctorstats")
	assert.Contains(t, f.sender.last(adminChatID), "Dr. Mohammed: 1")

	f.admin("/today")
	assert.Contains(t, f.sender.last(adminChatID), "queue 1")

	f.admin("/doctorpatients")
	assert.Contains(t, f.sender.last(adminChatID), "Ahmed Ali")
}

func TestAdminCleanup(t *testing.T) {
	f := newFixture(t)
	f.addDoctor(t, "Dr. Mohammed", "Cardiology")

	createPending(t, f, 10)

	f.admin("/cleanup")
	assert.Contains(t, f.sender.last(adminChatID), "Cleanup done")

	active, err := f.ledger.ActiveByChat(context.Background(), 10)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestAdminMisc(t *testing.T) {
	f := newFixture(t)

	f.admin("/ping")
	assert.Equal(t, "🏓 pong", f.sender.last(adminChatID))

	f.admin("/whoami")
	assert.Contains(t, f.sender.last(adminChatID), "clinic admin")

	f.admin("/adminhelp")
	assert.Contains(t, f.sender.last(adminChatID), "Admin commands")
}
