package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Freeeeeet/clinic_bot/internal/controller/state"
	"github.com/Freeeeeet/clinic_bot/internal/format"
	"github.com/Freeeeeet/clinic_bot/internal/model"
	"github.com/Freeeeeet/clinic_bot/internal/service"
	"go.uber.org/zap"
)

// handlePatient прогоняет событие через машину состояний диалога
func (h *Handlers) handlePatient(ctx context.Context, ev Event) {
	session := h.sessions.Get(ev.ChatID)
	h.sessions.Touch(ev.ChatID)

	// Фото обрабатывается независимо от состояния: сессия могла
	// потеряться при рестарте, активное бронирование ищем в журнале
	if ev.PhotoRef != "" {
		h.handlePaymentProof(ctx, ev, session)
		return
	}

	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return
	}

	cmd := DetectPatientCommand(text)

	switch cmd {
	case CmdCancel:
		h.handleCancel(ctx, ev, session)
		return
	case CmdShowDoctors:
		h.showDoctors(ctx, ev.ChatID)
		return
	case CmdHelp:
		h.send(ctx, ev.ChatID, patientHelpText)
		return
	case CmdUpdateInfo:
		h.sessions.Reset(ev.ChatID)
		session = h.sessions.Get(ev.ChatID)
		session.Draft.SkipPrefill = true
		h.startBooking(ctx, ev, session)
		return
	}

	switch session.State {
	case state.StateIdle:
		h.handleIdle(ctx, ev, session, cmd)
	case state.StateBookingConfirmed:
		// Следующий контакт после подтверждения начинает новый цикл
		h.sessions.Reset(ev.ChatID)
		h.handleIdle(ctx, ev, h.sessions.Get(ev.ChatID), cmd)
	case state.StateAwaitingDoctorChoice:
		h.handleDoctorChoice(ctx, ev, session)
	case state.StateAwaitingPatientName:
		h.handlePatientName(ctx, ev, session)
	case state.StateAwaitingPatientPhone:
		h.handlePatientPhone(ctx, ev, session)
	case state.StateAwaitingVisitType:
		h.handleVisitType(ctx, ev, session)
	case state.StateAwaitingConfirmation:
		h.handleConfirmation(ctx, ev, session)
	case state.StateAwaitingPaymentProof:
		h.send(ctx, ev.ChatID,
			"📸 Please send a photo of the payment receipt to complete your booking, "+
				"or reply \"cancel\" to cancel.")
	case state.StatePaymentSubmitted:
		h.notifyActiveBookingOnce(ctx, ev.ChatID,
			"⏳ Your payment receipt is being reviewed. We will notify you shortly.")
	default:
		h.logger.Warn("Unknown session state", zap.String("state", string(session.State)))
	}
}

// handleIdle первый контакт или возврат в начало
func (h *Handlers) handleIdle(ctx context.Context, ev Event, session *state.Session, cmd PatientCommand) {
	active, err := h.ledger.ActiveByChat(ctx, ev.ChatID)
	if err != nil {
		h.logger.Error("Failed to check active booking", zap.Int64("chat_id", ev.ChatID), zap.Error(err))
		h.send(ctx, ev.ChatID, "❌ Something went wrong. Please try again later.")
		return
	}

	if active != nil {
		// Активное бронирование блокирует новый цикл
		if cmd != CmdNone {
			// Явная команда — показываем статус
			if active.Status == model.PaymentStatusAwaiting {
				session.State = state.StateAwaitingPaymentProof
				session.Draft.BookingID = active.ID
			}
			h.send(ctx, ev.ChatID, pendingStatusText(active))
			return
		}
		h.notifyActiveBookingOnce(ctx, ev.ChatID,
			fmt.Sprintf("ℹ️ You already have an active booking #%d with %s. "+
				"Send the payment receipt or \"cancel\" to cancel it.",
				active.ID, active.DoctorName))
		return
	}

	h.startBooking(ctx, ev, session)
}

// startBooking начинает цикл бронирования: проверка отсечки,
// префилл данных пациента, список врачей
func (h *Handlers) startBooking(ctx context.Context, ev Event, session *state.Session) {
	if !h.gate.Allowed() {
		h.send(ctx, ev.ChatID, fmt.Sprintf(
			"🌙 Booking is closed for today (cutoff at %s). Please try again tomorrow morning.",
			h.scheduler.Config().CutoffString()))
		return
	}

	doctors, err := h.doctors.List(ctx)
	if err != nil {
		h.logger.Error("Failed to list doctors", zap.Error(err))
		h.send(ctx, ev.ChatID, "❌ Something went wrong. Please try again later.")
		return
	}
	if len(doctors) == 0 {
		h.send(ctx, ev.ChatID, "ℹ️ No doctors are available right now. Please check back later.")
		return
	}

	if !session.Draft.SkipPrefill {
		name, phone, ok, err := h.ledger.LatestPatientInfo(ctx, ev.ChatID)
		if err != nil {
			h.logger.Error("Failed to prefill patient info", zap.Int64("chat_id", ev.ChatID), zap.Error(err))
		} else if ok {
			session.Draft.PatientName = name
			session.Draft.PatientPhone = phone
		}
	}

	session.State = state.StateAwaitingDoctorChoice

	h.send(ctx, ev.ChatID, "👋 Welcome to the clinic booking service!\n\n"+doctorListText(doctors))
}

// handleDoctorChoice выбор врача по номеру или имени
func (h *Handlers) handleDoctorChoice(ctx context.Context, ev Event, session *state.Session) {
	doctors, err := h.doctors.List(ctx)
	if err != nil {
		h.logger.Error("Failed to list doctors", zap.Error(err))
		h.send(ctx, ev.ChatID, "❌ Something went wrong. Please try again later.")
		return
	}

	doctor := MatchDoctor(ev.Text, doctors)
	if doctor == nil {
		// Непонятный ввод — переспрашиваем, состояние не меняется
		h.send(ctx, ev.ChatID, "🤔 I couldn't find that doctor.\n\n"+doctorListText(doctors))
		return
	}

	// Уже есть активное бронирование к этому врачу — дубль не создаём
	active, err := h.ledger.ActiveByChatAndDoctor(ctx, ev.ChatID, doctor.ID)
	if err != nil {
		h.logger.Error("Failed to check active booking", zap.Int64("chat_id", ev.ChatID), zap.Error(err))
		h.send(ctx, ev.ChatID, "❌ Something went wrong. Please try again later.")
		return
	}
	if active != nil {
		if active.Status == model.PaymentStatusAwaiting {
			session.Draft.Doctor = doctor
			session.Draft.BookingID = active.ID
			session.State = state.StateAwaitingPaymentProof
		}
		h.send(ctx, ev.ChatID, pendingStatusText(active))
		return
	}

	session.Draft.Doctor = doctor

	// Постоянного пациента знаем — имя и телефон не переспрашиваем
	if session.Draft.PatientName != "" && session.Draft.PatientPhone != "" {
		session.State = state.StateAwaitingVisitType
		h.send(ctx, ev.ChatID, fmt.Sprintf(
			"✅ Doctor: %s\n🧑 Patient: %s (%s)\n\n%s",
			doctor.Name, session.Draft.PatientName, session.Draft.PatientPhone, visitTypePrompt(h)))
		return
	}

	session.State = state.StateAwaitingPatientName
	h.send(ctx, ev.ChatID, fmt.Sprintf(
		"✅ Doctor: %s (%s)\n\nWhat is the patient's full name?",
		doctor.Name, doctor.Specialty))
}

// handlePatientName ввод имени пациента
func (h *Handlers) handlePatientName(ctx context.Context, ev Event, session *state.Session) {
	name := strings.TrimSpace(ev.Text)

	if len([]rune(name)) < PatientNameMinLength {
		h.send(ctx, ev.ChatID, fmt.Sprintf(
			"❌ The name is too short (minimum %d characters). Please enter the full name:",
			PatientNameMinLength))
		return
	}

	session.Draft.PatientName = name
	session.State = state.StateAwaitingPatientPhone

	h.send(ctx, ev.ChatID, "📞 What is the patient's phone number?")
}

// handlePatientPhone ввод и нормализация телефона
func (h *Handlers) handlePatientPhone(ctx context.Context, ev Event, session *state.Session) {
	phone, ok := NormalizePhone(ev.Text)
	if !ok {
		h.send(ctx, ev.ChatID,
			"❌ That doesn't look like a valid phone number. "+
				"Please enter 7-15 digits, e.g. 0991234567:")
		return
	}

	session.Draft.PatientPhone = phone
	session.State = state.StateAwaitingVisitType

	h.send(ctx, ev.ChatID, visitTypePrompt(h))
}

func visitTypePrompt(h *Handlers) string {
	return fmt.Sprintf(
		"🩺 What type of visit?\n\n"+
			"1. New consultation — %s\n"+
			"2. Follow-up — %s\n\n"+
			"Reply \"new\" or \"followup\".",
		format.Price(h.ledger.ResolvePrice(model.VisitTypeNew)),
		format.Price(h.ledger.ResolvePrice(model.VisitTypeFollowup)),
	)
}

// handleVisitType выбор типа визита
func (h *Handlers) handleVisitType(ctx context.Context, ev Event, session *state.Session) {
	visitType, ok := ParseVisitType(ev.Text)
	if !ok {
		h.send(ctx, ev.ChatID, "❌ Please reply \"new\" for a new consultation or \"followup\" for a follow-up visit.")
		return
	}

	session.Draft.VisitType = visitType
	session.State = state.StateAwaitingConfirmation

	price := h.ledger.ResolvePrice(visitType)
	h.send(ctx, ev.ChatID, bookingSummaryText(
		session.Draft.Doctor,
		session.Draft.PatientName,
		session.Draft.PatientPhone,
		visitType,
		price,
	))
}

// handleConfirmation подтверждение черновика и создание записи в журнале
func (h *Handlers) handleConfirmation(ctx context.Context, ev Event, session *state.Session) {
	switch {
	case IsYes(ev.Text):
		h.createBooking(ctx, ev, session)
	case IsNo(ev.Text):
		h.sessions.Reset(ev.ChatID)
		h.send(ctx, ev.ChatID, "✅ Booking cancelled. Send \"hi\" whenever you want to book again.")
	case IsEdit(ev.Text):
		// Информационная ветка, состояние не меняется
		h.send(ctx, ev.ChatID,
			"✏️ To change the details, reply \"no\" and start a new booking.")
	default:
		h.send(ctx, ev.ChatID, "❓ Please reply \"yes\" to confirm or \"no\" to cancel.")
	}
}

func (h *Handlers) createBooking(ctx context.Context, ev Event, session *state.Session) {
	p, err := h.ledger.CreatePending(ctx, service.BookingDraft{
		ChatID:       ev.ChatID,
		PatientName:  session.Draft.PatientName,
		PatientPhone: session.Draft.PatientPhone,
		Doctor:       session.Draft.Doctor,
		VisitType:    session.Draft.VisitType,
	})
	if err != nil {
		if errors.Is(err, service.ErrActiveBookingExists) {
			// Гонка с параллельным действием, показываем существующее
			active, lookupErr := h.ledger.ActiveByChatAndDoctor(ctx, ev.ChatID, session.Draft.Doctor.ID)
			if lookupErr == nil && active != nil {
				session.Draft.BookingID = active.ID
				session.State = state.StateAwaitingPaymentProof
				h.send(ctx, ev.ChatID, pendingStatusText(active))
				return
			}
		}
		h.logger.Error("Failed to create pending payment", zap.Int64("chat_id", ev.ChatID), zap.Error(err))
		h.send(ctx, ev.ChatID, "❌ Something went wrong. Please try again later.")
		return
	}

	session.Draft.BookingID = p.ID
	session.State = state.StateAwaitingPaymentProof
	// Новое активное бронирование — уведомление о нём снова разовое
	h.sessions.ClearNotified(ev.ChatID)

	h.send(ctx, ev.ChatID, fmt.Sprintf(
		"✅ Booking #%d created!\n\n"+
			"💰 Please pay %s and send a photo of the payment receipt here.\n"+
			"Reply \"cancel\" to cancel the booking.",
		p.ID, format.Price(p.Price)))
}

// handlePaymentProof фото чека. Если сессия не знает booking ID
// (рестарт процесса), активное бронирование ищем в журнале.
func (h *Handlers) handlePaymentProof(ctx context.Context, ev Event, session *state.Session) {
	bookingID := session.Draft.BookingID

	if bookingID == 0 {
		active, err := h.ledger.ActiveByChat(ctx, ev.ChatID)
		if err != nil {
			h.logger.Error("Failed to look up active booking", zap.Int64("chat_id", ev.ChatID), zap.Error(err))
			h.send(ctx, ev.ChatID, "❌ Something went wrong. Please try again later.")
			return
		}
		if active == nil {
			h.send(ctx, ev.ChatID,
				"ℹ️ You have no active booking. Send \"hi\" to start a new one.")
			return
		}
		bookingID = active.ID
		session.Draft.BookingID = bookingID
	}

	p, err := h.ledger.AttachProof(ctx, bookingID, ev.PhotoRef)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			h.sessions.Reset(ev.ChatID)
			h.send(ctx, ev.ChatID,
				"ℹ️ That booking is no longer active. Send \"hi\" to start a new one.")
			return
		}
		h.logger.Error("Failed to attach payment proof",
			zap.Int64("booking_id", bookingID),
			zap.Error(err))
		h.send(ctx, ev.ChatID, "❌ Something went wrong. Please try again later.")
		return
	}

	session.State = state.StatePaymentSubmitted

	h.send(ctx, ev.ChatID, fmt.Sprintf(
		"📨 Receipt received for booking #%d. We will confirm your booking shortly.", p.ID))

	h.notifyAdminsPhoto(ctx, ev.PhotoRef, fmt.Sprintf(
		"💳 Payment submitted for booking #%d\n\n"+
			"🧑 %s (%s)\n"+
			"👨‍⚕️ %s (%s)\n"+
			"🩺 %s\n"+
			"💰 %s\n\n"+
			"Confirm: /confirm %d\nReject: /reject %d <reason>",
		p.ID,
		p.PatientName, p.PatientPhone,
		p.DoctorName, p.DoctorSpecialty,
		format.VisitType(p.VisitType),
		format.Price(p.Price),
		p.ID, p.ID))
}

// handleCancel отмена по инициативе пациента. Вместе с сессией
// снимается и запись awaiting_payment из журнала, чтобы она не висела
// сиротой до полуночной очистки.
func (h *Handlers) handleCancel(ctx context.Context, ev Event, session *state.Session) {
	p, err := h.ledger.CancelActive(ctx, ev.ChatID)

	switch {
	case err == nil:
		h.sessions.Reset(ev.ChatID)
		h.sessions.ClearNotified(ev.ChatID)
		h.send(ctx, ev.ChatID, fmt.Sprintf(
			"✅ Booking #%d cancelled. Send \"hi\" whenever you want to book again.", p.ID))
	case errors.Is(err, service.ErrPaymentUnderReview):
		h.send(ctx, ev.ChatID,
			"⏳ Your payment receipt is already being reviewed and the booking can't be "+
				"cancelled here. Please contact the clinic.")
	case errors.Is(err, service.ErrNotFound):
		if session.State == state.StateIdle {
			h.send(ctx, ev.ChatID, "ℹ️ Nothing to cancel.")
			return
		}
		h.sessions.Reset(ev.ChatID)
		h.send(ctx, ev.ChatID, "✅ Cancelled. Send \"hi\" whenever you want to book again.")
	default:
		h.logger.Error("Failed to cancel booking", zap.Int64("chat_id", ev.ChatID), zap.Error(err))
		h.send(ctx, ev.ChatID, "❌ Something went wrong. Please try again later.")
	}
}

// showDoctors информационный список врачей, состояние не меняется
func (h *Handlers) showDoctors(ctx context.Context, chatID int64) {
	doctors, err := h.doctors.List(ctx)
	if err != nil {
		h.logger.Error("Failed to list doctors", zap.Error(err))
		h.send(ctx, chatID, "❌ Something went wrong. Please try again later.")
		return
	}
	if len(doctors) == 0 {
		h.send(ctx, chatID, "ℹ️ No doctors are available right now.")
		return
	}
	h.send(ctx, chatID, doctorListText(doctors))
}

// notifyActiveBookingOnce разовое уведомление об активном бронировании.
// Повторный свободный текст до разрешения бронирования молча игнорируется.
func (h *Handlers) notifyActiveBookingOnce(ctx context.Context, chatID int64, text string) {
	if h.sessions.WasNotified(chatID) {
		return
	}
	h.sessions.MarkNotified(chatID)
	h.send(ctx, chatID, text)
}

const patientHelpText = "ℹ️ Clinic booking bot\n\n" +
	"• Send \"hi\" to start a booking\n" +
	"• \"doctors\" — see the doctor list\n" +
	"• \"update my info\" — re-enter your name and phone\n" +
	"• \"cancel\" — cancel the current booking\n\n" +
	"After confirming a booking, pay and send a photo of the receipt here."
