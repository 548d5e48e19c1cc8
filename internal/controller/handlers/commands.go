package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Freeeeeet/clinic_bot/internal/controller/state"
	"github.com/Freeeeeet/clinic_bot/internal/format"
	"github.com/Freeeeeet/clinic_bot/internal/model"
	"github.com/Freeeeeet/clinic_bot/internal/service"
	"go.uber.org/zap"
)

// handleAdminCommand разбирает и выполняет админ-команду.
// Вызывается только для админов, проверка прав — в Handle.
func (h *Handlers) handleAdminCommand(ctx context.Context, ev Event) {
	fields := strings.Fields(strings.TrimSpace(ev.Text))
	cmd := strings.ToLower(fields[0])
	if at := strings.Index(cmd, "@"); at > 0 {
		cmd = cmd[:at]
	}
	args := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(ev.Text), fields[0]))

	h.logger.Info("Admin command",
		zap.Int64("chat_id", ev.ChatID),
		zap.String("command", cmd),
	)

	switch cmd {
	case "/adddoctor":
		h.cmdAddDoctor(ctx, ev, args)
	case "/removedoctor":
		h.cmdRemoveDoctor(ctx, ev, args)
	case "/listdoctors":
		h.showDoctors(ctx, ev.ChatID)
	case "/pending":
		h.cmdPending(ctx, ev)
	case "/confirm":
		h.cmdConfirm(ctx, ev, args)
	case "/reject":
		h.cmdReject(ctx, ev, args)
	case "/summary":
		h.cmdSummary(ctx, ev, strings.EqualFold(args, "force"))
	case "/analytics", "/doctorstats":
		h.cmdAnalytics(ctx, ev, cmd == "/doctorstats")
	case "/doctorpatients":
		h.cmdDoctorPatients(ctx, ev, args)
	case "/today":
		h.cmdBookings(ctx, ev, true)
	case "/all":
		h.cmdBookings(ctx, ev, false)
	case "/cutoff":
		h.cmdCutoff(ctx, ev, args)
	case "/cleanup":
		h.cmdCleanup(ctx, ev)
	case "/whoami":
		h.send(ctx, ev.ChatID, fmt.Sprintf("🛡 You are a clinic admin. Chat ID: %d", ev.ChatID))
	case "/ping":
		h.send(ctx, ev.ChatID, "🏓 pong")
	case "/adminhelp":
		h.send(ctx, ev.ChatID, adminHelpText)
	}
}

// cmdAddDoctor /adddoctor Имя | Специальность | Контакт
func (h *Handlers) cmdAddDoctor(ctx context.Context, ev Event, args string) {
	parts := strings.Split(args, "|")
	if len(parts) < 2 {
		h.send(ctx, ev.ChatID,
			"Usage: /adddoctor Name | Specialty | Contact\n"+
				"Contact is the doctor's telegram chat ID for daily summaries.")
		return
	}

	contact := ""
	if len(parts) >= 3 {
		contact = parts[2]
	}

	doctor, err := h.doctors.Add(ctx, parts[0], parts[1], contact)
	if err != nil {
		h.logger.Error("Failed to add doctor", zap.Error(err))
		h.send(ctx, ev.ChatID, fmt.Sprintf("❌ Failed to add doctor: %v", err))
		return
	}

	h.send(ctx, ev.ChatID, fmt.Sprintf(
		"✅ Doctor added: #%d %s (%s)", doctor.ID, doctor.Name, doctor.Specialty))
}

// cmdRemoveDoctor /removedoctor <id|имя>
func (h *Handlers) cmdRemoveDoctor(ctx context.Context, ev Event, args string) {
	if args == "" {
		h.send(ctx, ev.ChatID, "Usage: /removedoctor <id or exact name>")
		return
	}

	doctor, err := h.doctors.Remove(ctx, args)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			h.send(ctx, ev.ChatID, "❌ Doctor not found.")
			return
		}
		h.logger.Error("Failed to remove doctor", zap.Error(err))
		h.send(ctx, ev.ChatID, "❌ Failed to remove doctor.")
		return
	}

	h.send(ctx, ev.ChatID, fmt.Sprintf(
		"✅ Doctor removed: %s.\nExisting bookings keep the doctor's details.", doctor.Name))
}

// cmdPending список ожидающих оплаты
func (h *Handlers) cmdPending(ctx context.Context, ev Event) {
	payments, err := h.ledger.ListPending(ctx)
	if err != nil {
		h.logger.Error("Failed to list pending payments", zap.Error(err))
		h.send(ctx, ev.ChatID, "❌ Failed to list pending payments.")
		return
	}

	if len(payments) == 0 {
		h.send(ctx, ev.ChatID, "✅ No pending payments.")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "⏳ Pending payments (%d):\n\n", len(payments))
	for _, p := range payments {
		status := "awaiting payment"
		if p.Status == model.PaymentStatusSubmitted {
			status = "receipt submitted"
		}
		fmt.Fprintf(&b, "#%d %s — %s — %s — %s\n",
			p.ID, p.PatientName, p.DoctorName, format.Price(p.Price), status)
	}
	h.send(ctx, ev.ChatID, b.String())
}

// cmdConfirm /confirm <id> — подтверждение оплаты и выдача номера очереди
func (h *Handlers) cmdConfirm(ctx context.Context, ev Event, args string) {
	id, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		h.send(ctx, ev.ChatID, "Usage: /confirm <booking id>")
		return
	}

	b, err := h.ledger.Confirm(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			h.send(ctx, ev.ChatID, fmt.Sprintf("❌ Booking #%d not found in pending payments.", id))
			return
		}
		h.logger.Error("Failed to confirm booking", zap.Int64("booking_id", id), zap.Error(err))
		h.send(ctx, ev.ChatID, "❌ Failed to confirm booking.")
		return
	}

	// Сессия пациента: цикл завершён, следующее сообщение начнёт новый
	session := h.sessions.Get(b.ChatID)
	session.State = state.StateBookingConfirmed
	session.Draft = state.Draft{}
	h.sessions.ClearNotified(b.ChatID)

	h.send(ctx, b.ChatID, fmt.Sprintf(
		"🎉 Your booking is confirmed!\n\n"+
			"👨‍⚕️ %s (%s)\n"+
			"🔢 Your queue number: %d\n\n"+
			"Please arrive on time. Thank you!",
		b.DoctorName, b.DoctorSpecialty, b.QueuePosition))

	h.send(ctx, ev.ChatID, fmt.Sprintf(
		"✅ Booking #%d confirmed. Queue position %d for %s.",
		b.ID, b.QueuePosition, b.DoctorName))
}

// cmdReject /reject <id> [причина] — отказ с удалением записи.
// Причина уходит только в уведомления, в журнале она не хранится.
func (h *Handlers) cmdReject(ctx context.Context, ev Event, args string) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		h.send(ctx, ev.ChatID, "Usage: /reject <booking id> [reason]")
		return
	}

	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		h.send(ctx, ev.ChatID, "Usage: /reject <booking id> [reason]")
		return
	}
	reason := strings.TrimSpace(strings.TrimPrefix(args, fields[0]))

	p, err := h.ledger.Reject(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			h.send(ctx, ev.ChatID, fmt.Sprintf("❌ Booking #%d not found in pending payments.", id))
			return
		}
		h.logger.Error("Failed to reject booking", zap.Int64("booking_id", id), zap.Error(err))
		h.send(ctx, ev.ChatID, "❌ Failed to reject booking.")
		return
	}

	// Пациент возвращается к отправке чека
	session := h.sessions.Get(p.ChatID)
	session.State = state.StateAwaitingPaymentProof
	session.Draft.BookingID = 0
	h.sessions.ClearNotified(p.ChatID)

	notice := fmt.Sprintf("❌ Your payment for booking #%d was not accepted.", p.ID)
	if reason != "" {
		notice += "\nReason: " + reason
	}
	notice += "\n\nPlease send a valid payment receipt, or \"cancel\" to cancel."
	h.send(ctx, p.ChatID, notice)

	h.send(ctx, ev.ChatID, fmt.Sprintf("✅ Booking #%d rejected.", p.ID))
}

// cmdSummary ручной запуск ежедневной сводки, force игнорирует маркер даты
func (h *Handlers) cmdSummary(ctx context.Context, ev Event, force bool) {
	result, err := h.scheduler.TriggerSummary(ctx, force)
	if err != nil {
		h.logger.Error("Manual summary failed", zap.Error(err))
		h.send(ctx, ev.ChatID, "❌ Summary dispatch failed.")
		return
	}
	if result.Skipped {
		h.send(ctx, ev.ChatID, "ℹ️ The summary was already sent today. Use /summary force to resend.")
		return
	}
	h.send(ctx, ev.ChatID, fmt.Sprintf(
		"✅ Summary dispatched: %d sent, %d failed.", result.Sent, result.Failed))
}

// cmdAnalytics сводная аналитика, с perDoctor=true — разбивка по врачам
func (h *Handlers) cmdAnalytics(ctx context.Context, ev Event, perDoctor bool) {
	report, err := h.ledger.BuildReport(ctx)
	if err != nil {
		h.logger.Error("Failed to build report", zap.Error(err))
		h.send(ctx, ev.ChatID, "❌ Failed to build the report.")
		return
	}

	var b strings.Builder
	b.WriteString("📊 Clinic analytics\n\n")
	fmt.Fprintf(&b, "Confirmed: %d\n", report.TotalConfirmed)
	fmt.Fprintf(&b, "Pending: %d\n", report.TotalPending)
	fmt.Fprintf(&b, "New: %d | Follow-up: %d\n", report.NewVisits, report.FollowupVisits)
	fmt.Fprintf(&b, "Revenue: %s\n", format.Price(report.Revenue))

	if perDoctor {
		b.WriteString("\nPer doctor:\n")
		if len(report.PerDoctor) == 0 {
			b.WriteString("— no confirmed bookings\n")
		}
		for _, stats := range report.PerDoctor {
			fmt.Fprintf(&b, "• %s: %d (new %d / follow-up %d), %s\n",
				stats.DoctorName, stats.Total, stats.New, stats.Followup, format.Price(stats.Revenue))
		}
	}

	h.send(ctx, ev.ChatID, b.String())
}

// cmdDoctorPatients /doctorpatients [id] — очередь врача (или всех врачей)
func (h *Handlers) cmdDoctorPatients(ctx context.Context, ev Event, args string) {
	if args != "" {
		id, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
		if err != nil {
			h.send(ctx, ev.ChatID, "Usage: /doctorpatients [doctor id]")
			return
		}

		doctor, err := h.doctors.GetByID(ctx, id)
		if err != nil {
			h.logger.Error("Failed to get doctor", zap.Error(err))
			h.send(ctx, ev.ChatID, "❌ Failed to get doctor.")
			return
		}
		if doctor == nil {
			h.send(ctx, ev.ChatID, "❌ Doctor not found.")
			return
		}

		h.sendDoctorQueue(ctx, ev.ChatID, doctor)
		return
	}

	doctors, err := h.doctors.List(ctx)
	if err != nil {
		h.logger.Error("Failed to list doctors", zap.Error(err))
		h.send(ctx, ev.ChatID, "❌ Failed to list doctors.")
		return
	}
	if len(doctors) == 0 {
		h.send(ctx, ev.ChatID, "ℹ️ No doctors configured.")
		return
	}
	for _, doctor := range doctors {
		h.sendDoctorQueue(ctx, ev.ChatID, doctor)
	}
}

func (h *Handlers) sendDoctorQueue(ctx context.Context, chatID int64, doctor *model.Doctor) {
	bookings, err := h.ledger.ConfirmedByDoctor(ctx, doctor.ID)
	if err != nil {
		h.logger.Error("Failed to list confirmed bookings", zap.Int64("doctor_id", doctor.ID), zap.Error(err))
		h.send(ctx, chatID, "❌ Failed to list bookings.")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "👨‍⚕️ %s (%s)\n", doctor.Name, doctor.Specialty)
	if len(bookings) == 0 {
		b.WriteString("— no confirmed patients\n")
	}
	for _, booking := range bookings {
		fmt.Fprintf(&b, "%d. %s — %s — %s\n",
			booking.QueuePosition, booking.PatientName, booking.PatientPhone,
			format.VisitType(booking.VisitType))
	}
	h.send(ctx, chatID, b.String())
}

// cmdBookings /today и /all
func (h *Handlers) cmdBookings(ctx context.Context, ev Event, todayOnly bool) {
	var bookings []*model.ConfirmedBooking
	var err error
	if todayOnly {
		bookings, err = h.ledger.ConfirmedToday(ctx)
	} else {
		bookings, err = h.ledger.AllConfirmed(ctx)
	}
	if err != nil {
		h.logger.Error("Failed to list confirmed bookings", zap.Error(err))
		h.send(ctx, ev.ChatID, "❌ Failed to list bookings.")
		return
	}

	if len(bookings) == 0 {
		h.send(ctx, ev.ChatID, "ℹ️ No confirmed bookings.")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📅 Confirmed bookings (%d):\n\n", len(bookings))
	for _, booking := range bookings {
		fmt.Fprintf(&b, "#%d %s — %s — queue %d — %s\n",
			booking.ID, booking.PatientName, booking.DoctorName,
			booking.QueuePosition, format.Price(booking.Price))
	}
	h.send(ctx, ev.ChatID, b.String())
}

// cmdCutoff /cutoff [status|on|off|HH[:MM]] — управление отсечкой.
// Изменение действует сразу и переносит задачу сводки.
func (h *Handlers) cmdCutoff(ctx context.Context, ev Event, args string) {
	cfg := h.scheduler.Config()
	args = strings.ToLower(strings.TrimSpace(NormalizeDigits(args)))

	switch args {
	case "", "status":
		status := "disabled"
		if cfg.Enabled() {
			status = "enabled"
		}
		h.send(ctx, ev.ChatID, fmt.Sprintf(
			"⏰ Booking cutoff: %s at %s (%s)", status, cfg.CutoffString(), cfg.Location()))
		return
	case "on", "enable":
		cfg.SetEnabled(true)
	case "off", "disable":
		cfg.SetEnabled(false)
	default:
		hour, minute, err := parseCutoffTime(args)
		if err != nil {
			h.send(ctx, ev.ChatID, "Usage: /cutoff [status|on|off|HH[:MM]]")
			return
		}
		if err := cfg.SetCutoff(hour, minute); err != nil {
			h.send(ctx, ev.ChatID, fmt.Sprintf("❌ %v", err))
			return
		}
	}

	if err := h.scheduler.Reschedule(ctx); err != nil {
		h.logger.Error("Failed to reschedule summary job", zap.Error(err))
		h.send(ctx, ev.ChatID, "⚠️ Cutoff updated, but rescheduling the summary job failed.")
		return
	}

	status := "disabled"
	if cfg.Enabled() {
		status = "enabled"
	}
	h.send(ctx, ev.ChatID, fmt.Sprintf(
		"✅ Booking cutoff: %s at %s", status, cfg.CutoffString()))
}

// parseCutoffTime разбирает "18" или "18:30"
func parseCutoffTime(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)

	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time %q", s)
	}
	if len(parts) == 2 {
		minute, err = strconv.Atoi(parts[1])
		if err != nil {
			return 0, 0, fmt.Errorf("invalid time %q", s)
		}
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid time %q", s)
	}
	return hour, minute, nil
}

// cmdCleanup ручной запуск полуночной очистки
func (h *Handlers) cmdCleanup(ctx context.Context, ev Event) {
	result, err := h.scheduler.RunReset(ctx)
	if err != nil {
		h.logger.Error("Manual cleanup failed", zap.Error(err))
		h.send(ctx, ev.ChatID, "❌ Cleanup failed.")
		return
	}
	h.send(ctx, ev.ChatID, fmt.Sprintf(
		"✅ Cleanup done: %d confirmed and %d pending cleared.",
		result.ClearedConfirmed, result.ClearedPending))
}

const adminHelpText = "🛡 Admin commands:\n\n" +
	"/adddoctor Name | Specialty | Contact\n" +
	"/removedoctor <id|name>\n" +
	"/listdoctors — doctor list\n" +
	"/pending — payments waiting for review\n" +
	"/confirm <id> — confirm payment, assign queue number\n" +
	"/reject <id> [reason] — reject payment\n" +
	"/summary [force] — send today's summaries now\n" +
	"/analytics — totals and revenue\n" +
	"/doctorstats — per-doctor breakdown\n" +
	"/doctorpatients [id] — doctor queues\n" +
	"/today — today's confirmed bookings\n" +
	"/all — all confirmed bookings\n" +
	"/cutoff [status|on|off|HH[:MM]] — booking cutoff\n" +
	"/cleanup — run the daily reset now\n" +
	"/whoami, /ping"
