package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/clinic_bot/internal/format"
	"github.com/Freeeeeet/clinic_bot/internal/model"
	"go.uber.org/zap"
)

// send отправляет сообщение и логирует если не удалось
func (h *Handlers) send(ctx context.Context, chatID int64, text string) {
	if err := h.sender.SendText(ctx, chatID, text); err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

// notifyAdmins рассылает текст всем админам
func (h *Handlers) notifyAdmins(ctx context.Context, text string) {
	for _, adminID := range h.admins {
		h.send(ctx, adminID, text)
	}
}

// notifyAdminsPhoto рассылает фото с подписью, при ошибке отправки фото
// деградирует до текстового уведомления
func (h *Handlers) notifyAdminsPhoto(ctx context.Context, fileRef, caption string) {
	for _, adminID := range h.admins {
		if err := h.sender.SendPhoto(ctx, adminID, fileRef, caption); err != nil {
			h.logger.Error("Failed to send photo, falling back to text",
				zap.Int64("admin_id", adminID),
				zap.Error(err),
			)
			h.send(ctx, adminID, caption+"\n\n⚠️ (receipt photo could not be forwarded)")
		}
	}
}

// doctorListText список врачей с порядковыми номерами для выбора
func doctorListText(doctors []*model.Doctor) string {
	var b strings.Builder
	b.WriteString("👨‍⚕️ Our doctors:\n\n")
	for i, doctor := range doctors {
		fmt.Fprintf(&b, "%d. %s — %s\n", i+1, doctor.Name, doctor.Specialty)
	}
	b.WriteString("\nReply with a number or the doctor's name.")
	return b.String()
}

// bookingSummaryText сводка черновика перед подтверждением
func bookingSummaryText(doctor *model.Doctor, name, phone string, visitType model.VisitType, price int) string {
	return fmt.Sprintf(
		"📋 Please confirm your booking:\n\n"+
			"👨‍⚕️ Doctor: %s (%s)\n"+
			"🧑 Patient: %s\n"+
			"📞 Phone: %s\n"+
			"🩺 Visit: %s\n"+
			"💰 Price: %s\n\n"+
			"Reply \"yes\" to confirm, \"no\" to cancel.",
		doctor.Name, doctor.Specialty,
		name, phone,
		format.VisitType(visitType),
		format.Price(price),
	)
}

// pendingStatusText статус активного бронирования для пациента
func pendingStatusText(p *model.PendingPayment) string {
	if p.Status == model.PaymentStatusSubmitted {
		return fmt.Sprintf(
			"⏳ Your booking #%d with %s is being reviewed.\n"+
				"We will notify you once the payment is confirmed.",
			p.ID, p.DoctorName,
		)
	}
	return fmt.Sprintf(
		"💳 Your booking #%d with %s is awaiting payment.\n"+
			"Price: %s\n\n"+
			"Please send a photo of the payment receipt, or \"cancel\" to cancel.",
		p.ID, p.DoctorName, format.Price(p.Price),
	)
}
