package state

import (
	"time"

	"github.com/Freeeeeet/clinic_bot/internal/model"
)

// SessionState текущее состояние пациента в диалоге бронирования
type SessionState string

const (
	StateIdle                 SessionState = "idle"
	StateAwaitingDoctorChoice SessionState = "awaiting_doctor_choice"
	StateAwaitingPatientName  SessionState = "awaiting_patient_name"
	StateAwaitingPatientPhone SessionState = "awaiting_patient_phone"
	StateAwaitingVisitType    SessionState = "awaiting_visit_type"
	StateAwaitingConfirmation SessionState = "awaiting_confirmation"
	StateAwaitingPaymentProof SessionState = "awaiting_payment_proof"
	StatePaymentSubmitted     SessionState = "payment_submitted"
	StateBookingConfirmed     SessionState = "booking_confirmed"
)

// Draft черновик бронирования, заполняется по мере диалога.
// Типизированная структура, а не map с приведением типов: опечатка
// в имени поля или неверный тип ловятся компилятором.
type Draft struct {
	Doctor       *model.Doctor
	PatientName  string
	PatientPhone string
	VisitType    model.VisitType
	BookingID    int64 // ID созданного PendingPayment, 0 пока нет

	// SkipPrefill выставляется командой обновления данных:
	// имя и телефон спрашиваем заново, историю не подставляем
	SkipPrefill bool
}

// Session диалоговое состояние одного чата. Живёт только в памяти:
// при рестарте процесса диалог начинается заново, записи о бронированиях
// при этом сохраняются в хранилище.
type Session struct {
	ChatID       int64
	State        SessionState
	Draft        Draft
	LastActivity time.Time
}
