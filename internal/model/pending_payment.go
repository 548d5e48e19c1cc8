package model

import "time"

type PaymentStatus string

const (
	PaymentStatusAwaiting  PaymentStatus = "awaiting_payment"  // Ожидает оплаты
	PaymentStatusSubmitted PaymentStatus = "payment_submitted" // Чек отправлен, ждёт проверки админом
)

// PendingPayment запись о незавершённом бронировании.
// Данные врача снимаются в момент создания и не обновляются
// при изменении или удалении врача.
type PendingPayment struct {
	ID              int64         `json:"id"`
	ChatID          int64         `json:"chat_id"`
	PatientName     string        `json:"patient_name"`
	PatientPhone    string        `json:"patient_phone"`
	DoctorID        int64         `json:"doctor_id"`
	DoctorName      string        `json:"doctor_name"`
	DoctorSpecialty string        `json:"doctor_specialty"`
	VisitType       VisitType     `json:"visit_type"`
	Price           int           `json:"price"` // В пиастрах, фиксируется при создании
	Status          PaymentStatus `json:"status"`
	ProofRef        string        `json:"proof_ref"` // Telegram file ID чека, пусто пока не отправлен
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Active проверяет что бронирование ещё не подтверждено и не отклонено
func (p *PendingPayment) Active() bool {
	return p.Status == PaymentStatusAwaiting || p.Status == PaymentStatusSubmitted
}
