package model

import "time"

// ConfirmedBooking бронирование, подтверждённое админом после проверки оплаты.
// ID общий с PendingPayment (одна последовательность, никогда не переиспользуется).
type ConfirmedBooking struct {
	ID              int64     `json:"id"`
	ChatID          int64     `json:"chat_id"`
	PatientName     string    `json:"patient_name"`
	PatientPhone    string    `json:"patient_phone"`
	DoctorID        int64     `json:"doctor_id"`
	DoctorName      string    `json:"doctor_name"`
	DoctorSpecialty string    `json:"doctor_specialty"`
	VisitType       VisitType `json:"visit_type"`
	Price           int       `json:"price"`
	QueuePosition   int       `json:"queue_position"` // Номер в очереди к врачу, присваивается один раз при подтверждении
	ProofRef        string    `json:"proof_ref"`
	CreatedAt       time.Time `json:"created_at"`
	ConfirmedAt     time.Time `json:"confirmed_at"`
}
