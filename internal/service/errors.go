package service

import "errors"

var (
	// ErrNotFound запись не найдена (бронирование или врач)
	ErrNotFound = errors.New("not found")

	// ErrActiveBookingExists у пациента уже есть активное бронирование к этому врачу.
	// Проверка выполняется внутри ledger под мьютексом, а не только в движке диалога,
	// иначе check-then-create даёт гонку при одновременных действиях админа и пациента.
	ErrActiveBookingExists = errors.New("active booking already exists")

	// ErrPaymentUnderReview бронирование нельзя отменить: чек уже у админа на проверке
	ErrPaymentUnderReview = errors.New("payment is under review")
)
