package handlers

// Константы валидации ввода пациента
const (
	// Имя пациента
	PatientNameMinLength = 3

	// Телефон: количество цифр после нормализации
	PhoneMinDigits = 7
	PhoneMaxDigits = 15

	// Минимальная длина текста для поиска врача по имени
	DoctorMatchMinLength = 2
)
