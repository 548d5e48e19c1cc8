package handlers

import (
	"strconv"
	"strings"

	"github.com/Freeeeeet/clinic_bot/internal/model"
)

// Словарь диалога. Пациенты пишут на английском или арабском,
// оба варианта сводятся к одной семантической команде.

// PatientCommand распознанная команда пациента
type PatientCommand int

const (
	CmdNone PatientCommand = iota
	CmdStart
	CmdNewBooking
	CmdShowDoctors
	CmdUpdateInfo
	CmdCancel
	CmdHelp
)

var startKeywords = []string{
	"/start", "hi", "hello", "hey", "salam", "start",
	"مرحبا", "اهلا", "أهلا", "السلام عليكم", "سلام",
}

var newBookingKeywords = []string{
	"/new", "new booking", "book", "booking",
	"حجز", "حجز جديد", "احجز",
}

var showDoctorsKeywords = []string{
	"/doctors", "doctors", "show doctors",
	"الدكاترة", "الأطباء", "الاطباء",
}

var updateInfoKeywords = []string{
	"/updateinfo", "update info", "update my info",
	"تحديث بياناتي", "تعديل بياناتي",
}

var cancelKeywords = []string{
	"/cancel", "cancel", "stop",
	"الغاء", "إلغاء", "الغي",
}

var yesKeywords = []string{
	"yes", "y", "ok", "okay", "confirm", "sure",
	"نعم", "اي", "ايوه", "تمام", "موافق", "اكد",
}

var noKeywords = []string{
	"no", "n", "cancel",
	"لا", "لأ", "الغاء", "إلغاء",
}

var editKeywords = []string{
	"edit", "change",
	"تعديل", "تغيير",
}

var newVisitKeywords = []string{
	"new", "first", "new consultation", "1",
	"كشف", "جديد", "كشف جديد",
}

var followupVisitKeywords = []string{
	"followup", "follow-up", "follow up", "repeat", "2",
	"متابعة", "مراجعة", "اعادة", "إعادة",
}

// NormalizeDigits приводит восточно-арабские цифры (٠-٩ и ۰-۹) к ASCII
func NormalizeDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '٠' && r <= '٩': // арабо-индийские
			b.WriteRune('0' + (r - '٠'))
		case r >= '۰' && r <= '۹': // персидские
			b.WriteRune('0' + (r - '۰'))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePhone чистит телефон: убирает разделители и ведущий +,
// нормализует цифры. Возвращает false если после чистки не 7-15 цифр.
func NormalizePhone(raw string) (string, bool) {
	raw = NormalizeDigits(strings.TrimSpace(raw))
	raw = strings.TrimPrefix(raw, "+")

	var digits strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
			// Разделители выбрасываем
		default:
			return "", false
		}
	}

	phone := digits.String()
	if len(phone) < PhoneMinDigits || len(phone) > PhoneMaxDigits {
		return "", false
	}
	return phone, true
}

func normalizeText(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func matchesAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if text == kw {
			return true
		}
	}
	return false
}

// DetectPatientCommand распознаёт команду пациента, CmdNone если это не команда
func DetectPatientCommand(text string) PatientCommand {
	text = normalizeText(text)

	switch {
	case matchesAny(text, cancelKeywords):
		return CmdCancel
	case matchesAny(text, newBookingKeywords):
		return CmdNewBooking
	case matchesAny(text, showDoctorsKeywords):
		return CmdShowDoctors
	case matchesAny(text, updateInfoKeywords):
		return CmdUpdateInfo
	case matchesAny(text, startKeywords):
		return CmdStart
	case text == "/help" || text == "help" || text == "مساعدة":
		return CmdHelp
	}
	return CmdNone
}

// IsYes подтверждение
func IsYes(text string) bool {
	return matchesAny(normalizeText(text), yesKeywords)
}

// IsNo отказ
func IsNo(text string) bool {
	return matchesAny(normalizeText(text), noKeywords)
}

// IsEdit запрос на исправление данных
func IsEdit(text string) bool {
	return matchesAny(normalizeText(text), editKeywords)
}

// ParseVisitType распознаёт тип визита
func ParseVisitType(text string) (model.VisitType, bool) {
	text = normalizeText(NormalizeDigits(text))

	switch {
	case matchesAny(text, newVisitKeywords):
		return model.VisitTypeNew, true
	case matchesAny(text, followupVisitKeywords):
		return model.VisitTypeFollowup, true
	}
	return "", false
}

// MatchDoctor находит врача по порядковому номеру в списке (с единицы)
// или по нечёткому совпадению имени без учёта регистра
func MatchDoctor(input string, doctors []*model.Doctor) *model.Doctor {
	input = strings.TrimSpace(NormalizeDigits(input))
	if input == "" {
		return nil
	}

	if idx, err := strconv.Atoi(input); err == nil {
		if idx >= 1 && idx <= len(doctors) {
			return doctors[idx-1]
		}
		return nil
	}

	if len([]rune(input)) < DoctorMatchMinLength {
		return nil
	}

	lowered := strings.ToLower(input)
	for _, doctor := range doctors {
		name := strings.ToLower(doctor.Name)
		if strings.Contains(name, lowered) || strings.Contains(lowered, name) {
			return doctor
		}
	}
	return nil
}

// Админ-команды. Проверяется только первый токен, чтобы не-админ,
// пишущий обычный текст, никогда сюда не попал.
var adminCommands = map[string]struct{}{
	"/adddoctor":      {},
	"/removedoctor":   {},
	"/listdoctors":    {},
	"/pending":        {},
	"/confirm":        {},
	"/reject":         {},
	"/summary":        {},
	"/analytics":      {},
	"/doctorpatients": {},
	"/today":          {},
	"/all":            {},
	"/doctorstats":    {},
	"/cutoff":         {},
	"/cleanup":        {},
	"/whoami":         {},
	"/adminhelp":      {},
	"/ping":           {},
}

func isAdminCommand(text string) bool {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return false
	}

	cmd := strings.ToLower(fields[0])
	// Телеграм дописывает @botname к командам в группах
	if at := strings.Index(cmd, "@"); at > 0 {
		cmd = cmd[:at]
	}

	_, ok := adminCommands[cmd]
	return ok
}
