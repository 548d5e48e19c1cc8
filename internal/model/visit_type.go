package model

type VisitType string

const (
	VisitTypeNew      VisitType = "new"      // Первичный приём
	VisitTypeFollowup VisitType = "followup" // Повторный приём
)

// Valid проверяет что тип визита известен
func (v VisitType) Valid() bool {
	return v == VisitTypeNew || v == VisitTypeFollowup
}
