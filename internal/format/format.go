package format

import (
	"fmt"

	"github.com/Freeeeeet/clinic_bot/internal/model"
)

// Price форматирует цену из пиастров в фунты
func Price(priceInPiasters int) string {
	price := float64(priceInPiasters) / 100
	if priceInPiasters%100 == 0 {
		return fmt.Sprintf("%.0f SDG", price)
	}
	return fmt.Sprintf("%.2f SDG", price)
}

// VisitType человекочитаемое название типа визита
func VisitType(v model.VisitType) string {
	if v == model.VisitTypeFollowup {
		return "Follow-up"
	}
	return "New consultation"
}
