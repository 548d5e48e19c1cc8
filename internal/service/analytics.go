package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/clinic_bot/internal/model"
)

// DoctorStats агрегаты по одному врачу
type DoctorStats struct {
	DoctorID   int64
	DoctorName string
	Total      int
	New        int
	Followup   int
	Revenue    int
}

// Report сводная аналитика по подтверждённым бронированиям.
// Считается сканом на каждый запрос, инкрементальных счётчиков нет:
// набор живёт один день и маленький.
type Report struct {
	TotalConfirmed int
	TotalPending   int
	NewVisits      int
	FollowupVisits int
	Revenue        int
	PerDoctor      []DoctorStats
}

// BuildReport собирает аналитику по всем подтверждённым бронированиям
func (s *LedgerService) BuildReport(ctx context.Context) (*Report, error) {
	confirmed, err := s.confirmed.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list confirmed bookings: %w", err)
	}

	pending, err := s.pending.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending payments: %w", err)
	}

	report := &Report{
		TotalConfirmed: len(confirmed),
		TotalPending:   len(pending),
	}

	byDoctor := make(map[int64]*DoctorStats)
	var order []int64

	for _, b := range confirmed {
		stats, ok := byDoctor[b.DoctorID]
		if !ok {
			stats = &DoctorStats{DoctorID: b.DoctorID, DoctorName: b.DoctorName}
			byDoctor[b.DoctorID] = stats
			order = append(order, b.DoctorID)
		}

		stats.Total++
		report.Revenue += b.Price
		stats.Revenue += b.Price

		switch b.VisitType {
		case model.VisitTypeFollowup:
			report.FollowupVisits++
			stats.Followup++
		default:
			report.NewVisits++
			stats.New++
		}
	}

	for _, id := range order {
		report.PerDoctor = append(report.PerDoctor, *byDoctor[id])
	}

	return report, nil
}

// SummarizeBookings агрегаты по готовому списку бронирований,
// используется ежедневной сводкой врачу
func SummarizeBookings(bookings []*model.ConfirmedBooking) DoctorStats {
	var stats DoctorStats
	for _, b := range bookings {
		stats.Total++
		stats.Revenue += b.Price
		if b.VisitType == model.VisitTypeFollowup {
			stats.Followup++
		} else {
			stats.New++
		}
	}
	return stats
}
