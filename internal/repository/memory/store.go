// Package memory хранит записи в памяти. Используется тестами и
// дев-режимом (STORAGE=memory); продакшен работает на PostgreSQL
// через internal/repository. Семантика та же: общая последовательность
// ID бронирований, которая переживает очистку таблиц.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Freeeeeet/clinic_bot/internal/model"
)

type Store struct {
	mu sync.RWMutex

	doctorSeq  int64
	bookingSeq int64 // общий счётчик pending и confirmed, не сбрасывается

	doctors   map[int64]*model.Doctor
	pending   map[int64]*model.PendingPayment
	confirmed []*model.ConfirmedBooking
}

func NewStore() *Store {
	return &Store{
		doctors: make(map[int64]*model.Doctor),
		pending: make(map[int64]*model.PendingPayment),
	}
}

// Doctors возвращает реализацию service.DoctorStore
func (s *Store) Doctors() *DoctorStore { return &DoctorStore{s: s} }

// Pending возвращает реализацию service.PendingStore
func (s *Store) Pending() *PendingStore { return &PendingStore{s: s} }

// Confirmed возвращает реализацию service.ConfirmedStore
func (s *Store) Confirmed() *ConfirmedStore { return &ConfirmedStore{s: s} }

type DoctorStore struct {
	s *Store
}

func (d *DoctorStore) Create(_ context.Context, doctor *model.Doctor) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()

	d.s.doctorSeq++
	doctor.ID = d.s.doctorSeq
	doctor.CreatedAt = time.Now()

	clone := *doctor
	d.s.doctors[doctor.ID] = &clone
	return nil
}

func (d *DoctorStore) GetByID(_ context.Context, id int64) (*model.Doctor, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()

	doctor, ok := d.s.doctors[id]
	if !ok {
		return nil, nil
	}
	clone := *doctor
	return &clone, nil
}

func (d *DoctorStore) GetByName(_ context.Context, name string) (*model.Doctor, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()

	for _, doctor := range d.s.doctors {
		if strings.EqualFold(doctor.Name, name) {
			clone := *doctor
			return &clone, nil
		}
	}
	return nil, nil
}

func (d *DoctorStore) List(_ context.Context) ([]*model.Doctor, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()

	doctors := make([]*model.Doctor, 0, len(d.s.doctors))
	for _, doctor := range d.s.doctors {
		clone := *doctor
		doctors = append(doctors, &clone)
	}
	sort.Slice(doctors, func(i, j int) bool { return doctors[i].ID < doctors[j].ID })
	return doctors, nil
}

func (d *DoctorStore) Delete(_ context.Context, id int64) (bool, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()

	if _, ok := d.s.doctors[id]; !ok {
		return false, nil
	}
	delete(d.s.doctors, id)
	return true, nil
}

type PendingStore struct {
	s *Store
}

func (p *PendingStore) Create(_ context.Context, record *model.PendingPayment) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	p.s.bookingSeq++
	record.ID = p.s.bookingSeq
	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now

	clone := *record
	p.s.pending[record.ID] = &clone
	return nil
}

func (p *PendingStore) GetByID(_ context.Context, id int64) (*model.PendingPayment, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	record, ok := p.s.pending[id]
	if !ok {
		return nil, nil
	}
	clone := *record
	return &clone, nil
}

func (p *PendingStore) GetByChat(_ context.Context, chatID int64) (*model.PendingPayment, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	var latest *model.PendingPayment
	for _, record := range p.s.pending {
		if record.ChatID != chatID {
			continue
		}
		if latest == nil || record.CreatedAt.After(latest.CreatedAt) {
			latest = record
		}
	}
	if latest == nil {
		return nil, nil
	}
	clone := *latest
	return &clone, nil
}

func (p *PendingStore) GetByChatAndDoctor(_ context.Context, chatID, doctorID int64) (*model.PendingPayment, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	for _, record := range p.s.pending {
		if record.ChatID == chatID && record.DoctorID == doctorID {
			clone := *record
			return &clone, nil
		}
	}
	return nil, nil
}

func (p *PendingStore) LatestByChat(ctx context.Context, chatID int64) (*model.PendingPayment, error) {
	return p.GetByChat(ctx, chatID)
}

func (p *PendingStore) List(_ context.Context) ([]*model.PendingPayment, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	records := make([]*model.PendingPayment, 0, len(p.s.pending))
	for _, record := range p.s.pending {
		clone := *record
		records = append(records, &clone)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

func (p *PendingStore) AttachProof(_ context.Context, id int64, proofRef string) (*model.PendingPayment, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	record, ok := p.s.pending[id]
	if !ok {
		return nil, nil
	}

	record.ProofRef = proofRef
	record.Status = model.PaymentStatusSubmitted
	record.UpdatedAt = time.Now()

	clone := *record
	return &clone, nil
}

func (p *PendingStore) Delete(_ context.Context, id int64) (bool, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	if _, ok := p.s.pending[id]; !ok {
		return false, nil
	}
	delete(p.s.pending, id)
	return true, nil
}

func (p *PendingStore) DeleteAll(_ context.Context) (int64, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	count := int64(len(p.s.pending))
	p.s.pending = make(map[int64]*model.PendingPayment)
	return count, nil
}

type ConfirmedStore struct {
	s *Store
}

func (c *ConfirmedStore) Create(_ context.Context, b *model.ConfirmedBooking) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	clone := *b
	c.s.confirmed = append(c.s.confirmed, &clone)
	return nil
}

func (c *ConfirmedStore) CountByDoctor(_ context.Context, doctorID int64) (int, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	count := 0
	for _, b := range c.s.confirmed {
		if b.DoctorID == doctorID {
			count++
		}
	}
	return count, nil
}

func (c *ConfirmedStore) ListByDoctor(_ context.Context, doctorID int64) ([]*model.ConfirmedBooking, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	var bookings []*model.ConfirmedBooking
	for _, b := range c.s.confirmed {
		if b.DoctorID == doctorID {
			clone := *b
			bookings = append(bookings, &clone)
		}
	}
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].QueuePosition < bookings[j].QueuePosition })
	return bookings, nil
}

func (c *ConfirmedStore) List(_ context.Context) ([]*model.ConfirmedBooking, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	bookings := make([]*model.ConfirmedBooking, 0, len(c.s.confirmed))
	for _, b := range c.s.confirmed {
		clone := *b
		bookings = append(bookings, &clone)
	}
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].ConfirmedAt.Before(bookings[j].ConfirmedAt) })
	return bookings, nil
}

func (c *ConfirmedStore) ListInRange(_ context.Context, from, to time.Time) ([]*model.ConfirmedBooking, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	var bookings []*model.ConfirmedBooking
	for _, b := range c.s.confirmed {
		if b.ConfirmedAt.Before(from) || b.ConfirmedAt.After(to) {
			continue
		}
		clone := *b
		bookings = append(bookings, &clone)
	}
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].ConfirmedAt.Before(bookings[j].ConfirmedAt) })
	return bookings, nil
}

func (c *ConfirmedStore) LatestByChat(_ context.Context, chatID int64) (*model.ConfirmedBooking, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	var latest *model.ConfirmedBooking
	for _, b := range c.s.confirmed {
		if b.ChatID != chatID {
			continue
		}
		if latest == nil || b.ConfirmedAt.After(latest.ConfirmedAt) {
			latest = b
		}
	}
	if latest == nil {
		return nil, nil
	}
	clone := *latest
	return &clone, nil
}

func (c *ConfirmedStore) DeleteAll(_ context.Context) (int64, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	count := int64(len(c.s.confirmed))
	c.s.confirmed = nil
	return count, nil
}

