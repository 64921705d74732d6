// Package memory is a process-local entity store. It backs development runs
// and the HTTP tests; every operation is atomic under a single lock.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"hotel_booking/internal/domain"
	"hotel_booking/internal/query"
)

type Store struct {
	mu       sync.RWMutex
	seq      uint64
	now      func() time.Time
	hotels   map[string]domain.Hotel
	bookings map[string]domain.Booking
}

func New() *Store {
	return &Store{
		now:      func() time.Time { return time.Now().UTC() },
		hotels:   map[string]domain.Hotel{},
		bookings: map[string]domain.Booking{},
	}
}

// nextID yields fixed-width hex ids so lexical order matches creation order.
func (s *Store) nextID() string {
	s.seq++
	return fmt.Sprintf("%024x", s.seq)
}

// ---- hotels ----

func (s *Store) ListHotels(ctx context.Context, spec query.Spec) (domain.HotelsPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []domain.Hotel
	for _, h := range s.hotels {
		ok, err := matches(h, spec.Filter())
		if err != nil {
			return domain.HotelsPage{}, err
		}
		if ok {
			matched = append(matched, h)
		}
	}
	sortHotels(matched, spec.Sort())

	total := int64(len(matched))
	page := spec.Page()
	lo := min(page.Skip(), len(matched))
	hi := min(page.End(), len(matched))
	items := slices.Clone(matched[lo:hi])

	if spec.Selects("bookings") {
		for i := range items {
			items[i].Bookings = s.bookingsOf(items[i].ID)
		}
	}
	return domain.HotelsPage{Items: items, Total: total}, nil
}

func (s *Store) bookingsOf(hotelID string) []domain.Booking {
	out := []domain.Booking{}
	for _, b := range s.bookings {
		if b.HotelID == hotelID {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b domain.Booking) int { return compareStrings(a.ID, b.ID) })
	return out
}

func (s *Store) GetHotel(ctx context.Context, id string) (domain.Hotel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.hotels[id]
	if !ok {
		return domain.Hotel{}, domain.ErrNotFound
	}
	return h, nil
}

func (s *Store) CreateHotel(ctx context.Context, h domain.Hotel) (domain.Hotel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUniqueName("", h.Name); err != nil {
		return domain.Hotel{}, err
	}
	h.ID = s.nextID()
	h.CreatedAt = s.now()
	h.Bookings = nil
	s.hotels[h.ID] = h
	return h, nil
}

func (s *Store) UpdateHotel(ctx context.Context, h domain.Hotel) (domain.Hotel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.hotels[h.ID]
	if !ok {
		return domain.Hotel{}, domain.ErrNotFound
	}
	if err := s.checkUniqueName(h.ID, h.Name); err != nil {
		return domain.Hotel{}, err
	}
	cur.Name, cur.Address, cur.Tel = h.Name, h.Address, h.Tel
	s.hotels[h.ID] = cur
	return cur, nil
}

func (s *Store) checkUniqueName(selfID, name string) error {
	for id, other := range s.hotels {
		if id != selfID && other.Name == name {
			return &domain.DuplicateError{Field: "name", Value: name}
		}
	}
	return nil
}

func (s *Store) DeleteHotel(ctx context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.hotels[id]; !ok {
		return 0, domain.ErrNotFound
	}
	var removed int64
	for bid, b := range s.bookings {
		if b.HotelID == id {
			delete(s.bookings, bid)
			removed++
		}
	}
	delete(s.hotels, id)
	return removed, nil
}

// ---- bookings ----

func (s *Store) ListBookings(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Booking{}
	for _, b := range s.bookings {
		if f.UserID != "" && b.UserID != f.UserID {
			continue
		}
		if f.HotelID != "" && b.HotelID != f.HotelID {
			continue
		}
		out = append(out, s.expand(b))
	}
	slices.SortFunc(out, func(a, b domain.Booking) int { return compareStrings(a.ID, b.ID) })
	return out, nil
}

func (s *Store) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return domain.Booking{}, domain.ErrNotFound
	}
	return s.expand(b), nil
}

func (s *Store) expand(b domain.Booking) domain.Booking {
	if h, ok := s.hotels[b.HotelID]; ok {
		sum := h.Summary()
		b.Hotel = &sum
	}
	return b
}

func (s *Store) CreateBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := domain.ValidateBooking(b); err != nil {
		return domain.Booking{}, err
	}
	if _, ok := s.hotels[b.HotelID]; !ok {
		return domain.Booking{}, domain.ErrNotFound
	}
	b.ID = s.nextID()
	b.CreatedAt = s.now()
	b.Hotel = nil
	s.bookings[b.ID] = b
	return b, nil
}

func (s *Store) UpdateBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.bookings[b.ID]
	if !ok {
		return domain.Booking{}, domain.ErrNotFound
	}
	cur.BookingDate, cur.NumOfNights = b.BookingDate, b.NumOfNights
	if err := domain.ValidateBooking(cur); err != nil {
		return domain.Booking{}, err
	}
	s.bookings[b.ID] = cur
	return cur, nil
}

func (s *Store) DeleteBooking(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.bookings, id)
	return nil
}
