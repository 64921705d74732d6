package storage

import (
	"context"
	"time"

	"hotel_booking/internal/adapters/observability"
	"hotel_booking/internal/domain"
	"hotel_booking/internal/query"
)

// Instrumented records the outcome and latency of every store call.
type Instrumented struct {
	next   domain.Store
	driver string
}

func Instrument(next domain.Store, driver string) *Instrumented {
	return &Instrumented{next: next, driver: driver}
}

func (s *Instrumented) observe(op string, start time.Time, err error) {
	observability.ObserveStore(s.driver, op, err, time.Since(start))
}

func (s *Instrumented) ListHotels(ctx context.Context, spec query.Spec) (p domain.HotelsPage, err error) {
	defer func(t time.Time) { s.observe("ListHotels", t, err) }(time.Now())
	return s.next.ListHotels(ctx, spec)
}

func (s *Instrumented) GetHotel(ctx context.Context, id string) (h domain.Hotel, err error) {
	defer func(t time.Time) { s.observe("GetHotel", t, err) }(time.Now())
	return s.next.GetHotel(ctx, id)
}

func (s *Instrumented) CreateHotel(ctx context.Context, in domain.Hotel) (h domain.Hotel, err error) {
	defer func(t time.Time) { s.observe("CreateHotel", t, err) }(time.Now())
	return s.next.CreateHotel(ctx, in)
}

func (s *Instrumented) UpdateHotel(ctx context.Context, in domain.Hotel) (h domain.Hotel, err error) {
	defer func(t time.Time) { s.observe("UpdateHotel", t, err) }(time.Now())
	return s.next.UpdateHotel(ctx, in)
}

func (s *Instrumented) DeleteHotel(ctx context.Context, id string) (n int64, err error) {
	defer func(t time.Time) { s.observe("DeleteHotel", t, err) }(time.Now())
	return s.next.DeleteHotel(ctx, id)
}

func (s *Instrumented) ListBookings(ctx context.Context, f domain.BookingFilter) (bs []domain.Booking, err error) {
	defer func(t time.Time) { s.observe("ListBookings", t, err) }(time.Now())
	return s.next.ListBookings(ctx, f)
}

func (s *Instrumented) GetBooking(ctx context.Context, id string) (b domain.Booking, err error) {
	defer func(t time.Time) { s.observe("GetBooking", t, err) }(time.Now())
	return s.next.GetBooking(ctx, id)
}

func (s *Instrumented) CreateBooking(ctx context.Context, in domain.Booking) (b domain.Booking, err error) {
	defer func(t time.Time) { s.observe("CreateBooking", t, err) }(time.Now())
	return s.next.CreateBooking(ctx, in)
}

func (s *Instrumented) UpdateBooking(ctx context.Context, in domain.Booking) (b domain.Booking, err error) {
	defer func(t time.Time) { s.observe("UpdateBooking", t, err) }(time.Now())
	return s.next.UpdateBooking(ctx, in)
}

func (s *Instrumented) DeleteBooking(ctx context.Context, id string) (err error) {
	defer func(t time.Time) { s.observe("DeleteBooking", t, err) }(time.Now())
	return s.next.DeleteBooking(ctx, id)
}
