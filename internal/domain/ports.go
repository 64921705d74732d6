package domain

import (
	"context"

	"hotel_booking/internal/query"
)

type HotelRepository interface {
	// Read paths
	ListHotels(ctx context.Context, spec query.Spec) (HotelsPage, error)
	GetHotel(ctx context.Context, id string) (Hotel, error)

	// Write paths
	CreateHotel(ctx context.Context, h Hotel) (Hotel, error)
	UpdateHotel(ctx context.Context, h Hotel) (Hotel, error)
	// DeleteHotel removes every booking of the hotel and then the hotel,
	// as one unit. It returns the number of bookings removed.
	DeleteHotel(ctx context.Context, id string) (int64, error)
}

type BookingRepository interface {
	// ListBookings returns bookings with their hotel reference expanded.
	ListBookings(ctx context.Context, f BookingFilter) ([]Booking, error)
	// GetBooking returns a booking with its hotel reference expanded.
	GetBooking(ctx context.Context, id string) (Booking, error)

	CreateBooking(ctx context.Context, b Booking) (Booking, error)
	UpdateBooking(ctx context.Context, b Booking) (Booking, error)
	DeleteBooking(ctx context.Context, id string) error
}

// Store is the entity store: every persistence operation the services need.
type Store interface {
	HotelRepository
	BookingRepository
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// HotelsPage is one window of a hotel listing. Total counts every hotel
// matching the filter, not just this window.
type HotelsPage struct {
	Items []Hotel
	Total int64
}
