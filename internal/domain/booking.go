package domain

import "time"

// MaxNights is the hard cap on a single booking, enforced for every role.
const MaxNights = 3

type Booking struct {
	ID          string
	BookingDate time.Time
	NumOfNights int
	UserID      string
	HotelID     string
	CreatedAt   time.Time

	// Hotel is the expanded hotel reference; nil unless populated.
	Hotel *HotelSummary
}

// BookingPatch carries the client-settable booking fields; user and hotel
// are fixed at creation.
type BookingPatch struct {
	BookingDate *time.Time
	NumOfNights *int
}

func (p BookingPatch) Apply(b Booking) Booking {
	if p.BookingDate != nil {
		b.BookingDate = *p.BookingDate
	}
	if p.NumOfNights != nil {
		b.NumOfNights = *p.NumOfNights
	}
	return b
}

// BookingFilter scopes a booking listing. Empty fields do not filter.
type BookingFilter struct {
	UserID  string
	HotelID string
}
