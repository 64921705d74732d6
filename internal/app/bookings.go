package app

import (
	"context"
	"errors"

	"hotel_booking/internal/domain"
)

// BookingService applies the ownership and length rules on top of the store.
type BookingService struct {
	repo domain.Store
}

func NewBookingService(r domain.Store) *BookingService {
	return &BookingService{repo: r}
}

// List returns the bookings visible to who. Users only ever see their own;
// hotelID, when set, narrows the result to one hotel.
func (s *BookingService) List(ctx context.Context, who domain.Identity, hotelID string) ([]domain.Booking, error) {
	f := domain.BookingFilter{HotelID: hotelID}
	if !who.IsAdmin() {
		f.UserID = who.ID
	}
	return s.repo.ListBookings(ctx, f)
}

func (s *BookingService) Get(ctx context.Context, id string) (domain.Booking, error) {
	b, err := s.repo.GetBooking(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Booking{}, domain.Fail(domain.ErrNotFound, "No booking with the id of %s", id)
	}
	return b, err
}

// Create books hotelID for who. The owner and hotel always come from the
// caller, never from the request body.
func (s *BookingService) Create(ctx context.Context, who domain.Identity, hotelID string, in domain.BookingPatch) (domain.Booking, error) {
	noHotel := domain.Fail(domain.ErrNotFound, "No hotel with the id of %s", hotelID)
	if _, err := s.repo.GetHotel(ctx, hotelID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Booking{}, noHotel
		}
		return domain.Booking{}, err
	}

	b := in.Apply(domain.Booking{UserID: who.ID, HotelID: hotelID})
	if !who.IsAdmin() && b.NumOfNights > domain.MaxNights {
		return domain.Booking{}, domain.Fail(domain.ErrInvalid,
			"The user with ID %s cannot book more than %d nights per booking", who.ID, domain.MaxNights)
	}
	if err := domain.ValidateBooking(b); err != nil {
		return domain.Booking{}, err
	}

	out, err := s.repo.CreateBooking(ctx, b)
	if errors.Is(err, domain.ErrNotFound) {
		// the hotel went away between the lookup and the insert
		return domain.Booking{}, noHotel
	}
	return out, err
}

func (s *BookingService) Update(ctx context.Context, who domain.Identity, id string, p domain.BookingPatch) (domain.Booking, error) {
	cur, err := s.owned(ctx, who, id, "update")
	if err != nil {
		return domain.Booking{}, err
	}
	if !who.IsAdmin() && p.NumOfNights != nil && *p.NumOfNights > domain.MaxNights {
		return domain.Booking{}, domain.Fail(domain.ErrInvalid,
			"Cannot update booking to more than %d nights", domain.MaxNights)
	}

	next := p.Apply(cur)
	next.Hotel = nil
	if err := domain.ValidateBooking(next); err != nil {
		return domain.Booking{}, err
	}
	out, err := s.repo.UpdateBooking(ctx, next)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Booking{}, domain.Fail(domain.ErrNotFound, "No booking with the id of %s", id)
	}
	return out, err
}

func (s *BookingService) Delete(ctx context.Context, who domain.Identity, id string) error {
	if _, err := s.owned(ctx, who, id, "delete"); err != nil {
		return err
	}
	err := s.repo.DeleteBooking(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Fail(domain.ErrNotFound, "No booking with the id of %s", id)
	}
	return err
}

// owned loads a booking and checks that who may perform action on it.
func (s *BookingService) owned(ctx context.Context, who domain.Identity, id, action string) (domain.Booking, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return domain.Booking{}, err
	}
	if !who.IsAdmin() && !who.Owns(b.UserID) {
		return domain.Booking{}, domain.Fail(domain.ErrUnauthorized,
			"User %s is not authorized to %s this booking", who.ID, action)
	}
	return b, nil
}
