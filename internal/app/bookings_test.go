package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
	"hotel_booking/internal/storage/memory"
)

var (
	alice = domain.Identity{ID: "alice", Role: domain.RoleUser}
	bob   = domain.Identity{ID: "bob", Role: domain.RoleUser}
	admin = domain.Identity{ID: "root", Role: domain.RoleAdmin}
)

func bookingFixture(t *testing.T) (*app.BookingService, *memory.Store, string) {
	t.Helper()
	st := memory.New()
	h, err := st.CreateHotel(context.Background(), domain.Hotel{Name: "Ritz", Address: "Paris", Tel: "01"})
	if err != nil {
		t.Fatalf("seed hotel: %v", err)
	}
	return app.NewBookingService(st), st, h.ID
}

func patch(nights int) domain.BookingPatch {
	d := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	return domain.BookingPatch{BookingDate: &d, NumOfNights: &nights}
}

func message(err error) string {
	var f *domain.Failure
	if errors.As(err, &f) {
		return f.Message
	}
	return ""
}

func TestBookingCreate_OwnerAndHotelComeFromCaller(t *testing.T) {
	s, _, hotelID := bookingFixture(t)

	b, err := s.Create(context.Background(), alice, hotelID, patch(2))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if b.UserID != "alice" || b.HotelID != hotelID || b.ID == "" || b.CreatedAt.IsZero() {
		t.Fatalf("unexpected booking: %+v", b)
	}
}

func TestBookingCreate_UnknownHotel(t *testing.T) {
	s, _, _ := bookingFixture(t)

	_, err := s.Create(context.Background(), alice, "nope", patch(1))
	if !errors.Is(err, domain.ErrNotFound) || message(err) != "No hotel with the id of nope" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBookingCreate_NightCap(t *testing.T) {
	s, st, hotelID := bookingFixture(t)
	ctx := context.Background()

	_, err := s.Create(ctx, alice, hotelID, patch(5))
	if !errors.Is(err, domain.ErrInvalid) ||
		message(err) != "The user with ID alice cannot book more than 3 nights per booking" {
		t.Fatalf("unexpected error: %v", err)
	}

	// the schema cap binds admins too
	_, err = s.Create(ctx, admin, hotelID, patch(4))
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error for admin, got %v", err)
	}

	_, err = s.Create(ctx, alice, hotelID, patch(0))
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error for zero nights, got %v", err)
	}

	all, _ := st.ListBookings(ctx, domain.BookingFilter{})
	if len(all) != 0 {
		t.Fatalf("rejected bookings were stored: %+v", all)
	}
}

func TestBookingList_Scoping(t *testing.T) {
	s, st, h1 := bookingFixture(t)
	ctx := context.Background()
	h2, _ := st.CreateHotel(ctx, domain.Hotel{Name: "Savoy", Address: "London", Tel: "02"})

	mustCreate := func(who domain.Identity, hotel string) {
		if _, err := s.Create(ctx, who, hotel, patch(1)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	mustCreate(alice, h1)
	mustCreate(alice, h2.ID)
	mustCreate(bob, h1)

	mine, _ := s.List(ctx, alice, "")
	if len(mine) != 2 {
		t.Fatalf("alice sees %d bookings, want 2", len(mine))
	}
	for _, b := range mine {
		if b.UserID != "alice" {
			t.Fatalf("alice sees someone else's booking: %+v", b)
		}
		if b.Hotel == nil || b.Hotel.Name == "" {
			t.Fatalf("hotel not expanded: %+v", b)
		}
	}

	mineHere, _ := s.List(ctx, alice, h1)
	if len(mineHere) != 1 || mineHere[0].HotelID != h1 {
		t.Fatalf("hotel-scoped user list: %+v", mineHere)
	}

	all, _ := s.List(ctx, admin, "")
	here, _ := s.List(ctx, admin, h1)
	if len(all) != 3 || len(here) != 2 {
		t.Fatalf("admin lists: all=%d here=%d", len(all), len(here))
	}
}

func TestBookingUpdate_Rules(t *testing.T) {
	s, _, hotelID := bookingFixture(t)
	ctx := context.Background()
	b, _ := s.Create(ctx, alice, hotelID, patch(1))

	if _, err := s.Update(ctx, alice, "missing", patch(2)); message(err) != "No booking with the id of missing" {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := s.Update(ctx, bob, b.ID, patch(2))
	if !errors.Is(err, domain.ErrUnauthorized) || message(err) != "User bob is not authorized to update this booking" {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Update(ctx, alice, b.ID, patch(4)); message(err) != "Cannot update booking to more than 3 nights" {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Update(ctx, admin, b.ID, patch(4)); !errors.Is(err, domain.ErrInvalid) {
		t.Fatalf("admin past the cap should fail validation, got %v", err)
	}

	out, err := s.Update(ctx, alice, b.ID, patch(3))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if out.NumOfNights != 3 || out.UserID != "alice" || out.HotelID != hotelID {
		t.Fatalf("unexpected booking: %+v", out)
	}

	if _, err := s.Update(ctx, admin, b.ID, patch(2)); err != nil {
		t.Fatalf("admin update: %v", err)
	}
}

func TestBookingDelete_OwnershipKeepsRecord(t *testing.T) {
	s, _, hotelID := bookingFixture(t)
	ctx := context.Background()
	b, _ := s.Create(ctx, alice, hotelID, patch(1))

	err := s.Delete(ctx, bob, b.ID)
	if !errors.Is(err, domain.ErrUnauthorized) || message(err) != "User bob is not authorized to delete this booking" {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Get(ctx, b.ID); err != nil {
		t.Fatalf("booking should remain: %v", err)
	}

	if err := s.Delete(ctx, alice, b.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, err := s.Get(ctx, b.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
