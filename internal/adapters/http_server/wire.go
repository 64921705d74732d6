package httpserver

import (
	"encoding/json"
	"fmt"
	"time"

	"hotel_booking/internal/domain"
	"hotel_booking/internal/query"
)

// ---- responses ----

// hotelJSON renders a hotel; nil fields were left out by the projection.
type hotelJSON struct {
	ObjectID  string         `json:"_id"`
	Name      *string        `json:"name,omitempty"`
	Address   *string        `json:"address,omitempty"`
	Tel       *string        `json:"tel,omitempty"`
	CreatedAt *time.Time     `json:"createdAt,omitempty"`
	Bookings  *[]bookingJSON `json:"bookings,omitempty"`
	ID        string         `json:"id"`
}

func renderHotel(h domain.Hotel, spec query.Spec) hotelJSON {
	out := hotelJSON{ObjectID: h.ID, ID: h.ID}
	if spec.Selects("name") {
		out.Name = &h.Name
	}
	if spec.Selects("address") {
		out.Address = &h.Address
	}
	if spec.Selects("tel") {
		out.Tel = &h.Tel
	}
	if spec.Selects("createdAt") && !h.CreatedAt.IsZero() {
		out.CreatedAt = &h.CreatedAt
	}
	if spec.Selects("bookings") && h.Bookings != nil {
		bs := renderBookings(h.Bookings)
		out.Bookings = &bs
	}
	return out
}

func renderHotels(hs []domain.Hotel, spec query.Spec) []hotelJSON {
	out := make([]hotelJSON, 0, len(hs))
	for _, h := range hs {
		out = append(out, renderHotel(h, spec))
	}
	return out
}

type hotelRefJSON struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Tel     string `json:"tel"`
}

type bookingJSON struct {
	ID          string    `json:"_id"`
	BookingDate time.Time `json:"bookingDate"`
	NumOfNights int       `json:"numOfNights"`
	User        string    `json:"user"`
	// Hotel is the hotel id, or a hotelRefJSON when expanded.
	Hotel     any       `json:"hotel"`
	CreatedAt time.Time `json:"createdAt"`
}

func renderBooking(b domain.Booking) bookingJSON {
	out := bookingJSON{
		ID:          b.ID,
		BookingDate: b.BookingDate,
		NumOfNights: b.NumOfNights,
		User:        b.UserID,
		Hotel:       b.HotelID,
		CreatedAt:   b.CreatedAt,
	}
	if b.Hotel != nil {
		out.Hotel = hotelRefJSON{ID: b.Hotel.ID, Name: b.Hotel.Name, Address: b.Hotel.Address, Tel: b.Hotel.Tel}
	}
	return out
}

func renderBookings(bs []domain.Booking) []bookingJSON {
	out := make([]bookingJSON, 0, len(bs))
	for _, b := range bs {
		out = append(out, renderBooking(b))
	}
	return out
}

// ---- requests ----

type hotelBody struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Tel     *string `json:"tel"`
}

func (b hotelBody) patch() domain.HotelPatch {
	return domain.HotelPatch{Name: b.Name, Address: b.Address, Tel: b.Tel}
}

func (b hotelBody) hotel() domain.Hotel {
	return b.patch().Apply(domain.Hotel{})
}

// bookingBody holds the client-settable booking fields. Numbers may arrive
// as JSON numbers or numeric strings.
type bookingBody struct {
	BookingDate *string      `json:"bookingDate"`
	NumOfNights *json.Number `json:"numOfNights"`
}

// patch casts the body, reporting values of the wrong type the way
// validation failures are reported.
func (b bookingBody) patch() (domain.BookingPatch, error) {
	var (
		p    domain.BookingPatch
		errs []domain.Violation
	)
	if b.BookingDate != nil {
		t, err := query.ParseTime(*b.BookingDate)
		if err != nil {
			errs = append(errs, domain.Violation{Field: "bookingDate",
				Message: fmt.Sprintf("Cast to date failed for value %q at path \"bookingDate\"", *b.BookingDate)})
		} else {
			p.BookingDate = &t
		}
	}
	if b.NumOfNights != nil {
		n, err := b.NumOfNights.Int64()
		if err != nil {
			errs = append(errs, domain.Violation{Field: "numOfNights",
				Message: fmt.Sprintf("Cast to Number failed for value %q at path \"numOfNights\"", b.NumOfNights.String())})
		} else {
			v := int(n)
			p.NumOfNights = &v
		}
	}
	if len(errs) > 0 {
		return domain.BookingPatch{}, &domain.ValidationError{Entity: "Booking", Violations: errs}
	}
	return p, nil
}
