package domain

import (
	"strings"
	"unicode/utf8"
)

// Violation is a single failed field constraint.
type Violation struct {
	Field   string
	Message string
}

// ValidationError lists every violated constraint of one record.
type ValidationError struct {
	Entity     string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return e.Entity + " validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

type violations struct {
	entity string
	list   []Violation
}

func (v *violations) add(field, msg string) {
	v.list = append(v.list, Violation{Field: field, Message: msg})
}

func (v *violations) err() error {
	if len(v.list) == 0 {
		return nil
	}
	return &ValidationError{Entity: v.entity, Violations: v.list}
}

// ValidateHotel checks a normalized hotel against the schema constraints.
// Name uniqueness is left to the store.
func ValidateHotel(h Hotel) error {
	v := violations{entity: "Hotel"}
	switch {
	case h.Name == "":
		v.add("name", "Please add a name")
	case utf8.RuneCountInString(h.Name) > HotelNameMaxLen:
		v.add("name", "Name can not be more than 50 characters")
	}
	if strings.TrimSpace(h.Address) == "" {
		v.add("address", "Please add an address")
	}
	if strings.TrimSpace(h.Tel) == "" {
		v.add("tel", "Please add a telephone number")
	}
	return v.err()
}

func ValidateBooking(b Booking) error {
	v := violations{entity: "Booking"}
	if b.BookingDate.IsZero() {
		v.add("bookingDate", "Please add a booking date")
	}
	switch {
	case b.NumOfNights == 0:
		v.add("numOfNights", "Please specify the number of nights")
	case b.NumOfNights < 1:
		v.add("numOfNights", "Must book at least 1 night")
	case b.NumOfNights > MaxNights:
		v.add("numOfNights", "Can book up to 3 nights only")
	}
	if b.UserID == "" {
		v.add("user", "Please add a user")
	}
	if b.HotelID == "" {
		v.add("hotel", "Please add a hotel")
	}
	return v.err()
}
