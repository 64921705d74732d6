package domain

import (
	"strings"
	"time"

	"hotel_booking/internal/query"
)

const HotelNameMaxLen = 50

type Hotel struct {
	ID        string
	Name      string
	Address   string
	Tel       string
	CreatedAt time.Time

	// Bookings is the virtual reverse relation; nil unless populated.
	Bookings []Booking
}

// HotelSummary is the slice of a hotel embedded into booking responses.
type HotelSummary struct {
	ID      string
	Name    string
	Address string
	Tel     string
}

func (h Hotel) Summary() HotelSummary {
	return HotelSummary{ID: h.ID, Name: h.Name, Address: h.Address, Tel: h.Tel}
}

// Normalize applies the field transforms the store expects before validation.
func (h *Hotel) Normalize() {
	h.Name = strings.TrimSpace(h.Name)
}

// HotelPatch carries the client-settable hotel fields; nil means unchanged.
type HotelPatch struct {
	Name    *string
	Address *string
	Tel     *string
}

func (p HotelPatch) Apply(h Hotel) Hotel {
	if p.Name != nil {
		h.Name = *p.Name
	}
	if p.Address != nil {
		h.Address = *p.Address
	}
	if p.Tel != nil {
		h.Tel = *p.Tel
	}
	h.Normalize()
	return h
}

// HotelSchema lists the hotel fields list requests may filter, sort and select on.
var HotelSchema = query.Schema{
	Kinds: map[string]query.Kind{
		"id":        query.KindID,
		"name":      query.KindString,
		"address":   query.KindString,
		"tel":       query.KindString,
		"createdAt": query.KindTime,
	},
	Aliases: map[string]string{"_id": "id"},
	Virtual: []string{"bookings"},
}
