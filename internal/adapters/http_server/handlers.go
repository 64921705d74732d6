package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hotel_booking/internal/adapters/auth"
	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
	"hotel_booking/internal/query"
)

type Handlers struct {
	Hotels   *app.HotelService
	Bookings *app.BookingService
	Auth     *auth.Verifier
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	protect := Protect(h.Auth)
	admin := Authorize(domain.RoleAdmin)

	s.mux.Route("/api/v1", func(r chi.Router) {
		r.Route("/hotels", func(r chi.Router) {
			r.Get("/", h.listHotels)
			r.With(protect, admin).Post("/", h.createHotel)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getHotel)
				r.With(protect, admin).Put("/", h.updateHotel)
				r.With(protect, admin).Delete("/", h.deleteHotel)

				r.With(protect).Get("/bookings", h.listBookings)
				r.With(protect).Post("/bookings", h.createBooking)
			})
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Use(protect)
			r.Get("/", h.listBookings)
			r.Get("/{id}", h.getBooking)
			r.Put("/{id}", h.updateBooking)
			r.Delete("/{id}", h.deleteBooking)
		})
	})
}

// ---- hotels ----

func (h *Handlers) listHotels(w http.ResponseWriter, r *http.Request) {
	spec, err := query.Parse(r.URL.Query(), domain.HotelSchema)
	if err != nil {
		writeError(w, r, err, "Cannot find Hotel")
		return
	}
	page, err := h.Hotels.List(r.Context(), spec)
	if err != nil {
		writeError(w, r, err, "Cannot find Hotel")
		return
	}
	list(w, len(page.Items), spec.Page().Paginate(page.Total), renderHotels(page.Items, spec))
}

func (h *Handlers) getHotel(w http.ResponseWriter, r *http.Request) {
	hotel, err := h.Hotels.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logFailure(r, err)
		}
		fail(w, http.StatusBadRequest, "")
		return
	}
	ok(w, http.StatusOK, renderHotel(hotel, query.New()))
}

func (h *Handlers) createHotel(w http.ResponseWriter, r *http.Request) {
	var body hotelBody
	if err := decode(r, &body); err != nil {
		writeError(w, r, err, "")
		return
	}
	hotel, err := h.Hotels.Create(r.Context(), body.hotel())
	if err != nil {
		status, msg := classify(r, err, "Cannot create Hotel")
		if status == http.StatusInternalServerError {
			status = http.StatusBadRequest
		}
		fail(w, status, msg)
		return
	}
	ok(w, http.StatusCreated, renderHotel(hotel, query.New()))
}

func (h *Handlers) updateHotel(w http.ResponseWriter, r *http.Request) {
	var body hotelBody
	if err := decode(r, &body); err != nil {
		writeError(w, r, err, "")
		return
	}
	hotel, err := h.Hotels.Update(r.Context(), chi.URLParam(r, "id"), body.patch())
	switch {
	case errors.Is(err, domain.ErrNotFound):
		fail(w, http.StatusBadRequest, "")
		return
	case err != nil:
		writeError(w, r, err, "Cannot update Hotel")
		return
	}
	ok(w, http.StatusOK, renderHotel(hotel, query.New()))
}

func (h *Handlers) deleteHotel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.Hotels.Delete(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		fail(w, http.StatusNotFound, fmt.Sprintf("Hotel not found with id of %s", id))
		return
	case err != nil:
		writeError(w, r, err, "Cannot delete Hotel")
		return
	}
	ok(w, http.StatusOK, empty)
}

// ---- bookings ----

// identity is set by Protect on every booking route.
func identity(r *http.Request) domain.Identity {
	who, _ := auth.FromContext(r.Context())
	return who
}

// listBookings serves both /bookings and /hotels/{id}/bookings.
func (h *Handlers) listBookings(w http.ResponseWriter, r *http.Request) {
	bs, err := h.Bookings.List(r.Context(), identity(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, "Cannot find Booking")
		return
	}
	list(w, len(bs), query.Pagination{}, renderBookings(bs))
}

func (h *Handlers) getBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.Bookings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, "Cannot find Booking")
		return
	}
	ok(w, http.StatusOK, renderBooking(b))
}

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	var body bookingBody
	if err := decode(r, &body); err != nil {
		writeError(w, r, err, "")
		return
	}
	p, err := body.patch()
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	b, err := h.Bookings.Create(r.Context(), identity(r), chi.URLParam(r, "id"), p)
	if err != nil {
		writeError(w, r, err, "Cannot create Booking")
		return
	}
	ok(w, http.StatusOK, renderBooking(b))
}

func (h *Handlers) updateBooking(w http.ResponseWriter, r *http.Request) {
	var body bookingBody
	if err := decode(r, &body); err != nil {
		writeError(w, r, err, "")
		return
	}
	p, err := body.patch()
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	b, err := h.Bookings.Update(r.Context(), identity(r), chi.URLParam(r, "id"), p)
	if err != nil {
		writeError(w, r, err, "Cannot update Booking")
		return
	}
	ok(w, http.StatusOK, renderBooking(b))
}

func (h *Handlers) deleteBooking(w http.ResponseWriter, r *http.Request) {
	if err := h.Bookings.Delete(r.Context(), identity(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err, "Cannot delete Booking")
		return
	}
	ok(w, http.StatusOK, empty)
}
