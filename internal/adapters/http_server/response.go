package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"hotel_booking/internal/domain"
	"hotel_booking/internal/query"
)

// envelope is the body of every API response.
type envelope struct {
	Success    bool              `json:"success"`
	Count      *int              `json:"count,omitempty"`
	Pagination *query.Pagination `json:"pagination,omitempty"`
	Data       any               `json:"data,omitempty"`
	Message    string            `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func ok(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func list(w http.ResponseWriter, count int, p query.Pagination, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Count: &count, Pagination: &p, Data: data})
}

func fail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Message: msg})
}

// empty renders as {} for deletes.
var empty = struct{}{}

// classify maps an error onto a status and client message. Errors of no
// known class are store failures: they are logged and answered with 500 and
// the endpoint's generic message.
func classify(r *http.Request, err error, generic string) (int, string) {
	var (
		ve  *domain.ValidationError
		dup *domain.DuplicateError
		f   *domain.Failure
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Error()
	case errors.As(err, &dup):
		return http.StatusBadRequest, dup.Error()
	case errors.As(err, &f):
		return failureStatus(f.Kind), f.Message
	case errors.Is(err, query.ErrBadFilter):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, ""
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, ""
	case errors.Is(err, domain.ErrInvalid):
		return http.StatusBadRequest, err.Error()
	}
	logFailure(r, err)
	return http.StatusInternalServerError, generic
}

func logFailure(r *http.Request, err error) {
	log.Error().Err(err).
		Str("route", routeOf(r)).
		Str("method", r.Method).
		Str("request_id", chimw.GetReqID(r.Context())).
		Msg("request failed")
}

func failureStatus(kind error) int {
	switch {
	case errors.Is(kind, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(kind, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(kind, domain.ErrInvalid), errors.Is(kind, domain.ErrDuplicate):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error, generic string) {
	status, msg := classify(r, err, generic)
	fail(w, status, msg)
}

// decode reads a JSON request body into dst.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return domain.Fail(domain.ErrInvalid, "Invalid request body")
	}
	return nil
}
