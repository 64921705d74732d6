package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hotel_booking/internal/adapters/auth"
	server "hotel_booking/internal/adapters/http_server"
	"hotel_booking/internal/adapters/localcache"
	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
	"hotel_booking/internal/storage/memory"
)

const secret = "test-secret"

var (
	alice = domain.Identity{ID: "alice", Role: domain.RoleUser}
	bob   = domain.Identity{ID: "bob", Role: domain.RoleUser}
	admin = domain.Identity{ID: "root", Role: domain.RoleAdmin}
)

type response struct {
	Success    bool                       `json:"success"`
	Count      *int                       `json:"count"`
	Pagination map[string]json.RawMessage `json:"pagination"`
	Data       json.RawMessage            `json:"data"`
	Message    string                     `json:"message"`
}

type api struct {
	t     *testing.T
	h     http.Handler
	store *memory.Store
}

func newAPI(t *testing.T, opts server.Options) *api {
	t.Helper()
	st := memory.New()
	srv := server.New(opts)
	srv.MountHandlers(&server.Handlers{
		Hotels:   app.NewHotelService(st, localcache.New(time.Minute), time.Minute),
		Bookings: app.NewBookingService(st),
		Auth:     auth.NewVerifier(secret),
	})
	return &api{t: t, h: srv.Mux(), store: st}
}

func token(t *testing.T, who domain.Identity) string {
	t.Helper()
	tok, err := auth.Sign(secret, who, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

// do sends a request as who; a zero identity sends no token.
func (a *api) do(method, path string, who domain.Identity, body any) (int, response) {
	a.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if who.ID != "" {
		req.Header.Set("Authorization", "Bearer "+token(a.t, who))
	}
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)

	var out response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			a.t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code, out
}

func (a *api) seedHotel(name string) string {
	a.t.Helper()
	h, err := a.store.CreateHotel(context.Background(), domain.Hotel{Name: name, Address: name + " street", Tel: "01"})
	if err != nil {
		a.t.Fatalf("seed %s: %v", name, err)
	}
	return h.ID
}

func (a *api) book(hotelID string, who domain.Identity, nights int) (int, response) {
	a.t.Helper()
	return a.do(http.MethodPost, "/api/v1/hotels/"+hotelID+"/bookings", who,
		map[string]any{"bookingDate": "2025-05-01", "numOfNights": nights})
}

func idOf(t *testing.T, r response) string {
	t.Helper()
	var v struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(r.Data, &v); err != nil || v.ID == "" {
		t.Fatalf("no _id in %s: %v", r.Data, err)
	}
	return v.ID
}

func TestHealthz(t *testing.T) {
	a := newAPI(t, server.Options{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestHotelWrites_RequireAdmin(t *testing.T) {
	a := newAPI(t, server.Options{})
	body := map[string]string{"name": "Ritz", "address": "Paris", "tel": "01"}

	code, r := a.do(http.MethodPost, "/api/v1/hotels", domain.Identity{}, body)
	if code != http.StatusUnauthorized || r.Success || r.Message != "Not authorize to access this route" {
		t.Fatalf("anonymous: %d %+v", code, r)
	}
	code, r = a.do(http.MethodPost, "/api/v1/hotels", alice, body)
	if code != http.StatusForbidden || r.Message != "User role user is not authorized to access this route" {
		t.Fatalf("user: %d %+v", code, r)
	}

	code, r = a.do(http.MethodPost, "/api/v1/hotels", admin, body)
	if code != http.StatusCreated || !r.Success {
		t.Fatalf("admin: %d %+v", code, r)
	}
	code, r = a.do(http.MethodPost, "/api/v1/hotels", admin, body)
	if code != http.StatusBadRequest || !strings.Contains(r.Message, "Duplicate") {
		t.Fatalf("duplicate: %d %+v", code, r)
	}

	code, r = a.do(http.MethodPost, "/api/v1/hotels", admin, map[string]string{"name": strings.Repeat("x", 51)})
	if code != http.StatusBadRequest || !strings.Contains(r.Message, "Name can not be more than 50 characters") {
		t.Fatalf("invalid: %d %+v", code, r)
	}
}

func TestHotels_GetUpdate(t *testing.T) {
	a := newAPI(t, server.Options{})
	id := a.seedHotel("Ritz")

	code, r := a.do(http.MethodGet, "/api/v1/hotels/"+id, domain.Identity{}, nil)
	if code != http.StatusOK {
		t.Fatalf("get: %d %+v", code, r)
	}
	var h struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	_ = json.Unmarshal(r.Data, &h)
	if h.ID != id || h.Name != "Ritz" {
		t.Fatalf("unexpected hotel %s", r.Data)
	}

	code, r = a.do(http.MethodPut, "/api/v1/hotels/"+id, admin, map[string]string{"tel": "02"})
	if code != http.StatusOK || !strings.Contains(string(r.Data), `"tel":"02"`) {
		t.Fatalf("update: %d %s", code, r.Data)
	}
	// the cached copy was evicted by the update
	_, r = a.do(http.MethodGet, "/api/v1/hotels/"+id, domain.Identity{}, nil)
	if !strings.Contains(string(r.Data), `"tel":"02"`) {
		t.Fatalf("stale read after update: %s", r.Data)
	}

	code, r = a.do(http.MethodPut, "/api/v1/hotels/"+id, admin, map[string]string{"address": "  "})
	if code != http.StatusBadRequest || !strings.Contains(r.Message, "Please add an address") {
		t.Fatalf("invalid update: %d %+v", code, r)
	}

	code, r = a.do(http.MethodGet, "/api/v1/hotels/nope", domain.Identity{}, nil)
	if code != http.StatusBadRequest || r.Success || r.Message != "" {
		t.Fatalf("missing get: %d %+v", code, r)
	}
	code, _ = a.do(http.MethodPut, "/api/v1/hotels/nope", admin, map[string]string{"tel": "03"})
	if code != http.StatusBadRequest {
		t.Fatalf("missing update: %d", code)
	}
}

func TestHotels_ListSelectSortPage(t *testing.T) {
	a := newAPI(t, server.Options{})
	for i := 22; i >= 0; i-- {
		a.seedHotel(fmt.Sprintf("Hotel %02d", i))
	}

	code, r := a.do(http.MethodGet, "/api/v1/hotels?select=name,tel&sort=name&page=2&limit=10", domain.Identity{}, nil)
	if code != http.StatusOK || r.Count == nil || *r.Count != 10 {
		t.Fatalf("list: %d %+v", code, r)
	}
	var items []map[string]any
	if err := json.Unmarshal(r.Data, &items); err != nil {
		t.Fatalf("decode items: %v", err)
	}
	if items[0]["name"] != "Hotel 10" || items[9]["name"] != "Hotel 19" {
		t.Fatalf("wrong window: %v .. %v", items[0]["name"], items[9]["name"])
	}
	for _, it := range items {
		if _, ok := it["address"]; ok {
			t.Fatalf("address should be projected out: %v", it)
		}
		if it["_id"] == nil || it["id"] == nil || it["tel"] == nil {
			t.Fatalf("missing selected fields: %v", it)
		}
	}
	if string(r.Pagination["next"]) != `{"page":3,"limit":10}` || string(r.Pagination["prev"]) != `{"page":1,"limit":10}` {
		t.Fatalf("pagination: %v", r.Pagination)
	}

	_, r = a.do(http.MethodGet, "/api/v1/hotels?sort=name&page=3&limit=10", domain.Identity{}, nil)
	if *r.Count != 3 {
		t.Fatalf("last page count %d", *r.Count)
	}
	if _, ok := r.Pagination["next"]; ok {
		t.Fatalf("last page has next: %v", r.Pagination)
	}

	_, r = a.do(http.MethodGet, "/api/v1/hotels?name[in]=Hotel%2001,Hotel%2002", domain.Identity{}, nil)
	if *r.Count != 2 || len(r.Pagination) != 0 {
		t.Fatalf("in filter: %+v", r)
	}

	code, _ = a.do(http.MethodGet, "/api/v1/hotels?createdAt[gte]=yesterday", domain.Identity{}, nil)
	if code != http.StatusBadRequest {
		t.Fatalf("bad filter: %d", code)
	}
}

func TestHotels_ListFarPages(t *testing.T) {
	a := newAPI(t, server.Options{})
	for _, n := range []string{"A", "B", "C"} {
		a.seedHotel(n)
	}

	for _, q := range []string{
		"page=2&limit=9223372036854775807",
		"page=400000000000000000",
		"page=9223372036854775807&limit=9223372036854775807",
	} {
		code, r := a.do(http.MethodGet, "/api/v1/hotels?"+q, domain.Identity{}, nil)
		if code != http.StatusOK || r.Count == nil || *r.Count != 0 {
			t.Fatalf("%s: %d %+v", q, code, r)
		}
		if _, ok := r.Pagination["next"]; ok {
			t.Fatalf("%s: unexpected next %v", q, r.Pagination)
		}
		if _, ok := r.Pagination["prev"]; !ok {
			t.Fatalf("%s: missing prev %v", q, r.Pagination)
		}
	}

	_, r := a.do(http.MethodGet, "/api/v1/hotels?limit=9223372036854775807", domain.Identity{}, nil)
	if *r.Count != 3 || len(r.Pagination) != 0 {
		t.Fatalf("single huge page: %+v", r)
	}
}

func TestBookings_NightsCap(t *testing.T) {
	a := newAPI(t, server.Options{})
	id := a.seedHotel("Ritz")

	code, r := a.book(id, alice, 5)
	if code != http.StatusBadRequest || r.Message != "The user with ID alice cannot book more than 3 nights per booking" {
		t.Fatalf("user over cap: %d %+v", code, r)
	}
	code, _ = a.book(id, admin, 5)
	if code != http.StatusBadRequest {
		t.Fatalf("admin over cap: %d", code)
	}
	_, r = a.do(http.MethodGet, "/api/v1/bookings", admin, nil)
	if *r.Count != 0 {
		t.Fatalf("rejected bookings were stored: %s", r.Data)
	}

	code, r = a.book(id, alice, 3)
	if code != http.StatusOK || !r.Success {
		t.Fatalf("book: %d %+v", code, r)
	}
	bid := idOf(t, r)
	code, r = a.do(http.MethodPut, "/api/v1/bookings/"+bid, alice, map[string]any{"numOfNights": 4})
	if code != http.StatusBadRequest || r.Message != "Cannot update booking to more than 3 nights" {
		t.Fatalf("update over cap: %d %+v", code, r)
	}

	code, r = a.do(http.MethodPost, "/api/v1/hotels/"+id+"/bookings", alice, map[string]any{"bookingDate": "soon", "numOfNights": 1})
	if code != http.StatusBadRequest || !strings.Contains(r.Message, "Cast to date failed") {
		t.Fatalf("bad date: %d %+v", code, r)
	}
	code, r = a.book("missing", alice, 1)
	if code != http.StatusNotFound || r.Message != "No hotel with the id of missing" {
		t.Fatalf("missing hotel: %d %+v", code, r)
	}
}

func TestBookings_OwnershipAndScope(t *testing.T) {
	a := newAPI(t, server.Options{})
	ritz := a.seedHotel("Ritz")
	savoy := a.seedHotel("Savoy")

	_, r := a.book(ritz, alice, 2)
	mine := idOf(t, r)
	a.book(savoy, alice, 1)
	a.book(ritz, bob, 1)

	_, r = a.do(http.MethodGet, "/api/v1/bookings", alice, nil)
	if *r.Count != 2 {
		t.Fatalf("alice sees %d bookings", *r.Count)
	}
	if len(r.Pagination) != 0 {
		t.Fatalf("booking pagination should be empty: %v", r.Pagination)
	}
	_, r = a.do(http.MethodGet, "/api/v1/hotels/"+ritz+"/bookings", alice, nil)
	if *r.Count != 1 {
		t.Fatalf("alice sees %d ritz bookings", *r.Count)
	}
	_, r = a.do(http.MethodGet, "/api/v1/bookings", admin, nil)
	if *r.Count != 3 {
		t.Fatalf("admin sees %d bookings", *r.Count)
	}

	code, r := a.do(http.MethodGet, "/api/v1/bookings/"+mine, bob, nil)
	if code != http.StatusOK || !strings.Contains(string(r.Data), `"name":"Ritz"`) {
		t.Fatalf("get with expanded hotel: %d %s", code, r.Data)
	}

	code, r = a.do(http.MethodDelete, "/api/v1/bookings/"+mine, bob, nil)
	if code != http.StatusUnauthorized || r.Message != "User bob is not authorized to delete this booking" {
		t.Fatalf("foreign delete: %d %+v", code, r)
	}
	code, _ = a.do(http.MethodGet, "/api/v1/bookings/"+mine, alice, nil)
	if code != http.StatusOK {
		t.Fatalf("booking gone after rejected delete: %d", code)
	}
	code, _ = a.do(http.MethodPut, "/api/v1/bookings/"+mine, bob, map[string]any{"numOfNights": 1})
	if code != http.StatusUnauthorized {
		t.Fatalf("foreign update: %d", code)
	}

	code, r = a.do(http.MethodPut, "/api/v1/bookings/"+mine, admin, map[string]any{"numOfNights": 3})
	if code != http.StatusOK || !strings.Contains(string(r.Data), `"numOfNights":3`) {
		t.Fatalf("admin update: %d %s", code, r.Data)
	}
	code, r = a.do(http.MethodDelete, "/api/v1/bookings/"+mine, alice, nil)
	if code != http.StatusOK || string(r.Data) != "{}" {
		t.Fatalf("own delete: %d %s", code, r.Data)
	}
	code, r = a.do(http.MethodGet, "/api/v1/bookings/"+mine, alice, nil)
	if code != http.StatusNotFound || r.Message != "No booking with the id of "+mine {
		t.Fatalf("deleted booking: %d %+v", code, r)
	}

	code, _ = a.do(http.MethodGet, "/api/v1/bookings", domain.Identity{}, nil)
	if code != http.StatusUnauthorized {
		t.Fatalf("anonymous list: %d", code)
	}
}

func TestHotels_DeleteCascades(t *testing.T) {
	a := newAPI(t, server.Options{})
	ritz := a.seedHotel("Ritz")
	savoy := a.seedHotel("Savoy")
	a.book(ritz, alice, 1)
	a.book(ritz, bob, 2)
	a.book(savoy, bob, 1)

	code, r := a.do(http.MethodDelete, "/api/v1/hotels/"+ritz, admin, nil)
	if code != http.StatusOK || string(r.Data) != "{}" {
		t.Fatalf("delete: %d %+v", code, r)
	}
	_, r = a.do(http.MethodGet, "/api/v1/bookings", admin, nil)
	if *r.Count != 1 {
		t.Fatalf("bookings left: %d", *r.Count)
	}
	code, _ = a.do(http.MethodGet, "/api/v1/hotels/"+ritz, domain.Identity{}, nil)
	if code != http.StatusBadRequest {
		t.Fatalf("deleted hotel still readable: %d", code)
	}
	code, r = a.do(http.MethodDelete, "/api/v1/hotels/"+ritz, admin, nil)
	if code != http.StatusNotFound || r.Message != "Hotel not found with id of "+ritz {
		t.Fatalf("second delete: %d %+v", code, r)
	}
}

func TestRateLimit(t *testing.T) {
	a := newAPI(t, server.Options{RateLimit: 1, Burst: 1})

	code, _ := a.do(http.MethodGet, "/api/v1/hotels", domain.Identity{}, nil)
	if code != http.StatusOK {
		t.Fatalf("first request: %d", code)
	}
	code, r := a.do(http.MethodGet, "/api/v1/hotels", domain.Identity{}, nil)
	if code != http.StatusTooManyRequests || r.Success {
		t.Fatalf("second request: %d %+v", code, r)
	}
}

func TestRateLimit_IgnoresSpoofedForwardedFor(t *testing.T) {
	a := newAPI(t, server.Options{RateLimit: 1, Burst: 1})

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/hotels", nil)
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		rec := httptest.NewRecorder()
		a.h.ServeHTTP(rec, req)
		want := http.StatusOK
		if i > 0 {
			want = http.StatusTooManyRequests
		}
		if rec.Code != want {
			t.Fatalf("request %d: got %d, want %d", i, rec.Code, want)
		}
	}
}
