package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	driver "github.com/go-sql-driver/mysql"

	"hotel_booking/internal/domain"
	"hotel_booking/internal/query"
)

// MySQL server error numbers the repo translates.
const (
	errDupEntry        = 1062
	errNoReferencedRow = 1452
	errCheckViolated   = 3819
)

type Repo struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Repo {
	return &Repo{db: db, now: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }}
}

// parseID maps an id that cannot exist in this store onto ErrNotFound.
func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, domain.ErrNotFound
	}
	return n, nil
}

func formatID(n int64) string { return strconv.FormatInt(n, 10) }

func mysqlErr(err error) (*driver.MySQLError, bool) {
	var me *driver.MySQLError
	ok := errors.As(err, &me)
	return me, ok
}

// ---- hotels ----

type scanner interface{ Scan(dest ...any) error }

func scanHotel(s scanner) (domain.Hotel, error) {
	var (
		h  domain.Hotel
		id int64
	)
	if err := s.Scan(&id, &h.Name, &h.Address, &h.Tel, &h.CreatedAt); err != nil {
		return domain.Hotel{}, err
	}
	h.ID = formatID(id)
	h.CreatedAt = h.CreatedAt.UTC()
	return h, nil
}

func (r *Repo) ListHotels(ctx context.Context, spec query.Spec) (domain.HotelsPage, error) {
	where, args, err := whereClause(spec.Filter())
	if err != nil {
		return domain.HotelsPage{}, err
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM hotels"+where, args...).Scan(&total); err != nil {
		return domain.HotelsPage{}, fmt.Errorf("count hotels: %w", err)
	}

	page := spec.Page()
	q := "SELECT " + hotelColumns + " FROM hotels" + where + orderClause(spec.Sort()) + " LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, q, append(args, page.Limit, page.Skip())...)
	if err != nil {
		return domain.HotelsPage{}, fmt.Errorf("list hotels: %w", err)
	}
	defer rows.Close()

	out := []domain.Hotel{}
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return domain.HotelsPage{}, err
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return domain.HotelsPage{}, err
	}

	if spec.Selects("bookings") && len(out) > 0 {
		if err := r.populateBookings(ctx, out); err != nil {
			return domain.HotelsPage{}, err
		}
	}
	return domain.HotelsPage{Items: out, Total: total}, nil
}

// populateBookings fills the bookings relation of every hotel with one query.
func (r *Repo) populateBookings(ctx context.Context, hs []domain.Hotel) error {
	marks := strings.TrimSuffix(strings.Repeat("?,", len(hs)), ",")
	args := make([]any, 0, len(hs))
	idx := make(map[string]int, len(hs))
	for i, h := range hs {
		n, _ := strconv.ParseInt(h.ID, 10, 64)
		args = append(args, n)
		idx[h.ID] = i
		hs[i].Bookings = []domain.Booking{}
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings b WHERE b.hotel_id IN ("+marks+") ORDER BY b.id", args...)
	if err != nil {
		return fmt.Errorf("populate bookings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		b, err := scanBooking(rows, false)
		if err != nil {
			return err
		}
		if i, ok := idx[b.HotelID]; ok {
			hs[i].Bookings = append(hs[i].Bookings, b)
		}
	}
	return rows.Err()
}

func (r *Repo) GetHotel(ctx context.Context, id string) (domain.Hotel, error) {
	n, err := parseID(id)
	if err != nil {
		return domain.Hotel{}, err
	}
	h, err := scanHotel(r.db.QueryRowContext(ctx, getHotelSQL, n))
	if err == sql.ErrNoRows {
		return domain.Hotel{}, domain.ErrNotFound
	}
	return h, err
}

func (r *Repo) CreateHotel(ctx context.Context, h domain.Hotel) (domain.Hotel, error) {
	h.CreatedAt = r.now()
	res, err := r.db.ExecContext(ctx, insertHotelSQL, h.Name, h.Address, h.Tel, h.CreatedAt)
	if err != nil {
		return domain.Hotel{}, hotelWriteErr(err, h.Name)
	}
	n, err := res.LastInsertId()
	if err != nil {
		return domain.Hotel{}, err
	}
	h.ID = formatID(n)
	h.Bookings = nil
	return h, nil
}

func (r *Repo) UpdateHotel(ctx context.Context, h domain.Hotel) (domain.Hotel, error) {
	n, err := parseID(h.ID)
	if err != nil {
		return domain.Hotel{}, err
	}
	// RowsAffected is zero for a no-op update, so existence is checked by the re-read.
	if _, err := r.db.ExecContext(ctx, updateHotelSQL, h.Name, h.Address, h.Tel, n); err != nil {
		return domain.Hotel{}, hotelWriteErr(err, h.Name)
	}
	return r.GetHotel(ctx, h.ID)
}

func hotelWriteErr(err error, name string) error {
	if me, ok := mysqlErr(err); ok && me.Number == errDupEntry {
		return &domain.DuplicateError{Field: "name", Value: name}
	}
	return err
}

// DeleteHotel runs the cascade in one transaction: lock the hotel row,
// remove its bookings, then remove the hotel.
func (r *Repo) DeleteHotel(ctx context.Context, id string) (int64, error) {
	n, err := parseID(id)
	if err != nil {
		return 0, err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var locked int64
	if err := tx.QueryRowContext(ctx, lockHotelSQL, n).Scan(&locked); err != nil {
		if err == sql.ErrNoRows {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	res, err := tx.ExecContext(ctx, deleteHotelBookingsSQL, n)
	if err != nil {
		return 0, fmt.Errorf("delete bookings of hotel %d: %w", n, err)
	}
	removed, _ := res.RowsAffected()
	if _, err := tx.ExecContext(ctx, deleteHotelSQL, n); err != nil {
		return 0, fmt.Errorf("delete hotel %d: %w", n, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return removed, nil
}

// ---- bookings ----

func scanBooking(s scanner, expanded bool) (domain.Booking, error) {
	var (
		b           domain.Booking
		id, hotelID int64
		sum         domain.HotelSummary
	)
	dest := []any{&id, &b.BookingDate, &b.NumOfNights, &b.UserID, &hotelID, &b.CreatedAt}
	if expanded {
		dest = append(dest, &sum.Name, &sum.Address, &sum.Tel)
	}
	if err := s.Scan(dest...); err != nil {
		return domain.Booking{}, err
	}
	b.ID = formatID(id)
	b.HotelID = formatID(hotelID)
	b.BookingDate = b.BookingDate.UTC()
	b.CreatedAt = b.CreatedAt.UTC()
	if expanded {
		sum.ID = b.HotelID
		b.Hotel = &sum
	}
	return b, nil
}

func (r *Repo) ListBookings(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, error) {
	var (
		conds []string
		args  []any
	)
	if f.UserID != "" {
		conds = append(conds, "b.user_id = ?")
		args = append(args, f.UserID)
	}
	if f.HotelID != "" {
		n, err := parseID(f.HotelID)
		if err != nil {
			return []domain.Booking{}, nil
		}
		conds = append(conds, "b.hotel_id = ?")
		args = append(args, n)
	}
	q := selectBookingsSQL
	if len(conds) > 0 {
		q += "WHERE " + strings.Join(conds, " AND ") + "\n"
	}
	q += "ORDER BY b.id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	out := []domain.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows, true)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repo) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	n, err := parseID(id)
	if err != nil {
		return domain.Booking{}, err
	}
	b, err := scanBooking(r.db.QueryRowContext(ctx, getBookingSQL, n), true)
	if err == sql.ErrNoRows {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, err
}

func (r *Repo) CreateBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	hotelID, err := parseID(b.HotelID)
	if err != nil {
		return domain.Booking{}, err
	}
	b.CreatedAt = r.now()
	b.BookingDate = b.BookingDate.UTC()
	res, err := r.db.ExecContext(ctx, insertBookingSQL, b.BookingDate, b.NumOfNights, b.UserID, hotelID, b.CreatedAt)
	if err != nil {
		return domain.Booking{}, bookingWriteErr(err)
	}
	n, err := res.LastInsertId()
	if err != nil {
		return domain.Booking{}, err
	}
	b.ID = formatID(n)
	b.Hotel = nil
	return b, nil
}

func (r *Repo) UpdateBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	n, err := parseID(b.ID)
	if err != nil {
		return domain.Booking{}, err
	}
	if _, err := r.db.ExecContext(ctx, updateBookingSQL, b.BookingDate.UTC(), b.NumOfNights, n); err != nil {
		return domain.Booking{}, bookingWriteErr(err)
	}
	out, err := r.GetBooking(ctx, b.ID)
	if err != nil {
		return domain.Booking{}, err
	}
	out.Hotel = nil
	return out, nil
}

func bookingWriteErr(err error) error {
	me, ok := mysqlErr(err)
	if !ok {
		return err
	}
	switch me.Number {
	case errNoReferencedRow:
		return domain.ErrNotFound
	case errCheckViolated:
		return &domain.ValidationError{Entity: "Booking", Violations: []domain.Violation{
			{Field: "numOfNights", Message: "Can book up to 3 nights only"},
		}}
	}
	return err
}

func (r *Repo) DeleteBooking(ctx context.Context, id string) error {
	n, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, deleteBookingSQL, n)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
