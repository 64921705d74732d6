package mysql

// -----------------------------------------------------------------------------
// HOTELS
// -----------------------------------------------------------------------------

const hotelColumns = "id, name, address, tel, created_at"

const insertHotelSQL = `
INSERT INTO hotels (name, address, tel, created_at)
VALUES (?, ?, ?, ?)
`

const updateHotelSQL = `
UPDATE hotels
SET name = ?, address = ?, tel = ?
WHERE id = ?
`

const getHotelSQL = `SELECT ` + hotelColumns + ` FROM hotels WHERE id = ?`

// Locks the parent row so no booking can be attached while the cascade runs.
const lockHotelSQL = `SELECT id FROM hotels WHERE id = ? FOR UPDATE`

const deleteHotelBookingsSQL = `DELETE FROM bookings WHERE hotel_id = ?`

const deleteHotelSQL = `DELETE FROM hotels WHERE id = ?`

// -----------------------------------------------------------------------------
// BOOKINGS
// -----------------------------------------------------------------------------

const bookingColumns = "b.id, b.booking_date, b.num_of_nights, b.user_id, b.hotel_id, b.created_at"

const insertBookingSQL = `
INSERT INTO bookings (booking_date, num_of_nights, user_id, hotel_id, created_at)
VALUES (?, ?, ?, ?, ?)
`

const updateBookingSQL = `
UPDATE bookings
SET booking_date = ?, num_of_nights = ?
WHERE id = ?
`

const deleteBookingSQL = `DELETE FROM bookings WHERE id = ?`

// Booking reads always expand the hotel reference.
const selectBookingsSQL = `
SELECT ` + bookingColumns + `, h.name, h.address, h.tel
FROM bookings b
JOIN hotels h ON h.id = b.hotel_id
`

const getBookingSQL = selectBookingsSQL + `WHERE b.id = ?`
