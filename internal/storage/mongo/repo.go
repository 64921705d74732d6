// Package mongostore keeps hotels and bookings in MongoDB collections.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"hotel_booking/internal/domain"
	"hotel_booking/internal/query"
)

// Server error codes the store translates.
const (
	codeIllegalOperation   = 20
	codeNamespaceExists    = 48
	codeDocumentValidation = 121
)

type hotelDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Address   string             `bson:"address"`
	Tel       string             `bson:"tel"`
	CreatedAt time.Time          `bson:"createdAt"`

	// BookingWrites is bumped by every booking insert; see CreateBooking.
	BookingWrites int64 `bson:"bookingWrites,omitempty"`
}

func (d hotelDoc) toDomain() domain.Hotel {
	return domain.Hotel{
		ID: d.ID.Hex(), Name: d.Name, Address: d.Address, Tel: d.Tel, CreatedAt: d.CreatedAt.UTC(),
	}
}

type bookingDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	BookingDate time.Time          `bson:"bookingDate"`
	NumOfNights int                `bson:"numOfNights"`
	User        string             `bson:"user"`
	Hotel       primitive.ObjectID `bson:"hotel"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

func (d bookingDoc) toDomain() domain.Booking {
	return domain.Booking{
		ID:          d.ID.Hex(),
		BookingDate: d.BookingDate.UTC(),
		NumOfNights: d.NumOfNights,
		UserID:      d.User,
		HotelID:     d.Hotel.Hex(),
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

type Store struct {
	client   *mongo.Client
	hotels   *mongo.Collection
	bookings *mongo.Collection
	now      func() time.Time
}

// Connect dials uri, checks the connection and prepares collections and
// indexes in database dbName.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	s := New(client, dbName)
	if err := s.EnsureSchema(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	log.Info().Str("db", dbName).Msg("connected to MongoDB")
	return s, nil
}

func New(client *mongo.Client, dbName string) *Store {
	db := client.Database(dbName)
	return &Store{
		client:   client,
		hotels:   db.Collection("hotels"),
		bookings: db.Collection("bookings"),
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

func (s *Store) Close(ctx context.Context) error { return s.client.Disconnect(ctx) }

// bookingValidator mirrors the booking constraints at the collection level.
var bookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"bookingDate", "numOfNights", "user", "hotel", "createdAt"},
		"properties": bson.M{
			"bookingDate": bson.M{"bsonType": "date"},
			"numOfNights": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  domain.MaxNights,
			},
			"user":      bson.M{"bsonType": "string", "minLength": 1},
			"hotel":     bson.M{"bsonType": "objectId"},
			"createdAt": bson.M{"bsonType": "date"},
		},
	},
}

// EnsureSchema creates the validated bookings collection and the indexes.
// It is safe to run on every start.
func (s *Store) EnsureSchema(ctx context.Context) error {
	err := s.bookings.Database().CreateCollection(ctx, s.bookings.Name(),
		options.CreateCollection().SetValidator(bookingValidator))
	if err != nil && !hasCode(err, codeNamespaceExists) {
		return fmt.Errorf("create bookings collection: %w", err)
	}

	if _, err := s.hotels.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("hotel indexes: %w", err)
	}
	if _, err := s.bookings.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "hotel", Value: 1}}},
		{Keys: bson.D{{Key: "user", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("booking indexes: %w", err)
	}
	return nil
}

func hasCode(err error, code int) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorCode(code)
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrNotFound
	}
	return oid, nil
}

// ---- hotels ----

func (s *Store) ListHotels(ctx context.Context, spec query.Spec) (domain.HotelsPage, error) {
	filter, err := filterDoc(spec.Filter())
	if err != nil {
		return domain.HotelsPage{}, err
	}
	total, err := s.hotels.CountDocuments(ctx, filter)
	if err != nil {
		return domain.HotelsPage{}, fmt.Errorf("count hotels: %w", err)
	}

	page := spec.Page()
	opts := options.Find().
		SetSort(sortDoc(spec.Sort())).
		SetSkip(int64(page.Skip())).
		SetLimit(int64(page.Limit))
	if proj := projectionDoc(spec.Fields()); proj != nil {
		opts.SetProjection(proj)
	}

	cur, err := s.hotels.Find(ctx, filter, opts)
	if err != nil {
		return domain.HotelsPage{}, fmt.Errorf("list hotels: %w", err)
	}
	var docs []hotelDoc
	if err := cur.All(ctx, &docs); err != nil {
		return domain.HotelsPage{}, err
	}

	out := make([]domain.Hotel, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	if spec.Selects("bookings") && len(out) > 0 {
		if err := s.populateBookings(ctx, docs, out); err != nil {
			return domain.HotelsPage{}, err
		}
	}
	return domain.HotelsPage{Items: out, Total: total}, nil
}

func (s *Store) populateBookings(ctx context.Context, docs []hotelDoc, hs []domain.Hotel) error {
	ids := make([]primitive.ObjectID, 0, len(docs))
	idx := make(map[primitive.ObjectID]int, len(docs))
	for i, d := range docs {
		ids = append(ids, d.ID)
		idx[d.ID] = i
		hs[i].Bookings = []domain.Booking{}
	}

	cur, err := s.bookings.Find(ctx, bson.D{{Key: "hotel", Value: bson.D{{Key: "$in", Value: ids}}}},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return fmt.Errorf("populate bookings: %w", err)
	}
	var bs []bookingDoc
	if err := cur.All(ctx, &bs); err != nil {
		return err
	}
	for _, b := range bs {
		if i, ok := idx[b.Hotel]; ok {
			hs[i].Bookings = append(hs[i].Bookings, b.toDomain())
		}
	}
	return nil
}

func (s *Store) GetHotel(ctx context.Context, id string) (domain.Hotel, error) {
	oid, err := objectID(id)
	if err != nil {
		return domain.Hotel{}, err
	}
	var d hotelDoc
	if err := s.hotels.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Hotel{}, domain.ErrNotFound
		}
		return domain.Hotel{}, err
	}
	return d.toDomain(), nil
}

func (s *Store) CreateHotel(ctx context.Context, h domain.Hotel) (domain.Hotel, error) {
	d := hotelDoc{Name: h.Name, Address: h.Address, Tel: h.Tel, CreatedAt: s.now()}
	res, err := s.hotels.InsertOne(ctx, d)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Hotel{}, &domain.DuplicateError{Field: "name", Value: h.Name}
		}
		return domain.Hotel{}, err
	}
	d.ID, _ = res.InsertedID.(primitive.ObjectID)
	return d.toDomain(), nil
}

func (s *Store) UpdateHotel(ctx context.Context, h domain.Hotel) (domain.Hotel, error) {
	oid, err := objectID(h.ID)
	if err != nil {
		return domain.Hotel{}, err
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "name", Value: h.Name},
		{Key: "address", Value: h.Address},
		{Key: "tel", Value: h.Tel},
	}}}
	var d hotelDoc
	err = s.hotels.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: oid}}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&d)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return domain.Hotel{}, domain.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return domain.Hotel{}, &domain.DuplicateError{Field: "name", Value: h.Name}
	case err != nil:
		return domain.Hotel{}, err
	}
	return d.toDomain(), nil
}

// DeleteHotel removes the hotel's bookings and then the hotel inside one
// transaction. Standalone servers cannot run transactions; there the two
// deletes run in order without one.
func (s *Store) DeleteHotel(ctx context.Context, id string) (int64, error) {
	oid, err := objectID(id)
	if err != nil {
		return 0, err
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return 0, err
	}
	defer sess.EndSession(ctx)

	res, err := sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return s.cascade(sc, oid)
	})
	if hasCode(err, codeIllegalOperation) {
		log.Warn().Str("hotel_id", id).Msg("transactions unsupported; deleting hotel without one")
		return s.cascade(ctx, oid)
	}
	if err != nil {
		return 0, err
	}
	n, _ := res.(int64)
	return n, nil
}

func (s *Store) cascade(ctx context.Context, oid primitive.ObjectID) (int64, error) {
	if err := s.hotels.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	res, err := s.bookings.DeleteMany(ctx, bson.D{{Key: "hotel", Value: oid}})
	if err != nil {
		return 0, fmt.Errorf("delete bookings of hotel %s: %w", oid.Hex(), err)
	}
	if _, err := s.hotels.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}}); err != nil {
		return 0, fmt.Errorf("delete hotel %s: %w", oid.Hex(), err)
	}
	return res.DeletedCount, nil
}

// ---- bookings ----

func (s *Store) ListBookings(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, error) {
	filter := bson.D{}
	if f.UserID != "" {
		filter = append(filter, bson.E{Key: "user", Value: f.UserID})
	}
	if f.HotelID != "" {
		oid, err := objectID(f.HotelID)
		if err != nil {
			return []domain.Booking{}, nil
		}
		filter = append(filter, bson.E{Key: "hotel", Value: oid})
	}

	cur, err := s.bookings.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	var docs []bookingDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return s.expand(ctx, docs)
}

// expand resolves the hotel reference of every booking with one lookup.
func (s *Store) expand(ctx context.Context, docs []bookingDoc) ([]domain.Booking, error) {
	out := make([]domain.Booking, 0, len(docs))
	if len(docs) == 0 {
		return out, nil
	}
	seen := map[primitive.ObjectID]bool{}
	var ids []primitive.ObjectID
	for _, d := range docs {
		if !seen[d.Hotel] {
			seen[d.Hotel] = true
			ids = append(ids, d.Hotel)
		}
	}

	cur, err := s.hotels.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
	if err != nil {
		return nil, fmt.Errorf("expand hotels: %w", err)
	}
	var hs []hotelDoc
	if err := cur.All(ctx, &hs); err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]domain.HotelSummary, len(hs))
	for _, h := range hs {
		byID[h.ID] = h.toDomain().Summary()
	}

	for _, d := range docs {
		b := d.toDomain()
		if sum, ok := byID[d.Hotel]; ok {
			b.Hotel = &sum
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *Store) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	oid, err := objectID(id)
	if err != nil {
		return domain.Booking{}, err
	}
	var d bookingDoc
	if err := s.bookings.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Booking{}, domain.ErrNotFound
		}
		return domain.Booking{}, err
	}
	out, err := s.expand(ctx, []bookingDoc{d})
	if err != nil {
		return domain.Booking{}, err
	}
	return out[0], nil
}

// CreateBooking inserts b in a transaction that also bumps a counter on the
// hotel document. A concurrent DeleteHotel then write-conflicts on that
// document, so a booking is never committed against a deleted hotel.
// Standalone servers run the same two writes without a transaction.
func (s *Store) CreateBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	hotel, err := objectID(b.HotelID)
	if err != nil {
		return domain.Booking{}, err
	}
	d := bookingDoc{
		BookingDate: b.BookingDate.UTC(),
		NumOfNights: b.NumOfNights,
		User:        b.UserID,
		Hotel:       hotel,
		CreatedAt:   s.now(),
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return domain.Booking{}, err
	}
	defer sess.EndSession(ctx)

	res, err := sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return s.insertBooking(sc, d)
	})
	if hasCode(err, codeIllegalOperation) {
		log.Warn().Str("hotel_id", b.HotelID).Msg("transactions unsupported; booking without one")
		res, err = s.insertBooking(ctx, d)
	}
	if err != nil {
		return domain.Booking{}, err
	}
	out, _ := res.(bookingDoc)
	return out.toDomain(), nil
}

func (s *Store) insertBooking(ctx context.Context, d bookingDoc) (any, error) {
	touched, err := s.hotels.UpdateOne(ctx, bson.D{{Key: "_id", Value: d.Hotel}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "bookingWrites", Value: 1}}}})
	if err != nil {
		return nil, err
	}
	if touched.MatchedCount == 0 {
		return nil, domain.ErrNotFound
	}
	res, err := s.bookings.InsertOne(ctx, d)
	if err != nil {
		return nil, bookingWriteErr(err)
	}
	d.ID, _ = res.InsertedID.(primitive.ObjectID)
	return d, nil
}

func (s *Store) UpdateBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	oid, err := objectID(b.ID)
	if err != nil {
		return domain.Booking{}, err
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "bookingDate", Value: b.BookingDate.UTC()},
		{Key: "numOfNights", Value: b.NumOfNights},
	}}}
	var d bookingDoc
	err = s.bookings.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: oid}}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Booking{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Booking{}, bookingWriteErr(err)
	}
	return d.toDomain(), nil
}

func bookingWriteErr(err error) error {
	if hasCode(err, codeDocumentValidation) {
		return &domain.ValidationError{Entity: "Booking", Violations: []domain.Violation{
			{Field: "numOfNights", Message: "Can book up to 3 nights only"},
		}}
	}
	return err
}

func (s *Store) DeleteBooking(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.bookings.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
