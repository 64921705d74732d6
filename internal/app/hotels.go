package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"hotel_booking/internal/domain"
	"hotel_booking/internal/query"
)

type HotelService struct {
	repo     domain.HotelRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

// NewHotelService wires the hotel use cases. A ttl under one second turns the
// read-through cache off, since both backends read a zero TTL as "keep forever".
func NewHotelService(r domain.HotelRepository, c domain.Cache, ttl time.Duration) *HotelService {
	if ttl < time.Second {
		c = nil
	}
	return &HotelService{repo: r, cache: c, cacheTTL: ttl}
}

func hotelKey(id string) string { return "hotel:" + id }

func (s *HotelService) List(ctx context.Context, spec query.Spec) (domain.HotelsPage, error) {
	return s.repo.ListHotels(ctx, spec)
}

// Get serves a single hotel, read-through the cache. Cache errors degrade to
// a store read.
//
// A Get that reads the store before a concurrent Update or Delete evicts, and
// sets after it, leaves the old hotel cached. The entry lives at most cacheTTL.
func (s *HotelService) Get(ctx context.Context, id string) (domain.Hotel, error) {
	key := hotelKey(id)
	var h domain.Hotel
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &h); ok {
			return h, nil
		}
	}
	h, err := s.repo.GetHotel(ctx, id)
	if err != nil {
		return domain.Hotel{}, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, h, int(s.cacheTTL.Seconds())); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache set failed")
		}
	}
	return h, nil
}

func (s *HotelService) Create(ctx context.Context, h domain.Hotel) (domain.Hotel, error) {
	h.ID = ""
	h.Normalize()
	if err := domain.ValidateHotel(h); err != nil {
		return domain.Hotel{}, err
	}
	return s.repo.CreateHotel(ctx, h)
}

// Update applies p to the stored hotel and re-runs validation before writing.
func (s *HotelService) Update(ctx context.Context, id string, p domain.HotelPatch) (domain.Hotel, error) {
	cur, err := s.repo.GetHotel(ctx, id)
	if err != nil {
		return domain.Hotel{}, err
	}
	next := p.Apply(cur)
	if err := domain.ValidateHotel(next); err != nil {
		return domain.Hotel{}, err
	}
	out, err := s.repo.UpdateHotel(ctx, next)
	if err != nil {
		return domain.Hotel{}, err
	}
	s.evict(ctx, id)
	return out, nil
}

// Delete removes the hotel and every booking that references it.
func (s *HotelService) Delete(ctx context.Context, id string) error {
	n, err := s.repo.DeleteHotel(ctx, id)
	if err != nil {
		return err
	}
	s.evict(ctx, id)
	log.Info().Str("hotel_id", id).Int64("bookings_removed", n).Msg("hotel deleted")
	return nil
}

func (s *HotelService) evict(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, hotelKey(id)); err != nil {
		log.Warn().Err(err).Str("hotel_id", id).Msg("cache evict failed")
	}
}
