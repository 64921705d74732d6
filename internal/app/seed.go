package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hotel_booking/internal/domain"
)

// SeedReport counts the outcome of a seed run.
type SeedReport struct {
	Created int64
	Skipped int64 // name already taken
	Failed  int64
}

// SeedService bulk-creates hotels through the HotelService, so seeded rows go
// through the same normalization and validation as API writes.
type SeedService struct {
	hotels  *HotelService
	workers int
}

func NewSeedService(h *HotelService, workers int) *SeedService {
	if workers < 1 {
		workers = 1
	}
	return &SeedService{hotels: h, workers: workers}
}

// Seed creates every hotel with at most s.workers creates in flight.
// Duplicates are skipped; other failures are logged and counted.
func (s *SeedService) Seed(ctx context.Context, hotels []domain.Hotel) (SeedReport, error) {
	var (
		rep SeedReport
		wg  sync.WaitGroup
	)
	sem := semaphore.NewWeighted(int64(s.workers))

	for _, h := range hotels {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return rep, err
		}

		wg.Add(1)
		go func(h domain.Hotel) {
			defer wg.Done()
			defer sem.Release(1)

			out, err := s.hotels.Create(ctx, h)
			switch {
			case errors.Is(err, domain.ErrDuplicate):
				atomic.AddInt64(&rep.Skipped, 1)
				log.Info().Str("name", h.Name).Msg("seed skipped: already exists")
			case err != nil:
				atomic.AddInt64(&rep.Failed, 1)
				log.Warn().Str("name", h.Name).Err(err).Msg("seed failed")
			default:
				atomic.AddInt64(&rep.Created, 1)
				log.Info().Str("id", out.ID).Str("name", out.Name).Msg("seed ok")
			}
		}(h)
	}

	wg.Wait()
	return rep, nil
}
