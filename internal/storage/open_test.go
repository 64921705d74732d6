package storage_test

import (
	"context"
	"errors"
	"testing"

	"hotel_booking/internal/domain"
	"hotel_booking/internal/shared"
	"hotel_booking/internal/storage"
)

func TestOpen_Memory(t *testing.T) {
	st, closeFn, err := storage.Open(context.Background(), shared.Config{StoreDriver: "memory"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer closeFn()

	h, err := st.CreateHotel(context.Background(), domain.Hotel{Name: "Ritz", Address: "Paris", Tel: "01"})
	if err != nil {
		t.Fatalf("create through instrumented store: %v", err)
	}
	if _, err := st.GetHotel(context.Background(), h.ID); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := st.GetHotel(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("errors must pass through unchanged, got %v", err)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, _, err := storage.Open(context.Background(), shared.Config{StoreDriver: "cassandra"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
