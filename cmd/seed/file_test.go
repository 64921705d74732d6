package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadHotels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hotels.yaml")
	body := `hotels:
  - name: Ritz
    address: Paris
    tel: "01"
  - name: Savoy
    address: London
    tel: "02"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	hs, err := loadHotels(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(hs) != 2 || hs[1].Name != "Savoy" || hs[0].Tel != "01" {
		t.Fatalf("unexpected hotels: %+v", hs)
	}
}

func TestLoadHotels_Errors(t *testing.T) {
	if _, err := loadHotels(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	_ = os.WriteFile(path, []byte("hotels: [\n"), 0o600)
	if _, err := loadHotels(path); err == nil {
		t.Fatalf("expected decode error")
	}
}
