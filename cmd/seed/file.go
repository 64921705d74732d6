package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"hotel_booking/internal/domain"
)

// seedFile is the YAML layout of a seed file:
//
//	hotels:
//	  - name: Ritz
//	    address: 15 Place Vendome, Paris
//	    tel: "+33 1 43 16 30 30"
type seedFile struct {
	Hotels []struct {
		Name    string `yaml:"name"`
		Address string `yaml:"address"`
		Tel     string `yaml:"tel"`
	} `yaml:"hotels"`
}

func loadHotels(path string) ([]domain.Hotel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var sf seedFile
	if err := yaml.NewDecoder(f).Decode(&sf); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	out := make([]domain.Hotel, 0, len(sf.Hotels))
	for _, h := range sf.Hotels {
		out = append(out, domain.Hotel{Name: h.Name, Address: h.Address, Tel: h.Tel})
	}
	return out, nil
}
