package services

import (
	"bytes"
	"strings"
	"testing"

	"crous-x/models"
)

func sampleListings() []*models.Listing {
	lat, lng := 48.85, 2.35
	r1, r2 := 4.9, 3.0
	return []*models.Listing{
		{ID: 1, Title: "Studio A", PropertyType: models.TypeStudio, RentAmount: 600, SquareFootage: 18, Rating: &r1, Latitude: &lat, Longitude: &lng},
		{ID: 2, Title: "Flat B", PropertyType: models.TypeApartment, RentAmount: 900, SquareFootage: 45},
		{ID: 3, Title: "Room C", PropertyType: models.TypeSharedRoom, RentAmount: 350, SquareFootage: 12, Rating: &r2},
		{ID: 4, Title: "House D", PropertyType: models.TypeHouse, RentAmount: 0, SquareFootage: 110},
	}
}

func TestInsightCounts(t *testing.T) {
	svc := NewInsightService(newTestLogger(t))
	r := svc.Generate(sampleListings())
	if r.TotalListings != 4 {
		t.Errorf("TotalListings: got %d, want 4", r.TotalListings)
	}
	if r.MappableListings != 1 {
		t.Errorf("MappableListings: got %d, want 1", r.MappableListings)
	}
	if r.RatedListings != 2 {
		t.Errorf("RatedListings: got %d, want 2", r.RatedListings)
	}
	if r.ByType[models.TypeStudio] != 1 || r.ByType[models.TypeHouse] != 1 {
		t.Errorf("ByType: got %v", r.ByType)
	}
}

func TestInsightPrices(t *testing.T) {
	svc := NewInsightService(newTestLogger(t))
	r := svc.Generate(sampleListings())
	if r.AverageRent != 616.67 {
		t.Errorf("AverageRent: got %.2f, want 616.67", r.AverageRent)
	}
	if r.MinPrice != 350 {
		t.Errorf("MinPrice: got %.2f, want 350", r.MinPrice)
	}
	if r.MaxPrice != 900 {
		t.Errorf("MaxPrice: got %.2f, want 900", r.MaxPrice)
	}
	if r.MaxSize != 110 {
		t.Errorf("MaxSize: got %.2f, want 110", r.MaxSize)
	}
}

func TestInsightEmptyInput(t *testing.T) {
	svc := NewInsightService(newTestLogger(t))
	r := svc.Generate(nil)
	if r.TotalListings != 0 {
		t.Errorf("expected 0 total listings for empty input")
	}
}

func TestSliderCeiling(t *testing.T) {
	tests := []struct {
		v    float64
		step int
		want int
	}{
		{900, 100, 900},
		{901, 100, 1000},
		{0, 50, 50},
		{17.5, 0, 18},
	}
	for _, tt := range tests {
		if got := SliderCeiling(tt.v, tt.step); got != tt.want {
			t.Errorf("SliderCeiling(%.1f, %d) = %d; want %d", tt.v, tt.step, got, tt.want)
		}
	}
}

func TestInsightPrint(t *testing.T) {
	svc := NewInsightService(newTestLogger(t))
	var buf bytes.Buffer
	svc.Print(&buf, svc.Generate(sampleListings()))
	out := buf.String()
	if !strings.Contains(out, "Total listings") || !strings.Contains(out, "Shared Room") {
		t.Errorf("report missing sections:\n%s", out)
	}
}
