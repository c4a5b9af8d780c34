package services

import (
	"testing"

	"crous-x/models"
	"crous-x/utils"
)

func newTestLogger(t *testing.T) *utils.Logger { return utils.NewTestLogger(t) }

func i64(v int64) *int64     { return &v }
func f64(v float64) *float64 { return &v }
func str(v string) *string   { return &v }

func TestCleanerDropsMissingIDOrTitle(t *testing.T) {
	c := NewCleaner(newTestLogger(t))
	raw := []*models.RawListing{
		{Title: str("No id")},
		{ID: i64(2)},
		{ID: i64(3), Title: str("   ")},
		nil,
		{ID: i64(4), Title: str("Studio Jussieu")},
	}

	cleaned, dropped := c.Clean(raw)
	if len(cleaned) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(cleaned))
	}
	if dropped != 4 {
		t.Errorf("dropped: got %d, want 4", dropped)
	}
	if cleaned[0].ID != 4 {
		t.Errorf("kept id: got %d, want 4", cleaned[0].ID)
	}
}

func TestCleanerDeduplicatesID(t *testing.T) {
	c := NewCleaner(newTestLogger(t))
	raw := []*models.RawListing{
		{ID: i64(1), Title: str("A")},
		{ID: i64(1), Title: str("B")},
	}

	cleaned, _ := c.Clean(raw)
	if len(cleaned) != 1 {
		t.Errorf("expected 1 listing after deduplication, got %d", len(cleaned))
	}
	if cleaned[0].Title != "A" {
		t.Errorf("first occurrence should win, got %q", cleaned[0].Title)
	}
}

func TestCleanerParseType(t *testing.T) {
	c := NewCleaner(newTestLogger(t))

	tests := []struct {
		raw  *string
		want models.PropertyType
	}{
		{str("Studio"), models.TypeStudio},
		{str(" shared room "), models.TypeSharedRoom},
		{str("APARTMENT"), models.TypeApartment},
		{str("Castle"), models.TypeOther},
		{nil, models.TypeOther},
	}

	for _, tt := range tests {
		got := c.parseType(tt.raw)
		if got != tt.want {
			t.Errorf("parseType(%v) = %q; want %q", deref(tt.raw), got, tt.want)
		}
	}
}

func TestCleanerParseRating(t *testing.T) {
	c := NewCleaner(newTestLogger(t))

	tests := []struct {
		raw     *float64
		wantNil bool
		want    float64
	}{
		{f64(4.5), false, 4.5},
		{f64(0), false, 0},
		{f64(5), false, 5},
		{f64(6), true, 0},
		{f64(-1), true, 0},
		{nil, true, 0},
	}

	for _, tt := range tests {
		got := c.parseRating(1, tt.raw)
		if tt.wantNil {
			if got != nil {
				t.Errorf("parseRating(%v) = %v; want nil", tt.raw, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Errorf("parseRating(%v) = %v; want %.2f", *tt.raw, got, tt.want)
		}
	}
}

func TestCleanerCoordinatesComeInPairs(t *testing.T) {
	c := NewCleaner(newTestLogger(t))
	raw := []*models.RawListing{
		{ID: i64(1), Title: str("Both"), Latitude: f64(48.85), Longitude: f64(2.35)},
		{ID: i64(2), Title: str("Lat only"), Latitude: f64(48.85)},
		{ID: i64(3), Title: str("Out of range"), Latitude: f64(120), Longitude: f64(2.35)},
	}

	cleaned, _ := c.Clean(raw)
	if !cleaned[0].Mappable() {
		t.Error("listing 1 should be mappable")
	}
	for _, l := range cleaned[1:] {
		if l.Mappable() || l.Latitude != nil || l.Longitude != nil {
			t.Errorf("listing %d should have no coordinates", l.ID)
		}
	}
}

func TestCleanerNormalisesFields(t *testing.T) {
	c := NewCleaner(newTestLogger(t))
	raw := []*models.RawListing{{
		ID:            i64(9),
		Title:         str("  Cosy   studio\tnear  campus "),
		RentAmount:    f64(-20),
		SquareFootage: f64(18),
		Image:         str(" /img/9.jpg "),
		Address:       str(" 4 place   Jussieu "),
	}}

	cleaned, _ := c.Clean(raw)
	l := cleaned[0]
	if l.Title != "Cosy studio near campus" {
		t.Errorf("Title: got %q", l.Title)
	}
	if l.RentAmount != 0 {
		t.Errorf("negative rent should clamp to 0, got %.2f", l.RentAmount)
	}
	if l.Image != "/img/9.jpg" {
		t.Errorf("Image: got %q", l.Image)
	}
	if l.Address != "4 place Jussieu" {
		t.Errorf("Address: got %q", l.Address)
	}
}
