package services

import (
	"testing"

	"crous-x/models"
)

func ids(listings []*models.Listing) []int64 {
	out := make([]int64, len(listings))
	for i, l := range listings {
		out[i] = l.ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func rated(id int64, rating float64) *models.Listing {
	l := listing(id, "L", models.TypeStudio, 100, 10)
	l.Rating = &rating
	return l
}

func TestSortNewDescendingID(t *testing.T) {
	in := []*models.Listing{
		listing(3, "C", models.TypeStudio, 1, 1),
		listing(0, "no id", models.TypeStudio, 1, 1),
		listing(10, "J", models.TypeStudio, 1, 1),
		listing(7, "G", models.TypeStudio, 1, 1),
	}
	got := ids(Sort(in, models.SortNew))
	want := []int64{10, 7, 3, 0}
	if !equalIDs(got, want) {
		t.Errorf("Sort(new) = %v; want %v", got, want)
	}
}

func TestSortPriceAscIsReverseOfDesc(t *testing.T) {
	in := []*models.Listing{
		listing(1, "A", models.TypeStudio, 650, 1),
		listing(2, "B", models.TypeStudio, 420, 1),
		listing(3, "C", models.TypeStudio, 1200, 1),
		listing(4, "D", models.TypeStudio, 880, 1),
	}
	asc := ids(Sort(in, models.SortPriceAsc))
	desc := ids(Sort(in, models.SortPriceDesc))

	if !equalIDs(asc, []int64{2, 1, 4, 3}) {
		t.Errorf("price-asc = %v", asc)
	}
	for i := range asc {
		if asc[i] != desc[len(desc)-1-i] {
			t.Fatalf("price-asc %v is not the reverse of price-desc %v", asc, desc)
		}
	}
}

func TestSortRatingUnratedAlwaysLast(t *testing.T) {
	in := []*models.Listing{
		listing(1, "unrated", models.TypeStudio, 1, 1),
		rated(2, 0),
		rated(3, 4.5),
		listing(4, "unrated too", models.TypeStudio, 1, 1),
		rated(5, 3),
	}
	got := ids(Sort(in, models.SortRating))
	want := []int64{3, 5, 2, 1, 4}
	if !equalIDs(got, want) {
		t.Errorf("Sort(rating) = %v; want %v", got, want)
	}
}

func TestSortIsStableOnTies(t *testing.T) {
	in := []*models.Listing{
		listing(1, "A", models.TypeStudio, 500, 1),
		listing(2, "B", models.TypeStudio, 500, 1),
		listing(3, "C", models.TypeStudio, 500, 1),
	}
	got := ids(Sort(in, models.SortPriceAsc))
	if !equalIDs(got, []int64{1, 2, 3}) {
		t.Errorf("ties should keep input order, got %v", got)
	}
}

func TestSortLeavesInputUntouched(t *testing.T) {
	in := []*models.Listing{
		listing(1, "A", models.TypeStudio, 1, 1),
		listing(2, "B", models.TypeStudio, 1, 1),
	}
	_ = Sort(in, models.SortNew)
	if !equalIDs(ids(in), []int64{1, 2}) {
		t.Errorf("input reordered: %v", ids(in))
	}
}

func TestSortUnknownKeyFallsBackToNew(t *testing.T) {
	in := []*models.Listing{
		listing(1, "A", models.TypeStudio, 1, 1),
		listing(2, "B", models.TypeStudio, 1, 1),
	}
	got := ids(Sort(in, models.SortKey("popular")))
	if !equalIDs(got, []int64{2, 1}) {
		t.Errorf("unknown key: got %v", got)
	}
}
