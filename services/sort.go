package services

import (
	"sort"

	"crous-x/models"
)

// Sort returns a sorted copy of listings. Equal keys keep their input order.
// Unknown keys behave like models.SortNew.
func Sort(listings []*models.Listing, key models.SortKey) []*models.Listing {
	out := make([]*models.Listing, len(listings))
	copy(out, listings)

	var less func(a, b *models.Listing) bool
	switch key {
	case models.SortPriceAsc:
		less = func(a, b *models.Listing) bool { return rentOf(a) < rentOf(b) }
	case models.SortPriceDesc:
		less = func(a, b *models.Listing) bool { return rentOf(a) > rentOf(b) }
	case models.SortRating:
		less = byRating
	default:
		less = func(a, b *models.Listing) bool { return idOf(a) > idOf(b) }
	}

	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j])
	})
	return out
}

// byRating orders rated listings by descending rating; unrated ones go last
// whatever the rated values are, including 0.
func byRating(a, b *models.Listing) bool {
	switch {
	case a.Rated() && b.Rated():
		return *a.Rating > *b.Rating
	case a.Rated():
		return true
	default:
		return false
	}
}

func idOf(l *models.Listing) int64 {
	if l == nil {
		return 0
	}
	return l.ID
}

func rentOf(l *models.Listing) float64 {
	if l == nil {
		return 0
	}
	return l.RentAmount
}
