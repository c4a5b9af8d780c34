package services

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"crous-x/models"
)

// NormalizeSearch lowercases and trims a search term or a searchable field.
// A Caser keeps state, so each call builds its own.
func NormalizeSearch(s string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}

// Filter returns the listings that satisfy every criterion: rent and size under
// the slider maximums, type inside the selection (or no selection), and the
// search term contained in the title or address. The input is never modified.
func Filter(listings []*models.Listing, criteria models.FilterCriteria) []*models.Listing {
	result := make([]*models.Listing, 0, len(listings))
	if len(listings) == 0 {
		return result
	}

	term := NormalizeSearch(criteria.SearchTerm)

	for _, item := range listings {
		if item == nil {
			continue
		}
		if matches(item, criteria, term) {
			result = append(result, item)
		}
	}
	return result
}

func matches(item *models.Listing, criteria models.FilterCriteria, term string) bool {
	if item.RentAmount > float64(criteria.MaxPrice) {
		return false
	}
	if item.SquareFootage > float64(criteria.MaxSize) {
		return false
	}
	if len(criteria.Types) > 0 && !criteria.HasType(item.PropertyType) {
		return false
	}
	if term == "" {
		return true
	}
	if strings.Contains(NormalizeSearch(item.Title), term) {
		return true
	}
	return item.Address != "" && strings.Contains(NormalizeSearch(item.Address), term)
}

// CountByType counts, per property type, the listings passing every criterion
// except the type restriction. These are the numbers shown next to the type
// toggles.
func CountByType(listings []*models.Listing, criteria models.FilterCriteria) map[models.PropertyType]int {
	open := criteria.Clone()
	open.Types = map[models.PropertyType]struct{}{}

	counts := make(map[models.PropertyType]int, len(models.PropertyTypes))
	for _, l := range Filter(listings, open) {
		counts[l.PropertyType]++
	}
	return counts
}
