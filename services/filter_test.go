package services

import (
	"testing"

	"crous-x/models"
)

func listing(id int64, title string, typ models.PropertyType, rent, size float64) *models.Listing {
	return &models.Listing{ID: id, Title: title, PropertyType: typ, RentAmount: rent, SquareFootage: size}
}

func criteria(maxPrice, maxSize int, search string, types ...models.PropertyType) models.FilterCriteria {
	c := models.NewFilterCriteria(maxPrice, maxSize)
	c.SearchTerm = search
	for _, t := range types {
		c.Types[t] = struct{}{}
	}
	return c
}

func TestFilterConjunction(t *testing.T) {
	l := listing(1, "Studio Jussieu", models.TypeStudio, 800, 25)
	l.Address = "4 place Jussieu, Paris"

	pass := criteria(1000, 30, "jussieu", models.TypeStudio)
	if got := Filter([]*models.Listing{l}, pass); len(got) != 1 {
		t.Fatalf("listing satisfying every predicate was filtered out")
	}

	tests := []struct {
		name string
		c    models.FilterCriteria
	}{
		{"price", criteria(799, 30, "jussieu", models.TypeStudio)},
		{"size", criteria(1000, 24, "jussieu", models.TypeStudio)},
		{"type", criteria(1000, 30, "jussieu", models.TypeHouse)},
		{"search", criteria(1000, 30, "montparnasse", models.TypeStudio)},
	}

	for _, tt := range tests {
		if got := Filter([]*models.Listing{l}, tt.c); len(got) != 0 {
			t.Errorf("%s predicate failing should remove the listing", tt.name)
		}
	}
}

func TestFilterBoundsAreInclusive(t *testing.T) {
	l := listing(1, "Edge", models.TypeStudio, 1000, 250)
	if got := Filter([]*models.Listing{l}, criteria(1000, 250, "")); len(got) != 1 {
		t.Error("rent == maxPrice and size == maxSize should pass")
	}
}

func TestFilterEmptyTypesMeansNoRestriction(t *testing.T) {
	all := []*models.Listing{
		listing(1, "A", models.TypeStudio, 100, 10),
		listing(2, "B", models.TypeHouse, 100, 10),
		listing(3, "C", models.TypeOther, 100, 10),
	}
	if got := Filter(all, criteria(1000, 100, "")); len(got) != 3 {
		t.Errorf("got %d listings, want 3", len(got))
	}
	if got := Filter(all, criteria(1000, 100, "", models.TypeHouse, models.TypeOther)); len(got) != 2 {
		t.Errorf("got %d listings, want 2", len(got))
	}
}

func TestFilterSearchNormalisation(t *testing.T) {
	l := listing(1, "Chambre à Montréal", models.TypeSharedRoom, 400, 12)

	for _, term := range []string{"  MONTRÉAL ", "chambre", "à mont", ""} {
		if got := Filter([]*models.Listing{l}, criteria(1000, 100, term)); len(got) != 1 {
			t.Errorf("search %q should match", term)
		}
	}
}

func TestFilterSearchMatchesAddress(t *testing.T) {
	l := listing(1, "Bright studio", models.TypeStudio, 500, 20)
	l.Address = "12 rue Mouffetard"
	if got := Filter([]*models.Listing{l}, criteria(1000, 100, "mouffetard")); len(got) != 1 {
		t.Error("search should match the address")
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	in := []*models.Listing{
		listing(1, "A", models.TypeStudio, 900, 10),
		listing(2, "B", models.TypeStudio, 100, 10),
	}
	before := *in[0]

	out := Filter(in, criteria(500, 100, ""))
	if len(in) != 2 || in[0].ID != 1 || in[1].ID != 2 {
		t.Error("input slice was modified")
	}
	if *in[0] != before {
		t.Error("listing record was modified")
	}
	if len(out) != 1 || out[0].ID != 2 {
		t.Errorf("unexpected result %+v", out)
	}
}

func TestFilterToleratesEmptyInput(t *testing.T) {
	if got := Filter(nil, criteria(1000, 100, "")); got == nil || len(got) != 0 {
		t.Errorf("nil input should give an empty, non-nil result; got %v", got)
	}
	if got := Filter([]*models.Listing{nil}, criteria(1000, 100, "")); len(got) != 0 {
		t.Errorf("nil records should be skipped; got %v", got)
	}
}

func TestFilterEmptyResultContract(t *testing.T) {
	all := []*models.Listing{
		listing(1, "A", models.TypeStudio, 300, 10),
		listing(2, "B", models.TypeHouse, 900, 80),
	}
	if got := Filter(all, criteria(0, 0, "")); len(got) != 0 {
		t.Errorf("maxPrice 0 with positive prices should filter everything, got %d", len(got))
	}
}

func TestCountByTypeIgnoresTypeSelection(t *testing.T) {
	all := []*models.Listing{
		listing(1, "A", models.TypeStudio, 300, 10),
		listing(2, "B", models.TypeStudio, 900, 10),
		listing(3, "C", models.TypeHouse, 300, 80),
	}
	counts := CountByType(all, criteria(500, 100, "", models.TypeHouse))
	if counts[models.TypeStudio] != 1 {
		t.Errorf("Studio count: got %d, want 1", counts[models.TypeStudio])
	}
	if counts[models.TypeHouse] != 1 {
		t.Errorf("House count: got %d, want 1", counts[models.TypeHouse])
	}
}
