package services

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"crous-x/models"
	"crous-x/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate computes dataset statistics. Listings with a zero rent are left out
// of the price figures.
func (s *InsightService) Generate(listings []*models.Listing) *models.DatasetStats {
	stats := &models.DatasetStats{
		ByType:   make(map[models.PropertyType]int),
		LoadedAt: time.Now(),
	}

	if len(listings) == 0 {
		return stats
	}

	var priced []*models.Listing
	for _, l := range listings {
		if l == nil {
			continue
		}
		stats.TotalListings++
		stats.ByType[l.PropertyType]++
		if l.Mappable() {
			stats.MappableListings++
		}
		if l.Rated() {
			stats.RatedListings++
		}
		if l.SquareFootage > stats.MaxSize {
			stats.MaxSize = l.SquareFootage
		}
		if l.RentAmount > 0 {
			priced = append(priced, l)
		}
	}

	if len(priced) > 0 {
		stats.MinPrice = priced[0].RentAmount
		stats.MaxPrice = priced[0].RentAmount
		var total float64
		for _, l := range priced {
			total += l.RentAmount
			if l.RentAmount < stats.MinPrice {
				stats.MinPrice = l.RentAmount
			}
			if l.RentAmount > stats.MaxPrice {
				stats.MaxPrice = l.RentAmount
			}
		}
		stats.AverageRent = round2(total / float64(len(priced)))
		stats.MinPrice = round2(stats.MinPrice)
		stats.MaxPrice = round2(stats.MaxPrice)
	}

	s.logger.Debug("[insights] %d listings, %d mappable, %d rated", stats.TotalListings, stats.MappableListings, stats.RatedListings)
	return stats
}

// SliderCeiling rounds v up to the next multiple of step, so slider maximums
// derived from the data land on round values.
func SliderCeiling(v float64, step int) int {
	if step <= 0 {
		step = 1
	}
	if v <= 0 {
		return step
	}
	return int(math.Ceil(v/float64(step))) * step
}

// Print writes a human readable report to w.
func (s *InsightService) Print(w io.Writer, r *models.DatasetStats) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  CROUS-X LISTINGS\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Total listings    : \033[1m%d\033[0m\n", r.TotalListings)
	fmt.Fprintf(w, "  On the map        : \033[1m%d\033[0m\n", r.MappableListings)
	fmt.Fprintf(w, "  Rated             : \033[1m%d\033[0m\n", r.RatedListings)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Rent (per month)\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.AverageRent > 0 {
		fmt.Fprintf(w, "  Average : \033[1;32m%.2f €\033[0m\n", r.AverageRent)
		fmt.Fprintf(w, "  Minimum : \033[1;32m%.2f €\033[0m\n", r.MinPrice)
		fmt.Fprintf(w, "  Maximum : \033[1;32m%.2f €\033[0m\n", r.MaxPrice)
	} else {
		fmt.Fprintf(w, "  No rent data available\n")
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Listings by type\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	for _, t := range models.PropertyTypes {
		cnt := r.ByType[t]
		if cnt == 0 {
			continue
		}
		fmt.Fprintf(w, "  %-14s %s (%d)\n", t, strings.Repeat("█", cnt), cnt)
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
