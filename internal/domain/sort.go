package domain

import (
	"fmt"
	"sort"
)

// SortOption selects the ordering applied to a filtered product sequence.
type SortOption string

// Supported sort options.
const (
	SortFeatured     SortOption = "featured"
	SortPriceAsc     SortOption = "price-asc"
	SortPriceDesc    SortOption = "price-desc"
	SortNewest       SortOption = "newest"
	SortHighestRated SortOption = "highest-rated"
)

// ParseSortOption validates a sort option received from the presentation
// layer. Returns v unchanged if it is one of the supported options.
func ParseSortOption(v string) (SortOption, error) {
	switch SortOption(v) {
	case SortFeatured, SortPriceAsc, SortPriceDesc, SortNewest, SortHighestRated:
		return SortOption(v), nil
	}
	return "", fmt.Errorf("unknown sort option %q", v)
}

// SortProducts stably sorts ps in place according to opt.
//
// Two quirks are carried over from the original catalog on purpose and are
// pinned by tests: "featured" and "highest-rated" apply the identical
// rating-descending order, and "newest" orders by descending id string,
// which is not chronological because ids are random.
func SortProducts(ps []Product, opt SortOption) {
	switch opt {
	case SortPriceAsc:
		sort.SliceStable(ps, func(i, j int) bool {
			return ps[i].Price.LessThan(ps[j].Price)
		})
	case SortPriceDesc:
		sort.SliceStable(ps, func(i, j int) bool {
			return ps[j].Price.LessThan(ps[i].Price)
		})
	case SortNewest:
		sort.SliceStable(ps, func(i, j int) bool {
			return ps[i].ID.String() > ps[j].ID.String()
		})
	case SortFeatured, SortHighestRated:
		sort.SliceStable(ps, func(i, j int) bool {
			return ps[i].Rating > ps[j].Rating
		})
	}
}
