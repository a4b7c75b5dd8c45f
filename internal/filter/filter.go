// Package filter implements the pure, stateless facet-filter engine for the
// watch catalog. It runs entirely over an in-memory product slice so pages
// can re-filter without a round trip once the catalog is loaded.
package filter

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/chronos-watches/storefront/internal/entity"
)

// SortOrder selects how filtered results are ordered.
type SortOrder string

const (
	SortRelevance SortOrder = "relevance"
	SortPriceLow  SortOrder = "price-low"
	SortPriceHigh SortOrder = "price-high"
	SortName      SortOrder = "name"
)

// Price range defaults. A ceiling below PriceMax counts as an active filter.
const (
	PriceMin float64 = 0
	PriceMax float64 = 50000
)

// Case size bucket labels. The boundaries at 38, 42 and 46 mm are inclusive
// on both adjoining buckets, so a 42 mm case matches "38-42mm" and "42-46mm".
const (
	CaseSizeUnder38 = "<38mm"
	CaseSize38to42  = "38-42mm"
	CaseSize42to46  = "42-46mm"
	CaseSizeOver46  = ">46mm"
)

// Selection is the facet-selection state driving one filtered view.
type Selection struct {
	Brands       []string   `json:"brands"`
	Categories   []string   `json:"categories"`
	Movements    []string   `json:"movements"`
	CaseSizes    []string   `json:"caseSizes"`
	PriceRange   [2]float64 `json:"priceRange"`
	SortBy       SortOrder  `json:"sortBy"`
	SearchQuery  string     `json:"searchQuery,omitempty"`
	FeaturedOnly bool       `json:"featuredOnly,omitempty"`
}

// DefaultSelection returns the selection state with no facets active.
func DefaultSelection() Selection {
	return Selection{
		PriceRange: [2]float64{PriceMin, PriceMax},
		SortBy:     SortRelevance,
	}
}

// SelectionFromQuery seeds a selection from URL query parameters. This is a
// one-way read at page entry; the view layer owns URL synchronisation.
func SelectionFromQuery(q url.Values) Selection {
	sel := DefaultSelection()
	if v := q.Get("brand"); v != "" {
		sel.Brands = []string{v}
	}
	if v := q.Get("category"); v != "" {
		sel.Categories = []string{v}
	}
	if v := q.Get("movement"); v != "" {
		sel.Movements = []string{v}
	}
	if v := q.Get("caseSize"); v != "" {
		sel.CaseSizes = []string{v}
	}
	if v := q.Get("search"); v != "" {
		sel.SearchQuery = v
	}
	sel.FeaturedOnly = q.Get("featured") == "true"
	if v := q.Get("minPrice"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			sel.PriceRange[0] = f
		}
	}
	if v := q.Get("maxPrice"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			sel.PriceRange[1] = f
		}
	}
	if v := q.Get("sort"); v != "" {
		switch SortOrder(v) {
		case SortPriceLow, SortPriceHigh, SortName, SortRelevance:
			sel.SortBy = SortOrder(v)
		}
	}
	return sel
}

// IsActive reports whether any facet narrows the result set. Sort order on
// its own is not an active filter.
func (s Selection) IsActive() bool {
	return len(s.Brands) > 0 ||
		len(s.Categories) > 0 ||
		len(s.Movements) > 0 ||
		len(s.CaseSizes) > 0 ||
		s.PriceRange[1] < PriceMax ||
		s.PriceRange[0] > PriceMin ||
		s.SearchQuery != "" ||
		s.FeaturedOnly
}

// Apply returns the products matching the selection, sorted per SortBy.
// Facets AND together; values within a facet OR. The input slice is never
// mutated and the result holds independent copies.
func Apply(sel Selection, products []entity.Product) []entity.Product {
	filtered := make([]entity.Product, 0, len(products))
	for _, p := range products {
		if matches(sel, p) {
			filtered = append(filtered, p.Clone())
		}
	}

	switch sel.SortBy {
	case SortPriceLow:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].Price < filtered[j].Price
		})
	case SortPriceHigh:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].Price > filtered[j].Price
		})
	case SortName:
		sort.SliceStable(filtered, func(i, j int) bool {
			return strings.ToLower(filtered[i].DisplayName()) < strings.ToLower(filtered[j].DisplayName())
		})
	default:
		// relevance keeps source order
	}
	return filtered
}

func matches(sel Selection, p entity.Product) bool {
	if len(sel.Brands) > 0 && !containsExact(sel.Brands, p.Brand) {
		return false
	}
	if len(sel.Categories) > 0 && !containsFold(sel.Categories, p.Category) {
		return false
	}
	if len(sel.Movements) > 0 && !containsFold(sel.Movements, p.Movement) {
		return false
	}
	if p.Price < sel.PriceRange[0] || p.Price > sel.PriceRange[1] {
		return false
	}
	if len(sel.CaseSizes) > 0 && !matchesAnyCaseSize(sel.CaseSizes, p.CaseSize) {
		return false
	}
	if sel.FeaturedOnly && !p.Featured {
		return false
	}
	if sel.SearchQuery != "" && !MatchesSearch(p, sel.SearchQuery) {
		return false
	}
	return true
}

func containsExact(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// containsFold matches when the product value contains any selected value,
// case-insensitively. "dive" selects "Dive Watches".
func containsFold(values []string, v string) bool {
	lv := strings.ToLower(v)
	for _, s := range values {
		if strings.Contains(lv, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

func matchesAnyCaseSize(buckets []string, size float64) bool {
	for _, b := range buckets {
		if MatchesCaseSize(size, b) {
			return true
		}
	}
	return false
}

// MatchesCaseSize reports whether a case size in millimetres falls into the
// named bucket. Unknown bucket labels match nothing.
func MatchesCaseSize(size float64, bucket string) bool {
	switch bucket {
	case CaseSizeUnder38:
		return size < 38
	case CaseSize38to42:
		return size >= 38 && size <= 42
	case CaseSize42to46:
		return size >= 42 && size <= 46
	case CaseSizeOver46:
		return size > 46
	default:
		return false
	}
}

// MatchesSearch is the free-text predicate: a case-insensitive substring
// match against brand, model or description. An empty query matches
// everything.
func MatchesSearch(p entity.Product, query string) bool {
	term := strings.ToLower(query)
	return strings.Contains(strings.ToLower(p.Brand), term) ||
		strings.Contains(strings.ToLower(p.Model), term) ||
		strings.Contains(strings.ToLower(p.Description), term)
}
