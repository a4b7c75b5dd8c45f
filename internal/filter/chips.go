package filter

import (
	"strconv"
	"strings"
)

// ActiveFilter describes one removable filter chip. Removed is the selection
// that results from removing just this value, so the view can apply it
// without recomputing deltas.
type ActiveFilter struct {
	Key     string    `json:"key"`
	Label   string    `json:"label"`
	Removed Selection `json:"removed"`
}

// ActiveFilters derives the chip descriptors for the current selection: one
// per selected brand, category and movement, plus a synthetic "Under $N"
// chip when the price ceiling has been narrowed.
func ActiveFilters(sel Selection) []ActiveFilter {
	var chips []ActiveFilter

	for _, brand := range sel.Brands {
		removed := sel
		removed.Brands = without(sel.Brands, brand)
		chips = append(chips, ActiveFilter{
			Key:     "brand-" + brand,
			Label:   brand,
			Removed: removed,
		})
	}
	for _, category := range sel.Categories {
		removed := sel
		removed.Categories = without(sel.Categories, category)
		chips = append(chips, ActiveFilter{
			Key:     "category-" + category,
			Label:   category,
			Removed: removed,
		})
	}
	for _, movement := range sel.Movements {
		removed := sel
		removed.Movements = without(sel.Movements, movement)
		chips = append(chips, ActiveFilter{
			Key:     "movement-" + movement,
			Label:   movement,
			Removed: removed,
		})
	}
	if sel.PriceRange[1] < PriceMax {
		removed := sel
		removed.PriceRange = [2]float64{PriceMin, PriceMax}
		chips = append(chips, ActiveFilter{
			Key:     "price-range",
			Label:   "Under $" + groupThousands(sel.PriceRange[1]),
			Removed: removed,
		})
	}
	return chips
}

func without(values []string, v string) []string {
	out := make([]string, 0, len(values))
	for _, s := range values {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}

// groupThousands formats 12500 as "12,500" to match the reference labels.
func groupThousands(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	intPart, frac := s, ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, frac = s[:dot], s[dot:]
	}
	n := len(intPart)
	if n <= 3 {
		return intPart + frac
	}
	var b []byte
	for i := 0; i < n; i++ {
		if i > 0 && (n-i)%3 == 0 {
			b = append(b, ',')
		}
		b = append(b, intPart[i])
	}
	return string(b) + frac
}
