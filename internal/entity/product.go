package entity

// Product represents a watch in the catalog.
type Product struct {
	ID              int               `json:"id"`
	Brand           string            `json:"brand"`
	Model           string            `json:"model"`
	Description     string            `json:"description"`
	Category        string            `json:"category"`
	Movement        string            `json:"movement"`
	CaseMaterial    string            `json:"caseMaterial"`
	BandMaterial    string            `json:"bandMaterial"`
	WaterResistance string            `json:"waterResistance"`
	Price           float64           `json:"price"`
	OriginalPrice   float64           `json:"originalPrice,omitempty"`
	CaseSize        float64           `json:"caseSize"`
	Images          []string          `json:"images"`
	BandOptions     []string          `json:"bandOptions"`
	Specifications  map[string]string `json:"specifications"`
	InStock         bool              `json:"inStock"`
	StockCount      int               `json:"stockCount"`
	Featured        bool              `json:"featured"`
}

// DisplayName is the "Brand Model" string used for name sorting and labels.
func (p Product) DisplayName() string {
	return p.Brand + " " + p.Model
}

// OnSale reports whether the product carries a markdown.
func (p Product) OnSale() bool {
	return p.OriginalPrice > p.Price
}

// CoverImage returns the first image URL, or "" when none is available.
func (p Product) CoverImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Clone returns an independent copy. Repositories hand out clones so callers
// can mutate results without touching repository-internal state.
func (p Product) Clone() Product {
	out := p
	if p.Images != nil {
		out.Images = append([]string(nil), p.Images...)
	}
	if p.BandOptions != nil {
		out.BandOptions = append([]string(nil), p.BandOptions...)
	}
	if p.Specifications != nil {
		out.Specifications = make(map[string]string, len(p.Specifications))
		for k, v := range p.Specifications {
			out.Specifications[k] = v
		}
	}
	return out
}

// CloneAll clones every product in the slice.
func CloneAll(products []Product) []Product {
	out := make([]Product, len(products))
	for i, p := range products {
		out[i] = p.Clone()
	}
	return out
}
