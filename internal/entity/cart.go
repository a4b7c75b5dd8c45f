package entity

import (
	"github.com/shopspring/decimal"
)

// TaxRate is the fixed sales tax applied to the cart subtotal.
var TaxRate = decimal.NewFromFloat(0.08)

// DefaultQuantityCeiling bounds a line's quantity when the product's stock
// count is unknown at add time.
const DefaultQuantityCeiling = 10

// CartItem is one line in the cart, identified by (ProductID, SelectedBand).
// Price, Brand, Model and Images are snapshots taken at add time and may
// drift from the live product record.
type CartItem struct {
	ProductID    int      `json:"productId"`
	SelectedBand string   `json:"selectedBand"`
	Quantity     int      `json:"quantity"`
	MaxQuantity  int      `json:"maxQuantity"`
	Price        float64  `json:"price"`
	Brand        string   `json:"brand"`
	Model        string   `json:"model"`
	Images       []string `json:"images"`
}

// Cart holds the line items in insertion order plus derived totals.
// Subtotal, Tax and Total are never trusted from storage; they are
// recomputed after every mutation.
type Cart struct {
	Items    []CartItem `json:"items"`
	Subtotal float64    `json:"subtotal"`
	Tax      float64    `json:"tax"`
	Total    float64    `json:"total"`
}

// NewCart returns an empty cart with zero totals.
func NewCart() Cart {
	return Cart{Items: []CartItem{}}
}

func (c *Cart) findLine(productID int, band string) int {
	for i, item := range c.Items {
		if item.ProductID == productID && item.SelectedBand == band {
			return i
		}
	}
	return -1
}

// Add merges quantity into an existing line with the same identity key, or
// appends a new line snapshotting the product's price, brand, model and
// images. Quantity is clamped to the product's stock count, falling back to
// DefaultQuantityCeiling when the stock count is not known.
func (c *Cart) Add(p Product, quantity int, selectedBand string) {
	if quantity < 1 {
		quantity = 1
	}

	max := p.StockCount
	if max <= 0 {
		max = DefaultQuantityCeiling
	}

	if i := c.findLine(p.ID, selectedBand); i >= 0 {
		c.Items[i].Quantity += quantity
		if c.Items[i].Quantity > c.Items[i].MaxQuantity {
			c.Items[i].Quantity = c.Items[i].MaxQuantity
		}
	} else {
		if quantity > max {
			quantity = max
		}
		images := append([]string(nil), p.Images...)
		c.Items = append(c.Items, CartItem{
			ProductID:    p.ID,
			SelectedBand: selectedBand,
			Quantity:     quantity,
			MaxQuantity:  max,
			Price:        p.Price,
			Brand:        p.Brand,
			Model:        p.Model,
			Images:       images,
		})
	}
	c.RecomputeTotals()
}

// SetQuantity sets the quantity of the matching line, removing it when
// quantity drops to zero or below. It reports whether a matching line
// existed; when it did not, the cart is unchanged.
func (c *Cart) SetQuantity(productID, quantity int, selectedBand string) bool {
	i := c.findLine(productID, selectedBand)
	if i < 0 {
		return false
	}

	if quantity <= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	} else {
		if quantity > c.Items[i].MaxQuantity {
			quantity = c.Items[i].MaxQuantity
		}
		c.Items[i].Quantity = quantity
	}
	c.RecomputeTotals()
	return true
}

// Remove deletes the matching line if present. Removing an absent line is a
// no-op, not an error.
func (c *Cart) Remove(productID int, selectedBand string) {
	if i := c.findLine(productID, selectedBand); i >= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	}
	c.RecomputeTotals()
}

// Clear removes all lines.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.RecomputeTotals()
}

// RecomputeTotals derives subtotal, tax and total from the line items.
// Money math runs through decimals so repeated recomputation doesn't
// accumulate float drift; tax is rounded to cents.
func (c *Cart) RecomputeTotals() {
	subtotal := decimal.Zero
	for _, item := range c.Items {
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(line)
	}
	tax := subtotal.Mul(TaxRate).Round(2)

	c.Subtotal, _ = subtotal.Float64()
	c.Tax, _ = tax.Float64()
	c.Total, _ = subtotal.Add(tax).Float64()
}

// ItemCount is the sum of line quantities, used for the header badge.
func (c Cart) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// Clone returns an independent copy of the cart.
func (c Cart) Clone() Cart {
	out := c
	out.Items = make([]CartItem, len(c.Items))
	for i, item := range c.Items {
		out.Items[i] = item
		out.Items[i].Images = append([]string(nil), item.Images...)
	}
	return out
}
