package domain

import "github.com/shopspring/decimal"

// Product is a catalog entry as served by the commerce API.
// Price is the special price and may be absent; OriginPrice is the list price.
type Product struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Category    string              `json:"category"`
	Description string              `json:"description"`
	Content     string              `json:"content"`
	ImageURL    string              `json:"imageUrl"`
	ImagesURL   []string            `json:"imagesUrl,omitempty"`
	Unit        string              `json:"unit"`
	Price       decimal.NullDecimal `json:"price"`
	OriginPrice decimal.Decimal     `json:"origin_price"`
	IsEnabled   int                 `json:"is_enabled"`
}

// SpecialPrice returns the discounted price when one is set and is below the origin price.
func (p Product) SpecialPrice() (decimal.Decimal, bool) {
	if !p.Price.Valid {
		return decimal.Zero, false
	}
	if !p.OriginPrice.IsZero() && p.Price.Decimal.GreaterThanOrEqual(p.OriginPrice) {
		return decimal.Zero, false
	}
	return p.Price.Decimal, true
}

// SellingPrice is what one unit costs: the special price if any, otherwise the origin price.
func (p Product) SellingPrice() decimal.Decimal {
	if price, ok := p.SpecialPrice(); ok {
		return price
	}
	return p.OriginPrice
}

type Pagination struct {
	TotalPages  int    `json:"total_pages"`
	CurrentPage int    `json:"current_page"`
	HasPre      bool   `json:"has_pre"`
	HasNext     bool   `json:"has_next"`
	Category    string `json:"category"`
}

type ProductPage struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}
