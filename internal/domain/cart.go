package domain

import "github.com/shopspring/decimal"

type CartItem struct {
	ID         string          `json:"id"`
	ProductID  string          `json:"product_id"`
	Product    Product         `json:"product"`
	Qty        int             `json:"qty"`
	Total      decimal.Decimal `json:"total"`
	FinalTotal decimal.Decimal `json:"final_total"`
}

// Cart is a server snapshot. Totals are computed by the server and never patched locally.
type Cart struct {
	Items      []CartItem      `json:"carts"`
	Total      decimal.Decimal `json:"total"`
	FinalTotal decimal.Decimal `json:"final_total"`
}

func (c Cart) Len() int {
	return len(c.Items)
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Item looks up a line by its cart item id.
func (c Cart) Item(id string) (CartItem, bool) {
	for _, item := range c.Items {
		if item.ID == id {
			return item, true
		}
	}
	return CartItem{}, false
}

// Clone returns a copy that shares no slices with c.
func (c Cart) Clone() Cart {
	out := Cart{Total: c.Total, FinalTotal: c.FinalTotal}
	if c.Items != nil {
		out.Items = make([]CartItem, len(c.Items))
		for i, item := range c.Items {
			out.Items[i] = item
			if item.Product.ImagesURL != nil {
				out.Items[i].Product.ImagesURL = append([]string(nil), item.Product.ImagesURL...)
			}
		}
	}
	return out
}

// Equal compares lines and totals by value; decimals are compared numerically.
func (c Cart) Equal(o Cart) bool {
	if len(c.Items) != len(o.Items) || !c.Total.Equal(o.Total) || !c.FinalTotal.Equal(o.FinalTotal) {
		return false
	}
	for i := range c.Items {
		a, b := c.Items[i], o.Items[i]
		if a.ID != b.ID || a.ProductID != b.ProductID || a.Qty != b.Qty ||
			!a.Total.Equal(b.Total) || !a.FinalTotal.Equal(b.FinalTotal) {
			return false
		}
	}
	return true
}
