package domain

// =============================================================================
// PRODUCT DOMAIN TYPES
// =============================================================================

// Product is the catalog's product record as returned by the remote store
// API. The client never persists these; stock and pricing are always
// re-fetched so stale values cannot survive a session.
type Product struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Origin             string   `json:"origin"`
	Description        string   `json:"description"`
	ThumbnailImage     string   `json:"thumbnailImage"`
	OriginalPrice      int64    `json:"originalPrice"`
	SellingPrice       int64    `json:"sellingPrice"`
	DiscountPercentage int32    `json:"discountPercentage"`
	Unit               string   `json:"unit"`
	Stock              int32    `json:"stock"`
	MinUnitToOrder     int32    `json:"minUnitToOrder"`
	CategoryName       string   `json:"categoryName"`
	Images             []string `json:"images"`
}

// UnitPrice returns the price a buyer pays per unit: the selling price when
// the product is discounted, otherwise the original price.
func (p Product) UnitPrice() int64 {
	if p.SellingPrice > 0 {
		return p.SellingPrice
	}
	return p.OriginalPrice
}

// InStock reports whether the product can be newly added to a cart at all.
func (p Product) InStock() bool {
	return p.Stock > 0 && p.Stock >= p.MinUnitToOrder
}
