package catalog

import (
	"context"

	"github.com/verdantfoods/storefront/internal/domain"
)

// Source defines the interface for the remote product catalog.
// Implementations can use the store's REST API or any other backend.
type Source interface {
	// ProductsByIDs returns current product records for the given IDs in a
	// single batched lookup. Products that no longer exist are simply
	// absent from the result; that is not an error.
	ProductsByIDs(ctx context.Context, ids []string) ([]domain.Product, error)

	// ListProducts returns one page of the browsable catalog.
	ListProducts(ctx context.Context, params ListParams) (*ProductPage, error)
}

// ListParams are the pagination and filter parameters for catalog browsing.
type ListParams struct {
	Page         int
	Size         int
	Name         string
	Origin       string
	CategoryName string
	MinPrice     int64
	MaxPrice     int64
	Sort         string
}

// ProductPage is one page of catalog results with paging metadata.
type ProductPage struct {
	Content       []domain.Product
	Page          int
	Size          int
	TotalElements int64
	TotalPages    int
}
