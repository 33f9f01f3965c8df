package catalog

import (
	"context"

	"github.com/verdantfoods/storefront/internal/domain"
)

// MockSource is a test implementation of Source.
type MockSource struct {
	ProductsByIDsFunc func(ctx context.Context, ids []string) ([]domain.Product, error)
	ListProductsFunc  func(ctx context.Context, params ListParams) (*ProductPage, error)

	// Calls records the ID sets passed to ProductsByIDs.
	Calls [][]string
}

// ProductsByIDs delegates to the configured function or returns an empty result.
func (m *MockSource) ProductsByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	m.Calls = append(m.Calls, ids)
	if m.ProductsByIDsFunc != nil {
		return m.ProductsByIDsFunc(ctx, ids)
	}
	return nil, nil
}

// ListProducts delegates to the configured function or returns an empty page.
func (m *MockSource) ListProducts(ctx context.Context, params ListParams) (*ProductPage, error) {
	if m.ListProductsFunc != nil {
		return m.ListProductsFunc(ctx, params)
	}
	return &ProductPage{}, nil
}
