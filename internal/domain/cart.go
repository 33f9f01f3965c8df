package domain

// =============================================================================
// CART DOMAIN ERRORS
// =============================================================================

var (
	ErrLineNotFound      = &Error{Code: ENOTFOUND, Message: "Item is not in the cart"}
	ErrInvalidQuantity   = &Error{Code: EINVALID, Message: "Quantity must be greater than 0"}
	ErrInsufficientStock = &Error{Code: ECONFLICT, Message: "Not enough stock for the requested quantity"}
	ErrBelowMinimumOrder = &Error{Code: EINVALID, Message: "Quantity is below the minimum order for this product"}
	ErrProductNotFetched = &Error{Code: EUNAVAILABLE, Message: "Product details have not been loaded yet"}
)

// CartLine is one product's entry in the cart: the persisted source of truth
// for how many units the buyer wants. Nothing else is persisted per line;
// name, price and stock are always rebuilt from the catalog.
type CartLine struct {
	ProductID string `json:"productId"`
	Quantity  int32  `json:"quantity"`
}

// CartItem is a cart line enriched with live catalog data. It is derived on
// every sync and never stored.
type CartItem struct {
	ProductID      string
	Quantity       int32
	Name           string
	UnitPrice      int64
	ImageURL       string // empty when the product has no thumbnail
	Unit           string
	StockAvailable int32
	MinUnitToOrder int32
	LineSubtotal   int64
}

// Selectable reports whether the line may participate in checkout selection:
// the latest known stock must cover the persisted quantity.
func (i CartItem) Selectable() bool {
	return i.StockAvailable >= i.Quantity
}

// CartSnapshot is the minimal projection of cart state written to durable
// client-local storage. This is the whole persistence contract: lines,
// the checkout selection, and the anonymous session identity.
type CartSnapshot struct {
	SessionID   string     `json:"sessionId"`
	Lines       []CartLine `json:"lines"`
	SelectedIDs []string   `json:"selectedIds"`
}
