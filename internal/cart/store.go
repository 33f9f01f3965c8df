package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/verdantfoods/storefront/internal/catalog"
	"github.com/verdantfoods/storefront/internal/domain"
	"github.com/verdantfoods/storefront/internal/notify"
	"github.com/verdantfoods/storefront/internal/storage"
	"github.com/verdantfoods/storefront/internal/telemetry"
)

// Store owns the cart line collection, the checkout selection subset, and
// the derived read-only projections over them. All mutation and the single
// network synchronization go through it.
//
// Persisted truth is the line collection (product ID + quantity) plus the
// selection; everything displayable is re-derived from the catalog on each
// FetchCartItems call. The store is safe for concurrent use.
type Store struct {
	source   catalog.Source
	storage  storage.CartStorage
	notifier notify.Notifier
	logger   *slog.Logger
	metrics  *telemetry.CartMetrics // may be nil

	mu        sync.Mutex
	sessionID string
	lines     []domain.CartLine          // persisted source of truth, cart order
	items     map[string]domain.CartItem // enriched view, keyed by product ID
	selected  map[string]struct{}        // checkout selection, subset of line IDs
	fetchSeq  uint64                     // request token for the newest fetch
	syncErr   error                      // retryable flag from the last failed fetch
}

// NewStore creates a cart store. metrics may be nil when no registry is
// attached (tests, one-shot commands). Call Hydrate before first use.
func NewStore(source catalog.Source, store storage.CartStorage, notifier notify.Notifier, logger *slog.Logger, metrics *telemetry.CartMetrics) *Store {
	return &Store{
		source:   source,
		storage:  store,
		notifier: notifier,
		logger:   logger,
		metrics:  metrics,
		items:    make(map[string]domain.CartItem),
		selected: make(map[string]struct{}),
	}
}

// Hydrate initializes store state from durable storage. A missing snapshot
// starts an empty cart with a freshly minted session identity, which is
// written back immediately so the identity stays stable across restarts.
func (s *Store) Hydrate(ctx context.Context) error {
	snap, err := s.storage.Load(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrSnapshotNotFound) {
			return domain.Internal(err, "cart.hydrate", "failed to load cart from storage")
		}
		snap = &domain.CartSnapshot{SessionID: uuid.NewString()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessionID, s.lines, s.selected = restoreSnapshot(snap)
	if s.sessionID == "" {
		s.sessionID = uuid.NewString()
	}
	s.items = make(map[string]domain.CartItem)
	s.syncErr = nil

	s.persistLocked(ctx)
	return nil
}

// SessionID returns the persistent anonymous session identity.
func (s *Store) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// AddItem adds quantity units of the product to the cart, summing with any
// existing line. The product descriptor carries the live stock and
// minimum-order data the validation runs against.
//
// Both outcomes raise a user-visible notification. On failure the cart is
// left untouched and a coded domain error is returned.
func (s *Store) AddItem(ctx context.Context, product domain.Product, quantity int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		return s.rejectLocked(ctx, domain.ErrInvalidQuantity, "invalid")
	}

	existing := s.existingQuantityLocked(product.ID)

	// Compare against the remaining headroom rather than the sum, which can
	// wrap int32 for a huge requested quantity.
	if quantity > product.Stock-existing {
		return s.rejectLocked(ctx, domain.ErrInsufficientStock, "stock")
	}
	if existing == 0 && quantity < product.MinUnitToOrder {
		return s.rejectLocked(ctx, domain.ErrBelowMinimumOrder, "minimum_order")
	}

	total := existing + quantity
	if existing == 0 {
		s.lines = append(s.lines, domain.CartLine{ProductID: product.ID, Quantity: total})
	} else {
		for i := range s.lines {
			if s.lines[i].ProductID == product.ID {
				s.lines[i].Quantity = total
				break
			}
		}
	}
	s.items[product.ID] = enrich(product, total)

	s.persistLocked(ctx)
	if s.metrics != nil {
		s.metrics.ItemsAdded.WithLabelValues(product.ID).Inc()
	}
	s.notifier.Success(ctx, fmt.Sprintf("Added %s to your cart", product.Name))
	return nil
}

// UpdateQuantity sets the line's quantity to an absolute value. A target of
// zero or less removes the line. Unlike AddItem top-ups, the new absolute
// quantity must still satisfy the product's minimum order.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int32) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, productID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.existingQuantityLocked(productID) == 0 {
		return s.rejectLocked(ctx, domain.ErrLineNotFound, "not_found")
	}

	item, ok := s.items[productID]
	if !ok {
		// Stock and minimum order are unknown until a sync has run.
		return s.rejectLocked(ctx, domain.ErrProductNotFetched, "not_fetched")
	}

	if quantity < item.MinUnitToOrder {
		return s.rejectLocked(ctx, domain.ErrBelowMinimumOrder, "minimum_order")
	}
	if quantity > item.StockAvailable {
		return s.rejectLocked(ctx, domain.ErrInsufficientStock, "stock")
	}

	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			s.lines[i].Quantity = quantity
			break
		}
	}
	item.Quantity = quantity
	item.LineSubtotal = item.UnitPrice * int64(quantity)
	s.items[productID] = item

	s.persistLocked(ctx)
	return nil
}

// RemoveItem deletes the line, its enriched view, and any selection
// membership. Removing an unknown ID is a no-op.
func (s *Store) RemoveItem(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil
	}

	s.lines = append(s.lines[:idx], s.lines[idx+1:]...)
	delete(s.items, productID)
	delete(s.selected, productID)

	s.persistLocked(ctx)
	if s.metrics != nil {
		s.metrics.ItemsRemoved.Inc()
	}
	return nil
}

// ClearCart empties lines, enriched view, and selection unconditionally.
func (s *Store) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	s.items = make(map[string]domain.CartItem)
	s.selected = make(map[string]struct{})

	s.persistLocked(ctx)
	if s.metrics != nil {
		s.metrics.CartCleared.Inc()
	}
	return nil
}

// SetSelectedItems replaces the checkout selection with the given candidate
// IDs, keeping only those whose line exists and whose latest known stock
// covers the persisted quantity. Lines not yet enriched have unknown stock
// and are excluded.
func (s *Store) SetSelectedItems(ctx context.Context, productIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		if s.existingQuantityLocked(id) == 0 {
			continue
		}
		item, ok := s.items[id]
		if !ok || !item.Selectable() {
			continue
		}
		next[id] = struct{}{}
	}
	s.selected = next

	s.persistLocked(ctx)
}

// FetchCartItems synchronizes the enriched view against the catalog: one
// batched lookup for exactly the persisted product IDs. Quantity always
// comes from the persisted line; every display field comes from the fetch.
// Products the catalog no longer knows silently vanish from the enriched
// view but stay persisted.
//
// Calls are generation-guarded: if a newer fetch starts while this one is in
// flight, the older result is discarded instead of overwriting the newer
// one. On failure the retryable SyncError flag is set and in-memory data is
// left untouched.
func (s *Store) FetchCartItems(ctx context.Context) error {
	s.mu.Lock()
	if len(s.lines) == 0 {
		s.items = make(map[string]domain.CartItem)
		s.selected = make(map[string]struct{})
		s.syncErr = nil
		s.mu.Unlock()
		return nil
	}

	ids := make([]string, len(s.lines))
	for i, line := range s.lines {
		ids[i] = line.ProductID
	}
	s.fetchSeq++
	seq := s.fetchSeq
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.Fetches.Inc()
	}

	products, err := s.source.ProductsByIDs(ctx, ids)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.fetchSeq {
		// A newer fetch owns the next state; drop this result entirely.
		if s.metrics != nil {
			s.metrics.StaleDiscarded.Inc()
		}
		return nil
	}

	if err != nil {
		s.syncErr = domain.WrapError(err, domain.EUNAVAILABLE, "cart.fetch", "Failed to load your cart. Please try again.")
		if s.metrics != nil {
			s.metrics.FetchFailures.Inc()
		}
		telemetry.CaptureError(err, map[string]interface{}{"op": "cart.fetch", "items": len(ids)})
		s.logger.WarnContext(ctx, "cart sync failed", slog.Int("items", len(ids)), slog.Any("error", err))
		return s.syncErr
	}

	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make(map[string]domain.CartItem, len(s.lines))
	for _, line := range s.lines {
		p, ok := byID[line.ProductID]
		if !ok {
			continue // deleted server-side; line stays persisted, view drops it
		}
		items[line.ProductID] = enrich(p, line.Quantity)
	}
	s.items = items

	// Re-validate the selection against fresh stock.
	for id := range s.selected {
		item, ok := s.items[id]
		if !ok || !item.Selectable() {
			delete(s.selected, id)
		}
	}

	s.syncErr = nil
	if s.metrics != nil {
		s.metrics.CartValue.Observe(float64(s.subtotalLocked()))
	}

	s.persistLocked(ctx)
	return nil
}

// SyncError returns the retryable error recorded by the last failed fetch,
// or nil after a successful one. In-memory cart data remains valid while the
// flag is set; the UI is expected to offer a retry.
func (s *Store) SyncError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncErr
}

// ItemCount returns the sum of quantities across all persisted lines.
func (s *Store) ItemCount() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int32
	for _, line := range s.lines {
		total += line.Quantity
	}
	return total
}

// Subtotal returns the sum of unit price times quantity across the enriched
// view. Lines without enrichment contribute nothing.
func (s *Store) Subtotal() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subtotalLocked()
}

// Items returns the enriched lines in cart order.
func (s *Store) Items() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.CartItem, 0, len(s.items))
	for _, line := range s.lines {
		if item, ok := s.items[line.ProductID]; ok {
			out = append(out, item)
		}
	}
	return out
}

// Lines returns a copy of the persisted lines in cart order.
func (s *Store) Lines() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CartLine(nil), s.lines...)
}

// SelectedItems returns the enriched lines currently selected for checkout,
// in cart order.
func (s *Store) SelectedItems() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.CartItem, 0, len(s.selected))
	for _, line := range s.lines {
		if _, ok := s.selected[line.ProductID]; !ok {
			continue
		}
		if item, ok := s.items[line.ProductID]; ok {
			out = append(out, item)
		}
	}
	return out
}

// SelectedTotal returns the subtotal over the selected subset only.
func (s *Store) SelectedTotal() int64 {
	var total int64
	for _, item := range s.SelectedItems() {
		total += item.LineSubtotal
	}
	return total
}

// ExistingQuantity returns the persisted quantity for a product, or 0.
func (s *Store) ExistingQuantity(productID string) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.existingQuantityLocked(productID)
}

func (s *Store) existingQuantityLocked(productID string) int32 {
	for _, line := range s.lines {
		if line.ProductID == productID {
			return line.Quantity
		}
	}
	return 0
}

func (s *Store) subtotalLocked() int64 {
	var total int64
	for _, line := range s.lines {
		if item, ok := s.items[line.ProductID]; ok {
			total += item.LineSubtotal
		}
	}
	return total
}

// rejectLocked reports a validation failure without mutating state.
func (s *Store) rejectLocked(ctx context.Context, err error, reason string) error {
	if s.metrics != nil {
		s.metrics.AddsRejected.WithLabelValues(reason).Inc()
	}
	s.notifier.Error(ctx, domain.ErrorMessage(err))
	return err
}

// persistLocked writes the snapshot projection after a state change. Storage
// writes are assumed reliable; a failure is logged and reported but does not
// roll back the in-memory mutation.
func (s *Store) persistLocked(ctx context.Context) {
	snap := makeSnapshot(s.sessionID, s.lines, s.selected)
	if err := s.storage.Save(ctx, snap); err != nil {
		telemetry.CaptureError(err, map[string]interface{}{"op": "cart.persist"})
		s.logger.ErrorContext(ctx, "failed to persist cart snapshot", slog.Any("error", err))
	}
}

// enrich builds the derived view of one line from a live product record.
func enrich(p domain.Product, quantity int32) domain.CartItem {
	return domain.CartItem{
		ProductID:      p.ID,
		Quantity:       quantity,
		Name:           p.Name,
		UnitPrice:      p.UnitPrice(),
		ImageURL:       p.ThumbnailImage,
		Unit:           p.Unit,
		StockAvailable: p.Stock,
		MinUnitToOrder: p.MinUnitToOrder,
		LineSubtotal:   p.UnitPrice() * int64(quantity),
	}
}
