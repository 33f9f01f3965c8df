package cart

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verdantfoods/storefront/internal/catalog"
	"github.com/verdantfoods/storefront/internal/domain"
	"github.com/verdantfoods/storefront/internal/notify"
	"github.com/verdantfoods/storefront/internal/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dragonFruit() domain.Product {
	return domain.Product{
		ID:             "dragon-fruit",
		Name:           "Dragon Fruit",
		OriginalPrice:  65000,
		SellingPrice:   52000,
		Unit:           "kg",
		Stock:          10,
		MinUnitToOrder: 2,
	}
}

func mango() domain.Product {
	return domain.Product{
		ID:             "mango",
		Name:           "Cat Chu Mango",
		OriginalPrice:  40000,
		Unit:           "kg",
		Stock:          5,
		MinUnitToOrder: 1,
	}
}

type fixture struct {
	store    *Store
	source   *catalog.MockSource
	storage  *storage.Memory
	notifier *notify.MockNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		source:   &catalog.MockSource{},
		storage:  storage.NewMemory(),
		notifier: notify.NewMockNotifier(),
	}
	f.store = NewStore(f.source, f.storage, f.notifier, discardLogger(), nil)
	require.NoError(t, f.store.Hydrate(context.Background()))
	return f
}

// catalogWith configures the mock source to return the given products.
func (f *fixture) catalogWith(products ...domain.Product) {
	f.source.ProductsByIDsFunc = func(ctx context.Context, ids []string) ([]domain.Product, error) {
		want := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			want[id] = struct{}{}
		}
		var out []domain.Product
		for _, p := range products {
			if _, ok := want[p.ID]; ok {
				out = append(out, p)
			}
		}
		return out, nil
	}
}

func TestStore_AddItem_NewLine(t *testing.T) {
	tests := []struct {
		name     string
		quantity int32
		wantErr  error
	}{
		{"meets minimum and stock", 2, nil},
		{"exact stock", 10, nil},
		{"below minimum order", 1, domain.ErrBelowMinimumOrder},
		{"exceeds stock", 11, domain.ErrInsufficientStock},
		{"zero quantity", 0, domain.ErrInvalidQuantity},
		{"negative quantity", -3, domain.ErrInvalidQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			err := f.store.AddItem(context.Background(), dragonFruit(), tt.quantity)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				// Failed mutations leave the cart untouched.
				assert.Empty(t, f.store.Lines())
				assert.Zero(t, f.store.ItemCount())
				assert.Len(t, f.notifier.Errors, 1)
				assert.Empty(t, f.notifier.Successes)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.quantity, f.store.ExistingQuantity("dragon-fruit"))
			assert.Equal(t, []string{"Added Dragon Fruit to your cart"}, f.notifier.Successes)
		})
	}
}

func TestStore_AddItem_SumsQuantities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.AddItem(ctx, dragonFruit(), 4))
	require.NoError(t, f.store.AddItem(ctx, dragonFruit(), 3))

	lines := f.store.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, int32(7), lines[0].Quantity)
}

func TestStore_AddItem_TopUpBelowMinimumAllowed(t *testing.T) {
	// The minimum order applies only to brand-new lines; top-ups can be
	// any positive amount down to 1.
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.AddItem(ctx, dragonFruit(), 2))
	require.NoError(t, f.store.AddItem(ctx, dragonFruit(), 1))

	assert.Equal(t, int32(3), f.store.ExistingQuantity("dragon-fruit"))
}

func TestStore_AddItem_RejectsSumExceedingStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.AddItem(ctx, dragonFruit(), 8))
	err := f.store.AddItem(ctx, dragonFruit(), 3)

	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int32(8), f.store.ExistingQuantity("dragon-fruit"), "rejected add must not mutate")
}

func TestStore_AddItem_RejectsOverflowingQuantity(t *testing.T) {
	// A quantity near math.MaxInt32 must not wrap the stock comparison
	// negative and slip past the guard.
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.AddItem(ctx, dragonFruit(), 5))
	err := f.store.AddItem(ctx, dragonFruit(), math.MaxInt32-2)

	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int32(5), f.store.ExistingQuantity("dragon-fruit"), "rejected add must not mutate")
}

func TestStore_UpdateQuantity(t *testing.T) {
	ctx := context.Background()

	t.Run("zero delegates to remove", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.store.AddItem(ctx, dragonFruit(), 2))
		f.store.SetSelectedItems(ctx, []string{"dragon-fruit"})

		require.NoError(t, f.store.UpdateQuantity(ctx, "dragon-fruit", 0))

		assert.Empty(t, f.store.Lines())
		assert.Empty(t, f.store.SelectedItems())
	})

	t.Run("below minimum rejected", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.store.AddItem(ctx, dragonFruit(), 4))

		err := f.store.UpdateQuantity(ctx, "dragon-fruit", 1)

		require.ErrorIs(t, err, domain.ErrBelowMinimumOrder)
		assert.Equal(t, int32(4), f.store.ExistingQuantity("dragon-fruit"))
	})

	t.Run("above stock rejected", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.store.AddItem(ctx, dragonFruit(), 4))

		err := f.store.UpdateQuantity(ctx, "dragon-fruit", 11)

		require.ErrorIs(t, err, domain.ErrInsufficientStock)
		assert.Equal(t, int32(4), f.store.ExistingQuantity("dragon-fruit"))
	})

	t.Run("valid target updates both collections", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.store.AddItem(ctx, dragonFruit(), 4))

		require.NoError(t, f.store.UpdateQuantity(ctx, "dragon-fruit", 6))

		assert.Equal(t, int32(6), f.store.ExistingQuantity("dragon-fruit"))
		items := f.store.Items()
		require.Len(t, items, 1)
		assert.Equal(t, int32(6), items[0].Quantity)
		assert.Equal(t, int64(52000*6), items[0].LineSubtotal)
	})

	t.Run("valid target keeps selection", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.store.AddItem(ctx, dragonFruit(), 4))
		f.store.SetSelectedItems(ctx, []string{"dragon-fruit"})

		require.NoError(t, f.store.UpdateQuantity(ctx, "dragon-fruit", 6))

		selected := f.store.SelectedItems()
		require.Len(t, selected, 1)
		assert.Equal(t, int32(6), selected[0].Quantity)
	})

	t.Run("unknown line rejected", func(t *testing.T) {
		f := newFixture(t)
		err := f.store.UpdateQuantity(ctx, "nope", 3)
		require.ErrorIs(t, err, domain.ErrLineNotFound)
	})

	t.Run("unfetched line rejected", func(t *testing.T) {
		// Hydrated lines have no stock data until a sync runs.
		f := newFixture(t)
		require.NoError(t, f.storage.Save(ctx, &domain.CartSnapshot{
			SessionID: "s",
			Lines:     []domain.CartLine{{ProductID: "dragon-fruit", Quantity: 3}},
		}))
		require.NoError(t, f.store.Hydrate(ctx))

		err := f.store.UpdateQuantity(ctx, "dragon-fruit", 5)
		require.ErrorIs(t, err, domain.ErrProductNotFetched)
	})
}

func TestStore_RemoveItem_UnknownIsNoop(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.RemoveItem(context.Background(), "ghost"))
	assert.Empty(t, f.notifier.Errors)
}

func TestStore_ClearCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.AddItem(ctx, dragonFruit(), 2))
	require.NoError(t, f.store.AddItem(ctx, mango(), 1))
	f.store.SetSelectedItems(ctx, []string{"dragon-fruit", "mango"})

	require.NoError(t, f.store.ClearCart(ctx))

	assert.Empty(t, f.store.Lines())
	assert.Empty(t, f.store.Items())
	assert.Empty(t, f.store.SelectedItems())
	assert.Zero(t, f.store.Subtotal())
}

func TestStore_Subtotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.AddItem(ctx, dragonFruit(), 2)) // 52000 each
	require.NoError(t, f.store.AddItem(ctx, mango(), 3))       // 40000 each, no discount

	want := int64(52000*2 + 40000*3)
	assert.Equal(t, want, f.store.Subtotal())
	assert.Equal(t, want, f.store.Subtotal(), "repeated calls without mutation are stable")
	assert.Equal(t, int32(5), f.store.ItemCount())
}

func TestStore_SetSelectedItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.AddItem(ctx, dragonFruit(), 2))
	require.NoError(t, f.store.AddItem(ctx, mango(), 3))

	// A later sync reveals the mango stock collapsed below the cart quantity.
	f.catalogWith(dragonFruit(), domain.Product{
		ID: "mango", Name: "Cat Chu Mango", OriginalPrice: 40000, Unit: "kg",
		Stock: 1, MinUnitToOrder: 1,
	})
	require.NoError(t, f.store.FetchCartItems(ctx))

	f.store.SetSelectedItems(ctx, []string{"mango", "dragon-fruit", "ghost"})

	selected := f.store.SelectedItems()
	require.Len(t, selected, 1, "only lines with stock >= quantity are selectable")
	assert.Equal(t, "dragon-fruit", selected[0].ProductID)
	assert.Equal(t, int64(52000*2), f.store.SelectedTotal())
}

func TestStore_SetSelectedItems_Replaces(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.AddItem(ctx, dragonFruit(), 2))
	require.NoError(t, f.store.AddItem(ctx, mango(), 3))

	f.store.SetSelectedItems(ctx, []string{"dragon-fruit", "mango"})
	f.store.SetSelectedItems(ctx, []string{"mango"})

	selected := f.store.SelectedItems()
	require.Len(t, selected, 1, "selection is a full replace, not a union")
	assert.Equal(t, "mango", selected[0].ProductID)
}

func TestStore_SelectedItems_CartOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.AddItem(ctx, dragonFruit(), 2))
	require.NoError(t, f.store.AddItem(ctx, mango(), 3))

	// Candidate order does not matter; cart order wins.
	f.store.SetSelectedItems(ctx, []string{"mango", "dragon-fruit"})

	selected := f.store.SelectedItems()
	require.Len(t, selected, 2)
	assert.Equal(t, "dragon-fruit", selected[0].ProductID)
	assert.Equal(t, "mango", selected[1].ProductID)
}

func TestStore_FetchCartItems_EmptyCartSkipsNetwork(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.store.FetchCartItems(context.Background()))

	assert.Empty(t, f.source.Calls, "empty cart must not hit the catalog")
	assert.Empty(t, f.store.Items())
}

func TestStore_FetchCartItems_BatchesIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.AddItem(ctx, dragonFruit(), 2))
	require.NoError(t, f.store.AddItem(ctx, mango(), 3))
	f.catalogWith(dragonFruit(), mango())

	require.NoError(t, f.store.FetchCartItems(ctx))

	require.Len(t, f.source.Calls, 1, "one batched lookup, not N calls")
	assert.Equal(t, []string{"dragon-fruit", "mango"}, f.source.Calls[0])
}

func TestStore_FetchCartItems_DropsDeletedProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.AddItem(ctx, dragonFruit(), 2))
	require.NoError(t, f.store.AddItem(ctx, mango(), 3))

	// Mango vanished server-side.
	f.catalogWith(dragonFruit())
	require.NoError(t, f.store.FetchCartItems(ctx))

	items := f.store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "dragon-fruit", items[0].ProductID)

	// The persisted line survives; only the enriched view drops it.
	assert.Equal(t, int32(3), f.store.ExistingQuantity("mango"))
}

func TestStore_FetchCartItems_StockDropPrunesSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := domain.Product{
		ID: "x", Name: "Pomelo", OriginalPrice: 30000, Unit: "kg",
		Stock: 10, MinUnitToOrder: 1,
	}
	require.NoError(t, f.store.AddItem(ctx, p, 5))
	f.store.SetSelectedItems(ctx, []string{"x"})
	require.Len(t, f.store.SelectedItems(), 1)

	// Fresh fetch reveals stock dropped to 2.
	p.Stock = 2
	f.catalogWith(p)
	require.NoError(t, f.store.FetchCartItems(ctx))

	assert.Empty(t, f.store.SelectedItems(), "out-of-stock line exits the selection")
	assert.Equal(t, int32(5), f.store.ExistingQuantity("x"), "persisted quantity is not auto-clamped")

	items := f.store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, int32(2), items[0].StockAvailable)
}

func TestStore_FetchCartItems_FailureKeepsState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.AddItem(ctx, dragonFruit(), 2))
	before := f.store.Items()

	f.source.ProductsByIDsFunc = func(ctx context.Context, ids []string) ([]domain.Product, error) {
		return nil, domain.Unavailable(errors.New("connection refused"), "catalog.byids", "failed to reach the product catalog")
	}

	err := f.store.FetchCartItems(ctx)
	require.Error(t, err)
	assert.True(t, domain.IsRetryable(err))

	require.Error(t, f.store.SyncError())
	assert.Equal(t, before, f.store.Items(), "in-memory data is not wiped on fetch failure")

	// A retry with a healthy catalog clears the flag.
	f.catalogWith(dragonFruit())
	require.NoError(t, f.store.FetchCartItems(ctx))
	assert.NoError(t, f.store.SyncError())
}

func TestStore_FetchCartItems_StaleResultDiscarded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.AddItem(ctx, dragonFruit(), 2))

	entered := make(chan struct{})
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex

	stale := dragonFruit()
	stale.Stock = 99
	fresh := dragonFruit()
	fresh.Stock = 3

	f.source.ProductsByIDsFunc = func(ctx context.Context, ids []string) ([]domain.Product, error) {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()

		if first {
			close(entered)
			<-release
			return []domain.Product{stale}, nil
		}
		return []domain.Product{fresh}, nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = f.store.FetchCartItems(ctx) // slow early fetch
	}()
	<-entered

	require.NoError(t, f.store.FetchCartItems(ctx)) // fast later fetch
	close(release)
	wg.Wait()

	items := f.store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, int32(3), items[0].StockAvailable, "slow early result must not overwrite the later one")
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	logger := discardLogger()

	first := NewStore(&catalog.MockSource{}, mem, notify.NewMockNotifier(), logger, nil)
	require.NoError(t, first.Hydrate(ctx))
	require.NoError(t, first.AddItem(ctx, domain.Product{
		ID: "a", Name: "Guava", OriginalPrice: 25000, Stock: 50, MinUnitToOrder: 1,
	}, 3))
	require.NoError(t, first.AddItem(ctx, domain.Product{
		ID: "b", Name: "Papaya", OriginalPrice: 28000, Stock: 50, MinUnitToOrder: 1,
	}, 1))

	// A fresh store over the same storage sees the persisted lines before
	// any network fetch, but no enriched display data.
	second := NewStore(&catalog.MockSource{}, mem, notify.NewMockNotifier(), logger, nil)
	require.NoError(t, second.Hydrate(ctx))

	assert.Equal(t, int32(4), second.ItemCount())
	assert.Equal(t, first.SessionID(), second.SessionID())
	assert.Empty(t, second.Items(), "names and prices are never persisted")
	assert.Zero(t, second.Subtotal())
}

func TestStore_PersistsOnEveryMutation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := f.storage.Saves // Hydrate writes once
	require.NoError(t, f.store.AddItem(ctx, dragonFruit(), 2))
	require.NoError(t, f.store.UpdateQuantity(ctx, "dragon-fruit", 3))
	f.store.SetSelectedItems(ctx, []string{"dragon-fruit"})
	require.NoError(t, f.store.RemoveItem(ctx, "dragon-fruit"))
	require.NoError(t, f.store.ClearCart(ctx))

	assert.Equal(t, base+5, f.storage.Saves)
}
