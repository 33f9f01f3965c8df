package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/verdantfoods/storefront/internal"
	"github.com/verdantfoods/storefront/internal/cart"
	"github.com/verdantfoods/storefront/internal/catalog"
	"github.com/verdantfoods/storefront/internal/domain"
	"github.com/verdantfoods/storefront/internal/notify"
	"github.com/verdantfoods/storefront/internal/storage"
	"github.com/verdantfoods/storefront/internal/telemetry"
)

const usage = `Usage: storefront <command> [args]

Commands:
  show                 Sync the cart against the catalog and print it
  add <id> <qty>       Add a product to the cart
  set <id> <qty>       Set a line's quantity (0 removes it)
  rm <id>              Remove a line
  clear                Empty the cart
  select <id> ...      Replace the checkout selection
  watch                Re-sync periodically; serves /metrics when METRICS_ADDR is set
`

func run() error {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("missing command")
	}
	cmd, args := os.Args[1], os.Args[2:]

	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stderr, cfg.Env, cfg.LogLevel)

	// Initialize error tracking
	cleanup, err := telemetry.InitSentry(cfg.Sentry, logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer cleanup()

	// Durable cart storage (local file or redis)
	store, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}

	client := catalog.NewClient(cfg.API.BaseURL, "", cfg.API.Timeout)
	notifier := notify.NewLogNotifier(logger)

	var metrics *telemetry.CartMetrics
	if cfg.Metrics.Addr != "" {
		metrics = telemetry.NewCartMetrics(prometheus.DefaultRegisterer, "storefront")
	}

	c := cart.NewStore(client, store, notifier, logger, metrics)
	if err := c.Hydrate(ctx); err != nil {
		return fmt.Errorf("cart hydration failed: %w", err)
	}
	client.SetSessionID(c.SessionID())

	switch cmd {
	case "show":
		return showCart(ctx, c)
	case "add":
		return addItem(ctx, c, client, args)
	case "set":
		return setQuantity(ctx, c, args)
	case "rm":
		if len(args) != 1 {
			return fmt.Errorf("usage: storefront rm <id>")
		}
		return c.RemoveItem(ctx, args[0])
	case "clear":
		return c.ClearCart(ctx)
	case "select":
		if err := c.FetchCartItems(ctx); err != nil {
			return err
		}
		c.SetSelectedItems(ctx, args)
		printCart(c)
		return nil
	case "watch":
		return watch(ctx, c, cfg, logger)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func showCart(ctx context.Context, c *cart.Store) error {
	if err := c.FetchCartItems(ctx); err != nil {
		return err
	}
	printCart(c)
	return nil
}

func addItem(ctx context.Context, c *cart.Store, client *catalog.Client, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: storefront add <id> <qty>")
	}
	qty, err := strconv.ParseInt(args[1], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid quantity %q", args[1])
	}

	products, err := client.ProductsByIDs(ctx, []string{args[0]})
	if err != nil {
		return err
	}
	if len(products) == 0 {
		return domain.NotFound("main.add", "product", args[0])
	}

	return c.AddItem(ctx, products[0], int32(qty))
}

func setQuantity(ctx context.Context, c *cart.Store, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: storefront set <id> <qty>")
	}
	qty, err := strconv.ParseInt(args[1], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid quantity %q", args[1])
	}

	// Quantities need live stock data to validate against.
	if err := c.FetchCartItems(ctx); err != nil {
		return err
	}
	return c.UpdateQuantity(ctx, args[0], int32(qty))
}

// watch re-syncs the cart on an interval so a long-lived terminal keeps
// showing current stock and pricing. With METRICS_ADDR set it also exposes
// the Prometheus endpoint.
func watch(ctx context.Context, c *cart.Store, cfg *internal.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			logger.Info("metrics listener started", slog.String("addr", cfg.Metrics.Addr))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics listener failed", slog.Any("error", err))
			}
		}()
		defer srv.Shutdown(context.Background())
	}

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		if err := c.FetchCartItems(ctx); err != nil {
			logger.Warn("sync failed, will retry", slog.Any("error", err))
		} else {
			printCart(c)
		}

		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		case <-ticker.C:
		}
	}
}

func printCart(c *cart.Store) {
	items := c.Items()
	if len(items) == 0 {
		fmt.Printf("Cart is empty (%d pending lines)\n", len(c.Lines()))
		return
	}

	selected := make(map[string]bool)
	for _, item := range c.SelectedItems() {
		selected[item.ProductID] = true
	}

	for _, item := range items {
		mark := " "
		if selected[item.ProductID] {
			mark = "*"
		}
		fmt.Printf("%s %-30s %4d %-6s x %8d = %10d (stock %d)\n",
			mark, item.Name, item.Quantity, item.Unit, item.UnitPrice, item.LineSubtotal, item.StockAvailable)
	}
	fmt.Printf("\nItems: %d  Subtotal: %d  Selected total: %d\n", c.ItemCount(), c.Subtotal(), c.SelectedTotal())
	if err := c.SyncError(); err != nil {
		fmt.Printf("Sync error: %s\n", domain.ErrorMessage(err))
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("storefront: %v", err)
	}
}
