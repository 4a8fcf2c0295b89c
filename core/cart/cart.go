package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/irsalhamdi/coinspace/core/content"
	"github.com/irsalhamdi/coinspace/store"
)

const key = "coinspace_cart"

// ErrAlreadyInCart is a warning: the add was a no-op.
var ErrAlreadyInCart = errors.New("module is already in the cart")

// Cart holds the modules picked for purchase, unique by storage id.
type Cart struct {
	store store.Store
}

func New(s store.Store) *Cart {
	return &Cart{store: s}
}

func (c *Cart) Items(ctx context.Context) []content.Record {
	return store.GetJSON(ctx, c.store, key, []content.Record{})
}

func (c *Cart) Contains(ctx context.Context, storageID string) bool {
	for _, it := range c.Items(ctx) {
		if it.StorageID == storageID {
			return true
		}
	}
	return false
}

func (c *Cart) Add(ctx context.Context, rec content.Record) error {
	items := c.Items(ctx)
	for _, it := range items {
		if it.StorageID == rec.StorageID {
			return ErrAlreadyInCart
		}
	}

	items = append(items, rec)
	if err := store.SetJSON(ctx, c.store, key, items); err != nil {
		return fmt.Errorf("saving cart: %w", err)
	}
	return nil
}

// Remove drops the item with storageID. Removing an absent item is not an
// error.
func (c *Cart) Remove(ctx context.Context, storageID string) error {
	items := c.Items(ctx)
	kept := items[:0]
	for _, it := range items {
		if it.StorageID != storageID {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(items) {
		return nil
	}
	if err := store.SetJSON(ctx, c.store, key, kept); err != nil {
		return fmt.Errorf("saving cart: %w", err)
	}
	return nil
}

func (c *Cart) Clear(ctx context.Context) error {
	if err := c.store.Remove(ctx, key); err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}
	return nil
}

// Total sums the prices of paid items in SUI.
func (c *Cart) Total(ctx context.Context) decimal.Decimal {
	var mist uint64
	for _, it := range c.Items(ctx) {
		if it.Kind == content.Paid {
			mist += it.Price
		}
	}
	return content.Sui(mist)
}
