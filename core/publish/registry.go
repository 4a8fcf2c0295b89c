package publish

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/irsalhamdi/coinspace/core/content"
	"github.com/irsalhamdi/coinspace/store"
)

const (
	mintedKey        = "minted_storage_ids"
	recordsKeyPrefix = "minted_records:"
)

// Registry remembers what this client has minted. It is local only: content
// minted from another machine is not known here.
type Registry struct {
	store store.Store
}

func NewRegistry(s store.Store) *Registry {
	return &Registry{store: s}
}

func (r *Registry) Minted(ctx context.Context, storageID string) bool {
	ids := store.GetJSON(ctx, r.store, mintedKey, []string(nil))
	return slices.Contains(ids, storageID)
}

// Add marks rec's storage id as minted and caches rec under its owner.
func (r *Registry) Add(ctx context.Context, rec content.Record) error {
	ids := store.GetJSON(ctx, r.store, mintedKey, []string(nil))
	if !slices.Contains(ids, rec.StorageID) {
		ids = append(ids, rec.StorageID)
		if err := store.SetJSON(ctx, r.store, mintedKey, ids); err != nil {
			return fmt.Errorf("saving minted ids: %w", err)
		}
	}

	key := recordsKey(rec.Owner)
	recs := store.GetJSON(ctx, r.store, key, []content.Record(nil))
	recs = append(recs, rec)
	if err := store.SetJSON(ctx, r.store, key, recs); err != nil {
		return fmt.Errorf("saving records of owner[%s]: %w", rec.Owner, err)
	}
	return nil
}

// Library lists the records minted by owner, oldest first.
func (r *Registry) Library(ctx context.Context, owner string) []content.Record {
	return store.GetJSON(ctx, r.store, recordsKey(owner), []content.Record{})
}

func recordsKey(owner string) string {
	return recordsKeyPrefix + strings.ToLower(owner)
}
