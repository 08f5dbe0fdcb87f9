package cart

import (
	"context"
	"slices"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/localstore"
	"go.uber.org/zap"
)

// Favourites is the shopper's list of favourite product ids.
type Favourites struct {
	mu     sync.Mutex
	store  localstore.Store
	logger *zap.Logger
}

func NewFavourites(store localstore.Store, logger *zap.Logger) *Favourites {
	return &Favourites{store: store, logger: logger}
}

func (f *Favourites) List(ctx context.Context) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load(ctx)
}

func (f *Favourites) IsFavourite(ctx context.Context, productID string) bool {
	return slices.Contains(f.List(ctx), productID)
}

// Toggle adds or removes productID and reports whether it is now a favourite.
func (f *Favourites) Toggle(ctx context.Context, productID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := f.load(ctx)
	added := false
	if i := slices.Index(ids, productID); i >= 0 {
		ids = slices.Delete(ids, i, i+1)
	} else {
		ids = append(ids, productID)
		added = true
	}
	if err := localstore.SaveJSON(ctx, f.store, localstore.KeyFavourites, ids); err != nil {
		return false, err
	}
	return added, nil
}

func (f *Favourites) load(ctx context.Context) []string {
	var ids []string
	if !localstore.LoadJSON(ctx, f.store, localstore.KeyFavourites, &ids, f.logger) {
		return []string{}
	}
	return ids
}
