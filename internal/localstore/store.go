package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Keys used by the storefront. LegacyCart is only ever read.
const (
	KeyToken        = "token"
	KeyCart         = "cart"
	KeyLegacyCart   = "dhana_cart_v1"
	KeyFavourites   = "favourites"
	KeyAddressBook  = "address_book"
	KeyCheckoutCart = "checkout_cart"
	KeyAdmin        = "admin"
	KeyUserPincode  = "userPincode"
)

var ErrNotFound = errors.New("key not found")

// Store is a string key-value store. Remove of an absent key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

type namespaced struct {
	store  Store
	prefix string
}

// Namespaced returns a view of store whose keys are prefixed with ns + ":".
func Namespaced(store Store, ns string) Store {
	return &namespaced{store: store, prefix: ns + ":"}
}

func (n *namespaced) Get(ctx context.Context, key string) (string, error) {
	return n.store.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key, value string) error {
	return n.store.Set(ctx, n.prefix+key, value)
}

func (n *namespaced) Remove(ctx context.Context, key string) error {
	return n.store.Remove(ctx, n.prefix+key)
}

// LoadJSON decodes the value at key into dst and reports success. On false
// (missing key, read error, malformed content) callers fall back to their
// default; dst may have been partially written.
func LoadJSON(ctx context.Context, store Store, key string, dst any, logger *zap.Logger) bool {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false
	}
	if err != nil {
		logger.Warn("local storage read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		logger.Error("malformed local storage value, using default",
			zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func SaveJSON(ctx context.Context, store Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", key, err)
	}
	if err := store.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("save %s failed: %w", key, err)
	}
	return nil
}
