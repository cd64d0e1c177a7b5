package wishlist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kajal19803/dairyfrontend/internal/storage"
	"go.uber.org/zap"
)

func Key(profileID string) string {
	return "wishlist:" + profileID
}

// Wishlist is an ordered set of product ids, persisted wholesale on every
// toggle.
type Wishlist struct {
	mu  sync.RWMutex
	ids []string

	key   string
	store storage.Store
	log   *zap.Logger
}

// Load rehydrates the wishlist saved under key. Like carts, only a missing
// key or an unreadable payload starts empty.
func Load(ctx context.Context, key string, st storage.Store, log *zap.Logger) (*Wishlist, error) {
	if log == nil {
		log = zap.NewNop()
	}
	w := &Wishlist{key: key, store: st, log: log}

	var ids []string
	err := storage.LoadJSON(ctx, st, key, &ids)
	switch {
	case err == nil:
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			w.ids = append(w.ids, id)
		}
	case errors.Is(err, storage.ErrNotFound):
	case errors.Is(err, storage.ErrUnreadable):
		log.Warn("wishlist payload unreadable, starting empty", zap.String("key", key), zap.Error(err))
	default:
		return nil, fmt.Errorf("load wishlist %s: %w", key, err)
	}
	return w, nil
}

// Toggle adds productID when absent and removes it when present. It returns
// true when the product is on the wishlist afterwards.
func (w *Wishlist) Toggle(productID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	added := true
	if i := w.index(productID); i >= 0 {
		w.ids = append(w.ids[:i], w.ids[i+1:]...)
		added = false
	} else {
		w.ids = append(w.ids, productID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ids := w.ids
	if ids == nil {
		ids = []string{}
	}
	if err := storage.SaveJSON(ctx, w.store, w.key, ids); err != nil {
		w.log.Warn("wishlist persist failed", zap.String("key", w.key), zap.Error(err))
	}
	return added
}

func (w *Wishlist) Contains(productID string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.index(productID) >= 0
}

func (w *Wishlist) IDs() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]string{}, w.ids...)
}

func (w *Wishlist) index(productID string) int {
	for i, id := range w.ids {
		if id == productID {
			return i
		}
	}
	return -1
}
