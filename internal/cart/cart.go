// Package cart holds the per-profile shopping cart. Every mutation writes
// the whole line collection back to the storage substrate.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kajal19803/dairyfrontend/internal/domain"
	"github.com/kajal19803/dairyfrontend/internal/storage"
	"go.uber.org/zap"
)

const persistTimeout = time.Second

func Key(profileID string) string {
	return "cart:" + profileID
}

type Store struct {
	mu    sync.RWMutex
	lines []domain.CartLine

	key   string
	store storage.Store
	log   *zap.Logger
}

// New returns an empty cart that persists under key.
func New(key string, st storage.Store, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		key:   key,
		store: st,
		log:   log,
	}
}

// Load rehydrates the cart saved under key. A missing key yields an empty
// cart; so does an unreadable payload, after logging it. Any other storage
// failure is returned, since starting empty would overwrite the saved cart
// on the next mutation.
func Load(ctx context.Context, key string, st storage.Store, log *zap.Logger) (*Store, error) {
	s := New(key, st, log)

	var lines []domain.CartLine
	err := storage.LoadJSON(ctx, st, key, &lines)
	switch {
	case err == nil:
		s.lines = normalize(lines)
	case errors.Is(err, storage.ErrNotFound):
	case errors.Is(err, storage.ErrUnreadable):
		s.log.Warn("cart payload unreadable, starting empty", zap.String("key", key), zap.Error(err))
	default:
		return nil, fmt.Errorf("load cart %s: %w", key, err)
	}
	return s, nil
}

// normalize merges duplicate product ids and lifts quantities below 1.
func normalize(lines []domain.CartLine) []domain.CartLine {
	out := make([]domain.CartLine, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, line := range lines {
		if line.Quantity < 1 {
			line.Quantity = 1
		}
		if i, ok := index[line.ProductID]; ok {
			out[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(out)
		out = append(out, line)
	}
	return out
}

// AddItem increments the line for p.ID, or appends a new line with
// quantity 1. It returns the resulting quantity.
func (s *Store) AddItem(p domain.Product) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.find(p.ID); i >= 0 {
		s.lines[i].Quantity++
		s.persist()
		return s.lines[i].Quantity
	}

	s.lines = append(s.lines, domain.CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Image:     p.Image,
		Quantity:  1,
	})
	s.persist()
	return 1
}

// RemoveItem deletes the line for productID and reports whether it existed.
func (s *Store) RemoveItem(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(productID)
	if i >= 0 {
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
	}
	s.persist()
	return i >= 0
}

// UpdateQuantity sets the quantity of an existing line. Quantities below 1
// are ignored; removal goes through RemoveItem. It reports whether the line
// was changed.
func (s *Store) UpdateQuantity(productID string, quantity int) bool {
	if quantity < 1 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(productID)
	if i >= 0 {
		s.lines[i].Quantity = quantity
	}
	s.persist()
	return i >= 0
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	s.persist()
}

func (s *Store) Quantity(productID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.find(productID); i >= 0 {
		return s.lines[i].Quantity
	}
	return 0
}

func (s *Store) TotalPrice() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total float64
	for _, line := range s.lines {
		total += line.Subtotal()
	}
	return total
}

// Count is the number of units across all lines.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	for _, line := range s.lines {
		n += line.Quantity
	}
	return n
}

// Lines returns a copy of the lines in insertion order.
func (s *Store) Lines() []domain.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *Store) find(productID string) int {
	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// persist must be called with mu held so writes land in mutation order.
func (s *Store) persist() {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	lines := s.lines
	if lines == nil {
		lines = []domain.CartLine{}
	}
	if err := storage.SaveJSON(ctx, s.store, s.key, lines); err != nil {
		s.log.Warn("cart persist failed", zap.String("key", s.key), zap.Error(err))
	}
}
