// Package session keeps the live state of every browser profile: its cart,
// wishlist and support conversation. Profiles are a cache over storage and
// are dropped once idle.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kajal19803/dairyfrontend/internal/cart"
	"github.com/kajal19803/dairyfrontend/internal/domain"
	"github.com/kajal19803/dairyfrontend/internal/storage"
	"github.com/kajal19803/dairyfrontend/internal/support"
	"github.com/kajal19803/dairyfrontend/internal/wishlist"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const hydrateTimeout = 5 * time.Second

// ErrUnavailable is returned when a profile cannot be read from storage.
// Nothing is cached, so the next request retries.
var ErrUnavailable = errors.New("profile storage unavailable")

type Profile struct {
	ID       string
	Cart     *cart.Store
	Wishlist *wishlist.Wishlist
	Chat     *support.Engine

	lastSeen atomic.Int64 // unix nanos
}

func (p *Profile) touch(now time.Time) {
	p.lastSeen.Store(now.UnixNano())
}

type Registry struct {
	store    storage.Store
	chat     support.Backend
	chatOpts support.Options
	log      *zap.Logger
	now      func() time.Time

	sfg singleflight.Group // collapses concurrent first loads of a profile

	mu       sync.RWMutex
	profiles map[string]*Profile
}

func NewRegistry(st storage.Store, chat support.Backend, chatOpts support.Options, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		store:    st,
		chat:     chat,
		chatOpts: chatOpts,
		log:      log,
		now:      time.Now,
		profiles: make(map[string]*Profile),
	}
}

// Get returns the profile, hydrating its cart and wishlist from storage on
// first use. Hydration does not depend on the caller staying connected.
func (r *Registry) Get(ctx context.Context, profileID string) (*Profile, error) {
	if p, ok := r.cached(profileID); ok {
		p.touch(r.now())
		return p, nil
	}

	v, err, _ := r.sfg.Do(profileID, func() (interface{}, error) {
		if p, ok := r.cached(profileID); ok {
			return p, nil
		}

		hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), hydrateTimeout)
		defer cancel()

		log := r.log.With(zap.String("profile_id", profileID))

		c, err := cart.Load(hctx, cart.Key(profileID), r.store, log)
		if err != nil {
			log.Warn("profile hydration failed", zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		wl, err := wishlist.Load(hctx, wishlist.Key(profileID), r.store, log)
		if err != nil {
			log.Warn("profile hydration failed", zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}

		opts := r.chatOpts
		opts.Logger = log
		p := &Profile{
			ID:       profileID,
			Cart:     c,
			Wishlist: wl,
			Chat:     support.NewEngine(r.chat, opts),
		}

		r.mu.Lock()
		r.profiles[profileID] = p
		r.mu.Unlock()

		log.Debug("profile hydrated", zap.Int("cart_lines", len(c.Lines())))
		return p, nil
	})
	if err != nil {
		return nil, err
	}

	p := v.(*Profile)
	p.touch(r.now())
	return p, nil
}

func (r *Registry) cached(profileID string) (*Profile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[profileID]
	return p, ok
}

// ClearCart empties a profile's cart, e.g. after its order was completed
// from another device. A profile this process does not hold is cleared in
// storage only.
func (r *Registry) ClearCart(ctx context.Context, profileID string) error {
	if err := storage.SaveJSON(ctx, r.store, cart.Key(profileID), []domain.CartLine{}); err != nil {
		return fmt.Errorf("clear cart %s: %w", profileID, err)
	}
	if p, ok := r.cached(profileID); ok {
		p.Cart.Clear()
	}
	return nil
}

// Sweep drops profiles not seen for idle or longer, except those whose chat
// is waiting on the backend. It returns how many were dropped.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle).UnixNano()

	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := 0
	for id, p := range r.profiles {
		if p.lastSeen.Load() > cutoff || p.Chat.Typing() {
			continue
		}
		delete(r.profiles, id)
		dropped++
	}
	return dropped
}

// Run sweeps idle profiles until ctx is cancelled.
func (r *Registry) Run(ctx context.Context, idle time.Duration) error {
	if idle <= 0 {
		return nil
	}
	interval := idle / 4
	if interval < time.Second {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := r.Sweep(idle); n > 0 {
				r.log.Debug("idle profiles dropped", zap.Int("count", n), zap.Int("remaining", r.Len()))
			}
		}
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.profiles)
}
