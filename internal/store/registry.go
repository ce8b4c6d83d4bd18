package store

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"saldo/internal/auth"
	"saldo/internal/backend"
	"saldo/internal/cache"
	"saldo/internal/log"
)

// loadTimeout bounds a shared load, which no longer follows any one caller's
// cancellation.
const loadTimeout = 10 * time.Second

// Registry hands out one loaded Store per owner. Stores live in an LRU cache
// and concurrent loads and reloads for the same owner share a single backend
// read.
type Registry struct {
	be     backend.Records
	opts   []Option
	logger *log.Logger
	stores *cache.LRUCache[*Store]
	group  singleflight.Group
}

func NewRegistry(be backend.Records, size int, ttl time.Duration, logger *log.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	r := &Registry{
		be:     be,
		opts:   append([]Option{WithLogger(logger)}, opts...),
		logger: logger.WithComponent(log.ComponentCache),
		stores: cache.NewLRUCache[*Store](size, ttl),
	}
	r.stores.OnEvict(func(owner string, _ *Store) {
		r.logger.Debug("Store evicted", log.FieldOwner, owner)
	})
	return r
}

// Get returns the owner's store, loading it on first use and reloading it when
// a skipped write left it out of step with the backend.
func (r *Registry) Get(ctx context.Context, owner string) (*Store, error) {
	if st, ok := r.stores.Get(owner); ok && !st.NeedsReload() {
		return st, nil
	}

	ch := r.group.DoChan(owner, func() (interface{}, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		if st, ok := r.stores.Get(owner); ok {
			if st.NeedsReload() {
				if err := st.Load(lctx); err != nil {
					return nil, err
				}
			}
			return st, nil
		}
		st := New(owner, r.be, r.opts...)
		if err := st.Load(lctx); err != nil {
			return nil, err
		}
		r.stores.Set(owner, st)
		return st, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Store), nil
	}
}

// Drop forgets the owner's store; the next Get reloads from the backend.
func (r *Registry) Drop(owner string) {
	r.stores.Delete(owner)
}

func (r *Registry) Size() int {
	return r.stores.Size()
}

// Cleaner exposes the underlying cache for periodic expiry sweeps.
func (r *Registry) Cleaner() cache.Cleaner {
	return r.stores
}

// HandleSessionEvent warms the store on sign-in and drops it on sign-out.
func (r *Registry) HandleSessionEvent(ev auth.Event) {
	switch ev.Type {
	case auth.EventSignedIn:
		go r.warm(ev.UserID)
	case auth.EventSignedOut:
		r.Drop(ev.UserID)
	}
}

func (r *Registry) warm(owner string) {
	if _, err := r.Get(context.Background(), owner); err != nil {
		r.logger.Warn("Store warm-up failed", log.FieldOwner, owner, log.FieldError, err)
	}
}
