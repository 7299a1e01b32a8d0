package metricexport

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// registry tracks metric types already registered with the backend in this
// process lifetime. The set only grows: there is no eviction.
//
// Shared across concurrent export calls. A registration in flight for a
// type joins concurrent callers instead of issuing a duplicate call.
type registry struct {
	sf singleflight.Group

	mux        sync.Mutex
	registered map[string]struct{}
}

func newRegistry() *registry {
	return &registry{
		registered: map[string]struct{}{},
	}
}

func (r *registry) has(typ string) bool {
	r.mux.Lock()
	defer r.mux.Unlock()
	_, ok := r.registered[typ]
	return ok
}

func (r *registry) mark(typ string) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.registered[typ] = struct{}{}
}

// Register calls register for a type not registered yet.
//
// Only a successful registration is recorded: a failed type stays
// unregistered and is retried by the next export that sees it.
func (r *registry) Register(ctx context.Context, typ string, register func(ctx context.Context) error) error {
	if r.has(typ) {
		return nil
	}
	ch := r.sf.DoChan(typ, func() (any, error) {
		if r.has(typ) {
			return nil, nil
		}
		if err := register(ctx); err != nil {
			return nil, err
		}
		r.mark(typ)
		return nil, nil
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}
