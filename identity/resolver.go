package identity

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

var _ Provider = (*Resolver)(nil)

// Resolver memoizes a Provider.
//
// The first caller triggers resolution, concurrent callers join the
// in-flight attempt. A successful resolution is cached for the resolver's
// lifetime. A failed attempt is not cached: every subsequent call starts a
// new resolution.
type Resolver struct {
	provider Provider

	sf singleflight.Group

	mux     sync.Mutex
	project string
}

// NewResolver creates a new Resolver wrapping the given provider.
func NewResolver(p Provider) *Resolver {
	return &Resolver{provider: p}
}

// ResolveProject implements Provider.
func (r *Resolver) ResolveProject(ctx context.Context) (string, error) {
	r.mux.Lock()
	cached := r.project
	r.mux.Unlock()
	if cached != "" {
		return cached, nil
	}

	ch := r.sf.DoChan("project", func() (any, error) {
		// Re-check under single-flight: another call may have resolved
		// while this one was waiting to start.
		r.mux.Lock()
		cached := r.project
		r.mux.Unlock()
		if cached != "" {
			return cached, nil
		}
		project, err := r.provider.ResolveProject(ctx)
		if err != nil {
			return "", err
		}
		if project == "" {
			return "", ErrNoProject
		}
		r.mux.Lock()
		r.project = project
		r.mux.Unlock()
		return project, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
