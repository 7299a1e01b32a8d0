package metricexport

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegistersOnce(t *testing.T) {
	ctx := context.Background()
	r := newRegistry()

	var calls int
	register := func(context.Context) error {
		calls++
		return nil
	}

	require.NoError(t, r.Register(ctx, "custom/foo", register))
	require.NoError(t, r.Register(ctx, "custom/foo", register))
	require.Equal(t, 1, calls)

	require.NoError(t, r.Register(ctx, "custom/bar", register))
	require.Equal(t, 2, calls)
}

func TestRegistryDoesNotCacheFailure(t *testing.T) {
	ctx := context.Background()
	r := newRegistry()
	errBoom := errors.New("boom")

	var calls int
	err := r.Register(ctx, "custom/foo", func(context.Context) error {
		calls++
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	// A failed registration is retried.
	require.NoError(t, r.Register(ctx, "custom/foo", func(context.Context) error {
		calls++
		return nil
	}))
	require.Equal(t, 2, calls)

	// A successful one is not.
	require.NoError(t, r.Register(ctx, "custom/foo", func(context.Context) error {
		calls++
		return nil
	}))
	require.Equal(t, 2, calls)
}

func TestRegistryCancellation(t *testing.T) {
	// A caller with a canceled context stops waiting for the in-flight
	// registration.
	ctx, cancel := context.WithCancel(context.Background())
	r := newRegistry()

	release := make(chan struct{})
	defer close(release)

	err := r.Register(ctx, "custom/foo", func(context.Context) error {
		cancel()
		<-release
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRegistrySingleFlight(t *testing.T) {
	ctx := context.Background()
	r := newRegistry()

	var (
		calls   atomic.Int64
		started = make(chan struct{})
		release = make(chan struct{})
	)
	register := func(context.Context) error {
		calls.Add(1)
		close(started)
		<-release
		return nil
	}

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = r.Register(ctx, "custom/foo", register)
		}()
	}
	<-started
	close(release)
	wg.Wait()

	// A registration in flight for a type is joined, not repeated.
	require.Equal(t, int64(1), calls.Load())
	for i := range workers {
		require.NoError(t, errs[i])
	}
}
