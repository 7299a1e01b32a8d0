package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatic(t *testing.T) {
	ctx := context.Background()

	project, err := Static("my-project").ResolveProject(ctx)
	require.NoError(t, err)
	require.Equal(t, "my-project", project)

	_, err = Static("").ResolveProject(ctx)
	require.ErrorIs(t, err, ErrNoProject)
}

func TestEnv(t *testing.T) {
	ctx := context.Background()

	t.Setenv(EnvVar, "env-project")
	project, err := Env().ResolveProject(ctx)
	require.NoError(t, err)
	require.Equal(t, "env-project", project)

	t.Setenv(EnvVar, "")
	_, err = Env().ResolveProject(ctx)
	require.ErrorIs(t, err, ErrNoProject)
}

func TestMetadata(t *testing.T) {
	ctx := context.Background()

	t.Run("OK", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, metadataPath, r.URL.Path)
			require.Equal(t, "cloudmon", r.Header.Get("Metadata-Flavor"))
			_, _ = w.Write([]byte("meta-project"))
		}))
		defer srv.Close()

		project, err := Metadata(MetadataOptions{Endpoint: srv.URL}).ResolveProject(ctx)
		require.NoError(t, err)
		require.Equal(t, "meta-project", project)
	})

	t.Run("NotFound", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := Metadata(MetadataOptions{Endpoint: srv.URL}).ResolveProject(ctx)
		require.ErrorIs(t, err, ErrNoProject)
	})

	t.Run("RetriesTransient", func(t *testing.T) {
		var calls atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte("meta-project"))
		}))
		defer srv.Close()

		project, err := Metadata(MetadataOptions{Endpoint: srv.URL}).ResolveProject(ctx)
		require.NoError(t, err)
		require.Equal(t, "meta-project", project)
		require.GreaterOrEqual(t, calls.Load(), int64(2))
	})
}
