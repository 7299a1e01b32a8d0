package monclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestHTTPClientPaths(t *testing.T) {
	var (
		gotPath string
		gotAuth string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewHTTPClient(HTTPClientOptions{
		Endpoint: srv.URL,
		TokenSource: oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: "test-token",
		}),
	})
	ctx := context.Background()

	require.NoError(t, client.CreateMetricDescriptor(ctx, &CreateMetricDescriptorRequest{
		Name: "projects/p",
	}))
	require.Equal(t, "/v3/projects/p/metricDescriptors", gotPath)
	require.Equal(t, "Bearer test-token", gotAuth)

	require.NoError(t, client.CreateTimeSeries(ctx, &CreateTimeSeriesRequest{
		Name: "projects/p",
	}))
	require.Equal(t, "/v3/projects/p/timeSeries", gotPath)

	require.NoError(t, client.BatchWriteSpans(ctx, &BatchWriteSpansRequest{
		Name: "projects/p",
	}))
	require.Equal(t, "/v2/projects/p/traces:batchWrite", gotPath)
}

func TestHTTPClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"code": 429, "status": "RESOURCE_EXHAUSTED", "message": "quota exceeded"}}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(HTTPClientOptions{Endpoint: srv.URL})
	err := client.CreateTimeSeries(context.Background(), &CreateTimeSeriesRequest{
		Name: "projects/p",
	})
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusTooManyRequests, apiErr.HTTPCode)
	require.Equal(t, "RESOURCE_EXHAUSTED", apiErr.Status)
	require.Equal(t, "quota exceeded", apiErr.Message)
	require.True(t, apiErr.Temporary())
}

func TestHTTPClientErrorUnparsableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client := NewHTTPClient(HTTPClientOptions{Endpoint: srv.URL})
	err := client.CreateTimeSeries(context.Background(), &CreateTimeSeriesRequest{
		Name: "projects/p",
	})

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadRequest, apiErr.HTTPCode)
	require.False(t, apiErr.Temporary())
}

func TestErrorTemporary(t *testing.T) {
	temporary := []int{429, 500, 502, 503, 504}
	for _, code := range temporary {
		require.True(t, (&Error{HTTPCode: code}).Temporary(), "code %d", code)
	}
	permanent := []int{400, 401, 403, 404}
	for _, code := range permanent {
		require.False(t, (&Error{HTTPCode: code}).Temporary(), "code %d", code)
	}
}
