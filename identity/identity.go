// Package identity resolves the backend project id that addresses all
// monitoring API calls.
package identity

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrNoProject is returned when a provider yields no project id.
var ErrNoProject = errors.New("no project id")

// Provider resolves the project id.
type Provider interface {
	ResolveProject(ctx context.Context) (string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (string, error)

// ResolveProject implements Provider.
func (f ProviderFunc) ResolveProject(ctx context.Context) (string, error) {
	return f(ctx)
}

// Static returns a provider resolving to a fixed project id.
func Static(projectID string) Provider {
	return ProviderFunc(func(context.Context) (string, error) {
		if projectID == "" {
			return "", ErrNoProject
		}
		return projectID, nil
	})
}

// EnvVar is the environment variable read by [Env].
const EnvVar = "CLOUDMON_PROJECT_ID"

// Env returns a provider reading the project id from the environment.
func Env() Provider {
	return ProviderFunc(func(context.Context) (string, error) {
		v := os.Getenv(EnvVar)
		if v == "" {
			return "", errors.Wrapf(ErrNoProject, "%s is not set", EnvVar)
		}
		return v, nil
	})
}

// DefaultMetadataEndpoint is the in-cluster metadata discovery endpoint.
const DefaultMetadataEndpoint = "http://metadata.internal"

const metadataPath = "/v1/project/project-id"

// MetadataOptions is [Metadata] options.
type MetadataOptions struct {
	// Endpoint overrides the metadata server endpoint.
	Endpoint string
	// Client is the HTTP client to use. Defaults to an instrumented client.
	Client *http.Client
}

func (opts *MetadataOptions) setDefaults() {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultMetadataEndpoint
	}
	if opts.Client == nil {
		opts.Client = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   2 * time.Second,
		}
	}
}

// Metadata returns a provider discovering the project id from the ambient
// metadata server. Transient discovery failures are retried with a short
// exponential backoff within a single resolution attempt.
func Metadata(opts MetadataOptions) Provider {
	opts.setDefaults()
	return ProviderFunc(func(ctx context.Context) (string, error) {
		query := backoff.NewExponentialBackOff()
		query.InitialInterval = 250 * time.Millisecond
		query.MaxElapsedTime = 5 * time.Second
		return backoff.RetryWithData(
			func() (string, error) {
				req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.Endpoint+metadataPath, nil)
				if err != nil {
					return "", backoff.Permanent(err)
				}
				req.Header.Set("Metadata-Flavor", "cloudmon")
				resp, err := opts.Client.Do(req)
				if err != nil {
					return "", errors.Wrap(err, "query metadata")
				}
				defer func() {
					_ = resp.Body.Close()
				}()
				if resp.StatusCode == http.StatusNotFound {
					return "", backoff.Permanent(ErrNoProject)
				}
				if resp.StatusCode != http.StatusOK {
					return "", errors.Errorf("query metadata: unexpected status %d", resp.StatusCode)
				}
				body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
				if err != nil {
					return "", errors.Wrap(err, "read metadata")
				}
				if len(body) == 0 {
					return "", backoff.Permanent(ErrNoProject)
				}
				return string(body), nil
			},
			backoff.WithContext(query, ctx),
		)
	})
}
