package cloudmonexporter

import (
	"go.opentelemetry.io/collector/exporter"

	"github.com/go-faster/cloudmon/identity"
	"github.com/go-faster/cloudmon/metricexport"
	"github.com/go-faster/cloudmon/monclient"
	"github.com/go-faster/cloudmon/traceexport"
)

// Config defines cloudmon exporter config.
type Config struct {
	// Endpoint overrides the backend endpoint.
	Endpoint string `mapstructure:"endpoint"`
	// ProjectID overrides project id discovery.
	ProjectID string `mapstructure:"project_id"`
	// Prefix overrides the metric type prefix.
	Prefix string `mapstructure:"prefix"`
	// MaxTimeSeriesPerRequest caps one time series write.
	MaxTimeSeriesPerRequest int `mapstructure:"max_time_series_per_request"`
	// MaxSpansPerRequest caps one span write.
	MaxSpansPerRequest int `mapstructure:"max_spans_per_request"`
}

func (c *Config) client(settings exporter.Settings) *monclient.HTTPClient {
	return monclient.NewHTTPClient(monclient.HTTPClientOptions{
		Endpoint:       c.Endpoint,
		MeterProvider:  settings.MeterProvider,
		TracerProvider: settings.TracerProvider,
		Logger:         settings.Logger,
	})
}

func (c *Config) projects() identity.Provider {
	if c.ProjectID != "" {
		return identity.Static(c.ProjectID)
	}
	return identity.Env()
}

func (c *Config) metrics(settings exporter.Settings) (*metricexport.Exporter, error) {
	return metricexport.NewExporter(c.client(settings), metricexport.Options{
		Projects:                c.projects(),
		Prefix:                  c.Prefix,
		MaxTimeSeriesPerRequest: c.MaxTimeSeriesPerRequest,
		Logger:                  settings.Logger,
		MeterProvider:           settings.MeterProvider,
		TracerProvider:          settings.TracerProvider,
	})
}

func (c *Config) traces(settings exporter.Settings) (*traceexport.Exporter, error) {
	return traceexport.NewExporter(c.client(settings), traceexport.Options{
		Projects:           c.projects(),
		MaxSpansPerRequest: c.MaxSpansPerRequest,
		Logger:             settings.Logger,
		MeterProvider:      settings.MeterProvider,
		TracerProvider:     settings.TracerProvider,
	})
}
