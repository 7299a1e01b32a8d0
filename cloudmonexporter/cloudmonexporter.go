// Package cloudmonexporter contains cloudmon exporter factory.
package cloudmonexporter

import (
	"context"

	"go.opentelemetry.io/collector/component"
	"go.opentelemetry.io/collector/consumer"
	"go.opentelemetry.io/collector/exporter"
	"go.opentelemetry.io/collector/exporter/exporterhelper"
)

const (
	typeStr   = "cloudmon"
	stability = component.StabilityLevelDevelopment
)

// NewFactory creates new factory of cloudmon exporters.
func NewFactory() exporter.Factory {
	return exporter.NewFactory(
		component.MustNewType(typeStr),
		createDefaultConfig,
		exporter.WithTraces(createTracesExporter, stability),
		exporter.WithMetrics(createMetricsExporter, stability),
	)
}

func createDefaultConfig() component.Config {
	return &Config{}
}

func createTracesExporter(
	ctx context.Context,
	settings exporter.Settings,
	cfg component.Config,
) (exporter.Traces, error) {
	ecfg := cfg.(*Config)
	exp, err := ecfg.traces(settings)
	if err != nil {
		return nil, err
	}
	return exporterhelper.NewTraces(ctx, settings, cfg, exp.ConsumeTraces,
		exporterhelper.WithCapabilities(consumer.Capabilities{MutatesData: false}),
		exporterhelper.WithShutdown(exp.Shutdown),
	)
}

func createMetricsExporter(
	ctx context.Context,
	settings exporter.Settings,
	cfg component.Config,
) (exporter.Metrics, error) {
	ecfg := cfg.(*Config)
	exp, err := ecfg.metrics(settings)
	if err != nil {
		return nil, err
	}
	return exporterhelper.NewMetrics(ctx, settings, cfg, exp.ConsumeMetrics,
		exporterhelper.WithCapabilities(consumer.Capabilities{MutatesData: false}),
		exporterhelper.WithShutdown(exp.Shutdown),
	)
}
