package observability

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

const defaultEndpoint = "localhost:4318"

// Exporter is the OTLP/HTTP collector shared by traces and metrics. The
// identity fields are filled from the service config, not from the file.
type Exporter struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure bool   `yaml:"insecure" mapstructure:"insecure"`

	ServiceName    string `yaml:"-" mapstructure:"-"`
	ServiceVersion string `yaml:"-" mapstructure:"-"`
	Environment    string `yaml:"-" mapstructure:"-"`
}

func defaultExporter(serviceName string) Exporter {
	return Exporter{
		Endpoint:       defaultEndpoint,
		Insecure:       true,
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
	}
}

func (e Exporter) resource() (*resource.Resource, error) {
	return newResource(e.ServiceName, e.ServiceVersion, e.Environment)
}

func newResource(serviceName, serviceVersion, environment string) (*resource.Resource, error) {
	own := resource.NewWithAttributes(semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
		attribute.String("environment", environment),
	)
	return resource.Merge(resource.Default(), own)
}
