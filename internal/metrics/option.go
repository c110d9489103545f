package metrics

// Exporter selects where metrics are sent.
type Exporter string

const (
	// PrometheusExporter exposes a pull endpoint through Handler.
	PrometheusExporter Exporter = "prometheus"
	// OTLPExporter pushes to an OTLP gRPC collector.
	OTLPExporter Exporter = "otlp"
)

// Config is filled in by OptionFn values.
type Config struct {
	ServiceName string
	Exporters   []ExporterCfg
}

// ExporterCfg is one metrics destination.
type ExporterCfg struct {
	Exporter Exporter
	Endpoint string // collector URL; an http:// scheme disables TLS
	Headers  map[string]string
}

type OptionFn func(config Config) Config

// WithPrometheus adds the Prometheus pull exporter.
func WithPrometheus() OptionFn {
	return func(config Config) Config {
		config.Exporters = append(config.Exporters, ExporterCfg{Exporter: PrometheusExporter})
		return config
	}
}

// WithOTLP adds a periodic push to an OTLP gRPC collector.
func WithOTLP(endpointURL string, headers map[string]string) OptionFn {
	return func(config Config) Config {
		config.Exporters = append(config.Exporters, ExporterCfg{
			Exporter: OTLPExporter,
			Endpoint: endpointURL,
			Headers:  headers,
		})
		return config
	}
}

func WithServiceName(serviceName string) OptionFn {
	return func(config Config) Config {
		config.ServiceName = serviceName
		return config
	}
}

func buildConfig(options ...OptionFn) Config {
	var cfg Config
	for _, opt := range options {
		cfg = opt(cfg)
	}
	if len(cfg.Exporters) == 0 {
		cfg.Exporters = []ExporterCfg{{Exporter: PrometheusExporter}}
	}
	return cfg
}
