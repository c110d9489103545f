// Package httpclient builds the instrumented HTTP client used for JSON-RPC
// calls to the Ethereum node.
package httpclient

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Options holds configuration for the instrumented client.
type Options struct {
	meterProvider   metric.MeterProvider
	providerName    string
	roundTripper    http.RoundTripper
	requestTimeout  time.Duration
	maxConnsPerHost int
}

// Option configures Options.
type Option func(*Options)

func newOptions(opts ...Option) Options {
	o := Options{
		providerName:    "default",
		requestTimeout:  defaultRequestTimeout,
		maxConnsPerHost: defaultMaxConnsPerHost,
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// WithMeterProvider sets the OTEL meter provider. Defaults to the global one.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *Options) {
		o.meterProvider = mp
	}
}

// WithProviderName labels the client's metrics and spans.
func WithProviderName(name string) Option {
	return func(o *Options) {
		o.providerName = name
	}
}

// WithRoundTripper replaces the pooled transport.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(o *Options) {
		o.roundTripper = rt
	}
}

// WithRequestTimeout bounds a whole request, including reading the body.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.requestTimeout = timeout
	}
}

// WithMaxConnsPerHost caps concurrent connections to the node.
func WithMaxConnsPerHost(n int) Option {
	return func(o *Options) {
		o.maxConnsPerHost = n
	}
}
