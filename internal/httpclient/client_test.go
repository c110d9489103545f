package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func requestCount(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != metricRequestCounter {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				status, _ := dp.Attributes.Value(attribute.Key("status"))
				counts[status.AsString()] += dp.Value
			}
		}
	}
	return counts
}

func TestNew_CountsRequestsByStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"0x1"}`))
	}))
	defer srv.Close()

	reader := sdkmetric.NewManualReader()
	client, err := New(
		WithProviderName("ethereum"),
		WithMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))),
	)
	require.NoError(t, err)

	for _, path := range []string{"/", "/", "/missing"} {
		resp, err := client.Post(srv.URL+path, "application/json", nil)
		require.NoError(t, err)
		_ = resp.Body.Close()
	}

	counts := requestCount(t, reader)
	assert.Equal(t, int64(2), counts["200"])
	assert.Equal(t, int64(1), counts["404"])
}

type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func TestNew_CountsTransportErrors(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	client, err := New(
		WithRoundTripper(failingTransport{}),
		WithMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))),
	)
	require.NoError(t, err)

	_, err = client.Get("http://node.invalid")
	require.Error(t, err)
	assert.Equal(t, int64(1), requestCount(t, reader)["error"])
}

func TestNew_Defaults(t *testing.T) {
	client, err := New()
	require.NoError(t, err)
	assert.Equal(t, defaultRequestTimeout, client.Timeout)

	client, err = New(WithRequestTimeout(time.Second))
	require.NoError(t, err)
	assert.Equal(t, time.Second, client.Timeout)
}
