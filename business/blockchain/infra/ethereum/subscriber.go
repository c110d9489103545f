// Package ethereum provides the chain-head and gas adapters over go-ethereum.
package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/amm-quoter/business/blockchain/app"
	"github.com/fd1az/amm-quoter/business/blockchain/domain"
	"github.com/fd1az/amm-quoter/internal/apperror"
	"github.com/fd1az/amm-quoter/internal/circuitbreaker"
	"github.com/fd1az/amm-quoter/internal/logger"
)

const (
	tracerName = "github.com/fd1az/amm-quoter/business/blockchain/infra/ethereum"
	meterName  = "github.com/fd1az/amm-quoter/business/blockchain/infra/ethereum"
)

var _ app.HeadSource = (*Subscriber)(nil)

// HeadClient is the part of *ethclient.Client the subscriber uses.
type HeadClient interface {
	SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	Close()
}

// DialFunc opens a HeadClient for an endpoint URL.
type DialFunc func(ctx context.Context, url string) (HeadClient, error)

// DialEthClient dials with go-ethereum.
func DialEthClient(ctx context.Context, url string) (HeadClient, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// SubscriberConfig holds configuration for the head subscriber.
type SubscriberConfig struct {
	WSURL          string        // optional; HTTP polling is used without it
	HTTPURL        string        // polling fallback
	PollInterval   time.Duration // HTTP polling period
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxReconnects  int // consecutive failures before giving up; 0 retries forever
	BufferSize     int
}

// DefaultSubscriberConfig returns sensible defaults.
func DefaultSubscriberConfig(wsURL, httpURL string) SubscriberConfig {
	return SubscriberConfig{
		WSURL:          wsURL,
		HTTPURL:        httpURL,
		PollInterval:   12 * time.Second, // ~1 block time
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
		BufferSize:     4,
	}
}

type subscriberMetrics struct {
	blocksReceived   metric.Int64Counter
	blocksSuperseded metric.Int64Counter
	subscribeErrors  metric.Int64Counter
	connectionState  metric.Int64Gauge
	blockLatency     metric.Float64Histogram
	httpFallbackUsed metric.Int64Counter
}

// Subscriber streams new heads over a websocket subscription, falling back to
// HTTP polling. When the consumer lags, older heads are dropped in favour of
// the newest one.
type Subscriber struct {
	config SubscriberConfig
	logger logger.LoggerInterface
	dial   DialFunc

	state      domain.ConnectionState
	stateMu    sync.RWMutex
	usingHTTP  atomic.Bool
	lastBlock  atomic.Uint64
	reconnects atomic.Int32
	started    atomic.Bool

	blocks    chan *domain.Block
	done      chan struct{}
	closeOnce sync.Once

	httpCB *circuitbreaker.CircuitBreaker[*types.Header]

	tracer  trace.Tracer
	metrics *subscriberMetrics
}

// NewSubscriber creates a new head subscriber. A nil dial uses ethclient.
func NewSubscriber(cfg SubscriberConfig, dial DialFunc, log logger.LoggerInterface) (*Subscriber, error) {
	if cfg.WSURL == "" && cfg.HTTPURL == "" {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("subscriber needs a websocket or http url"))
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if dial == nil {
		dial = DialEthClient
	}

	s := &Subscriber{
		config: cfg,
		logger: log,
		dial:   dial,
		state:  domain.StateDisconnected,
		blocks: make(chan *domain.Block, cfg.BufferSize),
		done:   make(chan struct{}),
		tracer: otel.Tracer(tracerName),
	}

	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	httpCfg := circuitbreaker.DefaultConfig("eth-http-poll")
	httpCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		s.logger.Info(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	s.httpCB = circuitbreaker.New[*types.Header](httpCfg)

	return s, nil
}

func (s *Subscriber) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &subscriberMetrics{}

	s.metrics.blocksReceived, err = meter.Int64Counter(
		"eth_blocks_received_total",
		metric.WithDescription("New heads delivered to consumers"),
		metric.WithUnit("{block}"),
	)
	if err != nil {
		return err
	}

	s.metrics.blocksSuperseded, err = meter.Int64Counter(
		"eth_blocks_superseded_total",
		metric.WithDescription("Heads dropped because a newer one arrived first"),
		metric.WithUnit("{block}"),
	)
	if err != nil {
		return err
	}

	s.metrics.subscribeErrors, err = meter.Int64Counter(
		"eth_subscribe_errors_total",
		metric.WithDescription("Subscription and polling errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	s.metrics.connectionState, err = meter.Int64Gauge(
		"eth_connection_state",
		metric.WithDescription("Head subscription state (0=disconnected, 1=connecting, 2=connected, 3=reconnecting)"),
		metric.WithUnit("{state}"),
	)
	if err != nil {
		return err
	}

	s.metrics.blockLatency, err = meter.Float64Histogram(
		"eth_block_latency_ms",
		metric.WithDescription("Latency from block timestamp to receipt"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	s.metrics.httpFallbackUsed, err = meter.Int64Counter(
		"eth_http_fallback_total",
		metric.WithDescription("Times HTTP polling replaced the websocket"),
		metric.WithUnit("{fallback}"),
	)
	return err
}

// Subscribe starts the head loop and returns the channel. It may be called once;
// the channel closes when ctx ends, Close is called or reconnects run out.
func (s *Subscriber) Subscribe(ctx context.Context) (<-chan *domain.Block, error) {
	if !s.started.CompareAndSwap(false, true) {
		return nil, apperror.New(apperror.CodeEthereumSubscribeFailed,
			apperror.WithContext("already subscribed"))
	}

	s.usingHTTP.Store(s.config.WSURL == "")
	s.setState(domain.StateConnecting)

	go s.run(ctx)
	return s.blocks, nil
}

func (s *Subscriber) run(ctx context.Context) {
	defer close(s.blocks)
	defer s.setState(domain.StateDisconnected)

	backoff := s.config.InitialBackoff
	failures := 0

	for {
		before := s.lastBlock.Load()

		var err error
		if s.usingHTTP.Load() {
			err = s.poll(ctx)
		} else {
			err = s.stream(ctx)
		}

		if s.stopped(ctx) {
			return
		}

		// a connection that delivered heads resets the retry budget
		if s.lastBlock.Load() != before {
			failures = 0
			backoff = s.config.InitialBackoff
		}

		failures++
		s.metrics.subscribeErrors.Add(ctx, 1)
		s.logger.Warn(ctx, "head subscription interrupted",
			"error", err, "http", s.usingHTTP.Load(), "failures", failures)

		if s.config.MaxReconnects > 0 && failures > s.config.MaxReconnects {
			s.logger.Error(ctx, "giving up on head subscription", "failures", failures)
			return
		}

		if !s.usingHTTP.Load() && s.config.HTTPURL != "" {
			s.usingHTTP.Store(true)
			s.metrics.httpFallbackUsed.Add(ctx, 1)
			s.logger.Info(ctx, "falling back to http polling", "interval", s.config.PollInterval)
		}

		s.setState(domain.StateReconnecting)
		s.reconnects.Add(1)

		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-time.After(backoff):
		}

		if next := backoff * 2; next <= s.config.MaxBackoff {
			backoff = next
		} else {
			backoff = s.config.MaxBackoff
		}
	}
}

func (s *Subscriber) stopped(ctx context.Context) bool {
	select {
	case <-s.done:
		return true
	default:
		return ctx.Err() != nil
	}
}

// stream runs one websocket subscription until it fails.
func (s *Subscriber) stream(ctx context.Context) error {
	client, err := s.connect(ctx, s.config.WSURL, "ws")
	if err != nil {
		return err
	}
	defer client.Close()

	headers := make(chan *types.Header, s.config.BufferSize)
	sub, err := client.SubscribeNewHead(ctx, headers)
	if err != nil {
		return apperror.New(apperror.CodeEthereumSubscribeFailed, apperror.WithCause(err))
	}
	defer sub.Unsubscribe()

	s.setState(domain.StateConnected)
	s.logger.Info(ctx, "subscribed to new heads via ws")

	for {
		select {
		case <-s.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			if err == nil {
				err = errors.New("subscription closed")
			}
			return err
		case header := <-headers:
			if header != nil {
				s.processHeader(ctx, header, false)
			}
		}
	}
}

// poll fetches the latest header every PollInterval until the breaker opens.
func (s *Subscriber) poll(ctx context.Context) error {
	client, err := s.connect(ctx, s.config.HTTPURL, "http")
	if err != nil {
		return err
	}
	defer client.Close()

	s.setState(domain.StateConnected)

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		if err := s.pollOnce(ctx, client); apperror.HasCode(err, apperror.CodeCircuitOpen) {
			return err
		}

		select {
		case <-s.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Subscriber) pollOnce(ctx context.Context, client HeadClient) error {
	ctx, span := s.tracer.Start(ctx, "eth.poll.block")
	defer span.End()

	header, err := s.httpCB.Execute(func() (*types.Header, error) {
		return client.HeaderByNumber(ctx, nil)
	})
	if err != nil {
		span.RecordError(err)
		s.metrics.subscribeErrors.Add(ctx, 1)
		s.logger.Warn(ctx, "http poll failed", "error", err)
		return err
	}

	if header.Number.Uint64() <= s.lastBlock.Load() {
		span.AddEvent("duplicate_block")
		return nil
	}

	s.processHeader(ctx, header, true)
	return nil
}

func (s *Subscriber) connect(ctx context.Context, url, transport string) (HeadClient, error) {
	ctx, span := s.tracer.Start(ctx, "eth.connect."+transport)
	defer span.End()

	if url == "" {
		err := fmt.Errorf("%s url not configured", transport)
		span.RecordError(err)
		return nil, err
	}

	client, err := s.dial(ctx, url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dial failed")
		return nil, apperror.New(apperror.CodeEthereumConnectionFailed,
			apperror.WithCause(err), apperror.WithContextf("dial %s", transport))
	}

	span.SetStatus(codes.Ok, "connected")
	return client, nil
}

func (s *Subscriber) processHeader(ctx context.Context, header *types.Header, fromHTTP bool) {
	block := headerToBlock(header)

	latency := time.Since(block.Timestamp)
	s.metrics.blockLatency.Record(ctx, float64(latency.Milliseconds()),
		metric.WithAttributes(attribute.Bool("from_http", fromHTTP)))

	s.lastBlock.Store(block.Number)
	s.emit(ctx, block)

	s.logger.Debug(ctx, "block received",
		"number", block.Number,
		"hash", block.Hash.Hex()[:10],
		"latency_ms", latency.Milliseconds())
}

// emit delivers block, evicting the oldest queued head when the buffer is full.
// The loop is the only sender, so a slot frees up within two iterations.
func (s *Subscriber) emit(ctx context.Context, block *domain.Block) {
	for {
		select {
		case s.blocks <- block:
			s.metrics.blocksReceived.Add(ctx, 1)
			return
		default:
		}

		select {
		case old := <-s.blocks:
			if old != nil {
				s.metrics.blocksSuperseded.Add(ctx, 1)
			}
		default:
		}
	}
}

func headerToBlock(header *types.Header) *domain.Block {
	return &domain.Block{
		Number:     header.Number.Uint64(),
		Hash:       header.Hash(),
		ParentHash: header.ParentHash,
		Timestamp:  time.Unix(int64(header.Time), 0),
		BaseFee:    header.BaseFee,
	}
}

// State returns the current connection state.
func (s *Subscriber) State() domain.ConnectionState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// Status returns detailed connection status.
func (s *Subscriber) Status() domain.ConnectionStatus {
	return domain.ConnectionStatus{
		State:      s.State(),
		LastBlock:  s.lastBlock.Load(),
		Reconnects: int(s.reconnects.Load()),
		UsingHTTP:  s.usingHTTP.Load(),
	}
}

// Close stops the loop; the block channel closes once it exits.
func (s *Subscriber) Close() error {
	s.closeOnce.Do(func() {
		s.logger.Info(context.Background(), "closing head subscriber")
		close(s.done)
	})
	return nil
}

func (s *Subscriber) setState(state domain.ConnectionState) {
	s.stateMu.Lock()
	s.state = state
	s.stateMu.Unlock()

	s.metrics.connectionState.Record(context.Background(), state.Gauge())
}
