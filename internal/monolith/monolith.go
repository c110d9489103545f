// Package monolith provides the application container and module interface.
package monolith

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/fd1az/amm-quoter/internal/apperror"
	"github.com/fd1az/amm-quoter/internal/asset"
	"github.com/fd1az/amm-quoter/internal/config"
	"github.com/fd1az/amm-quoter/internal/di"
	"github.com/fd1az/amm-quoter/internal/httpclient"
	"github.com/fd1az/amm-quoter/internal/logger"
)

// Well-known keys of the shared services every module can resolve.
const (
	ConfigKey        = "config"
	LoggerKey        = "logger"
	EthClientKey     = "ethClient"
	AssetRegistryKey = "assetRegistry"
)

// Monolith gives modules access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	EthClient() *ethclient.Client
	AssetRegistry() *asset.Registry
	Services() di.ServiceRegistry
}

// Module is a bounded context: it registers its services, then starts.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

// App is the process-wide container.
type App struct {
	config        *config.Config
	logger        logger.LoggerInterface
	ethClient     *ethclient.Client
	assetRegistry *asset.Registry
	container     di.Container
}

var _ Monolith = (*App)(nil)

// New dials the node over the instrumented HTTP client and registers the
// shared services.
func New(ctx context.Context, cfg *config.Config, log logger.LoggerInterface) (*App, error) {
	opts := []httpclient.Option{httpclient.WithProviderName("ethereum")}
	if cfg.Ethereum.RPCTimeout > 0 {
		opts = append(opts, httpclient.WithRequestTimeout(cfg.Ethereum.RPCTimeout))
	}
	httpClient, err := httpclient.New(opts...)
	if err != nil {
		return nil, apperror.Internal(apperror.CodeConfigurationError, "rpc http client", err)
	}

	rpcClient, err := rpc.DialOptions(ctx, cfg.Ethereum.HTTPURL, rpc.WithHTTPClient(httpClient))
	if err != nil {
		return nil, apperror.New(apperror.CodeEthereumConnectionFailed,
			apperror.WithCause(err), apperror.WithContext(cfg.Ethereum.HTTPURL))
	}

	return newApp(cfg, log, ethclient.NewClient(rpcClient)), nil
}

func newApp(cfg *config.Config, log logger.LoggerInterface, ethClient *ethclient.Client) *App {
	assetRegistry := asset.DefaultRegistry()
	container := di.NewContainer()

	container.Register(ConfigKey, cfg)
	container.Register(LoggerKey, log)
	container.Register(EthClientKey, ethClient)
	container.Register(AssetRegistryKey, assetRegistry)

	return &App{
		config:        cfg,
		logger:        log,
		ethClient:     ethClient,
		assetRegistry: assetRegistry,
		container:     container,
	}
}

func (a *App) Config() *config.Config {
	return a.config
}

func (a *App) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *App) EthClient() *ethclient.Client {
	return a.ethClient
}

func (a *App) AssetRegistry() *asset.Registry {
	return a.assetRegistry
}

func (a *App) Services() di.ServiceRegistry {
	return a.container
}

// Container returns the DI container for module registration.
func (a *App) Container() di.Container {
	return a.container
}

// RegisterModules registers all provided modules, in order.
func (a *App) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts all provided modules, in order.
func (a *App) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the node connection.
func (a *App) Close() error {
	if a.ethClient != nil {
		a.ethClient.Close()
	}
	return nil
}

// Shared service accessors for module factories.

func GetConfig(sr di.ServiceRegistry) *config.Config {
	return sr.Get(ConfigKey).(*config.Config)
}

func GetLogger(sr di.ServiceRegistry) logger.LoggerInterface {
	return sr.Get(LoggerKey).(logger.LoggerInterface)
}

func GetEthClient(sr di.ServiceRegistry) *ethclient.Client {
	return sr.Get(EthClientKey).(*ethclient.Client)
}

func GetAssetRegistry(sr di.ServiceRegistry) *asset.Registry {
	return sr.Get(AssetRegistryKey).(*asset.Registry)
}
