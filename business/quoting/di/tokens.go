// Package di contains dependency injection tokens for the quoting context.
package di

import (
	"github.com/fd1az/amm-quoter/business/quoting/app"
	safetyapp "github.com/fd1az/amm-quoter/business/safety/app"
	"github.com/fd1az/amm-quoter/internal/di"
)

// Public service tokens.
var (
	Service = di.NewToken[*app.Service]("quoting.Service")
	Watcher = di.NewToken[*app.Watcher]("quoting.Watcher")

	// Reporter may be registered by the caller before the module; the
	// module falls back to the console reporter.
	Reporter = di.NewToken[app.Reporter]("quoting.Reporter")
)

// Private dependency tokens.
var (
	Policy  = di.NewToken[*safetyapp.Policy]("quoting:policy")
	Encoder = di.NewToken[app.CallEncoder]("quoting:encoder")
)

func GetService(c di.ServiceRegistry) *app.Service {
	return di.GetToken(c, Service)
}

func GetWatcher(c di.ServiceRegistry) *app.Watcher {
	return di.GetToken(c, Watcher)
}

func GetReporter(c di.ServiceRegistry) app.Reporter {
	return di.GetToken(c, Reporter)
}

func GetPolicy(c di.ServiceRegistry) *safetyapp.Policy {
	return di.GetToken(c, Policy)
}

func GetEncoder(c di.ServiceRegistry) app.CallEncoder {
	return di.GetToken(c, Encoder)
}
