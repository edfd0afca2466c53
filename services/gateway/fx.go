package gateway

import (
	"go.uber.org/fx"
)

var Module = fx.Module("gateway",
	fx.Provide(
		NewRESTAdapter,
		func(a *RESTAdapter) Gateway { return a },
		NewDispatcher,
	),
)
