package attribution

import (
	"invitebounty/services/gateway"

	"go.uber.org/fx"
)

var Module = fx.Module("attribution",
	fx.Provide(
		NewService,
		func(s *Service) gateway.JoinHandler { return s },
	),
)
