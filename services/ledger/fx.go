package ledger

import (
	"invitebounty/services/gateway"

	"go.uber.org/fx"
)

var Module = fx.Module("ledger",
	fx.Provide(
		NewService,
		func(s *Service) gateway.PendingGuilds { return s },
	),
	fx.Invoke(Migrate),
)
