package snapshot

import (
	"invitebounty/pkg/config"
	"invitebounty/services/gateway"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("snapshot",
	fx.Provide(
		provideStore,
		NewService,
		func(s Store) gateway.SnapshotPatcher { return s },
		func(s *Service) gateway.Refresher { return s },
	),
)

func provideStore(cfg *config.Config, rdb *redis.Client) Store {
	if cfg.Reward.SnapshotStore == "redis" {
		zap.L().Info("using redis invite snapshot store")
		return NewRedisStore(rdb)
	}
	return NewMemoryStore()
}
