package main

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"invitebounty/internal/server"
	"invitebounty/pkg/config"
	"invitebounty/pkg/db"
	"invitebounty/pkg/gen"
	"invitebounty/pkg/health"
	"invitebounty/pkg/logger"
	"invitebounty/pkg/otelcol"
	"invitebounty/pkg/redis"
	"invitebounty/pkg/task"
	"invitebounty/services/attribution"
	"invitebounty/services/gateway"
	"invitebounty/services/ledger"
	"invitebounty/services/notify"
	"invitebounty/services/payment"
	"invitebounty/services/reconcile"
	"invitebounty/services/snapshot"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		otelcol.Module,
		db.Module,
		redis.Module,
		gen.Module,
		health.Module,
		task.Client,
		task.Server,

		gateway.Module,
		snapshot.Module,
		ledger.Module,
		attribution.Module,
		payment.Module,
		notify.Module,
		reconcile.Module,
		server.Module,

		fxLogger,
	)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})
