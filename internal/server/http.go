package server

import (
	"context"
	"errors"
	"net/http"

	"invitebounty/pkg/config"
	"invitebounty/pkg/health"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("server",
	fx.Provide(
		NewHandler,
		ProvideRouter,
		ProvideHTTPServer,
	),
	fx.Invoke(Run),
)

func ProvideRouter(cfg *config.Config, h *Handler, hc health.Service) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", hc.Liveness)
	r.GET("/readyz", hc.Readiness)

	v1 := r.Group("/v1")
	{
		guilds := v1.Group("/guilds/:guild_id")
		guilds.GET("/inviters/:inviter_id/stats", h.Stats)
		guilds.GET("/inviters/:inviter_id/history", h.History)
		guilds.PUT("/config/log-channel", h.SetLogChannel)
		guilds.DELETE("/config/log-channel", h.ClearLogChannel)

		events := v1.Group("/events")
		events.POST("/ready", h.Ready)
		events.POST("/member-join", h.MemberJoin)
		events.POST("/invite-create", h.InviteCreate)
		events.POST("/invite-delete", h.InviteDelete)
	}

	return r
}

func ProvideHTTPServer(cfg *config.Config, router *gin.Engine) *http.Server {
	return &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}

func Run(lc fx.Lifecycle, cfg *config.Config, srv *http.Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				zap.L().Info("Starting HTTP server...", zap.String("addr", cfg.Server.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					zap.L().Fatal("HTTP server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			zap.L().Info("Shutting down HTTP server...", zap.String("addr", cfg.Server.Addr))
			return srv.Shutdown(ctx)
		},
	})
}
