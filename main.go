package main

import (
	"flag"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/localwire/portal/internal/config"
	"github.com/localwire/portal/internal/contact"
	"github.com/localwire/portal/internal/gateway"
	"github.com/localwire/portal/internal/metrics"
	"github.com/localwire/portal/internal/middleware"
	"github.com/localwire/portal/internal/repository"
	"github.com/localwire/portal/internal/session"
	"github.com/localwire/portal/internal/web"
)

func main() {
	var configPath = flag.String("config", "./config/config.yaml", "path to config file")
	flag.Parse()

	newConfig := func() (*config.Config, error) {
		return config.Load(*configPath)
	}

	newLogger := func(cfg *config.Config) (*zap.Logger, error) {
		if cfg.Log.Development {
			return zap.NewDevelopment()
		}
		return zap.NewProduction()
	}

	newGateway := func(cfg *config.Config, log *zap.Logger, collector *metrics.Collector) *gateway.Client {
		return gateway.New(gateway.Config{
			BaseURL:  cfg.Gateway.BaseURL,
			Timeout:  cfg.Gateway.Timeout.D(),
			Logger:   log,
			Recorder: collector,
		})
	}

	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			metrics.New,
			newGateway,
			middleware.NewSessionManager,
			middleware.NewRateLimiter,
			repository.NewJSON,
			contact.NewDispatcher,
			session.NewRegistry,
			web.New,

			// interface bindings
			func(c *gateway.Client) session.Gateway { return c },
			func(sm *middleware.SessionManager) session.TokenStore { return sm },
			func(sm *middleware.SessionManager) session.Notifier { return sm },
			func(c *metrics.Collector) contact.Recorder { return c },
		),
		fx.Invoke(web.RegisterHooks),
	)

	app.Run()
}
