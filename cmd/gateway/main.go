package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/config"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/dependency_container"
	infraLogger "github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/infra/logger"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/server"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/server/router"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/version"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	logger, logWriter, err := infraLogger.NewLogger(infraLogger.Options{
		Name:    "gateway",
		Dir:     os.Getenv("LOG_DIR"),
		Console: os.Getenv("LOG_CONSOLE") != "false",
	})
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = logWriter.Close() }()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	container, err := dependency_container.NewContainer(dependency_container.ContainerDI{
		Cfg:    cfg,
		Logger: logger,
	})
	if err != nil {
		logger.Fatalf("failed to initialize dependencies: %v", err)
	}

	srv := server.NewProxyServer(server.ProxyServerDI{
		Config: cfg,
		Logger: logger,
		Routers: []router.ServerRouter{
			router.NewProxyRouter(&container.MiddlewareTransport, container.HandlerTransport),
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.WithFields(logrus.Fields{
		"version":     version.Version,
		"rate_limit":  cfg.RateLimit.Enabled,
		"distributed": cfg.RateLimit.Distributed.Enabled,
		"upstream":    cfg.Server.UpstreamURL,
	}).Info("starting gateway")

	g, gctx := errgroup.WithContext(ctx)
	container.Janitor.Start(gctx)
	g.Go(srv.Run)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")
		return srv.Shutdown()
	})

	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("server stopped with error")
	}
	if err := container.Close(); err != nil {
		logger.WithError(err).Warn("failed to release dependencies")
	}
	logger.Info("server gracefully stopped")
}
