package server

import (
	"fmt"

	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/config"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/infra/prometheus"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/server/router"
	"github.com/sirupsen/logrus"
)

type (
	ProxyServerDI struct {
		Config  *config.Config
		Logger  *logrus.Logger
		Routers []router.ServerRouter
	}
	ProxyServer struct {
		*BaseServer
	}
)

func NewProxyServer(di ProxyServerDI) *ProxyServer {
	if di.Config.Metrics.Enabled {
		prometheus.Initialize(prometheus.MetricsConfig{
			EnableProcess: di.Config.Metrics.EnableProcess,
		})
	}
	s := &ProxyServer{
		BaseServer: NewBaseServer(di.Config, di.Logger).WithRouters(di.Routers...),
	}
	s.setupMetricsEndpoint()
	return s
}

func (s *ProxyServer) Run() error {
	addr := fmt.Sprintf(":%d", s.Config.Server.Port)
	s.Logger.WithField("addr", addr).Info("starting proxy server")
	return s.Router.Listen(addr)
}

func (s *ProxyServer) Shutdown() error {
	return s.shutdown()
}
