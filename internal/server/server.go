package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/mercatohq/mercato/internal/log"
	"github.com/mercatohq/mercato/internal/pkg/broadcast"
	"github.com/mercatohq/mercato/internal/pkg/pushclient"
	"github.com/mercatohq/mercato/internal/server/api"
	"github.com/mercatohq/mercato/internal/server/biz"
	"github.com/mercatohq/mercato/internal/server/db"
	"github.com/mercatohq/mercato/internal/server/middleware"
)

func New(config Config) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middleware.Recovery())

	return &Server{
		Config: config,
		Engine: engine,
	}
}

type Server struct {
	*gin.Engine

	Config Config
	server *http.Server
	addr   string
}

func (srv *Server) Run() error {
	log.Info(context.Background(), "run server",
		log.String("name", srv.Config.Name),
		log.String("host", srv.Config.Host),
		log.Int("port", srv.Config.Port),
	)

	addr := fmt.Sprintf("%s:%d", srv.Config.Host, srv.Config.Port)
	srv.server = &http.Server{
		Addr:        addr,
		Handler:     srv.Engine,
		ReadTimeout: srv.Config.ReadTimeout,
	}
	srv.addr = addr

	err := srv.server.ListenAndServe()
	if err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	}

	return nil
}

func (srv *Server) Shutdown(ctx context.Context) error {
	return srv.server.Shutdown(ctx)
}

// Run assembles the application and blocks until shutdown.
func Run(opts ...fx.Option) {
	constructors := []any{
		db.Open,
		pushclient.New,
		broadcast.New,
		New,
	}

	app := fx.New(
		append([]fx.Option{
			fx.NopLogger,
			fx.Provide(constructors...),
			biz.Module,
			api.Module,
			fx.Invoke(func(cfg log.Config) {
				log.SetGlobalConfig(cfg)
			}),
			fx.Invoke(func(lc fx.Lifecycle, database *db.DB) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return database.Migrate(ctx)
					},
					OnStop: func(ctx context.Context) error {
						return database.Close()
					},
				})
			}),
			fx.Invoke(SetupRoutes),
		}, opts...)...,
	)
	app.Run()
}
