package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/teamflp/agri-direct-marketplace-sub002/internal/config"
)

type App struct {
	Config *config.Config
	Logger *slog.Logger
	Server *http.Server
}

func New(cfg *config.Config, logger *slog.Logger, server *http.Server) *App {
	return &App{Config: cfg, Logger: logger, Server: server}
}

func (a *App) Start() error {
	a.Logger.Info("server starting", "addr", a.Server.Addr, "env", a.Config.Env)
	err := a.Server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	a.Logger.Info("server shutting down")
	return a.Server.Shutdown(ctx)
}
