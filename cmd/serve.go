package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"fdeconsole/config"
	"fdeconsole/handlers"
	"fdeconsole/middleware"
	"fdeconsole/observability"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		return serve(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(cfg *config.Config) error {
	log := observability.NewLogger(cfg.Log)
	log.WithFields(logrus.Fields{
		"auth":        cfg.Features.AuthEnabled,
		"copilot_llm": cfg.Features.CopilotLLM,
		"monitor":     cfg.Features.MonitorWatching,
		"store":       cfg.Store.Backend,
	}).Info("features")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Simulation.AutoStart {
		if err := a.engine.Start(cfg.Simulation.Entities, a.interval); err != nil {
			return err
		}
	}

	if cfg.Features.MonitorWatching && cfg.Simulation.MonitorEntity != "" {
		go a.monitor.Watch(ctx, cfg.Simulation.MonitorEntity, time.Duration(cfg.Simulation.MonitorIntervalS)*time.Second)
	}

	r := gin.Default()
	a.handler.Register(r, middleware.AuthRequired(cfg.Features.AuthEnabled, []byte(cfg.Auth.JWTSecret), handlers.AuthCookie))

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.WithField("port", cfg.Server.Port).Info("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
