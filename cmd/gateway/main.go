package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"farmtally/internal/config"
	"farmtally/internal/gateway"
	"farmtally/internal/logger"
	"farmtally/internal/middleware"
)

func main() {
	settings := config.Load()
	logger.Setup(settings.LogFile, settings.LogLevel)
	gin.SetMode(settings.GinMode)

	gw, err := gateway.New(settings, gateway.DefaultRoutes)
	if err != nil {
		logrus.WithError(err).Fatal("invalid gateway configuration")
	}

	r := gw.Router(
		gin.Recovery(),
		ginlog.SetLogger(ginlog.WithWriter(logger.Writer())),
	)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + settings.GatewayPort,
		Handler:           middleware.EnableCORS(r, settings.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("🚀 API gateway running at :%s", settings.GatewayPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return gw.Limiter.Run(ctx, time.Minute)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logrus.WithError(err).Error("gateway stopped")
		os.Exit(1)
	}
	logrus.Info("gateway exited")
}
