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

	"farmtally/internal/config"
	"farmtally/internal/logger"
	"farmtally/internal/middleware"
	"farmtally/internal/routes"
)

func main() {
	settings := config.Load()

	// Initialize structured logging to file
	logger.Setup(settings.LogFile, settings.LogLevel)
	gin.SetMode(settings.GinMode)

	// Connect to the database and redis
	config.InitDB()
	config.InitRedis()

	r := routes.SetupRouter(
		gin.Recovery(),
		ginlog.SetLogger(ginlog.WithWriter(logger.Writer())),
	)

	// Wrap with CORS
	handler := middleware.EnableCORS(r, settings.CORSOrigins)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + settings.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server running at :%s", settings.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("graceful shutdown failed")
	}
	logrus.Info("server exited")
}
