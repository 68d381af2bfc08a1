package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/bluecodes/game-codes-store/shared/config"
	"github.com/bluecodes/game-codes-store/stats-service/handler"
	"github.com/bluecodes/game-codes-store/stats-service/service"
	"github.com/bluecodes/game-codes-store/stats-service/store"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	mongoClient, err := config.ConnectMongoDB(cfg.MongoURI)
	if err != nil {
		log.WithError(err).Fatal("Error connecting to mongo")
	}
	defer mongoClient.Disconnect(context.Background())

	st := store.New(mongoClient.Database(cfg.MongoDatabase))

	osrsService := service.NewOSRSService("", st)
	ffxivService := service.NewFFXIVService("", st)
	favoritesService := service.NewFavoritesService(st)

	h := handler.New(osrsService, ffxivService, favoritesService, st)

	server := &http.Server{
		Addr:    ":" + cfg.StatsPort,
		Handler: h.Router(),
	}

	// Start the HTTP server in a goroutine
	go func() {
		log.WithField("port", cfg.StatsPort).Info("Starting Stats Service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to serve")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down Stats Service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Forced shutdown")
	}
	log.Info("Stats Service stopped")
}
