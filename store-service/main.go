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
	"github.com/bluecodes/game-codes-store/store-service/events"
	"github.com/bluecodes/game-codes-store/store-service/handler"
	"github.com/bluecodes/game-codes-store/store-service/payment"
	"github.com/bluecodes/game-codes-store/store-service/service"
	"github.com/bluecodes/game-codes-store/store-service/store"
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

	indexCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := st.EnsureIndexes(indexCtx); err != nil {
		cancel()
		log.WithError(err).Fatal("Failed to ensure indexes")
	}
	cancel()

	var paymentClient service.IntentCreator
	if cfg.StripeAPIKey != "" {
		paymentClient = payment.NewClient(cfg.StripeAPIKey, "")
		log.Info("Payment provider enabled")
	}

	var orderEvents service.OrderEvents
	if cfg.KafkaBroker != "" {
		publisher := events.NewPublisher([]string{cfg.KafkaBroker})
		defer publisher.Close()
		orderEvents = publisher
		log.WithField("broker", cfg.KafkaBroker).Info("Order event publishing enabled")
	}

	authService := service.NewAuthService(st, cfg.JWTSecret)
	catalogService := service.NewCatalogService(st)
	inventoryService := service.NewInventoryService(st)
	checkoutService := service.NewCheckoutService(st, st, inventoryService, paymentClient, orderEvents)
	orderService := service.NewOrderService(st)
	contactService := service.NewContactService(st)

	h := handler.New(authService, catalogService, inventoryService, checkoutService, orderService, contactService, st, cfg.SiteName)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: h.Router(),
	}

	// Start the HTTP server in a goroutine
	go func() {
		log.WithField("port", cfg.Port).Info("Starting Store Service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to serve")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down Store Service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Forced shutdown")
	}
	log.Info("Store Service stopped")
}
