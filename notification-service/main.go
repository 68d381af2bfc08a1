package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/bluecodes/game-codes-store/notification-service/service"
	"github.com/bluecodes/game-codes-store/shared/config"
	"github.com/bluecodes/game-codes-store/shared/kafka"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	if cfg.KafkaBroker == "" {
		log.Fatal("KAFKA_BROKER is not set")
	}

	mongoClient, err := config.ConnectMongoDB(cfg.MongoURI)
	if err != nil {
		log.WithError(err).Fatal("Error connecting to mongo")
	}
	defer mongoClient.Disconnect(context.Background())

	// Make sure the order topics exist before the reader joins its group
	topics := []string{kafka.TopicOrderCreated, kafka.TopicOrderFulfilled}
	if err := kafka.CreateTopics(cfg.KafkaBroker, topics); err != nil {
		log.WithError(err).Warn("Failed to create Kafka topics, assuming they exist")
	}

	smtpConfig := service.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	}
	if cfg.SMTPHost == "" {
		log.Warn("SMTP is not configured; delivery emails will be logged as failed")
	}

	notificationService := service.NewNotificationService(mongoClient, cfg.MongoDatabase, []string{cfg.KafkaBroker}, smtpConfig, cfg.SiteName)

	ctx, cancel := context.WithCancel(context.Background())

	go notificationService.ProcessFulfilledOrders(ctx)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down Notification Service...")

	cancel()
	log.Info("Notification Service stopped")
}
