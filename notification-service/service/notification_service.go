package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/jordan-wright/email"
	kafkago "github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bluecodes/game-codes-store/shared/kafka"
	"github.com/bluecodes/game-codes-store/shared/models"
)

// SMTPConfig holds the mail relay settings. Incomplete config disables
// sending; delivery attempts are still logged as failed.
type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
}

func (c SMTPConfig) complete() bool {
	return c.Host != "" && c.Port != "" && c.User != "" && c.Password != "" && c.From != ""
}

type NotificationService struct {
	emailLogsCollection *mongo.Collection
	kafkaReader         *kafkago.Reader
	smtp                SMTPConfig
	siteName            string
}

// creates a new instance of NotificationService
func NewNotificationService(mongoClient *mongo.Client, database string, kafkaBrokers []string, smtpConfig SMTPConfig, siteName string) *NotificationService {
	emailLogsCollection := mongoClient.Database(database).Collection("emaillog")

	reader := kafka.NewKafkaReader(kafkaBrokers, kafka.TopicOrderFulfilled, "notification-service")

	return &NotificationService{
		emailLogsCollection: emailLogsCollection,
		kafkaReader:         reader,
		smtp:                smtpConfig,
		siteName:            siteName,
	}
}

// ProcessFulfilledOrders listens for fulfilled orders and emails the
// delivered codes to the buyer.
func (s *NotificationService) ProcessFulfilledOrders(ctx context.Context) {
	defer s.kafkaReader.Close()

	log.Info("Notification Service is waiting for fulfilled orders...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping notification processing due to context cancellation")
			return
		default:
			// Read message from Kafka
			msg, err := s.kafkaReader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.WithError(err).Error("Error reading message")
				continue
			}

			s.handleOrderFulfilled(ctx, msg)
		}
	}
}

// handleOrderFulfilled emails the order's codes and records the attempt.
func (s *NotificationService) handleOrderFulfilled(ctx context.Context, msg kafkago.Message) {
	var order models.Order
	if err := json.Unmarshal(msg.Value, &order); err != nil {
		log.WithError(err).Error("Failed to unmarshal order")
		return
	}

	logCtx := log.WithFields(log.Fields{"order_id": order.ID.Hex(), "email": order.Email})
	logCtx.Info("Processing fulfilled order for code delivery")

	subject, body := composeCodesEmail(s.siteName, &order)

	sendErr := s.sendEmail(order.Email, subject, body)
	if sendErr != nil {
		logCtx.WithError(sendErr).Error("Failed to send code delivery email")
	} else {
		logCtx.Info("Code delivery email sent")
	}

	s.saveEmailLog(ctx, &order, subject, sendErr)
}

func (s *NotificationService) sendEmail(to, subject, body string) error {
	if !s.smtp.complete() {
		return fmt.Errorf("SMTP configuration is incomplete")
	}

	e := email.NewEmail()
	e.From = s.smtp.From
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	auth := smtp.PlainAuth("", s.smtp.User, s.smtp.Password, s.smtp.Host)
	return e.Send(s.smtp.Host+":"+s.smtp.Port, auth)
}

func (s *NotificationService) saveEmailLog(ctx context.Context, order *models.Order, subject string, sendErr error) {
	entry := models.EmailLog{
		ID:        primitive.NewObjectID(),
		OrderID:   order.ID.Hex(),
		Recipient: order.Email,
		Subject:   subject,
		Status:    models.EmailStatusSent,
		CreatedAt: time.Now(),
	}
	if sendErr != nil {
		entry.Status = models.EmailStatusFailed
		entry.Note = sendErr.Error()
	}

	if _, err := s.emailLogsCollection.InsertOne(ctx, entry); err != nil {
		log.WithError(err).Error("Failed to save email log")
	}
}

// composeCodesEmail builds the delivery email for a fulfilled order.
func composeCodesEmail(siteName string, order *models.Order) (subject, body string) {
	subject = fmt.Sprintf("Your %s codes for order %s", siteName, order.ID.Hex())

	var b strings.Builder
	greeting := "Hello"
	if order.Name != "" {
		greeting = "Hello " + order.Name
	}
	fmt.Fprintf(&b, "%s,\n\nThank you for your purchase! Here are your redemption codes:\n\n", greeting)
	for _, code := range order.DeliveredCodes {
		fmt.Fprintf(&b, "  %s\n", code)
	}
	fmt.Fprintf(&b, "\nOrder total: %d %s\n\nEnjoy,\nThe %s team\n",
		order.TotalCents, strings.ToUpper(order.Currency), siteName)

	return subject, b.String()
}
