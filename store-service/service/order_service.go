package service

import (
	"context"
	"time"

	"github.com/bluecodes/game-codes-store/shared/models"
	"github.com/bluecodes/game-codes-store/store-service/store"
)

const maxOrdersPerListing = 50

// OrderLister is the slice of the document store used for order history.
type OrderLister interface {
	FindOrders(ctx context.Context, filter store.OrderFilter, limit int64) ([]models.Order, error)
}

type OrderService struct {
	orders OrderLister
}

// creates a new instance of OrderService
func NewOrderService(orders OrderLister) *OrderService {
	return &OrderService{orders: orders}
}

// ListOrders returns the caller's own orders; admins see every order.
func (s *OrderService) ListOrders(ctx context.Context, identity *Identity) ([]models.Order, error) {
	filter := store.OrderFilter{}
	if identity.Role != models.RoleAdmin {
		filter.Email = identity.Email
	}

	orders, err := s.orders.FindOrders(ctx, filter, maxOrdersPerListing)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// ContactStore is the slice of the document store for contact messages.
type ContactStore interface {
	InsertContactMessage(ctx context.Context, msg *models.ContactMessage) (string, error)
}

type ContactService struct {
	messages ContactStore
}

// creates a new instance of ContactService
func NewContactService(messages ContactStore) *ContactService {
	return &ContactService{messages: messages}
}

func (s *ContactService) Submit(ctx context.Context, email, subject, message string) (string, error) {
	msg := &models.ContactMessage{
		Email:     email,
		Subject:   subject,
		Message:   message,
		CreatedAt: time.Now(),
	}
	return s.messages.InsertContactMessage(ctx, msg)
}
