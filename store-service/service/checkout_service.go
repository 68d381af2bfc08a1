package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bluecodes/game-codes-store/shared/apperr"
	"github.com/bluecodes/game-codes-store/shared/models"
	"github.com/bluecodes/game-codes-store/store-service/payment"
	"github.com/bluecodes/game-codes-store/store-service/store"
)

// OrderStore is the slice of the document store the checkout flow needs.
type OrderStore interface {
	InsertOrder(ctx context.Context, order *models.Order) (string, error)
	FindOrderByID(ctx context.Context, id string) (*models.Order, error)
	SetOrderPaymentIntent(ctx context.Context, id, intentID string) error
	MarkOrderFulfilled(ctx context.Context, id string, codes []string, provider string) error
}

// CodeReserver claims and releases redemption codes for an order.
type CodeReserver interface {
	Reserve(ctx context.Context, productID, orderID string, quantity int) ([]models.CodeKey, error)
	Release(ctx context.Context, ids []primitive.ObjectID) error
}

// IntentCreator opens a payment intent with the external provider.
type IntentCreator interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string) (*payment.Intent, error)
}

// OrderEvents publishes order lifecycle events for downstream consumers.
// Publishing is fire-and-forget; implementations must not fail the request.
type OrderEvents interface {
	OrderCreated(ctx context.Context, order *models.Order)
	OrderFulfilled(ctx context.Context, order *models.Order)
}

// CheckoutService drives the order state machine: pending at init,
// fulfilled once every line item has its full quantity of codes.
type CheckoutService struct {
	products  ProductStore
	orders    OrderStore
	inventory CodeReserver
	payments  IntentCreator
	events    OrderEvents
}

// creates a new instance of CheckoutService. payments and events may be nil
// when the respective integration is not configured.
func NewCheckoutService(products ProductStore, orders OrderStore, inventory CodeReserver, payments IntentCreator, events OrderEvents) *CheckoutService {
	return &CheckoutService{
		products:  products,
		orders:    orders,
		inventory: inventory,
		payments:  payments,
		events:    events,
	}
}

type InitCheckoutInput struct {
	Items  []models.CartItem
	Email  string
	Name   string
	UserID string
}

type InitCheckoutResult struct {
	OrderID      string  `json:"order_id"`
	TotalCents   int64   `json:"total_cents"`
	ClientSecret *string `json:"client_secret"`
}

// InitCheckout prices the cart, persists a pending order and, when a payment
// provider is configured, opens a payment intent for it. The intent call is
// best effort: any failure degrades to a response without a client secret.
func (s *CheckoutService) InitCheckout(ctx context.Context, input InitCheckoutInput) (*InitCheckoutResult, error) {
	if len(input.Items) == 0 {
		return nil, apperr.BadRequest("Cart is empty")
	}

	var subtotal int64
	currency := ""
	for _, item := range input.Items {
		if item.Quantity < 1 || item.Quantity > 10 {
			return nil, apperr.BadRequest("Quantity must be between 1 and 10")
		}

		product, err := s.products.FindProductByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, apperr.BadRequest(fmt.Sprintf("Invalid product %s", item.ProductID))
			}
			return nil, err
		}

		subtotal += product.PriceCents * int64(item.Quantity)
		if currency == "" {
			currency = product.Currency
		} else if currency != product.Currency {
			return nil, apperr.BadRequest("Mixed currencies in cart")
		}
	}
	total := subtotal // no taxes or discounts modeled

	now := time.Now()
	order := &models.Order{
		UserID:         input.UserID,
		Email:          input.Email,
		Name:           input.Name,
		Items:          input.Items,
		SubtotalCents:  subtotal,
		TotalCents:     total,
		Currency:       currency,
		Status:         models.OrderStatusPending,
		DeliveredCodes: []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	orderID, err := s.orders.InsertOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	var clientSecret *string
	if s.payments != nil {
		intent, err := s.payments.CreateIntent(ctx, total, currency)
		if err != nil {
			log.WithError(err).WithField("order_id", orderID).Warn("Payment intent creation failed, continuing without client secret")
		} else {
			clientSecret = &intent.ClientSecret
			if err := s.orders.SetOrderPaymentIntent(ctx, orderID, intent.ID); err != nil {
				log.WithError(err).WithField("order_id", orderID).Error("Failed to store payment intent id")
			}
		}
	}

	if s.events != nil {
		s.events.OrderCreated(ctx, order)
	}

	log.WithFields(log.Fields{"order_id": orderID, "total_cents": total}).Info("Created pending order")
	return &InitCheckoutResult{OrderID: orderID, TotalCents: total, ClientSecret: clientSecret}, nil
}

type ConfirmCheckoutResult struct {
	OrderID string   `json:"order_id"`
	Codes   []string `json:"codes"`
}

// ConfirmCheckout allocates codes to the order with all-or-nothing
// semantics. Every code is claimed by an atomic assign-if-unassigned update,
// so concurrent confirmations can never be handed the same code; if any line
// item falls short, everything claimed by this call is released and the order
// stays pending. The rollback is scoped to the exact code keys this call
// claimed: a confirmation that loses a race for the same order can never
// release codes another confirmation already delivered. Confirming an
// already fulfilled order returns its stored codes without touching
// inventory, so retries are safe.
func (s *CheckoutService) ConfirmCheckout(ctx context.Context, orderID, provider string) (*ConfirmCheckoutResult, error) {
	order, err := s.orders.FindOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Order not found")
		}
		return nil, err
	}

	if order.Status == models.OrderStatusFulfilled {
		return &ConfirmCheckoutResult{OrderID: orderID, Codes: order.DeliveredCodes}, nil
	}
	if order.Status != models.OrderStatusPending {
		return nil, apperr.Conflict(fmt.Sprintf("Order is %s", order.Status))
	}

	allocated := make([]string, 0)
	claimedIDs := make([]primitive.ObjectID, 0)
	for _, item := range order.Items {
		claimed, err := s.inventory.Reserve(ctx, item.ProductID, orderID, item.Quantity)
		for _, code := range claimed {
			claimedIDs = append(claimedIDs, code.ID)
		}
		if err != nil {
			s.rollback(ctx, orderID, claimedIDs)
			return nil, err
		}
		if len(claimed) < item.Quantity {
			s.rollback(ctx, orderID, claimedIDs)
			return nil, apperr.Conflict("Insufficient stock")
		}
		for _, code := range claimed {
			allocated = append(allocated, code.Code)
		}
	}

	if err := s.orders.MarkOrderFulfilled(ctx, orderID, allocated, provider); err != nil {
		s.rollback(ctx, orderID, claimedIDs)
		if errors.Is(err, store.ErrNotFound) {
			// Lost the status-guarded update to a concurrent confirmation.
			// Re-read and hand back whatever that confirmation delivered.
			current, readErr := s.orders.FindOrderByID(ctx, orderID)
			if readErr == nil && current.Status == models.OrderStatusFulfilled {
				return &ConfirmCheckoutResult{OrderID: orderID, Codes: current.DeliveredCodes}, nil
			}
			return nil, apperr.Conflict("Order is no longer pending")
		}
		return nil, err
	}

	if s.events != nil {
		order.Status = models.OrderStatusFulfilled
		order.DeliveredCodes = allocated
		order.PaymentProvider = provider
		order.UpdatedAt = time.Now()
		s.events.OrderFulfilled(ctx, order)
	}

	log.WithFields(log.Fields{"order_id": orderID, "codes": len(allocated)}).Info("Order fulfilled")
	return &ConfirmCheckoutResult{OrderID: orderID, Codes: allocated}, nil
}

// rollback releases the codes this confirmation claimed so a failed
// attempt commits nothing.
func (s *CheckoutService) rollback(ctx context.Context, orderID string, ids []primitive.ObjectID) {
	if err := s.inventory.Release(ctx, ids); err != nil {
		log.WithError(err).WithField("order_id", orderID).Error("Failed to release codes after aborted confirmation")
	}
}
