package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusRefunded  OrderStatus = "refunded"
	OrderStatusFulfilled OrderStatus = "fulfilled"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Product is a digital-game-code listing in the catalog.
type Product struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Game        string             `bson:"game" json:"game"`
	RewardType  string             `bson:"reward_type" json:"reward_type"`
	Description string             `bson:"description" json:"description"`
	Images      []string           `bson:"images" json:"images"`
	PriceCents  int64              `bson:"price_cents" json:"price_cents"`
	Currency    string             `bson:"currency" json:"currency"`
	Active      bool               `bson:"active" json:"active"`
	Tags        []string           `bson:"tags" json:"tags"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// CodeKey is a single-use redemption code held in inventory for a product.
// Once assigned it belongs to exactly one order and is never reused.
type CodeKey struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	ProductID string             `bson:"product_id" json:"product_id"`
	Code      string             `bson:"code" json:"code"`
	Assigned  bool               `bson:"assigned" json:"assigned"`
	OrderID   string             `bson:"order_id,omitempty" json:"order_id,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

type CartItem struct {
	ProductID string `bson:"product_id" json:"product_id"`
	Quantity  int    `bson:"quantity" json:"quantity"`
}

type Order struct {
	ID              primitive.ObjectID `bson:"_id" json:"id"`
	UserID          string             `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Email           string             `bson:"email" json:"email"`
	Name            string             `bson:"name,omitempty" json:"name,omitempty"`
	Items           []CartItem         `bson:"items" json:"items"`
	SubtotalCents   int64              `bson:"subtotal_cents" json:"subtotal_cents"`
	TotalCents      int64              `bson:"total_cents" json:"total_cents"`
	Currency        string             `bson:"currency" json:"currency"`
	PaymentIntentID string             `bson:"payment_intent_id,omitempty" json:"payment_intent_id,omitempty"`
	PaymentProvider string             `bson:"payment_provider,omitempty" json:"payment_provider,omitempty"`
	Status          OrderStatus        `bson:"status" json:"status"`
	DeliveredCodes  []string           `bson:"delivered_codes" json:"delivered_codes"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}

type User struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	Email        string             `bson:"email" json:"email"`
	Name         string             `bson:"name,omitempty" json:"name,omitempty"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         string             `bson:"role" json:"role"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

type ContactMessage struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Email     string             `bson:"email" json:"email"`
	Subject   string             `bson:"subject" json:"subject"`
	Message   string             `bson:"message" json:"message"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// FavoriteProfile is a bookmarked game character for the stats helper.
type FavoriteProfile struct {
	ID         primitive.ObjectID     `bson:"_id" json:"id"`
	Game       string                 `bson:"game" json:"game"`
	Label      string                 `bson:"label" json:"label"`
	Identifier string                 `bson:"identifier" json:"identifier"`
	Payload    map[string]interface{} `bson:"payload" json:"payload"`
	CreatedAt  time.Time              `bson:"created_at" json:"created_at"`
}

// SearchLog records the outcome of every stats lookup, success or failure.
type SearchLog struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Game      string             `bson:"game" json:"game"`
	Query     map[string]string  `bson:"query" json:"query"`
	ResultOK  bool               `bson:"result_ok" json:"result_ok"`
	Note      string             `bson:"note,omitempty" json:"note,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

type EmailStatus string

const (
	EmailStatusSent   EmailStatus = "sent"
	EmailStatusFailed EmailStatus = "failed"
)

// EmailLog records each code-delivery email attempt made by the
// notification worker.
type EmailLog struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	OrderID   string             `bson:"order_id" json:"order_id"`
	Recipient string             `bson:"recipient" json:"recipient"`
	Subject   string             `bson:"subject" json:"subject"`
	Status    EmailStatus        `bson:"status" json:"status"`
	Note      string             `bson:"note,omitempty" json:"note,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
