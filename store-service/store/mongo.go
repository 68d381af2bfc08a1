// Package store is the storefront's document-store boundary. Every query is
// expressed through a typed filter or patch struct and compiled to a bson
// document here, nowhere else.
package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bluecodes/game-codes-store/shared/models"
)

const (
	collProducts = "product"
	collCodes    = "codekey"
	collOrders   = "order"
	collUsers    = "user"
	collContact  = "contact"
)

// ErrNoCodeAvailable is returned by ClaimCode when the product has no
// unassigned codes left.
var ErrNoCodeAvailable = errors.New("no unassigned code available")

// ErrNotFound is returned when a lookup by id matches no document.
var ErrNotFound = errors.New("document not found")

type Store struct {
	db *mongo.Database
}

func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

// EnsureIndexes creates the unique indexes the storefront relies on:
// one account per email, and no duplicate code string within a product.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(collUsers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = s.db.Collection(collCodes).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "product_id", Value: 1}, {Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

// IsDuplicate reports whether err is a unique-index violation.
func IsDuplicate(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

// --- products ---

// ProductFilter narrows a catalog listing. Zero-valued fields are ignored.
type ProductFilter struct {
	Game       string
	RewardType string
	MinPrice   *int64
	MaxPrice   *int64
	ActiveOnly bool
}

func (f ProductFilter) toBSON() bson.M {
	q := bson.M{}
	if f.ActiveOnly {
		q["active"] = true
	}
	if f.Game != "" {
		q["game"] = f.Game
	}
	if f.RewardType != "" {
		q["reward_type"] = f.RewardType
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		price := bson.M{}
		if f.MinPrice != nil {
			price["$gte"] = *f.MinPrice
		}
		if f.MaxPrice != nil {
			price["$lte"] = *f.MaxPrice
		}
		q["price_cents"] = price
	}
	return q
}

// ProductPatch is a merge-patch over a product: only non-nil fields are
// written, everything else is left untouched.
type ProductPatch struct {
	Title       *string
	Game        *string
	RewardType  *string
	Description *string
	Images      *[]string
	PriceCents  *int64
	Currency    *string
	Active      *bool
	Tags        *[]string
}

func (p ProductPatch) toSet() bson.M {
	set := bson.M{}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Game != nil {
		set["game"] = *p.Game
	}
	if p.RewardType != nil {
		set["reward_type"] = *p.RewardType
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Images != nil {
		set["images"] = *p.Images
	}
	if p.PriceCents != nil {
		set["price_cents"] = *p.PriceCents
	}
	if p.Currency != nil {
		set["currency"] = *p.Currency
	}
	if p.Active != nil {
		set["active"] = *p.Active
	}
	if p.Tags != nil {
		set["tags"] = *p.Tags
	}
	return set
}

// IsEmpty reports whether the patch would change nothing.
func (p ProductPatch) IsEmpty() bool {
	return len(p.toSet()) == 0
}

func (s *Store) InsertProduct(ctx context.Context, product *models.Product) (string, error) {
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	_, err := s.db.Collection(collProducts).InsertOne(ctx, product)
	if err != nil {
		return "", err
	}
	return product.ID.Hex(), nil
}

func (s *Store) FindProducts(ctx context.Context, filter ProductFilter, limit int64) ([]models.Product, error) {
	cursor, err := s.db.Collection(collProducts).Find(ctx, filter.toBSON(), options.Find().SetLimit(limit))
	if err != nil {
		return nil, err
	}

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) FindProductByID(ctx context.Context, id string) (*models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var product models.Product
	err = s.db.Collection(collProducts).FindOne(ctx, bson.M{"_id": oid}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (s *Store) UpdateProduct(ctx context.Context, id string, patch ProductPatch) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	set := patch.toSet()
	set["updated_at"] = time.Now()

	res, err := s.db.Collection(collProducts).UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// --- code keys ---

// InsertCodes bulk-inserts code keys unordered. Codes that collide with the
// unique (product_id, code) index are skipped rather than failing the batch.
func (s *Store) InsertCodes(ctx context.Context, codes []models.CodeKey) (inserted []string, skipped int, err error) {
	docs := make([]interface{}, 0, len(codes))
	for i := range codes {
		if codes[i].ID.IsZero() {
			codes[i].ID = primitive.NewObjectID()
		}
		docs = append(docs, codes[i])
	}

	_, err = s.db.Collection(collCodes).InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))

	failed := map[int]bool{}
	if err != nil {
		var bulkErr mongo.BulkWriteException
		if !errors.As(err, &bulkErr) {
			return nil, 0, err
		}
		for _, we := range bulkErr.WriteErrors {
			if !mongo.IsDuplicateKeyError(we.WriteError) {
				return nil, 0, err
			}
			failed[we.Index] = true
		}
	}

	for i := range codes {
		if failed[i] {
			skipped++
			continue
		}
		inserted = append(inserted, codes[i].ID.Hex())
	}
	return inserted, skipped, nil
}

// ClaimCode atomically assigns one unassigned code of the product to the
// order. The conditional update is the mutual exclusion: two concurrent
// claims can never select the same document, in-process or across processes.
func (s *Store) ClaimCode(ctx context.Context, productID, orderID string) (*models.CodeKey, error) {
	var code models.CodeKey
	err := s.db.Collection(collCodes).FindOneAndUpdate(ctx,
		bson.M{"product_id": productID, "assigned": false},
		bson.M{"$set": bson.M{
			"assigned":   true,
			"order_id":   orderID,
			"updated_at": time.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&code)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNoCodeAvailable
		}
		return nil, err
	}
	return &code, nil
}

// ReleaseCodesByID returns the given codes back to inventory. Used to roll
// back a confirmation that could not be fully satisfied. Scoping the release
// to the exact documents claimed keeps a concurrent confirmation of the same
// order from losing codes it already delivered.
func (s *Store) ReleaseCodesByID(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.db.Collection(collCodes).UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "assigned": true},
		bson.M{"$set": bson.M{
			"assigned":   false,
			"updated_at": time.Now(),
		}, "$unset": bson.M{"order_id": ""}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// --- orders ---

// OrderFilter narrows an order listing. The zero value matches everything.
type OrderFilter struct {
	Email string
}

func (f OrderFilter) toBSON() bson.M {
	q := bson.M{}
	if f.Email != "" {
		q["email"] = f.Email
	}
	return q
}

func (s *Store) InsertOrder(ctx context.Context, order *models.Order) (string, error) {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	_, err := s.db.Collection(collOrders).InsertOne(ctx, order)
	if err != nil {
		return "", err
	}
	return order.ID.Hex(), nil
}

func (s *Store) FindOrderByID(ctx context.Context, id string) (*models.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var order models.Order
	err = s.db.Collection(collOrders).FindOne(ctx, bson.M{"_id": oid}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (s *Store) FindOrders(ctx context.Context, filter OrderFilter, limit int64) ([]models.Order, error) {
	cursor, err := s.db.Collection(collOrders).Find(ctx, filter.toBSON(), options.Find().SetLimit(limit))
	if err != nil {
		return nil, err
	}

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *Store) SetOrderPaymentIntent(ctx context.Context, id, intentID string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	_, err = s.db.Collection(collOrders).UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{
			"payment_intent_id": intentID,
			"updated_at":        time.Now(),
		}},
	)
	return err
}

// MarkOrderFulfilled transitions the order to fulfilled with its delivered
// codes and the payment provider the caller confirmed with. Only pending
// orders match, so a lost race leaves the document alone.
func (s *Store) MarkOrderFulfilled(ctx context.Context, id string, codes []string, provider string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	set := bson.M{
		"status":          models.OrderStatusFulfilled,
		"delivered_codes": codes,
		"updated_at":      time.Now(),
	}
	if provider != "" {
		set["payment_provider"] = provider
	}

	res, err := s.db.Collection(collOrders).UpdateOne(ctx,
		bson.M{"_id": oid, "status": models.OrderStatusPending},
		bson.M{"$set": set},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// --- users ---

func (s *Store) InsertUser(ctx context.Context, user *models.User) (string, error) {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	_, err := s.db.Collection(collUsers).InsertOne(ctx, user)
	if err != nil {
		return "", err
	}
	return user.ID.Hex(), nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.Collection(collUsers).FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// --- contact ---

func (s *Store) InsertContactMessage(ctx context.Context, msg *models.ContactMessage) (string, error) {
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	_, err := s.db.Collection(collContact).InsertOne(ctx, msg)
	if err != nil {
		return "", err
	}
	return msg.ID.Hex(), nil
}
