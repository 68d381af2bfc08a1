package service

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bluecodes/game-codes-store/shared/models"
	"github.com/bluecodes/game-codes-store/store-service/payment"
	"github.com/bluecodes/game-codes-store/store-service/store"
)

// In-memory stand-ins for the document store. The code fake guards its claim
// with a mutex so the concurrency tests exercise real contention.

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]models.User{}}
}

func (f *fakeUserStore) InsertUser(_ context.Context, user *models.User) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.Email]; ok {
		return "", errors.New("duplicate email")
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	f.users[user.Email] = *user
	return user.ID.Hex(), nil
}

func (f *fakeUserStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &user, nil
}

type fakeProductStore struct {
	mu       sync.Mutex
	products map[string]models.Product
	patches  map[string]store.ProductPatch
}

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{
		products: map[string]models.Product{},
		patches:  map[string]store.ProductPatch{},
	}
}

func (f *fakeProductStore) InsertProduct(_ context.Context, product *models.Product) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	f.products[product.ID.Hex()] = *product
	return product.ID.Hex(), nil
}

func (f *fakeProductStore) FindProducts(_ context.Context, filter store.ProductFilter, limit int64) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Product
	for _, p := range f.products {
		if int64(len(out)) == limit {
			break
		}
		if filter.ActiveOnly && !p.Active {
			continue
		}
		if filter.Game != "" && p.Game != filter.Game {
			continue
		}
		if filter.RewardType != "" && p.RewardType != filter.RewardType {
			continue
		}
		if filter.MinPrice != nil && p.PriceCents < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && p.PriceCents > *filter.MaxPrice {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProductStore) FindProductByID(_ context.Context, id string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProductStore) UpdateProduct(_ context.Context, id string, patch store.ProductPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return store.ErrNotFound
	}
	f.patches[id] = patch
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.PriceCents != nil {
		p.PriceCents = *patch.PriceCents
	}
	if patch.Active != nil {
		p.Active = *patch.Active
	}
	f.products[id] = p
	return nil
}

type fakeCodeStore struct {
	mu    sync.Mutex
	codes []models.CodeKey
}

func newFakeCodeStore() *fakeCodeStore {
	return &fakeCodeStore{}
}

func (f *fakeCodeStore) addCodes(productID string, codes ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, code := range codes {
		f.codes = append(f.codes, models.CodeKey{
			ID:        primitive.NewObjectID(),
			ProductID: productID,
			Code:      code,
		})
	}
}

func (f *fakeCodeStore) InsertCodes(_ context.Context, codes []models.CodeKey) ([]string, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var inserted []string
	skipped := 0
	for _, code := range codes {
		duplicate := false
		for _, existing := range f.codes {
			if existing.ProductID == code.ProductID && existing.Code == code.Code {
				duplicate = true
				break
			}
		}
		if duplicate {
			skipped++
			continue
		}
		if code.ID.IsZero() {
			code.ID = primitive.NewObjectID()
		}
		f.codes = append(f.codes, code)
		inserted = append(inserted, code.ID.Hex())
	}
	return inserted, skipped, nil
}

func (f *fakeCodeStore) ClaimCode(_ context.Context, productID, orderID string) (*models.CodeKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.codes {
		if f.codes[i].ProductID == productID && !f.codes[i].Assigned {
			f.codes[i].Assigned = true
			f.codes[i].OrderID = orderID
			claimed := f.codes[i]
			return &claimed, nil
		}
	}
	return nil, store.ErrNoCodeAvailable
}

func (f *fakeCodeStore) ReleaseCodesByID(_ context.Context, ids []primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var released int64
	for i := range f.codes {
		for _, id := range ids {
			if f.codes[i].ID == id && f.codes[i].Assigned {
				f.codes[i].Assigned = false
				f.codes[i].OrderID = ""
				released++
			}
		}
	}
	return released, nil
}

func (f *fakeCodeStore) assignedTo(orderID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, code := range f.codes {
		if code.Assigned && code.OrderID == orderID {
			out = append(out, code.Code)
		}
	}
	return out
}

type fakeOrderStore struct {
	mu     sync.Mutex
	orders map[string]models.Order
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: map[string]models.Order{}}
}

func (f *fakeOrderStore) InsertOrder(_ context.Context, order *models.Order) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	f.orders[order.ID.Hex()] = *order
	return order.ID.Hex(), nil
}

func (f *fakeOrderStore) FindOrderByID(_ context.Context, id string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &order, nil
}

func (f *fakeOrderStore) FindOrders(_ context.Context, filter store.OrderFilter, limit int64) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, order := range f.orders {
		if int64(len(out)) == limit {
			break
		}
		if filter.Email != "" && order.Email != filter.Email {
			continue
		}
		out = append(out, order)
	}
	return out, nil
}

func (f *fakeOrderStore) SetOrderPaymentIntent(_ context.Context, id, intentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return store.ErrNotFound
	}
	order.PaymentIntentID = intentID
	f.orders[id] = order
	return nil
}

func (f *fakeOrderStore) MarkOrderFulfilled(_ context.Context, id string, codes []string, provider string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok || order.Status != models.OrderStatusPending {
		return store.ErrNotFound
	}
	order.Status = models.OrderStatusFulfilled
	order.DeliveredCodes = codes
	order.PaymentProvider = provider
	f.orders[id] = order
	return nil
}

type fakeIntentCreator struct {
	intent *payment.Intent
	err    error
	calls  int
}

func (f *fakeIntentCreator) CreateIntent(_ context.Context, _ int64, _ string) (*payment.Intent, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.intent, nil
}

type fakeEvents struct {
	mu        sync.Mutex
	created   []string
	fulfilled []string
}

func (f *fakeEvents) OrderCreated(_ context.Context, order *models.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, order.ID.Hex())
}

func (f *fakeEvents) OrderFulfilled(_ context.Context, order *models.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fulfilled = append(f.fulfilled, order.ID.Hex())
}

type fakeContactStore struct {
	mu       sync.Mutex
	messages []models.ContactMessage
}

func (f *fakeContactStore) InsertContactMessage(_ context.Context, msg *models.ContactMessage) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	f.messages = append(f.messages, *msg)
	return msg.ID.Hex(), nil
}
