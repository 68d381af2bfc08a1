package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluecodes/game-codes-store/shared/apperr"
	"github.com/bluecodes/game-codes-store/shared/models"
	"github.com/bluecodes/game-codes-store/store-service/payment"
)

func seedProduct(t *testing.T, products *fakeProductStore, priceCents int64, currency string) string {
	t.Helper()
	id, err := products.InsertProduct(context.Background(), &models.Product{
		Title:      "Test Product",
		Game:       "Fortnite",
		RewardType: "skin",
		PriceCents: priceCents,
		Currency:   currency,
		Active:     true,
	})
	require.NoError(t, err)
	return id
}

func newCheckoutFixture() (*fakeProductStore, *fakeOrderStore, *fakeCodeStore, *CheckoutService) {
	products := newFakeProductStore()
	orders := newFakeOrderStore()
	codes := newFakeCodeStore()
	checkout := NewCheckoutService(products, orders, NewInventoryService(codes), nil, nil)
	return products, orders, codes, checkout
}

func TestInitCheckoutComputesTotals(t *testing.T) {
	products, orders, _, checkout := newCheckoutFixture()
	productID := seedProduct(t, products, 1999, "usd")

	result, err := checkout.InitCheckout(context.Background(), InitCheckoutInput{
		Items: []models.CartItem{{ProductID: productID, Quantity: 2}},
		Email: "buyer@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3998), result.TotalCents)
	assert.Nil(t, result.ClientSecret)

	order, err := orders.FindOrderByID(context.Background(), result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, int64(3998), order.SubtotalCents)
	assert.Equal(t, order.SubtotalCents, order.TotalCents)
	assert.Equal(t, "usd", order.Currency)
}

func TestInitCheckoutMultipleItems(t *testing.T) {
	products, _, _, checkout := newCheckoutFixture()
	first := seedProduct(t, products, 1999, "usd")
	second := seedProduct(t, products, 1999, "usd")

	result, err := checkout.InitCheckout(context.Background(), InitCheckoutInput{
		Items: []models.CartItem{
			{ProductID: first, Quantity: 1},
			{ProductID: second, Quantity: 1},
		},
		Email: "buyer@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3998), result.TotalCents)
}

func TestInitCheckoutInvalidProduct(t *testing.T) {
	_, _, _, checkout := newCheckoutFixture()

	_, err := checkout.InitCheckout(context.Background(), InitCheckoutInput{
		Items: []models.CartItem{{ProductID: "missing-product", Quantity: 1}},
		Email: "buyer@example.com",
	})

	var apiErr *apperr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
	assert.Equal(t, "Invalid product missing-product", apiErr.Message)
}

func TestInitCheckoutRejectsMixedCurrencies(t *testing.T) {
	products, _, _, checkout := newCheckoutFixture()
	usd := seedProduct(t, products, 1000, "usd")
	eur := seedProduct(t, products, 1000, "eur")

	_, err := checkout.InitCheckout(context.Background(), InitCheckoutInput{
		Items: []models.CartItem{
			{ProductID: usd, Quantity: 1},
			{ProductID: eur, Quantity: 1},
		},
		Email: "buyer@example.com",
	})

	var apiErr *apperr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
}

func TestInitCheckoutPaymentIntentFailureDegrades(t *testing.T) {
	products := newFakeProductStore()
	orders := newFakeOrderStore()
	payments := &fakeIntentCreator{err: errors.New("provider unreachable")}
	checkout := NewCheckoutService(products, orders, NewInventoryService(newFakeCodeStore()), payments, nil)
	productID := seedProduct(t, products, 500, "usd")

	result, err := checkout.InitCheckout(context.Background(), InitCheckoutInput{
		Items: []models.CartItem{{ProductID: productID, Quantity: 1}},
		Email: "buyer@example.com",
	})
	require.NoError(t, err)
	assert.Nil(t, result.ClientSecret)
	assert.Equal(t, 1, payments.calls)

	// the order was still created
	order, err := orders.FindOrderByID(context.Background(), result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
}

func TestInitCheckoutStoresPaymentIntent(t *testing.T) {
	products := newFakeProductStore()
	orders := newFakeOrderStore()
	payments := &fakeIntentCreator{intent: &payment.Intent{ID: "pi_123", ClientSecret: "pi_123_secret"}}
	events := &fakeEvents{}
	checkout := NewCheckoutService(products, orders, NewInventoryService(newFakeCodeStore()), payments, events)
	productID := seedProduct(t, products, 500, "usd")

	result, err := checkout.InitCheckout(context.Background(), InitCheckoutInput{
		Items: []models.CartItem{{ProductID: productID, Quantity: 1}},
		Email: "buyer@example.com",
	})
	require.NoError(t, err)
	require.NotNil(t, result.ClientSecret)
	assert.Equal(t, "pi_123_secret", *result.ClientSecret)

	order, err := orders.FindOrderByID(context.Background(), result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "pi_123", order.PaymentIntentID)
	assert.Len(t, events.created, 1)
}

func TestConfirmCheckoutAllocatesCodes(t *testing.T) {
	products, orders, codes, checkout := newCheckoutFixture()
	productID := seedProduct(t, products, 1999, "usd")
	codes.addCodes(productID, "CODE-1", "CODE-2", "CODE-3")

	initResult, err := checkout.InitCheckout(context.Background(), InitCheckoutInput{
		Items: []models.CartItem{{ProductID: productID, Quantity: 2}},
		Email: "buyer@example.com",
	})
	require.NoError(t, err)

	result, err := checkout.ConfirmCheckout(context.Background(), initResult.OrderID, "stripe")
	require.NoError(t, err)
	require.Len(t, result.Codes, 2)

	seen := map[string]bool{}
	for _, code := range result.Codes {
		assert.False(t, seen[code], "code %s returned twice", code)
		seen[code] = true
	}

	order, err := orders.FindOrderByID(context.Background(), initResult.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusFulfilled, order.Status)
	assert.Equal(t, result.Codes, order.DeliveredCodes)
	assert.Equal(t, "stripe", order.PaymentProvider)
	assert.ElementsMatch(t, result.Codes, codes.assignedTo(initResult.OrderID))
}

func TestConfirmCheckoutInsufficientStockRollsBack(t *testing.T) {
	products, orders, codes, checkout := newCheckoutFixture()
	inStock := seedProduct(t, products, 1000, "usd")
	outOfStock := seedProduct(t, products, 1000, "usd")
	codes.addCodes(inStock, "A-1", "A-2")
	codes.addCodes(outOfStock, "B-1")

	initResult, err := checkout.InitCheckout(context.Background(), InitCheckoutInput{
		Items: []models.CartItem{
			{ProductID: inStock, Quantity: 2},
			{ProductID: outOfStock, Quantity: 2},
		},
		Email: "buyer@example.com",
	})
	require.NoError(t, err)

	_, err = checkout.ConfirmCheckout(context.Background(), initResult.OrderID, "stripe")
	var apiErr *apperr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.Status)
	assert.Equal(t, "Insufficient stock", apiErr.Message)

	// nothing is committed: the order stays pending and holds no codes
	order, err := orders.FindOrderByID(context.Background(), initResult.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Empty(t, codes.assignedTo(initResult.OrderID))
}

func TestConfirmCheckoutUnknownOrder(t *testing.T) {
	_, _, _, checkout := newCheckoutFixture()

	_, err := checkout.ConfirmCheckout(context.Background(), "missing-order", "stripe")
	var apiErr *apperr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
}

func TestConfirmCheckoutIdempotentOnFulfilledOrder(t *testing.T) {
	products, _, codes, checkout := newCheckoutFixture()
	productID := seedProduct(t, products, 1999, "usd")
	codes.addCodes(productID, "CODE-1", "CODE-2")

	initResult, err := checkout.InitCheckout(context.Background(), InitCheckoutInput{
		Items: []models.CartItem{{ProductID: productID, Quantity: 1}},
		Email: "buyer@example.com",
	})
	require.NoError(t, err)

	first, err := checkout.ConfirmCheckout(context.Background(), initResult.OrderID, "stripe")
	require.NoError(t, err)

	second, err := checkout.ConfirmCheckout(context.Background(), initResult.OrderID, "stripe")
	require.NoError(t, err)
	assert.Equal(t, first.Codes, second.Codes)

	// the retry claimed nothing new
	assert.Len(t, codes.assignedTo(initResult.OrderID), 1)
}

// staleOrderStore serves a captured snapshot on the next read, mimicking a
// confirmation that read the order before a concurrent one fulfilled it.
type staleOrderStore struct {
	*fakeOrderStore
	mu    sync.Mutex
	stale *models.Order
}

func (s *staleOrderStore) FindOrderByID(ctx context.Context, id string) (*models.Order, error) {
	s.mu.Lock()
	stale := s.stale
	s.stale = nil
	s.mu.Unlock()
	if stale != nil && stale.ID.Hex() == id {
		snapshot := *stale
		return &snapshot, nil
	}
	return s.fakeOrderStore.FindOrderByID(ctx, id)
}

func TestConfirmCheckoutLostRaceKeepsDeliveredCodes(t *testing.T) {
	products := newFakeProductStore()
	orders := &staleOrderStore{fakeOrderStore: newFakeOrderStore()}
	codes := newFakeCodeStore()
	checkout := NewCheckoutService(products, orders, NewInventoryService(codes), nil, nil)

	productID := seedProduct(t, products, 1999, "usd")
	codes.addCodes(productID, "C-1", "C-2")

	initResult, err := checkout.InitCheckout(context.Background(), InitCheckoutInput{
		Items: []models.CartItem{{ProductID: productID, Quantity: 1}},
		Email: "buyer@example.com",
	})
	require.NoError(t, err)

	pending, err := orders.FindOrderByID(context.Background(), initResult.OrderID)
	require.NoError(t, err)

	first, err := checkout.ConfirmCheckout(context.Background(), initResult.OrderID, "stripe")
	require.NoError(t, err)
	require.Equal(t, []string{"C-1"}, first.Codes)

	// the retry read the order while it was still pending, claims C-2 and
	// loses the status-guarded fulfill
	orders.stale = pending
	second, err := checkout.ConfirmCheckout(context.Background(), initResult.OrderID, "stripe")
	require.NoError(t, err)
	assert.Equal(t, first.Codes, second.Codes)

	// the delivered code stays with the order; only the extra claim is undone
	assert.Equal(t, []string{"C-1"}, codes.assignedTo(initResult.OrderID))

	claimed, err := codes.ClaimCode(context.Background(), productID, "another-order")
	require.NoError(t, err)
	assert.Equal(t, "C-2", claimed.Code)
}

func TestConfirmCheckoutPersistsProvider(t *testing.T) {
	products, orders, codes, checkout := newCheckoutFixture()
	productID := seedProduct(t, products, 500, "usd")
	codes.addCodes(productID, "CODE-1")

	initResult, err := checkout.InitCheckout(context.Background(), InitCheckoutInput{
		Items: []models.CartItem{{ProductID: productID, Quantity: 1}},
		Email: "buyer@example.com",
	})
	require.NoError(t, err)

	_, err = checkout.ConfirmCheckout(context.Background(), initResult.OrderID, "paypal")
	require.NoError(t, err)

	order, err := orders.FindOrderByID(context.Background(), initResult.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "paypal", order.PaymentProvider)
}

func TestInitCheckoutLinksAuthenticatedUser(t *testing.T) {
	products, orders, _, checkout := newCheckoutFixture()
	productID := seedProduct(t, products, 500, "usd")

	result, err := checkout.InitCheckout(context.Background(), InitCheckoutInput{
		Items:  []models.CartItem{{ProductID: productID, Quantity: 1}},
		Email:  "buyer@example.com",
		UserID: "user-42",
	})
	require.NoError(t, err)

	order, err := orders.FindOrderByID(context.Background(), result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "user-42", order.UserID)
}

func TestConcurrentConfirmationsNeverShareCodes(t *testing.T) {
	products, _, codes, checkout := newCheckoutFixture()
	productID := seedProduct(t, products, 1999, "usd")
	codes.addCodes(productID, "LAST-1", "LAST-2")

	// two pending orders both want both remaining codes
	var orderIDs [2]string
	for i := range orderIDs {
		initResult, err := checkout.InitCheckout(context.Background(), InitCheckoutInput{
			Items: []models.CartItem{{ProductID: productID, Quantity: 2}},
			Email: "buyer@example.com",
		})
		require.NoError(t, err)
		orderIDs[i] = initResult.OrderID
	}

	results := make([][]string, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if result, err := checkout.ConfirmCheckout(context.Background(), orderIDs[i], "stripe"); err == nil {
				results[i] = result.Codes
			}
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	total := 0
	for _, allocated := range results {
		for _, code := range allocated {
			assert.False(t, seen[code], "code %s allocated to both orders", code)
			seen[code] = true
			total++
		}
	}
	assert.LessOrEqual(t, total, 2)

	// a losing order keeps nothing
	for i, allocated := range results {
		if len(allocated) == 0 {
			assert.Empty(t, codes.assignedTo(orderIDs[i]))
		}
	}
}
