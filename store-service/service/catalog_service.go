package service

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/bluecodes/game-codes-store/shared/apperr"
	"github.com/bluecodes/game-codes-store/shared/models"
	"github.com/bluecodes/game-codes-store/store-service/store"
)

const maxProductsPerListing = 100

// ProductStore is the slice of the document store the catalog needs.
type ProductStore interface {
	InsertProduct(ctx context.Context, product *models.Product) (string, error)
	FindProducts(ctx context.Context, filter store.ProductFilter, limit int64) ([]models.Product, error)
	FindProductByID(ctx context.Context, id string) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, patch store.ProductPatch) error
}

type CatalogService struct {
	products ProductStore
}

// creates a new instance of CatalogService
func NewCatalogService(products ProductStore) *CatalogService {
	return &CatalogService{products: products}
}

type CreateProductInput struct {
	Title       string
	Game        string
	RewardType  string
	Description string
	Images      []string
	PriceCents  int64
	Currency    string
	Active      bool
	Tags        []string
}

func (s *CatalogService) CreateProduct(ctx context.Context, input CreateProductInput) (string, error) {
	if input.PriceCents < 0 {
		return "", apperr.BadRequest("price_cents must be non-negative")
	}
	currency := input.Currency
	if currency == "" {
		currency = "usd"
	}
	images := input.Images
	if images == nil {
		images = []string{}
	}
	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}

	now := time.Now()
	product := &models.Product{
		Title:       input.Title,
		Game:        input.Game,
		RewardType:  input.RewardType,
		Description: input.Description,
		Images:      images,
		PriceCents:  input.PriceCents,
		Currency:    currency,
		Active:      input.Active,
		Tags:        tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	id, err := s.products.InsertProduct(ctx, product)
	if err != nil {
		return "", err
	}

	log.WithFields(log.Fields{"product_id": id, "title": input.Title}).Info("Created product")
	return id, nil
}

type ListProductsInput struct {
	Game       string
	RewardType string
	MinPrice   *int64
	MaxPrice   *int64
}

// ListProducts returns up to 100 active products matching the filters.
func (s *CatalogService) ListProducts(ctx context.Context, input ListProductsInput) ([]models.Product, error) {
	filter := store.ProductFilter{
		Game:       input.Game,
		RewardType: input.RewardType,
		MinPrice:   input.MinPrice,
		MaxPrice:   input.MaxPrice,
		ActiveOnly: true,
	}

	products, err := s.products.FindProducts(ctx, filter, maxProductsPerListing)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.products.FindProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Product not found")
		}
		return nil, err
	}
	return product, nil
}

// UpdateProduct applies a merge-patch: only the fields present in the patch
// change, everything else keeps its stored value.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, patch store.ProductPatch) error {
	if patch.IsEmpty() {
		return apperr.BadRequest("No fields to update")
	}
	if patch.PriceCents != nil && *patch.PriceCents < 0 {
		return apperr.BadRequest("price_cents must be non-negative")
	}

	if err := s.products.UpdateProduct(ctx, id, patch); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("Product not found")
		}
		return err
	}

	log.WithField("product_id", id).Info("Updated product")
	return nil
}
