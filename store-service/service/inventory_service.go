package service

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bluecodes/game-codes-store/shared/models"
	"github.com/bluecodes/game-codes-store/store-service/store"
)

// CodeStore is the slice of the document store holding redemption codes.
type CodeStore interface {
	InsertCodes(ctx context.Context, codes []models.CodeKey) (inserted []string, skipped int, err error)
	ClaimCode(ctx context.Context, productID, orderID string) (*models.CodeKey, error)
	ReleaseCodesByID(ctx context.Context, ids []primitive.ObjectID) (int64, error)
}

type InventoryService struct {
	codes CodeStore
}

// creates a new instance of InventoryService
func NewInventoryService(codes CodeStore) *InventoryService {
	return &InventoryService{codes: codes}
}

type AddCodesResult struct {
	Inserted []string `json:"inserted"`
	Skipped  int      `json:"skipped"`
}

// AddCodes imports a batch of redemption codes for a product. Codes already
// present for the product are skipped, not re-imported.
func (s *InventoryService) AddCodes(ctx context.Context, productID string, codes []string) (*AddCodesResult, error) {
	now := time.Now()
	docs := make([]models.CodeKey, 0, len(codes))
	for _, code := range codes {
		docs = append(docs, models.CodeKey{
			ProductID: productID,
			Code:      code,
			Assigned:  false,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	inserted, skipped, err := s.codes.InsertCodes(ctx, docs)
	if err != nil {
		return nil, err
	}
	if inserted == nil {
		inserted = []string{}
	}

	log.WithFields(log.Fields{
		"product_id": productID,
		"inserted":   len(inserted),
		"skipped":    skipped,
	}).Info("Imported code keys")

	return &AddCodesResult{Inserted: inserted, Skipped: skipped}, nil
}

// Reserve claims up to quantity unassigned codes of the product for the
// order, one atomic conditional update per code. It may return fewer than
// requested; the caller decides whether a shortfall is fatal.
func (s *InventoryService) Reserve(ctx context.Context, productID, orderID string, quantity int) ([]models.CodeKey, error) {
	claimed := make([]models.CodeKey, 0, quantity)
	for i := 0; i < quantity; i++ {
		code, err := s.codes.ClaimCode(ctx, productID, orderID)
		if err != nil {
			if errors.Is(err, store.ErrNoCodeAvailable) {
				break
			}
			return claimed, err
		}
		claimed = append(claimed, *code)
	}
	return claimed, nil
}

// Release returns the given codes to inventory. Releasing by id, not by
// order, means a rollback can only undo the claims it made itself.
func (s *InventoryService) Release(ctx context.Context, ids []primitive.ObjectID) error {
	released, err := s.codes.ReleaseCodesByID(ctx, ids)
	if err != nil {
		return err
	}
	if released > 0 {
		log.WithField("released", released).Info("Released reserved codes")
	}
	return nil
}
