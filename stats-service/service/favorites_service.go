package service

import (
	"context"
	"time"

	"github.com/bluecodes/game-codes-store/shared/models"
)

const defaultFavoritesLimit = 50

// FavoriteStore is the slice of the document store holding bookmarks.
type FavoriteStore interface {
	InsertFavorite(ctx context.Context, fav *models.FavoriteProfile) (string, error)
	FindFavorites(ctx context.Context, limit int64) ([]models.FavoriteProfile, error)
}

type FavoritesService struct {
	favorites FavoriteStore
}

// creates a new instance of FavoritesService
func NewFavoritesService(favorites FavoriteStore) *FavoritesService {
	return &FavoritesService{favorites: favorites}
}

type AddFavoriteInput struct {
	Game       string
	Label      string
	Identifier string
	Payload    map[string]interface{}
}

func (s *FavoritesService) AddFavorite(ctx context.Context, input AddFavoriteInput) (string, error) {
	fav := &models.FavoriteProfile{
		Game:       input.Game,
		Label:      input.Label,
		Identifier: input.Identifier,
		Payload:    input.Payload,
		CreatedAt:  time.Now(),
	}
	return s.favorites.InsertFavorite(ctx, fav)
}

func (s *FavoritesService) ListFavorites(ctx context.Context, limit int64) ([]models.FavoriteProfile, error) {
	if limit <= 0 {
		limit = defaultFavoritesLimit
	}

	favorites, err := s.favorites.FindFavorites(ctx, limit)
	if err != nil {
		return nil, err
	}
	if favorites == nil {
		favorites = []models.FavoriteProfile{}
	}
	return favorites, nil
}
