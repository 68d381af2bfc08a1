// Package store is the stats helper's document-store boundary.
package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bluecodes/game-codes-store/shared/models"
)

const (
	collFavorites  = "favoriteprofile"
	collSearchLogs = "searchlog"
)

type Store struct {
	db *mongo.Database
}

func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

// CollectionNames lists up to limit collections for the health endpoint.
func (s *Store) CollectionNames(ctx context.Context, limit int) ([]string, error) {
	names, err := s.db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	if len(names) > limit {
		names = names[:limit]
	}
	return names, nil
}

func (s *Store) InsertFavorite(ctx context.Context, fav *models.FavoriteProfile) (string, error) {
	if fav.ID.IsZero() {
		fav.ID = primitive.NewObjectID()
	}
	_, err := s.db.Collection(collFavorites).InsertOne(ctx, fav)
	if err != nil {
		return "", err
	}
	return fav.ID.Hex(), nil
}

func (s *Store) FindFavorites(ctx context.Context, limit int64) ([]models.FavoriteProfile, error) {
	cursor, err := s.db.Collection(collFavorites).Find(ctx, bson.M{}, options.Find().SetLimit(limit))
	if err != nil {
		return nil, err
	}

	var favorites []models.FavoriteProfile
	if err := cursor.All(ctx, &favorites); err != nil {
		return nil, err
	}
	return favorites, nil
}

func (s *Store) InsertSearchLog(ctx context.Context, entry *models.SearchLog) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	_, err := s.db.Collection(collSearchLogs).InsertOne(ctx, entry)
	return err
}
