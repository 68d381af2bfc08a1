package main

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/bluecodes/game-codes-store/shared/config"
	"github.com/bluecodes/game-codes-store/shared/models"
)

const codesPerProduct = 25

func main() {
	log.Info("Starting database seeder...")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	client, err := config.ConnectMongoDB(cfg.MongoURI)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.MongoDatabase)

	cleanCollections(db)
	seedAdmin(db)
	products := seedProducts(db)
	seedCodes(db, products)

	log.Info("Database seeding completed successfully!")
}

func cleanCollections(db *mongo.Database) {
	collections := []string{"product", "codekey", "order", "user", "contact"}
	for _, collection := range collections {
		log.WithField("collection", collection).Info("Cleaning collection")
		_, err := db.Collection(collection).DeleteMany(context.Background(), bson.M{})
		if err != nil {
			log.WithError(err).WithField("collection", collection).Error("Failed to clean collection")
		}
	}
}

func seedAdmin(db *mongo.Database) {
	log.Info("Seeding admin user...")

	hash, err := bcrypt.GenerateFromPassword([]byte("admin12345"), bcrypt.DefaultCost)
	if err != nil {
		log.WithError(err).Fatal("Failed to hash admin password")
	}

	now := time.Now()
	admin := models.User{
		ID:           primitive.NewObjectID(),
		Email:        "admin@bluecodes.dev",
		Name:         "Store Admin",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := db.Collection("user").InsertOne(context.Background(), admin); err != nil {
		log.WithError(err).Error("Failed to insert admin user")
		return
	}
	log.WithField("email", admin.Email).Info("Inserted admin user")
}

func seedProducts(db *mongo.Database) []models.Product {
	log.Info("Seeding products...")
	productCollection := db.Collection("product")

	now := time.Now()
	products := []models.Product{
		{
			ID:          primitive.NewObjectID(),
			Title:       "Galaxy Glider Skin",
			Game:        "Fortnite",
			RewardType:  "skin",
			Description: "Exclusive glider skin, redeemable once per account",
			Images:      []string{"https://cdn.bluecodes.dev/fortnite/galaxy-glider.png"},
			PriceCents:  1999,
			Currency:    "usd",
			Active:      true,
			Tags:        []string{"fortnite", "cosmetic"},
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          primitive.NewObjectID(),
			Title:       "800 Robux",
			Game:        "Roblox",
			RewardType:  "coins",
			Description: "Robux top-up code for any Roblox account",
			Images:      []string{"https://cdn.bluecodes.dev/roblox/robux-800.png"},
			PriceCents:  999,
			Currency:    "usd",
			Active:      true,
			Tags:        []string{"roblox", "currency"},
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          primitive.NewObjectID(),
			Title:       "Minecoins Pack 1720",
			Game:        "Minecraft",
			RewardType:  "coins",
			Description: "Minecoins for the Minecraft marketplace",
			Images:      []string{"https://cdn.bluecodes.dev/minecraft/minecoins-1720.png"},
			PriceCents:  1099,
			Currency:    "usd",
			Active:      true,
			Tags:        []string{"minecraft", "currency"},
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          primitive.NewObjectID(),
			Title:       "AK-47 Case Bonus",
			Game:        "CS2",
			RewardType:  "item",
			Description: "Weapon case bonus drop code",
			Images:      []string{"https://cdn.bluecodes.dev/cs2/ak47-case.png"},
			PriceCents:  499,
			Currency:    "usd",
			Active:      true,
			Tags:        []string{"cs2", "case"},
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}

	for _, product := range products {
		if _, err := productCollection.InsertOne(context.Background(), product); err != nil {
			log.WithError(err).WithField("title", product.Title).Error("Failed to insert product")
		}
	}

	log.WithField("count", len(products)).Info("Inserted products")
	return products
}

func seedCodes(db *mongo.Database, products []models.Product) {
	log.Info("Seeding code keys...")
	codeCollection := db.Collection("codekey")

	now := time.Now()
	total := 0
	for _, product := range products {
		for i := 1; i <= codesPerProduct; i++ {
			code := models.CodeKey{
				ID:        primitive.NewObjectID(),
				ProductID: product.ID.Hex(),
				Code:      fmt.Sprintf("BLUE-%s-%04d", product.ID.Hex()[18:], i),
				Assigned:  false,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if _, err := codeCollection.InsertOne(context.Background(), code); err != nil {
				log.WithError(err).Error("Failed to insert code key")
				continue
			}
			total++
		}
	}

	log.WithField("count", total).Info("Inserted code keys")
}
