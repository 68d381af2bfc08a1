package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds the environment configuration shared by all services.
// Optional integrations (Stripe, Kafka, SMTP) are enabled when their
// variables are set and silently skipped otherwise.
type Config struct {
	Port      string `env:"PORT" envDefault:"8000"`
	StatsPort string `env:"STATS_PORT" envDefault:"8001"`

	MongoURI      string `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGODB_DATABASE" envDefault:"gamecodes"`

	JWTSecret    string `env:"JWT_SECRET" envDefault:"devsecret"`
	StripeAPIKey string `env:"STRIPE_API_KEY"`
	SiteName     string `env:"SITE_NAME" envDefault:"BlueCodes"`

	KafkaBroker string `env:"KAFKA_BROKER"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     string `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	MailFrom     string `env:"MAIL_FROM"`
}

// Load reads the .env file if present and parses the environment.
func Load() (*Config, error) {
	// Try to load env file but don't fail if it's not found
	if err := godotenv.Load("../.env"); err != nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Debug("No .env file found, using process environment")
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
