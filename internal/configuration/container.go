package configuration

import (
	"context"
	"fmt"
	"os"
	"time"

	"BatePapo/internal/db"
	"BatePapo/internal/handler"
	"BatePapo/internal/limiter"
	"BatePapo/internal/model"
	"BatePapo/internal/presence"
	"BatePapo/internal/repo"
	"BatePapo/internal/service"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Container struct {
	ParticipantHandler handler.ParticipantHandler
	MessageHandler     handler.MessageHandler
	Sweeper            *presence.Sweeper
	RateLimiter        *limiter.IPRateLimiter
	Config             Config
	Logger             *zap.Logger

	// private - for cleanup
	mongoDatabase *mongo.Database
}

func BuildContainer() (*Container, error) {
	// .env is optional; a missing file just means plain env vars.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	con, err := db.OpenConnection(config.ChatDatabase.Uri, config.ChatDatabase.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open mongo connection: %w", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}

	participantMongo := db.NewRepository[model.Participant](con, config.ChatDatabase.ParticipantsCollection)
	messageMongo := db.NewRepository[model.Message](con, config.ChatDatabase.MessagesCollection)

	participantRepo := repo.NewParticipantRepository(con, participantMongo, logger)
	messageRepo := repo.NewMessageRepository(con, messageMongo, logger)

	messageService := service.NewMessageService(messageRepo, participantRepo, logger)
	registryService := service.NewRegistryService(participantRepo, messageService, logger)

	sweeper := presence.NewSweeper(
		participantRepo,
		messageService,
		time.Duration(config.Presence.TimeoutSeconds)*time.Second,
		time.Duration(config.Presence.SweepSeconds)*time.Second,
		logger,
	)

	rps := config.RateLimit.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := config.RateLimit.Burst
	if burst <= 0 {
		burst = 10
	}

	return &Container{
		ParticipantHandler: handler.NewParticipantHandler(registryService),
		MessageHandler:     handler.NewMessageHandler(messageService),
		Sweeper:            sweeper,
		RateLimiter:        limiter.NewIPRateLimiter(rate.Limit(rps), burst),
		Config:             *config,
		Logger:             logger,
		mongoDatabase:      con,
	}, nil
}

// Close gracefully shuts down background work and connections.
func (c *Container) Close() error {
	if c.Sweeper != nil {
		c.Sweeper.Stop()
	}

	if c.RateLimiter != nil {
		c.RateLimiter.Stop()
	}

	if c.Logger != nil {
		_ = c.Logger.Sync()
	}

	if c.mongoDatabase != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.mongoDatabase.Client().Disconnect(ctx); err != nil {
			return fmt.Errorf("failed to close MongoDB connection: %w", err)
		}
	}

	return nil
}
