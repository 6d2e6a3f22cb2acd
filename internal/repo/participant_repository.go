package repo

import (
	"context"
	"errors"
	"fmt"

	"BatePapo/internal/db"
	"BatePapo/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ParticipantRepository owns access to the participants collection.
type ParticipantRepository interface {
	Create(ctx context.Context, name string, lastStatus int64) error
	FindByName(ctx context.Context, name string) (*model.Participant, error)
	Touch(ctx context.Context, name string, lastStatus int64) (bool, error)
	All(ctx context.Context) ([]model.Participant, error)
	FindStale(ctx context.Context, deadline int64) ([]model.Participant, error)
	EvictIfStale(ctx context.Context, name string, deadline int64) (bool, error)
}

type participantRepository struct {
	con       *mongo.Database
	mongoRepo *db.Repository[model.Participant]
	logger    *zap.Logger
}

func NewParticipantRepository(con *mongo.Database, repo *db.Repository[model.Participant], logger *zap.Logger) ParticipantRepository {
	return &participantRepository{
		con:       con,
		mongoRepo: repo,
		logger:    logger,
	}
}

func (r *participantRepository) Create(ctx context.Context, name string, lastStatus int64) error {
	_, err := r.mongoRepo.Create(ctx, model.Participant{
		Name:       name,
		LastStatus: lastStatus,
	})
	if err != nil {
		return fmt.Errorf("insert participant failed: %w", err)
	}

	r.logger.Info("participant registered", zap.String("name", name))
	return nil
}

// FindByName returns model.ErrNotFound when no participant carries the
// name, so callers never have to know about mongo.ErrNoDocuments.
func (r *participantRepository) FindByName(ctx context.Context, name string) (*model.Participant, error) {
	filter := db.NewFilter().Eq("name", name).Build()

	participant, err := r.mongoRepo.FindOne(ctx, filter)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("find participant failed: %w", err)
	}
	return participant, nil
}

// Touch refreshes lastStatus for the named participant and reports
// whether a document matched.
func (r *participantRepository) Touch(ctx context.Context, name string, lastStatus int64) (bool, error) {
	filter := db.NewFilter().Eq("name", name).Build()

	result, err := r.mongoRepo.Update(ctx, filter, bson.M{"lastStatus": lastStatus})
	if err != nil {
		return false, fmt.Errorf("update lastStatus failed: %w", err)
	}
	return result.MatchedCount > 0, nil
}

func (r *participantRepository) All(ctx context.Context) ([]model.Participant, error) {
	participants, err := r.mongoRepo.FindAll(ctx, db.Empty(), "")
	if err != nil {
		return nil, fmt.Errorf("list participants failed: %w", err)
	}
	return participants, nil
}

// FindStale returns every participant whose lastStatus fell behind the
// deadline. The scan is a snapshot only; eviction re-checks staleness
// per document via EvictIfStale.
func (r *participantRepository) FindStale(ctx context.Context, deadline int64) ([]model.Participant, error) {
	filter := db.NewFilter().Lt("lastStatus", deadline).Build()

	stale, err := r.mongoRepo.FindAll(ctx, filter, "")
	if err != nil {
		return nil, fmt.Errorf("stale scan failed: %w", err)
	}
	return stale, nil
}

// EvictIfStale removes the named participant only if its lastStatus is
// still behind the deadline at delete time. A heartbeat that lands
// between the stale scan and this call makes the filter miss, and the
// participant survives. Returns whether a document was removed.
func (r *participantRepository) EvictIfStale(ctx context.Context, name string, deadline int64) (bool, error) {
	filter := db.NewFilter().Eq("name", name).Lt("lastStatus", deadline).Build()

	deleted, err := r.mongoRepo.DeleteOne(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("evict participant failed: %w", err)
	}

	if deleted > 0 {
		r.logger.Info("participant evicted", zap.String("name", name), zap.Int64("deadline", deadline))
	}
	return deleted > 0, nil
}
