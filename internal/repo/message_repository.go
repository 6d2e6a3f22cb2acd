package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"BatePapo/internal/db"
	"BatePapo/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	defaultWriteTimeout = 5 * time.Second
	defaultReadTimeout  = 30 * time.Second

	maxRetries     = 3
	baseRetryDelay = 100 * time.Millisecond
	maxRetryDelay  = 2 * time.Second
)

// MessageRepository owns access to the messages collection.
type MessageRepository interface {
	Insert(ctx context.Context, msg *model.Message) (string, error)
	FindByID(ctx context.Context, id string) (*model.Message, error)
	VisibleTo(ctx context.Context, caller string) ([]model.Message, error)
	UpdateContent(ctx context.Context, id string, to, text, msgType string) error
	Delete(ctx context.Context, id string) error
}

type messageRepository struct {
	con       *mongo.Database
	mongoRepo *db.Repository[model.Message]
	logger    *zap.Logger
}

func NewMessageRepository(con *mongo.Database, repo *db.Repository[model.Message], logger *zap.Logger) MessageRepository {
	return &messageRepository{
		con:       con,
		mongoRepo: repo,
		logger:    logger,
	}
}

// Insert appends a message to the log, retrying transient Mongo
// failures with exponential backoff. Returns the assigned id.
func (m *messageRepository) Insert(ctx context.Context, msg *model.Message) (string, error) {
	ctx, cancel := m.ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := m.waitForRetry(ctx, attempt); err != nil {
				return "", err
			}
			m.logger.Warn("retrying message insert",
				zap.String("from", msg.From),
				zap.Int("attempt", attempt+1),
			)
		}

		result, err := m.mongoRepo.Create(ctx, *msg)
		if err == nil {
			insertedID := ""
			if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
				insertedID = oid.Hex()
				msg.ID = oid
			}

			m.logger.Debug("message inserted",
				zap.String("inserted_id", insertedID),
				zap.String("from", msg.From),
				zap.String("type", msg.Type),
			)
			return insertedID, nil
		}

		lastErr = err
		if !m.isRetryableError(err) {
			break
		}
	}

	m.logger.Error("message insert exhausted retries",
		zap.Error(lastErr),
		zap.String("from", msg.From),
	)
	return "", fmt.Errorf("insert message failed: %w", lastErr)
}

// FindByID returns model.ErrNotFound both for an unknown id and for an
// id that is not valid ObjectID hex; the caller addressed something
// that does not exist either way.
func (m *messageRepository) FindByID(ctx context.Context, id string) (*model.Message, error) {
	ctx, cancel := m.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	msg, err := m.mongoRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) || errors.Is(err, primitive.ErrInvalidHex) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("find message failed: %w", err)
	}
	return msg, nil
}

// VisibleTo scans the log for every message the caller may read, in
// insertion order. The filter is the Mongo mirror of
// model.Message.VisibleTo; _id ascending preserves append order because
// ObjectIDs are creation-ordered.
func (m *messageRepository) VisibleTo(ctx context.Context, caller string) ([]model.Message, error) {
	ctx, cancel := m.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := visibilityFilter(caller)

	messages, err := m.mongoRepo.FindAll(ctx, filter, "_id")
	if err != nil {
		m.logger.Error("visible scan failed", zap.Error(err), zap.String("caller", caller))
		return nil, fmt.Errorf("list messages failed: %w", err)
	}

	m.logger.Debug("visible scan", zap.String("caller", caller), zap.Int("count", len(messages)))
	return messages, nil
}

func visibilityFilter(caller string) bson.M {
	return db.NewFilter().Or(
		bson.M{"to": model.BroadcastTarget},
		bson.M{"from": caller},
		bson.M{"type": model.TypeMessage},
		bson.M{"to": caller},
	).Build()
}

// UpdateContent overwrites the mutable fields of a message. Identity
// fields (_id, from, time) are never part of the patch.
func (m *messageRepository) UpdateContent(ctx context.Context, id string, to, text, msgType string) error {
	ctx, cancel := m.ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	result, err := m.mongoRepo.UpdateByID(ctx, id, bson.M{
		"to":   to,
		"text": text,
		"type": msgType,
	})
	if err != nil {
		if errors.Is(err, primitive.ErrInvalidHex) {
			return model.ErrNotFound
		}
		return fmt.Errorf("update message failed: %w", err)
	}
	if result.MatchedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (m *messageRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := m.ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	deleted, err := m.mongoRepo.DeleteByID(ctx, id)
	if err != nil {
		if errors.Is(err, primitive.ErrInvalidHex) {
			return model.ErrNotFound
		}
		return fmt.Errorf("delete message failed: %w", err)
	}
	if deleted == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (m *messageRepository) ensureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func (m *messageRepository) waitForRetry(ctx context.Context, attempt int) error {
	delay := time.Duration(1<<uint(attempt)) * baseRetryDelay
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("retry wait cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (m *messageRepository) isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	return mongo.IsTimeout(err) || mongo.IsNetworkError(err)
}
