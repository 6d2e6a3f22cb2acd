package service

import (
	"context"
	"errors"
	"time"

	"BatePapo/internal/model"
	"BatePapo/internal/repo"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// messageContent carries the client-mutable fields of a message and
// their shape rules, shared by post and edit.
type messageContent struct {
	To   string `validate:"required"`
	Text string `validate:"required"`
	Type string `validate:"required,oneof=message private_message"`
}

// MessageService owns the message log: appends, per-caller visibility
// and the ownership-checked mutation path.
type MessageService interface {
	Post(ctx context.Context, from, to, text, msgType string) (*model.Message, error)
	ListVisible(ctx context.Context, caller string, limit int) ([]model.Message, error)
	Edit(ctx context.Context, id, caller, to, text, msgType string) error
	Delete(ctx context.Context, id, caller string) error
	AppendSynthetic(ctx context.Context, from, text string) (*model.Message, error)
}

type messageService struct {
	messages     repo.MessageRepository
	participants repo.ParticipantRepository
	validate     *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
}

func NewMessageService(messages repo.MessageRepository, participants repo.ParticipantRepository, logger *zap.Logger) MessageService {
	return &messageService{
		messages:     messages,
		participants: participants,
		validate:     validator.New(),
		logger:       logger,
		now:          time.Now,
	}
}

// Post appends a user-authored message. The sender must be currently
// registered and the type whitelist excludes "status"; only the server
// writes status events.
func (s *messageService) Post(ctx context.Context, from, to, text, msgType string) (*model.Message, error) {
	if from == "" {
		return nil, model.NewValidationError("sender is required")
	}
	if err := s.checkShape(to, text, msgType); err != nil {
		return nil, err
	}

	if _, err := s.participants.FindByName(ctx, from); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewValidationError("sender %q is not in the room", from)
		}
		return nil, err
	}

	msg := &model.Message{
		From: from,
		To:   to,
		Text: text,
		Type: msgType,
		Time: model.FormatTime(s.now()),
	}
	if _, err := s.messages.Insert(ctx, msg); err != nil {
		return nil, err
	}

	s.logger.Info("message posted",
		zap.String("from", from),
		zap.String("to", to),
		zap.String("type", msgType),
	)
	return msg, nil
}

// ListVisible returns the caller's view of the log in insertion order.
// limit == 0 means unbounded; a positive limit keeps only the most
// recent entries of the filtered sequence, order preserved.
func (s *messageService) ListVisible(ctx context.Context, caller string, limit int) ([]model.Message, error) {
	if caller == "" {
		return nil, model.NewValidationError("caller is required")
	}
	if limit < 0 {
		return nil, model.NewValidationError("limit must be a positive integer")
	}

	messages, err := s.messages.VisibleTo(ctx, caller)
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, nil
}

// Edit overwrites the mutable fields of a message. The new content
// passes the same shape rules as a post, the caller must be a
// registered participant, and only the original sender may edit.
func (s *messageService) Edit(ctx context.Context, id, caller, to, text, msgType string) error {
	if caller == "" {
		return model.NewValidationError("caller is required")
	}
	if err := s.checkShape(to, text, msgType); err != nil {
		return err
	}

	if _, err := s.participants.FindByName(ctx, caller); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.NewValidationError("caller %q is not in the room", caller)
		}
		return err
	}

	stored, err := s.messages.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if stored.From != caller {
		return model.ErrForbidden
	}

	return s.messages.UpdateContent(ctx, id, to, text, msgType)
}

// Delete removes a message permanently. Same ownership rule as Edit.
func (s *messageService) Delete(ctx context.Context, id, caller string) error {
	stored, err := s.messages.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if stored.From != caller {
		return model.ErrForbidden
	}

	if err := s.messages.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("message deleted", zap.String("id", id), zap.String("caller", caller))
	return nil
}

// AppendSynthetic writes a server-generated status event. It bypasses
// the registration and type checks: join announcements precede the
// sender's own visibility anywhere else, and leave announcements are
// authored by a name that was just evicted.
func (s *messageService) AppendSynthetic(ctx context.Context, from, text string) (*model.Message, error) {
	msg := &model.Message{
		From: from,
		To:   model.BroadcastTarget,
		Text: text,
		Type: model.TypeStatus,
		Time: model.FormatTime(s.now()),
	}
	if _, err := s.messages.Insert(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *messageService) checkShape(to, text, msgType string) error {
	err := s.validate.Struct(messageContent{To: to, Text: text, Type: msgType})
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		first := fieldErrs[0]
		return model.NewValidationError("field %s failed on %q", first.Field(), first.Tag())
	}
	return model.NewValidationError("malformed message: %v", err)
}
