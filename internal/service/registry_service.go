package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"BatePapo/internal/model"
	"BatePapo/internal/repo"

	"go.uber.org/zap"
)

// RegistryService owns the participant presence lifecycle: join,
// heartbeat and listing. Eviction is the sweeper's job.
type RegistryService interface {
	Join(ctx context.Context, name string) error
	Heartbeat(ctx context.Context, name string) error
	List(ctx context.Context) ([]model.Participant, error)
}

type registryService struct {
	participants repo.ParticipantRepository
	messages     MessageService
	logger       *zap.Logger
	now          func() time.Time
}

func NewRegistryService(participants repo.ParticipantRepository, messages MessageService, logger *zap.Logger) RegistryService {
	return &registryService{
		participants: participants,
		messages:     messages,
		logger:       logger,
		now:          time.Now,
	}
}

// Join registers a participant and announces it to the room. The
// duplicate check and the insert are two storage operations; two joins
// racing on the same name can both pass the check, in which case both
// are registered under the storage layer's rules, same as the lookup
// plus insert pair has always behaved.
func (s *registryService) Join(ctx context.Context, name string) error {
	if name == "" {
		return model.NewValidationError("name is required")
	}

	_, err := s.participants.FindByName(ctx, name)
	if err == nil {
		return model.ErrAlreadyExists
	}
	if !errors.Is(err, model.ErrNotFound) {
		return err
	}

	joinedAt := s.now()
	if err := s.participants.Create(ctx, name, joinedAt.UnixMilli()); err != nil {
		return err
	}

	if _, err := s.messages.AppendSynthetic(ctx, name, model.JoinedText); err != nil {
		return fmt.Errorf("join announcement failed: %w", err)
	}

	s.logger.Info("participant joined", zap.String("name", name))
	return nil
}

// Heartbeat refreshes the participant's lastStatus. Unknown names fail
// with model.ErrNotFound; silence past the presence timeout is what
// gets a participant evicted, so a heartbeat must never resurrect one.
func (s *registryService) Heartbeat(ctx context.Context, name string) error {
	if name == "" {
		return model.NewValidationError("name is required")
	}

	matched, err := s.participants.Touch(ctx, name, s.now().UnixMilli())
	if err != nil {
		return err
	}
	if !matched {
		return model.ErrNotFound
	}
	return nil
}

func (s *registryService) List(ctx context.Context) ([]model.Participant, error) {
	return s.participants.All(ctx)
}
