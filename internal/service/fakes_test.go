package service

import (
	"context"
	"errors"

	"BatePapo/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeParticipantRepo is an in-memory ParticipantRepository.
type fakeParticipantRepo struct {
	participants map[string]*model.Participant
	findErr      error
	touchErr     error
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{participants: make(map[string]*model.Participant)}
}

func (f *fakeParticipantRepo) Create(_ context.Context, name string, lastStatus int64) error {
	f.participants[name] = &model.Participant{
		ID:         primitive.NewObjectID(),
		Name:       name,
		LastStatus: lastStatus,
	}
	return nil
}

func (f *fakeParticipantRepo) FindByName(_ context.Context, name string) (*model.Participant, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	p, ok := f.participants[name]
	if !ok {
		return nil, model.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakeParticipantRepo) Touch(_ context.Context, name string, lastStatus int64) (bool, error) {
	if f.touchErr != nil {
		return false, f.touchErr
	}
	p, ok := f.participants[name]
	if !ok {
		return false, nil
	}
	p.LastStatus = lastStatus
	return true, nil
}

func (f *fakeParticipantRepo) All(_ context.Context) ([]model.Participant, error) {
	var out []model.Participant
	for _, p := range f.participants {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeParticipantRepo) FindStale(_ context.Context, deadline int64) ([]model.Participant, error) {
	var out []model.Participant
	for _, p := range f.participants {
		if p.LastStatus < deadline {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeParticipantRepo) EvictIfStale(_ context.Context, name string, deadline int64) (bool, error) {
	p, ok := f.participants[name]
	if !ok || p.LastStatus >= deadline {
		return false, nil
	}
	delete(f.participants, name)
	return true, nil
}

// fakeMessageRepo is an in-memory MessageRepository preserving
// insertion order.
type fakeMessageRepo struct {
	messages  []*model.Message
	insertErr error
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{}
}

func (f *fakeMessageRepo) Insert(_ context.Context, msg *model.Message) (string, error) {
	if f.insertErr != nil {
		return "", f.insertErr
	}
	msg.ID = primitive.NewObjectID()
	stored := *msg
	f.messages = append(f.messages, &stored)
	return msg.ID.Hex(), nil
}

func (f *fakeMessageRepo) FindByID(_ context.Context, id string) (*model.Message, error) {
	for _, m := range f.messages {
		if m.ID.Hex() == id {
			copied := *m
			return &copied, nil
		}
	}
	return nil, model.ErrNotFound
}

func (f *fakeMessageRepo) VisibleTo(_ context.Context, caller string) ([]model.Message, error) {
	var out []model.Message
	for _, m := range f.messages {
		if m.VisibleTo(caller) {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) UpdateContent(_ context.Context, id string, to, text, msgType string) error {
	for _, m := range f.messages {
		if m.ID.Hex() == id {
			m.To = to
			m.Text = text
			m.Type = msgType
			return nil
		}
	}
	return model.ErrNotFound
}

func (f *fakeMessageRepo) Delete(_ context.Context, id string) error {
	for i, m := range f.messages {
		if m.ID.Hex() == id {
			f.messages = append(f.messages[:i], f.messages[i+1:]...)
			return nil
		}
	}
	return model.ErrNotFound
}

var errStorageDown = errors.New("storage unavailable")
