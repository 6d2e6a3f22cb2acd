package presence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"BatePapo/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeParticipantRepo struct {
	mu           sync.Mutex
	participants map[string]int64
	staleErr     error
	evictErr     error
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{participants: make(map[string]int64)}
}

func (f *fakeParticipantRepo) Create(_ context.Context, name string, lastStatus int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.participants[name] = lastStatus
	return nil
}

func (f *fakeParticipantRepo) FindByName(_ context.Context, name string) (*model.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ls, ok := f.participants[name]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &model.Participant{Name: name, LastStatus: ls}, nil
}

func (f *fakeParticipantRepo) Touch(_ context.Context, name string, lastStatus int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.participants[name]; !ok {
		return false, nil
	}
	f.participants[name] = lastStatus
	return true, nil
}

func (f *fakeParticipantRepo) All(_ context.Context) ([]model.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Participant
	for name, ls := range f.participants {
		out = append(out, model.Participant{Name: name, LastStatus: ls})
	}
	return out, nil
}

func (f *fakeParticipantRepo) FindStale(_ context.Context, deadline int64) ([]model.Participant, error) {
	if f.staleErr != nil {
		return nil, f.staleErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Participant
	for name, ls := range f.participants {
		if ls < deadline {
			out = append(out, model.Participant{Name: name, LastStatus: ls})
		}
	}
	return out, nil
}

func (f *fakeParticipantRepo) EvictIfStale(_ context.Context, name string, deadline int64) (bool, error) {
	if f.evictErr != nil {
		return false, f.evictErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ls, ok := f.participants[name]
	if !ok || ls >= deadline {
		return false, nil
	}
	delete(f.participants, name)
	return true, nil
}

type fakeMessageService struct {
	mu        sync.Mutex
	appended  []model.Message
	appendErr error
}

func (f *fakeMessageService) Post(context.Context, string, string, string, string) (*model.Message, error) {
	panic("not used by the sweeper")
}

func (f *fakeMessageService) ListVisible(context.Context, string, int) ([]model.Message, error) {
	panic("not used by the sweeper")
}

func (f *fakeMessageService) Edit(context.Context, string, string, string, string, string) error {
	panic("not used by the sweeper")
}

func (f *fakeMessageService) Delete(context.Context, string, string) error {
	panic("not used by the sweeper")
}

func (f *fakeMessageService) AppendSynthetic(_ context.Context, from, text string) (*model.Message, error) {
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := model.Message{From: from, To: model.BroadcastTarget, Text: text, Type: model.TypeStatus}
	f.appended = append(f.appended, msg)
	return &msg, nil
}

func newSweeperForTest(participants *fakeParticipantRepo, messages *fakeMessageService, now time.Time) *Sweeper {
	s := NewSweeper(participants, messages, DefaultTimeout, DefaultInterval, zap.NewNop())
	s.now = func() time.Time { return now }
	return s
}

func TestSweepEvictsExactlyStaleSet(t *testing.T) {
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	participants := newFakeParticipantRepo()
	messages := &fakeMessageService{}

	// p1, p2 silent past the timeout; q1, q2 fresh.
	ctx := context.Background()
	require.NoError(t, participants.Create(ctx, "p1", now.Add(-30*time.Second).UnixMilli()))
	require.NoError(t, participants.Create(ctx, "p2", now.Add(-11*time.Second).UnixMilli()))
	require.NoError(t, participants.Create(ctx, "q1", now.Add(-5*time.Second).UnixMilli()))
	require.NoError(t, participants.Create(ctx, "q2", now.UnixMilli()))

	sweeper := newSweeperForTest(participants, messages, now)
	evicted := sweeper.SweepOnce(ctx)

	assert.ElementsMatch(t, []string{"p1", "p2"}, evicted)

	_, err := participants.FindByName(ctx, "p1")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = participants.FindByName(ctx, "q1")
	assert.NoError(t, err)
	_, err = participants.FindByName(ctx, "q2")
	assert.NoError(t, err)

	require.Len(t, messages.appended, 2)
	for _, msg := range messages.appended {
		assert.Equal(t, model.BroadcastTarget, msg.To)
		assert.Equal(t, model.TypeStatus, msg.Type)
		assert.Equal(t, model.LeftText, msg.Text)
	}
}

func TestSweepSecondPassFindsNothing(t *testing.T) {
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	participants := newFakeParticipantRepo()
	messages := &fakeMessageService{}

	ctx := context.Background()
	require.NoError(t, participants.Create(ctx, "p1", now.Add(-time.Minute).UnixMilli()))

	sweeper := newSweeperForTest(participants, messages, now)
	assert.Len(t, sweeper.SweepOnce(ctx), 1)
	assert.Empty(t, sweeper.SweepOnce(ctx))
	assert.Len(t, messages.appended, 1)
}

func TestSweepSkipsRefreshedParticipant(t *testing.T) {
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	participants := newFakeParticipantRepo()
	messages := &fakeMessageService{}

	ctx := context.Background()
	require.NoError(t, participants.Create(ctx, "flaky", now.Add(-time.Minute).UnixMilli()))

	sweeper := newSweeperForTest(participants, messages, now)

	// Heartbeat lands between the stale scan and the guarded delete:
	// simulate by refreshing before the pass runs with the old deadline.
	deadline := now.Add(-DefaultTimeout).UnixMilli()
	stale, err := participants.FindStale(ctx, deadline)
	require.Len(t, stale, 1)
	require.NoError(t, err)

	_, err = participants.Touch(ctx, "flaky", now.UnixMilli())
	require.NoError(t, err)

	evicted := sweeper.SweepOnce(ctx)
	assert.Empty(t, evicted)
	assert.Empty(t, messages.appended)

	_, err = participants.FindByName(ctx, "flaky")
	assert.NoError(t, err)
}

func TestSweepContinuesWhenAnnouncementFails(t *testing.T) {
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	participants := newFakeParticipantRepo()
	messages := &fakeMessageService{appendErr: errors.New("messages collection down")}

	ctx := context.Background()
	require.NoError(t, participants.Create(ctx, "p1", now.Add(-time.Minute).UnixMilli()))
	require.NoError(t, participants.Create(ctx, "p2", now.Add(-time.Minute).UnixMilli()))

	sweeper := newSweeperForTest(participants, messages, now)
	evicted := sweeper.SweepOnce(ctx)

	// Both evictions complete despite every announcement failing.
	assert.ElementsMatch(t, []string{"p1", "p2"}, evicted)
	all, err := participants.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSweepStaleScanFailureSkipsPass(t *testing.T) {
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	participants := newFakeParticipantRepo()
	participants.staleErr = errors.New("participants collection down")
	messages := &fakeMessageService{}

	ctx := context.Background()
	require.NoError(t, participants.Create(ctx, "p1", now.Add(-time.Minute).UnixMilli()))

	sweeper := newSweeperForTest(participants, messages, now)
	assert.Empty(t, sweeper.SweepOnce(ctx))

	// Participant untouched; a later pass will retry.
	_, err := participants.FindByName(ctx, "p1")
	assert.NoError(t, err)
}

func TestStartStopStopsScheduling(t *testing.T) {
	participants := newFakeParticipantRepo()
	messages := &fakeMessageService{}

	sweeper := NewSweeper(participants, messages, 10*time.Millisecond, 5*time.Millisecond, zap.NewNop())
	sweeper.Start()
	time.Sleep(20 * time.Millisecond)
	sweeper.Stop()

	// Stop returns only once the loop is down; another Stop is a no-op
	// and must not block.
	done := make(chan struct{})
	go func() {
		sweeper.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second Stop blocked")
	}
}
