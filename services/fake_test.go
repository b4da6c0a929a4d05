package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/island-troll-tribes/stats-service/metrics"
	"github.com/island-troll-tribes/stats-service/models"
	"github.com/island-troll-tribes/stats-service/repositories"
)

// Function-field fakes: a test sets only the methods it expects to be hit,
// everything else falls back to an innocuous default.

type fakeGameRepo struct {
	CreateFunc                  func(ctx context.Context, game *models.Game) error
	GetByIDFunc                 func(ctx context.Context, id string) (*models.Game, error)
	UpdateFunc                  func(ctx context.Context, game *models.Game, expectedRevision *int64) error
	ListFunc                    func(ctx context.Context, filter repositories.GameFilter) ([]*models.Game, error)
	SetParticipantsFunc         func(ctx context.Context, gameID string, participants []models.Participant) error
	StampParticipantRatingsFunc func(ctx context.Context, gameID string, participants []models.Participant) error
	DeleteParticipantsFunc      func(ctx context.Context, gameID string) error
	DeleteFunc                  func(ctx context.Context, id string) error
}

func (f *fakeGameRepo) Create(ctx context.Context, game *models.Game) error {
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, game)
	}
	return nil
}

func (f *fakeGameRepo) GetByID(ctx context.Context, id string) (*models.Game, error) {
	if f.GetByIDFunc != nil {
		return f.GetByIDFunc(ctx, id)
	}
	return nil, repositories.ErrGameNotFound
}

func (f *fakeGameRepo) Update(ctx context.Context, game *models.Game, expectedRevision *int64) error {
	if f.UpdateFunc != nil {
		return f.UpdateFunc(ctx, game, expectedRevision)
	}
	return nil
}

func (f *fakeGameRepo) List(ctx context.Context, filter repositories.GameFilter) ([]*models.Game, error) {
	if f.ListFunc != nil {
		return f.ListFunc(ctx, filter)
	}
	return nil, nil
}

func (f *fakeGameRepo) SetParticipants(ctx context.Context, gameID string, participants []models.Participant) error {
	if f.SetParticipantsFunc != nil {
		return f.SetParticipantsFunc(ctx, gameID, participants)
	}
	return nil
}

func (f *fakeGameRepo) StampParticipantRatings(ctx context.Context, gameID string, participants []models.Participant) error {
	if f.StampParticipantRatingsFunc != nil {
		return f.StampParticipantRatingsFunc(ctx, gameID, participants)
	}
	return nil
}

func (f *fakeGameRepo) DeleteParticipants(ctx context.Context, gameID string) error {
	if f.DeleteParticipantsFunc != nil {
		return f.DeleteParticipantsFunc(ctx, gameID)
	}
	return nil
}

func (f *fakeGameRepo) Delete(ctx context.Context, id string) error {
	if f.DeleteFunc != nil {
		return f.DeleteFunc(ctx, id)
	}
	return nil
}

// fakePlayerRepo doubles as an in-memory store: tests that need state use
// the store map, tests that need failure injection set the function fields.
type fakePlayerRepo struct {
	mu    sync.Mutex
	store map[string]*models.Player

	GetFunc            func(ctx context.Context, name string) (*models.Player, error)
	UpsertFunc         func(ctx context.Context, player *models.Player) error
	ListFunc           func(ctx context.Context, limit int) ([]*models.Player, error)
	SearchByPrefixFunc func(ctx context.Context, prefix string, limit int) ([]*models.Player, error)
}

func newFakePlayerRepo(players ...*models.Player) *fakePlayerRepo {
	f := &fakePlayerRepo{store: make(map[string]*models.Player)}
	for _, p := range players {
		cp := *p
		f.store[models.NormalizeName(p.Name)] = &cp
	}
	return f
}

func (f *fakePlayerRepo) Get(ctx context.Context, name string) (*models.Player, error) {
	if f.GetFunc != nil {
		return f.GetFunc(ctx, name)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.store[models.NormalizeName(name)]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePlayerRepo) Upsert(ctx context.Context, player *models.Player) error {
	if f.UpsertFunc != nil {
		return f.UpsertFunc(ctx, player)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *player
	f.store[models.NormalizeName(player.Name)] = &cp
	return nil
}

func (f *fakePlayerRepo) List(ctx context.Context, limit int) ([]*models.Player, error) {
	if f.ListFunc != nil {
		return f.ListFunc(ctx, limit)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	players := make([]*models.Player, 0, len(f.store))
	for _, p := range f.store {
		cp := *p
		players = append(players, &cp)
	}
	return players, nil
}

func (f *fakePlayerRepo) SearchByPrefix(ctx context.Context, prefix string, limit int) ([]*models.Player, error) {
	if f.SearchByPrefixFunc != nil {
		return f.SearchByPrefixFunc(ctx, prefix, limit)
	}
	return nil, nil
}

func (f *fakePlayerRepo) get(name string) *models.Player {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.store[models.NormalizeName(name)]
}

type fakeIntentRepo struct {
	mu      sync.Mutex
	created []*models.RatingIntent
	applied []string

	CreateFunc      func(ctx context.Context, intent *models.RatingIntent) error
	MarkAppliedFunc func(ctx context.Context, id string) error
	ListPendingFunc func(ctx context.Context, olderThan time.Time) ([]*models.RatingIntent, error)
}

func (f *fakeIntentRepo) Create(ctx context.Context, intent *models.RatingIntent) error {
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, intent)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, intent)
	return nil
}

func (f *fakeIntentRepo) MarkApplied(ctx context.Context, id string) error {
	if f.MarkAppliedFunc != nil {
		return f.MarkAppliedFunc(ctx, id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, id)
	return nil
}

func (f *fakeIntentRepo) ListPending(ctx context.Context, olderThan time.Time) ([]*models.RatingIntent, error) {
	if f.ListPendingFunc != nil {
		return f.ListPendingFunc(ctx, olderThan)
	}
	return nil, nil
}

type recordedEvent struct {
	eventType string
	payload   interface{}
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeBroadcaster) BroadcastGameEvent(eventType string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{eventType: eventType, payload: payload})
}

func (f *fakeBroadcaster) eventTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]string, 0, len(f.events))
	for _, e := range f.events {
		types = append(types, e.eventType)
	}
	return types
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry(), "test")
}

func testRatingConfig() RatingConfig {
	return RatingConfig{Default: 1000, KFactor: 32, MaxSwing: 50}
}
