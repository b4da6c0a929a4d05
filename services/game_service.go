package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/island-troll-tribes/stats-service/metrics"
	"github.com/island-troll-tribes/stats-service/models"
	"github.com/island-troll-tribes/stats-service/repositories"
)

// Event types pushed to websocket subscribers.
const (
	EventGameCreated    = "GAME_CREATED"
	EventGameUpdated    = "GAME_UPDATED"
	EventGameDeleted    = "GAME_DELETED"
	EventRatingsUpdated = "RATINGS_UPDATED"
)

// GameEventBroadcaster decouples the service from the websocket hub.
type GameEventBroadcaster interface {
	BroadcastGameEvent(eventType string, payload interface{})
}

type ParticipantInput struct {
	Name        string         `json:"name"`
	DisplayName string         `json:"display_name"`
	Class       string         `json:"class"`
	Outcome     models.Outcome `json:"outcome"`
}

type CreateGameInput struct {
	Category     string             `json:"category"`
	TeamSize     int                `json:"team_size"`
	Rated        bool               `json:"rated"`
	ScheduledAt  time.Time          `json:"scheduled_at"`
	Participants []ParticipantInput `json:"participants"`
}

// GameUpdate carries explicit-omission semantics: a nil field is left
// untouched, a present-but-empty value clears the field. A non-nil
// Participants slice is treated as a potential result change and triggers
// rating recalculation after the update commits.
type GameUpdate struct {
	Category         *string            `json:"category"`
	TeamSize         *int               `json:"team_size"`
	Rated            *bool              `json:"rated"`
	Status           *models.GameStatus `json:"status"`
	ScheduledAt      *time.Time         `json:"scheduled_at"`
	PlayedAt         *time.Time         `json:"played_at"`
	Participants     []ParticipantInput `json:"participants"`
	ExpectedRevision *int64             `json:"expected_revision"`
}

type GameService interface {
	CreateGame(ctx context.Context, input CreateGameInput) (*models.Game, error)
	GetGame(ctx context.Context, id string) (*models.Game, error)
	UpdateGame(ctx context.Context, id string, upd GameUpdate) (*models.Game, error)
	DeleteGame(ctx context.Context, id string) error
	AttachReplay(ctx context.Context, id, replayKey string) (*models.Game, error)
	// ReconcilePendingIntents replays rating intents that were written but
	// never marked applied, returning how many were replayed.
	ReconcilePendingIntents(ctx context.Context) (int, error)
}

type gameService struct {
	games          repositories.GameRepository
	players        repositories.PlayerRepository
	intents        repositories.IntentRepository
	hub            GameEventBroadcaster
	ratingCfg      RatingConfig
	reconcileGrace time.Duration
	logger         *slog.Logger
	metrics        *metrics.Metrics
}

func NewGameService(
	games repositories.GameRepository,
	players repositories.PlayerRepository,
	intents repositories.IntentRepository,
	hub GameEventBroadcaster,
	ratingCfg RatingConfig,
	reconcileGrace time.Duration,
	logger *slog.Logger,
	m *metrics.Metrics,
) GameService {
	return &gameService{
		games:          games,
		players:        players,
		intents:        intents,
		hub:            hub,
		ratingCfg:      ratingCfg,
		reconcileGrace: reconcileGrace,
		logger:         logger,
		metrics:        m,
	}
}

func (s *gameService) CreateGame(ctx context.Context, input CreateGameInput) (*models.Game, error) {
	if input.ScheduledAt.IsZero() {
		return nil, ErrScheduleRequired
	}
	if input.TeamSize <= 0 {
		return nil, ErrTeamSizeInvalid
	}
	participants, names, err := normalizeParticipants(input.Participants)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	game := &models.Game{
		ID:           uuid.NewString(),
		Category:     input.Category,
		TeamSize:     input.TeamSize,
		Rated:        input.Rated,
		Status:       models.GameStatusScheduled,
		ScheduledAt:  input.ScheduledAt,
		PlayerNames:  names,
		Revision:     1,
		CreatedAt:    now,
		UpdatedAt:    now,
		Participants: participants,
	}

	if err := s.games.Create(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}
	s.metrics.GamesCreated.Inc()
	s.broadcast(EventGameCreated, game)
	return game, nil
}

func (s *gameService) GetGame(ctx context.Context, id string) (*models.Game, error) {
	game, err := s.games.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game %s: %w", id, err)
	}
	return game, nil
}

func (s *gameService) UpdateGame(ctx context.Context, id string, upd GameUpdate) (*models.Game, error) {
	game, err := s.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}

	priorParticipants := game.Participants
	priorApplied := game.RatingsApplied

	dirty := false
	if upd.Category != nil {
		game.Category = *upd.Category
		dirty = true
	}
	if upd.TeamSize != nil {
		if *upd.TeamSize <= 0 {
			return nil, ErrTeamSizeInvalid
		}
		game.TeamSize = *upd.TeamSize
		dirty = true
	}
	if upd.Rated != nil {
		game.Rated = *upd.Rated
		dirty = true
	}
	if upd.Status != nil {
		if !isValidGameStatus(*upd.Status) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *upd.Status)
		}
		if !isValidStatusTransition(game.Status, *upd.Status) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, game.Status, *upd.Status)
		}
		game.Status = *upd.Status
		dirty = true
	}
	if upd.ScheduledAt != nil {
		if upd.ScheduledAt.IsZero() {
			return nil, ErrScheduleRequired
		}
		game.ScheduledAt = *upd.ScheduledAt
		dirty = true
	}
	if upd.PlayedAt != nil {
		if upd.PlayedAt.IsZero() {
			game.PlayedAt = nil
		} else {
			game.PlayedAt = upd.PlayedAt
		}
		dirty = true
	}

	resultsChanged := upd.Participants != nil
	if resultsChanged {
		participants, names, err := normalizeParticipants(upd.Participants)
		if err != nil {
			return nil, err
		}
		game.Participants = participants
		game.PlayerNames = names
		dirty = true
	}

	// An empty update only refreshes the updatedAt stamp; everything else,
	// revision included, stays byte-identical.
	if dirty {
		game.Revision++
	}
	game.UpdatedAt = time.Now().UTC()

	if err := s.games.Update(ctx, game, upd.ExpectedRevision); err != nil {
		switch {
		case errors.Is(err, repositories.ErrGameNotFound):
			return nil, ErrGameNotFound
		case errors.Is(err, repositories.ErrGameRevisionConflict):
			return nil, ErrGameRevisionConflict
		}
		return nil, fmt.Errorf("failed to update game %s: %w", id, err)
	}
	if resultsChanged {
		if err := s.games.SetParticipants(ctx, game.ID, game.Participants); err != nil {
			return nil, fmt.Errorf("failed to update participants of game %s: %w", id, err)
		}

		// A rating failure after the committed game update is logged, not
		// rolled back; the reconciliation sweep or the next result edit
		// closes the window.
		if err := s.recalculateRatings(ctx, game, priorParticipants, priorApplied); err != nil {
			s.metrics.RatingFailures.Inc()
			s.logger.ErrorContext(ctx, "rating recalculation failed after game update",
				slog.String("component", "game_service"),
				slog.String("operation", "UpdateGame"),
				slog.String("game_id", game.ID),
				slog.Any("error", err))
		}
	}

	s.broadcast(EventGameUpdated, game)
	return game, nil
}

func (s *gameService) DeleteGame(ctx context.Context, id string) error {
	game, err := s.GetGame(ctx, id)
	if err != nil {
		return err
	}

	// Deleting a result-bearing game takes its rating effects back out of
	// the player records before any document is removed, so an aborted
	// delete never leaves ratings half-reversed.
	if game.RatingsApplied {
		if err := s.reverseAppliedRatings(ctx, game); err != nil {
			return fmt.Errorf("failed to reverse rating effects of game %s: %w", id, err)
		}
	}

	if err := s.games.DeleteParticipants(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "partial game delete",
			slog.String("component", "game_service"),
			slog.String("operation", "DeleteGame"),
			slog.String("game_id", id),
			slog.Any("error", err))
		return fmt.Errorf("%w: game %s: %v", ErrPartialDelete, id, err)
	}
	if err := s.games.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete game %s: %w", id, err)
	}

	s.broadcast(EventGameDeleted, map[string]string{"id": id})
	return nil
}

func (s *gameService) AttachReplay(ctx context.Context, id, replayKey string) (*models.Game, error) {
	game, err := s.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}
	game.ReplayKey = replayKey
	game.UpdatedAt = time.Now().UTC()
	if err := s.games.Update(ctx, game, nil); err != nil {
		return nil, fmt.Errorf("failed to attach replay to game %s: %w", id, err)
	}
	return game, nil
}

func (s *gameService) ReconcilePendingIntents(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.reconcileGrace)
	pending, err := s.intents.ListPending(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending rating intents: %w", err)
	}

	replayed := 0
	for _, intent := range pending {
		if err := s.applyIntent(ctx, intent); err != nil {
			s.logger.ErrorContext(ctx, "failed to replay rating intent",
				slog.String("component", "game_service"),
				slog.String("operation", "ReconcilePendingIntents"),
				slog.String("intent_id", intent.ID),
				slog.String("game_id", intent.GameID),
				slog.Any("error", err))
			continue
		}
		replayed++
		s.metrics.IntentsReplayed.Inc()
	}
	return replayed, nil
}

// recalculateRatings runs after a committed participant change. It undoes
// whatever the previous result assignment applied, then applies the new
// result when it is complete, all through a single intent-log entry so the
// pass is replayable.
func (s *gameService) recalculateRatings(ctx context.Context, game *models.Game, prior []models.Participant, priorApplied bool) error {
	working, err := s.loadWorkingPlayers(ctx, game.Participants, prior)
	if err != nil {
		return err
	}

	if priorApplied {
		for _, p := range prior {
			pl := working[p.Name]
			pl.Rating -= p.AppliedDelta
			w, l, d := outcomeCounters(p.Outcome)
			pl.Wins -= w
			pl.Losses -= l
			pl.Draws -= d
			pl.TotalGames--
		}
	}

	applied := false
	var changes []RatingChange
	if game.HasCompleteResults() {
		ratings := make(map[string]float64, len(working))
		for name, pl := range working {
			ratings[name] = pl.Rating
		}
		changes, err = CalculateRatings(s.ratingCfg, game, ratings)
		if err != nil {
			return err
		}
		for _, c := range changes {
			pl := working[c.Player]
			pl.Rating = c.After
			w, l, d := outcomeCounters(c.Outcome)
			pl.Wins += w
			pl.Losses += l
			pl.Draws += d
			pl.TotalGames++
		}
		applied = true
	}

	if !priorApplied && !applied {
		return nil
	}

	intent := s.buildIntent(game.ID, working, changes)
	intent.Reverses = priorApplied && !applied
	if err := s.intents.Create(ctx, intent); err != nil {
		return fmt.Errorf("failed to write rating intent for game %s: %w", game.ID, err)
	}
	if err := s.upsertPlayers(ctx, working); err != nil {
		return err
	}

	if applied {
		byName := make(map[string]RatingChange, len(changes))
		for _, c := range changes {
			byName[c.Player] = c
		}
		for i := range game.Participants {
			c := byName[game.Participants[i].Name]
			game.Participants[i].RatingBefore = c.Before
			game.Participants[i].RatingAfter = c.After
			game.Participants[i].AppliedDelta = c.Delta
		}
		if err := s.games.StampParticipantRatings(ctx, game.ID, game.Participants); err != nil {
			return err
		}
	}

	if game.RatingsApplied != applied {
		game.RatingsApplied = applied
		if err := s.games.Update(ctx, game, nil); err != nil {
			return fmt.Errorf("failed to mark ratings applied on game %s: %w", game.ID, err)
		}
	}

	if err := s.intents.MarkApplied(ctx, intent.ID); err != nil {
		return err
	}
	s.metrics.RatingsApplied.Inc()
	s.broadcast(EventRatingsUpdated, intent)
	return nil
}

// reverseAppliedRatings backs the game's applied deltas and outcome
// counters out of the player records, via the intent log.
func (s *gameService) reverseAppliedRatings(ctx context.Context, game *models.Game) error {
	working, err := s.loadWorkingPlayers(ctx, game.Participants, nil)
	if err != nil {
		return err
	}
	for _, p := range game.Participants {
		pl := working[p.Name]
		pl.Rating -= p.AppliedDelta
		w, l, d := outcomeCounters(p.Outcome)
		pl.Wins -= w
		pl.Losses -= l
		pl.Draws -= d
		pl.TotalGames--
	}

	intent := s.buildIntent(game.ID, working, nil)
	intent.Reverses = true
	if err := s.intents.Create(ctx, intent); err != nil {
		return fmt.Errorf("failed to write rollback intent for game %s: %w", game.ID, err)
	}
	if err := s.upsertPlayers(ctx, working); err != nil {
		return err
	}

	// The game document must stop claiming applied ratings in the same
	// pass, or a retried delete would subtract the same deltas again.
	for i := range game.Participants {
		game.Participants[i].AppliedDelta = 0
	}
	if err := s.games.StampParticipantRatings(ctx, game.ID, game.Participants); err != nil {
		return err
	}
	game.RatingsApplied = false
	if err := s.games.Update(ctx, game, nil); err != nil {
		return fmt.Errorf("failed to clear rating flag on game %s: %w", game.ID, err)
	}

	if err := s.intents.MarkApplied(ctx, intent.ID); err != nil {
		return err
	}
	s.broadcast(EventRatingsUpdated, intent)
	return nil
}

// loadWorkingPlayers fetches mutable copies of every player referenced by
// either participant set, creating default records for first-time players.
func (s *gameService) loadWorkingPlayers(ctx context.Context, current, prior []models.Participant) (map[string]*models.Player, error) {
	working := make(map[string]*models.Player)
	display := make(map[string]string)
	for _, set := range [][]models.Participant{current, prior} {
		for _, p := range set {
			if _, ok := working[p.Name]; ok {
				continue
			}
			if p.DisplayName != "" {
				display[p.Name] = p.DisplayName
			}
			player, err := s.players.Get(ctx, p.Name)
			if err != nil {
				if !errors.Is(err, repositories.ErrPlayerNotFound) {
					return nil, fmt.Errorf("failed to load player %s: %w", p.Name, err)
				}
				player = &models.Player{
					Name:        p.Name,
					DisplayName: p.DisplayName,
					Rating:      s.ratingCfg.Default,
				}
			}
			if player.DisplayName == "" {
				player.DisplayName = display[p.Name]
			}
			working[p.Name] = player
		}
	}
	return working, nil
}

func (s *gameService) buildIntent(gameID string, working map[string]*models.Player, changes []RatingChange) *models.RatingIntent {
	changeByName := make(map[string]RatingChange, len(changes))
	for _, c := range changes {
		changeByName[c.Player] = c
	}

	intent := &models.RatingIntent{
		ID:        uuid.NewString(),
		GameID:    gameID,
		Status:    models.IntentStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	for name, pl := range working {
		entry := models.RatingIntentEntry{
			Player:      name,
			DisplayName: pl.DisplayName,
			After:       pl.Rating,
			TotalGames:  pl.TotalGames,
			Wins:        pl.Wins,
			Losses:      pl.Losses,
			Draws:       pl.Draws,
		}
		if c, ok := changeByName[name]; ok {
			entry.Before = c.Before
			entry.Delta = c.Delta
			entry.Outcome = c.Outcome
		}
		intent.Entries = append(intent.Entries, entry)
	}
	return intent
}

// upsertPlayers fans the per-player writes out concurrently; each write is
// atomic at the store level, the fan-out as a whole is not.
func (s *gameService) upsertPlayers(ctx context.Context, working map[string]*models.Player) error {
	g, ctx := errgroup.WithContext(ctx)
	now := time.Now().UTC()
	for _, pl := range working {
		pl := pl
		pl.UpdatedAt = now
		g.Go(func() error {
			if err := s.players.Upsert(ctx, pl); err != nil {
				return fmt.Errorf("failed to persist rating for player %s: %w", pl.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// applyIntent replays one intent entry set onto the player records. An
// entry is skipped when the stored record was written after the intent:
// that state postdates the snapshot, and replaying over it would lose a
// committed write.
func (s *gameService) applyIntent(ctx context.Context, intent *models.RatingIntent) error {
	working := make(map[string]*models.Player, len(intent.Entries))
	for _, e := range intent.Entries {
		stored, err := s.players.Get(ctx, e.Player)
		if err != nil && !errors.Is(err, repositories.ErrPlayerNotFound) {
			return fmt.Errorf("failed to load player %s: %w", e.Player, err)
		}
		if stored != nil && stored.UpdatedAt.After(intent.CreatedAt) {
			continue
		}
		working[e.Player] = &models.Player{
			Name:        e.Player,
			DisplayName: e.DisplayName,
			Rating:      e.After,
			TotalGames:  e.TotalGames,
			Wins:        e.Wins,
			Losses:      e.Losses,
			Draws:       e.Draws,
		}
	}
	if len(working) > 0 {
		if err := s.upsertPlayers(ctx, working); err != nil {
			return err
		}
	}
	return s.intents.MarkApplied(ctx, intent.ID)
}

func (s *gameService) broadcast(eventType string, payload interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastGameEvent(eventType, payload)
}

// normalizeParticipants validates and normalizes participant input,
// returning the participant entries and the normalized name list stored on
// the game document.
func normalizeParticipants(inputs []ParticipantInput) ([]models.Participant, []string, error) {
	if len(inputs) < 2 {
		return nil, nil, ErrParticipantsRequired
	}
	participants := make([]models.Participant, 0, len(inputs))
	names := make([]string, 0, len(inputs))
	seen := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		name := models.NormalizeName(in.Name)
		if name == "" {
			return nil, nil, ErrParticipantNameRequired
		}
		if seen[name] {
			return nil, nil, fmt.Errorf("%w: %s", ErrDuplicateParticipant, name)
		}
		seen[name] = true

		if in.Outcome != "" && in.Outcome != models.OutcomeWinner &&
			in.Outcome != models.OutcomeLoser && in.Outcome != models.OutcomeDraw {
			return nil, nil, fmt.Errorf("%w: unknown outcome %q", ErrValidationFailed, in.Outcome)
		}

		display := in.DisplayName
		if display == "" {
			display = in.Name
		}
		participants = append(participants, models.Participant{
			Name:        name,
			DisplayName: display,
			Class:       in.Class,
			Outcome:     in.Outcome,
		})
		names = append(names, name)
	}
	if len(seen) < 2 {
		return nil, nil, ErrNotEnoughPlayers
	}
	return participants, names, nil
}
