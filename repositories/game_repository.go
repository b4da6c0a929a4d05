package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/island-troll-tribes/stats-service/models"
)

var (
	ErrGameNotFound         = errors.New("game not found")
	ErrGameRevisionConflict = errors.New("game revision conflict")
)

// GameFilter narrows game scans. Nil fields are not applied. Soft-deleted
// games are excluded unless IncludeDeleted is set.
type GameFilter struct {
	Category       *string
	Player         *string
	Rated          *bool
	StartDate      *time.Time
	EndDate        *time.Time
	IncludeDeleted bool
}

type GameRepository interface {
	Create(ctx context.Context, game *models.Game) error
	// GetByID loads the game document together with its participant
	// subcollection.
	GetByID(ctx context.Context, id string) (*models.Game, error)
	// Update rewrites the game document. When expectedRevision is non-nil
	// the write is performed in a transaction and fails with
	// ErrGameRevisionConflict if the stored revision differs; when nil the
	// write is last-writer-wins.
	Update(ctx context.Context, game *models.Game, expectedRevision *int64) error
	// List returns games matching the filter, participants included,
	// ordered by effective time ascending.
	List(ctx context.Context, filter GameFilter) ([]*models.Game, error)
	// SetParticipants replaces the participant subcollection entries.
	SetParticipants(ctx context.Context, gameID string, participants []models.Participant) error
	// StampParticipantRatings writes the before/after/delta rating fields
	// onto existing participant entries after an apply pass.
	StampParticipantRatings(ctx context.Context, gameID string, participants []models.Participant) error
	// DeleteParticipants removes every participant entry. It fails on the
	// first child that cannot be deleted, leaving the rest in place for
	// the caller to surface as a partial delete.
	DeleteParticipants(ctx context.Context, gameID string) error
	Delete(ctx context.Context, id string) error
}

type firestoreGameRepository struct {
	client *firestore.Client
}

func NewFirestoreGameRepository(client *firestore.Client) GameRepository {
	return &firestoreGameRepository{client: client}
}

func (r *firestoreGameRepository) games() *firestore.CollectionRef {
	return r.client.Collection(gamesCollection)
}

func (r *firestoreGameRepository) Create(ctx context.Context, game *models.Game) error {
	doc := r.games().Doc(game.ID)
	if _, err := doc.Set(ctx, game); err != nil {
		return fmt.Errorf("failed to create game %s: %w", game.ID, err)
	}
	if err := r.SetParticipants(ctx, game.ID, game.Participants); err != nil {
		return err
	}
	return nil
}

func (r *firestoreGameRepository) GetByID(ctx context.Context, id string) (*models.Game, error) {
	snap, err := r.games().Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game %s: %w", id, err)
	}

	var game models.Game
	if err := snap.DataTo(&game); err != nil {
		return nil, fmt.Errorf("failed to decode game %s: %w", id, err)
	}
	game.ID = snap.Ref.ID
	if game.Deleted {
		return nil, ErrGameNotFound
	}

	participants, err := r.loadParticipants(ctx, id)
	if err != nil {
		return nil, err
	}
	game.Participants = participants
	return &game, nil
}

func (r *firestoreGameRepository) Update(ctx context.Context, game *models.Game, expectedRevision *int64) error {
	doc := r.games().Doc(game.ID)

	if expectedRevision == nil {
		if _, err := doc.Set(ctx, game); err != nil {
			return fmt.Errorf("failed to update game %s: %w", game.ID, err)
		}
		return nil
	}

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(doc)
		if err != nil {
			if isNotFound(err) {
				return ErrGameNotFound
			}
			return err
		}
		var current models.Game
		if err := snap.DataTo(&current); err != nil {
			return err
		}
		if current.Revision != *expectedRevision {
			return ErrGameRevisionConflict
		}
		return tx.Set(doc, game)
	})
	if err != nil {
		if errors.Is(err, ErrGameNotFound) || errors.Is(err, ErrGameRevisionConflict) {
			return err
		}
		return fmt.Errorf("failed to update game %s: %w", game.ID, err)
	}
	return nil
}

func (r *firestoreGameRepository) List(ctx context.Context, filter GameFilter) ([]*models.Game, error) {
	q := r.games().Query
	if filter.Category != nil && *filter.Category != "" {
		q = q.Where("category", "==", *filter.Category)
	}
	if filter.Player != nil && *filter.Player != "" {
		q = q.Where("playerNames", "array-contains", models.NormalizeName(*filter.Player))
	}
	if filter.Rated != nil {
		q = q.Where("rated", "==", *filter.Rated)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	games := make([]*models.Game, 0)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list games: %w", err)
		}

		var game models.Game
		if err := snap.DataTo(&game); err != nil {
			return nil, fmt.Errorf("failed to decode game %s: %w", snap.Ref.ID, err)
		}
		game.ID = snap.Ref.ID
		if game.Deleted && !filter.IncludeDeleted {
			continue
		}
		// Date bounds are applied client-side: the effective time mixes two
		// fields, which Firestore range queries cannot express.
		if filter.StartDate != nil && game.EffectiveTime().Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && game.EffectiveTime().After(*filter.EndDate) {
			continue
		}

		participants, err := r.loadParticipants(ctx, game.ID)
		if err != nil {
			return nil, err
		}
		game.Participants = participants
		games = append(games, &game)
	}

	sort.Slice(games, func(i, j int) bool {
		return games[i].EffectiveTime().Before(games[j].EffectiveTime())
	})
	return games, nil
}

func (r *firestoreGameRepository) SetParticipants(ctx context.Context, gameID string, participants []models.Participant) error {
	sub := r.games().Doc(gameID).Collection(participantsSubcollection)

	// Clear entries that are no longer present before writing the new set.
	existing, err := r.loadParticipants(ctx, gameID)
	if err != nil {
		return err
	}
	keep := make(map[string]bool, len(participants))
	for _, p := range participants {
		keep[p.Name] = true
	}
	for _, p := range existing {
		if !keep[p.Name] {
			if _, err := sub.Doc(p.Name).Delete(ctx); err != nil {
				return fmt.Errorf("failed to remove participant %s of game %s: %w", p.Name, gameID, err)
			}
		}
	}

	for _, p := range participants {
		if _, err := sub.Doc(p.Name).Set(ctx, p); err != nil {
			return fmt.Errorf("failed to write participant %s of game %s: %w", p.Name, gameID, err)
		}
	}
	return nil
}

func (r *firestoreGameRepository) StampParticipantRatings(ctx context.Context, gameID string, participants []models.Participant) error {
	sub := r.games().Doc(gameID).Collection(participantsSubcollection)
	for _, p := range participants {
		_, err := sub.Doc(p.Name).Update(ctx, []firestore.Update{
			{Path: "ratingBefore", Value: p.RatingBefore},
			{Path: "ratingAfter", Value: p.RatingAfter},
			{Path: "appliedDelta", Value: p.AppliedDelta},
		})
		if err != nil {
			return fmt.Errorf("failed to stamp ratings for participant %s of game %s: %w", p.Name, gameID, err)
		}
	}
	return nil
}

func (r *firestoreGameRepository) DeleteParticipants(ctx context.Context, gameID string) error {
	participants, err := r.loadParticipants(ctx, gameID)
	if err != nil {
		return err
	}
	sub := r.games().Doc(gameID).Collection(participantsSubcollection)
	for _, p := range participants {
		if _, err := sub.Doc(p.Name).Delete(ctx); err != nil {
			return fmt.Errorf("failed to delete participant %s of game %s: %w", p.Name, gameID, err)
		}
	}
	return nil
}

func (r *firestoreGameRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.games().Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete game %s: %w", id, err)
	}
	return nil
}

func (r *firestoreGameRepository) loadParticipants(ctx context.Context, gameID string) ([]models.Participant, error) {
	iter := r.games().Doc(gameID).Collection(participantsSubcollection).Documents(ctx)
	defer iter.Stop()

	participants := make([]models.Participant, 0)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list participants of game %s: %w", gameID, err)
		}
		var p models.Participant
		if err := snap.DataTo(&p); err != nil {
			return nil, fmt.Errorf("failed to decode participant %s of game %s: %w", snap.Ref.ID, gameID, err)
		}
		participants = append(participants, p)
	}
	sort.Slice(participants, func(i, j int) bool { return participants[i].Name < participants[j].Name })
	return participants, nil
}
