package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/island-troll-tribes/stats-service/models"
)

var ErrIntentNotFound = errors.New("rating intent not found")

// IntentRepository persists the rating intent log. Intents are written
// before player records are touched and marked applied afterwards; the
// reconciliation sweep picks up whatever is left pending.
type IntentRepository interface {
	Create(ctx context.Context, intent *models.RatingIntent) error
	MarkApplied(ctx context.Context, id string) error
	ListPending(ctx context.Context, olderThan time.Time) ([]*models.RatingIntent, error)
}

type firestoreIntentRepository struct {
	client *firestore.Client
}

func NewFirestoreIntentRepository(client *firestore.Client) IntentRepository {
	return &firestoreIntentRepository{client: client}
}

func (r *firestoreIntentRepository) intents() *firestore.CollectionRef {
	return r.client.Collection(intentsCollection)
}

func (r *firestoreIntentRepository) Create(ctx context.Context, intent *models.RatingIntent) error {
	if _, err := r.intents().Doc(intent.ID).Set(ctx, intent); err != nil {
		return fmt.Errorf("failed to create rating intent %s: %w", intent.ID, err)
	}
	return nil
}

func (r *firestoreIntentRepository) MarkApplied(ctx context.Context, id string) error {
	_, err := r.intents().Doc(id).Update(ctx, []firestore.Update{
		{Path: "status", Value: string(models.IntentStatusApplied)},
	})
	if err != nil {
		if isNotFound(err) {
			return ErrIntentNotFound
		}
		return fmt.Errorf("failed to mark rating intent %s applied: %w", id, err)
	}
	return nil
}

func (r *firestoreIntentRepository) ListPending(ctx context.Context, olderThan time.Time) ([]*models.RatingIntent, error) {
	iter := r.intents().
		Where("status", "==", string(models.IntentStatusPending)).
		Documents(ctx)
	defer iter.Stop()

	intents := make([]*models.RatingIntent, 0)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list pending rating intents: %w", err)
		}
		var intent models.RatingIntent
		if err := snap.DataTo(&intent); err != nil {
			return nil, fmt.Errorf("failed to decode rating intent %s: %w", snap.Ref.ID, err)
		}
		intent.ID = snap.Ref.ID
		if intent.CreatedAt.After(olderThan) {
			continue
		}
		intents = append(intents, &intent)
	}
	return intents, nil
}
