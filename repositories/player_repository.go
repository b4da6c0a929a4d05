package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/island-troll-tribes/stats-service/models"
)

var ErrPlayerNotFound = errors.New("player not found")

type PlayerRepository interface {
	Get(ctx context.Context, name string) (*models.Player, error)
	Upsert(ctx context.Context, player *models.Player) error
	// List returns players ordered by name. A limit <= 0 returns all.
	List(ctx context.Context, limit int) ([]*models.Player, error)
	// SearchByPrefix matches normalized names starting with the given
	// prefix, up to limit entries.
	SearchByPrefix(ctx context.Context, prefix string, limit int) ([]*models.Player, error)
}

type firestorePlayerRepository struct {
	client *firestore.Client
}

func NewFirestorePlayerRepository(client *firestore.Client) PlayerRepository {
	return &firestorePlayerRepository{client: client}
}

func (r *firestorePlayerRepository) players() *firestore.CollectionRef {
	return r.client.Collection(playersCollection)
}

func (r *firestorePlayerRepository) Get(ctx context.Context, name string) (*models.Player, error) {
	key := models.NormalizeName(name)
	snap, err := r.players().Doc(key).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player %s: %w", key, err)
	}

	var player models.Player
	if err := snap.DataTo(&player); err != nil {
		return nil, fmt.Errorf("failed to decode player %s: %w", key, err)
	}
	return &player, nil
}

func (r *firestorePlayerRepository) Upsert(ctx context.Context, player *models.Player) error {
	key := models.NormalizeName(player.Name)
	if key == "" {
		return fmt.Errorf("player name is required")
	}
	player.Name = key
	if _, err := r.players().Doc(key).Set(ctx, player); err != nil {
		return fmt.Errorf("failed to upsert player %s: %w", key, err)
	}
	return nil
}

func (r *firestorePlayerRepository) List(ctx context.Context, limit int) ([]*models.Player, error) {
	q := r.players().OrderBy("name", firestore.Asc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	return r.collect(ctx, q.Documents(ctx))
}

func (r *firestorePlayerRepository) SearchByPrefix(ctx context.Context, prefix string, limit int) ([]*models.Player, error) {
	key := models.NormalizeName(prefix)
	// Standard Firestore prefix range: [key, key+"\uf8ff").
	q := r.players().
		Where("name", ">=", key).
		Where("name", "<", key+"\uf8ff").
		OrderBy("name", firestore.Asc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	return r.collect(ctx, q.Documents(ctx))
}

func (r *firestorePlayerRepository) collect(ctx context.Context, iter *firestore.DocumentIterator) ([]*models.Player, error) {
	defer iter.Stop()

	players := make([]*models.Player, 0)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list players: %w", err)
		}
		var p models.Player
		if err := snap.DataTo(&p); err != nil {
			return nil, fmt.Errorf("failed to decode player %s: %w", snap.Ref.ID, err)
		}
		players = append(players, &p)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].Name < players[j].Name })
	return players, nil
}
