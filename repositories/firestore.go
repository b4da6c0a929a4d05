package repositories

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	gamesCollection   = "games"
	playersCollection = "players"
	intentsCollection = "rating_intents"

	// Participant entries live in a subcollection of each game document.
	participantsSubcollection = "players"
)

// Connect opens a Firestore client for the given project. When
// FIRESTORE_EMULATOR_HOST is set the client talks to the local emulator
// without credentials, which is how the integration environment runs.
func Connect(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("firestore project id is required")
	}

	if os.Getenv("FIRESTORE_EMULATOR_HOST") != "" {
		client, err := firestore.NewClient(ctx, projectID, option.WithoutAuthentication())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to firestore emulator: %w", err)
		}
		return client, nil
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to firestore: %w", err)
	}
	return client, nil
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}
