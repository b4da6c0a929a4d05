package services

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/island-troll-tribes/stats-service/models"
	"github.com/island-troll-tribes/stats-service/storage"
)

type fakeUploader struct {
	uploads map[string]string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{uploads: make(map[string]string)}
}

func (f *fakeUploader) Upload(ctx context.Context, key, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	f.uploads[key] = string(data)
	return &storage.UploadResult{Key: key, Location: "https://cdn.example.com/" + key}, nil
}

func (f *fakeUploader) Delete(ctx context.Context, key string) error {
	delete(f.uploads, key)
	return nil
}

func (f *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

func replayTestServices(t *testing.T, game *models.Game, uploader storage.FileUploader) ReplayService {
	t.Helper()
	games := &fakeGameRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Game, error) {
			g := *game
			return &g, nil
		},
		UpdateFunc: func(ctx context.Context, g *models.Game, expectedRevision *int64) error {
			game.ReplayKey = g.ReplayKey
			return nil
		},
	}
	gs := newTestGameService(games, newFakePlayerRepo(), &fakeIntentRepo{}, nil)
	return NewReplayService(gs, uploader)
}

func TestUploadReplay_StorageUnconfigured(t *testing.T) {
	svc := replayTestServices(t, storedGame("g1"), nil)
	_, err := svc.UploadReplay(context.Background(), "g1", "application/octet-stream", strings.NewReader("w3g"))
	assert.ErrorIs(t, err, ErrReplayStorageUnavailable)
}

func TestUploadReplay_ContentRequired(t *testing.T) {
	svc := replayTestServices(t, storedGame("g1"), newFakeUploader())
	_, err := svc.UploadReplay(context.Background(), "g1", "application/octet-stream", nil)
	assert.ErrorIs(t, err, ErrReplayContentRequired)
}

func TestUploadReplay_StoresFileAndAttachesKey(t *testing.T) {
	game := storedGame("g1")
	uploader := newFakeUploader()
	svc := replayTestServices(t, game, uploader)

	url, err := svc.UploadReplay(context.Background(), "g1", "application/octet-stream", strings.NewReader("w3g-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/replays/g1.w3g", url)
	assert.Equal(t, "w3g-bytes", uploader.uploads["replays/g1.w3g"])
	assert.Equal(t, "replays/g1.w3g", game.ReplayKey)
}

func TestGetReplayURL(t *testing.T) {
	game := storedGame("g1")
	svc := replayTestServices(t, game, newFakeUploader())

	_, err := svc.GetReplayURL(context.Background(), "g1")
	assert.ErrorIs(t, err, ErrReplayNotFound)

	game.ReplayKey = "replays/g1.w3g"
	url, err := svc.GetReplayURL(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/replays/g1.w3g", url)
}
