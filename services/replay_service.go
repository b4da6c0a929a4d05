package services

import (
	"context"
	"fmt"
	"io"

	"github.com/island-troll-tribes/stats-service/storage"
)

// ReplayService archives game replay files in the configured object
// storage and links them to the game record. The service degrades
// gracefully when no storage is configured: uploads and lookups fail with
// ErrReplayStorageUnavailable instead of panicking on a nil client.
type ReplayService interface {
	UploadReplay(ctx context.Context, gameID, contentType string, content io.Reader) (string, error)
	GetReplayURL(ctx context.Context, gameID string) (string, error)
}

type replayService struct {
	gameService GameService
	uploader    storage.FileUploader
}

func NewReplayService(gameService GameService, uploader storage.FileUploader) ReplayService {
	return &replayService{
		gameService: gameService,
		uploader:    uploader,
	}
}

func (s *replayService) UploadReplay(ctx context.Context, gameID, contentType string, content io.Reader) (string, error) {
	if s.uploader == nil {
		return "", ErrReplayStorageUnavailable
	}
	if content == nil {
		return "", ErrReplayContentRequired
	}
	game, err := s.gameService.GetGame(ctx, gameID)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("replays/%s.w3g", game.ID)
	result, err := s.uploader.Upload(ctx, key, contentType, content)
	if err != nil {
		return "", fmt.Errorf("failed to upload replay for game %s: %w", gameID, err)
	}
	if _, err := s.gameService.AttachReplay(ctx, gameID, result.Key); err != nil {
		return "", err
	}
	return s.uploader.GetPublicURL(result.Key), nil
}

func (s *replayService) GetReplayURL(ctx context.Context, gameID string) (string, error) {
	if s.uploader == nil {
		return "", ErrReplayStorageUnavailable
	}
	game, err := s.gameService.GetGame(ctx, gameID)
	if err != nil {
		return "", err
	}
	if game.ReplayKey == "" {
		return "", ErrReplayNotFound
	}
	return s.uploader.GetPublicURL(game.ReplayKey), nil
}
