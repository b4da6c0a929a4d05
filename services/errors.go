package services

import "errors"

// Shared errors used across services and the HTTP mapping layer.
var (
	// Absent entities.
	ErrGameNotFound   = errors.New("game not found")
	ErrPlayerNotFound = errors.New("player not found")
	ErrClassNotFound  = errors.New("class not found")

	// Validation and business rules (caller's fault, 4xx).
	ErrValidationFailed        = errors.New("validation failed")
	ErrParticipantsRequired    = errors.New("at least two participants are required")
	ErrParticipantNameRequired = errors.New("participant name is required")
	ErrDuplicateParticipant    = errors.New("duplicate participant name")
	ErrScheduleRequired        = errors.New("game schedule datetime is required")
	ErrTeamSizeInvalid         = errors.New("team size must be positive")
	ErrInvalidStatus           = errors.New("invalid game status")
	ErrInvalidStatusTransition = errors.New("invalid game status transition")
	ErrResultMissing           = errors.New("participant has no recorded result")
	ErrNotEnoughPlayers        = errors.New("game needs at least two distinct players")
	ErrOutcomesInvalid         = errors.New("a decisive game needs at least one winner and one loser")
	ErrSearchQueryTooShort     = errors.New("search query must be at least two characters")
	ErrCompareTooFewNames      = errors.New("at least two player names are required to compare")
	ErrStandingsPageInvalid    = errors.New("page must not be negative")
	ErrStandingsLimitInvalid   = errors.New("limit must not be negative")
	ErrStandingsLimitTooLarge  = errors.New("limit exceeds the allowed maximum")

	// Replay archive.
	ErrReplayContentRequired    = errors.New("replay file content is required")
	ErrReplayNotFound           = errors.New("game has no archived replay")
	ErrReplayStorageUnavailable = errors.New("replay storage is not configured")

	// Conflicts.
	ErrGameRevisionConflict = errors.New("game was modified concurrently, revision mismatch")

	// Multi-step delete left the store inconsistent (5xx, needs manual
	// reconciliation; logged with game id and operation).
	ErrPartialDelete = errors.New("game delete removed only part of its participant entries")

	// Operation-level wrappers.
	ErrGamesListFailed   = errors.New("failed to list games")
	ErrPlayersListFailed = errors.New("failed to list players")
)
