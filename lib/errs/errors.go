package errs

import (
	"errors"
	"fmt"
)

// Error codes surfaced by the leaderboard engine.
const (
	// Business-rule failures, terminal, never retried.
	CodeUnknownPlayer   = "UNKNOWN_PLAYER"
	CodeInvalidScore    = "INVALID_SCORE"
	CodePlayerNotRanked = "PLAYER_NOT_RANKED"

	// Infrastructure failures.
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodeCacheDegraded    = "CACHE_DEGRADED"
)

// LeaderboardError is the single error type crossing the engine boundary.
type LeaderboardError struct {
	Code    string
	Message string
	Err     error
}

func (e *LeaderboardError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LeaderboardError) Unwrap() error {
	return e.Err
}

// Code extracts the error code, or "" for errors that did not come from
// the engine.
func Code(err error) string {
	var le *LeaderboardError
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

// ErrUnknownPlayer reports a submission referencing a player that does
// not exist.
func ErrUnknownPlayer(playerID int64) *LeaderboardError {
	return &LeaderboardError{
		Code:    CodeUnknownPlayer,
		Message: fmt.Sprintf("player not found: %d", playerID),
	}
}

// ErrInvalidScore reports a score outside the accepted range.
func ErrInvalidScore(score int) *LeaderboardError {
	return &LeaderboardError{
		Code:    CodeInvalidScore,
		Message: fmt.Sprintf("score out of range: %d", score),
	}
}

// ErrPlayerNotRanked reports a rank lookup for a player with no score
// events yet. Distinct from UNKNOWN_PLAYER: the player may well exist.
func ErrPlayerNotRanked(playerID int64) *LeaderboardError {
	return &LeaderboardError{
		Code:    CodePlayerNotRanked,
		Message: fmt.Sprintf("player has no ranked entry: %d", playerID),
	}
}

// ErrStoreUnavailable wraps a database failure or timeout.
func ErrStoreUnavailable(op string, err error) *LeaderboardError {
	return &LeaderboardError{
		Code:    CodeStoreUnavailable,
		Message: fmt.Sprintf("store operation failed: %s", op),
		Err:     err,
	}
}

// ErrCacheDegraded wraps a cache failure. Callers log it and carry on;
// it must never surface past the engine.
func ErrCacheDegraded(op string, err error) *LeaderboardError {
	return &LeaderboardError{
		Code:    CodeCacheDegraded,
		Message: fmt.Sprintf("cache operation failed: %s", op),
		Err:     err,
	}
}
