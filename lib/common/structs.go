package common

import "time"

// Source values tag read results with where they were served from.
const (
	SourceCache    = "cache"
	SourceDatabase = "database"
)

// Player is an account known to the leaderboard. Rows are owned by the
// external user-management service; we only ever read them.
type Player struct {
	ID       int64     `json:"id"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joined_at"`
}

// ScoreEvent is a single immutable score submission.
type ScoreEvent struct {
	ID        int64     `json:"id"`
	PlayerID  int64     `json:"player_id"`
	Score     int       `json:"score"`
	GameMode  string    `json:"game_mode"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmissionResult is returned to the caller after a successful submit.
type SubmissionResult struct {
	EventID    int64  `json:"event_id"`
	PlayerID   int64  `json:"player_id"`
	Score      int    `json:"score"`
	GameMode   string `json:"game_mode"`
	TotalScore int64  `json:"total_score"`
}

// LeaderboardEntry is one row of a top-N listing. Rank is positional
// (1-based, from list order), not the batch-computed dense rank.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	PlayerID    int64  `json:"player_id"`
	Username    string `json:"username"`
	TotalScore  int64  `json:"total_score"`
	GamesPlayed int    `json:"games_played"`
}

// RankedList is a top-N snapshot plus the source it was served from.
type RankedList struct {
	Leaders []LeaderboardEntry `json:"leaders"`
	Source  string             `json:"source"`
}

// GlobalStats carries the totals shown next to the top listing.
type GlobalStats struct {
	TotalPlayers int64  `json:"total_players"`
	TotalEvents  int64  `json:"total_events"`
	Source       string `json:"source"`
}

// PlayerRankInfo is the dense rank of a single player at read time.
type PlayerRankInfo struct {
	PlayerID     int64  `json:"player_id"`
	Username     string `json:"username"`
	TotalScore   int64  `json:"total_score"`
	Rank         int64  `json:"rank"`
	TotalPlayers int64  `json:"total_players"`
	Source       string `json:"source"`
}

// ScoreUpdate is the message published on every successful submit.
type ScoreUpdate struct {
	Type       string    `json:"type"`
	MessageID  string    `json:"message_id"`
	PlayerID   int64     `json:"player_id"`
	Score      int       `json:"score"`
	TotalScore int64     `json:"total_score"`
	EventID    int64     `json:"event_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// ScoreUpdateType is the Type value of every ScoreUpdate message.
const ScoreUpdateType = "score_update"
