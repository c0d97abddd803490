package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Kunaal64/Gocomet/lib/common"
	"github.com/Kunaal64/Gocomet/lib/errs"

	// Postgres db library loading
	_ "github.com/lib/pq"
)

// NewPostgresqlClient creates a new db client object and bootstraps the
// schema.
func NewPostgresqlClient(connStr string) *sql.DB {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		panic(err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS players (
			id BIGSERIAL PRIMARY KEY,
			username VARCHAR(255) NOT NULL,
			joined_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
		)
	`); err != nil {
		panic(err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS score_events (
			id BIGSERIAL PRIMARY KEY,
			player_id BIGINT NOT NULL REFERENCES players(id) ON DELETE CASCADE,
			score INTEGER NOT NULL CHECK (score >= 0 AND score <= 10000),
			game_mode VARCHAR(10) NOT NULL CHECK (game_mode IN ('solo', 'team')),
			created_at TIMESTAMP WITH TIME ZONE NOT NULL
		)
	`); err != nil {
		panic(err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS leaderboard (
			player_id BIGINT PRIMARY KEY REFERENCES players(id) ON DELETE CASCADE,
			total_score BIGINT NOT NULL,
			rank BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL
		)
	`); err != nil {
		panic(err)
	}

	// Create indexes
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_score_events_player ON score_events(player_id)`); err != nil {
		panic(err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_leaderboard_total_score ON leaderboard(total_score DESC)`); err != nil {
		panic(err)
	}

	return db
}

// LeaderboardStore is the Postgres access layer for score events and
// the derived leaderboard aggregate.
type LeaderboardStore struct {
	db *sql.DB
}

// NewLeaderboardStore creates new store
func NewLeaderboardStore(db *sql.DB) *LeaderboardStore {
	return &LeaderboardStore{db: db}
}

// Ping will check if the connection works right
func (s *LeaderboardStore) Ping(ctx context.Context) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	return conn.PingContext(ctx)
}

// SubmitScore records a score event and refreshes the player's aggregate
// in a single transaction. The aggregate is always recomputed as the
// rounded mean over every event the player has, matching a full
// recompute exactly so repeated incremental updates cannot drift.
//
// The player row lock taken up front is the serialization point for
// concurrent submits on the same player: the second transaction blocks
// before inserting its event, and once the first commits, the second's
// AVG statement runs against a fresh snapshot that includes the
// committed event. Without the lock, two overlapping submits would each
// average only their own event and the later commit would overwrite the
// earlier one.
func (s *LeaderboardStore) SubmitScore(ctx context.Context, playerID int64, score int, gameMode string, submittedAt time.Time) (eventID, totalScore int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, errs.ErrStoreUnavailable("begin submit", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var lockedID int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM players WHERE id = $1 FOR UPDATE
	`, playerID).Scan(&lockedID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, errs.ErrUnknownPlayer(playerID)
	}
	if err != nil {
		return 0, 0, errs.ErrStoreUnavailable("lock player row", err)
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO score_events (player_id, score, game_mode, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, playerID, score, gameMode, submittedAt).Scan(&eventID)
	if err != nil {
		return 0, 0, errs.ErrStoreUnavailable("insert score event", err)
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO leaderboard (player_id, total_score, updated_at)
		SELECT player_id, ROUND(AVG(score))::bigint, $2
		FROM score_events
		WHERE player_id = $1
		GROUP BY player_id
		ON CONFLICT (player_id)
		DO UPDATE SET total_score = EXCLUDED.total_score, updated_at = EXCLUDED.updated_at
		RETURNING total_score
	`, playerID, submittedAt).Scan(&totalScore)
	if err != nil {
		return 0, 0, errs.ErrStoreUnavailable("upsert leaderboard entry", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, 0, errs.ErrStoreUnavailable("commit submit", err)
	}
	return eventID, totalScore, nil
}

// TopPlayers returns the n highest aggregates joined with player
// identity and each player's event count. Ties are ordered by player id
// ascending so the output is reproducible; the positional rank is
// computed from list order, independent of the batch-computed rank
// column.
func (s *LeaderboardStore) TopPlayers(ctx context.Context, n int) ([]common.LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.player_id, p.username, l.total_score, COUNT(e.id)
		FROM leaderboard l
		JOIN players p ON p.id = l.player_id
		LEFT JOIN score_events e ON e.player_id = l.player_id
		GROUP BY l.player_id, p.username, l.total_score
		ORDER BY l.total_score DESC, l.player_id ASC
		LIMIT $1
	`, n)
	if err != nil {
		return nil, errs.ErrStoreUnavailable("query top players", err)
	}
	defer rows.Close()

	leaders := []common.LeaderboardEntry{}
	for rows.Next() {
		var entry common.LeaderboardEntry
		if err := rows.Scan(&entry.PlayerID, &entry.Username, &entry.TotalScore, &entry.GamesPlayed); err != nil {
			return nil, errs.ErrStoreUnavailable("scan top players", err)
		}
		entry.Rank = len(leaders) + 1
		leaders = append(leaders, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.ErrStoreUnavailable("iterate top players", err)
	}
	return leaders, nil
}

// PlayerRank computes the dense rank of one player over the whole
// leaderboard ordered by aggregate descending, along with the total
// number of ranked players.
func (s *LeaderboardStore) PlayerRank(ctx context.Context, playerID int64) (common.PlayerRankInfo, error) {
	var info common.PlayerRankInfo
	err := s.db.QueryRowContext(ctx, `
		WITH ranked AS (
			SELECT player_id,
			       total_score,
			       DENSE_RANK() OVER (ORDER BY total_score DESC) AS rank,
			       COUNT(*) OVER () AS total_players
			FROM leaderboard
		)
		SELECT r.player_id, p.username, r.total_score, r.rank, r.total_players
		FROM ranked r
		JOIN players p ON p.id = r.player_id
		WHERE r.player_id = $1
	`, playerID).Scan(&info.PlayerID, &info.Username, &info.TotalScore, &info.Rank, &info.TotalPlayers)
	if errors.Is(err, sql.ErrNoRows) {
		return common.PlayerRankInfo{}, errs.ErrPlayerNotRanked(playerID)
	}
	if err != nil {
		return common.PlayerRankInfo{}, errs.ErrStoreUnavailable("query player rank", err)
	}
	return info, nil
}

// GlobalStats returns the totals served next to the top listing.
func (s *LeaderboardStore) GlobalStats(ctx context.Context) (common.GlobalStats, error) {
	var stats common.GlobalStats
	err := s.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM players), (SELECT COUNT(*) FROM score_events)
	`).Scan(&stats.TotalPlayers, &stats.TotalEvents)
	if err != nil {
		return common.GlobalStats{}, errs.ErrStoreUnavailable("query global stats", err)
	}
	return stats, nil
}

// RecalculateRanks recomputes the dense rank for every leaderboard row
// in one pass, touching only rows whose stored rank differs. A repeated
// call with no intervening writes updates zero rows.
func (s *LeaderboardStore) RecalculateRanks(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		WITH ranked AS (
			SELECT player_id,
			       DENSE_RANK() OVER (ORDER BY total_score DESC) AS new_rank
			FROM leaderboard
		)
		UPDATE leaderboard l
		SET rank = r.new_rank
		FROM ranked r
		WHERE l.player_id = r.player_id
		  AND l.rank IS DISTINCT FROM r.new_rank
	`)
	if err != nil {
		return 0, errs.ErrStoreUnavailable("recalculate ranks", err)
	}
	changed, err := result.RowsAffected()
	if err != nil {
		return 0, errs.ErrStoreUnavailable("recalculate ranks result", err)
	}
	return changed, nil
}
