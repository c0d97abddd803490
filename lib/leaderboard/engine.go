package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/Kunaal64/Gocomet/lib/bus"
	"github.com/Kunaal64/Gocomet/lib/cache"
	"github.com/Kunaal64/Gocomet/lib/common"
	"github.com/Kunaal64/Gocomet/lib/errs"
)

// Cache keys. Top and stats are singletons, ranks are per player.
const (
	topKey        = "gocomet:leaderboard:top"
	statsKey      = "gocomet:leaderboard:stats"
	rankKeyFormat = "gocomet:leaderboard:rank:%d"
)

func rankKey(playerID int64) string {
	return fmt.Sprintf(rankKeyFormat, playerID)
}

// Store is the durable-store surface the engine depends on.
type Store interface {
	SubmitScore(ctx context.Context, playerID int64, score int, gameMode string, submittedAt time.Time) (eventID, totalScore int64, err error)
	TopPlayers(ctx context.Context, n int) ([]common.LeaderboardEntry, error)
	PlayerRank(ctx context.Context, playerID int64) (common.PlayerRankInfo, error)
	GlobalStats(ctx context.Context) (common.GlobalStats, error)
	RecalculateRanks(ctx context.Context) (int64, error)
}

// Options configures the engine.
type Options struct {
	TopSize       int
	TopTTL        time.Duration
	RankTTL       time.Duration
	StatsTTL      time.Duration
	StoreTimeout  time.Duration
	CacheTimeout  time.Duration
	UpdateChannel string
}

const (
	DefaultTopSize       = 10
	DefaultTopTTL        = 10 * time.Second
	DefaultRankTTL       = 60 * time.Second
	DefaultStatsTTL      = 30 * time.Second
	DefaultStoreTimeout  = 5 * time.Second
	DefaultCacheTimeout  = 250 * time.Millisecond
	DefaultUpdateChannel = "gocomet:leaderboard:updates"
)

// Engine orchestrates the write path (submit), the cached read paths
// (top-N, per-player rank, global stats) and the batch rank recompute.
type Engine struct {
	store Store
	cache cache.Cache
	bus   bus.Bus
	opts  Options
	sf    singleflight.Group
	now   func() time.Time
}

// New creates an engine. Zero option fields get defaults.
func New(store Store, c cache.Cache, b bus.Bus, opts Options) *Engine {
	if opts.TopSize <= 0 {
		opts.TopSize = DefaultTopSize
	}
	if opts.TopTTL <= 0 {
		opts.TopTTL = DefaultTopTTL
	}
	if opts.RankTTL <= 0 {
		opts.RankTTL = DefaultRankTTL
	}
	if opts.StatsTTL <= 0 {
		opts.StatsTTL = DefaultStatsTTL
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = DefaultStoreTimeout
	}
	if opts.CacheTimeout <= 0 {
		opts.CacheTimeout = DefaultCacheTimeout
	}
	if opts.UpdateChannel == "" {
		opts.UpdateChannel = DefaultUpdateChannel
	}
	return &Engine{
		store: store,
		cache: c,
		bus:   b,
		opts:  opts,
		now:   time.Now,
	}
}

// Submit records a score event for an existing player and refreshes the
// derived aggregate, all inside one store transaction. Only after the
// commit does it invalidate the affected cache entries and publish the
// update; both are best-effort and never fail the submission.
func (e *Engine) Submit(ctx context.Context, playerID int64, score int) (common.SubmissionResult, error) {
	// Defense in depth: the HTTP layer validates, the engine re-checks.
	if !common.ValidScore(score) {
		return common.SubmissionResult{}, errs.ErrInvalidScore(score)
	}
	gameMode := common.GameModeForScore(score)
	submittedAt := e.now()

	sctx, cancel := context.WithTimeout(ctx, e.opts.StoreTimeout)
	defer cancel()
	eventID, totalScore, err := e.store.SubmitScore(sctx, playerID, score, gameMode, submittedAt)
	if err != nil {
		return common.SubmissionResult{}, err
	}

	e.invalidate(ctx, topKey, rankKey(playerID))
	e.publish(ctx, common.ScoreUpdate{
		Type:       common.ScoreUpdateType,
		MessageID:  uuid.NewString(),
		PlayerID:   playerID,
		Score:      score,
		TotalScore: totalScore,
		EventID:    eventID,
		Timestamp:  submittedAt,
	})

	return common.SubmissionResult{
		EventID:    eventID,
		PlayerID:   playerID,
		Score:      score,
		GameMode:   gameMode,
		TotalScore: totalScore,
	}, nil
}

// GetTop serves the top-n listing cache-aside, together with the
// independently cached global stats. Only the configured default size is
// cached under the singleton key; other sizes go straight to the store.
func (e *Engine) GetTop(ctx context.Context, n int) (common.RankedList, common.GlobalStats, error) {
	if n <= 0 {
		n = e.opts.TopSize
	}

	stats, err := e.getStats(ctx)
	if err != nil {
		return common.RankedList{}, common.GlobalStats{}, err
	}

	if n == e.opts.TopSize {
		var list common.RankedList
		if e.cacheGet(ctx, topKey, &list) {
			list.Source = common.SourceCache
			return list, stats, nil
		}
	}

	// Collapse concurrent misses into a single store query.
	result, err, _ := e.sf.Do(fmt.Sprintf("top:%d", n), func() (interface{}, error) {
		sctx, cancel := context.WithTimeout(ctx, e.opts.StoreTimeout)
		defer cancel()
		leaders, err := e.store.TopPlayers(sctx, n)
		if err != nil {
			return nil, err
		}
		list := common.RankedList{Leaders: leaders, Source: common.SourceDatabase}
		if n == e.opts.TopSize {
			e.cacheSet(ctx, topKey, list, e.opts.TopTTL)
		}
		return list, nil
	})
	if err != nil {
		return common.RankedList{}, common.GlobalStats{}, err
	}
	return result.(common.RankedList), stats, nil
}

// GetPlayerRank serves a player's dense rank cache-aside. The rank cache
// has a longer TTL than the top listing since rank lookups tolerate more
// staleness.
func (e *Engine) GetPlayerRank(ctx context.Context, playerID int64) (common.PlayerRankInfo, error) {
	key := rankKey(playerID)

	var info common.PlayerRankInfo
	if e.cacheGet(ctx, key, &info) {
		info.Source = common.SourceCache
		return info, nil
	}

	sctx, cancel := context.WithTimeout(ctx, e.opts.StoreTimeout)
	defer cancel()
	info, err := e.store.PlayerRank(sctx, playerID)
	if err != nil {
		return common.PlayerRankInfo{}, err
	}
	info.Source = common.SourceDatabase

	e.cacheSet(ctx, key, info, e.opts.RankTTL)
	return info, nil
}

// RecalculateRanks runs the batch dense-rank recompute and invalidates
// the top listing afterwards, since rank values may have shifted even
// when no aggregate changed.
func (e *Engine) RecalculateRanks(ctx context.Context) (int64, error) {
	sctx, cancel := context.WithTimeout(ctx, e.opts.StoreTimeout)
	defer cancel()
	changed, err := e.store.RecalculateRanks(sctx)
	if err != nil {
		return 0, err
	}

	e.invalidate(ctx, topKey)
	return changed, nil
}

// getStats serves the global totals cache-aside. Only cache failures
// are absorbed; a store failure surfaces to the caller like any other,
// rather than being papered over with zero counts.
func (e *Engine) getStats(ctx context.Context) (common.GlobalStats, error) {
	var stats common.GlobalStats
	if e.cacheGet(ctx, statsKey, &stats) {
		stats.Source = common.SourceCache
		return stats, nil
	}

	sctx, cancel := context.WithTimeout(ctx, e.opts.StoreTimeout)
	defer cancel()
	stats, err := e.store.GlobalStats(sctx)
	if err != nil {
		return common.GlobalStats{}, err
	}
	stats.Source = common.SourceDatabase

	e.cacheSet(ctx, statsKey, stats, e.opts.StatsTTL)
	return stats, nil
}

// cacheGet reads and decodes a cache entry. Every failure, including a
// degraded cache, is reported as a miss.
func (e *Engine) cacheGet(ctx context.Context, key string, out interface{}) bool {
	cctx, cancel := context.WithTimeout(ctx, e.opts.CacheTimeout)
	defer cancel()

	data, err := e.cache.Get(cctx, key)
	if err == cache.ErrMiss {
		return false
	}
	if err != nil {
		slog.Warn("cache read degraded", "key", key, "error", errs.ErrCacheDegraded("get", err))
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		slog.Warn("cache entry undecodable", "key", key, "error", err)
		return false
	}
	return true
}

func (e *Engine) cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		slog.Warn("cache encode failed", "key", key, "error", err)
		return
	}

	cctx, cancel := context.WithTimeout(ctx, e.opts.CacheTimeout)
	defer cancel()
	if err := e.cache.Set(cctx, key, data, ttl); err != nil {
		slog.Warn("cache write degraded", "key", key, "error", errs.ErrCacheDegraded("set", err))
	}
}

func (e *Engine) invalidate(ctx context.Context, keys ...string) {
	cctx, cancel := context.WithTimeout(ctx, e.opts.CacheTimeout)
	defer cancel()
	if err := e.cache.Delete(cctx, keys...); err != nil {
		slog.Warn("cache invalidation degraded", "keys", keys, "error", errs.ErrCacheDegraded("delete", err))
	}
}

func (e *Engine) publish(ctx context.Context, update common.ScoreUpdate) {
	payload, err := json.Marshal(update)
	if err != nil {
		slog.Error("score update encode failed", "event_id", update.EventID, "error", err)
		return
	}
	if err := e.bus.Publish(ctx, e.opts.UpdateChannel, payload); err != nil {
		slog.Warn("score update publish failed",
			"channel", e.opts.UpdateChannel,
			"event_id", update.EventID,
			"error", err,
		)
	}
}
