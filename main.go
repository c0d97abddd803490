package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/etherlabsio/healthcheck"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sourcegraph/conc"

	"github.com/Kunaal64/Gocomet/lib/bus"
	"github.com/Kunaal64/Gocomet/lib/cache"
	"github.com/Kunaal64/Gocomet/lib/common"
	"github.com/Kunaal64/Gocomet/lib/config"
	"github.com/Kunaal64/Gocomet/lib/errs"
	"github.com/Kunaal64/Gocomet/lib/gateway"
	"github.com/Kunaal64/Gocomet/lib/leaderboard"
	"github.com/Kunaal64/Gocomet/lib/logging"
	"github.com/Kunaal64/Gocomet/lib/ranker"
	"github.com/Kunaal64/Gocomet/lib/store"
)

var (
	version string
	commit  string
	date    string

	engine  leaderboardService
	storage *store.LeaderboardStore
	caching cache.Cache
	hub     *gateway.Hub
)

// leaderboardService is the slice of the engine the HTTP layer uses,
// narrowed to an interface so handler tests can stub it.
type leaderboardService interface {
	Submit(ctx context.Context, playerID int64, score int) (common.SubmissionResult, error)
	GetTop(ctx context.Context, n int) (common.RankedList, common.GlobalStats, error)
	GetPlayerRank(ctx context.Context, playerID int64) (common.PlayerRankInfo, error)
}

type submitRequest struct {
	UserID int64 `json:"user_id"`
	Score  int   `json:"score"`
}

type topResponse struct {
	Leaders []common.LeaderboardEntry `json:"leaders"`
	Stats   common.GlobalStats        `json:"stats"`
	Source  string                    `json:"source"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

// writeEngineError maps the engine error taxonomy onto HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	code := errs.Code(err)
	switch code {
	case errs.CodeUnknownPlayer, errs.CodePlayerNotRanked:
		writeError(w, http.StatusNotFound, err.Error(), code)
	case errs.CodeInvalidScore:
		writeError(w, http.StatusBadRequest, err.Error(), code)
	case errs.CodeStoreUnavailable:
		writeError(w, http.StatusServiceUnavailable, err.Error(), code)
	default:
		slog.Error("unclassified engine error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error", "")
	}
}

func submitScore(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	if req.UserID <= 0 {
		writeError(w, http.StatusBadRequest, "user_id must be a positive integer", "")
		return
	}
	if !common.ValidScore(req.Score) {
		writeError(w, http.StatusBadRequest, "score out of range", errs.CodeInvalidScore)
		return
	}

	result, err := engine.Submit(r.Context(), req.UserID, req.Score)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func topPlayers(w http.ResponseWriter, r *http.Request) {
	n := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 100 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 100", "")
			return
		}
		n = parsed
	}

	list, stats, err := engine.GetTop(r.Context(), n)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topResponse{Leaders: list.Leaders, Stats: stats, Source: list.Source})
}

func playerRank(w http.ResponseWriter, r *http.Request) {
	playerID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || playerID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid player id", "")
		return
	}

	info, err := engine.GetPlayerRank(r.Context(), playerID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func healthcheckHandler() http.Handler {
	return healthcheck.Handler(
		healthcheck.WithTimeout(5*time.Second),
		healthcheck.WithChecker("storage", healthcheck.CheckerFunc(func(ctx context.Context) error {
			return storage.Ping(ctx)
		})),
		healthcheck.WithChecker("cache", healthcheck.CheckerFunc(func(ctx context.Context) error {
			return caching.Ping(ctx)
		})),
	)
}

// selectCache picks the cache backend once at startup: Redis when
// configured and reachable, the disk backend for local development,
// otherwise the in-process fallback. The choice holds for the process
// lifetime. The second return value is non-nil only for Redis, so the
// bus can share the connection.
func selectCache(ctx context.Context, cfg config.Config) (cache.Cache, *cache.RedisCache) {
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClientWithUrl(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid redis url, falling back to in-process cache", "error", err)
			return cache.NewMemoryCache(), nil
		}
		rc := cache.NewRedisCache(client)
		if err := cache.ConnectRedis(ctx, rc); err != nil {
			slog.Error("redis unreachable, falling back to in-process cache", "error", err)
			return cache.NewMemoryCache(), nil
		}
		slog.Info("using redis cache")
		return rc, rc
	}
	if cfg.CacheDir != "" {
		slog.Info("using disk cache", "dir", cfg.CacheDir)
		return cache.NewDiskCache(cfg.CacheDir), nil
	}
	slog.Info("using in-process cache")
	return cache.NewMemoryCache(), nil
}

func main() {
	// init structured logging
	logging.Init()

	slog.Info("starting", "version", version, "commit", commit, "date", date)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var background conc.WaitGroup
	defer background.Wait()
	defer cancel()

	db := store.NewPostgresqlClient(cfg.PostgresURL)
	storage = store.NewLeaderboardStore(db)
	slog.Info("using postgres storage")

	var redisCache *cache.RedisCache
	caching, redisCache = selectCache(ctx, cfg)

	// The bus follows the cache selection: a reachable Redis serves
	// both, otherwise both degrade to in-process together.
	var notifier bus.Bus
	if redisCache != nil {
		notifier = bus.NewRedisBus(redisCache.Client())
	} else {
		notifier = bus.NewMemoryBus()
		slog.Warn("using in-process bus, updates will not reach other instances")
	}
	slog.Info("notification bus selected", "backend", notifier.Name())

	eng := leaderboard.New(storage, caching, notifier, leaderboard.Options{
		TopSize:       cfg.TopSize,
		TopTTL:        cfg.TopTTL,
		RankTTL:       cfg.RankTTL,
		StatsTTL:      cfg.StatsTTL,
		StoreTimeout:  cfg.StoreTimeout,
		CacheTimeout:  cfg.CacheTimeout,
		UpdateChannel: cfg.UpdateChannel,
	})
	engine = eng

	worker := ranker.NewWorker(ranker.Config{Engine: eng, Interval: cfg.RecalcInterval})
	background.Go(func() { worker.Start(ctx) })

	hub = gateway.NewHub(notifier, cfg.UpdateChannel)
	if err := hub.Run(ctx); err != nil {
		slog.Error("gateway subscription failed", "error", err)
		os.Exit(1)
	}

	router := mux.NewRouter()
	// Assumption: behind a proper web server (nginx/traefik, etc) that
	// removes/replaces trusted headers.
	router.Use(recoveryMiddleware)
	router.Use(requestLoggerMiddleware())
	if cfg.TrustProxy {
		router.Use(handlers.ProxyHeaders)
	}

	router.HandleFunc("/api/leaderboard/submit", submitScore).Methods("POST")
	router.HandleFunc("/api/leaderboard/top", topPlayers).Methods("GET")
	router.HandleFunc("/api/leaderboard/rank/{id}", playerRank).Methods("GET")
	router.Handle("/ws/leaderboard", hub).Methods("GET")
	router.Handle("/healthcheck", healthcheckHandler()).Methods("GET")

	slog.Info("server starting", "listen", cfg.Listen, "version", version, "commit", commit, "date", date)
	slog.Error("server exited", "error", http.ListenAndServe(cfg.Listen, router))
}

// requestLoggerMiddleware logs method, path, status, and duration for each request.
func requestLoggerMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			correlationID := r.Header.Get("X-Request-Id")
			if correlationID == "" {
				correlationID = uuid.NewString()
			}
			w.Header().Set("X-Request-Id", correlationID)

			sr := &statusRecorder{ResponseWriter: w, status: 200}
			start := time.Now()
			next.ServeHTTP(sr, r)
			duration := time.Since(start)
			slog.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sr.status,
				"duration_ms", duration.Milliseconds(),
				"remote", r.RemoteAddr,
				"correlation_id", correlationID,
			)
		})
	}
}

// statusRecorder captures HTTP status codes.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// recoveryMiddleware logs panics and prevents server crashes by returning 500.
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("panic", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr, "error", rec, "stack", string(debug.Stack()))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
