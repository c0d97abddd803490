package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kunaal64/Gocomet/lib/common"
	"github.com/Kunaal64/Gocomet/lib/errs"
)

type stubEngine struct {
	submitResult common.SubmissionResult
	submitErr    error
	top          common.RankedList
	stats        common.GlobalStats
	topErr       error
	rank         common.PlayerRankInfo
	rankErr      error

	lastSubmitID    int64
	lastSubmitScore int
	lastTopN        int
}

func (s *stubEngine) Submit(_ context.Context, playerID int64, score int) (common.SubmissionResult, error) {
	s.lastSubmitID = playerID
	s.lastSubmitScore = score
	return s.submitResult, s.submitErr
}

func (s *stubEngine) GetTop(_ context.Context, n int) (common.RankedList, common.GlobalStats, error) {
	s.lastTopN = n
	return s.top, s.stats, s.topErr
}

func (s *stubEngine) GetPlayerRank(_ context.Context, _ int64) (common.PlayerRankInfo, error) {
	return s.rank, s.rankErr
}

func testRouter(t *testing.T, stub *stubEngine) *mux.Router {
	t.Helper()
	prev := engine
	engine = stub
	t.Cleanup(func() { engine = prev })

	router := mux.NewRouter()
	router.HandleFunc("/api/leaderboard/submit", submitScore).Methods("POST")
	router.HandleFunc("/api/leaderboard/top", topPlayers).Methods("GET")
	router.HandleFunc("/api/leaderboard/rank/{id}", playerRank).Methods("GET")
	return router
}

func doRequest(router *mux.Router, method, target, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSubmitScoreCreated(t *testing.T) {
	stub := &stubEngine{
		submitResult: common.SubmissionResult{
			PlayerID:   42,
			Score:      5000,
			TotalScore: 5000,
			GameMode:   common.GameModeTeam,
		},
	}
	router := testRouter(t, stub)

	rec := doRequest(router, "POST", "/api/leaderboard/submit", `{"user_id":42,"score":5000}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(42), stub.lastSubmitID)
	assert.Equal(t, 5000, stub.lastSubmitScore)

	var result common.SubmissionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, int64(5000), result.TotalScore)
}

func TestSubmitScoreBadBody(t *testing.T) {
	router := testRouter(t, &stubEngine{})

	rec := doRequest(router, "POST", "/api/leaderboard/submit", `{"user_id":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitScoreRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing user", `{"score":100}`},
		{"negative user", `{"user_id":-1,"score":100}`},
		{"score too large", `{"user_id":1,"score":10001}`},
		{"score negative", `{"user_id":1,"score":-5}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubEngine{}
			router := testRouter(t, stub)

			rec := doRequest(router, "POST", "/api/leaderboard/submit", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Zero(t, stub.lastSubmitID, "engine must not be called")
		})
	}
}

func TestSubmitScoreUnknownPlayer(t *testing.T) {
	stub := &stubEngine{submitErr: errs.ErrUnknownPlayer(7)}
	router := testRouter(t, stub)

	rec := doRequest(router, "POST", "/api/leaderboard/submit", `{"user_id":7,"score":100}`)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, errs.CodeUnknownPlayer, resp.Code)
}

func TestSubmitScoreStoreUnavailable(t *testing.T) {
	stub := &stubEngine{submitErr: errs.ErrStoreUnavailable("submit score", context.DeadlineExceeded)}
	router := testRouter(t, stub)

	rec := doRequest(router, "POST", "/api/leaderboard/submit", `{"user_id":7,"score":100}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTopPlayersResponseShape(t *testing.T) {
	stub := &stubEngine{
		top: common.RankedList{
			Leaders: []common.LeaderboardEntry{
				{PlayerID: 1, Username: "ace", TotalScore: 9000, Rank: 1},
				{PlayerID: 2, Username: "bee", TotalScore: 4000, Rank: 2},
			},
			Source: common.SourceCache,
		},
		stats: common.GlobalStats{TotalPlayers: 2, TotalEvents: 5},
	}
	router := testRouter(t, stub)

	rec := doRequest(router, "GET", "/api/leaderboard/top", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, stub.lastTopN, "no limit means engine default")

	var resp topResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Leaders, 2)
	assert.Equal(t, "ace", resp.Leaders[0].Username)
	assert.Equal(t, common.SourceCache, resp.Source)
	assert.Equal(t, int64(2), resp.Stats.TotalPlayers)
}

func TestTopPlayersLimit(t *testing.T) {
	stub := &stubEngine{top: common.RankedList{Leaders: []common.LeaderboardEntry{}}}
	router := testRouter(t, stub)

	rec := doRequest(router, "GET", "/api/leaderboard/top?limit=25", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 25, stub.lastTopN)

	for _, bad := range []string{"0", "-3", "101", "abc"} {
		rec := doRequest(router, "GET", "/api/leaderboard/top?limit="+bad, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", bad)
	}
}

func TestPlayerRankFound(t *testing.T) {
	stub := &stubEngine{
		rank: common.PlayerRankInfo{
			PlayerID:     3,
			Username:     "cat",
			TotalScore:   4500,
			Rank:         2,
			TotalPlayers: 10,
			Source:       common.SourceDatabase,
		},
	}
	router := testRouter(t, stub)

	rec := doRequest(router, "GET", "/api/leaderboard/rank/3", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var info common.PlayerRankInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, int64(2), info.Rank)
	assert.Equal(t, common.SourceDatabase, info.Source)
}

func TestPlayerRankNotRanked(t *testing.T) {
	stub := &stubEngine{rankErr: errs.ErrPlayerNotRanked(3)}
	router := testRouter(t, stub)

	rec := doRequest(router, "GET", "/api/leaderboard/rank/3", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, errs.CodePlayerNotRanked, resp.Code)
}

func TestPlayerRankBadID(t *testing.T) {
	router := testRouter(t, &stubEngine{})

	for _, bad := range []string{"abc", "0", "-4"} {
		rec := doRequest(router, "GET", "/api/leaderboard/rank/"+bad, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, "id=%s", bad)
	}
}
