package common

// Score bounds accepted on submission.
const (
	MinScore = 0
	MaxScore = 10000
)

// Game mode classes derived from the submitted score.
const (
	GameModeSolo = "solo"
	GameModeTeam = "team"

	// TeamModeThreshold is the score at or above which a submission is
	// classed as a team game.
	TeamModeThreshold = 5000
)

// GameModeForScore derives the categorical game mode from a score. The
// derivation is deterministic so the same score always lands in the same
// class, which is what makes the stored game_mode column recomputable.
func GameModeForScore(score int) string {
	if score >= TeamModeThreshold {
		return GameModeTeam
	}
	return GameModeSolo
}

// ValidScore reports whether a score is inside the accepted range.
func ValidScore(score int) bool {
	return score >= MinScore && score <= MaxScore
}
