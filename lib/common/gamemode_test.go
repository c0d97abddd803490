package common

import "testing"

func TestGameModeForScore(t *testing.T) {
	tests := []struct {
		name     string
		score    int
		expected string
	}{
		{
			name:     "zero score is solo",
			score:    0,
			expected: GameModeSolo,
		},
		{
			name:     "just below threshold is solo",
			score:    TeamModeThreshold - 1,
			expected: GameModeSolo,
		},
		{
			name:     "threshold is team",
			score:    TeamModeThreshold,
			expected: GameModeTeam,
		},
		{
			name:     "max score is team",
			score:    MaxScore,
			expected: GameModeTeam,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GameModeForScore(tt.score); got != tt.expected {
				t.Errorf("Expected mode %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestValidScore(t *testing.T) {
	if ValidScore(-1) {
		t.Error("negative score should be rejected")
	}
	if ValidScore(MaxScore + 1) {
		t.Error("score above range should be rejected")
	}
	if !ValidScore(MinScore) || !ValidScore(MaxScore) {
		t.Error("boundary scores should be accepted")
	}
}
