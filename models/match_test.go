package models

import (
	"strings"
	"testing"
)

func TestNextStatus(t *testing.T) {
	tests := []struct {
		name    string
		current string
		team1   int
		team2   int
		want    string
	}{
		{"open empty stays open", MatchStatusOpen, 0, 0, MatchStatusOpen},
		{"open one seat short stays open", MatchStatusOpen, 2, 1, MatchStatusOpen},
		{"open both teams full starts", MatchStatusOpen, 2, 2, MatchStatusInProgress},
		{"in_progress unaffected by counts", MatchStatusInProgress, 2, 2, MatchStatusInProgress},
		{"completed unaffected by counts", MatchStatusCompleted, 2, 2, MatchStatusCompleted},
		{"cancelled unaffected by counts", MatchStatusCancelled, 2, 2, MatchStatusCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextStatus(tt.current, tt.team1, tt.team2); got != tt.want {
				t.Fatalf("NextStatus(%q, %d, %d) = %q, want %q", tt.current, tt.team1, tt.team2, got, tt.want)
			}
		})
	}
}

func TestPickTeam(t *testing.T) {
	tests := []struct {
		team1 int
		team2 int
		want  int
	}{
		{0, 0, 1},
		{1, 0, 2},
		{0, 1, 1},
		{1, 1, 1},
		{1, 2, 1},
		{2, 1, 2},
	}
	for _, tt := range tests {
		if got := PickTeam(tt.team1, tt.team2); got != tt.want {
			t.Fatalf("PickTeam(%d, %d) = %d, want %d", tt.team1, tt.team2, got, tt.want)
		}
	}
}

func TestValidTeam(t *testing.T) {
	for _, team := range []int{1, 2} {
		if !ValidTeam(team) {
			t.Fatalf("ValidTeam(%d) = false, want true", team)
		}
	}
	for _, team := range []int{-1, 0, 3, 10} {
		if ValidTeam(team) {
			t.Fatalf("ValidTeam(%d) = true, want false", team)
		}
	}
}

func TestValidRatingScore(t *testing.T) {
	for _, score := range []int{1, 5, 10} {
		if !ValidRatingScore(score) {
			t.Fatalf("ValidRatingScore(%d) = false, want true", score)
		}
	}
	for _, score := range []int{0, -3, 11, 100} {
		if ValidRatingScore(score) {
			t.Fatalf("ValidRatingScore(%d) = true, want false", score)
		}
	}
}

func TestNewInviteCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := NewInviteCode()
		if len(code) != inviteCodeLength {
			t.Fatalf("code %q has length %d, want %d", code, len(code), inviteCodeLength)
		}
		for _, ch := range code {
			if !strings.ContainsRune(inviteCodeCharset, ch) {
				t.Fatalf("code %q contains %q outside the charset", code, ch)
			}
		}
		seen[code] = true
	}
	if len(seen) < 95 {
		t.Fatalf("expected ~100 distinct codes, got %d", len(seen))
	}
}
