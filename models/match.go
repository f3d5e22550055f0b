package models

import (
	"time"
)

// Match statuses. open → in_progress → completed, never backwards.
// cancelled is reachable from open only (stale matches swept by the
// scheduler); a match that has started is never cancelled.
const (
	MatchStatusOpen       = "open"
	MatchStatusInProgress = "in_progress"
	MatchStatusCompleted  = "completed"
	MatchStatusCancelled  = "cancelled"
)

const (
	// TeamSize is the per-team capacity: padel is strictly 2v2.
	TeamSize        = 2
	MaxParticipants = 2 * TeamSize
)

// Match is a single scheduled 2v2 contest within a league.
type Match struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	LeagueID    string    `json:"league_id" gorm:"not null;index"`
	Date        time.Time `json:"date" gorm:"not null"`
	Status      string    `json:"status" gorm:"not null;default:'open'"`
	WinnerTeam  *int      `json:"winner_team"`
	CreatedByID string    `json:"created_by_id" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Participations []MatchParticipation `json:"participations,omitempty" gorm:"foreignKey:MatchID"`
}

// MatchParticipation is a user's seat in one team of one match.
type MatchParticipation struct {
	ID       string    `json:"id" gorm:"primaryKey"`
	MatchID  string    `json:"match_id" gorm:"not null;uniqueIndex:idx_match_user"`
	UserID   string    `json:"user_id" gorm:"not null;uniqueIndex:idx_match_user"`
	Team     int       `json:"team" gorm:"not null"`
	JoinedAt time.Time `json:"joined_at" gorm:"autoCreateTime"`
}

// ValidTeam reports whether team is one of the two fixed teams.
func ValidTeam(team int) bool {
	return team == 1 || team == 2
}

// PickTeam auto-assigns a joining player to the emptier team,
// preferring team 1 on a tie.
func PickTeam(team1Count, team2Count int) int {
	if team1Count <= team2Count {
		return 1
	}
	return 2
}

// NextStatus is the pure transition rule evaluated after every join or
// leave: an open match moves to in_progress exactly when both teams are
// full. Every other status is terminal with respect to roster changes.
func NextStatus(current string, team1Count, team2Count int) string {
	if current == MatchStatusOpen && team1Count >= TeamSize && team2Count >= TeamSize {
		return MatchStatusInProgress
	}
	return current
}
