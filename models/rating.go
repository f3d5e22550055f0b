package models

import (
	"time"
)

const (
	MinRating = 1
	MaxRating = 10
)

// PlayerRating is a post-match 1-10 peer score. One row per
// (match, rater, rated), write-once: resubmission is a conflict,
// never an overwrite.
type PlayerRating struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	MatchID   string    `json:"match_id" gorm:"not null;uniqueIndex:idx_match_rater_rated"`
	RaterID   string    `json:"rater_id" gorm:"not null;uniqueIndex:idx_match_rater_rated"`
	RatedID   string    `json:"rated_id" gorm:"not null;uniqueIndex:idx_match_rater_rated;index"`
	Rating    int       `json:"rating" gorm:"not null"`
	Comment   string    `json:"comment" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// ValidRatingScore reports whether score is inside the allowed range.
func ValidRatingScore(score int) bool {
	return score >= MinRating && score <= MaxRating
}

// MatchPhoto references an uploaded photo of a completed match.
type MatchPhoto struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	MatchID    string    `json:"match_id" gorm:"not null;index"`
	UserID     string    `json:"user_id" gorm:"not null"`
	URL        string    `json:"url" gorm:"not null"`
	UploadedAt time.Time `json:"uploaded_at" gorm:"autoCreateTime"`
}
