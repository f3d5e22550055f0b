package models

import (
	"crypto/rand"
	"math/big"
	"time"
)

// League groups players that share matches and an invite code.
type League struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	Slug        string    `json:"slug" gorm:"index"`
	InviteCode  string    `json:"invite_code" gorm:"uniqueIndex;not null"`
	CreatedByID string    `json:"created_by_id" gorm:"not null;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Memberships []LeagueMembership `json:"memberships,omitempty" gorm:"foreignKey:LeagueID"`

	// Calculated fields (not stored in DB)
	MemberCount int64 `json:"member_count,omitempty" gorm:"-"`
	MatchCount  int64 `json:"match_count,omitempty" gorm:"-"`
}

// LeagueMembership links a user to a league. One row per (league, user).
type LeagueMembership struct {
	ID       string    `json:"id" gorm:"primaryKey"`
	LeagueID string    `json:"league_id" gorm:"not null;uniqueIndex:idx_league_member"`
	UserID   string    `json:"user_id" gorm:"not null;uniqueIndex:idx_league_member"`
	JoinedAt time.Time `json:"joined_at" gorm:"autoCreateTime"`
}

const inviteCodeLength = 8

// 0/O and 1/I left out so codes survive being read aloud on court.
const inviteCodeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewInviteCode returns a random invite code. Uniqueness against live
// leagues is enforced by the unique index plus a retry at the call site.
func NewInviteCode() string {
	code := make([]byte, inviteCodeLength)
	max := big.NewInt(int64(len(inviteCodeCharset)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken
			panic(err)
		}
		code[i] = inviteCodeCharset[n.Int64()]
	}
	return string(code)
}
