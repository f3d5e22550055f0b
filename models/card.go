package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Card is a catalog entry for a single-use gameplay perk.
type Card struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"uniqueIndex;not null"`
	Description string    `json:"description" gorm:"type:text"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// CardAssignment is one participant's drawn card in one match.
// used flips false→true exactly once and is never reset.
type CardAssignment struct {
	ID              string     `json:"id" gorm:"primaryKey"`
	MatchID         string     `json:"match_id" gorm:"not null;uniqueIndex:idx_match_participation"`
	ParticipationID string     `json:"participation_id" gorm:"not null;uniqueIndex:idx_match_participation"`
	CardID          string     `json:"card_id" gorm:"not null"`
	Used            bool       `json:"used" gorm:"default:false"`
	AssignedAt      time.Time  `json:"assigned_at" gorm:"autoCreateTime"`
	UsedAt          *time.Time `json:"used_at,omitempty"`

	Card Card `json:"card,omitempty" gorm:"foreignKey:CardID"`
}

// InitialCards is the fixed perk catalog dealt to participants.
var InitialCards = []Card{
	{Name: "Gano punto gano juego", Description: "Win the next point and you win the whole game."},
	{Name: "Restan cambiados de lado", Description: "The receiving pair must return serve from swapped sides."},
	{Name: "Robo carta", Description: "Steal an unused card from a rival."},
	{Name: "Anulo doble falta", Description: "Cancel one double fault."},
	{Name: "Robo saque", Description: "Take over the next serve turn."},
	{Name: "Repetimos el punto", Description: "Replay the last point."},
	{Name: "Bloqueo de carta rival", Description: "Block a rival's card before it is played."},
}

// SeedCards inserts any catalog card not already present.
func SeedCards(db *gorm.DB) error {
	for _, card := range InitialCards {
		var count int64
		if err := db.Model(&Card{}).Where("name = ?", card.Name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		card.ID = uuid.NewString()
		card.IsActive = true
		if err := db.Create(&card).Error; err != nil {
			return err
		}
	}
	return nil
}
