package services

import (
	"math/rand"
	"time"

	"padel-league-service/middleware"
	"padel-league-service/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CardService struct {
	DB *gorm.DB
}

func NewCardService(db *gorm.DB) *CardService {
	return &CardService{DB: db}
}

// AssignCard draws one card for the requesting participant if they do not
// hold one for this match yet. Cards are dealt automatically when a match
// fills up; this covers participants of matches still open.
func (s *CardService) AssignCard(c *fiber.Ctx) error {
	matchID := c.Params("id")
	userID := middleware.UserID(c)

	var match models.Match
	if err := s.DB.First(&match, "id = ?", matchID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "match not found"})
	}
	if match.Status != models.MatchStatusOpen && match.Status != models.MatchStatusInProgress {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "cards can only be drawn before the match finishes"})
	}

	var participation models.MatchParticipation
	if err := s.DB.Where("match_id = ? AND user_id = ?", matchID, userID).
		First(&participation).Error; err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "you are not playing in this match"})
	}

	var existing int64
	s.DB.Model(&models.CardAssignment{}).
		Where("participation_id = ?", participation.ID).
		Count(&existing)
	if existing > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "you already have a card for this match"})
	}

	var cards []models.Card
	if err := s.DB.Where("is_active = ?", true).Find(&cards).Error; err != nil || len(cards) == 0 {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "card catalog is unavailable"})
	}

	card := cards[rand.Intn(len(cards))]
	assignment := models.CardAssignment{
		ID:              uuid.NewString(),
		MatchID:         matchID,
		ParticipationID: participation.ID,
		CardID:          card.ID,
	}
	if err := s.DB.Create(&assignment).Error; err != nil {
		// unique (match, participation): a concurrent draw won
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "you already have a card for this match"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "card drawn",
		"data": fiber.Map{"card": fiber.Map{
			"id":          assignment.ID,
			"name":        card.Name,
			"description": card.Description,
			"used":        false,
		}},
	})
}

// UseCard marks the actor's card for this match as used, exactly once.
func (s *CardService) UseCard(c *fiber.Ctx) error {
	matchID := c.Params("id")
	userID := middleware.UserID(c)

	var match models.Match
	if err := s.DB.First(&match, "id = ?", matchID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "match not found"})
	}
	if match.Status != models.MatchStatusInProgress {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "cards can only be played while the match is in progress"})
	}

	var participation models.MatchParticipation
	if err := s.DB.Where("match_id = ? AND user_id = ?", matchID, userID).
		First(&participation).Error; err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "you are not playing in this match"})
	}

	var assignment models.CardAssignment
	if err := s.DB.Preload("Card").
		Where("participation_id = ?", participation.ID).
		First(&assignment).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "you have no card for this match"})
	}

	// Guarded flip: used=false → true. RowsAffected tells us whether this
	// call or a concurrent one consumed the card.
	now := time.Now()
	result := s.DB.Model(&models.CardAssignment{}).
		Where("id = ? AND used = ?", assignment.ID, false).
		Updates(map[string]interface{}{"used": true, "used_at": &now})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to use card"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "you already used your card in this match"})
	}

	return c.JSON(fiber.Map{
		"message": "card used",
		"data": fiber.Map{"card": fiber.Map{
			"id":          assignment.ID,
			"name":        assignment.Card.Name,
			"description": assignment.Card.Description,
			"used":        true,
			"used_at":     now,
		}},
	})
}
