package services

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"padel-league-service/middleware"
	"padel-league-service/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MatchService struct {
	DB *gorm.DB
}

func NewMatchService(db *gorm.DB) *MatchService {
	return &MatchService{DB: db}
}

func teamCounts(db *gorm.DB, matchID string) (int, int) {
	var team1, team2 int64
	db.Model(&models.MatchParticipation{}).Where("match_id = ? AND team = 1", matchID).Count(&team1)
	db.Model(&models.MatchParticipation{}).Where("match_id = ? AND team = 2", matchID).Count(&team2)
	return int(team1), int(team2)
}

func (s *MatchService) CreateMatch(c *fiber.Ctx) error {
	leagueID := c.Params("id")
	userID := middleware.UserID(c)

	if !isLeagueMember(s.DB, leagueID, userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "you are not a member of this league"})
	}

	type Req struct {
		Date string `json:"date"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid JSON"})
	}
	if req.Date == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "match date is required"})
	}
	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid date (use RFC3339)"})
	}
	// a minute of slack so "right now" is schedulable across clock skew
	if date.Before(time.Now().Add(-time.Minute)) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "match date cannot be in the past"})
	}

	match := models.Match{
		ID:          uuid.NewString(),
		LeagueID:    leagueID,
		Date:        date,
		Status:      models.MatchStatusOpen,
		CreatedByID: userID,
	}
	if err := s.DB.Create(&match).Error; err != nil {
		log.Printf("[MATCH] create failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to create match"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "match created",
		"data":    fiber.Map{"match": match},
	})
}

func (s *MatchService) GetLeagueMatches(c *fiber.Ctx) error {
	leagueID := c.Params("id")
	userID := middleware.UserID(c)

	if !isLeagueMember(s.DB, leagueID, userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "you are not a member of this league"})
	}

	var matches []models.Match
	if err := s.DB.Where("league_id = ?", leagueID).Order("date DESC").Find(&matches).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to fetch matches"})
	}

	payload := make([]fiber.Map, 0, len(matches))
	for _, match := range matches {
		payload = append(payload, fiber.Map{
			"match":        match,
			"participants": s.matchRoster(match.ID),
		})
	}

	return c.JSON(fiber.Map{"data": fiber.Map{"matches": payload}})
}

// matchRoster lists the seated players with usernames, for league members.
func (s *MatchService) matchRoster(matchID string) []fiber.Map {
	var participations []models.MatchParticipation
	s.DB.Where("match_id = ?", matchID).Order("joined_at ASC").Find(&participations)

	roster := make([]fiber.Map, 0, len(participations))
	for _, p := range participations {
		user, err := lookupUser(s.DB, p.UserID)
		if err != nil {
			continue
		}
		roster = append(roster, fiber.Map{
			"user_id":  user.ID,
			"username": user.Username,
			"team":     p.Team,
		})
	}
	return roster
}

// GetMatch returns the per-user view of a match. Participants get the
// roster plus their own card once it is revealable; everyone else in the
// league sees aggregate team counts only.
func (s *MatchService) GetMatch(c *fiber.Ctx) error {
	matchID := c.Params("id")
	userID := middleware.UserID(c)

	var match models.Match
	if err := s.DB.First(&match, "id = ?", matchID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "match not found"})
	}
	if !isLeagueMember(s.DB, match.LeagueID, userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "you do not have access to this match"})
	}

	team1, team2 := teamCounts(s.DB, matchID)

	var participation models.MatchParticipation
	participating := s.DB.
		Where("match_id = ? AND user_id = ?", matchID, userID).
		First(&participation).Error == nil

	// The card stays face-down until one hour before start; once the match
	// is running or done it is always visible to its owner.
	canViewCard := participating &&
		(match.Status != models.MatchStatusOpen || !match.Date.After(time.Now().Add(time.Hour)))

	var cardData fiber.Map
	if canViewCard {
		var assignment models.CardAssignment
		err := s.DB.Preload("Card").
			Where("participation_id = ?", participation.ID).
			First(&assignment).Error
		if err == nil {
			cardData = fiber.Map{
				"id":          assignment.ID,
				"name":        assignment.Card.Name,
				"description": assignment.Card.Description,
				"used":        assignment.Used,
			}
		}
	}

	data := fiber.Map{
		"id":               match.ID,
		"league_id":        match.LeagueID,
		"date":             match.Date,
		"status":           match.Status,
		"winner_team":      match.WinnerTeam,
		"team1_count":      team1,
		"team2_count":      team2,
		"is_participating": participating,
		"can_view_card":    canViewCard,
		"card":             cardData,
	}
	if participating {
		data["participants"] = s.matchRoster(matchID)
	}

	return c.JSON(fiber.Map{"data": fiber.Map{"match": data}})
}

func (s *MatchService) JoinMatch(c *fiber.Ctx) error {
	matchID := c.Params("id")
	userID := middleware.UserID(c)

	var match models.Match
	if err := s.DB.First(&match, "id = ?", matchID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "match not found"})
	}
	if !isLeagueMember(s.DB, match.LeagueID, userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "you do not have access to this match"})
	}
	if match.Status != models.MatchStatusOpen {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "this match is no longer open"})
	}
	if !match.Date.After(time.Now()) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "this match has already started"})
	}

	type Req struct {
		Team int `json:"team"`
	}
	var req Req
	// body is optional: no team means auto-assign
	_ = c.BodyParser(&req)
	if req.Team != 0 && !models.ValidTeam(req.Team) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "team must be 1 or 2"})
	}

	var joinedTeam int
	var newStatus string
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// Write-lock the match row so joins serialize per match: a rival
		// transaction blocks here until this one commits, and its counts
		// below then see this one's seat. Doubles as the open re-check.
		lock := tx.Model(&models.Match{}).
			Where("id = ? AND status = ?", matchID, models.MatchStatusOpen).
			Update("updated_at", time.Now())
		if lock.Error != nil {
			return lock.Error
		}
		if lock.RowsAffected == 0 {
			return errMatchClosed
		}

		var existing int64
		tx.Model(&models.MatchParticipation{}).
			Where("match_id = ? AND user_id = ?", matchID, userID).
			Count(&existing)
		if existing > 0 {
			return errAlreadyJoined
		}

		team1, team2 := teamCounts(tx, matchID)
		team := req.Team
		if team == 0 {
			team = models.PickTeam(team1, team2)
		}
		count := team1
		if team == 2 {
			count = team2
		}
		if count >= models.TeamSize {
			return errTeamFull
		}

		participation := models.MatchParticipation{
			ID:      uuid.NewString(),
			MatchID: matchID,
			UserID:  userID,
			Team:    team,
		}
		if err := tx.Create(&participation).Error; err != nil {
			return errAlreadyJoined
		}

		if team == 1 {
			team1++
		} else {
			team2++
		}
		joinedTeam = team
		newStatus = models.NextStatus(match.Status, team1, team2)
		if newStatus != match.Status {
			flip := tx.Model(&models.Match{}).
				Where("id = ? AND status = ?", matchID, models.MatchStatusOpen).
				Update("status", newStatus)
			if flip.Error != nil {
				return flip.Error
			}
			if flip.RowsAffected == 0 {
				return errMatchClosed
			}
			if err := dealCards(tx, matchID); err != nil {
				return err
			}
		}
		return nil
	})
	switch {
	case errors.Is(err, errAlreadyJoined):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "you already joined this match"})
	case errors.Is(err, errTeamFull):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "that team is already full"})
	case errors.Is(err, errMatchClosed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "this match is no longer open"})
	case err != nil:
		log.Printf("[MATCH] join failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to join match"})
	}

	return c.JSON(fiber.Map{
		"message": "joined match",
		"data": fiber.Map{
			"team":   joinedTeam,
			"status": newStatus,
		},
	})
}

var (
	errAlreadyJoined = errors.New("already joined")
	errTeamFull      = errors.New("team full")
	errMatchClosed   = errors.New("match closed")
)

func (s *MatchService) LeaveMatch(c *fiber.Ctx) error {
	matchID := c.Params("id")
	userID := middleware.UserID(c)

	var match models.Match
	if err := s.DB.First(&match, "id = ?", matchID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "match not found"})
	}
	if match.Status != models.MatchStatusOpen {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "you cannot leave a match that has started"})
	}
	if !match.Date.After(time.Now()) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "this match has already started"})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// same per-match lock as JoinMatch, so a leave cannot interleave
		// with the join that starts the match
		lock := tx.Model(&models.Match{}).
			Where("id = ? AND status = ?", matchID, models.MatchStatusOpen).
			Update("updated_at", time.Now())
		if lock.Error != nil {
			return lock.Error
		}
		if lock.RowsAffected == 0 {
			return errMatchClosed
		}

		result := tx.Where("match_id = ? AND user_id = ?", matchID, userID).
			Delete(&models.MatchParticipation{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	switch {
	case errors.Is(err, errMatchClosed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "you cannot leave a match that has started"})
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "you are not signed up for this match"})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to leave match"})
	}

	return c.JSON(fiber.Map{"message": "left match"})
}

// dealCards draws one random active card for every participant that does
// not hold one yet. Runs on the open → in_progress transition and when a
// participant asks for a draw explicitly.
func dealCards(tx *gorm.DB, matchID string) error {
	var cards []models.Card
	if err := tx.Where("is_active = ?", true).Find(&cards).Error; err != nil {
		return err
	}
	if len(cards) == 0 {
		return nil
	}

	var participations []models.MatchParticipation
	if err := tx.Where("match_id = ?", matchID).Find(&participations).Error; err != nil {
		return err
	}

	for _, p := range participations {
		var count int64
		tx.Model(&models.CardAssignment{}).
			Where("participation_id = ?", p.ID).
			Count(&count)
		if count > 0 {
			continue
		}
		assignment := models.CardAssignment{
			ID:              uuid.NewString(),
			MatchID:         matchID,
			ParticipationID: p.ID,
			CardID:          cards[rand.Intn(len(cards))].ID,
		}
		if err := tx.Create(&assignment).Error; err != nil {
			return fmt.Errorf("failed to deal card: %w", err)
		}
	}
	return nil
}
