package services

import (
	"errors"
	"log"

	"padel-league-service/middleware"
	"padel-league-service/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type LeagueService struct {
	DB *gorm.DB
}

func NewLeagueService(db *gorm.DB) *LeagueService {
	return &LeagueService{DB: db}
}

// isLeagueMember is the access check shared by league and match services.
func isLeagueMember(db *gorm.DB, leagueID, userID string) bool {
	var count int64
	db.Model(&models.LeagueMembership{}).
		Where("league_id = ? AND user_id = ?", leagueID, userID).
		Count(&count)
	return count > 0
}

// newUniqueInviteCode retries generation until the code is unused.
// Collisions are rare with a 32^8 space, the loop is just a guard.
func newUniqueInviteCode(db *gorm.DB) string {
	for {
		code := models.NewInviteCode()
		var count int64
		db.Model(&models.League{}).Where("invite_code = ?", code).Count(&count)
		if count == 0 {
			return code
		}
	}
}

func (s *LeagueService) CreateLeague(c *fiber.Ctx) error {
	type Req struct {
		Name string `json:"name"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid JSON"})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "league name is required"})
	}

	userID := middleware.UserID(c)
	league := models.League{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Slug:        slug.Make(req.Name),
		InviteCode:  newUniqueInviteCode(s.DB),
		CreatedByID: userID,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&league).Error; err != nil {
			return err
		}
		membership := models.LeagueMembership{
			ID:       uuid.NewString(),
			LeagueID: league.ID,
			UserID:   userID,
		}
		return tx.Create(&membership).Error
	})
	if err != nil {
		log.Printf("[LEAGUE] create failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to create league"})
	}

	league.MemberCount = 1
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "league created",
		"data": fiber.Map{
			"league":      league,
			"invite_link": "/join/" + league.InviteCode,
		},
	})
}

func (s *LeagueService) GetMyLeagues(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var memberships []models.LeagueMembership
	if err := s.DB.Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to fetch leagues"})
	}

	leagues := make([]fiber.Map, 0, len(memberships))
	for _, m := range memberships {
		var league models.League
		if err := s.DB.First(&league, "id = ?", m.LeagueID).Error; err != nil {
			continue
		}
		s.DB.Model(&models.LeagueMembership{}).Where("league_id = ?", league.ID).Count(&league.MemberCount)
		s.DB.Model(&models.Match{}).Where("league_id = ?", league.ID).Count(&league.MatchCount)
		leagues = append(leagues, fiber.Map{
			"league":    league,
			"joined_at": m.JoinedAt,
		})
	}

	return c.JSON(fiber.Map{"data": fiber.Map{"leagues": leagues}})
}

func (s *LeagueService) GetLeague(c *fiber.Ctx) error {
	leagueID := c.Params("id")
	userID := middleware.UserID(c)

	if !isLeagueMember(s.DB, leagueID, userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "you are not a member of this league"})
	}

	var league models.League
	if err := s.DB.First(&league, "id = ?", leagueID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "league not found"})
	}

	var memberships []models.LeagueMembership
	s.DB.Where("league_id = ?", leagueID).Order("joined_at ASC").Find(&memberships)

	members := make([]fiber.Map, 0, len(memberships))
	for _, m := range memberships {
		user, err := lookupUser(s.DB, m.UserID)
		if err != nil {
			continue
		}
		members = append(members, fiber.Map{
			"user_id":   user.ID,
			"username":  user.Username,
			"joined_at": m.JoinedAt,
		})
	}

	league.MemberCount = int64(len(members))
	s.DB.Model(&models.Match{}).Where("league_id = ?", leagueID).Count(&league.MatchCount)

	return c.JSON(fiber.Map{"data": fiber.Map{
		"league":  league,
		"members": members,
	}})
}

func (s *LeagueService) JoinLeague(c *fiber.Ctx) error {
	code := c.Params("code")
	userID := middleware.UserID(c)

	var league models.League
	if err := s.DB.First(&league, "invite_code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "invalid invite code"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to look up invite code"})
	}

	if isLeagueMember(s.DB, league.ID, userID) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "you are already a member of this league"})
	}

	membership := models.LeagueMembership{
		ID:       uuid.NewString(),
		LeagueID: league.ID,
		UserID:   userID,
	}
	if err := s.DB.Create(&membership).Error; err != nil {
		// unique constraint: concurrent join of the same user
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "you are already a member of this league"})
	}

	return c.JSON(fiber.Map{
		"message": "joined league",
		"data":    fiber.Map{"league": league},
	})
}

func (s *LeagueService) UpdateLeague(c *fiber.Ctx) error {
	leagueID := c.Params("id")
	userID := middleware.UserID(c)

	var league models.League
	if err := s.DB.First(&league, "id = ?", leagueID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "league not found"})
	}
	if league.CreatedByID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "only the league creator can update it"})
	}

	type Req struct {
		Name string `json:"name"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid JSON"})
	}
	if req.Name != "" {
		league.Name = req.Name
		league.Slug = slug.Make(req.Name)
	}

	if err := s.DB.Save(&league).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to update league"})
	}
	return c.JSON(fiber.Map{"message": "league updated", "data": fiber.Map{"league": league}})
}

// RegenerateInvite replaces the invite code atomically; the old code stops
// working the moment the update commits.
func (s *LeagueService) RegenerateInvite(c *fiber.Ctx) error {
	leagueID := c.Params("id")
	userID := middleware.UserID(c)

	var league models.League
	if err := s.DB.First(&league, "id = ?", leagueID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "league not found"})
	}
	if league.CreatedByID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "only the league creator can regenerate the invite code"})
	}

	league.InviteCode = newUniqueInviteCode(s.DB)
	if err := s.DB.Save(&league).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to regenerate invite code"})
	}

	return c.JSON(fiber.Map{
		"message": "invite code regenerated",
		"data": fiber.Map{
			"league":      league,
			"invite_link": "/join/" + league.InviteCode,
		},
	})
}
