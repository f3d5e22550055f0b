package services

import (
	"math"
	"sort"
	"time"

	"padel-league-service/middleware"
	"padel-league-service/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type StatsService struct {
	DB *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{DB: db}
}

// PartnerStats is the per-teammate breakdown of completed matches.
type PartnerStats struct {
	UserID        string `json:"user_id"`
	Username      string `json:"username"`
	MatchesPlayed int    `json:"matches_played"`
	MatchesWon    int    `json:"matches_won"`
}

type CardUsage struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// UserStats is recomputed from the completed-match history on every read,
// never stored. AverageRating is nil (not 0) when the user has no ratings.
type UserStats struct {
	TotalMatches  int            `json:"total_matches"`
	MatchesWon    int            `json:"matches_won"`
	WinRate       float64        `json:"win_rate"`
	AverageRating *float64       `json:"average_rating"`
	TotalRatings  int            `json:"total_ratings_received"`
	Partners      []PartnerStats `json:"partners"`
	CardUsage     []CardUsage    `json:"card_usage"`
}

// ComputeStats scans every completed match the user played.
func (s *StatsService) ComputeStats(userID string) (*UserStats, error) {
	var participations []models.MatchParticipation
	if err := s.DB.Where("user_id = ?", userID).Find(&participations).Error; err != nil {
		return nil, err
	}

	stats := &UserStats{
		Partners:  []PartnerStats{},
		CardUsage: []CardUsage{},
	}
	partners := make(map[string]*PartnerStats)
	cardCounts := make(map[string]int)

	for _, p := range participations {
		var match models.Match
		if err := s.DB.First(&match, "id = ?", p.MatchID).Error; err != nil {
			continue
		}
		if match.Status != models.MatchStatusCompleted {
			continue
		}

		stats.TotalMatches++
		won := match.WinnerTeam != nil && *match.WinnerTeam == p.Team
		if won {
			stats.MatchesWon++
		}

		// teammate on the same side of the net
		var teammate models.MatchParticipation
		err := s.DB.
			Where("match_id = ? AND team = ? AND user_id <> ?", p.MatchID, p.Team, userID).
			First(&teammate).Error
		if err == nil {
			entry, ok := partners[teammate.UserID]
			if !ok {
				username := ""
				if user, err := lookupUser(s.DB, teammate.UserID); err == nil {
					username = user.Username
				}
				entry = &PartnerStats{UserID: teammate.UserID, Username: username}
				partners[teammate.UserID] = entry
			}
			entry.MatchesPlayed++
			if won {
				entry.MatchesWon++
			}
		}

		var assignment models.CardAssignment
		err = s.DB.Preload("Card").
			Where("participation_id = ? AND used = ?", p.ID, true).
			First(&assignment).Error
		if err == nil {
			cardCounts[assignment.Card.Name]++
		}
	}

	if stats.TotalMatches > 0 {
		stats.WinRate = float64(stats.MatchesWon) / float64(stats.TotalMatches) * 100
	}

	var ratings []models.PlayerRating
	if err := s.DB.Where("rated_id = ?", userID).Find(&ratings).Error; err != nil {
		return nil, err
	}
	stats.TotalRatings = len(ratings)
	if len(ratings) > 0 {
		sum := 0
		for _, r := range ratings {
			sum += r.Rating
		}
		avg := math.Round(float64(sum)/float64(len(ratings))*100) / 100
		stats.AverageRating = &avg
	}

	for _, partner := range partners {
		stats.Partners = append(stats.Partners, *partner)
	}
	sort.Slice(stats.Partners, func(i, j int) bool {
		return stats.Partners[i].MatchesWon > stats.Partners[j].MatchesWon
	})

	for name, count := range cardCounts {
		stats.CardUsage = append(stats.CardUsage, CardUsage{Name: name, Count: count})
	}
	sort.Slice(stats.CardUsage, func(i, j int) bool {
		return stats.CardUsage[i].Count > stats.CardUsage[j].Count
	})

	return stats, nil
}

func (s *StatsService) GetMyStats(c *fiber.Ctx) error {
	stats, err := s.ComputeStats(middleware.UserID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to compute stats"})
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"stats": stats}})
}

func (s *StatsService) GetUserStats(c *fiber.Ctx) error {
	user, err := lookupUser(s.DB, c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "user not found"})
	}

	stats, err := s.ComputeStats(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to compute stats"})
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"user":  fiber.Map{"id": user.ID, "username": user.Username},
		"stats": stats,
	}})
}

// GetHistory lists the user's participations newest first with a per-match
// win/loss verdict.
func (s *StatsService) GetHistory(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var participations []models.MatchParticipation
	if err := s.DB.Where("user_id = ?", userID).Find(&participations).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to fetch history"})
	}

	type histEntry struct {
		date  time.Time
		entry fiber.Map
	}
	entries := make([]histEntry, 0, len(participations))
	for _, p := range participations {
		var match models.Match
		if err := s.DB.First(&match, "id = ?", p.MatchID).Error; err != nil {
			continue
		}
		entry := fiber.Map{
			"match_id":  match.ID,
			"league_id": match.LeagueID,
			"date":      match.Date,
			"team":      p.Team,
			"status":    match.Status,
		}
		if match.Status == models.MatchStatusCompleted && match.WinnerTeam != nil {
			if *match.WinnerTeam == p.Team {
				entry["your_result"] = "win"
			} else {
				entry["your_result"] = "loss"
			}
		}
		entries = append(entries, histEntry{date: match.Date, entry: entry})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].date.After(entries[j].date)
	})
	history := make([]fiber.Map, 0, len(entries))
	for _, e := range entries {
		history = append(history, e.entry)
	}

	return c.JSON(fiber.Map{"data": fiber.Map{"history": history}})
}
