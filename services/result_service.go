package services

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"padel-league-service/middleware"
	"padel-league-service/models"
	"padel-league-service/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxPhotoBytes caps match photo uploads at 5 MiB.
const MaxPhotoBytes = 5 << 20

var allowedPhotoTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

var errAlreadyRated = errors.New("already rated")

type ResultService struct {
	DB *gorm.DB
	// UploadDir receives photos when R2 is not configured.
	UploadDir string
}

func NewResultService(db *gorm.DB, uploadDir string) *ResultService {
	return &ResultService{DB: db, UploadDir: uploadDir}
}

// SubmitResult records the winner and completes the match. First writer
// wins: the status-conditioned update lets exactly one submission through.
func (s *ResultService) SubmitResult(c *fiber.Ctx) error {
	matchID := c.Params("id")
	userID := middleware.UserID(c)

	var match models.Match
	if err := s.DB.First(&match, "id = ?", matchID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "match not found"})
	}

	var participating int64
	s.DB.Model(&models.MatchParticipation{}).
		Where("match_id = ? AND user_id = ?", matchID, userID).
		Count(&participating)
	if participating == 0 {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "only participants can submit the result"})
	}

	if match.Status == models.MatchStatusCompleted {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "the result for this match has already been submitted"})
	}
	if match.Status != models.MatchStatusInProgress {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "this match is not in progress"})
	}

	type Req struct {
		WinnerTeam int `json:"winner_team"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid JSON"})
	}
	if !models.ValidTeam(req.WinnerTeam) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "winner_team must be 1 or 2"})
	}

	result := s.DB.Model(&models.Match{}).
		Where("id = ? AND status = ?", matchID, models.MatchStatusInProgress).
		Updates(map[string]interface{}{
			"status":      models.MatchStatusCompleted,
			"winner_team": req.WinnerTeam,
		})
	if result.Error != nil {
		log.Printf("[RESULT] submit failed: %v", result.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to record result"})
	}
	if result.RowsAffected == 0 {
		// a concurrent submission completed the match first
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "the result for this match has already been submitted"})
	}

	s.DB.First(&match, "id = ?", matchID)
	return c.JSON(fiber.Map{
		"message": "result recorded",
		"data":    fiber.Map{"match": match},
	})
}

// SubmitRatings stores the rater's scores for other participants.
// Ratings are write-once per (match, rater, rated): resubmitting a pair
// is a conflict and the whole batch rolls back.
func (s *ResultService) SubmitRatings(c *fiber.Ctx) error {
	matchID := c.Params("id")
	raterID := middleware.UserID(c)

	var match models.Match
	if err := s.DB.First(&match, "id = ?", matchID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "match not found"})
	}
	if match.Status != models.MatchStatusCompleted {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "ratings open once the match is completed"})
	}

	var participating int64
	s.DB.Model(&models.MatchParticipation{}).
		Where("match_id = ? AND user_id = ?", matchID, raterID).
		Count(&participating)
	if participating == 0 {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "only participants can rate this match"})
	}

	type Entry struct {
		UserID  string `json:"user_id"`
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	type Req struct {
		Ratings []Entry `json:"ratings"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid JSON"})
	}
	if len(req.Ratings) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "ratings are required"})
	}

	var participations []models.MatchParticipation
	s.DB.Where("match_id = ?", matchID).Find(&participations)
	participants := make(map[string]bool, len(participations))
	for _, p := range participations {
		participants[p.UserID] = true
	}

	seen := make(map[string]bool, len(req.Ratings))
	for _, entry := range req.Ratings {
		if entry.UserID == "" || entry.Rating == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "each rating needs user_id and rating"})
		}
		if !participants[entry.UserID] {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "rated user is not a participant of this match"})
		}
		if entry.UserID == raterID {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "you cannot rate yourself"})
		}
		if !models.ValidRatingScore(entry.Rating) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "rating must be an integer between 1 and 10"})
		}
		if seen[entry.UserID] {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "duplicate rating for the same player"})
		}
		seen[entry.UserID] = true
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		for _, entry := range req.Ratings {
			var count int64
			tx.Model(&models.PlayerRating{}).
				Where("match_id = ? AND rater_id = ? AND rated_id = ?", matchID, raterID, entry.UserID).
				Count(&count)
			if count > 0 {
				return errAlreadyRated
			}
			rating := models.PlayerRating{
				ID:      uuid.NewString(),
				MatchID: matchID,
				RaterID: raterID,
				RatedID: entry.UserID,
				Rating:  entry.Rating,
				Comment: entry.Comment,
			}
			if err := tx.Create(&rating).Error; err != nil {
				// unique (match, rater, rated): concurrent duplicate
				return errAlreadyRated
			}
		}
		return nil
	})
	if errors.Is(err, errAlreadyRated) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "you have already rated that player for this match"})
	}
	if err != nil {
		log.Printf("[RATING] submit failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to record ratings"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "ratings recorded"})
}

// UploadPhoto attaches a photo to a completed match. Stored in R2 when
// configured, otherwise under UploadDir on local disk.
func (s *ResultService) UploadPhoto(c *fiber.Ctx) error {
	matchID := c.Params("id")
	userID := middleware.UserID(c)

	var match models.Match
	if err := s.DB.First(&match, "id = ?", matchID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "match not found"})
	}
	if match.Status != models.MatchStatusCompleted {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "photos can only be added to completed matches"})
	}

	var participating int64
	s.DB.Model(&models.MatchParticipation{}).
		Where("match_id = ? AND user_id = ?", matchID, userID).
		Count(&participating)
	if participating == 0 {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "only participants can add photos"})
	}

	photo, err := c.FormFile("photo")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "photo file is required"})
	}
	if photo.Size > MaxPhotoBytes {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "photo must be 5 MiB or smaller"})
	}
	contentType := photo.Header.Get("Content-Type")
	if !allowedPhotoTypes[contentType] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "unsupported image type"})
	}

	ext := strings.ToLower(filepath.Ext(photo.Filename))
	if ext == "" {
		ext = ".jpg"
	}
	name := fmt.Sprintf("%s_%s_%s%s", matchID, userID, time.Now().UTC().Format("20060102150405"), ext)

	var url string
	if utils.R2Enabled() {
		url, err = utils.UploadFileToR2(photo, "match_photos/"+name)
		if err != nil {
			log.Printf("[PHOTO] R2 upload failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to store photo"})
		}
	} else {
		dest := filepath.Join(s.UploadDir, name)
		if err := utils.SaveFile(photo, dest); err != nil {
			log.Printf("[PHOTO] local save failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to store photo"})
		}
		url = "/" + filepath.ToSlash(dest)
	}

	record := models.MatchPhoto{
		ID:      uuid.NewString(),
		MatchID: matchID,
		UserID:  userID,
		URL:     url,
	}
	if err := s.DB.Create(&record).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to save photo reference"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "photo uploaded",
		"data":    fiber.Map{"photo": record},
	})
}

func (s *ResultService) GetMatchPhotos(c *fiber.Ctx) error {
	matchID := c.Params("id")
	userID := middleware.UserID(c)

	var match models.Match
	if err := s.DB.First(&match, "id = ?", matchID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "match not found"})
	}
	if !isLeagueMember(s.DB, match.LeagueID, userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "you do not have access to this match"})
	}

	var photos []models.MatchPhoto
	s.DB.Where("match_id = ?", matchID).Order("uploaded_at ASC").Find(&photos)

	payload := make([]fiber.Map, 0, len(photos))
	for _, photo := range photos {
		entry := fiber.Map{
			"id":          photo.ID,
			"url":         photo.URL,
			"uploaded_at": photo.UploadedAt,
		}
		if user, err := lookupUser(s.DB, photo.UserID); err == nil {
			entry["user"] = fiber.Map{"id": user.ID, "username": user.Username}
		}
		payload = append(payload, entry)
	}

	return c.JSON(fiber.Map{"data": fiber.Map{"photos": payload}})
}
