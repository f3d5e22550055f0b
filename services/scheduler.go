// services/scheduler.go
package services

import (
	"log"
	"time"

	"padel-league-service/models"

	"github.com/go-co-op/gocron/v2"
)

// staleAfter is how long past its date an open match may linger before
// the sweep cancels it.
const staleAfter = 24 * time.Hour

// StartSweepScheduler cancels open matches that never filled up and whose
// date is long past. in_progress and completed matches are never touched.
func (s *MatchService) StartSweepScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(10*time.Minute),
		gocron.NewTask(s.SweepStaleMatches),
	)
}

// SweepStaleMatches is one sweep pass, returning how many matches it
// cancelled.
func (s *MatchService) SweepStaleMatches() int64 {
	cutoff := time.Now().Add(-staleAfter)
	result := s.DB.Model(&models.Match{}).
		Where("status = ? AND date <= ?", models.MatchStatusOpen, cutoff).
		Update("status", models.MatchStatusCancelled)
	if result.Error != nil {
		log.Printf("[Scheduler] DB error: %v", result.Error)
		return 0
	}
	if result.RowsAffected > 0 {
		log.Printf("[Scheduler] cancelled %d stale open matches", result.RowsAffected)
	}
	return result.RowsAffected
}
