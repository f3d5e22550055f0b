package handlers

import (
	"padel-league-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupMatchRoutes(
	app *fiber.App,
	matchService *services.MatchService,
	cardService *services.CardService,
	resultService *services.ResultService,
	auth fiber.Handler,
) {
	secured := app.Group("/api", auth)

	// Scheduling within a league
	secured.Post("/leagues/:id/matches", matchService.CreateMatch)
	secured.Get("/leagues/:id/matches", matchService.GetLeagueMatches)

	// Match lifecycle
	secured.Get("/matches/:id", matchService.GetMatch)
	secured.Post("/matches/:id/join", matchService.JoinMatch)
	secured.Post("/matches/:id/leave", matchService.LeaveMatch)

	// Cards
	secured.Post("/matches/:id/assign-cards", cardService.AssignCard)
	secured.Post("/matches/:id/use-card", cardService.UseCard)

	// Result, ratings, photos
	secured.Post("/matches/:id/result", resultService.SubmitResult)
	secured.Post("/matches/:id/ratings", resultService.SubmitRatings)
	secured.Post("/matches/:id/photos", resultService.UploadPhoto)
	secured.Get("/matches/:id/photos", resultService.GetMatchPhotos)
}
