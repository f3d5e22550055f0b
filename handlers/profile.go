package handlers

import (
	"padel-league-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProfileRoutes(app *fiber.App, statsService *services.StatsService, auth fiber.Handler) {
	secured := app.Group("/api", auth)

	secured.Get("/profile/stats", statsService.GetMyStats)
	secured.Get("/profile/history", statsService.GetHistory)
	secured.Get("/users/:id/stats", statsService.GetUserStats)
}
