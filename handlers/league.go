package handlers

import (
	"padel-league-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupLeagueRoutes(app *fiber.App, leagueService *services.LeagueService, auth fiber.Handler) {
	leagues := app.Group("/api/leagues", auth)

	leagues.Post("/", leagueService.CreateLeague)
	leagues.Get("/", leagueService.GetMyLeagues)

	// registered before /:id so "join" is not read as a league id
	leagues.Post("/join/:code", leagueService.JoinLeague)

	leagues.Get("/:id", leagueService.GetLeague)
	leagues.Put("/:id", leagueService.UpdateLeague)
	leagues.Post("/:id/regenerate-invite", leagueService.RegenerateInvite)
}
