package handlers

import (
	"padel-league-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App, authService *services.AuthService, auth fiber.Handler) {
	public := app.Group("/api/auth")
	public.Post("/register", authService.Register)
	public.Post("/login", authService.Login)

	secured := app.Group("/api/auth", auth)
	secured.Get("/profile", authService.GetProfile)
	secured.Put("/profile", authService.UpdateProfile)
	secured.Get("/validate-token", authService.ValidateToken)
}
