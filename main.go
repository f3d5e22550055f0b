package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"padel-league-service/config"
	"padel-league-service/handlers"
	"padel-league-service/middleware"
	"padel-league-service/models"
	"padel-league-service/services"
	"padel-league-service/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable not set")
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB, photos are capped well below this
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.League{},
		&models.LeagueMembership{},
		&models.Match{},
		&models.MatchParticipation{},
		&models.Card{},
		&models.CardAssignment{},
		&models.PlayerRating{},
		&models.MatchPhoto{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := models.SeedCards(db); err != nil {
		log.Fatal("failed to seed card catalog:", err)
	}

	// R2 is optional: without it photos land on local disk under UPLOAD_DIR.
	if os.Getenv("CLOUDFLARE_ACCOUNT_ID") != "" {
		if err := utils.InitR2(); err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
	} else {
		log.Println("⚠️  CLOUDFLARE_ACCOUNT_ID not set, storing match photos locally")
	}

	authService := services.NewAuthService(db, cfg.JWTSecret)
	leagueService := services.NewLeagueService(db)
	matchService := services.NewMatchService(db)
	cardService := services.NewCardService(db)
	resultService := services.NewResultService(db, cfg.UploadDir)
	statsService := services.NewStatsService(db)

	auth := middleware.AuthRequired(db, cfg.JWTSecret)

	handlers.SetupAuthRoutes(app, authService, auth)
	handlers.SetupLeagueRoutes(app, leagueService, auth)
	handlers.SetupMatchRoutes(app, matchService, cardService, resultService, auth)
	handlers.SetupProfileRoutes(app, statsService, auth)

	matchService.StartSweepScheduler()

	app.Static("/uploads", "./uploads")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", cfg.Port)
	log.Printf("✅ CORS configured for origins: %s", strings.Join(cfg.AllowedOrigins, ","))

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
