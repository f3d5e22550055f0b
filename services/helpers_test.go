package services_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"padel-league-service/handlers"
	"padel-league-service/middleware"
	"padel-league-service/models"
	"padel-league-service/services"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

type env struct {
	t       *testing.T
	app     *fiber.App
	db      *gorm.DB
	auth    *services.AuthService
	matches *services.MatchService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	// one shared in-memory database across the pool
	sqlDB.SetMaxOpenConns(1)

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
		t.Fatalf("migrate: %v", err)
	}
	if err := models.SeedCards(db); err != nil {
		t.Fatalf("seed cards: %v", err)
	}

	app := fiber.New(fiber.Config{BodyLimit: 10 * 1024 * 1024})

	authService := services.NewAuthService(db, testSecret)
	leagueService := services.NewLeagueService(db)
	matchService := services.NewMatchService(db)
	cardService := services.NewCardService(db)
	resultService := services.NewResultService(db, t.TempDir())
	statsService := services.NewStatsService(db)

	auth := middleware.AuthRequired(db, testSecret)
	handlers.SetupAuthRoutes(app, authService, auth)
	handlers.SetupLeagueRoutes(app, leagueService, auth)
	handlers.SetupMatchRoutes(app, matchService, cardService, resultService, auth)
	handlers.SetupProfileRoutes(app, statsService, auth)

	return &env{t: t, app: app, db: db, auth: authService, matches: matchService}
}

// newUser seeds a user directly and returns its id and a signed token.
func (e *env) newUser(username string) (string, string) {
	e.t.Helper()
	user := models.User{
		ID:       uuid.NewString(),
		Username: username,
		Email:    username + "@example.com",
	}
	if err := user.SetPassword("secret123"); err != nil {
		e.t.Fatalf("hash password: %v", err)
	}
	if err := e.db.Create(&user).Error; err != nil {
		e.t.Fatalf("create user %s: %v", username, err)
	}
	token, err := e.auth.IssueToken(user.ID)
	if err != nil {
		e.t.Fatalf("issue token: %v", err)
	}
	return user.ID, token
}

// do performs a JSON request against the app and decodes the response body.
func (e *env) do(method, path, token string, body interface{}) (int, map[string]interface{}) {
	e.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	if err != nil {
		e.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var payload map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	return resp.StatusCode, payload
}

func data(t *testing.T, payload map[string]interface{}) map[string]interface{} {
	t.Helper()
	d, ok := payload["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("response has no data object: %v", payload)
	}
	return d
}

// createLeague returns the new league's id and invite code.
func (e *env) createLeague(token, name string) (string, string) {
	e.t.Helper()
	status, payload := e.do("POST", "/api/leagues/", token, map[string]string{"name": name})
	if status != 201 {
		e.t.Fatalf("create league: status %d, body %v", status, payload)
	}
	league := data(e.t, payload)["league"].(map[string]interface{})
	return league["id"].(string), league["invite_code"].(string)
}

func (e *env) joinLeague(token, code string) {
	e.t.Helper()
	status, payload := e.do("POST", "/api/leagues/join/"+code, token, nil)
	if status != 200 {
		e.t.Fatalf("join league: status %d, body %v", status, payload)
	}
}

func (e *env) createMatch(token, leagueID string, date time.Time) string {
	e.t.Helper()
	status, payload := e.do("POST", "/api/leagues/"+leagueID+"/matches", token,
		map[string]string{"date": date.Format(time.RFC3339)})
	if status != 201 {
		e.t.Fatalf("create match: status %d, body %v", status, payload)
	}
	match := data(e.t, payload)["match"].(map[string]interface{})
	return match["id"].(string)
}

func (e *env) joinMatch(token, matchID string) map[string]interface{} {
	e.t.Helper()
	status, payload := e.do("POST", "/api/matches/"+matchID+"/join", token, nil)
	if status != 200 {
		e.t.Fatalf("join match: status %d, body %v", status, payload)
	}
	return data(e.t, payload)
}

// seedCompletedMatch writes a finished 2v2 straight to the database:
// players[0], players[1] on team 1 and players[2], players[3] on team 2.
func (e *env) seedCompletedMatch(leagueID string, winner int, players [4]string) string {
	e.t.Helper()
	match := models.Match{
		ID:          uuid.NewString(),
		LeagueID:    leagueID,
		Date:        time.Now().Add(-2 * time.Hour),
		Status:      models.MatchStatusCompleted,
		WinnerTeam:  &winner,
		CreatedByID: players[0],
	}
	if err := e.db.Create(&match).Error; err != nil {
		e.t.Fatalf("seed match: %v", err)
	}
	for i, userID := range players {
		team := 1
		if i >= 2 {
			team = 2
		}
		p := models.MatchParticipation{
			ID:      uuid.NewString(),
			MatchID: match.ID,
			UserID:  userID,
			Team:    team,
		}
		if err := e.db.Create(&p).Error; err != nil {
			e.t.Fatalf("seed participation: %v", err)
		}
	}
	return match.ID
}
