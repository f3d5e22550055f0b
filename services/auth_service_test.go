package services_test

import (
	"testing"
)

func TestRegisterAndLogin(t *testing.T) {
	e := newEnv(t)

	status, payload := e.do("POST", "/api/auth/register", "", map[string]string{
		"username": "ana",
		"email":    "ana@example.com",
		"password": "secret123",
	})
	if status != 201 {
		t.Fatalf("register: status %d, body %v", status, payload)
	}
	if got := data(t, payload)["username"]; got != "ana" {
		t.Fatalf("registered username = %v, want ana", got)
	}

	status, payload = e.do("POST", "/api/auth/login", "", map[string]string{
		"email":    "ana@example.com",
		"password": "secret123",
	})
	if status != 200 {
		t.Fatalf("login: status %d, body %v", status, payload)
	}
	token := data(t, payload)["token"].(string)
	if token == "" {
		t.Fatal("login returned empty token")
	}

	status, payload = e.do("GET", "/api/auth/profile", token, nil)
	if status != 200 {
		t.Fatalf("profile: status %d, body %v", status, payload)
	}
	profile := data(t, payload)
	if profile["username"] != "ana" {
		t.Fatalf("profile username = %v, want ana", profile["username"])
	}
	if _, leaked := profile["password_hash"]; leaked {
		t.Fatal("password hash leaked in profile payload")
	}
}

func TestRegisterValidation(t *testing.T) {
	e := newEnv(t)
	e.newUser("bruno")

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"missing fields", map[string]string{"username": "x"}, 400},
		{"duplicate username", map[string]string{"username": "bruno", "email": "new@example.com", "password": "pw"}, 409},
		{"duplicate email", map[string]string{"username": "someone", "email": "bruno@example.com", "password": "pw"}, 409},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, payload := e.do("POST", "/api/auth/register", "", tt.body)
			if status != tt.want {
				t.Fatalf("status %d, want %d (body %v)", status, tt.want, payload)
			}
		})
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	e := newEnv(t)
	e.newUser("carla")

	status, _ := e.do("POST", "/api/auth/login", "", map[string]string{
		"email":    "carla@example.com",
		"password": "wrong-password",
	})
	if status != 401 {
		t.Fatalf("wrong password: status %d, want 401", status)
	}

	status, _ = e.do("POST", "/api/auth/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "secret123",
	})
	if status != 401 {
		t.Fatalf("unknown email: status %d, want 401", status)
	}
}

func TestAuthMiddlewareRejectsBadTokens(t *testing.T) {
	e := newEnv(t)
	_, token := e.newUser("dario")

	status, _ := e.do("GET", "/api/auth/validate-token", "", nil)
	if status != 401 {
		t.Fatalf("no token: status %d, want 401", status)
	}

	status, _ = e.do("GET", "/api/auth/validate-token", "not-a-jwt", nil)
	if status != 401 {
		t.Fatalf("garbage token: status %d, want 401", status)
	}

	status, payload := e.do("GET", "/api/auth/validate-token", token, nil)
	if status != 200 {
		t.Fatalf("valid token: status %d, body %v", status, payload)
	}
	if valid := data(t, payload)["valid"]; valid != true {
		t.Fatalf("valid = %v, want true", valid)
	}
}

func TestUpdateProfile(t *testing.T) {
	e := newEnv(t)
	_, token := e.newUser("elena")
	e.newUser("fede")

	status, _ := e.do("PUT", "/api/auth/profile", token, map[string]string{"username": "fede"})
	if status != 409 {
		t.Fatalf("taken username: status %d, want 409", status)
	}

	status, payload := e.do("PUT", "/api/auth/profile", token, map[string]string{"username": "elena2"})
	if status != 200 {
		t.Fatalf("rename: status %d, body %v", status, payload)
	}
	if got := data(t, payload)["username"]; got != "elena2" {
		t.Fatalf("username = %v, want elena2", got)
	}
}
