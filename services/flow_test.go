package services_test

import (
	"testing"
	"time"
)

// TestFullMatchFlow walks one match from league creation to stats through
// the API alone: four joins, the automatic start, the result and all
// twelve cross-ratings.
func TestFullMatchFlow(t *testing.T) {
	e := newEnv(t)
	ids, tokens, leagueID := fourPlayers(t, e)
	_, outsider := e.newUser("elena")

	matchID := e.createMatch(tokens[0], leagueID, time.Now().Add(2*time.Hour))

	teams := make(map[string]int, 4)
	for i, token := range tokens {
		d := e.joinMatch(token, matchID)
		teams[ids[i]] = int(d["team"].(float64))
		wantStatus := "open"
		if i == 3 {
			wantStatus = "in_progress"
		}
		if d["status"] != wantStatus {
			t.Fatalf("after join %d status = %v, want %s", i+1, d["status"], wantStatus)
		}
	}

	status, _ := e.do("POST", "/api/matches/"+matchID+"/result", outsider, map[string]int{"winner_team": 1})
	if status != 403 {
		t.Fatalf("outsider result: status %d, want 403", status)
	}

	status, payload := e.do("POST", "/api/matches/"+matchID+"/result", tokens[0], map[string]int{"winner_team": 1})
	if status != 200 {
		t.Fatalf("result: status %d, body %v", status, payload)
	}

	// every player rates the other three
	for i, token := range tokens {
		entries := make([]map[string]interface{}, 0, 3)
		for j, rated := range ids {
			if j == i {
				continue
			}
			entries = append(entries, map[string]interface{}{"user_id": rated, "rating": 7})
		}
		status, payload := e.do("POST", "/api/matches/"+matchID+"/ratings", token,
			map[string]interface{}{"ratings": entries})
		if status != 201 {
			t.Fatalf("ratings from player %d: status %d, body %v", i, status, payload)
		}
	}

	// a winner's stats after their single match
	var winnerIdx int
	for i, id := range ids {
		if teams[id] == 1 {
			winnerIdx = i
			break
		}
	}
	status, payload = e.do("GET", "/api/profile/stats", tokens[winnerIdx], nil)
	if status != 200 {
		t.Fatalf("stats: status %d, body %v", status, payload)
	}
	stats := data(t, payload)["stats"].(map[string]interface{})
	if stats["total_matches"].(float64) != 1 || stats["matches_won"].(float64) != 1 {
		t.Fatalf("winner record = %v/%v, want 1/1", stats["total_matches"], stats["matches_won"])
	}
	if stats["win_rate"].(float64) != 100 {
		t.Fatalf("win_rate = %v, want 100", stats["win_rate"])
	}
	if stats["average_rating"].(float64) != 7 {
		t.Fatalf("average_rating = %v, want 7", stats["average_rating"])
	}
	if stats["total_ratings_received"].(float64) != 3 {
		t.Fatalf("total_ratings_received = %v, want 3", stats["total_ratings_received"])
	}
	partners := stats["partners"].([]interface{})
	if len(partners) != 1 {
		t.Fatalf("partners = %v, want exactly one", partners)
	}
	if partners[0].(map[string]interface{})["matches_won"].(float64) != 1 {
		t.Fatalf("partner record = %v", partners[0])
	}

	// and the loser's side
	var loserIdx int
	for i, id := range ids {
		if teams[id] == 2 {
			loserIdx = i
			break
		}
	}
	status, payload = e.do("GET", "/api/profile/stats", tokens[loserIdx], nil)
	if status != 200 {
		t.Fatalf("loser stats: status %d", status)
	}
	stats = data(t, payload)["stats"].(map[string]interface{})
	if stats["matches_won"].(float64) != 0 || stats["win_rate"].(float64) != 0 {
		t.Fatalf("loser record = %v", stats)
	}
}
