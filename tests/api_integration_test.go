package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"skirmish/internal/api"
	"skirmish/internal/command"
	"skirmish/internal/sim"
)

func newTestServer(t *testing.T) (*httptest.Server, *sim.Sim, *command.Queue) {
	t.Helper()
	s := sim.New(sim.DefaultConfig(7))
	queue := command.NewQueue(command.DefaultQueueConfig())
	srv := api.NewServer(s, queue)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, s, queue
}

// TestNewServerRouterHasNoSideEffects verifies that building a Server and
// pulling its Router out is side-effect free: no goroutines are started
// and no network listener opens until Start() is called.
func TestNewServerRouterHasNoSideEffects(t *testing.T) {
	s := sim.New(sim.DefaultConfig(1))
	queue := command.NewQueue(command.DefaultQueueConfig())
	srv := api.NewServer(s, queue)

	router := srv.Router()
	if router == nil {
		t.Fatal("Router should not be nil")
	}
}

func TestAPIIterUnitsEmpty(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/units")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	var units []interface{}
	if err := json.NewDecoder(resp.Body).Decode(&units); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(units) != 0 {
		t.Errorf("expected 0 units, got %d", len(units))
	}
}

func TestAPIAddUnitAndGet(t *testing.T) {
	ts, _, _ := newTestServer(t)

	body := bytes.NewReader([]byte(`{"X":10,"Y":20,"Faction":1,"Char":{"HealthMax":100,"Dexterity":50,"Strength":50,"Reflexes":50,"Coolness":50}}`))
	resp, err := http.Post(ts.URL+"/api/units", "application/json", body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var added map[string]uint32
	if err := json.NewDecoder(resp.Body).Decode(&added); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	resp2, err := http.Get(ts.URL + "/api/units")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp2.Body.Close()

	var units []map[string]interface{}
	if err := json.NewDecoder(resp2.Body).Decode(&units); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("expected 1 unit after add, got %d", len(units))
	}
}

func TestAPIMoveUnitAccepted(t *testing.T) {
	ts, s, queue := newTestServer(t)

	c := sim.Character{HealthMax: 100, Dexterity: 50, Strength: 50, Reflexes: 50, Coolness: 50}
	id := s.AddUnit(sim.UnitSpec{X: 0, Y: 0, Faction: 1, Char: c})

	body := bytes.NewReader([]byte(`{"X":100,"Y":100}`))
	resp, err := http.Post(ts.URL+"/api/units/"+strconv.Itoa(int(id))+"/move", "application/json", body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("expected 202 Accepted, got %d", resp.StatusCode)
	}
	if queue.Len() != 1 {
		t.Errorf("expected 1 queued command, got %d", queue.Len())
	}
}

func TestAPIBadUnitIDRejected(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/units/not-a-number")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed unit id, got %d", resp.StatusCode)
	}
}

func TestAPIUnknownUnitNotFound(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/units/999")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown unit, got %d", resp.StatusCode)
	}
}

func TestAPICORSHeaders(t *testing.T) {
	ts, _, _ := newTestServer(t)

	req, _ := http.NewRequest("GET", ts.URL+"/api/units", nil)
	req.Header.Set("Origin", "http://localhost:5173")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("expected CORS origin echoed back, got %q", got)
	}
}

func TestAPIRateLimiting(t *testing.T) {
	ts, _, _ := newTestServer(t)

	var gotRateLimited bool
	for i := 0; i < 200; i++ {
		resp, err := http.Get(ts.URL + "/api/units")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			gotRateLimited = true
			break
		}
	}
	// Default rate limit (10 rps, burst 20) should trip well before 200
	// back-to-back requests from the same test-client IP finish.
	if !gotRateLimited {
		t.Error("expected to be rate limited after burst exceeded")
	}
}
