package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fdg312/meal-planner/internal/config"
	"golang.org/x/time/rate"
)

func limitedRequest(h http.Handler, method, target, client, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.RemoteAddr = client + ":40000"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRateLimit_MealRoutesShareBucket(t *testing.T) {
	h := newTestServer(&config.Config{RateLimitRPS: 1, RateLimitBurst: 2}).Handler()

	rr := limitedRequest(h, http.MethodPut, "/v1/meal/goals", "1.2.3.4",
		`{"profile_id":"p1","week":"w1","day":2,"protein":{"min":90,"max":120}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("set goal: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = limitedRequest(h, http.MethodPost, "/v1/meal/plan/meals", "1.2.3.4",
		`{"profile_id":"p1","week":"w1","day":2,"meal_id":5}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("add meal: expected 201, got %d", rr.Code)
	}

	rr = limitedRequest(h, http.MethodGet, "/v1/meal/plan/week?profile_id=p1&week=w1", "1.2.3.4", "")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: expected 429, got %d", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "1" {
		t.Errorf("expected Retry-After=1, got %q", got)
	}

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "rate_limited" {
		t.Errorf("expected code=rate_limited, got %q", body.Error.Code)
	}
}

func TestRateLimit_HealthzNotLimited(t *testing.T) {
	h := newTestServer(&config.Config{RateLimitRPS: 1, RateLimitBurst: 1}).Handler()

	for i := 0; i < 5; i++ {
		if rr := limitedRequest(h, http.MethodGet, "/healthz", "1.2.3.4", ""); rr.Code != http.StatusOK {
			t.Fatalf("healthz %d: expected 200, got %d", i, rr.Code)
		}
	}
	// health checks did not spend the client's token
	if rr := limitedRequest(h, http.MethodGet, "/v1/meal/plan?profile_id=p1", "1.2.3.4", ""); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 after health checks, got %d", rr.Code)
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	h := newTestServer(&config.Config{}).Handler()

	for i := 0; i < 10; i++ {
		rr := limitedRequest(h, http.MethodPut, "/v1/meal/goals", "1.2.3.4",
			`{"profile_id":"p1","week":"w1","day":0,"fat":{"min":40,"max":70}}`)
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rr.Code)
		}
	}
}

func TestRateLimit_ClientsIndependent(t *testing.T) {
	h := newTestServer(&config.Config{RateLimitRPS: 1, RateLimitBurst: 1}).Handler()

	if rr := limitedRequest(h, http.MethodGet, "/v1/meal/plan?profile_id=p1", "1.2.3.4", ""); rr.Code != http.StatusOK {
		t.Fatalf("first client: expected 200, got %d", rr.Code)
	}
	if rr := limitedRequest(h, http.MethodGet, "/v1/meal/plan?profile_id=p1", "5.6.7.8", ""); rr.Code != http.StatusOK {
		t.Fatalf("second client: expected 200, got %d", rr.Code)
	}
}

func TestClientLimiters_EvictIdle(t *testing.T) {
	c := newClientLimiters(1, 5)
	if !c.allow("busy") {
		t.Fatal("first request should pass")
	}
	c.buckets["idle"] = rate.NewLimiter(c.limit, c.burst)

	c.mu.Lock()
	c.evictIdle()
	c.mu.Unlock()

	if _, ok := c.buckets["idle"]; ok {
		t.Error("expected idle client to be evicted")
	}
	if _, ok := c.buckets["busy"]; !ok {
		t.Error("expected busy client to be kept")
	}
}

func TestClientAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/meal/plan", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	if got := clientAddr(req); got != "10.0.0.1" {
		t.Errorf("expected RemoteAddr host, got %q", got)
	}

	req.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")
	if got := clientAddr(req); got != "203.0.113.7" {
		t.Errorf("expected first forwarded address, got %q", got)
	}
}
