package middleware

import (
	"io"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/DanielPPerez/API-Estancia2/internal/models"
	"github.com/DanielPPerez/API-Estancia2/internal/repository"
	"github.com/DanielPPerez/API-Estancia2/internal/security"
	"github.com/DanielPPerez/API-Estancia2/internal/services"
	"github.com/DanielPPerez/API-Estancia2/internal/testutil"
	"github.com/DanielPPerez/API-Estancia2/internal/utils"
	"github.com/gofiber/fiber/v2"
)

func newApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: utils.ErrorHandler})
}

func echoUser(c *fiber.Ctx) error {
	return c.SendString(strconv.FormatUint(uint64(UserID(c)), 10))
}

func TestVerifyToken(t *testing.T) {
	issuer := testutil.NewIssuer(t)
	app := newApp()
	app.Get("/me", VerifyToken(issuer), echoUser)

	expired, err := security.NewJWTIssuer(testutil.TestSecret, time.Nanosecond)
	if err != nil {
		t.Fatalf("Failed to create issuer: %v", err)
	}
	stale := testutil.MintToken(t, expired, 7)
	time.Sleep(5 * time.Millisecond)

	tests := []struct {
		name    string
		header  string
		value   string
		status  int
		message string
	}{
		{"bearer", fiber.HeaderAuthorization, "Bearer " + testutil.MintToken(t, issuer, 42), fiber.StatusOK, ""},
		{"legacy header", LegacyTokenHeader, testutil.MintToken(t, issuer, 42), fiber.StatusOK, ""},
		{"missing", "", "", fiber.StatusForbidden, "No token provided!"},
		{"garbage", fiber.HeaderAuthorization, "Bearer nope", fiber.StatusUnauthorized, "Unauthorized!"},
		{"expired", fiber.HeaderAuthorization, "Bearer " + stale, fiber.StatusUnauthorized, "Unauthorized! Access Token was expired!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			testutil.AssertStatus(t, resp, tt.status)
			if tt.status == fiber.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				if string(body) != "42" {
					t.Errorf("Expected user id 42, got %s", body)
				}
				return
			}
			var out map[string]interface{}
			testutil.ParseJSON(t, resp, &out)
			if out["message"] != tt.message {
				t.Errorf("Expected message %q, got %v", tt.message, out["message"])
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.New(db, 5*time.Second)
	resolver := services.NewRoleResolver(repos.Users, nil)
	issuer := testutil.NewIssuer(t)

	evaluator := testutil.CreateTestUser(t, db, "ev", models.RoleEvaluador)
	admin := testutil.CreateTestUser(t, db, "jefa", models.RoleAdmin)
	plain := testutil.CreateTestUser(t, db, "ana", models.RoleUser)

	app := newApp()
	app.Get("/grade", VerifyToken(issuer), AuthEvaluadorOrAdmin(resolver), echoUser)
	app.Get("/admin", VerifyToken(issuer), AuthAdmin(resolver), echoUser)

	cases := []struct {
		path   string
		user   uint
		status int
	}{
		{"/grade", evaluator.ID, fiber.StatusOK},
		{"/grade", admin.ID, fiber.StatusOK},
		{"/grade", plain.ID, fiber.StatusForbidden},
		{"/admin", admin.ID, fiber.StatusOK},
		{"/admin", evaluator.ID, fiber.StatusForbidden},
		{"/admin", plain.ID, fiber.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest("GET", tc.path, nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+testutil.MintToken(t, issuer, tc.user))
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		testutil.AssertStatus(t, resp, tc.status)
	}

	req := httptest.NewRequest("GET", "/grade", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+testutil.MintToken(t, issuer, plain.ID))
	resp, _ := app.Test(req)
	var out map[string]interface{}
	testutil.ParseJSON(t, resp, &out)
	if out["message"] != "Require Evaluador or Admin Role!" {
		t.Errorf("Unexpected message %v", out["message"])
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(60, 2)
	now := time.Now()
	rl.now = func() time.Time { return now }

	app := newApp()
	app.Post("/signin", rl.Handler(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/signin", nil))
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		statuses = append(statuses, resp.StatusCode)
	}
	if statuses[0] != 200 || statuses[1] != 200 || statuses[2] != fiber.StatusTooManyRequests {
		t.Errorf("Expected 200, 200, 429, got %v", statuses)
	}

	// one token refills per second at 60 per minute
	now = now.Add(time.Second)
	resp, _ := app.Test(httptest.NewRequest("POST", "/signin", nil))
	testutil.AssertStatus(t, resp, fiber.StatusOK)
}

func TestRateLimiterSweepsIdleClients(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	start := time.Now()
	now := start
	rl.now = func() time.Time { return now }

	rl.allow("10.0.0.1")
	now = start.Add(9 * time.Minute)
	rl.allow("10.0.0.2")

	now = start.Add(15 * time.Minute)
	rl.allow("10.0.0.3")
	if _, ok := rl.clients["10.0.0.1"]; ok || len(rl.clients) != 2 {
		t.Fatalf("Expected the idle client to be swept, got %d clients", len(rl.clients))
	}

	// 10.0.0.2 is past idle but the last sweep was only five minutes ago
	now = start.Add(20 * time.Minute)
	rl.allow("10.0.0.3")
	if _, ok := rl.clients["10.0.0.2"]; !ok {
		t.Error("Expected no sweep before the interval elapses")
	}

	now = start.Add(26 * time.Minute)
	rl.allow("10.0.0.3")
	if len(rl.clients) != 1 {
		t.Errorf("Expected only the active client to remain, got %d clients", len(rl.clients))
	}
}

func TestVersionMiddleware(t *testing.T) {
	app := newApp()
	app.Use(VersionMiddleware())
	app.Get("/v", func(c *fiber.Ctx) error { return c.SendString(APIVersion(c)) })

	for header, want := range map[string]string{"": CurrentAPIVersion, "1": "1.0.0", "1.0": "1.0.0", "v1.2.3": "1.2.3"} {
		req := httptest.NewRequest("GET", "/v", nil)
		if header != "" {
			req.Header.Set("X-Api-Version", header)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		body, _ := io.ReadAll(resp.Body)
		if string(body) != want || resp.Header.Get("X-Api-Version") != want {
			t.Errorf("Header %q: expected %s, got %s", header, want, body)
		}
	}

	req := httptest.NewRequest("GET", "/v", nil)
	req.Header.Set("X-Api-Version", "2.0")
	resp, _ := app.Test(req)
	testutil.AssertStatus(t, resp, fiber.StatusBadRequest)
}
