package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/timebank/internal/api/http/handlers"
	"github.com/spec-kit/timebank/internal/auth"
	"github.com/spec-kit/timebank/internal/config"
	"github.com/spec-kit/timebank/internal/domain"
	"github.com/spec-kit/timebank/internal/observability"
	"github.com/spec-kit/timebank/internal/repository/memory"
	"github.com/spec-kit/timebank/internal/service"
	"github.com/spec-kit/timebank/internal/worker"
)

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type errorData struct {
	Code string `json:"code"`
}

func newTestApp(t *testing.T, rl config.RateLimitConfig) *fiber.App {
	t.Helper()
	logger := zap.NewNop()
	store := memory.New()
	metrics := observability.NewMetrics()

	tokens := auth.NewTokenAuthenticator(store, 30*time.Minute, logger)
	authService := service.NewAuthService(service.AuthDependencies{
		Store:      store,
		Tokens:     tokens,
		BcryptCost: bcrypt.MinCost,
		Logger:     logger,
	})
	err := authService.SeedAccounts(context.Background(), []service.DevAccount{
		{Type: domain.UserTypeStudent, UserID: "alice", Password: "alice-pw"},
		{Type: domain.UserTypeStaff, UserID: "tom", Password: "tom-pw"},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	points := service.NewPointsService(service.PointsDependencies{Store: store, Metrics: metrics, Logger: logger})
	recalc := service.NewRecalculator(service.RecalculatorDependencies{Store: store, Metrics: metrics, Logger: logger})
	recalcWorker, err := worker.NewRecalculationWorker(recalc, nil, config.RecalcConfig{Schedule: "0 0 * * MON", Timezone: "UTC"}, metrics, logger)
	if err != nil {
		t.Fatalf("worker: %v", err)
	}

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("timebank", "test", nil),
		Session:        handlers.NewSessionHandler(authService),
		Students:       handlers.NewStudentsHandler(points),
		Staff:          handlers.NewStaffHandler(points, recalcWorker),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		Metrics:        metrics,
		RateLimit:      rl,
	})
	return app
}

func defaultRateLimit() config.RateLimitConfig {
	return config.RateLimitConfig{LoginPerSecond: 100, LoginBurst: 100}
}

func do(t *testing.T, app *fiber.App, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
	}
	return resp.StatusCode, env
}

func errorCode(t *testing.T, env envelope) string {
	t.Helper()
	var data errorData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode error data: %v", err)
	}
	return data.Code
}

func login(t *testing.T, app *fiber.App, path, userID, password string) string {
	t.Helper()
	status, env := do(t, app, fiber.MethodPost, path, "", map[string]string{"userId": userID, "password": password})
	if status != fiber.StatusOK {
		t.Fatalf("login %s: status %d %+v", userID, status, env)
	}
	var data struct {
		Token    string `json:"token"`
		UserID   string `json:"userId"`
		UserType string `json:"userType"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if data.Token == "" || data.UserID != userID {
		t.Fatalf("unexpected login data %+v", data)
	}
	return data.Token
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, defaultRateLimit())
	for _, method := range []string{fiber.MethodGet, fiber.MethodPost} {
		status, env := do(t, app, method, "/health", "", nil)
		if status != fiber.StatusOK || env.Status != "success" || env.Message != "Service is healthy" || string(env.Data) != `"OK"` {
			t.Fatalf("%s /health = %d %+v", method, status, env)
		}
	}
}

func TestAuthenticationErrors(t *testing.T) {
	app := newTestApp(t, defaultRateLimit())

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", "AUTHENTICATION_REQUIRED"},
		{"wrong scheme", "Token abc", "AUTHENTICATION_REQUIRED"},
		{"empty bearer", "Bearer ", "AUTHENTICATION_REQUIRED"},
		{"unknown token", "Bearer not-a-real-token", "INVALID_TOKEN"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/stu/details", nil)
			if tc.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tc.header)
			}
			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != fiber.StatusUnauthorized {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			var env envelope
			if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Status != "error" || errorCode(t, env) != tc.code {
				t.Fatalf("unexpected envelope %+v", env)
			}
		})
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	app := newTestApp(t, defaultRateLimit())

	for _, body := range []map[string]string{
		{"userId": "alice", "password": "wrong"},
		{"userId": "nobody", "password": "alice-pw"},
	} {
		status, env := do(t, app, fiber.MethodPost, "/stu/login", "", body)
		if status != fiber.StatusUnauthorized || env.Message != "Invalid credentials" || errorCode(t, env) != "INVALID_CREDENTIALS" {
			t.Fatalf("login %v = %d %+v", body, status, env)
		}
	}

	// a student account cannot log in as staff
	status, _ := do(t, app, fiber.MethodPost, "/sta/login", "", map[string]string{"userId": "alice", "password": "alice-pw"})
	if status != fiber.StatusUnauthorized {
		t.Fatalf("staff login with student account = %d", status)
	}
}

func TestRequestValidationFlow(t *testing.T) {
	app := newTestApp(t, defaultRateLimit())
	stu := login(t, app, "/stu/login", "alice", "alice-pw")
	sta := login(t, app, "/sta/login", "tom", "tom-pw")

	status, env := do(t, app, fiber.MethodPost, "/stu/updatePointsRequest", stu, map[string]any{"pointChange": 10, "contentHtml": "<p>tutoring</p>"})
	if status != fiber.StatusOK {
		t.Fatalf("submit = %d %+v", status, env)
	}
	var submitted struct {
		EventID int64 `json:"eventId"`
	}
	if err := json.Unmarshal(env.Data, &submitted); err != nil || submitted.EventID == 0 {
		t.Fatalf("decode submit: %v %s", err, env.Data)
	}

	if status, _ := do(t, app, fiber.MethodPost, "/sta/validatePointsRequest", stu, map[string]any{"requestId": submitted.EventID}); status != fiber.StatusForbidden {
		t.Fatalf("student validating = %d, want 403", status)
	}

	status, env = do(t, app, fiber.MethodPost, "/sta/validatePointsRequest", sta, map[string]any{
		"requestId":  submitted.EventID,
		"pointDiff":  10,
		"creditDiff": -2,
		"accepted":   true,
	})
	if status != fiber.StatusOK {
		t.Fatalf("validate = %d %+v", status, env)
	}
	var validated struct {
		EventID int64  `json:"eventId"`
		Status  string `json:"status"`
	}
	if err := json.Unmarshal(env.Data, &validated); err != nil || validated.Status != "accepted" || validated.EventID <= submitted.EventID {
		t.Fatalf("unexpected validate data %s", env.Data)
	}

	status, env = do(t, app, fiber.MethodGet, "/stu/details", stu, nil)
	if status != fiber.StatusOK {
		t.Fatalf("details = %d %+v", status, env)
	}
	var details struct {
		AccumulatedPoints  int `json:"accumulatedPoints"`
		AccumulatedCredits int `json:"accumulatedCredits"`
		RequestsMade       int `json:"requestsMade"`
		RequestsApproved   int `json:"requestsApproved"`
	}
	if err := json.Unmarshal(env.Data, &details); err != nil {
		t.Fatalf("decode details: %v", err)
	}
	if details.AccumulatedPoints != 10 || details.AccumulatedCredits != 98 || details.RequestsMade != 2 || details.RequestsApproved != 1 {
		t.Fatalf("unexpected details %+v", details)
	}

	status, env = do(t, app, fiber.MethodPost, "/sta/recalculate", sta, nil)
	if status != fiber.StatusOK {
		t.Fatalf("recalculate = %d %+v", status, env)
	}
	var recalc struct {
		Students int `json:"students"`
	}
	if err := json.Unmarshal(env.Data, &recalc); err != nil || recalc.Students != 1 {
		t.Fatalf("unexpected recalc data %s", env.Data)
	}
}

func TestValidateUnknownRequest(t *testing.T) {
	app := newTestApp(t, defaultRateLimit())
	sta := login(t, app, "/sta/login", "tom", "tom-pw")

	status, env := do(t, app, fiber.MethodPost, "/sta/validatePointsRequest", sta, map[string]any{"requestId": 404, "accepted": true})
	if status != fiber.StatusNotFound || errorCode(t, env) != "NOT_FOUND" {
		t.Fatalf("validate unknown = %d %+v", status, env)
	}
}

func TestSecondLoginAndLogoutRevokeTokens(t *testing.T) {
	app := newTestApp(t, defaultRateLimit())
	first := login(t, app, "/stu/login", "alice", "alice-pw")
	second := login(t, app, "/stu/login", "alice", "alice-pw")

	if status, env := do(t, app, fiber.MethodGet, "/stu/details", first, nil); status != fiber.StatusUnauthorized || errorCode(t, env) != "INVALID_TOKEN" {
		t.Fatalf("first token after relogin = %d %+v", status, env)
	}
	if status, _ := do(t, app, fiber.MethodPost, "/logout", second, nil); status != fiber.StatusOK {
		t.Fatalf("logout = %d", status)
	}
	if status, _ := do(t, app, fiber.MethodGet, "/stu/details", second, nil); status != fiber.StatusUnauthorized {
		t.Fatalf("token after logout = %d", status)
	}
}

func TestLoginIsRateLimited(t *testing.T) {
	app := newTestApp(t, config.RateLimitConfig{LoginPerSecond: 0.001, LoginBurst: 2})
	body := map[string]string{"userId": "alice", "password": "wrong"}

	for i := 0; i < 2; i++ {
		if status, _ := do(t, app, fiber.MethodPost, "/stu/login", "", body); status != fiber.StatusUnauthorized {
			t.Fatalf("attempt %d = %d", i, status)
		}
	}
	status, env := do(t, app, fiber.MethodPost, "/stu/login", "", body)
	if status != fiber.StatusTooManyRequests || errorCode(t, env) != "RATE_LIMITED" {
		t.Fatalf("third attempt = %d %+v", status, env)
	}
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	app := newTestApp(t, defaultRateLimit())
	status, env := do(t, app, fiber.MethodGet, "/nope", "", nil)
	if status != fiber.StatusNotFound || env.Status != "error" || errorCode(t, env) != "NOT_FOUND" {
		t.Fatalf("unknown route = %d %+v", status, env)
	}
}
