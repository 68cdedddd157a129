package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hutang/internal/config"
	"hutang/internal/models"
	"hutang/internal/money"
	"hutang/internal/services"
	"hutang/internal/session"
	"hutang/internal/store"
	"hutang/internal/websocket"

	"go.uber.org/zap"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, input services.RegisterInput) (models.User, error)
	loginFn    func(ctx context.Context, identifier, password string) (services.LoginResult, error)
	logoutFn   func(ctx context.Context, sessionID string) error
	meFn       func(ctx context.Context, userID string) (models.User, error)
}

func (s stubAuthService) Register(ctx context.Context, input services.RegisterInput) (models.User, error) {
	if s.registerFn == nil {
		return models.User{}, nil
	}
	return s.registerFn(ctx, input)
}

func (s stubAuthService) Login(ctx context.Context, identifier, password string) (services.LoginResult, error) {
	if s.loginFn == nil {
		return services.LoginResult{}, nil
	}
	return s.loginFn(ctx, identifier, password)
}

func (s stubAuthService) Logout(ctx context.Context, sessionID string) error {
	if s.logoutFn == nil {
		return nil
	}
	return s.logoutFn(ctx, sessionID)
}

func (s stubAuthService) Me(ctx context.Context, userID string) (models.User, error) {
	if s.meFn == nil {
		return models.User{}, nil
	}
	return s.meFn(ctx, userID)
}

type stubHutangService struct {
	createFn      func(ctx context.Context, input services.CreateHutangInput) (services.HutangView, error)
	getFn         func(ctx context.Context, hutangID string) (services.HutangView, error)
	listFn        func(ctx context.Context) ([]services.HutangView, error)
	updateFn      func(ctx context.Context, hutangID string, input services.UpdateHutangInput) (services.HutangView, error)
	deleteFn      func(ctx context.Context, hutangID string) error
	applyFn       func(ctx context.Context, hutangID string, amount money.Amount, notes *string) (services.HutangView, error)
	summaryFn     func(ctx context.Context) (models.Summary, error)
	listDebtorsFn func(ctx context.Context) ([]models.DebtorSummary, error)
	getDebtorFn   func(ctx context.Context, userID string) (services.DebtorDetail, error)
}

func (s stubHutangService) Create(ctx context.Context, input services.CreateHutangInput) (services.HutangView, error) {
	if s.createFn == nil {
		return services.HutangView{}, nil
	}
	return s.createFn(ctx, input)
}

func (s stubHutangService) Get(ctx context.Context, hutangID string) (services.HutangView, error) {
	if s.getFn == nil {
		return services.HutangView{}, nil
	}
	return s.getFn(ctx, hutangID)
}

func (s stubHutangService) List(ctx context.Context) ([]services.HutangView, error) {
	if s.listFn == nil {
		return []services.HutangView{}, nil
	}
	return s.listFn(ctx)
}

func (s stubHutangService) Update(ctx context.Context, hutangID string, input services.UpdateHutangInput) (services.HutangView, error) {
	if s.updateFn == nil {
		return services.HutangView{}, nil
	}
	return s.updateFn(ctx, hutangID, input)
}

func (s stubHutangService) Delete(ctx context.Context, hutangID string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, hutangID)
}

func (s stubHutangService) ApplyPayment(ctx context.Context, hutangID string, amount money.Amount, notes *string) (services.HutangView, error) {
	if s.applyFn == nil {
		return services.HutangView{}, nil
	}
	return s.applyFn(ctx, hutangID, amount, notes)
}

func (s stubHutangService) Summary(ctx context.Context) (models.Summary, error) {
	if s.summaryFn == nil {
		return models.Summary{}, nil
	}
	return s.summaryFn(ctx)
}

func (s stubHutangService) ListDebtors(ctx context.Context) ([]models.DebtorSummary, error) {
	if s.listDebtorsFn == nil {
		return []models.DebtorSummary{}, nil
	}
	return s.listDebtorsFn(ctx)
}

func (s stubHutangService) GetDebtor(ctx context.Context, userID string) (services.DebtorDetail, error) {
	if s.getDebtorFn == nil {
		return services.DebtorDetail{}, nil
	}
	return s.getDebtorFn(ctx, userID)
}

// allowSessions accepts any non-empty token as a session of user-1.
type allowSessions struct{}

func (allowSessions) Lookup(_ context.Context, token string) (session.Session, error) {
	return session.Session{ID: "session-1", UserID: "user-1", Token: token}, nil
}

func testConfig() config.Config {
	return config.Config{
		AppEnv:         "test",
		Port:           "0",
		StoreDriver:    config.StoreMemory,
		SessionSecret:  "secret",
		SessionTTL:     time.Hour,
		AllowedOrigins: "*",
	}
}

func newTestHandler(auth AuthService, hutangs HutangService) *Handler {
	return New(testConfig(), auth, hutangs, allowSessions{}, websocket.NewHub(), zap.NewNop())
}

// liveAPI wires the real services over memory stores.
type liveAPI struct {
	server   *httptest.Server
	sessions *session.MemoryStore
	hub      *websocket.Hub
}

func newLiveAPI(t *testing.T) *liveAPI {
	t.Helper()
	users := store.NewMemoryUserStore()
	hutangs := store.NewMemoryHutangStore()
	sessionStore := session.NewMemoryStore()
	manager := session.NewManager(sessionStore, "secret", time.Hour)
	hub := websocket.NewHub()
	handler := New(
		testConfig(),
		services.NewAuthService(users, manager),
		services.NewHutangService(users, hutangs, hub),
		manager,
		hub,
		zap.NewNop(),
	)
	server := httptest.NewServer(handler.Routes())
	t.Cleanup(server.Close)
	return &liveAPI{server: server, sessions: sessionStore, hub: hub}
}

type testEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func (a *liveAPI) do(t *testing.T, method, path, token string, body any) (int, testEnvelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("X-Session-Token", token)
	}
	resp, err := a.server.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	var env testEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode %s %s: %v", method, path, err)
	}
	return resp.StatusCode, env
}

func serve(t *testing.T, handler http.Handler, method, path string, body string) (*httptest.ResponseRecorder, testEnvelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("X-Session-Token", "token")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	var env testEnvelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
	return rr, env
}

func decodeData(t *testing.T, env testEnvelope, dst any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("failed to decode data %s: %v", env.Data, err)
	}
}
