package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"finlearn/internal/database"
	"finlearn/internal/models"
	"finlearn/internal/repository"
	"finlearn/internal/security"
	"finlearn/internal/service"
)

type testMailer struct {
	verifyTokens []string
	resetTokens  []string
}

func (m *testMailer) SendVerificationEmail(_ context.Context, _, _, token string) error {
	m.verifyTokens = append(m.verifyTokens, token)
	return nil
}

func (m *testMailer) SendPasswordResetEmail(_ context.Context, _, _, token string) error {
	m.resetTokens = append(m.resetTokens, token)
	return nil
}

type testServer struct {
	db     *database.DB
	auth   *service.AuthService
	mailer *testMailer
	mux    *http.ServeMux
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := database.Initialize(filepath.Join(t.TempDir(), "handlers.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.RunMigrations(context.Background(), "../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	mailer := &testMailer{}
	jwt := security.NewTokenManager("handler-secret", 15*time.Minute, time.Hour)
	auth := service.NewAuthService(repository.NewUserRepository(db), repository.NewTokenRepository(db), jwt, mailer, nil)
	progression := service.NewProgressionService(db, service.ProgressionOptions{LevelXPStep: 1000, StreakGrace: 48 * time.Hour}, nil, nil)
	lessons := service.NewLessonService(repository.NewLessonRepository(db))

	responder := NewResponder(nil, false)
	mw := NewMiddleware(auth, nil, nil)
	authHandler := NewAuthHandler(auth, map[string]OAuthProvider{}, security.NewStateSigner("handler-secret"), "", "http://app.test", responder)
	ph := NewProgressionHandler(progression, responder)
	lh := NewLessonHandler(lessons, responder)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/signup", authHandler.Signup)
	mux.HandleFunc("POST /api/v1/auth/signin", authHandler.Signin)
	mux.HandleFunc("GET /api/v1/auth/verify-email/{token}", authHandler.VerifyEmail)
	mux.HandleFunc("POST /api/v1/auth/refresh-token", authHandler.RefreshToken)
	mux.HandleFunc("GET /api/v1/education/gamification/summary", mw.RequireAuth(ph.Summary))
	mux.HandleFunc("POST /api/v1/education/gamification/complete-module", mw.RequireAuth(ph.CompleteModule))
	mux.HandleFunc("POST /api/v1/education/gamification/achievement", mw.RequireAuth(ph.UnlockAchievement))
	mux.HandleFunc("GET /api/v1/education/stats", mw.RequireAuth(ph.Stats))
	mux.HandleFunc("PUT /api/v1/education/stats", mw.RequireAuth(ph.UpdateStats))
	mux.HandleFunc("POST /api/v1/education/stats/add-xp", mw.RequireAuth(ph.AddXP))
	mux.HandleFunc("GET /api/v1/education/stats/check-streak", mw.RequireAuth(ph.CheckStreak))
	mux.HandleFunc("GET /api/v1/education/lessons/{id}", lh.Get)

	return &testServer{db: db, auth: auth, mailer: mailer, mux: mux}
}

// signedInUser creates a verified account and returns its access token
func (s *testServer) signedInUser(t *testing.T, email string) (string, *models.User) {
	t.Helper()
	user := &models.User{Username: "learner", Email: email, EmailVerified: true}
	hash, err := security.HashPassword("long password")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user.PasswordHash = hash
	if err := repository.NewUserRepository(s.db).Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	sess, err := s.auth.Signin(context.Background(), email, "long password")
	if err != nil {
		t.Fatalf("Signin() error = %v", err)
	}
	return sess.AccessToken, user
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}
