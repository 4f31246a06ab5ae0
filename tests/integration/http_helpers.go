package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ironvault/ironvault/internal/auth"
	"github.com/ironvault/ironvault/internal/database"
	"github.com/ironvault/ironvault/internal/handlers"
	middlewareCustom "github.com/ironvault/ironvault/internal/middleware"
	"github.com/ironvault/ironvault/internal/routes"
	"github.com/ironvault/ironvault/internal/services"
	pkghttp "github.com/ironvault/ironvault/pkg/http"
	pkglogger "github.com/ironvault/ironvault/pkg/logger"
)

const (
	testSessionSecret = "integration-test-secret-32-chars"
	testSessionExpiry = 30 * time.Minute
)

// TestServer wraps an httptest.Server backed by a real database.
type TestServer struct {
	Server  *httptest.Server
	DB      *database.DB
	Lockout *auth.LockoutTracker
	logger  *slog.Logger
}

// NewTestServer wires the full HTTP stack against the given database.
func NewTestServer(db *database.DB) *TestServer {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	userRepo, accountRepo, transactionRepo, auditLogRepo := InitializeRepositories(db)

	auditLogger := pkglogger.NewAuditLogger(logger)
	tokenManager := auth.NewTokenManager(testSessionSecret, testSessionExpiry)
	lockoutTracker := auth.NewLockoutTracker(auth.DefaultLockoutConfig())
	ipConfig := &pkghttp.IPConfig{}

	authService := services.NewAuthService(db, userRepo, accountRepo, auditLogRepo, lockoutTracker, tokenManager, logger, auditLogger)
	transferService := services.NewTransferService(db, accountRepo, transactionRepo, auditLogRepo, logger, auditLogger)
	accountService := services.NewAccountService(db, accountRepo, transactionRepo, logger)
	adminService := services.NewAdminService(db, userRepo, accountRepo, transactionRepo, auditLogRepo, logger, auditLogger)
	auditService := services.NewAuditService(auditLogRepo, logger, auditLogger)

	authHandler := handlers.NewAuthHandler(authService, ipConfig)
	transferHandler := handlers.NewTransferHandler(transferService, ipConfig)
	accountHandler := handlers.NewAccountHandler(accountService)
	adminHandler := handlers.NewAdminHandler(adminService, ipConfig)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: "test"}))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	r.Route("/api", func(api chi.Router) {
		routes.RegisterRoutes(api, authHandler, transferHandler, accountHandler, adminHandler, tokenManager, auditService, ipConfig)
	})

	server := httptest.NewServer(r)

	return &TestServer{
		Server:  server,
		DB:      db,
		Lockout: lockoutTracker,
		logger:  logger,
	}
}

// Close shuts down the test server.
func (ts *TestServer) Close() {
	if ts.Server != nil {
		ts.Server.Close()
	}
}

// Request makes an HTTP request to the test server.
func (ts *TestServer) Request(method, path string, body interface{}, headers map[string]string) (*http.Response, error) {
	url := ts.Server.URL + path

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return http.DefaultClient.Do(req)
}

// RequestWithAuth makes an authenticated request with a session token.
func (ts *TestServer) RequestWithAuth(method, path, token string, body interface{}) (*http.Response, error) {
	headers := map[string]string{
		"Authorization": "Bearer " + token,
	}
	return ts.Request(method, path, body, headers)
}

// Login authenticates a seeded user and returns the session token.
func (ts *TestServer) Login(email, password string) (string, error) {
	resp, err := ts.Request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var session struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return "", fmt.Errorf("failed to parse login response: %w", err)
	}
	if session.Token == "" {
		return "", fmt.Errorf("login response missing token")
	}
	return session.Token, nil
}

// ParseJSONResponse parses a JSON response body into the target struct.
func ParseJSONResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}

// GetErrorMessage extracts the error message from an error response.
func GetErrorMessage(resp *http.Response) (string, error) {
	defer resp.Body.Close()
	var errResp map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		return "", err
	}
	if msg, ok := errResp["message"].(string); ok {
		return msg, nil
	}
	if msg, ok := errResp["error"].(string); ok {
		return msg, nil
	}
	return "", nil
}
