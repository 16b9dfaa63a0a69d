package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"unihub/internal/config"
	"unihub/internal/database"
	"unihub/internal/models"
	"unihub/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// captureMailer records verification tokens instead of sending mail.
type captureMailer struct {
	tokens chan string
}

func newCaptureMailer() *captureMailer {
	return &captureMailer{tokens: make(chan string, 4)}
}

func (m *captureMailer) SendVerification(to, username, token string) error {
	m.tokens <- token
	return nil
}

func (m *captureMailer) waitToken(t *testing.T) string {
	t.Helper()
	select {
	case token := <-m.tokens:
		return token
	case <-time.After(2 * time.Second):
		t.Fatal("no verification mail dispatched")
		return ""
	}
}

func newTestServer(t *testing.T) (*Server, *fiber.App, *captureMailer) {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		Port:           "3000",
		BaseURL:        "http://localhost:3000",
		SessionTTLMins: 60,
		UploadDir:      t.TempDir(),
		MaxUploadMB:    5,
		Env:            "test",
	}

	mailer := newCaptureMailer()
	s, err := NewServerWithDeps(cfg, db, nil, session.NewMemoryStore(time.Hour), mailer)
	require.NoError(t, err)

	return s, s.App(), mailer
}

// createUser inserts a user directly, bypassing the registration flow.
func createUser(t *testing.T, db *gorm.DB, username, password string, role models.Role) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Username:     username,
		Email:        username + "@example.edu",
		PasswordHash: string(hash),
		Role:         role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

type request struct {
	method  string
	path    string
	body    any    // map/struct -> JSON, string -> form-encoded
	accept  string // "" means no Accept header (HTML default)
	cookie  string // session ID
	referer string
}

func do(t *testing.T, app *fiber.App, r request) *http.Response {
	t.Helper()

	var body io.Reader
	contentType := ""
	switch b := r.body.(type) {
	case nil:
	case string:
		body = strings.NewReader(b)
		contentType = "application/x-www-form-urlencoded"
	default:
		buf, err := json.Marshal(b)
		require.NoError(t, err)
		body = bytes.NewReader(buf)
		contentType = "application/json"
	}

	req := httptest.NewRequest(r.method, r.path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if r.accept != "" {
		req.Header.Set("Accept", r.accept)
	}
	if r.cookie != "" {
		req.Header.Set("Cookie", session.CookieName+"="+r.cookie)
	}
	if r.referer != "" {
		req.Header.Set("Referer", r.referer)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	buf, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(buf)
}

// sessionCookie extracts the session ID from the response's Set-Cookie
// header; empty when none was set.
func sessionCookie(resp *http.Response) string {
	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName && c.Value != "" {
			return c.Value
		}
	}
	return ""
}

// login posts credentials and returns the session ID.
func login(t *testing.T, app *fiber.App, username, password string) string {
	t.Helper()
	resp := do(t, app, request{
		method: http.MethodPost,
		path:   "/login",
		body:   map[string]string{"username": username, "password": password},
		accept: "application/json",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sid := sessionCookie(resp)
	require.NotEmpty(t, sid)
	return sid
}
