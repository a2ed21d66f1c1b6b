package auth_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/BichoSolto/BS-Backend/internal/auth"
	"github.com/BichoSolto/BS-Backend/internal/config"
	"github.com/BichoSolto/BS-Backend/internal/db"
	"github.com/BichoSolto/BS-Backend/internal/middleware"
	"github.com/BichoSolto/BS-Backend/internal/uploads"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// dbAvailable tracks whether the database connection was established.
var dbAvailable bool

// testServer is the shared httptest server for all integration tests.
var testServer *httptest.Server

var testStore *auth.Store

func TestMain(m *testing.M) {
	// Load .env.local relative to the repo root (two directories up).
	_ = godotenv.Load("../../.env.local")

	cfg := config.LoadFromEnv()
	if cfg.Validate() != nil {
		// No database available — skip all integration tests gracefully.
		os.Exit(m.Run())
	}

	conn, err := db.Connect(cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "database unreachable, skipping integration tests: %v\n", err)
		os.Exit(m.Run())
	}
	dbAvailable = true

	if err := auth.Init(conn); err != nil {
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}

	uploadDir, err := os.MkdirTemp("", "bs-uploads-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "temp upload dir: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(uploadDir)

	testStore = auth.NewStore(conn)
	saver := &uploads.Saver{Dir: uploadDir, MaxSize: config.DefaultMaxFileSize}
	// secureCookies=false so cookies work over the plain-HTTP test server.
	handler := auth.NewHandler(testStore, saver, "http://localhost:5050", false)
	// All test requests share 127.0.0.1; disable the per-IP login throttle.
	handler.Throttle = func(next http.Handler) http.Handler { return next }

	r := chi.NewRouter()
	r.Use(middleware.CORS(""))
	r.Mount("/api/users", handler.SetupRoutes())

	testServer = httptest.NewServer(r)
	defer testServer.Close()

	os.Exit(m.Run())
}

func requireDB(t *testing.T) {
	t.Helper()
	if !dbAvailable {
		t.Skip("skipping integration test (requires DATABASE_URL)")
	}
}

// client returns an HTTP client with a cookie jar so the session cookie set
// by login/register is carried by subsequent requests.
func client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func postJSON(t *testing.T, c *http.Client, path string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	resp, err := c.Post(testServer.URL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

// register creates a unique user through the API and schedules its removal.
// Returns the email and plaintext password.
func register(t *testing.T, c *http.Client) (email, password string) {
	t.Helper()
	requireDB(t)

	email = fmt.Sprintf("test-%s@example.com", uuid.NewString())
	password = "senha-secreta-123"

	resp := postJSON(t, c, "/api/users/register", map[string]string{
		"name":     "Usuário de Teste",
		"email":    email,
		"password": password,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", resp.StatusCode)
	}

	t.Cleanup(func() {
		testStore.DB.Exec("DELETE FROM user_sessions WHERE user_id IN (SELECT id FROM users WHERE email = ?)", email)
		testStore.DB.Exec("DELETE FROM users WHERE email = ?", email)
	})
	return email, password
}

// registerONG creates an NGO account with the full organization record and
// schedules its removal. Returns the NGO's email and user id.
func registerONG(t *testing.T, c *http.Client) (email, id string) {
	t.Helper()
	requireDB(t)

	email = fmt.Sprintf("ong-%s@example.com", uuid.NewString())
	resp := postJSON(t, c, "/api/users/register", map[string]string{
		"name":             "ONG Teste",
		"email":            email,
		"password":         "senha-secreta-123",
		"role":             "ong",
		"phone":            "11988887777",
		"cnpj":             fmt.Sprintf("cnpj-%s", uuid.NewString()),
		"description":      "Abrigo de teste",
		"responsibleName":  "Responsável",
		"responsiblePhone": "11977776666",
		"address":          "Rua Um, 100",
		"city":             "São Paulo",
		"state":            "SP",
		"postalCode":       "01000-000",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("NGO register: expected 201, got %d", resp.StatusCode)
	}
	var profile struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		t.Fatalf("decode NGO profile: %v", err)
	}

	t.Cleanup(func() {
		testStore.DB.Exec("DELETE FROM user_sessions WHERE user_id IN (SELECT id FROM users WHERE email = ?)", email)
		testStore.DB.Exec("DELETE FROM users WHERE email = ?", email)
	})
	return email, profile.ID
}

// createAdmin inserts an admin straight into the table (admins are never
// self-registered) and returns a logged-in client plus the admin's id.
func createAdmin(t *testing.T) (*http.Client, string) {
	t.Helper()
	requireDB(t)

	email := fmt.Sprintf("admin-%s@example.com", uuid.NewString())
	password := "senha-de-admin-123"
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	admin := auth.User{
		ID:           uuid.NewString(),
		Name:         "Admin de Teste",
		Email:        email,
		PasswordHash: string(hash),
		Role:         auth.RoleAdmin,
		IsActive:     true,
	}
	if err := testStore.DB.Create(&admin).Error; err != nil {
		t.Fatalf("insert admin: %v", err)
	}
	t.Cleanup(func() {
		testStore.DB.Exec("DELETE FROM user_sessions WHERE user_id = ?", admin.ID)
		testStore.DB.Exec("DELETE FROM users WHERE id = ?", admin.ID)
	})

	c := client(t)
	resp := postJSON(t, c, "/api/users/login", map[string]string{
		"email":    email,
		"password": password,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin login: expected 200, got %d", resp.StatusCode)
	}
	return c, admin.ID
}

func TestRegisterLoginMeLogout(t *testing.T) {
	c := client(t)
	email, password := register(t, c)

	// Register logs the user in; /me must work right away.
	resp, err := c.Get(testServer.URL + "/api/users/me")
	if err != nil {
		t.Fatalf("GET /me: %v", err)
	}
	var profile struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /me after register: expected 200, got %d", resp.StatusCode)
	}
	if profile.Email != email {
		t.Errorf("profile email = %q, want %q", profile.Email, email)
	}
	if profile.Role != "user" {
		t.Errorf("default role = %q, want user", profile.Role)
	}

	// Fresh client: log in with the same credentials.
	c2 := client(t)
	resp = postJSON(t, c2, "/api/users/login", map[string]string{
		"email":    email,
		"password": password,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", resp.StatusCode)
	}

	// Logout and verify the session is dead.
	resp = postJSON(t, c2, "/api/users/logout", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", resp.StatusCode)
	}

	resp, err = c2.Get(testServer.URL + "/api/users/me")
	if err != nil {
		t.Fatalf("GET /me after logout: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("GET /me after logout: expected 401, got %d", resp.StatusCode)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	c := client(t)
	email, _ := register(t, c)

	c2 := client(t)
	resp := postJSON(t, c2, "/api/users/login", map[string]string{
		"email":    email,
		"password": "senha-errada",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !strings.Contains(body.Message, "Credenciais inválidas") {
		t.Errorf("expected %q, got %q", "Credenciais inválidas", body.Message)
	}

	// No cookie may be issued on a failed login.
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "session_id" && cookie.Value != "" {
			t.Error("failed login must not set a session cookie")
		}
	}
}

func TestRegisterShortPassword(t *testing.T) {
	requireDB(t)
	c := client(t)

	resp := postJSON(t, c, "/api/users/register", map[string]string{
		"name":     "Curto",
		"email":    fmt.Sprintf("curto-%s@example.com", uuid.NewString()),
		"password": "12345",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for 5-char password, got %d", resp.StatusCode)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	c := client(t)
	email, password := register(t, c)

	resp := postJSON(t, client(t), "/api/users/register", map[string]string{
		"name":     "Duplicado",
		"email":    strings.ToUpper(email), // emails are case-insensitive
		"password": password,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestLogoutWithoutSession(t *testing.T) {
	requireDB(t)

	resp := postJSON(t, client(t), "/api/users/logout", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout without a session should still be 200, got %d", resp.StatusCode)
	}
}

func TestRegisterONGRequiresOrganizationFields(t *testing.T) {
	requireDB(t)

	// Missing cnpj (and the rest of the organization record).
	resp := postJSON(t, client(t), "/api/users/register", map[string]string{
		"name":     "ONG Incompleta",
		"email":    fmt.Sprintf("ong-%s@example.com", uuid.NewString()),
		"password": "senha-secreta-123",
		"role":     "ong",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("NGO register without cnpj: expected 400, got %d", resp.StatusCode)
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !strings.Contains(body.Message, "obrigatório para ONGs") {
		t.Errorf("expected an NGO required-field message, got %q", body.Message)
	}
}

// TestNGODirectoryIsPublic verifies that GET /api/users without a session
// returns the active NGO directory with the slim projection.
func TestNGODirectoryIsPublic(t *testing.T) {
	_, ongID := registerONG(t, client(t))

	resp, err := http.Get(testServer.URL + "/api/users")
	if err != nil {
		t.Fatalf("GET /api/users: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var directory []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&directory); err != nil {
		t.Fatalf("decode directory: %v", err)
	}

	found := false
	for _, entry := range directory {
		if entry["id"] == ongID {
			found = true
		}
		if entry["role"] != "ong" {
			t.Errorf("public directory must only list NGOs, found role %v", entry["role"])
		}
		if _, leaked := entry["email"]; leaked {
			t.Error("public directory must not expose emails")
		}
	}
	if !found {
		t.Errorf("registered NGO %s missing from the public directory", ongID)
	}
}

func TestListUsersForbiddenForNonAdmin(t *testing.T) {
	c := client(t)
	register(t, c)

	resp, err := c.Get(testServer.URL + "/api/users")
	if err != nil {
		t.Fatalf("GET /api/users: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-admin listing: expected 403, got %d", resp.StatusCode)
	}
}

func TestAdminUserAdministration(t *testing.T) {
	userClient := client(t)
	email, password := register(t, userClient)
	admin, adminID := createAdmin(t)

	// Full listing includes regular users.
	resp, err := admin.Get(testServer.URL + "/api/users")
	if err != nil {
		t.Fatalf("GET /api/users as admin: %v", err)
	}
	var listing []struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin listing: expected 200, got %d", resp.StatusCode)
	}
	found := false
	for _, entry := range listing {
		if entry.Email == email {
			found = true
		}
	}
	if !found {
		t.Errorf("registered user %s missing from the admin listing", email)
	}

	// Get-by-id needs the user's id first.
	var userID string
	if err := testStore.DB.Model(&auth.User{}).Select("id").Where("email = ?", email).Scan(&userID).Error; err != nil {
		t.Fatalf("lookup user id: %v", err)
	}
	resp, err = admin.Get(testServer.URL + "/api/users/" + userID)
	if err != nil {
		t.Fatalf("GET /api/users/{id}: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get by id: expected 200, got %d", resp.StatusCode)
	}

	patch := func(id string, active bool) *http.Response {
		body, _ := json.Marshal(map[string]bool{"isActive": active})
		req, err := http.NewRequest(http.MethodPatch, testServer.URL+"/api/users/"+id+"/status", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("build request: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := admin.Do(req)
		if err != nil {
			t.Fatalf("PATCH status: %v", err)
		}
		return resp
	}

	// Deactivate the regular user; their login must then be refused.
	resp = patch(userID, false)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("deactivate: expected 200, got %d", resp.StatusCode)
	}

	resp = postJSON(t, client(t), "/api/users/login", map[string]string{
		"email":    email,
		"password": password,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("login on deactivated account: expected 401, got %d", resp.StatusCode)
	}

	// Reactivate restores access.
	resp = patch(userID, true)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reactivate: expected 200, got %d", resp.StatusCode)
	}

	// Admins cannot deactivate themselves.
	resp = patch(adminID, false)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("self-deactivation: expected 400, got %d", resp.StatusCode)
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !strings.Contains(body.Message, "própria conta") {
		t.Errorf("expected self-deactivation message, got %q", body.Message)
	}
}

func TestUpdatePasswordInvalidatesOtherSessions(t *testing.T) {
	c := client(t)
	email, password := register(t, c)

	// Second session for the same user.
	other := client(t)
	resp := postJSON(t, other, "/api/users/login", map[string]string{
		"email":    email,
		"password": password,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("second login: expected 200, got %d", resp.StatusCode)
	}

	// Change the password from the first session.
	body, _ := json.Marshal(map[string]string{
		"currentPassword": password,
		"newPassword":     "nova-senha-456",
	})
	req, err := http.NewRequest(http.MethodPut, testServer.URL+"/api/users/me/password", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err = c.Do(req)
	if err != nil {
		t.Fatalf("PUT /me/password: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("password change: expected 200, got %d", resp.StatusCode)
	}

	// The other session must now be rejected; the current one still works.
	resp, err = other.Get(testServer.URL + "/api/users/me")
	if err != nil {
		t.Fatalf("GET /me on old session: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("old session after password change: expected 401, got %d", resp.StatusCode)
	}

	resp, err = c.Get(testServer.URL + "/api/users/me")
	if err != nil {
		t.Fatalf("GET /me on current session: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("current session after password change: expected 200, got %d", resp.StatusCode)
	}
}
