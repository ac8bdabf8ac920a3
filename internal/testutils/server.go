package testutils

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/warden/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	"github.com/stretchr/testify/require"
)

// Seeded accounts of a fresh FakeAPI.
const (
	AdminEmail    = "admin@example.com"
	AdminPassword = "admin123"
	UserEmail     = "jane@example.com"
	UserPassword  = "jane123"

	// OTPCode is the one-time code mailed for every created account.
	OTPCode = "123456"
)

// Cookie names used by the API's token layer.
const (
	accessCookie      = "access_token_cookie"
	refreshCookie     = "refresh_token_cookie"
	csrfAccessCookie  = "csrf_access_token"
	csrfRefreshCookie = "csrf_refresh_token"
)

type account struct {
	user     domain.User
	password string
	admin    bool
	otp      string
	created  time.Time
}

type tokenClaims struct {
	Role string `json:"role,omitempty"`
	Type string `json:"type,omitempty"`
	Kind string `json:"kind"`
	CSRF string `json:"csrf"`
	Gen  int    `json:"gen"`
	jwt.RegisteredClaims
}

// FakeAPI is an httptest server speaking the API's cookie protocol:
// JWT cookies, double-submit CSRF cookies, rotation on refresh.
// Every request is validated against the embedded OpenAPI contract.
type FakeAPI struct {
	*httptest.Server

	// RefreshWithClaims makes refreshed access tokens carry role/type claims.
	// The real API mints them bare.
	RefreshWithClaims bool

	contract *Contract
	secret   []byte

	mu         sync.Mutex
	accounts   map[int]*account
	nextID     int
	generation map[string]int
	hits       map[string]int
	failures   map[string]int
}

// NewFakeAPI starts a server seeded with one admin and one verified user.
// It is closed, and checked for contract violations, when the test ends.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()

	contract, err := LoadContract()
	require.NoError(t, err)

	f := &FakeAPI{
		contract:   contract,
		secret:     []byte(uuid.NewString()),
		accounts:   make(map[int]*account),
		nextID:     1,
		generation: make(map[string]int),
		hits:       make(map[string]int),
		failures:   make(map[string]int),
	}
	f.addAccount(domain.User{Email: AdminEmail, FirstName: "Ada", LastName: "Admin", Role: "ADMIN", IsActive: true, IsVerified: true}, AdminPassword, true)
	f.addAccount(domain.User{Email: UserEmail, FirstName: "Jane", LastName: "Doe", Role: "USER", IsActive: true, IsVerified: true}, UserPassword, false)

	f.Server = httptest.NewServer(f.routes())
	t.Cleanup(func() {
		f.Close()
		if v := contract.Violations(); len(v) > 0 {
			t.Errorf("requests violating the api contract:\n%s", strings.Join(v, "\n"))
		}
	})
	return f
}

// BaseURL is the API root to hand to api.NewTransport.
func (f *FakeAPI) BaseURL() string {
	return f.URL + "/api"
}

// Hits returns how many times "METHOD /path" (route pattern, without the /api prefix) was served.
func (f *FakeAPI) Hits(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[route]
}

// RevokeAccess makes every access token issued so far answer 401, as if expired.
func (f *FakeAPI) RevokeAccess() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generation["access"]++
}

// RevokeRefresh makes every refresh token issued so far answer 401.
func (f *FakeAPI) RevokeRefresh() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generation["refresh"]++
}

// FailNext makes the next n requests to route answer 500.
func (f *FakeAPI) FailNext(route string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[route] = n
}

// Account returns the stored user with the given email.
func (f *FakeAPI) Account(email string) (domain.User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.user.Email == email {
			return a.user, true
		}
	}
	return domain.User{}, false
}

func (f *FakeAPI) addAccount(u domain.User, password string, admin bool) *account {
	u.ID = f.nextID
	f.nextID++
	a := &account{user: u, password: password, admin: admin, created: time.Now()}
	f.accounts[u.ID] = a
	return a
}

func (f *FakeAPI) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Use(f.contract.Middleware("/api"))
		r.Use(f.countHits)

		r.Post("/auth/admin-login", f.login(true))
		r.Post("/auth/user-login", f.login(false))
		r.Post("/auth/refresh", f.refresh)
		r.Post("/auth/verify-otp", f.verifyOTP)
		r.Post("/upload/profile-picture", f.upload)

		r.Group(func(r chi.Router) {
			r.Use(f.requireAccess)
			r.Post("/auth/logout", f.logout)
			r.Get("/auth/check", f.check)
			r.Get("/auth/profile", f.profile)

			r.Route("/admin/users", func(r chi.Router) {
				r.Use(requireAdmin)
				r.Get("/", f.listUsers)
				r.Post("/", f.createUser)
				r.Get("/{id}", f.getUser)
				r.Put("/{id}", f.updateUser)
				r.Delete("/{id}", f.deleteUser)
			})
		})
	})
	return r
}

// countHits records the request and serves any failure queued with FailNext.
func (f *FakeAPI) countHits(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + strings.TrimPrefix(r.URL.Path, "/api")

		f.mu.Lock()
		f.hits[route]++
		fail := f.failures[route] > 0
		if fail {
			f.failures[route]--
		}
		f.mu.Unlock()

		if fail {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "injected failure"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) login(admin bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds domain.Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "No JSON data provided"})
			return
		}
		email := strings.ToLower(strings.TrimSpace(creds.Email))
		if !strings.Contains(email, "@") {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid email format"})
			return
		}

		f.mu.Lock()
		var found *account
		for _, a := range f.accounts {
			if a.user.Email == email && a.admin == admin && a.user.IsActive && a.password == creds.Password {
				found = a
			}
		}
		f.mu.Unlock()

		if found == nil {
			msg := "Invalid user credentials"
			if admin {
				msg = "Invalid admin credentials"
			}
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": msg})
			return
		}
		if !admin && !found.user.IsVerified {
			writeJSON(w, http.StatusForbidden, map[string]string{"message": "Account not verified"})
			return
		}

		role, kind := "USER", "user"
		if admin {
			role, kind = "ADMIN", "admin"
		}
		subject := strconv.Itoa(found.user.ID)
		access := f.issue(w, subject, "access", role, kind)
		refresh := f.issue(w, subject, "refresh", role, kind)

		writeJSON(w, http.StatusOK, map[string]string{
			"accessToken":  access,
			"refreshToken": refresh,
			"role":         role,
			"type":         kind,
		})
	}
}

func (f *FakeAPI) refresh(w http.ResponseWriter, r *http.Request) {
	claims, err := f.verify(r, refreshCookie, "refresh")
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": err.Error()})
		return
	}

	role, kind := "", ""
	if f.RefreshWithClaims {
		role, kind = claims.Role, claims.Type
	}
	access := f.issue(w, claims.Subject, "access", role, kind)
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": access})
}

func (f *FakeAPI) logout(w http.ResponseWriter, r *http.Request) {
	for _, name := range []string{accessCookie, refreshCookie, csrfAccessCookie, csrfRefreshCookie} {
		http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1})
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (f *FakeAPI) check(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":   true,
		"user_id": claims.Subject,
		"role":    claims.Role,
		"type":    claims.Type,
	})
}

func (f *FakeAPI) profile(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(claimsFrom(r).Subject)

	f.mu.Lock()
	a, ok := f.accounts[id]
	f.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":                a.user.ID,
		"firstName":         a.user.FirstName,
		"lastName":          a.user.LastName,
		"email":             a.user.Email,
		"mobileNumber":      a.user.MobileNumber,
		"profilePictureUrl": a.user.ProfilePictureURL,
		"isActive":          a.user.IsActive,
		"isVerified":        a.user.IsVerified,
		"createdAt":         a.created.UTC().Format("2006-01-02T15:04:05.000000"),
	})
}

func (f *FakeAPI) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.OTPVerification
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.OTP == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Email and OTP code are required"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.user.Email != strings.ToLower(req.Email) {
			continue
		}
		if a.otp == "" {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "No verification code found for this email"})
			return
		}
		if a.otp != req.OTP {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid verification code"})
			return
		}
		a.otp = ""
		a.user.IsVerified = true
		writeJSON(w, http.StatusOK, map[string]string{"message": "OTP verified successfully. User account is now verified."})
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "User not found"})
}

func (f *FakeAPI) upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No file provided"})
		return
	}
	defer file.Close()
	if _, err := io.Copy(io.Discard, file); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Failed to read file"})
		return
	}

	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid file type. Allowed: png, jpg, jpeg, gif, webp"})
		return
	}

	owner := r.FormValue("user_id")
	if owner == "" {
		owner = "temp"
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": fmt.Sprintf("/uploads/user_%s_%s", owner, filepath.Base(header.Filename))})
}

func (f *FakeAPI) listUsers(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	users := make([]domain.User, 0, len(f.accounts))
	for id := 1; id < f.nextID; id++ {
		if a, ok := f.accounts[id]; ok {
			users = append(users, a.user)
		}
	}
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, users)
}

func (f *FakeAPI) createUser(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid payload"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.user.Email == strings.ToLower(req.Email) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Email already exists"})
			return
		}
	}
	a := f.addAccount(domain.User{
		ProfilePictureURL: req.ProfilePictureURL,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Email:             strings.ToLower(req.Email),
		MobileNumber:      req.MobileNumber,
		Role:              req.Role,
		IsActive:          true,
	}, req.Password, false)
	a.otp = OTPCode
	writeJSON(w, http.StatusCreated, a.user)
}

func (f *FakeAPI) getUser(w http.ResponseWriter, r *http.Request) {
	a, ok := f.lookup(w, r)
	if !ok {
		return
	}
	f.mu.Lock()
	user := a.user
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, user)
}

func (f *FakeAPI) updateUser(w http.ResponseWriter, r *http.Request) {
	a, ok := f.lookup(w, r)
	if !ok {
		return
	}
	var req domain.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid payload"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	u := &a.user
	setString(&u.ProfilePictureURL, req.ProfilePictureURL)
	setString(&u.FirstName, req.FirstName)
	setString(&u.LastName, req.LastName)
	setString(&u.MobileNumber, req.MobileNumber)
	setString(&u.Role, req.Role)
	setString(&a.password, req.Password)
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
	if req.IsVerified != nil {
		u.IsVerified = *req.IsVerified
	}
	writeJSON(w, http.StatusOK, a.user)
}

func (f *FakeAPI) deleteUser(w http.ResponseWriter, r *http.Request) {
	a, ok := f.lookup(w, r)
	if !ok {
		return
	}
	f.mu.Lock()
	delete(f.accounts, a.user.ID)
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted"})
}

func (f *FakeAPI) lookup(w http.ResponseWriter, r *http.Request) (*account, bool) {
	var id int
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": fmt.Sprintf("Invalid format for parameter id: %s", err)})
		return nil, false
	}

	f.mu.Lock()
	a, ok := f.accounts[id]
	f.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "User not found"})
		return nil, false
	}
	return a, true
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
