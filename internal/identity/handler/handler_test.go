package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	identitydomain "org-access-api/backend/internal/identity/domain"
	"org-access-api/backend/internal/identity/service"
	"org-access-api/backend/internal/platform/apperr"
	"org-access-api/backend/internal/security"
	userdomain "org-access-api/backend/internal/user/domain"
)

// memStore backs a real AuthService so handler tests cover the full login path.
type memStore struct {
	mu      sync.Mutex
	byEmail map[string]*userdomain.User
}

func (m *memStore) GetByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byEmail[email], nil
}

func (m *memStore) Register(ctx context.Context, reg *identitydomain.Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[reg.User.Email]; ok {
		return apperr.ErrConflict
	}
	m.byEmail[reg.User.Email] = reg.User
	return nil
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	store := &memStore{byEmail: map[string]*userdomain.User{}}
	auth := service.NewAuthService(store, store, security.NewHasher(bcrypt.MinCost), tokens, nil)
	return Routes(NewHandler(auth, zap.NewNop()), nil, nil)
}

func post(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const aliceJSON = `{"firstName":"Alice","lastName":"Smith","email":"alice@example.com","password":"secret","phone":"0800"}`

type authResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AccessToken string                 `json:"accessToken"`
		User        map[string]interface{} `json:"user"`
	} `json:"data"`
}

func TestRegister_Success(t *testing.T) {
	h := newRouter(t)
	rec := post(h, "/register", aliceJSON)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var resp authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "success" || resp.Message != "Registration successful" {
		t.Errorf("envelope = %q/%q", resp.Status, resp.Message)
	}
	if resp.Data.AccessToken == "" {
		t.Error("accessToken is empty")
	}
	if resp.Data.User["email"] != "alice@example.com" || resp.Data.User["firstName"] != "Alice" {
		t.Errorf("user = %v", resp.Data.User)
	}
	if _, ok := resp.Data.User["password"]; ok {
		t.Error("user view exposes password")
	}
	if _, ok := resp.Data.User["userId"]; !ok {
		t.Error("user view missing userId")
	}
}

func TestRegister_ValidationErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantFields []string
	}{
		{"empty object", `{}`, []string{"firstName", "lastName", "email", "password"}},
		{"empty body", ``, []string{"firstName", "lastName", "email", "password"}},
		{"bad email", `{"firstName":"A","lastName":"B","email":"nope","password":"x"}`, []string{"email"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(newRouter(t), "/register", tt.body)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
			}
			var body struct {
				Errors []apperr.FieldError `json:"errors"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			got := map[string]bool{}
			for _, fe := range body.Errors {
				got[fe.Field] = true
				if fe.Message == "" {
					t.Errorf("field %s has empty message", fe.Field)
				}
			}
			for _, f := range tt.wantFields {
				if !got[f] {
					t.Errorf("missing field error %q in %v", f, body.Errors)
				}
			}
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	h := newRouter(t)
	if rec := post(h, "/register", aliceJSON); rec.Code != http.StatusCreated {
		t.Fatalf("first register status = %d", rec.Code)
	}
	rec := post(h, "/register", aliceJSON)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
	want := `{"errors":[{"field":"email","message":"email must be unique"}]}` + "\n"
	if rec.Body.String() != want {
		t.Errorf("body = %s, want %s", rec.Body.String(), want)
	}
}

func TestRegister_MalformedJSON(t *testing.T) {
	rec := post(newRouter(t), "/register", `{"firstName":`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestLogin_Success(t *testing.T) {
	h := newRouter(t)
	post(h, "/register", aliceJSON)
	rec := post(h, "/login", `{"email":"Alice@Example.com","password":"secret"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message != "Login successful" || resp.Data.AccessToken == "" {
		t.Errorf("response = %+v", resp)
	}
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	h := newRouter(t)
	post(h, "/register", aliceJSON)

	bodies := map[string]string{
		"missing email":    `{"password":"secret"}`,
		"missing password": `{"email":"alice@example.com"}`,
		"unknown email":    `{"email":"bob@example.com","password":"secret"}`,
		"wrong password":   `{"email":"alice@example.com","password":"wrong"}`,
		"malformed json":   `{"email":`,
		"empty body":       ``,
	}
	var first []byte
	for name, body := range bodies {
		rec := post(h, "/login", body)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want %d", name, rec.Code, http.StatusUnauthorized)
		}
		if first == nil {
			first = rec.Body.Bytes()
			continue
		}
		if !bytes.Equal(rec.Body.Bytes(), first) {
			t.Errorf("%s: body %q differs from %q", name, rec.Body.Bytes(), first)
		}
	}
	want := `{"status":"Bad request","message":"Authentication failed","statusCode":401}` + "\n"
	if string(first) != want {
		t.Errorf("body = %q, want %q", first, want)
	}
}

type failingAuth struct{ err error }

func (f failingAuth) Register(ctx context.Context, p identitydomain.Profile) (*service.AuthResult, error) {
	return nil, f.err
}

func (f failingAuth) Login(ctx context.Context, email, password string) (*service.AuthResult, error) {
	return nil, f.err
}

func TestInternalErrorsAreSanitized(t *testing.T) {
	h := Routes(NewHandler(failingAuth{err: errors.New("pq: connection refused")}, nil), nil, nil)
	for _, path := range []string{"/register", "/login"} {
		rec := post(h, path, `{"email":"a@b.co","password":"x"}`)
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("%s: status = %d, want %d", path, rec.Code, http.StatusInternalServerError)
		}
		if strings.Contains(rec.Body.String(), "connection refused") {
			t.Errorf("%s: body leaks internal error: %s", path, rec.Body.String())
		}
	}
}

func TestRoutes_LoginLimiterWrapsLoginOnly(t *testing.T) {
	blocked := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	h := Routes(NewHandler(failingAuth{err: apperr.ErrAuthFailed}, nil), nil, blocked)
	if rec := post(h, "/login", `{}`); rec.Code != http.StatusTooManyRequests {
		t.Errorf("login status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if rec := post(h, "/register", `{}`); rec.Code == http.StatusTooManyRequests {
		t.Error("register should not be rate limited")
	}
}
