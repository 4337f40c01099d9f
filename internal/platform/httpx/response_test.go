package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"org-access-api/backend/internal/platform/apperr"
)

func TestSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, http.StatusCreated, "Created", map[string]string{"orgId": "A"})
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q", ct)
	}
	want := `{"status":"success","message":"Created","data":{"orgId":"A"}}`
	if got := strings.TrimSpace(rec.Body.String()); got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
}

func TestSuccess_NoData(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, http.StatusOK, "done", nil)
	if got := strings.TrimSpace(rec.Body.String()); got != `{"status":"success","message":"done"}` {
		t.Errorf("body = %s", got)
	}
}

func TestFailAndError(t *testing.T) {
	rec := httptest.NewRecorder()
	Fail(rec, http.StatusNotFound, "Organisation not found")
	if got := strings.TrimSpace(rec.Body.String()); got != `{"status":"fail","message":"Organisation not found","data":null}` {
		t.Errorf("fail body = %s", got)
	}
	rec = httptest.NewRecorder()
	Error(rec, http.StatusUnauthorized, "Token expired")
	if got := strings.TrimSpace(rec.Body.String()); got != `{"status":"error","message":"Token expired","data":null}` {
		t.Errorf("error body = %s", got)
	}
}

func TestWriteError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	testCases := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"validation", apperr.Invalid("email", "Email is required"), http.StatusUnprocessableEntity, `{"errors":[{"field":"email","message":"Email is required"}]}`},
		{"wrapped validation", fmt.Errorf("register: %w", apperr.Invalid("name", "x")), http.StatusUnprocessableEntity, `{"errors":[{"field":"name","message":"x"}]}`},
		{"auth", apperr.ErrAuthFailed, http.StatusUnauthorized, `{"status":"Bad request","message":"Authentication failed","statusCode":401}`},
		{"not found", fmt.Errorf("x: %w", apperr.ErrNotFound), http.StatusNotFound, ""},
		{"forbidden", apperr.ErrForbidden, http.StatusForbidden, ""},
		{"bad request", apperr.ErrBadRequest, http.StatusBadRequest, ""},
		{"internal", errors.New("pq: password authentication failed for user postgres"), http.StatusInternalServerError, `{"status":"error","message":"Internal server error","data":null}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, req, nil, tc.err)
			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if tc.wantBody != "" {
				if got := strings.TrimSpace(rec.Body.String()); got != tc.wantBody {
					t.Errorf("body = %s, want %s", got, tc.wantBody)
				}
			}
			if strings.Contains(rec.Body.String(), "postgres") {
				t.Error("internal error detail leaked to client")
			}
		})
	}
}

func TestDecode(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Acme"}`))
	if err := Decode(req, &v); err != nil || v.Name != "Acme" {
		t.Errorf("Decode = %v, %+v", err, v)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	if err := Decode(req, &v); err != nil {
		t.Errorf("empty body: %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{bad"))
	if err := Decode(req, &v); !errors.Is(err, apperr.ErrBadRequest) {
		t.Errorf("malformed: err = %v, want ErrBadRequest", err)
	}
}

func TestDecode_WrongFieldType(t *testing.T) {
	var v struct {
		Name   string   `json:"name"`
		Admin  bool     `json:"admin"`
		Scores []string `json:"scores"`
	}
	testCases := []struct {
		body    string
		field   string
		message string
	}{
		{`{"name":123}`, "name", "name must be a string"},
		{`{"admin":"yes"}`, "admin", "admin must be a boolean"},
		{`{"scores":"a"}`, "scores", "scores must be an array"},
	}
	for _, tc := range testCases {
		t.Run(tc.body, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			err := Decode(req, &v)
			ve, ok := apperr.AsValidation(err)
			if !ok {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if len(ve.Errors) != 1 || ve.Errors[0].Field != tc.field || ve.Errors[0].Message != tc.message {
				t.Errorf("errors = %+v, want %s: %s", ve.Errors, tc.field, tc.message)
			}
			if errors.Is(err, apperr.ErrBadRequest) {
				t.Error("type mismatch should not be a bad request")
			}
		})
	}

	var n int
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`"top-level string"`))
	if err := Decode(req, &n); !errors.Is(err, apperr.ErrBadRequest) {
		t.Errorf("top-level mismatch: err = %v, want ErrBadRequest", err)
	}
}
