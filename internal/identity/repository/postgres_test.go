package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"org-access-api/backend/internal/db/dbtest"
	"org-access-api/backend/internal/identity/domain"
	identityservice "org-access-api/backend/internal/identity/service"
	orgdomain "org-access-api/backend/internal/organization/domain"
	"org-access-api/backend/internal/platform/apperr"
	"org-access-api/backend/internal/security"
	userdomain "org-access-api/backend/internal/user/domain"
	userrepo "org-access-api/backend/internal/user/repository"
)

var (
	insertUser = regexp.QuoteMeta(`INSERT INTO users`)
	insertOrg  = regexp.QuoteMeta(`INSERT INTO organisations`)
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		conn.Close()
	})
	return sqlx.NewDb(conn, "pgx"), mock
}

func newRegistration(id string) *domain.Registration {
	now := time.Now().UTC()
	return &domain.Registration{
		User: &userdomain.User{ID: id, FirstName: "John", LastName: "Doe", Email: id + "@example.com", PasswordHash: "hash", CreatedAt: now},
		Organisation: &orgdomain.Org{
			ID: uuid.New().String(), Name: orgdomain.DefaultName("John"), CreatedBy: id, CreatedAt: now,
		},
	}
}

func TestRegister_CommitsBothInserts(t *testing.T) {
	conn, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec(insertUser).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertOrg).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := NewPostgresRepository(conn).Register(context.Background(), newRegistration("u1")); err != nil {
		t.Fatalf("Register: %v", err)
	}
}

func TestRegister_RollsBack(t *testing.T) {
	testCases := []struct {
		name   string
		expect func(mock sqlmock.Sqlmock)
		wantIs error
	}{
		{
			name: "organisation insert fails",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(insertUser).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(insertOrg).WillReturnError(errors.New("disk full"))
			},
		},
		{
			name: "organisation id taken",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(insertUser).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(insertOrg).WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "organisations_pkey"})
			},
			wantIs: apperr.ErrConflict,
		},
		{
			name: "email taken",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(insertUser).WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
			},
			wantIs: apperr.ErrConflict,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conn, mock := newMockDB(t)
			mock.ExpectBegin()
			tc.expect(mock)
			mock.ExpectRollback()

			err := NewPostgresRepository(conn).Register(context.Background(), newRegistration("u1"))
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.wantIs != nil && !errors.Is(err, tc.wantIs) {
				t.Errorf("err = %v, want %v", err, tc.wantIs)
			}
		})
	}
}

func TestRegister_ConstraintBecomesFieldError(t *testing.T) {
	testCases := []struct {
		name       string
		failUser   bool
		constraint string
		wantField  string
	}{
		{"email", true, "users_email_key", "email"},
		{"user id", true, "users_pkey", "userId"},
		{"organisation id", false, "organisations_pkey", "orgId"},
	}
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conn, mock := newMockDB(t)
			mock.ExpectQuery(`FROM users WHERE email = \$1`).
				WithArgs("john@example.com").
				WillReturnRows(sqlmock.NewRows([]string{"user_id"}))
			mock.ExpectBegin()
			pgErr := &pgconn.PgError{Code: "23505", ConstraintName: tc.constraint}
			if tc.failUser {
				mock.ExpectExec(insertUser).WillReturnError(pgErr)
			} else {
				mock.ExpectExec(insertUser).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(insertOrg).WillReturnError(pgErr)
			}
			mock.ExpectRollback()

			svc := identityservice.NewAuthService(userrepo.NewPostgresRepository(conn), NewPostgresRepository(conn),
				security.NewHasher(bcrypt.MinCost), tokens, nil)
			_, err := svc.Register(context.Background(), domain.Profile{
				FirstName: "John", LastName: "Doe", Email: "john@example.com", Password: "Password123!",
			})
			ve, ok := apperr.AsValidation(err)
			if !ok {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if len(ve.Errors) != 1 || ve.Errors[0].Field != tc.wantField {
				t.Errorf("errors = %+v, want field %s", ve.Errors, tc.wantField)
			}
		})
	}
}

func TestPostgres_RegisterRollbackLeavesNoUser(t *testing.T) {
	conn := dbtest.Open(t)
	ctx := context.Background()
	repo := NewPostgresRepository(conn)

	first := newRegistration(uuid.New().String())
	if err := repo.Register(ctx, first); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Reusing the first organisation id makes the second insert fail after the user insert.
	second := newRegistration(uuid.New().String())
	second.Organisation.ID = first.Organisation.ID
	err := repo.Register(ctx, second)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}

	u, err := userrepo.NewPostgresRepository(conn).GetByID(ctx, second.User.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u != nil {
		t.Error("user persisted although the organisation insert failed")
	}
}
