package service_test

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/timebank/internal/auth"
	"github.com/spec-kit/timebank/internal/domain"
	"github.com/spec-kit/timebank/internal/repository/memory"
	"github.com/spec-kit/timebank/internal/service"
	apperrors "github.com/spec-kit/timebank/pkg/util/errorutil"
)

func newAuthService(t *testing.T) (*service.AuthService, *auth.TokenAuthenticator) {
	t.Helper()
	store := memory.New()
	tokens := auth.NewTokenAuthenticator(store, 30*time.Minute, nil)
	svc := service.NewAuthService(service.AuthDependencies{Store: store, Tokens: tokens, BcryptCost: bcrypt.MinCost})
	if _, err := svc.CreateAccount(context.Background(), domain.UserTypeStudent, "alice", "secret"); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	return svc, tokens
}

func TestLoginIssuesToken(t *testing.T) {
	svc, tokens := newAuthService(t)
	ctx := context.Background()

	res, err := svc.Login(ctx, domain.UserTypeStudent, "alice", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Account.UserID != "alice" || res.Token == "" {
		t.Fatalf("unexpected result %+v", res)
	}

	tok, err := tokens.Validate(ctx, res.Token)
	if err != nil || tok == nil {
		t.Fatalf("Validate = %v, %v", tok, err)
	}
	if tok.UserID != "alice" || tok.UserType != domain.UserTypeStudent {
		t.Fatalf("unexpected token owner %+v", tok)
	}
}

func TestLoginFailuresLookTheSame(t *testing.T) {
	svc, _ := newAuthService(t)
	cases := []struct {
		name     string
		userType domain.UserType
		userID   string
		password string
	}{
		{"wrong password", domain.UserTypeStudent, "alice", "nope"},
		{"unknown user", domain.UserTypeStudent, "bob", "secret"},
		{"wrong table", domain.UserTypeStaff, "alice", "secret"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tc.userType, tc.userID, tc.password)
			if !apperrors.HasCode(err, apperrors.CodeInvalidCredentials) {
				t.Fatalf("expected INVALID_CREDENTIALS, got %v", err)
			}
			if err.Error() != "Invalid credentials" {
				t.Fatalf("unexpected message %q", err.Error())
			}
		})
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, tokens := newAuthService(t)
	ctx := context.Background()

	res, err := svc.Login(ctx, domain.UserTypeStudent, "alice", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := svc.Logout(ctx, res.Token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if tok, _ := tokens.Validate(ctx, res.Token); tok != nil {
		t.Fatal("token still valid after logout")
	}
}

func TestCreateAccountRejectsDuplicate(t *testing.T) {
	svc, _ := newAuthService(t)
	_, err := svc.CreateAccount(context.Background(), domain.UserTypeStudent, "alice", "other")
	if !apperrors.HasCode(err, apperrors.CodeValidationFailed) {
		t.Fatalf("expected VALIDATION_FAILED, got %v", err)
	}
}
