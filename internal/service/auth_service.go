package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/timebank/internal/auth"
	"github.com/spec-kit/timebank/internal/domain"
	"github.com/spec-kit/timebank/internal/repository"
	apperrors "github.com/spec-kit/timebank/pkg/util/errorutil"
)

// AuthService coordinates login, logout and account provisioning.
type AuthService struct {
	store      repository.Store
	tokens     *auth.TokenAuthenticator
	bcryptCost int
	logger     *zap.Logger
	compare    func(hashed, plain string) error
	// dummyHash is compared against when the user is unknown, so both login
	// failures cost one bcrypt comparison.
	dummyHash string
}

// AuthDependencies bundles what the auth service needs.
type AuthDependencies struct {
	Store      repository.Store
	Tokens     *auth.TokenAuthenticator
	BcryptCost int
	Logger     *zap.Logger
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	Account *domain.Account
	Token   string
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dummyHash, err := auth.HashPassword("timebank-unknown-user", deps.BcryptCost)
	if err != nil {
		logger.Warn("unable to prepare dummy password hash", zap.Error(err))
	}
	return &AuthService{
		store:      deps.Store,
		tokens:     deps.Tokens,
		bcryptCost: deps.BcryptCost,
		logger:     logger,
		compare:    auth.ComparePassword,
		dummyHash:  dummyHash,
	}
}

// Login checks the password of a student or staff account and issues a fresh
// token, revoking any earlier one. Unknown users and wrong passwords fail alike.
func (s *AuthService) Login(ctx context.Context, userType domain.UserType, userID, password string) (*LoginResult, error) {
	accounts, err := s.accounts(s.store.Repos(), userType)
	if err != nil {
		return nil, err
	}

	account, err := accounts.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = s.compare(s.dummyHash, password)
			return nil, apperrors.NewInvalidCredentials()
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	if err := s.compare(account.PasswordHash, password); err != nil {
		return nil, apperrors.NewInvalidCredentials()
	}

	token, err := s.tokens.Issue(ctx, account.UserID, userType)
	if err != nil {
		return nil, err
	}

	s.logger.Info("login", zap.String("user_id", account.UserID), zap.String("user_type", string(userType)))
	return &LoginResult{Account: account, Token: token}, nil
}

// Logout revokes the presented token. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.tokens.Invalidate(ctx, token)
}

// CreateAccount provisions a student or staff login with a bcrypt hash.
func (s *AuthService) CreateAccount(ctx context.Context, userType domain.UserType, userID, password string) (*domain.Account, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" || password == "" {
		return nil, apperrors.NewValidationError("userId and password are required", nil)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &domain.Account{UserID: userID, PasswordHash: hash, Type: userType}
	err = s.store.WithTx(ctx, func(repos repository.Repositories) error {
		accounts, err := s.accounts(repos, userType)
		if err != nil {
			return err
		}
		if _, err := accounts.GetByUserID(ctx, userID); err == nil {
			return apperrors.NewValidationError("account already exists", map[string]any{"userId": userID})
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return accounts.Create(ctx, account)
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *AuthService) accounts(repos repository.Repositories, userType domain.UserType) (repository.AccountRepository, error) {
	switch userType {
	case domain.UserTypeStudent:
		return repos.Students, nil
	case domain.UserTypeStaff:
		return repos.Staff, nil
	default:
		return nil, apperrors.NewValidationError("unknown user type", map[string]any{"userType": string(userType)})
	}
}

// DevAccount is a login created at startup for local development.
type DevAccount struct {
	Type     domain.UserType
	UserID   string
	Password string
}

// SeedAccounts creates the given accounts, skipping ones that already exist.
func (s *AuthService) SeedAccounts(ctx context.Context, accounts []DevAccount) error {
	for _, a := range accounts {
		_, err := s.CreateAccount(ctx, a.Type, a.UserID, a.Password)
		if apperrors.HasCode(err, apperrors.CodeValidationFailed) {
			continue
		}
		if err != nil {
			return fmt.Errorf("seed %s %s: %w", a.Type, a.UserID, err)
		}
		s.logger.Info("seeded account", zap.String("user_id", a.UserID), zap.String("user_type", string(a.Type)))
	}
	return nil
}
