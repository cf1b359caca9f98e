package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taara-api/internal/domain"
	"github.com/taara-api/internal/infrastructure/google"
	"github.com/taara-api/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

// Service is the auth collaborator: accounts, credentials and the role field
// that admin checks trust.
type Service interface {
	Register(ctx context.Context, in domain.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, in domain.LoginInput) (string, *domain.User, error)
	GoogleLogin(ctx context.Context, idToken string) (string, *domain.User, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
	SetRole(ctx context.Context, userID, role string) (*domain.User, error)
}

type userStore interface {
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	SetRole(ctx context.Context, userID, role string) error
}

type tokenSigner interface {
	Sign(userID, role string) (string, error)
}

type identityVerifier interface {
	Verify(ctx context.Context, token string) (*google.Identity, error)
}

var errInvalidCredentials = fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)

type service struct {
	repo   userStore
	signer tokenSigner
	google identityVerifier
	cost   int
}

type ServiceDeps struct {
	UserRepo    userStore
	TokenSigner tokenSigner
	// Google is optional; nil disables GoogleLogin.
	Google identityVerifier
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

func NewService(deps ServiceDeps) Service {
	cost := deps.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &service{repo: deps.UserRepo, signer: deps.TokenSigner, google: deps.Google, cost: cost}
}

func (s *service) Register(ctx context.Context, in domain.RegisterInput) (*domain.User, error) {
	email := normalizeEmail(in.Email)
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.NewAt(now),
		Email:        email,
		DisplayName:  in.DisplayName,
		Phone:        in.Phone,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		Enable:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Put(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login checks the password and returns a bearer token carrying the stored role.
func (s *service) Login(ctx context.Context, in domain.LoginInput) (string, *domain.User, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, errInvalidCredentials
		}
		return "", nil, err
	}
	if !u.Enable {
		return "", nil, &domain.ForbiddenError{Reason: "account disabled"}
	}
	if u.PasswordHash == "" {
		return "", nil, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return "", nil, errInvalidCredentials
	}
	return s.issue(u)
}

// GoogleLogin signs in with a Google ID token. The first sign-in for an
// unknown email creates a password-less user account.
func (s *service) GoogleLogin(ctx context.Context, idToken string) (string, *domain.User, error) {
	if s.google == nil {
		return "", nil, fmt.Errorf("google sign-in is not configured: %w", domain.ErrBadRequest)
	}
	ident, err := s.google.Verify(ctx, idToken)
	if err != nil {
		return "", nil, err
	}
	email := normalizeEmail(ident.Email)
	u, err := s.repo.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		now := time.Now().UTC()
		u = &domain.User{
			UserID:      id.NewAt(now),
			Email:       email,
			DisplayName: ident.DisplayName,
			Role:        domain.RoleUser,
			Enable:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repo.Put(ctx, u); err != nil {
			return "", nil, err
		}
	case err != nil:
		return "", nil, err
	case !u.Enable:
		return "", nil, &domain.ForbiddenError{Reason: "account disabled"}
	}
	return s.issue(u)
}

func (s *service) issue(u *domain.User) (string, *domain.User, error) {
	token, err := s.signer.Sign(u.UserID, u.Role)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, u, nil
}

func (s *service) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

// SetRole takes effect at the user's next login, when a new token is issued.
func (s *service) SetRole(ctx context.Context, userID, role string) (*domain.User, error) {
	if role != domain.RoleAdmin && role != domain.RoleUser {
		return nil, &domain.ValidationError{Fields: []string{"role (oneof)"}}
	}
	if err := s.repo.SetRole(ctx, userID, role); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
