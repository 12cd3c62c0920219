package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/philling1/house-marketplace/internal/platform/logger"
	"github.com/philling1/house-marketplace/internal/user/domain"
)

const tokenTTL = 24 * time.Hour

// ExternalIdentity is what the external provider knows about the user.
type ExternalIdentity struct {
	Subject string
	Name    string
	Email   string
}

// IdentityProvider exchanges an authorization code for the user's identity.
type IdentityProvider interface {
	Authenticate(ctx context.Context, code, redirectURI string) (*ExternalIdentity, error)
}

type UserUsecase struct {
	repo      domain.UserRepository
	sessions  domain.SessionCache
	identity  IdentityProvider
	jwtSecret string
	logger    *logger.Logger
}

func NewUserUsecase(repo domain.UserRepository, sessions domain.SessionCache, identity IdentityProvider, jwtSecret string, log *logger.Logger) *UserUsecase {
	return &UserUsecase{
		repo:      repo,
		sessions:  sessions,
		identity:  identity,
		jwtSecret: jwtSecret,
		logger:    log.Named("UserUsecase"),
	}
}

func (u *UserUsecase) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashed),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.repo.Create(ctx, user); err != nil {
		u.logger.Warn("failed to create user", zap.String("email", email), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (u *UserUsecase) Login(ctx context.Context, email, password string) (string, error) {
	user, err := u.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}
	if user.PasswordHash == "" {
		// Provider-created account without a password.
		return "", domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", domain.ErrInvalidCredentials
	}

	return u.issueSession(ctx, user.ID)
}

// GoogleSignIn authenticates through the external provider and creates the
// user document on first sign-in if absent. Existing documents are never
// mutated by this flow.
func (u *UserUsecase) GoogleSignIn(ctx context.Context, code, redirectURI string) (string, *domain.User, error) {
	ident, err := u.identity.Authenticate(ctx, code, redirectURI)
	if err != nil {
		u.logger.Warn("could not authorize with Google", zap.Error(err))
		return "", nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	user, err := u.repo.FindByEmail(ctx, ident.Email)
	if errors.Is(err, domain.ErrUserNotFound) {
		now := time.Now()
		user = &domain.User{
			Name:      ident.Name,
			Email:     ident.Email,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := u.repo.Create(ctx, user); err != nil {
			return "", nil, err
		}
		u.logger.Info("created user on first sign-in", zap.String("email", ident.Email))
	} else if err != nil {
		return "", nil, err
	}

	token, err := u.issueSession(ctx, user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (u *UserUsecase) Logout(ctx context.Context, userID string) error {
	return u.sessions.InvalidateToken(ctx, userID)
}

func (u *UserUsecase) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return u.repo.FindByID(ctx, userID)
}

// GetEmail satisfies the listing workflow's owner directory port.
func (u *UserUsecase) GetEmail(ctx context.Context, userID string) (string, error) {
	user, err := u.repo.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Email, nil
}

func (u *UserUsecase) issueSession(ctx context.Context, userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(tokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(u.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	if err := u.sessions.CacheToken(ctx, userID, token, tokenTTL); err != nil {
		u.logger.Warn("failed to cache session token", zap.String("user_id", userID), zap.Error(err))
	}
	return token, nil
}
