package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/go-authgate/tokengate/internal/auth"
	"github.com/go-authgate/tokengate/internal/core"
	"github.com/go-authgate/tokengate/internal/models"
	"github.com/go-authgate/tokengate/internal/store"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// UserService owns identity lookup and creation for both local and OAuth logins.
type UserService struct {
	store    core.IdentityStore
	cache    core.Cache[models.User]
	cacheTTL time.Duration
	metrics  core.Recorder
}

func NewUserService(
	s core.IdentityStore,
	userCache core.Cache[models.User],
	cacheTTL time.Duration,
	m core.Recorder,
) *UserService {
	return &UserService{
		store:    s,
		cache:    userCache,
		cacheTTL: cacheTTL,
		metrics:  m,
	}
}

func userCacheKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

// GetUserByID returns the identity with the given id, reading through the user cache.
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	fetched := false
	user, err := s.cache.GetWithFetch(
		ctx,
		userCacheKey(id),
		s.cacheTTL,
		func(ctx context.Context, _ string) (models.User, error) {
			fetched = true
			u, err := s.store.GetUserByID(ctx, id)
			if err != nil {
				if errors.Is(err, store.ErrRecordNotFound) {
					return models.User{}, ErrIdentityNotFound
				}
				s.metrics.RecordDatabaseQueryError("get_user")
				return models.User{}, err
			}
			return *u, nil
		},
	)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordCacheLookup(!fetched)
	return &user, nil
}

// InvalidateUserCache drops the cached copy of a user after it changed.
func (s *UserService) InvalidateUserCache(id uint) {
	if err := s.cache.Delete(context.Background(), userCacheKey(id)); err != nil {
		log.Printf("[User] Failed to invalidate cache for user_id=%d: %v", id, err)
	}
}

// UpsertOAuthUser maps a provider profile onto a local identity.
// An existing identity with the same email and auth source gets its nickname
// refreshed; otherwise a new identity is created with the provider as its
// auth source. Identities owned by another sign-in method are never linked.
func (s *UserService) UpsertOAuthUser(ctx context.Context, profile *auth.Profile) (*models.User, error) {
	if profile == nil || profile.Email == "" {
		return nil, auth.ErrProviderNoEmail
	}

	existing, err := s.store.GetUserByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		if err := checkLinkable(existing, profile.Provider); err != nil {
			return nil, err
		}
		return s.refreshNickname(ctx, existing, profile.Nickname)
	case !errors.Is(err, store.ErrRecordNotFound):
		s.metrics.RecordDatabaseQueryError("get_user_by_email")
		return nil, err
	}

	user := &models.User{
		Email:      profile.Email,
		Nickname:   profile.Nickname,
		AuthSource: profile.Provider,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if !errors.Is(err, store.ErrEmailConflict) {
			s.metrics.RecordDatabaseQueryError("create_user")
			return nil, err
		}
		// A concurrent login for the same email created the row first
		existing, err := s.store.GetUserByEmail(ctx, profile.Email)
		if err != nil {
			return nil, err
		}
		if err := checkLinkable(existing, profile.Provider); err != nil {
			return nil, err
		}
		return s.refreshNickname(ctx, existing, profile.Nickname)
	}

	log.Printf("[OAuth] New identity created: user_id=%d provider=%s", user.ID, profile.Provider)
	return user, nil
}

// checkLinkable reports whether an OAuth login from provider may sign in as user
func checkLinkable(user *models.User, provider string) error {
	if !user.IsExternal() {
		log.Printf("[OAuth] Refused to link provider=%s onto local user_id=%d", provider, user.ID)
		return fmt.Errorf("%w: local account", ErrIdentityLinkConflict)
	}
	if user.AuthSource != provider {
		log.Printf(
			"[OAuth] Refused to link provider=%s onto user_id=%d from %s",
			provider, user.ID, user.AuthSource,
		)
		return fmt.Errorf("%w: %s account", ErrIdentityLinkConflict, user.AuthSource)
	}
	return nil
}

func (s *UserService) refreshNickname(
	ctx context.Context,
	user *models.User,
	nickname string,
) (*models.User, error) {
	if nickname == "" || nickname == user.Nickname {
		return user, nil
	}
	if err := s.store.UpdateUserNickname(ctx, user.ID, nickname); err != nil {
		s.metrics.RecordDatabaseQueryError("update_user_nickname")
		return nil, err
	}
	user.Nickname = nickname
	s.InvalidateUserCache(user.ID)
	return user, nil
}

// Signup creates a local identity with a bcrypt password hash.
// A duplicate email is reported as store.ErrEmailConflict.
func (s *UserService) Signup(ctx context.Context, email, password, nickname string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidSignup)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidSignup, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if nickname == "" {
		nickname = strings.SplitN(email, "@", 2)[0]
	}
	user := &models.User{
		Email:        email,
		Nickname:     nickname,
		PasswordHash: string(hash),
		AuthSource:   models.AuthSourceLocal,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks a local email/password pair.
// Every mismatch, including OAuth-only accounts, yields ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if !errors.Is(err, store.ErrRecordNotFound) {
			s.metrics.RecordDatabaseQueryError("get_user_by_email")
			return nil, err
		}
		s.metrics.RecordLogin(models.AuthSourceLocal, false)
		return nil, ErrInvalidCredentials
	}

	if !user.HasPassword() ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.metrics.RecordLogin(models.AuthSourceLocal, false)
		return nil, ErrInvalidCredentials
	}

	s.metrics.RecordLogin(models.AuthSourceLocal, true)
	return user, nil
}
