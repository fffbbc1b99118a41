package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Skotchmaster/finance_tracker/internal/events"
	"github.com/Skotchmaster/finance_tracker/internal/hash"
	"github.com/Skotchmaster/finance_tracker/internal/logging"
	"github.com/Skotchmaster/finance_tracker/internal/models"
	"github.com/Skotchmaster/finance_tracker/internal/repo"
	"github.com/Skotchmaster/finance_tracker/internal/tokens"
)

const DefaultMinPasswordLen = 4

type AuthService struct {
	Users          UserStore
	Tokens         RefreshTokenStore
	Issuer         *tokens.Issuer
	RefreshTTL     time.Duration
	MinPasswordLen int
	BcryptCost     int
	Events         events.Publisher
	Now            func() time.Time
}

type Session struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	User             *models.User
}

type Identity struct {
	UserID   string
	Username string
}

// dummyHash is compared against on the unknown-user login path so both
// failure paths pay for a bcrypt comparison.
var dummyHash = sync.OnceValue(func() string {
	h, _ := hash.HashPassword("not-a-real-password", hash.MinCost)
	return h
})

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *AuthService) minPasswordLen() int {
	if s.MinPasswordLen > 0 {
		return s.MinPasswordLen
	}
	return DefaultMinPasswordLen
}

// CreateUser validates the credentials and stores a new user without
// opening a session.
func (s *AuthService) CreateUser(ctx context.Context, username, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.create_user", "username", username)

	if strings.TrimSpace(username) == "" || password == "" {
		return nil, invalid("username and password required")
	}
	if utf8.RuneCountInString(password) < s.minPasswordLen() {
		return nil, invalid("password too short")
	}

	if _, err := s.Users.FindUserByUsername(ctx, username); err == nil {
		l.Warn("register_error", "status", 409, "reason", "username taken")
		return nil, ErrConflict
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	pwHash, err := hash.HashPassword(password, s.BcryptCost)
	if err != nil {
		if errors.Is(err, hash.ErrPasswordTooLong) {
			return nil, invalid("password too long")
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: pwHash,
		CreatedAt:    s.now(),
	}
	if err := s.Users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			l.Warn("register_error", "status", 409, "reason", "username taken")
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	l.Info("user registered", "user_id", user.ID)
	return user, nil
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.CreateUser(ctx, username, password)
	if err != nil {
		return nil, err
	}

	sess, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.UserRegistered, user)
	return sess, nil
}

// Login fails with ErrInvalidCredentials whether the user is unknown or the
// password is wrong; only the server log tells them apart.
func (s *AuthService) Login(ctx context.Context, username, password string) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	if strings.TrimSpace(username) == "" || password == "" {
		return nil, invalid("username and password required")
	}

	user, err := s.Users.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			hash.CheckPassword(dummyHash(), password)
			l.Warn("login failed", "status", 401, "reason", "no user")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login failed", "status", 401, "reason", "bad password")
		return nil, ErrInvalidCredentials
	}

	sess, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}
	l.Info("login success", "user_id", user.ID)
	s.publish(ctx, events.UserLoggedIn, user)
	return sess, nil
}

func (s *AuthService) VerifyAccess(token string) (*Identity, error) {
	claims, err := s.Issuer.Verify(token)
	if err != nil {
		if errors.Is(err, tokens.ErrExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	return &Identity{UserID: claims.Subject, Username: claims.Username}, nil
}

// Refresh consumes refreshToken and returns a session with a new access token
// and its successor refresh token. A token can be consumed once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if refreshToken == "" {
		return nil, invalid("refreshToken required")
	}

	now := s.now()
	raw := tokens.NewRefreshToken()
	next := &models.RefreshToken{
		TokenHash: tokens.HashRefreshToken(raw),
		ExpiresAt: now.Add(s.RefreshTTL),
		CreatedAt: now,
	}

	err := s.Tokens.RotateRefreshToken(ctx, tokens.HashRefreshToken(refreshToken), next, now)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		l.Warn("refresh failed", "status", 401, "reason", "unknown or already used token")
		return nil, ErrInvalidRefreshToken
	case errors.Is(err, repo.ErrExpired):
		l.Warn("refresh failed", "status", 401, "reason", "expired token")
		return nil, ErrInvalidRefreshToken
	case err != nil:
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}

	user, err := s.Users.FindUserByID(ctx, next.UserID)
	if err != nil {
		_ = s.Tokens.RevokeRefreshToken(ctx, next.TokenHash)
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("refresh failed", "status", 401, "reason", "user gone", "user_id", next.UserID)
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	access, accessExp, err := s.Issuer.Issue(user.ID, user.Username)
	if err != nil {
		return nil, err
	}

	return &Session{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     raw,
		RefreshExpiresAt: next.ExpiresAt,
		User:             user,
	}, nil
}

// Logout revokes refreshToken if it is still stored. It never fails.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}
	if err := s.Tokens.RevokeRefreshToken(ctx, tokens.HashRefreshToken(refreshToken)); err != nil {
		logging.FromContext(ctx).Warn("logout: revoke failed", "svc", "auth.logout", "error", err)
	}
}

// Me returns the token's user. A token whose user no longer exists is
// rejected as invalid.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.Users.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// PurgeExpiredRefreshTokens removes every refresh token past its expiry.
func (s *AuthService) PurgeExpiredRefreshTokens(ctx context.Context) (int64, error) {
	return s.Tokens.DeleteExpiredRefreshTokens(ctx, s.now())
}

func (s *AuthService) issueSession(ctx context.Context, user *models.User) (*Session, error) {
	access, accessExp, err := s.Issuer.Issue(user.ID, user.Username)
	if err != nil {
		return nil, err
	}

	now := s.now()
	raw := tokens.NewRefreshToken()
	rt := &models.RefreshToken{
		TokenHash: tokens.HashRefreshToken(raw),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.RefreshTTL),
		CreatedAt: now,
	}
	if err := s.Tokens.SaveRefreshToken(ctx, rt); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}

	return &Session{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     raw,
		RefreshExpiresAt: rt.ExpiresAt,
		User:             user,
	}, nil
}

func (s *AuthService) publish(ctx context.Context, typ string, user *models.User) {
	if s.Events == nil {
		return
	}
	ev := events.Event{
		Type:       typ,
		UserID:     user.ID,
		OccurredAt: s.now(),
		Payload:    map[string]string{"username": user.Username},
	}
	if err := s.Events.Publish(ctx, ev); err != nil {
		logging.FromContext(ctx).Warn("publish event failed", "event", typ, "error", err)
	}
}
