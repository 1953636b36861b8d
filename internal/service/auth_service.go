package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pixeldust/internal/config"
	"pixeldust/internal/ids"
	"pixeldust/internal/metrics"
	"pixeldust/internal/models"
	"pixeldust/internal/repository"
	"pixeldust/internal/security"
)

type AuthService struct {
	users    UserRepository
	settings SettingsRepository
	sessions *SessionService
	hasher   *security.PasswordHasher
	tokens   *security.TokenIssuer
	cfg      *config.AppConfig
	metrics  *metrics.Metrics
	log      zerolog.Logger

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAuthService(
	users UserRepository,
	settings SettingsRepository,
	sessions *SessionService,
	hasher *security.PasswordHasher,
	tokens *security.TokenIssuer,
	cfg *config.AppConfig,
	m *metrics.Metrics,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		settings: settings,
		sessions: sessions,
		hasher:   hasher,
		tokens:   tokens,
		cfg:      cfg,
		metrics:  m,
		log:      log,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Client   ClientInfo
}

type AuthenticateInput struct {
	Email    string
	Password string
	Client   ClientInfo
}

type AuthResult struct {
	AccessToken string
	ExpiresAt   time.Time
	User        models.User
	Session     models.Session
}

// Principal is the authenticated caller behind a bearer token.
type Principal struct {
	User    models.User
	Session models.Session
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	input.Email = normalizeEmail(input.Email)
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" || input.Email == "" || input.Password == "" {
		return AuthResult{}, fmt.Errorf("name, email and password required: %w", ErrInvalidInput)
	}
	if !strings.Contains(input.Email, "@") {
		return AuthResult{}, fmt.Errorf("malformed email: %w", ErrInvalidInput)
	}

	if _, err := s.users.FindByEmail(ctx, input.Email); err == nil {
		return AuthResult{}, fmt.Errorf("email already registered: %w", ErrConflict)
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return AuthResult{}, storeErr("lookup email", err)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, models.User{
		ID:           ids.New(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
	})
	if err != nil {
		return AuthResult{}, storeErr("create user", err)
	}

	// the account already exists; settings fall back to lazy creation on first read
	if err := s.settings.Create(ctx, models.DefaultSettings(user.ID)); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("default settings not stored")
	}

	s.log.Info().Str("user_id", user.ID).Msg("account registered")
	return s.startSession(ctx, user, input.Client)
}

// Authenticate checks credentials and opens a session. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *AuthService) Authenticate(ctx context.Context, input AuthenticateInput) (AuthResult, error) {
	email := normalizeEmail(input.Email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, storeErr("lookup user", err)
		}
		// keep the timing of unknown accounts close to a real verify
		_, _ = s.hasher.Verify(input.Password, s.dummyDigest())
		s.metrics.RecordLogin(false)
		return AuthResult{}, ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(input.Password, user.PasswordHash)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("stored password digest unreadable")
	}
	if err != nil || !ok {
		s.metrics.RecordLogin(false)
		return AuthResult{}, ErrInvalidCredentials
	}

	s.metrics.RecordLogin(true)
	return s.startSession(ctx, user, input.Client)
}

func (s *AuthService) startSession(ctx context.Context, user models.User, client ClientInfo) (AuthResult, error) {
	session, err := s.sessions.Create(ctx, user.ID, client)
	if err != nil {
		return AuthResult{}, err
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, session.ID, s.cfg.Security.TokenTTL)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}

	return AuthResult{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User:        user,
		Session:     session,
	}, nil
}

// Authorize resolves a bearer token to its principal. The session the token
// was issued for must still exist, be active and belong to the subject.
func (s *AuthService) Authorize(ctx context.Context, token string) (Principal, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return Principal{}, ErrUnauthorized
	}

	session, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Principal{}, ErrUnauthorized
		}
		return Principal{}, err
	}
	if !session.IsActive || session.UserID != claims.Subject {
		return Principal{}, ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return Principal{}, ErrUnauthorized
		}
		return Principal{}, storeErr("lookup user", err)
	}

	s.sessions.Touch(ctx, session.ID)

	return Principal{User: user, Session: session}, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID, name, email string) (models.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || !strings.Contains(email, "@") {
		return models.User{}, fmt.Errorf("name and valid email required: %w", ErrInvalidInput)
	}

	if err := s.users.UpdateProfile(ctx, userID, name, email); err != nil {
		return models.User{}, storeErr("update profile", err)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return models.User{}, storeErr("reload user", err)
	}
	return user, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	if next == "" {
		return fmt.Errorf("new password required: %w", ErrInvalidInput)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return storeErr("lookup user", err)
	}

	ok, err := s.hasher.Verify(current, user.PasswordHash)
	if err != nil || !ok {
		return ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return storeErr("update password", err)
	}
	s.log.Info().Str("user_id", userID).Msg("password changed")
	return nil
}

func (s *AuthService) dummyDigest() []byte {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash(ids.New())
		if err != nil {
			s.log.Error().Err(err).Msg("prepare dummy digest")
			return
		}
		s.dummyHash = digest
	})
	return s.dummyHash
}
