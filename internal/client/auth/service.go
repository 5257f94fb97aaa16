// Package auth управляет сессией CLI клиента: вход, выход, проверка и
// смена профиля. Токен хранится локально до истечения claim exp.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/iudanet/gopherblog/internal/client/api"
	"github.com/iudanet/gopherblog/internal/client/storage"
	"github.com/iudanet/gopherblog/internal/validation"
	pkgapi "github.com/iudanet/gopherblog/pkg/api"
)

var (
	// ErrNotLoggedIn сохраненной сессии нет
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrSessionExpired токен истек или отклонен сервером
	ErrSessionExpired = errors.New("session expired, please login again")
	// ErrNothingToChange в запросе на изменение профиля нет полей
	ErrNothingToChange = errors.New("nothing to change")
)

// APIClient методы сервера, нужные сессии
type APIClient interface {
	Login(ctx context.Context, req pkgapi.LoginRequest) (*pkgapi.LoginResponse, error)
	Signup(ctx context.Context, req pkgapi.SignupRequest) (*pkgapi.UserView, error)
	GetUser(ctx context.Context, token string) (*pkgapi.UserView, error)
	Verify(ctx context.Context, token string) (*pkgapi.VerifyResponse, error)
	EditUser(ctx context.Context, token string, req pkgapi.EditUserRequest) (*pkgapi.EditUserResponse, error)
}

// Service сессия CLI клиента
type Service struct {
	api       APIClient
	store     storage.AuthStorage
	logger    *slog.Logger
	now       func() time.Time
	serverURL string
}

// NewService создает сервис сессии
func NewService(logger *slog.Logger, apiClient APIClient, store storage.AuthStorage, serverURL string) *Service {
	return &Service{
		api:       apiClient,
		store:     store,
		logger:    logger,
		now:       time.Now,
		serverURL: serverURL,
	}
}

// tokenClaims claims, которые клиент читает без проверки подписи.
// Ключа у клиента нет, подлинность проверяет только сервер.
type tokenClaims struct {
	Role string `json:"role"`
	gojwt.RegisteredClaims
}

// Register регистрирует пользователя, вход выполняется отдельно
func (s *Service) Register(ctx context.Context, username, email, password string) (*pkgapi.UserView, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("invalid username: %w", err)
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("invalid email: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("invalid password: %w", err)
	}

	user, err := s.api.Signup(ctx, pkgapi.SignupRequest{Username: username, Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}
	return user, nil
}

// Login получает токен и сохраняет сессию
func (s *Service) Login(ctx context.Context, username, password string) (*storage.AuthData, error) {
	if username == "" || password == "" {
		return nil, errors.New("username and password are required")
	}

	resp, err := s.api.Login(ctx, pkgapi.LoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	session, err := s.newSession(resp.Token, username, resp.Role)
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveAuth(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.Debug("session saved",
		slog.String("username", session.Username),
		slog.Time("expires_at", time.Unix(session.ExpiresAt, 0)))

	return session, nil
}

// Logout удаляет локальную сессию. Сервер токены не отзывает,
// поэтому запрос к нему не нужен.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.store.DeleteAuth(ctx); err != nil {
		return fmt.Errorf("failed to delete local session: %w", err)
	}
	return nil
}

// Status возвращает сохраненную сессию, в том числе истекшую
func (s *Service) Status(ctx context.Context) (*storage.AuthData, error) {
	session, err := s.store.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return nil, ErrNotLoggedIn
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	return session, nil
}

// Expired сообщает, истекла ли сессия по локальным часам
func (s *Service) Expired(session *storage.AuthData) bool {
	return session.Expired(s.now())
}

// WhoAmI запрашивает профиль текущего пользователя
func (s *Service) WhoAmI(ctx context.Context) (*pkgapi.UserView, error) {
	session, err := s.activeSession(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.api.GetUser(ctx, session.Token)
	if err != nil {
		return nil, s.handleRejected(ctx, err)
	}
	return user, nil
}

// Verify проверяет токен на сервере. Отклоненный токен удаляется.
func (s *Service) Verify(ctx context.Context) (*pkgapi.VerifyResponse, error) {
	session, err := s.activeSession(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.api.Verify(ctx, session.Token)
	if err != nil {
		return nil, s.handleRejected(ctx, err)
	}
	return resp, nil
}

// EditProfile меняет профиль и заменяет сохраненный токен новым
func (s *Service) EditProfile(ctx context.Context, req pkgapi.EditUserRequest) (*pkgapi.UserView, error) {
	if req.Username == nil && req.Email == nil && req.Password == nil {
		return nil, ErrNothingToChange
	}

	session, err := s.activeSession(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.api.EditUser(ctx, session.Token, req)
	if err != nil {
		return nil, s.handleRejected(ctx, err)
	}

	updated, err := s.newSession(resp.Token, resp.User.Username, session.Role)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveAuth(ctx, updated); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return &resp.User, nil
}

// activeSession возвращает неистекшую сессию
func (s *Service) activeSession(ctx context.Context) (*storage.AuthData, error) {
	session, err := s.Status(ctx)
	if err != nil {
		return nil, err
	}
	if s.Expired(session) {
		return nil, ErrSessionExpired
	}
	return session, nil
}

// handleRejected удаляет сессию, если сервер ответил 401
func (s *Service) handleRejected(ctx context.Context, err error) error {
	if !errors.Is(err, api.ErrUnauthorized) {
		return err
	}
	if delErr := s.store.DeleteAuth(ctx); delErr != nil {
		s.logger.Warn("failed to delete rejected session", slog.Any("error", delErr))
	}
	return fmt.Errorf("%w: %w", ErrSessionExpired, err)
}

func (s *Service) newSession(token, username, role string) (*storage.AuthData, error) {
	var claims tokenClaims
	if _, _, err := gojwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("server returned malformed token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return nil, errors.New("server returned token without expiry")
	}
	if claims.Role != "" {
		role = claims.Role
	}
	if claims.Subject != "" {
		username = claims.Subject
	}

	return &storage.AuthData{
		Username:  username,
		Role:      role,
		Token:     token,
		ServerURL: s.serverURL,
		ExpiresAt: claims.ExpiresAt.Unix(),
	}, nil
}
