package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/gopherblog/internal/crypto"
	"github.com/iudanet/gopherblog/internal/models"
	"github.com/iudanet/gopherblog/internal/server/jwt"
	"github.com/iudanet/gopherblog/internal/server/storage"
	"github.com/iudanet/gopherblog/internal/validation"
)

// TokenCodec issues and verifies identity tokens
type TokenCodec interface {
	Issue(sub jwt.Subject) (*jwt.IssuedToken, error)
	Parse(token string) (*jwt.Claims, error)
}

// Identity is the verified caller of a request
type Identity struct {
	UserID   string
	Username string
	Role     models.Role
}

// LoginResult is returned by a successful login
type LoginResult struct {
	ExpiresAt time.Time
	Token     string
	Role      models.Role
}

// ProfileUpdate holds optional profile changes, nil means "leave as is"
type ProfileUpdate struct {
	Username *string
	Email    *string
	Password *string
}

// EditResult is returned by a successful profile edit
type EditResult struct {
	ExpiresAt time.Time
	Token     string
	User      models.UserView
}

// RegisterInput is a signup request
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// dummyPassword хешируется один раз, чтобы логин несуществующего
// пользователя тратил столько же времени на bcrypt
const dummyPassword = "gopherblog-timing-equalizer"

// Service implements credential verification, token issuance and
// user administration on top of the user storage.
type Service struct {
	logger    *slog.Logger
	users     storage.UserStorage
	hasher    crypto.PasswordHasher
	codec     TokenCodec
	now       func() time.Time
	dummyOnce sync.Once
	dummyHash string
}

// NewService creates auth service
func NewService(logger *slog.Logger, users storage.UserStorage, hasher crypto.PasswordHasher, codec TokenCodec) *Service {
	return &Service{
		logger: logger,
		users:  users,
		hasher: hasher,
		codec:  codec,
		now:    time.Now,
	}
}

// Login authenticates username/password and issues a token.
// Unknown user and wrong password both return ErrUnauthorized.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if strings.TrimSpace(username) == "" {
		return nil, newValidationError("username", errors.New("username is required"))
	}
	if password == "" {
		return nil, newValidationError("password", errors.New("password is required"))
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			s.hasher.Verify(password, s.timingHash())
			s.logger.WarnContext(ctx, "login failed: user not found", slog.String("username", username))
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.logger.WarnContext(ctx, "login failed: invalid password", slog.String("username", username))
		return nil, ErrUnauthorized
	}

	issued, err := s.codec.Issue(jwt.Subject{UserID: user.ID, Username: user.Username, Role: user.Role})
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("username", user.Username),
		slog.String("user_id", user.ID))

	return &LoginResult{
		Token:     issued.Token,
		Role:      user.Role,
		ExpiresAt: issued.ExpiresAt,
	}, nil
}

// Verify validates the token and confirms its subject still exists.
// The role comes from the token claim and may be stale for at most the token TTL.
func (s *Service) Verify(ctx context.Context, token string) (*Identity, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	user, err := s.subjectUser(ctx, claims)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: subject %q no longer exists", ErrUnauthorized, claims.Subject)
		}
		return nil, err
	}

	return &Identity{
		UserID:   user.ID,
		Username: user.Username,
		Role:     claims.Role,
	}, nil
}

// CurrentUser returns username and email of the token subject
func (s *Service) CurrentUser(ctx context.Context, token string) (*models.UserView, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	user, err := s.subjectUser(ctx, claims)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	view := user.View()
	return &view, nil
}

// EditProfile applies the present fields of upd to the token subject and
// always returns a fresh token, since the old subject claim may be stale now.
func (s *Service) EditProfile(ctx context.Context, token string, upd ProfileUpdate) (*EditResult, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	user, err := s.subjectUser(ctx, claims)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if upd.Username != nil {
		username := strings.TrimSpace(*upd.Username)
		if err := validation.ValidateUsername(username); err != nil {
			return nil, newValidationError("username", err)
		}

		if !strings.EqualFold(username, user.Username) {
			// Ранний ответ для понятной ошибки; гонку закрывает UNIQUE constraint ниже
			existing, err := s.users.GetUserByUsername(ctx, username)
			switch {
			case err == nil && existing.ID != user.ID:
				return nil, ErrConflict
			case err != nil && !errors.Is(err, storage.ErrUserNotFound):
				return nil, fmt.Errorf("failed to check username: %w", err)
			}
		}
		user.Username = username
	}

	if upd.Email != nil {
		email := strings.TrimSpace(*upd.Email)
		if err := validation.ValidateEmail(email); err != nil {
			return nil, newValidationError("email", err)
		}
		user.Email = email
	}

	if upd.Password != nil {
		if err := validation.ValidatePassword(*upd.Password); err != nil {
			return nil, newValidationError("password", err)
		}
		hash, err := s.hasher.Hash(*upd.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	user.UpdatedAt = s.now().UTC()

	if err := s.users.UpdateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, storage.ErrUserAlreadyExists):
			return nil, ErrConflict
		case errors.Is(err, storage.ErrUserNotFound):
			return nil, ErrNotFound
		default:
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}

	issued, err := s.codec.Issue(jwt.Subject{UserID: user.ID, Username: user.Username, Role: user.Role})
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.InfoContext(ctx, "profile updated",
		slog.String("user_id", user.ID),
		slog.Bool("username_changed", upd.Username != nil),
		slog.Bool("password_changed", upd.Password != nil))

	return &EditResult{
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
		User:      user.View(),
	}, nil
}

// Register creates a user with the default role
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.createUser(ctx, in, models.RoleUser)
}

// EnsureAdmin creates an Admin account when none exists yet.
// An empty password disables seeding. Returns true if the account was created.
func (s *Service) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	if password == "" {
		return false, nil
	}

	admins, err := s.users.CountUsersByRole(ctx, models.RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("failed to count admins: %w", err)
	}
	if admins > 0 {
		return false, nil
	}

	user, err := s.createUser(ctx, RegisterInput{
		Username: username,
		Email:    email,
		Password: password,
	}, models.RoleAdmin)
	if errors.Is(err, ErrConflict) {
		// имя занято обычным пользователем: сервер стартует без админа
		s.logger.WarnContext(ctx, "admin seeding skipped: username is taken",
			slog.String("username", username))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to seed admin: %w", err)
	}

	s.logger.InfoContext(ctx, "admin account seeded", slog.String("username", user.Username))
	return true, nil
}

// ListUsers returns all users
func (s *Service) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// GetUser returns user by ID
func (s *Service) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// SetRole changes role of the user. Tokens already issued keep the old
// role claim until they expire.
func (s *Service) SetRole(ctx context.Context, userID, role string) (*models.User, error) {
	parsed, ok := models.ParseRole(role)
	if !ok {
		return nil, newValidationError("role", fmt.Errorf("unknown role %q", role))
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Role = parsed
	user.UpdatedAt = s.now().UTC()

	if err := s.users.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	s.logger.InfoContext(ctx, "user role changed",
		slog.String("user_id", user.ID),
		slog.String("role", string(parsed)))

	return user, nil
}

// DeleteUser removes user by ID. Its unexpired tokens stop verifying
// because the subject no longer exists.
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.InfoContext(ctx, "user deleted", slog.String("user_id", userID))
	return nil
}

func (s *Service) createUser(ctx context.Context, in RegisterInput, role models.Role) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)

	if err := validation.ValidateUsername(username); err != nil {
		return nil, newValidationError("username", err)
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, newValidationError("email", err)
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, newValidationError("password", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: hash,
		Email:        email,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// Уникальность проверяет storage (UNIQUE COLLATE NOCASE), без check-then-act
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("username", user.Username),
		slog.String("user_id", user.ID),
		slog.String("role", string(role)))

	return user, nil
}

// parse verifies the token and wraps codec errors into ErrUnauthorized,
// keeping the codec error reachable for logging.
func (s *Service) parse(token string) (*jwt.Claims, error) {
	claims, err := s.codec.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return claims, nil
}

// subjectUser находит владельца токена. Username мог освободиться после
// переименования и достаться другому пользователю, поэтому запись должна
// совпасть и по id; иначе владелец считается удаленным.
func (s *Service) subjectUser(ctx context.Context, claims *jwt.Claims) (*models.User, error) {
	user, err := s.users.GetUserByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.ID != claims.UserID {
		s.logger.WarnContext(ctx, "token subject belongs to another account",
			slog.String("subject", claims.Subject),
			slog.String("token_user_id", claims.UserID),
			slog.String("user_id", user.ID))
		return nil, storage.ErrUserNotFound
	}
	return user, nil
}

func (s *Service) timingHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(dummyPassword)
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}
