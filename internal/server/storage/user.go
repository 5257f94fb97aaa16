package storage

import (
	"context"

	"github.com/iudanet/gopherblog/internal/models"
)

// UserStorage defines interface for user data persistence.
// Username lookups and uniqueness are case-insensitive; the stored
// username keeps the case it was created with.
type UserStorage interface {
	// CreateUser creates a new user in the storage
	// Returns ErrUserAlreadyExists if username is taken (enforced by a unique constraint)
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByUsername retrieves user by username
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// GetUserByID retrieves user by ID
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByID(ctx context.Context, userID string) (*models.User, error)

	// UpdateUser updates username, email, password hash and role
	// Returns ErrUserNotFound if user doesn't exist
	// Returns ErrUserAlreadyExists if the new username belongs to another user
	UpdateUser(ctx context.Context, user *models.User) error

	// DeleteUser deletes user by ID
	// Returns ErrUserNotFound if user doesn't exist
	DeleteUser(ctx context.Context, userID string) error

	// ListUsers returns all users ordered by creation time
	// Returns empty slice if no users found
	ListUsers(ctx context.Context) ([]*models.User, error)

	// CountUsersByRole returns number of users with the given role
	CountUsersByRole(ctx context.Context, role models.Role) (int, error)
}
