package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gopherblog/internal/models"
)

func setupTestStorage(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	// Используем in-memory database для тестов
	storage, err := New(ctx, ":memory:")
	require.NoError(t, err)

	cleanup := func() {
		_ = storage.Close()
	}

	return storage, cleanup
}

func newTestUser(username string, role models.Role) *models.User {
	now := time.Now().UTC()
	return &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: "$2a$04$hash-" + username,
		Email:        username + "@example.com",
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestNew_FileDatabase(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "blog.db")

	s, err := New(ctx, dbPath)
	require.NoError(t, err)

	user := newTestUser("persisted", models.RoleUser)
	require.NoError(t, s.CreateUser(ctx, user))
	require.NoError(t, s.Close())

	// повторное открытие не должно ломаться на уже примененных миграциях
	reopened, err := New(ctx, dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	require.NoError(t, reopened.Ping(ctx))

	got, err := reopened.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.Username)
}
