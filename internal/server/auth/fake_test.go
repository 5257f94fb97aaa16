package auth

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iudanet/gopherblog/internal/crypto"
	"github.com/iudanet/gopherblog/internal/models"
	"github.com/iudanet/gopherblog/internal/server/jwt"
	"github.com/iudanet/gopherblog/internal/server/storage"
)

// fakeUserStorage in-memory UserStorage с уникальностью username без учета регистра
type fakeUserStorage struct {
	users map[string]*models.User
	err   error
	mu    sync.Mutex
}

func newFakeUserStorage() *fakeUserStorage {
	return &fakeUserStorage{users: make(map[string]*models.User)}
}

func (f *fakeUserStorage) CreateUser(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Username, user.Username) {
			return storage.ErrUserAlreadyExists
		}
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStorage) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Username, username) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (f *fakeUserStorage) GetUserByID(_ context.Context, userID string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[userID]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStorage) UpdateUser(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.users[user.ID]; !ok {
		return storage.ErrUserNotFound
	}
	for id, u := range f.users {
		if id != user.ID && strings.EqualFold(u.Username, user.Username) {
			return storage.ErrUserAlreadyExists
		}
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStorage) DeleteUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[userID]; !ok {
		return storage.ErrUserNotFound
	}
	delete(f.users, userID)
	return nil
}

func (f *fakeUserStorage) ListUsers(_ context.Context) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.User, 0, len(f.users))
	for _, u := range f.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeUserStorage) CountUsersByRole(_ context.Context, role models.Role) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, u := range f.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

// countingHasher считает вызовы Hash, чтобы проверить отсутствие лишнего rehash
type countingHasher struct {
	inner  crypto.PasswordHasher
	hashes atomic.Int32
}

func (h *countingHasher) Hash(plaintext string) (string, error) {
	h.hashes.Add(1)
	return h.inner.Hash(plaintext)
}

func (h *countingHasher) Verify(plaintext, hash string) bool {
	return h.inner.Verify(plaintext, hash)
}

type testEnv struct {
	svc    *Service
	store  *fakeUserStorage
	hasher *countingHasher
	codec  *jwt.Codec
	clock  *time.Time
}

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	now := time.Now().Truncate(time.Second)
	env := &testEnv{
		store:  newFakeUserStorage(),
		hasher: &countingHasher{inner: crypto.NewBcryptHasher(bcrypt.MinCost)},
		clock:  &now,
	}

	codec, err := jwt.NewCodec(jwt.Config{
		Key:      []byte("0123456789abcdef0123456789abcdef"),
		TTL:      time.Hour,
		Issuer:   "gopherblog",
		Audience: "gopherblog-frontend",
	}, jwt.WithClock(func() time.Time { return *env.clock }))
	require.NoError(t, err)

	env.codec = codec
	env.svc = NewService(setupTestLogger(), env.store, env.hasher, codec)
	env.svc.now = func() time.Time { return *env.clock }
	return env
}

func (e *testEnv) advance(d time.Duration) {
	*e.clock = e.clock.Add(d)
}

// seedUser регистрирует пользователя через сервис и сбрасывает счетчик хешей
func (e *testEnv) seedUser(t *testing.T, username, password string, role models.Role) *models.User {
	t.Helper()
	user, err := e.svc.createUser(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: password,
	}, role)
	require.NoError(t, err)
	e.hasher.hashes.Store(0)
	return user
}

func strPtr(s string) *string {
	return &s
}
