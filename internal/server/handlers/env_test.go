package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iudanet/gopherblog/internal/crypto"
	"github.com/iudanet/gopherblog/internal/models"
	"github.com/iudanet/gopherblog/internal/server/auth"
	"github.com/iudanet/gopherblog/internal/server/blob"
	"github.com/iudanet/gopherblog/internal/server/jwt"
	"github.com/iudanet/gopherblog/internal/server/posts"
	"github.com/iudanet/gopherblog/internal/server/storage/sqlite"
	"github.com/iudanet/gopherblog/pkg/api"
)

const testPassword = "correct-horse"

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testEnv настоящие сервисы поверх SQLite в памяти и диска в t.TempDir()
type testEnv struct {
	db     *sqlite.Storage
	auth   *auth.Service
	posts  *posts.Service
	images *blob.DiskStore
	router chi.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ctx := context.Background()
	db, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	codec, err := jwt.NewCodec(jwt.Config{
		Key:      []byte("0123456789abcdef0123456789abcdef"),
		TTL:      time.Hour,
		Issuer:   "gopherblog",
		Audience: "gopherblog-frontend",
	})
	require.NoError(t, err)

	images, err := blob.NewDiskStore(t.TempDir())
	require.NoError(t, err)

	logger := setupTestLogger()
	env := &testEnv{
		db:     db,
		auth:   auth.NewService(logger, db, crypto.NewBcryptHasher(bcrypt.MinCost), codec),
		posts:  posts.NewService(logger, db, images),
		images: images,
	}

	authH := NewAuthHandler(logger, env.auth)
	usersH := NewUsersHandler(logger, env.auth)
	postsH := NewPostsHandler(logger, env.posts, "")
	imagesH := NewImagesHandler(logger, images, 1<<10)

	r := chi.NewRouter()
	r.Post("/auth/login", authH.Login)
	r.Get("/auth/getuser", authH.GetUser)
	r.Put("/auth/edituser", authH.EditUser)
	r.Get("/auth/verify", authH.Verify)

	r.Post("/users", usersH.Signup)
	r.Get("/users", usersH.List)
	r.Get("/users/{id}", usersH.Get)
	r.Put("/users/{id}/role", usersH.SetRole)
	r.Delete("/users/{id}", usersH.Delete)

	r.Get("/posts", postsH.List)
	r.Get("/posts/search", postsH.Search)
	r.Get("/posts/{id}", postsH.Get)
	r.Post("/posts", postsH.Create)
	r.Put("/posts/{id}", postsH.Update)
	r.Delete("/posts/{id}", postsH.Delete)

	r.Post("/image/upload", imagesH.Upload)
	r.Delete("/image/{fileName}", imagesH.Delete)
	r.Get("/uploads/{fileName}", imagesH.Serve)

	env.router = r
	return env
}

// seedUser регистрирует пользователя и при необходимости повышает роль
func (e *testEnv) seedUser(t *testing.T, username string, role models.Role) *models.User {
	t.Helper()
	ctx := context.Background()
	user, err := e.auth.Register(ctx, auth.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: testPassword,
	})
	require.NoError(t, err)
	if role != models.RoleUser {
		user, err = e.auth.SetRole(ctx, user.ID, string(role))
		require.NoError(t, err)
	}
	return user
}

func (e *testEnv) login(t *testing.T, username string) string {
	t.Helper()
	res, err := e.auth.Login(context.Background(), username, testPassword)
	require.NoError(t, err)
	return res.Token
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(dst))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var resp api.ErrorResponse
	decodeBody(t, w, &resp)
	return resp
}
