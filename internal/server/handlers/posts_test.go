package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gopherblog/internal/server/blob"
	"github.com/iudanet/gopherblog/pkg/api"
)

func createPost(t *testing.T, env *testEnv, req api.PostRequest) api.Post {
	t.Helper()
	w := env.do(t, http.MethodPost, "/posts", req, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var post api.Post
	decodeBody(t, w, &post)
	return post
}

func TestPostsHandler_CreateAndList(t *testing.T) {
	env := newTestEnv(t)

	post := createPost(t, env, api.PostRequest{
		Title:   "Hello <b>gophers</b>",
		Content: `<p>body</p><script>alert(1)</script>`,
	})
	assert.NotEmpty(t, post.ID)
	assert.Equal(t, "Hello gophers", post.Title)
	assert.NotContains(t, post.Content, "<script>")

	w := env.do(t, http.MethodGet, "/posts", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []api.Post
	decodeBody(t, w, &list)
	require.Len(t, list, 1)
	assert.Equal(t, post.ID, list[0].ID)
}

func TestPostsHandler_List_Empty(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/posts", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestPostsHandler_Create_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{name: "empty title", body: api.PostRequest{Content: "text"}},
		{name: "empty content", body: api.PostRequest{Title: "title"}},
		{name: "image with path", body: api.PostRequest{Title: "t", Content: "c", ImageURL: "../secret.png"}},
		{name: "invalid json", body: "nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/posts", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestPostsHandler_Get_AbsoluteImageURL(t *testing.T) {
	env := newTestEnv(t)
	post := createPost(t, env, api.PostRequest{Title: "t", Content: "c", ImageURL: "pic.png"})
	assert.Equal(t, "pic.png", post.ImageURL)

	req := httptest.NewRequest(http.MethodGet, "/posts/"+post.ID, nil)
	req.Host = "blog.example.com"
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got api.Post
	decodeBody(t, w, &got)
	assert.Equal(t, "http://blog.example.com/uploads/pic.png", got.ImageURL)

	// список отдает имя файла как есть
	w = env.do(t, http.MethodGet, "/posts", nil, "")
	var list []api.Post
	decodeBody(t, w, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "pic.png", list[0].ImageURL)
}

func TestPostsHandler_ImageURL_PublicBase(t *testing.T) {
	h := NewPostsHandler(setupTestLogger(), nil, "https://cdn.example.com/")

	req := httptest.NewRequest(http.MethodGet, "/posts/1", nil)
	assert.Equal(t, "https://cdn.example.com/uploads/a.png", h.imageURL(req, "a.png"))

	h = NewPostsHandler(setupTestLogger(), nil, "")
	req.Header.Set("X-Forwarded-Proto", "https")
	req.Host = "blog.example.com"
	assert.Equal(t, "https://blog.example.com/uploads/a.png", h.imageURL(req, "a.png"))
}

func TestPostsHandler_Get_NotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/posts/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostsHandler_Search(t *testing.T) {
	env := newTestEnv(t)
	createPost(t, env, api.PostRequest{Title: "Go channels", Content: "select and close"})
	createPost(t, env, api.PostRequest{Title: "Rust", Content: "borrow checker"})

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantCount  int
	}{
		{name: "title match", query: "?keyword=channels", wantStatus: http.StatusOK, wantCount: 1},
		{name: "content match any case", query: "?keyword=BORROW", wantStatus: http.StatusOK, wantCount: 1},
		{name: "no match", query: "?keyword=haskell", wantStatus: http.StatusNotFound},
		{name: "empty keyword", query: "?keyword=", wantStatus: http.StatusBadRequest},
		{name: "missing keyword", query: "", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/posts/search"+tt.query, nil, "")
			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				var list []api.Post
				decodeBody(t, w, &list)
				assert.Len(t, list, tt.wantCount)
			}
		})
	}
}

func TestPostsHandler_Update(t *testing.T) {
	env := newTestEnv(t)
	post := createPost(t, env, api.PostRequest{Title: "old", Content: "old"})

	w := env.do(t, http.MethodPut, "/posts/"+post.ID, api.PostRequest{Title: "new", Content: "new"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	var got api.Post
	decodeBody(t, w, &got)
	assert.Equal(t, "new", got.Title)
	assert.Equal(t, post.CreatedAt.Unix(), got.CreatedAt.Unix())

	w = env.do(t, http.MethodPut, "/posts/missing", api.PostRequest{Title: "new", Content: "new"}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPut, "/posts/"+post.ID, api.PostRequest{Title: "", Content: "new"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostsHandler_Update_EchoedPost(t *testing.T) {
	env := newTestEnv(t)
	created := createPost(t, env, api.PostRequest{Title: "old", Content: "<p>old</p>", ImageURL: "pic.png"})

	req := httptest.NewRequest(http.MethodGet, "/posts/"+created.ID, nil)
	req.Host = "blog.example.com"
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// редактор отправляет полученный пост целиком: id, даты и абсолютный imageUrl
	var post api.Post
	decodeBody(t, w, &post)
	require.Equal(t, "http://blog.example.com/uploads/pic.png", post.ImageURL)
	post.Title = "Tom & Jerry <3"
	post.Content = "<p>new</p>"

	w = env.do(t, http.MethodPut, "/posts/"+post.ID, post, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated api.Post
	decodeBody(t, w, &updated)
	assert.Equal(t, "Tom & Jerry <3", updated.Title)
	assert.Equal(t, "<p>new</p>", updated.Content)
	assert.Equal(t, "pic.png", updated.ImageURL)

	// повторное сохранение не экранирует заголовок еще раз
	w = env.do(t, http.MethodPut, "/posts/"+post.ID, updated, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeBody(t, w, &updated)
	assert.Equal(t, "Tom & Jerry <3", updated.Title)
}

func TestPostsHandler_Update_ForeignImageURL(t *testing.T) {
	env := newTestEnv(t)
	post := createPost(t, env, api.PostRequest{Title: "t", Content: "c"})

	for _, image := range []string{
		"https://evil.example.com/other/pic.png",
		"http://blog.example.com/uploads/../secret.png",
		"ftp://blog.example.com/uploads/pic.png",
	} {
		w := env.do(t, http.MethodPut, "/posts/"+post.ID, api.PostRequest{Title: "t", Content: "c", ImageURL: image}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, image)
	}
}

func TestPostsHandler_Delete_RemovesImage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.images.Put(ctx, "pic.png", bytes.NewReader(pngBytes()), int64(len(pngBytes())), "image/png"))
	post := createPost(t, env, api.PostRequest{Title: "t", Content: "c", ImageURL: "pic.png"})

	w := env.do(t, http.MethodDelete, "/posts/"+post.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var got api.Post
	decodeBody(t, w, &got)
	assert.Equal(t, post.ID, got.ID)

	_, err := env.images.Open(ctx, "pic.png")
	assert.ErrorIs(t, err, blob.ErrNotFound)

	w = env.do(t, http.MethodDelete, "/posts/"+post.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
