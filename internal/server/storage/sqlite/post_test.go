package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gopherblog/internal/models"
	"github.com/iudanet/gopherblog/internal/server/storage"
)

func newTestPost(title, content string, createdAt time.Time) *models.Post {
	return &models.Post{
		ID:        uuid.New().String(),
		Title:     title,
		Content:   content,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestPostStorage_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	post := newTestPost("Hello", "<p>first post</p>", time.Now().UTC())
	post.ImageURL = "3f2b.png"
	require.NoError(t, s.CreatePost(ctx, post))

	got, err := s.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.Title, got.Title)
	assert.Equal(t, post.Content, got.Content)
	assert.Equal(t, "3f2b.png", got.ImageURL)

	_, err = s.GetPost(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrPostNotFound)
}

func TestPostStorage_ListPosts_NewestFirst(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)

	base := time.Now().UTC()
	require.NoError(t, s.CreatePost(ctx, newTestPost("old", "a", base)))
	require.NoError(t, s.CreatePost(ctx, newTestPost("new", "b", base.Add(time.Minute))))

	posts, err = s.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "new", posts[0].Title)
	assert.Equal(t, "old", posts[1].Title)
}

func TestPostStorage_SearchPosts(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	base := time.Now().UTC()
	require.NoError(t, s.CreatePost(ctx, newTestPost("Go generics", "type parameters", base)))
	require.NoError(t, s.CreatePost(ctx, newTestPost("Cooking", "pasta with GO-juice", base.Add(time.Second))))
	require.NoError(t, s.CreatePost(ctx, newTestPost("100% done", "nothing else", base.Add(2*time.Second))))

	tests := []struct {
		name    string
		keyword string
		want    []string
	}{
		{name: "matches title and content ignoring case", keyword: "go", want: []string{"Cooking", "Go generics"}},
		{name: "matches content only", keyword: "parameters", want: []string{"Go generics"}},
		{name: "percent is literal", keyword: "100%", want: []string{"100% done"}},
		{name: "underscore is literal", keyword: "_", want: []string{}},
		{name: "no match", keyword: "rust", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, err := s.SearchPosts(ctx, tt.keyword)
			require.NoError(t, err)

			titles := make([]string, 0, len(posts))
			for _, p := range posts {
				titles = append(titles, p.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestPostStorage_UpdatePost(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	post := newTestPost("Draft", "todo", time.Now().UTC())
	require.NoError(t, s.CreatePost(ctx, post))

	post.Title = "Final"
	post.Content = "done"
	post.ImageURL = "cover.jpg"
	post.UpdatedAt = time.Now().UTC()
	require.NoError(t, s.UpdatePost(ctx, post))

	got, err := s.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Final", got.Title)
	assert.Equal(t, "done", got.Content)
	assert.Equal(t, "cover.jpg", got.ImageURL)

	missing := newTestPost("x", "y", time.Now())
	assert.ErrorIs(t, s.UpdatePost(ctx, missing), storage.ErrPostNotFound)
}

func TestPostStorage_DeletePost(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	post := newTestPost("Bye", "soon gone", time.Now().UTC())
	require.NoError(t, s.CreatePost(ctx, post))

	require.NoError(t, s.DeletePost(ctx, post.ID))

	_, err := s.GetPost(ctx, post.ID)
	assert.ErrorIs(t, err, storage.ErrPostNotFound)

	assert.ErrorIs(t, s.DeletePost(ctx, post.ID), storage.ErrPostNotFound)
}
