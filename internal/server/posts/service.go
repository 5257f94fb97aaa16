// Package posts содержит операции над постами блога: список, поиск,
// создание и редактирование с очисткой HTML, удаление вместе с картинкой.
package posts

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/iudanet/gopherblog/internal/models"
	"github.com/iudanet/gopherblog/internal/server/blob"
	"github.com/iudanet/gopherblog/internal/server/storage"
)

const (
	// MaxTitleLen максимальная длина заголовка в символах
	MaxTitleLen = 200
	// MaxContentBytes максимальный размер тела поста
	MaxContentBytes = 1 << 20
)

var (
	// ErrNotFound пост не найден
	ErrNotFound = errors.New("post not found")
	// ErrValidation некорректные поля поста
	ErrValidation = errors.New("invalid post")
	// ErrEmptyKeyword пустая строка поиска
	ErrEmptyKeyword = errors.New("keyword is required")
)

// Input поля поста от администратора
type Input struct {
	Title    string
	Content  string
	ImageURL string
}

// Service реализует операции над постами
type Service struct {
	logger *slog.Logger
	posts  storage.PostStorage
	images blob.Store
	policy *bluemonday.Policy
	title  *bluemonday.Policy
	now    func() time.Time
}

// NewService создает сервис постов. images может быть nil, тогда
// удаление поста не трогает изображения.
func NewService(logger *slog.Logger, posts storage.PostStorage, images blob.Store) *Service {
	return &Service{
		logger: logger,
		posts:  posts,
		images: images,
		// контент - пользовательский HTML из редактора, заголовок - только текст
		policy: bluemonday.UGCPolicy(),
		title:  bluemonday.StrictPolicy(),
		now:    time.Now,
	}
}

// List возвращает все посты, новые первыми
func (s *Service) List(ctx context.Context) ([]*models.Post, error) {
	posts, err := s.posts.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// Search ищет keyword в заголовке или тексте.
// Пустой keyword - ErrEmptyKeyword, ничего не найдено - ErrNotFound.
func (s *Service) Search(ctx context.Context, keyword string) ([]*models.Post, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, ErrEmptyKeyword
	}

	posts, err := s.posts.SearchPosts(ctx, keyword)
	if err != nil {
		return nil, fmt.Errorf("failed to search posts: %w", err)
	}
	if len(posts) == 0 {
		return nil, ErrNotFound
	}
	return posts, nil
}

// Get возвращает пост по ID
func (s *Service) Get(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.posts.GetPost(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrPostNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return post, nil
}

// Create создает пост
func (s *Service) Create(ctx context.Context, in Input) (*models.Post, error) {
	clean, err := s.sanitize(in)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	post := &models.Post{
		ID:        uuid.New().String(),
		Title:     clean.Title,
		Content:   clean.Content,
		ImageURL:  clean.ImageURL,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.logger.InfoContext(ctx, "post created", slog.String("post_id", post.ID))
	return post, nil
}

// Update заменяет заголовок, текст и картинку поста
func (s *Service) Update(ctx context.Context, id string, in Input) (*models.Post, error) {
	clean, err := s.sanitize(in)
	if err != nil {
		return nil, err
	}

	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	post.Title = clean.Title
	post.Content = clean.Content
	post.ImageURL = clean.ImageURL
	post.UpdatedAt = s.now().UTC()

	if err := s.posts.UpdatePost(ctx, post); err != nil {
		if errors.Is(err, storage.ErrPostNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	s.logger.InfoContext(ctx, "post updated", slog.String("post_id", post.ID))
	return post, nil
}

// Delete удаляет пост и связанное изображение, возвращает удаленный пост.
// Ошибка удаления картинки только логируется: пост уже удален.
func (s *Service) Delete(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.posts.DeletePost(ctx, id); err != nil {
		if errors.Is(err, storage.ErrPostNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete post: %w", err)
	}

	if post.ImageURL != "" && s.images != nil {
		if err := s.images.Delete(ctx, post.ImageURL); err != nil {
			s.logger.WarnContext(ctx, "failed to delete post image",
				slog.String("post_id", id),
				slog.String("image", post.ImageURL),
				slog.Any("error", err))
		}
	}

	s.logger.InfoContext(ctx, "post deleted", slog.String("post_id", id))
	return post, nil
}

func (s *Service) sanitize(in Input) (Input, error) {
	// заголовок хранится как текст: сущности от StrictPolicy раскрываются,
	// иначе каждое редактирование экранировало бы его заново
	title := strings.TrimSpace(html.UnescapeString(s.title.Sanitize(in.Title)))
	content := strings.TrimSpace(s.policy.Sanitize(in.Content))
	image := blob.NameFromURL(in.ImageURL)

	switch {
	case title == "":
		return Input{}, fmt.Errorf("%w: title is required", ErrValidation)
	case utf8.RuneCountInString(title) > MaxTitleLen:
		return Input{}, fmt.Errorf("%w: title must not exceed %d characters", ErrValidation, MaxTitleLen)
	case content == "":
		return Input{}, fmt.Errorf("%w: content is required", ErrValidation)
	case len(content) > MaxContentBytes:
		return Input{}, fmt.Errorf("%w: content is too large", ErrValidation)
	}

	if image != "" {
		if err := blob.ValidateName(image); err != nil {
			return Input{}, fmt.Errorf("%w: imageUrl must be a file name returned by upload", ErrValidation)
		}
	}

	return Input{Title: title, Content: content, ImageURL: image}, nil
}
