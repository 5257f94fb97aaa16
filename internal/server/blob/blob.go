// Package blob хранит изображения постов на диске или в S3-совместимом хранилище.
package blob

import (
	"context"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// PublicPath префикс, под которым изображения раздаются наружу
const PublicPath = "/uploads"

// Object открытое для чтения изображение
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// Store хранилище изображений, ключ - плоское имя файла вида <uuid><ext>
type Store interface {
	// Put сохраняет содержимое под именем name, существующий файл перезаписывается
	Put(ctx context.Context, name string, body io.Reader, size int64, contentType string) error
	// Open открывает изображение, ErrNotFound если его нет
	Open(ctx context.Context, name string) (*Object, error)
	// Delete удаляет изображение, отсутствие файла не ошибка
	Delete(ctx context.Context, name string) error
}

// AllowedExtensions расширения, которые принимает загрузка
var AllowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// ValidateName проверяет, что name плоское имя файла с разрешенным расширением.
// Защищает от path traversal при удалении и раздаче.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return ErrInvalidName
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") || filepath.Base(name) != name {
		return ErrInvalidName
	}
	if _, ok := AllowedExtensions[strings.ToLower(filepath.Ext(name))]; !ok {
		return ErrInvalidName
	}
	return nil
}

// ContentTypeFor возвращает MIME тип по расширению имени
func ContentTypeFor(name string) string {
	if ct, ok := AllowedExtensions[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// NameFromURL сводит ссылку на изображение к имени файла. Принимает
// голое имя, "/uploads/<name>" и абсолютный "<base>/uploads/<name>",
// который отдает GET /posts/{id}. Результат нужно проверить ValidateName.
func NameFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "/") {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.RawQuery != "" || u.Fragment != "" {
		return raw
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return raw
	}

	dir, name := path.Split(u.Path)
	if !strings.HasSuffix(strings.TrimSuffix(dir, "/"), PublicPath) {
		return raw
	}
	return name
}
