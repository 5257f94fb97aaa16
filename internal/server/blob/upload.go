package blob

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DefaultMaxUploadBytes предел размера изображения по умолчанию, 5 MB
const DefaultMaxUploadBytes int64 = 5 << 20

// Upload проверенный файл, готовый к сохранению
type Upload struct {
	File        multipart.File
	Name        string // сгенерированное имя <uuid><ext>
	ContentType string
	Size        int64
}

// Close закрывает исходный multipart файл
func (u *Upload) Close() error {
	return u.File.Close()
}

// PrepareUpload проверяет размер, расширение и сигнатуру файла и
// генерирует для него новое имя. Вызывающий обязан закрыть Upload.
func PrepareUpload(fh *multipart.FileHeader, maxBytes int64) (*Upload, error) {
	if fh == nil || fh.Size == 0 {
		return nil, ErrNoFile
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if fh.Size > maxBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, fh.Size, maxBytes)
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	expected, ok := AllowedExtensions[ext]
	if !ok {
		return nil, fmt.Errorf("%w: extension %q", ErrUnsupportedType, ext)
	}

	file, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}

	detected, err := sniff(file)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	// по содержимому, а не по имени: .png с телом HTML отклоняется
	if detected != expected {
		_ = file.Close()
		return nil, fmt.Errorf("%w: content is %s, extension says %s", ErrUnsupportedType, detected, expected)
	}

	return &Upload{
		File:        file,
		Name:        uuid.New().String() + ext,
		ContentType: expected,
		Size:        fh.Size,
	}, nil
}

// sniff определяет MIME тип по первым 512 байтам и возвращает позицию в начало
func sniff(file multipart.File) (string, error) {
	buf := make([]byte, 512)
	n, err := file.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind upload: %w", err)
	}
	return http.DetectContentType(buf[:n]), nil
}
