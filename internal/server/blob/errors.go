package blob

import "errors"

var (
	// ErrNotFound изображение отсутствует в хранилище
	ErrNotFound = errors.New("blob not found")
	// ErrInvalidName имя файла пустое, содержит путь или недопустимое расширение
	ErrInvalidName = errors.New("invalid file name")

	// ErrNoFile в multipart запросе нет файла
	ErrNoFile = errors.New("no file uploaded")
	// ErrTooLarge файл больше допустимого размера
	ErrTooLarge = errors.New("file size exceeds maximum allowed size")
	// ErrUnsupportedType расширение или содержимое не является разрешенным изображением
	ErrUnsupportedType = errors.New("unsupported image type")

	// ErrInvalidConfig неполная конфигурация хранилища
	ErrInvalidConfig = errors.New("invalid blob storage configuration")

	// S3 ошибки, классифицированные из ответов API
	ErrBucketNotFound     = errors.New("bucket not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
	ErrOperationTimeout   = errors.New("operation timed out")
	ErrOperationCanceled  = errors.New("operation canceled")
)
