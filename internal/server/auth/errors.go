package auth

import (
	"errors"
	"fmt"
)

// Ошибки сервиса авторизации. Хендлеры сопоставляют их с HTTP статусами
// через errors.Is, детали наружу не отдаются.
var (
	// ErrValidation некорректный ввод, см. ValidationError
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized отсутствующий, невалидный или просроченный токен,
	// либо неверная пара username/password
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden токен валиден, но роли недостаточно
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound пользователь не найден
	ErrNotFound = errors.New("user not found")

	// ErrConflict username уже занят
	ErrConflict = errors.New("username already taken")
)

// ValidationError описывает невалидное поле запроса
type ValidationError struct {
	Err   error
	Field string
}

func newValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

// Unwrap позволяет errors.Is(err, ErrValidation) и доступ к исходной ошибке
func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}
