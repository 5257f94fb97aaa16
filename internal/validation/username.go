// Package validation проверки полей учетной записи, общие для сервера и CLI.
package validation

import (
	"errors"
	"fmt"
	"regexp"
)

const (
	// MinUsernameLen минимальная длина username
	MinUsernameLen = 3
	// MaxUsernameLen максимальная длина username
	MaxUsernameLen = 32
)

// usernamePattern латиница, цифры и . _ -, первый символ буква или цифра.
// Регистр не важен для уникальности, но сохраняется для отображения.
var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

var (
	// ErrUsernameEmpty username не задан
	ErrUsernameEmpty = errors.New("username cannot be empty")
	// ErrUsernameCharset недопустимые символы
	ErrUsernameCharset = errors.New("username may contain only latin letters, digits, '.', '_' and '-', and must start with a letter or digit")
)

// ValidateUsername проверяет длину и алфавит username
func ValidateUsername(username string) error {
	switch n := len(username); {
	case n == 0:
		return ErrUsernameEmpty
	case n < MinUsernameLen:
		return fmt.Errorf("username must be at least %d characters long", MinUsernameLen)
	case n > MaxUsernameLen:
		return fmt.Errorf("username must not exceed %d characters", MaxUsernameLen)
	}

	if !usernamePattern.MatchString(username) {
		return ErrUsernameCharset
	}
	return nil
}
