package crypto

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes предел входа bcrypt, все что длиннее отбрасывается алгоритмом
const MaxPasswordBytes = 72

var (
	// ErrEmptyPassword пароль не может быть пустым
	ErrEmptyPassword = errors.New("password cannot be empty")
	// ErrPasswordTooLong пароль длиннее MaxPasswordBytes
	ErrPasswordTooLong = fmt.Errorf("password must not exceed %d bytes", MaxPasswordBytes)
)

// PasswordHasher хеширует и проверяет пароли пользователей
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// BcryptHasher реализует PasswordHasher поверх bcrypt
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher создает hasher с заданной стоимостью
// Значения вне [bcrypt.MinCost, bcrypt.MaxCost] заменяются на bcrypt.DefaultCost
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Cost возвращает используемую стоимость bcrypt
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash хеширует пароль с новой случайной солью
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	if len(plaintext) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hash), nil
}

// Verify проверяет пароль против хеша
// Сравнение выполняется bcrypt за постоянное время, битый хеш дает false
func (h *BcryptHasher) Verify(plaintext, hash string) bool {
	if plaintext == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
