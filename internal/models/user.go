package models

import (
	"strings"
	"time"
)

// Role определяет уровень доступа пользователя
type Role string

const (
	// RoleAdmin может изменять посты и изображения, управлять пользователями
	RoleAdmin Role = "Admin"
	// RoleUser роль по умолчанию
	RoleUser Role = "User"
)

// ParseRole разбирает роль без учета регистра
func ParseRole(s string) (Role, bool) {
	switch {
	case strings.EqualFold(s, string(RoleAdmin)):
		return RoleAdmin, true
	case strings.EqualFold(s, string(RoleUser)):
		return RoleUser, true
	default:
		return "", false
	}
}

// Satisfies сообщает, достаточно ли роли r для required
func (r Role) Satisfies(required Role) bool {
	if required == RoleAdmin {
		return r == RoleAdmin
	}
	return r == RoleAdmin || r == RoleUser
}

// User представляет пользователя в системе
type User struct {
	CreatedAt    time.Time `json:"created_at"` // время создания
	UpdatedAt    time.Time `json:"updated_at"` // время последнего обновления
	ID           string    `json:"id"`         // UUID пользователя
	Username     string    `json:"username"`   // уникальный username (без учета регистра)
	PasswordHash string    `json:"-"`          // bcrypt хеш пароля, никогда не отдается наружу
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
}

// View возвращает публичное представление пользователя
func (u *User) View() UserView {
	return UserView{
		Username: u.Username,
		Email:    u.Email,
	}
}

// UserView то, что видит сам пользователь о своем профиле
type UserView struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}
