package api

import "time"

// SignupRequest запрос на регистрацию
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// User представление пользователя для администратора
type User struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
}

// SetRoleRequest запрос на смену роли
type SetRoleRequest struct {
	Role string `json:"role"`
}
