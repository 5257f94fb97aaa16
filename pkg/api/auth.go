package api

// LoginRequest представляет запрос на аутентификацию
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse ответ на успешный логин
type LoginResponse struct {
	Token string `json:"token"` // JWT, передается в заголовке Authorization: Bearer
	Role  string `json:"role"`  // Admin | User
}

// UserView публичное представление профиля
type UserView struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// EditUserRequest запрос на изменение профиля, отсутствующие поля не меняются
type EditUserRequest struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

// EditUserResponse ответ на изменение профиля, всегда со свежим токеном
type EditUserResponse struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

// VerifyResponse ответ GET /auth/verify
type VerifyResponse struct {
	User  string `json:"user"`
	Valid bool   `json:"valid"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}
