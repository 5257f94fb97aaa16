package api

import "time"

// PostRequest тело создания и редактирования поста
type PostRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	ImageURL string `json:"imageUrl,omitempty"` // имя файла, полученное от /image/upload
}

// Post пост в ответах API
type Post struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"imageUrl,omitempty"`
}

// UploadResponse ответ на загрузку изображения
type UploadResponse struct {
	FileName string `json:"fileName"`
}

// HealthResponse ответ health check
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
