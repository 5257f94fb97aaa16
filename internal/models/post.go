package models

import "time"

// Post представляет запись в блоге
type Post struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	// ImageURL имя файла в хранилище изображений, пустое если картинки нет
	ImageURL string `json:"imageUrl,omitempty"`
}
