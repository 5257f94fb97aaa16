package storage

import "errors"

var (
	// ErrAuthNotFound сохраненной сессии нет
	ErrAuthNotFound = errors.New("authentication data not found")

	// ErrStorageClosed хранилище уже закрыто
	ErrStorageClosed = errors.New("storage is closed")
)
