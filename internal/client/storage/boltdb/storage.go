// Package boltdb хранит сессию CLI клиента в локальном файле BoltDB.
package boltdb

import (
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// bucketAuth bucket сессии
var bucketAuth = []byte("auth")

// Storage BoltDB хранилище клиента
type Storage struct {
	db *bbolt.DB
}

// New открывает (или создает) файл dbPath с правами 0600
func New(_ context.Context, dbPath string) (*Storage, error) {
	// Timeout: второй запущенный клиент не должен висеть на блокировке файла
	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	storage := &Storage{db: db}

	if err := storage.initBuckets(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return storage, nil
}

// Close закрывает базу, повторный вызов ничего не делает
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketAuth); err != nil {
			return fmt.Errorf("failed to create auth bucket: %w", err)
		}
		return nil
	})
}
