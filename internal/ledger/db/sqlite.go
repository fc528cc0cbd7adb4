package db

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewSQLiteRepository opens a SQLite-backed repository. Used for local
// development and tests; production runs on Postgres.
func NewSQLiteRepository(dsn string) (*Repository, error) {
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	repo := &Repository{db: gdb}
	if err := repo.migrate(); err != nil {
		return nil, err
	}
	return repo, nil
}
