package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

const (
	DefaultRecentLimit = 20
	MaxRecentLimit     = 200
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *Entry) error
	Recent(ctx context.Context, db *gorm.DB, limit int) ([]Entry, error)
	CountByOutcome(ctx context.Context, db *gorm.DB) (map[string]int64, error)
}

// Summary is what the dashboard shows.
type Summary struct {
	Recent []Entry          `json:"recent"`
	Counts map[string]int64 `json:"counts"`
	Total  int64            `json:"total"`
}

type Service interface {
	Record(ctx context.Context, entry Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Summary(ctx context.Context) (Summary, error)
}

var (
	ErrInvalidMode    = errors.New("invalid_mode")
	ErrInvalidOutcome = errors.New("invalid_outcome")
)
