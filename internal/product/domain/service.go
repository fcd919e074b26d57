package domain

import (
	"context"
	"strconv"
	"strings"
)

// Service reads single products for the edit flow.
type Service interface {
	Get(ctx context.Context, id int64) (Record, error)
}

// ParseID reads a product id from a query or path parameter.
func ParseID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrInvalidID
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
