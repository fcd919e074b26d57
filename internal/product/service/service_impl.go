package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/smallbiznis/catalogadmin/internal/catalogapi"
	"github.com/smallbiznis/catalogadmin/internal/observability/logger"
	"github.com/smallbiznis/catalogadmin/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		log:  p.Log.Named("product.service"),
		repo: p.Repo,
	}
}

func (s *Service) Get(ctx context.Context, id int64) (domain.Record, error) {
	if id <= 0 {
		return domain.Record{}, domain.ErrInvalidID
	}

	record, err := s.repo.Get(ctx, id)
	if err != nil {
		if catalogapi.IsNotFound(err) {
			return domain.Record{}, domain.ErrNotFound
		}
		if errors.Is(err, domain.ErrInvalidID) {
			return domain.Record{}, err
		}
		logger.WithContext(ctx, s.log).Warn("product fetch failed", zap.Int64("product_id", id), zap.Error(err))
		return domain.Record{}, fmt.Errorf("get product %d: %w", id, err)
	}

	if record.ID == nil {
		record.ID = &id
	}
	if record.ProductImages == nil {
		record.ProductImages = []string{}
	}
	return record, nil
}
