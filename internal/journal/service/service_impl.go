package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/catalogadmin/internal/clock"
	journaldomain "github.com/smallbiznis/catalogadmin/internal/journal/domain"
	obscontext "github.com/smallbiznis/catalogadmin/internal/observability/context"
	"github.com/smallbiznis/catalogadmin/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  journaldomain.Repository
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  journaldomain.Repository
	clock clock.Clock
}

func NewService(p Params) journaldomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("journal.service"),
		genID: p.GenID,
		repo:  p.Repo,
		clock: p.Clock,
	}
}

var validModes = map[string]struct{}{
	"create": {},
	"update": {},
}

var validOutcomes = map[string]struct{}{
	"succeeded":          {},
	"rejected_locally":   {},
	"rejected_by_server": {},
	"failed":             {},
}

func (s *Service) Record(ctx context.Context, entry journaldomain.Entry) error {
	entry.Mode = strings.TrimSpace(entry.Mode)
	if _, ok := validModes[entry.Mode]; !ok {
		return journaldomain.ErrInvalidMode
	}
	entry.Outcome = strings.TrimSpace(entry.Outcome)
	if _, ok := validOutcomes[entry.Outcome]; !ok {
		return journaldomain.ErrInvalidOutcome
	}

	if entry.ViewID == "" {
		entry.ViewID = obscontext.ViewIDFromContext(ctx)
	}
	if entry.RequestID == "" {
		entry.RequestID = obscontext.RequestIDFromContext(ctx)
	}
	if entry.FieldErrors == nil {
		entry.FieldErrors = datatypes.JSONMap{}
	}
	entry.SKU = strings.TrimSpace(entry.SKU)
	entry.Name = strings.TrimSpace(entry.Name)
	entry.ID = s.genID.Generate()
	entry.CreatedAt = s.clock.Now().UTC()

	err := s.repo.Insert(ctx, s.db, &entry)
	if db.IsDuplicateKeyErr(err) {
		entry.ID = s.genID.Generate()
		err = s.repo.Insert(ctx, s.db, &entry)
	}
	if err != nil {
		s.log.Warn("failed to write submission journal",
			zap.String("outcome", entry.Outcome),
			zap.String("view_id", entry.ViewID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *Service) Recent(ctx context.Context, limit int) ([]journaldomain.Entry, error) {
	if limit <= 0 {
		limit = journaldomain.DefaultRecentLimit
	}
	if limit > journaldomain.MaxRecentLimit {
		limit = journaldomain.MaxRecentLimit
	}
	entries, err := s.repo.Recent(ctx, s.db, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []journaldomain.Entry{}
	}
	return entries, nil
}

func (s *Service) Summary(ctx context.Context) (journaldomain.Summary, error) {
	recent, err := s.Recent(ctx, journaldomain.DefaultRecentLimit)
	if err != nil {
		return journaldomain.Summary{}, err
	}
	counts, err := s.repo.CountByOutcome(ctx, s.db)
	if err != nil {
		return journaldomain.Summary{}, err
	}

	var total int64
	for outcome := range validOutcomes {
		if _, ok := counts[outcome]; !ok {
			counts[outcome] = 0
		}
	}
	for _, n := range counts {
		total += n
	}
	return journaldomain.Summary{Recent: recent, Counts: counts, Total: total}, nil
}
