package service

import (
	"context"

	journaldomain "github.com/smallbiznis/catalogadmin/internal/journal/domain"
	"github.com/smallbiznis/catalogadmin/internal/observability/logger"
	"github.com/smallbiznis/catalogadmin/internal/product/form"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// NewSubmitHook journals every terminal form submission. Write failures are
// logged and never reach the form.
func NewSubmitHook(svc journaldomain.Service, log *zap.Logger) form.SubmitHook {
	log = log.Named("journal.hook")
	return func(ctx context.Context, res form.Result) {
		entry := EntryFromResult(res)
		if err := svc.Record(context.WithoutCancel(ctx), entry); err != nil {
			logger.WithContext(ctx, log).Warn("submission not journaled", zap.Error(err))
		}
	}
}

// EntryFromResult maps a submit result onto a journal entry.
func EntryFromResult(res form.Result) journaldomain.Entry {
	fieldErrors := datatypes.JSONMap{}
	for field, message := range res.Errors {
		fieldErrors[field] = message
	}
	entry := journaldomain.Entry{
		Mode:        string(res.Mode),
		Outcome:     string(res.Outcome),
		SKU:         res.Record.SKU,
		Name:        res.Record.Name,
		Message:     res.Message,
		FieldErrors: fieldErrors,
	}
	if res.Record.ID != nil {
		id := *res.Record.ID
		entry.ProductID = &id
	}
	return entry
}
