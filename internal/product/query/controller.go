package query

import (
	"context"
	"errors"
	"sync"

	"github.com/smallbiznis/catalogadmin/internal/notify"
	"github.com/smallbiznis/catalogadmin/internal/observability/logger"
	"github.com/smallbiznis/catalogadmin/internal/observability/metrics"
	"github.com/smallbiznis/catalogadmin/internal/product/domain"
	"go.uber.org/zap"
)

const MsgFetchFailed = "Failed to fetch products."

const (
	dropSuperseded = "superseded"
	dropClosed     = "closed"
	dropCanceled   = "canceled"
)

// Fetcher reads one page of the product list.
type Fetcher interface {
	List(ctx context.Context, q domain.ListQuery) (domain.PagedResult, error)
}

type Deps struct {
	Fetcher  Fetcher
	Notifier notify.Notifier
	Log      *zap.Logger
	Metrics  *metrics.Metrics
	// PageSizes returns the allowed page sizes; nil allows any size.
	PageSizes func() []int
}

// Snapshot is a consistent copy of the controller state.
type Snapshot struct {
	Query      domain.ListQuery   `json:"query"`
	Errors     domain.FieldErrors `json:"errors"`
	Products   []domain.Record    `json:"products"`
	TotalPages int                `json:"totalPages"`
	Loading    bool               `json:"loading"`
	Generation uint64             `json:"generation"`
}

// HasPrev reports whether a previous page exists.
func (s Snapshot) HasPrev() bool {
	return s.Query.PageNo > 0
}

// HasNext reports whether the server has a page after the current one.
func (s Snapshot) HasNext() bool {
	return s.Query.PageNo+1 < s.TotalPages
}

// Controller owns the list query of one view and drives fetches for it.
// Every fetch is tagged with a generation; a completion is applied only when
// its generation is still the latest issued.
type Controller struct {
	fetcher   Fetcher
	notifier  notify.Notifier
	log       *zap.Logger
	metrics   *metrics.Metrics
	pageSizes func() []int

	mu         sync.Mutex
	query      domain.ListQuery
	errs       domain.FieldErrors
	products   []domain.Record
	totalPages int
	loading    bool
	generation uint64
	closed     bool
}

func NewController(d Deps, defaultPageSize int) *Controller {
	if d.Notifier == nil {
		d.Notifier = notify.Discard
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &Controller{
		fetcher:   d.Fetcher,
		notifier:  d.Notifier,
		log:       d.Log.Named("product.query"),
		metrics:   d.Metrics,
		pageSizes: d.PageSizes,
		query:     domain.DefaultListQuery(defaultPageSize),
		errs:      domain.FieldErrors{},
		products:  []domain.Record{},
	}
}

// SetFilter merges patch into the current query and runs validate-then-fetch.
// Every call fetches, even when nothing changed.
func (c *Controller) SetFilter(ctx context.Context, patch domain.QueryPatch) Snapshot {
	c.mu.Lock()
	c.query = c.query.Apply(patch)
	c.mu.Unlock()
	return c.ValidateAndFetch(ctx)
}

// RejectInput records errors for parameters that could not be parsed. No
// fetch is issued and in-flight fetches are superseded.
func (c *Controller) RejectInput(errs domain.FieldErrors) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = errs.Clone()
	c.generation++
	c.loading = false
	return c.snapshotLocked()
}

// ValidateAndFetch checks the current query. On failure the field errors are
// recorded and rows stay as they were; on success the errors are cleared and
// the query is fetched.
func (c *Controller) ValidateAndFetch(ctx context.Context) Snapshot {
	c.mu.Lock()
	if c.closed {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap
	}

	errs := c.query.Validate(c.allowedSizes())
	if !errs.Empty() {
		c.errs = errs
		c.generation++
		c.loading = false
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.log.Debug("list query rejected", zap.Strings("fields", errs.Fields()))
		return snap
	}

	c.errs = domain.FieldErrors{}
	c.generation++
	gen := c.generation
	q := c.query
	c.loading = true
	c.mu.Unlock()

	page, err := c.fetcher.List(ctx, q)
	c.complete(ctx, gen, page, err)
	return c.Snapshot()
}

func (c *Controller) complete(ctx context.Context, gen uint64, page domain.PagedResult, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	log := logger.WithContext(ctx, c.log).With(zap.Uint64("generation", gen))

	if c.closed {
		c.metrics.RecordStaleFetchDropped(ctx, dropClosed)
		log.Debug("fetch completed after close, dropped")
		return
	}
	if gen != c.generation {
		c.metrics.RecordStaleFetchDropped(ctx, dropSuperseded)
		log.Debug("stale fetch dropped", zap.Uint64("latest", c.generation))
		return
	}

	c.loading = false
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			c.metrics.RecordStaleFetchDropped(ctx, dropCanceled)
			log.Debug("fetch abandoned", zap.Error(err))
			return
		}
		c.metrics.RecordListFetch(ctx, "error")
		log.Warn("product list fetch failed", zap.Error(err))
		c.notifier.Notify(notify.Error(MsgFetchFailed))
		return
	}

	c.metrics.RecordListFetch(ctx, "ok")
	products := page.Content
	if products == nil {
		products = []domain.Record{}
	}
	c.products = products
	c.totalPages = page.TotalPages
}

// Close abandons the view. Completions arriving later are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.loading = false
}

func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	products := make([]domain.Record, len(c.products))
	copy(products, c.products)
	return Snapshot{
		Query:      c.query,
		Errors:     c.errs.Clone(),
		Products:   products,
		TotalPages: c.totalPages,
		Loading:    c.loading,
		Generation: c.generation,
	}
}

func (c *Controller) allowedSizes() []int {
	if c.pageSizes == nil {
		return nil
	}
	return c.pageSizes()
}
