package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/smallbiznis/catalogadmin/internal/cache"
	"github.com/smallbiznis/catalogadmin/internal/clock"
	"github.com/smallbiznis/catalogadmin/internal/notify"
	"github.com/smallbiznis/catalogadmin/internal/observability/metrics"
	"github.com/smallbiznis/catalogadmin/internal/product/domain"
	"github.com/smallbiznis/catalogadmin/internal/product/form"
	"github.com/smallbiznis/catalogadmin/internal/product/query"
	"go.uber.org/zap"
)

const (
	DefaultTTL         = 30 * time.Minute
	defaultNoticeLimit = 20
	minSweepInterval   = 10 * time.Second
)

// View is the server-side state of one browser: its list view, its product
// form and the notifications waiting to be shown.
type View struct {
	ID        string
	Query     *query.Controller
	Form      *form.Pipeline
	Notices   *notify.Queue
	CreatedAt time.Time
}

type Deps struct {
	Repository domain.Repository
	Log        *zap.Logger
	Metrics    *metrics.Metrics
	Clock      clock.Clock
	TTL        time.Duration
	// SubmitDelay is passed to every form pipeline.
	SubmitDelay time.Duration
	// PageSizes and DefaultPageSize are read when a view is created and on
	// every validation, so option reloads apply to live views.
	PageSizes       func() []int
	DefaultPageSize func() int
	OnSubmit        form.SubmitHook
}

// Registry holds the live views keyed by cookie id. Idle views expire after
// the TTL and their controllers are closed.
type Registry struct {
	deps  Deps
	log   *zap.Logger
	mu    sync.Mutex
	views *cache.TTLCache[string, *View]
}

func New(d Deps) *Registry {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Clock == nil {
		d.Clock = clock.New()
	}
	if d.TTL <= 0 {
		d.TTL = DefaultTTL
	}
	if d.DefaultPageSize == nil {
		d.DefaultPageSize = func() int { return domain.DefaultPageSize }
	}

	r := &Registry{
		deps: d,
		log:  d.Log.Named("session.registry"),
	}
	r.views = cache.NewTTLCache[string, *View](
		cache.WithNow[string, *View](d.Clock.Now),
		cache.WithEvictHook(r.evict),
	)
	return r
}

// Resolve returns the view for id, creating one when id is unknown or
// malformed. created reports whether a new view was made; its ID may differ
// from the one passed in.
func (r *Registry) Resolve(id string) (view *View, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id != "" {
		if v, ok := r.views.Get(id); ok {
			r.views.Touch(id, r.deps.TTL)
			return v, false
		}
	}
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}

	view = r.newView(id)
	r.views.Set(id, view, r.deps.TTL)
	r.log.Debug("view created", zap.String("view_id", id))
	return view, true
}

// Lookup returns a live view without creating one.
func (r *Registry) Lookup(id string) (*View, bool) {
	return r.views.Get(id)
}

// Close removes a view immediately.
func (r *Registry) Close(id string) {
	r.views.Delete(id)
}

func (r *Registry) Len() int {
	return r.views.Len()
}

// Sweep expires idle views.
func (r *Registry) Sweep() int {
	return r.views.Sweep()
}

// RunForever sweeps periodically until ctx is done.
func (r *Registry) RunForever(ctx context.Context) {
	interval := r.deps.TTL / 4
	if interval < minSweepInterval {
		interval = minSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.log.Debug("views expired", zap.Int("count", n))
			}
		}
	}
}

func (r *Registry) newView(id string) *View {
	notices := notify.NewQueue(defaultNoticeLimit)
	log := r.deps.Log.With(zap.String("view_id", id))
	return &View{
		ID: id,
		Query: query.NewController(query.Deps{
			Fetcher:   r.deps.Repository,
			Notifier:  notices,
			Log:       log,
			Metrics:   r.deps.Metrics,
			PageSizes: r.deps.PageSizes,
		}, r.deps.DefaultPageSize()),
		Form: form.NewPipeline(form.Deps{
			Saver:    r.deps.Repository,
			Notifier: notices,
			Log:      log,
			Metrics:  r.deps.Metrics,
			Clock:    r.deps.Clock,
			Delay:    r.deps.SubmitDelay,
			OnSubmit: r.deps.OnSubmit,
		}),
		Notices:   notices,
		CreatedAt: r.deps.Clock.Now(),
	}
}

func (r *Registry) evict(id string, view *View) {
	view.Query.Close()
	r.log.Debug("view closed", zap.String("view_id", id))
}
